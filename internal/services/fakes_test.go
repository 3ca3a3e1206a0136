package services

import (
	"context"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/AnshRaj112/reflections-backend/internal/models"
	"github.com/AnshRaj112/reflections-backend/internal/storage"
)

type memoryStore struct {
	mu        sync.Mutex
	records   []models.Reflection
	seq       int
	insertErr error
	listErr   error
	clock     time.Time
	// afterList runs once the listing snapshot is taken, outside the lock.
	afterList func()
}

func (m *memoryStore) Insert(_ context.Context, r *models.Reflection) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.insertErr != nil {
		return m.insertErr
	}
	m.seq++
	r.ID = "rec-" + strconv.Itoa(m.seq)
	if r.CreatedAt.IsZero() {
		if m.clock.IsZero() {
			m.clock = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
		}
		m.clock = m.clock.Add(time.Second)
		r.CreatedAt = m.clock
	}
	m.records = append(m.records, *r)
	return nil
}

func (m *memoryStore) List(_ context.Context, f models.ReflectionFilter) ([]models.Reflection, error) {
	out, err := m.snapshot(f)
	if err == nil && m.afterList != nil {
		m.afterList()
	}
	return out, err
}

func (m *memoryStore) snapshot(f models.ReflectionFilter) ([]models.Reflection, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.listErr != nil {
		return nil, m.listErr
	}
	out := []models.Reflection{}
	for _, r := range m.records {
		if f.FeaturedOnly && !r.Featured {
			continue
		}
		if f.Neighborhood != "" && r.Neighborhood != f.Neighborhood {
			continue
		}
		out = append(out, r)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *memoryStore) Count(context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(len(m.records)), nil
}

func (m *memoryStore) len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.records)
}

type recordingObjects struct {
	mu      sync.Mutex
	uploads []storage.Object
	err     error
}

func (r *recordingObjects) Upload(_ context.Context, obj storage.Object) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return "", r.err
	}
	r.uploads = append(r.uploads, obj)
	return "https://media.example.com/" + obj.Key, nil
}

// mapCache mirrors RedisListingCache's generation keying in memory.
type mapCache struct {
	gen         Generation
	entries     map[string][]models.Reflection
	invalidated int
}

func newMapCache() *mapCache {
	return &mapCache{entries: map[string][]models.Reflection{}}
}

func (c *mapCache) Get(_ context.Context, f models.ReflectionFilter) ([]models.Reflection, Generation, bool) {
	list, ok := c.entries[listingKey(c.gen, f)]
	return list, c.gen, ok
}

func (c *mapCache) Set(_ context.Context, gen Generation, f models.ReflectionFilter, list []models.Reflection) {
	if gen < 0 {
		return
	}
	c.entries[listingKey(gen, f)] = list
}

func (c *mapCache) Invalidate(context.Context) {
	c.invalidated++
	c.gen++
}
