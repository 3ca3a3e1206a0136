package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/AnshRaj112/reflections-backend/internal/models"
)

const (
	// CacheKeyPrefix is the Redis key prefix for cached listings
	CacheKeyPrefix = "cache:reflections:"
	// DefaultCacheTTL bounds how long an out-of-band featured change stays invisible
	DefaultCacheTTL = 60 * time.Second
	// MaxCacheTTL caps configured TTLs
	MaxCacheTTL = 10 * time.Minute

	generationKey = CacheKeyPrefix + "gen"
)

// Generation identifies the cache state a lookup observed. A listing read from
// the store after a miss is stored under the generation of that miss, so an
// insert landing in between leaves it unreachable.
type Generation int64

// NoGeneration is returned when the cache could not be read; Set ignores it.
const NoGeneration Generation = -1

// ListingCache caches listing results per filter. Implementations swallow
// their own failures; a broken cache only costs a store round trip.
type ListingCache interface {
	Get(ctx context.Context, f models.ReflectionFilter) ([]models.Reflection, Generation, bool)
	Set(ctx context.Context, gen Generation, f models.ReflectionFilter, list []models.Reflection)
	Invalidate(ctx context.Context)
}

// RedisListingCache keys entries by a generation counter; Invalidate bumps the
// counter so every older entry becomes unreachable and expires on its TTL.
type RedisListingCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

func NewRedisListingCache(client *redis.Client, ttl time.Duration, logger *zap.Logger) *RedisListingCache {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	if ttl > MaxCacheTTL {
		ttl = MaxCacheTTL
	}
	return &RedisListingCache{client: client, ttl: ttl, logger: logger}
}

func (c *RedisListingCache) generation(ctx context.Context) (Generation, error) {
	gen, err := c.client.Get(ctx, generationKey).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return NoGeneration, err
	}
	return Generation(gen), nil
}

// Get returns the cached listing for f along with the generation it was
// looked up under. On a miss the generation is still valid for Set.
func (c *RedisListingCache) Get(ctx context.Context, f models.ReflectionFilter) ([]models.Reflection, Generation, bool) {
	gen, err := c.generation(ctx)
	if err != nil {
		c.logger.Warn("listing cache generation read failed", zap.Error(err))
		return nil, NoGeneration, false
	}

	val, err := c.client.Get(ctx, listingKey(gen, f)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Warn("listing cache read failed", zap.Error(err))
		}
		return nil, gen, false
	}

	var list []models.Reflection
	if err := json.Unmarshal(val, &list); err != nil {
		c.logger.Warn("listing cache entry corrupt", zap.Error(err))
		return nil, gen, false
	}
	return list, gen, true
}

// Set stores list under gen. If Invalidate ran since gen was read the entry
// lands on a key no reader asks for and expires on its TTL.
func (c *RedisListingCache) Set(ctx context.Context, gen Generation, f models.ReflectionFilter, list []models.Reflection) {
	if gen < 0 {
		return
	}
	data, err := json.Marshal(list)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, listingKey(gen, f), data, c.ttl).Err(); err != nil {
		c.logger.Warn("listing cache write failed", zap.Error(err))
	}
}

func (c *RedisListingCache) Invalidate(ctx context.Context) {
	if err := c.client.Incr(ctx, generationKey).Err(); err != nil {
		c.logger.Warn("listing cache invalidation failed", zap.Error(err))
	}
}

// listingKey encodes the generation and both filters.
// Neighborhoods are compared exactly, so the value is escaped, not normalized.
func listingKey(gen Generation, f models.ReflectionFilter) string {
	return fmt.Sprintf("%sv%s:featured=%t:neighborhood=%s",
		CacheKeyPrefix, strconv.FormatInt(int64(gen), 10), f.FeaturedOnly, url.QueryEscape(f.Neighborhood))
}
