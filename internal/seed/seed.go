// Package seed loads demo reflections straight into a record store. It is the
// only path that writes featured records.
package seed

import (
	"context"
	_ "embed"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/AnshRaj112/reflections-backend/internal/models"
	"github.com/AnshRaj112/reflections-backend/internal/store"
)

// DemoEmail is the contact address on every demo record.
const DemoEmail = "demo@example.com"

//go:embed demo.yaml
var demoYAML []byte

// Entry is one seed record.
type Entry struct {
	Neighborhood string `yaml:"neighborhood"`
	Title        string `yaml:"title"`
	Reflection   string `yaml:"reflection"`
	Featured     bool   `yaml:"featured"`
	Email        string `yaml:"email"`
}

// Result summarizes a Seed run.
type Result struct {
	Skipped  bool
	Existing int64
	Featured int
	Regular  int
}

// Demo returns the embedded demo entries.
func Demo() ([]Entry, error) {
	return Parse(demoYAML)
}

// Parse decodes a YAML list of entries.
func Parse(data []byte) ([]Entry, error) {
	var entries []Entry
	if err := yaml.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("seed: parse: %w", err)
	}
	for i, e := range entries {
		if e.Neighborhood == "" || e.Reflection == "" {
			return nil, fmt.Errorf("seed: entry %d: neighborhood and reflection are required", i)
		}
	}
	return entries, nil
}

// Seed inserts entries unless the store already holds records. Entries get
// created_at one minute apart, the first entry newest.
func Seed(ctx context.Context, records store.RecordStore, entries []Entry, now time.Time, logger *zap.Logger) (Result, error) {
	existing, err := records.Count(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("seed: count: %w", err)
	}
	if existing > 0 {
		logger.Info("store already has reflections; skipping seed", zap.Int64("existing", existing))
		return Result{Skipped: true, Existing: existing}, nil
	}

	var res Result
	for i, e := range entries {
		email := e.Email
		if email == "" {
			email = DemoEmail
		}
		rec := models.Reflection{
			Email:        email,
			Neighborhood: e.Neighborhood,
			Reflection:   e.Reflection,
			Featured:     e.Featured,
			CreatedAt:    now.Add(-time.Duration(i) * time.Minute).UTC(),
		}
		if e.Title != "" {
			title := e.Title
			rec.Title = &title
		}
		if err := records.Insert(ctx, &rec); err != nil {
			return res, fmt.Errorf("seed: insert %q: %w", e.Title, err)
		}
		if e.Featured {
			res.Featured++
		} else {
			res.Regular++
		}
	}

	logger.Info("✅ Seeded demo reflections",
		zap.Int("featured", res.Featured),
		zap.Int("regular", res.Regular))
	return res, nil
}
