package database

import (
	"context"
	"database/sql"
	"time"

	_ "github.com/lib/pq"
	"go.uber.org/zap"
)

// ConnectPostgres opens and pings a PostgreSQL pool.
func ConnectPostgres(ctx context.Context, postgresURI string, logger *zap.Logger) (*sql.DB, error) {
	db, err := sql.Open("postgres", postgresURI)
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, err
	}

	logger.Info("✅ Connected to PostgreSQL")
	return db, nil
}

// Base table. featured and title arrive through the follow-up migration so a
// database created by an older deployment converges on the same shape.
var postgresBase = []string{
	`CREATE TABLE IF NOT EXISTS reflections (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		email VARCHAR(255) NOT NULL,
		neighborhood VARCHAR(255) NOT NULL,
		reflection TEXT NOT NULL,
		photo_url TEXT
	)`,
	`CREATE INDEX IF NOT EXISTS idx_reflections_created_at ON reflections(created_at DESC)`,
	`CREATE INDEX IF NOT EXISTS idx_reflections_neighborhood ON reflections(neighborhood)`,
}

var postgresFeatured = []string{
	`ALTER TABLE reflections ADD COLUMN IF NOT EXISTS featured BOOLEAN NOT NULL DEFAULT FALSE`,
	`ALTER TABLE reflections ADD COLUMN IF NOT EXISTS title VARCHAR(255)`,
	`CREATE INDEX IF NOT EXISTS idx_reflections_featured ON reflections(featured) WHERE featured = TRUE`,
}

// MigratePostgres creates the reflections table and adds the curation columns.
func MigratePostgres(ctx context.Context, db *sql.DB, logger *zap.Logger) error {
	for _, query := range append(postgresBase, postgresFeatured...) {
		if _, err := db.ExecContext(ctx, query); err != nil {
			return err
		}
	}
	logger.Info("✅ PostgreSQL tables initialized")
	return nil
}
