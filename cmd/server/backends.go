package main

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/AnshRaj112/reflections-backend/internal/config"
	"github.com/AnshRaj112/reflections-backend/internal/database"
	"github.com/AnshRaj112/reflections-backend/internal/services"
	"github.com/AnshRaj112/reflections-backend/internal/storage"
	"github.com/AnshRaj112/reflections-backend/internal/store"
)

// recordBackend is an opened record store plus its schema and lifecycle hooks.
type recordBackend struct {
	records store.RecordStore
	migrate func(ctx context.Context) error
	close   func() error
}

func openRecordStore(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*recordBackend, error) {
	switch cfg.RecordStore {
	case config.RecordStorePostgres:
		logger.Info("Connecting to PostgreSQL...")
		db, err := database.ConnectPostgres(ctx, cfg.PostgresURI, logger)
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		return &recordBackend{
			records: store.NewSQLStore(db, store.DialectPostgres),
			migrate: func(ctx context.Context) error { return database.MigratePostgres(ctx, db, logger) },
			close:   db.Close,
		}, nil

	case config.RecordStoreSQLite:
		db, err := database.OpenSQLite(cfg.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("open sqlite: %w", err)
		}
		logger.Info("✅ Opened SQLite", zap.String("path", cfg.SQLitePath))
		return &recordBackend{
			records: store.NewSQLStore(db, store.DialectSQLite),
			migrate: func(ctx context.Context) error { return database.MigrateSQLite(ctx, db, logger) },
			close:   db.Close,
		}, nil

	case config.RecordStoreMongo:
		logger.Info("Connecting to MongoDB...")
		client, db, err := database.ConnectMongo(ctx, cfg.MongoURI, cfg.MongoDatabase, logger)
		if err != nil {
			return nil, fmt.Errorf("connect mongo: %w", err)
		}
		return &recordBackend{
			records: store.NewMongoStore(db),
			migrate: func(ctx context.Context) error { return database.EnsureReflectionIndexes(ctx, db) },
			close:   func() error { return database.DisconnectMongo(client) },
		}, nil
	}
	return nil, fmt.Errorf("unknown record store %q", cfg.RecordStore)
}

// autoMigrate applies the schema when AUTO_MIGRATE is on. A failure is logged,
// not fatal: listings degrade on a missing featured column.
func (b *recordBackend) autoMigrate(ctx context.Context, cfg *config.Config, logger *zap.Logger) {
	if !cfg.AutoMigrate {
		return
	}
	if err := b.migrate(ctx); err != nil {
		logger.Warn("⚠️  migration warning", zap.Error(err))
		return
	}
	logger.Info("✅ Schema up to date")
}

// objectBackend is the configured media store. objects is nil when uploads are
// unavailable; local is set only for filesystem storage.
type objectBackend struct {
	objects   storage.ObjectStore
	local     *storage.LocalStore
	keyPrefix string
}

func openObjectStore(cfg *config.Config, logger *zap.Logger) (*objectBackend, error) {
	switch cfg.ObjectStore {
	case config.ObjectStoreLocal:
		local, err := storage.NewLocalStore(cfg.MediaDir, cfg.MediaBaseURL)
		if err != nil {
			return nil, err
		}
		logger.Info("✅ Local media storage initialized", zap.String("dir", local.Root()))
		return &objectBackend{objects: local, local: local, keyPrefix: "reflections"}, nil

	case config.ObjectStoreCloudinary:
		if !cfg.CloudinaryConfigured() {
			logger.Warn("Cloudinary credentials not found. File uploads will not be available")
			return &objectBackend{}, nil
		}
		cld, err := storage.NewCloudinaryStore(cfg.CloudinaryName, cfg.CloudinaryAPIKey, cfg.CloudinaryAPISecret)
		if err != nil {
			logger.Warn("Failed to initialize Cloudinary. File uploads will not be available", zap.Error(err))
			return &objectBackend{}, nil
		}
		logger.Info("✅ Cloudinary service initialized")
		return &objectBackend{objects: cld, keyPrefix: cfg.CloudinaryFolder}, nil
	}
	return nil, fmt.Errorf("unknown object store %q", cfg.ObjectStore)
}

// openListingCache connects Redis when REDIS_URI is set. Redis being down
// only disables caching.
func openListingCache(ctx context.Context, cfg *config.Config, logger *zap.Logger) (services.ListingCache, func() error) {
	if cfg.RedisURI == "" {
		return nil, func() error { return nil }
	}
	logger.Info("Connecting to Redis...")
	client, err := database.ConnectRedis(ctx, cfg.RedisURI, logger)
	if err != nil {
		logger.Warn("Redis unavailable; listing cache disabled", zap.Error(err))
		return nil, func() error { return nil }
	}
	return services.NewRedisListingCache(client, cfg.CacheTTL, logger), client.Close
}
