package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"github.com/AnshRaj112/reflections-backend/internal/config"
	"github.com/AnshRaj112/reflections-backend/internal/seed"
)

func migrateCommand() *cli.Command {
	return &cli.Command{
		Name:  "migrate",
		Usage: "Create the reflections schema and add the featured/title columns",
		Action: func(ctx context.Context, _ *cli.Command) error {
			cfg, logger, err := setup()
			if err != nil {
				return err
			}
			defer logger.Sync()

			rb, err := openRecordStore(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer rb.close()

			if err := rb.migrate(ctx); err != nil {
				return fmt.Errorf("migrate: %w", err)
			}
			logger.Info("✅ Migration completed")
			return nil
		},
	}
}

func seedCommand() *cli.Command {
	return &cli.Command{
		Name:  "seed",
		Usage: "Insert demo reflections into an empty store",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "file",
				Usage: "YAML file of entries (default: built-in demo data)",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg, logger, err := setup()
			if err != nil {
				return err
			}
			defer logger.Sync()

			entries, err := seedEntries(cmd.String("file"))
			if err != nil {
				return err
			}

			res, err := runSeed(ctx, cfg, logger, entries)
			if err != nil {
				return err
			}
			if res.Skipped {
				fmt.Printf("Store already has %d reflections; nothing inserted.\n", res.Existing)
				return nil
			}
			fmt.Printf("✓ Inserted %d demo entries\n  - %d featured entries\n  - %d regular entries\n",
				res.Featured+res.Regular, res.Featured, res.Regular)
			return nil
		},
	}
}

// runSeed inserts entries and, when anything was inserted, bumps the listing
// cache generation so running servers stop serving the pre-seed listing.
func runSeed(ctx context.Context, cfg *config.Config, logger *zap.Logger, entries []seed.Entry) (seed.Result, error) {
	rb, err := openRecordStore(ctx, cfg, logger)
	if err != nil {
		return seed.Result{}, err
	}
	defer rb.close()
	rb.autoMigrate(ctx, cfg, logger)

	res, err := seed.Seed(ctx, rb.records, entries, time.Now(), logger)
	if err != nil || res.Skipped {
		return res, err
	}

	cache, closeCache := openListingCache(ctx, cfg, logger)
	defer closeCache()
	if cache != nil {
		cache.Invalidate(ctx)
	}
	return res, nil
}

func seedEntries(path string) ([]seed.Entry, error) {
	if path == "" {
		return seed.Demo()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}
	return seed.Parse(data)
}
