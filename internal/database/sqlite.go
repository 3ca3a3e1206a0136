package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

// OpenSQLite opens a SQLite database file (or ":memory:") for local runs and tests.
// A single connection keeps in-memory databases shared across calls.
func OpenSQLite(path string) (*sql.DB, error) {
	dsn := "file:" + path + "?_time_format=sqlite&_pragma=busy_timeout(5000)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

const sqliteBase = `CREATE TABLE IF NOT EXISTS reflections (
	id TEXT PRIMARY KEY,
	created_at TIMESTAMP NOT NULL,
	email TEXT NOT NULL,
	neighborhood TEXT NOT NULL,
	reflection TEXT NOT NULL,
	photo_url TEXT
)`

// SQLite has no ADD COLUMN IF NOT EXISTS; missing columns are detected first.
var sqliteOptional = map[string]string{
	"featured": `ALTER TABLE reflections ADD COLUMN featured BOOLEAN NOT NULL DEFAULT 0`,
	"title":    `ALTER TABLE reflections ADD COLUMN title TEXT`,
}

// MigrateSQLite mirrors MigratePostgres for SQLite.
func MigrateSQLite(ctx context.Context, db *sql.DB, logger *zap.Logger) error {
	if err := CreateSQLiteBase(ctx, db); err != nil {
		return err
	}

	have, err := sqliteColumns(ctx, db)
	if err != nil {
		return err
	}
	for _, col := range []string{"featured", "title"} {
		if have[col] {
			continue
		}
		if _, err := db.ExecContext(ctx, sqliteOptional[col]); err != nil {
			return fmt.Errorf("add column %s: %w", col, err)
		}
	}

	stmts := []string{
		`CREATE INDEX IF NOT EXISTS idx_reflections_created_at ON reflections(created_at DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_reflections_neighborhood ON reflections(neighborhood)`,
		`CREATE INDEX IF NOT EXISTS idx_reflections_featured ON reflections(featured) WHERE featured = 1`,
	}
	for _, stmt := range stmts {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	logger.Info("✅ SQLite tables initialized")
	return nil
}

// CreateSQLiteBase creates the table without the curation columns.
func CreateSQLiteBase(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, sqliteBase)
	return err
}

func sqliteColumns(ctx context.Context, db *sql.DB) (map[string]bool, error) {
	rows, err := db.QueryContext(ctx, `SELECT name FROM pragma_table_info('reflections')`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	cols := map[string]bool{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		cols[strings.ToLower(name)] = true
	}
	return cols, rows.Err()
}
