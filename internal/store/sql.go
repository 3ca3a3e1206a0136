package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/AnshRaj112/reflections-backend/internal/models"
)

// Dialect selects placeholder syntax and error decoding.
type Dialect string

const (
	DialectPostgres Dialect = "postgres"
	DialectSQLite   Dialect = "sqlite"
)

const insertColumns = "id, created_at, email, neighborhood, reflection, title, photo_url, featured"

// SQLStore implements RecordStore on database/sql.
type SQLStore struct {
	db      *sql.DB
	dialect Dialect
	now     func() time.Time
}

// NewSQLStore wraps an open database handle.
func NewSQLStore(db *sql.DB, dialect Dialect) *SQLStore {
	return &SQLStore{db: db, dialect: dialect, now: time.Now}
}

func (s *SQLStore) placeholder(n int) string {
	if s.dialect == DialectPostgres {
		return "$" + strconv.Itoa(n)
	}
	return "?"
}

// Insert writes every column, featured and title included, so a schema that is
// missing them fails instead of silently dropping values.
func (s *SQLStore) Insert(ctx context.Context, r *models.Reflection) error {
	id := uuid.NewString()
	createdAt := r.CreatedAt
	if createdAt.IsZero() {
		createdAt = s.now().UTC()
	}

	ph := make([]string, 8)
	for i := range ph {
		ph[i] = s.placeholder(i + 1)
	}
	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", Table, insertColumns, strings.Join(ph, ", "))

	_, err := s.db.ExecContext(ctx, query,
		id,
		createdAt,
		r.Email,
		r.Neighborhood,
		r.Reflection,
		nullString(r.Title),
		nullString(r.PhotoURL),
		r.Featured,
	)
	if err != nil {
		return s.wrap("insert", err)
	}

	r.ID = id
	r.CreatedAt = createdAt
	return nil
}

// List selects all columns, applies the featured and neighborhood filters and
// orders by created_at descending. Rows are scanned by column name so a table
// that predates the curation columns still lists.
func (s *SQLStore) List(ctx context.Context, f models.ReflectionFilter) ([]models.Reflection, error) {
	var (
		where []string
		args  []any
	)
	if f.FeaturedOnly {
		args = append(args, true)
		where = append(where, "featured = "+s.placeholder(len(args)))
	}
	if f.Neighborhood != "" {
		args = append(args, f.Neighborhood)
		where = append(where, "neighborhood = "+s.placeholder(len(args)))
	}

	var b strings.Builder
	b.WriteString("SELECT * FROM " + Table)
	if len(where) > 0 {
		b.WriteString(" WHERE ")
		b.WriteString(strings.Join(where, " AND "))
	}
	b.WriteString(" ORDER BY created_at DESC")

	rows, err := s.db.QueryContext(ctx, b.String(), args...)
	if err != nil {
		return nil, s.wrap("list", err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, s.wrap("list", err)
	}

	out := []models.Reflection{}
	for rows.Next() {
		r, err := scanReflection(rows, cols)
		if err != nil {
			return nil, s.wrap("scan", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, s.wrap("list", err)
	}
	return out, nil
}

func scanReflection(rows *sql.Rows, cols []string) (models.Reflection, error) {
	var (
		r        models.Reflection
		title    sql.NullString
		photoURL sql.NullString
		featured sql.NullBool
		skip     any
	)
	dest := make([]any, len(cols))
	for i, col := range cols {
		switch strings.ToLower(col) {
		case "id":
			dest[i] = &r.ID
		case "created_at":
			dest[i] = &r.CreatedAt
		case "email":
			dest[i] = &r.Email
		case "neighborhood":
			dest[i] = &r.Neighborhood
		case "reflection":
			dest[i] = &r.Reflection
		case "title":
			dest[i] = &title
		case "photo_url":
			dest[i] = &photoURL
		case "featured":
			dest[i] = &featured
		default:
			dest[i] = &skip
		}
	}
	if err := rows.Scan(dest...); err != nil {
		return r, err
	}
	r.Title = stringPtr(title)
	r.PhotoURL = stringPtr(photoURL)
	r.Featured = featured.Valid && featured.Bool
	return r, nil
}

func (s *SQLStore) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+Table).Scan(&n); err != nil {
		return 0, s.wrap("count", err)
	}
	return n, nil
}

// wrap turns driver errors into MissingColumnError or QueryError.
// Only server-reported messages become client-visible detail.
func (s *SQLStore) wrap(op string, err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		if pqErr.Code == "42703" {
			if m := postgresMissingColumn.FindStringSubmatch(pqErr.Message); m != nil {
				return &MissingColumnError{Column: m[1], Err: err}
			}
		}
		return &QueryError{Op: op, Detail: pqErr.Message, Err: err}
	}
	if s.dialect == DialectSQLite {
		if m := sqliteMissingColumn.FindStringSubmatch(err.Error()); m != nil {
			return &MissingColumnError{Column: m[1], Err: err}
		}
		return &QueryError{Op: op, Detail: err.Error(), Err: err}
	}
	return &QueryError{Op: op, Err: err}
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func stringPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	v := ns.String
	return &v
}
