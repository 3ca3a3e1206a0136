// Package store persists and queries reflection records.
package store

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"github.com/AnshRaj112/reflections-backend/internal/models"
)

// Table (or collection) holding reflections.
const Table = "reflections"

// RecordStore is the persistence boundary for reflections.
type RecordStore interface {
	// Insert assigns ID, and CreatedAt when it is zero, then persists r.
	Insert(ctx context.Context, r *models.Reflection) error
	// List returns matching reflections, newest first.
	List(ctx context.Context, f models.ReflectionFilter) ([]models.Reflection, error)
	Count(ctx context.Context) (int64, error)
}

// MissingColumnError reports a query against a column the schema does not have yet.
type MissingColumnError struct {
	Column string
	Err    error
}

func (e *MissingColumnError) Error() string {
	return fmt.Sprintf("store: column %q does not exist", e.Column)
}

func (e *MissingColumnError) Unwrap() error { return e.Err }

// IsMissingColumn reports whether err is a MissingColumnError for column.
func IsMissingColumn(err error, column string) bool {
	var mc *MissingColumnError
	return errors.As(err, &mc) && mc.Column == column
}

// QueryError wraps a failed store call with a client-safe detail message.
type QueryError struct {
	Op     string
	Detail string
	Err    error
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("store: %s: %v", e.Op, e.Err)
}

func (e *QueryError) Unwrap() error { return e.Err }

// Detail returns the client-safe diagnostic for err, or a generic phrase.
func Detail(err error) string {
	var mc *MissingColumnError
	if errors.As(err, &mc) {
		return mc.Error()
	}
	var qe *QueryError
	if errors.As(err, &qe) && qe.Detail != "" {
		return qe.Detail
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return "record store timed out"
	}
	return "record store unavailable"
}

var (
	postgresMissingColumn = regexp.MustCompile(`column "?(?:\w+\.)?(\w+)"? does not exist`)
	sqliteMissingColumn   = regexp.MustCompile(`no such column: (?:\w+\.)?(\w+)`)
)
