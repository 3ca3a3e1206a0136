// Package apperr defines the error categories surfaced at the HTTP boundary.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Kind is a stable error category reported to clients.
type Kind string

const (
	KindMalformedRequest   Kind = "malformed_request"
	KindValidationFailed   Kind = "validation_failed"
	KindStorageWriteFailed Kind = "storage_write_failed"
	KindPersistenceFailed  Kind = "persistence_failed"
	KindRetrievalFailed    Kind = "retrieval_failed"
)

// Error carries a Kind, a human-readable message and an optional upstream detail.
type Error struct {
	Kind    Kind
	Message string
	Detail  string
	// Fields lists the offending request fields for KindValidationFailed.
	Fields []string
	Err    error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(string(e.Kind))
	b.WriteString(": ")
	b.WriteString(e.Message)
	if len(e.Fields) > 0 {
		fmt.Fprintf(&b, " (%s)", strings.Join(e.Fields, ", "))
	}
	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Err }

// Status maps the error kind to an HTTP status code.
func (e *Error) Status() int {
	switch e.Kind {
	case KindMalformedRequest, KindValidationFailed:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func Wrap(kind Kind, message, detail string, err error) *Error {
	return &Error{Kind: kind, Message: message, Detail: detail, Err: err}
}

// Missing reports required fields that were absent.
func Missing(fields ...string) *Error {
	return &Error{Kind: KindValidationFailed, Message: "Missing required fields", Fields: fields}
}

// As extracts an *Error from err's chain.
func As(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind Kind) bool {
	e, ok := As(err)
	return ok && e.Kind == kind
}
