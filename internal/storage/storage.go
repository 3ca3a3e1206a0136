// Package storage uploads media blobs and resolves their public URLs.
package storage

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ErrObjectExists is returned when an upload would replace an existing object.
// Keys from NewKey make this practically unreachable.
var ErrObjectExists = errors.New("storage: object already exists")

// Object is a blob to upload.
type Object struct {
	Key         string
	ContentType string
	Data        []byte
}

// ObjectStore uploads objects with overwrite protection and returns their public URL.
type ObjectStore interface {
	Upload(ctx context.Context, obj Object) (string, error)
}

// UploadError wraps a failed upload with a client-safe detail message.
type UploadError struct {
	Key    string
	Detail string
	Err    error
}

func (e *UploadError) Error() string {
	return fmt.Sprintf("storage: upload %s: %v", e.Key, e.Err)
}

func (e *UploadError) Unwrap() error { return e.Err }

// Detail returns the client-safe diagnostic for err.
func Detail(err error) string {
	if errors.Is(err, ErrObjectExists) {
		return "destination object already exists"
	}
	var ue *UploadError
	if errors.As(err, &ue) && ue.Detail != "" {
		return ue.Detail
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return "object storage timed out"
	}
	return "object storage unavailable"
}

// NewKey builds "<prefix>/<unix-ms>-<uuid><.ext>" from the original filename.
//
// Uniqueness is probabilistic: the random UUIDv4 suffix carries 122 bits, so a
// collision needs two uploads in the same millisecond drawing the same suffix.
// No lookup against the store is made; overwrite protection catches the rest.
func NewKey(prefix, filename string, now time.Time) string {
	name := strconv.FormatInt(now.UnixMilli(), 10) + "-" + uuid.NewString() + extension(filename)
	if prefix == "" {
		return name
	}
	return strings.TrimSuffix(prefix, "/") + "/" + name
}

// extension returns the lowercased ".ext" of filename, or "" when it has none
// or the extension is not a short alphanumeric token.
func extension(filename string) string {
	ext := strings.ToLower(path.Ext(strings.ReplaceAll(filename, "\\", "/")))
	if len(ext) < 2 || len(ext) > 10 {
		return ""
	}
	for _, c := range ext[1:] {
		if (c < 'a' || c > 'z') && (c < '0' || c > '9') {
			return ""
		}
	}
	return ext
}
