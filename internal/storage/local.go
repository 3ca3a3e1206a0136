package storage

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
)

// LocalStore writes media under a directory and serves it from baseURL.
type LocalStore struct {
	root    string
	baseURL string
}

// NewLocalStore creates root if needed.
func NewLocalStore(root, baseURL string) (*LocalStore, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("storage: resolve root: %w", err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("storage: create root: %w", err)
	}
	return &LocalStore{root: abs, baseURL: strings.TrimSuffix(baseURL, "/")}, nil
}

// Root is the directory objects are written under.
func (s *LocalStore) Root() string { return s.root }

// Path resolves key under the root and rejects traversal.
func (s *LocalStore) Path(key string) (string, error) {
	if key == "" {
		return "", fmt.Errorf("storage: key is required")
	}
	cleaned := filepath.Clean(filepath.FromSlash(key))
	if filepath.IsAbs(cleaned) || cleaned == ".." || strings.HasPrefix(cleaned, ".."+string(os.PathSeparator)) {
		return "", fmt.Errorf("storage: invalid key: %s", key)
	}
	abs := filepath.Join(s.root, cleaned)
	if !strings.HasPrefix(abs, s.root+string(os.PathSeparator)) {
		return "", fmt.Errorf("storage: key escapes root: %s", key)
	}
	return abs, nil
}

// Upload creates the file exclusively; an existing file yields ErrObjectExists.
func (s *LocalStore) Upload(ctx context.Context, obj Object) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", &UploadError{Key: obj.Key, Err: err}
	}
	abs, err := s.Path(obj.Key)
	if err != nil {
		return "", &UploadError{Key: obj.Key, Detail: "invalid object key", Err: err}
	}
	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		return "", &UploadError{Key: obj.Key, Err: err}
	}

	f, err := os.OpenFile(abs, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return "", &UploadError{Key: obj.Key, Err: ErrObjectExists}
		}
		return "", &UploadError{Key: obj.Key, Err: err}
	}
	if _, err := f.Write(obj.Data); err != nil {
		f.Close()
		os.Remove(abs)
		return "", &UploadError{Key: obj.Key, Err: err}
	}
	if err := f.Close(); err != nil {
		os.Remove(abs)
		return "", &UploadError{Key: obj.Key, Err: err}
	}

	return s.PublicURL(obj.Key), nil
}

// PublicURL joins baseURL and the escaped key.
func (s *LocalStore) PublicURL(key string) string {
	segments := strings.Split(key, "/")
	for i, seg := range segments {
		segments[i] = url.PathEscape(seg)
	}
	return s.baseURL + "/" + strings.Join(segments, "/")
}
