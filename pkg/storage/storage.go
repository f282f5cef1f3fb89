package storage

import (
	"context"
	"io"
	"path"
	"strings"

	"github.com/google/uuid"
)

// Storage stores and retrieves files by key.
type Storage interface {
	// Put writes size bytes from r under key.
	Put(ctx context.Context, key string, r io.Reader, size int64, opts ...Option) (*FileInfo, error)

	// Get opens the file stored under key. The caller closes the reader.
	Get(ctx context.Context, key string) (io.ReadCloser, error)

	// Delete removes the file stored under key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
}

// FileInfo describes a stored file.
type FileInfo struct {
	Key         string
	Filename    string
	ContentType string
	Size        int64
}

// NewKey builds "{prefix}/{uuid}{ext}" keeping the lower-cased extension of
// filename.
func NewKey(prefix, filename string) string {
	name := uuid.NewString() + strings.ToLower(path.Ext(path.Base(strings.ReplaceAll(filename, "\\", "/"))))
	prefix = strings.Trim(prefix, "/")
	if prefix == "" {
		return name
	}
	return prefix + "/" + name
}

// cleanKey rejects absolute keys and keys escaping the storage root.
func cleanKey(key string) (string, error) {
	if key == "" || strings.HasPrefix(key, "/") || strings.Contains(key, "\\") {
		return "", ErrInvalidKey
	}
	cleaned := path.Clean(key)
	if cleaned == "." || cleaned == ".." || strings.HasPrefix(cleaned, "../") {
		return "", ErrInvalidKey
	}
	return cleaned, nil
}
