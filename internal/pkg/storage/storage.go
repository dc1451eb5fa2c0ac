package storage

import (
	"context"
	"io"
)

// FileStorage is the object store attendance photos are written to.
type FileStorage interface {
	// Upload stores the content under path and returns the stored key.
	Upload(ctx context.Context, content io.Reader, path string) (string, error)

	// Delete removes a stored object. Deleting a missing object is not an error.
	Delete(ctx context.Context, key string) error

	// URL returns the public address of a stored object.
	URL(key string) string
}
