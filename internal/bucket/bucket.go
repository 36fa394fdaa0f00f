// Package bucket stores user-uploaded images (avatars, cover photos, post
// attachments) in an S3-compatible object store.
package bucket

import (
	"context"
	"errors"
	"io"
)

// ErrNotFound is returned when the requested object key does not exist.
var ErrNotFound = errors.New("bucket: object not found")

// Object is a stored blob along with its content type. Callers must close
// Body.
type Object struct {
	Body        io.ReadCloser
	ContentType string
	Size        int64
}

// Storage is the object-store contract the HTTP layer depends on.
type Storage interface {
	Put(ctx context.Context, key string, body io.Reader, contentType string) error
	Get(ctx context.Context, key string) (*Object, error)
	Delete(ctx context.Context, key string) error
}
