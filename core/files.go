package core

import (
	"context"
	"io"
)

// FileStorage is any service that can persist uploaded file blobs.
type FileStorage interface {
	Save(ctx context.Context, path string, content io.Reader) error
	Open(ctx context.Context, path string) (io.ReadCloser, error)
	Delete(ctx context.Context, path string) error
}
