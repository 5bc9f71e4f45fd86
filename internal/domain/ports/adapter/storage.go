package adapter

import (
	"context"
	"io"
)

// ImageStorage keeps the physical image files. Keys are flat names such as
// "property-01J...jpg".
type ImageStorage interface {
	Save(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	// Stat returns the stored byte size of key.
	Stat(ctx context.Context, key string) (int64, error)
	Delete(ctx context.Context, key string) error
	URL(key string) string
}
