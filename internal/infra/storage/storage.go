// Package storage implements the image store on local disk or S3.
package storage

import (
	"context"
	"fmt"
	"strings"

	"realty-marketplace/internal/config"
	"realty-marketplace/internal/domain/ports/adapter"
)

// New picks the driver named in cfg.
func New(ctx context.Context, cfg config.StorageConfig) (adapter.ImageStorage, error) {
	switch strings.ToLower(cfg.Driver) {
	case "", "local":
		return NewLocalStorage(cfg.LocalDir, cfg.LocalBaseURL)
	case "s3":
		return NewS3Storage(ctx, cfg.S3, nil)
	default:
		return nil, fmt.Errorf("%w: driver %q", ErrInvalidConfig, cfg.Driver)
	}
}
