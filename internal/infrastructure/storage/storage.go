// Package storage keeps rendered decks on the local filesystem or in an
// S3-compatible bucket.
package storage

import (
	"context"
	"errors"
	"io"

	"github.com/rs/zerolog"

	"github.com/janhq/deck-server/internal/config"
)

// ErrNotFound is returned by Open for unknown keys.
var ErrNotFound = errors.New("artifact not found")

// Store is the artifact store used by the service.
type Store interface {
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	Health(ctx context.Context) error
}

// New builds the backend selected by cfg.StorageBackend.
func New(ctx context.Context, cfg *config.Config, log zerolog.Logger) (Store, error) {
	if cfg.StorageBackend == config.StorageS3 {
		return NewS3Storage(ctx, S3Config{
			Bucket:       cfg.S3Bucket,
			Region:       cfg.S3Region,
			Endpoint:     cfg.S3Endpoint,
			AccessKey:    cfg.S3AccessKey,
			SecretKey:    cfg.S3SecretKey,
			UsePathStyle: cfg.S3UsePathStyle,
		}, log)
	}
	return NewLocalStorage(cfg.LocalStorage, log)
}
