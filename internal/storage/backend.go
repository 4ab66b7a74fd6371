package storage

import (
	"context"
	"fmt"

	"github.com/moksh-codedeveloper/E-Commerce-app-BE/config"
)

// NewBackend constructs the object storage backend selected by config.
// Product images live in a single bucket regardless of backend.
func NewBackend(ctx context.Context, cfg config.StorageConfig) (ObjectStorage, error) {
	switch cfg.Backend {
	case "minio":
		return NewMinioClient(cfg.Minio)
	case "gcs":
		return NewGCSClient(ctx, cfg.GCS)
	default:
		return nil, fmt.Errorf("unknown storage backend: %q", cfg.Backend)
	}
}
