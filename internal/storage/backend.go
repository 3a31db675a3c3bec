package storage

import (
	"context"
	"fmt"
	"strings"

	"github.com/schoolhub/apiserver/config"
)

// GCSEndpoint is the public endpoint used for GCS object URLs.
const GCSEndpoint = "https://storage.googleapis.com"

// New builds the backend selected by cfg.Backend and wraps it in a Gateway.
// It returns nil, nil when no bucket is configured.
func New(ctx context.Context, cfg config.StorageConfig) (*Gateway, error) {
	if strings.TrimSpace(cfg.Bucket) == "" {
		return nil, nil
	}

	var backend ObjectStorage
	switch cfg.Backend {
	case "", config.StorageBackendS3:
		b, err := NewMinioBackend(cfg)
		if err != nil {
			return nil, err
		}
		backend = b
	case config.StorageBackendGCS:
		b, err := NewGCSBackend(ctx, cfg)
		if err != nil {
			return nil, err
		}
		backend = b
		if strings.TrimSpace(cfg.EndpointURL) == "" {
			cfg.EndpointURL = GCSEndpoint
		}
	case config.StorageBackendMemory:
		backend = NewMemoryBackend(cfg.Bucket)
	default:
		return nil, fmt.Errorf("unsupported storage backend %q", cfg.Backend)
	}

	gateway, err := NewGateway(backend, cfg)
	if err != nil {
		return nil, err
	}
	if cfg.EnsureBucket {
		if err := gateway.EnsureBucket(ctx); err != nil {
			return nil, fmt.Errorf("ensure bucket: %w", err)
		}
	}
	return gateway, nil
}
