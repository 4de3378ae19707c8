// Package storage keeps uploaded media in a blob store: the local filesystem
// or a MinIO/S3 bucket.
package storage

import (
	"context"
	"fmt"

	"quill/internal/config"
)

// BlobStore writes and removes objects addressed by slash-separated keys.
type BlobStore interface {
	Put(ctx context.Context, key, contentType string, data []byte) error
	Remove(ctx context.Context, key string) error
	// URL is the public address of key.
	URL(key string) string
}

// New builds the blob store selected by MEDIA_BACKEND.
func New(ctx context.Context, cfg *config.Config) (BlobStore, error) {
	switch cfg.MediaBackend {
	case "", "local":
		return NewLocalStore(cfg.MediaRoot, cfg.MediaURL), nil
	case "minio":
		s, err := NewMinioStore(MinioConfig{
			Endpoint:  cfg.MinioEndpoint,
			AccessKey: cfg.MinioAccessKey,
			SecretKey: cfg.MinioSecretKey,
			UseSSL:    cfg.MinioUseSSL,
			Bucket:    cfg.MinioBucket,
		})
		if err != nil {
			return nil, fmt.Errorf("minio client: %w", err)
		}
		if err := s.EnsureBucket(ctx); err != nil {
			return nil, fmt.Errorf("minio bucket %q: %w", cfg.MinioBucket, err)
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unsupported media backend %q", cfg.MediaBackend)
	}
}
