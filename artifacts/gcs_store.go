//go:build gcp

package artifacts

import (
	"context"
	"fmt"
	"io"

	"cloud.google.com/go/storage"
)

// GCSStore uploads artifacts to a Cloud Storage bucket using ADC.
type GCSStore struct {
	client *storage.Client
	bucket string
	prefix string
}

type GCSStoreConfig struct {
	Bucket string
	Prefix string
}

func NewGCSStore(ctx context.Context, cfg GCSStoreConfig) (*GCSStore, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCS client: %w", err)
	}
	return &GCSStore{client: client, bucket: cfg.Bucket, prefix: cfg.Prefix}, nil
}

func (s *GCSStore) Put(ctx context.Context, name string, data []byte) (string, error) {
	clean, err := cleanName(name)
	if err != nil {
		return "", err
	}
	object := s.prefix + clean
	w := s.client.Bucket(s.bucket).Object(object).NewWriter(ctx)
	w.ContentType = contentType(clean)
	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return "", fmt.Errorf("gcs write failed: %w", err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("gcs close failed: %w", err)
	}
	return "gs://" + s.bucket + "/" + object, nil
}

func (s *GCSStore) Get(ctx context.Context, name string) ([]byte, error) {
	clean, err := cleanName(name)
	if err != nil {
		return nil, err
	}
	r, err := s.client.Bucket(s.bucket).Object(s.prefix + clean).NewReader(ctx)
	if err != nil {
		return nil, fmt.Errorf("gcs get failed for %s: %w", name, err)
	}
	defer func() { _ = r.Close() }()
	return io.ReadAll(r)
}

func (s *GCSStore) Close() error { return s.client.Close() }
