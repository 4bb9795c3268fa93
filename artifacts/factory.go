package artifacts

import (
	"context"
	"fmt"

	"github.com/maastricht-university/signbridge/config"
)

// New builds the store selected by cfg.Store.
func New(ctx context.Context, cfg config.Artifacts) (Store, error) {
	switch cfg.Store {
	case "", "fs":
		return NewFileStore(cfg.Dir)
	case "s3":
		if cfg.Bucket == "" {
			return nil, fmt.Errorf("artifacts.bucket is required for S3 storage")
		}
		region := cfg.Region
		if region == "" {
			region = "us-east-1"
		}
		return NewS3Store(ctx, S3StoreConfig{Bucket: cfg.Bucket, Region: region, Endpoint: cfg.Endpoint, Prefix: cfg.Prefix})
	case "gcs":
		if cfg.Bucket == "" {
			return nil, fmt.Errorf("artifacts.bucket is required for GCS storage")
		}
		return newGCSStore(ctx, cfg)
	default:
		return nil, fmt.Errorf("unsupported artifact storage type: %s", cfg.Store)
	}
}
