//go:build gcp

package artifacts

import (
	"context"

	"github.com/maastricht-university/signbridge/config"
)

func newGCSStore(ctx context.Context, cfg config.Artifacts) (Store, error) {
	return NewGCSStore(ctx, GCSStoreConfig{Bucket: cfg.Bucket, Prefix: cfg.Prefix})
}
