//go:build !gcp

package artifacts

import (
	"context"
	"fmt"

	"github.com/maastricht-university/signbridge/config"
)

func newGCSStore(ctx context.Context, cfg config.Artifacts) (Store, error) {
	return nil, fmt.Errorf("GCS storage is not enabled in this build (use -tags gcp)")
}
