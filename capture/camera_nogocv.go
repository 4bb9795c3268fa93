//go:build !gocv

package capture

import "errors"

// OpenCamera is unavailable without the gocv build tag.
func OpenCamera(index int, opts Options) (Source, error) {
	return nil, errors.New("capture: camera support requires building with -tags gocv")
}
