// Package capture provides the frame sources the pipeline reads from.
package capture

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"strconv"
	"strings"
	"time"
)

// ErrClosed is returned by Read after Close.
var ErrClosed = errors.New("capture: source closed")

// Frame is one captured image. JPEG holds the encoded form sent to the
// capability services; Image is the decoded form used for face crops.
type Frame struct {
	Seq   int
	At    time.Time
	Image image.Image
	JPEG  []byte
}

// Source yields frames until it fails or is closed. Read blocks until a frame
// is available; io.EOF marks the natural end of a finite source.
type Source interface {
	Read(ctx context.Context) (Frame, error)
	Close() error
}

type Options struct {
	Width  int
	Height int
	FPS    float64
	Mirror bool
}

// Open resolves a source spec: "camera:<index>" or "dir:<path>".
func Open(spec string, opts Options) (Source, error) {
	kind, arg, ok := strings.Cut(spec, ":")
	if !ok {
		return nil, fmt.Errorf("capture: bad source %q (want camera:N or dir:path)", spec)
	}
	switch kind {
	case "camera":
		idx, err := strconv.Atoi(arg)
		if err != nil {
			return nil, fmt.Errorf("capture: bad camera index %q: %w", arg, err)
		}
		return OpenCamera(idx, opts)
	case "dir":
		return NewDirSource(arg, opts)
	default:
		return nil, fmt.Errorf("capture: unknown source kind %q", kind)
	}
}

// encodeJPEG is shared by sources that hold decoded images.
func encodeJPEG(img image.Image) ([]byte, error) {
	var b bytes.Buffer
	if err := jpeg.Encode(&b, img, &jpeg.Options{Quality: 90}); err != nil {
		return nil, fmt.Errorf("capture: encode jpeg: %w", err)
	}
	return b.Bytes(), nil
}

// mirror flips img horizontally.
func mirror(img image.Image) image.Image {
	b := img.Bounds()
	out := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			out.Set(b.Max.X-1-x, y-b.Min.Y, img.At(x, y))
		}
	}
	return out
}
