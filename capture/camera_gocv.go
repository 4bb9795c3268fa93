//go:build gocv

package capture

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"gocv.io/x/gocv"
)

// Camera reads frames from a local video device through OpenCV.
type Camera struct {
	mu     sync.Mutex
	dev    *gocv.VideoCapture
	mat    gocv.Mat
	opts   Options
	seq    int
	closed bool
}

func OpenCamera(index int, opts Options) (Source, error) {
	dev, err := gocv.OpenVideoCapture(index)
	if err != nil {
		return nil, fmt.Errorf("capture: open camera %d: %w", index, err)
	}
	if !dev.IsOpened() {
		_ = dev.Close()
		return nil, fmt.Errorf("capture: camera %d not available", index)
	}
	if opts.Width > 0 {
		dev.Set(gocv.VideoCaptureFrameWidth, float64(opts.Width))
	}
	if opts.Height > 0 {
		dev.Set(gocv.VideoCaptureFrameHeight, float64(opts.Height))
	}
	if opts.FPS > 0 {
		dev.Set(gocv.VideoCaptureFPS, opts.FPS)
	}
	return &Camera{dev: dev, mat: gocv.NewMat(), opts: opts}, nil
}

func (c *Camera) Read(ctx context.Context) (Frame, error) {
	if err := ctx.Err(); err != nil {
		return Frame{}, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return Frame{}, ErrClosed
	}
	if ok := c.dev.Read(&c.mat); !ok || c.mat.Empty() {
		return Frame{}, errors.New("capture: camera read failed")
	}
	if c.opts.Mirror {
		gocv.Flip(c.mat, &c.mat, 1)
	}

	buf, err := gocv.IMEncode(gocv.JPEGFileExt, c.mat)
	if err != nil {
		return Frame{}, fmt.Errorf("capture: encode jpeg: %w", err)
	}
	defer buf.Close()
	enc := append([]byte(nil), buf.GetBytes()...)

	img, err := c.mat.ToImage()
	if err != nil {
		return Frame{}, fmt.Errorf("capture: to image: %w", err)
	}
	f := Frame{Seq: c.seq, At: time.Now(), Image: img, JPEG: enc}
	c.seq++
	return f, nil
}

func (c *Camera) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	_ = c.mat.Close()
	return c.dev.Close()
}
