package capture

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/png"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"
)

// DirSource replays the image files of a directory in name order. With a
// positive FPS, frame timestamps advance on a synthetic clock so replays are
// deterministic; otherwise they carry wall time.
type DirSource struct {
	mu     sync.Mutex
	files  []string
	next   int
	opts   Options
	start  time.Time
	closed bool
}

func NewDirSource(dir string, opts Options) (*DirSource, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("capture: read dir: %w", err)
	}
	var files []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(e.Name())) {
		case ".jpg", ".jpeg", ".png":
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("capture: no image files in %s", dir)
	}
	sort.Strings(files)
	return &DirSource{files: files, opts: opts, start: time.Now()}, nil
}

func (d *DirSource) Read(ctx context.Context) (Frame, error) {
	if err := ctx.Err(); err != nil {
		return Frame{}, err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return Frame{}, ErrClosed
	}
	if d.next >= len(d.files) {
		return Frame{}, io.EOF
	}
	seq := d.next
	path := d.files[seq]
	d.next++

	raw, err := os.ReadFile(path)
	if err != nil {
		return Frame{}, fmt.Errorf("capture: read %s: %w", path, err)
	}
	img, format, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return Frame{}, fmt.Errorf("capture: decode %s: %w", path, err)
	}
	if d.opts.Mirror {
		img = mirror(img)
	}
	if d.opts.Mirror || format != "jpeg" {
		if raw, err = encodeJPEG(img); err != nil {
			return Frame{}, err
		}
	}

	at := time.Now()
	if d.opts.FPS > 0 {
		at = d.start.Add(time.Duration(float64(seq) * float64(time.Second) / d.opts.FPS))
	}
	return Frame{Seq: seq, At: at, Image: img, JPEG: raw}, nil
}

func (d *DirSource) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed = true
	return nil
}
