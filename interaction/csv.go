package interaction

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
)

// CSVLog is an append-only six-column file without a header. There is a
// single writer; readers open their own handle and never take the write lock.
type CSVLog struct {
	mu   sync.Mutex
	path string
	f    *os.File
}

func OpenCSV(path string) (*CSVLog, error) {
	if path == "" {
		return nil, errors.New("interaction: csv path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("interaction: %w", err)
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_APPEND|os.O_CREATE, 0o644)
	if err != nil {
		return nil, fmt.Errorf("interaction: open %s: %w", path, err)
	}
	return &CSVLog{path: path, f: f}, nil
}

func (l *CSVLog) Path() string { return l.path }

// Append encodes the row in memory and writes it with a single write call
// followed by fsync, so a failure never leaves a half row behind a good one.
func (l *CSVLog) Append(ctx context.Context, r Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	var b bytes.Buffer
	w := csv.NewWriter(&b)
	if err := w.Write(r.fields()); err != nil {
		return fmt.Errorf("interaction: encode: %w", err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("interaction: encode: %w", err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.f == nil {
		return errors.New("interaction: log closed")
	}
	if _, err := l.f.Write(b.Bytes()); err != nil {
		return fmt.Errorf("interaction: write: %w", err)
	}
	if err := l.f.Sync(); err != nil {
		return fmt.Errorf("interaction: sync: %w", err)
	}
	return nil
}

func (l *CSVLog) Records(ctx context.Context) ([]Record, error) {
	return ReadCSV(ctx, l.path)
}

func (l *CSVLog) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.f == nil {
		return nil
	}
	err := l.f.Close()
	l.f = nil
	return err
}

// ReadCSV parses an interaction log file. Header-like and malformed rows are
// skipped; a trailing partial line is ignored.
func ReadCSV(ctx context.Context, path string) ([]Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("interaction: open %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	var out []Record
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		row, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var pe *csv.ParseError
			if errors.As(err, &pe) {
				continue
			}
			return nil, fmt.Errorf("interaction: read %s: %w", path, err)
		}
		if rec, ok := parseFields(row); ok {
			out = append(out, rec)
		}
	}
	return out, nil
}
