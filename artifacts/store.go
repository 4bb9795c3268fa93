// Package artifacts publishes session outputs (report PDF, chart, summary,
// archived log) to a configured destination.
package artifacts

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"os"
	"path"
	"path/filepath"
	"sync"
)

// Store persists named artifacts and returns where each one landed.
type Store interface {
	Put(ctx context.Context, name string, data []byte) (string, error)
	Get(ctx context.Context, name string) ([]byte, error)
}

// FileStore writes artifacts below a base directory.
type FileStore struct {
	baseDir string
	mu      sync.Mutex
}

func NewFileStore(baseDir string) (*FileStore, error) {
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to ensure artifact dir: %w", err)
	}
	return &FileStore{baseDir: baseDir}, nil
}

func (s *FileStore) Put(ctx context.Context, name string, data []byte) (string, error) {
	p, err := s.resolve(name)
	if err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return "", fmt.Errorf("failed to ensure artifact dir: %w", err)
	}
	// write to temp, then rename
	tmp := p + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write artifact: %w", err)
	}
	if err := os.Rename(tmp, p); err != nil {
		return "", fmt.Errorf("failed to commit artifact: %w", err)
	}
	return p, nil
}

func (s *FileStore) Get(ctx context.Context, name string) ([]byte, error) {
	p, err := s.resolve(name)
	if err != nil {
		return nil, err
	}
	b, err := os.ReadFile(p)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("artifact not found: %s", name)
	}
	return b, err
}

func (s *FileStore) resolve(name string) (string, error) {
	clean, err := cleanName(name)
	if err != nil {
		return "", err
	}
	return filepath.Join(s.baseDir, filepath.FromSlash(clean)), nil
}

// cleanName rejects names that would escape the store root.
func cleanName(name string) (string, error) {
	clean := path.Clean("/" + filepath.ToSlash(name))[1:]
	if clean == "" {
		return "", fmt.Errorf("invalid artifact name: %q", name)
	}
	return clean, nil
}

func contentType(name string) string {
	if t := mime.TypeByExtension(path.Ext(name)); t != "" {
		return t
	}
	return "application/octet-stream"
}
