// Package archive compresses session logs with zstd before they are
// published, and restores them for offline reports.
package archive

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zstd"
)

// Ext is appended to the name of archived files.
const Ext = ".zst"

// Compress reads srcPath fully and returns its zstd-compressed bytes.
func Compress(srcPath string) ([]byte, error) {
	src, err := os.Open(srcPath)
	if err != nil {
		return nil, fmt.Errorf("open source: %w", err)
	}
	defer src.Close()

	var buf bytes.Buffer
	encoder, err := zstd.NewWriter(&buf)
	if err != nil {
		return nil, fmt.Errorf("create zstd encoder: %w", err)
	}
	if _, err := io.Copy(encoder, src); err != nil {
		encoder.Close()
		return nil, fmt.Errorf("compress: %w", err)
	}
	if err := encoder.Close(); err != nil {
		return nil, fmt.Errorf("finalize compression: %w", err)
	}
	return buf.Bytes(), nil
}

// Name returns the archive name for a source file.
func Name(srcPath string) string {
	return filepath.Base(srcPath) + Ext
}

// IsArchive reports whether path names a compressed archive.
func IsArchive(path string) bool {
	return strings.HasSuffix(path, Ext)
}

// Decompress restores archivePath into a temp file that keeps the original
// extension. The caller must run cleanup.
func Decompress(archivePath string) (string, func(), error) {
	src, err := os.Open(archivePath)
	if err != nil {
		return "", nil, fmt.Errorf("open archive: %w", err)
	}
	defer src.Close()

	decoder, err := zstd.NewReader(src)
	if err != nil {
		return "", nil, fmt.Errorf("create zstd decoder: %w", err)
	}
	defer decoder.Close()

	orig := strings.TrimSuffix(filepath.Base(archivePath), Ext)
	tmp, err := os.CreateTemp("", "signbridge-*-"+orig)
	if err != nil {
		return "", nil, fmt.Errorf("create temp file: %w", err)
	}
	if _, err := io.Copy(tmp, decoder); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", nil, fmt.Errorf("decompress: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", nil, fmt.Errorf("close temp: %w", err)
	}
	cleanup := func() { os.Remove(tmp.Name()) }
	return tmp.Name(), cleanup, nil
}
