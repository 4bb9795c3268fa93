package artifacts

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maastricht-university/signbridge/config"
)

func TestFileStore_PutGet(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	s, err := NewFileStore(dir)
	require.NoError(t, err)

	loc, err := s.Put(ctx, "session_1/report.pdf", []byte("%PDF"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "session_1", "report.pdf"), loc)

	b, err := s.Get(ctx, "session_1/report.pdf")
	require.NoError(t, err)
	assert.Equal(t, []byte("%PDF"), b)

	_, err = os.Stat(loc + ".tmp")
	assert.True(t, os.IsNotExist(err))

	_, err = s.Get(ctx, "missing.png")
	assert.ErrorContains(t, err, "artifact not found")
}

func TestFileStore_StaysInsideRoot(t *testing.T) {
	dir := t.TempDir()
	s, err := NewFileStore(filepath.Join(dir, "store"))
	require.NoError(t, err)

	loc, err := s.Put(context.Background(), "../../escape.txt", []byte("x"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "store", "escape.txt"), loc)

	_, err = s.Put(context.Background(), "", []byte("x"))
	assert.Error(t, err)
}

func TestNew_Factory(t *testing.T) {
	ctx := context.Background()
	s, err := New(ctx, config.Artifacts{Store: "fs", Dir: t.TempDir()})
	require.NoError(t, err)
	assert.IsType(t, &FileStore{}, s)

	_, err = New(ctx, config.Artifacts{Store: "s3"})
	assert.ErrorContains(t, err, "bucket is required")

	_, err = New(ctx, config.Artifacts{Store: "gcs"})
	assert.ErrorContains(t, err, "bucket is required")

	_, err = New(ctx, config.Artifacts{Store: "ftp"})
	assert.ErrorContains(t, err, "unsupported")
}

func TestContentType(t *testing.T) {
	assert.Equal(t, "application/pdf", contentType("a/report.pdf"))
	assert.Equal(t, "application/octet-stream", contentType("log.unknownext"))
}
