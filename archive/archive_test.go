package archive

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoundTrip(t *testing.T) {
	dir := t.TempDir()
	original := strings.Repeat("1700000000,A,happy,A.,0.9,Sentiment and emotion align.\n", 200)
	src := filepath.Join(dir, "interaction_log.csv")
	require.NoError(t, os.WriteFile(src, []byte(original), 0o644))

	packed, err := Compress(src)
	require.NoError(t, err)
	assert.Less(t, len(packed), len(original))

	arch := filepath.Join(dir, Name(src))
	assert.Equal(t, "interaction_log.csv.zst", filepath.Base(arch))
	assert.True(t, IsArchive(arch))
	require.NoError(t, os.WriteFile(arch, packed, 0o644))

	out, cleanup, err := Decompress(arch)
	require.NoError(t, err)
	defer cleanup()
	assert.True(t, strings.HasSuffix(out, "interaction_log.csv"))

	b, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, original, string(b))

	cleanup()
	_, err = os.Stat(out)
	assert.True(t, os.IsNotExist(err))
}

func TestCompress_MissingSource(t *testing.T) {
	_, err := Compress(filepath.Join(t.TempDir(), "nope.csv"))
	assert.Error(t, err)
}

func TestDecompress_Corrupt(t *testing.T) {
	p := filepath.Join(t.TempDir(), "bad.csv.zst")
	require.NoError(t, os.WriteFile(p, []byte("not zstd"), 0o644))
	_, _, err := Decompress(p)
	assert.Error(t, err)
}
