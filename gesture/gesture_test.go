package gesture

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maastricht-university/signbridge/clients"
)

func TestParseLabels_BOMAndBlankRows(t *testing.T) {
	labels, err := ParseLabels(strings.NewReader("\ufeffA\nB\n\n C \n"))
	require.NoError(t, err)
	assert.Equal(t, Labels{"A", "B", "C"}, labels)
}

func TestParseLabels_Empty(t *testing.T) {
	_, err := ParseLabels(strings.NewReader("\n\n"))
	assert.Error(t, err)
}

func TestLoadLabels(t *testing.T) {
	p := filepath.Join(t.TempDir(), "labels.csv")
	require.NoError(t, os.WriteFile(p, []byte("A\nB\n"), 0o644))
	labels, err := LoadLabels(p)
	require.NoError(t, err)
	assert.Len(t, labels, 2)

	_, err = LoadLabels(filepath.Join(t.TempDir(), "missing.csv"))
	assert.Error(t, err)
}

func TestLookup_Range(t *testing.T) {
	l := Labels{"A", "B"}
	got, err := l.Lookup(1)
	require.NoError(t, err)
	assert.Equal(t, "B", got)

	_, err = l.Lookup(2)
	assert.Error(t, err)
	_, err = l.Lookup(-1)
	assert.Error(t, err)
}

func TestNewRemote_Validates(t *testing.T) {
	h := clients.NewHTTP(time.Second)
	_, err := NewRemote(h, "", Labels{"A"}, 0)
	assert.Error(t, err)
	_, err = NewRemote(h, "http://x", nil, 0)
	assert.Error(t, err)
}

func TestRemote_Classify(t *testing.T) {
	score := "0.95"
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"index":2,"score":` + score + `}`))
	}))
	defer srv.Close()

	r, err := NewRemote(clients.NewHTTP(time.Second), srv.URL, Labels{"A", "B", "C"}, 0.5)
	require.NoError(t, err)

	label, err := r.Classify(context.Background(), []float64{0, 0})
	require.NoError(t, err)
	assert.Equal(t, "C", label)

	score = "0.2"
	label, err = r.Classify(context.Background(), []float64{0, 0})
	require.NoError(t, err)
	assert.Equal(t, "", label)
}
