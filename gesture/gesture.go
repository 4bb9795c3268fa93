// Package gesture maps hand feature vectors to letters through the keypoint
// classifier capability.
package gesture

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/maastricht-university/signbridge/clients"
)

// Classifier maps a normalised feature vector to a gesture label. An empty
// label means nothing was classified with enough confidence.
type Classifier interface {
	Classify(ctx context.Context, features []float64) (string, error)
}

// Labels is the index → label table of the keypoint classifier.
type Labels []string

// LoadLabels reads a one-column CSV of labels, tolerating a UTF-8 BOM.
func LoadLabels(path string) (Labels, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open labels: %w", err)
	}
	defer f.Close()
	return ParseLabels(f)
}

func ParseLabels(r io.Reader) (Labels, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	var out Labels
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parse labels: %w", err)
		}
		if len(row) == 0 {
			continue
		}
		label := strings.TrimSpace(strings.TrimPrefix(row[0], "\ufeff"))
		if label == "" {
			continue
		}
		out = append(out, label)
	}
	if len(out) == 0 {
		return nil, errors.New("parse labels: empty label table")
	}
	return out, nil
}

// Lookup returns the label at index i.
func (l Labels) Lookup(i int) (string, error) {
	if i < 0 || i >= len(l) {
		return "", fmt.Errorf("gesture index %d out of range [0,%d)", i, len(l))
	}
	return l[i], nil
}

// Remote classifies through the keypoint classifier service.
type Remote struct {
	http     *clients.HTTP
	url      string
	labels   Labels
	minScore float64
}

// NewRemote fails when the service URL or the label table is missing.
func NewRemote(h *clients.HTTP, url string, labels Labels, minScore float64) (*Remote, error) {
	if url == "" {
		return nil, errors.New("gesture: classifier url is empty")
	}
	if len(labels) == 0 {
		return nil, errors.New("gesture: no labels")
	}
	return &Remote{http: h, url: url, labels: labels, minScore: minScore}, nil
}

func (r *Remote) Classify(ctx context.Context, features []float64) (string, error) {
	resp, err := r.http.Gesture(ctx, r.url, features)
	if err != nil {
		return "", err
	}
	if resp.Score < r.minScore {
		return "", nil
	}
	return r.labels.Lookup(resp.Index)
}
