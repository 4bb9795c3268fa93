package emotion

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"
)

var summaryHeader = []string{"prediction", "time"}

// SummaryLog appends raw emotion detections to a per-room CSV file.
type SummaryLog struct {
	mu   sync.Mutex
	path string
}

// OpenSummary creates the file with its header when it does not exist yet.
func OpenSummary(path string) (*SummaryLog, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("emotion summary: %w", err)
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	switch {
	case errors.Is(err, os.ErrExist):
		return &SummaryLog{path: path}, nil
	case err != nil:
		return nil, fmt.Errorf("emotion summary: %w", err)
	}
	defer f.Close()
	w := csv.NewWriter(f)
	if err := w.Write(summaryHeader); err != nil {
		return nil, fmt.Errorf("emotion summary header: %w", err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("emotion summary header: %w", err)
	}
	return &SummaryLog{path: path}, nil
}

func (s *SummaryLog) Path() string { return s.path }

// Append writes one detection. Blank labels are ignored.
func (s *SummaryLog) Append(label string, at time.Time) error {
	label = strings.TrimSpace(label)
	if label == "" {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	f, err := os.OpenFile(s.path, os.O_WRONLY|os.O_APPEND|os.O_CREATE, 0o644)
	if err != nil {
		return fmt.Errorf("emotion summary: %w", err)
	}
	defer f.Close()
	w := csv.NewWriter(f)
	if err := w.Write([]string{label, strconv.FormatInt(at.Unix(), 10)}); err != nil {
		return err
	}
	w.Flush()
	return w.Error()
}

// Counts tallies detections per label. When no counts can be produced the
// map is nil and reason explains why.
func Counts(path string) (counts map[string]int, reason string) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, "CSV file not found."
		}
		return nil, fmt.Sprintf("read failed: %v", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	header, err := r.Read()
	if err != nil {
		return nil, "Missing 'prediction' column."
	}
	col := -1
	for i, h := range header {
		if strings.TrimSpace(h) == "prediction" {
			col = i
		}
	}
	if col < 0 {
		return nil, "Missing 'prediction' column."
	}

	counts = map[string]int{}
	for {
		row, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			continue
		}
		if col >= len(row) {
			continue
		}
		if label := strings.TrimSpace(row[col]); label != "" {
			counts[label]++
		}
	}
	if len(counts) == 0 {
		return nil, "No valid predictions yet."
	}
	return counts, ""
}
