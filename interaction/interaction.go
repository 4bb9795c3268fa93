// Package interaction persists one record per finalized sentence (and,
// optionally, throttled per-frame records) for the session report.
package interaction

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// NoGesture is logged when no hand label was observed.
const NoGesture = "None"

// Record is one row of the interaction log.
type Record struct {
	Timestamp  int64   `json:"timestamp"`
	Gesture    string  `json:"gesture"`
	Emotion    string  `json:"emotion"`
	Sentence   string  `json:"sentence"`
	Confidence float64 `json:"confidence"`
	Feedback   string  `json:"feedback,omitempty"`
}

// Logger appends records. A failed Append leaves earlier rows intact.
type Logger interface {
	Append(ctx context.Context, r Record) error
	Close() error
}

// Reader loads every record written so far. Rows that cannot be parsed are
// skipped.
type Reader interface {
	Records(ctx context.Context) ([]Record, error)
}

// Log is a backend that can be both written and read.
type Log interface {
	Logger
	Reader
}

// Open builds the backend named by kind: "csv", "sqlite" or "postgres".
// For csv and sqlite target is a file path, for postgres a DSN.
func Open(ctx context.Context, kind, target string) (Log, error) {
	switch kind {
	case "", "csv":
		return OpenCSV(target)
	case "sqlite":
		return OpenSQLite(ctx, target)
	case "postgres":
		return OpenPostgres(ctx, target)
	default:
		return nil, fmt.Errorf("interaction: unknown backend %q", kind)
	}
}

func (r Record) fields() []string {
	return []string{
		strconv.FormatInt(r.Timestamp, 10),
		r.Gesture,
		r.Emotion,
		r.Sentence,
		strconv.FormatFloat(r.Confidence, 'f', -1, 64),
		r.Feedback,
	}
}

// parseFields accepts five or six columns; the feedback column is optional.
func parseFields(row []string) (Record, bool) {
	if len(row) < 5 {
		return Record{}, false
	}
	ts, err := strconv.ParseInt(strings.TrimSpace(row[0]), 10, 64)
	if err != nil {
		return Record{}, false
	}
	conf, err := strconv.ParseFloat(strings.TrimSpace(row[4]), 64)
	if err != nil || !finite(conf) {
		return Record{}, false
	}
	r := Record{Timestamp: ts, Gesture: row[1], Emotion: row[2], Sentence: row[3], Confidence: conf}
	if len(row) > 5 {
		r.Feedback = row[5]
	}
	return r, true
}

// finite rejects the NaN and Inf values ParseFloat accepts.
func finite(f float64) bool { return !math.IsNaN(f) && !math.IsInf(f, 0) }
