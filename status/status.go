// Package status reports the live state of a room from its sidecar files.
package status

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"

	"github.com/maastricht-university/signbridge/emotion"
)

const (
	WaitingSentence = "Waiting for input..."
	UnknownEmotion  = "Unknown"
	NoFeedback      = "No feedback yet."
	NoAnalysis      = "No feedback available"
)

type Status struct {
	Sentence string `json:"sentence"`
	Emotion  string `json:"emotion"`
	Feedback string `json:"feedback"`
}

// Parse splits "<sentence> (<emotion>)" on the last parenthesis pair.
func Parse(content string) (sentence, affect string) {
	content = strings.TrimSpace(content)
	lp, rp := strings.LastIndex(content, "("), strings.LastIndex(content, ")")
	if lp < 0 || rp < lp {
		return content, UnknownEmotion
	}
	return strings.TrimSpace(content[:lp]), content[lp+1 : rp]
}

// Reader recomputes feedback for the latest-sentence sidecar of a room.
type Reader struct {
	path     string
	analyzer *emotion.Analyzer
}

func NewReader(path string, analyzer *emotion.Analyzer) *Reader {
	return &Reader{path: path, analyzer: analyzer}
}

func (r *Reader) Path() string { return r.path }

// Read never fails; a missing sidecar yields the waiting status.
func (r *Reader) Read(ctx context.Context) Status {
	b, err := os.ReadFile(r.path)
	if errors.Is(err, os.ErrNotExist) {
		return Status{Sentence: WaitingSentence, Emotion: UnknownEmotion, Feedback: NoFeedback}
	}
	sentence, affect := Parse(string(b))
	st := Status{Sentence: sentence, Emotion: affect, Feedback: NoAnalysis}
	if sentence != "" && affect != "" && r.analyzer != nil {
		st.Feedback = r.analyzer.Check(ctx, sentence, affect).Feedback
	}
	return st
}

// Watch calls fn with the current status and again after every change to the
// sidecar until ctx ends. The parent directory is watched so atomic
// replacement is seen.
func (r *Reader) Watch(ctx context.Context, log logrus.FieldLogger, fn func(Status)) error {
	dir := filepath.Dir(r.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()
	if err := w.Add(dir); err != nil {
		return err
	}

	fn(r.Read(ctx))
	name := filepath.Clean(r.path)
	// coalesce bursts of events from a single write
	var debounce <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != name {
				continue
			}
			if ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) || ev.Has(fsnotify.Rename) || ev.Has(fsnotify.Remove) {
				debounce = time.After(50 * time.Millisecond)
			}
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			log.WithError(err).Warn("status watch error")
		case <-debounce:
			debounce = nil
			fn(r.Read(ctx))
		}
	}
}
