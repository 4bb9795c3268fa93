// Package sinks holds the side effects of a finalized sentence: speech,
// sidecar files and chat notification, plus the ordered dispatcher that runs
// them off the frame loop.
package sinks

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/maastricht-university/signbridge/clients"
)

// ChatTimeFormat is the timestamp layout of chat sidecar lines.
const ChatTimeFormat = "2006-01-02 15:04:05"

// Speaker voices a sentence.
type Speaker interface {
	Speak(ctx context.Context, text string) error
}

// HTTPSpeaker calls the speech synthesis service.
type HTTPSpeaker struct {
	HTTP   *clients.HTTP
	URL    string
	Rate   int
	Volume float64
}

func (s HTTPSpeaker) Speak(ctx context.Context, text string) error {
	return s.HTTP.Speak(ctx, s.URL, clients.SpeakReq{Text: text, Rate: s.Rate, Volume: s.Volume})
}

// LatestLine formats the latest-sentence sidecar content.
func LatestLine(sentence, affect string) string {
	return fmt.Sprintf("%s (%s)", sentence, affect)
}

// WriteLatest replaces the latest-sentence sidecar. Readers see either the
// old or the new content.
func WriteLatest(path, sentence, affect string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("latest sentence dir: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".latest-*")
	if err != nil {
		return fmt.Errorf("latest sentence: %w", err)
	}
	if _, err := tmp.WriteString(LatestLine(sentence, affect)); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("latest sentence: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("latest sentence: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("latest sentence: %w", err)
	}
	return nil
}

var chatMu sync.Mutex

// ChatLine formats one chat sidecar line without the trailing newline.
func ChatLine(at time.Time, sender, message string) string {
	return fmt.Sprintf("[%s] %s: %s", at.Format(ChatTimeFormat), sender, message)
}

// AppendChat appends one line to a chat sidecar.
func AppendChat(path string, at time.Time, sender, message string) error {
	message = strings.TrimSpace(message)
	if message == "" {
		return errors.New("chat: empty message")
	}
	chatMu.Lock()
	defer chatMu.Unlock()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("chat log dir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_APPEND|os.O_CREATE, 0o644)
	if err != nil {
		return fmt.Errorf("chat log: %w", err)
	}
	defer f.Close()
	if _, err := f.WriteString(ChatLine(at, sender, message) + "\n"); err != nil {
		return fmt.Errorf("chat log: %w", err)
	}
	return nil
}

// ReadChat returns the non-blank lines of a chat sidecar. A missing file is
// an empty history.
func ReadChat(path string) ([]string, error) {
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("chat log: %w", err)
	}
	defer f.Close()
	var out []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		if line := strings.TrimSpace(sc.Text()); line != "" {
			out = append(out, line)
		}
	}
	return out, sc.Err()
}
