package status

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maastricht-university/signbridge/emotion"
	"github.com/maastricht-university/signbridge/sinks"
)

type polarity string

func (p polarity) Polarity(context.Context, string) (string, error) { return string(p), nil }

func TestParse(t *testing.T) {
	s, a := Parse("HELLO (WORLD). (happy)\n")
	assert.Equal(t, "HELLO (WORLD).", s)
	assert.Equal(t, "happy", a)

	s, a = Parse("NO AFFECT.")
	assert.Equal(t, "NO AFFECT.", s)
	assert.Equal(t, UnknownEmotion, a)
}

func TestRead_Missing(t *testing.T) {
	r := NewReader(filepath.Join(t.TempDir(), "latest_sentence_x.txt"), nil)
	assert.Equal(t, Status{Sentence: WaitingSentence, Emotion: UnknownEmotion, Feedback: NoFeedback}, r.Read(context.Background()))
}

func TestRead_RecomputesFeedback(t *testing.T) {
	p := filepath.Join(t.TempDir(), "latest_sentence_x.txt")
	require.NoError(t, sinks.WriteLatest(p, "I AM HAPPY.", "sad"))

	r := NewReader(p, emotion.NewAnalyzer(polarity("POSITIVE")))
	st := r.Read(context.Background())
	assert.Equal(t, "I AM HAPPY.", st.Sentence)
	assert.Equal(t, "sad", st.Emotion)
	assert.Equal(t, "Mismatch: Sentiment (POSITIVE) vs Emotion (sad)", st.Feedback)

	require.NoError(t, sinks.WriteLatest(p, "FINE.", "neutral"))
	assert.Equal(t, "Neutral detected.", r.Read(context.Background()).Feedback)
}

func TestRead_NoAnalyzer(t *testing.T) {
	p := filepath.Join(t.TempDir(), "latest.txt")
	require.NoError(t, os.WriteFile(p, []byte("HI. (happy)"), 0o644))
	assert.Equal(t, NoAnalysis, NewReader(p, nil).Read(context.Background()).Feedback)
}

func TestWatch_SeesReplacement(t *testing.T) {
	p := filepath.Join(t.TempDir(), "latest_sentence_x.txt")
	r := NewReader(p, emotion.NewAnalyzer(polarity("POSITIVE")))
	log, _ := test.NewNullLogger()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	got := make(chan Status, 8)
	done := make(chan error, 1)
	go func() { done <- r.Watch(ctx, log, func(s Status) { got <- s }) }()

	first := <-got
	assert.Equal(t, WaitingSentence, first.Sentence)

	require.NoError(t, sinks.WriteLatest(p, "YAY.", "happy"))
	select {
	case s := <-got:
		assert.Equal(t, "YAY.", s.Sentence)
		assert.Equal(t, "Sentiment and emotion align.", s.Feedback)
	case <-ctx.Done():
		t.Fatal("no status update after write")
	}
	cancel()
	assert.NoError(t, <-done)
}
