package report

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maastricht-university/signbridge/clients"
	"github.com/maastricht-university/signbridge/interaction"
)

type staticLog struct {
	recs []interaction.Record
	err  error
}

func (s staticLog) Records(context.Context) ([]interaction.Record, error) { return s.recs, s.err }

func sample() []interaction.Record {
	return []interaction.Record{
		{Timestamp: 1700000000, Gesture: "None", Emotion: "No face", Sentence: "", Confidence: 0},
		{Timestamp: 1700000010, Gesture: "A", Emotion: "happy", Sentence: "HI.", Confidence: 0.9, Feedback: "Sentiment and emotion align."},
		{Timestamp: 1700000020, Gesture: "None", Emotion: "No face", Sentence: "", Confidence: 0},
		{Timestamp: 1700000030, Gesture: "None", Emotion: "No face", Sentence: "", Confidence: 0.5},
	}
}

func TestSummarize_Empty(t *testing.T) {
	s := Summarize(nil)
	assert.True(t, s.NoData)
	assert.Equal(t, NoDataReason, s.Reason)
	assert.Equal(t, 0.0, s.EngagementPercent)
}

func TestSummarize_FourRowsOneActive(t *testing.T) {
	s := Summarize(sample())
	assert.False(t, s.NoData)
	assert.Equal(t, 25.0, s.EngagementPercent)
	assert.Equal(t, 1, s.TotalSentences)
	assert.Equal(t, 0.35, s.AverageConfidence)
	assert.Equal(t, 0, s.MismatchCount)
}

func TestSummarize_Mismatches(t *testing.T) {
	recs := []interaction.Record{
		{Gesture: "A", Emotion: "sad", Sentence: "YES.", Feedback: "Mismatch: Sentiment (POSITIVE) vs Emotion (sad)"},
		{Gesture: "B", Emotion: "happy", Sentence: "NO.", Feedback: "Mismatch: Sentiment (NEGATIVE) vs Emotion (happy)"},
		{Gesture: "C", Emotion: "neutral", Sentence: "OK.", Feedback: "Neutral detected."},
	}
	s := Summarize(recs)
	assert.Equal(t, 2, s.MismatchCount)
	assert.Equal(t, 3, s.TotalSentences)
	assert.Equal(t, 100.0, s.EngagementPercent)
}

func TestEngagement(t *testing.T) {
	assert.Equal(t, 0.0, Engagement(0, 0))
	assert.Equal(t, 33.33, Engagement(3, 1))
}

func TestRecent(t *testing.T) {
	var recs []interaction.Record
	for i, s := range []string{"A.", "", "B.", "C.", "D", "E.", "F.", "G."} {
		recs = append(recs, interaction.Record{Timestamp: int64(i), Sentence: s})
	}
	got := Recent(recs, 5)
	require.Len(t, got, 5)
	assert.Equal(t, "B.", got[0].Sentence)
	assert.Equal(t, "G.", got[4].Sentence)
}

func TestChartRenderer_TooFewPoints(t *testing.T) {
	_, err := ChartRenderer{}.Render(context.Background(), sample()[:1], filepath.Join(t.TempDir(), "c.png"))
	assert.ErrorIs(t, err, ErrTooFewPoints)
}

func TestCategories_CanonicalFirst(t *testing.T) {
	cs := categories(sample())
	assert.Equal(t, []string{"angry", "happy", "neutral", "sad", "surprised", "No face"}, cs.names)
	assert.Equal(t, 5, cs.index["No face"])
}

func newGen(t *testing.T, src interaction.Reader, r Renderer) (*Generator, string) {
	t.Helper()
	dir := t.TempDir()
	log, _ := test.NewNullLogger()
	g := NewGenerator(src, r, dir, log)
	g.now = func() time.Time { return time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC) }
	return g, dir
}

func TestGenerate_WritesAllOutputs(t *testing.T) {
	g, dir := newGen(t, staticLog{recs: sample()}, nil)
	rep, err := g.Generate(context.Background())
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "timeline_2026-03-01_10-00-00.png"), rep.ChartPath)
	assert.Equal(t, filepath.Join(dir, "SessionReport_2026-03-01_10-00-00.pdf"), rep.PDFPath)
	for _, p := range []string{rep.ChartPath, rep.PDFPath, rep.SummaryPath} {
		info, err := os.Stat(p)
		require.NoError(t, err, p)
		assert.Positive(t, info.Size(), p)
	}

	b, err := os.ReadFile(rep.SummaryPath)
	require.NoError(t, err)
	var got Report
	require.NoError(t, json.Unmarshal(b, &got))
	assert.Equal(t, 25.0, got.Summary.EngagementPercent)
}

func TestGenerate_UnreadableLogDegrades(t *testing.T) {
	g, _ := newGen(t, staticLog{err: errors.New("no such file")}, nil)
	rep, err := g.Generate(context.Background())
	require.NoError(t, err)
	assert.True(t, rep.Summary.NoData)
	assert.Empty(t, rep.ChartPath)
	assert.FileExists(t, rep.PDFPath)
	assert.Equal(t, []string{"Summary: No data"}, SummaryLines(rep.Summary))
}

func TestGenerate_MissingCSVDegrades(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "nope.csv")
	g, _ := newGen(t, csvReader(missing), nil)
	rep, err := g.Generate(context.Background())
	require.NoError(t, err)
	assert.True(t, rep.Summary.NoData)
}

func TestSummarize_IgnoresNonFiniteConfidence(t *testing.T) {
	recs := []interaction.Record{
		{Timestamp: 1, Gesture: "A", Emotion: "happy", Sentence: "A.", Confidence: math.NaN()},
		{Timestamp: 2, Gesture: "B", Emotion: "sad", Sentence: "B.", Confidence: math.Inf(1)},
		{Timestamp: 3, Gesture: "C", Emotion: "sad", Sentence: "C.", Confidence: 0.5},
	}
	s := Summarize(recs)
	assert.Equal(t, 0.5, s.AverageConfidence)
	assert.Equal(t, 3, s.TotalSentences)
}

func TestGenerate_NonFiniteConfidenceRowDegrades(t *testing.T) {
	path := filepath.Join(t.TempDir(), "log.csv")
	require.NoError(t, os.WriteFile(path, []byte(
		"1700000000,A,happy,HI.,NaN,\n1700000010,B,sad,BYE.,0.8,\n"), 0o644))

	g, _ := newGen(t, csvReader(path), nil)
	rep, err := g.Generate(context.Background())
	require.NoError(t, err)
	require.NotNil(t, rep)
	assert.Equal(t, 1, rep.Summary.Records)
	assert.Equal(t, 0.8, rep.Summary.AverageConfidence)
	assert.FileExists(t, rep.SummaryPath)
}

type csvReader string

func (p csvReader) Records(ctx context.Context) ([]interaction.Record, error) {
	return interaction.ReadCSV(ctx, string(p))
}

func TestRemoteRenderer(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req clients.TimelineReq
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Len(t, req.Timestamps, 4)
		require.Len(t, req.Annotations, 1)
		assert.Equal(t, "HI.", req.Annotations[0].Text)
		_, _ = w.Write([]byte(`{"status":"ok","path":"/srv/timeline.png"}`))
	}))
	defer srv.Close()

	r := RemoteRenderer{HTTP: clients.NewHTTP(time.Second), URL: srv.URL}
	p, err := r.Render(context.Background(), sample(), "/tmp/out/timeline.png")
	require.NoError(t, err)
	assert.Equal(t, "/srv/timeline.png", p)
}
