package report

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/wcharczuk/go-chart/v2"

	"github.com/maastricht-university/signbridge/clients"
	"github.com/maastricht-university/signbridge/emotion"
	"github.com/maastricht-university/signbridge/interaction"
)

// ErrTooFewPoints means the log cannot be drawn as a timeline.
var ErrTooFewPoints = errors.New("report: at least two records are needed for a timeline")

// Renderer draws the emotion timeline and returns the image path.
type Renderer interface {
	Render(ctx context.Context, recs []interaction.Record, path string) (string, error)
}

// ChartRenderer draws the timeline locally as a PNG.
type ChartRenderer struct {
	Width, Height int
}

func (c ChartRenderer) Render(ctx context.Context, recs []interaction.Record, path string) (string, error) {
	if len(recs) < 2 {
		return "", ErrTooFewPoints
	}
	cats := categories(recs)
	xs := make([]time.Time, len(recs))
	ys := make([]float64, len(recs))
	var notes []chart.Value2
	for i, r := range recs {
		xs[i] = time.Unix(r.Timestamp, 0).UTC()
		ys[i] = float64(cats.index[r.Emotion])
		if IsFinalized(r.Sentence) {
			notes = append(notes, chart.Value2{XValue: chart.TimeToFloat64(xs[i]), YValue: ys[i], Label: r.Sentence})
		}
	}

	ticks := make([]chart.Tick, len(cats.names))
	for i, n := range cats.names {
		ticks[i] = chart.Tick{Value: float64(i), Label: n}
	}

	w, h := c.Width, c.Height
	if w <= 0 {
		w = 1200
	}
	if h <= 0 {
		h = 600
	}
	graph := chart.Chart{
		Title:  "Emotion Timeline",
		Width:  w,
		Height: h,
		XAxis: chart.XAxis{
			Name:           "Time",
			ValueFormatter: chart.TimeValueFormatterWithFormat("15:04:05"),
		},
		YAxis: chart.YAxis{
			Name:  "Detected Emotion",
			Ticks: ticks,
			Range: &chart.ContinuousRange{Min: -0.5, Max: float64(len(cats.names)) - 0.5},
		},
		Series: []chart.Series{
			chart.TimeSeries{
				Name:    "Emotion",
				XValues: xs,
				YValues: ys,
				Style:   chart.Style{StrokeWidth: 2, DotWidth: 4},
			},
		},
	}
	if len(notes) > 0 {
		graph.Series = append(graph.Series, chart.AnnotationSeries{Annotations: notes})
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", err
	}
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("report chart: %w", err)
	}
	if err := graph.Render(chart.PNG, f); err != nil {
		f.Close()
		os.Remove(path)
		return "", fmt.Errorf("report chart render: %w", err)
	}
	return path, f.Close()
}

type categorySet struct {
	names []string
	index map[string]int
}

// categories puts the canonical labels first, then any other value in order
// of appearance.
func categories(recs []interaction.Record) categorySet {
	cs := categorySet{index: map[string]int{}}
	add := func(n string) {
		if _, ok := cs.index[n]; !ok {
			cs.index[n] = len(cs.names)
			cs.names = append(cs.names, n)
		}
	}
	for _, n := range emotion.Canonical {
		add(n)
	}
	for _, r := range recs {
		add(r.Emotion)
	}
	return cs
}

// RemoteRenderer delegates drawing to the visualization service.
type RemoteRenderer struct {
	HTTP *clients.HTTP
	URL  string
}

func (r RemoteRenderer) Render(ctx context.Context, recs []interaction.Record, path string) (string, error) {
	if len(recs) < 2 {
		return "", ErrTooFewPoints
	}
	req := clients.TimelineReq{Title: "Emotion Timeline", OutputDir: filepath.Dir(path)}
	for _, rec := range recs {
		req.Timestamps = append(req.Timestamps, rec.Timestamp)
		req.Emotions = append(req.Emotions, rec.Emotion)
		if IsFinalized(rec.Sentence) {
			req.Annotations = append(req.Annotations, clients.Annotation{Timestamp: rec.Timestamp, Text: rec.Sentence})
		}
	}
	resp, err := r.HTTP.GenerateTimeline(ctx, r.URL, req)
	if err != nil {
		return "", err
	}
	return resp.Path, nil
}
