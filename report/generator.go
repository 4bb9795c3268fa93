package report

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-pdf/fpdf"
	"github.com/sirupsen/logrus"

	"github.com/maastricht-university/signbridge/interaction"
)

const (
	Title      = "ASL + Emotion Session Report"
	stampFmt   = "2006-01-02_15-04-05"
	recentRows = 5
)

// Report lists what Generate produced. ChartPath is empty when no chart could
// be drawn.
type Report struct {
	Summary     Summary   `json:"summary"`
	GeneratedAt time.Time `json:"generated_at"`
	ChartPath   string    `json:"chart_path,omitempty"`
	PDFPath     string    `json:"pdf_path"`
	SummaryPath string    `json:"summary_path"`
}

type Generator struct {
	src      interaction.Reader
	renderer Renderer
	outDir   string
	log      logrus.FieldLogger
	now      func() time.Time
}

func NewGenerator(src interaction.Reader, renderer Renderer, outDir string, log logrus.FieldLogger) *Generator {
	if renderer == nil {
		renderer = ChartRenderer{}
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Generator{src: src, renderer: renderer, outDir: outDir, log: log, now: time.Now}
}

// Generate reads the whole log and writes the chart, the PDF and
// summary.json. Unreadable or empty logs produce a "no data" report; only
// failures to write the outputs are returned.
func (g *Generator) Generate(ctx context.Context) (*Report, error) {
	var recs []interaction.Record
	if g.src != nil {
		var err error
		recs, err = g.src.Records(ctx)
		if err != nil {
			g.log.WithError(err).Warn("interaction log unreadable, reporting without data")
			recs = nil
		}
	}

	now := g.now()
	stamp := now.Format(stampFmt)
	if err := os.MkdirAll(g.outDir, 0o755); err != nil {
		return nil, fmt.Errorf("report dir: %w", err)
	}

	rep := &Report{Summary: Summarize(recs), GeneratedAt: now}
	chartPath, err := g.renderer.Render(ctx, recs, filepath.Join(g.outDir, "timeline_"+stamp+".png"))
	switch {
	case err == nil:
		rep.ChartPath = chartPath
	case errors.Is(err, ErrTooFewPoints):
		g.log.Debug("too few records for a timeline chart")
	default:
		g.log.WithError(err).Warn("timeline chart failed")
	}

	rep.PDFPath = filepath.Join(g.outDir, "SessionReport_"+stamp+".pdf")
	if err := writePDF(rep.PDFPath, stamp, rep.Summary, rep.ChartPath, Recent(recs, recentRows)); err != nil {
		return nil, err
	}

	rep.SummaryPath = filepath.Join(g.outDir, "summary_"+stamp+".json")
	if err := writeJSON(rep.SummaryPath, rep); err != nil {
		return nil, fmt.Errorf("report summary: %w", err)
	}
	return rep, nil
}

// SummaryLines renders the summary fields as labeled lines.
func SummaryLines(s Summary) []string {
	if s.NoData {
		return []string{"Summary: " + s.Reason}
	}
	return []string{
		fmt.Sprintf("Total Sentences: %d", s.TotalSentences),
		fmt.Sprintf("Average Confidence: %.2f", s.AverageConfidence),
		fmt.Sprintf("Engagement %%: %.2f", s.EngagementPercent),
		fmt.Sprintf("Mismatches: %d", s.MismatchCount),
	}
}

func writePDF(path, stamp string, s Summary, chartPath string, recent []interaction.Record) error {
	pdf := fpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 16)
	pdf.CellFormat(0, 10, Title, "", 1, "", false, 0, "")
	pdf.SetFont("Arial", "", 12)
	pdf.CellFormat(0, 10, "Date: "+stamp, "", 1, "", false, 0, "")
	pdf.Ln(5)

	for _, line := range SummaryLines(s) {
		pdf.CellFormat(0, 10, line, "", 1, "", false, 0, "")
	}

	pdf.Ln(10)
	pdf.CellFormat(0, 10, "Emotion Timeline:", "", 1, "", false, 0, "")
	if chartPath != "" {
		pdf.ImageOptions(chartPath, -1, -1, 180, 0, true, fpdf.ImageOptions{ImageType: "PNG", ReadDpi: true}, 0, "")
	} else {
		pdf.CellFormat(0, 10, "Not enough data for a timeline.", "", 1, "", false, 0, "")
	}
	pdf.Ln(10)

	pdf.CellFormat(0, 10, "Recent Sentences:", "", 1, "", false, 0, "")
	for _, r := range recent {
		at := time.Unix(r.Timestamp, 0).UTC().Format("15:04:05")
		line := fmt.Sprintf("[%s] %s (%s, %s)", at, r.Sentence, r.Emotion, r.Feedback)
		pdf.MultiCell(0, 10, tr(line), "", "", false)
	}

	if err := pdf.OutputFileAndClose(path); err != nil {
		return fmt.Errorf("report pdf: %w", err)
	}
	return nil
}

func writeJSON(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
