// Package report turns the interaction log into a session summary, an
// emotion timeline chart and a PDF document.
package report

import (
	"math"
	"strings"

	"github.com/maastricht-university/signbridge/emotion"
	"github.com/maastricht-university/signbridge/interaction"
)

// NoDataReason is reported when the log holds no usable rows.
const NoDataReason = "No data"

type Summary struct {
	TotalSentences    int     `json:"total_sentences"`
	AverageConfidence float64 `json:"average_confidence"`
	EngagementPercent float64 `json:"engagement_percent"`
	MismatchCount     int     `json:"mismatch_count"`
	Records           int     `json:"records"`
	NoData            bool    `json:"no_data,omitempty"`
	Reason            string  `json:"reason,omitempty"`
}

func Summarize(recs []interaction.Record) Summary {
	if len(recs) == 0 {
		return Summary{NoData: true, Reason: NoDataReason}
	}
	var s Summary
	s.Records = len(recs)
	var conf float64
	scored, active := 0, 0
	for _, r := range recs {
		if IsFinalized(r.Sentence) {
			s.TotalSentences++
		}
		if !math.IsNaN(r.Confidence) && !math.IsInf(r.Confidence, 0) {
			conf += r.Confidence
			scored++
		}
		if r.Gesture != interaction.NoGesture || r.Emotion != emotion.NoFace {
			active++
		}
		if strings.Contains(r.Feedback, "Mismatch") {
			s.MismatchCount++
		}
	}
	if scored > 0 {
		s.AverageConfidence = round2(conf / float64(scored))
	}
	s.EngagementPercent = Engagement(len(recs), active)
	return s
}

// Engagement is the share of active rows in percent, 0 for an empty log.
func Engagement(total, active int) float64 {
	if total == 0 {
		return 0
	}
	return round2(100 * float64(active) / float64(total))
}

func IsFinalized(sentence string) bool {
	return strings.HasSuffix(strings.TrimSpace(sentence), ".")
}

// Recent returns up to n of the latest finalized records, oldest first.
func Recent(recs []interaction.Record, n int) []interaction.Record {
	var out []interaction.Record
	for i := len(recs) - 1; i >= 0 && len(out) < n; i-- {
		if IsFinalized(recs[i].Sentence) {
			out = append(out, recs[i])
		}
	}
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out
}

func round2(f float64) float64 { return math.Round(f*100) / 100 }
