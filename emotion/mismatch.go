package emotion

import (
	"context"
	"fmt"
	"strings"
)

// SentimentClassifier returns "POSITIVE" or "NEGATIVE" for a sentence.
type SentimentClassifier interface {
	Polarity(ctx context.Context, text string) (string, error)
}

type Outcome int

const (
	Unknown Outcome = iota
	Aligned
	NeutralAffect
	Mismatch
)

func (o Outcome) String() string {
	switch o {
	case Aligned:
		return "aligned"
	case NeutralAffect:
		return "neutral"
	case Mismatch:
		return "mismatch"
	default:
		return "unknown"
	}
}

// Verdict is the result of comparing a sentence's sentiment with the affect
// observed while it was signed. Feedback is the text logged with the record.
type Verdict struct {
	Outcome   Outcome
	Sentiment string
	Affect    string
	Feedback  string
}

type Analyzer struct {
	sentiment SentimentClassifier
}

func NewAnalyzer(s SentimentClassifier) *Analyzer { return &Analyzer{sentiment: s} }

// Check never fails: classifier errors degrade into an Unknown verdict.
func (a *Analyzer) Check(ctx context.Context, sentence, affect string) Verdict {
	affect = strings.ToLower(strings.TrimSpace(affect))
	v := Verdict{Affect: affect}
	if !IsCanonical(affect) {
		v.Feedback = fmt.Sprintf("Could not evaluate: no facial affect (%s).", affect)
		return v
	}
	if a.sentiment == nil {
		v.Feedback = "Sentiment analysis failed: no classifier configured"
		return v
	}
	polarity, err := a.sentiment.Polarity(ctx, sentence)
	if err != nil {
		v.Feedback = fmt.Sprintf("Sentiment analysis failed: %v", err)
		return v
	}
	v.Sentiment = strings.ToUpper(polarity)
	return Judge(v.Sentiment, affect)
}

// Judge applies the alignment rules to an already classified sentence.
func Judge(sentiment, affect string) Verdict {
	v := Verdict{Sentiment: sentiment, Affect: affect}
	switch {
	case sentiment == "POSITIVE" && (affect == Happy || affect == Surprised),
		sentiment == "NEGATIVE" && (affect == Angry || affect == Sad):
		v.Outcome = Aligned
		v.Feedback = "Sentiment and emotion align."
	case affect == Neutral:
		v.Outcome = NeutralAffect
		v.Feedback = "Neutral detected."
	default:
		v.Outcome = Mismatch
		v.Feedback = fmt.Sprintf("Mismatch: Sentiment (%s) vs Emotion (%s)", sentiment, affect)
	}
	return v
}
