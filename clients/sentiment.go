package clients

import (
	"context"
	"strings"
)

// --- Sentiment (/sentiment) ---
type SentimentReq struct {
	Text string `json:"text"`
}
type SentimentResp struct {
	Label string  `json:"label"` // "POSITIVE" | "NEGATIVE"
	Score float64 `json:"score"`
}

func (h *HTTP) Sentiment(ctx context.Context, url, text string) (*SentimentResp, error) {
	var out SentimentResp
	if err := h.postJSON(ctx, "sentiment", url+"/sentiment", nil, SentimentReq{Text: text}, &out); err != nil {
		return nil, err
	}
	out.Label = strings.ToUpper(strings.TrimSpace(out.Label))
	return &out, nil
}

// HTTPSentiment adapts the sentiment service to a polarity classifier.
type HTTPSentiment struct {
	HTTP *HTTP
	URL  string
}

func (s HTTPSentiment) Polarity(ctx context.Context, text string) (string, error) {
	resp, err := s.HTTP.Sentiment(ctx, s.URL, text)
	if err != nil {
		return "", err
	}
	return resp.Label, nil
}
