package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// --- Visualization ---
type Annotation struct {
	Timestamp int64  `json:"timestamp"`
	Text      string `json:"text"`
}

type TimelineReq struct {
	Timestamps  []int64      `json:"timestamps"`
	Emotions    []string     `json:"emotions"`
	Annotations []Annotation `json:"annotations,omitempty"`
	Title       string       `json:"title,omitempty"`
	OutputDir   string       `json:"output_dir,omitempty"`
}

type TimelineResp struct{ Status, Path string }

func (h *HTTP) GenerateTimeline(ctx context.Context, url string, req TimelineReq) (*TimelineResp, error) {
	b, _ := json.Marshal(req)
	r, err := http.NewRequestWithContext(ctx, http.MethodPost, url+"/generate-timeline", bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	r.Header.Set("Content-Type", "application/json")
	resp, err := h.c.Do(r)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("viz timeline %s: %s", resp.Status, string(body))
	}

	var out TimelineResp
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("viz timeline decode: %w", err)
	}
	if out.Path == "" {
		return nil, fmt.Errorf("viz timeline: empty path (status %q)", out.Status)
	}
	return &out, nil
}
