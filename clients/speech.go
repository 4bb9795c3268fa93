package clients

import "context"

// --- Speech synthesis (/speak) ---
type SpeakReq struct {
	Text   string  `json:"text"`
	Rate   int     `json:"rate"`
	Volume float64 `json:"volume"`
}

func (h *HTTP) Speak(ctx context.Context, url string, req SpeakReq) error {
	return h.postJSON(ctx, "speech", url+"/speak", nil, req, nil)
}
