package clients

import "context"

// --- Keypoint classification (/classify) ---
type GestureReq struct {
	Features []float64 `json:"features"`
}
type GestureResp struct {
	Index int     `json:"index"`
	Score float64 `json:"score"`
}

func (h *HTTP) Gesture(ctx context.Context, url string, features []float64) (*GestureResp, error) {
	var out GestureResp
	if err := h.postJSON(ctx, "gesture", url+"/classify", nil, GestureReq{Features: features}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
