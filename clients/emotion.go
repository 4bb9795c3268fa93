package clients

import "context"

// --- Emotion (/predict) ---
// EmoReq carries one face crop as row-major grayscale values in [0,1].
type EmoReq struct {
	Pixels []float64 `json:"pixels"`
	Size   int       `json:"size"`
}
type EmoResp struct {
	// Probabilities are indexed by the model's native label order.
	Probabilities []float64 `json:"probabilities"`
}

func (h *HTTP) Emotion(ctx context.Context, url string, pixels []float64, size int) (*EmoResp, error) {
	var out EmoResp
	if err := h.postJSON(ctx, "emotion", url+"/predict", nil, EmoReq{Pixels: pixels, Size: size}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
