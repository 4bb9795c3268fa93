package clients

import (
	"context"
	"net/http"
)

// --- Chat delivery ---
type ChatMessage struct {
	Sender   string `json:"sender"`
	Receiver string `json:"receiver"`
	Message  string `json:"message"`
}

// Chat posts msg to the meeting chat endpoint. bearer may be empty.
func (h *HTTP) Chat(ctx context.Context, url, bearer string, msg ChatMessage) error {
	var header http.Header
	if bearer != "" {
		header = http.Header{"Authorization": []string{"Bearer " + bearer}}
	}
	return h.postJSON(ctx, "chat", url, header, msg, nil)
}
