package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

type HTTP struct{ c *http.Client }

// NewHTTP bounds every capability call by timeout; callers may tighten it per
// request through the context.
func NewHTTP(timeout time.Duration) *HTTP {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &HTTP{c: &http.Client{Timeout: timeout}}
}

// NewHTTPWithClient wraps an existing client (tests use httptest servers).
func NewHTTPWithClient(c *http.Client) *HTTP { return &HTTP{c: c} }

// postJSON sends v to url and decodes the 200 response into out (when non-nil).
// name prefixes every error so failures read like "gesture 500: ...".
func (h *HTTP) postJSON(ctx context.Context, name, url string, header http.Header, v, out any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("%s encode: %w", name, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(b))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	for k, vals := range header {
		for _, val := range vals {
			req.Header.Add(k, val)
		}
	}

	resp, err := h.c.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("%s %s: %s", name, resp.Status, string(body))
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s decode: %w", name, err)
	}
	return nil
}
