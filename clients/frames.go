package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/maastricht-university/signbridge/landmark"
)

// --- Hand landmarks (/landmarks) ---
type LandmarksResp struct {
	Width  int             `json:"width"`
	Height int             `json:"height"`
	Hands  []landmark.Hand `json:"hands"`
}

func (h *HTTP) Landmarks(ctx context.Context, url string, frame []byte) (*LandmarksResp, error) {
	var out LandmarksResp
	if err := h.uploadFrame(ctx, "landmarks", url+"/landmarks", frame, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// --- Face detection (/faces) ---
type Box struct {
	X int `json:"x"`
	Y int `json:"y"`
	W int `json:"w"`
	H int `json:"h"`
}
type FacesResp struct {
	Faces []Box `json:"faces"`
}

func (h *HTTP) Faces(ctx context.Context, url string, frame []byte) (*FacesResp, error) {
	var out FacesResp
	if err := h.uploadFrame(ctx, "faces", url+"/faces", frame, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// uploadFrame posts a JPEG frame as multipart form field "file".
func (h *HTTP) uploadFrame(ctx context.Context, name, url string, frame []byte, out any) error {
	var b bytes.Buffer
	w := multipart.NewWriter(&b)

	fw, err := w.CreateFormFile("file", "frame.jpg")
	if err != nil {
		return err
	}
	if _, err = fw.Write(frame); err != nil {
		return err
	}
	if err = w.Close(); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, &b)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", w.FormDataContentType())

	resp, err := h.c.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("%s %s: %s", name, resp.Status, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s decode: %w", name, err)
	}
	return nil
}
