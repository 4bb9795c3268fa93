package orchestrator

import (
	"context"
	"time"

	"github.com/maastricht-university/signbridge/capture"
	"github.com/maastricht-university/signbridge/clients"
	"github.com/maastricht-university/signbridge/emotion"
)

// HandTracker extracts hand landmarks from an encoded frame.
type HandTracker interface {
	Landmarks(ctx context.Context, frame []byte) (*clients.LandmarksResp, error)
}

// EmotionAnalyzer classifies the faces of a frame. It never fails; a frame
// without usable faces yields an empty result.
type EmotionAnalyzer interface {
	Analyze(ctx context.Context, f capture.Frame) emotion.Result
}

// FrameStatus is what one frame contributed.
type FrameStatus struct {
	Seq        int
	At         time.Time
	Hands      int
	Gesture    string // "" when none classified
	Emotions   []string
	Confidence float64
	Display    string
	FPS        float64
}

// Finalization is the payload handed to the side-effect lanes.
type Finalization struct {
	Sentence   string
	Gesture    string
	Emotion    string
	Confidence float64
	At         time.Time
}

// SessionBundle is written to session.json when the pipeline stops.
type SessionBundle struct {
	SessionID  string            `json:"session_id"`
	Room       string            `json:"room"`
	Source     string            `json:"source"`
	StartedAt  time.Time         `json:"started_at"`
	EndedAt    time.Time         `json:"ended_at"`
	Frames     int               `json:"frames"`
	Sentences  []string          `json:"sentences"`
	StopReason string            `json:"stop_reason"`
	ReportPath string            `json:"report_path,omitempty"`
	Published  map[string]string `json:"published,omitempty"`
}
