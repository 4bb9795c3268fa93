// Package landmark turns detected hand keypoints into classifier features.
package landmark

import (
	"errors"
	"math"
)

// Hand keypoint indices, MediaPipe ordering.
const (
	Wrist        = 0
	NumLandmarks = 21
)

var (
	// ErrDegenerate marks a hand whose keypoints all coincide with the wrist.
	ErrDegenerate = errors.New("landmark: degenerate hand, no usable feature vector")
	ErrNoPoints   = errors.New("landmark: no keypoints")
)

// Point is a keypoint in normalised image coordinates ([0,1] on both axes).
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// PixelPoint is a keypoint in pixel space.
type PixelPoint struct {
	X, Y int
}

// Hand is one detected hand as reported by the landmark capability.
type Hand struct {
	Landmarks  []Point `json:"landmarks"`
	Handedness string  `json:"handedness"`
	Score      float64 `json:"score"`
}

// ToPixels scales normalised keypoints to the frame, clamping to the last pixel.
func ToPixels(points []Point, width, height int) []PixelPoint {
	out := make([]PixelPoint, len(points))
	for i, p := range points {
		out[i] = PixelPoint{
			X: clamp(int(p.X*float64(width)), width-1),
			Y: clamp(int(p.Y*float64(height)), height-1),
		}
	}
	return out
}

func clamp(v, hi int) int {
	if v > hi {
		return hi
	}
	if v < 0 {
		return 0
	}
	return v
}

// Normalize makes points wrist-relative, flattens them to x0,y0,x1,y1,... and
// scales by the largest absolute component so every value lies in [-1,1].
func Normalize(points []PixelPoint) ([]float64, error) {
	if len(points) == 0 {
		return nil, ErrNoPoints
	}
	base := points[Wrist]

	vec := make([]float64, 0, 2*len(points))
	maxAbs := 0.0
	for _, p := range points {
		x := float64(p.X - base.X)
		y := float64(p.Y - base.Y)
		vec = append(vec, x, y)
		maxAbs = math.Max(maxAbs, math.Max(math.Abs(x), math.Abs(y)))
	}
	if maxAbs == 0 {
		return nil, ErrDegenerate
	}
	for i := range vec {
		vec[i] /= maxAbs
	}
	return vec, nil
}

// Features runs ToPixels and Normalize for one hand.
func Features(h Hand, width, height int) ([]float64, error) {
	return Normalize(ToPixels(h.Landmarks, width, height))
}
