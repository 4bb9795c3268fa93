package emotion

import (
	"context"
	"errors"
	"image"
	"image/color"
	"math"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/maastricht-university/signbridge/capture"
	"github.com/maastricht-university/signbridge/clients"
)

// CropSize is the side of the square grayscale crop the model expects.
const CropSize = 48

// FaceDetector locates faces in a frame.
type FaceDetector interface {
	Faces(ctx context.Context, f capture.Frame) ([]image.Rectangle, error)
}

// Model returns class probabilities in NativeLabels order for a CropSize×CropSize
// grayscale crop with values in [0,1].
type Model interface {
	Predict(ctx context.Context, pixels []float64) ([]float64, error)
}

// Result is the per-frame classification. Labels and Native are parallel,
// one entry per successfully classified face.
type Result struct {
	Labels     []string
	Native     []string
	Confidence float64
}

// Dominant returns the first face's canonical label, or NoFace.
func (r Result) Dominant() string {
	if len(r.Labels) == 0 {
		return NoFace
	}
	return r.Labels[0]
}

type Classifier struct {
	faces   FaceDetector
	model   Model
	summary *SummaryLog
	log     logrus.FieldLogger
	now     func() time.Time
}

type Option func(*Classifier)

// WithSummary records every raw detection to the emotion-summary log.
func WithSummary(s *SummaryLog) Option { return func(c *Classifier) { c.summary = s } }

func WithLogger(l logrus.FieldLogger) Option { return func(c *Classifier) { c.log = l } }

func NewClassifier(faces FaceDetector, model Model, opts ...Option) (*Classifier, error) {
	if faces == nil || model == nil {
		return nil, errors.New("emotion: face detector and model are required")
	}
	c := &Classifier{faces: faces, model: model, log: logrus.StandardLogger(), now: time.Now}
	for _, o := range opts {
		o(c)
	}
	return c, nil
}

// Analyze classifies every face in the frame. A face whose crop or prediction
// fails is skipped; a detector failure yields an empty result.
func (c *Classifier) Analyze(ctx context.Context, f capture.Frame) Result {
	var res Result
	if f.Image == nil {
		return res
	}
	boxes, err := c.faces.Faces(ctx, f)
	if err != nil {
		c.log.WithError(err).Debug("face detection failed")
		return res
	}
	for _, box := range boxes {
		box = box.Intersect(f.Image.Bounds())
		if box.Empty() {
			continue
		}
		probs, err := c.model.Predict(ctx, GrayCrop(f.Image, box, CropSize))
		if err != nil {
			c.log.WithError(err).Debug("emotion prediction failed")
			continue
		}
		idx, conf, ok := argmax(probs)
		if !ok || len(probs) != len(NativeLabels) {
			continue
		}
		native := NativeLabels[idx]
		res.Native = append(res.Native, native)
		res.Labels = append(res.Labels, Canonicalize(native))
		if conf > res.Confidence {
			res.Confidence = conf
		}
		if c.summary != nil {
			if err := c.summary.Append(native, c.now()); err != nil {
				c.log.WithError(err).Warn("emotion summary write failed")
			}
		}
	}
	return res
}

// Detect returns the canonical label of every classified face.
func (c *Classifier) Detect(ctx context.Context, f capture.Frame) []string {
	return c.Analyze(ctx, f).Labels
}

// Confidence returns the highest class probability across faces, 0 when none.
func (c *Classifier) Confidence(ctx context.Context, f capture.Frame) float64 {
	return c.Analyze(ctx, f).Confidence
}

// argmax rejects empty and NaN-bearing vectors.
func argmax(p []float64) (int, float64, bool) {
	if len(p) == 0 {
		return 0, 0, false
	}
	best := 0
	for i, v := range p {
		if math.IsNaN(v) {
			return 0, 0, false
		}
		if v > p[best] {
			best = i
		}
	}
	return best, p[best], true
}

// GrayCrop resizes the box region of img to size×size grayscale with
// nearest-neighbour sampling and scales values to [0,1], row-major.
func GrayCrop(img image.Image, box image.Rectangle, size int) []float64 {
	out := make([]float64, size*size)
	w, h := box.Dx(), box.Dy()
	if w <= 0 || h <= 0 {
		return out
	}
	for y := 0; y < size; y++ {
		sy := box.Min.Y + y*h/size
		for x := 0; x < size; x++ {
			sx := box.Min.X + x*w/size
			g := color.GrayModel.Convert(img.At(sx, sy)).(color.Gray)
			out[y*size+x] = float64(g.Y) / 255
		}
	}
	return out
}

// HTTPFaces adapts the face-detection service.
type HTTPFaces struct {
	HTTP *clients.HTTP
	URL  string
}

func (h HTTPFaces) Faces(ctx context.Context, f capture.Frame) ([]image.Rectangle, error) {
	resp, err := h.HTTP.Faces(ctx, h.URL, f.JPEG)
	if err != nil {
		return nil, err
	}
	out := make([]image.Rectangle, 0, len(resp.Faces))
	for _, b := range resp.Faces {
		out = append(out, image.Rect(b.X, b.Y, b.X+b.W, b.Y+b.H))
	}
	return out, nil
}

// HTTPModel adapts the emotion model service.
type HTTPModel struct {
	HTTP *clients.HTTP
	URL  string
}

func (h HTTPModel) Predict(ctx context.Context, pixels []float64) ([]float64, error) {
	resp, err := h.HTTP.Emotion(ctx, h.URL, pixels, CropSize)
	if err != nil {
		return nil, err
	}
	return resp.Probabilities, nil
}
