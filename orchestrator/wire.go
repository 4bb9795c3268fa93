package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/maastricht-university/signbridge/artifacts"
	"github.com/maastricht-university/signbridge/capture"
	"github.com/maastricht-university/signbridge/clients"
	cfg "github.com/maastricht-university/signbridge/config"
	"github.com/maastricht-university/signbridge/emotion"
	"github.com/maastricht-university/signbridge/gesture"
	"github.com/maastricht-university/signbridge/interaction"
	"github.com/maastricht-university/signbridge/report"
	"github.com/maastricht-university/signbridge/sinks"
)

// HTTPHands adapts the landmark service to a HandTracker.
type HTTPHands struct {
	HTTP *clients.HTTP
	URL  string
}

func (h HTTPHands) Landmarks(ctx context.Context, frame []byte) (*clients.LandmarksResp, error) {
	return h.HTTP.Landmarks(ctx, h.URL, frame)
}

// SentimentFor builds the polarity classifier selected by the config.
func SentimentFor(c *cfg.Root, h *clients.HTTP) (emotion.SentimentClassifier, error) {
	switch c.Sentiment.Provider {
	case "openai":
		s, err := clients.NewOpenAISentiment(os.Getenv(c.Sentiment.APIKeyEnv), c.Sentiment.BaseURL, c.Sentiment.Model)
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		if c.Services.Sentiment.URL == "" {
			return nil, nil
		}
		return clients.HTTPSentiment{HTTP: h, URL: c.Services.Sentiment.URL}, nil
	}
}

// Probe checks every service that declares a gRPC health endpoint.
func Probe(ctx context.Context, c *cfg.Root, log logrus.FieldLogger) error {
	svcs := map[string]cfg.Service{
		"landmarks":     c.Services.Landmarks,
		"gesture":       c.Services.Gesture,
		"faces":         c.Services.Faces,
		"emotion":       c.Services.Emotion,
		"sentiment":     c.Services.Sentiment,
		"speech":        c.Services.Speech,
		"visualization": c.Services.Visualization,
	}
	var errs []error
	for name, s := range svcs {
		if s.Health == "" {
			continue
		}
		pctx, cancel := context.WithTimeout(ctx, cfg.DurSeconds(c.Timeouts.CapabilitySeconds))
		err := clients.Probe(pctx, s.Health, name)
		cancel()
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
			continue
		}
		log.WithField("service", name).Debug("health ok")
	}
	return errors.Join(errs...)
}

// Build resolves every dependency the pipeline needs from the config. The
// returned closer releases what Build opened besides the interaction log,
// which the pipeline closes itself.
func Build(ctx context.Context, c *cfg.Root, log logrus.FieldLogger) (Deps, io.Closer, error) {
	h := clients.NewHTTP(cfg.DurSeconds(c.Timeouts.CapabilitySeconds))
	closers := multiCloser{}

	labels, err := gesture.LoadLabels(c.Gesture.LabelsFile)
	if err != nil {
		return Deps{}, nil, err
	}
	gestures, err := gesture.NewRemote(h, c.Services.Gesture.URL, labels, c.Gesture.MinScore)
	if err != nil {
		return Deps{}, nil, err
	}

	summary, err := emotion.OpenSummary(c.EmotionSummaryPath(c.Pipeline.Room))
	if err != nil {
		return Deps{}, nil, err
	}
	emotions, err := emotion.NewClassifier(
		emotion.HTTPFaces{HTTP: h, URL: c.Services.Faces.URL},
		emotion.HTTPModel{HTTP: h, URL: c.Services.Emotion.URL},
		emotion.WithSummary(summary),
		emotion.WithLogger(log),
	)
	if err != nil {
		return Deps{}, nil, err
	}

	sentiment, err := SentimentFor(c, h)
	if err != nil {
		return Deps{}, nil, err
	}

	target := c.InteractionLog.Path
	if c.InteractionLog.Backend == "postgres" {
		target = c.InteractionLog.DSN
	}
	ilog, err := interaction.Open(ctx, c.InteractionLog.Backend, target)
	if err != nil {
		return Deps{}, nil, err
	}

	d := Deps{
		OpenSource: func() (capture.Source, error) {
			return capture.Open(c.Capture.Source, capture.Options{
				Width: c.Capture.Width, Height: c.Capture.Height, FPS: c.Capture.FPS, Mirror: c.Capture.Mirror,
			})
		},
		Hands:    HTTPHands{HTTP: h, URL: c.Services.Landmarks.URL},
		Gestures: gestures,
		Emotions: emotions,
		Analyzer: emotion.NewAnalyzer(sentiment),
		Log:      ilog,
		Logger:   log,
	}
	if c.InteractionLog.FrameRate > 0 {
		d.FrameLog = interaction.NewFrameLog(ilog, c.InteractionLog.FrameRate)
	}
	if c.Speech.Enabled && c.Services.Speech.URL != "" {
		d.Speaker = sinks.HTTPSpeaker{HTTP: h, URL: c.Services.Speech.URL, Rate: c.Speech.Rate, Volume: c.Speech.Volume}
	}

	switch c.Chat.Transport {
	case "http":
		var secret []byte
		if c.Chat.TokenSecretEnv != "" {
			secret = []byte(os.Getenv(c.Chat.TokenSecretEnv))
		}
		n, err := sinks.NewHTTPNotifier(h, c.Chat.URL, c.Pipeline.Room, secret)
		if err != nil {
			_ = ilog.Close()
			return Deps{}, nil, err
		}
		d.Notifier = n
	case "redis":
		n := sinks.NewRedisNotifier(c.Chat.RedisAddr, c.Chat.RedisChannel)
		closers = append(closers, n)
		d.Notifier = n
	}

	if c.Services.Visualization.URL != "" {
		d.Renderer = report.RemoteRenderer{HTTP: h, URL: c.Services.Visualization.URL}
	} else {
		d.Renderer = report.ChartRenderer{}
	}

	store, err := artifacts.New(ctx, c.Artifacts)
	if err != nil {
		log.WithError(err).Warn("artifact store unavailable, session outputs stay local")
	} else {
		d.Store = store
		if cl, ok := store.(io.Closer); ok {
			closers = append(closers, cl)
		}
	}
	return d, closers, nil
}

type multiCloser []io.Closer

func (m multiCloser) Close() error {
	var errs []error
	for _, c := range m {
		errs = append(errs, c.Close())
	}
	return errors.Join(errs...)
}
