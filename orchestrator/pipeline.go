package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/maastricht-university/signbridge/archive"
	"github.com/maastricht-university/signbridge/artifacts"
	"github.com/maastricht-university/signbridge/capture"
	"github.com/maastricht-university/signbridge/clients"
	"github.com/maastricht-university/signbridge/composer"
	cfg "github.com/maastricht-university/signbridge/config"
	"github.com/maastricht-university/signbridge/emotion"
	"github.com/maastricht-university/signbridge/gesture"
	"github.com/maastricht-university/signbridge/interaction"
	"github.com/maastricht-university/signbridge/landmark"
	"github.com/maastricht-university/signbridge/observability"
	"github.com/maastricht-university/signbridge/report"
	"github.com/maastricht-university/signbridge/sinks"
)

// Deps are the capabilities and sinks the pipeline runs with. Optional
// fields may be nil.
type Deps struct {
	OpenSource func() (capture.Source, error)
	Hands      HandTracker
	Gestures   gesture.Classifier
	Emotions   EmotionAnalyzer
	Analyzer   *emotion.Analyzer
	Log        interaction.Log

	FrameLog *interaction.FrameLog
	Speaker  sinks.Speaker
	Notifier sinks.Notifier
	Renderer report.Renderer
	Store    artifacts.Store
	Metrics  *observability.Metrics
	Logger   logrus.FieldLogger
	Now      func() time.Time
}

type Pipeline struct {
	cfg  *cfg.Root
	deps Deps
	log  logrus.FieldLogger

	composer *composer.Composer
	fps      *fpsMeter
	affect   affectMemory
	gesture  string
	finals   []string
	frameLog *rate.Limiter

	mu        sync.Mutex
	sentences []string
}

func NewPipeline(c *cfg.Root, d Deps) (*Pipeline, error) {
	switch {
	case d.OpenSource == nil:
		return nil, errors.New("pipeline: no capture source")
	case d.Hands == nil:
		return nil, errors.New("pipeline: no hand tracker")
	case d.Gestures == nil:
		return nil, errors.New("pipeline: no gesture classifier")
	case d.Emotions == nil:
		return nil, errors.New("pipeline: no emotion classifier")
	case d.Log == nil:
		return nil, errors.New("pipeline: no interaction log")
	}
	if d.Logger == nil {
		d.Logger = logrus.StandardLogger()
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	if d.Analyzer == nil {
		d.Analyzer = emotion.NewAnalyzer(nil)
	}
	if d.Metrics == nil {
		m, err := observability.NewMetrics(context.Background(), observability.MetricsConfig{}, d.Logger)
		if err != nil {
			return nil, err
		}
		d.Metrics = m
	}

	p := &Pipeline{
		cfg:      c,
		deps:     d,
		log:      d.Logger.WithField("component", "pipeline"),
		fps:      newFPSMeter(10),
		affect:   affectMemory{maxAge: cfg.FloatSeconds(c.Composer.SilenceSeconds)},
		frameLog: rate.NewLimiter(rate.Every(time.Second), 1),
	}
	p.composer = composer.New(
		composer.WithThresholds(composer.Thresholds{
			Hold:      cfg.FloatSeconds(c.Composer.HoldSeconds),
			SpaceHold: cfg.FloatSeconds(c.Composer.SpaceHoldSeconds),
			Silence:   cfg.FloatSeconds(c.Composer.SilenceSeconds),
		}),
		composer.WithInstantLabels(c.Composer.InstantLabels...),
		composer.WithFinalizeHook(func(s string) { p.finals = append(p.finals, s) }),
	)
	return p, nil
}

// Run owns the capture source for the whole session. The loop stops on
// context cancellation, the end of a finite source, a capture failure or a
// panic while processing a frame; the report is generated on every one of
// those paths.
func (p *Pipeline) Run(ctx context.Context) (*SessionBundle, error) {
	src, err := p.deps.OpenSource()
	if err != nil {
		return nil, fmt.Errorf("capture: %w", err)
	}
	release := sync.OnceValue(src.Close)
	defer release()

	started := p.deps.Now()
	sid, dir, err := mkSessionDir(p.cfg.Paths.Outputs, started)
	log := p.log.WithField("session", sid)
	if err != nil {
		dir = p.cfg.Paths.Reports
		log.WithError(err).WithField("fallback", dir).Warn("session dir unavailable")
	}
	log.WithField("source", p.cfg.Capture.Source).Info("pipeline started")

	sinkTimeout := cfg.DurSeconds(p.cfg.Timeouts.SinkSeconds)
	onFail := func(task string, _ error) { p.deps.Metrics.SinkFailure(context.Background(), task) }
	records := sinks.NewDispatcher("record", 64, sinkTimeout, p.deps.Logger, onFail)
	speech := sinks.NewDispatcher("speech", 16, sinkTimeout, p.deps.Logger, onFail)

	frames, loopErr := p.loop(ctx, src, records, speech)
	if err := release(); err != nil {
		log.WithError(err).Warn("capture release failed")
	}

	reason := "quit"
	switch {
	case errors.Is(loopErr, errFramePanic):
		reason = "internal error"
	case loopErr != nil:
		reason = "capture failure"
	case ctx.Err() == nil:
		reason = "end of input"
	}
	log.WithFields(logrus.Fields{"frames": frames, "reason": reason}).Info("capture loop stopped")

	// shutdown work must not inherit the loop's cancellation
	sctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cfg.DurSeconds(p.cfg.Timeouts.ShutdownSeconds))
	defer cancel()

	var g errgroup.Group
	g.Go(func() error { return records.Close(sctx) })
	g.Go(func() error { return speech.Close(sctx) })
	if err := g.Wait(); err != nil {
		log.WithError(err).Warn("side-effect queues did not drain")
	}

	bundle := &SessionBundle{
		SessionID:  sid,
		Room:       p.cfg.Pipeline.Room,
		Source:     p.cfg.Capture.Source,
		StartedAt:  started,
		EndedAt:    p.deps.Now(),
		Frames:     frames,
		Sentences:  p.Sentences(),
		StopReason: reason,
	}
	p.finish(sctx, log, dir, bundle)

	if err := writeJSON(filepath.Join(dir, "session.json"), bundle); err != nil {
		log.WithError(err).Warn("session bundle write failed")
	}
	if err := p.deps.Metrics.Shutdown(sctx); err != nil {
		log.WithError(err).Debug("metrics shutdown")
	}
	return bundle, loopErr
}

func (p *Pipeline) loop(ctx context.Context, src capture.Source, records, speech *sinks.Dispatcher) (int, error) {
	frames := 0
	for {
		if ctx.Err() != nil {
			return frames, nil
		}
		f, err := src.Read(ctx)
		if err != nil {
			if errors.Is(err, io.EOF) || ctx.Err() != nil {
				return frames, nil
			}
			return frames, fmt.Errorf("capture read: %w", err)
		}
		if err := p.process(ctx, f, records, speech); err != nil {
			return frames, err
		}
		frames++
	}
}

var errFramePanic = errors.New("frame processing panicked")

// process runs one frame. A panic ends the loop as an error so the shutdown
// sequence still runs.
func (p *Pipeline) process(ctx context.Context, f capture.Frame, records, speech *sinks.Dispatcher) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: frame %d: %v", errFramePanic, f.Seq, r)
		}
	}()
	start := time.Now()
	st := p.Step(ctx, f)
	for _, s := range p.takeFinals() {
		p.finalize(ctx, Finalization{Sentence: s, Gesture: gestureOrNone(p.gesture), At: f.At}, records, speech)
	}
	p.observeFrame(ctx, st)
	p.deps.Metrics.Frame(ctx, time.Since(start))
	return nil
}

// Step runs one frame through landmarks, gesture, composer and emotion.
// Capability failures skip only the stage they affect.
func (p *Pipeline) Step(ctx context.Context, f capture.Frame) FrameStatus {
	st := FrameStatus{Seq: f.Seq, At: f.At, FPS: p.fps.tick(f.At)}
	timeout := cfg.DurSeconds(p.cfg.Timeouts.CapabilitySeconds)

	hands, label, ok := p.hands(ctx, f, timeout)
	if ok {
		st.Hands, st.Gesture = hands, label
		if label != "" {
			p.gesture = label
		}
		st.Display = p.composer.Advance(label, hands, f.At)
	} else {
		st.Display = p.composer.Display()
	}

	ectx, cancel := context.WithTimeout(ctx, timeout)
	res := p.deps.Emotions.Analyze(ectx, f)
	cancel()
	p.affect.observe(res, f.At)
	st.Emotions, st.Confidence = res.Labels, res.Confidence
	return st
}

// hands returns the hand count and, for exactly one hand, its label. ok is
// false when landmark extraction failed and the composer must not advance.
func (p *Pipeline) hands(ctx context.Context, f capture.Frame, timeout time.Duration) (int, string, bool) {
	hctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	lm, err := p.deps.Hands.Landmarks(hctx, f.JPEG)
	if err != nil {
		p.frameError(ctx, "landmarks", err)
		return 0, "", false
	}
	n := len(lm.Hands)
	if n != 1 {
		return n, "", true
	}
	w, h := lm.Width, lm.Height
	if w <= 0 || h <= 0 {
		if f.Image != nil {
			b := f.Image.Bounds()
			w, h = b.Dx(), b.Dy()
		}
	}
	feats, err := landmark.Features(lm.Hands[0], w, h)
	if err != nil {
		p.frameError(ctx, "normalize", err)
		return n, "", true
	}
	label, err := p.deps.Gestures.Classify(hctx, feats)
	if err != nil {
		p.frameError(ctx, "gesture", err)
		return n, "", true
	}
	return n, label, true
}

func (p *Pipeline) frameError(ctx context.Context, stage string, err error) {
	p.deps.Metrics.FrameError(ctx, stage)
	p.log.WithError(err).WithField("stage", stage).Debug("frame stage skipped")
}

func (p *Pipeline) takeFinals() []string {
	out := p.finals
	p.finals = nil
	return out
}

// finalize enqueues the side effects of one finished sentence. The frame
// loop never waits on them.
func (p *Pipeline) finalize(ctx context.Context, fin Finalization, records, speech *sinks.Dispatcher) {
	fin.Emotion, fin.Confidence = p.affect.current(fin.At)
	p.mu.Lock()
	p.sentences = append(p.sentences, fin.Sentence)
	p.mu.Unlock()
	p.deps.Metrics.Finalized(ctx)
	p.log.WithFields(logrus.Fields{"sentence": fin.Sentence, "emotion": fin.Emotion}).Info("sentence finalized")

	if p.deps.Speaker != nil {
		speech.Submit(sinks.Task{Name: "speech", Run: func(ctx context.Context) error {
			return p.deps.Speaker.Speak(ctx, fin.Sentence)
		}})
	}
	records.Submit(sinks.Task{Name: "interaction_log", Run: func(ctx context.Context) error {
		v := p.deps.Analyzer.Check(ctx, fin.Sentence, fin.Emotion)
		return p.deps.Log.Append(ctx, interaction.Record{
			Timestamp:  fin.At.Unix(),
			Gesture:    fin.Gesture,
			Emotion:    fin.Emotion,
			Sentence:   fin.Sentence,
			Confidence: fin.Confidence,
			Feedback:   v.Feedback,
		})
	}})
	room := p.cfg.Pipeline.Room
	records.Submit(sinks.Task{Name: "latest_sentence", Run: func(context.Context) error {
		return sinks.WriteLatest(p.cfg.LatestSentencePath(room), fin.Sentence, fin.Emotion)
	}})
	records.Submit(sinks.Task{Name: "chat_log", Run: func(context.Context) error {
		return sinks.AppendChat(p.cfg.ChatLogPath(room), fin.At, p.cfg.Chat.Sender, fin.Sentence)
	}})
	if p.deps.Notifier != nil {
		records.Submit(sinks.Task{Name: "chat_notify", Run: func(ctx context.Context) error {
			return p.deps.Notifier.Notify(ctx, clients.ChatMessage{
				Sender:   p.cfg.Chat.Sender,
				Receiver: p.cfg.Chat.Receiver,
				Message:  fin.Sentence,
			})
		}})
	}
}

// observeFrame writes the throttled per-frame row and status log line.
func (p *Pipeline) observeFrame(ctx context.Context, st FrameStatus) {
	if p.deps.FrameLog != nil {
		affect := emotion.NoFace
		if len(st.Emotions) > 0 {
			affect = st.Emotions[0]
		}
		rec := interaction.Record{
			Timestamp:  st.At.Unix(),
			Gesture:    gestureOrNone(st.Gesture),
			Emotion:    affect,
			Sentence:   st.Display,
			Confidence: st.Confidence,
		}
		if _, err := p.deps.FrameLog.Observe(ctx, rec); err != nil {
			p.deps.Metrics.SinkFailure(ctx, "frame_log")
			p.log.WithError(err).Warn("frame log write failed")
		}
	}
	if p.frameLog.Allow() {
		p.log.WithFields(logrus.Fields{
			"seq":      st.Seq,
			"fps":      fmt.Sprintf("%.1f", st.FPS),
			"hands":    st.Hands,
			"gesture":  st.Gesture,
			"emotions": strings.Join(st.Emotions, ","),
			"display":  st.Display,
		}).Debug("frame")
	}
}

// Sentences returns every sentence finalized so far.
func (p *Pipeline) Sentences() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.sentences...)
}

// finish generates the report, archives the log and publishes artifacts.
// Every step degrades to a warning.
func (p *Pipeline) finish(ctx context.Context, log logrus.FieldLogger, dir string, b *SessionBundle) {
	gen := report.NewGenerator(p.deps.Log, p.deps.Renderer, dir, p.deps.Logger)
	rep, err := gen.Generate(ctx)
	if err != nil {
		log.WithError(err).Error("report generation failed")
	} else {
		b.ReportPath = rep.PDFPath
		log.WithField("pdf", rep.PDFPath).Info("session report written")
	}

	if err := p.deps.Log.Close(); err != nil {
		log.WithError(err).Warn("interaction log close failed")
	}

	if p.deps.Store == nil {
		return
	}
	publish := func(name string, data []byte) {
		loc, err := p.deps.Store.Put(ctx, b.SessionID+"/"+name, data)
		if err != nil {
			p.deps.Metrics.SinkFailure(ctx, "artifacts")
			log.WithError(err).WithField("artifact", name).Warn("publish failed")
			return
		}
		if b.Published == nil {
			b.Published = map[string]string{}
		}
		b.Published[name] = loc
	}
	if rep != nil {
		for _, path := range []string{rep.PDFPath, rep.ChartPath, rep.SummaryPath} {
			if path == "" {
				continue
			}
			data, err := os.ReadFile(path)
			if err != nil {
				log.WithError(err).Warn("artifact read failed")
				continue
			}
			publish(filepath.Base(path), data)
		}
	}
	if p.cfg.Artifacts.Archive && p.cfg.InteractionLog.Backend == "csv" {
		data, err := archive.Compress(p.cfg.InteractionLog.Path)
		if err != nil {
			log.WithError(err).Warn("log archive failed")
			return
		}
		publish(archive.Name(p.cfg.InteractionLog.Path), data)
	}
}
