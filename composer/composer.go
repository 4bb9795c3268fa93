// Package composer builds sentences out of a per-frame stream of gesture
// observations.
//
// A Composer is a timing-driven state machine: single-hand letters must be held
// for HoldThreshold before they are committed, letters in the instant set are
// committed once per continuous detection, holding two hands for
// SpaceHoldThreshold queues a space, and SilenceThreshold without any hand
// finalizes the sentence with a period.
//
// A Composer is owned by a single goroutine and is not safe for concurrent use.
package composer

import (
	"strings"
	"time"
)

const (
	HoldThreshold      = 1500 * time.Millisecond
	SpaceHoldThreshold = 1400 * time.Millisecond
	SilenceThreshold   = 4 * time.Second

	// SpaceMarker is appended to the display while a space is pending.
	SpaceMarker = "_"
)

// DefaultInstantLabels are letters whose signs involve motion.
var DefaultInstantLabels = []string{"J", "Z"}

// Thresholds tunes the timing of the state machine.
type Thresholds struct {
	Hold      time.Duration
	SpaceHold time.Duration
	Silence   time.Duration
}

// DefaultThresholds returns the standard timings.
func DefaultThresholds() Thresholds {
	return Thresholds{Hold: HoldThreshold, SpaceHold: SpaceHoldThreshold, Silence: SilenceThreshold}
}

// State is a snapshot of the composer's internal state.
type State struct {
	CurrentSentence       string
	LastFinishedSentence  string
	PendingSpace          bool
	SentenceJustFinalized bool
	TrackedGesture        string
	TrackedGestureStart   time.Time
	GestureApplied        bool
	LastSeenHandsAt       time.Time
	TwoHandHoldStart      time.Time
}

// Composer turns gesture observations into sentences.
type Composer struct {
	th      Thresholds
	instant map[string]struct{}
	onFinal func(sentence string)
	started bool
	st      State
}

type Option func(*Composer)

// WithThresholds overrides the default timings. Non-positive fields keep their default.
func WithThresholds(th Thresholds) Option {
	return func(c *Composer) {
		if th.Hold > 0 {
			c.th.Hold = th.Hold
		}
		if th.SpaceHold > 0 {
			c.th.SpaceHold = th.SpaceHold
		}
		if th.Silence > 0 {
			c.th.Silence = th.Silence
		}
	}
}

// WithInstantLabels replaces the set of labels committed without a hold.
func WithInstantLabels(labels ...string) Option {
	return func(c *Composer) {
		c.instant = make(map[string]struct{}, len(labels))
		for _, l := range labels {
			c.instant[l] = struct{}{}
		}
	}
}

// WithFinalizeHook registers fn to receive every finalized sentence. fn runs
// synchronously inside Advance and must not block.
func WithFinalizeHook(fn func(sentence string)) Option {
	return func(c *Composer) { c.onFinal = fn }
}

func New(opts ...Option) *Composer {
	c := &Composer{th: DefaultThresholds()}
	WithInstantLabels(DefaultInstantLabels...)(c)
	for _, o := range opts {
		o(c)
	}
	return c
}

// State returns a copy of the current state.
func (c *Composer) State() State { return c.st }

// Advance feeds one frame's observation and returns the text to display.
// label is empty when no gesture was confidently classified. hands is the
// number of detected hands; values above two are treated as two.
func (c *Composer) Advance(label string, hands int, now time.Time) string {
	if !c.started {
		c.st.LastSeenHandsAt = now
		c.started = true
	}

	if hands <= 0 {
		c.noHands(now)
		return c.Display()
	}
	c.st.LastSeenHandsAt = now

	if hands >= 2 {
		c.twoHands(now)
		return c.Display()
	}
	c.st.TwoHandHoldStart = time.Time{}

	c.oneHand(label, now)
	return c.Display()
}

func (c *Composer) noHands(now time.Time) {
	c.st.GestureApplied = false
	c.st.TwoHandHoldStart = time.Time{}
	if now.Sub(c.st.LastSeenHandsAt) < c.th.Silence || c.st.CurrentSentence == "" {
		return
	}

	final := strings.Trim(c.st.CurrentSentence, SpaceMarker+" ") + "."
	c.st.LastFinishedSentence = final
	c.st.CurrentSentence = ""
	c.st.PendingSpace = false
	c.st.SentenceJustFinalized = true
	if c.onFinal != nil {
		c.onFinal(final)
	}
}

func (c *Composer) twoHands(now time.Time) {
	c.st.GestureApplied = false
	if c.st.TwoHandHoldStart.IsZero() {
		c.st.TwoHandHoldStart = now
		return
	}
	if now.Sub(c.st.TwoHandHoldStart) >= c.th.SpaceHold && !c.st.PendingSpace {
		c.st.PendingSpace = true
	}
}

func (c *Composer) oneHand(label string, now time.Time) {
	if label == "" {
		c.st.GestureApplied = false
		return
	}

	if label != c.st.TrackedGesture {
		c.st.TrackedGesture = label
		c.st.TrackedGestureStart = now
		c.st.GestureApplied = false
		return
	}

	if _, ok := c.instant[label]; ok {
		if !c.st.GestureApplied {
			c.apply(label)
			c.st.GestureApplied = true
		}
		return
	}

	// The timer restarts on every commit, so a prolonged hold repeats the
	// letter once per full interval.
	if now.Sub(c.st.TrackedGestureStart) >= c.th.Hold {
		c.apply(label)
		c.st.GestureApplied = true
		c.st.TrackedGestureStart = now
	}
}

func (c *Composer) apply(letter string) {
	if c.st.SentenceJustFinalized {
		c.st.LastFinishedSentence = ""
		c.st.SentenceJustFinalized = false
	}
	if c.st.PendingSpace {
		c.st.CurrentSentence += " "
		c.st.PendingSpace = false
	}
	c.st.CurrentSentence += letter
}

// Display returns the in-progress sentence (with a marker while a space is
// pending), or the last finished sentence when nothing is in progress.
func (c *Composer) Display() string {
	if c.st.CurrentSentence != "" {
		if c.st.PendingSpace {
			return c.st.CurrentSentence + SpaceMarker
		}
		return c.st.CurrentSentence
	}
	return c.st.LastFinishedSentence
}
