package orchestrator

import (
	"time"

	"github.com/maastricht-university/signbridge/emotion"
	"github.com/maastricht-university/signbridge/interaction"
)

// fpsMeter averages the last n frame intervals.
type fpsMeter struct {
	last  time.Time
	ring  []time.Duration
	next  int
	count int
	sum   time.Duration
}

func newFPSMeter(n int) *fpsMeter {
	if n <= 0 {
		n = 10
	}
	return &fpsMeter{ring: make([]time.Duration, n)}
}

// tick records a frame at t and returns the current estimate.
func (m *fpsMeter) tick(t time.Time) float64 {
	if !m.last.IsZero() {
		d := t.Sub(m.last)
		if m.count == len(m.ring) {
			m.sum -= m.ring[m.next]
		} else {
			m.count++
		}
		m.ring[m.next] = d
		m.sum += d
		m.next = (m.next + 1) % len(m.ring)
	}
	m.last = t
	if m.count == 0 || m.sum <= 0 {
		return 0
	}
	return float64(m.count) / m.sum.Seconds()
}

// affectMemory keeps the last face classification so a finalization that
// happens while the face is briefly lost still carries an affect. An
// observation older than maxAge no longer counts.
type affectMemory struct {
	label      string
	confidence float64
	at         time.Time
	maxAge     time.Duration
}

func (a *affectMemory) observe(r emotion.Result, at time.Time) {
	if len(r.Labels) == 0 {
		return
	}
	a.label = r.Dominant()
	a.confidence = r.Confidence
	a.at = at
}

func (a *affectMemory) current(now time.Time) (string, float64) {
	if a.label == "" || now.Sub(a.at) > a.maxAge {
		return emotion.NoFace, 0
	}
	return a.label, a.confidence
}

func gestureOrNone(label string) string {
	if label == "" {
		return interaction.NoGesture
	}
	return label
}
