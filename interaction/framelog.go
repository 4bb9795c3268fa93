package interaction

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// FrameLog writes per-frame engagement records at a bounded rate. Frames
// beyond the budget are dropped, not queued.
type FrameLog struct {
	next    Logger
	limiter *rate.Limiter
	now     func() time.Time
}

// NewFrameLog allows perSecond records per second with a burst of one.
func NewFrameLog(next Logger, perSecond float64) *FrameLog {
	return &FrameLog{next: next, limiter: rate.NewLimiter(rate.Limit(perSecond), 1), now: time.Now}
}

// Observe reports whether r was written.
func (f *FrameLog) Observe(ctx context.Context, r Record) (bool, error) {
	if !f.limiter.AllowN(f.now(), 1) {
		return false, nil
	}
	return true, f.next.Append(ctx, r)
}
