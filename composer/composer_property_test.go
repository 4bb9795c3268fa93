//go:build property

package composer

import (
	"strings"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

type frame struct {
	Label string
	Hands int
	GapMs int
}

func genFrame() gopter.Gen {
	return gopter.CombineGens(
		gen.OneConstOf("", "A", "B", "C", "J", "Z"),
		gen.IntRange(0, 2),
		gen.IntRange(10, 300),
	).Map(func(v []interface{}) frame {
		return frame{Label: v[0].(string), Hands: v[1].(int), GapMs: v[2].(int)}
	})
}

func replay(c *Composer, frames []frame) time.Time {
	now := t0
	for _, f := range frames {
		c.Advance(f.Label, f.Hands, now)
		now = now.Add(time.Duration(f.GapMs) * time.Millisecond)
	}
	return now
}

// Any frame sequence followed by SilenceThreshold of empty frames leaves the
// composer with no sentence in progress and at most one new finalization.
func TestProperty_SilenceFinalizesOnce(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("silence finalizes exactly once", prop.ForAll(
		func(frames []frame) bool {
			c := New()
			now := replay(c, frames)
			inProgress := c.State().CurrentSentence != ""

			count := 0
			c.onFinal = func(s string) {
				count++
			}
			for end := now.Add(SilenceThreshold + time.Second); !now.After(end); now = now.Add(50 * time.Millisecond) {
				c.Advance("", 0, now)
			}
			st := c.State()
			if st.CurrentSentence != "" {
				return false
			}
			if inProgress {
				return count == 1 && !st.PendingSpace && strings.HasSuffix(st.LastFinishedSentence, ".") &&
					!strings.HasSuffix(strings.TrimSuffix(st.LastFinishedSentence, "."), " ")
			}
			return count == 0
		},
		gen.SliceOf(genFrame()),
	))

	properties.TestingRun(t)
}

// The display never shows a committed sentence ending in a separator.
func TestProperty_DisplayShape(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("finished sentences are trimmed and terminated", prop.ForAll(
		func(frames []frame) bool {
			ok := true
			c := New(WithFinalizeHook(func(s string) {
				if !strings.HasSuffix(s, ".") || strings.HasPrefix(s, " ") || strings.Contains(s, SpaceMarker) {
					ok = false
				}
			}))
			replay(c, frames)
			st := c.State()
			if st.PendingSpace && st.SentenceJustFinalized && st.CurrentSentence == "" && st.LastFinishedSentence == "" {
				return false
			}
			return ok
		},
		gen.SliceOf(genFrame()),
	))

	properties.TestingRun(t)
}
