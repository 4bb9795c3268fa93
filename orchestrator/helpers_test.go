package orchestrator

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maastricht-university/signbridge/emotion"
)

func TestFPSMeter(t *testing.T) {
	m := newFPSMeter(4)
	assert.Zero(t, m.tick(t0))
	var fps float64
	for i := 1; i <= 10; i++ {
		fps = m.tick(t0.Add(time.Duration(i) * 50 * time.Millisecond))
	}
	assert.InDelta(t, 20, fps, 0.001)

	// the window forgets older intervals
	for i := 1; i <= 4; i++ {
		fps = m.tick(t0.Add(500*time.Millisecond + time.Duration(i)*100*time.Millisecond))
	}
	assert.InDelta(t, 10, fps, 0.001)
}

func TestAffectMemory(t *testing.T) {
	a := affectMemory{maxAge: 4 * time.Second}
	label, conf := a.current(t0)
	assert.Equal(t, emotion.NoFace, label)
	assert.Zero(t, conf)

	a.observe(emotion.Result{Labels: []string{emotion.Sad}, Confidence: 0.7}, t0)
	a.observe(emotion.Result{}, t0.Add(time.Second))
	label, conf = a.current(t0.Add(2 * time.Second))
	assert.Equal(t, emotion.Sad, label)
	assert.Equal(t, 0.7, conf)
}

func TestAffectMemory_Expires(t *testing.T) {
	a := affectMemory{maxAge: 4 * time.Second}
	a.observe(emotion.Result{Labels: []string{emotion.Happy}, Confidence: 0.9}, t0)

	label, conf := a.current(t0.Add(10 * time.Minute))
	assert.Equal(t, emotion.NoFace, label)
	assert.Zero(t, conf)

	a.observe(emotion.Result{Labels: []string{emotion.Angry}, Confidence: 0.6}, t0.Add(10*time.Minute))
	label, _ = a.current(t0.Add(10*time.Minute + time.Second))
	assert.Equal(t, emotion.Angry, label)
}

func TestGestureOrNone(t *testing.T) {
	assert.Equal(t, "None", gestureOrNone(""))
	assert.Equal(t, "Q", gestureOrNone("Q"))
}

func TestMkSessionDir(t *testing.T) {
	root := t.TempDir()
	sid, dir, err := mkSessionDir(root, t0)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(sid, "session_20260301-100000_"))
	assert.Len(t, sid, len("session_20260301-100000_")+8)
	assert.DirExists(t, dir)

	sid2, _, err := mkSessionDir(root, t0)
	require.NoError(t, err)
	assert.NotEqual(t, sid, sid2)
}
