package cmd

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maastricht-university/signbridge/interaction"
	"github.com/maastricht-university/signbridge/sinks"
)

// writeConfig points every path of a fresh config at dir.
func writeConfig(t *testing.T, dir string) string {
	t.Helper()
	p := filepath.Join(dir, "config.yaml")
	body := fmt.Sprintf(`
pipeline:
  room: algebra
  log_level: error
interaction_log:
  backend: csv
  path: %[1]s/interaction_log.csv
paths:
  data: %[1]s/data
  outputs: %[1]s/result
  reports: %[1]s/reports
  chatlogs: %[1]s/chatlogs
`, dir)
	require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
	return p
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestEmotions_NoFile(t *testing.T) {
	dir := t.TempDir()
	out, err := execute(t, "--config", writeConfig(t, dir), "emotions")
	require.NoError(t, err)
	assert.Equal(t, "CSV file not found.\n", out)
}

func TestEmotions_Counts(t *testing.T) {
	dir := t.TempDir()
	cfgPath := writeConfig(t, dir)
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "data"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "data", "algebra.csv"),
		[]byte("prediction,time\nhappy,1\nsad,2\nhappy,3\n"), 0o644))

	out, err := execute(t, "--config", cfgPath, "emotions")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], "happy"))
	assert.True(t, strings.HasSuffix(lines[0], " 2"))
	assert.True(t, strings.HasPrefix(lines[1], "sad"))
}

func TestChat_SendThenHistory(t *testing.T) {
	dir := t.TempDir()
	cfgPath := writeConfig(t, dir)

	_, err := execute(t, "--config", cfgPath, "chat", "send", "please", "slow", "down")
	require.NoError(t, err)
	out, err := execute(t, "--config", cfgPath, "chat", "history")
	require.NoError(t, err)
	assert.Contains(t, out, "Teacher: please slow down")
}

func TestChat_RoomFlagOverridesConfig(t *testing.T) {
	dir := t.TempDir()
	cfgPath := writeConfig(t, dir)

	_, err := execute(t, "--config", cfgPath, "--room", "physics", "chat", "send", "--sender", "Ana", "hi")
	require.NoError(t, err)
	lines, err := sinks.ReadChat(filepath.Join(dir, "chatlogs", "physics.txt"))
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.Contains(t, lines[0], "Ana: hi")
}

func TestStatus_Waiting(t *testing.T) {
	dir := t.TempDir()
	out, err := execute(t, "--config", writeConfig(t, dir), "status")
	require.NoError(t, err)
	assert.Contains(t, out, "sentence: Waiting for input...")
	assert.Contains(t, out, "feedback: No feedback yet.")
}

func TestReport_FromCSV(t *testing.T) {
	dir := t.TempDir()
	cfgPath := writeConfig(t, dir)
	log, err := interaction.OpenCSV(filepath.Join(dir, "interaction_log.csv"))
	require.NoError(t, err)
	require.NoError(t, log.Append(t.Context(), interaction.Record{Timestamp: 1, Gesture: "A", Emotion: "happy", Sentence: "A.", Confidence: 0.9}))
	require.NoError(t, log.Append(t.Context(), interaction.Record{Timestamp: 2, Gesture: "B", Emotion: "sad", Sentence: "B.", Confidence: 0.7}))
	require.NoError(t, log.Close())

	out, err := execute(t, "--config", cfgPath, "report", "--out", filepath.Join(dir, "out"))
	require.NoError(t, err)
	assert.Contains(t, out, "Total Sentences: 2")
	assert.Contains(t, out, "pdf: ")
	matches, err := filepath.Glob(filepath.Join(dir, "out", "SessionReport_*.pdf"))
	require.NoError(t, err)
	assert.Len(t, matches, 1)
}
