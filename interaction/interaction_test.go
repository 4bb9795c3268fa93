package interaction

import (
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCSVLog_AppendAndRead(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "logs", "interaction_log.csv")
	l, err := OpenCSV(path)
	require.NoError(t, err)
	defer l.Close()

	recs := []Record{
		{Timestamp: 1700000000, Gesture: "A", Emotion: "happy", Sentence: "HI, THERE.", Confidence: 0.91, Feedback: "Sentiment and emotion align."},
		{Timestamp: 1700000005, Gesture: NoGesture, Emotion: "No face", Sentence: "", Confidence: 0},
	}
	for _, r := range recs {
		require.NoError(t, l.Append(ctx, r))
	}

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "1700000000,A,happy,\"HI, THERE.\",0.91,Sentiment and emotion align.\n1700000005,None,No face,,0,\n", string(b))

	got, err := l.Records(ctx)
	require.NoError(t, err)
	assert.Equal(t, recs, got)
}

func TestReadCSV_SkipsMalformedRows(t *testing.T) {
	path := filepath.Join(t.TempDir(), "log.csv")
	content := "timestamp,gesture,emotion,sentence,confidence,feedback\n" +
		"1,A,happy,A.,0.5\n" +
		"garbage\n" +
		"2,B,sad,B.,notanumber,\n" +
		"3,C,sad,C.,0.25,Mismatch: Sentiment (POSITIVE) vs Emotion (sad)\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	got, err := ReadCSV(context.Background(), path)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, int64(1), got[0].Timestamp)
	assert.Equal(t, "", got[0].Feedback)
	assert.Equal(t, "C.", got[1].Sentence)
}

func TestReadCSV_SkipsNonFiniteConfidence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "log.csv")
	content := "1700000000,A,happy,HI.,NaN,\n" +
		"1700000001,B,sad,B.,+Inf,\n" +
		"1700000002,C,sad,C.,-Inf,\n" +
		"1700000003,D,happy,D.,0.75,\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	got, err := ReadCSV(context.Background(), path)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "D.", got[0].Sentence)
}

func TestReadCSV_Missing(t *testing.T) {
	_, err := ReadCSV(context.Background(), filepath.Join(t.TempDir(), "nope.csv"))
	assert.Error(t, err)
}

func TestCSVLog_ConcurrentReaderDuringWrites(t *testing.T) {
	ctx := context.Background()
	l, err := OpenCSV(filepath.Join(t.TempDir(), "log.csv"))
	require.NoError(t, err)
	defer l.Close()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 50; i++ {
			_, _ = l.Records(ctx)
		}
	}()
	for i := 0; i < 50; i++ {
		require.NoError(t, l.Append(ctx, Record{Timestamp: int64(i), Gesture: "A", Emotion: "sad", Sentence: "A.", Confidence: 0.5}))
	}
	wg.Wait()

	got, err := l.Records(ctx)
	require.NoError(t, err)
	assert.Len(t, got, 50)
}

func TestCSVLog_AppendAfterClose(t *testing.T) {
	l, err := OpenCSV(filepath.Join(t.TempDir(), "log.csv"))
	require.NoError(t, err)
	require.NoError(t, l.Close())
	assert.Error(t, l.Append(context.Background(), Record{}))
	assert.NoError(t, l.Close())
}

func TestOpen_Backends(t *testing.T) {
	ctx := context.Background()
	l, err := Open(ctx, "csv", filepath.Join(t.TempDir(), "a.csv"))
	require.NoError(t, err)
	_ = l.Close()

	_, err = Open(ctx, "mongo", "x")
	assert.Error(t, err)
	_, err = Open(ctx, "postgres", "")
	assert.Error(t, err)
}

func TestSQLite_RoundTrip(t *testing.T) {
	ctx := context.Background()
	l, err := OpenSQLite(ctx, filepath.Join(t.TempDir(), "interactions.db"))
	require.NoError(t, err)
	defer l.Close()

	r := Record{Timestamp: 42, Gesture: "B", Emotion: "angry", Sentence: "B.", Confidence: 0.7, Feedback: "Neutral detected."}
	require.NoError(t, l.Append(ctx, r))
	got, err := l.Records(ctx)
	require.NoError(t, err)
	assert.Equal(t, []Record{r}, got)
}

func TestSQLLog_PostgresInsert(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	l := NewSQLLog(db, Postgres)
	mock.ExpectExec(`INSERT INTO interactions \(ts, gesture, emotion, sentence, confidence, feedback\) VALUES \(\$1, \$2, \$3, \$4, \$5, \$6\)`).
		WithArgs(int64(10), "A", "happy", "A.", 0.9, "").
		WillReturnResult(sqlmock.NewResult(1, 1))

	require.NoError(t, l.Append(context.Background(), Record{Timestamp: 10, Gesture: "A", Emotion: "happy", Sentence: "A.", Confidence: 0.9}))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLLog_Records(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	rows := sqlmock.NewRows([]string{"ts", "gesture", "emotion", "sentence", "confidence", "feedback"}).
		AddRow(int64(1), "A", "happy", "A.", 0.5, "").
		AddRow(int64(2), "None", "No face", "", 0.0, "")
	mock.ExpectQuery("SELECT ts, gesture, emotion, sentence, confidence, feedback FROM interactions").WillReturnRows(rows)

	got, err := NewSQLLog(db, SQLite).Records(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "No face", got[1].Emotion)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLLog_InsertError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	mock.ExpectExec("INSERT INTO interactions").WillReturnError(errors.New("disk full"))
	err = NewSQLLog(db, SQLite).Append(context.Background(), Record{})
	assert.ErrorContains(t, err, "disk full")
}

func TestSQLLog_RecordsSkipsNonFinite(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	rows := sqlmock.NewRows([]string{"ts", "gesture", "emotion", "sentence", "confidence", "feedback"}).
		AddRow(int64(1), "A", "happy", "A.", math.NaN(), "").
		AddRow(int64(2), "B", "sad", "B.", 0.4, "")
	mock.ExpectQuery("SELECT ts, gesture, emotion, sentence, confidence, feedback FROM interactions").WillReturnRows(rows)

	got, err := NewSQLLog(db, Postgres).Records(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "B.", got[0].Sentence)
}

func TestRebind(t *testing.T) {
	assert.Equal(t, "a = ? AND b = ?", rebind(SQLite, "a = ? AND b = ?"))
	assert.Equal(t, "a = $1 AND b = $2", rebind(Postgres, "a = ? AND b = ?"))
}

type memLog struct{ recs []Record }

func (m *memLog) Append(_ context.Context, r Record) error { m.recs = append(m.recs, r); return nil }
func (m *memLog) Close() error                             { return nil }

func TestFrameLog_Throttles(t *testing.T) {
	m := &memLog{}
	f := NewFrameLog(m, 2)
	now := time.Unix(1700000000, 0)
	f.now = func() time.Time { return now }

	ctx := context.Background()
	written := 0
	for i := 0; i < 30; i++ {
		ok, err := f.Observe(ctx, Record{Timestamp: now.Unix()})
		require.NoError(t, err)
		if ok {
			written++
		}
		now = now.Add(100 * time.Millisecond)
	}
	// one token every 500ms over 2.9s
	assert.InDelta(t, 6, written, 1)
	assert.Len(t, m.recs, written)
}
