package interaction

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

type Dialect int

const (
	SQLite Dialect = iota
	Postgres
)

const selectRecords = `SELECT ts, gesture, emotion, sentence, confidence, feedback FROM interactions ORDER BY id`

// SQLLog stores records in an "interactions" table.
type SQLLog struct {
	db      *sql.DB
	dialect Dialect
	insert  string
}

func NewSQLLog(db *sql.DB, d Dialect) *SQLLog {
	return &SQLLog{
		db:      db,
		dialect: d,
		insert:  rebind(d, `INSERT INTO interactions (ts, gesture, emotion, sentence, confidence, feedback) VALUES (?, ?, ?, ?, ?, ?)`),
	}
}

// OpenSQLite opens (creating if needed) a WAL-mode database file.
func OpenSQLite(ctx context.Context, path string) (*SQLLog, error) {
	if path == "" {
		return nil, errors.New("interaction: sqlite path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("interaction: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("interaction: open sqlite: %w", err)
	}
	for _, pragma := range []string{"PRAGMA journal_mode=WAL", "PRAGMA busy_timeout=5000"} {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("interaction: %s: %w", pragma, err)
		}
	}
	l := NewSQLLog(db, SQLite)
	if err := l.Init(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return l, nil
}

func OpenPostgres(ctx context.Context, dsn string) (*SQLLog, error) {
	if dsn == "" {
		return nil, errors.New("interaction: postgres dsn is empty")
	}
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("interaction: open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("interaction: ping postgres: %w", err)
	}
	l := NewSQLLog(db, Postgres)
	if err := l.Init(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return l, nil
}

// Init creates the table when missing.
func (l *SQLLog) Init(ctx context.Context) error {
	id := "id INTEGER PRIMARY KEY AUTOINCREMENT"
	if l.dialect == Postgres {
		id = "id BIGSERIAL PRIMARY KEY"
	}
	schema := `CREATE TABLE IF NOT EXISTS interactions (
		` + id + `,
		ts BIGINT NOT NULL,
		gesture TEXT NOT NULL,
		emotion TEXT NOT NULL,
		sentence TEXT NOT NULL,
		confidence DOUBLE PRECISION NOT NULL,
		feedback TEXT NOT NULL DEFAULT ''
	)`
	if _, err := l.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("interaction: create table: %w", err)
	}
	return nil
}

func (l *SQLLog) Append(ctx context.Context, r Record) error {
	_, err := l.db.ExecContext(ctx, l.insert, r.Timestamp, r.Gesture, r.Emotion, r.Sentence, r.Confidence, r.Feedback)
	if err != nil {
		return fmt.Errorf("interaction: insert: %w", err)
	}
	return nil
}

func (l *SQLLog) Records(ctx context.Context) ([]Record, error) {
	rows, err := l.db.QueryContext(ctx, selectRecords)
	if err != nil {
		return nil, fmt.Errorf("interaction: query: %w", err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var r Record
		if err := rows.Scan(&r.Timestamp, &r.Gesture, &r.Emotion, &r.Sentence, &r.Confidence, &r.Feedback); err != nil {
			return nil, fmt.Errorf("interaction: scan: %w", err)
		}
		if !finite(r.Confidence) {
			continue
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (l *SQLLog) Close() error { return l.db.Close() }

// rebind rewrites ? placeholders to $n for postgres.
func rebind(d Dialect, q string) string {
	if d != Postgres {
		return q
	}
	var b strings.Builder
	n := 0
	for _, c := range q {
		if c == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(c)
	}
	return b.String()
}
