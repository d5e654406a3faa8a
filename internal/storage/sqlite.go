package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

const (
	busyRetryAttempts       = 5
	busyRetryInitialBackoff = 10 * time.Millisecond
	busyRetryMaxBackoff     = 200 * time.Millisecond
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS sessions (
	session_id TEXT PRIMARY KEY,
	name TEXT NOT NULL DEFAULT '',
	presenter TEXT NOT NULL DEFAULT '',
	dedup_strategy TEXT NOT NULL DEFAULT '',
	status TEXT NOT NULL DEFAULT 'created',
	started_at TEXT NOT NULL,
	ended_at TEXT,
	total_slides INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS slides (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	session_id TEXT NOT NULL,
	seq INTEGER NOT NULL,
	frame_id TEXT NOT NULL,
	path TEXT NOT NULL,
	width INTEGER NOT NULL,
	height INTEGER NOT NULL,
	similarity_score REAL NOT NULL DEFAULT 0,
	captured_at TEXT NOT NULL,
	stored_at TEXT NOT NULL,
	UNIQUE(session_id, seq)
);

CREATE INDEX IF NOT EXISTS idx_slides_session ON slides(session_id);
`

// Slide is one persisted unique frame's metadata row.
type Slide struct {
	SessionID  uuid.UUID
	Seq        int64
	FrameID    uuid.UUID
	Path       string
	Width      int
	Height     int
	Score      float64
	CapturedAt time.Time
	StoredAt   time.Time
}

// SessionRecord mirrors a session row.
type SessionRecord struct {
	SessionID     uuid.UUID
	Name          string
	Presenter     string
	DedupStrategy string
	Status        string
	StartedAt     time.Time
	EndedAt       time.Time
	TotalSlides   int64
}

// SQLiteStore keeps slide and session metadata in a SQLite database. The
// UNIQUE(session_id, seq) index makes gap-free, duplicate-free sequence
// persistence a write-time guarantee.
type SQLiteStore struct {
	db   *sql.DB
	path string
}

// OpenSQLite opens (and if needed creates) the metadata database.
func OpenSQLite(ctx context.Context, path string) (*SQLiteStore, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create database dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// SQLite allows one writer; serialize access through a single conn.
	db.SetMaxOpenConns(1)

	s := &SQLiteStore{db: db, path: path}
	if _, err := s.db.ExecContext(ctx, schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return s, nil
}

// Close releases the database handle.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *SQLiteStore) Path() string { return s.path }

// UpsertSession writes or refreshes a session row.
func (s *SQLiteStore) UpsertSession(ctx context.Context, rec SessionRecord) error {
	var endedAt any
	if !rec.EndedAt.IsZero() {
		endedAt = rec.EndedAt.UTC().Format(time.RFC3339Nano)
	}
	_, err := s.execWithRetry(ctx, `
		INSERT INTO sessions (session_id, name, presenter, dedup_strategy, status, started_at, ended_at, total_slides)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(session_id) DO UPDATE SET
			status = excluded.status,
			ended_at = excluded.ended_at,
			total_slides = excluded.total_slides`,
		rec.SessionID.String(), rec.Name, rec.Presenter, rec.DedupStrategy, rec.Status,
		rec.StartedAt.UTC().Format(time.RFC3339Nano), endedAt, rec.TotalSlides,
	)
	if err != nil {
		return fmt.Errorf("upsert session: %w", err)
	}
	return nil
}

// InsertSlide persists one slide row. A repeated (session, seq) pair is
// reported as ErrDuplicateSeq.
func (s *SQLiteStore) InsertSlide(ctx context.Context, slide Slide) error {
	_, err := s.execWithRetry(ctx, `
		INSERT INTO slides (session_id, seq, frame_id, path, width, height, similarity_score, captured_at, stored_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		slide.SessionID.String(), slide.Seq, slide.FrameID.String(), slide.Path,
		slide.Width, slide.Height, slide.Score,
		slide.CapturedAt.UTC().Format(time.RFC3339Nano),
		slide.StoredAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return fmt.Errorf("%w: session %s seq %d", ErrDuplicateSeq, slide.SessionID, slide.Seq)
		}
		return fmt.Errorf("insert slide: %w", err)
	}
	return nil
}

// SlideCount returns the number of slides persisted for a session.
func (s *SQLiteStore) SlideCount(ctx context.Context, sessionID uuid.UUID) (int64, error) {
	var n int64
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM slides WHERE session_id = ?`, sessionID.String(),
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count slides: %w", err)
	}
	return n, nil
}

// Slides returns the persisted slides of a session in sequence order.
func (s *SQLiteStore) Slides(ctx context.Context, sessionID uuid.UUID) ([]Slide, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT session_id, seq, frame_id, path, width, height, similarity_score, captured_at, stored_at
		FROM slides WHERE session_id = ? ORDER BY seq`, sessionID.String())
	if err != nil {
		return nil, fmt.Errorf("query slides: %w", err)
	}
	defer rows.Close()

	var out []Slide
	for rows.Next() {
		var (
			slide                        Slide
			sid, fid, capturedAt, stored string
		)
		if err := rows.Scan(&sid, &slide.Seq, &fid, &slide.Path, &slide.Width, &slide.Height, &slide.Score, &capturedAt, &stored); err != nil {
			return nil, fmt.Errorf("scan slide: %w", err)
		}
		slide.SessionID, _ = uuid.Parse(sid)
		slide.FrameID, _ = uuid.Parse(fid)
		slide.CapturedAt, _ = time.Parse(time.RFC3339Nano, capturedAt)
		slide.StoredAt, _ = time.Parse(time.RFC3339Nano, stored)
		out = append(out, slide)
	}
	return out, rows.Err()
}

func isBusy(err error) bool {
	if err == nil {
		return false
	}
	var coder interface{ Code() int }
	if errors.As(err, &coder) && coder.Code() == 5 {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}

func (s *SQLiteStore) execWithRetry(ctx context.Context, query string, args ...any) (sql.Result, error) {
	delay := busyRetryInitialBackoff
	var (
		res     sql.Result
		execErr error
	)
	for attempt := 0; attempt < busyRetryAttempts; attempt++ {
		res, execErr = s.db.ExecContext(ctx, query, args...)
		if execErr == nil || !isBusy(execErr) {
			return res, execErr
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
		if next := delay * 2; next <= busyRetryMaxBackoff {
			delay = next
		}
	}
	return res, execErr
}
