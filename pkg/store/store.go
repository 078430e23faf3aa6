// Package store indexes played runs in SQLite.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// ErrNotFound is returned by Get for an unknown run id.
var ErrNotFound = errors.New("run not found")

// Run is one indexed job.
type Run struct {
	ID         string
	Level      string
	Code       string
	Result     int // 1 win, 0 lose; meaningless when Error is set
	NSteps     int
	Error      string
	ReplayPath string
	CreatedAt  time.Time
}

// timeLayout is fixed width so created_at sorts as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// NewID returns a fresh run id.
func NewID() string {
	return uuid.NewString()
}

// Store is the run index. Writes go through a single connection.
type Store struct {
	db *sql.DB
}

// Open opens or creates the database at path.
func Open(path string) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("empty db path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := initPragmas(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

func initPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return err
		}
	}
	return nil
}

func initSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			level TEXT NOT NULL,
			code TEXT NOT NULL,
			result INTEGER NOT NULL,
			n_steps INTEGER NOT NULL,
			error TEXT NOT NULL DEFAULT '',
			replay_path TEXT NOT NULL DEFAULT '',
			created_at TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_runs_level_created ON runs(level, created_at);`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Record inserts r, assigning an id and timestamp when missing.
func (s *Store) Record(ctx context.Context, r *Run) error {
	if r.ID == "" {
		r.ID = NewID()
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (id, level, code, result, n_steps, error, replay_path, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.Level, r.Code, r.Result, r.NSteps, r.Error, r.ReplayPath,
		r.CreatedAt.UTC().Format(timeLayout))
	if err != nil {
		return fmt.Errorf("record run %s: %w", r.ID, err)
	}
	return nil
}

const runColumns = `id, level, code, result, n_steps, error, replay_path, created_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(sc scanner) (Run, error) {
	var r Run
	var created string
	if err := sc.Scan(&r.ID, &r.Level, &r.Code, &r.Result, &r.NSteps, &r.Error, &r.ReplayPath, &created); err != nil {
		return r, err
	}
	t, err := time.Parse(timeLayout, created)
	if err != nil {
		return r, fmt.Errorf("run %s: created_at: %w", r.ID, err)
	}
	r.CreatedAt = t
	return r, nil
}

// Get returns the run with id.
func (s *Store) Get(ctx context.Context, id string) (Run, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE id = ?`, id)
	r, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return r, ErrNotFound
	}
	return r, err
}

// Recent returns up to limit runs of level, newest first. An empty level
// matches every level.
func (s *Store) Recent(ctx context.Context, level string, limit int) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+runColumns+` FROM runs WHERE (? = '' OR level = ?) ORDER BY created_at DESC, id LIMIT ?`,
		level, level, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// Stats counts runs, wins and failed submissions of level.
type Stats struct {
	Runs   int
	Wins   int
	Errors int
}

func (s *Store) Stats(ctx context.Context, level string) (Stats, error) {
	var st Stats
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*),
		        COALESCE(SUM(CASE WHEN error = '' AND result = 1 THEN 1 ELSE 0 END), 0),
		        COALESCE(SUM(CASE WHEN error <> '' THEN 1 ELSE 0 END), 0)
		 FROM runs WHERE level = ?`, level).Scan(&st.Runs, &st.Wins, &st.Errors)
	return st, err
}
