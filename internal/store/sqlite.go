package store

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/gwlsn/cutscan/internal/cutlist"
)

const schemaVersion = 1

// timeLayout has a fixed width so created_at sorts as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id TEXT PRIMARY KEY,
	movie TEXT NOT NULL,
	silence_path TEXT NOT NULL,
	output_path TEXT,
	filter_spec TEXT,
	delay REAL NOT NULL DEFAULT 0,
	candidates INTEGER NOT NULL DEFAULT 0,
	exact INTEGER NOT NULL DEFAULT 0,
	elapsed_ms INTEGER NOT NULL DEFAULT 0,
	created_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS records (
	run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
	idx INTEGER NOT NULL,
	mode TEXT NOT NULL,
	start_frame INTEGER NOT NULL,
	end_frame INTEGER NOT NULL,
	target_frame INTEGER NOT NULL,
	target_half INTEGER NOT NULL DEFAULT 0,
	kind TEXT NOT NULL,
	signed_offset INTEGER NOT NULL DEFAULT 0,
	strategy TEXT,
	PRIMARY KEY (run_id, idx)
);

CREATE TABLE IF NOT EXISTS schema_version (
	version INTEGER NOT NULL,
	applied_at TEXT DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_runs_created_at ON runs(created_at);
CREATE INDEX IF NOT EXISTS idx_runs_movie ON runs(movie);
`

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db   *sql.DB
	mu   sync.RWMutex
	path string
}

// NewSQLiteStore opens the run history at dbPath, creating the file and
// its directory if needed.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	var version int
	err = db.QueryRow("SELECT version FROM schema_version ORDER BY version DESC LIMIT 1").Scan(&version)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		if _, err := db.Exec("INSERT INTO schema_version (version) VALUES (?)", schemaVersion); err != nil {
			db.Close()
			return nil, fmt.Errorf("insert schema version: %w", err)
		}
	case err != nil:
		db.Close()
		return nil, fmt.Errorf("check schema version: %w", err)
	case version > schemaVersion:
		db.Close()
		return nil, fmt.Errorf("database schema version %d is newer than supported version %d", version, schemaVersion)
	}

	return &SQLiteStore{db: db, path: dbPath}, nil
}

// SaveRun persists a run and replaces any records stored under its ID.
func (s *SQLiteStore) SaveRun(run *Run, records []Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.Exec(`
		INSERT OR REPLACE INTO runs (
			id, movie, silence_path, output_path, filter_spec, delay,
			candidates, exact, elapsed_ms, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		run.ID, run.Movie, run.SilencePath, nullString(run.OutputPath), nullString(run.Filter), run.Delay,
		run.Candidates, run.Exact, run.Elapsed.Milliseconds(), formatTime(run.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("save run: %w", err)
	}

	if _, err := tx.Exec("DELETE FROM records WHERE run_id = ?", run.ID); err != nil {
		return fmt.Errorf("clear records: %w", err)
	}

	stmt, err := tx.Prepare(`
		INSERT INTO records (
			run_id, idx, mode, start_frame, end_frame, target_frame, target_half,
			kind, signed_offset, strategy
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, r := range records {
		_, err := stmt.Exec(
			run.ID, r.Index, r.Mode, r.StartFrame, r.EndFrame, r.Target.Frame, boolToInt(r.Target.Half),
			r.Kind, r.Offset, nullString(r.Strategy),
		)
		if err != nil {
			return fmt.Errorf("save record %d: %w", r.Index, err)
		}
	}

	return tx.Commit()
}

// GetRun retrieves a run by ID.
func (s *SQLiteStore) GetRun(id string) (*Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRow(`
		SELECT id, movie, silence_path, output_path, filter_spec, delay,
			candidates, exact, elapsed_ms, created_at
		FROM runs WHERE id = ?
	`, id)

	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	return run, err
}

// ListRuns returns runs newest first.
func (s *SQLiteStore) ListRuns(limit int) ([]*Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = -1
	}

	rows, err := s.db.Query(`
		SELECT id, movie, silence_path, output_path, filter_spec, delay,
			candidates, exact, elapsed_ms, created_at
		FROM runs
		ORDER BY created_at DESC, rowid DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// GetRecords returns the records of a run ordered by candidate index.
func (s *SQLiteStore) GetRecords(runID string) ([]Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var exists int
	err := s.db.QueryRow("SELECT 1 FROM runs WHERE id = ?", runID).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	if err != nil {
		return nil, err
	}

	rows, err := s.db.Query(`
		SELECT idx, mode, start_frame, end_frame, target_frame, target_half,
			kind, signed_offset, strategy
		FROM records WHERE run_id = ?
		ORDER BY idx ASC
	`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var r Record
		var half int
		var strategy sql.NullString
		err := rows.Scan(
			&r.Index, &r.Mode, &r.StartFrame, &r.EndFrame, &r.Target.Frame, &half,
			&r.Kind, &r.Offset, &strategy,
		)
		if err != nil {
			return nil, err
		}
		r.Target.Half = half != 0
		r.Strategy = strategy.String
		records = append(records, r)
	}
	return records, rows.Err()
}

// DeleteRun removes a run; its records go with it.
func (s *SQLiteStore) DeleteRun(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec("DELETE FROM runs WHERE id = ?", id)
	return err
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *SQLiteStore) Path() string {
	return s.path
}

// CutList returns the plain cut list records of a run.
func CutList(records []Record) []cutlist.Record {
	out := make([]cutlist.Record, len(records))
	for i, r := range records {
		out[i] = r.Record
	}
	return out
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (*Run, error) {
	var run Run
	var outputPath, filter sql.NullString
	var elapsedMS int64
	var createdAt string

	err := row.Scan(
		&run.ID, &run.Movie, &run.SilencePath, &outputPath, &filter, &run.Delay,
		&run.Candidates, &run.Exact, &elapsedMS, &createdAt,
	)
	if err != nil {
		return nil, err
	}

	run.OutputPath = outputPath.String
	run.Filter = filter.String
	run.Elapsed = time.Duration(elapsedMS) * time.Millisecond
	run.CreatedAt = parseTime(createdAt)

	return &run, nil
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		t = time.Now()
	}
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, _ := time.Parse(timeLayout, s)
	return t
}
