// Package store keeps a history of detection runs and the cut list records
// each run produced.
package store

import (
	"errors"
	"time"

	"github.com/gwlsn/cutscan/internal/cutlist"
)

// ErrRunNotFound is returned when a run ID is not in the store.
var ErrRunNotFound = errors.New("run not found")

// Store defines the persistence interface for run history.
// Implementations must be safe for concurrent use.
type Store interface {
	// SaveRun persists a run and its records in one transaction. A run with
	// the same ID is replaced along with its records.
	SaveRun(run *Run, records []Record) error

	// GetRun retrieves a run by ID. Returns ErrRunNotFound if missing.
	GetRun(id string) (*Run, error)

	// ListRuns returns runs newest first. limit <= 0 returns all runs.
	ListRuns(limit int) ([]*Run, error)

	// GetRecords returns a run's records in candidate order.
	GetRecords(runID string) ([]Record, error)

	// DeleteRun removes a run and its records. Returns nil if the run
	// doesn't exist.
	DeleteRun(id string) error

	// Close closes the store and releases resources.
	Close() error
}

// Run describes one invocation of the detector.
type Run struct {
	ID          string
	Movie       string
	SilencePath string
	OutputPath  string
	Filter      string  // Periodic filter as "<start>,<duration>", empty if none
	Delay       float64 // Movie start delay subtracted from silence times
	Candidates  int
	Exact       int // Number of exact records
	Elapsed     time.Duration
	CreatedAt   time.Time
}

// Record is a stored cut list line plus how it was found.
type Record struct {
	cutlist.Record
	Kind     string // boundary.Kind name
	Offset   int    // Signed field offset
	Strategy string
}
