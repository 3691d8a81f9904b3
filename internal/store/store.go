package store

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// Store defines the interface for persisting comparison runs.
// Implementations must be safe for concurrent use.
//
// Error handling conventions:
//   - Return ErrNotFound if a run doesn't exist (for Load/Delete)
//   - Wrap underlying errors with context using fmt.Errorf("context: %w", err)
type Store interface {
	// SaveRun atomically writes a run. An existing run with the same ID
	// is overwritten.
	SaveRun(run *Run) error

	// LoadRun retrieves a run by ID.
	LoadRun(runID string) (*Run, error)

	// ListRuns returns metadata for all saved runs, newest first.
	ListRuns() ([]RunInfo, error)

	// DeleteRun removes the run and all associated artifacts
	// (run.json, samples.jsonl).
	DeleteRun(runID string) error

	// CreateSampleLog opens a fresh samples.jsonl for a run in progress.
	CreateSampleLog(runID string) (*SampleWriter, error)

	// LoadSamples returns the logged samples of a run in the order they
	// were computed.
	LoadSamples(runID string) ([]SampleEntry, error)
}

// ErrNotFound is returned when a requested run does not exist.
// Use errors.Is(err, ErrNotFound) to check for this error.
var ErrNotFound = &NotFoundError{}

// NotFoundError represents a missing run.
type NotFoundError struct {
	RunID string
}

func (e *NotFoundError) Error() string {
	if e.RunID != "" {
		return "run not found: " + e.RunID
	}
	return "run not found"
}

func (e *NotFoundError) Is(target error) bool {
	_, ok := target.(*NotFoundError)
	return ok
}

// ErrInvalidRunID is returned for IDs that do not name a single directory
// below the runs directory.
var ErrInvalidRunID = errors.New("invalid run ID")

// ValidateRunID rejects IDs that are empty, "." or "..", or contain a path
// separator.
func ValidateRunID(runID string) error {
	if runID == "" || runID == "." || runID == ".." ||
		strings.ContainsAny(runID, `/\`) || filepath.Base(runID) != runID {
		return fmt.Errorf("%w: %q", ErrInvalidRunID, runID)
	}
	return nil
}
