package store

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
)

// FSStore implements the Store interface using filesystem-based persistence.
// Runs are stored in a directory structure: <baseDir>/runs/<runID>/
//
// Thread-safety: writes go through temp file + rename, so no locks are
// needed.
type FSStore struct {
	baseDir string // Root directory for all run data (e.g., "./data")
}

// NewFSStore creates a new filesystem-based store.
// The baseDir will be created if it doesn't exist.
func NewFSStore(baseDir string) (*FSStore, error) {
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create base directory: %w", err)
	}

	return &FSStore{
		baseDir: baseDir,
	}, nil
}

// RunDir returns the directory path for a given run ID.
func (fs *FSStore) RunDir(runID string) string {
	return filepath.Join(fs.baseDir, "runs", runID)
}

func (fs *FSStore) runPath(runID string) string {
	return filepath.Join(fs.RunDir(runID), "run.json")
}

// SaveRun atomically saves a run using the temp file + rename pattern.
func (fs *FSStore) SaveRun(run *Run) error {
	if run == nil {
		return fmt.Errorf("run cannot be nil")
	}
	if err := run.Validate(); err != nil {
		return err
	}

	runDir := fs.RunDir(run.ID)
	if err := os.MkdirAll(runDir, 0755); err != nil {
		return fmt.Errorf("failed to create run directory: %w", err)
	}

	data, err := json.MarshalIndent(run, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize run: %w", err)
	}

	tempPath := fs.runPath(run.ID) + ".tmp"
	if err := os.WriteFile(tempPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write temp run file: %w", err)
	}

	finalPath := fs.runPath(run.ID)
	if err := os.Rename(tempPath, finalPath); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to rename run file: %w", err)
	}

	slog.Debug("Run saved", "run_id", run.ID, "path", finalPath)
	return nil
}

// LoadRun retrieves the run with the given ID.
func (fs *FSStore) LoadRun(runID string) (*Run, error) {
	if err := ValidateRunID(runID); err != nil {
		return nil, err
	}

	path := fs.runPath(runID)
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, &NotFoundError{RunID: runID}
	} else if err != nil {
		return nil, fmt.Errorf("failed to read run file: %w", err)
	}

	var run Run
	if err := json.Unmarshal(data, &run); err != nil {
		return nil, fmt.Errorf("failed to deserialize run: %w", err)
	}

	slog.Debug("Run loaded", "run_id", runID, "path", path)
	return &run, nil
}

// ListRuns returns metadata for all saved runs, newest first.
// Unreadable runs are skipped with a warning.
func (fs *FSStore) ListRuns() ([]RunInfo, error) {
	runsDir := filepath.Join(fs.baseDir, "runs")

	entries, err := os.ReadDir(runsDir)
	if os.IsNotExist(err) {
		return []RunInfo{}, nil
	} else if err != nil {
		return nil, fmt.Errorf("failed to read runs directory: %w", err)
	}

	infos := make([]RunInfo, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		runID := entry.Name()
		if _, err := os.Stat(fs.runPath(runID)); os.IsNotExist(err) {
			continue // run still in progress or aborted
		}

		run, err := fs.LoadRun(runID)
		if err != nil {
			slog.Warn("Failed to load run for listing", "run_id", runID, "error", err)
			continue
		}

		infos = append(infos, run.ToInfo())
	}

	sort.Slice(infos, func(i, j int) bool {
		return infos[i].Timestamp.After(infos[j].Timestamp)
	})

	slog.Debug("Listed runs", "count", len(infos))
	return infos, nil
}

// DeleteRun removes the run directory and everything in it.
func (fs *FSStore) DeleteRun(runID string) error {
	if err := ValidateRunID(runID); err != nil {
		return err
	}

	runDir := fs.RunDir(runID)
	if _, err := os.Stat(runDir); os.IsNotExist(err) {
		return &NotFoundError{RunID: runID}
	} else if err != nil {
		return fmt.Errorf("failed to stat run directory: %w", err)
	}

	if err := os.RemoveAll(runDir); err != nil {
		return fmt.Errorf("failed to remove run directory: %w", err)
	}

	slog.Debug("Run deleted", "run_id", runID, "path", runDir)
	return nil
}

// CreateSampleLog truncates and opens the run's samples.jsonl.
func (fs *FSStore) CreateSampleLog(runID string) (*SampleWriter, error) {
	return NewSampleWriter(fs.baseDir, runID, false)
}

// LoadSamples reads the run's samples.jsonl.
func (fs *FSStore) LoadSamples(runID string) ([]SampleEntry, error) {
	reader, err := NewSampleReader(fs.baseDir, runID)
	if err != nil {
		return nil, err
	}
	defer reader.Close()

	return reader.ReadAll()
}
