package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/cwbudde/msecompare/internal/store"
)

// writeJSON encodes v as the response body
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

// writeError sends {"error": msg} with the given status
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// validRunID accepts only canonical run IDs as issued by store.NewRunID.
func validRunID(id string) bool {
	parsed, err := uuid.Parse(id)
	return err == nil && parsed.String() == id
}

// lookupRun finds a run among in-memory jobs first, then in the store.
// Saved runs are presented as completed jobs.
func (s *Server) lookupRun(id string) (Job, bool, error) {
	if job, ok := s.jobManager.GetJob(id); ok {
		return job, true, nil
	}
	if s.store == nil {
		return Job{}, false, nil
	}

	run, err := s.store.LoadRun(id)
	if errors.Is(err, store.ErrNotFound) {
		return Job{}, false, nil
	}
	if err != nil {
		return Job{}, false, err
	}
	return jobFromRun(run), true, nil
}

func jobFromRun(run *store.Run) Job {
	end := run.Timestamp
	return Job{
		ID:         run.ID,
		State:      StateCompleted,
		Experiment: run.Experiment,
		Result:     run.Result(),
		Samples:    run.Result().FrameCount(),
		Saved:      true,
		StartTime:  run.Timestamp,
		EndTime:    &end,
	}
}

// RunSummary is one row of the run listing
type RunSummary struct {
	ID        string   `json:"id"`
	State     JobState `json:"state"`
	Title     string   `json:"title,omitempty"`
	Reference string   `json:"reference"`
	Labels    []string `json:"labels"`
	Samples   int      `json:"samples"`
	Saved     bool     `json:"saved"`
	Error     string   `json:"error,omitempty"`
}

func summarizeJob(job Job) RunSummary {
	labels := make([]string, len(job.Experiment.Series))
	for i, series := range job.Experiment.Series {
		labels[i] = series.Label
	}
	return RunSummary{
		ID:        job.ID,
		State:     job.State,
		Title:     job.Experiment.Title,
		Reference: job.Experiment.Reference,
		Labels:    labels,
		Samples:   job.Samples,
		Saved:     job.Saved,
		Error:     job.Error,
	}
}

// listRuns merges in-memory jobs (newest first) with saved runs that are
// not already in memory.
func (s *Server) listRuns() ([]RunSummary, error) {
	jobs := s.jobManager.ListJobs()
	seen := make(map[string]bool, len(jobs))
	summaries := make([]RunSummary, 0, len(jobs))
	for _, job := range jobs {
		seen[job.ID] = true
		summaries = append(summaries, summarizeJob(job))
	}

	if s.store == nil {
		return summaries, nil
	}

	infos, err := s.store.ListRuns()
	if err != nil {
		return nil, err
	}
	for _, info := range infos {
		if seen[info.ID] {
			continue
		}
		summaries = append(summaries, RunSummary{
			ID:        info.ID,
			State:     StateCompleted,
			Title:     info.Title,
			Reference: info.Reference,
			Labels:    info.Labels,
			Samples:   info.Frames,
			Saved:     true,
		})
	}
	return summaries, nil
}
