package store

import (
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/cwbudde/msecompare/internal/aggregate"
)

// Run is a saved comparison: the experiment that produced it and the
// per-series samples in processing order.
type Run struct {
	// ID is the unique identifier for this run
	ID string `json:"id"`

	// Timestamp records when the run finished
	Timestamp time.Time `json:"timestamp"`

	// Experiment is the input configuration
	Experiment aggregate.Experiment `json:"experiment"`

	// Series holds the computed samples, one entry per experiment series
	Series []aggregate.SeriesResult `json:"series"`
}

// RunInfo contains metadata about a run without the sample data.
type RunInfo struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Reference string    `json:"reference"`
	Title     string    `json:"title,omitempty"`
	Labels    []string  `json:"labels"`
	Frames    int       `json:"frames"`
}

// NewRunID returns a fresh random run identifier.
func NewRunID() string {
	return uuid.New().String()
}

// NewRun wraps a finished result.
func NewRun(id string, exp aggregate.Experiment, res *aggregate.Result) *Run {
	return &Run{
		ID:         id,
		Timestamp:  time.Now(),
		Experiment: exp,
		Series:     res.Series,
	}
}

// Result rebuilds the aggregate result stored in the run.
func (r *Run) Result() *aggregate.Result {
	return &aggregate.Result{
		Reference: r.Experiment.Reference,
		Title:     r.Experiment.Title,
		Series:    r.Series,
	}
}

// ToInfo converts a full Run to RunInfo (metadata only).
func (r *Run) ToInfo() RunInfo {
	labels := make([]string, len(r.Series))
	frames := 0
	for i, s := range r.Series {
		labels[i] = s.Label
		frames += len(s.Samples)
	}
	return RunInfo{
		ID:        r.ID,
		Timestamp: r.Timestamp,
		Reference: r.Experiment.Reference,
		Title:     r.Experiment.Title,
		Labels:    labels,
		Frames:    frames,
	}
}

// Validate checks if the run has valid data.
func (r *Run) Validate() error {
	if r.ID == "" {
		return &ValidationError{Field: "ID", Reason: "cannot be empty"}
	}
	if err := ValidateRunID(r.ID); err != nil {
		return &ValidationError{Field: "ID", Reason: err.Error()}
	}
	if r.Timestamp.IsZero() {
		return &ValidationError{Field: "Timestamp", Reason: "cannot be zero"}
	}
	if err := r.Experiment.Validate(); err != nil {
		return &ValidationError{Field: "Experiment", Reason: err.Error()}
	}
	if len(r.Series) != len(r.Experiment.Series) {
		return &ValidationError{
			Field:  "Series",
			Reason: fmt.Sprintf("length mismatch: expected %d series, got %d", len(r.Experiment.Series), len(r.Series)),
		}
	}
	for i, s := range r.Series {
		if s.Label != r.Experiment.Series[i].Label {
			return &ValidationError{
				Field:  fmt.Sprintf("Series[%d].Label", i),
				Reason: fmt.Sprintf("expected %q, got %q", r.Experiment.Series[i].Label, s.Label),
			}
		}
		for _, sample := range s.Samples {
			if math.IsNaN(sample.MSE) || math.IsInf(sample.MSE, 0) || sample.MSE < 0 {
				return &ValidationError{
					Field:  fmt.Sprintf("Series[%d].Samples", i),
					Reason: fmt.Sprintf("frame %d has invalid MSE %v", sample.Frame, sample.MSE),
				}
			}
		}
	}
	return nil
}

// ValidationError represents a run validation error.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return "validation error: " + e.Field + " " + e.Reason
}
