// Package aggregate computes per-frame MSE series against a reference image.
package aggregate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"

	"github.com/cwbudde/msecompare/internal/metric"
	"github.com/cwbudde/msecompare/internal/ppm"
)

// ErrNoFrames is returned by Run when a series pattern matches no files.
var ErrNoFrames = errors.New("no frames matched")

// Sample is the MSE of one frame against the reference.
type Sample struct {
	Frame int     `json:"frame"`
	MSE   float64 `json:"mse"`
}

// Observer is notified after every computed sample.
type Observer func(label string, s Sample)

type runOptions struct {
	observer Observer
}

// Option configures Run.
type Option func(*runOptions)

// WithObserver registers a callback for live progress.
func WithObserver(fn Observer) Option {
	return func(o *runOptions) {
		o.observer = fn
	}
}

// CalculateForFiles computes the MSE of every file matching pattern against
// reference. Files are processed in lexicographic path order and the
// samples are returned in that order, not sorted by frame number.
func CalculateForFiles(pattern string, reference *ppm.Image) ([]Sample, error) {
	return calculate(context.Background(), pattern, reference, nil)
}

func calculate(ctx context.Context, pattern string, reference *ppm.Image, notify func(Sample)) ([]Sample, error) {
	paths, err := filepath.Glob(pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid pattern %q: %w", pattern, err)
	}
	sort.Strings(paths)

	samples := make([]Sample, 0, len(paths))
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		frame, err := FrameNumber(path)
		if err != nil {
			return nil, err
		}

		img, err := ppm.ReadFile(path)
		if err != nil {
			return nil, err
		}

		mse, err := metric.MSE(img, reference)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}

		s := Sample{Frame: frame, MSE: mse}
		slog.Debug("Computed frame MSE", "path", path, "frame", frame, "mse", mse)

		samples = append(samples, s)
		if notify != nil {
			notify(s)
		}
	}

	return samples, nil
}

// SortByFrame returns a copy of samples ordered by ascending frame number.
// Samples with equal frame numbers keep their relative order.
func SortByFrame(samples []Sample) []Sample {
	sorted := make([]Sample, len(samples))
	copy(sorted, samples)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Frame < sorted[j].Frame
	})
	return sorted
}

// Run loads the reference once and computes every series of exp.
// The context is checked between files.
func Run(ctx context.Context, exp Experiment, opts ...Option) (*Result, error) {
	var o runOptions
	for _, opt := range opts {
		opt(&o)
	}

	if err := exp.Validate(); err != nil {
		return nil, err
	}

	ref, err := ppm.ReadFile(exp.Reference)
	if err != nil {
		return nil, fmt.Errorf("failed to load reference: %w", err)
	}
	slog.Info("Loaded reference", "path", exp.Reference, "width", ref.Width, "height", ref.Height)

	result := &Result{
		Reference: exp.Reference,
		Title:     exp.Title,
		Series:    make([]SeriesResult, 0, len(exp.Series)),
	}

	for _, s := range exp.Series {
		var notify func(Sample)
		if o.observer != nil {
			label := s.Label
			notify = func(sample Sample) { o.observer(label, sample) }
		}

		samples, err := calculate(ctx, s.Pattern, ref, notify)
		if err != nil {
			return nil, fmt.Errorf("series %q: %w", s.Label, err)
		}
		if len(samples) == 0 {
			return nil, fmt.Errorf("series %q (%s): %w", s.Label, s.Pattern, ErrNoFrames)
		}

		slog.Info("Computed series", "label", s.Label, "pattern", s.Pattern, "frames", len(samples))
		result.Series = append(result.Series, SeriesResult{
			Label:   s.Label,
			Pattern: s.Pattern,
			Samples: samples,
		})
	}

	return result, nil
}
