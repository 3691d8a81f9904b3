package aggregate

// SeriesResult holds the samples of one series in processing order.
type SeriesResult struct {
	Label   string   `json:"label"`
	Pattern string   `json:"pattern"`
	Samples []Sample `json:"samples"`
}

// Frames returns the frame numbers in sample order.
func (s SeriesResult) Frames() []int {
	frames := make([]int, len(s.Samples))
	for i, sample := range s.Samples {
		frames[i] = sample.Frame
	}
	return frames
}

// Values returns the MSE values in sample order.
func (s SeriesResult) Values() []float64 {
	values := make([]float64, len(s.Samples))
	for i, sample := range s.Samples {
		values[i] = sample.MSE
	}
	return values
}

// Result is the output of Run.
type Result struct {
	Reference string         `json:"reference"`
	Title     string         `json:"title,omitempty"`
	Series    []SeriesResult `json:"series"`
}

// Sorted returns a copy with every series ordered by frame number.
func (r *Result) Sorted() *Result {
	out := &Result{
		Reference: r.Reference,
		Title:     r.Title,
		Series:    make([]SeriesResult, len(r.Series)),
	}
	for i, s := range r.Series {
		out.Series[i] = SeriesResult{
			Label:   s.Label,
			Pattern: s.Pattern,
			Samples: SortByFrame(s.Samples),
		}
	}
	return out
}

// Smoothed returns a frame-sorted copy whose MSE values are replaced by
// their MovingAverage over window.
func (r *Result) Smoothed(window int) (*Result, error) {
	out := r.Sorted()
	for i, s := range out.Series {
		avg, err := MovingAverage(s.Values(), window)
		if err != nil {
			return nil, err
		}
		for j := range s.Samples {
			out.Series[i].Samples[j].MSE = avg[j]
		}
	}
	return out, nil
}

// FrameCount is the total number of samples across all series.
func (r *Result) FrameCount() int {
	n := 0
	for _, s := range r.Series {
		n += len(s.Samples)
	}
	return n
}
