package aggregate

import "errors"

// ErrInvalidWindow is returned by MovingAverage for a window below 1.
var ErrInvalidWindow = errors.New("window size must be at least 1")

// MovingAverage returns a causal trailing mean of data.
//
// out[i] is the mean of data[max(0, i-window) : i+1], so once i >= window
// each value averages window+1 elements. The output has the same length
// as the input.
func MovingAverage(data []float64, window int) ([]float64, error) {
	if window < 1 {
		return nil, ErrInvalidWindow
	}

	out := make([]float64, len(data))
	for i := range data {
		start := max(0, i-window)

		var sum float64
		for _, v := range data[start : i+1] {
			sum += v
		}
		out[i] = sum / float64(i+1-start)
	}
	return out, nil
}
