// Package report presents aggregated MSE results. Consumers never modify
// the result they are given.
package report

import (
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/cwbudde/msecompare/internal/aggregate"
)

// Consumer presents a comparison result.
type Consumer interface {
	Consume(res *aggregate.Result) error
}

// Printer writes every series as a list of (frame, mse) pairs in
// processing order.
type Printer struct {
	w io.Writer
}

// NewPrinter creates a Printer writing to w.
func NewPrinter(w io.Writer) *Printer {
	return &Printer{w: w}
}

// Consume implements Consumer.
func (p *Printer) Consume(res *aggregate.Result) error {
	for _, s := range res.Series {
		if _, err := fmt.Fprintf(p.w, "%s MSE Values:\n%s\n", s.Label, FormatSamples(s.Samples)); err != nil {
			return fmt.Errorf("failed to print series %q: %w", s.Label, err)
		}
	}
	return nil
}

// FormatSamples renders samples as "[(1, 12.5), (2, 3.0)]".
func FormatSamples(samples []aggregate.Sample) string {
	var sb strings.Builder
	sb.WriteByte('[')
	for i, s := range samples {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteByte('(')
		sb.WriteString(strconv.Itoa(s.Frame))
		sb.WriteString(", ")
		sb.WriteString(formatFloat(s.MSE))
		sb.WriteByte(')')
	}
	sb.WriteByte(']')
	return sb.String()
}

// formatFloat prints the shortest round-tripping representation, always
// with a decimal point or exponent, switching to exponent form outside
// [1e-4, 1e16).
func formatFloat(v float64) string {
	switch {
	case math.IsNaN(v):
		return "nan"
	case math.IsInf(v, 1):
		return "inf"
	case math.IsInf(v, -1):
		return "-inf"
	}

	abs := math.Abs(v)
	if v != 0 && (abs < 1e-4 || abs >= 1e16) {
		return strconv.FormatFloat(v, 'e', -1, 64)
	}

	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}
