package report

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strconv"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/cwbudde/msecompare/internal/aggregate"
)

// ErrNothingToPlot is returned when no series has a positive MSE value.
// A log axis cannot show zero or negative values.
var ErrNothingToPlot = errors.New("no positive MSE values to plot")

const defaultTitle = "MSE Comparison"

// Plotter draws MSE against frame number on a log2 y axis.
type Plotter struct {
	Path         string // output file; the extension selects the format
	Width        vg.Length
	Height       vg.Length
	SmoothWindow int // MovingAverage window, 0 plots raw values
}

// NewPlotter creates a Plotter writing to path.
func NewPlotter(path string, smoothWindow int) *Plotter {
	return &Plotter{
		Path:         path,
		Width:        8 * vg.Inch,
		Height:       5 * vg.Inch,
		SmoothWindow: smoothWindow,
	}
}

// Consume implements Consumer by saving the plot to p.Path.
func (p *Plotter) Consume(res *aggregate.Result) error {
	pl, err := p.Build(res)
	if err != nil {
		return err
	}

	if dir := filepath.Dir(p.Path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create plot directory: %w", err)
		}
	}

	if err := pl.Save(p.Width, p.Height, p.Path); err != nil {
		return fmt.Errorf("failed to save plot: %w", err)
	}

	slog.Info("Wrote plot", "path", p.Path)
	return nil
}

// Render writes the plot to w in the given format ("png", "svg", "pdf").
func (p *Plotter) Render(w io.Writer, res *aggregate.Result, format string) error {
	pl, err := p.Build(res)
	if err != nil {
		return err
	}

	wt, err := pl.WriterTo(p.Width, p.Height, format)
	if err != nil {
		return fmt.Errorf("failed to render plot: %w", err)
	}
	if _, err := wt.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write plot: %w", err)
	}
	return nil
}

// Build assembles the plot: one line with circle markers per series,
// sorted by frame number and optionally smoothed.
func (p *Plotter) Build(res *aggregate.Result) (*plot.Plot, error) {
	data := res.Sorted()
	if p.SmoothWindow > 0 {
		var err error
		if data, err = res.Smoothed(p.SmoothWindow); err != nil {
			return nil, err
		}
	}

	pl := plot.New()
	pl.Title.Text = res.Title
	if pl.Title.Text == "" {
		pl.Title.Text = defaultTitle
	}
	pl.X.Label.Text = "Sample Number"
	pl.Y.Label.Text = "MSE (log2 scale)"
	pl.Y.Scale = plot.LogScale{}
	pl.Y.Tick.Marker = Log2Ticks{}
	pl.Legend.Top = true
	pl.Add(plotter.NewGrid())

	drawn := 0
	for i, s := range data.Series {
		xys := positiveXYs(s)
		if len(xys) == 0 {
			slog.Warn("Series has no positive MSE values, skipping", "label", s.Label)
			continue
		}

		line, points, err := plotter.NewLinePoints(xys)
		if err != nil {
			return nil, fmt.Errorf("series %q: %w", s.Label, err)
		}
		c := plotutil.Color(i)
		line.Color = c
		points.Color = c
		points.Shape = draw.CircleGlyph{}

		pl.Add(line, points)
		pl.Legend.Add(s.Label, line, points)
		drawn++
	}

	if drawn == 0 {
		return nil, ErrNothingToPlot
	}

	// gonum pads a flat range by one unit on each side, which reaches
	// zero on a log axis for values up to 1.
	if pl.Y.Min == pl.Y.Max {
		v := pl.Y.Min
		pl.Y.Min, pl.Y.Max = v/2, v*2
	}
	return pl, nil
}

func positiveXYs(s aggregate.SeriesResult) plotter.XYs {
	xys := make(plotter.XYs, 0, len(s.Samples))
	for _, sample := range s.Samples {
		if !(sample.MSE > 0) || math.IsInf(sample.MSE, 0) {
			slog.Debug("Skipping sample on log axis", "label", s.Label, "frame", sample.Frame, "mse", sample.MSE)
			continue
		}
		xys = append(xys, plotter.XY{X: float64(sample.Frame), Y: sample.MSE})
	}
	return xys
}

// Log2Ticks places major ticks on powers of two, labelled "2^n". When the
// range spans many octaves only every k-th power is labelled.
type Log2Ticks struct{}

const maxLabelledTicks = 10

// Ticks implements plot.Ticker.
func (Log2Ticks) Ticks(min, max float64) []plot.Tick {
	if min <= 0 || max <= 0 || min > max {
		return nil
	}

	lo := int(math.Floor(math.Log2(min)))
	hi := int(math.Ceil(math.Log2(max)))

	step := 1
	for (hi-lo)/step > maxLabelledTicks {
		step *= 2
	}

	ticks := make([]plot.Tick, 0, hi-lo+1)
	for e := lo; e <= hi; e++ {
		t := plot.Tick{Value: math.Exp2(float64(e))}
		if (e-lo)%step == 0 {
			t.Label = "2^" + strconv.Itoa(e)
		}
		ticks = append(ticks, t)
	}
	return ticks
}
