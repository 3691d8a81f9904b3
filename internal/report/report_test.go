package report

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/cwbudde/msecompare/internal/aggregate"
)

func testResult() *aggregate.Result {
	return &aggregate.Result{
		Reference: "gt.ppm",
		Title:     "Test",
		Series: []aggregate.SeriesResult{
			{
				Label: "Jitter",
				Samples: []aggregate.Sample{
					{Frame: 16, MSE: 12.5},
					{Frame: 4, MSE: 48},
					{Frame: 8, MSE: 25.25},
				},
			},
			{
				Label: "Random",
				Samples: []aggregate.Sample{
					{Frame: 4, MSE: 96},
					{Frame: 8, MSE: 50.5},
				},
			},
		},
	}
}

func TestPrinter(t *testing.T) {
	var buf bytes.Buffer
	if err := NewPrinter(&buf).Consume(testResult()); err != nil {
		t.Fatalf("Consume failed: %v", err)
	}

	want := "Jitter MSE Values:\n" +
		"[(16, 12.5), (4, 48.0), (8, 25.25)]\n" +
		"Random MSE Values:\n" +
		"[(4, 96.0), (8, 50.5)]\n"
	if buf.String() != want {
		t.Errorf("Unexpected output:\n%s\nwant:\n%s", buf.String(), want)
	}
}

func TestFormatSamplesEmpty(t *testing.T) {
	if got := FormatSamples(nil); got != "[]" {
		t.Errorf("Expected [], got %q", got)
	}
}

func TestFormatFloat(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0, "0.0"},
		{3, "3.0"},
		{0.1, "0.1"},
		{1234.5678, "1234.5678"},
		{1e16, "1e+16"},
		{0.00001, "1e-05"},
		{0.0001, "0.0001"},
	}
	for _, tt := range tests {
		if got := formatFloat(tt.in); got != tt.want {
			t.Errorf("formatFloat(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestLog2Ticks(t *testing.T) {
	ticks := Log2Ticks{}.Ticks(3, 40)

	// 2^1 .. 2^6
	if len(ticks) != 6 {
		t.Fatalf("Expected 6 ticks, got %d: %v", len(ticks), ticks)
	}
	if ticks[0].Value != 2 || ticks[0].Label != "2^1" {
		t.Errorf("Unexpected first tick: %+v", ticks[0])
	}
	if ticks[5].Value != 64 || ticks[5].Label != "2^6" {
		t.Errorf("Unexpected last tick: %+v", ticks[5])
	}
}

func TestLog2TicksWideRange(t *testing.T) {
	ticks := Log2Ticks{}.Ticks(1, 1<<30)

	labelled := 0
	for _, tick := range ticks {
		if tick.Label != "" {
			labelled++
		}
	}
	if len(ticks) != 31 {
		t.Errorf("Expected 31 ticks, got %d", len(ticks))
	}
	if labelled > maxLabelledTicks+1 {
		t.Errorf("Expected at most %d labels, got %d", maxLabelledTicks+1, labelled)
	}
}

func TestLog2TicksInvalid(t *testing.T) {
	if ticks := (Log2Ticks{}).Ticks(0, 10); ticks != nil {
		t.Errorf("Expected no ticks for non-positive range, got %v", ticks)
	}
}

func TestPlotterRenderPNG(t *testing.T) {
	var buf bytes.Buffer
	if err := NewPlotter("", 0).Render(&buf, testResult(), "png"); err != nil {
		t.Fatalf("Render failed: %v", err)
	}

	if !bytes.HasPrefix(buf.Bytes(), []byte("\x89PNG\r\n\x1a\n")) {
		t.Error("Output is not a PNG")
	}
}

func TestPlotterConsumeWritesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plots", "mse.svg")

	if err := NewPlotter(path, 1).Consume(testResult()); err != nil {
		t.Fatalf("Consume failed: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Plot not written: %v", err)
	}
	if info.Size() == 0 {
		t.Error("Plot file is empty")
	}
}

func TestPlotterNothingToPlot(t *testing.T) {
	res := &aggregate.Result{
		Series: []aggregate.SeriesResult{{
			Label:   "Perfect",
			Samples: []aggregate.Sample{{Frame: 1, MSE: 0}},
		}},
	}

	if _, err := NewPlotter("", 0).Build(res); !errors.Is(err, ErrNothingToPlot) {
		t.Errorf("Expected ErrNothingToPlot, got %v", err)
	}
}

func TestPlotterSkipsZeroValues(t *testing.T) {
	res := testResult()
	res.Series[0].Samples = append(res.Series[0].Samples, aggregate.Sample{Frame: 32, MSE: 0})

	if _, err := NewPlotter("", 0).Build(res); err != nil {
		t.Errorf("Build failed: %v", err)
	}
}

func TestPlotterRenderFlatSmallValues(t *testing.T) {
	tests := []struct {
		name   string
		series []aggregate.SeriesResult
	}{
		{"single sample below one", []aggregate.SeriesResult{
			{Label: "Jitter", Samples: []aggregate.Sample{{Frame: 1, MSE: 0.5}}},
		}},
		{"two series at one", []aggregate.SeriesResult{
			{Label: "Jitter", Samples: []aggregate.Sample{{Frame: 1, MSE: 1}, {Frame: 2, MSE: 1}}},
			{Label: "Random", Samples: []aggregate.Sample{{Frame: 1, MSE: 1}}},
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			res := &aggregate.Result{Series: tt.series}
			if err := NewPlotter("", 0).Render(&buf, res, "png"); err != nil {
				t.Fatalf("Render failed: %v", err)
			}
			if buf.Len() == 0 {
				t.Error("Expected PNG output")
			}
		})
	}
}

func TestPlotterFlatRangeWidened(t *testing.T) {
	res := &aggregate.Result{Series: []aggregate.SeriesResult{
		{Label: "Jitter", Samples: []aggregate.Sample{{Frame: 1, MSE: 0.5}}},
	}}

	pl, err := NewPlotter("", 0).Build(res)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if pl.Y.Min != 0.25 || pl.Y.Max != 1 {
		t.Errorf("Expected y range [0.25, 1], got [%v, %v]", pl.Y.Min, pl.Y.Max)
	}
}
