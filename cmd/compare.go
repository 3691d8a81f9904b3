package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/cwbudde/msecompare/internal/aggregate"
	"github.com/cwbudde/msecompare/internal/config"
	"github.com/cwbudde/msecompare/internal/metric"
	"github.com/cwbudde/msecompare/internal/report"
	"github.com/cwbudde/msecompare/internal/store"
)

var compareCmd = &cobra.Command{
	Use:   "compare",
	Short: "Compute, print and plot MSE series against a reference",
	Long: `Loads the reference image, computes the MSE of every frame of each series,
prints the values in processing order and plots them sorted by frame number.

Series default to the selected preset; --series replaces them:

  msecompare compare --reference gt.ppm \
    --series "Jitter=jitter_*.ppm" --series "Random=random_*.ppm"`,
	RunE: runCompare,
}

// compareFlags maps flag names to config keys.
var compareFlags = map[string]string{
	"preset":    config.KeyPreset,
	"reference": config.KeyReference,
	"title":     config.KeyTitle,
	"plot":      config.KeyPlot,
	"smooth":    config.KeySmoothWindow,
	"diff-dir":  config.KeyDiffDir,
	"save":      config.KeySave,
	"data-dir":  config.KeyDataDir,
}

func init() {
	addCompareFlags(compareCmd.Flags())
	rootCmd.AddCommand(compareCmd)
}

func addCompareFlags(f *pflag.FlagSet) {
	f.String("preset", config.DefaultPreset, "Experiment preset ("+strings.Join(config.PresetNames(), ", ")+")")
	f.String("reference", "", "Reference image (overrides the preset)")
	f.StringArray("series", nil, "Series as label=pattern, repeatable (overrides the preset)")
	f.String("title", "", "Plot title (overrides the preset)")
	f.String("plot", "mse_comparison.png", "Plot output path (.png, .svg, .pdf); empty disables plotting")
	f.Int("smooth", 0, "Moving average window applied to plotted series (0 = off)")
	f.String("diff-dir", "", "Write per-frame difference maps to this directory")
	f.Bool("save", false, "Save the run to the data directory")
	f.String("data-dir", "./data", "Base directory for saved runs")
}

// bindCompareFlags builds the viper instance for a compare invocation.
func bindCompareFlags(flags *pflag.FlagSet) (*viper.Viper, error) {
	v, err := config.New(configFile)
	if err != nil {
		return nil, err
	}

	for name, key := range compareFlags {
		if err := v.BindPFlag(key, flags.Lookup(name)); err != nil {
			return nil, fmt.Errorf("failed to bind flag %s: %w", name, err)
		}
	}

	if flags.Changed("series") {
		specs, err := flags.GetStringArray("series")
		if err != nil {
			return nil, err
		}
		series, err := config.ParseSeries(specs)
		if err != nil {
			return nil, err
		}
		config.SetSeries(v, series)
	}

	return v, nil
}

func runCompare(cmd *cobra.Command, args []string) error {
	v, err := bindCompareFlags(cmd.Flags())
	if err != nil {
		return err
	}
	cfg, err := config.Load(v)
	if err != nil {
		return err
	}

	return compare(cmd.Context(), cmd.OutOrStdout(), cfg)
}

// compare runs the full flow for one configuration.
func compare(ctx context.Context, out io.Writer, cfg *config.Config) error {
	if ctx == nil {
		ctx = context.Background()
	}
	exp := cfg.Experiment()

	slog.Info("Starting comparison",
		"preset", cfg.Preset,
		"reference", exp.Reference,
		"series", len(exp.Series),
	)
	slog.Debug("Selected SSD kernel", "kernel", metric.ActiveKernel.String())

	start := time.Now()
	res, err := aggregate.Run(ctx, exp)
	if err != nil {
		return err
	}
	slog.Info("Comparison complete", "frames", res.FrameCount(), "elapsed", time.Since(start))

	consumers := []report.Consumer{report.NewPrinter(out)}
	if cfg.Plot != "" {
		consumers = append(consumers, report.NewPlotter(cfg.Plot, cfg.SmoothWindow))
	}
	for _, c := range consumers {
		if err := c.Consume(res); err != nil {
			return err
		}
	}

	if cfg.DiffDir != "" {
		if _, err := report.WriteDiffMaps(ctx, exp, cfg.DiffDir); err != nil {
			return fmt.Errorf("failed to write difference maps: %w", err)
		}
	}

	if cfg.Save {
		runStore, err := store.NewFSStore(cfg.DataDir)
		if err != nil {
			return fmt.Errorf("failed to create run store: %w", err)
		}
		run := store.NewRun(store.NewRunID(), exp, res)
		if err := runStore.SaveRun(run); err != nil {
			return fmt.Errorf("failed to save run: %w", err)
		}
		slog.Info("Saved run", "run_id", run.ID, "dir", runStore.RunDir(run.ID))
		fmt.Fprintf(out, "Saved run %s\n", run.ID)
	}

	return nil
}
