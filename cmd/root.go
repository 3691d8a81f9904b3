package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

var (
	logLevel   string
	configFile string
	logger     *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "msecompare",
	Short: "Compare rendered frame sequences against a reference image",
	Long: `msecompare computes the mean squared error of every frame of one or more
sampling strategies against a reference render, prints the per-frame values
and plots the convergence curves on a log2 axis.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		var level slog.Level
		switch logLevel {
		case "debug":
			level = slog.LevelDebug
		case "info":
			level = slog.LevelInfo
		case "warn":
			level = slog.LevelWarn
		case "error":
			level = slog.LevelError
		default:
			level = slog.LevelInfo
		}

		// stdout carries the MSE listings
		opts := &slog.HandlerOptions{Level: level}
		handler := slog.NewJSONHandler(os.Stderr, opts)
		logger = slog.New(handler)
		slog.SetDefault(logger)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Config file (YAML, JSON or TOML)")
}
