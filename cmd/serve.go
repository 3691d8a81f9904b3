package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/cwbudde/msecompare/internal/server"
	"github.com/cwbudde/msecompare/internal/store"
)

var (
	serveAddr    string
	serveDataDir string
	noPersist    bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long: `Starts an HTTP server that runs comparisons in the background, streams
per-frame results over Server-Sent Events and serves plots of saved runs.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", ":8080", "Listen address")
	serveCmd.Flags().StringVar(&serveDataDir, "data-dir", "./data", "Base directory for saved runs")
	serveCmd.Flags().BoolVar(&noPersist, "no-persist", false, "Keep runs in memory only")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	var runStore store.Store
	if !noPersist {
		fsStore, err := store.NewFSStore(serveDataDir)
		if err != nil {
			return fmt.Errorf("failed to create run store: %w", err)
		}
		runStore = fsStore
	}

	srv := server.NewServer(serveAddr, runStore)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown failed: %w", err)
	}
	slog.Info("Server stopped")
	return nil
}
