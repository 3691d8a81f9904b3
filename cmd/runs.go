package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/cwbudde/msecompare/internal/report"
	"github.com/cwbudde/msecompare/internal/store"
)

var (
	runsDataDir   string
	keepLast      int
	olderThanDays int
	forceClean    bool
	showSamples   bool
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Manage saved comparison runs",
	Long:  `List, inspect and clean runs saved with "compare --save" or by the server.`,
}

var listRunsCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved runs",
	RunE: func(cmd *cobra.Command, args []string) error {
		return listRuns(cmd.OutOrStdout(), runsDataDir)
	},
}

var showRunCmd = &cobra.Command{
	Use:   "show <run-id>",
	Short: "Print the MSE values of a saved run",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return showRun(cmd.OutOrStdout(), runsDataDir, args[0], showSamples)
	},
}

var cleanRunsCmd = &cobra.Command{
	Use:   "clean",
	Short: "Delete old runs",
	Long: `Delete saved runs based on a retention policy: keep only the newest N runs,
delete runs older than N days, or both.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return cleanRuns(cmd.InOrStdin(), cmd.OutOrStdout(), runsDataDir, keepLast, olderThanDays, forceClean)
	},
}

func init() {
	rootCmd.AddCommand(runsCmd)

	runsCmd.AddCommand(listRunsCmd)
	runsCmd.AddCommand(showRunCmd)
	runsCmd.AddCommand(cleanRunsCmd)

	runsCmd.PersistentFlags().StringVar(&runsDataDir, "data-dir", "./data", "Base directory for saved runs")

	showRunCmd.Flags().BoolVar(&showSamples, "samples", false, "Also print the sample log in computation order")

	cleanRunsCmd.Flags().IntVar(&keepLast, "keep-last", 0, "Keep only the newest N runs (0 = keep all)")
	cleanRunsCmd.Flags().IntVar(&olderThanDays, "older-than", 0, "Delete runs older than N days (0 = no age limit)")
	cleanRunsCmd.Flags().BoolVarP(&forceClean, "force", "f", false, "Skip confirmation prompt")
}

func listRuns(out io.Writer, dataDir string) error {
	runStore, err := store.NewFSStore(dataDir)
	if err != nil {
		return fmt.Errorf("failed to create run store: %w", err)
	}

	infos, err := runStore.ListRuns()
	if err != nil {
		return fmt.Errorf("failed to list runs: %w", err)
	}

	if len(infos) == 0 {
		fmt.Fprintln(out, "No runs found.")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "RUN ID\tTIMESTAMP\tTITLE\tSERIES\tFRAMES\tSIZE")
	fmt.Fprintln(w, "------\t---------\t-----\t------\t------\t----")

	for _, info := range infos {
		sizeStr := "unknown"
		if size, err := getDirSize(runStore.RunDir(info.ID)); err == nil {
			sizeStr = formatBytes(size)
		}

		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%s\n",
			shortID(info.ID),
			info.Timestamp.Format("2006-01-02 15:04:05"),
			info.Title,
			strings.Join(info.Labels, ", "),
			info.Frames,
			sizeStr,
		)
	}

	w.Flush()

	fmt.Fprintf(out, "\nTotal runs: %d\n", len(infos))
	return nil
}

func showRun(out io.Writer, dataDir, runID string, withSamples bool) error {
	runStore, err := store.NewFSStore(dataDir)
	if err != nil {
		return fmt.Errorf("failed to create run store: %w", err)
	}

	run, err := runStore.LoadRun(runID)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "Run: %s\n", run.ID)
	fmt.Fprintf(out, "Timestamp: %s\n", run.Timestamp.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(out, "Reference: %s\n", run.Experiment.Reference)
	if run.Experiment.Title != "" {
		fmt.Fprintf(out, "Title: %s\n", run.Experiment.Title)
	}
	fmt.Fprintln(out)

	if err := report.NewPrinter(out).Consume(run.Result()); err != nil {
		return err
	}
	if !withSamples {
		return nil
	}

	entries, err := runStore.LoadSamples(runID)
	if errors.Is(err, store.ErrNotFound) {
		fmt.Fprintln(out, "\nNo sample log for this run.")
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read sample log: %w", err)
	}

	fmt.Fprintf(out, "\nSample log (%d entries):\n", len(entries))
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "TIME\tSERIES\tFRAME\tMSE")
	for _, e := range entries {
		fmt.Fprintf(w, "%s\t%s\t%d\t%g\n", e.Timestamp.Format("15:04:05.000"), e.Label, e.Frame, e.MSE)
	}
	return w.Flush()
}

func cleanRuns(in io.Reader, out io.Writer, dataDir string, keepLast, olderThanDays int, force bool) error {
	if keepLast == 0 && olderThanDays == 0 {
		return fmt.Errorf("must specify either --keep-last or --older-than")
	}

	runStore, err := store.NewFSStore(dataDir)
	if err != nil {
		return fmt.Errorf("failed to create run store: %w", err)
	}

	infos, err := runStore.ListRuns()
	if err != nil {
		return fmt.Errorf("failed to list runs: %w", err)
	}

	if len(infos) == 0 {
		fmt.Fprintln(out, "No runs to clean.")
		return nil
	}

	toDelete := selectRunsForDeletion(infos, keepLast, olderThanDays, time.Now())
	if len(toDelete) == 0 {
		fmt.Fprintln(out, "No runs match deletion criteria.")
		return nil
	}

	fmt.Fprintf(out, "Found %d run(s) to delete:\n", len(toDelete))
	for _, info := range toDelete {
		fmt.Fprintf(out, "  - %s (%d frames, %s)\n",
			shortID(info.ID),
			info.Frames,
			info.Timestamp.Format("2006-01-02 15:04:05"),
		)
	}

	if !force {
		fmt.Fprint(out, "\nProceed with deletion? [y/N]: ")
		response, _ := bufio.NewReader(in).ReadString('\n')
		response = strings.TrimSpace(response)
		if response != "y" && response != "Y" {
			fmt.Fprintln(out, "Aborted.")
			return nil
		}
	}

	deleted := 0
	failed := 0
	for _, info := range toDelete {
		if err := runStore.DeleteRun(info.ID); err != nil {
			slog.Error("Failed to delete run", "run_id", info.ID, "error", err)
			failed++
		} else {
			slog.Info("Deleted run", "run_id", info.ID)
			deleted++
		}
	}

	fmt.Fprintf(out, "\nDeleted %d run(s), %d failed.\n", deleted, failed)
	return nil
}

// selectRunsForDeletion applies the retention policy. A run is selected if
// it is older than olderThanDays or falls outside the newest keepLast runs.
// Zero disables either rule. The result is ordered oldest first.
func selectRunsForDeletion(infos []store.RunInfo, keepLast, olderThanDays int, now time.Time) []store.RunInfo {
	sorted := make([]store.RunInfo, len(infos))
	copy(sorted, infos)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Timestamp.After(sorted[j].Timestamp)
	})

	cutoff := now.AddDate(0, 0, -olderThanDays)

	var toDelete []store.RunInfo
	for i := len(sorted) - 1; i >= 0; i-- {
		info := sorted[i]
		tooOld := olderThanDays > 0 && info.Timestamp.Before(cutoff)
		beyondKeep := keepLast > 0 && i >= keepLast
		if tooOld || beyondKeep {
			toDelete = append(toDelete, info)
		}
	}

	return toDelete
}

func shortID(id string) string {
	if len(id) > 12 {
		return id[:12] + "..."
	}
	return id
}

// getDirSize calculates the total size of a directory
func getDirSize(path string) (int64, error) {
	var size int64
	err := filepath.Walk(path, func(_ string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() {
			size += info.Size()
		}
		return nil
	})
	return size, err
}

// formatBytes formats bytes as human-readable string
func formatBytes(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}
