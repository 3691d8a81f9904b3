package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/cwbudde/msecompare/internal/report"
	"github.com/cwbudde/msecompare/internal/server"
)

var serverURL string

var statusCmd = &cobra.Command{
	Use:   "status [run-id]",
	Short: "Query a running server",
	Long: `Queries the server for run information.
If no run-id is provided, lists all runs.
If run-id is provided, shows the state and results of that run.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client := &http.Client{Timeout: 30 * time.Second}
		if len(args) == 0 {
			return listRemoteRuns(cmd.OutOrStdout(), client, serverURL)
		}
		return showRemoteRun(cmd.OutOrStdout(), client, serverURL, args[0])
	},
}

func init() {
	statusCmd.Flags().StringVar(&serverURL, "server", "http://localhost:8080", "Server URL")
	rootCmd.AddCommand(statusCmd)
}

// getJSON fetches url and decodes the body into v.
func getJSON(client *http.Client, url string, v any) error {
	resp, err := client.Get(url)
	if err != nil {
		return fmt.Errorf("failed to connect to server: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		var apiErr struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(body, &apiErr) == nil && apiErr.Error != "" {
			return fmt.Errorf("server returned %d: %s", resp.StatusCode, apiErr.Error)
		}
		return fmt.Errorf("server returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func listRemoteRuns(out io.Writer, client *http.Client, baseURL string) error {
	var runs []server.RunSummary
	if err := getJSON(client, strings.TrimRight(baseURL, "/")+"/api/v1/runs", &runs); err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Fprintln(out, "No runs found")
		return nil
	}

	fmt.Fprintf(out, "Found %d run(s):\n\n", len(runs))
	for _, run := range runs {
		fmt.Fprintf(out, "Run ID: %s\n", run.ID)
		fmt.Fprintf(out, "  State: %s\n", run.State)
		if run.Title != "" {
			fmt.Fprintf(out, "  Title: %s\n", run.Title)
		}
		fmt.Fprintf(out, "  Series: %s\n", strings.Join(run.Labels, ", "))
		fmt.Fprintf(out, "  Samples: %d\n", run.Samples)
		if run.Error != "" {
			fmt.Fprintf(out, "  Error: %s\n", run.Error)
		}
		fmt.Fprintln(out)
	}

	return nil
}

func showRemoteRun(out io.Writer, client *http.Client, baseURL, runID string) error {
	var job server.Job
	if err := getJSON(client, strings.TrimRight(baseURL, "/")+"/api/v1/runs/"+runID, &job); err != nil {
		return err
	}

	fmt.Fprintf(out, "Run: %s\n", job.ID)
	fmt.Fprintf(out, "State: %s\n", job.State)
	fmt.Fprintf(out, "Reference: %s\n", job.Experiment.Reference)
	fmt.Fprintf(out, "Samples: %d\n", job.Samples)

	end := time.Now()
	if job.EndTime != nil {
		end = *job.EndTime
	}
	fmt.Fprintf(out, "Elapsed: %s\n", end.Sub(job.StartTime).Round(time.Millisecond))

	if job.Error != "" {
		fmt.Fprintf(out, "\nError: %s\n", job.Error)
	}

	if job.Result != nil {
		fmt.Fprintln(out)
		return report.NewPrinter(out).Consume(job.Result)
	}
	return nil
}
