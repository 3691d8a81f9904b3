package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cwbudde/msecompare/internal/aggregate"
	"github.com/cwbudde/msecompare/internal/store"
)

// runJob executes a comparison job in the background.
// With a non-nil runStore, samples are logged to samples.jsonl as they are
// computed and the finished run is saved.
func runJob(ctx context.Context, jm *JobManager, runStore store.Store, jobID string) error {
	defer jm.release(jobID)

	job, exists := jm.GetJob(jobID)
	if !exists {
		return fmt.Errorf("job not found: %s", jobID)
	}

	if err := ctx.Err(); err != nil {
		markJobCancelled(jm, jobID)
		return err
	}

	if err := jm.UpdateJob(jobID, func(j *Job) { j.State = StateRunning }); err != nil {
		return err
	}
	jm.broadcaster.Broadcast(SampleEvent{RunID: jobID, State: StateRunning, Timestamp: time.Now()})

	slog.Info("Starting job", "job_id", jobID, "ref", job.Experiment.Reference, "series", len(job.Experiment.Series))

	var samples *store.SampleWriter
	if runStore != nil {
		var err error
		samples, err = runStore.CreateSampleLog(jobID)
		if err != nil {
			markJobFailed(jm, jobID, err)
			return err
		}
		defer func() {
			if err := samples.Close(); err != nil {
				slog.Warn("Failed to close sample log", "job_id", jobID, "error", err)
			}
		}()
	}

	observer := func(label string, s aggregate.Sample) {
		count := 0
		jm.UpdateJob(jobID, func(j *Job) {
			j.Samples++
			count = j.Samples
		})

		if samples != nil {
			entry := store.SampleEntry{Label: label, Frame: s.Frame, MSE: s.MSE, Timestamp: time.Now()}
			if err := samples.Write(entry); err != nil {
				slog.Warn("Failed to log sample", "job_id", jobID, "error", err)
			} else if err := samples.Flush(); err != nil {
				slog.Warn("Failed to flush sample log", "job_id", jobID, "error", err)
			}
		}

		jm.broadcaster.Broadcast(SampleEvent{
			RunID:     jobID,
			State:     StateRunning,
			Label:     label,
			Frame:     s.Frame,
			MSE:       s.MSE,
			Samples:   count,
			Timestamp: time.Now(),
		})
	}

	start := time.Now()
	result, err := aggregate.Run(ctx, job.Experiment, aggregate.WithObserver(observer))
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			markJobCancelled(jm, jobID)
		} else {
			markJobFailed(jm, jobID, err)
		}
		return err
	}

	saved := false
	if runStore != nil {
		run := store.NewRun(jobID, job.Experiment, result)
		if err := runStore.SaveRun(run); err != nil {
			slog.Warn("Failed to save run", "job_id", jobID, "error", err)
		} else {
			saved = true
		}
	}

	endTime := time.Now()
	count := 0
	err = jm.UpdateJob(jobID, func(j *Job) {
		j.State = StateCompleted
		j.Result = result
		j.Saved = saved
		j.EndTime = &endTime
		count = j.Samples
	})
	if err != nil {
		return err
	}

	slog.Info("Job completed",
		"job_id", jobID,
		"elapsed", time.Since(start),
		"samples", count,
		"saved", saved,
	)

	broadcastFinal(jm, SampleEvent{
		RunID:     jobID,
		State:     StateCompleted,
		Samples:   count,
		Timestamp: time.Now(),
	})

	return nil
}

// broadcastFinal sends a terminal event and releases the job's stream
// state. Queued events are still delivered before the channels close.
func broadcastFinal(jm *JobManager, event SampleEvent) {
	jm.broadcaster.Broadcast(event)
	jm.broadcaster.CleanupJob(event.RunID)
}

// markJobFailed marks a job as failed with an error message
func markJobFailed(jm *JobManager, jobID string, err error) {
	endTime := time.Now()
	count := 0
	jm.UpdateJob(jobID, func(j *Job) {
		j.State = StateFailed
		j.Error = err.Error()
		j.EndTime = &endTime
		count = j.Samples
	})
	slog.Error("Job failed", "job_id", jobID, "error", err)

	broadcastFinal(jm, SampleEvent{
		RunID:     jobID,
		State:     StateFailed,
		Samples:   count,
		Error:     err.Error(),
		Timestamp: time.Now(),
	})
}

// markJobCancelled marks a job as cancelled
func markJobCancelled(jm *JobManager, jobID string) {
	endTime := time.Now()
	count := 0
	jm.UpdateJob(jobID, func(j *Job) {
		j.State = StateCancelled
		j.EndTime = &endTime
		count = j.Samples
	})
	slog.Info("Job cancelled", "job_id", jobID)

	broadcastFinal(jm, SampleEvent{
		RunID:     jobID,
		State:     StateCancelled,
		Samples:   count,
		Timestamp: time.Now(),
	})
}
