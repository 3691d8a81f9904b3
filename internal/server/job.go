package server

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/cwbudde/msecompare/internal/aggregate"
	"github.com/cwbudde/msecompare/internal/store"
)

// JobState represents the current state of a job
type JobState string

const (
	StatePending   JobState = "pending"
	StateRunning   JobState = "running"
	StateCompleted JobState = "completed"
	StateFailed    JobState = "failed"
	StateCancelled JobState = "cancelled"
)

// Terminal reports whether a job in this state will not change again.
func (s JobState) Terminal() bool {
	return s == StateCompleted || s == StateFailed || s == StateCancelled
}

// Job represents a comparison run executed by the server
type Job struct {
	ID         string               `json:"id"`
	State      JobState             `json:"state"`
	Experiment aggregate.Experiment `json:"experiment"`
	Result     *aggregate.Result    `json:"result,omitempty"`
	Samples    int                  `json:"samples"`
	Saved      bool                 `json:"saved"`
	StartTime  time.Time            `json:"startTime"`
	EndTime    *time.Time           `json:"endTime,omitempty"`
	Error      string               `json:"error,omitempty"`
}

// JobManager manages the lifecycle of jobs
type JobManager struct {
	mu          sync.RWMutex
	jobs        map[string]*Job
	cancels     map[string]context.CancelFunc
	dones       map[string]chan struct{} // closed when the worker releases the job
	broadcaster *EventBroadcaster
}

// NewJobManager creates a new JobManager
func NewJobManager() *JobManager {
	return &JobManager{
		jobs:        make(map[string]*Job),
		cancels:     make(map[string]context.CancelFunc),
		dones:       make(map[string]chan struct{}),
		broadcaster: NewEventBroadcaster(),
	}
}

// CreateJob registers a pending job for the given experiment
func (jm *JobManager) CreateJob(exp aggregate.Experiment) Job {
	jm.mu.Lock()
	defer jm.mu.Unlock()

	job := &Job{
		ID:         store.NewRunID(),
		State:      StatePending,
		Experiment: exp,
		StartTime:  time.Now(),
	}

	jm.jobs[job.ID] = job
	return *job
}

// GetJob returns a snapshot of the job with the given ID
func (jm *JobManager) GetJob(id string) (Job, bool) {
	jm.mu.RLock()
	defer jm.mu.RUnlock()

	job, exists := jm.jobs[id]
	if !exists {
		return Job{}, false
	}
	return *job, true
}

// ListJobs returns snapshots of all jobs, newest first
func (jm *JobManager) ListJobs() []Job {
	jm.mu.RLock()
	jobs := make([]Job, 0, len(jm.jobs))
	for _, job := range jm.jobs {
		jobs = append(jobs, *job)
	}
	jm.mu.RUnlock()

	sort.Slice(jobs, func(i, j int) bool {
		return jobs[i].StartTime.After(jobs[j].StartTime)
	})
	return jobs
}

// UpdateJob atomically updates a job using the provided function
func (jm *JobManager) UpdateJob(id string, updateFn func(*Job)) error {
	jm.mu.Lock()
	defer jm.mu.Unlock()

	job, exists := jm.jobs[id]
	if !exists {
		return fmt.Errorf("job not found: %s", id)
	}

	updateFn(job)
	return nil
}

// GetRunningJobs returns all jobs currently in the running state
func (jm *JobManager) GetRunningJobs() []Job {
	jm.mu.RLock()
	defer jm.mu.RUnlock()

	running := make([]Job, 0)
	for _, job := range jm.jobs {
		if job.State == StateRunning {
			running = append(running, *job)
		}
	}
	return running
}

// jobContext derives the context a job runs under and remembers its
// cancel function until release is called.
func (jm *JobManager) jobContext(parent context.Context, id string) context.Context {
	ctx, cancel := context.WithCancel(parent)

	jm.mu.Lock()
	jm.cancels[id] = cancel
	jm.dones[id] = make(chan struct{})
	jm.mu.Unlock()

	return ctx
}

func (jm *JobManager) release(id string) {
	jm.mu.Lock()
	cancel, ok := jm.cancels[id]
	done := jm.dones[id]
	delete(jm.cancels, id)
	delete(jm.dones, id)
	jm.mu.Unlock()

	if ok {
		cancel()
	}
	if done != nil {
		close(done)
	}
}

// CancelJob requests cancellation of a pending or running job. The
// returned channel is closed once the worker has recorded the final state;
// it is nil when no worker was started for the job.
func (jm *JobManager) CancelJob(id string) (<-chan struct{}, error) {
	jm.mu.Lock()
	job, exists := jm.jobs[id]
	if !exists {
		jm.mu.Unlock()
		return nil, fmt.Errorf("job not found: %s", id)
	}
	if job.State.Terminal() {
		jm.mu.Unlock()
		return nil, fmt.Errorf("job %s already %s", id, job.State)
	}
	cancel := jm.cancels[id]
	done := jm.dones[id]
	jm.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if done == nil {
		return nil, nil
	}
	return done, nil
}

// CancelAll cancels every job that is still in flight.
func (jm *JobManager) CancelAll() {
	jm.mu.RLock()
	cancels := make([]context.CancelFunc, 0, len(jm.cancels))
	for _, cancel := range jm.cancels {
		cancels = append(cancels, cancel)
	}
	jm.mu.RUnlock()

	for _, cancel := range cancels {
		cancel()
	}
}
