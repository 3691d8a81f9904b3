package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/cwbudde/msecompare/internal/store"
)

// SampleEvent is pushed to SSE clients for every state change and every
// computed sample of a job.
type SampleEvent struct {
	RunID     string    `json:"runId"`
	State     JobState  `json:"state"`
	Label     string    `json:"label,omitempty"`
	Frame     int       `json:"frame,omitempty"`
	MSE       float64   `json:"mse,omitempty"`
	Samples   int       `json:"samples"`
	Error     string    `json:"error,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// EventBroadcaster manages SSE connections per job
type EventBroadcaster struct {
	mu        sync.Mutex
	clients   map[string]map[chan SampleEvent]bool // runID -> set of client channels
	lastEvent map[string]SampleEvent               // runID -> last event for new clients
}

// NewEventBroadcaster creates a new event broadcaster
func NewEventBroadcaster() *EventBroadcaster {
	return &EventBroadcaster{
		clients:   make(map[string]map[chan SampleEvent]bool),
		lastEvent: make(map[string]SampleEvent),
	}
}

// Subscribe adds a client to receive events for a job
func (eb *EventBroadcaster) Subscribe(runID string) chan SampleEvent {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	ch := make(chan SampleEvent, 64)

	if eb.clients[runID] == nil {
		eb.clients[runID] = make(map[chan SampleEvent]bool)
	}
	eb.clients[runID][ch] = true

	// Replay the last event for reconnecting clients
	if last, ok := eb.lastEvent[runID]; ok {
		ch <- last
	}

	slog.Debug("SSE client subscribed", "run_id", runID, "total_clients", len(eb.clients[runID]))
	return ch
}

// Unsubscribe removes a client from receiving events
func (eb *EventBroadcaster) Unsubscribe(runID string, ch chan SampleEvent) {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	clients, ok := eb.clients[runID]
	if !ok || !clients[ch] {
		return
	}
	delete(clients, ch)
	close(ch)
	if len(clients) == 0 {
		delete(eb.clients, runID)
	}

	slog.Debug("SSE client unsubscribed", "run_id", runID)
}

// Broadcast sends an event to all subscribed clients of its job.
// Slow clients miss events instead of blocking the worker.
func (eb *EventBroadcaster) Broadcast(event SampleEvent) {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	eb.lastEvent[event.RunID] = event

	for ch := range eb.clients[event.RunID] {
		select {
		case ch <- event:
		default:
			slog.Warn("SSE channel full, skipping event", "run_id", event.RunID)
		}
	}
}

// CleanupJob removes all clients and cached events for a job
func (eb *EventBroadcaster) CleanupJob(runID string) {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	for ch := range eb.clients[runID] {
		close(ch)
	}
	delete(eb.clients, runID)
	delete(eb.lastEvent, runID)
	slog.Debug("Cleaned up SSE resources", "run_id", runID)
}

// handleRunStream handles GET /api/v1/runs/:id/stream
func (s *Server) handleRunStream(w http.ResponseWriter, r *http.Request, runID string) {
	job, found, err := s.lookupRun(runID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if !found {
		writeError(w, http.StatusNotFound, "Run not found")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "SSE not supported")
		return
	}

	// Subscribe before taking the snapshot so no sample falls in between.
	// A job that finished meanwhile has already released its stream state.
	var events chan SampleEvent
	if !job.State.Terminal() {
		events = s.jobManager.broadcaster.Subscribe(runID)
		defer s.jobManager.broadcaster.Unsubscribe(runID, events)
		if current, ok := s.jobManager.GetJob(runID); ok {
			job = current
		}
	}

	if job.State.Terminal() {
		if err := s.replaySamples(w, job); err != nil {
			slog.Error("Failed to replay samples", "run_id", runID, "error", err)
			return
		}
	}

	initial := SampleEvent{
		RunID:     job.ID,
		State:     job.State,
		Samples:   job.Samples,
		Error:     job.Error,
		Timestamp: time.Now(),
	}
	if err := writeSSEEvent(w, initial); err != nil {
		slog.Error("Failed to write initial SSE event", "error", err)
		return
	}
	flusher.Flush()

	if job.State.Terminal() {
		return
	}

	pingTicker := time.NewTicker(30 * time.Second)
	defer pingTicker.Stop()

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			slog.Debug("SSE client disconnected", "run_id", runID)
			return

		case event, ok := <-events:
			if !ok {
				return
			}
			if err := writeSSEEvent(w, event); err != nil {
				slog.Error("Failed to write SSE event", "error", err)
				return
			}
			flusher.Flush()
			if event.State.Terminal() {
				return
			}

		case <-pingTicker.C:
			fmt.Fprintf(w, ": ping\n\n")
			flusher.Flush()
		}
	}
}

// replaySamples writes the logged samples of a finished run as running
// events, in the order they were computed. Runs without a log are skipped.
func (s *Server) replaySamples(w http.ResponseWriter, job Job) error {
	if s.store == nil {
		return nil
	}
	entries, err := s.store.LoadSamples(job.ID)
	if errors.Is(err, store.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	for i, entry := range entries {
		event := SampleEvent{
			RunID:     job.ID,
			State:     StateRunning,
			Label:     entry.Label,
			Frame:     entry.Frame,
			MSE:       entry.MSE,
			Samples:   i + 1,
			Timestamp: entry.Timestamp,
		}
		if err := writeSSEEvent(w, event); err != nil {
			return err
		}
	}
	return nil
}

// writeSSEEvent writes an event in SSE format
func writeSSEEvent(w http.ResponseWriter, event SampleEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	_, err = fmt.Fprintf(w, "data: %s\n\n", data)
	return err
}
