// Package server exposes comparison runs over HTTP: starting jobs,
// streaming their samples, rendering plots and browsing saved runs.
package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/cwbudde/msecompare/internal/aggregate"
	"github.com/cwbudde/msecompare/internal/report"
	"github.com/cwbudde/msecompare/internal/store"
)

// Server represents the HTTP server
type Server struct {
	jobManager *JobManager
	store      store.Store
	addr       string
	server     *http.Server

	baseCtx context.Context
	cancel  context.CancelFunc
}

// NewServer creates a new HTTP server. runStore may be nil, in which case
// runs live in memory only.
func NewServer(addr string, runStore store.Store) *Server {
	if fs, ok := runStore.(*store.FSStore); ok && fs == nil {
		runStore = nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &Server{
		jobManager: NewJobManager(),
		store:      runStore,
		addr:       addr,
		baseCtx:    ctx,
		cancel:     cancel,
	}
	s.server = &http.Server{
		Addr:    addr,
		Handler: s.Handler(),
	}
	return s
}

// Handler returns the routed handler wrapped in middleware
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/", s.handleIndex)
	mux.HandleFunc("/api/v1/runs", s.handleRuns)
	mux.HandleFunc("/api/v1/runs/", s.handleRunsWithID)

	return s.loggingMiddleware(s.corsMiddleware(mux))
}

// Start starts the HTTP server and blocks until it stops
func (s *Server) Start() error {
	slog.Info("Starting HTTP server", "addr", s.addr)
	return s.server.ListenAndServe()
}

// Shutdown cancels running jobs and gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	running := s.jobManager.GetRunningJobs()
	ids := make([]string, len(running))
	for i, job := range running {
		ids[i] = job.ID
	}
	slog.Info("Shutting down HTTP server", "running_jobs", len(running), "job_ids", ids)
	s.cancel()
	s.jobManager.CancelAll()
	return s.server.Shutdown(ctx)
}

// handleRuns handles /api/v1/runs
func (s *Server) handleRuns(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		s.handleCreateRun(w, r)
	case http.MethodGet:
		s.handleListRuns(w, r)
	default:
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
	}
}

// handleRunsWithID handles /api/v1/runs/:id/*
func (s *Server) handleRunsWithID(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/v1/runs/")
	parts := strings.Split(path, "/")
	if len(parts) == 0 || parts[0] == "" {
		writeError(w, http.StatusBadRequest, "Run ID required")
		return
	}

	runID := parts[0]
	if !validRunID(runID) {
		writeError(w, http.StatusBadRequest, "Invalid run ID")
		return
	}
	sub := ""
	if len(parts) > 1 {
		sub = parts[1]
	}

	switch {
	case sub == "" && r.Method == http.MethodGet:
		s.handleGetRun(w, r, runID)
	case sub == "" && r.Method == http.MethodDelete:
		s.handleDeleteRun(w, r, runID)
	case sub == "plot.png" && r.Method == http.MethodGet:
		s.handleGetPlot(w, r, runID)
	case sub == "stream" && r.Method == http.MethodGet:
		s.handleRunStream(w, r, runID)
	case sub == "cancel" && r.Method == http.MethodPost:
		s.handleCancelRun(w, r, runID)
	case sub == "" || sub == "plot.png" || sub == "stream" || sub == "cancel":
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
	default:
		writeError(w, http.StatusNotFound, "Not found")
	}
}

// handleCreateRun handles POST /api/v1/runs
func (s *Server) handleCreateRun(w http.ResponseWriter, r *http.Request) {
	exp, err := decodeExperiment(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	job := s.jobManager.CreateJob(exp)
	s.startJob(job.ID)

	writeJSON(w, http.StatusCreated, job)
}

func decodeExperiment(r *http.Request) (aggregate.Experiment, error) {
	var exp aggregate.Experiment
	if err := json.NewDecoder(r.Body).Decode(&exp); err != nil {
		return exp, fmt.Errorf("invalid JSON: %w", err)
	}
	if err := exp.Validate(); err != nil {
		return exp, err
	}
	return exp, nil
}

func (s *Server) startJob(jobID string) {
	ctx := s.jobManager.jobContext(s.baseCtx, jobID)
	go runJob(ctx, s.jobManager, s.store, jobID)
}

// handleListRuns handles GET /api/v1/runs
func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	summaries, err := s.listRuns()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, summaries)
}

// handleGetRun handles GET /api/v1/runs/:id
func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request, runID string) {
	job, found, err := s.lookupRun(runID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if !found {
		writeError(w, http.StatusNotFound, "Run not found")
		return
	}
	writeJSON(w, http.StatusOK, job)
}

// handleDeleteRun handles DELETE /api/v1/runs/:id for saved runs
func (s *Server) handleDeleteRun(w http.ResponseWriter, r *http.Request, runID string) {
	if job, ok := s.jobManager.GetJob(runID); ok && !job.State.Terminal() {
		writeError(w, http.StatusConflict, "Run is still in progress")
		return
	}
	if s.store == nil {
		writeError(w, http.StatusNotFound, "Run not found")
		return
	}

	err := s.store.DeleteRun(runID)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "Run not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	s.jobManager.UpdateJob(runID, func(j *Job) { j.Saved = false })
	w.WriteHeader(http.StatusNoContent)
}

// cancelWait bounds how long a cancel request waits for the worker to stop.
var cancelWait = 5 * time.Second

// handleCancelRun handles POST /api/v1/runs/:id/cancel. It replies 200 with
// the final state once the worker has stopped, or 202 with the current
// state if it has not stopped within cancelWait.
func (s *Server) handleCancelRun(w http.ResponseWriter, r *http.Request, runID string) {
	if _, ok := s.jobManager.GetJob(runID); !ok {
		writeError(w, http.StatusNotFound, "Run not found")
		return
	}
	done, err := s.jobManager.CancelJob(runID)
	if err != nil {
		writeError(w, http.StatusConflict, err.Error())
		return
	}

	if done != nil {
		timer := time.NewTimer(cancelWait)
		defer timer.Stop()
		select {
		case <-done:
		case <-timer.C:
		case <-r.Context().Done():
		}
	}

	job, _ := s.jobManager.GetJob(runID)
	status := http.StatusOK
	if !job.State.Terminal() {
		status = http.StatusAccepted
	}
	writeJSON(w, status, summarizeJob(job))
}

// handleGetPlot handles GET /api/v1/runs/:id/plot.png?smooth=N
func (s *Server) handleGetPlot(w http.ResponseWriter, r *http.Request, runID string) {
	job, found, err := s.lookupRun(runID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if !found {
		writeError(w, http.StatusNotFound, "Run not found")
		return
	}
	if job.Result == nil {
		writeError(w, http.StatusNotFound, "No results yet")
		return
	}

	smooth := 0
	if raw := r.URL.Query().Get("smooth"); raw != "" {
		smooth, err = strconv.Atoi(raw)
		if err != nil || smooth < 0 {
			writeError(w, http.StatusBadRequest, "smooth must be a non-negative integer")
			return
		}
	}

	var buf bytes.Buffer
	plotter := report.NewPlotter("", smooth)
	if err := plotter.Render(&buf, job.Result, "png"); err != nil {
		if errors.Is(err, report.ErrNothingToPlot) {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-cache")
	if _, err := buf.WriteTo(w); err != nil {
		slog.Error("Failed to write plot", "error", err)
	}
}

// corsMiddleware adds CORS headers
func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// loggingMiddleware logs HTTP requests
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		slog.Debug("HTTP request", "method", r.Method, "path", r.URL.Path, "duration", time.Since(start))
	})
}
