package server

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/cwbudde/msecompare/internal/aggregate"
	"github.com/cwbudde/msecompare/internal/store"
)

// missingRunID is a well-formed run ID that no test creates.
const missingRunID = "0f1e2d3c-4b5a-4000-a000-00000000beef"

func newTestStore(t *testing.T) *store.FSStore {
	t.Helper()
	runStore, err := store.NewFSStore(t.TempDir())
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	return runStore
}

// waitForState polls until the job reaches a terminal state.
func waitForState(t *testing.T, s *Server, id string) Job {
	t.Helper()

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		job, ok := s.jobManager.GetJob(id)
		if ok && job.State.Terminal() {
			return job
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("Job %s did not finish in time", id)
	return Job{}
}

func TestServer_CreateRun(t *testing.T) {
	s := NewServer(":8080", nil)
	defer s.Shutdown(context.Background())

	body, _ := json.Marshal(createTestExperiment(t))
	req := httptest.NewRequest(http.MethodPost, "/api/v1/runs", bytes.NewReader(body))
	w := httptest.NewRecorder()

	s.Handler().ServeHTTP(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("Expected status 201, got %d: %s", w.Code, w.Body.String())
	}

	var job Job
	if err := json.NewDecoder(w.Body).Decode(&job); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if job.ID == "" {
		t.Error("Job ID should not be empty")
	}
	if job.State != StatePending {
		t.Errorf("Expected pending state in response, got %s", job.State)
	}

	final := waitForState(t, s, job.ID)
	if final.State != StateCompleted {
		t.Errorf("Expected completed, got %s (%s)", final.State, final.Error)
	}
}

func TestServer_CreateRun_BadRequest(t *testing.T) {
	s := NewServer(":8080", nil)

	tests := []struct {
		name string
		body string
	}{
		{"invalid json", "{"},
		{"missing reference", `{"series":[{"label":"A","pattern":"*.ppm"}]}`},
		{"no series", `{"reference":"ref.ppm"}`},
		{"duplicate labels", `{"reference":"ref.ppm","series":[{"label":"A","pattern":"a"},{"label":"A","pattern":"b"}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/v1/runs", strings.NewReader(tt.body))
			w := httptest.NewRecorder()

			s.Handler().ServeHTTP(w, req)

			if w.Code != http.StatusBadRequest {
				t.Errorf("Expected status 400, got %d", w.Code)
			}

			var resp map[string]string
			if err := json.NewDecoder(w.Body).Decode(&resp); err != nil || resp["error"] == "" {
				t.Errorf("Expected JSON error body, got %q", w.Body.String())
			}
		})
	}

	if len(s.jobManager.ListJobs()) != 0 {
		t.Error("Rejected requests should not create jobs")
	}
}

func TestServer_ListRuns(t *testing.T) {
	runStore := newTestStore(t)
	s := NewServer(":8080", runStore)

	// One saved run from an earlier server, one in-memory job
	saved := store.NewRun("saved-run", createTestExperiment(t), &aggregate.Result{
		Series: []aggregate.SeriesResult{
			{Label: "Jitter", Samples: []aggregate.Sample{{Frame: 1, MSE: 12}}},
			{Label: "Random", Samples: []aggregate.Sample{{Frame: 1, MSE: 48}}},
		},
	})
	if err := runStore.SaveRun(saved); err != nil {
		t.Fatalf("SaveRun failed: %v", err)
	}
	job := s.jobManager.CreateJob(createTestExperiment(t))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/runs", nil)
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}

	var summaries []RunSummary
	if err := json.NewDecoder(w.Body).Decode(&summaries); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if len(summaries) != 2 {
		t.Fatalf("Expected 2 runs, got %d", len(summaries))
	}
	if summaries[0].ID != job.ID || summaries[0].State != StatePending {
		t.Errorf("In-memory job should come first: %+v", summaries[0])
	}
	if summaries[1].ID != "saved-run" || !summaries[1].Saved || summaries[1].Samples != 2 {
		t.Errorf("Unexpected saved run summary: %+v", summaries[1])
	}
}

func TestServer_ListRuns_Deduplicates(t *testing.T) {
	s := NewServer(":8080", newTestStore(t))
	job := s.jobManager.CreateJob(createTestExperiment(t))

	if err := runJob(context.Background(), s.jobManager, s.store, job.ID); err != nil {
		t.Fatalf("runJob failed: %v", err)
	}

	summaries, err := s.listRuns()
	if err != nil {
		t.Fatalf("listRuns failed: %v", err)
	}
	if len(summaries) != 1 {
		t.Fatalf("Completed job and its saved run should be listed once, got %d", len(summaries))
	}
	if !summaries[0].Saved || summaries[0].State != StateCompleted {
		t.Errorf("Unexpected summary: %+v", summaries[0])
	}
}

func TestServer_GetRun(t *testing.T) {
	s := NewServer(":8080", nil)
	job := s.jobManager.CreateJob(createTestExperiment(t))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/runs/"+job.ID, nil)
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}

	var got Job
	if err := json.NewDecoder(w.Body).Decode(&got); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if got.ID != job.ID || got.State != StatePending {
		t.Errorf("Unexpected job: %+v", got)
	}
	if got.Result != nil {
		t.Error("Pending job should have no result")
	}
}

func TestServer_GetRun_FromStore(t *testing.T) {
	runStore := newTestStore(t)
	exp := createTestExperiment(t)

	// Run on one server, read back from a fresh one sharing the store
	first := NewServer(":8080", runStore)
	job := first.jobManager.CreateJob(exp)
	if err := runJob(context.Background(), first.jobManager, runStore, job.ID); err != nil {
		t.Fatalf("runJob failed: %v", err)
	}

	s := NewServer(":8080", runStore)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/runs/"+job.ID, nil)
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}

	var got Job
	if err := json.NewDecoder(w.Body).Decode(&got); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if got.State != StateCompleted || !got.Saved {
		t.Errorf("Saved run should be reported as completed: %+v", got)
	}
	if got.Result == nil || got.Result.FrameCount() != 6 {
		t.Errorf("Unexpected result: %+v", got.Result)
	}
}

func TestServer_GetRun_NotFound(t *testing.T) {
	for _, runStore := range []store.Store{nil, newTestStore(t), (*store.FSStore)(nil)} {
		s := NewServer(":8080", runStore)

		base := "/api/v1/runs/" + missingRunID
		for _, path := range []string{base, base + "/plot.png", base + "/stream"} {
			req := httptest.NewRequest(http.MethodGet, path, nil)
			w := httptest.NewRecorder()
			s.Handler().ServeHTTP(w, req)

			if w.Code != http.StatusNotFound {
				t.Errorf("%s: expected status 404, got %d", path, w.Code)
			}
		}
	}
}

func TestServer_RoutingErrors(t *testing.T) {
	s := NewServer(":8080", nil)

	tests := []struct {
		method string
		path   string
		want   int
	}{
		{http.MethodPut, "/api/v1/runs", http.StatusMethodNotAllowed},
		{http.MethodGet, "/api/v1/runs/", http.StatusBadRequest},
		{http.MethodGet, "/api/v1/runs/" + missingRunID + "/unknown", http.StatusNotFound},
		{http.MethodPost, "/api/v1/runs/" + missingRunID + "/plot.png", http.StatusMethodNotAllowed},
		{http.MethodGet, "/api/v1/runs/" + missingRunID + "/cancel", http.StatusMethodNotAllowed},
		{http.MethodGet, "/api/v1/runs/abc", http.StatusBadRequest},
		{http.MethodGet, "/api/v1/runs/" + strings.ToUpper(missingRunID), http.StatusBadRequest},
		{http.MethodOptions, "/api/v1/runs", http.StatusOK},
		{http.MethodGet, "/favicon.ico", http.StatusNotFound},
	}

	for _, tt := range tests {
		req := httptest.NewRequest(tt.method, tt.path, nil)
		w := httptest.NewRecorder()
		s.Handler().ServeHTTP(w, req)

		if w.Code != tt.want {
			t.Errorf("%s %s: expected %d, got %d", tt.method, tt.path, tt.want, w.Code)
		}
	}
}

func TestServer_GetPlot(t *testing.T) {
	s := NewServer(":8080", nil)
	job := s.jobManager.CreateJob(createTestExperiment(t))
	if err := runJob(context.Background(), s.jobManager, nil, job.ID); err != nil {
		t.Fatalf("runJob failed: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/runs/"+job.ID+"/plot.png?smooth=2", nil)
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
	}
	if ct := w.Header().Get("Content-Type"); ct != "image/png" {
		t.Errorf("Expected image/png, got %s", ct)
	}
	if !bytes.HasPrefix(w.Body.Bytes(), []byte("\x89PNG\r\n\x1a\n")) {
		t.Error("Response is not a PNG")
	}
}

func TestServer_GetPlot_Errors(t *testing.T) {
	s := NewServer(":8080", nil)

	pending := s.jobManager.CreateJob(createTestExperiment(t))
	req := httptest.NewRequest(http.MethodGet, "/api/v1/runs/"+pending.ID+"/plot.png", nil)
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	if w.Code != http.StatusNotFound {
		t.Errorf("Pending job: expected 404, got %d", w.Code)
	}

	done := s.jobManager.CreateJob(createTestExperiment(t))
	if err := runJob(context.Background(), s.jobManager, nil, done.ID); err != nil {
		t.Fatalf("runJob failed: %v", err)
	}
	for _, smooth := range []string{"abc", "-1"} {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/runs/"+done.ID+"/plot.png?smooth="+smooth, nil)
		w := httptest.NewRecorder()
		s.Handler().ServeHTTP(w, req)
		if w.Code != http.StatusBadRequest {
			t.Errorf("smooth=%s: expected 400, got %d", smooth, w.Code)
		}
	}

	// Identical frames give all-zero MSE, which a log axis cannot show
	zero := s.jobManager.CreateJob(createTestExperiment(t))
	s.jobManager.UpdateJob(zero.ID, func(j *Job) {
		j.State = StateCompleted
		j.Result = &aggregate.Result{Series: []aggregate.SeriesResult{
			{Label: "Jitter", Samples: []aggregate.Sample{{Frame: 1, MSE: 0}}},
		}}
	})
	req = httptest.NewRequest(http.MethodGet, "/api/v1/runs/"+zero.ID+"/plot.png", nil)
	w = httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	if w.Code != http.StatusNotFound {
		t.Errorf("Nothing to plot: expected 404, got %d", w.Code)
	}
}

func TestServer_CancelRun(t *testing.T) {
	s := NewServer(":8080", nil)
	job := s.jobManager.CreateJob(createTestExperiment(t))
	ctx := s.jobManager.jobContext(context.Background(), job.ID)

	// The worker only starts once cancellation was requested
	workerErr := make(chan error, 1)
	go func() {
		<-ctx.Done()
		workerErr <- runJob(ctx, s.jobManager, nil, job.ID)
	}()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/runs/"+job.ID+"/cancel", nil)
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
	}
	var summary RunSummary
	if err := json.NewDecoder(w.Body).Decode(&summary); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if summary.State != StateCancelled {
		t.Errorf("Response should carry the final state, got %s", summary.State)
	}

	if err := <-workerErr; err == nil {
		t.Error("Cancelled job should not succeed")
	}
	if final, _ := s.jobManager.GetJob(job.ID); final.State != StateCancelled {
		t.Errorf("Expected cancelled, got %s", final.State)
	}

	// A finished job cannot be cancelled again
	w = httptest.NewRecorder()
	s.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/v1/runs/"+job.ID+"/cancel", nil))
	if w.Code != http.StatusConflict {
		t.Errorf("Expected status 409, got %d", w.Code)
	}

	w = httptest.NewRecorder()
	s.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/v1/runs/"+missingRunID+"/cancel", nil))
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", w.Code)
	}
}

func TestServer_DeleteRun(t *testing.T) {
	runStore := newTestStore(t)
	s := NewServer(":8080", runStore)
	job := s.jobManager.CreateJob(createTestExperiment(t))
	if err := runJob(context.Background(), s.jobManager, runStore, job.ID); err != nil {
		t.Fatalf("runJob failed: %v", err)
	}

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/runs/"+job.ID, nil)
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)

	if w.Code != http.StatusNoContent {
		t.Fatalf("Expected status 204, got %d: %s", w.Code, w.Body.String())
	}
	if _, err := runStore.LoadRun(job.ID); err == nil {
		t.Error("Run should be removed from the store")
	}
	if updated, _ := s.jobManager.GetJob(job.ID); updated.Saved {
		t.Error("Job should no longer be marked as saved")
	}

	w = httptest.NewRecorder()
	s.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/api/v1/runs/"+job.ID, nil))
	if w.Code != http.StatusNotFound {
		t.Errorf("Second delete: expected 404, got %d", w.Code)
	}

	pending := s.jobManager.CreateJob(createTestExperiment(t))
	w = httptest.NewRecorder()
	s.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/api/v1/runs/"+pending.ID, nil))
	if w.Code != http.StatusConflict {
		t.Errorf("Pending job: expected 409, got %d", w.Code)
	}
}

func TestServer_RunStream_SSE(t *testing.T) {
	s := NewServer(":8080", nil)
	defer s.Shutdown(context.Background())

	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	job := s.jobManager.CreateJob(createTestExperiment(t))

	resp, err := http.Get(ts.URL + "/api/v1/runs/" + job.ID + "/stream")
	if err != nil {
		t.Fatalf("Stream request failed: %v", err)
	}
	defer resp.Body.Close()

	if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Errorf("Expected text/event-stream content type, got %s", ct)
	}

	// Start the job only after the client is attached so no sample is missed
	events := make(chan SampleEvent, 16)
	go func() {
		defer close(events)
		scanner := bufio.NewScanner(resp.Body)
		for scanner.Scan() {
			line := scanner.Text()
			if !strings.HasPrefix(line, "data: ") {
				continue
			}
			var event SampleEvent
			if err := json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &event); err == nil {
				events <- event
			}
		}
	}()

	first := <-events
	if first.State != StatePending {
		t.Fatalf("Expected initial pending event, got %+v", first)
	}
	s.startJob(job.ID)

	samples := 0
	var last SampleEvent
	timeout := time.After(5 * time.Second)
	for done := false; !done; {
		select {
		case event, ok := <-events:
			if !ok {
				done = true
				break
			}
			last = event
			if event.Label != "" {
				samples++
			}
		case <-timeout:
			t.Fatal("Timed out waiting for stream to end")
		}
	}

	if samples != 6 {
		t.Errorf("Expected 6 sample events, got %d", samples)
	}
	if last.State != StateCompleted {
		t.Errorf("Stream should end with completed event, got %+v", last)
	}
}

func TestServer_RunStream_FinishedRun(t *testing.T) {
	s := NewServer(":8080", nil)
	job := s.jobManager.CreateJob(createTestExperiment(t))
	if err := runJob(context.Background(), s.jobManager, nil, job.ID); err != nil {
		t.Fatalf("runJob failed: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/runs/"+job.ID+"/stream", nil)
	w := httptest.NewRecorder()
	s.handleRunStream(w, req, job.ID)

	body := w.Body.String()
	if strings.Count(body, "data: ") != 1 {
		t.Errorf("Finished run should produce a single event, got %q", body)
	}
	if !strings.Contains(body, `"state":"completed"`) {
		t.Errorf("Expected completed state, got %q", body)
	}
}

func TestServer_CancelRun_WorkerSlow(t *testing.T) {
	original := cancelWait
	cancelWait = 10 * time.Millisecond
	defer func() { cancelWait = original }()

	s := NewServer(":8080", nil)
	job := s.jobManager.CreateJob(createTestExperiment(t))
	s.jobManager.jobContext(context.Background(), job.ID)
	defer s.jobManager.release(job.ID)

	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/v1/runs/"+job.ID+"/cancel", nil))

	if w.Code != http.StatusAccepted {
		t.Fatalf("Expected status 202, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"state":"pending"`) {
		t.Errorf("Expected current pending state, got %s", w.Body.String())
	}
}

func TestServer_RejectsPathLikeRunIDs(t *testing.T) {
	runStore := newTestStore(t)
	s := NewServer(":8080", runStore)

	job := s.jobManager.CreateJob(createTestExperiment(t))
	if err := runJob(context.Background(), s.jobManager, runStore, job.ID); err != nil {
		t.Fatalf("runJob failed: %v", err)
	}

	for _, id := range []string{"%2e", "%2E%2E", "%2e%2e%2fruns", "..%5c..", "saved-run"} {
		for _, method := range []string{http.MethodDelete, http.MethodGet} {
			w := httptest.NewRecorder()
			s.Handler().ServeHTTP(w, httptest.NewRequest(method, "/api/v1/runs/"+id, nil))
			if w.Code != http.StatusBadRequest {
				t.Errorf("%s %s: expected 400, got %d", method, id, w.Code)
			}
		}
	}

	if _, err := runStore.LoadRun(job.ID); err != nil {
		t.Errorf("Saved run should survive: %v", err)
	}
}

func TestServer_RunStream_ReplaysSavedSamples(t *testing.T) {
	runStore := newTestStore(t)
	s := NewServer(":8080", runStore)
	job := s.jobManager.CreateJob(createTestExperiment(t))
	if err := runJob(context.Background(), s.jobManager, runStore, job.ID); err != nil {
		t.Fatalf("runJob failed: %v", err)
	}

	// A fresh server only knows the run from the store
	restarted := NewServer(":8080", runStore)
	w := httptest.NewRecorder()
	restarted.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/runs/"+job.ID+"/stream", nil))

	var events []SampleEvent
	for _, line := range strings.Split(w.Body.String(), "\n") {
		if !strings.HasPrefix(line, "data: ") {
			continue
		}
		var event SampleEvent
		if err := json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &event); err != nil {
			t.Fatalf("Bad event %q: %v", line, err)
		}
		events = append(events, event)
	}

	if len(events) != 7 {
		t.Fatalf("Expected 6 samples and a final event, got %d: %+v", len(events), events)
	}
	if events[0].Label != "Jitter" || events[0].MSE != 12 || events[5].Label != "Random" || events[5].MSE != 48 {
		t.Errorf("Unexpected replayed samples: %+v", events[:6])
	}
	if last := events[6]; last.State != StateCompleted || last.Samples != 6 {
		t.Errorf("Unexpected final event: %+v", last)
	}
}

func TestServer_ShutdownCancelsRunningJobs(t *testing.T) {
	s := NewServer(":0", nil)
	job := s.jobManager.CreateJob(createTestExperiment(t))
	ctx := s.jobManager.jobContext(s.baseCtx, job.ID)
	s.jobManager.UpdateJob(job.ID, func(j *Job) { j.State = StateRunning })

	if err := s.Shutdown(context.Background()); err != nil {
		t.Fatalf("Shutdown failed: %v", err)
	}
	if ctx.Err() == nil {
		t.Error("Running job should be cancelled on shutdown")
	}
}

func TestEventBroadcaster(t *testing.T) {
	eb := NewEventBroadcaster()

	ch := eb.Subscribe("run1")
	defer eb.Unsubscribe("run1", ch)

	eb.Broadcast(SampleEvent{
		RunID:     "run1",
		State:     StateRunning,
		Label:     "Jitter",
		Frame:     4,
		MSE:       12.5,
		Samples:   1,
		Timestamp: time.Now(),
	})

	select {
	case received := <-ch:
		if received.RunID != "run1" || received.Frame != 4 || received.MSE != 12.5 {
			t.Errorf("Unexpected event: %+v", received)
		}
	case <-time.After(time.Second):
		t.Error("Timeout waiting for event")
	}

	// Late subscribers get the last event replayed
	late := eb.Subscribe("run1")
	select {
	case replayed := <-late:
		if replayed.Frame != 4 {
			t.Errorf("Expected replay of frame 4, got %+v", replayed)
		}
	default:
		t.Error("Late subscriber should receive the last event")
	}

	eb.CleanupJob("run1")
	if _, ok := <-late; ok {
		t.Error("Channel should be closed after cleanup")
	}
}

func TestServer_Index(t *testing.T) {
	s := NewServer(":8080", nil)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "No runs yet") {
		t.Error("Empty index should say there are no runs")
	}

	exp := createTestExperiment(t)
	exp.Title = "<Sampling>"
	job := s.jobManager.CreateJob(exp)
	if err := runJob(context.Background(), s.jobManager, nil, job.ID); err != nil {
		t.Fatalf("runJob failed: %v", err)
	}

	w = httptest.NewRecorder()
	s.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	body := w.Body.String()
	if ct := w.Header().Get("Content-Type"); ct != "text/html; charset=utf-8" {
		t.Errorf("Unexpected content type %s", ct)
	}
	for _, want := range []string{job.ID, "Jitter, Random", "&lt;Sampling&gt;", fmt.Sprintf("/api/v1/runs/%s/plot.png", job.ID)} {
		if !strings.Contains(body, want) {
			t.Errorf("Index missing %q", want)
		}
	}
}
