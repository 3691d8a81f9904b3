package server

import (
	"log/slog"
	"net/http"

	"github.com/a-h/templ"

	"github.com/cwbudde/msecompare/internal/ui"
)

// handleIndex handles GET /
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	summaries, err := s.listRuns()
	if err != nil {
		slog.Error("Failed to list runs", "error", err)
		http.Error(w, "Failed to list runs", http.StatusInternalServerError)
		return
	}

	items := make([]ui.RunListItem, len(summaries))
	for i, run := range summaries {
		items[i] = ui.RunListItem{
			ID:        run.ID,
			State:     string(run.State),
			Title:     run.Title,
			Reference: run.Reference,
			Labels:    run.Labels,
			Samples:   run.Samples,
			Error:     run.Error,
		}
	}

	templ.Handler(ui.RunList(items)).ServeHTTP(w, r)
}
