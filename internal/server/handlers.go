package server

import (
	"encoding/json"
	"net/http"
)

// handleDashboard renders the current snapshot: cached when fresh, fetched
// otherwise. A failed cycle renders the inline error message instead of data.
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	snap := s.client.Current(r.Context())

	s.renderPage(w, newPageView(snap))
}

// handleRefresh re-runs the full cycle synchronously, blocking the caller
// until complete. Success redirects back to the dashboard; failure renders
// the error view and leaves the cached snapshot untouched.
func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	snap := s.client.Refresh(r.Context())
	if !snap.Failed() {
		http.Redirect(w, r, "/", http.StatusSeeOther)

		return
	}

	s.renderPage(w, newPageView(snap))
}

// handleSnapshot serves the current snapshot in the wire schema.
func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	snap := s.client.Current(r.Context())

	w.Header().Set("Content-Type", "application/json")

	if err := json.NewEncoder(w).Encode(snap); err != nil {
		s.log.Error("failed to encode snapshot", "error", err)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}

func (s *Server) renderPage(w http.ResponseWriter, view pageView) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")

	if err := s.tmpl.Execute(w, view); err != nil {
		s.log.Error("failed to render dashboard", "error", err)
	}
}
