package console

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func (s *Server) registerHandlers() {
	s.router.HandleFunc("GET /{$}", s.handleRoot)
	s.router.HandleFunc("GET /workspaces/{ws}/applications", s.handleApplications)
	s.router.HandleFunc("GET /workspaces/{ws}/applications/{app}", s.handleApplication)
	s.router.HandleFunc("GET /workspaces/{ws}/snapshots", s.handleSnapshots)
	s.router.HandleFunc("GET /workspaces/{ws}/snapshots/{name}", s.handleSnapshot)
	s.router.HandleFunc("POST /workspaces/{ws}/snapshots/{name}/rerun", s.handleRerun)
	s.router.HandleFunc("GET /api/v1/workspaces/{ws}/snapshots/{name}/errors", s.handleSnapshotErrors)

	s.router.HandleFunc("GET /healthz", s.handleHealth)
	s.router.Handle("GET /metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}
