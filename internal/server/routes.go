package server

import (
	"net/http"
)

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() *http.ServeMux {
	mux := http.NewServeMux()

	// WebSocket route
	mux.HandleFunc("/ws", s.app.WSHandler.HandleWebSocket)

	// API routes - Jobs
	mux.HandleFunc("/api/jobs", s.handleJobsRoute)               // GET (list), POST (submit)
	mux.HandleFunc("/api/jobs/", s.app.JobHandler.StatusHandler) // GET /{id}

	// API routes - Credits
	mux.HandleFunc("/api/credits/", s.app.CreditHandler.BalanceHandler) // GET /{ownerId}

	// API routes - Artifacts
	mux.HandleFunc("/api/artifacts/", s.app.ArtifactHandler.DownloadHandler) // GET /{resultRef}

	// API routes - System
	mux.HandleFunc("/api/health", s.app.APIHandler.HealthHandler)
	mux.HandleFunc("/api/version", s.app.APIHandler.VersionHandler)

	// Catch-all for unknown API paths
	mux.HandleFunc("/", s.app.APIHandler.NotFoundHandler)

	return mux
}

// handleJobsRoute dispatches /api/jobs by method
func (s *Server) handleJobsRoute(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		s.app.JobHandler.SubmitHandler(w, r)
	case http.MethodGet:
		s.app.JobHandler.ListHandler(w, r)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}
