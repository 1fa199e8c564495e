package server

import "net/http"

// registerRoutes sets up all HTTP routes on the server mux.
func (s *Server) registerRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /health", s.handleHealth)

	if s.runs != nil {
		mux.HandleFunc("GET /api/runs", s.handleListRuns)
		mux.HandleFunc("GET /api/runs/{id}", s.handleGetRun)
		mux.HandleFunc("GET /api/worlds/{world}", s.handleWorld)
		mux.HandleFunc("GET /api/worlds/{world}/history", s.handleMetricHistory)
	}
	mux.HandleFunc("GET /api/", handleNotFound)

	if s.staticDir != "" {
		mux.Handle("GET /", http.FileServer(http.Dir(s.staticDir)))
		return
	}
	mux.HandleFunc("GET /", handleNotFound)
}
