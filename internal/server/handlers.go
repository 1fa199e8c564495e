package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/soyeahso/d20stats/internal/emit"
	"github.com/soyeahso/d20stats/internal/store"
	"github.com/soyeahso/d20stats/internal/version"
)

// HealthResponse is returned by the health endpoint.
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
	History bool   `json:"history"`
}

// defaultRunLimit caps /api/runs when no limit is given.
const defaultRunLimit = 50

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:  "ok",
		Version: version.Version,
		History: s.runs != nil,
	})
}

func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	limit := defaultRunLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		limit = n
	}

	runs, err := s.runs.ListRuns(r.Context(), r.URL.Query().Get("world"), limit)
	if err != nil {
		s.storeError(w, err)
		return
	}
	if runs == nil {
		runs = []store.RunSummary{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"runs": runs})
}

func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	run, err := s.runs.LoadRun(r.Context(), r.PathValue("id"))
	if err != nil {
		s.storeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, run)
}

// handleWorld serves the latest run of a world in the keyed viewer shape.
func (s *Server) handleWorld(w http.ResponseWriter, r *http.Request) {
	run, err := s.runs.LatestRun(r.Context(), r.PathValue("world"))
	if err != nil {
		s.storeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, emit.Keyed(run.Bundle))
}

func (s *Server) handleMetricHistory(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	slice, metric := q.Get("slice"), q.Get("metric")
	if metric == "" {
		writeError(w, http.StatusBadRequest, "metric is required")
		return
	}
	if slice == "" {
		slice = s.allLabel
	}

	points, err := s.runs.MetricHistory(r.Context(), r.PathValue("world"), slice, metric)
	if err != nil {
		s.storeError(w, err)
		return
	}
	if points == nil {
		points = []store.MetricPoint{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"slice": slice, "metric": metric, "points": points})
}

func (s *Server) storeError(w http.ResponseWriter, err error) {
	if errors.Is(err, store.ErrRunNotFound) {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	s.log.Error().Err(err).Msg("history query failed")
	writeError(w, http.StatusInternalServerError, "history query failed")
}

// handleNotFound returns a 404 for unknown routes.
func handleNotFound(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusNotFound)
	json.NewEncoder(w).Encode(map[string]string{
		"error": "not found",
		"path":  r.URL.Path,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
