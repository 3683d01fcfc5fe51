package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/tripshare/backend/spec"
)

// readyTimeout bounds the database ping behind /readyz.
const readyTimeout = 2 * time.Second

type healthResponse struct {
	Status string `json:"status"`
}

// GetHealth handles GET /healthz.
// It returns HTTP 200 with {"status":"ok"} when the server is running.
func (s *Server) GetHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{Status: "ok"})
}

// GetReady handles GET /readyz. It reports 503 until the database answers.
func (s *Server) GetReady(w http.ResponseWriter, r *http.Request) {
	if s.db != nil {
		ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
		defer cancel()
		if err := s.db.Ping(ctx); err != nil {
			s.log.WarnContext(r.Context(), "readiness check failed", "error", err)
			writeError(w, http.StatusServiceUnavailable, "unavailable", "database unreachable")
			return
		}
	}
	writeJSON(w, http.StatusOK, healthResponse{Status: "ok"})
}

// GetOpenAPI serves the embedded API document.
func (s *Server) GetOpenAPI(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/yaml")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(spec.OpenAPI)
}
