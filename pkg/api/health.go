package api

import (
	"context"
	"net/http"
	"time"
)

// readyPingTimeout bounds the database probe of /ready
const readyPingTimeout = 5 * time.Second

// healthResponse is the /health liveness payload
type healthResponse struct {
	Status string `json:"status"`
	Uptime int64  `json:"uptime"`
}

// handleHealth implements the /health endpoint. It answers 200 whenever
// the process is alive, regardless of database state.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{
		Status: "ok",
		Uptime: int64(time.Since(s.started).Seconds()),
	})
}

// handleReady implements the /ready endpoint. The service is ready only
// when the database answers a ping.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readyPingTimeout)
	defer cancel()

	if err := s.store.Ping(ctx); err != nil {
		s.logger.Warn().Err(err).Msg("Readiness probe failed")
		writeError(w, http.StatusServiceUnavailable, "not_ready", "database is unreachable")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}
