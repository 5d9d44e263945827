package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

// Pinger reports whether a backing store is reachable. *pgxpool.Pool satisfies it.
type Pinger interface {
	Ping(ctx context.Context) error
}

const healthTimeout = 2 * time.Second

// HealthHandler serves the unauthenticated liveness probe.
type HealthHandler struct {
	db     Pinger
	logger zerolog.Logger
}

// NewHealthHandler creates a health handler. A nil db reports healthy unconditionally.
func NewHealthHandler(db Pinger, logger zerolog.Logger) *HealthHandler {
	return &HealthHandler{
		db:     db,
		logger: logger.With().Str("handler", "health").Logger(),
	}
}

type healthResponse struct {
	Status   string `json:"status"`
	Database string `json:"database,omitempty"`
}

// ServeHTTP handles GET /health.
func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h.db == nil {
		writeJSON(w, http.StatusOK, healthResponse{Status: "healthy"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
	defer cancel()

	if err := h.db.Ping(ctx); err != nil {
		h.logger.Warn().Err(err).Msg("catalogue database unreachable")
		writeJSON(w, http.StatusServiceUnavailable, healthResponse{Status: "unavailable", Database: "unreachable"})
		return
	}

	writeJSON(w, http.StatusOK, healthResponse{Status: "healthy", Database: "ok"})
}
