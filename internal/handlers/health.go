package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

const healthCheckTimeout = 2 * time.Second

// Checker reports whether a dependency is usable.
type Checker interface {
	Check(ctx context.Context) error
}

// HealthHandler provides health check endpoint
type HealthHandler struct {
	checker Checker
	version string
	logger  *zerolog.Logger
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(checker Checker, version string, logger *zerolog.Logger) *HealthHandler {
	return &HealthHandler{
		checker: checker,
		version: version,
		logger:  logger,
	}
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string    `json:"status"`
	Database  string    `json:"database"`
	Timestamp time.Time `json:"timestamp"`
	Version   string    `json:"version"`
}

// ServeHTTP handles health check requests
func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
	defer cancel()

	response := HealthResponse{
		Status:    "healthy",
		Database:  "ok",
		Timestamp: time.Now().UTC(),
		Version:   h.version,
	}
	status := http.StatusOK

	if err := h.checker.Check(ctx); err != nil {
		h.logger.Warn().Err(err).Msg("health check failed")
		response.Status = "unhealthy"
		response.Database = "unavailable"
		status = http.StatusServiceUnavailable
	}

	WriteJSON(w, status, response, h.logger)
}

// Welcome is the unauthenticated liveness text at GET /.
func Welcome(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("Welcome to the Big Biz API"))
}
