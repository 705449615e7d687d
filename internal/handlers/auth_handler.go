package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/ninja-software/terror/v2"
	"github.com/rs/zerolog"

	"github.com/bigbiz/catalog-api/internal/auth"
	"github.com/bigbiz/catalog-api/internal/metrics"
)

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Message string `json:"message"`
	Token   string `json:"token"`
}

// AuthHandler serves the admin login endpoint
type AuthHandler struct {
	gate    *auth.Gate
	metrics *metrics.Metrics
	logger  *zerolog.Logger
}

// NewAuthHandler creates a new auth handler. m may be nil.
func NewAuthHandler(gate *auth.Gate, m *metrics.Metrics, logger *zerolog.Logger) *AuthHandler {
	return &AuthHandler{
		gate:    gate,
		metrics: m,
		logger:  logger,
	}
}

// Login handles POST /api/auth/login
// A malformed body is reported the same way as a wrong password.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) (int, error) {
	var req LoginRequest
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.metrics.LoginAttempt(metrics.LoginFailure)
		return http.StatusUnauthorized, terror.Warn(err, msgInvalidCredentials)
	}

	token, err := h.gate.Login(req.Username, req.Password)
	if err != nil {
		h.metrics.LoginAttempt(metrics.LoginFailure)
		return http.StatusUnauthorized, terror.Warn(err, msgInvalidCredentials)
	}

	h.metrics.LoginAttempt(metrics.LoginSuccess)
	WriteJSON(w, http.StatusOK, LoginResponse{Message: "Login successful", Token: token}, h.logger)
	return http.StatusOK, nil
}
