package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/bigbiz/catalog-api/pkg/logger"
)

type checkerFunc func(ctx context.Context) error

func (f checkerFunc) Check(ctx context.Context) error { return f(ctx) }

func TestHealthHandler(t *testing.T) {
	tests := []struct {
		name           string
		checkErr       error
		expectedStatus int
		expectedState  string
	}{
		{name: "healthy", expectedStatus: http.StatusOK, expectedState: "healthy"},
		{name: "database down", checkErr: errors.New("connection refused"), expectedStatus: http.StatusServiceUnavailable, expectedState: "unhealthy"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			checker := checkerFunc(func(ctx context.Context) error { return tt.checkErr })
			handler := NewHealthHandler(checker, "1.2.3", logger.Nop())

			w := httptest.NewRecorder()
			handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

			if w.Code != tt.expectedStatus {
				t.Errorf("expected status %d, got %d", tt.expectedStatus, w.Code)
			}

			var resp HealthResponse
			if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
				t.Fatalf("failed to decode response: %v", err)
			}
			if resp.Status != tt.expectedState {
				t.Errorf("expected status %q, got %q", tt.expectedState, resp.Status)
			}
			if resp.Version != "1.2.3" {
				t.Errorf("expected version 1.2.3, got %q", resp.Version)
			}
		})
	}
}

func TestWelcome(t *testing.T) {
	w := httptest.NewRecorder()
	Welcome(w, httptest.NewRequest(http.MethodGet, "/", nil))

	if w.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", w.Code)
	}
	if w.Body.String() != "Welcome to the Big Biz API" {
		t.Errorf("unexpected body %q", w.Body.String())
	}
}

func TestWithError_HidesInternalDetail(t *testing.T) {
	handler := WithError(logger.Nop(), func(w http.ResponseWriter, r *http.Request) (int, error) {
		return http.StatusInternalServerError, errors.New("pq: relation \"products\" does not exist")
	})

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/products", nil))

	if w.Code != http.StatusInternalServerError {
		t.Errorf("expected status 500, got %d", w.Code)
	}
	if msg := decodeMessage(t, w); msg != "Internal server error" {
		t.Errorf("unexpected message %q", msg)
	}
}
