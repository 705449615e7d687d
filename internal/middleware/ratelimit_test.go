package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	qt "github.com/frankban/quicktest"

	"github.com/bigbiz/catalog-api/internal/metrics"
	"github.com/bigbiz/catalog-api/pkg/logger"
)

type fakeCounter struct {
	mu     sync.Mutex
	counts map[string]int64
	window time.Duration
	err    error
}

func (f *fakeCounter) Incr(ctx context.Context, key string, window time.Duration) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return 0, f.err
	}
	if f.counts == nil {
		f.counts = make(map[string]int64)
	}
	f.window = window
	f.counts[key]++
	return f.counts[key], nil
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func loginFrom(h http.Handler, addr string) int {
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", nil)
	req.RemoteAddr = addr
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w.Code
}

func TestLoginRateLimiter(t *testing.T) {
	c := qt.New(t)
	counter := &fakeCounter{}
	h := LoginRateLimiter(counter, 2, metrics.New(), logger.Nop())(okHandler())

	c.Assert(loginFrom(h, "10.0.0.1:1111"), qt.Equals, http.StatusOK)
	c.Assert(loginFrom(h, "10.0.0.1:2222"), qt.Equals, http.StatusOK)
	c.Assert(loginFrom(h, "10.0.0.1:3333"), qt.Equals, http.StatusTooManyRequests)

	// another client has its own window
	c.Assert(loginFrom(h, "10.0.0.2:1111"), qt.Equals, http.StatusOK)

	c.Assert(counter.counts[rateLimitPrefix+"10.0.0.1"], qt.Equals, int64(3))
	c.Assert(counter.window, qt.Equals, time.Minute)
}

func TestLoginRateLimiter_PassThrough(t *testing.T) {
	c := qt.New(t)

	disabled := LoginRateLimiter(nil, 1, nil, logger.Nop())(okHandler())
	for i := 0; i < 5; i++ {
		c.Assert(loginFrom(disabled, "10.0.0.1:1"), qt.Equals, http.StatusOK)
	}

	failing := LoginRateLimiter(&fakeCounter{err: errors.New("connection refused")}, 1, nil, logger.Nop())(okHandler())
	for i := 0; i < 5; i++ {
		c.Assert(loginFrom(failing, "10.0.0.1:1"), qt.Equals, http.StatusOK)
	}
}
