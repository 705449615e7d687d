package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/ninja-software/terror/v2"
	"github.com/rs/zerolog"
)

const (
	msgInternalError      = "Internal server error"
	msgInvalidBody        = "Invalid request body"
	msgProductNotFound    = "Product not found"
	msgInvalidCredentials = "Invalid credentials"
)

// HandlerFunc is an http handler that reports failure by returning a status
// code and an error instead of writing the response itself.
type HandlerFunc func(w http.ResponseWriter, r *http.Request) (int, error)

// WithError turns a HandlerFunc into an http.HandlerFunc. Errors are logged
// and written as {"message": ...}. The message is the terror friendly
// message when there is one; a 5xx always gets the generic message so
// driver text never reaches the client.
func WithError(log *zerolog.Logger, next HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		code, err := next(w, r)
		if err == nil {
			return
		}
		if code == 0 {
			code = http.StatusInternalServerError
		}

		message := http.StatusText(code)
		level := zerolog.ErrorLevel
		var bErr *terror.TError
		if errors.As(err, &bErr) {
			if bErr.Message != "" {
				message = bErr.Message
			}
			if bErr.Level == terror.ErrLevelWarn {
				level = zerolog.WarnLevel
			}
		}
		if code >= http.StatusInternalServerError {
			message = msgInternalError
			level = zerolog.ErrorLevel
		}

		log.WithLevel(level).Err(err).
			Str("request_id", middleware.GetReqID(r.Context())).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", code).
			Msg("request failed")

		WriteError(w, code, message, log)
	}
}
