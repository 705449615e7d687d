package middleware

import (
	"net/http"

	"github.com/rs/zerolog"

	"github.com/bigbiz/catalog-api/internal/auth"
	"github.com/bigbiz/catalog-api/internal/handlers"
)

// BearerAuth middleware validates the static token from the Authorization
// header. Requests without it never reach the wrapped handler.
func BearerAuth(gate *auth.Gate, log *zerolog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := auth.TokenFromHeader(r.Header.Get("Authorization"))

			if err := gate.Authorize(token); err != nil {
				log.Warn().
					Str("method", r.Method).
					Str("path", r.URL.Path).
					Bool("token_present", token != "").
					Msg("unauthorized request")
				handlers.WriteError(w, http.StatusUnauthorized, "Unauthorized: missing or invalid token", log)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
