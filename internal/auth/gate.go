// Package auth checks the admin credential pair and the static bearer token.
package auth

import (
	"crypto/subtle"
	"errors"
	"strings"

	"github.com/bigbiz/catalog-api/internal/config"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUnauthorized       = errors.New("unauthorized")
)

// Gate holds the configured admin identity. It is never mutated after
// NewGate, so one value is shared by every request.
type Gate struct {
	username []byte
	password []byte
	token    []byte
}

func NewGate(cfg config.AuthConfig) *Gate {
	return &Gate{
		username: []byte(cfg.Username),
		password: []byte(cfg.Password),
		token:    []byte(cfg.Token),
	}
}

// Login returns the static token when both username and password match.
// Both comparisons always run so the response does not reveal which one failed.
func (g *Gate) Login(username, password string) (string, error) {
	userOK := subtle.ConstantTimeCompare([]byte(username), g.username)
	passOK := subtle.ConstantTimeCompare([]byte(password), g.password)
	if userOK&passOK != 1 || username == "" || password == "" {
		return "", ErrInvalidCredentials
	}
	return string(g.token), nil
}

// Authorize accepts exactly the configured token.
func (g *Gate) Authorize(token string) error {
	if token == "" || subtle.ConstantTimeCompare([]byte(token), g.token) != 1 {
		return ErrUnauthorized
	}
	return nil
}

// TokenFromHeader extracts the token from an Authorization header value.
// Clients may send the bare token or "Bearer <token>".
func TokenFromHeader(header string) string {
	header = strings.TrimSpace(header)
	if len(header) > 7 && strings.EqualFold(header[:7], "bearer ") {
		return strings.TrimSpace(header[7:])
	}
	return header
}
