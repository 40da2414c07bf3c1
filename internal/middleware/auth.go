// Dealwatch - Deal Follow-up Automation for Registration Workflows
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dealwatch

package middleware

import (
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"golang.org/x/crypto/bcrypt"

	"github.com/tomtom215/dealwatch/internal/logging"
)

// minPasswordLen is the shortest webhook password accepted at startup.
const minPasswordLen = 8

// BasicAuth verifies HTTP Basic credentials against a bcrypt hash.
// Pipedrive sends the credentials configured on the webhook subscription.
type BasicAuth struct {
	username     string
	passwordHash []byte
	realm        string
}

// NewBasicAuth hashes password once so requests only pay for the compare.
func NewBasicAuth(username, password, realm string) (*BasicAuth, error) {
	if username == "" {
		return nil, fmt.Errorf("username is required")
	}
	if len(password) < minPasswordLen {
		return nil, fmt.Errorf("password must be at least %d characters", minPasswordLen)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	return &BasicAuth{username: username, passwordHash: hash, realm: realm}, nil
}

// ValidateCredentials parses an Authorization header and returns the user.
func (b *BasicAuth) ValidateCredentials(authHeader string) (string, error) {
	encoded, ok := strings.CutPrefix(authHeader, "Basic ")
	if !ok {
		return "", fmt.Errorf("invalid authorization header format")
	}

	decoded, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", fmt.Errorf("failed to decode credentials")
	}

	user, pass, ok := strings.Cut(string(decoded), ":")
	if !ok {
		return "", fmt.Errorf("invalid credentials format")
	}

	// Both comparisons always run.
	userMatch := subtle.ConstantTimeCompare([]byte(user), []byte(b.username)) == 1
	passMatch := bcrypt.CompareHashAndPassword(b.passwordHash, []byte(pass)) == nil
	if !userMatch || !passMatch {
		return "", fmt.Errorf("invalid username or password")
	}
	return user, nil
}

// Middleware rejects requests without valid credentials with 401.
func (b *BasicAuth) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, err := b.ValidateCredentials(r.Header.Get("Authorization")); err != nil {
			logging.Ctx(r.Context()).Warn().
				Err(err).
				Str("remote_addr", r.RemoteAddr).
				Msg("Rejected webhook credentials")
			w.Header().Set("WWW-Authenticate", fmt.Sprintf(`Basic realm=%q, charset="UTF-8"`, b.realm))
			writeUnauthorized(w, "Credenciais inválidas")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireAPIKey guards admin endpoints with a static key sent as
// X-API-Key or as a Bearer token. An empty key disables the routes
// entirely rather than leaving them open.
func RequireAPIKey(key string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if key == "" {
				writeJSONError(w, http.StatusForbidden, "Endpoint administrativo desabilitado")
				return
			}

			provided := r.Header.Get("X-API-Key")
			if provided == "" {
				provided, _ = strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			}
			if subtle.ConstantTimeCompare([]byte(provided), []byte(key)) != 1 {
				writeUnauthorized(w, "Chave de API inválida")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func writeUnauthorized(w http.ResponseWriter, message string) {
	writeJSONError(w, http.StatusUnauthorized, message)
}

// writeJSONError emits the same envelope as the api package responses.
func writeJSONError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	//nolint:errcheck // client may have gone away
	json.NewEncoder(w).Encode(map[string]interface{}{
		"success":   false,
		"message":   message,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}
