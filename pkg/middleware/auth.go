// Package middleware provides the request authentication gate and role
// checks applied in front of the API handlers.
package middleware

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/storefrontd/storefrontd/pkg/auth"
	"github.com/storefrontd/storefrontd/pkg/contextkeys"
	"github.com/storefrontd/storefrontd/pkg/observability"
)

// Auth status strings returned in rejection bodies. These are stable API
// surface, not free-form messages.
const (
	StatusHeaderRequired = "Authorization header required"
	StatusSchemeError    = "Authorization scheme error"
	StatusTokenFormat    = "Token format invalid"
	StatusTokenInvalid   = "Token expires or invalid"
)

// AuthMiddleware validates the Authorization header on every request it
// wraps. Any outcome other than a verified token short-circuits the chain
// with a JSON rejection body.
type AuthMiddleware struct {
	tokens  *auth.TokenService
	metrics *observability.Metrics
}

// NewAuthMiddleware creates the authentication gate. metrics may be nil.
func NewAuthMiddleware(tokens *auth.TokenService, metrics *observability.Metrics) *AuthMiddleware {
	return &AuthMiddleware{tokens: tokens, metrics: metrics}
}

// Handler wraps an HTTP handler with bearer-token authentication
func (m *AuthMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			m.reject(w, http.StatusUnauthorized, StatusHeaderRequired, "missing_header")
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			m.reject(w, http.StatusUnauthorized, StatusSchemeError, "scheme")
			return
		}

		subject, err := m.tokens.Verify(parts[1])
		if err != nil {
			if errors.Is(err, auth.ErrTokenMalformed) {
				m.reject(w, http.StatusUnauthorized, StatusTokenFormat, "malformed")
				return
			}
			// Expired or bad signature: same class, same body.
			m.reject(w, http.StatusForbidden, StatusTokenInvalid, "invalid")
			return
		}

		ctx := contextkeys.WithAuth(r.Context(), subject)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (m *AuthMiddleware) reject(w http.ResponseWriter, status int, authStatus, reason string) {
	if m.metrics != nil {
		m.metrics.TokenRejectionsTotal.WithLabelValues(reason).Inc()
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"message": authStatus})
}

// GetSubject extracts the authenticated subject from the request, or nil
// when the request did not pass through the auth gate.
func GetSubject(r *http.Request) *auth.Subject {
	v := r.Context().Value(contextkeys.AuthKey)
	if v == nil {
		return nil
	}
	subject, ok := v.(*auth.Subject)
	if !ok {
		return nil
	}
	return subject
}

// RequireRole creates middleware that rejects subjects without the role.
// Must be layered inside the auth gate.
func RequireRole(role auth.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			subject := GetSubject(r)
			if subject == nil {
				writeForbidden(w, "authentication required")
				return
			}
			if subject.Role != role {
				writeForbidden(w, "insufficient role permissions")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func writeForbidden(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusForbidden)
	json.NewEncoder(w).Encode(map[string]string{"message": message})
}
