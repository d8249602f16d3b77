// Package contextkeys provides centralized context key definitions.
//
// All context keys used across the application are defined here to prevent
// typos and make key usage discoverable.
package contextkeys

import "context"

// Key is the type for context keys to prevent collisions
type Key string

const (
	// AuthKey contains the *auth.Subject attached by the auth middleware.
	// Required by all protected API endpoints.
	AuthKey Key = "auth_subject"

	// RequestIDKey contains the request ID string (UUID) set by the
	// request-id middleware and read by the logger.
	RequestIDKey Key = "request_id"
)

// WithAuth adds the authenticated subject to the context
func WithAuth(ctx context.Context, subject interface{}) context.Context {
	return context.WithValue(ctx, AuthKey, subject)
}

// WithRequestID adds a request ID to the context
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, RequestIDKey, requestID)
}

// GetRequestID retrieves the request ID from the context
func GetRequestID(ctx context.Context) string {
	if requestID, ok := ctx.Value(RequestIDKey).(string); ok {
		return requestID
	}
	return ""
}
