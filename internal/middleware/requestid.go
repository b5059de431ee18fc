// Package middleware provides HTTP middleware components for the API server.
package middleware

import (
	"context"
	"net/http"

	"github.com/google/uuid"
)

// RequestIDHeader carries the request ID on both requests and responses.
const RequestIDHeader = "X-Request-ID"

type requestIDKey struct{}

// RequestID attaches a request ID to every request. An incoming
// X-Request-ID header is honored so callers can correlate across
// services; otherwise a fresh UUID is generated. The ID is echoed on
// the response and stored in the request context for log correlation.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if id == "" {
			id = uuid.New().String()
		}

		w.Header().Set(RequestIDHeader, id)

		ctx := context.WithValue(r.Context(), requestIDKey{}, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetRequestID returns the request ID stored in ctx, or "" when absent.
func GetRequestID(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey{}).(string); ok {
		return id
	}
	return ""
}
