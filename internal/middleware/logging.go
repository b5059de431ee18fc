// Package middleware provides HTTP middleware components for the API server.
package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"time"
)

// errorCodeKey is the context key for error code.
type errorCodeKey struct{}

// SetErrorCode stores an error code in the context.
// This should be called by handlers when returning error responses.
func SetErrorCode(ctx context.Context, code string) context.Context {
	return context.WithValue(ctx, errorCodeKey{}, code)
}

// GetErrorCode retrieves the error code from context. Returns empty string if not present.
func GetErrorCode(ctx context.Context) string {
	if code, ok := ctx.Value(errorCodeKey{}).(string); ok {
		return code
	}
	return ""
}

// contextUpdater is implemented by response writers that can carry an
// updated request context back to outer middleware.
type contextUpdater interface {
	UpdateContext(ctx context.Context)
}

// UpdateResponseContext propagates an updated context (typically carrying an
// error code) to the logging middleware's response writer. Handlers call this
// indirectly through api.WriteError. If the writer chain does not support
// context updates the call is a no-op.
func UpdateResponseContext(w http.ResponseWriter, ctx context.Context) {
	for w != nil {
		if u, ok := w.(contextUpdater); ok {
			u.UpdateContext(ctx)
			return
		}
		unwrapper, ok := w.(interface{ Unwrap() http.ResponseWriter })
		if !ok {
			return
		}
		w = unwrapper.Unwrap()
	}
}

// responseWriter wraps http.ResponseWriter to capture status code and response size.
type responseWriter struct {
	http.ResponseWriter
	statusCode  int
	size        int
	wroteHeader bool
	ctx         context.Context
}

// UpdateContext stores an updated request context for the logging middleware.
func (rw *responseWriter) UpdateContext(ctx context.Context) {
	rw.ctx = ctx
}

// WriteHeader captures the status code before writing it.
// Only the first call sets the status code; subsequent calls are ignored
// to match http.ResponseWriter behavior where only the first status is sent.
func (rw *responseWriter) WriteHeader(code int) {
	if rw.wroteHeader {
		return
	}
	rw.statusCode = code
	rw.wroteHeader = true
	rw.ResponseWriter.WriteHeader(code)
}

// Write captures the response size and writes the data.
func (rw *responseWriter) Write(b []byte) (int, error) {
	n, err := rw.ResponseWriter.Write(b)
	rw.size += n
	return n, err
}

// newResponseWriter creates a new responseWriter with default 200 status.
func newResponseWriter(w http.ResponseWriter) *responseWriter {
	return &responseWriter{
		ResponseWriter: w,
		statusCode:     http.StatusOK,
	}
}

// NewLogger creates an slog.Logger based on the environment.
// In production (env == "production"), it returns a JSON handler.
// Otherwise, it returns a text handler for development.
func NewLogger(env string) *slog.Logger {
	var handler slog.Handler
	if env == "production" {
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	} else {
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		})
	}
	return slog.New(handler)
}

// Logging is a middleware that logs HTTP requests with structured fields.
// It captures: method, path, status, latency (ms), request ID, response size,
// and error_code (for error responses).
//
// Note: If a handler panics, the log entry will not be written. To ensure logging
// even on panics, place a recovery middleware outside of the logging middleware.
func Logging(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			rw := newResponseWriter(w)

			next.ServeHTTP(rw, r)

			latency := time.Since(start).Milliseconds()

			attrs := []slog.Attr{
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", rw.statusCode),
				slog.Int64("latency_ms", latency),
				slog.Int("size", rw.size),
			}

			if requestID := GetRequestID(r.Context()); requestID != "" {
				attrs = append(attrs, slog.String("request_id", requestID))
			}

			// Add error code for error responses (4xx and 5xx)
			if rw.statusCode >= 400 {
				errCtx := r.Context()
				if rw.ctx != nil {
					errCtx = rw.ctx
				}
				if errorCode := GetErrorCode(errCtx); errorCode != "" {
					attrs = append(attrs, slog.String("error_code", errorCode))
				}
			}

			// Log at appropriate level based on status code using LogAttrs
			if rw.statusCode >= 500 {
				logger.LogAttrs(r.Context(), slog.LevelError, "request completed", attrs...)
			} else if rw.statusCode >= 400 {
				logger.LogAttrs(r.Context(), slog.LevelWarn, "request completed", attrs...)
			} else {
				logger.LogAttrs(r.Context(), slog.LevelInfo, "request completed", attrs...)
			}
		})
	}
}
