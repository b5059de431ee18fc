// Package api provides HTTP API utilities including standardized error handling.
package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/vetrina-app/vetrina/internal/middleware"
)

// Common error codes used throughout the API.
const (
	// ErrCodeValidation indicates input validation failure.
	ErrCodeValidation = "validation_error"

	// ErrCodeNotFound indicates the requested resource was not found.
	ErrCodeNotFound = "not_found"

	// ErrCodeRateLimited indicates rate limit exceeded.
	ErrCodeRateLimited = "rate_limited"

	// ErrCodeInternal indicates an internal server error.
	ErrCodeInternal = "internal_error"

	// ErrCodeConflict indicates a conflict with the current state.
	ErrCodeConflict = "conflict"

	// ErrCodeBadRequest indicates a malformed request.
	ErrCodeBadRequest = "bad_request"

	// ErrCodeUnknownSet indicates an unrecognized ranking set name.
	ErrCodeUnknownSet = "unknown_ranking_set"

	// ErrCodeRefreshInProgress indicates a ranking refresh is already running.
	ErrCodeRefreshInProgress = "refresh_in_progress"

	// ErrCodeBusinessNotFound indicates the business was not found.
	ErrCodeBusinessNotFound = "business_not_found"
)

// ErrorResponse represents the standard error response format.
// All API errors return JSON in this structure: {"error": {"code": "...", "message": "..."}}
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail contains the error code and human-readable message.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// WriteError writes a standardized JSON error response.
// It writes the appropriate HTTP status code and returns a JSON error body.
//
// Format: {"error": {"code": "error_code", "message": "Error description"}}
//
// The error_code will be automatically logged by the logging middleware
// for all 4xx and 5xx responses if you call SetErrorCode on the context
// and pass the updated context to WriteError.
//
// Example:
//
//	ctx := middleware.SetErrorCode(r.Context(), api.ErrCodeNotFound)
//	api.WriteError(w, ctx, http.StatusNotFound, api.ErrCodeNotFound, "Business not found")
func WriteError(w http.ResponseWriter, ctx context.Context, status int, code, message string) {
	// Update the context in the response writer if supported (for logging middleware)
	middleware.UpdateResponseContext(w, ctx)

	errResp := ErrorResponse{
		Error: ErrorDetail{
			Code:    code,
			Message: message,
		},
	}

	data, err := json.Marshal(errResp)
	if err != nil {
		// Fallback to plain text if JSON marshaling fails
		slog.ErrorContext(ctx, "failed to marshal error response", "error", err)
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte("Internal server error"))
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if _, err := w.Write(data); err != nil {
		slog.ErrorContext(ctx, "failed to write error response", "error", err)
	}
}

// StatusCodeMapping returns the recommended HTTP status code for common error codes.
// This is a convenience function to map error codes to HTTP status codes.
func StatusCodeMapping(code string) int {
	switch code {
	case ErrCodeValidation, ErrCodeBadRequest, ErrCodeUnknownSet:
		return http.StatusBadRequest
	case ErrCodeNotFound, ErrCodeBusinessNotFound:
		return http.StatusNotFound
	case ErrCodeRateLimited:
		return http.StatusTooManyRequests
	case ErrCodeConflict, ErrCodeRefreshInProgress:
		return http.StatusConflict
	case ErrCodeInternal:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}
