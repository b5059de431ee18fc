// Package middleware provides HTTP middleware components for the API server.
package middleware

import (
	"net/http"
	"strconv"
	"strings"
)

// Defaults applied when CORSConfig leaves methods or headers empty.
var (
	defaultCORSMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	defaultCORSHeaders = []string{"Content-Type", "Authorization", "X-Request-ID"}
)

// CORSConfig holds the configuration for the CORS middleware.
type CORSConfig struct {
	AllowedOrigins   []string // explicit origin allowlist, no wildcards
	AllowedMethods   []string // defaults to defaultCORSMethods when empty
	AllowedHeaders   []string // defaults to defaultCORSHeaders when empty
	AllowCredentials bool
	MaxAge           int // preflight cache duration in seconds
}

// CORS returns a middleware that handles Cross-Origin Resource Sharing.
// Only origins named in the allowlist are accepted; an empty allowlist
// disables CORS entirely and requests pass through untouched.
//
// Preflight OPTIONS requests are answered directly with 204 and carry the
// Allow-Methods, Allow-Headers and Max-Age headers. Actual requests only
// carry Allow-Origin (and Allow-Credentials when enabled), since browsers
// ignore the method and header lists outside of preflight.
func CORS(cfg CORSConfig) func(http.Handler) http.Handler {
	originSet := make(map[string]struct{}, len(cfg.AllowedOrigins))
	for _, origin := range cfg.AllowedOrigins {
		if origin = strings.TrimSpace(origin); origin != "" {
			originSet[origin] = struct{}{}
		}
	}

	methods := cfg.AllowedMethods
	if len(methods) == 0 {
		methods = defaultCORSMethods
	}
	headers := cfg.AllowedHeaders
	if len(headers) == 0 {
		headers = defaultCORSHeaders
	}
	methodsHeader := strings.Join(methods, ", ")
	headersHeader := strings.Join(headers, ", ")

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if len(originSet) == 0 {
				next.ServeHTTP(w, r)
				return
			}

			origin := r.Header.Get("Origin")
			if origin == "" {
				// Same-origin request, nothing to do.
				next.ServeHTTP(w, r)
				return
			}

			if _, ok := originSet[origin]; !ok {
				http.Error(w, "Origin not allowed", http.StatusForbidden)
				return
			}

			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Add("Vary", "Origin")
			if cfg.AllowCredentials {
				w.Header().Set("Access-Control-Allow-Credentials", "true")
			}

			if r.Method == http.MethodOptions {
				w.Header().Set("Access-Control-Allow-Methods", methodsHeader)
				w.Header().Set("Access-Control-Allow-Headers", headersHeader)
				if cfg.MaxAge > 0 {
					w.Header().Set("Access-Control-Max-Age", strconv.Itoa(cfg.MaxAge))
				}
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
