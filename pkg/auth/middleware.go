// Package auth gates API access behind configured API keys and applies
// per-key rate limits.
package auth

import (
	"context"
	"net"
	"net/http"
	"strings"

	"chatsync/pkg/logger"
)

// SecConfig carries the key sets and rate-limit parameters resolved at
// startup.
type SecConfig struct {
	BackendKeys  map[string]struct{}
	FrontendKeys map[string]struct{}
	RPS          float64
	Burst        int
}

type ctxRoleKey struct{}

// RoleFromContext returns the caller role ("backend" or "frontend") set
// by the middleware, or empty string.
func RoleFromContext(ctx context.Context) string {
	if v := ctx.Value(ctxRoleKey{}); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// Middleware authenticates requests by API key (X-API-Key header or
// Bearer token) and rate-limits per key. Liveness and metrics endpoints
// pass through unauthenticated.
func Middleware(cfg SecConfig) func(http.Handler) http.Handler {
	limiters := &limiterPool{cfg: cfg}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == "/healthz" || r.URL.Path == "/metrics" || strings.HasPrefix(r.URL.Path, "/docs") {
				next.ServeHTTP(w, r)
				return
			}

			// no keys configured: open mode, rate limit by remote host
			if len(cfg.BackendKeys) == 0 && len(cfg.FrontendKeys) == 0 {
				if !limiters.Allow(remoteHost(r)) {
					http.Error(w, `{"error":"rate limit exceeded"}`, http.StatusTooManyRequests)
					return
				}
				logger.LogRequest(r)
				next.ServeHTTP(w, r)
				return
			}

			key := strings.TrimSpace(r.Header.Get("X-API-Key"))
			if key == "" {
				if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
					key = strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
				}
			}
			role := ""
			switch {
			case keyIn(cfg.BackendKeys, key):
				role = "backend"
			case keyIn(cfg.FrontendKeys, key):
				role = "frontend"
			}
			if role == "" {
				logger.Warn("unauthorized_request", "path", r.URL.Path, "remote", r.RemoteAddr)
				http.Error(w, `{"error":"missing or unknown api key"}`, http.StatusUnauthorized)
				return
			}

			if !limiters.Allow(key) {
				http.Error(w, `{"error":"rate limit exceeded"}`, http.StatusTooManyRequests)
				return
			}

			logger.LogRequest(r)
			ctx := context.WithValue(r.Context(), ctxRoleKey{}, role)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func remoteHost(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

func keyIn(set map[string]struct{}, key string) bool {
	if key == "" || set == nil {
		return false
	}
	_, ok := set[key]
	return ok
}
