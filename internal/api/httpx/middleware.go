package httpx

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/BearBump/SwiftDrop/internal/apperrors"
	"github.com/BearBump/SwiftDrop/internal/auth"
	"github.com/BearBump/SwiftDrop/internal/cache"
	"github.com/BearBump/SwiftDrop/internal/models"
	"github.com/go-chi/chi/v5/middleware"
)

type Authenticator interface {
	Authenticate(ctx context.Context, token string) (auth.Identity, *models.User, error)
}

// RequireAuth verifies the bearer token and stores the caller's identity in
// the request context.
func RequireAuth(a Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := r.Header.Get("Authorization")
			if !strings.HasPrefix(h, "Bearer ") {
				Fail(w, http.StatusUnauthorized, "Not authenticated")
				return
			}
			id, _, err := a.Authenticate(r.Context(), h)
			if err != nil {
				Error(w, r, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(auth.WithIdentity(r.Context(), id)))
		})
	}
}

// RequireRoles must run after RequireAuth.
func RequireRoles(roles ...models.Role) func(http.Handler) http.Handler {
	allowed := make(map[models.Role]struct{}, len(roles))
	for _, role := range roles {
		allowed[role] = struct{}{}
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, ok := auth.IdentityFrom(r.Context())
			if !ok {
				Fail(w, http.StatusUnauthorized, "Not authenticated")
				return
			}
			if _, ok := allowed[id.Role]; !ok {
				Fail(w, http.StatusForbidden, "Forbidden: insufficient role")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// Identity returns the authenticated caller; handlers behind RequireAuth
// can rely on it being present.
func Identity(r *http.Request) auth.Identity {
	id, _ := auth.IdentityFrom(r.Context())
	return id
}

// RateLimitByIP throttles requests per client address. A failing limiter
// lets requests through.
func RateLimitByIP(l cache.RateLimiter, prefix string, limit int64, window time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if l == nil || limit <= 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := "rl:" + prefix + ":" + clientIP(r)
			ok, n, err := l.Allow(r.Context(), key, limit, window)
			if err != nil {
				slog.Warn("rate limiter failed", "key", key, "err", err)
			} else if !ok {
				slog.Warn("rate limited", "key", key, "count", n)
				Error(w, r, apperrors.ErrTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// RequestLogger logs one line per request.
func RequestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		slog.Info("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration_ms", time.Since(start).Milliseconds(),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}
