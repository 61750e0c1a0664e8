package middleware

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/pesona-id/pesona-backend/internal/security/auth"
	"github.com/pesona-id/pesona-backend/internal/security/ratelimit"
)

type claimsContextKey struct{}
type requestIDKey struct{}

// RequireAuth wraps a handler so only requests with a valid bearer access
// token reach it. Missing token: 401. Invalid signature: 403. Expired:
// a distinguished 401 body.
func RequireAuth(tm *auth.TokenManager, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				writeError(w, http.StatusUnauthorized, "authentication failed, please login.")
				return
			}

			tokenString, err := auth.ExtractToken(authHeader)
			if err != nil {
				writeError(w, http.StatusUnauthorized, "authentication failed, please login.")
				return
			}

			claims, err := tm.ValidateAccessToken(tokenString)
			if err != nil {
				if err == auth.ErrTokenExpired {
					writeError(w, http.StatusUnauthorized, "token has expired")
					return
				}
				writeError(w, http.StatusForbidden, "you do not have permission to perform this action.")
				return
			}

			ctx := context.WithValue(r.Context(), claimsContextKey{}, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAdmin gates a route on the ADMIN role. Must run inside RequireAuth.
func RequireAdmin(log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims := GetClaimsFromContext(r.Context())
			if claims == nil || claims.Role != "ADMIN" {
				writeError(w, http.StatusForbidden, "you do not have permission to perform this action.")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RateLimit budgets requests per authenticated user, falling back to the
// client address for anonymous traffic.
func RateLimit(limiter *ratelimit.Limiter, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := ""
			if claims := GetClaimsFromContext(r.Context()); claims != nil {
				key = claims.UserID
			} else if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
				key = host
			}

			if !limiter.Allow(r.Context(), key) {
				writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// RequestID attaches a request id to the context and response headers and
// logs one completion line per request.
func RequestID(log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			reqID := generateRequestID()
			w.Header().Set("X-Request-ID", reqID)

			ctx := context.WithValue(r.Context(), requestIDKey{}, reqID)
			start := time.Now()

			next.ServeHTTP(w, r.WithContext(ctx))

			log.Info("request completed",
				slog.String("request_id", reqID),
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Duration("duration_ms", time.Since(start)),
			)
		})
	}
}

// GetClaimsFromContext returns the verified token claims, or nil outside an
// authenticated route.
func GetClaimsFromContext(ctx context.Context) *auth.Claims {
	if c := ctx.Value(claimsContextKey{}); c != nil {
		return c.(*auth.Claims)
	}
	return nil
}

// GetRequestIDFromContext returns the request id, or "".
func GetRequestIDFromContext(ctx context.Context) string {
	if v := ctx.Value(requestIDKey{}); v != nil {
		return v.(string)
	}
	return ""
}

// writeError emits the standard failure envelope. Duplicated minimally from
// the handler package to avoid an import cycle through the router.
func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"success": false,
		"errors":  message,
	})
}

func generateRequestID() string {
	buf := make([]byte, 8)
	if _, err := rand.Read(buf); err == nil {
		return hex.EncodeToString(buf)
	}
	return fmt.Sprintf("req-%d", time.Now().UnixNano())
}
