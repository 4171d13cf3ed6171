package httpapi

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/nexusgw/gateway/internal/metrics"
	"github.com/nexusgw/gateway/internal/ratelimit"
)

// requestLogger logs each request's method, path, status, and latency,
// mirroring the teacher's RequestLogger middleware.
func requestLogger(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(sw, r)
			logger.Info("request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", sw.status),
				zap.Duration("latency", time.Since(start)),
			)
		})
	}
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

// ingressGuard enforces the Ingress Guard (spec §4.9): fixed-window
// limits keyed by client IP and first path segment, with rate-limit
// headers on every response and a 429 body on exhaustion.
func ingressGuard(limiter *ratelimit.Limiter, burst int) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			clientIP := clientIPOf(r)
			segment := firstPathSegment(r.URL.Path)

			decision, err := limiter.Allow(r.Context(), clientIP, segment, burst)
			if err != nil {
				writeError(w, err, nil)
				return
			}

			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(decision.Limit))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(decision.Remaining))
			if !decision.ResetAt.IsZero() {
				w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(decision.ResetAt.Unix(), 10))
			}

			if !decision.Allowed {
				metrics.RateLimitExceeded.WithLabelValues(segment).Inc()
				retryAfter := time.Until(decision.ResetAt)
				if retryAfter < 0 {
					retryAfter = 0
				}
				w.Header().Set("Retry-After", fmt.Sprintf("%.0f", retryAfter.Seconds()))
				writeJSON(w, http.StatusTooManyRequests, errorBody{Error: "RATE_LIMIT_EXCEEDED"})
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func clientIPOf(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		parts := strings.Split(fwd, ",")
		return strings.TrimSpace(parts[0])
	}
	host := r.RemoteAddr
	if idx := strings.LastIndex(host, ":"); idx != -1 {
		return host[:idx]
	}
	return host
}

func firstPathSegment(path string) string {
	trimmed := strings.TrimPrefix(path, "/v1/")
	trimmed = strings.TrimPrefix(trimmed, "/")
	if idx := strings.Index(trimmed, "/"); idx != -1 {
		return trimmed[:idx]
	}
	return trimmed
}

// maxISOBody caps inbound ISO 20022 document size (spec §5: "reject
// bodies larger than an implementation-defined maximum, suggested 1 MiB"),
// rejecting an oversized body before the handler ever reads it into memory.
const maxISOBodyBytes = 1 << 20

func maxBody(limit int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			r.Body = http.MaxBytesReader(w, r.Body, limit)
			next.ServeHTTP(w, r)
		})
	}
}

// adminAuth gates the Participant Registry's mutating/audit endpoints
// behind a bearer JWT signed with the admin secret (spec §9 Open
// Question: inbound authorization). A no-op pass-through when disabled
// (required=false), the sandbox default; production config turns it on
// via NEXUS_ADMIN_REQUIRE_AUTH. Never applied to the ISO 20022
// ingestion endpoints, which spec §1 leaves to mTLS/network policy.
func adminAuth(secret string, required bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if !required {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			const prefix = "Bearer "
			if !strings.HasPrefix(header, prefix) {
				writeJSON(w, http.StatusUnauthorized, errorBody{Error: "UNAUTHORIZED"})
				return
			}
			raw := strings.TrimPrefix(header, prefix)
			token, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
				if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
				}
				return []byte(secret), nil
			})
			if err != nil || !token.Valid {
				writeJSON(w, http.StatusUnauthorized, errorBody{Error: "UNAUTHORIZED"})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
