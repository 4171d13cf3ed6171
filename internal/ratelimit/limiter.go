// Package ratelimit is the Ingress Guard (spec §4.9, C9): a fixed-
// window counter keyed by clientIp+firstPathSegment, with per-route
// overrides. A key's count restarts once its window has elapsed;
// requests from the previous window are not carried over (no sliding
// window). Backed by Redis for shared state across processes when
// configured, falling back to an in-process table otherwise — the same
// nil-dependency fallback shape as the Callback Dispatcher's NATS
// connection.
package ratelimit

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Decision is the outcome of a Limiter.Allow check, carrying everything
// the HTTP layer needs to set X-RateLimit-* / Retry-After headers.
type Decision struct {
	Allowed   bool
	Limit     int
	Remaining int
	ResetAt   time.Time
}

// Rule is a per-key window: N requests per Window.
type Rule struct {
	Limit  int
	Window time.Duration
}

// DefaultRule is the catch-all limit (spec §4.9: "120 requests/minute
// with a burst of 20").
var DefaultRule = Rule{Limit: 120, Window: time.Minute}

// RouteOverrides are the named exceptions spec §4.9 calls out.
var RouteOverrides = map[string]Rule{
	"quotes": {Limit: 60, Window: time.Minute},
	"health": {Limit: 300, Window: time.Minute},
}

// ExemptPaths never count against any limit (spec §4.9: "health and
// documentation endpoints").
var ExemptPaths = map[string]bool{
	"health": true,
	"docs":   true,
}

// staleAfter is how long an idle in-process window entry survives
// before lazy GC reclaims it (spec §4.9: "stale window entries older
// than 5 minutes").
const staleAfter = 5 * time.Minute

// Limiter checks and updates request counts per key.
type Limiter struct {
	rdb *redis.Client

	mu      sync.Mutex
	windows map[string]*window
}

type window struct {
	count      int
	windowFrom time.Time
	lastSeen   time.Time
}

// New builds a Limiter. rdb may be nil, in which case Allow uses an
// in-process table instead of Redis (single-process/sandbox mode).
func New(rdb *redis.Client) *Limiter {
	return &Limiter{rdb: rdb, windows: make(map[string]*window)}
}

// RuleFor resolves the applicable rule for a request's first path segment.
func RuleFor(firstSegment string) Rule {
	if r, ok := RouteOverrides[firstSegment]; ok {
		return r
	}
	return DefaultRule
}

// Allow checks and increments the counter for clientIP+firstSegment,
// applying firstSegment's rule (with burst added to the base limit).
func (l *Limiter) Allow(ctx context.Context, clientIP, firstSegment string, burst int) (Decision, error) {
	if ExemptPaths[firstSegment] {
		return Decision{Allowed: true}, nil
	}

	rule := RuleFor(firstSegment)
	limit := rule.Limit + burst
	key := fmt.Sprintf("%s:%s", clientIP, firstSegment)

	if l.rdb != nil {
		return l.allowRedis(ctx, key, limit, rule.Window)
	}
	return l.allowLocal(key, limit, rule.Window), nil
}

func (l *Limiter) allowRedis(ctx context.Context, key string, limit int, windowDur time.Duration) (Decision, error) {
	pipe := l.rdb.TxPipeline()
	incr := pipe.Incr(ctx, key)
	if _, err := pipe.Exec(ctx); err != nil {
		return Decision{}, fmt.Errorf("rate limiter redis pipeline: %w", err)
	}
	count := int(incr.Val())

	// The expiry is set only while the key has none (its first request),
	// so later requests do not push the window's end forward.
	ttl, err := l.rdb.TTL(ctx, key).Result()
	if err == nil && ttl < 0 {
		l.rdb.Expire(ctx, key, windowDur)
	}
	if err != nil || ttl < 0 {
		ttl = windowDur
	}
	resetAt := time.Now().Add(ttl)

	remaining := limit - count
	if remaining < 0 {
		remaining = 0
	}
	return Decision{Allowed: count <= limit, Limit: limit, Remaining: remaining, ResetAt: resetAt}, nil
}

func (l *Limiter) allowLocal(key string, limit int, windowDur time.Duration) Decision {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	l.gc(now)

	w, ok := l.windows[key]
	if !ok || now.Sub(w.windowFrom) >= windowDur {
		w = &window{windowFrom: now}
		l.windows[key] = w
	}
	w.count++
	w.lastSeen = now

	remaining := limit - w.count
	if remaining < 0 {
		remaining = 0
	}
	return Decision{
		Allowed:   w.count <= limit,
		Limit:     limit,
		Remaining: remaining,
		ResetAt:   w.windowFrom.Add(windowDur),
	}
}

// gc drops windows untouched for longer than staleAfter (spec §4.9).
// Caller must hold l.mu.
func (l *Limiter) gc(now time.Time) {
	for k, w := range l.windows {
		if now.Sub(w.lastSeen) > staleAfter {
			delete(l.windows, k)
		}
	}
}
