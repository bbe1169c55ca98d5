package middleware

import (
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// RateLimiter keeps one token bucket per caller. Callers are keyed by the
// function passed to Limit, typically the authenticated user id.
type RateLimiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	limit    rate.Limit
	burst    int

	maxKeys     int
	lastCleanup time.Time
	cleanupEach time.Duration
	now         func() time.Time
}

func NewRateLimiter(perSecond float64, burst int) *RateLimiter {
	return &RateLimiter{
		limiters:    make(map[string]*rate.Limiter),
		limit:       rate.Limit(perSecond),
		burst:       burst,
		maxKeys:     10000,
		cleanupEach: 10 * time.Minute,
		lastCleanup: time.Now(),
		now:         time.Now,
	}
}

func (rl *RateLimiter) limiter(key string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	// Coarse reset keeps memory bounded; a fresh bucket starts full.
	if now := rl.now(); now.Sub(rl.lastCleanup) >= rl.cleanupEach {
		if len(rl.limiters) > rl.maxKeys {
			rl.limiters = make(map[string]*rate.Limiter)
		}
		rl.lastCleanup = now
	}

	l, ok := rl.limiters[key]
	if !ok {
		l = rate.NewLimiter(rl.limit, rl.burst)
		rl.limiters[key] = l
	}
	return l
}

// Limit answers 429 once the caller identified by keyFn has spent its burst.
// An empty key falls back to the client IP.
func (rl *RateLimiter) Limit(keyFn func(*http.Request) string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := ""
			if keyFn != nil {
				key = keyFn(r)
			}
			if key == "" {
				key = clientIP(r)
			}

			if !rl.limiter(key).AllowN(rl.now(), 1) {
				w.Header().Set("Retry-After", "1")
				writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
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
