package api

import (
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"
)

// RateLimitConfig configures the per-client rate limiter
type RateLimitConfig struct {
	RequestsPerSecond float64       // Requests allowed per second per client
	Burst             int           // Maximum burst size
	CleanupInterval   time.Duration // How often stale clients are evicted
}

// DefaultRateLimitConfig allows interactive use and polling dashboards
var DefaultRateLimitConfig = RateLimitConfig{
	RequestsPerSecond: 50,
	Burst:             100,
	CleanupInterval:   5 * time.Minute,
}

// clientEntry tracks one client's bucket and when it was last used
type clientEntry struct {
	limiter  *rate.Limiter
	lastSeen atomic.Int64 // unix nanoseconds
}

// RateLimiter limits requests per client IP. Clients idle for two cleanup
// intervals are evicted by the first request after each interval, so the
// limiter needs no background goroutine.
type RateLimiter struct {
	limiters sync.Map // map[string]*clientEntry
	config   RateLimitConfig
	now      func() time.Time

	lastCleanup atomic.Int64 // unix nanoseconds
	clients     atomic.Int64

	allowed  atomic.Uint64
	rejected atomic.Uint64
	evicted  atomic.Uint64
}

// NewRateLimiter creates a limiter with cfg. A non-positive
// CleanupInterval selects the default.
func NewRateLimiter(cfg RateLimitConfig) *RateLimiter {
	if cfg.CleanupInterval <= 0 {
		cfg.CleanupInterval = DefaultRateLimitConfig.CleanupInterval
	}
	rl := &RateLimiter{config: cfg, now: time.Now}
	rl.lastCleanup.Store(rl.now().UnixNano())
	return rl
}

func (rl *RateLimiter) limiter(client string, now int64) *rate.Limiter {
	if e, ok := rl.limiters.Load(client); ok {
		entry := e.(*clientEntry)
		entry.lastSeen.Store(now)
		return entry.limiter
	}

	entry := &clientEntry{
		limiter: rate.NewLimiter(rate.Limit(rl.config.RequestsPerSecond), rl.config.Burst),
	}
	entry.lastSeen.Store(now)
	actual, loaded := rl.limiters.LoadOrStore(client, entry)
	if !loaded {
		rl.clients.Add(1)
	}
	e := actual.(*clientEntry)
	e.lastSeen.Store(now)
	return e.limiter
}

// maybeCleanup runs cleanup once per interval. Only the caller that wins
// the swap performs the sweep.
func (rl *RateLimiter) maybeCleanup(now int64) {
	last := rl.lastCleanup.Load()
	if now-last < int64(rl.config.CleanupInterval) {
		return
	}
	if rl.lastCleanup.CompareAndSwap(last, now) {
		rl.cleanup(now)
	}
}

// cleanup removes clients not seen within two cleanup intervals of now
func (rl *RateLimiter) cleanup(now int64) {
	cutoff := now - 2*int64(rl.config.CleanupInterval)
	rl.limiters.Range(func(key, value interface{}) bool {
		if value.(*clientEntry).lastSeen.Load() < cutoff {
			if _, ok := rl.limiters.LoadAndDelete(key); ok {
				rl.clients.Add(-1)
				rl.evicted.Add(1)
			}
		}
		return true
	})
}

// Clients returns the number of tracked clients
func (rl *RateLimiter) Clients() int {
	return int(rl.clients.Load())
}

// Allow reports whether a request from client may proceed
func (rl *RateLimiter) Allow(client string) bool {
	now := rl.now().UnixNano()
	rl.maybeCleanup(now)
	if rl.limiter(client, now).Allow() {
		rl.allowed.Add(1)
		return true
	}
	rl.rejected.Add(1)
	return false
}

// Middleware rejects requests over the limit with 429
func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !rl.Allow(clientIP(r)) {
			w.Header().Set("Retry-After", "1")
			http.Error(w, "Too Many Requests", http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Stats returns allowed, rejected and evicted counts
func (rl *RateLimiter) Stats() map[string]uint64 {
	return map[string]uint64{
		"allowed":  rl.allowed.Load(),
		"rejected": rl.rejected.Load(),
		"evicted":  rl.evicted.Load(),
	}
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
