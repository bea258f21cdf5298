package api

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRateLimiter_Allow(t *testing.T) {
	rl := NewRateLimiter(RateLimitConfig{RequestsPerSecond: 0.001, Burst: 2})

	assert.True(t, rl.Allow("10.0.0.1"))
	assert.True(t, rl.Allow("10.0.0.1"))
	assert.False(t, rl.Allow("10.0.0.1"))
	// clients have separate buckets
	assert.True(t, rl.Allow("10.0.0.2"))

	assert.Equal(t, map[string]uint64{"allowed": 3, "rejected": 1, "evicted": 0}, rl.Stats())
	assert.Equal(t, 2, rl.Clients())
}

func TestRateLimiter_EvictsIdleClients(t *testing.T) {
	rl := NewRateLimiter(RateLimitConfig{RequestsPerSecond: 1, Burst: 1, CleanupInterval: time.Minute})
	clock := time.Unix(1000, 0)
	rl.now = func() time.Time { return clock }
	rl.lastCleanup.Store(clock.UnixNano())

	for i := 0; i < 1000; i++ {
		rl.Allow("10.1." + strconv.Itoa(i/256) + "." + strconv.Itoa(i%256))
	}
	assert.Equal(t, 1000, rl.Clients())

	// within the interval nothing is swept
	clock = clock.Add(30 * time.Second)
	assert.True(t, rl.Allow("192.0.2.7"))
	assert.Equal(t, 1001, rl.Clients())

	// one interval later the originals are not yet two intervals idle
	clock = clock.Add(40 * time.Second)
	rl.Allow("192.0.2.7")
	assert.Equal(t, 1001, rl.Clients())

	// keep one original client active
	clock = clock.Add(40 * time.Second)
	rl.Allow("10.1.0.0")

	clock = clock.Add(50 * time.Second)
	rl.Allow("192.0.2.7")
	assert.Equal(t, 2, rl.Clients())
	assert.Equal(t, uint64(999), rl.Stats()["evicted"])

	// an evicted client starts with a fresh bucket
	assert.True(t, rl.Allow("10.1.3.200"))
	assert.Equal(t, 3, rl.Clients())
}

func TestNewRateLimiter_DefaultCleanupInterval(t *testing.T) {
	rl := NewRateLimiter(RateLimitConfig{RequestsPerSecond: 1, Burst: 1})
	assert.Equal(t, DefaultRateLimitConfig.CleanupInterval, rl.config.CleanupInterval)
}

func TestRateLimiter_Middleware(t *testing.T) {
	rl := NewRateLimiter(RateLimitConfig{RequestsPerSecond: 0.001, Burst: 1})
	handler := rl.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/stats", nil)
	req.RemoteAddr = "192.0.2.1:1234"

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "1", rec.Header().Get("Retry-After"))

	// same host, different port shares the bucket
	req.RemoteAddr = "192.0.2.1:9999"
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
}

func TestClientIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "[2001:db8::1]:443"
	assert.Equal(t, "2001:db8::1", clientIP(req))

	req.RemoteAddr = "no-port"
	assert.Equal(t, "no-port", clientIP(req))
}
