// Package health provides health checks for processes hosting a collision
// world. It implements HTTP endpoints for liveness and readiness probes.
package health

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"runtime"
	"sort"
	"sync"
	"time"

	"github.com/opd-ai/go-collide/pkg/world"
)

// Status values reported by checks
const (
	StatusHealthy   = "healthy"
	StatusUnhealthy = "unhealthy"
)

// HealthCheck defines the interface for individual health checks.
type HealthCheck interface {
	// Name returns the unique name of this health check
	Name() string
	// Check performs the health check and returns an error if unhealthy
	Check(ctx context.Context) error
}

// HealthStatus represents the overall health status of the application.
type HealthStatus struct {
	Status string                     `json:"status"`
	Checks map[string]ComponentHealth `json:"checks"`
}

// ComponentHealth represents the health status of an individual component.
type ComponentHealth struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// HealthChecker manages and executes health checks.
type HealthChecker struct {
	checks map[string]HealthCheck
	mu     sync.RWMutex
}

// NewHealthChecker creates a new health checker instance.
func NewHealthChecker() *HealthChecker {
	return &HealthChecker{
		checks: make(map[string]HealthCheck),
	}
}

// AddCheck registers a health check, replacing any check with the same name.
func (hc *HealthChecker) AddCheck(check HealthCheck) {
	hc.mu.Lock()
	defer hc.mu.Unlock()
	hc.checks[check.Name()] = check
}

// RemoveCheck removes a health check by name.
func (hc *HealthChecker) RemoveCheck(name string) {
	hc.mu.Lock()
	defer hc.mu.Unlock()
	delete(hc.checks, name)
}

// Names returns the registered check names in order
func (hc *HealthChecker) Names() []string {
	hc.mu.RLock()
	defer hc.mu.RUnlock()
	names := make([]string, 0, len(hc.checks))
	for name := range hc.checks {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// CheckHealth executes all registered health checks and returns the aggregated status.
// The overall status is "healthy" only if all individual checks pass.
func (hc *HealthChecker) CheckHealth(ctx context.Context) HealthStatus {
	hc.mu.RLock()
	defer hc.mu.RUnlock()

	status := HealthStatus{
		Status: StatusHealthy,
		Checks: make(map[string]ComponentHealth, len(hc.checks)),
	}

	for name, check := range hc.checks {
		if err := check.Check(ctx); err != nil {
			status.Status = StatusUnhealthy
			status.Checks[name] = ComponentHealth{
				Status:  StatusUnhealthy,
				Message: err.Error(),
			}
			continue
		}
		status.Checks[name] = ComponentHealth{Status: StatusHealthy}
	}

	return status
}

// LivenessHandler returns 200 OK while the process can serve requests.
func (hc *HealthChecker) LivenessHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "alive"})
}

// ReadinessHandler runs every check and returns 200 OK when all pass, or
// 503 Service Unavailable otherwise.
func (hc *HealthChecker) ReadinessHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	health := hc.CheckHealth(ctx)

	w.Header().Set("Content-Type", "application/json")
	if health.Status == StatusHealthy {
		w.WriteHeader(http.StatusOK)
	} else {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	_ = json.NewEncoder(w).Encode(health)
}

// StatsSource reports world statistics. *world.World implements it.
type StatsSource interface {
	Stats() world.Stats
}

// StepFreshnessCheck fails when the world has not stepped within MaxAge.
type StepFreshnessCheck struct {
	source StatsSource
	maxAge time.Duration
	now    func() time.Time
}

// NewStepFreshnessCheck creates a check that the world is being stepped.
func NewStepFreshnessCheck(source StatsSource, maxAge time.Duration) *StepFreshnessCheck {
	return &StepFreshnessCheck{
		source: source,
		maxAge: maxAge,
		now:    time.Now,
	}
}

// Name returns the name of this health check.
func (s *StepFreshnessCheck) Name() string {
	return "world_step"
}

// Check verifies the last step is recent enough.
func (s *StepFreshnessCheck) Check(ctx context.Context) error {
	stats := s.source.Stats()
	if stats.Steps == 0 {
		return fmt.Errorf("world has not stepped yet")
	}
	if age := s.now().Sub(stats.LastStepAt); age > s.maxAge {
		return fmt.Errorf("last step %s ago exceeds %s", age.Round(time.Millisecond), s.maxAge)
	}
	return nil
}

// StepLatencyCheck fails when the last step took longer than a budget.
type StepLatencyCheck struct {
	source StatsSource
	budget time.Duration
}

// NewStepLatencyCheck creates a check on step duration.
func NewStepLatencyCheck(source StatsSource, budget time.Duration) *StepLatencyCheck {
	return &StepLatencyCheck{
		source: source,
		budget: budget,
	}
}

// Name returns the name of this health check.
func (l *StepLatencyCheck) Name() string {
	return "step_latency"
}

// Check verifies the last step finished within the budget.
func (l *StepLatencyCheck) Check(ctx context.Context) error {
	took := l.source.Stats().LastStepDuration
	if took > l.budget {
		return fmt.Errorf("last step took %s, budget %s", took, l.budget)
	}
	return nil
}

// RuntimeUsage is a snapshot of process resource usage
type RuntimeUsage struct {
	MemoryMB   int64
	Goroutines int64
}

// ReadRuntimeUsage samples the Go runtime
func ReadRuntimeUsage() RuntimeUsage {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	return RuntimeUsage{
		MemoryMB:   int64(m.Alloc / 1024 / 1024),
		Goroutines: int64(runtime.NumGoroutine()),
	}
}

// RuntimeHealthCheck implements HealthCheck for memory and goroutine usage.
type RuntimeHealthCheck struct {
	maxMemoryMB   int64
	maxGoroutines int64
	usage         func() RuntimeUsage
}

// NewRuntimeHealthCheck creates a check on process resources. A nil usage
// samples the live runtime.
func NewRuntimeHealthCheck(maxMemoryMB, maxGoroutines int64, usage func() RuntimeUsage) *RuntimeHealthCheck {
	if usage == nil {
		usage = ReadRuntimeUsage
	}
	return &RuntimeHealthCheck{
		maxMemoryMB:   maxMemoryMB,
		maxGoroutines: maxGoroutines,
		usage:         usage,
	}
}

// Name returns the name of this health check.
func (r *RuntimeHealthCheck) Name() string {
	return "runtime"
}

// Check verifies memory is under the limit and goroutines under 80% of
// theirs. A zero limit disables that part of the check.
func (r *RuntimeHealthCheck) Check(ctx context.Context) error {
	u := r.usage()

	if r.maxMemoryMB > 0 && u.MemoryMB > r.maxMemoryMB {
		return fmt.Errorf("memory usage %dMB exceeds limit %dMB", u.MemoryMB, r.maxMemoryMB)
	}

	if r.maxGoroutines > 0 {
		threshold := int64(float64(r.maxGoroutines) * 0.8)
		if u.Goroutines > threshold {
			return fmt.Errorf("goroutine count %d exceeds 80%% threshold (%d/%d)",
				u.Goroutines, threshold, r.maxGoroutines)
		}
	}
	return nil
}
