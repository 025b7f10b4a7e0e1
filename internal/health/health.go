// Package health holds the probe state reported to external supervisors:
// a constant liveness payload, a registry of named readiness checks, and
// a diagnostic snapshot of the process.
//
// Liveness and readiness are deliberately separate signals. Liveness says
// "the process can serve requests" and stays true until the process exits;
// readiness says "send me traffic" and flips off while draining or while
// any registered check fails.
package health

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

// StatusOK is the only liveness state. The supervisor's own connection
// failure or timeout is the unhealthy signal; there is no degraded state.
const StatusOK = "ok"

// Readiness states
const (
	StatusReady    = "ready"
	StatusNotReady = "not ready"
)

// LivenessResponse is the liveness payload. Its shape is constant: external
// supervisors compare it byte for byte.
type LivenessResponse struct {
	Status string `json:"status"`
}

// ReadinessResponse reports readiness with per-check results
type ReadinessResponse struct {
	Status string          `json:"status"`
	Checks map[string]bool `json:"checks,omitempty"`
}

// CheckFunc is a single readiness check. It must honor ctx cancellation;
// the registry enforces a per-check timeout.
type CheckFunc func(ctx context.Context) error

// Registry tracks readiness checks and the process drain state
type Registry struct {
	mu     sync.RWMutex
	checks map[string]CheckFunc
	order  []string

	startTime    time.Time
	draining     atomic.Bool
	checkTimeout time.Duration
}

// NewRegistry creates an empty registry. checkTimeout bounds each check
// so a stuck dependency cannot stall the probe past the supervisor's
// own timeout.
func NewRegistry(checkTimeout time.Duration) *Registry {
	return &Registry{
		checks:       make(map[string]CheckFunc),
		startTime:    time.Now(),
		checkTimeout: checkTimeout,
	}
}

// Register adds a named readiness check
func (r *Registry) Register(name string, fn CheckFunc) error {
	if name == "" {
		return fmt.Errorf("check name cannot be empty")
	}
	if fn == nil {
		return fmt.Errorf("check %q: func cannot be nil", name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.checks[name]; exists {
		return fmt.Errorf("check %q already registered", name)
	}
	r.checks[name] = fn
	r.order = append(r.order, name)
	return nil
}

// Names returns the registered check names in registration order
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, len(r.order))
	copy(names, r.order)
	return names
}

// RunChecks runs every registered check and reports pass/fail per name
func (r *Registry) RunChecks(ctx context.Context) map[string]bool {
	r.mu.RLock()
	checks := make(map[string]CheckFunc, len(r.checks))
	for name, fn := range r.checks {
		checks[name] = fn
	}
	r.mu.RUnlock()

	results := make(map[string]bool, len(checks))
	for name, fn := range checks {
		checkCtx, cancel := context.WithTimeout(ctx, r.checkTimeout)
		results[name] = fn(checkCtx) == nil
		cancel()
	}
	return results
}

// Ready reports whether the instance should receive traffic. It is false
// while draining, without running any checks, so shutdown is observed
// immediately.
func (r *Registry) Ready(ctx context.Context) (bool, map[string]bool) {
	if r.draining.Load() {
		return false, nil
	}

	results := r.RunChecks(ctx)
	for _, ok := range results {
		if !ok {
			return false, results
		}
	}
	return true, results
}

// SetDraining marks the instance as draining (or clears the mark)
func (r *Registry) SetDraining(draining bool) {
	r.draining.Store(draining)
}

// Draining reports whether the instance is draining
func (r *Registry) Draining() bool {
	return r.draining.Load()
}

// StartTime returns when the registry (the process, in practice) started
func (r *Registry) StartTime() time.Time {
	return r.startTime
}

// Uptime returns the elapsed time since process start
func (r *Registry) Uptime() time.Duration {
	return time.Since(r.startTime)
}

// FailedChecks lists the names of failed checks, sorted for stable logs
func FailedChecks(results map[string]bool) []string {
	var failed []string
	for name, ok := range results {
		if !ok {
			failed = append(failed, name)
		}
	}
	sort.Strings(failed)
	return failed
}
