package health

import (
	"context"
	"sort"
	"sync"
	"time"
)

// Status values reported by components and by the report as a whole.
const (
	StatusOK       = "ok"
	StatusDegraded = "degraded"
	StatusError    = "error"
	StatusUnknown  = "unknown"
)

// ComponentHealth represents the health status of a single component.
type ComponentHealth struct {
	Name      string    `json:"name"`
	Status    string    `json:"status"`
	Message   string    `json:"message,omitempty"`
	LastOK    time.Time `json:"last_ok,omitempty"`
	LastError time.Time `json:"last_error,omitempty"`
}

// HealthReport aggregates health from all components.
type HealthReport struct {
	Status     string                     `json:"status"`
	Timestamp  time.Time                  `json:"timestamp"`
	Components map[string]ComponentHealth `json:"components"`
}

// HealthChecker interface for components to implement.
type HealthChecker interface {
	HealthCheck(ctx context.Context) ComponentHealth
}

// CheckerFunc adapts a function to HealthChecker.
type CheckerFunc func(ctx context.Context) ComponentHealth

func (f CheckerFunc) HealthCheck(ctx context.Context) ComponentHealth { return f(ctx) }

// Registry holds health checkers for all components.
type Registry struct {
	mu       sync.RWMutex
	checkers map[string]HealthChecker
}

// NewRegistry creates a new health registry.
func NewRegistry() *Registry {
	return &Registry{
		checkers: make(map[string]HealthChecker),
	}
}

// Register adds a component health checker, replacing any under the same name.
func (r *Registry) Register(name string, checker HealthChecker) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.checkers[name] = checker
}

// Names returns the registered component names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.checkers))
	for n := range r.checkers {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Check runs all health checks and returns a report. The overall status is
// the worst component status: error beats degraded beats ok. Unknown
// components do not lower it.
func (r *Registry) Check(ctx context.Context) HealthReport {
	r.mu.RLock()
	defer r.mu.RUnlock()

	report := HealthReport{
		Status:     StatusOK,
		Timestamp:  time.Now(),
		Components: make(map[string]ComponentHealth, len(r.checkers)),
	}
	for name, checker := range r.checkers {
		h := checker.HealthCheck(ctx)
		if h.Name == "" {
			h.Name = name
		}
		report.Components[name] = h
		switch {
		case h.Status == StatusError:
			report.Status = StatusError
		case h.Status == StatusDegraded && report.Status != StatusError:
			report.Status = StatusDegraded
		}
	}
	return report
}
