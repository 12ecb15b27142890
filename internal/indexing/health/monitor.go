package health

import (
	"context"
	"sync"
	"time"
)

// CheckFunc probes one dependency.
type CheckFunc func(ctx context.Context) error

type check struct {
	fn       CheckFunc
	critical bool
}

// Monitor aggregates health status from registered checks.
type Monitor struct {
	checks     map[string]check
	cacheTTL   time.Duration
	timeout    time.Duration
	lastCheck  time.Time
	lastReport map[string]ComponentHealth
	mu         sync.Mutex
}

// NewMonitor creates a monitor that reuses a report for cacheTTL.
func NewMonitor(cacheTTL time.Duration) *Monitor {
	return &Monitor{
		checks:     make(map[string]check),
		cacheTTL:   cacheTTL,
		timeout:    3 * time.Second,
		lastReport: make(map[string]ComponentHealth),
	}
}

// Register adds a check. A failing critical check makes the system
// critical; any other failing check only degrades it.
func (m *Monitor) Register(name string, fn CheckFunc, critical bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.checks[name] = check{fn: fn, critical: critical}
	m.lastCheck = time.Time{}
}

// CheckHealth runs every registered check.
func (m *Monitor) CheckHealth(ctx context.Context) map[string]ComponentHealth {
	m.mu.Lock()
	defer m.mu.Unlock()

	// Rate limit checks to avoid hammering dependencies
	if time.Since(m.lastCheck) < m.cacheTTL && len(m.lastReport) > 0 {
		return m.lastReport
	}

	report := make(map[string]ComponentHealth, len(m.checks))
	for name, c := range m.checks {
		report[name] = m.run(ctx, name, c)
	}

	m.lastCheck = time.Now()
	m.lastReport = report
	return report
}

func (m *Monitor) run(ctx context.Context, name string, c check) ComponentHealth {
	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	start := time.Now()
	err := c.fn(ctx)
	health := ComponentHealth{
		Name:      name,
		Status:    StatusHealthy,
		LatencyMs: time.Since(start).Milliseconds(),
	}
	if err != nil {
		health.Error = err.Error()
		health.Status = StatusDegraded
		if c.critical {
			health.Status = StatusCritical
		}
	}
	return health
}
