// Package health runs periodic dependency checks and records the results as system logs.
package health

import (
	"context"
	"runtime"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Check statuses, matching the ingestion health levels.
const (
	StatusHealthy = "healthy"
	StatusWarning = "warning"
	StatusError   = "error"
)

// Reporter receives check results.
type Reporter interface {
	LogHealthCheck(service, status string, metrics map[string]interface{})
}

// Check probes one dependency.
type Check interface {
	Name() string
	Run(ctx context.Context) (status string, metrics map[string]interface{})
}

// Monitor runs every check on an interval.
type Monitor struct {
	checks   []Check
	reporter Reporter
	interval time.Duration
	timeout  time.Duration
	logger   *zap.Logger
}

// NewMonitor creates a monitor. Each check gets at most timeout per round.
func NewMonitor(reporter Reporter, interval time.Duration, logger *zap.Logger, checks ...Check) *Monitor {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	return &Monitor{
		checks:   checks,
		reporter: reporter,
		interval: interval,
		timeout:  10 * time.Second,
		logger:   logger.Named("health"),
	}
}

// Run blocks until ctx is done. The first round runs after one interval.
func (m *Monitor) Run(ctx context.Context) {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	m.logger.Info("health monitor started", zap.Duration("interval", m.interval), zap.Int("checks", len(m.checks)))
	for {
		select {
		case <-ctx.Done():
			m.logger.Info("health monitor stopped")
			return
		case <-ticker.C:
			m.CheckAll(ctx)
		}
	}
}

// CheckAll runs every check concurrently and reports each result.
func (m *Monitor) CheckAll(ctx context.Context) {
	var wg sync.WaitGroup
	for _, c := range m.checks {
		wg.Add(1)
		go func(c Check) {
			defer wg.Done()
			checkCtx, cancel := context.WithTimeout(ctx, m.timeout)
			defer cancel()

			status, metrics := m.run(checkCtx, c)
			m.reporter.LogHealthCheck(c.Name(), status, metrics)
		}(c)
	}
	wg.Wait()
}

func (m *Monitor) run(ctx context.Context, c Check) (status string, metrics map[string]interface{}) {
	defer func() {
		if r := recover(); r != nil {
			m.logger.Error("health check panicked", zap.String("check", c.Name()), zap.Any("panic", r))
			status = StatusError
			metrics = map[string]interface{}{"error": "check panicked"}
		}
	}()
	return c.Run(ctx)
}

// PingFunc verifies connectivity to a dependency.
type PingFunc func(ctx context.Context) error

type pingCheck struct {
	name string
	ping PingFunc
}

// NewPingCheck reports healthy when ping succeeds.
func NewPingCheck(name string, ping PingFunc) Check {
	return &pingCheck{name: name, ping: ping}
}

func (c *pingCheck) Name() string { return c.name }

func (c *pingCheck) Run(ctx context.Context) (string, map[string]interface{}) {
	start := time.Now()
	err := c.ping(ctx)
	metrics := map[string]interface{}{"latencyMs": time.Since(start).Milliseconds()}
	if err != nil {
		metrics["error"] = err.Error()
		return StatusError, metrics
	}
	return StatusHealthy, metrics
}

type memoryCheck struct {
	warningBytes  uint64
	criticalBytes uint64
	read          func(*runtime.MemStats)
}

// NewMemoryCheck compares heap in use against warning and critical limits in MB.
func NewMemoryCheck(warningMB, criticalMB int) Check {
	return &memoryCheck{
		warningBytes:  uint64(warningMB) << 20,
		criticalBytes: uint64(criticalMB) << 20,
		read:          runtime.ReadMemStats,
	}
}

func (c *memoryCheck) Name() string { return "memory" }

func (c *memoryCheck) Run(context.Context) (string, map[string]interface{}) {
	var ms runtime.MemStats
	c.read(&ms)

	status := StatusHealthy
	switch {
	case c.criticalBytes > 0 && ms.HeapInuse > c.criticalBytes:
		status = StatusError
	case c.warningBytes > 0 && ms.HeapInuse > c.warningBytes:
		status = StatusWarning
	}
	return status, map[string]interface{}{
		"heapInuseMB": ms.HeapInuse >> 20,
		"heapSysMB":   ms.HeapSys >> 20,
		"sysMB":       ms.Sys >> 20,
		"goroutines":  runtime.NumGoroutine(),
		"numGC":       ms.NumGC,
	}
}
