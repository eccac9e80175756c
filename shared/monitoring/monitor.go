package monitoring

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// Monitor remembers the outcome of the latest run for the health endpoints.
type Monitor struct {
	mu             sync.RWMutex
	lastRunSuccess bool
	lastRunTime    time.Time
	lastSummary    string
	logger         *slog.Logger
	clock          clockwork.Clock
}

func NewMonitor(logger *slog.Logger) *Monitor {
	return NewMonitorWithClock(logger, clockwork.NewRealClock())
}

func NewMonitorWithClock(logger *slog.Logger, clock clockwork.Clock) *Monitor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Monitor{logger: logger, clock: clock}
}

func (m *Monitor) RecordSuccess(summary string, duration time.Duration) {
	m.mu.Lock()
	m.lastRunSuccess = true
	m.lastRunTime = m.clock.Now()
	m.lastSummary = summary
	m.mu.Unlock()

	m.logger.Info("run completed", "summary", summary, "duration", duration)
}

// RecordPartialFailure logs a failure that did not stop the run. Health is unchanged.
func (m *Monitor) RecordPartialFailure(err error, duration time.Duration) {
	m.logger.Warn("partial failure", "error", err, "duration", duration)
}

func (m *Monitor) RecordCriticalFailure(err error, duration time.Duration) {
	m.mu.Lock()
	m.lastRunSuccess = false
	m.lastRunTime = m.clock.Now()
	m.lastSummary = err.Error()
	m.mu.Unlock()

	m.logger.Error("critical failure", "error", err, "duration", duration)
}

func (m *Monitor) IsHealthy() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.lastRunTime.IsZero() {
		return true // no runs yet
	}
	return m.lastRunSuccess
}

func (m *Monitor) GetStatusSummary() string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.lastRunTime.IsZero() {
		return "No runs yet"
	}

	if m.lastRunSuccess {
		return fmt.Sprintf("Last run: %s (%s)", m.lastRunTime.Format("Jan 2 15:04"), m.lastSummary)
	}
	return fmt.Sprintf("Last run failed: %s (%s)", m.lastRunTime.Format("Jan 2 15:04"), m.lastSummary)
}
