// Package connectivity tracks whether the remote content backend is reachable.
package connectivity

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/davidiaz1251/apostolV2/internal/metrics"
	"github.com/davidiaz1251/apostolV2/internal/reactive"
)

const defaultInterval = 15 * time.Second

// Monitor holds the current online status and broadcasts transitions.
// It starts offline so nothing talks to the remote before the first probe succeeds.
type Monitor struct {
	prober   Prober
	interval time.Duration
	logger   *slog.Logger
	metrics  *metrics.Metrics

	status *reactive.Cell[bool]
	mu     sync.Mutex // serializes status changes
}

// NewMonitor creates a monitor. A nil prober means status only changes through Report.
func NewMonitor(prober Prober, interval time.Duration, m *metrics.Metrics, logger *slog.Logger) *Monitor {
	if logger == nil {
		logger = slog.Default()
	}
	if interval <= 0 {
		interval = defaultInterval
	}
	return &Monitor{
		prober:   prober,
		interval: interval,
		logger:   logger,
		metrics:  m,
		status:   reactive.NewCell(false),
	}
}

// IsConnected returns the cached status without doing any I/O.
func (m *Monitor) IsConnected() bool {
	return m.status.Get()
}

// Subscribe yields the current status followed by every transition.
func (m *Monitor) Subscribe(ctx context.Context) <-chan bool {
	return m.status.Subscribe(ctx)
}

// Report records a status pushed by the platform (e.g. an OS network listener).
// Repeated values are ignored so subscribers only see transitions.
func (m *Monitor) Report(online bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.status.Get() == online {
		return
	}
	if online {
		m.logger.Info("connection restored")
	} else {
		m.logger.Warn("connection lost")
	}
	m.metrics.Connectivity(online)
	m.status.Publish(online)
}

// Check probes once and records the result. A failed probe means offline.
func (m *Monitor) Check(ctx context.Context) bool {
	if m.prober == nil {
		return m.IsConnected()
	}
	err := m.prober.Probe(ctx)
	if ctx.Err() != nil {
		return m.IsConnected()
	}
	if err != nil {
		m.logger.Debug("connectivity probe failed", "error", err)
	}
	m.Report(err == nil)
	return err == nil
}

// Run probes immediately and then every interval until ctx is done.
func (m *Monitor) Run(ctx context.Context) {
	if m.prober == nil {
		<-ctx.Done()
		return
	}

	m.Check(ctx)

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.Check(ctx)
		}
	}
}
