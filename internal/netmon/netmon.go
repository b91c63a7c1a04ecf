// Package netmon tracks whether the backend is reachable.
package netmon

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"
)

// State is the last observed connectivity.
type State string

const (
	StateOnline  State = "online"
	StateOffline State = "offline"
)

// Status holds the monitor's current view.
type Status struct {
	State     State     `json:"state"`
	Error     string    `json:"error,omitempty"`
	CheckedAt time.Time `json:"checked_at,omitempty"`
	ChangedAt time.Time `json:"changed_at,omitempty"`
}

// StatusCallback is called whenever the state flips.
type StatusCallback func(Status)

// Prober performs one reachability check.
type Prober interface {
	Probe(ctx context.Context) error
}

// HTTPProber issues a HEAD request and treats any response below 500 as
// reachable.
type HTTPProber struct {
	URL    string
	Client *http.Client
}

func (p HTTPProber) Probe(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, p.URL, nil)
	if err != nil {
		return fmt.Errorf("create probe request: %w", err)
	}
	client := p.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	resp.Body.Close()
	if resp.StatusCode >= 500 {
		return fmt.Errorf("probe status %d", resp.StatusCode)
	}
	return nil
}

// Monitor probes on an interval and reports transitions. It starts out
// online until a probe says otherwise.
type Monitor struct {
	mu       sync.RWMutex
	prober   Prober
	interval time.Duration
	timeout  time.Duration
	status   Status
	callback StatusCallback
	logger   *slog.Logger

	cancel context.CancelFunc
	done   chan struct{}
}

func NewMonitor(p Prober, interval time.Duration, logger *slog.Logger, cb StatusCallback) *Monitor {
	timeout := interval
	if timeout <= 0 || timeout > 5*time.Second {
		timeout = 5 * time.Second
	}
	return &Monitor{
		prober:   p,
		interval: interval,
		timeout:  timeout,
		status:   Status{State: StateOnline},
		callback: cb,
		logger:   logger,
	}
}

func (m *Monitor) Status() Status {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.status
}

// Online reports the last observed state.
func (m *Monitor) Online() bool {
	return m.Status().State == StateOnline
}

// Start launches the probe loop. No-op if already running.
func (m *Monitor) Start(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.cancel != nil {
		return
	}
	childCtx, cancel := context.WithCancel(ctx)
	m.cancel = cancel
	m.done = make(chan struct{})
	go m.run(childCtx)
}

// Stop ends the probe loop and waits for it to exit.
func (m *Monitor) Stop() {
	m.mu.Lock()
	cancel, done := m.cancel, m.done
	m.cancel, m.done = nil, nil
	m.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

func (m *Monitor) run(ctx context.Context) {
	defer close(m.done)

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	m.Check(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.Check(ctx)
		}
	}
}

// Check runs one probe and updates the state.
func (m *Monitor) Check(ctx context.Context) Status {
	probeCtx, cancel := context.WithTimeout(ctx, m.timeout)
	err := m.prober.Probe(probeCtx)
	cancel()
	if ctx.Err() != nil {
		return m.Status()
	}

	now := time.Now()
	next := Status{State: StateOnline, CheckedAt: now}
	if err != nil {
		next = Status{State: StateOffline, Error: err.Error(), CheckedAt: now}
	}

	m.mu.Lock()
	changed := next.State != m.status.State
	if changed {
		next.ChangedAt = now
	} else {
		next.ChangedAt = m.status.ChangedAt
	}
	m.status = next
	cb := m.callback
	m.mu.Unlock()

	if changed {
		m.logger.Info("connectivity changed", "state", next.State, "error", next.Error)
		if cb != nil {
			cb(next)
		}
	}
	return next
}
