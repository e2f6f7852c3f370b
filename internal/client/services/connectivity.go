package services

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dmitrijs2005/possync/internal/logging"
)

// Pinger is the reachability probe. Any error counts as unreachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// TransitionFunc is called on every change of the online flag. It runs on the
// goroutine that caused the change and must not block.
type TransitionFunc func(online bool)

// Monitor owns the process-wide online flag. It is the only writer; every
// other component reads it through IsOnline.
type Monitor struct {
	pinger   Pinger
	log      logging.Logger
	interval time.Duration
	timeout  time.Duration

	online  atomic.Bool
	trigger chan struct{}

	mu       sync.Mutex
	handlers []TransitionFunc
}

func NewMonitor(p Pinger, log logging.Logger, interval, timeout time.Duration) *Monitor {
	return &Monitor{
		pinger:   p,
		log:      log,
		interval: interval,
		timeout:  timeout,
		trigger:  make(chan struct{}, 1),
	}
}

// OnTransition registers fn for online/offline changes.
func (m *Monitor) OnTransition(fn TransitionFunc) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers = append(m.handlers, fn)
}

func (m *Monitor) IsOnline() bool {
	return m.online.Load()
}

// Run probes immediately and then every interval, plus whenever LinkUp asks
// for it. It returns when ctx is done.
func (m *Monitor) Run(ctx context.Context) error {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	m.Probe(ctx)
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			m.Probe(ctx)
		case <-m.trigger:
			m.Probe(ctx)
		}
	}
}

// Probe performs one reachability check and updates the flag.
func (m *Monitor) Probe(ctx context.Context) bool {
	pctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	err := m.pinger.Ping(pctx)
	if err != nil {
		m.log.Debug(ctx, "probe failed", "error", err)
	}
	m.set(err == nil)
	return err == nil
}

// LinkDown is a local "network gone" signal. It flips offline at once.
func (m *Monitor) LinkDown() {
	m.set(false)
}

// LinkUp is advisory: it only schedules an immediate probe. Being online is
// decided by the probe alone.
func (m *Monitor) LinkUp() {
	select {
	case m.trigger <- struct{}{}:
	default:
	}
}

// ReportFailure lets callers that hit a connectivity error on a real request
// mark the register offline without waiting for the next probe.
func (m *Monitor) ReportFailure() {
	m.set(false)
}

func (m *Monitor) set(online bool) {
	if m.online.Swap(online) == online {
		return
	}

	m.log.Info(context.Background(), "connectivity changed", "online", online)

	m.mu.Lock()
	handlers := append([]TransitionFunc(nil), m.handlers...)
	m.mu.Unlock()

	for _, fn := range handlers {
		fn(online)
	}
}
