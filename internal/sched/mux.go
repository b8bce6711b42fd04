// Package sched implements a readiness multiplexer over periodic
// timers: N independently periodic timers feed one dispatch loop that
// runs exactly one handler at a time.
//
// Each registered timer runs a goroutine blocking on its own
// time.Ticker. An elapsed period sets the timer's pending flag and
// rings a shared doorbell channel. WaitAndDispatch blocks on the
// doorbell and sweeps all timers, running the handler of every pending
// one inline. Missed ticks coalesce (the pending flag is a bool, not a
// counter); a timer never fires twice for one elapsed interval because
// the sweep consumes the flag with a compare-and-swap.
package sched

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/hwctl/stepperd/internal/domain"
)

// Handler is invoked once per elapsed timer period. A non-nil error is
// fatal: WaitAndDispatch stops the sweep and returns it.
type Handler func() error

// Timer is a registered periodic timer. It carries no motor-domain
// state; its interval is fixed for the life of the mux.
type Timer struct {
	period  time.Duration
	handler Handler
	ticker  *time.Ticker
	pending atomic.Bool
}

// Period returns the timer's fixed interval.
func (t *Timer) Period() time.Duration {
	return t.period
}

// Mux multiplexes any number of periodic timers into a single dispatch
// loop. Handlers run only inside WaitAndDispatch, in the caller's
// goroutine, one at a time.
type Mux struct {
	mu       sync.Mutex
	timers   []*Timer
	doorbell chan struct{}
	stop     chan struct{}
	wg       sync.WaitGroup
	closed   bool
}

// New creates an empty mux. Timers are added with Register.
func New() *Mux {
	return &Mux{
		doorbell: make(chan struct{}, 1),
		stop:     make(chan struct{}),
	}
}

// Register creates a periodic timer with the given period and
// associates it with handler. It returns domain.ErrRegistration if the
// period is not positive, the handler is nil, or the mux has been
// closed.
func (m *Mux) Register(period time.Duration, handler Handler) (*Timer, error) {
	if period <= 0 {
		return nil, fmt.Errorf("%w: non-positive period %v", domain.ErrRegistration, period)
	}
	if handler == nil {
		return nil, fmt.Errorf("%w: nil handler", domain.ErrRegistration)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil, fmt.Errorf("%w: mux is closed", domain.ErrRegistration)
	}

	t := &Timer{
		period:  period,
		handler: handler,
		ticker:  time.NewTicker(period),
	}
	m.timers = append(m.timers, t)

	m.wg.Add(1)
	go m.watch(t)

	return t, nil
}

// watch marks the timer pending on every elapsed period and rings the
// doorbell. The non-blocking send keeps a slow dispatcher from backing
// up tick notifications; pending flags carry the readiness.
func (m *Mux) watch(t *Timer) {
	defer m.wg.Done()
	for {
		select {
		case <-m.stop:
			return
		case <-t.ticker.C:
			t.pending.Store(true)
			select {
			case m.doorbell <- struct{}{}:
			default:
			}
		}
	}
}

// WaitAndDispatch blocks until at least one registered timer has an
// elapsed period, then invokes the handler of every ready timer
// exactly once, consuming the readiness so the next call does not
// re-fire for the same interval. It returns the first handler error,
// ctx.Err() once the context is done, or domain.ErrRegistration once
// the mux has been closed.
func (m *Mux) WaitAndDispatch(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-m.stop:
			return fmt.Errorf("%w: mux is closed", domain.ErrRegistration)
		case <-m.doorbell:
		}

		dispatched := false
		for _, t := range m.snapshot() {
			// A termination request raised mid-sweep stops the sweep;
			// the skipped timers stay pending.
			if err := ctx.Err(); err != nil {
				return err
			}
			if !t.pending.CompareAndSwap(true, false) {
				continue
			}
			dispatched = true
			if err := t.handler(); err != nil {
				return err
			}
		}
		if dispatched {
			return nil
		}
		// Doorbell rang for readiness a previous sweep already
		// consumed; keep waiting.
	}
}

func (m *Mux) snapshot() []*Timer {
	m.mu.Lock()
	defer m.mu.Unlock()
	timers := make([]*Timer, len(m.timers))
	copy(timers, m.timers)
	return timers
}

// Close stops every timer and waits for the watcher goroutines to
// exit. It is safe to call more than once; after Close no handler will
// be invoked again.
func (m *Mux) Close() {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	m.closed = true
	close(m.stop)
	for _, t := range m.timers {
		t.ticker.Stop()
	}
	m.mu.Unlock()

	m.wg.Wait()
}
