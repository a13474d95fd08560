package engine

import (
	"context"
	"time"

	"equity-orb-lab/internal/domain"
	"equity-orb-lab/internal/session"
)

// worker drives one symbol's Manager from its own goroutine. All
// manager calls happen here, so the manager needs no locking.
type worker struct {
	manager *Manager
	ticks   chan domain.Tick
	kill    chan struct{}
	clock   session.Clock
	period  time.Duration
}

func newWorker(m *Manager, clock session.Clock, period time.Duration) *worker {
	if period <= 0 {
		period = time.Second
	}
	return &worker{
		manager: m,
		ticks:   make(chan domain.Tick, 1024),
		kill:    make(chan struct{}, 1),
		clock:   clock,
		period:  period,
	}
}

// run processes ticks and clock pulses until ctx is canceled. The
// periodic pulse keeps checkpoint logic moving on a quiet market.
func (w *worker) run(ctx context.Context) {
	ticker := time.NewTicker(w.period)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.kill:
			w.manager.Kill()
		case tick := <-w.ticks:
			w.manager.OnTick(tick)
		case <-ticker.C:
			w.manager.OnTime(w.clock.Now())
		}
	}
}

// offer hands a tick to the worker without blocking the dispatcher.
// Returns false when the worker's buffer is full.
func (w *worker) offer(tick domain.Tick) bool {
	select {
	case w.ticks <- tick:
		return true
	default:
		return false
	}
}

func (w *worker) signalKill() {
	select {
	case w.kill <- struct{}{}:
	default:
	}
}
