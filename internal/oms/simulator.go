// Package oms is a deterministic trigger-cross order simulator. It is
// not a matching engine: fills happen exactly when the last price
// crosses the plan's trigger.
package oms

import (
	"sync"

	"github.com/google/uuid"

	"equity-orb-lab/internal/domain"
)

// Event codes returned by Sync.
const (
	EventNone = ""
	EventFill = "FILL"
	EventStop = "STOP"
	EventT1   = "T1"
	EventT2   = "T2"
)

// Update is the result of one Sync call.
type Update struct {
	Status domain.Status
	Event  string
	Price  float64 // event price: fill or exit reference
}

// Simulator tracks at most one open order per symbol. Safe for use
// from concurrent per-symbol workers.
type Simulator struct {
	mu     sync.Mutex
	orders map[string]*domain.Order
}

// New creates an empty simulator.
func New() *Simulator {
	return &Simulator{orders: make(map[string]*domain.Order)}
}

// PlaceEntry creates the order record for a symbol, unfilled. Any
// existing record for the symbol is replaced; the manager guarantees
// one live order per symbol.
func (s *Simulator) PlaceEntry(symbol string, side domain.Direction, trigger float64, qty int64) *domain.Order {
	s.mu.Lock()
	defer s.mu.Unlock()

	o := &domain.Order{
		OrderID: uuid.NewString(),
		Symbol:  symbol,
		Side:    side,
		EntryPx: trigger,
		Qty:     qty,
	}
	s.orders[symbol] = o
	return o
}

// Sync advances the order for one tick. Returns ok=false when no order
// exists for the symbol.
//
// Unfilled: a direction-appropriate trigger cross (>= for BULL, <= for
// BEAR against the plan's trigger) fills at the trigger price and
// returns LIVE; otherwise ORDER_SENT. Filled: stop-hit returns FLAT
// and is checked before targets; target-2 returns FLAT; target-1
// returns LIVE once, informational only. Each of stop/t1/t2 fires at
// most once; stop and t2 also destroy the record.
func (s *Simulator) Sync(symbol string, last, trigger, stop, t1, t2 float64) (Update, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	o, ok := s.orders[symbol]
	if !ok {
		return Update{}, false
	}

	if !o.Filled {
		if crossed(o.Side, last, trigger) {
			o.Filled = true
			o.FillPx = trigger
			return Update{Status: domain.StatusLive, Event: EventFill, Price: o.FillPx}, true
		}
		return Update{Status: domain.StatusOrderSent, Event: EventNone}, true
	}

	if !o.StopHit && stopCrossed(o.Side, last, stop) {
		o.StopHit = true
		delete(s.orders, symbol)
		return Update{Status: domain.StatusFlat, Event: EventStop, Price: last}, true
	}
	if !o.T2Hit && targetCrossed(o.Side, last, t2) {
		o.T2Hit = true
		delete(s.orders, symbol)
		return Update{Status: domain.StatusFlat, Event: EventT2, Price: last}, true
	}
	if !o.T1Hit && targetCrossed(o.Side, last, t1) {
		o.T1Hit = true
		return Update{Status: domain.StatusLive, Event: EventT1, Price: last}, true
	}

	return Update{Status: domain.StatusLive, Event: EventNone}, true
}

// ForceExit unconditionally removes the symbol's order record,
// regardless of hit flags. Returns the removed order.
func (s *Simulator) ForceExit(symbol string) (*domain.Order, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	o, ok := s.orders[symbol]
	if ok {
		delete(s.orders, symbol)
	}
	return o, ok
}

// Order returns a copy of the symbol's order record, if present.
func (s *Simulator) Order(symbol string) (domain.Order, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	o, ok := s.orders[symbol]
	if !ok {
		return domain.Order{}, false
	}
	return *o, true
}

func crossed(side domain.Direction, last, trigger float64) bool {
	if side == domain.DirectionBull {
		return last >= trigger
	}
	return last <= trigger
}

func stopCrossed(side domain.Direction, last, stop float64) bool {
	if side == domain.DirectionBull {
		return last <= stop
	}
	return last >= stop
}

func targetCrossed(side domain.Direction, last, target float64) bool {
	if side == domain.DirectionBull {
		return last >= target
	}
	return last <= target
}
