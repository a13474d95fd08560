package feed

import (
	"context"
	"math"
	"math/rand"
	"time"

	"equity-orb-lab/internal/domain"
)

// runSim emits a seeded per-symbol random walk on a wall-clock cadence.
func (f *Feed) runSim(ctx context.Context, out chan<- domain.Tick) error {
	rng := rand.New(rand.NewSource(f.seed))

	prices := make(map[string]float64, len(f.symbols))
	for _, sym := range f.symbols {
		prices[sym] = 100 + rng.Float64()*900
	}

	ticker := time.NewTicker(f.tickRate)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case now := <-ticker.C:
			for _, sym := range f.symbols {
				// ±0.05% step, floored away from zero
				px := prices[sym] * (1 + (rng.Float64()-0.5)*0.001)
				px = math.Max(px, 0.01)
				prices[sym] = px

				tick := domain.Tick{
					Symbol:    sym,
					Timestamp: float64(now.UnixNano()) / float64(time.Second),
					Price:     px,
					Volume:    1 + rng.Int63n(100),
				}
				select {
				case out <- tick:
				case <-ctx.Done():
					return ctx.Err()
				}
			}
		}
	}
}
