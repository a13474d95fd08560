// Package feed hosts pluggable tick sources for the decision engine.
package feed

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"equity-orb-lab/internal/domain"
	"equity-orb-lab/internal/session"
)

const (
	// ProviderSim emits a seeded random walk (offline work, smoke runs).
	ProviderSim = "sim"
	// ProviderReplay replays recorded ticks from a JSONL file.
	ProviderReplay = "replay"
	// ProviderWS streams live ticks over a websocket.
	ProviderWS = "ws"
)

// Feed represents a pluggable tick stream implementation.
type Feed struct {
	provider string
	symbols  []string
	log      zerolog.Logger

	url        string
	replayPath string
	seed       int64
	simClock   *session.SimClock
	tickRate   time.Duration
}

// Option configures Feed construction parameters.
type Option func(*Feed)

// WithURL sets the websocket endpoint for the ws provider.
func WithURL(url string) Option {
	return func(f *Feed) { f.url = url }
}

// WithReplayPath sets the JSONL file for the replay provider.
func WithReplayPath(path string) Option {
	return func(f *Feed) { f.replayPath = path }
}

// WithSeed sets the sim provider's random seed.
func WithSeed(seed int64) Option {
	return func(f *Feed) { f.seed = seed }
}

// WithSimClock attaches a sim clock the replay provider advances to
// each tick's timestamp before emitting it.
func WithSimClock(clock *session.SimClock) Option {
	return func(f *Feed) { f.simClock = clock }
}

// WithTickRate overrides the sim provider's emit cadence.
func WithTickRate(d time.Duration) Option {
	return func(f *Feed) {
		if d > 0 {
			f.tickRate = d
		}
	}
}

// New constructs a feed backed by the requested provider.
func New(provider string, symbols []string, log zerolog.Logger, opts ...Option) *Feed {
	f := &Feed{
		provider: strings.ToLower(provider),
		log:      log,
		tickRate: 500 * time.Millisecond,
	}
	f.setSymbols(symbols)
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func (f *Feed) setSymbols(symbols []string) {
	unique := make(map[string]struct{}, len(symbols))
	for _, sym := range symbols {
		sym = strings.TrimSpace(sym)
		if sym == "" {
			continue
		}
		unique[sym] = struct{}{}
	}
	f.symbols = f.symbols[:0]
	for sym := range unique {
		f.symbols = append(f.symbols, sym)
	}
	sort.Strings(f.symbols)
}

// Run pushes ticks onto the provided channel until the context is
// canceled or the source is exhausted (replay).
func (f *Feed) Run(ctx context.Context, out chan<- domain.Tick) error {
	switch f.provider {
	case ProviderWS:
		return f.runWS(ctx, out)
	case ProviderReplay:
		return f.runReplay(ctx, out)
	case ProviderSim:
		return f.runSim(ctx, out)
	default:
		return fmt.Errorf("unknown feed provider %q", f.provider)
	}
}
