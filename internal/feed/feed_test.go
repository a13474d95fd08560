package feed

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"equity-orb-lab/internal/domain"
	"equity-orb-lab/internal/session"
)

func writeReplayFile(t *testing.T, lines string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ticks.jsonl")
	if err := os.WriteFile(path, []byte(lines), 0o644); err != nil {
		t.Fatalf("write replay file: %v", err)
	}
	return path
}

func collect(t *testing.T, f *Feed, want int) []domain.Tick {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	out := make(chan domain.Tick, 256)
	errCh := make(chan error, 1)
	go func() { errCh <- f.Run(ctx, out) }()

	var ticks []domain.Tick
	for len(ticks) < want {
		select {
		case tick := <-out:
			ticks = append(ticks, tick)
		case <-ctx.Done():
			t.Fatalf("timed out after %d/%d ticks", len(ticks), want)
		}
	}
	cancel()
	<-errCh
	return ticks
}

func TestReplayFeed_EmitsFileOrder(t *testing.T) {
	path := writeReplayFile(t, `
{"symbol":"RELIANCE","timestamp":1756350300,"price":2900.5,"volume":10}
{"symbol":"RELIANCE","timestamp":1756350301,"price":2901.0,"volume":5}
{"symbol":"TCS","timestamp":1756350302,"price":4100.0}
`)

	f := New(ProviderReplay, []string{"RELIANCE", "TCS"}, zerolog.Nop(), WithReplayPath(path))

	out := make(chan domain.Tick, 16)
	if err := f.Run(context.Background(), out); err != nil {
		t.Fatalf("Run: %v", err)
	}
	close(out)

	var ticks []domain.Tick
	for tick := range out {
		ticks = append(ticks, tick)
	}

	if len(ticks) != 3 {
		t.Fatalf("got %d ticks, want 3", len(ticks))
	}
	if ticks[0].Price != 2900.5 || ticks[2].Symbol != "TCS" {
		t.Errorf("unexpected tick order: %+v", ticks)
	}
}

func TestReplayFeed_SkipsMalformedAndUntracked(t *testing.T) {
	path := writeReplayFile(t, `
# recorded 2026-08-28
{"symbol":"RELIANCE","timestamp":1756350300,"price":2900.5}
not json at all
{"symbol":"WIPRO","timestamp":1756350301,"price":250.0}
{"symbol":"RELIANCE","timestamp":0,"price":2901.0}
{"symbol":"RELIANCE","timestamp":1756350302,"price":-5}
{"symbol":"RELIANCE","timestamp":1756350303,"price":2902.0}
`)

	f := New(ProviderReplay, []string{"RELIANCE"}, zerolog.Nop(), WithReplayPath(path))

	out := make(chan domain.Tick, 16)
	if err := f.Run(context.Background(), out); err != nil {
		t.Fatalf("Run: %v", err)
	}
	close(out)

	var ticks []domain.Tick
	for tick := range out {
		ticks = append(ticks, tick)
	}

	if len(ticks) != 2 {
		t.Fatalf("got %d ticks, want 2 (comments, junk, untracked and invalid dropped)", len(ticks))
	}
}

func TestReplayFeed_AdvancesSimClock(t *testing.T) {
	path := writeReplayFile(t, `
{"symbol":"RELIANCE","timestamp":1756350300,"price":2900.5}
{"symbol":"RELIANCE","timestamp":1756350360,"price":2905.0}
`)

	clock := session.NewSimClock(time.Unix(1756350000, 0))
	f := New(ProviderReplay, []string{"RELIANCE"}, zerolog.Nop(),
		WithReplayPath(path), WithSimClock(clock))

	out := make(chan domain.Tick, 16)
	if err := f.Run(context.Background(), out); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if got, want := clock.Now().Unix(), int64(1756350360); got != want {
		t.Errorf("sim clock at %d, want %d", got, want)
	}
}

func TestReplayFeed_MissingFile(t *testing.T) {
	f := New(ProviderReplay, []string{"RELIANCE"}, zerolog.Nop(),
		WithReplayPath(filepath.Join(t.TempDir(), "nope.jsonl")))

	if err := f.Run(context.Background(), make(chan domain.Tick, 1)); err == nil {
		t.Error("expected error for missing replay file")
	}
}

func TestSimFeed_EmitsValidTicks(t *testing.T) {
	f := New(ProviderSim, []string{"RELIANCE", "TCS"}, zerolog.Nop(),
		WithSeed(42), WithTickRate(time.Millisecond))

	ticks := collect(t, f, 10)
	for _, tick := range ticks {
		if !tick.Valid() {
			t.Errorf("sim emitted invalid tick: %+v", tick)
		}
		if tick.Symbol != "RELIANCE" && tick.Symbol != "TCS" {
			t.Errorf("sim emitted unknown symbol %q", tick.Symbol)
		}
	}
}

func TestFeed_UnknownProvider(t *testing.T) {
	f := New("carrier-pigeon", []string{"RELIANCE"}, zerolog.Nop())
	if err := f.Run(context.Background(), make(chan domain.Tick, 1)); err == nil {
		t.Error("expected error for unknown provider")
	}
}
