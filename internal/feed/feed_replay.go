package feed

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"equity-orb-lab/internal/domain"
)

// runReplay emits recorded ticks from a JSONL file in file order.
// When a sim clock is attached it is advanced to each tick's timestamp
// before the tick is emitted, so checkpoint logic sees the same time
// the tick carries. Returns nil when the file is exhausted.
func (f *Feed) runReplay(ctx context.Context, out chan<- domain.Tick) error {
	if f.replayPath == "" {
		return fmt.Errorf("replay feed requires a file path")
	}

	file, err := os.Open(f.replayPath)
	if err != nil {
		return fmt.Errorf("open replay file: %w", err)
	}
	defer file.Close()

	track := make(map[string]struct{}, len(f.symbols))
	for _, sym := range f.symbols {
		track[sym] = struct{}{}
	}

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)

	var line int
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}

		var tick domain.Tick
		if err := json.Unmarshal([]byte(text), &tick); err != nil {
			f.log.Warn().Int("line", line).Err(err).Msg("skipping malformed replay line")
			continue
		}
		if !tick.Valid() {
			f.log.Debug().Int("line", line).Str("symbol", tick.Symbol).Msg("skipping invalid replay tick")
			continue
		}
		if len(track) > 0 {
			if _, ok := track[tick.Symbol]; !ok {
				continue
			}
		}

		if f.simClock != nil {
			f.simClock.Set(tick.Time())
		}

		select {
		case out <- tick:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read replay file: %w", err)
	}

	f.log.Info().Int("lines", line).Str("path", f.replayPath).Msg("replay exhausted")
	return nil
}
