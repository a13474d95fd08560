// Command replay runs a recorded tick file through the full decision
// engine against in-memory stores and prints the per-symbol outcome.
// The session clock is driven by the tick timestamps, so a day of
// ticks replays as fast as the file can be read.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"equity-orb-lab/internal/config"
	"equity-orb-lab/internal/domain"
	"equity-orb-lab/internal/engine"
	"equity-orb-lab/internal/feed"
	"equity-orb-lab/internal/logging"
	"equity-orb-lab/internal/session"
	"equity-orb-lab/internal/stats"
	"equity-orb-lab/internal/storage/memory"
	pgstore "equity-orb-lab/internal/storage/postgres"
)

func main() {
	configPath := flag.String("config", "config.yaml", "Path to YAML config")
	tickFile := flag.String("ticks", "", "Path to JSON-lines tick file (overrides config)")
	day := flag.String("day", "", "Trading date YYYY-MM-DD (defaults to the first tick's date)")
	postgresDSN := flag.String("postgres-dsn", os.Getenv("POSTGRES_DSN"), "PostgreSQL DSN for frequency history (optional)")
	fixtureBull := flag.Int("fixture-bull", 0, "Fixed bull count for every tier (with -fixture-bear, replaces frequency history)")
	fixtureBear := flag.Int("fixture-bear", 0, "Fixed bear count for every tier (with -fixture-bull, replaces frequency history)")
	flag.Parse()

	log := logging.NewLogger("info")

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", *configPath).Msg("load config")
	}
	log = logging.NewLogger(cfg.LogLevel)

	replayPath := cfg.Feed.ReplayPath
	if *tickFile != "" {
		replayPath = *tickFile
	}
	if replayPath == "" {
		log.Fatal().Msg("-ticks is required when the config has no feed.replay_path")
	}

	market, err := session.NewMarket(cfg.Market.MIC)
	if err != nil {
		log.Fatal().Err(err).Msg("resolve market calendar")
	}

	tradingDay, err := resolveDay(*day, replayPath, market.Location())
	if err != nil {
		log.Fatal().Err(err).Msg("resolve trading date")
	}
	sched, err := session.Resolve(tradingDay, market.Location(), cfg.Checkpoints)
	if err != nil {
		log.Fatal().Err(err).Msg("resolve session schedule")
	}

	clock := session.NewSimClock(sched.Day)

	prevDay := make(map[string]domain.DayStats, len(cfg.Symbols))
	for _, sym := range cfg.Symbols {
		if ds, ok := cfg.PrevDayStats(sym, sched.DayString()); ok {
			prevDay[sym] = ds
		}
	}

	tradeStore := memory.NewTradeStore()
	barStore := memory.NewBarStore()

	provider, cleanup, err := statsProvider(*postgresDSN, *fixtureBull, *fixtureBear)
	if err != nil {
		log.Fatal().Err(err).Msg("create stats provider")
	}
	defer cleanup()

	runner := engine.NewRunner(engine.Options{
		Symbols:    cfg.Symbols,
		Mode:       "replay",
		Budget:     cfg.RiskBudget,
		BarWidth:   cfg.BarWidthSec,
		Picker:     cfg.Picker.ToPickerConfig(),
		Schedule:   sched,
		Clock:      clock,
		PrevDay:    prevDay,
		Stats:      provider,
		Snapshots:  discardSnapshots{},
		TradeStore: tradeStore,
		BarStore:   barStore,
		Log:        log,
	})

	src := feed.New(feed.ProviderReplay, cfg.Symbols, log,
		feed.WithReplayPath(replayPath),
		feed.WithSimClock(clock),
	)

	ctx := context.Background()

	ticks := make(chan domain.Tick, 4096)
	feedErr := make(chan error, 1)
	go func() {
		defer close(ticks)
		feedErr <- src.Run(ctx, ticks)
	}()

	// Ticks are applied in file order on this goroutine; the pulse at
	// flatten+1s fires whatever checkpoints the file left pending and
	// flushes the stores before RunReplay returns.
	runner.RunReplay(ctx, ticks, sched.Flatten.Add(time.Second))

	if err := <-feedErr; err != nil {
		log.Fatal().Err(err).Msg("replay feed failed")
	}

	printSummary(cfg.Symbols, sched.DayString(), tradeStore)
}

type discardSnapshots struct{}

func (discardSnapshots) Publish(domain.Snapshot) {}

// statsProvider picks the frequency history source: a live postgres
// table when a DSN is given, a fixed table when fixture counts are
// given, or an empty in-memory store (every pick abstains).
func statsProvider(dsn string, bull, bear int) (stats.Provider, func(), error) {
	if dsn != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		pool, err := pgstore.NewPool(ctx, dsn)
		if err != nil {
			return nil, nil, fmt.Errorf("connect to postgres: %w", err)
		}
		return stats.NewStoreProvider(pgstore.NewFrequencyStore(pool)), pool.Close, nil
	}

	if bull > 0 || bear > 0 {
		counts := domain.TierCounts{Bull: uint(bull), Bear: uint(bear)}
		fixed := domain.FrequencyTable{
			domain.TierL3: counts,
			domain.TierL2: counts,
			domain.TierL1: counts,
			domain.TierL0: counts,
		}
		return &stats.FixtureProvider{Fixed: fixed}, func() {}, nil
	}

	return stats.NewStoreProvider(memory.NewFrequencyStore()), func() {}, nil
}

// resolveDay parses an explicit -day flag, or falls back to the date of
// the first tick in the file.
func resolveDay(day, tickFile string, loc *time.Location) (time.Time, error) {
	if day != "" {
		t, err := time.ParseInLocation("2006-01-02", day, loc)
		if err != nil {
			return time.Time{}, fmt.Errorf("parse -day: %w", err)
		}
		return t, nil
	}

	first, err := firstTickTime(tickFile)
	if err != nil {
		return time.Time{}, err
	}
	return first.In(loc), nil
}

func firstTickTime(path string) (time.Time, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return time.Time{}, err
	}
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		var tick domain.Tick
		if err := json.Unmarshal([]byte(line), &tick); err != nil {
			continue
		}
		if tick.Valid() {
			return tick.Time(), nil
		}
	}
	return time.Time{}, fmt.Errorf("no valid ticks in %s", path)
}

func printSummary(symbols []string, day string, trades *memory.TradeStore) {
	records, err := trades.GetByDay(context.Background(), day)
	if err != nil {
		fmt.Fprintf(os.Stderr, "read trades: %v\n", err)
		return
	}

	fmt.Printf("\nSession %s: %d trade record(s)\n", day, len(records))
	fmt.Println(strings.Repeat("-", 72))

	var total float64
	bySymbol := make(map[string][]*domain.TradeRecord)
	for _, rec := range records {
		bySymbol[rec.Symbol] = append(bySymbol[rec.Symbol], rec)
		total += rec.RealizedPnl
	}

	for _, sym := range symbols {
		recs := bySymbol[sym]
		if len(recs) == 0 {
			fmt.Printf("%-12s no trades\n", sym)
			continue
		}
		for _, rec := range recs {
			fmt.Printf("%-12s %-4s tier=%s conf=%d qty=%d entry=%.2f exit=%.2f reason=%s pnl=%+.2f (%s)\n",
				rec.Symbol, rec.Direction, rec.Level, rec.Confidence, rec.Qty,
				rec.EntryPrice, rec.ExitPrice, rec.ExitReason, rec.RealizedPnl, rec.Status)
		}
	}

	fmt.Println(strings.Repeat("-", 72))
	fmt.Printf("Total realized PnL: %+.2f\n", total)
}
