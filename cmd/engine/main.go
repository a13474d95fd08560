// Command engine runs one trading session: it connects the configured
// tick feed to per-symbol decision workers, serves live snapshots over
// websocket and prometheus metrics over HTTP, and flattens everything
// on shutdown via the kill switch.
package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"equity-orb-lab/internal/config"
	"equity-orb-lab/internal/domain"
	"equity-orb-lab/internal/engine"
	"equity-orb-lab/internal/feed"
	"equity-orb-lab/internal/logging"
	"equity-orb-lab/internal/observability"
	"equity-orb-lab/internal/session"
	"equity-orb-lab/internal/stats"
	"equity-orb-lab/internal/storage"
	chstore "equity-orb-lab/internal/storage/clickhouse"
	"equity-orb-lab/internal/storage/memory"
	"equity-orb-lab/internal/storage/migrations"
	pgstore "equity-orb-lab/internal/storage/postgres"
	"equity-orb-lab/internal/wshub"
)

func main() {
	// .env is optional; real env vars win over file entries.
	_ = godotenv.Load()

	configPath := flag.String("config", envOr("CONFIG_PATH", "config.yaml"), "Path to YAML config")
	postgresDSN := flag.String("postgres-dsn", os.Getenv("POSTGRES_DSN"), "PostgreSQL DSN (overrides config)")
	clickhouseDSN := flag.String("clickhouse-dsn", os.Getenv("CLICKHOUSE_DSN"), "ClickHouse DSN (overrides config)")
	useMemory := flag.Bool("use-memory", false, "Use in-memory storage (no persistence)")
	addr := flag.String("addr", "", "HTTP listen address (overrides config)")
	flag.Parse()

	log := logging.NewLogger("info")

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", *configPath).Msg("load config")
	}
	log = logging.NewLogger(cfg.LogLevel)

	if *postgresDSN != "" {
		cfg.Storage.PostgresDSN = *postgresDSN
	}
	if *clickhouseDSN != "" {
		cfg.Storage.ClickhouseDSN = *clickhouseDSN
	}
	if *addr != "" {
		cfg.Server.Addr = *addr
	}

	market, err := session.NewMarket(cfg.Market.MIC)
	if err != nil {
		log.Fatal().Err(err).Msg("resolve market calendar")
	}

	var clock session.Clock = session.RealClock{}
	day, err := market.TradingDay(clock.Now())
	if err != nil {
		log.Fatal().Err(err).Str("mic", cfg.Market.MIC).Msg("market closed today")
	}
	sched, err := session.Resolve(day, market.Location(), cfg.Checkpoints)
	if err != nil {
		log.Fatal().Err(err).Msg("resolve session schedule")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	st, cleanup, err := createStores(ctx, cfg, *useMemory)
	if err != nil {
		log.Fatal().Err(err).Msg("create stores")
	}
	defer cleanup()

	prevDay := make(map[string]domain.DayStats, len(cfg.Symbols))
	dayStr := sched.DayString()
	for _, sym := range cfg.Symbols {
		if ds, ok := cfg.PrevDayStats(sym, dayStr); ok {
			prevDay[sym] = ds
		} else {
			log.Warn().Str("symbol", sym).Msg("no previous-day stats, trading without prev-day context")
		}
	}

	hub := wshub.New(log)
	go hub.Run(ctx)

	runner := engine.NewRunner(engine.Options{
		Symbols:    cfg.Symbols,
		Mode:       cfg.Mode,
		Budget:     cfg.RiskBudget,
		BarWidth:   cfg.BarWidthSec,
		Picker:     cfg.Picker.ToPickerConfig(),
		Schedule:   sched,
		Clock:      clock,
		PrevDay:    prevDay,
		Stats:      stats.NewStoreProvider(st.frequencies),
		Snapshots:  hub,
		TradeStore: st.trades,
		BarStore:   st.bars,
		Log:        log,
	})

	src := feed.New(cfg.Feed.Source, cfg.Symbols, log,
		feed.WithURL(cfg.Feed.URL),
		feed.WithReplayPath(cfg.Feed.ReplayPath),
		feed.WithSeed(cfg.Feed.Seed),
	)

	// Shutdown: first signal trips the kill switch so live positions
	// exit before the process goes down, second signal forces exit.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		log.Info().Str("signal", sig.String()).Msg("shutting down, tripping kill switch")
		runner.Kill()

		select {
		case <-sigCh:
			log.Warn().Msg("second signal, forcing exit")
			os.Exit(1)
		case <-time.After(10 * time.Second):
		}
		cancel()
	}()

	go serveHTTP(cfg.Server.Addr, hub, runner, log)

	go func() {
		t := time.NewTicker(time.Second)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				observability.DefaultMetrics.UptimeSeconds.Inc()
			}
		}
	}()

	ticks := make(chan domain.Tick, 4096)
	feedDone := make(chan error, 1)
	go func() {
		defer close(ticks)
		feedDone <- src.Run(ctx, ticks)
	}()

	go func() {
		for tick := range ticks {
			runner.Dispatch(tick)
		}
	}()

	log.Info().
		Str("mode", cfg.Mode).
		Str("day", dayStr).
		Strs("symbols", cfg.Symbols).
		Str("feed", cfg.Feed.Source).
		Msg("session starting")

	// Runner.Run blocks until ctx is cancelled; the feed error (if any)
	// is reported afterwards.
	runner.Run(ctx)

	if err := <-feedDone; err != nil && !errors.Is(err, context.Canceled) {
		log.Error().Err(err).Msg("feed terminated")
	}
	log.Info().Msg("shutdown complete")
}

type sessionStores struct {
	trades      storage.TradeStore
	frequencies storage.FrequencyStore
	bars        storage.BarStore
}

// createStores wires postgres and clickhouse when DSNs are configured,
// falling back to memory stores with -use-memory.
func createStores(ctx context.Context, cfg *config.Config, useMemory bool) (*sessionStores, func(), error) {
	if useMemory {
		st := &sessionStores{
			trades:      memory.NewTradeStore(),
			frequencies: memory.NewFrequencyStore(),
			bars:        memory.NewBarStore(),
		}
		return st, func() {}, nil
	}

	if cfg.Storage.PostgresDSN == "" || cfg.Storage.ClickhouseDSN == "" {
		return nil, nil, errors.New("postgres and clickhouse DSNs are required (or pass -use-memory)")
	}

	pool, err := pgstore.NewPool(ctx, cfg.Storage.PostgresDSN)
	if err != nil {
		return nil, nil, err
	}
	if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
		pool.Close()
		return nil, nil, err
	}

	chConn, err := chstore.Setup(ctx, cfg.Storage.ClickhouseDSN)
	if err != nil {
		pool.Close()
		return nil, nil, err
	}

	st := &sessionStores{
		trades:      pgstore.NewTradeStore(pool),
		frequencies: pgstore.NewFrequencyStore(pool),
		bars:        chstore.NewBarStore(chConn),
	}
	cleanup := func() {
		chConn.Close()
		pool.Close()
	}
	return st, cleanup, nil
}

// serveHTTP exposes health, prometheus metrics, the snapshot websocket
// and the manual kill switch.
func serveHTTP(addr string, hub *wshub.Hub, runner *engine.Runner, log zerolog.Logger) {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	mux.Handle("/metrics", observability.Handler())
	mux.Handle("/ws", hub)
	mux.HandleFunc("/kill", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "POST required", http.StatusMethodNotAllowed)
			return
		}
		runner.Kill()
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("kill switch tripped"))
	})

	log.Info().Str("addr", addr).Msg("HTTP server listening")
	if err := http.ListenAndServe(addr, mux); err != nil && err != http.ErrServerClosed {
		log.Error().Err(err).Msg("HTTP server failed")
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
