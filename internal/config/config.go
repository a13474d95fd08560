// Package config loads and validates the engine configuration from a
// YAML file. Any validation failure is fatal at startup: a bad config
// must never reach the trading session.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"equity-orb-lab/internal/domain"
	"equity-orb-lab/internal/picker"
	"equity-orb-lab/internal/session"
)

// Config is the top-level engine configuration.
type Config struct {
	Mode        string   `yaml:"mode"` // paper | replay | sim
	LogLevel    string   `yaml:"log_level"`
	Symbols     []string `yaml:"symbols"`
	BarWidthSec int64    `yaml:"bar_width_sec"`
	RiskBudget  float64  `yaml:"risk_budget"` // per day, split across symbols

	Picker      PickerConfig             `yaml:"picker"`
	Checkpoints session.CheckpointTimes  `yaml:"checkpoints"`
	Market      MarketConfig             `yaml:"market"`
	PrevDay     map[string]PrevDayConfig `yaml:"prev_day"`
	Storage     StorageConfig            `yaml:"storage"`
	Feed        FeedConfig               `yaml:"feed"`
	Server      ServerConfig             `yaml:"server"`
}

// PickerConfig configures the tier-fallback picker.
type PickerConfig struct {
	// MinSamples are per-tier sample floors, L3 first, decreasing
	// toward L0.
	MinSamples     []uint `yaml:"min_samples"`
	MinConfidence  int    `yaml:"min_confidence"`
	RequireOTAlign bool   `yaml:"require_ot_align"`
}

// ToPickerConfig converts the YAML shape into the picker's config.
func (p PickerConfig) ToPickerConfig() picker.Config {
	cfg := picker.Config{
		MinSamples:     make(map[domain.Tier]uint, len(domain.PickTiers)),
		MinConfidence:  p.MinConfidence,
		RequireOTAlign: p.RequireOTAlign,
	}
	for i, tier := range domain.PickTiers {
		if i < len(p.MinSamples) {
			cfg.MinSamples[tier] = p.MinSamples[i]
		}
	}
	return cfg
}

// MarketConfig names the exchange calendar the session follows.
type MarketConfig struct {
	MIC string `yaml:"mic"` // e.g. XBOM, XNYS
}

// PrevDayConfig is a per-symbol previous-day fixture used when no bar
// history backend is configured (replay and sim modes).
type PrevDayConfig struct {
	Open  float64 `yaml:"open"`
	High  float64 `yaml:"high"`
	Low   float64 `yaml:"low"`
	Close float64 `yaml:"close"`
}

// StorageConfig selects persistence backends. Empty DSNs fall back to
// in-memory stores.
type StorageConfig struct {
	PostgresDSN   string `yaml:"postgres_dsn"`
	ClickhouseDSN string `yaml:"clickhouse_dsn"`
}

// FeedConfig selects the tick source.
type FeedConfig struct {
	Source     string `yaml:"source"` // ws | replay | sim
	URL        string `yaml:"url"`    // ws source
	ReplayPath string `yaml:"replay_path"`
	Seed       int64  `yaml:"seed"` // sim source
}

// ServerConfig configures the HTTP surface (snapshot websocket, metrics).
type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// Load reads, parses and validates a config file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config yaml: %w", err)
	}
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Mode == "" {
		c.Mode = "paper"
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.BarWidthSec == 0 {
		c.BarWidthSec = 60
	}
	if c.Market.MIC == "" {
		c.Market.MIC = "XBOM"
	}
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.Feed.Source == "" {
		c.Feed.Source = "sim"
	}
}

// Validate checks every field the engine depends on.
func (c *Config) Validate() error {
	switch c.Mode {
	case "paper", "replay", "sim":
	default:
		return fmt.Errorf("unknown mode %q", c.Mode)
	}

	if len(c.Symbols) == 0 {
		return fmt.Errorf("at least one symbol required")
	}
	seen := make(map[string]struct{}, len(c.Symbols))
	for _, sym := range c.Symbols {
		if sym == "" {
			return fmt.Errorf("empty symbol in symbols list")
		}
		if _, dup := seen[sym]; dup {
			return fmt.Errorf("duplicate symbol %q", sym)
		}
		seen[sym] = struct{}{}
	}

	if c.BarWidthSec <= 0 {
		return fmt.Errorf("bar_width_sec must be positive, got %d", c.BarWidthSec)
	}
	if c.RiskBudget <= 0 {
		return fmt.Errorf("risk_budget must be positive, got %g", c.RiskBudget)
	}

	if len(c.Picker.MinSamples) != len(domain.PickTiers) {
		return fmt.Errorf("picker.min_samples needs %d entries (L3..L0), got %d",
			len(domain.PickTiers), len(c.Picker.MinSamples))
	}
	if err := c.Picker.ToPickerConfig().Validate(); err != nil {
		return err
	}

	if err := c.Checkpoints.Validate(); err != nil {
		return err
	}

	if c.Market.MIC == "" {
		return fmt.Errorf("market.mic required")
	}

	for sym, pd := range c.PrevDay {
		if _, ok := seen[sym]; !ok {
			return fmt.Errorf("prev_day fixture for unknown symbol %q", sym)
		}
		if pd.High < pd.Low {
			return fmt.Errorf("prev_day %s: high %g below low %g", sym, pd.High, pd.Low)
		}
		if pd.Close <= 0 || pd.Open <= 0 {
			return fmt.Errorf("prev_day %s: open/close must be positive", sym)
		}
	}

	switch c.Feed.Source {
	case "ws":
		if c.Feed.URL == "" {
			return fmt.Errorf("feed.url required for ws source")
		}
	case "replay":
		if c.Feed.ReplayPath == "" {
			return fmt.Errorf("feed.replay_path required for replay source")
		}
	case "sim":
	default:
		return fmt.Errorf("unknown feed source %q", c.Feed.Source)
	}

	return nil
}

// PrevDayStats converts a symbol's fixture into domain day stats.
// Returns false when no fixture is configured for the symbol.
func (c *Config) PrevDayStats(symbol, day string) (domain.DayStats, bool) {
	pd, ok := c.PrevDay[symbol]
	if !ok {
		return domain.DayStats{}, false
	}
	return domain.DayStats{
		Symbol: symbol,
		Day:    day,
		Open:   pd.Open,
		High:   pd.High,
		Low:    pd.Low,
		Close:  pd.Close,
	}, true
}
