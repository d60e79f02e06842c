package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ---------------------------------------------------------------------------
// Configuration structs
// ---------------------------------------------------------------------------

// Config is the top-level configuration for the peaktrade platform.
type Config struct {
	Storage     Storage           `yaml:"storage"`
	Logging     Logging           `yaml:"logging"`
	Alpaca      Alpaca            `yaml:"alpaca"`
	Backtest    BacktestConfig    `yaml:"backtest"`
	Risk        RiskConfig        `yaml:"risk"`
	Allocation  AllocationConfig  `yaml:"allocation"`
	WalkForward WalkForwardConfig `yaml:"walkforward"`
	Fetch       FetchConfig       `yaml:"fetch"`
}

// Storage holds paths for data persistence.
type Storage struct {
	DataDir    string `yaml:"data_dir"`
	SQLitePath string `yaml:"sqlite_path"`
	OutputDir  string `yaml:"output_dir"`
}

// Logging configures the application logger.
type Logging struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Alpaca holds credentials and endpoints for the Alpaca market-data API.
type Alpaca struct {
	APIKey    string `yaml:"api_key"`
	APISecret string `yaml:"api_secret"`
	BaseURL   string `yaml:"base_url"`
	DataURL   string `yaml:"data_url"`
}

// BacktestConfig holds parameters for a single-strategy simulation run.
type BacktestConfig struct {
	Symbol         string  `yaml:"symbol"`
	Strategy       string  `yaml:"strategy"`
	InitialCapital float64 `yaml:"initial_capital"`
	BarMinutes     int     `yaml:"bar_minutes"`
}

// RiskConfig defines the entry gate bounds consumed by the simulation engine.
type RiskConfig struct {
	RiskPerTrade     float64 `yaml:"risk_per_trade"`
	StopLossPct      float64 `yaml:"stop_loss_pct"`
	MaxPositionPct   float64 `yaml:"max_position_pct"`
	MinPositionValue float64 `yaml:"min_position_value"`
	MinStopDistance  float64 `yaml:"min_stop_distance"`
	MaxDrawdownPct   float64 `yaml:"max_drawdown_pct"`
	MaxDailyLossPct  float64 `yaml:"max_daily_loss_pct"`
}

// AllocationConfig holds the portfolio-weighting parameters.
type AllocationConfig struct {
	Method       string   `yaml:"method"`
	TotalCapital float64  `yaml:"total_capital"`
	PreviewBars  int      `yaml:"preview_bars"`
	RiskFreeRate float64  `yaml:"risk_free_rate"`
	Strategies   []string `yaml:"strategies"`
}

// WalkForwardConfig holds the optimizer parameters.
type WalkForwardConfig struct {
	TrainWindow int                  `yaml:"train_window"`
	TestWindow  int                  `yaml:"test_window"`
	Metric      string               `yaml:"metric"`
	Ascending   bool                 `yaml:"ascending"`
	Grid        map[string][]float64 `yaml:"grid"`
	BaseParams  map[string]float64   `yaml:"base_params"`
}

// FetchConfig controls historical bar downloads.
type FetchConfig struct {
	Symbols         []string `yaml:"symbols"`
	StartDate       string   `yaml:"start_date"`
	MaxWorkers      int      `yaml:"max_workers"`
	RateLimitPerMin int      `yaml:"rate_limit_per_min"`
}

// ---------------------------------------------------------------------------
// Loading
// ---------------------------------------------------------------------------

// Load reads the YAML configuration file at the given path, parses it into a
// Config struct, and then applies environment variable overrides.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	applyEnvOverrides(cfg)
	applyDefaults(cfg)

	return cfg, nil
}

// applyDefaults fills fields the file may leave empty.
func applyDefaults(cfg *Config) {
	if cfg.Storage.DataDir == "" {
		cfg.Storage.DataDir = "data"
	}
	if cfg.Storage.SQLitePath == "" {
		cfg.Storage.SQLitePath = "peaktrade.db"
	}
	if cfg.Storage.OutputDir == "" {
		cfg.Storage.OutputDir = "output"
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Backtest.InitialCapital == 0 {
		cfg.Backtest.InitialCapital = 100000
	}
	if cfg.Backtest.BarMinutes == 0 {
		cfg.Backtest.BarMinutes = 1440
	}
	if cfg.Allocation.Method == "" {
		cfg.Allocation.Method = "equal"
	}
	if cfg.WalkForward.Metric == "" {
		cfg.WalkForward.Metric = "sharpe"
	}
	if cfg.Fetch.MaxWorkers == 0 {
		cfg.Fetch.MaxWorkers = 4
	}
	if cfg.Fetch.RateLimitPerMin == 0 {
		cfg.Fetch.RateLimitPerMin = 200
	}
}

// applyEnvOverrides checks well-known environment variables and overrides the
// corresponding configuration fields when they are set.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("DATA_DIR"); v != "" {
		cfg.Storage.DataDir = v
	}

	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Storage.SQLitePath = v
	}

	if v := os.Getenv("OUTPUT_DIR"); v != "" {
		cfg.Storage.OutputDir = v
	}

	if v := os.Getenv("ALPACA_API_KEY"); v != "" {
		cfg.Alpaca.APIKey = v
	}

	if v := os.Getenv("ALPACA_API_SECRET"); v != "" {
		cfg.Alpaca.APISecret = v
	}

	if v := os.Getenv("ALPACA_BASE_URL"); v != "" {
		cfg.Alpaca.BaseURL = v
	}

	if v := os.Getenv("ALPACA_DATA_URL"); v != "" {
		cfg.Alpaca.DataURL = v
	}

	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}

	// Standard Alpaca env vars (highest priority — canonical names used by SDK).
	if v := os.Getenv("APCA_API_KEY_ID"); v != "" {
		cfg.Alpaca.APIKey = v
	}
	if v := os.Getenv("APCA_API_SECRET_KEY"); v != "" {
		cfg.Alpaca.APISecret = v
	}
}
