package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"candlecache/internal/domain"
)

// Config holds all application configuration.
type Config struct {
	Binance struct {
		APIKey     string `yaml:"api_key"`
		SecretKey  string `yaml:"secret_key"`
		UseTestnet bool   `yaml:"use_testnet"`
	} `yaml:"binance"`
	Cache struct {
		Pairs    []string `yaml:"pairs"`
		Interval string   `yaml:"interval"`
	} `yaml:"cache"`
	Store struct {
		// Backend selects the candle store: file, sqlite or redis.
		Backend string `yaml:"backend"`
		DataDir string `yaml:"data_dir"`
		DBPath  string `yaml:"db_path"`
		Redis   struct {
			Addr     string `yaml:"addr"`
			Password string `yaml:"password"`
			DB       int    `yaml:"db"`
		} `yaml:"redis"`
	} `yaml:"store"`
	Sync struct {
		LookbackDays int `yaml:"lookback_days"`
		// SinceDate accepts RFC3339, YYYYMMDD or unix seconds.
		SinceDate string `yaml:"since_date"`
		FillGaps  bool   `yaml:"fill_gaps"`
	} `yaml:"sync"`
	Schedule struct {
		// CronSpec is a six-field cron expression with a seconds column.
		CronSpec    string `yaml:"cron"`
		SyncOnStart bool   `yaml:"sync_on_start"`
	} `yaml:"schedule"`
	Logging struct {
		Level string `yaml:"level"`
		// Format selects the logger output: json, console or text.
		Format string `yaml:"format"`
	} `yaml:"logging"`
	Export struct {
		CSVDir string `yaml:"csv_dir"`
	} `yaml:"export"`

	// SinceSec is the parsed form of Sync.SinceDate, 0 when unset.
	SinceSec int64 `yaml:"-"`
}

// LoadConfig loads configuration from an optional YAML file (CONFIG_FILE,
// default config.yaml) and applies environment variable overrides (.env file
// supported).
func LoadConfig() (*Config, error) {
	// Load .env file, but don't fail if it doesn't exist (allow pure env vars)
	_ = godotenv.Load()

	cfg := &Config{}

	path := getEnv("CONFIG_FILE", "config.yaml")
	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config file %s: %w", path, err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}

	applyEnvOverrides(cfg)
	applyDefaults(cfg)

	var errs []string // Collect validation errors

	cfg.SinceSec, err = parseSinceDate(cfg.Sync.SinceDate)
	if err != nil {
		errs = append(errs, fmt.Sprintf("invalid SINCE_DATE: %v", err))
	}

	switch cfg.Store.Backend {
	case "file", "sqlite", "redis":
	default:
		errs = append(errs, fmt.Sprintf("unknown store backend %q, want file, sqlite or redis", cfg.Store.Backend))
	}

	if _, err := domain.IntervalMinutes(cfg.Cache.Interval); err != nil {
		errs = append(errs, fmt.Sprintf("invalid INTERVAL: %v", err))
	}

	for _, pair := range cfg.Cache.Pairs {
		if !strings.Contains(pair, "/") {
			errs = append(errs, fmt.Sprintf("pair %q must use the BASE/QUOTE form", pair))
		}
	}

	if cfg.Sync.LookbackDays <= 0 {
		errs = append(errs, "LOOKBACK_DAYS must be positive")
	}

	switch cfg.Logging.Format {
	case "json", "console", "text":
	default:
		errs = append(errs, fmt.Sprintf("unknown log format %q, want json, console or text", cfg.Logging.Format))
	}

	if len(errs) > 0 {
		return nil, fmt.Errorf("configuration validation failed: %s", strings.Join(errs, "; "))
	}

	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	cfg.Binance.APIKey = getEnv("BINANCE_API_KEY", cfg.Binance.APIKey)
	cfg.Binance.SecretKey = getEnv("BINANCE_API_SECRET", cfg.Binance.SecretKey)
	cfg.Binance.UseTestnet = getEnvAsBool("IS_TESTNET", cfg.Binance.UseTestnet)

	if v := getEnv("PAIRS", ""); v != "" {
		cfg.Cache.Pairs = splitPairs(v)
	}
	cfg.Cache.Interval = getEnv("INTERVAL", cfg.Cache.Interval)

	cfg.Store.Backend = getEnv("STORE_BACKEND", cfg.Store.Backend)
	cfg.Store.DataDir = getEnv("DATA_DIR", cfg.Store.DataDir)
	cfg.Store.DBPath = getEnv("DB_PATH", cfg.Store.DBPath)
	cfg.Store.Redis.Addr = getEnv("REDIS_ADDR", cfg.Store.Redis.Addr)
	cfg.Store.Redis.Password = getEnv("REDIS_PASSWORD", cfg.Store.Redis.Password)
	cfg.Store.Redis.DB = getEnvAsInt("REDIS_DB", cfg.Store.Redis.DB)

	cfg.Sync.LookbackDays = getEnvAsInt("LOOKBACK_DAYS", cfg.Sync.LookbackDays)
	cfg.Sync.SinceDate = getEnv("SINCE_DATE", cfg.Sync.SinceDate)
	cfg.Sync.FillGaps = getEnvAsBool("FILL_GAPS", cfg.Sync.FillGaps)

	cfg.Schedule.CronSpec = getEnv("CRON_SPEC", cfg.Schedule.CronSpec)
	cfg.Schedule.SyncOnStart = getEnvAsBool("SYNC_ON_START", cfg.Schedule.SyncOnStart)

	cfg.Logging.Level = getEnv("LOG_LEVEL", cfg.Logging.Level)
	cfg.Logging.Format = getEnv("LOG_FORMAT", cfg.Logging.Format)

	cfg.Export.CSVDir = getEnv("CSV_DIR", cfg.Export.CSVDir)
}

func applyDefaults(cfg *Config) {
	if len(cfg.Cache.Pairs) == 0 {
		cfg.Cache.Pairs = []string{"ETH/USDT"}
	}
	if cfg.Cache.Interval == "" {
		cfg.Cache.Interval = "5m"
	}
	if cfg.Store.Backend == "" {
		cfg.Store.Backend = "file"
	}
	if cfg.Store.DataDir == "" {
		cfg.Store.DataDir = "./data/history"
	}
	if cfg.Store.DBPath == "" {
		cfg.Store.DBPath = "./data/candles.db"
	}
	if cfg.Store.Redis.Addr == "" {
		cfg.Store.Redis.Addr = "localhost:6379"
	}
	if cfg.Sync.LookbackDays == 0 {
		cfg.Sync.LookbackDays = 30
	}
	if cfg.Schedule.CronSpec == "" {
		// Default: every five minutes
		cfg.Schedule.CronSpec = "0 */5 * * * *"
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
}

// Keys returns one cache key per configured pair.
func (c *Config) Keys() []domain.CacheKey {
	keys := make([]domain.CacheKey, 0, len(c.Cache.Pairs))
	for _, pair := range c.Cache.Pairs {
		keys = append(keys, domain.CacheKey{Pair: pair, Interval: c.Cache.Interval})
	}
	return keys
}

// Lookback returns the configured cold-start lookback window.
func (c *Config) Lookback() time.Duration {
	return time.Duration(c.Sync.LookbackDays) * 24 * time.Hour
}

// TimeRange returns the configured sync range, zero when no start date is set.
func (c *Config) TimeRange() domain.TimeRange {
	if c.SinceSec > 0 {
		return domain.SinceDate(c.SinceSec)
	}
	return domain.TimeRange{}
}

func splitPairs(value string) []string {
	parts := strings.Split(value, ",")
	pairs := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			pairs = append(pairs, p)
		}
	}
	return pairs
}

func parseSinceDate(value string) (int64, error) {
	if value == "" {
		return 0, nil
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t.Unix(), nil
	}
	if t, err := time.Parse("20060102", value); err == nil {
		return t.Unix(), nil
	}
	if sec, err := strconv.ParseInt(value, 10, 64); err == nil {
		return sec, nil
	}
	return 0, fmt.Errorf("unrecognized date %q, want RFC3339, YYYYMMDD or unix seconds", value)
}

// --- Env Var Helpers ---

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
