package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"quoteaggregator/internal/quote"
	"quoteaggregator/internal/symbols"
)

type Server struct {
	Port              string `json:"port"`
	RequestTimeoutSec int    `json:"request_timeout_sec"`
	MaxRequests       int    `json:"max_requests"`
}

type Log struct {
	Format string `json:"format"` // text or json
	Level  string `json:"level"`  // debug, info, warn, error
}

// Limits are shared by every upstream that can be throttled and cached.
type Limits struct {
	MaxRequestsPerMinute  int `json:"max_requests_per_minute"`
	MinRequestIntervalSec int `json:"min_request_interval_sec"`
	Burst                 int `json:"burst"`
}

// Primary configures the batch provider. A positive CacheTTLSeconds puts a
// per-symbol cache in front of it; cache hits are then appended after the
// fresh quotes instead of following the provider's response order.
type Primary struct {
	Enabled         bool   `json:"enabled"`
	Name            string `json:"name"`
	BaseURL         string `json:"base_url"`
	APIKey          string `json:"api_key"`
	CacheTTLSeconds int    `json:"cache_ttl_sec"`
	CacheMaxItems   int    `json:"cache_max_items"`
	Limits
}

type Secondary struct {
	Enabled        bool   `json:"enabled"`
	Name           string `json:"name"`
	BaseURL        string `json:"base_url"`
	MaxConcurrency int    `json:"max_concurrency"`
	Limits
}

type Crypto struct {
	Enabled  bool         `json:"enabled"`
	BaseURL  string       `json:"base_url"`
	APIKey   string       `json:"api_key"`
	Currency string       `json:"currency"`
	Coins    []quote.Coin `json:"coins"`
	Limits
}

// Redis is optional. With no address the stale snapshot stays in process.
type Redis struct {
	Addr       string `json:"addr"`
	Password   string `json:"password"`
	DB         int    `json:"db"`
	Key        string `json:"key"`
	TTLSeconds int    `json:"ttl_sec"`
}

type Routing struct {
	SecondaryOnly []string `json:"secondary_only"`
}

type Config struct {
	Server    Server    `json:"server"`
	Log       Log       `json:"log"`
	Primary   Primary   `json:"primary"`
	Secondary Secondary `json:"secondary"`
	Crypto    Crypto    `json:"crypto"`
	Redis     Redis     `json:"redis"`
	Routing   Routing   `json:"routing"`
}

func Default() Config {
	return Config{
		Server: Server{Port: "8080", RequestTimeoutSec: 10, MaxRequests: 1000},
		Log:    Log{Format: "text", Level: "info"},
		Primary: Primary{
			Enabled:         true,
			Name:            "primary",
			Limits:          Limits{MaxRequestsPerMinute: 8, Burst: 1},
			CacheTTLSeconds: 0,
			CacheMaxItems:   10000,
		},
		Secondary: Secondary{
			Enabled: true,
			Name:    "yahoo",
			BaseURL: "https://query1.finance.yahoo.com",
		},
		Crypto: Crypto{
			Enabled:  true,
			BaseURL:  "https://api.coingecko.com/api/v3",
			Currency: "usd",
			Coins:    append([]quote.Coin(nil), symbols.DefaultCoins...),
			Limits:   Limits{MaxRequestsPerMinute: 30, Burst: 2},
		},
		Redis:   Redis{Key: "quotes:last"},
		Routing: Routing{SecondaryOnly: append([]string(nil), symbols.DefaultSecondaryOnly...)},
	}
}

// Load reads JSON config from path. If path is empty it tries ./config.json,
// and a missing file yields defaults. Environment variables override select
// fields, API keys in particular.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		if _, err := os.Stat("config.json"); err == nil {
			path = "config.json"
		}
	}
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return cfg, fmt.Errorf("read config: %w", err)
		}
		if err == nil {
			if err := json.Unmarshal(b, &cfg); err != nil {
				return cfg, fmt.Errorf("parse config: %w", err)
			}
		}
	}
	applyEnv(&cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("PORT"); v != "" {
		cfg.Server.Port = v
	}
	envInt("REQUEST_TIMEOUT_SEC", 1, &cfg.Server.RequestTimeoutSec)
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Log.Format = strings.ToLower(v)
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = strings.ToLower(v)
	}

	if v := os.Getenv("PRIMARY_API_KEY"); v != "" {
		cfg.Primary.APIKey = v
	}
	if v := os.Getenv("PRIMARY_BASE_URL"); v != "" {
		cfg.Primary.BaseURL = v
	}
	envBool("PRIMARY_ENABLED", &cfg.Primary.Enabled)
	envInt("PRIMARY_MAX_RPM", 0, &cfg.Primary.MaxRequestsPerMinute)
	envInt("PRIMARY_MIN_INTERVAL_SEC", 0, &cfg.Primary.MinRequestIntervalSec)
	envInt("PRIMARY_BURST", 1, &cfg.Primary.Burst)
	envInt("PRIMARY_CACHE_TTL_SEC", 0, &cfg.Primary.CacheTTLSeconds)
	envInt("PRIMARY_CACHE_MAX_ITEMS", 1, &cfg.Primary.CacheMaxItems)

	if v := os.Getenv("SECONDARY_BASE_URL"); v != "" {
		cfg.Secondary.BaseURL = v
	}
	envBool("SECONDARY_ENABLED", &cfg.Secondary.Enabled)
	envInt("SECONDARY_MAX_CONCURRENCY", 0, &cfg.Secondary.MaxConcurrency)
	envInt("SECONDARY_MAX_RPM", 0, &cfg.Secondary.MaxRequestsPerMinute)
	envInt("SECONDARY_MIN_INTERVAL_SEC", 0, &cfg.Secondary.MinRequestIntervalSec)
	envInt("SECONDARY_BURST", 1, &cfg.Secondary.Burst)
	if v := os.Getenv("SECONDARY_ONLY"); v != "" {
		cfg.Routing.SecondaryOnly = splitCSV(v)
	}

	if v := os.Getenv("COINGECKO_BASE_URL"); v != "" {
		cfg.Crypto.BaseURL = v
	}
	if v := os.Getenv("COINGECKO_API_KEY"); v != "" {
		cfg.Crypto.APIKey = v
	}
	envBool("CRYPTO_ENABLED", &cfg.Crypto.Enabled)

	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		cfg.Redis.Password = v
	}
	envInt("REDIS_DB", 0, &cfg.Redis.DB)
	envInt("REDIS_TTL_SEC", 0, &cfg.Redis.TTLSeconds)
}

// envInt sets *dst from key when the value parses and is at least lo.
func envInt(key string, lo int, dst *int) {
	v := os.Getenv(key)
	if v == "" {
		return
	}
	var x int
	if _, err := fmt.Sscanf(v, "%d", &x); err != nil || x < lo {
		return
	}
	*dst = x
}

func envBool(key string, dst *bool) {
	switch strings.ToLower(os.Getenv(key)) {
	case "1", "true", "yes", "y":
		*dst = true
	case "0", "false", "no", "n":
		*dst = false
	}
}

func splitCSV(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// SplitCSV splits a comma separated list, dropping blanks.
func SplitCSV(s string) []string { return splitCSV(s) }
