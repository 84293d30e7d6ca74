package config

import (
	"strings"
	"time"

	"tradejournal/internal/position"
)

// Config is the root of the journal configuration file.
type Config struct {
	App         AppConfig            `mapstructure:"app"`
	Database    DatabaseConfig       `mapstructure:"database"`
	Instruments position.Instruments `mapstructure:"instruments"`
	Cash        CashConfig           `mapstructure:"cash"`
	Quotes      QuoteConfig          `mapstructure:"quotes"`
	Rebuild     RebuildConfig        `mapstructure:"rebuild"`
}

type AppConfig struct {
	Env      string `mapstructure:"env"`
	LogLevel string `mapstructure:"log_level"`
	// LogPath is optional; when empty only stderr is used.
	LogPath string `mapstructure:"log_path"`
}

type DatabaseConfig struct {
	Path         string `mapstructure:"path"`
	MaxOpenConns int    `mapstructure:"max_open_conns"`
}

// CashConfig controls balance bookkeeping.
type CashConfig struct {
	// DefaultCurrency is used for transactions imported without one. ISO 4217.
	DefaultCurrency string `mapstructure:"default_currency"`
}

// QuoteConfig tunes the last-price cache and the guard around its source.
type QuoteConfig struct {
	TTLMinutes            int     `mapstructure:"ttl_minutes"`
	RatePerSecond         float64 `mapstructure:"rate_per_second"`
	Burst                 int     `mapstructure:"burst"`
	BreakerThreshold      int     `mapstructure:"breaker_threshold"`
	BreakerTimeoutSeconds int     `mapstructure:"breaker_timeout_seconds"`
}

func (q QuoteConfig) TTL() time.Duration {
	return time.Duration(q.TTLMinutes) * time.Minute
}

func (q QuoteConfig) BreakerTimeout() time.Duration {
	return time.Duration(q.BreakerTimeoutSeconds) * time.Second
}

type RebuildConfig struct {
	MaxParallel int `mapstructure:"max_parallel"`
}

// keySet tracks the dotted paths explicitly present in the loaded files.
type keySet map[string]struct{}

func (k keySet) mark(path string) {
	path = strings.ToLower(strings.TrimSpace(path))
	if path == "" {
		return
	}
	k[path] = struct{}{}
}

func (k keySet) isSet(path string) bool {
	if len(k) == 0 {
		return false
	}
	path = strings.ToLower(strings.TrimSpace(path))
	if path == "" {
		return false
	}
	_, ok := k[path]
	return ok
}

// fieldDefault describes when and how one field receives its default.
type fieldDefault struct {
	key   string
	need  func() bool
	apply func()
}
