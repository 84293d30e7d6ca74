package config

import (
	"strings"

	"tradejournal/internal/position"
)

const (
	defaultAppEnv            = "dev"
	defaultAppLogLevel       = "info"
	defaultDatabasePath      = "data/journal.db"
	defaultMaxOpenConns      = 2
	defaultCurrency          = "USD"
	defaultQuoteTTLMinutes   = 15
	defaultQuoteRate         = 5
	defaultQuoteBurst        = 1
	defaultBreakerThreshold  = 3
	defaultBreakerTimeoutSec = 30
	defaultRebuildParallel   = 4
)

// Default returns a configuration with every default applied, as if an
// empty file had been loaded.
func Default() *Config {
	var cfg Config
	cfg.applyDefaults(nil)
	return &cfg
}

func (c *Config) applyDefaults(keys keySet) {
	c.App.applyDefaults(keys)
	c.Database.applyDefaults(keys)
	applyInstrumentDefaults(&c.Instruments, keys)
	c.Cash.applyDefaults(keys)
	c.Quotes.applyDefaults(keys)
	c.Rebuild.applyDefaults(keys)
}

func (a *AppConfig) applyDefaults(keys keySet) {
	applyFieldDefaults(keys,
		stringFieldDefault("app.env", &a.Env, defaultAppEnv),
		stringFieldDefault("app.log_level", &a.LogLevel, defaultAppLogLevel),
	)
}

func (d *DatabaseConfig) applyDefaults(keys keySet) {
	applyFieldDefaults(keys,
		stringFieldDefault("database.path", &d.Path, defaultDatabasePath),
		intFieldDefault("database.max_open_conns", &d.MaxOpenConns, defaultMaxOpenConns),
	)
}

// Instrument identities are only defaulted when the key is absent: zero is a
// legal category id.
func applyInstrumentDefaults(in *position.Instruments, keys keySet) {
	def := position.DefaultInstruments()
	for _, d := range []struct {
		key    string
		target *int
		value  int
	}{
		{"instruments.fractional_pricing.category_id", &in.FractionalPricing.CategoryID, def.FractionalPricing.CategoryID},
		{"instruments.fractional_pricing.instrument_id", &in.FractionalPricing.InstrumentID, def.FractionalPricing.InstrumentID},
		{"instruments.deferred_settlement_category", &in.DeferredSettlementCategory, def.DeferredSettlementCategory},
	} {
		if !keys.isSet(d.key) {
			*d.target = d.value
		}
	}
}

func (c *CashConfig) applyDefaults(keys keySet) {
	applyFieldDefaults(keys,
		stringFieldDefault("cash.default_currency", &c.DefaultCurrency, defaultCurrency),
	)
	c.DefaultCurrency = strings.ToUpper(strings.TrimSpace(c.DefaultCurrency))
}

func (q *QuoteConfig) applyDefaults(keys keySet) {
	applyFieldDefaults(keys,
		intFieldDefault("quotes.ttl_minutes", &q.TTLMinutes, defaultQuoteTTLMinutes),
		intFieldDefault("quotes.burst", &q.Burst, defaultQuoteBurst),
		intFieldDefault("quotes.breaker_threshold", &q.BreakerThreshold, defaultBreakerThreshold),
		intFieldDefault("quotes.breaker_timeout_seconds", &q.BreakerTimeoutSeconds, defaultBreakerTimeoutSec),
		fieldDefault{
			key:   "quotes.rate_per_second",
			need:  func() bool { return q.RatePerSecond <= 0 },
			apply: func() { q.RatePerSecond = defaultQuoteRate },
		},
	)
}

func (r *RebuildConfig) applyDefaults(keys keySet) {
	applyFieldDefaults(keys,
		intFieldDefault("rebuild.max_parallel", &r.MaxParallel, defaultRebuildParallel),
	)
}

func applyFieldDefaults(keys keySet, defs ...fieldDefault) {
	for _, def := range defs {
		if def.apply == nil {
			continue
		}
		if def.key != "" && keys.isSet(def.key) {
			continue
		}
		if def.need != nil && !def.need() {
			continue
		}
		def.apply()
	}
}

func stringFieldDefault(key string, target *string, def string) fieldDefault {
	return fieldDefault{
		key:   key,
		need:  func() bool { return strings.TrimSpace(*target) == "" },
		apply: func() { *target = def },
	}
}

func intFieldDefault(key string, target *int, def int) fieldDefault {
	return fieldDefault{
		key:   key,
		need:  func() bool { return *target <= 0 },
		apply: func() { *target = def },
	}
}
