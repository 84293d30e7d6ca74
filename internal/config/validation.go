package config

import (
	"fmt"
	"strings"

	"github.com/Rhymond/go-money"

	"tradejournal/internal/logger"
)

func validate(c *Config) error {
	if _, err := logger.ParseLevel(c.App.LogLevel); err != nil {
		return fmt.Errorf("app.log_level: %w", err)
	}
	if strings.TrimSpace(c.Database.Path) == "" {
		return fmt.Errorf("database.path cannot be empty")
	}
	if c.Database.MaxOpenConns <= 0 {
		return fmt.Errorf("database.max_open_conns must be > 0")
	}
	if money.GetCurrency(c.Cash.DefaultCurrency) == nil {
		return fmt.Errorf("cash.default_currency %q is not an ISO 4217 code", c.Cash.DefaultCurrency)
	}
	if err := c.Quotes.validate(); err != nil {
		return err
	}
	if c.Rebuild.MaxParallel <= 0 {
		return fmt.Errorf("rebuild.max_parallel must be > 0")
	}
	return nil
}

func (q *QuoteConfig) validate() error {
	if q.TTLMinutes <= 0 {
		return fmt.Errorf("quotes.ttl_minutes must be > 0")
	}
	if q.RatePerSecond <= 0 {
		return fmt.Errorf("quotes.rate_per_second must be > 0")
	}
	if q.Burst <= 0 {
		return fmt.Errorf("quotes.burst must be > 0")
	}
	if q.BreakerThreshold <= 0 {
		return fmt.Errorf("quotes.breaker_threshold must be > 0")
	}
	if q.BreakerTimeoutSeconds <= 0 {
		return fmt.Errorf("quotes.breaker_timeout_seconds must be > 0")
	}
	return nil
}
