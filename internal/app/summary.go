package app

import (
	"fmt"
	"io"
	"strings"
	"time"

	"tradejournal/internal/config"
)

// StartupSummary is the effective configuration printed by the info command.
type StartupSummary struct {
	Env             string
	Database        string
	DefaultCurrency string
	Instruments     InstrumentSummary
	Quotes          QuoteSummary
	MaxParallel     int
}

type InstrumentSummary struct {
	FractionalCategory   int
	FractionalInstrument int
	DeferredCategory     int
}

type QuoteSummary struct {
	TTL              time.Duration
	RatePerSecond    float64
	Burst            int
	BreakerThreshold int
	BreakerTimeout   time.Duration
}

func newStartupSummary(cfg *config.Config) *StartupSummary {
	return &StartupSummary{
		Env:             cfg.App.Env,
		Database:        cfg.Database.Path,
		DefaultCurrency: cfg.Cash.DefaultCurrency,
		Instruments: InstrumentSummary{
			FractionalCategory:   cfg.Instruments.FractionalPricing.CategoryID,
			FractionalInstrument: cfg.Instruments.FractionalPricing.InstrumentID,
			DeferredCategory:     cfg.Instruments.DeferredSettlementCategory,
		},
		Quotes: QuoteSummary{
			TTL:              cfg.Quotes.TTL(),
			RatePerSecond:    cfg.Quotes.RatePerSecond,
			Burst:            cfg.Quotes.Burst,
			BreakerThreshold: cfg.Quotes.BreakerThreshold,
			BreakerTimeout:   cfg.Quotes.BreakerTimeout(),
		},
		MaxParallel: cfg.Rebuild.MaxParallel,
	}
}

func (s *StartupSummary) Print(w io.Writer) {
	rule := strings.Repeat("=", 60)
	fmt.Fprintln(w, rule)
	fmt.Fprintf(w, "%*s\n", 30+len("JOURNAL SUMMARY")/2, "JOURNAL SUMMARY")
	fmt.Fprintln(w, rule)

	fmt.Fprintln(w, "[STORAGE]")
	fmt.Fprintf(w, "  env:              %s\n", orDash(s.Env))
	fmt.Fprintf(w, "  database:         %s\n", orDash(s.Database))
	fmt.Fprintf(w, "  default currency: %s\n", orDash(s.DefaultCurrency))
	fmt.Fprintf(w, "  rebuild parallel: %d\n", s.MaxParallel)
	fmt.Fprintln(w)

	fmt.Fprintln(w, "[INSTRUMENTS]")
	fmt.Fprintf(w, "  32nds pricing:    category %d / instrument %d\n",
		s.Instruments.FractionalCategory, s.Instruments.FractionalInstrument)
	fmt.Fprintf(w, "  deferred cash:    category %d\n", s.Instruments.DeferredCategory)
	fmt.Fprintln(w)

	fmt.Fprintln(w, "[QUOTES]")
	fmt.Fprintf(w, "  cache ttl:        %s\n", s.Quotes.TTL)
	fmt.Fprintf(w, "  rate limit:       %g/s (burst %d)\n", s.Quotes.RatePerSecond, s.Quotes.Burst)
	fmt.Fprintf(w, "  breaker:          %d failures, %s cooldown\n", s.Quotes.BreakerThreshold, s.Quotes.BreakerTimeout)
	fmt.Fprintln(w, rule)
}

func orDash(v string) string {
	if strings.TrimSpace(v) == "" {
		return "-"
	}
	return v
}
