package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"tradejournal/internal/config"
	"tradejournal/internal/journal"
	"tradejournal/internal/logger"
	"tradejournal/internal/position"
	"tradejournal/internal/quote"
	"tradejournal/internal/store"
	"tradejournal/internal/store/sqlite"
)

type AppBuilder struct {
	cfg *config.Config

	storeFn  func(config.DatabaseConfig) (store.Store, error)
	sourceFn func(store.Store) quote.Source

	storeOverride store.Store
}

type AppBuilderOption func(*AppBuilder)

// WithStore makes Build use st instead of opening the configured database.
func WithStore(st store.Store) AppBuilderOption {
	return func(b *AppBuilder) { b.storeOverride = st }
}

// WithQuoteSource replaces the journal-backed last price source.
func WithQuoteSource(fn func(store.Store) quote.Source) AppBuilderOption {
	return func(b *AppBuilder) {
		if fn != nil {
			b.sourceFn = fn
		}
	}
}

func NewAppBuilder(cfg *config.Config, opts ...AppBuilderOption) *AppBuilder {
	b := &AppBuilder{
		cfg:      cfg,
		storeFn:  openStore,
		sourceFn: journalSource,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(b)
		}
	}
	return b
}

func openStore(db config.DatabaseConfig) (store.Store, error) {
	if dir := filepath.Dir(db.Path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create database dir: %w", err)
		}
	}
	return sqlite.NewSqliteStore(db.Path, sqlite.WithMaxOpenConns(db.MaxOpenConns))
}

func journalSource(st store.Store) quote.Source {
	return journal.NewLastPriceSource(st)
}

func (b *AppBuilder) Build(ctx context.Context) (*App, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if b.cfg == nil {
		return nil, fmt.Errorf("nil config")
	}
	cfg := b.cfg

	st := b.storeOverride
	if st == nil {
		var err error
		st, err = b.storeFn(cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("open store %s: %w", cfg.Database.Path, err)
		}
		logger.Infof("✓ journal database ready: %s", cfg.Database.Path)
	}

	engine := position.New(cfg.Instruments)
	svc := journal.NewService(st, engine, journal.Options{
		DefaultCurrency: cfg.Cash.DefaultCurrency,
		MaxParallel:     cfg.Rebuild.MaxParallel,
	})
	quotes := quote.NewService(b.sourceFn(st), quote.Options{
		TTL:              cfg.Quotes.TTL(),
		RatePerSecond:    cfg.Quotes.RatePerSecond,
		Burst:            cfg.Quotes.Burst,
		BreakerThreshold: cfg.Quotes.BreakerThreshold,
		BreakerTimeout:   cfg.Quotes.BreakerTimeout(),
	})

	return &App{
		cfg:     cfg,
		store:   st,
		journal: svc,
		quotes:  quotes,
		Summary: newStartupSummary(cfg),
	}, nil
}
