package app

import (
	"context"
	"fmt"
	"sync"

	"tradejournal/internal/config"
	"tradejournal/internal/journal"
	"tradejournal/internal/logger"
	"tradejournal/internal/quote"
	"tradejournal/internal/store"
)

// App holds the wired journal services for one configuration.
type App struct {
	cfg     *config.Config
	store   store.Store
	journal *journal.Service
	quotes  *quote.Service
	Summary *StartupSummary

	closeOnce sync.Once
	closeErr  error
}

// NewApp builds the application from cfg. Callers must Close it.
func NewApp(cfg *config.Config) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("nil config")
	}
	logger.SetLevel(cfg.App.LogLevel)
	return buildAppWithWire(context.Background(), cfg)
}

func (a *App) Config() *config.Config { return a.cfg }

func (a *App) Journal() *journal.Service { return a.journal }

func (a *App) Quotes() *quote.Service { return a.quotes }

// Close releases the store. It is safe to call more than once.
func (a *App) Close() error {
	if a == nil {
		return nil
	}
	a.closeOnce.Do(func() {
		if a.store != nil {
			a.closeErr = a.store.Close()
		}
	})
	return a.closeErr
}
