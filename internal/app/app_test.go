package app

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"
	"time"

	"tradejournal/internal/config"
	"tradejournal/internal/position"
	"tradejournal/internal/quote"
	"tradejournal/internal/store"
	"tradejournal/internal/store/sqlite"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.App.LogLevel = "error"
	cfg.Database.Path = filepath.Join(t.TempDir(), "nested", "journal.db")
	return cfg
}

func buy(symbol, price string) position.Transaction {
	return position.Transaction{
		AccountID:    7,
		ExecutedAt:   time.Date(2025, time.June, 2, 15, 0, 0, 0, time.UTC),
		Direction:    position.Buy,
		CategoryID:   1,
		InstrumentID: 11,
		Symbol:       symbol,
		Quantity:     3,
		Price:        decimal.RequireFromString(price),
		Fee:          decimal.NewFromInt(1),
	}
}

func TestNewApp_NilConfig(t *testing.T) {
	_, err := NewApp(nil)
	require.Error(t, err)
}

func TestNewApp_WiresJournalAndQuotes(t *testing.T) {
	cfg := testConfig(t)
	a, err := NewApp(cfg)
	require.NoError(t, err)
	defer a.Close()

	assert.FileExists(t, cfg.Database.Path)
	assert.Same(t, cfg, a.Config())

	ctx := context.Background()
	_, err = a.Journal().Create(ctx, buy("msft", "410.5"))
	require.NoError(t, err)

	bal, err := a.Journal().Balance(ctx, 7, "")
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("-1232.5").Equal(bal), "got %s", bal)

	q, err := a.Quotes().Quote(ctx, "MSFT")
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("410.5").Equal(q.Price))
	assert.False(t, q.Cached)

	q, err = a.Quotes().Quote(ctx, "msft")
	require.NoError(t, err)
	assert.True(t, q.Cached)

	_, err = a.Quotes().Quote(ctx, "IBM")
	assert.ErrorIs(t, err, quote.ErrNoQuote)

	require.NoError(t, a.Close())
	require.NoError(t, a.Close())
}

type fixedSource struct{ price decimal.Decimal }

func (f fixedSource) Fetch(_ context.Context, symbol string) (quote.Quote, error) {
	return quote.Quote{Symbol: symbol, Price: f.price, AsOf: time.Now()}, nil
}

func TestAppBuilder_Overrides(t *testing.T) {
	cfg := testConfig(t)
	st, err := sqlite.NewSqliteStore(filepath.Join(t.TempDir(), "own.db"))
	require.NoError(t, err)

	b := NewAppBuilder(cfg,
		WithStore(st),
		WithQuoteSource(func(store.Store) quote.Source {
			return fixedSource{price: decimal.NewFromInt(99)}
		}),
		nil,
	)
	a, err := b.Build(context.Background())
	require.NoError(t, err)
	defer a.Close()

	assert.NoFileExists(t, cfg.Database.Path)
	q, err := a.Quotes().Quote(context.Background(), "ANY")
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(99).Equal(q.Price))
	assert.Equal(t, cfg.Instruments, a.Journal().Engine().Instruments())
}

func TestAppBuilder_NilConfig(t *testing.T) {
	_, err := NewAppBuilder(nil).Build(context.Background())
	require.Error(t, err)
}

func TestStartupSummary_Print(t *testing.T) {
	cfg := testConfig(t)
	var buf bytes.Buffer
	newStartupSummary(cfg).Print(&buf)

	out := buf.String()
	assert.Contains(t, out, "JOURNAL SUMMARY")
	assert.Contains(t, out, cfg.Database.Path)
	assert.Contains(t, out, "category 3 / instrument 5")
	assert.Contains(t, out, "deferred cash:    category 3")
	assert.Contains(t, out, "15m0s")
}
