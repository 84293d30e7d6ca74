package journal

import (
	"context"
	"fmt"
	"strings"

	"tradejournal/internal/quote"
	"tradejournal/internal/store"
)

// LastPriceSource quotes a symbol at the price of its most recent journal
// trade. The price is the raw journal price, not the encoded one.
type LastPriceSource struct {
	store store.Store
}

func NewLastPriceSource(st store.Store) *LastPriceSource {
	return &LastPriceSource{store: st}
}

func (p *LastPriceSource) Fetch(ctx context.Context, symbol string) (quote.Quote, error) {
	uow, err := p.store.BeginRead(ctx)
	if err != nil {
		return quote.Quote{}, err
	}
	defer func() { _ = uow.Rollback() }()

	row, err := uow.Transactions().LastBySymbol(ctx, strings.ToUpper(strings.TrimSpace(symbol)))
	if err != nil {
		return quote.Quote{}, err
	}
	if row == nil {
		return quote.Quote{}, fmt.Errorf("%w: %s", quote.ErrNoQuote, symbol)
	}
	tx := row.Transaction()
	return quote.Quote{Symbol: tx.Symbol, Price: tx.Price, AsOf: tx.ExecutedAt}, nil
}
