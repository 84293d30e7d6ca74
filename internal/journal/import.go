package journal

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"tradejournal/internal/logger"
	"tradejournal/internal/position"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// importRecord is one entry of an import file:
//
//	- account: 1
//	  executed_at: 2025-03-03T14:30:00-05:00
//	  side: buy
//	  category: 1
//	  instrument: 11
//	  symbol: AAPL
//	  quantity: 10
//	  price: 187.45
//	  fee: 1
type importRecord struct {
	ID                 string          `yaml:"id"`
	Account            int64           `yaml:"account"`
	ExecutedAt         time.Time       `yaml:"executed_at"`
	Side               string          `yaml:"side"`
	Category           int             `yaml:"category"`
	Instrument         int             `yaml:"instrument"`
	Symbol             string          `yaml:"symbol"`
	Quantity           int64           `yaml:"quantity"`
	Price              decimal.Decimal `yaml:"price"`
	Fee                decimal.Decimal `yaml:"fee"`
	ContractMultiplier decimal.Decimal `yaml:"contract_multiplier"`
	CategoryMultiplier decimal.Decimal `yaml:"category_multiplier"`
	Currency           string          `yaml:"currency"`
	Notes              string          `yaml:"notes"`
}

// DecodeImport parses a YAML list of transactions. It does not validate
// beyond the trade side; Create does.
func DecodeImport(r io.Reader) ([]position.Transaction, error) {
	var records []importRecord
	if err := yaml.NewDecoder(r).Decode(&records); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("decode import: %w", err)
	}
	out := make([]position.Transaction, 0, len(records))
	for i, rec := range records {
		dir, err := position.ParseDirection(rec.Side)
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", i+1, err)
		}
		out = append(out, position.Transaction{
			ID:                 rec.ID,
			AccountID:          rec.Account,
			ExecutedAt:         rec.ExecutedAt,
			Direction:          dir,
			CategoryID:         rec.Category,
			InstrumentID:       rec.Instrument,
			Symbol:             rec.Symbol,
			Quantity:           rec.Quantity,
			Price:              rec.Price,
			Fee:                rec.Fee,
			ContractMultiplier: rec.ContractMultiplier,
			CategoryMultiplier: rec.CategoryMultiplier,
			Currency:           rec.Currency,
			Notes:              rec.Notes,
		})
	}
	return out, nil
}

// Import creates every transaction of r in file order and returns how many
// were stored. It stops at the first failure; earlier records stay.
func (s *Service) Import(ctx context.Context, r io.Reader) (int, error) {
	txs, err := DecodeImport(r)
	if err != nil {
		return 0, err
	}
	for i, tx := range txs {
		if _, err := s.Create(ctx, tx); err != nil {
			return i, fmt.Errorf("import record %d: %w", i+1, err)
		}
	}
	logger.Infof("imported %d transactions", len(txs))
	return len(txs), nil
}
