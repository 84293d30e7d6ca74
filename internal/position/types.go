// Package position is the lot accounting engine of the trading journal.
//
// Given the transactions of one account and instrument it partitions them
// into lots, tracks running cost basis per transaction, derives end-of-day
// snapshots, realizes P&L for closed lots and computes the cash impact of a
// trade. Every function is a pure computation over its input: nothing here
// performs I/O or keeps state between calls.
package position

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Direction is the trade side. The numeric codes match the journal's storage
// convention and must not be changed.
type Direction int

const (
	Buy  Direction = -1
	Sell Direction = 1
)

func (d Direction) String() string {
	switch d {
	case Buy:
		return "buy"
	case Sell:
		return "sell"
	default:
		return "unknown"
	}
}

// ParseDirection accepts "buy"/"sell" in any case or the numeric codes.
func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "buy", "-1":
		return Buy, nil
	case "sell", "1":
		return Sell, nil
	default:
		return 0, fmt.Errorf("unknown direction %q", s)
	}
}

// Valid reports whether d is one of the two known sides.
func (d Direction) Valid() bool { return d == Buy || d == Sell }

// InstrumentKey identifies an instrument by its category and id.
type InstrumentKey struct {
	CategoryID   int `json:"category_id" mapstructure:"category_id"`
	InstrumentID int `json:"instrument_id" mapstructure:"instrument_id"`
}

// Matches reports whether the pair identifies k.
func (k InstrumentKey) Matches(categoryID, instrumentID int) bool {
	return k.CategoryID == categoryID && k.InstrumentID == instrumentID
}

// Transaction is a single buy or sell as recorded in the journal.
// The two multipliers come from reference data; zero means 1.
type Transaction struct {
	ID                 string          `json:"id" yaml:"id"`
	AccountID          int64           `json:"account_id" yaml:"account_id"`
	ExecutedAt         time.Time       `json:"executed_at" yaml:"executed_at"`
	Direction          Direction       `json:"direction" yaml:"direction"`
	CategoryID         int             `json:"category_id" yaml:"category_id"`
	InstrumentID       int             `json:"instrument_id" yaml:"instrument_id"`
	Symbol             string          `json:"symbol" yaml:"symbol"`
	Quantity           int64           `json:"quantity" yaml:"quantity"`
	Price              decimal.Decimal `json:"price" yaml:"price"`
	Fee                decimal.Decimal `json:"fee" yaml:"fee"`
	ContractMultiplier decimal.Decimal `json:"contract_multiplier" yaml:"contract_multiplier"`
	CategoryMultiplier decimal.Decimal `json:"category_multiplier" yaml:"category_multiplier"`
	Currency           string          `json:"currency" yaml:"currency"`
	Notes              string          `json:"notes,omitempty" yaml:"notes"`
}

// SignedQuantity is positive for buys and negative otherwise.
func (t Transaction) SignedQuantity() int64 {
	if t.Direction == Buy {
		return t.Quantity
	}
	return -t.Quantity
}

// Date returns the calendar day of the transaction in its own location.
func (t Transaction) Date() time.Time {
	return dateOf(t.ExecutedAt)
}

func (t Transaction) contractMultiplier() decimal.Decimal {
	return orOne(t.ContractMultiplier)
}

// before is the (ExecutedAt, ID) total order used everywhere in the engine.
func (t Transaction) before(o Transaction) bool {
	if !t.ExecutedAt.Equal(o.ExecutedAt) {
		return t.ExecutedAt.Before(o.ExecutedAt)
	}
	return t.ID < o.ID
}

// LotTrade is a transaction tagged with the lot it belongs to.
type LotTrade struct {
	Transaction
	LotID int
}

// Lot is a contiguous run of trades holding one continuous position.
type Lot struct {
	ID     int
	Trades []LotTrade
}

// NetQuantity is the sum of the lot's signed quantities.
func (l Lot) NetQuantity() int64 {
	var net int64
	for _, t := range l.Trades {
		net += t.SignedQuantity()
	}
	return net
}

// TransactionState is the lot-scoped running state right after a transaction.
type TransactionState struct {
	Tx                LotTrade
	OpenQuantity      int64
	TotalBuyValue     decimal.Decimal
	TotalBuyQuantity  int64
	TotalSellValue    decimal.Decimal
	TotalSellQuantity int64
	TotalCommission   decimal.Decimal
}

// DailySnapshot is the end-of-day position of one instrument in one account.
type DailySnapshot struct {
	AccountID    int64           `json:"account_id"`
	CategoryID   int             `json:"category_id"`
	InstrumentID int             `json:"instrument_id"`
	Symbol       string          `json:"symbol"`
	Date         time.Time       `json:"date"`
	Quantity     int64           `json:"quantity"`
	AveragePrice decimal.Decimal `json:"average_price"`
	Cost         decimal.Decimal `json:"cost"`
	Commission   decimal.Decimal `json:"commission"`
}

// RealizedLot summarizes the profit and loss of one lot.
type RealizedLot struct {
	Symbol       string          `json:"symbol"`
	CategoryID   int             `json:"category_id"`
	InstrumentID int             `json:"instrument_id"`
	FirstDate    time.Time       `json:"first_date"`
	LastDate     time.Time       `json:"last_date"`
	NetQuantity  int64           `json:"net_quantity"`
	PnL          decimal.Decimal `json:"pnl"`
	Fees         decimal.Decimal `json:"fees"`
	NetTotal     decimal.Decimal `json:"net_total"`
	Closed       bool            `json:"closed"`
}

func dateOf(ts time.Time) time.Time {
	y, m, d := ts.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, ts.Location())
}

func orOne(v decimal.Decimal) decimal.Decimal {
	if v.IsZero() {
		return decOne
	}
	return v
}

var (
	decOne       = decimal.NewFromInt(1)
	decThirtyTwo = decimal.NewFromInt(32)
	decHundred   = decimal.NewFromInt(100)
	decThousand  = decimal.NewFromInt(1000)
)
