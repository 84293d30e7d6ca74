package position

import (
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

var day1 = time.Date(2025, time.March, 3, 9, 30, 0, 0, time.UTC)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func assertDec(t *testing.T, want string, got decimal.Decimal, msgAndArgs ...any) {
	t.Helper()
	assert.Truef(t, dec(want).Equal(got), "want %s, got %s %s", want, got.String(), fmt.Sprint(msgAndArgs...))
}

func testEngine() *Engine { return New(DefaultInstruments()) }

// stock builds an equity trade (category 1) with unit multipliers.
func stock(id string, at time.Time, d Direction, qty int64, price, fee string) Transaction {
	return Transaction{
		ID:           id,
		AccountID:    7,
		ExecutedAt:   at,
		Direction:    d,
		CategoryID:   1,
		InstrumentID: 11,
		Symbol:       "AAPL",
		Quantity:     qty,
		Price:        dec(price),
		Fee:          dec(fee),
		Currency:     "USD",
	}
}

// future builds a deferred-settlement trade on a non-fractional contract.
func future(id string, at time.Time, d Direction, qty int64, price, fee string) Transaction {
	tx := stock(id, at, d, qty, price, fee)
	tx.CategoryID = 3
	tx.InstrumentID = 2
	tx.Symbol = "ES"
	tx.ContractMultiplier = dec("50")
	return tx
}
