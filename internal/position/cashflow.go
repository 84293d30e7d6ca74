package position

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// CashKind classifies a cash entry that is not a trade. Stored as its
// numeric code.
type CashKind int

const (
	Deposit    CashKind = 1
	Withdrawal CashKind = 2
	Dividend   CashKind = 3
	Interest   CashKind = 4
	Charge     CashKind = 5
)

var cashKindNames = map[CashKind]string{
	Deposit:    "deposit",
	Withdrawal: "withdrawal",
	Dividend:   "dividend",
	Interest:   "interest",
	Charge:     "charge",
}

func (k CashKind) String() string {
	if name, ok := cashKindNames[k]; ok {
		return name
	}
	return "unknown"
}

func (k CashKind) Valid() bool {
	_, ok := cashKindNames[k]
	return ok
}

// Outflow reports whether the kind takes money out of the account.
func (k CashKind) Outflow() bool { return k == Withdrawal || k == Charge }

// ParseCashKind accepts a kind name in any case.
func ParseCashKind(s string) (CashKind, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for k, n := range cashKindNames {
		if n == name {
			return k, nil
		}
	}
	return 0, fmt.Errorf("unknown cash kind %q", s)
}

// CashTransaction moves money in or out of an account without trading.
// Amount is positive; Kind decides the sign.
type CashTransaction struct {
	ID         string          `json:"id"`
	AccountID  int64           `json:"account_id"`
	ExecutedAt time.Time       `json:"executed_at"`
	Kind       CashKind        `json:"kind"`
	Amount     decimal.Decimal `json:"amount"`
	Currency   string          `json:"currency"`
	Notes      string          `json:"notes,omitempty"`
}

// SignedAmount is the amount as seen by the account balance.
func (c CashTransaction) SignedAmount() decimal.Decimal {
	if c.Kind.Outflow() {
		return c.Amount.Neg()
	}
	return c.Amount
}

// DailyCashBalance is an account's balance in one currency at the end of a day.
type DailyCashBalance struct {
	AccountID int64           `json:"account_id"`
	Currency  string          `json:"currency"`
	Date      time.Time       `json:"date"`
	Amount    decimal.Decimal `json:"amount"`
}

// ApplyCash returns the balance change caused by c, or its reversal.
func (e *Engine) ApplyCash(c CashTransaction, revert bool) decimal.Decimal {
	if revert {
		return c.SignedAmount().Neg()
	}
	return c.SignedAmount()
}

// OpenLotTrades returns the trades of the most recent lot in txs when that
// lot is still open, and nil when the position is flat.
func (e *Engine) OpenLotTrades(txs []Transaction) []Transaction {
	lots := GroupLots(AssignLots(txs))
	if len(lots) == 0 {
		return nil
	}
	last := lots[len(lots)-1]
	if last.NetQuantity() == 0 {
		return nil
	}
	out := make([]Transaction, len(last.Trades))
	for i, t := range last.Trades {
		out[i] = t.Transaction
	}
	return out
}
