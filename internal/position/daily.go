package position

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// DailySnapshots keeps the last state of each calendar day and prices it.
// Days are taken in the zone of the scope's earliest trade so that trades
// recorded under different UTC offsets share one calendar, and snapshots
// come out in day order.
//
// Long positions are averaged over every buy of the lot so far. Short
// positions use the average of the lot's opening trade only. The two rules
// differ on purpose and must stay that way until product decides otherwise.
func (e *Engine) DailySnapshots(accountID int64, symbol string, states []TransactionState) []DailySnapshot {
	if len(states) == 0 {
		return nil
	}

	earliest := states[0].Tx
	for _, s := range states[1:] {
		if s.Tx.before(earliest.Transaction) {
			earliest = s.Tx
		}
	}
	loc := earliest.ExecutedAt.Location()

	lotOpen := make(map[int]TransactionState)
	var days []string
	last := make(map[string]TransactionState)
	for _, s := range states {
		if first, ok := lotOpen[s.Tx.LotID]; !ok || s.Tx.before(first.Tx.Transaction) {
			lotOpen[s.Tx.LotID] = s
		}
		day := s.Tx.ExecutedAt.In(loc).Format(time.DateOnly)
		cur, ok := last[day]
		if !ok {
			days = append(days, day)
		}
		if !ok || cur.Tx.before(s.Tx.Transaction) {
			last[day] = s
		}
	}

	sort.Strings(days)
	out := make([]DailySnapshot, 0, len(days))
	for _, day := range days {
		s := last[day]
		avg := decimal.Zero
		switch {
		case s.OpenQuantity > 0:
			if s.TotalBuyQuantity > 0 {
				avg = s.TotalBuyValue.Div(decimal.NewFromInt(s.TotalBuyQuantity))
			}
		case s.OpenQuantity < 0:
			if open := lotOpen[s.Tx.LotID]; open.TotalSellQuantity > 0 {
				avg = open.TotalSellValue.Div(decimal.NewFromInt(open.TotalSellQuantity))
			}
		}
		// Only the category multiplier applies to cost.
		cost := decimal.NewFromInt(s.OpenQuantity).Mul(avg).Mul(e.categoryMultiplier(s.Tx.Transaction))

		out = append(out, DailySnapshot{
			AccountID:    accountID,
			CategoryID:   s.Tx.CategoryID,
			InstrumentID: s.Tx.InstrumentID,
			Symbol:       symbol,
			Date:         dateOf(s.Tx.ExecutedAt.In(loc)),
			Quantity:     s.OpenQuantity,
			AveragePrice: avg,
			Cost:         cost,
			Commission:   s.TotalCommission,
		})
	}
	return out
}

// Snapshots runs lot assignment, running state and daily selection over the
// full history of one account and instrument.
func (e *Engine) Snapshots(accountID int64, symbol string, txs []Transaction) []DailySnapshot {
	return e.DailySnapshots(accountID, symbol, e.RunningState(AssignLots(txs)))
}
