package position

import "github.com/shopspring/decimal"

// ApplyTransaction returns the signed change to the account's cash balance
// caused by tx, or its reversal when revert is set. Deferred-settlement
// trades only move cash by their fee; everything else settles the full
// notional at once. A zero result means there is nothing to book.
func (e *Engine) ApplyTransaction(tx Transaction, revert bool) decimal.Decimal {
	var change decimal.Decimal
	if e.IsDeferredSettlement(tx) {
		change = tx.Fee.Neg()
	} else {
		change = e.signedGross(tx).Sub(tx.Fee)
	}
	if revert {
		change = change.Neg()
	}
	return change
}

// RealizeFuturesPnL returns the gross P&L of the lot containing tx if that
// lot is closed in history. Fees are excluded because ApplyTransaction
// already booked them. It returns zero for open lots, for categories that
// settle immediately and when tx is not part of history.
func (e *Engine) RealizeFuturesPnL(tx Transaction, history []Transaction) decimal.Decimal {
	if !e.IsDeferredSettlement(tx) {
		return decimal.Zero
	}
	for _, lot := range GroupLots(AssignLots(history)) {
		if !lot.contains(tx.ID) {
			continue
		}
		if lot.NetQuantity() != 0 {
			return decimal.Zero
		}
		return e.lotGross(lot)
	}
	return decimal.Zero
}

// ClosedLotsGross sums the gross P&L of every closed deferred-settlement lot
// in history. Comparing the sum before and after a mutation yields the cash
// to realize for it, including lots reshaped by a backdated trade.
func (e *Engine) ClosedLotsGross(history []Transaction) decimal.Decimal {
	total := decimal.Zero
	for _, lot := range GroupLots(AssignLots(history)) {
		if len(lot.Trades) == 0 || lot.NetQuantity() != 0 {
			continue
		}
		if !e.IsDeferredSettlement(lot.Trades[0].Transaction) {
			continue
		}
		total = total.Add(e.lotGross(lot))
	}
	return total
}

func (e *Engine) lotGross(lot Lot) decimal.Decimal {
	total := decimal.Zero
	for _, t := range lot.Trades {
		total = total.Add(e.signedGross(t.Transaction))
	}
	return total
}

// FinanciallyEqual reports whether a and b carry the same cash-relevant
// fields. Edits that keep them unchanged must not touch the balance.
func FinanciallyEqual(a, b Transaction) bool {
	return a.Direction == b.Direction &&
		a.Quantity == b.Quantity &&
		a.Price.Equal(b.Price) &&
		a.Fee.Equal(b.Fee)
}

func (l Lot) contains(id string) bool {
	for _, t := range l.Trades {
		if t.ID == id {
			return true
		}
	}
	return false
}
