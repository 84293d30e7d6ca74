package position

import "github.com/shopspring/decimal"

// RunningState walks lot-tagged trades and records the lot-scoped running
// totals right after each one. Accumulators reset at every lot boundary;
// trade order inside a lot is preserved.
func (e *Engine) RunningState(trades []LotTrade) []TransactionState {
	if len(trades) == 0 {
		return nil
	}
	out := make([]TransactionState, 0, len(trades))
	for _, lot := range GroupLots(trades) {
		var qty, buyQty, sellQty int64
		buyValue, sellValue, fees := decimal.Zero, decimal.Zero, decimal.Zero
		for _, t := range lot.Trades {
			value := decimal.NewFromInt(t.Quantity).Mul(e.unitValue(t.Transaction))
			switch t.Direction {
			case Buy:
				buyQty += t.Quantity
				buyValue = buyValue.Add(value)
			case Sell:
				sellQty += t.Quantity
				sellValue = sellValue.Add(value)
			}
			fees = fees.Add(t.Fee)
			qty += t.SignedQuantity()

			out = append(out, TransactionState{
				Tx:                t,
				OpenQuantity:      qty,
				TotalBuyValue:     buyValue,
				TotalBuyQuantity:  buyQty,
				TotalSellValue:    sellValue,
				TotalSellQuantity: sellQty,
				TotalCommission:   fees,
			})
		}
	}
	return out
}
