package position

import "sort"

// SortTransactions returns a copy of txs ordered by (ExecutedAt, ID).
// Timestamps are not unique, so the id tie-break is required for a stable
// lot layout.
func SortTransactions(txs []Transaction) []Transaction {
	out := make([]Transaction, len(txs))
	copy(out, txs)
	sort.SliceStable(out, func(i, j int) bool { return out[i].before(out[j]) })
	return out
}

// AssignLots orders txs and tags each with its lot id. A new lot starts when
// the running position is flat or when the trade flips it from long to short
// or back. Lot ids start at 1.
func AssignLots(txs []Transaction) []LotTrade {
	if len(txs) == 0 {
		return nil
	}
	ordered := SortTransactions(txs)
	out := make([]LotTrade, 0, len(ordered))
	lotID := 1
	var running int64
	for _, tx := range ordered {
		signed := tx.SignedQuantity()
		if running == 0 || sign(running)*sign(running+signed) == -1 {
			if len(out) > 0 {
				lotID++
			}
		}
		out = append(out, LotTrade{Transaction: tx, LotID: lotID})
		running += signed
	}
	return out
}

// GroupLots splits lot-tagged trades into lots, keeping trade order.
func GroupLots(trades []LotTrade) []Lot {
	var lots []Lot
	for _, t := range trades {
		n := len(lots)
		if n == 0 || lots[n-1].ID != t.LotID {
			lots = append(lots, Lot{ID: t.LotID})
			n++
		}
		lots[n-1].Trades = append(lots[n-1].Trades, t)
	}
	return lots
}

func sign(v int64) int64 {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	default:
		return 0
	}
}
