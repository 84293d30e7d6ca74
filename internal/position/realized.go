package position

import (
	"sort"

	"github.com/shopspring/decimal"
)

// RealizedPnL groups txs by symbol, re-derives lots inside each group and
// reports every lot whose net quantity returned to zero. The input may be
// any subset of the journal; lots are always computed on exactly what is
// passed in.
func (e *Engine) RealizedPnL(txs []Transaction) []RealizedLot {
	var out []RealizedLot
	for _, l := range e.LotSummaries(txs) {
		if l.Closed {
			out = append(out, l)
		}
	}
	return out
}

// LotSummaries is RealizedPnL without the closed filter: open lots are
// reported too, with Closed false.
func (e *Engine) LotSummaries(txs []Transaction) []RealizedLot {
	if len(txs) == 0 {
		return nil
	}
	bySymbol := make(map[string][]Transaction)
	for _, tx := range txs {
		bySymbol[tx.Symbol] = append(bySymbol[tx.Symbol], tx)
	}
	symbols := make([]string, 0, len(bySymbol))
	for s := range bySymbol {
		symbols = append(symbols, s)
	}
	sort.Strings(symbols)

	var out []RealizedLot
	for _, symbol := range symbols {
		for _, lot := range GroupLots(AssignLots(bySymbol[symbol])) {
			out = append(out, e.summarize(symbol, lot))
		}
	}
	return out
}

func (e *Engine) summarize(symbol string, lot Lot) RealizedLot {
	first, last := lot.Trades[0], lot.Trades[len(lot.Trades)-1]
	pnl, fees := decimal.Zero, decimal.Zero
	for _, t := range lot.Trades {
		pnl = pnl.Add(e.signedGross(t.Transaction))
		fees = fees.Add(t.Fee)
	}
	net := lot.NetQuantity()
	return RealizedLot{
		Symbol:       symbol,
		CategoryID:   first.CategoryID,
		InstrumentID: first.InstrumentID,
		FirstDate:    first.Date(),
		LastDate:     last.Date(),
		NetQuantity:  net,
		PnL:          pnl,
		Fees:         fees,
		NetTotal:     pnl.Sub(fees),
		Closed:       net == 0,
	}
}
