package position

import "github.com/shopspring/decimal"

// Instruments names the instruments that get special treatment.
type Instruments struct {
	// FractionalPricing is quoted in points and 32nds.
	FractionalPricing InstrumentKey `mapstructure:"fractional_pricing"`
	// DeferredSettlementCategory trades only move cash by their fee until
	// the lot closes.
	DeferredSettlementCategory int `mapstructure:"deferred_settlement_category"`
}

// DefaultInstruments matches the journal's reference data: the 30-year
// bond future (category 3, product 5) and the futures category 3.
func DefaultInstruments() Instruments {
	return Instruments{
		FractionalPricing:          InstrumentKey{CategoryID: 3, InstrumentID: 5},
		DeferredSettlementCategory: 3,
	}
}

// Engine runs the lot accounting computations. It holds no mutable state and
// is safe for concurrent use.
type Engine struct {
	instruments Instruments
}

// New returns an engine for the given instrument identities.
func New(instruments Instruments) *Engine {
	return &Engine{instruments: instruments}
}

// Instruments returns the identities the engine was built with.
func (e *Engine) Instruments() Instruments {
	return e.instruments
}

// IsFractional reports whether the instrument is quoted in 32nds.
func (e *Engine) IsFractional(categoryID, instrumentID int) bool {
	return e.instruments.FractionalPricing.Matches(categoryID, instrumentID)
}

// IsDeferredSettlement reports whether the transaction's category settles
// its notional only when the lot closes.
func (e *Engine) IsDeferredSettlement(tx Transaction) bool {
	return tx.CategoryID == e.instruments.DeferredSettlementCategory
}

// categoryMultiplier is 1 for the fractional instrument because its encoded
// price already carries the contract's dollar value.
func (e *Engine) categoryMultiplier(tx Transaction) decimal.Decimal {
	if e.IsFractional(tx.CategoryID, tx.InstrumentID) {
		return decOne
	}
	return orOne(tx.CategoryMultiplier)
}

func (e *Engine) unitValue(tx Transaction) decimal.Decimal {
	return e.Encode(tx.Price, tx.CategoryID, tx.InstrumentID)
}

// grossValue is quantity * encoded price * both multipliers, unsigned.
func (e *Engine) grossValue(tx Transaction) decimal.Decimal {
	return decimal.NewFromInt(tx.Quantity).
		Mul(e.unitValue(tx)).
		Mul(tx.contractMultiplier()).
		Mul(e.categoryMultiplier(tx))
}

// signedGross is +gross for sells and -gross for buys.
func (e *Engine) signedGross(tx Transaction) decimal.Decimal {
	g := e.grossValue(tx)
	if tx.Direction == Sell {
		return g
	}
	return g.Neg()
}
