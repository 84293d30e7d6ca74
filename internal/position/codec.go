package position

import (
	"errors"

	"github.com/shopspring/decimal"
)

// ErrNotFractionalInstrument is returned when decoding a price of an
// instrument that is not quoted in 32nds.
var ErrNotFractionalInstrument = errors.New("position: instrument is not quoted in 32nds")

// Encode converts a raw journal price into the canonical value used for
// arithmetic. For the fractional instrument the raw price is points.ticks,
// with ticks in 32nds (117.18 is 117 + 18/32), and the canonical value is
// (points + ticks/32) * 1000. Other instruments are returned unchanged.
func (e *Engine) Encode(raw decimal.Decimal, categoryID, instrumentID int) decimal.Decimal {
	if !e.IsFractional(categoryID, instrumentID) {
		return raw
	}
	whole := raw.Floor()
	ticks := raw.Sub(whole).Mul(decHundred)
	return whole.Add(ticks.Div(decThirtyTwo)).Mul(decThousand)
}

// Decode turns a canonical value of the fractional instrument back into its
// points.ticks display form. Partial ticks are truncated.
func (e *Engine) Decode(canonical decimal.Decimal, categoryID, instrumentID int) (decimal.Decimal, error) {
	if !e.IsFractional(categoryID, instrumentID) {
		return decimal.Zero, ErrNotFractionalInstrument
	}
	points := canonical.Div(decThousand)
	whole := points.Floor()
	ticks := points.Sub(whole).Mul(decThirtyTwo).Floor()
	return whole.Add(ticks.Div(decHundred)), nil
}
