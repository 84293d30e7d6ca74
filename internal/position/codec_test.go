package position

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncode_BondFuture(t *testing.T) {
	e := testEngine()
	assertDec(t, "117562.5", e.Encode(dec("117.18"), 3, 5))
	assertDec(t, "117000", e.Encode(dec("117"), 3, 5))
	assertDec(t, "117968.75", e.Encode(dec("117.31"), 3, 5))
}

func TestEncode_OtherInstrumentsUnchanged(t *testing.T) {
	e := testEngine()
	assertDec(t, "117.18", e.Encode(dec("117.18"), 1, 11))
	// same category, different product
	assertDec(t, "117.18", e.Encode(dec("117.18"), 3, 2))
}

func TestDecode(t *testing.T) {
	e := testEngine()

	got, err := e.Decode(dec("117562.5"), 3, 5)
	require.NoError(t, err)
	assertDec(t, "117.18", got)

	_, err = e.Decode(dec("117562.5"), 1, 11)
	assert.ErrorIs(t, err, ErrNotFractionalInstrument)
}

func TestCodec_RoundTrip(t *testing.T) {
	e := testEngine()
	for _, points := range []int{0, 1, 98, 117, 150} {
		for ticks := 0; ticks < 32; ticks++ {
			raw := dec(fmt.Sprintf("%d.%02d", points, ticks))
			got, err := e.Decode(e.Encode(raw, 3, 5), 3, 5)
			require.NoError(t, err)
			assertDec(t, raw.String(), got, "points=", points, " ticks=", ticks)
		}
	}
}

func TestCodec_CustomIdentity(t *testing.T) {
	e := New(Instruments{FractionalPricing: InstrumentKey{CategoryID: 9, InstrumentID: 1}})
	assertDec(t, "110500", e.Encode(dec("110.16"), 9, 1))
	assertDec(t, "110.16", e.Encode(dec("110.16"), 3, 5))
}
