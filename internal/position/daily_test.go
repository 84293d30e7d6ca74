package position

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSnapshots_Empty(t *testing.T) {
	assert.Empty(t, testEngine().Snapshots(7, "AAPL", nil))
}

func TestSnapshots_ClosedSameDay(t *testing.T) {
	e := testEngine()
	got := e.Snapshots(7, "AAPL", []Transaction{
		stock("1", day1, Buy, 10, "100", "1"),
		stock("2", day1.Add(time.Hour), Sell, 10, "110", "1"),
	})
	require.Len(t, got, 1)
	s := got[0]
	assert.Equal(t, int64(0), s.Quantity)
	assertDec(t, "0", s.AveragePrice)
	assertDec(t, "0", s.Cost)
	assertDec(t, "2", s.Commission)
	assert.Equal(t, int64(7), s.AccountID)
	assert.Equal(t, "AAPL", s.Symbol)
}

func TestSnapshots_LongAverage(t *testing.T) {
	e := testEngine()
	got := e.Snapshots(7, "AAPL", []Transaction{
		stock("1", day1, Buy, 5, "50", "0.5"),
		stock("2", day1.Add(time.Minute), Buy, 5, "60", "0.5"),
	})
	require.Len(t, got, 1)
	assert.Equal(t, int64(10), got[0].Quantity)
	assertDec(t, "55", got[0].AveragePrice)
	assertDec(t, "550", got[0].Cost)
	assertDec(t, "1", got[0].Commission)
}

func TestSnapshots_OnePerDay(t *testing.T) {
	e := testEngine()
	day2 := day1.AddDate(0, 0, 1)
	got := e.Snapshots(7, "AAPL", []Transaction{
		stock("3", day2, Buy, 10, "110", "1"),
		stock("1", day1, Buy, 5, "100", "1"),
		stock("2", day1.Add(time.Hour), Buy, 5, "100", "1"),
	})
	require.Len(t, got, 2)

	assert.True(t, got[0].Date.Equal(dateOf(day1)))
	assert.Equal(t, int64(10), got[0].Quantity)
	assertDec(t, "100", got[0].AveragePrice)
	assertDec(t, "1000", got[0].Cost)

	assert.True(t, got[1].Date.Equal(dateOf(day2)))
	assert.Equal(t, int64(20), got[1].Quantity)
	assertDec(t, "105", got[1].AveragePrice)
	assertDec(t, "2100", got[1].Cost)
	assertDec(t, "3", got[1].Commission)
}

func TestSnapshots_LastStateUsesIDTieBreak(t *testing.T) {
	e := testEngine()
	got := e.Snapshots(7, "AAPL", []Transaction{
		stock("b", day1, Sell, 2, "100", "0"),
		stock("a", day1, Buy, 5, "100", "0"),
	})
	require.Len(t, got, 1)
	assert.Equal(t, int64(3), got[0].Quantity)
}

func TestSnapshots_ShortUsesOpeningAverage(t *testing.T) {
	e := testEngine()
	got := e.Snapshots(7, "AAPL", []Transaction{
		stock("1", day1, Sell, 10, "100", "1"),
		stock("2", day1.AddDate(0, 0, 1), Sell, 10, "120", "1"),
	})
	require.Len(t, got, 2)
	assert.Equal(t, int64(-20), got[1].Quantity)
	assertDec(t, "100", got[1].AveragePrice)
	assertDec(t, "-2000", got[1].Cost)
}

func TestSnapshots_FlipThroughZero(t *testing.T) {
	e := testEngine()
	got := e.Snapshots(7, "AAPL", []Transaction{
		stock("1", day1, Buy, 10, "100", "1"),
		stock("2", day1.Add(time.Hour), Sell, 15, "90", "1"),
	})
	require.Len(t, got, 1)
	s := got[0]
	// the flipping trade opens the new lot with its whole quantity
	assert.Equal(t, int64(-15), s.Quantity)
	assertDec(t, "90", s.AveragePrice)
	assertDec(t, "-1350", s.Cost)
	// commission resets with the new lot
	assertDec(t, "1", s.Commission)
}

func TestSnapshots_CategoryMultiplier(t *testing.T) {
	e := testEngine()
	tx := stock("1", day1, Buy, 3, "20", "0")
	tx.CategoryMultiplier = dec("100")
	got := e.Snapshots(7, "AAPL", []Transaction{tx})
	require.Len(t, got, 1)
	assertDec(t, "20", got[0].AveragePrice)
	assertDec(t, "6000", got[0].Cost)
}

func TestSnapshots_FractionalInstrumentIgnoresCategoryMultiplier(t *testing.T) {
	e := testEngine()
	tx := stock("1", day1, Buy, 2, "117.18", "0")
	tx.CategoryID, tx.InstrumentID, tx.Symbol = 3, 5, "ZB"
	tx.CategoryMultiplier = dec("10")
	got := e.Snapshots(7, "ZB", []Transaction{tx})
	require.Len(t, got, 1)
	assertDec(t, "117562.5", got[0].AveragePrice)
	assertDec(t, "235125", got[0].Cost)
}

func TestRunningState_ResetsPerLot(t *testing.T) {
	e := testEngine()
	states := e.RunningState(AssignLots([]Transaction{
		stock("1", day1, Buy, 10, "100", "1"),
		stock("2", day1.Add(time.Hour), Sell, 10, "110", "1"),
		stock("3", day1.Add(2*time.Hour), Buy, 4, "105", "1"),
	}))
	require.Len(t, states, 3)

	assert.Equal(t, int64(0), states[1].OpenQuantity)
	assertDec(t, "1000", states[1].TotalBuyValue)
	assertDec(t, "1100", states[1].TotalSellValue)
	assertDec(t, "2", states[1].TotalCommission)

	assert.Equal(t, 2, states[2].Tx.LotID)
	assert.Equal(t, int64(4), states[2].OpenQuantity)
	assert.Equal(t, int64(4), states[2].TotalBuyQuantity)
	assert.Equal(t, int64(0), states[2].TotalSellQuantity)
	assertDec(t, "420", states[2].TotalBuyValue)
	assertDec(t, "1", states[2].TotalCommission)
}

func TestSnapshots_MixedOffsetsShareOneCalendar(t *testing.T) {
	e := testEngine()
	ny := time.FixedZone("EST", -5*3600)
	tokyo := time.FixedZone("JST", 9*3600)
	got := e.Snapshots(7, "AAPL", []Transaction{
		stock("3", time.Date(2025, 3, 5, 9, 0, 0, 0, tokyo), Sell, 5, "110", "0"),
		stock("1", time.Date(2025, 3, 3, 20, 0, 0, 0, ny), Buy, 10, "100", "0"),
		// 21:00 in New York, still the first trade's day
		stock("2", time.Date(2025, 3, 4, 2, 0, 0, 0, time.UTC), Buy, 5, "100", "0"),
	})
	require.Len(t, got, 2)
	assert.Equal(t, "2025-03-03", got[0].Date.Format(time.DateOnly))
	assert.Equal(t, int64(15), got[0].Quantity)
	assert.Equal(t, "2025-03-04", got[1].Date.Format(time.DateOnly))
	assert.Equal(t, int64(10), got[1].Quantity)
	_, offset := got[1].Date.Zone()
	assert.Equal(t, -5*3600, offset)
}
