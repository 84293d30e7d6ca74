package position

import (
	"fmt"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func lotIDs(trades []LotTrade) []int {
	ids := make([]int, len(trades))
	for i, t := range trades {
		ids[i] = t.LotID
	}
	return ids
}

func TestAssignLots_Empty(t *testing.T) {
	assert.Empty(t, AssignLots(nil))
	assert.Empty(t, GroupLots(nil))
}

func TestAssignLots_FirstLotIsOne(t *testing.T) {
	got := AssignLots([]Transaction{stock("a", day1, Sell, 3, "10", "0")})
	require.Len(t, got, 1)
	assert.Equal(t, 1, got[0].LotID)
}

func TestAssignLots_ClosesAndReopens(t *testing.T) {
	txs := []Transaction{
		stock("1", day1, Buy, 10, "100", "1"),
		stock("2", day1.Add(time.Hour), Sell, 10, "110", "1"),
		stock("3", day1.Add(2*time.Hour), Buy, 4, "105", "1"),
		stock("4", day1.Add(3*time.Hour), Buy, 6, "106", "1"),
	}
	assert.Equal(t, []int{1, 1, 2, 2}, lotIDs(AssignLots(txs)))
}

func TestAssignLots_FlipStartsNewLot(t *testing.T) {
	txs := []Transaction{
		stock("1", day1, Buy, 10, "100", "1"),
		stock("2", day1.Add(time.Hour), Sell, 15, "90", "1"),
		stock("3", day1.Add(2*time.Hour), Buy, 5, "80", "1"),
	}
	got := AssignLots(txs)
	assert.Equal(t, []int{1, 2, 2}, lotIDs(got))

	lots := GroupLots(got)
	require.Len(t, lots, 2)
	assert.Equal(t, int64(10), lots[0].NetQuantity())
	assert.Equal(t, int64(-10), lots[1].NetQuantity())
}

func TestAssignLots_OrdersByTimeThenID(t *testing.T) {
	txs := []Transaction{
		stock("b", day1, Sell, 5, "10", "0"),
		stock("c", day1.Add(-time.Minute), Buy, 5, "10", "0"),
		stock("a", day1, Buy, 5, "10", "0"),
	}
	got := AssignLots(txs)
	ids := make([]string, len(got))
	for i, tr := range got {
		ids[i] = tr.ID
	}
	assert.Equal(t, []string{"c", "a", "b"}, ids)
	// input untouched
	assert.Equal(t, "b", txs[0].ID)
}

// randomHistory generates a deterministic trade sequence that crosses zero
// and flips sides repeatedly.
func randomHistory(seed int64, n int) []Transaction {
	r := rand.New(rand.NewSource(seed))
	txs := make([]Transaction, 0, n)
	for i := 0; i < n; i++ {
		d := Buy
		if r.Intn(2) == 0 {
			d = Sell
		}
		at := day1.Add(time.Duration(r.Intn(5*24)) * time.Hour)
		txs = append(txs, stock(fmt.Sprintf("tx-%03d", i), at, d, int64(1+r.Intn(8)), fmt.Sprintf("%d", 90+r.Intn(20)), "1"))
	}
	return txs
}

func TestAssignLots_BoundaryProperty(t *testing.T) {
	for seed := int64(1); seed <= 20; seed++ {
		trades := AssignLots(randomHistory(seed, 60))
		var running int64
		for i, tr := range trades {
			next := running + tr.SignedQuantity()
			if i > 0 {
				startsLot := running == 0 || sign(running)*sign(next) == -1
				if startsLot {
					assert.Equal(t, trades[i-1].LotID+1, tr.LotID, "seed %d index %d", seed, i)
				} else {
					assert.Equal(t, trades[i-1].LotID, tr.LotID, "seed %d index %d", seed, i)
				}
			}
			running = next
		}
	}
}

func TestGroupLots_ConservesQuantity(t *testing.T) {
	for seed := int64(1); seed <= 20; seed++ {
		txs := randomHistory(seed, 40)
		var total, perLot int64
		for _, tx := range txs {
			total += tx.SignedQuantity()
		}
		lots := GroupLots(AssignLots(txs))
		for _, l := range lots {
			perLot += l.NetQuantity()
		}
		assert.Equal(t, total, perLot, "seed %d", seed)
	}
}

func TestParseDirection(t *testing.T) {
	for in, want := range map[string]Direction{"buy": Buy, " SELL ": Sell, "-1": Buy, "1": Sell} {
		got, err := ParseDirection(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseDirection("short")
	assert.Error(t, err)
	assert.False(t, Direction(0).Valid())
}
