package journal

import (
	"context"
	"testing"
	"time"

	"tradejournal/internal/position"
	"tradejournal/internal/store/model"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func cashEntry(id string, at time.Time, kind position.CashKind, amount string) position.CashTransaction {
	return position.CashTransaction{
		ID:         id,
		AccountID:  1,
		ExecutedAt: at,
		Kind:       kind,
		Amount:     decimal.RequireFromString(amount),
	}
}

func TestRecordCash_Validates(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	bad := []position.CashTransaction{
		cashEntry("", t0, 0, "10"),
		cashEntry("", t0, position.Deposit, "0"),
		cashEntry("", t0, position.Deposit, "-5"),
		cashEntry("", time.Time{}, position.Deposit, "10"),
		func() position.CashTransaction { c := cashEntry("", t0, position.Deposit, "10"); c.AccountID = 0; return c }(),
	}
	for i, c := range bad {
		_, err := svc.RecordCash(ctx, c)
		assert.ErrorIs(t, err, ErrInvalidTransaction, "case %d", i)
	}

	_, err := svc.Create(ctx, equity("shared", t0, position.Buy, 1, "10", "0"))
	require.NoError(t, err)
	_, err = svc.RecordCash(ctx, cashEntry("shared", t0, position.Deposit, "10"))
	assert.ErrorIs(t, err, ErrInvalidTransaction)
}

func TestCashLifecycle(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	dep, err := svc.RecordCash(ctx, cashEntry("d1", t0, position.Deposit, "1000"))
	require.NoError(t, err)
	assert.Equal(t, "USD", dep.Currency)
	requireBalance(t, svc, "1000")

	wd, err := svc.RecordCash(ctx, cashEntry("w1", t0.Add(time.Hour), position.Withdrawal, "200"))
	require.NoError(t, err)
	requireBalance(t, svc, "800")

	_, err = svc.RecordCash(ctx, cashEntry("", t0.Add(2*time.Hour), position.Dividend, "12.5"))
	require.NoError(t, err)
	requireBalance(t, svc, "812.5")

	wd.Amount = decimal.NewFromInt(300)
	_, err = svc.UpdateCash(ctx, wd)
	require.NoError(t, err)
	requireBalance(t, svc, "712.5")

	// moving the withdrawal to another currency restores USD
	wd.Currency = "eur"
	_, err = svc.UpdateCash(ctx, wd)
	require.NoError(t, err)
	requireBalance(t, svc, "1012.5")
	eur, err := svc.Balance(ctx, 1, "EUR")
	require.NoError(t, err)
	assert.True(t, eur.Equal(decimal.NewFromInt(-300)))

	require.NoError(t, svc.DeleteCash(ctx, "d1"))
	requireBalance(t, svc, "12.5")
	assert.ErrorIs(t, svc.DeleteCash(ctx, "d1"), ErrNotFound)
	_, err = svc.UpdateCash(ctx, cashEntry("d1", t0, position.Deposit, "1"))
	assert.ErrorIs(t, err, ErrNotFound)

	history, err := svc.History(ctx, "w1")
	require.NoError(t, err)
	require.Len(t, history, 3)
	assert.Equal(t, model.EventCashCreated, history[0].Kind)
	require.NotNil(t, history[2].CashBefore)
	assert.Equal(t, "USD", history[2].CashBefore.Currency)
	require.NotNil(t, history[2].CashAfter)
	assert.Equal(t, "EUR", history[2].CashAfter.Currency)

	deleted, err := svc.History(ctx, "d1")
	require.NoError(t, err)
	require.Len(t, deleted, 2)
	assert.Equal(t, model.EventCashDeleted, deleted[1].Kind)
	assert.True(t, deleted[1].CashDelta.Equal(decimal.NewFromInt(-1000)))
}

func TestCashTransactions_Window(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	day2 := t0.AddDate(0, 0, 1)

	for _, c := range []position.CashTransaction{
		cashEntry("c2", day2, position.Interest, "1"),
		cashEntry("c1", t0, position.Deposit, "100"),
		cashEntry("c3", day2.Add(time.Hour), position.Charge, "2"),
	} {
		_, err := svc.RecordCash(ctx, c)
		require.NoError(t, err)
	}
	requireBalance(t, svc, "99")

	all, err := svc.CashTransactions(ctx, CashQuery{AccountID: 1})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "c1", all[0].ID)

	window, err := svc.CashTransactions(ctx, CashQuery{AccountID: 1, From: day2, To: day2.Add(time.Hour)})
	require.NoError(t, err)
	require.Len(t, window, 1)
	assert.Equal(t, position.Interest, window[0].Kind)

	got, err := svc.CashTransaction(ctx, "c3")
	require.NoError(t, err)
	assert.True(t, got.SignedAmount().Equal(decimal.NewFromInt(-2)))
}

func TestSnapshotCashBalances(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	day2 := t0.AddDate(0, 0, 1)

	_, err := svc.RecordCash(ctx, cashEntry("d1", t0, position.Deposit, "500"))
	require.NoError(t, err)
	n, err := svc.SnapshotCashBalances(ctx, t0)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	_, err = svc.Create(ctx, equity("b1", t0, position.Buy, 1, "100", "1"))
	require.NoError(t, err)
	// a second run for the same day overwrites
	_, err = svc.SnapshotCashBalances(ctx, t0.Add(time.Hour))
	require.NoError(t, err)
	_, err = svc.SnapshotCashBalances(ctx, day2)
	require.NoError(t, err)

	history, err := svc.CashBalanceHistory(ctx, 1)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, "2025-03-03", history[0].Date.Format(time.DateOnly))
	assert.True(t, history[0].Amount.Equal(decimal.NewFromInt(399)))
	assert.Equal(t, "2025-03-04", history[1].Date.Format(time.DateOnly))

	none, err := svc.CashBalanceHistory(ctx, 2)
	require.NoError(t, err)
	assert.Empty(t, none)
}
