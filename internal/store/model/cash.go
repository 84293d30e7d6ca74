package model

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"

	"tradejournal/internal/position"
)

// CashTransactionModel maps to 'cash_transactions'. ExecutedAt follows the
// same nanos plus offset encoding as TransactionModel.
type CashTransactionModel struct {
	ID            string          `gorm:"column:id;primaryKey;size:64"`
	AccountID     int64           `gorm:"column:account_id;index"`
	ExecutedAt    int64           `gorm:"column:executed_at;index"`
	UTCOffset     int             `gorm:"column:utc_offset"`
	Kind          int             `gorm:"column:kind"`
	Amount        decimal.Decimal `gorm:"column:amount;type:TEXT"`
	Currency      string          `gorm:"column:currency;size:3"`
	Notes         string          `gorm:"column:notes"`
	CreatedAtUnix int64           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAtUnix int64           `gorm:"column:updated_at;autoUpdateTime"`
}

func (CashTransactionModel) TableName() string { return "cash_transactions" }

func NewCashTransactionModel(c position.CashTransaction) *CashTransactionModel {
	_, offset := c.ExecutedAt.Zone()
	return &CashTransactionModel{
		ID:         c.ID,
		AccountID:  c.AccountID,
		ExecutedAt: c.ExecutedAt.UnixNano(),
		UTCOffset:  offset,
		Kind:       int(c.Kind),
		Amount:     c.Amount,
		Currency:   c.Currency,
		Notes:      c.Notes,
	}
}

func (m CashTransactionModel) CashTransaction() position.CashTransaction {
	return position.CashTransaction{
		ID:         m.ID,
		AccountID:  m.AccountID,
		ExecutedAt: time.Unix(0, m.ExecutedAt).In(time.FixedZone("", m.UTCOffset)),
		Kind:       position.CashKind(m.Kind),
		Amount:     m.Amount,
		Currency:   m.Currency,
		Notes:      m.Notes,
	}
}

func CashTransactions(rows []CashTransactionModel) []position.CashTransaction {
	out := make([]position.CashTransaction, len(rows))
	for i, r := range rows {
		out[i] = r.CashTransaction()
	}
	return out
}

// CashBalanceSnapshotModel maps to 'cash_balance_snapshots': one row per
// account, currency and day.
type CashBalanceSnapshotModel struct {
	ID           int64           `gorm:"column:id;primaryKey;autoIncrement"`
	AccountID    int64           `gorm:"column:account_id;uniqueIndex:idx_cash_snapshot_day,priority:1"`
	Currency     string          `gorm:"column:currency;size:3;uniqueIndex:idx_cash_snapshot_day,priority:2"`
	SnapshotDate datatypes.Date  `gorm:"column:snapshot_date;uniqueIndex:idx_cash_snapshot_day,priority:3"`
	Amount       decimal.Decimal `gorm:"column:amount;type:TEXT"`
}

func (CashBalanceSnapshotModel) TableName() string { return "cash_balance_snapshots" }

func (m CashBalanceSnapshotModel) Balance() position.DailyCashBalance {
	return position.DailyCashBalance{
		AccountID: m.AccountID,
		Currency:  m.Currency,
		Date:      time.Time(m.SnapshotDate),
		Amount:    m.Amount,
	}
}
