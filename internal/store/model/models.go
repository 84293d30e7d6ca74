package model

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"

	"tradejournal/internal/position"
)

// TransactionModel maps to 'transactions'. ExecutedAt is kept as unix nanos
// plus the original UTC offset so that calendar days survive the round trip.
type TransactionModel struct {
	ID                 string          `gorm:"column:id;primaryKey;size:64"`
	AccountID          int64           `gorm:"column:account_id;index:idx_tx_scope,priority:1"`
	CategoryID         int             `gorm:"column:category_id;index:idx_tx_scope,priority:2"`
	InstrumentID       int             `gorm:"column:instrument_id;index:idx_tx_scope,priority:3"`
	Symbol             string          `gorm:"column:symbol;index"`
	ExecutedAt         int64           `gorm:"column:executed_at;index"`
	UTCOffset          int             `gorm:"column:utc_offset"`
	Direction          int             `gorm:"column:direction"`
	Quantity           int64           `gorm:"column:quantity"`
	Price              decimal.Decimal `gorm:"column:price;type:TEXT"`
	Fee                decimal.Decimal `gorm:"column:fee;type:TEXT"`
	ContractMultiplier decimal.Decimal `gorm:"column:contract_multiplier;type:TEXT"`
	CategoryMultiplier decimal.Decimal `gorm:"column:category_multiplier;type:TEXT"`
	Currency           string          `gorm:"column:currency;size:3"`
	Notes              string          `gorm:"column:notes"`
	CreatedAtUnix      int64           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAtUnix      int64           `gorm:"column:updated_at;autoUpdateTime"`
}

func (TransactionModel) TableName() string { return "transactions" }

func NewTransactionModel(tx position.Transaction) *TransactionModel {
	_, offset := tx.ExecutedAt.Zone()
	return &TransactionModel{
		ID:                 tx.ID,
		AccountID:          tx.AccountID,
		CategoryID:         tx.CategoryID,
		InstrumentID:       tx.InstrumentID,
		Symbol:             tx.Symbol,
		ExecutedAt:         tx.ExecutedAt.UnixNano(),
		UTCOffset:          offset,
		Direction:          int(tx.Direction),
		Quantity:           tx.Quantity,
		Price:              tx.Price,
		Fee:                tx.Fee,
		ContractMultiplier: tx.ContractMultiplier,
		CategoryMultiplier: tx.CategoryMultiplier,
		Currency:           tx.Currency,
		Notes:              tx.Notes,
	}
}

func (m TransactionModel) Transaction() position.Transaction {
	return position.Transaction{
		ID:                 m.ID,
		AccountID:          m.AccountID,
		ExecutedAt:         time.Unix(0, m.ExecutedAt).In(time.FixedZone("", m.UTCOffset)),
		Direction:          position.Direction(m.Direction),
		CategoryID:         m.CategoryID,
		InstrumentID:       m.InstrumentID,
		Symbol:             m.Symbol,
		Quantity:           m.Quantity,
		Price:              m.Price,
		Fee:                m.Fee,
		ContractMultiplier: m.ContractMultiplier,
		CategoryMultiplier: m.CategoryMultiplier,
		Currency:           m.Currency,
		Notes:              m.Notes,
	}
}

func Transactions(rows []TransactionModel) []position.Transaction {
	out := make([]position.Transaction, len(rows))
	for i, r := range rows {
		out[i] = r.Transaction()
	}
	return out
}

// PositionSnapshotModel maps to 'position_snapshots'. One row per scope and
// calendar day.
type PositionSnapshotModel struct {
	ID           int64           `gorm:"column:id;primaryKey;autoIncrement"`
	AccountID    int64           `gorm:"column:account_id;uniqueIndex:idx_snapshot_scope_date,priority:1"`
	CategoryID   int             `gorm:"column:category_id;uniqueIndex:idx_snapshot_scope_date,priority:2"`
	InstrumentID int             `gorm:"column:instrument_id;uniqueIndex:idx_snapshot_scope_date,priority:3"`
	SnapshotDate datatypes.Date  `gorm:"column:snapshot_date;uniqueIndex:idx_snapshot_scope_date,priority:4"`
	Symbol       string          `gorm:"column:symbol"`
	Quantity     int64           `gorm:"column:quantity"`
	AveragePrice decimal.Decimal `gorm:"column:average_price;type:TEXT"`
	Cost         decimal.Decimal `gorm:"column:cost;type:TEXT"`
	Commission   decimal.Decimal `gorm:"column:commission;type:TEXT"`
}

func (PositionSnapshotModel) TableName() string { return "position_snapshots" }

func NewSnapshotModels(snaps []position.DailySnapshot) []PositionSnapshotModel {
	out := make([]PositionSnapshotModel, len(snaps))
	for i, s := range snaps {
		out[i] = PositionSnapshotModel{
			AccountID:    s.AccountID,
			CategoryID:   s.CategoryID,
			InstrumentID: s.InstrumentID,
			SnapshotDate: datatypes.Date(s.Date),
			Symbol:       s.Symbol,
			Quantity:     s.Quantity,
			AveragePrice: s.AveragePrice,
			Cost:         s.Cost,
			Commission:   s.Commission,
		}
	}
	return out
}

func (m PositionSnapshotModel) Snapshot() position.DailySnapshot {
	return position.DailySnapshot{
		AccountID:    m.AccountID,
		CategoryID:   m.CategoryID,
		InstrumentID: m.InstrumentID,
		Symbol:       m.Symbol,
		Date:         time.Time(m.SnapshotDate),
		Quantity:     m.Quantity,
		AveragePrice: m.AveragePrice,
		Cost:         m.Cost,
		Commission:   m.Commission,
	}
}

func Snapshots(rows []PositionSnapshotModel) []position.DailySnapshot {
	out := make([]position.DailySnapshot, len(rows))
	for i, r := range rows {
		out[i] = r.Snapshot()
	}
	return out
}

// CashBalanceModel maps to 'cash_balances'.
type CashBalanceModel struct {
	ID            int64           `gorm:"column:id;primaryKey;autoIncrement"`
	AccountID     int64           `gorm:"column:account_id;uniqueIndex:idx_balance_account_currency,priority:1"`
	Currency      string          `gorm:"column:currency;size:3;uniqueIndex:idx_balance_account_currency,priority:2"`
	Amount        decimal.Decimal `gorm:"column:amount;type:TEXT"`
	UpdatedAtUnix int64           `gorm:"column:updated_at;autoUpdateTime"`
}

func (CashBalanceModel) TableName() string { return "cash_balances" }
