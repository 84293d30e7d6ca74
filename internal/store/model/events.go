package model

import "gorm.io/datatypes"

type EventKind string

const (
	EventCreated EventKind = "created"
	EventUpdated EventKind = "updated"
	EventDeleted EventKind = "deleted"

	EventCashCreated EventKind = "cash_created"
	EventCashUpdated EventKind = "cash_updated"
	EventCashDeleted EventKind = "cash_deleted"
)

// JournalEventModel maps to 'journal_events', the audit trail of journal
// mutations. Details holds the before/after entry and the cash delta.
// TransactionID refers to a trade or a cash transaction.
type JournalEventModel struct {
	ID            int64          `gorm:"column:id;primaryKey;autoIncrement"`
	TransactionID string         `gorm:"column:transaction_id;index"`
	AccountID     int64          `gorm:"column:account_id"`
	Kind          EventKind      `gorm:"column:kind"`
	Details       datatypes.JSON `gorm:"column:details;type:TEXT"`
	Timestamp     int64          `gorm:"column:timestamp"`
}

func (JournalEventModel) TableName() string { return "journal_events" }
