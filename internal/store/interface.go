package store

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"tradejournal/internal/position"
	"tradejournal/internal/store/model"
)

// Scope is the unit of snapshot recomputation: one instrument in one account.
type Scope struct {
	AccountID    int64
	CategoryID   int
	InstrumentID int
}

func (s Scope) String() string {
	return fmt.Sprintf("%d/%d/%d", s.AccountID, s.CategoryID, s.InstrumentID)
}

// UnitOfWork defines a transaction scope.
type UnitOfWork interface {
	// Commit commits the transaction.
	Commit() error
	// Rollback rolls back the transaction.
	Rollback() error

	Transactions() TransactionRepository
	Snapshots() SnapshotRepository
	CashTransactions() CashTransactionRepository
	Balances() BalanceRepository
	Events() EventRepository
}

// Store is the entry point for database access.
type Store interface {
	// Begin starts a new UnitOfWork (transaction).
	Begin(ctx context.Context) (UnitOfWork, error)
	// BeginRead starts a read-only UnitOfWork that does not take the write
	// lock, so it runs alongside an open writer.
	BeginRead(ctx context.Context) (UnitOfWork, error)
	// Close closes the store connection.
	Close() error
}

// TransactionRepository handles journal transactions. FindByID,
// LastBySymbol and FindInstrumentBySymbol return nil without error when
// nothing matches.
type TransactionRepository interface {
	Insert(ctx context.Context, tx *model.TransactionModel) error
	Update(ctx context.Context, tx *model.TransactionModel) error
	Delete(ctx context.Context, id string) error
	FindByID(ctx context.Context, id string) (*model.TransactionModel, error)
	ListScope(ctx context.Context, scope Scope) ([]model.TransactionModel, error)
	ListAccount(ctx context.Context, accountID int64) ([]model.TransactionModel, error)
	ListScopes(ctx context.Context) ([]Scope, error)
	LastBySymbol(ctx context.Context, symbol string) (*model.TransactionModel, error)
	// FindInstrumentBySymbol reports the instrument symbol is recorded under,
	// ignoring the transaction excludeID.
	FindInstrumentBySymbol(ctx context.Context, symbol, excludeID string) (*position.InstrumentKey, error)
}

// CashTransactionRepository handles deposits, withdrawals and other
// non-trade cash entries. FindByID returns nil when nothing matches.
type CashTransactionRepository interface {
	Insert(ctx context.Context, c *model.CashTransactionModel) error
	Update(ctx context.Context, c *model.CashTransactionModel) error
	Delete(ctx context.Context, id string) error
	FindByID(ctx context.Context, id string) (*model.CashTransactionModel, error)
	ListAccount(ctx context.Context, accountID int64) ([]model.CashTransactionModel, error)
}

// SnapshotRepository handles derived daily snapshots.
type SnapshotRepository interface {
	// ReplaceScope deletes every snapshot of scope and inserts rows.
	ReplaceScope(ctx context.Context, scope Scope, rows []model.PositionSnapshotModel) error
	ListScope(ctx context.Context, scope Scope) ([]model.PositionSnapshotModel, error)
	ListAccount(ctx context.Context, accountID int64) ([]model.PositionSnapshotModel, error)
}

// BalanceRepository handles per-currency cash balances.
type BalanceRepository interface {
	Get(ctx context.Context, accountID int64, currency string) (decimal.Decimal, error)
	// Adjust adds delta and returns the new balance.
	Adjust(ctx context.Context, accountID int64, currency string, delta decimal.Decimal) (decimal.Decimal, error)
	ListAccount(ctx context.Context, accountID int64) ([]model.CashBalanceModel, error)
	ListAll(ctx context.Context) ([]model.CashBalanceModel, error)
	// SaveSnapshots inserts rows, replacing any row for the same account,
	// currency and day.
	SaveSnapshots(ctx context.Context, rows []model.CashBalanceSnapshotModel) error
	ListSnapshots(ctx context.Context, accountID int64) ([]model.CashBalanceSnapshotModel, error)
}

// EventRepository handles the mutation audit trail.
type EventRepository interface {
	Insert(ctx context.Context, event *model.JournalEventModel) error
	ListByTransaction(ctx context.Context, transactionID string, limit int) ([]model.JournalEventModel, error)
}
