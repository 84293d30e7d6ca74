package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"tradejournal/internal/store"
	"tradejournal/internal/store/model"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	// pure-Go driver registered as "sqlite"
	_ "modernc.org/sqlite"
)

const defaultMaxOpenConns = 2

type SqliteStore struct {
	db *gorm.DB
}

// Option tunes the store at open time.
type Option func(*options)

type options struct {
	maxOpenConns int
}

func WithMaxOpenConns(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.maxOpenConns = n
		}
	}
}

func NewSqliteStore(path string, opts ...Option) (*SqliteStore, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, fmt.Errorf("database path cannot be empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_txlock=immediate", path)
	db, err := gorm.Open(sqlite.New(sqlite.Config{DriverName: "sqlite", DSN: dsn}), &gorm.Config{
		Logger:                                   logger.Default.LogMode(logger.Silent),
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	if err != nil {
		return nil, err
	}
	return newSqliteStore(db, opts...)
}

func NewSqliteStoreFromDB(db *gorm.DB, opts ...Option) (*SqliteStore, error) {
	if db == nil {
		return nil, fmt.Errorf("gorm db cannot be nil")
	}
	return newSqliteStore(db, opts...)
}

func newSqliteStore(db *gorm.DB, opts ...Option) (*SqliteStore, error) {
	o := options{maxOpenConns: defaultMaxOpenConns}
	for _, opt := range opts {
		opt(&o)
	}
	models := []interface{}{
		&model.TransactionModel{},
		&model.PositionSnapshotModel{},
		&model.CashBalanceModel{},
		&model.JournalEventModel{},
		&model.CashTransactionModel{},
		&model.CashBalanceSnapshotModel{},
	}
	if err := db.AutoMigrate(models...); err != nil {
		return nil, err
	}
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.SetMaxOpenConns(o.maxOpenConns)
		sqlDB.SetMaxIdleConns(o.maxOpenConns)
	}
	return &SqliteStore{db: db}, nil
}

func (s *SqliteStore) Begin(ctx context.Context) (store.UnitOfWork, error) {
	tx := s.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return nil, tx.Error
	}
	return &gormUnitOfWork{tx: tx}, nil
}

// BeginRead opens a read-only transaction. The driver issues a deferred
// BEGIN for it, so it does not wait for the write lock held by Begin.
func (s *SqliteStore) BeginRead(ctx context.Context) (store.UnitOfWork, error) {
	tx := s.db.WithContext(ctx).Begin(&sql.TxOptions{ReadOnly: true})
	if tx.Error != nil {
		return nil, tx.Error
	}
	return &gormUnitOfWork{tx: tx}, nil
}

func (s *SqliteStore) Close() error {
	if s.db == nil {
		return nil
	}
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

type gormUnitOfWork struct {
	tx *gorm.DB
}

func (u *gormUnitOfWork) Transactions() store.TransactionRepository {
	return NewTransactionRepo(u.tx)
}

func (u *gormUnitOfWork) Snapshots() store.SnapshotRepository {
	return NewSnapshotRepo(u.tx)
}

func (u *gormUnitOfWork) CashTransactions() store.CashTransactionRepository {
	return NewCashRepo(u.tx)
}

func (u *gormUnitOfWork) Balances() store.BalanceRepository {
	return NewBalanceRepo(u.tx)
}

func (u *gormUnitOfWork) Events() store.EventRepository {
	return NewEventRepo(u.tx)
}

func (u *gormUnitOfWork) Commit() error {
	return u.tx.Commit().Error
}

func (u *gormUnitOfWork) Rollback() error {
	return u.tx.Rollback().Error
}
