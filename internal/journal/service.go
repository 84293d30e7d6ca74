// Package journal owns every mutation of the trading journal. It keeps the
// stored transactions, their daily snapshots and the cash balances
// consistent by running each change and its derived updates in one unit of
// work, serialized per scope.
package journal

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"tradejournal/internal/logger"
	"tradejournal/internal/position"
	"tradejournal/internal/store"
	"tradejournal/internal/store/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

var (
	ErrNotFound           = errors.New("journal: transaction not found")
	ErrInvalidTransaction = errors.New("journal: invalid transaction")
	ErrSymbolConflict     = errors.New("journal: symbol already exists with a different category or instrument")
)

type Options struct {
	DefaultCurrency string
	// MaxParallel bounds RebuildAll.
	MaxParallel int
}

type Service struct {
	store       store.Store
	engine      *position.Engine
	currency    string
	maxParallel int
	locks       *scopeLocks
	now         func() time.Time
}

func NewService(st store.Store, engine *position.Engine, opts Options) *Service {
	currency := strings.ToUpper(strings.TrimSpace(opts.DefaultCurrency))
	if currency == "" {
		currency = "USD"
	}
	parallel := opts.MaxParallel
	if parallel <= 0 {
		parallel = 1
	}
	return &Service{
		store:       st,
		engine:      engine,
		currency:    currency,
		maxParallel: parallel,
		locks:       newScopeLocks(defaultLockShards),
		now:         time.Now,
	}
}

func (s *Service) Engine() *position.Engine { return s.engine }

func scopeOf(tx position.Transaction) store.Scope {
	return store.Scope{AccountID: tx.AccountID, CategoryID: tx.CategoryID, InstrumentID: tx.InstrumentID}
}

// withUnitOfWork commits when fn succeeds and rolls back otherwise.
func (s *Service) withUnitOfWork(ctx context.Context, fn func(uow store.UnitOfWork) error) (err error) {
	uow, err := s.store.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin unit of work: %w", err)
	}
	defer func() {
		if err != nil {
			if rbErr := uow.Rollback(); rbErr != nil {
				logger.Warnf("rollback failed: %v", rbErr)
			}
		}
	}()
	if err = fn(uow); err != nil {
		return err
	}
	if err = uow.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func (s *Service) normalize(tx position.Transaction) (position.Transaction, error) {
	tx.ID = strings.TrimSpace(tx.ID)
	tx.Symbol = strings.ToUpper(strings.TrimSpace(tx.Symbol))
	tx.Currency = strings.ToUpper(strings.TrimSpace(tx.Currency))
	if tx.Currency == "" {
		tx.Currency = s.currency
	}
	switch {
	case !tx.Direction.Valid():
		return tx, fmt.Errorf("%w: direction %d", ErrInvalidTransaction, tx.Direction)
	case tx.Quantity <= 0:
		return tx, fmt.Errorf("%w: quantity must be > 0", ErrInvalidTransaction)
	case tx.Symbol == "":
		return tx, fmt.Errorf("%w: symbol is required", ErrInvalidTransaction)
	case tx.AccountID <= 0:
		return tx, fmt.Errorf("%w: account is required", ErrInvalidTransaction)
	case tx.ExecutedAt.IsZero():
		return tx, fmt.Errorf("%w: executed_at is required", ErrInvalidTransaction)
	case tx.Price.IsNegative() || tx.Fee.IsNegative():
		return tx, fmt.Errorf("%w: price and fee must be >= 0", ErrInvalidTransaction)
	}
	return tx, nil
}

// Create records tx, rebuilds the snapshots of its scope and books its cash
// impact. An empty ID is replaced by a random UUID.
func (s *Service) Create(ctx context.Context, tx position.Transaction) (position.Transaction, error) {
	tx, err := s.normalize(tx)
	if err != nil {
		return tx, err
	}
	if tx.ID == "" {
		tx.ID = uuid.NewString()
	}
	scope := scopeOf(tx)
	unlock := s.locks.lock(scope)
	defer unlock()

	err = s.withUnitOfWork(ctx, func(uow store.UnitOfWork) error {
		repo := uow.Transactions()
		if err := s.checkFreeID(ctx, uow, tx.ID); err != nil {
			return err
		}
		if err := s.checkSymbol(ctx, uow, tx); err != nil {
			return err
		}
		before, err := s.scopeHistory(ctx, uow, scope)
		if err != nil {
			return err
		}
		if err := repo.Insert(ctx, model.NewTransactionModel(tx)); err != nil {
			return fmt.Errorf("insert transaction: %w", err)
		}
		after, err := s.rebuildScope(ctx, uow, scope)
		if err != nil {
			return err
		}
		delta := s.engine.ApplyTransaction(tx, false).Add(s.realization(before, after))
		if err := s.adjust(ctx, uow, tx.AccountID, tx.Currency, delta); err != nil {
			return err
		}
		return s.record(ctx, uow, model.EventCreated, nil, &tx, delta)
	})
	if err != nil {
		return tx, err
	}
	logger.With("account", tx.AccountID, "scope", scope.String()).
		Info("transaction created", "id", tx.ID, "symbol", tx.Symbol, "side", tx.Direction.String(), "qty", tx.Quantity)
	return tx, nil
}

// Update replaces the stored transaction with the same ID. The cash impact
// of the old version is reverted and the new one applied, unless the edit
// leaves every cash-relevant field unchanged. Realized P&L of deferred
// settlement lots is rebooked whenever the closed lots change.
func (s *Service) Update(ctx context.Context, tx position.Transaction) (position.Transaction, error) {
	tx, err := s.normalize(tx)
	if err != nil {
		return tx, err
	}
	if tx.ID == "" {
		return tx, fmt.Errorf("%w: id is required", ErrInvalidTransaction)
	}
	prev, err := s.Transaction(ctx, tx.ID)
	if err != nil {
		return tx, err
	}
	oldScope, newScope := scopeOf(prev), scopeOf(tx)
	unlock := s.locks.lock(oldScope, newScope)
	defer unlock()

	err = s.withUnitOfWork(ctx, func(uow store.UnitOfWork) error {
		repo := uow.Transactions()
		row, err := repo.FindByID(ctx, tx.ID)
		if err != nil {
			return err
		}
		if row == nil {
			return ErrNotFound
		}
		old := row.Transaction()
		if scopeOf(old) != oldScope {
			return fmt.Errorf("transaction %s moved concurrently", tx.ID)
		}
		if err := s.checkSymbol(ctx, uow, tx); err != nil {
			return err
		}
		oldBefore, err := s.scopeHistory(ctx, uow, oldScope)
		if err != nil {
			return err
		}
		newBefore := oldBefore
		if oldScope != newScope {
			if newBefore, err = s.scopeHistory(ctx, uow, newScope); err != nil {
				return err
			}
		}
		if err := repo.Update(ctx, model.NewTransactionModel(tx)); err != nil {
			return fmt.Errorf("update transaction: %w", err)
		}
		newAfter, err := s.rebuildScope(ctx, uow, newScope)
		if err != nil {
			return err
		}
		oldAfter := newAfter
		if oldScope != newScope {
			if oldAfter, err = s.rebuildScope(ctx, uow, oldScope); err != nil {
				return err
			}
		}

		revert := s.engine.ApplyTransaction(old, true)
		apply := s.engine.ApplyTransaction(tx, false)
		if position.FinanciallyEqual(old, tx) && oldScope == newScope && old.Currency == tx.Currency {
			logger.Debugf("transaction %s: trade cash unchanged", tx.ID)
			revert, apply = decimal.Zero, decimal.Zero
		}
		// A move in time can still reshape closed lots of the scope.
		if oldScope == newScope {
			apply = apply.Add(s.realization(oldBefore, newAfter))
		} else {
			revert = revert.Add(s.realization(oldBefore, oldAfter))
			apply = apply.Add(s.realization(newBefore, newAfter))
		}

		var delta decimal.Decimal
		if old.Currency == tx.Currency && old.AccountID == tx.AccountID {
			delta = revert.Add(apply)
			if err := s.adjust(ctx, uow, tx.AccountID, tx.Currency, delta); err != nil {
				return err
			}
		} else {
			if err := s.adjust(ctx, uow, old.AccountID, old.Currency, revert); err != nil {
				return err
			}
			if err := s.adjust(ctx, uow, tx.AccountID, tx.Currency, apply); err != nil {
				return err
			}
			delta = apply
		}
		return s.record(ctx, uow, model.EventUpdated, &old, &tx, delta)
	})
	if err != nil {
		return tx, err
	}
	logger.With("account", tx.AccountID, "scope", newScope.String()).Info("transaction updated", "id", tx.ID)
	return tx, nil
}

// Delete removes the transaction, reverting its cash impact and any P&L
// realized by the lots it closed.
func (s *Service) Delete(ctx context.Context, id string) error {
	prev, err := s.Transaction(ctx, id)
	if err != nil {
		return err
	}
	scope := scopeOf(prev)
	unlock := s.locks.lock(scope)
	defer unlock()

	err = s.withUnitOfWork(ctx, func(uow store.UnitOfWork) error {
		repo := uow.Transactions()
		row, err := repo.FindByID(ctx, id)
		if err != nil {
			return err
		}
		if row == nil {
			return ErrNotFound
		}
		old := row.Transaction()
		if scopeOf(old) != scope {
			return fmt.Errorf("transaction %s moved concurrently", id)
		}
		before, err := s.scopeHistory(ctx, uow, scope)
		if err != nil {
			return err
		}
		if err := repo.Delete(ctx, id); err != nil {
			return fmt.Errorf("delete transaction: %w", err)
		}
		after, err := s.rebuildScope(ctx, uow, scope)
		if err != nil {
			return err
		}
		delta := s.engine.ApplyTransaction(old, true).Add(s.realization(before, after))
		if err := s.adjust(ctx, uow, old.AccountID, old.Currency, delta); err != nil {
			return err
		}
		return s.record(ctx, uow, model.EventDeleted, &old, nil, delta)
	})
	if err != nil {
		return err
	}
	logger.With("account", prev.AccountID, "scope", scope.String()).Info("transaction deleted", "id", id)
	return nil
}

// realization is the cash to book when a scope's history goes from before
// to after: the change in gross P&L of its closed deferred-settlement lots.
func (s *Service) realization(before, after []position.Transaction) decimal.Decimal {
	return s.engine.ClosedLotsGross(after).Sub(s.engine.ClosedLotsGross(before))
}

// checkSymbol rejects tx when another stored transaction already maps its
// symbol to a different category or instrument.
func (s *Service) checkSymbol(ctx context.Context, uow store.UnitOfWork, tx position.Transaction) error {
	key, err := uow.Transactions().FindInstrumentBySymbol(ctx, tx.Symbol, tx.ID)
	if err != nil {
		return fmt.Errorf("look up symbol %s: %w", tx.Symbol, err)
	}
	if key != nil && (key.CategoryID != tx.CategoryID || key.InstrumentID != tx.InstrumentID) {
		return fmt.Errorf("%w: %s is already recorded as category %d instrument %d",
			ErrSymbolConflict, tx.Symbol, key.CategoryID, key.InstrumentID)
	}
	return nil
}

func (s *Service) scopeHistory(ctx context.Context, uow store.UnitOfWork, scope store.Scope) ([]position.Transaction, error) {
	rows, err := uow.Transactions().ListScope(ctx, scope)
	if err != nil {
		return nil, fmt.Errorf("list scope %s: %w", scope, err)
	}
	return model.Transactions(rows), nil
}

// rebuildScope recomputes and replaces every snapshot of scope from its full
// history, which it returns.
func (s *Service) rebuildScope(ctx context.Context, uow store.UnitOfWork, scope store.Scope) ([]position.Transaction, error) {
	history, err := s.scopeHistory(ctx, uow, scope)
	if err != nil {
		return nil, err
	}
	var snaps []position.DailySnapshot
	if len(history) > 0 {
		symbol := history[len(history)-1].Symbol
		snaps = s.engine.Snapshots(scope.AccountID, symbol, history)
	}
	if err := uow.Snapshots().ReplaceScope(ctx, scope, model.NewSnapshotModels(snaps)); err != nil {
		return nil, fmt.Errorf("replace snapshots of %s: %w", scope, err)
	}
	return history, nil
}

func (s *Service) adjust(ctx context.Context, uow store.UnitOfWork, accountID int64, currency string, delta decimal.Decimal) error {
	if delta.IsZero() {
		return nil
	}
	balance, err := uow.Balances().Adjust(ctx, accountID, currency, delta)
	if err != nil {
		return fmt.Errorf("adjust balance: %w", err)
	}
	logger.Debugf("account %d %s balance %s (%s)", accountID, currency, balance, delta)
	return nil
}

type eventDetails struct {
	Before     *position.Transaction     `json:"before,omitempty"`
	After      *position.Transaction     `json:"after,omitempty"`
	CashBefore *position.CashTransaction `json:"cash_before,omitempty"`
	CashAfter  *position.CashTransaction `json:"cash_after,omitempty"`
	CashDelta  decimal.Decimal           `json:"cash_delta"`
}

func (s *Service) record(ctx context.Context, uow store.UnitOfWork, kind model.EventKind, before, after *position.Transaction, delta decimal.Decimal) error {
	ref := after
	if ref == nil {
		ref = before
	}
	return s.insertEvent(ctx, uow, kind, ref.ID, ref.AccountID, eventDetails{Before: before, After: after, CashDelta: delta})
}

func (s *Service) insertEvent(ctx context.Context, uow store.UnitOfWork, kind model.EventKind, id string, accountID int64, d eventDetails) error {
	details, err := json.Marshal(d)
	if err != nil {
		return err
	}
	return uow.Events().Insert(ctx, &model.JournalEventModel{
		TransactionID: id,
		AccountID:     accountID,
		Kind:          kind,
		Details:       datatypes.JSON(details),
		Timestamp:     s.now().UnixMilli(),
	})
}
