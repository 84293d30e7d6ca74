package journal

import (
	"context"
	"fmt"
	"strings"
	"time"

	"tradejournal/internal/logger"
	"tradejournal/internal/position"
	"tradejournal/internal/store"
	"tradejournal/internal/store/model"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// CashQuery filters an account's cash transactions. Zero times leave a
// bound open. To is exclusive.
type CashQuery struct {
	AccountID int64
	From      time.Time
	To        time.Time
}

func (s *Service) normalizeCash(c position.CashTransaction) (position.CashTransaction, error) {
	c.ID = strings.TrimSpace(c.ID)
	c.Currency = strings.ToUpper(strings.TrimSpace(c.Currency))
	if c.Currency == "" {
		c.Currency = s.currency
	}
	switch {
	case !c.Kind.Valid():
		return c, fmt.Errorf("%w: cash kind %d", ErrInvalidTransaction, c.Kind)
	case !c.Amount.IsPositive():
		return c, fmt.Errorf("%w: amount must be > 0", ErrInvalidTransaction)
	case c.AccountID <= 0:
		return c, fmt.Errorf("%w: account is required", ErrInvalidTransaction)
	case c.ExecutedAt.IsZero():
		return c, fmt.Errorf("%w: executed_at is required", ErrInvalidTransaction)
	}
	return c, nil
}

// RecordCash stores a deposit, withdrawal or income entry and books it on
// the account balance. An empty ID is replaced by a random UUID.
func (s *Service) RecordCash(ctx context.Context, c position.CashTransaction) (position.CashTransaction, error) {
	c, err := s.normalizeCash(c)
	if err != nil {
		return c, err
	}
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	err = s.withUnitOfWork(ctx, func(uow store.UnitOfWork) error {
		if err := s.checkFreeID(ctx, uow, c.ID); err != nil {
			return err
		}
		if err := uow.CashTransactions().Insert(ctx, model.NewCashTransactionModel(c)); err != nil {
			return fmt.Errorf("insert cash transaction: %w", err)
		}
		delta := s.engine.ApplyCash(c, false)
		if err := s.adjust(ctx, uow, c.AccountID, c.Currency, delta); err != nil {
			return err
		}
		return s.insertEvent(ctx, uow, model.EventCashCreated, c.ID, c.AccountID, eventDetails{CashAfter: &c, CashDelta: delta})
	})
	if err != nil {
		return c, err
	}
	logger.With("account", c.AccountID).Info("cash recorded", "id", c.ID, "kind", c.Kind.String(), "amount", c.Amount.String(), "currency", c.Currency)
	return c, nil
}

// UpdateCash replaces the cash transaction with the same ID, reverting the
// old amount and booking the new one.
func (s *Service) UpdateCash(ctx context.Context, c position.CashTransaction) (position.CashTransaction, error) {
	c, err := s.normalizeCash(c)
	if err != nil {
		return c, err
	}
	if c.ID == "" {
		return c, fmt.Errorf("%w: id is required", ErrInvalidTransaction)
	}
	err = s.withUnitOfWork(ctx, func(uow store.UnitOfWork) error {
		repo := uow.CashTransactions()
		row, err := repo.FindByID(ctx, c.ID)
		if err != nil {
			return err
		}
		if row == nil {
			return fmt.Errorf("%w: %s", ErrNotFound, c.ID)
		}
		old := row.CashTransaction()
		if err := repo.Update(ctx, model.NewCashTransactionModel(c)); err != nil {
			return fmt.Errorf("update cash transaction: %w", err)
		}
		revert := s.engine.ApplyCash(old, true)
		apply := s.engine.ApplyCash(c, false)
		delta := apply
		if old.AccountID == c.AccountID && old.Currency == c.Currency {
			delta = revert.Add(apply)
			if err := s.adjust(ctx, uow, c.AccountID, c.Currency, delta); err != nil {
				return err
			}
		} else {
			if err := s.adjust(ctx, uow, old.AccountID, old.Currency, revert); err != nil {
				return err
			}
			if err := s.adjust(ctx, uow, c.AccountID, c.Currency, apply); err != nil {
				return err
			}
		}
		return s.insertEvent(ctx, uow, model.EventCashUpdated, c.ID, c.AccountID, eventDetails{CashBefore: &old, CashAfter: &c, CashDelta: delta})
	})
	if err != nil {
		return c, err
	}
	logger.With("account", c.AccountID).Info("cash updated", "id", c.ID)
	return c, nil
}

// DeleteCash removes the cash transaction and reverts its amount.
func (s *Service) DeleteCash(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	var accountID int64
	err := s.withUnitOfWork(ctx, func(uow store.UnitOfWork) error {
		repo := uow.CashTransactions()
		row, err := repo.FindByID(ctx, id)
		if err != nil {
			return err
		}
		if row == nil {
			return fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		old := row.CashTransaction()
		accountID = old.AccountID
		if err := repo.Delete(ctx, id); err != nil {
			return fmt.Errorf("delete cash transaction: %w", err)
		}
		delta := s.engine.ApplyCash(old, true)
		if err := s.adjust(ctx, uow, old.AccountID, old.Currency, delta); err != nil {
			return err
		}
		return s.insertEvent(ctx, uow, model.EventCashDeleted, id, old.AccountID, eventDetails{CashBefore: &old, CashDelta: delta})
	})
	if err != nil {
		return err
	}
	logger.With("account", accountID).Info("cash deleted", "id", id)
	return nil
}

// checkFreeID keeps trade and cash ids disjoint so that one audit trail
// never mixes both.
func (s *Service) checkFreeID(ctx context.Context, uow store.UnitOfWork, id string) error {
	trade, err := uow.Transactions().FindByID(ctx, id)
	if err != nil {
		return err
	}
	cash, err := uow.CashTransactions().FindByID(ctx, id)
	if err != nil {
		return err
	}
	if trade != nil || cash != nil {
		return fmt.Errorf("%w: id %s already exists", ErrInvalidTransaction, id)
	}
	return nil
}

func (s *Service) CashTransaction(ctx context.Context, id string) (position.CashTransaction, error) {
	var c position.CashTransaction
	err := s.read(ctx, func(uow store.UnitOfWork) error {
		row, err := uow.CashTransactions().FindByID(ctx, strings.TrimSpace(id))
		if err != nil {
			return err
		}
		if row == nil {
			return fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		c = row.CashTransaction()
		return nil
	})
	return c, err
}

// CashTransactions lists the account's cash entries in time order.
func (s *Service) CashTransactions(ctx context.Context, q CashQuery) ([]position.CashTransaction, error) {
	var out []position.CashTransaction
	err := s.read(ctx, func(uow store.UnitOfWork) error {
		rows, err := uow.CashTransactions().ListAccount(ctx, q.AccountID)
		if err != nil {
			return err
		}
		for _, c := range model.CashTransactions(rows) {
			if !q.From.IsZero() && c.ExecutedAt.Before(q.From) {
				continue
			}
			if !q.To.IsZero() && !c.ExecutedAt.Before(q.To) {
				continue
			}
			out = append(out, c)
		}
		return nil
	})
	return out, err
}

// SnapshotCashBalances stores the current balance of every account and
// currency under the calendar day of day. Running it twice for the same day
// overwrites the earlier rows. It returns how many rows were written.
func (s *Service) SnapshotCashBalances(ctx context.Context, day time.Time) (int, error) {
	y, m, d := day.Date()
	date := datatypes.Date(time.Date(y, m, d, 0, 0, 0, 0, time.UTC))
	var n int
	err := s.withUnitOfWork(ctx, func(uow store.UnitOfWork) error {
		balances, err := uow.Balances().ListAll(ctx)
		if err != nil {
			return err
		}
		rows := make([]model.CashBalanceSnapshotModel, len(balances))
		for i, b := range balances {
			rows[i] = model.CashBalanceSnapshotModel{
				AccountID:    b.AccountID,
				Currency:     b.Currency,
				SnapshotDate: date,
				Amount:       b.Amount,
			}
		}
		n = len(rows)
		return uow.Balances().SaveSnapshots(ctx, rows)
	})
	if err != nil {
		return 0, err
	}
	logger.Infof("saved %d cash balance snapshots for %s", n, day.Format(time.DateOnly))
	return n, nil
}

// CashBalanceHistory lists the account's daily cash balance snapshots by
// day, then currency.
func (s *Service) CashBalanceHistory(ctx context.Context, accountID int64) ([]position.DailyCashBalance, error) {
	var out []position.DailyCashBalance
	err := s.read(ctx, func(uow store.UnitOfWork) error {
		rows, err := uow.Balances().ListSnapshots(ctx, accountID)
		if err != nil {
			return err
		}
		out = make([]position.DailyCashBalance, len(rows))
		for i, r := range rows {
			out[i] = r.Balance()
		}
		return nil
	})
	return out, err
}
