package journal

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"tradejournal/internal/logger"
	"tradejournal/internal/position"
	"tradejournal/internal/store"
	"tradejournal/internal/store/model"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

// read runs fn in a read-only unit of work that is always rolled back.
func (s *Service) read(ctx context.Context, fn func(uow store.UnitOfWork) error) error {
	uow, err := s.store.BeginRead(ctx)
	if err != nil {
		return fmt.Errorf("begin unit of work: %w", err)
	}
	defer func() { _ = uow.Rollback() }()
	return fn(uow)
}

func (s *Service) Transaction(ctx context.Context, id string) (position.Transaction, error) {
	var tx position.Transaction
	err := s.read(ctx, func(uow store.UnitOfWork) error {
		row, err := uow.Transactions().FindByID(ctx, strings.TrimSpace(id))
		if err != nil {
			return err
		}
		if row == nil {
			return fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		tx = row.Transaction()
		return nil
	})
	return tx, err
}

// Transactions lists every transaction of the account in (ExecutedAt, ID)
// order.
func (s *Service) Transactions(ctx context.Context, accountID int64) ([]position.Transaction, error) {
	var out []position.Transaction
	err := s.read(ctx, func(uow store.UnitOfWork) error {
		rows, err := uow.Transactions().ListAccount(ctx, accountID)
		if err != nil {
			return err
		}
		out = position.SortTransactions(model.Transactions(rows))
		return nil
	})
	return out, err
}

func (s *Service) Snapshots(ctx context.Context, scope store.Scope) ([]position.DailySnapshot, error) {
	var out []position.DailySnapshot
	err := s.read(ctx, func(uow store.UnitOfWork) error {
		rows, err := uow.Snapshots().ListScope(ctx, scope)
		if err != nil {
			return err
		}
		out = model.Snapshots(rows)
		return nil
	})
	return out, err
}

// OpenPositions returns the latest snapshot of every instrument the account
// still holds.
func (s *Service) OpenPositions(ctx context.Context, accountID int64) ([]position.DailySnapshot, error) {
	var out []position.DailySnapshot
	err := s.read(ctx, func(uow store.UnitOfWork) error {
		rows, err := uow.Snapshots().ListAccount(ctx, accountID)
		if err != nil {
			return err
		}
		// rows are ordered by instrument then date
		for i, row := range rows {
			last := i == len(rows)-1 ||
				rows[i+1].CategoryID != row.CategoryID ||
				rows[i+1].InstrumentID != row.InstrumentID
			if last && row.Quantity != 0 {
				out = append(out, row.Snapshot())
			}
		}
		return nil
	})
	return out, err
}

// TransactionQuery filters an account's transactions by symbol and time.
// Zero values leave a bound open. To is exclusive.
type TransactionQuery struct {
	AccountID int64
	Symbol    string
	From      time.Time
	To        time.Time
}

func (q TransactionQuery) match(tx position.Transaction) bool {
	if q.Symbol != "" && !strings.EqualFold(q.Symbol, tx.Symbol) {
		return false
	}
	if !q.From.IsZero() && tx.ExecutedAt.Before(q.From) {
		return false
	}
	if !q.To.IsZero() && !tx.ExecutedAt.Before(q.To) {
		return false
	}
	return true
}

func (s *Service) filtered(ctx context.Context, q TransactionQuery) ([]position.Transaction, error) {
	all, err := s.Transactions(ctx, q.AccountID)
	if err != nil {
		return nil, err
	}
	out := all[:0]
	for _, tx := range all {
		if q.match(tx) {
			out = append(out, tx)
		}
	}
	return out, nil
}

// FindTransactions lists the account's transactions matching q in
// (ExecutedAt, ID) order.
func (s *Service) FindTransactions(ctx context.Context, q TransactionQuery) ([]position.Transaction, error) {
	return s.filtered(ctx, q)
}

// OpenLotTransactions returns the trades that built the account's current
// open position in symbol. The result is empty when the position is flat.
func (s *Service) OpenLotTransactions(ctx context.Context, accountID int64, symbol string) ([]position.Transaction, error) {
	if strings.TrimSpace(symbol) == "" {
		return nil, fmt.Errorf("%w: symbol is required", ErrInvalidTransaction)
	}
	txs, err := s.filtered(ctx, TransactionQuery{AccountID: accountID, Symbol: strings.TrimSpace(symbol)})
	if err != nil {
		return nil, err
	}
	return s.engine.OpenLotTrades(txs), nil
}

// RealizedPnL reports the closed lots found in the filtered transactions.
// Lots are derived from the filtered subset only, so a window that cuts a
// lot in half does not report it.
func (s *Service) RealizedPnL(ctx context.Context, q TransactionQuery) ([]position.RealizedLot, error) {
	txs, err := s.filtered(ctx, q)
	if err != nil {
		return nil, err
	}
	return s.engine.RealizedPnL(txs), nil
}

// Lots is RealizedPnL including the lots that are still open.
func (s *Service) Lots(ctx context.Context, q TransactionQuery) ([]position.RealizedLot, error) {
	txs, err := s.filtered(ctx, q)
	if err != nil {
		return nil, err
	}
	return s.engine.LotSummaries(txs), nil
}

func (s *Service) Balance(ctx context.Context, accountID int64, currency string) (decimal.Decimal, error) {
	currency = strings.ToUpper(strings.TrimSpace(currency))
	if currency == "" {
		currency = s.currency
	}
	var out decimal.Decimal
	err := s.read(ctx, func(uow store.UnitOfWork) error {
		var err error
		out, err = uow.Balances().Get(ctx, accountID, currency)
		return err
	})
	return out, err
}

// Balances returns every currency balance of the account keyed by ISO code.
func (s *Service) Balances(ctx context.Context, accountID int64) (map[string]decimal.Decimal, error) {
	out := make(map[string]decimal.Decimal)
	err := s.read(ctx, func(uow store.UnitOfWork) error {
		rows, err := uow.Balances().ListAccount(ctx, accountID)
		if err != nil {
			return err
		}
		for _, r := range rows {
			out[r.Currency] = r.Amount
		}
		return nil
	})
	return out, err
}

// Event is one entry of the audit trail of a trade or a cash transaction.
type Event struct {
	Kind       model.EventKind           `json:"kind"`
	At         time.Time                 `json:"at"`
	Before     *position.Transaction     `json:"before,omitempty"`
	After      *position.Transaction     `json:"after,omitempty"`
	CashBefore *position.CashTransaction `json:"cash_before,omitempty"`
	CashAfter  *position.CashTransaction `json:"cash_after,omitempty"`
	CashDelta  decimal.Decimal           `json:"cash_delta"`
}

func (s *Service) History(ctx context.Context, id string) ([]Event, error) {
	var out []Event
	err := s.read(ctx, func(uow store.UnitOfWork) error {
		rows, err := uow.Events().ListByTransaction(ctx, id, 0)
		if err != nil {
			return err
		}
		for _, r := range rows {
			var d eventDetails
			if err := json.Unmarshal(r.Details, &d); err != nil {
				return fmt.Errorf("decode event %d: %w", r.ID, err)
			}
			out = append(out, Event{
				Kind:       r.Kind,
				At:         time.UnixMilli(r.Timestamp),
				Before:     d.Before,
				After:      d.After,
				CashBefore: d.CashBefore,
				CashAfter:  d.CashAfter,
				CashDelta:  d.CashDelta,
			})
		}
		return nil
	})
	return out, err
}

// RebuildSnapshots recomputes the snapshots of one scope from its history.
func (s *Service) RebuildSnapshots(ctx context.Context, scope store.Scope) error {
	unlock := s.locks.lock(scope)
	defer unlock()
	return s.withUnitOfWork(ctx, func(uow store.UnitOfWork) error {
		_, err := s.rebuildScope(ctx, uow, scope)
		return err
	})
}

// RebuildAll rebuilds every scope that has transactions, at most MaxParallel
// at a time, and returns how many were rebuilt. The first failure cancels
// the remaining rebuilds.
func (s *Service) RebuildAll(ctx context.Context) (int, error) {
	var scopes []store.Scope
	if err := s.read(ctx, func(uow store.UnitOfWork) error {
		var err error
		scopes, err = uow.Transactions().ListScopes(ctx)
		return err
	}); err != nil {
		return 0, err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.maxParallel)
	for _, scope := range scopes {
		scope := scope
		g.Go(func() error {
			if err := s.RebuildSnapshots(gctx, scope); err != nil {
				return fmt.Errorf("rebuild %s: %w", scope, err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return 0, err
	}
	logger.Infof("rebuilt snapshots for %d scopes", len(scopes))
	return len(scopes), nil
}
