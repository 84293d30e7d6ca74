package sqlite

import (
	"context"
	"errors"

	"tradejournal/internal/position"
	"tradejournal/internal/store"
	"tradejournal/internal/store/model"

	"gorm.io/gorm"
)

// transactionRepository implements store.TransactionRepository.
type transactionRepository struct {
	db *gorm.DB
}

func NewTransactionRepo(db *gorm.DB) *transactionRepository {
	return &transactionRepository{db: db}
}

func (r *transactionRepository) Insert(ctx context.Context, tx *model.TransactionModel) error {
	if tx == nil {
		return errors.New("transaction cannot be nil")
	}
	return r.db.WithContext(ctx).Create(tx).Error
}

func (r *transactionRepository) Update(ctx context.Context, tx *model.TransactionModel) error {
	if tx == nil {
		return errors.New("transaction cannot be nil")
	}
	res := r.db.WithContext(ctx).Model(&model.TransactionModel{}).
		Where("id = ?", tx.ID).
		Select("*").Omit("id", "created_at").
		Updates(tx)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *transactionRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&model.TransactionModel{}).Error
}

func (r *transactionRepository) FindByID(ctx context.Context, id string) (*model.TransactionModel, error) {
	var tx model.TransactionModel
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&tx).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &tx, nil
}

func (r *transactionRepository) ListScope(ctx context.Context, scope store.Scope) ([]model.TransactionModel, error) {
	var txs []model.TransactionModel
	if err := r.db.WithContext(ctx).
		Where("account_id = ? AND category_id = ? AND instrument_id = ?", scope.AccountID, scope.CategoryID, scope.InstrumentID).
		Order("executed_at ASC, id ASC").
		Find(&txs).Error; err != nil {
		return nil, err
	}
	return txs, nil
}

func (r *transactionRepository) ListAccount(ctx context.Context, accountID int64) ([]model.TransactionModel, error) {
	var txs []model.TransactionModel
	if err := r.db.WithContext(ctx).
		Where("account_id = ?", accountID).
		Order("executed_at ASC, id ASC").
		Find(&txs).Error; err != nil {
		return nil, err
	}
	return txs, nil
}

func (r *transactionRepository) ListScopes(ctx context.Context) ([]store.Scope, error) {
	var rows []struct {
		AccountID    int64
		CategoryID   int
		InstrumentID int
	}
	if err := r.db.WithContext(ctx).Model(&model.TransactionModel{}).
		Distinct("account_id", "category_id", "instrument_id").
		Order("account_id, category_id, instrument_id").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]store.Scope, len(rows))
	for i, row := range rows {
		out[i] = store.Scope{AccountID: row.AccountID, CategoryID: row.CategoryID, InstrumentID: row.InstrumentID}
	}
	return out, nil
}

func (r *transactionRepository) LastBySymbol(ctx context.Context, symbol string) (*model.TransactionModel, error) {
	var tx model.TransactionModel
	err := r.db.WithContext(ctx).
		Where("symbol = ?", symbol).
		Order("executed_at DESC, id DESC").
		First(&tx).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &tx, nil
}

func (r *transactionRepository) FindInstrumentBySymbol(ctx context.Context, symbol, excludeID string) (*position.InstrumentKey, error) {
	var tx model.TransactionModel
	err := r.db.WithContext(ctx).
		Select("category_id", "instrument_id").
		Where("symbol = ? AND id <> ?", symbol, excludeID).
		Order("executed_at ASC, id ASC").
		First(&tx).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &position.InstrumentKey{CategoryID: tx.CategoryID, InstrumentID: tx.InstrumentID}, nil
}
