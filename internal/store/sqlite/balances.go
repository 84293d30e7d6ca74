package sqlite

import (
	"context"
	"errors"

	"tradejournal/internal/store/model"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type balanceRepository struct {
	db *gorm.DB
}

func NewBalanceRepo(db *gorm.DB) *balanceRepository {
	return &balanceRepository{db: db}
}

func (r *balanceRepository) find(ctx context.Context, accountID int64, currency string) (*model.CashBalanceModel, error) {
	var row model.CashBalanceModel
	err := r.db.WithContext(ctx).
		Where("account_id = ? AND currency = ?", accountID, currency).
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

// Get returns zero for an account that never booked the currency.
func (r *balanceRepository) Get(ctx context.Context, accountID int64, currency string) (decimal.Decimal, error) {
	row, err := r.find(ctx, accountID, currency)
	if err != nil || row == nil {
		return decimal.Zero, err
	}
	return row.Amount, nil
}

func (r *balanceRepository) Adjust(ctx context.Context, accountID int64, currency string, delta decimal.Decimal) (decimal.Decimal, error) {
	row, err := r.find(ctx, accountID, currency)
	if err != nil {
		return decimal.Zero, err
	}
	if row == nil {
		row = &model.CashBalanceModel{AccountID: accountID, Currency: currency, Amount: delta}
		if err := r.db.WithContext(ctx).Create(row).Error; err != nil {
			return decimal.Zero, err
		}
		return row.Amount, nil
	}
	row.Amount = row.Amount.Add(delta)
	if err := r.db.WithContext(ctx).Model(row).Update("amount", row.Amount).Error; err != nil {
		return decimal.Zero, err
	}
	return row.Amount, nil
}

func (r *balanceRepository) ListAccount(ctx context.Context, accountID int64) ([]model.CashBalanceModel, error) {
	var rows []model.CashBalanceModel
	if err := r.db.WithContext(ctx).
		Where("account_id = ?", accountID).
		Order("currency").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *balanceRepository) ListAll(ctx context.Context) ([]model.CashBalanceModel, error) {
	var rows []model.CashBalanceModel
	if err := r.db.WithContext(ctx).Order("account_id, currency").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *balanceRepository) SaveSnapshots(ctx context.Context, rows []model.CashBalanceSnapshotModel) error {
	if len(rows) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "account_id"}, {Name: "currency"}, {Name: "snapshot_date"}},
		DoUpdates: clause.AssignmentColumns([]string{"amount"}),
	}).Create(&rows).Error
}

func (r *balanceRepository) ListSnapshots(ctx context.Context, accountID int64) ([]model.CashBalanceSnapshotModel, error) {
	var rows []model.CashBalanceSnapshotModel
	if err := r.db.WithContext(ctx).
		Where("account_id = ?", accountID).
		Order("snapshot_date, currency").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
