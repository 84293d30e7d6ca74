package sqlite

import (
	"context"
	"errors"

	"tradejournal/internal/store/model"

	"gorm.io/gorm"
)

type cashRepository struct {
	db *gorm.DB
}

func NewCashRepo(db *gorm.DB) *cashRepository {
	return &cashRepository{db: db}
}

func (r *cashRepository) Insert(ctx context.Context, c *model.CashTransactionModel) error {
	if c == nil {
		return errors.New("cash transaction cannot be nil")
	}
	return r.db.WithContext(ctx).Create(c).Error
}

func (r *cashRepository) Update(ctx context.Context, c *model.CashTransactionModel) error {
	if c == nil {
		return errors.New("cash transaction cannot be nil")
	}
	res := r.db.WithContext(ctx).Model(&model.CashTransactionModel{}).
		Where("id = ?", c.ID).
		Select("*").Omit("id", "created_at").
		Updates(c)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *cashRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&model.CashTransactionModel{}).Error
}

func (r *cashRepository) FindByID(ctx context.Context, id string) (*model.CashTransactionModel, error) {
	var row model.CashTransactionModel
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *cashRepository) ListAccount(ctx context.Context, accountID int64) ([]model.CashTransactionModel, error) {
	var rows []model.CashTransactionModel
	if err := r.db.WithContext(ctx).
		Where("account_id = ?", accountID).
		Order("executed_at ASC, id ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
