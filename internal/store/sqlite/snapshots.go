package sqlite

import (
	"context"

	"tradejournal/internal/store"
	"tradejournal/internal/store/model"

	"gorm.io/gorm"
)

type snapshotRepository struct {
	db *gorm.DB
}

func NewSnapshotRepo(db *gorm.DB) *snapshotRepository {
	return &snapshotRepository{db: db}
}

func scopeWhere(db *gorm.DB, scope store.Scope) *gorm.DB {
	return db.Where("account_id = ? AND category_id = ? AND instrument_id = ?",
		scope.AccountID, scope.CategoryID, scope.InstrumentID)
}

// ReplaceScope must run inside a unit of work for readers to never observe
// a half-written scope.
func (r *snapshotRepository) ReplaceScope(ctx context.Context, scope store.Scope, rows []model.PositionSnapshotModel) error {
	db := r.db.WithContext(ctx)
	if err := scopeWhere(db, scope).Delete(&model.PositionSnapshotModel{}).Error; err != nil {
		return err
	}
	if len(rows) == 0 {
		return nil
	}
	return db.CreateInBatches(rows, 200).Error
}

func (r *snapshotRepository) ListScope(ctx context.Context, scope store.Scope) ([]model.PositionSnapshotModel, error) {
	var rows []model.PositionSnapshotModel
	if err := scopeWhere(r.db.WithContext(ctx), scope).
		Order("snapshot_date ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *snapshotRepository) ListAccount(ctx context.Context, accountID int64) ([]model.PositionSnapshotModel, error) {
	var rows []model.PositionSnapshotModel
	if err := r.db.WithContext(ctx).
		Where("account_id = ?", accountID).
		Order("category_id, instrument_id, snapshot_date ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
