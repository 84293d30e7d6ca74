package sqlite

import (
	"context"

	"tradejournal/internal/store/model"

	"gorm.io/gorm"
)

type eventRepo struct {
	db *gorm.DB
}

func NewEventRepo(db *gorm.DB) *eventRepo {
	return &eventRepo{db: db}
}

func (r *eventRepo) Insert(ctx context.Context, event *model.JournalEventModel) error {
	return r.db.WithContext(ctx).Create(event).Error
}

func (r *eventRepo) ListByTransaction(ctx context.Context, transactionID string, limit int) ([]model.JournalEventModel, error) {
	var events []model.JournalEventModel
	q := r.db.WithContext(ctx).Where("transaction_id = ?", transactionID).Order("timestamp ASC, id ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&events).Error; err != nil {
		return nil, err
	}
	return events, nil
}
