package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"docqa/internal/model"
)

type ExchangeRepository struct {
	db *gorm.DB
}

func NewExchangeRepository(db *gorm.DB) *ExchangeRepository {
	return &ExchangeRepository{db: db}
}

func (r *ExchangeRepository) Create(ctx context.Context, exchange *model.Exchange) error {
	if err := r.db.WithContext(ctx).Create(exchange).Error; err != nil {
		return fmt.Errorf("create exchange failed: %w", err)
	}
	return nil
}

// ListByDocumentID returns a document's exchanges ordered by creation time
// for conversation replay.
func (r *ExchangeRepository) ListByDocumentID(ctx context.Context, documentID uint, limit int) ([]model.Exchange, error) {
	if limit <= 0 || limit > 200 {
		limit = 100
	}
	var exchanges []model.Exchange
	if err := r.db.WithContext(ctx).Where("document_id = ?", documentID).Order("created_at ASC").Limit(limit).Find(&exchanges).Error; err != nil {
		return nil, fmt.Errorf("list exchanges failed: %w", err)
	}
	return exchanges, nil
}

func (r *ExchangeRepository) DeleteByDocumentID(ctx context.Context, documentID uint) error {
	if err := r.db.WithContext(ctx).Where("document_id = ?", documentID).Delete(&model.Exchange{}).Error; err != nil {
		return fmt.Errorf("delete exchanges by document failed: %w", err)
	}
	return nil
}
