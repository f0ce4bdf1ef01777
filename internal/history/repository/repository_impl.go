package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/leaseway/leaseway/internal/history/domain"
	"gorm.io/gorm"
)

type repo struct {
	db *gorm.DB
}

func Provide(db *gorm.DB) domain.Repository {
	return &repo{db: db}
}

func (r *repo) Insert(ctx context.Context, entry *domain.HistoryEntry) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *repo) ListByContract(ctx context.Context, contractID snowflake.ID) ([]domain.HistoryEntry, error) {
	var entries []domain.HistoryEntry
	err := r.db.WithContext(ctx).
		Where("contract_id = ?", contractID).
		Order("created_at ASC").
		Find(&entries).Error
	if err != nil {
		return nil, err
	}
	return entries, nil
}
