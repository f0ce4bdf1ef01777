package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/leaseway/leaseway/internal/signature/domain"
	"gorm.io/gorm"
)

type repo struct {
	db *gorm.DB
}

func Provide(conn *gorm.DB) domain.Repository {
	return &repo{db: conn}
}

func (r *repo) InsertEvent(ctx context.Context, event *domain.SignatureEvent) error {
	return r.db.WithContext(ctx).Create(event).Error
}

func (r *repo) ListEvents(ctx context.Context, contractID snowflake.ID) ([]domain.SignatureEvent, error) {
	var events []domain.SignatureEvent
	err := r.db.WithContext(ctx).
		Where("contract_id = ?", contractID).
		Order("occurred_at ASC, id ASC").
		Find(&events).Error
	if err != nil {
		return nil, err
	}
	return events, nil
}
