package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/leaseway/leaseway/internal/eventledger/domain"
	"github.com/leaseway/leaseway/pkg/db"
	"gorm.io/gorm"
)

type repo struct {
	db *gorm.DB
}

func Provide(conn *gorm.DB) domain.Repository {
	return &repo{db: conn}
}

func (r *repo) Insert(ctx context.Context, record *domain.EventRecord) (bool, error) {
	res := r.db.WithContext(ctx).Exec(
		`INSERT INTO contract_events (
			id, provider, provider_event_id, contract_id, event_type, payload, received_at
		) VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (provider, provider_event_id) DO NOTHING`,
		record.ID,
		record.Provider,
		record.ProviderEventID,
		record.ContractID,
		record.EventType,
		record.Payload,
		record.ReceivedAt,
	)
	if res.Error != nil {
		// Dialects without ON CONFLICT support surface the race as a
		// unique violation instead.
		if db.IsDuplicateKeyErr(res.Error) {
			return false, nil
		}
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *repo) Find(ctx context.Context, provider, providerEventID string) (*domain.EventRecord, error) {
	var item domain.EventRecord
	err := r.db.WithContext(ctx).Raw(
		`SELECT id, provider, provider_event_id, contract_id, event_type, payload, received_at
		 FROM contract_events
		 WHERE provider = ? AND provider_event_id = ?
		 LIMIT 1`,
		provider,
		providerEventID,
	).Scan(&item).Error
	if err != nil {
		return nil, err
	}
	if item.ID == 0 {
		return nil, nil
	}
	return &item, nil
}

func (r *repo) ListByContract(ctx context.Context, contractID snowflake.ID) ([]domain.EventRecord, error) {
	var items []domain.EventRecord
	err := r.db.WithContext(ctx).
		Where("contract_id = ?", contractID).
		Order("received_at ASC").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}
