package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/leaseway/leaseway/internal/rent/domain"
	"github.com/leaseway/leaseway/pkg/db"
	"gorm.io/gorm"
)

type repo struct {
	db *gorm.DB
}

func Provide(conn *gorm.DB) domain.Repository {
	return &repo{db: conn}
}

func (r *repo) Insert(ctx context.Context, receipt *domain.RentReceipt) (bool, error) {
	res := r.db.WithContext(ctx).Exec(
		`INSERT INTO rent_receipts (
			id, contract_id, period, amount, currency, status, due_at, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (contract_id, period) DO NOTHING`,
		receipt.ID,
		receipt.ContractID,
		receipt.Period,
		receipt.Amount,
		receipt.Currency,
		receipt.Status,
		receipt.DueAt,
		receipt.CreatedAt,
		receipt.UpdatedAt,
	)
	if res.Error != nil {
		if db.IsDuplicateKeyErr(res.Error) {
			return false, nil
		}
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *repo) ListByContract(ctx context.Context, contractID snowflake.ID) ([]domain.RentReceipt, error) {
	var items []domain.RentReceipt
	err := r.db.WithContext(ctx).
		Where("contract_id = ?", contractID).
		Order("period ASC").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) UpdateStatus(ctx context.Context, id snowflake.ID, status domain.ReceiptStatus, now time.Time) error {
	updates := map[string]any{
		"status":     status,
		"updated_at": now,
	}
	if status == domain.StatusPaid {
		updates["paid_at"] = now
	}
	res := r.db.WithContext(ctx).
		Model(&domain.RentReceipt{}).
		Where("id = ?", id).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrReceiptNotFound
	}
	return nil
}
