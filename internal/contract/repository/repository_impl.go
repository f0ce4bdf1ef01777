package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/leaseway/leaseway/internal/contract/domain"
	"gorm.io/gorm"
)

type repo struct {
	db *gorm.DB
}

func Provide(conn *gorm.DB) domain.Repository {
	return &repo{db: conn}
}

func (r *repo) Create(ctx context.Context, contract *domain.Contract) error {
	return r.db.WithContext(ctx).Create(contract).Error
}

func (r *repo) FindByID(ctx context.Context, id snowflake.ID) (*domain.Contract, error) {
	var contract domain.Contract
	err := r.db.WithContext(ctx).First(&contract, "id = ?", id).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &contract, nil
}

func (r *repo) UpdateStatus(ctx context.Context, id snowflake.ID, from, to domain.ContractStatus, now time.Time) (bool, error) {
	res := r.db.WithContext(ctx).Exec(
		`UPDATE contracts
		 SET status = ?, updated_at = ?
		 WHERE id = ? AND status = ?`,
		to,
		now,
		id,
		from,
	)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *repo) SetTerminationReason(ctx context.Context, id snowflake.ID, reason string) error {
	return r.db.WithContext(ctx).Exec(
		`UPDATE contracts SET termination_reason = ? WHERE id = ?`,
		reason,
		id,
	).Error
}

func (r *repo) SetActivatedAt(ctx context.Context, id snowflake.ID, at time.Time) error {
	return r.db.WithContext(ctx).Exec(
		`UPDATE contracts SET activated_at = ? WHERE id = ? AND activated_at IS NULL`,
		at,
		id,
	).Error
}

func (r *repo) UpdateSignatureSession(ctx context.Context, id snowflake.ID, provider, envelopeID, status string, now time.Time) error {
	return r.db.WithContext(ctx).Exec(
		`UPDATE contracts
		 SET signature_provider = ?, signature_envelope_id = ?, signature_status = ?, updated_at = ?
		 WHERE id = ?`,
		provider,
		envelopeID,
		status,
		now,
		id,
	).Error
}

func (r *repo) UpdateSignatureStatus(ctx context.Context, id snowflake.ID, status string, now time.Time) error {
	return r.db.WithContext(ctx).Exec(
		`UPDATE contracts SET signature_status = ?, updated_at = ? WHERE id = ?`,
		status,
		now,
		id,
	).Error
}

func (r *repo) SaveSignedDocument(ctx context.Context, id snowflake.ID, document []byte, sha256Hex string, now time.Time) error {
	return r.db.WithContext(ctx).Exec(
		`UPDATE contracts
		 SET signed_document = ?, signed_document_sha256 = ?, updated_at = ?
		 WHERE id = ?`,
		document,
		sha256Hex,
		now,
		id,
	).Error
}

func (r *repo) MarkDepositPaid(ctx context.Context, id snowflake.ID, destination string, now time.Time) (bool, error) {
	res := r.db.WithContext(ctx).Exec(
		`UPDATE contracts
		 SET deposit_paid = TRUE, deposit_paid_at = ?, deposit_destination = ?, updated_at = ?
		 WHERE id = ? AND deposit_paid = FALSE`,
		now,
		destination,
		now,
		id,
	)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *repo) ListForActivation(ctx context.Context, now time.Time, limit int) ([]domain.Contract, error) {
	var contracts []domain.Contract
	err := r.db.WithContext(ctx).
		Where("status = ? AND deposit_paid = ? AND start_date <= ?", domain.StatusSigned, true, now).
		Order("id ASC").
		Limit(limit).
		Find(&contracts).Error
	if err != nil {
		return nil, err
	}
	return contracts, nil
}

func (r *repo) ListActive(ctx context.Context, limit int) ([]domain.Contract, error) {
	var contracts []domain.Contract
	err := r.db.WithContext(ctx).
		Where("status = ?", domain.StatusActive).
		Order("id ASC").
		Limit(limit).
		Find(&contracts).Error
	if err != nil {
		return nil, err
	}
	return contracts, nil
}

func (r *repo) ListExpired(ctx context.Context, now time.Time, limit int) ([]domain.Contract, error) {
	var contracts []domain.Contract
	err := r.db.WithContext(ctx).
		Where("status = ? AND end_date < ?", domain.StatusActive, now).
		Order("id ASC").
		Limit(limit).
		Find(&contracts).Error
	if err != nil {
		return nil, err
	}
	return contracts, nil
}
