// Package domain contains monthly rent receipts. A receipt is unique per
// (contract, billing period); the generation job relies on that constraint
// to stay idempotent.
package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
)

type ReceiptStatus string

const (
	StatusDue        ReceiptStatus = "due"
	StatusProcessing ReceiptStatus = "processing"
	StatusPaid       ReceiptStatus = "paid"
	StatusFailed     ReceiptStatus = "failed"
)

// RentReceipt is one billing period's rent obligation for one contract.
// Period is formatted "2006-01".
type RentReceipt struct {
	ID         snowflake.ID  `json:"id" gorm:"primaryKey"`
	ContractID snowflake.ID  `json:"contract_id" gorm:"not null;uniqueIndex:ux_rent_receipts_contract_period"`
	Period     string        `json:"period" gorm:"type:text;not null;uniqueIndex:ux_rent_receipts_contract_period"`
	Amount     int64         `json:"amount" gorm:"not null"`
	Currency   string        `json:"currency" gorm:"type:text;not null;default:'EUR'"`
	Status     ReceiptStatus `json:"status" gorm:"type:text;not null;default:'due'"`
	DueAt      time.Time     `json:"due_at" gorm:"not null"`
	PaidAt     *time.Time    `json:"paid_at,omitempty"`
	CreatedAt  time.Time     `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt  time.Time     `json:"updated_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (RentReceipt) TableName() string { return "rent_receipts" }

// PeriodOf formats t's billing period.
func PeriodOf(t time.Time) string {
	return t.Format("2006-01")
}

type Repository interface {
	// Insert appends the receipt unless one already exists for the
	// (contract, period) pair. Returns false on a duplicate.
	Insert(ctx context.Context, receipt *RentReceipt) (bool, error)
	ListByContract(ctx context.Context, contractID snowflake.ID) ([]RentReceipt, error)
	// UpdateStatus moves the receipt between payment states; PaidAt is
	// set only on the paid status.
	UpdateStatus(ctx context.Context, id snowflake.ID, status ReceiptStatus, now time.Time) error
}

type Service interface {
	// EnsureReceipt creates the receipt for the given period if it does
	// not exist yet. Returns true when a new receipt was created.
	EnsureReceipt(ctx context.Context, contractID snowflake.ID, period string, amount int64, currency string, dueAt time.Time) (bool, error)
	ListByContract(ctx context.Context, contractID snowflake.ID) ([]RentReceipt, error)
	MarkPaid(ctx context.Context, id snowflake.ID) error
	MarkFailed(ctx context.Context, id snowflake.ID) error
}

var ErrReceiptNotFound = errors.New("rent_receipt_not_found")
