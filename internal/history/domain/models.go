// Package domain contains the append-only contract audit trail.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// HistoryEntry is one audit record for a contract. Entries are never
// mutated or deleted.
type HistoryEntry struct {
	ID         snowflake.ID      `json:"id" gorm:"primaryKey"`
	ContractID snowflake.ID      `json:"contract_id" gorm:"not null;index"`
	Action     string            `json:"action" gorm:"type:text;not null"`
	ActorID    *string           `json:"actor_id,omitempty" gorm:"type:text"`
	Payload    datatypes.JSONMap `json:"payload" gorm:"type:jsonb;not null;default:'{}'"`
	CreatedAt  time.Time         `json:"created_at" gorm:"not null"`
}

func (HistoryEntry) TableName() string { return "contract_history" }

// Action labels recorded in the history log.
const (
	ActionContractCreated    = "contract_created"
	ActionSignatureRequested = "signature_requested"
	ActionSignatureCompleted = "signature_completed"
	ActionSignatureDeclined  = "signature_declined"
	ActionDepositPaid        = "deposit_paid"
	ActionActivated          = "activated"
	ActionActivatedByJob     = "activated_by_job"
	ActionCompletedByJob     = "completed_by_job"
	ActionRentReceiptCreated = "rent_receipt_created"
	ActionTerminated         = "terminated"
)
