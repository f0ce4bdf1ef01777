// Package domain contains the contract aggregate and its lifecycle rules.
package domain

import (
	"encoding/json"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// ContractStatus is the single canonical lifecycle vocabulary. The batch
// jobs and the interactive endpoints share it.
type ContractStatus string

const (
	StatusDraft            ContractStatus = "draft"
	StatusPendingSignature ContractStatus = "pending_signature"
	StatusSigned           ContractStatus = "signed"
	StatusActive           ContractStatus = "active"
	StatusCompleted        ContractStatus = "completed"
	StatusTerminated       ContractStatus = "terminated"
	StatusCancelled        ContractStatus = "cancelled"
)

// transitions is the authoritative table of legal status moves. Statuses
// absent from the map are terminal.
var transitions = map[ContractStatus][]ContractStatus{
	StatusDraft:            {StatusPendingSignature, StatusTerminated, StatusCancelled},
	StatusPendingSignature: {StatusSigned, StatusTerminated},
	StatusSigned:           {StatusActive, StatusTerminated},
	StatusActive:           {StatusTerminated, StatusCompleted},
}

// CanTransition reports whether the table permits from -> to.
func CanTransition(from, to ContractStatus) bool {
	for _, allowed := range transitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transition is possible.
func IsTerminal(status ContractStatus) bool {
	return len(transitions[status]) == 0
}

// SignatureRecord is the signature sub-record stored on the contract.
type SignatureRecord struct {
	Provider       *string `json:"provider,omitempty" gorm:"column:signature_provider;type:text"`
	EnvelopeID     *string `json:"envelope_id,omitempty" gorm:"column:signature_envelope_id;type:text"`
	Status         *string `json:"status,omitempty" gorm:"column:signature_status;type:text"`
	Document       []byte  `json:"-" gorm:"column:signed_document"`
	DocumentSHA256 *string `json:"document_sha256,omitempty" gorm:"column:signed_document_sha256;type:text"`
}

// DepositRecord is the deposit sub-record stored on the contract.
type DepositRecord struct {
	Paid        bool       `json:"paid" gorm:"column:deposit_paid;not null;default:false"`
	PaidAt      *time.Time `json:"paid_at,omitempty" gorm:"column:deposit_paid_at"`
	Destination *string    `json:"destination,omitempty" gorm:"column:deposit_destination;type:text"`
}

// Deposit destinations.
const (
	DepositDestinationEscrow    = "escrow"
	DepositDestinationAuthority = "authority"
)

// Contract is a rental agreement between a landlord and a tenant. The
// status field is mutated only through the service's transition primitive.
type Contract struct {
	ID         snowflake.ID `json:"id" gorm:"primaryKey"`
	LandlordID snowflake.ID `json:"landlord_id" gorm:"not null;index"`
	TenantID   snowflake.ID `json:"tenant_id" gorm:"not null;index"`
	PropertyID snowflake.ID `json:"property_id" gorm:"not null"`

	RentAmount    int64          `json:"rent_amount" gorm:"not null"`
	DepositAmount int64          `json:"deposit_amount" gorm:"not null"`
	Currency      string         `json:"currency" gorm:"type:text;not null;default:'EUR'"`
	StartDate     time.Time      `json:"start_date" gorm:"type:date;not null"`
	EndDate       time.Time      `json:"end_date" gorm:"type:date;not null"`
	Region        string         `json:"region" gorm:"type:text;not null"`
	Clauses       datatypes.JSON `json:"clauses" gorm:"type:jsonb;not null;default:'[]'"`

	Status            ContractStatus `json:"status" gorm:"type:text;not null;default:'draft';index"`
	TerminationReason *string        `json:"termination_reason,omitempty" gorm:"type:text"`

	Signature SignatureRecord `json:"signature" gorm:"embedded"`
	Deposit   DepositRecord   `json:"deposit" gorm:"embedded"`

	ActivatedAt *time.Time `json:"activated_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt   time.Time  `json:"updated_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (Contract) TableName() string { return "contracts" }

// Clause references a clause-catalog entry by id and version together with
// its instance parameters. The clause text itself lives in the catalog.
type Clause struct {
	ClauseID string         `json:"clause_id"`
	Version  int            `json:"version"`
	Params   map[string]any `json:"params,omitempty"`
}

// ParsedClauses decodes the stored clause references.
func (c *Contract) ParsedClauses() ([]Clause, error) {
	if len(c.Clauses) == 0 {
		return nil, nil
	}
	var clauses []Clause
	if err := json.Unmarshal(c.Clauses, &clauses); err != nil {
		return nil, err
	}
	return clauses, nil
}
