// Package domain contains the append-only external event ledger.
//
// The ledger is the sole idempotency gate for provider callbacks: an event
// is applied at most once because only the first insert of a
// (provider, provider_event_id) pair wins.
package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

type EventRecord struct {
	ID              snowflake.ID   `json:"id" gorm:"primaryKey"`
	Provider        string         `json:"provider" gorm:"type:text;not null"`
	ProviderEventID string         `json:"provider_event_id" gorm:"type:text;not null"`
	ContractID      snowflake.ID   `json:"contract_id" gorm:"not null;index"`
	EventType       string         `json:"event_type" gorm:"type:text;not null"`
	Payload         datatypes.JSON `json:"payload" gorm:"type:jsonb;not null"`
	ReceivedAt      time.Time      `json:"received_at" gorm:"not null"`
}

func (EventRecord) TableName() string { return "contract_events" }

type Repository interface {
	// Insert appends the record unless the (provider, provider_event_id)
	// pair already exists. Returns false on a duplicate, never an error.
	Insert(ctx context.Context, record *EventRecord) (bool, error)
	Find(ctx context.Context, provider, providerEventID string) (*EventRecord, error)
	ListByContract(ctx context.Context, contractID snowflake.ID) ([]EventRecord, error)
}
