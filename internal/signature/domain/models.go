// Package domain defines the e-signature provider abstraction and the
// orchestrator contract. Exactly one provider is active process-wide.
package domain

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// Signer is one party that must sign the rendered document.
type Signer struct {
	Role  string `json:"role"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Signer roles.
const (
	RoleLandlord = "landlord"
	RoleTenant   = "tenant"
)

// CreateSessionRequest carries the rendered document to the provider.
type CreateSessionRequest struct {
	ContractID     string
	Document       []byte
	DocumentSHA256 string
	Signers        []Signer
}

// Session is a provider-side signing workflow.
type Session struct {
	EnvelopeID string            `json:"envelope_id"`
	Status     string            `json:"status"`
	SignerURLs map[string]string `json:"signer_urls"`
}

// Provider-reported session statuses stored on the signature sub-record.
const (
	SessionStatusCreated   = "created"
	SessionStatusSent      = "sent"
	SessionStatusCompleted = "completed"
	SessionStatusDeclined  = "declined"
)

// CallbackEvent is a provider callback normalized to the canonical shape.
type CallbackEvent struct {
	EventID        string
	EnvelopeID     string
	Type           string
	ProviderStatus string
	OccurredAt     time.Time
}

// Canonical callback event types.
const (
	EventTypeCreated   = "created"
	EventTypeSent      = "sent"
	EventTypeCompleted = "completed"
	EventTypeDeclined  = "declined"
)

// Provider is the capability interface every e-signature backend
// implements. Swapping providers must not change orchestrator behavior.
type Provider interface {
	Name() string
	CreateSession(ctx context.Context, req CreateSessionRequest) (*Session, error)
	// RefreshSession returns the current state of an existing session so
	// repeated signature requests reuse it instead of opening new ones.
	RefreshSession(ctx context.Context, envelopeID string) (*Session, error)
	FetchCompletedDocument(ctx context.Context, envelopeID string) ([]byte, error)
	// VerifyCallback authenticates an inbound callback against the raw
	// payload before any state is touched.
	VerifyCallback(payload []byte, headers http.Header) error
	ParseEvent(payload []byte) (*CallbackEvent, error)
}

// Factory builds a Provider from configuration; registered by name.
type Factory interface {
	Provider() string
	New(cfg Config) (Provider, error)
}

// Config is the provider-agnostic configuration slice handed to factories.
type Config struct {
	BaseURL       string
	APIKey        string
	WebhookSecret string
}

// SignatureEvent is the per-contract provider event trail (the signature
// sub-record's timestamped event list).
type SignatureEvent struct {
	ID             snowflake.ID   `json:"id" gorm:"primaryKey"`
	ContractID     snowflake.ID   `json:"contract_id" gorm:"not null;index"`
	Provider       string         `json:"provider" gorm:"type:text;not null"`
	EventType      string         `json:"event_type" gorm:"type:text;not null"`
	ProviderStatus string         `json:"provider_status" gorm:"type:text;not null"`
	Payload        datatypes.JSON `json:"payload" gorm:"type:jsonb;not null"`
	OccurredAt     time.Time      `json:"occurred_at" gorm:"not null"`
}

func (SignatureEvent) TableName() string { return "signature_events" }

type Repository interface {
	InsertEvent(ctx context.Context, event *SignatureEvent) error
	ListEvents(ctx context.Context, contractID snowflake.ID) ([]SignatureEvent, error)
}

var (
	ErrProviderNotFound    = errors.New("signature_provider_not_found")
	ErrInvalidSignature    = errors.New("invalid_callback_signature")
	ErrInvalidPayload      = errors.New("invalid_callback_payload")
	ErrMissingEventID      = errors.New("missing_event_id")
	ErrEnvelopeMismatch    = errors.New("envelope_mismatch")
	ErrSessionNotFound     = errors.New("signing_session_not_found")
	ErrProviderUnreachable = errors.New("signature_provider_unreachable")
)
