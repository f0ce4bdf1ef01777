package domain

import (
	"context"
	"net/http"

	"github.com/bwmarrin/snowflake"
)

// RequestSignatureResponse is returned to the caller initiating a signing
// session; SignerURLs carries each signer's redirect URL.
type RequestSignatureResponse struct {
	Provider   string            `json:"provider"`
	EnvelopeID string            `json:"envelope_id"`
	Status     string            `json:"status"`
	SignerURLs map[string]string `json:"signer_urls"`
}

// CallbackResult reports how a provider callback was applied. Idempotent
// and AlreadyFinalized are success outcomes, not errors: redelivery must
// look identical to first delivery from the provider's side.
type CallbackResult struct {
	Idempotent       bool   `json:"idempotent"`
	AlreadyFinalized bool   `json:"already_finalized"`
	EventType        string `json:"event_type,omitempty"`
	Status           string `json:"status"`
}

type Service interface {
	RequestSignature(ctx context.Context, contractID snowflake.ID, actorID *string) (*RequestSignatureResponse, error)
	HandleCallback(ctx context.Context, contractID snowflake.ID, payload []byte, headers http.Header) (*CallbackResult, error)
	// ListEvents returns the contract's provider event trail in the
	// order the events were recorded.
	ListEvents(ctx context.Context, contractID snowflake.ID) ([]SignatureEvent, error)
}
