// Package mocksign is a deterministic in-process e-signature provider for
// tests and offline environments. Sessions live in memory; callbacks are
// authenticated by a shared secret header.
package mocksign

import (
	"context"
	"crypto/hmac"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/leaseway/leaseway/internal/signature/domain"
)

const (
	providerName = "mocksign"
	secretHeader = "X-Mocksign-Secret"
)

type Factory struct{}

func NewFactory() *Factory {
	return &Factory{}
}

func (f *Factory) Provider() string {
	return providerName
}

func (f *Factory) New(cfg domain.Config) (domain.Provider, error) {
	return &Provider{
		secret:   strings.TrimSpace(cfg.WebhookSecret),
		sessions: map[string]*session{},
	}, nil
}

type session struct {
	contractID string
	document   []byte
	signers    []domain.Signer
	status     string
}

type Provider struct {
	mu       sync.Mutex
	secret   string
	sessions map[string]*session
}

func (p *Provider) Name() string {
	return providerName
}

func (p *Provider) CreateSession(ctx context.Context, req domain.CreateSessionRequest) (*domain.Session, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	envelopeID := "mock_env_" + uuid.NewString()
	p.sessions[envelopeID] = &session{
		contractID: req.ContractID,
		document:   req.Document,
		signers:    req.Signers,
		status:     domain.SessionStatusSent,
	}

	return &domain.Session{
		EnvelopeID: envelopeID,
		Status:     domain.SessionStatusSent,
		SignerURLs: signerURLs(envelopeID, req.Signers),
	}, nil
}

func (p *Provider) RefreshSession(ctx context.Context, envelopeID string) (*domain.Session, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	existing, ok := p.sessions[envelopeID]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return &domain.Session{
		EnvelopeID: envelopeID,
		Status:     existing.status,
		SignerURLs: signerURLs(envelopeID, existing.signers),
	}, nil
}

func (p *Provider) FetchCompletedDocument(ctx context.Context, envelopeID string) ([]byte, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if existing, ok := p.sessions[envelopeID]; ok && len(existing.document) > 0 {
		signed := make([]byte, 0, len(existing.document)+len(envelopeID)+16)
		signed = append(signed, existing.document...)
		signed = append(signed, []byte("\nSIGNED:"+envelopeID)...)
		return signed, nil
	}
	// Sessions created by another process are still fetchable: the
	// synthetic document is derived from the envelope id alone.
	return []byte("SIGNED:" + envelopeID), nil
}

func (p *Provider) VerifyCallback(payload []byte, headers http.Header) error {
	if p.secret == "" {
		return nil
	}
	provided := strings.TrimSpace(headers.Get(secretHeader))
	if provided == "" || !hmac.Equal([]byte(provided), []byte(p.secret)) {
		return domain.ErrInvalidSignature
	}
	return nil
}

type callbackPayload struct {
	EventID    string `json:"event_id"`
	EnvelopeID string `json:"envelope_id"`
	EventType  string `json:"event_type"`
	Status     string `json:"status"`
	OccurredAt int64  `json:"occurred_at"`
}

func (p *Provider) ParseEvent(payload []byte) (*domain.CallbackEvent, error) {
	var body callbackPayload
	if err := json.Unmarshal(payload, &body); err != nil {
		return nil, domain.ErrInvalidPayload
	}
	if strings.TrimSpace(body.EventID) == "" {
		return nil, domain.ErrMissingEventID
	}

	eventType := strings.ToLower(strings.TrimSpace(body.EventType))
	switch eventType {
	case domain.EventTypeCreated, domain.EventTypeSent, domain.EventTypeCompleted, domain.EventTypeDeclined:
	default:
		return nil, domain.ErrInvalidPayload
	}

	status := strings.TrimSpace(body.Status)
	if status == "" {
		status = eventType
	}
	occurredAt := time.Now().UTC()
	if body.OccurredAt > 0 {
		occurredAt = time.Unix(body.OccurredAt, 0).UTC()
	}

	return &domain.CallbackEvent{
		EventID:        body.EventID,
		EnvelopeID:     strings.TrimSpace(body.EnvelopeID),
		Type:           eventType,
		ProviderStatus: status,
		OccurredAt:     occurredAt,
	}, nil
}

func signerURLs(envelopeID string, signers []domain.Signer) map[string]string {
	urls := make(map[string]string, len(signers))
	for _, signer := range signers {
		urls[signer.Role] = fmt.Sprintf("https://mocksign.local/sign/%s/%s", envelopeID, signer.Role)
	}
	return urls
}
