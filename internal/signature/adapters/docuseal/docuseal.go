// Package docuseal integrates the DocuSeal e-signature API. Callbacks are
// authenticated with an HMAC-SHA256 signature over the raw payload.
package docuseal

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/leaseway/leaseway/internal/signature/domain"
)

const (
	providerName    = "docuseal"
	signatureHeader = "X-Docuseal-Signature"
	requestTimeout  = 10 * time.Second
)

type Factory struct{}

func NewFactory() *Factory {
	return &Factory{}
}

func (f *Factory) Provider() string {
	return providerName
}

func (f *Factory) New(cfg domain.Config) (domain.Provider, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = "https://api.docuseal.com"
	}
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, fmt.Errorf("docuseal: api key is required")
	}

	return &Provider{
		baseURL:       baseURL,
		apiKey:        apiKey,
		webhookSecret: strings.TrimSpace(cfg.WebhookSecret),
		client:        &http.Client{Timeout: requestTimeout},
	}, nil
}

type Provider struct {
	baseURL       string
	apiKey        string
	webhookSecret string
	client        *http.Client
}

func (p *Provider) Name() string {
	return providerName
}

type submissionResponse struct {
	ID      int64  `json:"id"`
	Status  string `json:"status"`
	Signers []struct {
		Role     string `json:"role"`
		EmbedURL string `json:"embed_src"`
	} `json:"submitters"`
}

func (p *Provider) CreateSession(ctx context.Context, req domain.CreateSessionRequest) (*domain.Session, error) {
	body := map[string]any{
		"template": map[string]any{
			"name":     "contract-" + req.ContractID,
			"document": base64.StdEncoding.EncodeToString(req.Document),
			"checksum": req.DocumentSHA256,
		},
		"send_email": false,
		"submitters": submitters(req.Signers),
		"metadata": map[string]any{
			"contract_id": req.ContractID,
		},
	}

	var resp submissionResponse
	if err := p.doJSON(ctx, http.MethodPost, "/submissions", body, &resp); err != nil {
		return nil, err
	}
	if resp.ID == 0 {
		return nil, domain.ErrProviderUnreachable
	}

	return &domain.Session{
		EnvelopeID: strconv.FormatInt(resp.ID, 10),
		Status:     normalizeStatus(resp.Status),
		SignerURLs: signerURLs(resp),
	}, nil
}

func (p *Provider) RefreshSession(ctx context.Context, envelopeID string) (*domain.Session, error) {
	var resp submissionResponse
	if err := p.doJSON(ctx, http.MethodGet, "/submissions/"+envelopeID, nil, &resp); err != nil {
		return nil, err
	}
	if resp.ID == 0 {
		return nil, domain.ErrSessionNotFound
	}
	return &domain.Session{
		EnvelopeID: envelopeID,
		Status:     normalizeStatus(resp.Status),
		SignerURLs: signerURLs(resp),
	}, nil
}

func (p *Provider) FetchCompletedDocument(ctx context.Context, envelopeID string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"/submissions/"+envelopeID+"/documents", nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("X-Auth-Token", p.apiKey)

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrProviderUnreachable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return nil, fmt.Errorf("%w: status %d", domain.ErrProviderUnreachable, resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

func (p *Provider) VerifyCallback(payload []byte, headers http.Header) error {
	if p.webhookSecret == "" {
		return domain.ErrInvalidSignature
	}
	provided := strings.TrimSpace(headers.Get(signatureHeader))
	if provided == "" {
		return domain.ErrInvalidSignature
	}

	mac := hmac.New(sha256.New, []byte(p.webhookSecret))
	_, _ = mac.Write(payload)
	expected := hex.EncodeToString(mac.Sum(nil))

	if !hmac.Equal([]byte(strings.ToLower(provided)), []byte(expected)) {
		return domain.ErrInvalidSignature
	}
	return nil
}

type callbackPayload struct {
	EventID   string `json:"event_uuid"`
	EventType string `json:"event_type"`
	Timestamp string `json:"timestamp"`
	Data      struct {
		SubmissionID int64  `json:"submission_id"`
		Status       string `json:"status"`
	} `json:"data"`
}

func (p *Provider) ParseEvent(payload []byte) (*domain.CallbackEvent, error) {
	var body callbackPayload
	if err := json.Unmarshal(payload, &body); err != nil {
		return nil, domain.ErrInvalidPayload
	}
	if strings.TrimSpace(body.EventID) == "" {
		return nil, domain.ErrMissingEventID
	}

	eventType := mapEventType(body.EventType)
	if eventType == "" {
		return nil, domain.ErrInvalidPayload
	}

	occurredAt := time.Now().UTC()
	if parsed, err := time.Parse(time.RFC3339, body.Timestamp); err == nil {
		occurredAt = parsed.UTC()
	}

	status := strings.TrimSpace(body.Data.Status)
	if status == "" {
		status = eventType
	}

	envelopeID := ""
	if body.Data.SubmissionID != 0 {
		envelopeID = strconv.FormatInt(body.Data.SubmissionID, 10)
	}

	return &domain.CallbackEvent{
		EventID:        body.EventID,
		EnvelopeID:     envelopeID,
		Type:           eventType,
		ProviderStatus: status,
		OccurredAt:     occurredAt,
	}, nil
}

func (p *Provider) doJSON(ctx context.Context, method, path string, body any, out any) error {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, p.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("X-Auth-Token", p.apiKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrProviderUnreachable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusInternalServerError {
		return fmt.Errorf("%w: status %d", domain.ErrProviderUnreachable, resp.StatusCode)
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("docuseal: request failed with status %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func mapEventType(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "submission.created":
		return domain.EventTypeCreated
	case "form.viewed", "form.started":
		return domain.EventTypeSent
	case "form.completed", "submission.completed":
		return domain.EventTypeCompleted
	case "form.declined", "submission.archived":
		return domain.EventTypeDeclined
	default:
		return ""
	}
}

func normalizeStatus(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "pending", "awaiting":
		return domain.SessionStatusSent
	case "completed":
		return domain.SessionStatusCompleted
	case "declined":
		return domain.SessionStatusDeclined
	default:
		return domain.SessionStatusSent
	}
}

func submitters(signers []domain.Signer) []map[string]any {
	out := make([]map[string]any, 0, len(signers))
	for _, signer := range signers {
		out = append(out, map[string]any{
			"role":  signer.Role,
			"name":  signer.Name,
			"email": signer.Email,
		})
	}
	return out
}

func signerURLs(resp submissionResponse) map[string]string {
	urls := make(map[string]string, len(resp.Signers))
	for _, signer := range resp.Signers {
		if signer.EmbedURL != "" {
			urls[signer.Role] = signer.EmbedURL
		}
	}
	return urls
}
