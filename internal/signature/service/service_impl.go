package service

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/bwmarrin/snowflake"
	"github.com/leaseway/leaseway/internal/clock"
	contractdomain "github.com/leaseway/leaseway/internal/contract/domain"
	directorydomain "github.com/leaseway/leaseway/internal/directory/domain"
	ledgerdomain "github.com/leaseway/leaseway/internal/eventledger/domain"
	historydomain "github.com/leaseway/leaseway/internal/history/domain"
	"github.com/leaseway/leaseway/internal/renderer"
	"github.com/leaseway/leaseway/internal/signature/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Params struct {
	fx.In

	Log          *zap.Logger
	GenID        *snowflake.Node
	Clock        clock.Clock
	Provider     domain.Provider
	Repo         domain.Repository
	Ledger       ledgerdomain.Repository
	ContractSvc  contractdomain.Service
	ContractRepo contractdomain.Repository
	Directory    directorydomain.Directory
	History      historydomain.Service
	Renderer     renderer.Renderer
}

type service struct {
	log          *zap.Logger
	genID        *snowflake.Node
	clock        clock.Clock
	provider     domain.Provider
	repo         domain.Repository
	ledger       ledgerdomain.Repository
	contractSvc  contractdomain.Service
	contractRepo contractdomain.Repository
	directory    directorydomain.Directory
	history      historydomain.Service
	renderer     renderer.Renderer
}

func NewService(p Params) domain.Service {
	return &service{
		log:          p.Log.Named("signature.service"),
		genID:        p.GenID,
		clock:        p.Clock,
		provider:     p.Provider,
		repo:         p.Repo,
		ledger:       p.Ledger,
		contractSvc:  p.ContractSvc,
		contractRepo: p.ContractRepo,
		directory:    p.Directory,
		history:      p.History,
		renderer:     p.Renderer,
	}
}

func (s *service) RequestSignature(ctx context.Context, contractID snowflake.ID, actorID *string) (*domain.RequestSignatureResponse, error) {
	contract, err := s.contractSvc.Get(ctx, contractID)
	if err != nil {
		return nil, err
	}

	switch contract.Status {
	case contractdomain.StatusDraft, contractdomain.StatusPendingSignature:
	default:
		return nil, contractdomain.NewInvalidTransition(contract.Status, contractdomain.StatusPendingSignature)
	}

	// An in-flight session is reused, not duplicated: repeated requests
	// refresh the existing envelope.
	if contract.Signature.EnvelopeID != nil && *contract.Signature.EnvelopeID != "" {
		session, err := s.provider.RefreshSession(ctx, *contract.Signature.EnvelopeID)
		if err == nil {
			return s.sessionResponse(session), nil
		}
		if err != domain.ErrSessionNotFound {
			return nil, err
		}
		// The provider lost the session; fall through and open a new one.
		s.log.Warn("signing session lost upstream, recreating",
			zap.String("contract_id", contractID.String()),
			zap.String("envelope_id", *contract.Signature.EnvelopeID),
		)
	}

	document, sha, signers, err := s.renderDocument(ctx, contract)
	if err != nil {
		return nil, err
	}

	session, err := s.provider.CreateSession(ctx, domain.CreateSessionRequest{
		ContractID:     contract.ID.String(),
		Document:       document,
		DocumentSHA256: sha,
		Signers:        signers,
	})
	if err != nil {
		return nil, fmt.Errorf("create signing session: %w", err)
	}

	if err := s.contractRepo.UpdateSignatureSession(ctx, contract.ID, s.provider.Name(), session.EnvelopeID, session.Status, s.clock.Now()); err != nil {
		return nil, fmt.Errorf("persist signing session: %w", err)
	}

	if contract.Status == contractdomain.StatusDraft {
		if _, err := s.contractSvc.Transition(ctx, contract.ID, contractdomain.StatusPendingSignature, actorID); err != nil {
			return nil, err
		}
	}

	s.recordEvent(ctx, contract.ID, domain.EventTypeCreated, session.Status, nil)

	return s.sessionResponse(session), nil
}

func (s *service) HandleCallback(ctx context.Context, contractID snowflake.ID, payload []byte, headers http.Header) (*domain.CallbackResult, error) {
	// Authentication happens before any state is read or written, and
	// the error does not reveal whether the contract exists.
	if err := s.provider.VerifyCallback(payload, headers); err != nil {
		s.log.Warn("callback verification failed", zap.String("contract_id", contractID.String()))
		return nil, err
	}

	event, err := s.provider.ParseEvent(payload)
	if err != nil {
		return nil, err
	}

	contract, err := s.contractSvc.Get(ctx, contractID)
	if err != nil {
		return nil, err
	}

	if event.EnvelopeID != "" && contract.Signature.EnvelopeID != nil &&
		*contract.Signature.EnvelopeID != "" && *contract.Signature.EnvelopeID != event.EnvelopeID {
		return nil, domain.ErrEnvelopeMismatch
	}

	// The ledger insert is the idempotency gate: only the first delivery
	// of a (provider, event id) pair proceeds past this point.
	inserted, err := s.ledger.Insert(ctx, &ledgerdomain.EventRecord{
		ID:              s.genID.Generate(),
		Provider:        s.provider.Name(),
		ProviderEventID: event.EventID,
		ContractID:      contract.ID,
		EventType:       event.Type,
		Payload:         payload,
		ReceivedAt:      s.clock.Now(),
	})
	if err != nil {
		return nil, fmt.Errorf("ledger insert: %w", err)
	}
	if !inserted {
		return &domain.CallbackResult{
			Idempotent: true,
			EventType:  event.Type,
			Status:     string(contract.Status),
		}, nil
	}

	// Late or reordered events must never regress a finished contract.
	if isFinalizedForSignature(contract.Status) {
		return &domain.CallbackResult{
			AlreadyFinalized: true,
			EventType:        event.Type,
			Status:           string(contract.Status),
		}, nil
	}

	s.recordEvent(ctx, contract.ID, event.Type, event.ProviderStatus, payload)

	if event.Type != domain.EventTypeCompleted {
		if err := s.contractRepo.UpdateSignatureStatus(ctx, contract.ID, event.ProviderStatus, s.clock.Now()); err != nil {
			return nil, fmt.Errorf("update signature status: %w", err)
		}
		if event.Type == domain.EventTypeDeclined {
			if err := s.history.Append(ctx, contract.ID, historydomain.ActionSignatureDeclined, nil, map[string]any{
				"provider":    s.provider.Name(),
				"envelope_id": event.EnvelopeID,
			}); err != nil {
				s.log.Warn("history append failed",
					zap.String("contract_id", contract.ID.String()),
					zap.Error(err),
				)
			}
		}
		return &domain.CallbackResult{
			EventType: event.Type,
			Status:    string(contract.Status),
		}, nil
	}

	updated, err := s.contractSvc.Transition(ctx, contract.ID, contractdomain.StatusSigned, nil)
	if err != nil {
		return nil, err
	}
	if err := s.contractRepo.UpdateSignatureStatus(ctx, contract.ID, domain.SessionStatusCompleted, s.clock.Now()); err != nil {
		s.log.Warn("update signature status", zap.String("contract_id", contract.ID.String()), zap.Error(err))
	}

	s.persistSignedDocument(ctx, contract, event)

	return &domain.CallbackResult{
		EventType: event.Type,
		Status:    string(updated.Status),
	}, nil
}

func (s *service) ListEvents(ctx context.Context, contractID snowflake.ID) ([]domain.SignatureEvent, error) {
	if _, err := s.contractSvc.Get(ctx, contractID); err != nil {
		return nil, err
	}
	return s.repo.ListEvents(ctx, contractID)
}

// persistSignedDocument fetches and stores the executed document. A fetch
// failure must not block the signed transition; it is logged for retry by
// the operator, never silently dropped.
func (s *service) persistSignedDocument(ctx context.Context, contract *contractdomain.Contract, event *domain.CallbackEvent) {
	envelopeID := event.EnvelopeID
	if envelopeID == "" && contract.Signature.EnvelopeID != nil {
		envelopeID = *contract.Signature.EnvelopeID
	}
	if envelopeID == "" {
		return
	}

	document, err := s.provider.FetchCompletedDocument(ctx, envelopeID)
	if err != nil {
		s.log.Error("signed document fetch failed",
			zap.String("contract_id", contract.ID.String()),
			zap.String("envelope_id", envelopeID),
			zap.Error(err),
		)
		return
	}

	sha := renderer.HashDocument(document)
	if err := s.contractRepo.SaveSignedDocument(ctx, contract.ID, document, sha, s.clock.Now()); err != nil {
		s.log.Error("signed document persist failed",
			zap.String("contract_id", contract.ID.String()),
			zap.Error(err),
		)
	}
}

func (s *service) renderDocument(ctx context.Context, contract *contractdomain.Contract) ([]byte, string, []domain.Signer, error) {
	landlord, err := s.directory.Party(ctx, contract.LandlordID)
	if err != nil {
		return nil, "", nil, err
	}
	tenant, err := s.directory.Party(ctx, contract.TenantID)
	if err != nil {
		return nil, "", nil, err
	}
	property, err := s.directory.Property(ctx, contract.PropertyID)
	if err != nil {
		return nil, "", nil, err
	}

	document, sha, err := s.renderer.RenderContract(ctx, renderer.ContractData{
		ContractID:    contract.ID.String(),
		LandlordName:  landlord.FullName,
		TenantName:    tenant.FullName,
		Address:       property.Address,
		City:          property.City,
		Region:        contract.Region,
		RentAmount:    formatAmount(contract.RentAmount, contract.Currency),
		DepositAmount: formatAmount(contract.DepositAmount, contract.Currency),
		StartDate:     contract.StartDate.Format("2006-01-02"),
		EndDate:       contract.EndDate.Format("2006-01-02"),
		Clauses:       clauseData(contract),
	})
	if err != nil {
		return nil, "", nil, fmt.Errorf("render contract: %w", err)
	}

	signers := []domain.Signer{
		{Role: domain.RoleLandlord, Name: landlord.FullName, Email: landlord.Email},
		{Role: domain.RoleTenant, Name: tenant.FullName, Email: tenant.Email},
	}
	return document, sha, signers, nil
}

func (s *service) recordEvent(ctx context.Context, contractID snowflake.ID, eventType, providerStatus string, payload []byte) {
	if len(payload) == 0 {
		payload = []byte("{}")
	}
	event := &domain.SignatureEvent{
		ID:             s.genID.Generate(),
		ContractID:     contractID,
		Provider:       s.provider.Name(),
		EventType:      eventType,
		ProviderStatus: providerStatus,
		Payload:        payload,
		OccurredAt:     s.clock.Now(),
	}
	if err := s.repo.InsertEvent(ctx, event); err != nil {
		s.log.Warn("signature event trail insert failed",
			zap.String("contract_id", contractID.String()),
			zap.Error(err),
		)
	}
}

func (s *service) sessionResponse(session *domain.Session) *domain.RequestSignatureResponse {
	return &domain.RequestSignatureResponse{
		Provider:   s.provider.Name(),
		EnvelopeID: session.EnvelopeID,
		Status:     session.Status,
		SignerURLs: session.SignerURLs,
	}
}

// isFinalizedForSignature reports statuses for which signature callbacks
// are acknowledged without effect.
func isFinalizedForSignature(status contractdomain.ContractStatus) bool {
	switch status {
	case contractdomain.StatusSigned, contractdomain.StatusActive,
		contractdomain.StatusCompleted, contractdomain.StatusTerminated,
		contractdomain.StatusCancelled:
		return true
	default:
		return false
	}
}

func formatAmount(cents int64, currency string) string {
	return fmt.Sprintf("%s %s", strconv.FormatFloat(float64(cents)/100, 'f', 2, 64), currency)
}

func clauseData(contract *contractdomain.Contract) []renderer.ClauseData {
	clauses, err := contract.ParsedClauses()
	if err != nil {
		return nil
	}
	out := make([]renderer.ClauseData, 0, len(clauses))
	for _, clause := range clauses {
		out = append(out, renderer.ClauseData{
			ClauseID: clause.ClauseID,
			Version:  clause.Version,
		})
	}
	return out
}
