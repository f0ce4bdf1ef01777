package service

import (
	"context"
	"fmt"

	"github.com/bwmarrin/snowflake"
	"github.com/leaseway/leaseway/internal/clock"
	"github.com/leaseway/leaseway/internal/contract/domain"
	directorydomain "github.com/leaseway/leaseway/internal/directory/domain"
	historydomain "github.com/leaseway/leaseway/internal/history/domain"
	"github.com/leaseway/leaseway/internal/providers/email"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Params struct {
	fx.In

	Log       *zap.Logger
	GenID     *snowflake.Node
	Clock     clock.Clock
	Repo      domain.Repository
	History   historydomain.Service
	Directory directorydomain.Directory
	Email     email.Provider
}

type service struct {
	log       *zap.Logger
	genID     *snowflake.Node
	clock     clock.Clock
	repo      domain.Repository
	history   historydomain.Service
	directory directorydomain.Directory
	email     email.Provider
}

func NewService(p Params) domain.Service {
	return &service{
		log:       p.Log.Named("contract.service"),
		genID:     p.GenID,
		clock:     p.Clock,
		repo:      p.Repo,
		history:   p.History,
		directory: p.Directory,
		email:     p.Email,
	}
}

func (s *service) Create(ctx context.Context, req domain.CreateContractRequest) (*domain.Contract, error) {
	if req.LandlordID == 0 || req.TenantID == 0 || req.PropertyID == 0 {
		return nil, domain.ErrInvalidRequest
	}
	if req.RentAmount <= 0 || req.DepositAmount < 0 {
		return nil, domain.ErrInvalidRequest
	}
	if !req.EndDate.After(req.StartDate) {
		return nil, domain.ErrInvalidRequest
	}

	now := s.clock.Now()
	currency := req.Currency
	if currency == "" {
		currency = "EUR"
	}
	clauses := req.Clauses
	if len(clauses) == 0 {
		clauses = []byte("[]")
	}

	contract := &domain.Contract{
		ID:            s.genID.Generate(),
		LandlordID:    req.LandlordID,
		TenantID:      req.TenantID,
		PropertyID:    req.PropertyID,
		RentAmount:    req.RentAmount,
		DepositAmount: req.DepositAmount,
		Currency:      currency,
		StartDate:     req.StartDate,
		EndDate:       req.EndDate,
		Region:        req.Region,
		Clauses:       clauses,
		Status:        domain.StatusDraft,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.repo.Create(ctx, contract); err != nil {
		return nil, fmt.Errorf("create contract: %w", err)
	}

	if err := s.history.Append(ctx, contract.ID, historydomain.ActionContractCreated, nil, map[string]any{
		"landlord_id": contract.LandlordID.String(),
		"tenant_id":   contract.TenantID.String(),
	}); err != nil {
		s.log.Warn("history append failed", zap.String("contract_id", contract.ID.String()), zap.Error(err))
	}
	return contract, nil
}

func (s *service) Get(ctx context.Context, id snowflake.ID) (*domain.Contract, error) {
	contract, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if contract == nil {
		return nil, domain.ErrContractNotFound
	}
	return contract, nil
}

func (s *service) Transition(ctx context.Context, id snowflake.ID, target domain.ContractStatus, actorID *string) (*domain.Contract, error) {
	contract, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.transition(ctx, contract, target, actorID, actionForTarget(target, false), nil)
}

func (s *service) Activate(ctx context.Context, id snowflake.ID, actorID *string, byJob bool) (*domain.Contract, error) {
	contract, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := domain.CheckActivatable(contract, s.clock.Now()); err != nil {
		return nil, err
	}
	return s.transition(ctx, contract, domain.StatusActive, actorID, actionForTarget(domain.StatusActive, byJob), nil)
}

func (s *service) Terminate(ctx context.Context, id snowflake.ID, reason string, actorID *string) (*domain.Contract, error) {
	contract, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	// A contract that never left draft is cancelled rather than terminated.
	target := domain.StatusTerminated
	if contract.Status == domain.StatusDraft {
		target = domain.StatusCancelled
	}

	payload := map[string]any{}
	if reason != "" {
		payload["reason"] = reason
	}
	updated, err := s.transition(ctx, contract, target, actorID, historydomain.ActionTerminated, payload)
	if err != nil {
		return nil, err
	}
	if reason != "" {
		if err := s.repo.SetTerminationReason(ctx, id, reason); err != nil {
			s.log.Warn("persist termination reason", zap.String("contract_id", id.String()), zap.Error(err))
		}
		updated.TerminationReason = &reason
	}
	return updated, nil
}

// transition is the single write path for status changes. The conditional
// update keyed on the loaded status makes concurrent callers race safely:
// the loser observes zero affected rows and reports the then-current state.
func (s *service) transition(ctx context.Context, contract *domain.Contract, target domain.ContractStatus, actorID *string, action string, payload map[string]any) (*domain.Contract, error) {
	from := contract.Status
	if !domain.CanTransition(from, target) {
		return nil, domain.NewInvalidTransition(from, target)
	}

	now := s.clock.Now()
	ok, err := s.repo.UpdateStatus(ctx, contract.ID, from, target, now)
	if err != nil {
		return nil, fmt.Errorf("update status: %w", err)
	}
	if !ok {
		current, readErr := s.repo.FindByID(ctx, contract.ID)
		if readErr != nil || current == nil {
			return nil, domain.NewInvalidTransition(from, target)
		}
		return nil, domain.NewInvalidTransition(current.Status, target)
	}

	contract.Status = target
	contract.UpdatedAt = now

	if payload == nil {
		payload = map[string]any{}
	}
	payload["from"] = string(from)
	payload["to"] = string(target)
	if err := s.history.Append(ctx, contract.ID, action, actorID, payload); err != nil {
		s.log.Warn("history append failed", zap.String("contract_id", contract.ID.String()), zap.Error(err))
	}

	if target == domain.StatusActive {
		if err := s.repo.SetActivatedAt(ctx, contract.ID, now); err != nil {
			s.log.Warn("persist activated_at", zap.String("contract_id", contract.ID.String()), zap.Error(err))
		}
		contract.ActivatedAt = &now
		s.notifyActivation(ctx, contract)
	}

	return contract, nil
}

// notifyActivation emails the tenant. Best-effort: a notification failure
// never rolls back the transition.
func (s *service) notifyActivation(ctx context.Context, contract *domain.Contract) {
	tenant, err := s.directory.Party(ctx, contract.TenantID)
	if err != nil {
		s.log.Warn("activation notification: tenant lookup failed",
			zap.String("contract_id", contract.ID.String()),
			zap.Error(err),
		)
		return
	}

	subject := "Your rental contract is now active"
	body := fmt.Sprintf(
		"<p>Hello %s,</p><p>Your rental contract %s is active as of %s.</p>",
		tenant.FullName,
		contract.ID.String(),
		contract.StartDate.Format("2006-01-02"),
	)
	if err := s.email.Send(ctx, []string{tenant.Email}, subject, body); err != nil {
		s.log.Warn("activation notification failed",
			zap.String("contract_id", contract.ID.String()),
			zap.Error(err),
		)
	}
}

func actionForTarget(target domain.ContractStatus, byJob bool) string {
	switch target {
	case domain.StatusPendingSignature:
		return historydomain.ActionSignatureRequested
	case domain.StatusSigned:
		return historydomain.ActionSignatureCompleted
	case domain.StatusActive:
		if byJob {
			return historydomain.ActionActivatedByJob
		}
		return historydomain.ActionActivated
	case domain.StatusCompleted:
		return historydomain.ActionCompletedByJob
	default:
		return historydomain.ActionTerminated
	}
}
