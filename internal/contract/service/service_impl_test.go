package service_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/leaseway/leaseway/internal/clock"
	"github.com/leaseway/leaseway/internal/contract/domain"
	contractrepo "github.com/leaseway/leaseway/internal/contract/repository"
	contractservice "github.com/leaseway/leaseway/internal/contract/service"
	directoryrepo "github.com/leaseway/leaseway/internal/directory/repository"
	historyrepo "github.com/leaseway/leaseway/internal/history/repository"
	historyservice "github.com/leaseway/leaseway/internal/history/service"
	"github.com/leaseway/leaseway/internal/providers/email"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:memdb_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}

	schema := []string{
		`CREATE TABLE contracts (
			id BIGINT PRIMARY KEY,
			landlord_id BIGINT NOT NULL,
			tenant_id BIGINT NOT NULL,
			property_id BIGINT NOT NULL,
			rent_amount BIGINT NOT NULL,
			deposit_amount BIGINT NOT NULL,
			currency TEXT NOT NULL DEFAULT 'EUR',
			start_date DATE NOT NULL,
			end_date DATE NOT NULL,
			region TEXT NOT NULL DEFAULT '',
			clauses TEXT NOT NULL DEFAULT '[]',
			status TEXT NOT NULL DEFAULT 'draft',
			termination_reason TEXT,
			signature_provider TEXT,
			signature_envelope_id TEXT,
			signature_status TEXT,
			signed_document BLOB,
			signed_document_sha256 TEXT,
			deposit_paid BOOLEAN NOT NULL DEFAULT FALSE,
			deposit_paid_at DATETIME,
			deposit_destination TEXT,
			activated_at DATETIME,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL
		)`,
		`CREATE TABLE contract_history (
			id BIGINT PRIMARY KEY,
			contract_id BIGINT NOT NULL,
			action TEXT NOT NULL,
			actor_id TEXT,
			payload TEXT NOT NULL DEFAULT '{}',
			created_at DATETIME NOT NULL
		)`,
		`CREATE TABLE parties (
			id BIGINT PRIMARY KEY,
			full_name TEXT NOT NULL,
			email TEXT NOT NULL,
			phone TEXT
		)`,
		`CREATE TABLE properties (
			id BIGINT PRIMARY KEY,
			landlord_id BIGINT NOT NULL,
			address TEXT NOT NULL,
			city TEXT NOT NULL,
			region TEXT NOT NULL
		)`,
	}
	for _, stmt := range schema {
		if err := db.Exec(stmt).Error; err != nil {
			t.Fatalf("create schema: %v", err)
		}
	}
	return db
}

type fixture struct {
	db       *gorm.DB
	node     *snowflake.Node
	clk      *clock.FakeClock
	repo     domain.Repository
	svc      domain.Service
	tenantID snowflake.ID
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db := setupTestDB(t)
	node, err := snowflake.NewNode(20)
	if err != nil {
		t.Fatalf("new node: %v", err)
	}
	clk := clock.NewFakeClock(time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC))

	historySvc := historyservice.NewService(historyservice.Params{
		Log:   zap.NewNop(),
		GenID: node,
		Clock: clk,
		Repo:  historyrepo.Provide(db),
	})
	repo := contractrepo.Provide(db)
	svc := contractservice.NewService(contractservice.Params{
		Log:       zap.NewNop(),
		GenID:     node,
		Clock:     clk,
		Repo:      repo,
		History:   historySvc,
		Directory: directoryrepo.Provide(db),
		Email:     &email.NoOpProvider{},
	})

	f := &fixture{db: db, node: node, clk: clk, repo: repo, svc: svc, tenantID: node.Generate()}

	if err := db.Exec(
		`INSERT INTO parties (id, full_name, email) VALUES (?, ?, ?)`,
		f.tenantID, "Nora Tenant", "nora@example.com",
	).Error; err != nil {
		t.Fatalf("seed tenant: %v", err)
	}
	return f
}

func (f *fixture) createContract(t *testing.T) *domain.Contract {
	t.Helper()

	contract, err := f.svc.Create(context.Background(), domain.CreateContractRequest{
		LandlordID:    f.node.Generate(),
		TenantID:      f.tenantID,
		PropertyID:    f.node.Generate(),
		RentAmount:    95000,
		DepositAmount: 190000,
		Currency:      "EUR",
		StartDate:     f.clk.Now().AddDate(0, 0, -2),
		EndDate:       f.clk.Now().AddDate(1, 0, 0),
		Region:        "catalonia",
	})
	if err != nil {
		t.Fatalf("create contract: %v", err)
	}
	return contract
}

func historyActions(t *testing.T, db *gorm.DB, contractID snowflake.ID) []string {
	t.Helper()

	var actions []string
	if err := db.Raw(
		`SELECT action FROM contract_history WHERE contract_id = ? ORDER BY id ASC`,
		contractID,
	).Scan(&actions).Error; err != nil {
		t.Fatalf("list history: %v", err)
	}
	return actions
}

func TestCreateContract(t *testing.T) {
	f := newFixture(t)
	contract := f.createContract(t)

	if contract.Status != domain.StatusDraft {
		t.Fatalf("expected draft, got %s", contract.Status)
	}
	actions := historyActions(t, f.db, contract.ID)
	if len(actions) != 1 || actions[0] != "contract_created" {
		t.Fatalf("expected [contract_created], got %v", actions)
	}
}

func TestCreateContractValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Create(ctx, domain.CreateContractRequest{
		LandlordID: f.node.Generate(),
		TenantID:   f.tenantID,
		PropertyID: f.node.Generate(),
		RentAmount: 0,
		StartDate:  f.clk.Now(),
		EndDate:    f.clk.Now().AddDate(1, 0, 0),
	})
	if !errors.Is(err, domain.ErrInvalidRequest) {
		t.Fatalf("expected ErrInvalidRequest for zero rent, got %v", err)
	}

	_, err = f.svc.Create(ctx, domain.CreateContractRequest{
		LandlordID: f.node.Generate(),
		TenantID:   f.tenantID,
		PropertyID: f.node.Generate(),
		RentAmount: 95000,
		StartDate:  f.clk.Now(),
		EndDate:    f.clk.Now(),
	})
	if !errors.Is(err, domain.ErrInvalidRequest) {
		t.Fatalf("expected ErrInvalidRequest for empty term, got %v", err)
	}
}

func TestTransitionHappyPath(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	contract := f.createContract(t)

	updated, err := f.svc.Transition(ctx, contract.ID, domain.StatusPendingSignature, nil)
	if err != nil {
		t.Fatalf("transition: %v", err)
	}
	if updated.Status != domain.StatusPendingSignature {
		t.Fatalf("expected pending_signature, got %s", updated.Status)
	}

	actions := historyActions(t, f.db, contract.ID)
	if len(actions) != 2 || actions[1] != "signature_requested" {
		t.Fatalf("expected signature_requested entry, got %v", actions)
	}
}

func TestTransitionRejectsIllegalMove(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	contract := f.createContract(t)

	_, err := f.svc.Transition(ctx, contract.ID, domain.StatusActive, nil)
	if !errors.Is(err, domain.ErrInvalidTransition) {
		t.Fatalf("expected invalid transition, got %v", err)
	}
	var transitionErr *domain.InvalidTransitionError
	if !errors.As(err, &transitionErr) {
		t.Fatalf("expected InvalidTransitionError, got %T", err)
	}
	if transitionErr.From != domain.StatusDraft || transitionErr.To != domain.StatusActive {
		t.Fatalf("unexpected from/to: %s -> %s", transitionErr.From, transitionErr.To)
	}

	// The illegal attempt leaves no history trace.
	actions := historyActions(t, f.db, contract.ID)
	if len(actions) != 1 {
		t.Fatalf("expected only contract_created, got %v", actions)
	}
}

func TestTransitionLostRaceReportsCurrentState(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	contract := f.createContract(t)

	if _, err := f.svc.Transition(ctx, contract.ID, domain.StatusPendingSignature, nil); err != nil {
		t.Fatalf("first transition: %v", err)
	}

	// A second caller that loaded the contract as draft loses the
	// conditional update and reports the then-current status.
	won, err := f.repo.UpdateStatus(ctx, contract.ID, domain.StatusDraft, domain.StatusPendingSignature, f.clk.Now())
	if err != nil {
		t.Fatalf("conditional update: %v", err)
	}
	if won {
		t.Fatalf("expected stale conditional update to affect zero rows")
	}

	_, err = f.svc.Transition(ctx, contract.ID, domain.StatusPendingSignature, nil)
	var transitionErr *domain.InvalidTransitionError
	if !errors.As(err, &transitionErr) {
		t.Fatalf("expected InvalidTransitionError, got %v", err)
	}
	if transitionErr.From != domain.StatusPendingSignature {
		t.Fatalf("expected from=pending_signature, got %s", transitionErr.From)
	}
}

func TestActivatePreconditions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	contract := f.createContract(t)

	if _, err := f.svc.Transition(ctx, contract.ID, domain.StatusPendingSignature, nil); err != nil {
		t.Fatalf("to pending: %v", err)
	}

	_, err := f.svc.Activate(ctx, contract.ID, nil, false)
	if !errors.Is(err, domain.ErrMustBeSigned) {
		t.Fatalf("expected ErrMustBeSigned, got %v", err)
	}

	if _, err := f.svc.Transition(ctx, contract.ID, domain.StatusSigned, nil); err != nil {
		t.Fatalf("to signed: %v", err)
	}

	_, err = f.svc.Activate(ctx, contract.ID, nil, false)
	if !errors.Is(err, domain.ErrDepositUnpaid) {
		t.Fatalf("expected ErrDepositUnpaid, got %v", err)
	}

	if ok, err := f.repo.MarkDepositPaid(ctx, contract.ID, domain.DepositDestinationAuthority, f.clk.Now()); err != nil || !ok {
		t.Fatalf("mark deposit paid: ok=%v err=%v", ok, err)
	}

	activated, err := f.svc.Activate(ctx, contract.ID, nil, false)
	if err != nil {
		t.Fatalf("activate: %v", err)
	}
	if activated.Status != domain.StatusActive {
		t.Fatalf("expected active, got %s", activated.Status)
	}
	if activated.ActivatedAt == nil {
		t.Fatalf("expected activated_at to be set")
	}

	actions := historyActions(t, f.db, contract.ID)
	if actions[len(actions)-1] != "activated" {
		t.Fatalf("expected activated entry, got %v", actions)
	}
}

func TestActivateBeforeStartDate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	contract, err := f.svc.Create(ctx, domain.CreateContractRequest{
		LandlordID:    f.node.Generate(),
		TenantID:      f.tenantID,
		PropertyID:    f.node.Generate(),
		RentAmount:    95000,
		DepositAmount: 190000,
		StartDate:     f.clk.Now().AddDate(0, 1, 0),
		EndDate:       f.clk.Now().AddDate(1, 1, 0),
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := f.svc.Transition(ctx, contract.ID, domain.StatusPendingSignature, nil); err != nil {
		t.Fatalf("to pending: %v", err)
	}
	if _, err := f.svc.Transition(ctx, contract.ID, domain.StatusSigned, nil); err != nil {
		t.Fatalf("to signed: %v", err)
	}
	if ok, err := f.repo.MarkDepositPaid(ctx, contract.ID, domain.DepositDestinationAuthority, f.clk.Now()); err != nil || !ok {
		t.Fatalf("mark deposit paid: ok=%v err=%v", ok, err)
	}

	_, err = f.svc.Activate(ctx, contract.ID, nil, false)
	if !errors.Is(err, domain.ErrStartDateNotReached) {
		t.Fatalf("expected ErrStartDateNotReached, got %v", err)
	}

	// Once the start date passes, activation succeeds.
	f.clk.Advance(32 * 24 * time.Hour)
	if _, err := f.svc.Activate(ctx, contract.ID, nil, false); err != nil {
		t.Fatalf("activate after start: %v", err)
	}
}

func TestTerminateFromDraftCancels(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	contract := f.createContract(t)

	terminated, err := f.svc.Terminate(ctx, contract.ID, "tenant withdrew", nil)
	if err != nil {
		t.Fatalf("terminate: %v", err)
	}
	if terminated.Status != domain.StatusCancelled {
		t.Fatalf("expected cancelled from draft, got %s", terminated.Status)
	}
	if terminated.TerminationReason == nil || *terminated.TerminationReason != "tenant withdrew" {
		t.Fatalf("expected termination reason persisted")
	}

	// Terminal means terminal.
	_, err = f.svc.Transition(ctx, contract.ID, domain.StatusPendingSignature, nil)
	if !errors.Is(err, domain.ErrInvalidTransition) {
		t.Fatalf("expected invalid transition out of cancelled, got %v", err)
	}
}

func TestTerminateActiveContract(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	contract := f.createContract(t)

	for _, target := range []domain.ContractStatus{domain.StatusPendingSignature, domain.StatusSigned} {
		if _, err := f.svc.Transition(ctx, contract.ID, target, nil); err != nil {
			t.Fatalf("to %s: %v", target, err)
		}
	}
	if ok, err := f.repo.MarkDepositPaid(ctx, contract.ID, domain.DepositDestinationEscrow, f.clk.Now()); err != nil || !ok {
		t.Fatalf("mark deposit paid: ok=%v err=%v", ok, err)
	}
	if _, err := f.svc.Activate(ctx, contract.ID, nil, false); err != nil {
		t.Fatalf("activate: %v", err)
	}

	terminated, err := f.svc.Terminate(ctx, contract.ID, "", nil)
	if err != nil {
		t.Fatalf("terminate: %v", err)
	}
	if terminated.Status != domain.StatusTerminated {
		t.Fatalf("expected terminated, got %s", terminated.Status)
	}
}
