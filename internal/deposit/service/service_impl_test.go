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
	contractdomain "github.com/leaseway/leaseway/internal/contract/domain"
	contractrepo "github.com/leaseway/leaseway/internal/contract/repository"
	contractservice "github.com/leaseway/leaseway/internal/contract/service"
	"github.com/leaseway/leaseway/internal/deposit/domain"
	depositservice "github.com/leaseway/leaseway/internal/deposit/service"
	directoryrepo "github.com/leaseway/leaseway/internal/directory/repository"
	historyrepo "github.com/leaseway/leaseway/internal/history/repository"
	historyservice "github.com/leaseway/leaseway/internal/history/service"
	"github.com/leaseway/leaseway/internal/providers/email"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type fakeGateway struct {
	calls int
	fail  bool
}

func (g *fakeGateway) CreateCheckoutSession(ctx context.Context, req domain.CheckoutRequest) (*domain.CheckoutSession, error) {
	g.calls++
	if g.fail {
		return nil, domain.ErrGatewayUnavailable
	}
	return &domain.CheckoutSession{
		ID:     "cs_test_1",
		URL:    "https://checkout.test/cs_test_1",
		Status: "open",
	}, nil
}

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
	gateway  *fakeGateway
	svc      domain.Service
	contract *contractdomain.Contract
	tenantID snowflake.ID
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db := setupTestDB(t)
	node, err := snowflake.NewNode(22)
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
	contractSvc := contractservice.NewService(contractservice.Params{
		Log:       zap.NewNop(),
		GenID:     node,
		Clock:     clk,
		Repo:      repo,
		History:   historySvc,
		Directory: directoryrepo.Provide(db),
		Email:     &email.NoOpProvider{},
	})

	gateway := &fakeGateway{}
	svc := depositservice.NewService(depositservice.Params{
		Log:          zap.NewNop(),
		Clock:        clk,
		ContractSvc:  contractSvc,
		ContractRepo: repo,
		Gateway:      gateway,
		History:      historySvc,
	})

	tenantID := node.Generate()
	contract, err := contractSvc.Create(context.Background(), contractdomain.CreateContractRequest{
		LandlordID:    node.Generate(),
		TenantID:      tenantID,
		PropertyID:    node.Generate(),
		RentAmount:    95000,
		DepositAmount: 190000,
		StartDate:     clk.Now().AddDate(0, 0, -2),
		EndDate:       clk.Now().AddDate(1, 0, 0),
	})
	if err != nil {
		t.Fatalf("create contract: %v", err)
	}

	return &fixture{db: db, node: node, clk: clk, gateway: gateway, svc: svc, contract: contract, tenantID: tenantID}
}

func TestPayDepositAuthority(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	resp, err := f.svc.PayDeposit(ctx, f.contract.ID, f.tenantID, domain.PayDepositRequest{
		Destination: contractdomain.DepositDestinationAuthority,
	})
	if err != nil {
		t.Fatalf("pay deposit: %v", err)
	}
	if !resp.Paid || resp.PaidAt == nil {
		t.Fatalf("expected synchronous settlement, got %+v", resp)
	}

	var paid bool
	if err := f.db.Raw(`SELECT deposit_paid FROM contracts WHERE id = ?`, f.contract.ID).Scan(&paid).Error; err != nil {
		t.Fatalf("scan: %v", err)
	}
	if !paid {
		t.Fatalf("expected deposit_paid persisted")
	}

	var count int
	if err := f.db.Raw(
		`SELECT COUNT(1) FROM contract_history WHERE contract_id = ? AND action = 'deposit_paid'`,
		f.contract.ID,
	).Scan(&count).Error; err != nil {
		t.Fatalf("count history: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected one deposit_paid entry, got %d", count)
	}
}

func TestPayDepositTwiceFails(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if _, err := f.svc.PayDeposit(ctx, f.contract.ID, f.tenantID, domain.PayDepositRequest{
		Destination: contractdomain.DepositDestinationAuthority,
	}); err != nil {
		t.Fatalf("first payment: %v", err)
	}

	_, err := f.svc.PayDeposit(ctx, f.contract.ID, f.tenantID, domain.PayDepositRequest{
		Destination: contractdomain.DepositDestinationAuthority,
	})
	if !errors.Is(err, domain.ErrAlreadyPaid) {
		t.Fatalf("expected ErrAlreadyPaid, got %v", err)
	}
}

func TestPayDepositRejectsNonTenant(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.PayDeposit(context.Background(), f.contract.ID, f.node.Generate(), domain.PayDepositRequest{
		Destination: contractdomain.DepositDestinationAuthority,
	})
	if !errors.Is(err, domain.ErrNotTenant) {
		t.Fatalf("expected ErrNotTenant, got %v", err)
	}
}

func TestPayDepositEscrowReturnsRedirect(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	resp, err := f.svc.PayDeposit(ctx, f.contract.ID, f.tenantID, domain.PayDepositRequest{
		Destination: contractdomain.DepositDestinationEscrow,
	})
	if err != nil {
		t.Fatalf("pay deposit: %v", err)
	}
	if resp.Paid {
		t.Fatalf("escrow must not settle synchronously")
	}
	if resp.RedirectURL == "" || resp.SessionID == "" {
		t.Fatalf("expected checkout redirect, got %+v", resp)
	}
	if f.gateway.calls != 1 {
		t.Fatalf("expected one gateway call, got %d", f.gateway.calls)
	}

	// The flag stays down until the gateway confirms capture.
	var paid bool
	if err := f.db.Raw(`SELECT deposit_paid FROM contracts WHERE id = ?`, f.contract.ID).Scan(&paid).Error; err != nil {
		t.Fatalf("scan: %v", err)
	}
	if paid {
		t.Fatalf("escrow payment must not mark deposit paid")
	}
}

func TestPayDepositUnknownDestination(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.PayDeposit(context.Background(), f.contract.ID, f.tenantID, domain.PayDepositRequest{
		Destination: "mattress",
	})
	if !errors.Is(err, domain.ErrUnknownDestination) {
		t.Fatalf("expected ErrUnknownDestination, got %v", err)
	}
}

func TestPayDepositGatewayFailure(t *testing.T) {
	f := newFixture(t)
	f.gateway.fail = true

	_, err := f.svc.PayDeposit(context.Background(), f.contract.ID, f.tenantID, domain.PayDepositRequest{
		Destination: contractdomain.DepositDestinationEscrow,
	})
	if !errors.Is(err, domain.ErrGatewayUnavailable) {
		t.Fatalf("expected ErrGatewayUnavailable, got %v", err)
	}
}
