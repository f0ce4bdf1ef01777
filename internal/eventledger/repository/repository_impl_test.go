package repository_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/leaseway/leaseway/internal/eventledger/domain"
	"github.com/leaseway/leaseway/internal/eventledger/repository"
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
		`CREATE TABLE contract_events (
			id BIGINT PRIMARY KEY,
			provider TEXT NOT NULL,
			provider_event_id TEXT NOT NULL,
			contract_id BIGINT NOT NULL,
			event_type TEXT NOT NULL,
			payload TEXT NOT NULL DEFAULT '{}',
			received_at DATETIME NOT NULL
		)`,
		`CREATE UNIQUE INDEX ux_contract_events_provider_event
			ON contract_events(provider, provider_event_id)`,
	}
	for _, stmt := range schema {
		if err := db.Exec(stmt).Error; err != nil {
			t.Fatalf("create schema: %v", err)
		}
	}
	return db
}

func record(node *snowflake.Node, contractID snowflake.ID, provider, eventID string) *domain.EventRecord {
	return &domain.EventRecord{
		ID:              node.Generate(),
		Provider:        provider,
		ProviderEventID: eventID,
		ContractID:      contractID,
		EventType:       "completed",
		Payload:         []byte(`{"event_id":"` + eventID + `"}`),
		ReceivedAt:      time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC),
	}
}

func TestInsertDeduplicates(t *testing.T) {
	db := setupTestDB(t)
	node, err := snowflake.NewNode(25)
	if err != nil {
		t.Fatalf("new node: %v", err)
	}
	repo := repository.Provide(db)
	ctx := context.Background()
	contractID := node.Generate()

	created, err := repo.Insert(ctx, record(node, contractID, "mocksign", "ev1"))
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	if !created {
		t.Fatalf("expected first insert to win")
	}

	// Same (provider, event id) pair, fresh row id. A replayed delivery
	// always carries a new internal id.
	created, err = repo.Insert(ctx, record(node, contractID, "mocksign", "ev1"))
	if err != nil {
		t.Fatalf("replay insert: %v", err)
	}
	if created {
		t.Fatalf("expected replay to lose")
	}

	// Same event id under another provider is a distinct event.
	created, err = repo.Insert(ctx, record(node, contractID, "docuseal", "ev1"))
	if err != nil {
		t.Fatalf("other provider insert: %v", err)
	}
	if !created {
		t.Fatalf("expected other provider's ev1 to be distinct")
	}

	events, err := repo.ListByContract(ctx, contractID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("expected two ledger rows, got %d", len(events))
	}
}

func TestFind(t *testing.T) {
	db := setupTestDB(t)
	node, err := snowflake.NewNode(25)
	if err != nil {
		t.Fatalf("new node: %v", err)
	}
	repo := repository.Provide(db)
	ctx := context.Background()
	contractID := node.Generate()

	if _, err := repo.Insert(ctx, record(node, contractID, "mocksign", "ev1")); err != nil {
		t.Fatalf("insert: %v", err)
	}

	found, err := repo.Find(ctx, "mocksign", "ev1")
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if found == nil || found.ContractID != contractID {
		t.Fatalf("expected stored record, got %+v", found)
	}

	missing, err := repo.Find(ctx, "mocksign", "ev2")
	if err != nil {
		t.Fatalf("find missing: %v", err)
	}
	if missing != nil {
		t.Fatalf("expected nil for unknown event, got %+v", missing)
	}
}
