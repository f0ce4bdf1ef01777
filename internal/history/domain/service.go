package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
)

type Service interface {
	// Append records one audit entry. Actor is optional; pass nil for
	// machine-initiated actions.
	Append(ctx context.Context, contractID snowflake.ID, action string, actorID *string, payload map[string]any) error
	List(ctx context.Context, contractID snowflake.ID) ([]HistoryEntry, error)
}

type Repository interface {
	Insert(ctx context.Context, entry *HistoryEntry) error
	ListByContract(ctx context.Context, contractID snowflake.ID) ([]HistoryEntry, error)
}
