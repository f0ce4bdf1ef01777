package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
)

type Repository interface {
	Create(ctx context.Context, contract *Contract) error
	FindByID(ctx context.Context, id snowflake.ID) (*Contract, error)

	// UpdateStatus performs the conditional write backing the state
	// machine: the row is updated only when its status still equals
	// from. Returns false when another writer won the race.
	UpdateStatus(ctx context.Context, id snowflake.ID, from, to ContractStatus, now time.Time) (bool, error)

	SetTerminationReason(ctx context.Context, id snowflake.ID, reason string) error
	SetActivatedAt(ctx context.Context, id snowflake.ID, at time.Time) error

	UpdateSignatureSession(ctx context.Context, id snowflake.ID, provider, envelopeID, status string, now time.Time) error
	UpdateSignatureStatus(ctx context.Context, id snowflake.ID, status string, now time.Time) error
	SaveSignedDocument(ctx context.Context, id snowflake.ID, document []byte, sha256Hex string, now time.Time) error

	// MarkDepositPaid flips the paid flag once; returns false when the
	// deposit was already paid.
	MarkDepositPaid(ctx context.Context, id snowflake.ID, destination string, now time.Time) (bool, error)

	ListForActivation(ctx context.Context, now time.Time, limit int) ([]Contract, error)
	ListActive(ctx context.Context, limit int) ([]Contract, error)
	ListExpired(ctx context.Context, now time.Time, limit int) ([]Contract, error)
}
