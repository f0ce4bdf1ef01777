package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

type CreateContractRequest struct {
	LandlordID    snowflake.ID   `json:"landlord_id"`
	TenantID      snowflake.ID   `json:"tenant_id"`
	PropertyID    snowflake.ID   `json:"property_id"`
	RentAmount    int64          `json:"rent_amount"`
	DepositAmount int64          `json:"deposit_amount"`
	Currency      string         `json:"currency"`
	StartDate     time.Time      `json:"start_date"`
	EndDate       time.Time      `json:"end_date"`
	Region        string         `json:"region"`
	Clauses       datatypes.JSON `json:"clauses"`
}

type Service interface {
	Create(ctx context.Context, req CreateContractRequest) (*Contract, error)
	Get(ctx context.Context, id snowflake.ID) (*Contract, error)

	// Transition moves the contract to target per the transition table.
	// Concurrent calls for the same contract are safe: the conditional
	// update lets exactly one writer win, the loser gets
	// ErrInvalidTransition.
	Transition(ctx context.Context, id snowflake.ID, target ContractStatus, actorID *string) (*Contract, error)

	// Activate applies the activation preconditions (signed, deposit
	// paid, start date reached) before transitioning to active.
	// byJob marks the history entry as machine-initiated.
	Activate(ctx context.Context, id snowflake.ID, actorID *string, byJob bool) (*Contract, error)

	Terminate(ctx context.Context, id snowflake.ID, reason string, actorID *string) (*Contract, error)
}

// CheckActivatable validates the activation preconditions against now.
// Used by both the manual endpoint and the activation sweep.
func CheckActivatable(contract *Contract, now time.Time) error {
	if contract == nil {
		return ErrContractNotFound
	}
	if contract.Status != StatusSigned {
		return ErrMustBeSigned
	}
	if !contract.Deposit.Paid {
		return ErrDepositUnpaid
	}
	if contract.StartDate.After(now) {
		return ErrStartDateNotReached
	}
	return nil
}
