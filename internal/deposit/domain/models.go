// Package domain contains the deposit settlement flow. The deposit is a
// precondition for contract activation and is payable exactly once.
package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
)

// PayDepositRequest selects where the security deposit goes. Redirect URLs
// apply to the escrow destination only.
type PayDepositRequest struct {
	Destination string `json:"destination" binding:"required"`
	SuccessURL  string `json:"success_url,omitempty"`
	CancelURL   string `json:"cancel_url,omitempty"`
}

// PayDepositResponse reports the outcome. An authority transfer settles in
// the same call; an escrow payment returns a hosted-checkout redirect and
// settles later through the gateway confirmation flow.
type PayDepositResponse struct {
	Paid        bool       `json:"paid"`
	PaidAt      *time.Time `json:"paid_at,omitempty"`
	Destination string     `json:"destination"`
	SessionID   string     `json:"session_id,omitempty"`
	RedirectURL string     `json:"redirect_url,omitempty"`
}

// CheckoutSession is a gateway-side hosted payment session.
type CheckoutSession struct {
	ID     string
	URL    string
	Status string
}

// CheckoutRequest carries what the gateway needs to open a session.
type CheckoutRequest struct {
	ContractID snowflake.ID
	Amount     int64
	Currency   string
	SuccessURL string
	CancelURL  string
}

// Gateway is the hosted-checkout client for escrow deposits.
type Gateway interface {
	CreateCheckoutSession(ctx context.Context, req CheckoutRequest) (*CheckoutSession, error)
}

type Service interface {
	// PayDeposit is tenant-only and single-shot per contract.
	PayDeposit(ctx context.Context, contractID snowflake.ID, actorID snowflake.ID, req PayDepositRequest) (*PayDepositResponse, error)
}

var (
	ErrAlreadyPaid        = errors.New("deposit_already_paid")
	ErrNotTenant          = errors.New("deposit_payer_not_tenant")
	ErrUnknownDestination = errors.New("unknown_deposit_destination")
	ErrGatewayUnavailable = errors.New("payment_gateway_unavailable")
)
