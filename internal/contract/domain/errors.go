package domain

import (
	"errors"
	"fmt"
)

var (
	ErrContractNotFound    = errors.New("contract_not_found")
	ErrInvalidTransition   = errors.New("invalid_transition")
	ErrMustBeSigned        = errors.New("contract_must_be_signed")
	ErrStartDateNotReached = errors.New("start_date_not_reached")
	ErrDepositUnpaid       = errors.New("deposit_unpaid")
	ErrInvalidRequest      = errors.New("invalid_contract_request")
)

// InvalidTransitionError carries the attempted move for client diagnostics.
// It matches ErrInvalidTransition under errors.Is.
type InvalidTransitionError struct {
	From ContractStatus
	To   ContractStatus
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid_transition: %s -> %s", e.From, e.To)
}

func (e *InvalidTransitionError) Is(target error) bool {
	return target == ErrInvalidTransition
}

func NewInvalidTransition(from, to ContractStatus) error {
	return &InvalidTransitionError{From: from, To: to}
}
