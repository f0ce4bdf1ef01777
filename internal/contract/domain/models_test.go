package domain

import (
	"errors"
	"testing"
	"time"
)

func TestTransitionTable(t *testing.T) {
	allowed := []struct {
		from ContractStatus
		to   ContractStatus
	}{
		{StatusDraft, StatusPendingSignature},
		{StatusDraft, StatusTerminated},
		{StatusDraft, StatusCancelled},
		{StatusPendingSignature, StatusSigned},
		{StatusPendingSignature, StatusTerminated},
		{StatusSigned, StatusActive},
		{StatusSigned, StatusTerminated},
		{StatusActive, StatusTerminated},
		{StatusActive, StatusCompleted},
	}
	for _, tc := range allowed {
		if !CanTransition(tc.from, tc.to) {
			t.Errorf("expected %s -> %s to be allowed", tc.from, tc.to)
		}
	}

	forbidden := []struct {
		from ContractStatus
		to   ContractStatus
	}{
		{StatusDraft, StatusSigned},
		{StatusDraft, StatusActive},
		{StatusPendingSignature, StatusActive},
		{StatusPendingSignature, StatusDraft},
		{StatusSigned, StatusSigned},
		{StatusSigned, StatusPendingSignature},
		{StatusActive, StatusSigned},
		{StatusTerminated, StatusActive},
		{StatusCompleted, StatusActive},
		{StatusCancelled, StatusDraft},
	}
	for _, tc := range forbidden {
		if CanTransition(tc.from, tc.to) {
			t.Errorf("expected %s -> %s to be forbidden", tc.from, tc.to)
		}
	}
}

func TestTerminalStatuses(t *testing.T) {
	for _, status := range []ContractStatus{StatusTerminated, StatusCompleted, StatusCancelled} {
		if !IsTerminal(status) {
			t.Errorf("expected %s to be terminal", status)
		}
	}
	for _, status := range []ContractStatus{StatusDraft, StatusPendingSignature, StatusSigned, StatusActive} {
		if IsTerminal(status) {
			t.Errorf("expected %s to be non-terminal", status)
		}
	}
}

func TestCheckActivatable(t *testing.T) {
	now := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)

	base := func() *Contract {
		return &Contract{
			Status:    StatusSigned,
			StartDate: now.AddDate(0, 0, -1),
			Deposit:   DepositRecord{Paid: true},
		}
	}

	if err := CheckActivatable(base(), now); err != nil {
		t.Fatalf("expected activatable, got %v", err)
	}

	unsigned := base()
	unsigned.Status = StatusPendingSignature
	if err := CheckActivatable(unsigned, now); !errors.Is(err, ErrMustBeSigned) {
		t.Errorf("expected ErrMustBeSigned, got %v", err)
	}

	unpaid := base()
	unpaid.Deposit.Paid = false
	if err := CheckActivatable(unpaid, now); !errors.Is(err, ErrDepositUnpaid) {
		t.Errorf("expected ErrDepositUnpaid, got %v", err)
	}

	early := base()
	early.StartDate = now.AddDate(0, 0, 1)
	if err := CheckActivatable(early, now); !errors.Is(err, ErrStartDateNotReached) {
		t.Errorf("expected ErrStartDateNotReached, got %v", err)
	}

	if err := CheckActivatable(nil, now); !errors.Is(err, ErrContractNotFound) {
		t.Errorf("expected ErrContractNotFound, got %v", err)
	}

	// Start date exactly at now is reached.
	exact := base()
	exact.StartDate = now
	if err := CheckActivatable(exact, now); err != nil {
		t.Errorf("expected activatable at start date, got %v", err)
	}
}

func TestInvalidTransitionError(t *testing.T) {
	err := NewInvalidTransition(StatusActive, StatusSigned)
	if !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected errors.Is match on ErrInvalidTransition")
	}
	var transitionErr *InvalidTransitionError
	if !errors.As(err, &transitionErr) {
		t.Fatalf("expected InvalidTransitionError")
	}
	if transitionErr.From != StatusActive || transitionErr.To != StatusSigned {
		t.Fatalf("unexpected from/to: %s -> %s", transitionErr.From, transitionErr.To)
	}
}
