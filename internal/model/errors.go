package model

import (
	"errors"
	"fmt"
)

// Error kinds. Every error returned by the services wraps exactly one of them,
// so callers can branch with errors.Is on the kind or on the specific error.
var (
	ErrValidation        = errors.New("validation error")
	ErrStateConflict     = errors.New("state conflict")
	ErrNotFound          = errors.New("not found")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrPersistence       = errors.New("persistence error")
)

var (
	ErrInvalidNumber = fmt.Errorf("%w: number must be between %d and %d", ErrValidation, MinNumber, MaxNumber)
	ErrInvalidStake  = fmt.Errorf("%w: stake must be positive with at most %d decimal places", ErrValidation, MoneyScale)
	ErrInvalidName   = fmt.Errorf("%w: customer name is required", ErrValidation)

	ErrAlreadySettled    = fmt.Errorf("%w: round already settled", ErrStateConflict)
	ErrDuplicateSchedule = fmt.Errorf("%w: a pending round is already scheduled for this instant", ErrStateConflict)
	ErrPastSchedule      = fmt.Errorf("%w: round must be scheduled in the future", ErrStateConflict)
	ErrRoundClosed       = fmt.Errorf("%w: round is no longer accepting changes", ErrStateConflict)

	ErrRoundNotFound = fmt.Errorf("%w: round", ErrNotFound)
	ErrUserNotFound  = fmt.Errorf("%w: user", ErrNotFound)
	ErrBetNotFound   = fmt.Errorf("%w: bet", ErrNotFound)
)

// Persistence wraps an infrastructure failure so it is reported as ErrPersistence
// while keeping the driver error in the chain.
func Persistence(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrPersistence) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrPersistence, err)
}
