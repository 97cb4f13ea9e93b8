/*
errors.go - Centralized error taxonomy for the points engine

PURPOSE:
  One place for every error the engine surfaces. Callers classify with
  errors.Is / errors.As; the HTTP layer maps each class to a status code.

CATEGORIES:
  NotFound            referenced user/pickup/badge missing - terminal, do not retry
  InvalidState        negative balance on an earn entry, bad lifecycle transition
  ConcurrencyConflict optimistic update lost the race - retry the whole event
  Validation          malformed category/weight/role input - terminal

USAGE:
  if ledger.IsRetryable(err) {
      // redeliver the event
  }
*/
package ledger

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrNotFound is returned when a referenced user, pickup or badge
	// does not exist. Terminal for the event.
	ErrNotFound = errors.New("not found")

	// ErrInvalidState is returned when an operation would violate a
	// structural invariant (negative balance on an earn entry, disallowed
	// lifecycle transition).
	ErrInvalidState = errors.New("invalid state")

	// ErrConcurrencyConflict is returned when the conditional balance
	// update lost a race with a concurrent append for the same user.
	// The whole event is safe to retry.
	ErrConcurrencyConflict = errors.New("concurrent modification detected")

	// ErrValidation is returned for malformed input.
	ErrValidation = errors.New("validation failed")

	// ErrDuplicateEntry is returned when an entry with the same idempotency
	// key already exists. Expected on redelivered completion events.
	ErrDuplicateEntry = errors.New("duplicate idempotency key")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// NotFoundError identifies which record was missing.
type NotFoundError struct {
	Kind string // "user", "pickup", "badge"
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Kind, e.ID)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// NegativeBalanceError reports an earn-side entry that would drive the
// balance below zero.
type NegativeBalanceError struct {
	UserID  string
	Type    EntryType
	Balance int
	Delta   int
}

func (e *NegativeBalanceError) Error() string {
	return fmt.Sprintf("entry type %s may not drive balance negative: balance %d, delta %d",
		e.Type, e.Balance, e.Delta)
}

func (e *NegativeBalanceError) Unwrap() error { return ErrInvalidState }

// TransitionError reports a disallowed lifecycle move.
type TransitionError struct {
	PickupID string
	From, To string
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("pickup %s: transition %s -> %s not allowed", e.PickupID, e.From, e.To)
}

func (e *TransitionError) Unwrap() error { return ErrInvalidState }

// ValidationError reports a malformed field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsRetryable returns true if redelivering the same event might succeed.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrConcurrencyConflict)
}

// IsClientError returns true if the error is due to invalid input or state
// the caller controls.
func IsClientError(err error) bool {
	return errors.Is(err, ErrValidation) || errors.Is(err, ErrInvalidState)
}

// IsNotFound returns true if the error indicates a missing record.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
