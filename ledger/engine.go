/*
engine.go - The ledger append primitive

PURPOSE:
  Engine.AppendEntry is the single mechanical operation every other
  component uses to change a balance: read the current balance, compute
  the snapshot, write entry + balance as one atomic unit.

  The engine validates structure (user exists, earn entries cannot drive
  the balance negative) but no business thresholds - those belong to the
  lifecycle handlers and the achievement evaluator.

SEE ALSO:
  - store.go: atomicity and conflict semantics
  - engine/: lifecycle handlers built on this primitive
*/
package ledger

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// ENGINE
// =============================================================================

type Engine struct {
	store Store
	now   func() time.Time
}

func NewEngine(store Store) *Engine {
	return &Engine{store: store, now: time.Now}
}

// NewEngineWithClock injects a clock, for deterministic tests.
func NewEngineWithClock(store Store, now func() time.Time) *Engine {
	return &Engine{store: store, now: now}
}

// Store exposes the underlying store to collaborating components.
func (e *Engine) Store() Store { return e.store }

// =============================================================================
// APPEND
// =============================================================================

// AppendRequest describes one balance-affecting event.
type AppendRequest struct {
	UserID   string
	PickupID string // optional
	BadgeID  string // optional
	Type     EntryType
	Delta    int
	Metadata map[string]any

	// IdempotencyKey, when set, makes this append safe against redelivery.
	IdempotencyKey string
}

// AppendEntry appends one immutable entry and updates the profile balance.
//
// Fails with:
//   - NotFoundError if the user does not exist (no writes performed)
//   - NegativeBalanceError if an earn-type delta would drive the balance
//     below zero (no writes performed)
//   - ErrConcurrencyConflict if a concurrent append won the race; the
//     caller retries the whole event
func (e *Engine) AppendEntry(ctx context.Context, req AppendRequest) (*Entry, error) {
	if !req.Type.Valid() {
		return nil, &ValidationError{Field: "transaction_type", Message: "unknown type " + string(req.Type)}
	}

	profile, err := e.store.GetProfile(ctx, req.UserID)
	if err != nil {
		return nil, err
	}

	balanceAfter := profile.GreenPoints + req.Delta
	if balanceAfter < 0 && req.Type.DisallowsNegativeBalance() {
		return nil, &NegativeBalanceError{
			UserID:  req.UserID,
			Type:    req.Type,
			Balance: profile.GreenPoints,
			Delta:   req.Delta,
		}
	}

	entry := &Entry{
		ID:             uuid.NewString(),
		UserID:         req.UserID,
		PickupID:       req.PickupID,
		BadgeID:        req.BadgeID,
		Type:           req.Type,
		Delta:          req.Delta,
		BalanceAfter:   balanceAfter,
		IdempotencyKey: req.IdempotencyKey,
		Metadata:       req.Metadata,
		CreatedAt:      e.now().UTC(),
	}

	if err := e.store.AppendEntry(ctx, entry, profile.GreenPoints); err != nil {
		return nil, err
	}
	return entry, nil
}

// Entries returns the user's full history in creation order.
func (e *Engine) Entries(ctx context.Context, userID string) ([]Entry, error) {
	return e.store.Entries(ctx, userID)
}

// =============================================================================
// VERIFICATION - The ledger is the source of truth
// =============================================================================

// ReplayBalance reconstructs a balance by running-summing entry deltas.
func ReplayBalance(entries []Entry) int {
	balance := 0
	for _, entry := range entries {
		balance += entry.Delta
	}
	return balance
}

// VerifyReport compares the cached profile balance against the ledger.
type VerifyReport struct {
	UserID         string
	ProfileBalance int
	LedgerSum      int
	// ChainIntact is true when every BalanceAfter equals the previous
	// BalanceAfter plus the entry's Delta.
	ChainIntact bool
}

// Consistent reports whether the cache matches the ledger and the snapshot
// chain has no gaps.
func (r VerifyReport) Consistent() bool {
	return r.ProfileBalance == r.LedgerSum && r.ChainIntact
}

// VerifyBalance audits one user's profile cache against their ledger.
func (e *Engine) VerifyBalance(ctx context.Context, userID string) (*VerifyReport, error) {
	profile, err := e.store.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}
	entries, err := e.store.Entries(ctx, userID)
	if err != nil {
		return nil, err
	}

	chainIntact := true
	running := 0
	for _, entry := range entries {
		running += entry.Delta
		if entry.BalanceAfter != running {
			chainIntact = false
			break
		}
	}

	return &VerifyReport{
		UserID:         userID,
		ProfileBalance: profile.GreenPoints,
		LedgerSum:      ReplayBalance(entries),
		ChainIntact:    chainIntact,
	}, nil
}
