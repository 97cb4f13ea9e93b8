/*
Package ledger is the green-points ledger engine.

PURPOSE:
  Maintains an append-only log of every balance-affecting event and keeps
  the denormalized profile balance consistent with it. Everything else in
  the system (lifecycle handlers, achievement evaluator, admin operations)
  funnels balance changes through Engine.AppendEntry.

CRITICAL INVARIANTS:
  1. APPEND-ONLY: entries are never updated or deleted after creation.
  2. SOURCE OF TRUTH: profile.GreenPoints is a cache; the ledger is
     authoritative. At all times the profile balance must equal the sum
     of the user's entry deltas.
  3. CHAIN: entries ordered by creation reconstruct the balance exactly:
     BalanceAfter[i] == BalanceAfter[i-1] + Delta[i].

CONCURRENCY:
  Two concurrent appends for the same user must not both read the same
  stale balance. The store applies the entry insert and the profile update
  as one atomic conditional write (update only if the balance still equals
  the value the engine read); a lost race surfaces as ErrConcurrencyConflict
  and the caller retries the whole event.

CORRECTIONS:
  Mistakes are corrected by appending compensating entries (penalty,
  bonus_points), never by editing history.

SEE ALSO:
  - store.go: persistence contract
  - engine.go: the append primitive
*/
package ledger

import "time"

// =============================================================================
// ENTRY TYPES
// =============================================================================

type EntryType string

const (
	TypePickupCreated   EntryType = "pickup_created"
	TypePickupCompleted EntryType = "pickup_completed"
	TypeBadgeEarned     EntryType = "badge_earned"
	TypeBonusPoints     EntryType = "bonus_points"
	TypePenalty         EntryType = "penalty"
	TypeRedemption      EntryType = "redemption"
)

var knownTypes = map[EntryType]bool{
	TypePickupCreated:   true,
	TypePickupCompleted: true,
	TypeBadgeEarned:     true,
	TypeBonusPoints:     true,
	TypePenalty:         true,
	TypeRedemption:      true,
}

// Valid reports whether t is a known entry type.
func (t EntryType) Valid() bool { return knownTypes[t] }

// DisallowsNegativeBalance reports whether an entry of this type may drive
// the balance below zero. Earn-side entries structurally cannot; penalties
// and redemptions legitimately can.
func (t EntryType) DisallowsNegativeBalance() bool {
	switch t {
	case TypePickupCreated, TypePickupCompleted, TypeBadgeEarned:
		return true
	default:
		return false
	}
}

// =============================================================================
// LEDGER ENTRY - Immutable record of one balance change
// =============================================================================

type Entry struct {
	ID       string
	Seq      int64 // store-assigned, strictly increasing per user
	UserID   string
	PickupID string // optional: the pickup that triggered this entry
	BadgeID  string // optional: the badge that triggered this entry

	Type         EntryType
	Delta        int // signed points change
	BalanceAfter int // balance snapshot after applying Delta

	// IdempotencyKey guards against redelivered events writing the same
	// entry twice. Empty means no guard (admin adjustments, redemptions).
	IdempotencyKey string

	// Free-form context: category, weights, confidence, badge name, actor.
	Metadata map[string]any

	CreatedAt time.Time
}

// =============================================================================
// USER PROFILE - Identity + gamification state
// =============================================================================

type Role string

const (
	RoleHousehold Role = "household"
	RoleCollector Role = "collector"
	RoleCompany   Role = "company"
	RoleAdmin     Role = "admin"
)

func (r Role) Valid() bool {
	switch r {
	case RoleHousehold, RoleCollector, RoleCompany, RoleAdmin:
		return true
	}
	return false
}

// Profile holds one account's identity and gamification state.
// GreenPoints, WeeklyStreak, TotalPickups and LastPickupDate are mutated
// exclusively by the ledger engine and the lifecycle handlers.
type Profile struct {
	ID       string
	Email    string
	FullName string
	Role     Role

	GreenPoints    int // cache of the ledger sum
	WeeklyStreak   int
	TotalPickups   int // completed pickups only
	LastPickupDate *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}
