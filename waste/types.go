/*
Package waste defines the pickup domain model: waste categories, the pickup
lifecycle state machine, and the Pickup record itself.

PURPOSE:
  Everything downstream (scoring, ledger, achievements) keys off two facts
  about a pickup: what category of waste it is, and where it sits in its
  lifecycle. This package owns both.

LIFECYCLE:
  pending -> assigned -> in_progress -> collected -> processed -> completed

  cancelled is reachable from any non-terminal state.
  completed and cancelled are terminal.

INVARIANTS:
  1. PointsAwarded is monotonically non-decreasing over a pickup's lifetime.
  2. ActualWeight stays nil until the pickup reaches collected or later.
  3. Pickups are never deleted - only created and updated.

SEE ALSO:
  - scoring/: maps category + confidence to point values
  - engine/: lifecycle transition handlers
*/
package waste

import (
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// WASTE CATEGORY
// =============================================================================

type Category string

const (
	CategoryOrganic    Category = "organic"
	CategoryPlastic    Category = "plastic"
	CategoryPaper      Category = "paper"
	CategoryElectronic Category = "electronic"
	CategoryHazardous  Category = "hazardous"
	CategoryMetal      Category = "metal"
	CategoryGlass      Category = "glass"
	CategoryTextile    Category = "textile"
)

// Categories lists every known category in a stable order.
var Categories = []Category{
	CategoryOrganic,
	CategoryPlastic,
	CategoryPaper,
	CategoryElectronic,
	CategoryHazardous,
	CategoryMetal,
	CategoryGlass,
	CategoryTextile,
}

// Valid reports whether c is a known waste category.
func (c Category) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

func (c Category) String() string { return string(c) }

// =============================================================================
// PICKUP STATUS - Lifecycle state machine
// =============================================================================

type Status string

const (
	StatusPending    Status = "pending"
	StatusAssigned   Status = "assigned"
	StatusInProgress Status = "in_progress"
	StatusCollected  Status = "collected"
	StatusProcessed  Status = "processed"
	StatusCompleted  Status = "completed"
	StatusCancelled  Status = "cancelled"
)

// statusOrder gives each forward state its position in the happy path.
// cancelled is not part of the forward chain.
var statusOrder = map[Status]int{
	StatusPending:    0,
	StatusAssigned:   1,
	StatusInProgress: 2,
	StatusCollected:  3,
	StatusProcessed:  4,
	StatusCompleted:  5,
}

// Valid reports whether s is a known lifecycle status.
func (s Status) Valid() bool {
	if s == StatusCancelled {
		return true
	}
	_, ok := statusOrder[s]
	return ok
}

// Terminal reports whether s accepts no further transitions.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// CanTransition reports whether a pickup may move from -> to.
// Forward moves advance exactly one step along the happy path.
// cancelled is reachable from any non-terminal state.
func CanTransition(from, to Status) bool {
	if !from.Valid() || !to.Valid() || from.Terminal() {
		return false
	}
	if to == StatusCancelled {
		return true
	}
	return statusOrder[to] == statusOrder[from]+1
}

// WeighedAt reports whether a pickup in status s has been physically weighed,
// i.e. has reached collected or later on the forward chain.
func (s Status) WeighedAt() bool {
	order, ok := statusOrder[s]
	return ok && order >= statusOrder[StatusCollected]
}

// =============================================================================
// PICKUP RECORD
// =============================================================================

// Pickup is one waste-collection request. Created by a household user,
// advanced by collector actions, scored by the engine.
type Pickup struct {
	ID          string
	UserID      string
	CollectorID string // empty until assigned

	Category        Category
	EstimatedWeight decimal.Decimal  // user-reported, untrusted
	ActualWeight    *decimal.Decimal // collector-weighed; nil until collected

	Status Status

	// Set once by the creation handler.
	VerificationScore float64
	// Initial award at creation, incremented by the weight bonus at completion.
	// Never decreases.
	PointsAwarded int

	ScheduledDate *time.Time
	CollectedAt   *time.Time
	ProcessedAt   *time.Time
	CompletedAt   *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// ActualWeightOrZero returns the collector-weighed mass, or zero when the
// pickup has not been weighed.
func (p *Pickup) ActualWeightOrZero() decimal.Decimal {
	if p.ActualWeight == nil {
		return decimal.Zero
	}
	return *p.ActualWeight
}
