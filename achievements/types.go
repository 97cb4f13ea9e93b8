/*
Package achievements unlocks badges from cumulative pickup history.

PURPOSE:
  After each pickup completion the evaluator inspects the user's cumulative
  state (completed pickup count, weekly streak, per-category totals) against
  a declarative rule table and awards any badge whose condition newly became
  true. Each unlock writes a badge_earned bonus entry through the ledger
  engine.

AT-MOST-ONCE:
  A badge is awarded once per user, ever. The store enforces a unique
  (user, badge) constraint; evaluating twice with no state change awards
  nothing the second time.

SEE ALSO:
  - rules.go: the rule table
  - evaluator.go: evaluation and award flow
*/
package achievements

import "time"

// =============================================================================
// BADGE CATALOG
// =============================================================================

// Badge is one named achievement definition from the static catalog.
type Badge struct {
	ID          string
	Name        string
	Description string
	Category    string // "milestone", "streak", "category", "starter"
	CreatedAt   time.Time
}

// UserBadge marks one badge earned by one user. At most one per (user, badge).
type UserBadge struct {
	ID       string
	UserID   string
	BadgeID  string
	EarnedAt time.Time
}

// Badge names. The catalog is seeded from these at startup.
const (
	BadgeFirstPickup     = "First Pickup"
	BadgeEcoWarrior      = "Eco Warrior"
	BadgeGreenChampion   = "Green Champion"
	BadgeRecyclingMaster = "Recycling Master"
	BadgeWeeklyStreak    = "Weekly Streak"
	BadgePlasticFighter  = "Plastic Fighter"
	BadgePaperSaver      = "Paper Saver"
	BadgeEWasteExpert    = "E-Waste Expert"
)

// Catalog returns the static badge definitions, without IDs - the store
// assigns those when seeding.
func Catalog() []Badge {
	return []Badge{
		{Name: BadgeFirstPickup, Description: "Created your first waste pickup", Category: "starter"},
		{Name: BadgeEcoWarrior, Description: "Completed 10 pickups", Category: "milestone"},
		{Name: BadgeGreenChampion, Description: "Completed 50 pickups", Category: "milestone"},
		{Name: BadgeRecyclingMaster, Description: "Completed 100 pickups", Category: "milestone"},
		{Name: BadgeWeeklyStreak, Description: "7 day pickup streak", Category: "streak"},
		{Name: BadgePlasticFighter, Description: "Recycled 50 kg of plastic", Category: "category"},
		{Name: BadgePaperSaver, Description: "Recycled 100 kg of paper", Category: "category"},
		{Name: BadgeEWasteExpert, Description: "Completed 20 electronic pickups", Category: "category"},
	}
}
