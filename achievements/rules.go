/*
rules.go - Declarative badge rule table

PURPOSE:
  Every unlock condition is one Rule value; the evaluator walks the table
  and applies each rule uniformly. Adding a badge means adding a row here
  (or loading one from JSON, see factory.go) - no new control flow.

RULE KINDS:
  Milestone       total completed pickups >= Threshold
  Streak          current weekly streak >= Threshold
  CategoryWeight  cumulative completed weight in Category >= Threshold kg
  CategoryCount   completed pickups in Category >= Threshold

All conditions count completed pickups only.
*/
package achievements

import (
	"github.com/shopspring/decimal"
	"github.com/wastechain/green-ledger/waste"
)

// =============================================================================
// RULES
// =============================================================================

type RuleKind string

const (
	KindMilestone      RuleKind = "milestone"
	KindStreak         RuleKind = "streak"
	KindCategoryWeight RuleKind = "category_weight"
	KindCategoryCount  RuleKind = "category_count"
)

// Rule is one unlock condition bound to a badge name.
type Rule struct {
	Kind      RuleKind
	Badge     string
	Threshold decimal.Decimal
	// Category applies to CategoryWeight and CategoryCount kinds only.
	Category waste.Category
}

// Stats is the cumulative state a rule is evaluated against.
type Stats struct {
	TotalCompleted int
	WeeklyStreak   int
	// Completed pickups only, keyed by category.
	CategoryWeightKg map[waste.Category]decimal.Decimal
	CategoryCount    map[waste.Category]int
}

// Satisfied reports whether the rule's condition holds for the given stats.
func (r Rule) Satisfied(stats Stats) bool {
	switch r.Kind {
	case KindMilestone:
		return decimal.NewFromInt(int64(stats.TotalCompleted)).GreaterThanOrEqual(r.Threshold)
	case KindStreak:
		return decimal.NewFromInt(int64(stats.WeeklyStreak)).GreaterThanOrEqual(r.Threshold)
	case KindCategoryWeight:
		return stats.CategoryWeightKg[r.Category].GreaterThanOrEqual(r.Threshold)
	case KindCategoryCount:
		return decimal.NewFromInt(int64(stats.CategoryCount[r.Category])).GreaterThanOrEqual(r.Threshold)
	default:
		return false
	}
}

// DefaultRules is the production rule table.
//
// First Pickup is normally granted by the creation handler; the threshold-1
// milestone is the backstop for the race where two simultaneous first
// creations each see the other and neither grants it.
func DefaultRules() []Rule {
	return []Rule{
		{Kind: KindMilestone, Badge: BadgeFirstPickup, Threshold: decimal.NewFromInt(1)},
		{Kind: KindMilestone, Badge: BadgeEcoWarrior, Threshold: decimal.NewFromInt(10)},
		{Kind: KindMilestone, Badge: BadgeGreenChampion, Threshold: decimal.NewFromInt(50)},
		{Kind: KindMilestone, Badge: BadgeRecyclingMaster, Threshold: decimal.NewFromInt(100)},
		{Kind: KindStreak, Badge: BadgeWeeklyStreak, Threshold: decimal.NewFromInt(7)},
		{Kind: KindCategoryWeight, Badge: BadgePlasticFighter, Threshold: decimal.NewFromInt(50), Category: waste.CategoryPlastic},
		{Kind: KindCategoryWeight, Badge: BadgePaperSaver, Threshold: decimal.NewFromInt(100), Category: waste.CategoryPaper},
		{Kind: KindCategoryCount, Badge: BadgeEWasteExpert, Threshold: decimal.NewFromInt(20), Category: waste.CategoryElectronic},
	}
}
