/*
Package scoring maps waste pickups to green-point values.

PURPOSE:
  Pure functions only - no I/O, no clock, no randomness. The one
  non-deterministic input (the verification confidence) arrives as an
  argument; see oracle.go for where it comes from.

POINT MODEL:
  Initial award  = round(base points for category x verification confidence)
  Weight bonus   = round(actual weight in kg x 2), paid at completion
  Badge bonus    = flat 50 per newly unlocked badge

  The initial award deliberately ignores the estimated weight: it is
  user-reported and untrusted until a collector weighs the pickup. Weight
  only pays out via the completion bonus.

SEE ALSO:
  - engine/: calls these from the lifecycle handlers
  - achievements/: pays BadgeBonus on each unlock
*/
package scoring

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/wastechain/green-ledger/waste"
)

// =============================================================================
// BASE POINT TABLE
// =============================================================================

// basePoints is the fixed per-category award before confidence scaling.
var basePoints = map[waste.Category]int64{
	waste.CategoryOrganic:    10,
	waste.CategoryPlastic:    15,
	waste.CategoryPaper:      12,
	waste.CategoryElectronic: 25,
	waste.CategoryHazardous:  30,
	waste.CategoryMetal:      20,
	waste.CategoryGlass:      15,
	waste.CategoryTextile:    18,
}

// badgeBonusPoints is the flat award for each newly unlocked badge.
const badgeBonusPoints = 50

// weightBonusPerKg scales the completion bonus.
const weightBonusPerKg = 2

// BasePoints returns the fixed award for a category before confidence scaling.
func BasePoints(category waste.Category) (int, error) {
	base, ok := basePoints[category]
	if !ok {
		return 0, fmt.Errorf("unknown waste category %q", category)
	}
	return int(base), nil
}

// =============================================================================
// SCORING FUNCTIONS
// =============================================================================

// InitialPoints computes the creation-time award:
// round(base x confidence), clamped to [0, base].
func InitialPoints(category waste.Category, confidence float64) (int, error) {
	base, ok := basePoints[category]
	if !ok {
		return 0, fmt.Errorf("unknown waste category %q", category)
	}

	points := decimal.NewFromInt(base).
		Mul(decimal.NewFromFloat(confidence)).
		Round(0).
		IntPart()

	if points < 0 {
		return 0, nil
	}
	if points > base {
		return int(base), nil
	}
	return int(points), nil
}

// WeightBonus computes the completion-time award: round(kg x 2).
// A zero or negative weight earns nothing.
func WeightBonus(actualKg decimal.Decimal) int {
	if !actualKg.IsPositive() {
		return 0
	}
	return int(actualKg.Mul(decimal.NewFromInt(weightBonusPerKg)).Round(0).IntPart())
}

// BadgeBonus returns the flat per-badge award.
func BadgeBonus() int { return badgeBonusPoints }
