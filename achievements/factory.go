/*
factory.go - JSON to rule-table conversion

PURPOSE:
  Converts JSON rule definitions into Rule values so operators can extend
  the badge program without code changes. The rule table stays declarative:
  a new badge is a new JSON row plus a catalog entry, never new control flow.

JSON SCHEMA:
  [
    {"kind": "milestone", "badge": "Eco Warrior", "threshold": 10},
    {"kind": "streak", "badge": "Weekly Streak", "threshold": 7},
    {"kind": "category_weight", "badge": "Plastic Fighter",
     "threshold": 50, "category": "plastic"}
  ]

USAGE:
  rules, err := achievements.ParseRules(jsonBytes)
  evaluator := achievements.NewEvaluator(engine, store, rules)
*/
package achievements

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/wastechain/green-ledger/waste"
)

// =============================================================================
// JSON SCHEMA TYPES
// =============================================================================

// RuleJSON is the JSON representation of one badge rule.
type RuleJSON struct {
	Kind      string      `json:"kind"`
	Badge     string      `json:"badge"`
	Threshold json.Number `json:"threshold"`
	Category  string      `json:"category,omitempty"`
}

// =============================================================================
// PARSING
// =============================================================================

// ParseRules converts a JSON rule array into a rule table.
func ParseRules(data []byte) ([]Rule, error) {
	var raw []RuleJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse rules: %w", err)
	}

	rules := make([]Rule, 0, len(raw))
	for i, rj := range raw {
		rule, err := rj.toRule()
		if err != nil {
			return nil, fmt.Errorf("rule %d: %w", i, err)
		}
		rules = append(rules, rule)
	}
	return rules, nil
}

func (rj RuleJSON) toRule() (Rule, error) {
	if rj.Badge == "" {
		return Rule{}, fmt.Errorf("missing badge name")
	}

	threshold, err := decimal.NewFromString(rj.Threshold.String())
	if err != nil {
		return Rule{}, fmt.Errorf("bad threshold %q: %w", rj.Threshold, err)
	}
	if !threshold.IsPositive() {
		return Rule{}, fmt.Errorf("threshold must be positive, got %s", threshold)
	}

	kind := RuleKind(rj.Kind)
	switch kind {
	case KindMilestone, KindStreak:
		if rj.Category != "" {
			return Rule{}, fmt.Errorf("%s rules take no category", kind)
		}
		return Rule{Kind: kind, Badge: rj.Badge, Threshold: threshold}, nil

	case KindCategoryWeight, KindCategoryCount:
		category := waste.Category(rj.Category)
		if !category.Valid() {
			return Rule{}, fmt.Errorf("unknown category %q", rj.Category)
		}
		return Rule{Kind: kind, Badge: rj.Badge, Threshold: threshold, Category: category}, nil

	default:
		return Rule{}, fmt.Errorf("unknown rule kind %q", rj.Kind)
	}
}
