/*
evaluator.go - Badge evaluation and award flow

PURPOSE:
  EvaluateAndAward runs the rule table against a user's cumulative state.
  Each newly satisfied rule awards its badge: the (user, badge) join record
  is written first as the at-most-once gate, then the badge bonus lands in
  the ledger with an idempotency key so a retried event cannot pay twice.

AWARD ORDER:
  1. AwardBadge - unique constraint makes this the gate
  2. AppendEntry(badge_earned, +50) - keyed "badge:<user>:<badge>"

  If the process dies between 1 and 2, a retried evaluation sees the badge
  as held and skips it; the keyed append makes the narrower double-delivery
  window (entry written, ack lost) safe as well.
*/
package achievements

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/wastechain/green-ledger/ledger"
	"github.com/wastechain/green-ledger/scoring"
)

// =============================================================================
// STORE CONTRACT
// =============================================================================

// Store persists the badge catalog and per-user awards, and aggregates the
// completed-pickup stats the category rules need.
type Store interface {
	// SeedBadges inserts any catalog badges that do not exist yet.
	SeedBadges(ctx context.Context, badges []Badge) error

	// ListBadges returns the full catalog.
	ListBadges(ctx context.Context) ([]Badge, error)

	// GetBadgeByName returns the badge, or a NotFoundError.
	GetBadgeByName(ctx context.Context, name string) (*Badge, error)

	// ListUserBadges returns all badges the user holds.
	ListUserBadges(ctx context.Context, userID string) ([]UserBadge, error)

	// HasBadge reports whether the user already holds the badge.
	HasBadge(ctx context.Context, userID, badgeID string) (bool, error)

	// AwardBadge inserts the join record. Returns false without error when
	// the (user, badge) pair already exists.
	AwardBadge(ctx context.Context, award UserBadge) (bool, error)

	// CategoryStats aggregates completed pickups per category:
	// cumulative actual weight and pickup count.
	CategoryStats(ctx context.Context, userID string) (Stats, error)
}

// =============================================================================
// EVALUATOR
// =============================================================================

type Evaluator struct {
	ledger *ledger.Engine
	store  Store
	rules  []Rule
	now    func() time.Time
}

func NewEvaluator(eng *ledger.Engine, store Store, rules []Rule) *Evaluator {
	return &Evaluator{ledger: eng, store: store, rules: rules, now: time.Now}
}

// NewEvaluatorWithClock injects a clock, for deterministic tests.
func NewEvaluatorWithClock(eng *ledger.Engine, store Store, rules []Rule, now func() time.Time) *Evaluator {
	return &Evaluator{ledger: eng, store: store, rules: rules, now: now}
}

// EvaluateAndAward checks every rule against the user's cumulative state and
// awards each badge whose condition newly became true. Returns the names of
// newly awarded badges; an empty slice means nothing unlocked.
func (ev *Evaluator) EvaluateAndAward(ctx context.Context, userID string) ([]string, error) {
	profile, err := ev.ledger.Store().GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}

	stats, err := ev.store.CategoryStats(ctx, userID)
	if err != nil {
		return nil, err
	}
	stats.TotalCompleted = profile.TotalPickups
	stats.WeeklyStreak = profile.WeeklyStreak

	var awarded []string
	for _, rule := range ev.rules {
		if !rule.Satisfied(stats) {
			continue
		}
		newly, err := ev.AwardByName(ctx, userID, rule.Badge)
		if err != nil {
			return awarded, err
		}
		if newly {
			awarded = append(awarded, rule.Badge)
		}
	}
	return awarded, nil
}

// AwardByName awards one badge by catalog name, paying the badge bonus
// through the ledger. Returns false when the user already holds it. This is
// also the primitive the creation handler uses for the First Pickup badge.
func (ev *Evaluator) AwardByName(ctx context.Context, userID, badgeName string) (bool, error) {
	badge, err := ev.store.GetBadgeByName(ctx, badgeName)
	if err != nil {
		return false, err
	}

	newly, err := ev.store.AwardBadge(ctx, UserBadge{
		ID:       uuid.NewString(),
		UserID:   userID,
		BadgeID:  badge.ID,
		EarnedAt: ev.now().UTC(),
	})
	if err != nil || !newly {
		return false, err
	}

	_, err = ev.ledger.AppendEntry(ctx, ledger.AppendRequest{
		UserID:         userID,
		BadgeID:        badge.ID,
		Type:           ledger.TypeBadgeEarned,
		Delta:          scoring.BadgeBonus(),
		IdempotencyKey: "badge:" + userID + ":" + badge.ID,
		Metadata: map[string]any{
			"badge_name":       badge.Name,
			"earned_timestamp": ev.now().UTC().Format(time.RFC3339),
		},
	})
	if err != nil {
		return false, err
	}
	return true, nil
}
