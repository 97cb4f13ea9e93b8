/*
Package engine handles pickup lifecycle events.

PURPOSE:
  Two entry points, one per trigger:

    OnPickupCreated        pickup row inserted (enters pending)
    OnPickupStatusChanged  pickup row updated; the engine itself detects
                           the -> completed edge and ignores everything else

  Creation scores the pickup (verification oracle -> initial points),
  persists the score on the pickup BEFORE the ledger references it, appends
  the pickup_created entry, and awards First Pickup when this is the user's
  only pickup. Completion pays the weight bonus, advances the streak, bumps
  the completed count and re-runs the achievement evaluator.

DELIVERY:
  Events arrive at-least-once from an external dispatcher. The completion
  handler converges under retry: the old-status guard plus a keyed ledger
  entry stop a redelivered completion from paying twice, and a retry that
  finds the work half done (entry written, profile not yet advanced)
  finishes the remaining steps instead of skipping them. The creation path
  is not idempotent by design - a duplicate creation event is a dispatcher
  bug and surfaces as ErrDuplicateEntry instead of being masked.

CONCURRENCY:
  Events for different users are independent. Appends for one user are
  serialized by the store's conditional balance update; a lost race returns
  ErrConcurrencyConflict and the dispatcher redelivers the event.
*/
package engine

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"
	"github.com/wastechain/green-ledger/achievements"
	"github.com/wastechain/green-ledger/ledger"
	"github.com/wastechain/green-ledger/scoring"
	"github.com/wastechain/green-ledger/waste"
)

// =============================================================================
// STORE CONTRACT
// =============================================================================

// PickupStore persists pickups and the profile progress fields the
// completion handler maintains.
type PickupStore interface {
	CreatePickup(ctx context.Context, pickup *waste.Pickup) error

	// GetPickup returns the pickup, or a NotFoundError.
	GetPickup(ctx context.Context, pickupID string) (*waste.Pickup, error)

	// SetVerification persists the verification score and initial points on
	// the pickup row. Runs before the ledger entry references the pickup.
	SetVerification(ctx context.Context, pickupID string, score float64, points int) error

	// CountUserPickups returns how many pickups the user has ever created.
	CountUserPickups(ctx context.Context, userID string) (int, error)

	// UpdatePickupStatus moves the pickup to the given status, stamping the
	// matching transition timestamp. actualWeightKg, when non-nil, is
	// persisted alongside (collectors report it at the collected step).
	UpdatePickupStatus(ctx context.Context, pickupID string, to waste.Status, at time.Time, actualWeightKg *decimal.Decimal) error

	// AddPickupPoints increments the pickup's points_awarded. The increment
	// is non-negative, keeping the award monotonic.
	AddPickupPoints(ctx context.Context, pickupID string, delta int) error

	// UpdateProfileProgress sets the streak, completed-pickup total and
	// last-pickup timestamp on the profile.
	UpdateProfileProgress(ctx context.Context, userID string, streak, totalPickups int, lastPickup time.Time) error
}

// Store is everything the lifecycle handlers need from persistence.
type Store interface {
	ledger.Store
	achievements.Store
	PickupStore
}

// =============================================================================
// ENGINE
// =============================================================================

type Engine struct {
	store     Store
	ledger    *ledger.Engine
	evaluator *achievements.Evaluator
	oracle    scoring.Oracle
	logger    *slog.Logger
	now       func() time.Time
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock injects a clock, for deterministic streak tests.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithLogger sets the event logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) { e.logger = logger }
}

func New(store Store, oracle scoring.Oracle, opts ...Option) *Engine {
	e := &Engine{
		store:  store,
		oracle: oracle,
		logger: slog.Default(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	e.ledger = ledger.NewEngineWithClock(store, e.now)
	e.evaluator = achievements.NewEvaluatorWithClock(e.ledger, store, achievements.DefaultRules(), e.now)
	return e
}

// Ledger exposes the ledger engine for read paths and admin operations.
func (e *Engine) Ledger() *ledger.Engine { return e.ledger }

// Evaluator exposes the achievement evaluator.
func (e *Engine) Evaluator() *achievements.Evaluator { return e.evaluator }

// =============================================================================
// CREATION TRIGGER
// =============================================================================

// CreatedResult is the structured outcome of a creation event, consumed by
// logging and monitoring collaborators.
type CreatedResult struct {
	PickupID           string  `json:"pickup_id"`
	VerificationScore  float64 `json:"ai_score"`
	PointsAwarded      int     `json:"points_awarded"`
	NewBalance         int     `json:"new_balance"`
	FirstPickupAwarded bool    `json:"first_pickup_awarded"`
}

// OnPickupCreated scores a freshly inserted pickup and books its initial
// points. Called once per pickup; duplicates surface as ErrDuplicateEntry.
func (e *Engine) OnPickupCreated(ctx context.Context, pickup *waste.Pickup) (*CreatedResult, error) {
	if !pickup.Category.Valid() {
		return nil, &ledger.ValidationError{Field: "waste_category", Message: "unknown category " + string(pickup.Category)}
	}

	confidence, err := e.oracle.Score(ctx, pickup)
	if err != nil {
		return nil, err
	}

	points, err := scoring.InitialPoints(pickup.Category, confidence)
	if err != nil {
		return nil, &ledger.ValidationError{Field: "waste_category", Message: err.Error()}
	}

	// Pickup row first: a concurrent reader must never see a ledger entry
	// referencing a pickup without its score.
	if err := e.store.SetVerification(ctx, pickup.ID, confidence, points); err != nil {
		return nil, err
	}
	pickup.VerificationScore = confidence
	pickup.PointsAwarded = points

	entry, err := e.ledger.AppendEntry(ctx, ledger.AppendRequest{
		UserID:         pickup.UserID,
		PickupID:       pickup.ID,
		Type:           ledger.TypePickupCreated,
		Delta:          points,
		IdempotencyKey: "pickup_created:" + pickup.ID,
		Metadata: map[string]any{
			"waste_category":   string(pickup.Category),
			"estimated_weight": pickup.EstimatedWeight.String(),
			"ai_score":         confidence,
			"timestamp":        e.now().UTC().Format(time.RFC3339),
		},
	})
	if err != nil {
		return nil, err
	}

	result := &CreatedResult{
		PickupID:          pickup.ID,
		VerificationScore: confidence,
		PointsAwarded:     points,
		NewBalance:        entry.BalanceAfter,
	}

	total, err := e.store.CountUserPickups(ctx, pickup.UserID)
	if err != nil {
		return result, err
	}
	if total <= 1 {
		newly, err := e.evaluator.AwardByName(ctx, pickup.UserID, achievements.BadgeFirstPickup)
		if err != nil {
			return result, err
		}
		if newly {
			result.FirstPickupAwarded = true
			result.NewBalance += scoring.BadgeBonus()
		}
	}

	e.logger.InfoContext(ctx, "pickup created",
		"pickup_id", pickup.ID,
		"user_id", pickup.UserID,
		"ai_score", confidence,
		"points", points,
		"first_pickup_badge", result.FirstPickupAwarded,
	)
	return result, nil
}

// =============================================================================
// COMPLETION TRIGGER
// =============================================================================

// CompletedResult is the structured outcome of a status-change event.
type CompletedResult struct {
	PickupID      string   `json:"pickup_id"`
	Processed     bool     `json:"processed"`
	WeightBonus   int      `json:"weight_bonus"`
	NewBalance    int      `json:"new_balance"`
	Streak        int      `json:"new_streak"`
	BadgesAwarded []string `json:"badges_awarded"`
}

// OnPickupStatusChanged inspects a pickup update and processes the
// -> completed edge. All other transitions are acknowledged untouched.
// Safe to call more than once for the same completion: a fully processed
// redelivery is a no-op, a half-processed one is finished.
func (e *Engine) OnPickupStatusChanged(ctx context.Context, newRec, oldRec *waste.Pickup) (*CompletedResult, error) {
	result := &CompletedResult{PickupID: newRec.ID}

	// Only the -> completed edge pays out.
	if newRec.Status != waste.StatusCompleted || oldRec.Status == waste.StatusCompleted {
		return result, nil
	}

	profile, err := e.store.GetProfile(ctx, newRec.UserID)
	if err != nil {
		return nil, err
	}

	bonus := scoring.WeightBonus(newRec.ActualWeightOrZero())
	completedAt := e.completionTime(ctx, newRec)

	entry, err := e.ledger.AppendEntry(ctx, ledger.AppendRequest{
		UserID:         newRec.UserID,
		PickupID:       newRec.ID,
		Type:           ledger.TypePickupCompleted,
		Delta:          bonus,
		IdempotencyKey: "pickup_completed:" + newRec.ID,
		Metadata: map[string]any{
			"waste_category":       string(newRec.Category),
			"actual_weight":        newRec.ActualWeightOrZero().String(),
			"weight_bonus":         bonus,
			"completion_timestamp": completedAt.Format(time.RFC3339),
		},
	})
	duplicate := errors.Is(err, ledger.ErrDuplicateEntry)
	if err != nil && !duplicate {
		return nil, err
	}

	balance := profile.GreenPoints
	if entry != nil {
		balance = entry.BalanceAfter
	}

	// A redelivered completion normally finds the profile already advanced.
	// When the first delivery died between the ledger append and the profile
	// update, the keyed entry exists but LastPickupDate still predates this
	// completion; the remaining steps must run now or they never will.
	caughtUp := duplicate && profile.LastPickupDate != nil && !profile.LastPickupDate.Before(completedAt)

	if !caughtUp {
		streak := nextStreak(profile.LastPickupDate, completedAt, profile.WeeklyStreak)
		if err := e.store.UpdateProfileProgress(ctx, newRec.UserID, streak, profile.TotalPickups+1, completedAt); err != nil {
			return nil, err
		}
		if bonus > 0 {
			if err := e.store.AddPickupPoints(ctx, newRec.ID, bonus); err != nil {
				return nil, err
			}
		}
		result.Processed = true
		result.WeightBonus = bonus
		result.Streak = streak
	}

	// Awards are gated by the (user, badge) unique constraint and keyed
	// entries, so the evaluator re-runs on every delivery; that covers a
	// crash between the profile update and a pending unlock.
	badges, err := e.evaluator.EvaluateAndAward(ctx, newRec.UserID)
	if err != nil {
		return nil, err
	}
	result.BadgesAwarded = badges
	result.NewBalance = balance + scoring.BadgeBonus()*len(badges)

	if result.Processed || len(badges) > 0 {
		e.logger.InfoContext(ctx, "pickup completed",
			"pickup_id", newRec.ID,
			"user_id", newRec.UserID,
			"weight_bonus", result.WeightBonus,
			"streak", result.Streak,
			"badges_awarded", len(badges),
		)
	}
	return result, nil
}

// completionTime prefers the timestamp stamped on the row by the status
// update, so a delayed redelivery reasons about the streak with the
// original completion time rather than the retry time. Event payloads do
// not always carry it, so the stored row is consulted before falling back
// to the clock.
func (e *Engine) completionTime(ctx context.Context, rec *waste.Pickup) time.Time {
	if rec.CompletedAt != nil {
		return rec.CompletedAt.UTC()
	}
	if stored, err := e.store.GetPickup(ctx, rec.ID); err == nil && stored.CompletedAt != nil {
		return stored.CompletedAt.UTC()
	}
	return e.now().UTC()
}

// nextStreak applies the calendar-day streak rule: a pickup exactly one day
// after the previous one extends the streak, a longer gap resets it, a
// first-ever pickup starts it. A second pickup on the same day leaves the
// streak untouched.
func nextStreak(lastPickup *time.Time, now time.Time, current int) int {
	if lastPickup == nil {
		return 1
	}
	gap := calendarDaysBetween(*lastPickup, now)
	switch {
	case gap == 0:
		if current < 1 {
			return 1
		}
		return current
	case gap == 1:
		return current + 1
	default:
		return 1
	}
}

func calendarDaysBetween(from, to time.Time) int {
	fromDay := time.Date(from.UTC().Year(), from.UTC().Month(), from.UTC().Day(), 0, 0, 0, 0, time.UTC)
	toDay := time.Date(to.UTC().Year(), to.UTC().Month(), to.UTC().Day(), 0, 0, 0, 0, time.UTC)
	return int(toDay.Sub(fromDay).Hours() / 24)
}
