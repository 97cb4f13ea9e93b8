package achievements_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wastechain/green-ledger/achievements"
	"github.com/wastechain/green-ledger/ledger"
	"github.com/wastechain/green-ledger/store/memory"
	"github.com/wastechain/green-ledger/waste"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func newTestEvaluator(t *testing.T) (*achievements.Evaluator, *ledger.Engine, *memory.Store) {
	t.Helper()
	store := memory.New()
	clock := func() time.Time { return time.Date(2025, time.June, 1, 12, 0, 0, 0, time.UTC) }
	eng := ledger.NewEngineWithClock(store, clock)
	ev := achievements.NewEvaluatorWithClock(eng, store, achievements.DefaultRules(), clock)

	catalog := achievements.Catalog()
	for i := range catalog {
		catalog[i].ID = catalog[i].Name // deterministic IDs for assertions
	}
	require.NoError(t, store.SeedBadges(context.Background(), catalog))
	return ev, eng, store
}

func seedProfile(t *testing.T, store *memory.Store, id string, totalCompleted, streak int) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, store.CreateProfile(ctx, &ledger.Profile{
		ID: id, Email: id + "@example.com", FullName: "Test User", Role: ledger.RoleHousehold,
	}))
	if totalCompleted > 0 || streak > 0 {
		require.NoError(t, store.UpdateProfileProgress(ctx, id, streak, totalCompleted, time.Now().UTC()))
	}
}

// completedPickup plants a completed pickup directly in the store, bypassing
// the lifecycle engine, so category stats can be shaped per test.
func completedPickup(t *testing.T, store *memory.Store, id, userID string, category waste.Category, weightKg string) {
	t.Helper()
	ctx := context.Background()
	weight := decimal.RequireFromString(weightKg)
	require.NoError(t, store.CreatePickup(ctx, &waste.Pickup{
		ID: id, UserID: userID, Category: category,
		EstimatedWeight: weight, ActualWeight: &weight,
		Status: waste.StatusCompleted,
	}))
}

// =============================================================================
// MILESTONE RULES
// =============================================================================

func TestEvaluateAndAward_MilestoneUnlocks(t *testing.T) {
	// GIVEN: A user with exactly 10 completed pickups and no badges yet
	// WHEN: The evaluator runs
	// THEN: The starter badge catches up and Eco Warrior unlocks;
	//       the larger milestones do not

	ev, eng, store := newTestEvaluator(t)
	ctx := context.Background()
	seedProfile(t, store, "user-1", 10, 0)

	awarded, err := ev.EvaluateAndAward(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, []string{achievements.BadgeFirstPickup, achievements.BadgeEcoWarrior}, awarded)

	// Each unlock pays the badge bonus through the ledger.
	entries, err := eng.Entries(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	for _, entry := range entries {
		assert.Equal(t, ledger.TypeBadgeEarned, entry.Type)
		assert.Equal(t, 50, entry.Delta)
	}
	assert.Equal(t, achievements.BadgeEcoWarrior, entries[1].Metadata["badge_name"])
}

func TestEvaluateAndAward_BelowThreshold_NothingUnlocks(t *testing.T) {
	// GIVEN: A user with 9 completed pickups and a 3 day streak
	// WHEN: The evaluator runs
	// THEN: No badge unlocks

	ev, _, store := newTestEvaluator(t)
	ctx := context.Background()
	seedProfile(t, store, "user-1", 9, 3)

	// The starter badge was granted at creation, as usual.
	_, err := ev.AwardByName(ctx, "user-1", achievements.BadgeFirstPickup)
	require.NoError(t, err)

	awarded, err := ev.EvaluateAndAward(ctx, "user-1")
	require.NoError(t, err)
	assert.Empty(t, awarded)
}

func TestEvaluateAndAward_AtMostOnce(t *testing.T) {
	// GIVEN: A user who already unlocked Eco Warrior
	// WHEN: The evaluator runs again with no state change
	// THEN: Nothing is awarded and no second bonus is paid

	ev, eng, store := newTestEvaluator(t)
	ctx := context.Background()
	seedProfile(t, store, "user-1", 10, 0)

	// The starter badge was granted at creation, as usual.
	_, err := ev.AwardByName(ctx, "user-1", achievements.BadgeFirstPickup)
	require.NoError(t, err)

	first, err := ev.EvaluateAndAward(ctx, "user-1")
	require.NoError(t, err)
	require.Equal(t, []string{achievements.BadgeEcoWarrior}, first)

	second, err := ev.EvaluateAndAward(ctx, "user-1")
	require.NoError(t, err)
	assert.Empty(t, second)

	entries, err := eng.Entries(ctx, "user-1")
	require.NoError(t, err)
	assert.Len(t, entries, 2, "one bonus per badge, each paid exactly once")
}

func TestEvaluateAndAward_FirstPickupBackstop(t *testing.T) {
	// GIVEN: A user whose creation-time starter grant was missed (two
	//        near-simultaneous first creations can each see the other)
	// WHEN: Their first completion runs the evaluator
	// THEN: First Pickup catches up, exactly once

	ev, eng, store := newTestEvaluator(t)
	ctx := context.Background()
	seedProfile(t, store, "user-1", 1, 1)

	awarded, err := ev.EvaluateAndAward(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, []string{achievements.BadgeFirstPickup}, awarded)

	again, err := ev.EvaluateAndAward(ctx, "user-1")
	require.NoError(t, err)
	assert.Empty(t, again)

	entries, err := eng.Entries(ctx, "user-1")
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

// =============================================================================
// STREAK + CATEGORY RULES
// =============================================================================

func TestEvaluateAndAward_StreakBadge(t *testing.T) {
	// GIVEN: A user on a 7 day streak
	// WHEN: The evaluator runs
	// THEN: Weekly Streak unlocks

	ev, _, store := newTestEvaluator(t)
	ctx := context.Background()
	seedProfile(t, store, "user-1", 3, 7)

	_, err := ev.AwardByName(ctx, "user-1", achievements.BadgeFirstPickup)
	require.NoError(t, err)

	awarded, err := ev.EvaluateAndAward(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, []string{achievements.BadgeWeeklyStreak}, awarded)
}

func TestEvaluateAndAward_CategoryWeight(t *testing.T) {
	// GIVEN: 50 kg of completed plastic pickups across two collections
	// WHEN: The evaluator runs
	// THEN: Plastic Fighter unlocks; Paper Saver does not

	ev, _, store := newTestEvaluator(t)
	ctx := context.Background()
	seedProfile(t, store, "user-1", 2, 0)
	completedPickup(t, store, "p1", "user-1", waste.CategoryPlastic, "30.5")
	completedPickup(t, store, "p2", "user-1", waste.CategoryPlastic, "19.5")

	_, err := ev.AwardByName(ctx, "user-1", achievements.BadgeFirstPickup)
	require.NoError(t, err)

	awarded, err := ev.EvaluateAndAward(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, []string{achievements.BadgePlasticFighter}, awarded)
}

func TestEvaluateAndAward_CategoryWeight_PendingPickupsIgnored(t *testing.T) {
	// GIVEN: 60 kg of plastic still sitting in pending pickups
	// WHEN: The evaluator runs
	// THEN: Nothing unlocks - only completed pickups count

	ev, _, store := newTestEvaluator(t)
	ctx := context.Background()
	seedProfile(t, store, "user-1", 0, 0)

	weight := decimal.NewFromInt(60)
	require.NoError(t, store.CreatePickup(ctx, &waste.Pickup{
		ID: "p1", UserID: "user-1", Category: waste.CategoryPlastic,
		EstimatedWeight: weight, Status: waste.StatusPending,
	}))

	awarded, err := ev.EvaluateAndAward(ctx, "user-1")
	require.NoError(t, err)
	assert.Empty(t, awarded)
}

func TestEvaluateAndAward_CategoryCount(t *testing.T) {
	// GIVEN: 20 completed electronic pickups
	// WHEN: The evaluator runs
	// THEN: E-Waste Expert unlocks alongside the 10+ milestone

	ev, _, store := newTestEvaluator(t)
	seedProfile(t, store, "user-1", 20, 0)
	for i := 0; i < 20; i++ {
		completedPickup(t, store, "p"+string(rune('a'+i)), "user-1", waste.CategoryElectronic, "1")
	}

	awarded, err := ev.EvaluateAndAward(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Contains(t, awarded, achievements.BadgeEWasteExpert)
	assert.Contains(t, awarded, achievements.BadgeEcoWarrior)
}

// =============================================================================
// AWARD BY NAME
// =============================================================================

func TestAwardByName_FirstPickup(t *testing.T) {
	// GIVEN: A fresh user
	// WHEN: First Pickup is awarded by name, twice
	// THEN: The first call awards and pays, the second is a no-op

	ev, eng, store := newTestEvaluator(t)
	ctx := context.Background()
	seedProfile(t, store, "user-1", 0, 0)

	newly, err := ev.AwardByName(ctx, "user-1", achievements.BadgeFirstPickup)
	require.NoError(t, err)
	assert.True(t, newly)

	again, err := ev.AwardByName(ctx, "user-1", achievements.BadgeFirstPickup)
	require.NoError(t, err)
	assert.False(t, again)

	profile, err := store.GetProfile(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, 50, profile.GreenPoints)

	entries, err := eng.Entries(ctx, "user-1")
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestAwardByName_UnknownBadge(t *testing.T) {
	ev, _, store := newTestEvaluator(t)
	seedProfile(t, store, "user-1", 0, 0)

	_, err := ev.AwardByName(context.Background(), "user-1", "Golden Raccoon")
	assert.True(t, ledger.IsNotFound(err))
}
