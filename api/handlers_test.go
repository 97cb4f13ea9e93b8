package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wastechain/green-ledger/achievements"
	"github.com/wastechain/green-ledger/api"
	"github.com/wastechain/green-ledger/engine"
	"github.com/wastechain/green-ledger/scoring"
	"github.com/wastechain/green-ledger/store/memory"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	store := memory.New()

	catalog := achievements.Catalog()
	for i := range catalog {
		catalog[i].ID = catalog[i].Name
	}
	require.NoError(t, store.SeedBadges(context.Background(), catalog))

	eng := engine.New(store, scoring.FixedOracle{Confidence: 0.8})
	handler := api.NewHandler(eng, store, nil)
	return api.NewRouter(handler, []string{"*"})
}

func doJSON(t *testing.T, router http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&out), "body: %s", rec.Body.String())
	return out
}

func createProfile(t *testing.T, router http.Handler, id string) {
	t.Helper()
	rec := doJSON(t, router, http.MethodPost, "/api/profiles", map[string]any{
		"id": id, "email": id + "@example.com", "full_name": "User " + id, "role": "household",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
}

type createPickupResponse struct {
	Pickup api.PickupRecord     `json:"pickup"`
	Result engine.CreatedResult `json:"result"`
}

type statusResponse struct {
	Pickup api.PickupRecord       `json:"pickup"`
	Result engine.CompletedResult `json:"result"`
}

// =============================================================================
// PROFILE ENDPOINTS
// =============================================================================

func TestCreateProfile_Validation(t *testing.T) {
	router := newTestRouter(t)

	tests := []struct {
		name string
		body map[string]any
		want int
	}{
		{"valid", map[string]any{"id": "u1", "email": "u1@example.com", "full_name": "U", "role": "household"}, http.StatusCreated},
		{"bad email", map[string]any{"id": "u2", "email": "nope", "full_name": "U", "role": "household"}, http.StatusBadRequest},
		{"bad role", map[string]any{"id": "u3", "email": "u3@example.com", "full_name": "U", "role": "wizard"}, http.StatusBadRequest},
		{"missing id", map[string]any{"email": "u4@example.com", "full_name": "U", "role": "household"}, http.StatusBadRequest},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec := doJSON(t, router, http.MethodPost, "/api/profiles", tc.body)
			assert.Equal(t, tc.want, rec.Code, rec.Body.String())
		})
	}
}

func TestGetProfile_NotFound(t *testing.T) {
	router := newTestRouter(t)
	rec := doJSON(t, router, http.MethodGet, "/api/profiles/ghost", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetLedger_UnknownUser_NotFound(t *testing.T) {
	router := newTestRouter(t)
	rec := doJSON(t, router, http.MethodGet, "/api/profiles/ghost/ledger", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

// =============================================================================
// PICKUP FLOW
// =============================================================================

func TestPickupFlow_CreateToCompleted(t *testing.T) {
	// GIVEN: A household user
	// WHEN: A plastic pickup is created and walked to completed with 20 kg
	// THEN: 12 initial points + 50 First Pickup + 40 weight bonus = 102

	router := newTestRouter(t)
	createProfile(t, router, "u1")

	rec := doJSON(t, router, http.MethodPost, "/api/pickups", map[string]any{
		"user_id": "u1", "waste_category": "plastic", "estimated_weight": 18,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decode[createPickupResponse](t, rec)

	assert.Equal(t, 12, created.Result.PointsAwarded)
	assert.True(t, created.Result.FirstPickupAwarded)
	assert.Equal(t, 62, created.Result.NewBalance)
	pickupID := created.Pickup.ID
	require.NotEmpty(t, pickupID)

	// Walk the lifecycle; the weight arrives at the collected step.
	steps := []map[string]any{
		{"status": "assigned"},
		{"status": "in_progress"},
		{"status": "collected", "actual_weight": 20},
		{"status": "processed"},
		{"status": "completed"},
	}
	var final statusResponse
	for _, step := range steps {
		rec := doJSON(t, router, http.MethodPost, "/api/pickups/"+pickupID+"/status", step)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		final = decode[statusResponse](t, rec)
	}

	assert.True(t, final.Result.Processed)
	assert.Equal(t, 40, final.Result.WeightBonus)
	assert.Equal(t, 102, final.Result.NewBalance)
	assert.Equal(t, 1, final.Result.Streak)

	// Profile and ledger agree.
	profile := decode[api.ProfileDTO](t, doJSON(t, router, http.MethodGet, "/api/profiles/u1", nil))
	assert.Equal(t, 102, profile.GreenPoints)
	assert.Equal(t, 1, profile.TotalPickups)

	verify := decode[api.VerifyDTO](t, doJSON(t, router, http.MethodGet, "/api/profiles/u1/verify", nil))
	assert.True(t, verify.Consistent)

	entries := decode[[]api.EntryDTO](t, doJSON(t, router, http.MethodGet, "/api/profiles/u1/ledger", nil))
	assert.Len(t, entries, 3, "pickup_created, badge_earned, pickup_completed")

	badges := decode[[]api.UserBadgeDTO](t, doJSON(t, router, http.MethodGet, "/api/profiles/u1/badges", nil))
	require.Len(t, badges, 1)
	assert.Equal(t, achievements.BadgeFirstPickup, badges[0].Name)
}

func TestUpdatePickupStatus_IllegalTransitions(t *testing.T) {
	router := newTestRouter(t)
	createProfile(t, router, "u1")

	rec := doJSON(t, router, http.MethodPost, "/api/pickups", map[string]any{
		"user_id": "u1", "waste_category": "glass", "estimated_weight": 3,
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	pickupID := decode[createPickupResponse](t, rec).Pickup.ID

	// Skipping ahead is a conflict.
	rec = doJSON(t, router, http.MethodPost, "/api/pickups/"+pickupID+"/status", map[string]any{"status": "completed"})
	assert.Equal(t, http.StatusConflict, rec.Code)

	// Unknown statuses are a validation failure.
	rec = doJSON(t, router, http.MethodPost, "/api/pickups/"+pickupID+"/status", map[string]any{"status": "teleported"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// Cancelling is allowed, and terminal.
	rec = doJSON(t, router, http.MethodPost, "/api/pickups/"+pickupID+"/status", map[string]any{"status": "cancelled"})
	require.Equal(t, http.StatusOK, rec.Code)
	rec = doJSON(t, router, http.MethodPost, "/api/pickups/"+pickupID+"/status", map[string]any{"status": "assigned"})
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestCreatePickup_Validation(t *testing.T) {
	router := newTestRouter(t)
	createProfile(t, router, "u1")

	rec := doJSON(t, router, http.MethodPost, "/api/pickups", map[string]any{
		"user_id": "u1", "waste_category": "uranium", "estimated_weight": 1,
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, router, http.MethodPost, "/api/pickups", map[string]any{
		"user_id": "u1", "waste_category": "plastic", "estimated_weight": -2,
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// =============================================================================
// WEBHOOK ENDPOINTS
// =============================================================================

func TestWebhooks_CreatedAndCompleted(t *testing.T) {
	// GIVEN: An upstream database delivering row-change events
	// WHEN: An INSERT and then an UPDATE to completed arrive
	// THEN: Points are booked exactly as if driven through the REST surface

	router := newTestRouter(t)
	createProfile(t, router, "u1")

	record := map[string]any{
		"id": "hook-p1", "user_id": "u1", "waste_category": "plastic",
		"estimated_weight": "18", "status": "pending",
	}
	rec := doJSON(t, router, http.MethodPost, "/hooks/pickup-created", map[string]any{
		"type": "INSERT", "record": record,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	created := decode[engine.CreatedResult](t, rec)
	assert.Equal(t, 62, created.NewBalance)

	completedRecord := map[string]any{
		"id": "hook-p1", "user_id": "u1", "waste_category": "plastic",
		"estimated_weight": "18", "actual_weight": "20", "status": "completed",
	}
	oldRecord := map[string]any{
		"id": "hook-p1", "user_id": "u1", "waste_category": "plastic",
		"estimated_weight": "18", "status": "processed",
	}
	payload := map[string]any{"type": "UPDATE", "record": completedRecord, "old_record": oldRecord}

	rec = doJSON(t, router, http.MethodPost, "/hooks/pickup-updated", payload)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	completed := decode[engine.CompletedResult](t, rec)
	assert.True(t, completed.Processed)
	assert.Equal(t, 40, completed.WeightBonus)
	assert.Equal(t, 102, completed.NewBalance)

	// Redelivery of the same UPDATE is acknowledged but pays nothing.
	rec = doJSON(t, router, http.MethodPost, "/hooks/pickup-updated", payload)
	require.Equal(t, http.StatusOK, rec.Code)
	redelivered := decode[engine.CompletedResult](t, rec)
	assert.False(t, redelivered.Processed)

	profile := decode[api.ProfileDTO](t, doJSON(t, router, http.MethodGet, "/api/profiles/u1", nil))
	assert.Equal(t, 102, profile.GreenPoints)
	assert.Equal(t, 1, profile.TotalPickups)
}

func TestWebhookUpdated_MissingOldRecord(t *testing.T) {
	router := newTestRouter(t)
	rec := doJSON(t, router, http.MethodPost, "/hooks/pickup-updated", map[string]any{
		"record": map[string]any{"id": "p1", "user_id": "u1", "status": "completed", "waste_category": "plastic", "estimated_weight": "1"},
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// =============================================================================
// ADMIN + REDEMPTION + LEADERBOARD
// =============================================================================

func TestAdjustments_BonusAndPenalty(t *testing.T) {
	router := newTestRouter(t)
	createProfile(t, router, "u1")

	rec := doJSON(t, router, http.MethodPost, "/api/admin/adjustments", map[string]any{
		"user_id": "u1", "points": 100, "reason": "campaign reward", "actor": "admin-1",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	bonus := decode[api.EntryDTO](t, rec)
	assert.Equal(t, "bonus_points", bonus.Type)
	assert.Equal(t, 100, bonus.BalanceAfter)

	rec = doJSON(t, router, http.MethodPost, "/api/admin/adjustments", map[string]any{
		"user_id": "u1", "points": -30, "reason": "misreported weight", "actor": "admin-1",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	penalty := decode[api.EntryDTO](t, rec)
	assert.Equal(t, "penalty", penalty.Type)
	assert.Equal(t, 70, penalty.BalanceAfter)
}

func TestRedemption_InsufficientBalance(t *testing.T) {
	router := newTestRouter(t)
	createProfile(t, router, "u1")

	rec := doJSON(t, router, http.MethodPost, "/api/profiles/u1/redemptions", map[string]any{
		"points": 500, "reward": "bus pass",
	})
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestRedemption_SpendsPoints(t *testing.T) {
	router := newTestRouter(t)
	createProfile(t, router, "u1")

	rec := doJSON(t, router, http.MethodPost, "/api/admin/adjustments", map[string]any{
		"user_id": "u1", "points": 80, "reason": "seed", "actor": "admin-1",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doJSON(t, router, http.MethodPost, "/api/profiles/u1/redemptions", map[string]any{
		"points": 60, "reward": "bus pass",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	entry := decode[api.EntryDTO](t, rec)
	assert.Equal(t, "redemption", entry.Type)
	assert.Equal(t, -60, entry.Delta)
	assert.Equal(t, 20, entry.BalanceAfter)
}

func TestLeaderboard_OrdersHouseholds(t *testing.T) {
	router := newTestRouter(t)
	for i, points := range []int{30, 90, 10} {
		id := fmt.Sprintf("u%d", i+1)
		createProfile(t, router, id)
		rec := doJSON(t, router, http.MethodPost, "/api/admin/adjustments", map[string]any{
			"user_id": id, "points": points, "reason": "seed", "actor": "admin-1",
		})
		require.Equal(t, http.StatusCreated, rec.Code)
	}

	rec := doJSON(t, router, http.MethodGet, "/api/leaderboard?limit=2", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	board := decode[[]map[string]any](t, rec)
	require.Len(t, board, 2)
	assert.Equal(t, "u2", board[0]["user_id"])
	assert.Equal(t, "u1", board[1]["user_id"])
}

func TestListBadges_ReturnsCatalog(t *testing.T) {
	router := newTestRouter(t)
	rec := doJSON(t, router, http.MethodGet, "/api/badges", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	badges := decode[[]api.BadgeDTO](t, rec)
	assert.Len(t, badges, len(achievements.Catalog()))
}
