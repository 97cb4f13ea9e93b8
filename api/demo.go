/*
demo.go - Demo data seeder for local development

PURPOSE:
  Populates an empty database with a handful of households and pickups in
  various lifecycle stages, driven through the real engine so ledgers,
  streaks and badges come out consistent. Wired to the server's -seed flag.

WHAT IT CREATES:
  - Three household profiles and one collector
  - A fresh pending pickup
  - A completed plastic pickup (weight bonus + First Pickup badge)
  - A household with enough completed pickups to hold Eco Warrior

NOTE:
  Seeding is additive and not idempotent. Only run it against a fresh
  database in development.
*/
package api

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/wastechain/green-ledger/ledger"
	"github.com/wastechain/green-ledger/waste"
)

// LoadDemo seeds demo profiles and pickups through the engine.
func (h *Handler) LoadDemo(ctx context.Context) error {
	households := []*ledger.Profile{
		{ID: "demo-ana", Email: "ana@example.com", FullName: "Ana Souza", Role: ledger.RoleHousehold},
		{ID: "demo-bruno", Email: "bruno@example.com", FullName: "Bruno Lima", Role: ledger.RoleHousehold},
		{ID: "demo-clara", Email: "clara@example.com", FullName: "Clara Dias", Role: ledger.RoleHousehold},
	}
	collector := &ledger.Profile{
		ID: "demo-collector", Email: "collector@example.com", FullName: "Rota Verde Ltda", Role: ledger.RoleCollector,
	}

	for _, profile := range append(households, collector) {
		if err := h.Store.CreateProfile(ctx, profile); err != nil {
			return fmt.Errorf("seed profile %s: %w", profile.ID, err)
		}
	}

	// Ana: one pending pickup, nothing booked beyond the initial award.
	if _, err := h.seedPickup(ctx, "demo-ana", waste.CategoryOrganic, "3.5", nil); err != nil {
		return err
	}

	// Bruno: one completed plastic pickup - initial award, First Pickup
	// badge, weight bonus, streak of 1.
	if _, err := h.seedPickup(ctx, "demo-bruno", waste.CategoryPlastic, "5", decimalPtr(decimal.RequireFromString("6.2"))); err != nil {
		return err
	}

	// Clara: ten completed pickups, which unlocks Eco Warrior on the tenth.
	for i := 0; i < 10; i++ {
		weight := decimal.NewFromInt(int64(2 + i%3))
		if _, err := h.seedPickup(ctx, "demo-clara", waste.CategoryPaper, weight.String(), &weight); err != nil {
			return err
		}
	}

	return nil
}

// seedPickup creates one pickup and, when actualWeight is set, walks it
// through the full lifecycle to completed.
func (h *Handler) seedPickup(ctx context.Context, userID string, category waste.Category, estimated string, actualWeight *decimal.Decimal) (*waste.Pickup, error) {
	pickup := &waste.Pickup{
		ID:              uuid.NewString(),
		UserID:          userID,
		Category:        category,
		EstimatedWeight: decimal.RequireFromString(estimated),
		Status:          waste.StatusPending,
	}
	if err := h.Store.CreatePickup(ctx, pickup); err != nil {
		return nil, fmt.Errorf("seed pickup for %s: %w", userID, err)
	}
	if _, err := h.Engine.OnPickupCreated(ctx, pickup); err != nil {
		return nil, fmt.Errorf("score pickup for %s: %w", userID, err)
	}
	if actualWeight == nil {
		return pickup, nil
	}

	steps := []waste.Status{
		waste.StatusAssigned,
		waste.StatusInProgress,
		waste.StatusCollected,
		waste.StatusProcessed,
		waste.StatusCompleted,
	}
	for _, step := range steps {
		oldRec, err := h.Store.GetPickup(ctx, pickup.ID)
		if err != nil {
			return nil, err
		}

		var weight *decimal.Decimal
		if step == waste.StatusCollected {
			weight = actualWeight
		}
		if err := h.Store.UpdatePickupStatus(ctx, pickup.ID, step, time.Now().UTC(), weight); err != nil {
			return nil, fmt.Errorf("advance pickup for %s: %w", userID, err)
		}

		newRec, err := h.Store.GetPickup(ctx, pickup.ID)
		if err != nil {
			return nil, err
		}
		if _, err := h.Engine.OnPickupStatusChanged(ctx, newRec, oldRec); err != nil {
			return nil, fmt.Errorf("complete pickup for %s: %w", userID, err)
		}
	}
	return pickup, nil
}
