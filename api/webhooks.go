/*
webhooks.go - Database-trigger style event endpoints

PURPOSE:
  Accepts row-change events from an upstream database or event dispatcher
  and routes them into the lifecycle engine. The payload mirrors the common
  trigger shape: the new row under "record", the previous row under
  "old_record" on updates.

DELIVERY:
  The dispatcher delivers at-least-once. A 2xx acknowledges the event; a
  409 (lost concurrency race) asks for redelivery. Redelivered completions
  converge in the engine: fully processed ones are no-ops, half-processed
  ones are finished.

SYNC:
  The hook also mirrors the row into the local store so reads, category
  stats and first-pickup counting see the same data the trigger saw.

SEE ALSO:
  - engine/: OnPickupCreated, OnPickupStatusChanged
  - handlers.go: the direct REST surface
*/
package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/wastechain/green-ledger/ledger"
	"github.com/wastechain/green-ledger/waste"
)

// =============================================================================
// PAYLOAD
// =============================================================================

// WebhookPayload is the row-change envelope.
type WebhookPayload struct {
	Type      string        `json:"type,omitempty"` // INSERT / UPDATE, informational
	Record    PickupRecord  `json:"record"`
	OldRecord *PickupRecord `json:"old_record,omitempty"`
}

// =============================================================================
// HOOK HANDLERS
// =============================================================================

// HandlePickupCreated processes a pickup INSERT event.
// POST /hooks/pickup-created
func (h *Handler) HandlePickupCreated(w http.ResponseWriter, r *http.Request) {
	var payload WebhookPayload
	if err := decodeAndValidate(r, &payload); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid payload", err)
		return
	}
	if payload.Record.ID == "" || payload.Record.UserID == "" {
		writeError(w, http.StatusBadRequest, "Record is missing id or user_id", nil)
		return
	}

	pickup := payload.Record.toPickup()
	if pickup.Status == "" {
		pickup.Status = waste.StatusPending
	}
	if err := h.Store.CreatePickup(r.Context(), pickup); err != nil {
		// The row may already be mirrored from an earlier delivery attempt;
		// the ledger's idempotency key decides whether the event is new.
		if !errors.Is(err, ledger.ErrValidation) {
			writeDomainError(w, "Failed to mirror pickup", err)
			return
		}
	}

	result, err := h.Engine.OnPickupCreated(r.Context(), pickup)
	if err != nil {
		writeDomainError(w, "Failed to process pickup creation", err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// HandlePickupUpdated processes a pickup UPDATE event. The engine reacts
// only to the -> completed edge; everything else is acknowledged untouched.
// POST /hooks/pickup-updated
func (h *Handler) HandlePickupUpdated(w http.ResponseWriter, r *http.Request) {
	var payload WebhookPayload
	if err := decodeAndValidate(r, &payload); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid payload", err)
		return
	}
	if payload.Record.ID == "" || payload.Record.UserID == "" {
		writeError(w, http.StatusBadRequest, "Record is missing id or user_id", nil)
		return
	}
	if payload.OldRecord == nil {
		writeError(w, http.StatusBadRequest, "Update payload is missing old_record", nil)
		return
	}

	newRec := payload.Record.toPickup()
	oldRec := payload.OldRecord.toPickup()

	if err := h.syncPickup(r, newRec, oldRec); err != nil {
		writeDomainError(w, "Failed to mirror pickup", err)
		return
	}

	result, err := h.Engine.OnPickupStatusChanged(r.Context(), newRec, oldRec)
	if err != nil {
		writeDomainError(w, "Failed to process status change", err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// syncPickup mirrors the updated row into the local store so reads and
// category stats match the upstream database.
func (h *Handler) syncPickup(r *http.Request, newRec, oldRec *waste.Pickup) error {
	stored, err := h.Store.GetPickup(r.Context(), newRec.ID)
	if ledger.IsNotFound(err) {
		return h.Store.CreatePickup(r.Context(), newRec)
	}
	if err != nil {
		return err
	}
	if stored.Status == newRec.Status {
		return nil
	}

	return h.Store.UpdatePickupStatus(r.Context(), newRec.ID, newRec.Status, transitionTime(newRec), newRec.ActualWeight)
}

// transitionTime prefers the upstream row's own timestamp for the step it
// just reached, falling back to receipt time.
func transitionTime(rec *waste.Pickup) time.Time {
	switch rec.Status {
	case waste.StatusCollected:
		if rec.CollectedAt != nil {
			return *rec.CollectedAt
		}
	case waste.StatusProcessed:
		if rec.ProcessedAt != nil {
			return *rec.ProcessedAt
		}
	case waste.StatusCompleted:
		if rec.CompletedAt != nil {
			return *rec.CompletedAt
		}
	}
	return time.Now().UTC()
}
