/*
handlers.go - HTTP API handlers for the green-points engine

PURPOSE:
  Exposes the ledger and lifecycle engine via REST API. Handles HTTP
  request/response, JSON serialization, and delegates to domain logic.

ENDPOINTS:
  Profiles:
    POST   /api/profiles                    Register a profile
    GET    /api/profiles/{id}               Profile with balance + streak
    GET    /api/profiles/{id}/ledger        Full entry history
    GET    /api/profiles/{id}/badges        Earned badges
    GET    /api/profiles/{id}/verify        Audit cache vs ledger
    POST   /api/profiles/{id}/redemptions   Spend points

  Pickups:
    POST   /api/pickups                     Schedule a pickup (fires creation)
    GET    /api/pickups/{id}                Pickup details
    POST   /api/pickups/{id}/status         Advance the lifecycle

  Badges / leaderboard:
    GET    /api/badges                      Badge catalog
    GET    /api/leaderboard                 Top household balances

  Admin:
    POST   /api/admin/adjustments           Manual bonus/penalty entry

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation errors, invalid input
  - 404: Resource not found
  - 409: Conflict (lost concurrency race, duplicate event, bad transition)
  - 500: Internal errors

SECURITY NOTE:
  Currently NO authentication or authorization. All endpoints are public.
  Run behind a gateway that authenticates and injects user identity.

SEE ALSO:
  - dto.go: Request/response data structures
  - webhooks.go: Database-trigger style event endpoints
  - server.go: Router setup and middleware
*/
package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/wastechain/green-ledger/engine"
	"github.com/wastechain/green-ledger/ledger"
	"github.com/wastechain/green-ledger/waste"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Engine *engine.Engine
	Store  engine.Store

	logger *slog.Logger
}

// NewHandler creates a new handler around the lifecycle engine.
func NewHandler(eng *engine.Engine, store engine.Store, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{Engine: eng, Store: store, logger: logger}
}

// =============================================================================
// PROFILE HANDLERS
// =============================================================================

// CreateProfile registers a new profile with a zero balance.
func (h *Handler) CreateProfile(w http.ResponseWriter, r *http.Request) {
	var req CreateProfileRequest
	if err := decodeAndValidate(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	profile := &ledger.Profile{
		ID:       req.ID,
		Email:    req.Email,
		FullName: req.FullName,
		Role:     ledger.Role(req.Role),
	}
	if err := h.Store.CreateProfile(r.Context(), profile); err != nil {
		writeDomainError(w, "Failed to create profile", err)
		return
	}

	writeJSON(w, http.StatusCreated, toProfileDTO(profile))
}

// GetProfile returns a single profile.
func (h *Handler) GetProfile(w http.ResponseWriter, r *http.Request) {
	profile, err := h.Store.GetProfile(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, "Failed to get profile", err)
		return
	}
	writeJSON(w, http.StatusOK, toProfileDTO(profile))
}

// GetLedger returns the user's full entry history, oldest first.
func (h *Handler) GetLedger(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "id")

	// 404 for unknown users rather than an empty history.
	if _, err := h.Store.GetProfile(r.Context(), userID); err != nil {
		writeDomainError(w, "Failed to get profile", err)
		return
	}

	entries, err := h.Store.Entries(r.Context(), userID)
	if err != nil {
		writeDomainError(w, "Failed to list entries", err)
		return
	}

	dtos := make([]EntryDTO, len(entries))
	for i, e := range entries {
		dtos[i] = toEntryDTO(e)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// VerifyBalance audits the profile's cached balance against the ledger.
func (h *Handler) VerifyBalance(w http.ResponseWriter, r *http.Request) {
	report, err := h.Engine.Ledger().VerifyBalance(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, "Failed to verify balance", err)
		return
	}
	writeJSON(w, http.StatusOK, VerifyDTO{
		UserID:         report.UserID,
		ProfileBalance: report.ProfileBalance,
		LedgerSum:      report.LedgerSum,
		ChainIntact:    report.ChainIntact,
		Consistent:     report.Consistent(),
	})
}

// GetUserBadges returns the user's earned badges.
func (h *Handler) GetUserBadges(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "id")

	if _, err := h.Store.GetProfile(r.Context(), userID); err != nil {
		writeDomainError(w, "Failed to get profile", err)
		return
	}

	awards, err := h.Store.ListUserBadges(r.Context(), userID)
	if err != nil {
		writeDomainError(w, "Failed to list user badges", err)
		return
	}
	badges, err := h.Store.ListBadges(r.Context())
	if err != nil {
		writeDomainError(w, "Failed to list badges", err)
		return
	}
	names := make(map[string]string, len(badges))
	for _, b := range badges {
		names[b.ID] = b.Name
	}

	dtos := make([]UserBadgeDTO, len(awards))
	for i, a := range awards {
		dtos[i] = UserBadgeDTO{
			BadgeID:  a.BadgeID,
			Name:     names[a.BadgeID],
			EarnedAt: a.EarnedAt.Format(time.RFC3339),
		}
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateRedemption spends points on a reward. Rejected when the balance
// does not cover the cost.
func (h *Handler) CreateRedemption(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "id")

	var req RedemptionRequest
	if err := decodeAndValidate(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	profile, err := h.Store.GetProfile(r.Context(), userID)
	if err != nil {
		writeDomainError(w, "Failed to get profile", err)
		return
	}
	if profile.GreenPoints < req.Points {
		writeError(w, http.StatusConflict, "Insufficient balance", nil)
		return
	}

	entry, err := h.Engine.Ledger().AppendEntry(r.Context(), ledger.AppendRequest{
		UserID: userID,
		Type:   ledger.TypeRedemption,
		Delta:  -req.Points,
		Metadata: map[string]any{
			"reward": req.Reward,
		},
	})
	if err != nil {
		writeDomainError(w, "Failed to redeem points", err)
		return
	}
	writeJSON(w, http.StatusCreated, toEntryDTO(*entry))
}

// =============================================================================
// PICKUP HANDLERS
// =============================================================================

// CreatePickup schedules a pickup and fires the creation trigger: the pickup
// is scored, initial points are booked, and First Pickup may unlock.
func (h *Handler) CreatePickup(w http.ResponseWriter, r *http.Request) {
	var req CreatePickupRequest
	if err := decodeAndValidate(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	category := waste.Category(req.Category)
	if !category.Valid() {
		writeError(w, http.StatusBadRequest, "Unknown waste category", nil)
		return
	}
	if req.EstimatedWeight.IsNegative() {
		writeError(w, http.StatusBadRequest, "Estimated weight must be non-negative", nil)
		return
	}

	pickup := &waste.Pickup{
		ID:              uuid.NewString(),
		UserID:          req.UserID,
		Category:        category,
		EstimatedWeight: req.EstimatedWeight,
		Status:          waste.StatusPending,
		ScheduledDate:   req.ScheduledDate,
	}
	if err := h.Store.CreatePickup(r.Context(), pickup); err != nil {
		writeDomainError(w, "Failed to create pickup", err)
		return
	}

	result, err := h.Engine.OnPickupCreated(r.Context(), pickup)
	if err != nil {
		writeDomainError(w, "Failed to process pickup creation", err)
		return
	}

	writeJSON(w, http.StatusCreated, struct {
		Pickup PickupRecord          `json:"pickup"`
		Result *engine.CreatedResult `json:"result"`
	}{toPickupRecord(pickup), result})
}

// GetPickup returns a single pickup.
func (h *Handler) GetPickup(w http.ResponseWriter, r *http.Request) {
	pickup, err := h.Store.GetPickup(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, "Failed to get pickup", err)
		return
	}
	writeJSON(w, http.StatusOK, toPickupRecord(pickup))
}

// UpdatePickupStatus advances a pickup one lifecycle step (or cancels it)
// and fires the status-change trigger.
func (h *Handler) UpdatePickupStatus(w http.ResponseWriter, r *http.Request) {
	pickupID := chi.URLParam(r, "id")

	var req UpdateStatusRequest
	if err := decodeAndValidate(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	to := waste.Status(req.Status)
	if !to.Valid() {
		writeError(w, http.StatusBadRequest, "Unknown status", nil)
		return
	}
	if req.ActualWeight != nil && req.ActualWeight.IsNegative() {
		writeError(w, http.StatusBadRequest, "Actual weight must be non-negative", nil)
		return
	}

	oldRec, err := h.Store.GetPickup(r.Context(), pickupID)
	if err != nil {
		writeDomainError(w, "Failed to get pickup", err)
		return
	}
	if !waste.CanTransition(oldRec.Status, to) {
		writeError(w, http.StatusConflict, "Transition not allowed",
			&ledger.TransitionError{PickupID: pickupID, From: string(oldRec.Status), To: string(to)})
		return
	}

	now := time.Now().UTC()
	if err := h.Store.UpdatePickupStatus(r.Context(), pickupID, to, now, req.ActualWeight); err != nil {
		writeDomainError(w, "Failed to update pickup", err)
		return
	}

	newRec, err := h.Store.GetPickup(r.Context(), pickupID)
	if err != nil {
		writeDomainError(w, "Failed to get pickup", err)
		return
	}

	result, err := h.Engine.OnPickupStatusChanged(r.Context(), newRec, oldRec)
	if err != nil {
		writeDomainError(w, "Failed to process status change", err)
		return
	}

	writeJSON(w, http.StatusOK, struct {
		Pickup PickupRecord            `json:"pickup"`
		Result *engine.CompletedResult `json:"result"`
	}{toPickupRecord(newRec), result})
}

// =============================================================================
// BADGE + LEADERBOARD HANDLERS
// =============================================================================

// ListBadges returns the badge catalog.
func (h *Handler) ListBadges(w http.ResponseWriter, r *http.Request) {
	badges, err := h.Store.ListBadges(r.Context())
	if err != nil {
		writeDomainError(w, "Failed to list badges", err)
		return
	}
	dtos := make([]BadgeDTO, len(badges))
	for i, b := range badges {
		dtos[i] = toBadgeDTO(b)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetLeaderboard returns the top household balances. ?limit= caps the size,
// default 10, max 100.
func (h *Handler) GetLeaderboard(w http.ResponseWriter, r *http.Request) {
	limit := 10
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			writeError(w, http.StatusBadRequest, "Invalid limit", err)
			return
		}
		limit = parsed
	}
	if limit > 100 {
		limit = 100
	}

	board, err := h.Store.Leaderboard(r.Context(), limit)
	if err != nil {
		writeDomainError(w, "Failed to build leaderboard", err)
		return
	}
	if board == nil {
		board = []ledger.LeaderboardRow{}
	}
	writeJSON(w, http.StatusOK, board)
}

// =============================================================================
// ADMIN HANDLERS
// =============================================================================

// CreateAdjustment books a manual correction. Positive points append a
// bonus_points entry, negative a penalty.
func (h *Handler) CreateAdjustment(w http.ResponseWriter, r *http.Request) {
	var req AdjustmentRequest
	if err := decodeAndValidate(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	entryType := ledger.TypeBonusPoints
	if req.Points < 0 {
		entryType = ledger.TypePenalty
	}

	entry, err := h.Engine.Ledger().AppendEntry(r.Context(), ledger.AppendRequest{
		UserID: req.UserID,
		Type:   entryType,
		Delta:  req.Points,
		Metadata: map[string]any{
			"reason": req.Reason,
			"actor":  req.Actor,
		},
	})
	if err != nil {
		writeDomainError(w, "Failed to book adjustment", err)
		return
	}

	h.logger.InfoContext(r.Context(), "adjustment booked",
		"user_id", req.UserID, "points", req.Points, "actor", req.Actor)
	writeJSON(w, http.StatusCreated, toEntryDTO(*entry))
}

// =============================================================================
// SHARED HELPERS
// =============================================================================

func decodeAndValidate(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return err
	}
	return validate.Struct(dst)
}

// writeDomainError maps the error taxonomy to HTTP statuses.
func writeDomainError(w http.ResponseWriter, message string, err error) {
	switch {
	case ledger.IsNotFound(err):
		writeError(w, http.StatusNotFound, message, err)
	case errors.Is(err, ledger.ErrDuplicateEntry), ledger.IsRetryable(err):
		writeError(w, http.StatusConflict, message, err)
	case ledger.IsClientError(err):
		var transition *ledger.TransitionError
		if errors.As(err, &transition) {
			writeError(w, http.StatusConflict, message, err)
			return
		}
		writeError(w, http.StatusBadRequest, message, err)
	default:
		writeError(w, http.StatusInternalServerError, message, err)
	}
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// decimalPtr is a test/demo convenience.
func decimalPtr(d decimal.Decimal) *decimal.Decimal { return &d }
