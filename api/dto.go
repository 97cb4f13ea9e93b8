/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the internal domain model from the external API contract, allowing:
  - Field renaming without breaking clients
  - API-specific validation
  - Version evolution

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients
  - PickupRecord: the row shape webhook payloads carry

VALIDATION:
  Request types carry validator/v10 struct tags; handlers run them through
  the shared validate instance before touching domain logic. Domain rules
  (categories, transitions, balances) stay in the domain packages.

SEE ALSO:
  - handlers.go: Uses these types
  - webhooks.go: PickupRecord payloads
*/
package api

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/wastechain/green-ledger/achievements"
	"github.com/wastechain/green-ledger/ledger"
	"github.com/wastechain/green-ledger/waste"
)

// =============================================================================
// PROFILE TYPES
// =============================================================================

// ProfileDTO represents a user profile in API responses.
type ProfileDTO struct {
	ID             string `json:"id"`
	Email          string `json:"email"`
	FullName       string `json:"full_name"`
	Role           string `json:"role"`
	GreenPoints    int    `json:"green_points"`
	WeeklyStreak   int    `json:"weekly_streak"`
	TotalPickups   int    `json:"total_pickups"`
	LastPickupDate string `json:"last_pickup_date,omitempty"`
	CreatedAt      string `json:"created_at,omitempty"`
}

func toProfileDTO(p *ledger.Profile) ProfileDTO {
	dto := ProfileDTO{
		ID:           p.ID,
		Email:        p.Email,
		FullName:     p.FullName,
		Role:         string(p.Role),
		GreenPoints:  p.GreenPoints,
		WeeklyStreak: p.WeeklyStreak,
		TotalPickups: p.TotalPickups,
		CreatedAt:    p.CreatedAt.Format(time.RFC3339),
	}
	if p.LastPickupDate != nil {
		dto.LastPickupDate = p.LastPickupDate.Format(time.RFC3339)
	}
	return dto
}

// CreateProfileRequest is the request to register a profile.
type CreateProfileRequest struct {
	ID       string `json:"id" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	FullName string `json:"full_name" validate:"required"`
	Role     string `json:"role" validate:"required,oneof=household collector company admin"`
}

// =============================================================================
// PICKUP TYPES
// =============================================================================

// PickupRecord is the pickup row shape shared by webhook payloads and API
// responses. Weights travel as JSON numbers or strings; decimal accepts both.
type PickupRecord struct {
	ID              string           `json:"id"`
	UserID          string           `json:"user_id"`
	CollectorID     string           `json:"collector_id,omitempty"`
	Category        string           `json:"waste_category"`
	EstimatedWeight decimal.Decimal  `json:"estimated_weight"`
	ActualWeight    *decimal.Decimal `json:"actual_weight,omitempty"`
	Status          string           `json:"status"`

	VerificationScore float64 `json:"verification_score,omitempty"`
	PointsAwarded     int     `json:"points_awarded,omitempty"`

	ScheduledDate *time.Time `json:"scheduled_date,omitempty"`
	CollectedAt   *time.Time `json:"collected_at,omitempty"`
	ProcessedAt   *time.Time `json:"processed_at,omitempty"`
	CompletedAt   *time.Time `json:"completed_at,omitempty"`
	CreatedAt     *time.Time `json:"created_at,omitempty"`
}

func (rec *PickupRecord) toPickup() *waste.Pickup {
	p := &waste.Pickup{
		ID:                rec.ID,
		UserID:            rec.UserID,
		CollectorID:       rec.CollectorID,
		Category:          waste.Category(rec.Category),
		EstimatedWeight:   rec.EstimatedWeight,
		ActualWeight:      rec.ActualWeight,
		Status:            waste.Status(rec.Status),
		VerificationScore: rec.VerificationScore,
		PointsAwarded:     rec.PointsAwarded,
		ScheduledDate:     rec.ScheduledDate,
		CollectedAt:       rec.CollectedAt,
		ProcessedAt:       rec.ProcessedAt,
		CompletedAt:       rec.CompletedAt,
	}
	if rec.CreatedAt != nil {
		p.CreatedAt = *rec.CreatedAt
	}
	return p
}

func toPickupRecord(p *waste.Pickup) PickupRecord {
	rec := PickupRecord{
		ID:                p.ID,
		UserID:            p.UserID,
		CollectorID:       p.CollectorID,
		Category:          string(p.Category),
		EstimatedWeight:   p.EstimatedWeight,
		ActualWeight:      p.ActualWeight,
		Status:            string(p.Status),
		VerificationScore: p.VerificationScore,
		PointsAwarded:     p.PointsAwarded,
		ScheduledDate:     p.ScheduledDate,
		CollectedAt:       p.CollectedAt,
		ProcessedAt:       p.ProcessedAt,
		CompletedAt:       p.CompletedAt,
	}
	if !p.CreatedAt.IsZero() {
		createdAt := p.CreatedAt
		rec.CreatedAt = &createdAt
	}
	return rec
}

// CreatePickupRequest is the request to schedule a pickup.
type CreatePickupRequest struct {
	UserID          string          `json:"user_id" validate:"required"`
	Category        string          `json:"waste_category" validate:"required"`
	EstimatedWeight decimal.Decimal `json:"estimated_weight"`
	ScheduledDate   *time.Time      `json:"scheduled_date,omitempty"`
}

// UpdateStatusRequest moves a pickup along its lifecycle. ActualWeight is
// the collector-reported mass, expected at the collected step.
type UpdateStatusRequest struct {
	Status       string           `json:"status" validate:"required"`
	ActualWeight *decimal.Decimal `json:"actual_weight,omitempty"`
}

// =============================================================================
// LEDGER TYPES
// =============================================================================

// EntryDTO represents one ledger entry in API responses.
type EntryDTO struct {
	ID           string         `json:"id"`
	Seq          int64          `json:"seq"`
	UserID       string         `json:"user_id"`
	PickupID     string         `json:"pickup_id,omitempty"`
	BadgeID      string         `json:"badge_id,omitempty"`
	Type         string         `json:"transaction_type"`
	Delta        int            `json:"points"`
	BalanceAfter int            `json:"balance_after"`
	Metadata     map[string]any `json:"metadata,omitempty"`
	CreatedAt    string         `json:"created_at"`
}

func toEntryDTO(e ledger.Entry) EntryDTO {
	return EntryDTO{
		ID:           e.ID,
		Seq:          e.Seq,
		UserID:       e.UserID,
		PickupID:     e.PickupID,
		BadgeID:      e.BadgeID,
		Type:         string(e.Type),
		Delta:        e.Delta,
		BalanceAfter: e.BalanceAfter,
		Metadata:     e.Metadata,
		CreatedAt:    e.CreatedAt.Format(time.RFC3339),
	}
}

// VerifyDTO is the balance audit result.
type VerifyDTO struct {
	UserID         string `json:"user_id"`
	ProfileBalance int    `json:"profile_balance"`
	LedgerSum      int    `json:"ledger_sum"`
	ChainIntact    bool   `json:"chain_intact"`
	Consistent     bool   `json:"consistent"`
}

// AdjustmentRequest is an admin-booked correction. Positive points book as
// bonus_points, negative as penalty.
type AdjustmentRequest struct {
	UserID string `json:"user_id" validate:"required"`
	Points int    `json:"points" validate:"required"`
	Reason string `json:"reason" validate:"required"`
	Actor  string `json:"actor" validate:"required"`
}

// RedemptionRequest spends points on a reward.
type RedemptionRequest struct {
	Points int    `json:"points" validate:"required,gt=0"`
	Reward string `json:"reward" validate:"required"`
}

// =============================================================================
// BADGE TYPES
// =============================================================================

// BadgeDTO represents a badge definition.
type BadgeDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Category    string `json:"category"`
}

func toBadgeDTO(b achievements.Badge) BadgeDTO {
	return BadgeDTO{ID: b.ID, Name: b.Name, Description: b.Description, Category: b.Category}
}

// UserBadgeDTO represents one earned badge.
type UserBadgeDTO struct {
	BadgeID  string `json:"badge_id"`
	Name     string `json:"name,omitempty"`
	EarnedAt string `json:"earned_at"`
}

// =============================================================================
// SHARED
// =============================================================================

// ErrorResponse is the JSON error envelope.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}
