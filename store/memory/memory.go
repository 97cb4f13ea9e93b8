/*
Package memory provides an in-memory Store implementation for tests and dev.

Semantics match store/sqlite: atomic conditional balance updates, idempotency
keys, and the unique (user, badge) constraint - all under one mutex instead
of database transactions.
*/
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"github.com/wastechain/green-ledger/achievements"
	"github.com/wastechain/green-ledger/ledger"
	"github.com/wastechain/green-ledger/waste"
)

// =============================================================================
// MEMORY STORE
// =============================================================================

type Store struct {
	mu sync.RWMutex

	profiles map[string]*ledger.Profile
	entries  map[string][]ledger.Entry // by user, in append order
	seq      map[string]int64
	idemKeys map[string]bool

	pickups map[string]*waste.Pickup

	badges     []achievements.Badge
	userBadges map[string][]achievements.UserBadge // by user
}

func New() *Store {
	return &Store{
		profiles:   make(map[string]*ledger.Profile),
		entries:    make(map[string][]ledger.Entry),
		seq:        make(map[string]int64),
		idemKeys:   make(map[string]bool),
		pickups:    make(map[string]*waste.Pickup),
		userBadges: make(map[string][]achievements.UserBadge),
	}
}

// =============================================================================
// LEDGER STORE (ledger.Store interface)
// =============================================================================

func (s *Store) CreateProfile(_ context.Context, profile *ledger.Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.profiles[profile.ID]; exists {
		return &ledger.ValidationError{Field: "id", Message: "profile already exists"}
	}
	now := time.Now().UTC()
	if profile.CreatedAt.IsZero() {
		profile.CreatedAt = now
	}
	profile.UpdatedAt = now

	clone := *profile
	s.profiles[profile.ID] = &clone
	return nil
}

func (s *Store) GetProfile(_ context.Context, userID string) (*ledger.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.getProfileLocked(userID)
}

func (s *Store) getProfileLocked(userID string) (*ledger.Profile, error) {
	profile, ok := s.profiles[userID]
	if !ok {
		return nil, &ledger.NotFoundError{Kind: "user", ID: userID}
	}
	clone := *profile
	return &clone, nil
}

func (s *Store) AppendEntry(_ context.Context, entry *ledger.Entry, expectedBalance int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	profile, ok := s.profiles[entry.UserID]
	if !ok {
		return &ledger.NotFoundError{Kind: "user", ID: entry.UserID}
	}
	if entry.IdempotencyKey != "" && s.idemKeys[entry.IdempotencyKey] {
		return ledger.ErrDuplicateEntry
	}
	if profile.GreenPoints != expectedBalance {
		return ledger.ErrConcurrencyConflict
	}

	s.seq[entry.UserID]++
	entry.Seq = s.seq[entry.UserID]

	s.entries[entry.UserID] = append(s.entries[entry.UserID], *entry)
	if entry.IdempotencyKey != "" {
		s.idemKeys[entry.IdempotencyKey] = true
	}
	profile.GreenPoints = entry.BalanceAfter
	profile.UpdatedAt = time.Now().UTC()
	return nil
}

func (s *Store) Entries(_ context.Context, userID string) ([]ledger.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries := make([]ledger.Entry, len(s.entries[userID]))
	copy(entries, s.entries[userID])
	return entries, nil
}

func (s *Store) Leaderboard(_ context.Context, limit int) ([]ledger.LeaderboardRow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var board []ledger.LeaderboardRow
	for _, profile := range s.profiles {
		if profile.Role != ledger.RoleHousehold {
			continue
		}
		board = append(board, ledger.LeaderboardRow{
			UserID:      profile.ID,
			FullName:    profile.FullName,
			GreenPoints: profile.GreenPoints,
		})
	}
	sort.Slice(board, func(i, j int) bool {
		if board[i].GreenPoints != board[j].GreenPoints {
			return board[i].GreenPoints > board[j].GreenPoints
		}
		return board[i].UserID < board[j].UserID
	})
	if limit > 0 && len(board) > limit {
		board = board[:limit]
	}
	return board, nil
}

// =============================================================================
// PICKUP STORE (engine.PickupStore interface)
// =============================================================================

func (s *Store) CreatePickup(_ context.Context, pickup *waste.Pickup) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.pickups[pickup.ID]; exists {
		return &ledger.ValidationError{Field: "id", Message: "pickup already exists"}
	}
	now := time.Now().UTC()
	if pickup.CreatedAt.IsZero() {
		pickup.CreatedAt = now
	}
	pickup.UpdatedAt = now

	clone := *pickup
	s.pickups[pickup.ID] = &clone
	return nil
}

func (s *Store) GetPickup(_ context.Context, pickupID string) (*waste.Pickup, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	pickup, ok := s.pickups[pickupID]
	if !ok {
		return nil, &ledger.NotFoundError{Kind: "pickup", ID: pickupID}
	}
	clone := *pickup
	return &clone, nil
}

func (s *Store) SetVerification(_ context.Context, pickupID string, score float64, points int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	pickup, ok := s.pickups[pickupID]
	if !ok {
		return &ledger.NotFoundError{Kind: "pickup", ID: pickupID}
	}
	pickup.VerificationScore = score
	pickup.PointsAwarded = points
	pickup.UpdatedAt = time.Now().UTC()
	return nil
}

func (s *Store) CountUserPickups(_ context.Context, userID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, pickup := range s.pickups {
		if pickup.UserID == userID {
			count++
		}
	}
	return count, nil
}

func (s *Store) UpdatePickupStatus(_ context.Context, pickupID string, to waste.Status, at time.Time, actualWeightKg *decimal.Decimal) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	pickup, ok := s.pickups[pickupID]
	if !ok {
		return &ledger.NotFoundError{Kind: "pickup", ID: pickupID}
	}

	pickup.Status = to
	switch to {
	case waste.StatusCollected:
		pickup.CollectedAt = &at
	case waste.StatusProcessed:
		pickup.ProcessedAt = &at
	case waste.StatusCompleted:
		pickup.CompletedAt = &at
	}
	if actualWeightKg != nil {
		weight := *actualWeightKg
		pickup.ActualWeight = &weight
	}
	pickup.UpdatedAt = time.Now().UTC()
	return nil
}

func (s *Store) AddPickupPoints(_ context.Context, pickupID string, delta int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	pickup, ok := s.pickups[pickupID]
	if !ok {
		return &ledger.NotFoundError{Kind: "pickup", ID: pickupID}
	}
	if delta < 0 {
		return &ledger.ValidationError{Field: "points", Message: "award increment must be non-negative"}
	}
	pickup.PointsAwarded += delta
	pickup.UpdatedAt = time.Now().UTC()
	return nil
}

func (s *Store) UpdateProfileProgress(_ context.Context, userID string, streak, totalPickups int, lastPickup time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	profile, ok := s.profiles[userID]
	if !ok {
		return &ledger.NotFoundError{Kind: "user", ID: userID}
	}
	profile.WeeklyStreak = streak
	profile.TotalPickups = totalPickups
	profile.LastPickupDate = &lastPickup
	profile.UpdatedAt = time.Now().UTC()
	return nil
}

// =============================================================================
// ACHIEVEMENTS STORE (achievements.Store interface)
// =============================================================================

func (s *Store) SeedBadges(_ context.Context, badges []achievements.Badge) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, badge := range badges {
		if s.findBadgeByNameLocked(badge.Name) != nil {
			continue
		}
		if badge.CreatedAt.IsZero() {
			badge.CreatedAt = time.Now().UTC()
		}
		s.badges = append(s.badges, badge)
	}
	return nil
}

func (s *Store) ListBadges(_ context.Context) ([]achievements.Badge, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	badges := make([]achievements.Badge, len(s.badges))
	copy(badges, s.badges)
	return badges, nil
}

func (s *Store) GetBadgeByName(_ context.Context, name string) (*achievements.Badge, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if badge := s.findBadgeByNameLocked(name); badge != nil {
		clone := *badge
		return &clone, nil
	}
	return nil, &ledger.NotFoundError{Kind: "badge", ID: name}
}

func (s *Store) findBadgeByNameLocked(name string) *achievements.Badge {
	for i := range s.badges {
		if strings.EqualFold(s.badges[i].Name, name) {
			return &s.badges[i]
		}
	}
	return nil
}

func (s *Store) ListUserBadges(_ context.Context, userID string) ([]achievements.UserBadge, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	awards := make([]achievements.UserBadge, len(s.userBadges[userID]))
	copy(awards, s.userBadges[userID])
	sort.Slice(awards, func(i, j int) bool { return awards[i].EarnedAt.Before(awards[j].EarnedAt) })
	return awards, nil
}

func (s *Store) HasBadge(_ context.Context, userID, badgeID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.hasBadgeLocked(userID, badgeID), nil
}

func (s *Store) hasBadgeLocked(userID, badgeID string) bool {
	for _, award := range s.userBadges[userID] {
		if award.BadgeID == badgeID {
			return true
		}
	}
	return false
}

func (s *Store) AwardBadge(_ context.Context, award achievements.UserBadge) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.hasBadgeLocked(award.UserID, award.BadgeID) {
		return false, nil
	}
	s.userBadges[award.UserID] = append(s.userBadges[award.UserID], award)
	return true, nil
}

func (s *Store) CategoryStats(_ context.Context, userID string) (achievements.Stats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := achievements.Stats{
		CategoryWeightKg: make(map[waste.Category]decimal.Decimal),
		CategoryCount:    make(map[waste.Category]int),
	}
	for _, pickup := range s.pickups {
		if pickup.UserID != userID || pickup.Status != waste.StatusCompleted {
			continue
		}
		stats.CategoryCount[pickup.Category]++
		stats.CategoryWeightKg[pickup.Category] =
			stats.CategoryWeightKg[pickup.Category].Add(pickup.ActualWeightOrZero())
	}
	return stats, nil
}
