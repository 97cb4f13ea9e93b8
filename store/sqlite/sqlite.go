/*
Package sqlite provides the SQLite-backed implementation of the storage
interfaces.

PURPOSE:
  Implements ledger.Store, achievements.Store and engine.PickupStore on one
  database. The same patterns apply to PostgreSQL - only minor SQL dialect
  differences.

KEY TABLES:
  profiles        identity + cached gamification state
  pickups         waste-collection lifecycle records
  ledger_entries  immutable append-only balance log
  badges          static achievement catalog
  user_badges     (user, badge) awards, unique per pair

APPEND-ONLY ENFORCEMENT:
  ledger_entries sees INSERTs only. No UPDATE or DELETE statements exist
  for it anywhere in this package.

CONSISTENCY:
  AppendEntry runs the entry insert and a conditional profile update in one
  SQL transaction:

    UPDATE profiles SET green_points = ? WHERE id = ? AND green_points = ?

  Zero rows affected means another append won the race; the transaction
  rolls back and the caller sees ErrConcurrencyConflict. This is what keeps
  the cached balance equal to the ledger sum under concurrent events.

UNIQUE INDEXES:
  ledger_entries.idempotency_key  redelivered events cannot double-write
  user_badges(user_id, badge_id)  badges are awarded at most once

WAL MODE:
  Opened with WAL for concurrent readers; a sync.Mutex serializes writers
  within the process.

SEE ALSO:
  - ledger/store.go: the contract this implements
  - store/memory: in-memory twin used by fast tests
*/
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"
	"github.com/wastechain/green-ledger/achievements"
	"github.com/wastechain/green-ledger/ledger"
	"github.com/wastechain/green-ledger/waste"
)

// Store implements all storage interfaces using SQLite.
type Store struct {
	db *sql.DB
	mu sync.Mutex
}

// New creates a SQLite store at the given path. Use ":memory:" for tests.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS profiles (
		id TEXT PRIMARY KEY,
		email TEXT NOT NULL DEFAULT '',
		full_name TEXT NOT NULL DEFAULT '',
		role TEXT NOT NULL DEFAULT 'household',
		green_points INTEGER NOT NULL DEFAULT 0,
		weekly_streak INTEGER NOT NULL DEFAULT 0,
		total_pickups INTEGER NOT NULL DEFAULT 0,
		last_pickup_date TEXT,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS pickups (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		collector_id TEXT NOT NULL DEFAULT '',
		waste_category TEXT NOT NULL,
		estimated_weight TEXT NOT NULL DEFAULT '0',
		actual_weight TEXT,
		status TEXT NOT NULL DEFAULT 'pending',
		ai_verification_score REAL NOT NULL DEFAULT 0,
		points_awarded INTEGER NOT NULL DEFAULT 0,
		scheduled_date TEXT,
		collected_at TEXT,
		processed_at TEXT,
		completed_at TEXT,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_pickups_user
		ON pickups(user_id);

	-- Hot path for the category badge rules
	CREATE INDEX IF NOT EXISTS idx_pickups_user_status_category
		ON pickups(user_id, status, waste_category);

	-- Append-only ledger. seq orders entries globally; per-user order is
	-- the same sequence filtered by user_id.
	CREATE TABLE IF NOT EXISTS ledger_entries (
		seq INTEGER PRIMARY KEY AUTOINCREMENT,
		id TEXT NOT NULL UNIQUE,
		user_id TEXT NOT NULL,
		pickup_id TEXT,
		badge_id TEXT,
		transaction_type TEXT NOT NULL,
		points_change INTEGER NOT NULL,
		balance_after INTEGER NOT NULL,
		idempotency_key TEXT UNIQUE,
		metadata_json TEXT,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_ledger_user
		ON ledger_entries(user_id, seq);
	CREATE INDEX IF NOT EXISTS idx_ledger_pickup
		ON ledger_entries(pickup_id) WHERE pickup_id IS NOT NULL;

	CREATE TABLE IF NOT EXISTS badges (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL UNIQUE,
		description TEXT NOT NULL DEFAULT '',
		category TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS user_badges (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		badge_id TEXT NOT NULL,
		earned_at TEXT NOT NULL,
		UNIQUE(user_id, badge_id)
	);

	CREATE INDEX IF NOT EXISTS idx_user_badges_user
		ON user_badges(user_id);
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// LEDGER STORE (ledger.Store interface)
// =============================================================================

func (s *Store) CreateProfile(ctx context.Context, profile *ledger.Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	if profile.CreatedAt.IsZero() {
		profile.CreatedAt = now
	}
	profile.UpdatedAt = now

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO profiles
		(id, email, full_name, role, green_points, weekly_streak, total_pickups, last_pickup_date, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		profile.ID,
		profile.Email,
		profile.FullName,
		string(profile.Role),
		profile.GreenPoints,
		profile.WeeklyStreak,
		profile.TotalPickups,
		nullTime(profile.LastPickupDate),
		profile.CreatedAt.Format(time.RFC3339),
		profile.UpdatedAt.Format(time.RFC3339),
	)
	if isUniqueConstraintError(err) {
		return &ledger.ValidationError{Field: "id", Message: "profile already exists"}
	}
	if err != nil {
		return fmt.Errorf("failed to insert profile: %w", err)
	}
	return nil
}

func (s *Store) GetProfile(ctx context.Context, userID string) (*ledger.Profile, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, email, full_name, role, green_points, weekly_streak, total_pickups, last_pickup_date, created_at, updated_at
		FROM profiles WHERE id = ?`, userID)
	return scanProfile(row, userID)
}

func (s *Store) AppendEntry(ctx context.Context, entry *ledger.Entry, expectedBalance int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	metadataJSON, _ := json.Marshal(entry.Metadata)

	result, err := tx.ExecContext(ctx, `
		INSERT INTO ledger_entries
		(id, user_id, pickup_id, badge_id, transaction_type, points_change, balance_after, idempotency_key, metadata_json, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.ID,
		entry.UserID,
		nullString(entry.PickupID),
		nullString(entry.BadgeID),
		string(entry.Type),
		entry.Delta,
		entry.BalanceAfter,
		nullString(entry.IdempotencyKey),
		string(metadataJSON),
		entry.CreatedAt.UTC().Format(time.RFC3339Nano),
	)
	if isUniqueConstraintError(err) {
		return ledger.ErrDuplicateEntry
	}
	if err != nil {
		return fmt.Errorf("failed to append entry: %w", err)
	}

	seq, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read entry seq: %w", err)
	}

	// Conditional balance update: only apply while the balance still equals
	// what the engine read. Zero rows means a concurrent append won.
	updated, err := tx.ExecContext(ctx, `
		UPDATE profiles SET green_points = ?, updated_at = ?
		WHERE id = ? AND green_points = ?`,
		entry.BalanceAfter,
		time.Now().UTC().Format(time.RFC3339),
		entry.UserID,
		expectedBalance,
	)
	if err != nil {
		return fmt.Errorf("failed to update balance: %w", err)
	}
	rows, err := updated.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read update result: %w", err)
	}
	if rows == 0 {
		var exists int
		if err := tx.QueryRowContext(ctx,
			"SELECT COUNT(*) FROM profiles WHERE id = ?", entry.UserID).Scan(&exists); err != nil {
			return fmt.Errorf("failed to check profile: %w", err)
		}
		if exists == 0 {
			return &ledger.NotFoundError{Kind: "user", ID: entry.UserID}
		}
		return ledger.ErrConcurrencyConflict
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit entry: %w", err)
	}
	entry.Seq = seq
	return nil
}

func (s *Store) Entries(ctx context.Context, userID string) ([]ledger.Entry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT seq, id, user_id, pickup_id, badge_id, transaction_type, points_change, balance_after, idempotency_key, metadata_json, created_at
		FROM ledger_entries
		WHERE user_id = ?
		ORDER BY seq ASC`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query entries: %w", err)
	}
	defer rows.Close()

	var entries []ledger.Entry
	for rows.Next() {
		var (
			entry        ledger.Entry
			pickupID     sql.NullString
			badgeID      sql.NullString
			idemKey      sql.NullString
			metadataJSON sql.NullString
			createdAt    string
		)
		if err := rows.Scan(&entry.Seq, &entry.ID, &entry.UserID, &pickupID, &badgeID,
			(*string)(&entry.Type), &entry.Delta, &entry.BalanceAfter, &idemKey, &metadataJSON, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan entry: %w", err)
		}
		entry.PickupID = pickupID.String
		entry.BadgeID = badgeID.String
		entry.IdempotencyKey = idemKey.String
		if metadataJSON.Valid && metadataJSON.String != "" {
			_ = json.Unmarshal([]byte(metadataJSON.String), &entry.Metadata)
		}
		entry.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// =============================================================================
// PICKUP STORE (engine.PickupStore interface)
// =============================================================================

func (s *Store) CreatePickup(ctx context.Context, pickup *waste.Pickup) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	if pickup.CreatedAt.IsZero() {
		pickup.CreatedAt = now
	}
	pickup.UpdatedAt = now
	if pickup.Status == "" {
		pickup.Status = waste.StatusPending
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO pickups
		(id, user_id, collector_id, waste_category, estimated_weight, actual_weight, status,
		 ai_verification_score, points_awarded, scheduled_date, collected_at, processed_at, completed_at,
		 created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		pickup.ID,
		pickup.UserID,
		pickup.CollectorID,
		string(pickup.Category),
		pickup.EstimatedWeight.String(),
		nullDecimal(pickup.ActualWeight),
		string(pickup.Status),
		pickup.VerificationScore,
		pickup.PointsAwarded,
		nullTime(pickup.ScheduledDate),
		nullTime(pickup.CollectedAt),
		nullTime(pickup.ProcessedAt),
		nullTime(pickup.CompletedAt),
		pickup.CreatedAt.Format(time.RFC3339),
		pickup.UpdatedAt.Format(time.RFC3339),
	)
	if isUniqueConstraintError(err) {
		return &ledger.ValidationError{Field: "id", Message: "pickup already exists"}
	}
	if err != nil {
		return fmt.Errorf("failed to insert pickup: %w", err)
	}
	return nil
}

func (s *Store) GetPickup(ctx context.Context, pickupID string) (*waste.Pickup, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, user_id, collector_id, waste_category, estimated_weight, actual_weight, status,
		       ai_verification_score, points_awarded, scheduled_date, collected_at, processed_at, completed_at,
		       created_at, updated_at
		FROM pickups WHERE id = ?`, pickupID)
	return scanPickup(row, pickupID)
}

func (s *Store) SetVerification(ctx context.Context, pickupID string, score float64, points int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.execOnPickup(ctx, pickupID, `
		UPDATE pickups SET ai_verification_score = ?, points_awarded = ?, updated_at = ?
		WHERE id = ?`,
		score, points, time.Now().UTC().Format(time.RFC3339), pickupID)
}

func (s *Store) CountUserPickups(ctx context.Context, userID string) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM pickups WHERE user_id = ?", userID).Scan(&count)
	return count, err
}

func (s *Store) UpdatePickupStatus(ctx context.Context, pickupID string, to waste.Status, at time.Time, actualWeightKg *decimal.Decimal) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stampColumn := ""
	switch to {
	case waste.StatusCollected:
		stampColumn = "collected_at"
	case waste.StatusProcessed:
		stampColumn = "processed_at"
	case waste.StatusCompleted:
		stampColumn = "completed_at"
	}

	query := "UPDATE pickups SET status = ?, updated_at = ?"
	args := []any{string(to), time.Now().UTC().Format(time.RFC3339)}
	if stampColumn != "" {
		query += ", " + stampColumn + " = ?"
		args = append(args, at.UTC().Format(time.RFC3339))
	}
	if actualWeightKg != nil {
		query += ", actual_weight = ?"
		args = append(args, actualWeightKg.String())
	}
	query += " WHERE id = ?"
	args = append(args, pickupID)

	return s.execOnPickup(ctx, pickupID, query, args...)
}

func (s *Store) AddPickupPoints(ctx context.Context, pickupID string, delta int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if delta < 0 {
		return &ledger.ValidationError{Field: "points", Message: "award increment must be non-negative"}
	}
	return s.execOnPickup(ctx, pickupID, `
		UPDATE pickups SET points_awarded = points_awarded + ?, updated_at = ?
		WHERE id = ?`,
		delta, time.Now().UTC().Format(time.RFC3339), pickupID)
}

func (s *Store) UpdateProfileProgress(ctx context.Context, userID string, streak, totalPickups int, lastPickup time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	result, err := s.db.ExecContext(ctx, `
		UPDATE profiles SET weekly_streak = ?, total_pickups = ?, last_pickup_date = ?, updated_at = ?
		WHERE id = ?`,
		streak,
		totalPickups,
		lastPickup.UTC().Format(time.RFC3339),
		time.Now().UTC().Format(time.RFC3339),
		userID,
	)
	if err != nil {
		return fmt.Errorf("failed to update profile progress: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return &ledger.NotFoundError{Kind: "user", ID: userID}
	}
	return nil
}

func (s *Store) execOnPickup(ctx context.Context, pickupID, query string, args ...any) error {
	result, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update pickup: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return &ledger.NotFoundError{Kind: "pickup", ID: pickupID}
	}
	return nil
}

// =============================================================================
// ACHIEVEMENTS STORE (achievements.Store interface)
// =============================================================================

func (s *Store) SeedBadges(ctx context.Context, badges []achievements.Badge) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, badge := range badges {
		if badge.CreatedAt.IsZero() {
			badge.CreatedAt = time.Now().UTC()
		}
		_, err := s.db.ExecContext(ctx, `
			INSERT OR IGNORE INTO badges (id, name, description, category, created_at)
			VALUES (?, ?, ?, ?, ?)`,
			badge.ID,
			badge.Name,
			badge.Description,
			badge.Category,
			badge.CreatedAt.Format(time.RFC3339),
		)
		if err != nil {
			return fmt.Errorf("failed to seed badge %q: %w", badge.Name, err)
		}
	}
	return nil
}

func (s *Store) ListBadges(ctx context.Context) ([]achievements.Badge, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, name, description, category, created_at FROM badges ORDER BY name ASC")
	if err != nil {
		return nil, fmt.Errorf("failed to query badges: %w", err)
	}
	defer rows.Close()

	var badges []achievements.Badge
	for rows.Next() {
		var (
			badge     achievements.Badge
			createdAt string
		)
		if err := rows.Scan(&badge.ID, &badge.Name, &badge.Description, &badge.Category, &createdAt); err != nil {
			return nil, err
		}
		badge.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		badges = append(badges, badge)
	}
	return badges, rows.Err()
}

func (s *Store) GetBadgeByName(ctx context.Context, name string) (*achievements.Badge, error) {
	var (
		badge     achievements.Badge
		createdAt string
	)
	err := s.db.QueryRowContext(ctx,
		"SELECT id, name, description, category, created_at FROM badges WHERE name = ? COLLATE NOCASE",
		name).Scan(&badge.ID, &badge.Name, &badge.Description, &badge.Category, &createdAt)
	if err == sql.ErrNoRows {
		return nil, &ledger.NotFoundError{Kind: "badge", ID: name}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query badge: %w", err)
	}
	badge.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return &badge, nil
}

func (s *Store) ListUserBadges(ctx context.Context, userID string) ([]achievements.UserBadge, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, badge_id, earned_at FROM user_badges
		WHERE user_id = ? ORDER BY earned_at ASC`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query user badges: %w", err)
	}
	defer rows.Close()

	var awards []achievements.UserBadge
	for rows.Next() {
		var (
			award    achievements.UserBadge
			earnedAt string
		)
		if err := rows.Scan(&award.ID, &award.UserID, &award.BadgeID, &earnedAt); err != nil {
			return nil, err
		}
		award.EarnedAt, _ = time.Parse(time.RFC3339, earnedAt)
		awards = append(awards, award)
	}
	return awards, rows.Err()
}

func (s *Store) HasBadge(ctx context.Context, userID, badgeID string) (bool, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM user_badges WHERE user_id = ? AND badge_id = ?",
		userID, badgeID).Scan(&count)
	return count > 0, err
}

func (s *Store) AwardBadge(ctx context.Context, award achievements.UserBadge) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO user_badges (id, user_id, badge_id, earned_at)
		VALUES (?, ?, ?, ?)`,
		award.ID,
		award.UserID,
		award.BadgeID,
		award.EarnedAt.UTC().Format(time.RFC3339),
	)
	if isUniqueConstraintError(err) {
		// At-most-once: the pair already exists.
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to award badge: %w", err)
	}
	return true, nil
}

func (s *Store) CategoryStats(ctx context.Context, userID string) (achievements.Stats, error) {
	stats := achievements.Stats{
		CategoryWeightKg: make(map[waste.Category]decimal.Decimal),
		CategoryCount:    make(map[waste.Category]int),
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT waste_category, actual_weight FROM pickups
		WHERE user_id = ? AND status = ?`,
		userID, string(waste.StatusCompleted))
	if err != nil {
		return stats, fmt.Errorf("failed to query category stats: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			category string
			weight   sql.NullString
		)
		if err := rows.Scan(&category, &weight); err != nil {
			return stats, err
		}
		cat := waste.Category(category)
		stats.CategoryCount[cat]++
		if weight.Valid {
			kg, err := decimal.NewFromString(weight.String)
			if err == nil {
				stats.CategoryWeightKg[cat] = stats.CategoryWeightKg[cat].Add(kg)
			}
		}
	}
	return stats, rows.Err()
}

// =============================================================================
// READ HELPERS
// =============================================================================

// Leaderboard returns the top household balances.
func (s *Store) Leaderboard(ctx context.Context, limit int) ([]ledger.LeaderboardRow, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, full_name, green_points FROM profiles
		WHERE role = ?
		ORDER BY green_points DESC, id ASC
		LIMIT ?`,
		string(ledger.RoleHousehold), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query leaderboard: %w", err)
	}
	defer rows.Close()

	var board []ledger.LeaderboardRow
	for rows.Next() {
		var row ledger.LeaderboardRow
		if err := rows.Scan(&row.UserID, &row.FullName, &row.GreenPoints); err != nil {
			return nil, err
		}
		board = append(board, row)
	}
	return board, rows.Err()
}

// =============================================================================
// SCAN HELPERS
// =============================================================================

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProfile(row rowScanner, userID string) (*ledger.Profile, error) {
	var (
		profile    ledger.Profile
		lastPickup sql.NullString
		createdAt  string
		updatedAt  string
	)
	err := row.Scan(&profile.ID, &profile.Email, &profile.FullName, (*string)(&profile.Role),
		&profile.GreenPoints, &profile.WeeklyStreak, &profile.TotalPickups,
		&lastPickup, &createdAt, &updatedAt)
	if err == sql.ErrNoRows {
		return nil, &ledger.NotFoundError{Kind: "user", ID: userID}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan profile: %w", err)
	}
	if lastPickup.Valid {
		t, err := time.Parse(time.RFC3339, lastPickup.String)
		if err == nil {
			profile.LastPickupDate = &t
		}
	}
	profile.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	profile.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
	return &profile, nil
}

func scanPickup(row rowScanner, pickupID string) (*waste.Pickup, error) {
	var (
		pickup      waste.Pickup
		estWeight   string
		actWeight   sql.NullString
		scheduled   sql.NullString
		collectedAt sql.NullString
		processedAt sql.NullString
		completedAt sql.NullString
		createdAt   string
		updatedAt   string
	)
	err := row.Scan(&pickup.ID, &pickup.UserID, &pickup.CollectorID, (*string)(&pickup.Category),
		&estWeight, &actWeight, (*string)(&pickup.Status),
		&pickup.VerificationScore, &pickup.PointsAwarded,
		&scheduled, &collectedAt, &processedAt, &completedAt, &createdAt, &updatedAt)
	if err == sql.ErrNoRows {
		return nil, &ledger.NotFoundError{Kind: "pickup", ID: pickupID}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan pickup: %w", err)
	}

	pickup.EstimatedWeight, _ = decimal.NewFromString(estWeight)
	if actWeight.Valid {
		kg, err := decimal.NewFromString(actWeight.String)
		if err == nil {
			pickup.ActualWeight = &kg
		}
	}
	pickup.ScheduledDate = parseNullTime(scheduled)
	pickup.CollectedAt = parseNullTime(collectedAt)
	pickup.ProcessedAt = parseNullTime(processedAt)
	pickup.CompletedAt = parseNullTime(completedAt)
	pickup.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	pickup.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
	return &pickup, nil
}

func parseNullTime(ns sql.NullString) *time.Time {
	if !ns.Valid || ns.String == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339, ns.String)
	if err != nil {
		return nil
	}
	return &t
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func nullTime(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: t.UTC().Format(time.RFC3339), Valid: true}
}

func nullDecimal(d *decimal.Decimal) sql.NullString {
	if d == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: d.String(), Valid: true}
}

func isUniqueConstraintError(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
