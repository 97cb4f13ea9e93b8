/*
store.go - Persistence contract for profiles and ledger entries

PURPOSE:
  The interface between the ledger engine and the database. Implementations
  live in store/sqlite (production) and store/memory (tests/dev).

APPEND-ONLY CONTRACT:
  There is no update or delete for entries. AppendEntry is the only write,
  and it is atomic: the entry insert and the conditional profile balance
  update either both apply or neither does.

OPTIMISTIC CONCURRENCY:
  AppendEntry carries the balance the engine read. The implementation must
  update the profile balance only if it still equals that value, and return
  ErrConcurrencyConflict otherwise. This is what keeps the profile cache and
  the ledger sum from diverging under concurrent appends for one user.
*/
package ledger

import "context"

// Store persists profiles and ledger entries.
type Store interface {
	// CreateProfile inserts a new profile. The store assigns CreatedAt.
	CreateProfile(ctx context.Context, profile *Profile) error

	// GetProfile returns the profile, or a NotFoundError.
	GetProfile(ctx context.Context, userID string) (*Profile, error)

	// AppendEntry atomically inserts the entry and sets the profile balance
	// to entry.BalanceAfter, but only while the stored balance still equals
	// expectedBalance. Returns ErrConcurrencyConflict if it does not, a
	// NotFoundError if the user is missing, and ErrDuplicateEntry if the
	// entry's idempotency key was already written. Assigns entry.Seq.
	AppendEntry(ctx context.Context, entry *Entry, expectedBalance int) error

	// Entries returns all of the user's entries in creation order.
	Entries(ctx context.Context, userID string) ([]Entry, error)

	// Leaderboard returns the top household balances, highest first. Ties
	// break on user ID so the ordering is stable.
	Leaderboard(ctx context.Context, limit int) ([]LeaderboardRow, error)
}

// LeaderboardRow is one entry of the points leaderboard.
type LeaderboardRow struct {
	UserID      string `json:"user_id"`
	FullName    string `json:"full_name"`
	GreenPoints int    `json:"green_points"`
}
