// Package sessions persists per-user ledger snapshots across login/logout,
// backed by sessions.db. The snapshot blob is msgpack-encoded; the ledger
// itself owns no persistence format.
package sessions

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/vmihailenco/msgpack/v5"

	"stockfolio/internal/modules/ledger"
)

// ErrSessionNotFound indicates a logout for a user with no stored session.
var ErrSessionNotFound = errors.New("session not found")

// Repository handles session database operations
type Repository struct {
	db  *sql.DB // sessions.db - sessions table
	log zerolog.Logger
}

// NewRepository creates a new sessions repository
func NewRepository(db *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("repository", "sessions").Logger(),
	}
}

// Login restores the user's stored snapshot into the given ledger. When no
// session exists yet, a new one with an empty snapshot is created and the
// ledger starts fresh. Either way the ledger is cleared first so login
// always yields exactly the persisted state.
func (r *Repository) Login(userID int64, l *ledger.Ledger) error {
	var blob []byte
	err := r.db.QueryRow("SELECT snapshot FROM sessions WHERE user_id = ?", userID).Scan(&blob)

	if err == sql.ErrNoRows {
		r.log.Info().Int64("user_id", userID).Msg("No session found, creating new session")

		empty, err := msgpack.Marshal(ledger.Snapshot{Holdings: map[string]ledger.Holding{}})
		if err != nil {
			return fmt.Errorf("failed to encode empty snapshot: %w", err)
		}

		_, err = r.db.Exec(
			"INSERT INTO sessions (id, user_id, snapshot, updated_at) VALUES (?, ?, ?, ?)",
			uuid.NewString(), userID, empty, time.Now().Unix(),
		)
		if err != nil {
			return fmt.Errorf("failed to create session for user %d: %w", userID, err)
		}

		l.Clear()
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to load session for user %d: %w", userID, err)
	}

	var snap ledger.Snapshot
	if err := msgpack.Unmarshal(blob, &snap); err != nil {
		return fmt.Errorf("failed to decode snapshot for user %d: %w", userID, err)
	}

	l.Clear()
	if err := l.Restore(snap); err != nil {
		return fmt.Errorf("stored snapshot for user %d is invalid: %w", userID, err)
	}

	r.log.Info().
		Int64("user_id", userID).
		Int("holdings", len(snap.Holdings)).
		Msg("Session restored")

	return nil
}

// Logout persists the ledger's snapshot into the user's session row and then
// clears the in-memory ledger. Fails with ErrSessionNotFound when the user
// has no session (login must precede logout).
func (r *Repository) Logout(userID int64, l *ledger.Ledger) error {
	snap := l.Snapshot()

	blob, err := msgpack.Marshal(snap)
	if err != nil {
		return fmt.Errorf("failed to encode snapshot for user %d: %w", userID, err)
	}

	result, err := r.db.Exec(
		"UPDATE sessions SET snapshot = ?, updated_at = ? WHERE user_id = ?",
		blob, time.Now().Unix(), userID,
	)
	if err != nil {
		return fmt.Errorf("failed to save session for user %d: %w", userID, err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check session update result: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: user %d", ErrSessionNotFound, userID)
	}

	l.Clear()

	r.log.Info().
		Int64("user_id", userID).
		Int("holdings", len(snap.Holdings)).
		Msg("Session persisted")

	return nil
}
