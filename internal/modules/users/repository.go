// Package users provides the credential store: username/password records with
// salted bcrypt verification, backed by users.db.
package users

import (
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
)

// Repository handles user database operations
type Repository struct {
	db  *sql.DB // users.db - users table
	log zerolog.Logger
}

// NewRepository creates a new users repository
func NewRepository(db *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("repository", "users").Logger(),
	}
}

// Create registers a new user. The username must be at least 3 characters and
// the password at least 6; duplicates are rejected. Each user gets a fresh
// random salt, and the bcrypt hash covers password+salt.
func (r *Repository) Create(username, password string) error {
	if len(username) < 3 {
		return fmt.Errorf("%w: username must be at least 3 characters long", ErrInvalidCredentials)
	}
	if len(password) < 6 {
		return fmt.Errorf("%w: password must be at least 6 characters long", ErrInvalidCredentials)
	}

	var existing int64
	err := r.db.QueryRow("SELECT id FROM users WHERE username = ?", username).Scan(&existing)
	if err == nil {
		return fmt.Errorf("%w: %s", ErrUsernameTaken, username)
	}
	if err != sql.ErrNoRows {
		return fmt.Errorf("failed to check for existing user: %w", err)
	}

	salt, err := generateSalt()
	if err != nil {
		return fmt.Errorf("failed to generate salt: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password+salt), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	_, err = r.db.Exec(
		"INSERT INTO users (username, password_hash, salt, created_at) VALUES (?, ?, ?, ?)",
		username, string(hash), salt, time.Now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert user: %w", err)
	}

	r.log.Info().Str("username", username).Msg("User created")
	return nil
}

// GetByUsername retrieves a user by username.
func (r *Repository) GetByUsername(username string) (*User, error) {
	var u User
	err := r.db.QueryRow(
		"SELECT id, username, password_hash, salt, created_at FROM users WHERE username = ?",
		username,
	).Scan(&u.ID, &u.Username, &u.PasswordHash, &u.Salt, &u.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: %s", ErrUserNotFound, username)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user %s: %w", username, err)
	}
	return &u, nil
}

// GetIDByUsername returns the user id for a username.
func (r *Repository) GetIDByUsername(username string) (int64, error) {
	u, err := r.GetByUsername(username)
	if err != nil {
		return 0, err
	}
	return u.ID, nil
}

// VerifyCredentials checks a plaintext password against the stored salted
// hash. Returns false (not an error) on mismatch; errors only for missing
// users or database failures.
func (r *Repository) VerifyCredentials(username, password string) (bool, error) {
	u, err := r.GetByUsername(username)
	if err != nil {
		return false, err
	}

	err = bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password+u.Salt))
	if err == bcrypt.ErrMismatchedHashAndPassword {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to verify password for %s: %w", username, err)
	}
	return true, nil
}

// UpdatePassword re-salts and re-hashes the user's password.
func (r *Repository) UpdatePassword(username, newPassword string) error {
	if len(newPassword) < 6 {
		return fmt.Errorf("%w: new password must be at least 6 characters long", ErrInvalidCredentials)
	}

	// Ensure the user exists before rewriting credentials
	if _, err := r.GetByUsername(username); err != nil {
		return err
	}

	salt, err := generateSalt()
	if err != nil {
		return fmt.Errorf("failed to generate salt: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword+salt), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	_, err = r.db.Exec(
		"UPDATE users SET password_hash = ?, salt = ? WHERE username = ?",
		string(hash), salt, username,
	)
	if err != nil {
		return fmt.Errorf("failed to update password for %s: %w", username, err)
	}

	r.log.Info().Str("username", username).Msg("Password updated")
	return nil
}

// Delete removes a user record.
func (r *Repository) Delete(username string) error {
	result, err := r.db.Exec("DELETE FROM users WHERE username = ?", username)
	if err != nil {
		return fmt.Errorf("failed to delete user %s: %w", username, err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check delete result: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: %s", ErrUserNotFound, username)
	}

	r.log.Info().Str("username", username).Msg("User deleted")
	return nil
}

// generateSalt returns 16 random bytes hex-encoded (32 characters).
func generateSalt() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
