package users

import "errors"

// User is one credential record. Created once at registration, mutated only
// by password updates; trading operations never touch it.
type User struct {
	ID           int64
	Username     string
	PasswordHash string
	Salt         string
	CreatedAt    int64
}

var (
	// ErrUserNotFound indicates the username has no record.
	ErrUserNotFound = errors.New("user not found")

	// ErrUsernameTaken indicates a registration with an existing username.
	ErrUsernameTaken = errors.New("username already exists")

	// ErrInvalidCredentials indicates a username/password that failed validation
	// rules (length), not a failed login check.
	ErrInvalidCredentials = errors.New("invalid credentials")
)
