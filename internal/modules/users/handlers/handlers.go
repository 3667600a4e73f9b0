// Package handlers provides HTTP handlers for user management and
// authentication.
package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/rs/zerolog"

	"stockfolio/internal/modules/ledger"
	"stockfolio/internal/modules/sessions"
	"stockfolio/internal/modules/users"
)

// Handler handles user management HTTP requests. Login and logout also touch
// the session store and the ledger registry: login restores the user's
// persisted snapshot into their ledger and marks them active, logout persists
// the snapshot back.
type Handler struct {
	users    *users.Repository
	sessions *sessions.Repository
	registry *ledger.Registry
	log      zerolog.Logger
}

// NewHandler creates a new users handler
func NewHandler(
	usersRepo *users.Repository,
	sessionsRepo *sessions.Repository,
	registry *ledger.Registry,
	log zerolog.Logger,
) *Handler {
	return &Handler{
		users:    usersRepo,
		sessions: sessionsRepo,
		registry: registry,
		log:      log.With().Str("handler", "users").Logger(),
	}
}

type credentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type usernameRequest struct {
	Username string `json:"username"`
}

type updatePasswordRequest struct {
	Username    string `json:"username"`
	OldPassword string `json:"old_password"`
	NewPassword string `json:"new_password"`
}

// HandleCreateUser registers a new user
func (h *Handler) HandleCreateUser(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid JSON payload")
		return
	}
	if req.Username == "" || req.Password == "" {
		h.writeError(w, http.StatusBadRequest, "Invalid input, both username and password are required")
		return
	}

	if err := h.users.Create(req.Username, req.Password); err != nil {
		switch {
		case errors.Is(err, users.ErrUsernameTaken), errors.Is(err, users.ErrInvalidCredentials):
			h.writeError(w, http.StatusBadRequest, err.Error())
		default:
			h.log.Error().Err(err).Str("username", req.Username).Msg("Failed to create user")
			h.writeError(w, http.StatusInternalServerError, "An unexpected error occurred")
		}
		return
	}

	h.writeJSON(w, http.StatusCreated, map[string]string{
		"status":   "user added",
		"username": req.Username,
	})
}

// HandleDeleteUser removes a user record
func (h *Handler) HandleDeleteUser(w http.ResponseWriter, r *http.Request) {
	var req usernameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid JSON payload")
		return
	}
	if req.Username == "" {
		h.writeError(w, http.StatusBadRequest, "Invalid input, username is required")
		return
	}

	if err := h.users.Delete(req.Username); err != nil {
		if errors.Is(err, users.ErrUserNotFound) {
			h.writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.log.Error().Err(err).Str("username", req.Username).Msg("Failed to delete user")
		h.writeError(w, http.StatusInternalServerError, "An unexpected error occurred")
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]string{
		"status":   "user deleted",
		"username": req.Username,
	})
}

// HandleLogin verifies credentials and restores the user's session snapshot
// into their ledger
func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request payload. 'username' and 'password' are required.")
		return
	}
	if req.Username == "" || req.Password == "" {
		h.writeError(w, http.StatusBadRequest, "Invalid request payload. 'username' and 'password' are required.")
		return
	}

	valid, err := h.users.VerifyCredentials(req.Username, req.Password)
	if err != nil && !errors.Is(err, users.ErrUserNotFound) {
		h.log.Error().Err(err).Str("username", req.Username).Msg("Credential check failed")
		h.writeError(w, http.StatusInternalServerError, "An unexpected error occurred")
		return
	}
	if err != nil || !valid {
		h.log.Warn().Str("username", req.Username).Msg("Login failed")
		h.writeError(w, http.StatusUnauthorized, "Invalid username or password.")
		return
	}

	userID, err := h.users.GetIDByUsername(req.Username)
	if err != nil {
		h.log.Error().Err(err).Str("username", req.Username).Msg("Failed to resolve user id")
		h.writeError(w, http.StatusInternalServerError, "An unexpected error occurred")
		return
	}

	if err := h.sessions.Login(userID, h.registry.ForUser(userID)); err != nil {
		h.log.Error().Err(err).Str("username", req.Username).Msg("Failed to restore session")
		h.writeError(w, http.StatusInternalServerError, "An unexpected error occurred")
		return
	}

	h.registry.SetActive(userID)

	h.writeJSON(w, http.StatusOK, map[string]string{
		"message": fmt.Sprintf("User %s logged in successfully.", req.Username),
	})
}

// HandleLogout persists the user's ledger snapshot and clears their in-memory
// state
func (h *Handler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	var req usernameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request payload. 'username' is required.")
		return
	}
	if req.Username == "" {
		h.writeError(w, http.StatusBadRequest, "Invalid request payload. 'username' is required.")
		return
	}

	userID, err := h.users.GetIDByUsername(req.Username)
	if err != nil {
		if errors.Is(err, users.ErrUserNotFound) {
			h.writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.log.Error().Err(err).Str("username", req.Username).Msg("Failed to resolve user id")
		h.writeError(w, http.StatusInternalServerError, "An unexpected error occurred")
		return
	}

	if err := h.sessions.Logout(userID, h.registry.ForUser(userID)); err != nil {
		if errors.Is(err, sessions.ErrSessionNotFound) {
			h.writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.log.Error().Err(err).Str("username", req.Username).Msg("Failed to persist session")
		h.writeError(w, http.StatusInternalServerError, "An unexpected error occurred")
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]string{
		"message": fmt.Sprintf("User %s logged out successfully.", req.Username),
	})
}

// HandleUpdatePassword verifies the old password and replaces it
func (h *Handler) HandleUpdatePassword(w http.ResponseWriter, r *http.Request) {
	var req updatePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid JSON payload")
		return
	}
	if req.Username == "" || req.OldPassword == "" || req.NewPassword == "" {
		h.writeError(w, http.StatusBadRequest, "Username, old_password, and new_password are required")
		return
	}

	valid, err := h.users.VerifyCredentials(req.Username, req.OldPassword)
	if err != nil {
		if errors.Is(err, users.ErrUserNotFound) {
			h.writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.log.Error().Err(err).Str("username", req.Username).Msg("Credential check failed")
		h.writeError(w, http.StatusInternalServerError, "An unexpected error occurred")
		return
	}
	if !valid {
		h.writeError(w, http.StatusUnauthorized, "Old password is incorrect")
		return
	}

	if err := h.users.UpdatePassword(req.Username, req.NewPassword); err != nil {
		if errors.Is(err, users.ErrInvalidCredentials) {
			h.writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.log.Error().Err(err).Str("username", req.Username).Msg("Failed to update password")
		h.writeError(w, http.StatusInternalServerError, "An unexpected error occurred")
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]string{
		"message": "Password updated successfully",
	})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
