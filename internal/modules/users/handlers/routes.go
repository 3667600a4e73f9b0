package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all user management routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/create-user", h.HandleCreateUser)
	r.Delete("/delete-user", h.HandleDeleteUser)
	r.Post("/login", h.HandleLogin)
	r.Post("/logout", h.HandleLogout)
	r.Post("/update-password", h.HandleUpdatePassword)
}
