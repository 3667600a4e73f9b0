package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all portfolio and trading routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/get-portfolio", h.HandleGetPortfolio)
	r.Get("/get-total-values", h.HandleGetTotalValues)

	r.Post("/add-stock", h.HandleAddStock)
	r.Post("/remove-stock", h.HandleRemoveStock)
	r.Post("/update-cash", h.HandleUpdateCash)
	r.Post("/clear-portfolio", h.HandleClearPortfolio)

	r.Post("/buy-stock", h.HandleBuyStock)
	r.Post("/sell-stock", h.HandleSellStock)
}
