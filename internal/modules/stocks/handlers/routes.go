package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all stock information routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/lookup-stock/{symbol}", h.HandleLookupStock)
	r.Get("/get-price-details/{symbol}", h.HandleGetPriceDetails)
	r.Get("/fetch-historical-data/{symbol}/{start_date}/{end_date}", h.HandleFetchHistoricalData)
}
