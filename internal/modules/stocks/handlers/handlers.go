// Package handlers provides HTTP handlers for stock information lookups.
// These endpoints are thin pass-throughs over the Alpha Vantage client.
package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"stockfolio/internal/clients/alphavantage"
)

// QuoteClient is the market-data contract these handlers consume.
type QuoteClient interface {
	PriceDetails(ctx context.Context, symbol string) (*alphavantage.PriceDetails, error)
	GetOverview(ctx context.Context, symbol string) (*alphavantage.Overview, error)
	DailySeries(ctx context.Context, symbol, startDate, endDate string) ([]alphavantage.Bar, error)
}

// Handler handles stock information HTTP requests
type Handler struct {
	quotes QuoteClient
	log    zerolog.Logger
}

// NewHandler creates a new stocks handler
func NewHandler(quotes QuoteClient, log zerolog.Logger) *Handler {
	return &Handler{
		quotes: quotes,
		log:    log.With().Str("handler", "stocks").Logger(),
	}
}

// HandleLookupStock returns company overview and current price details for a
// symbol
func (h *Handler) HandleLookupStock(w http.ResponseWriter, r *http.Request) {
	symbol := chi.URLParam(r, "symbol")

	overview, err := h.quotes.GetOverview(r.Context(), symbol)
	if err != nil {
		h.log.Warn().Err(err).Str("symbol", symbol).Msg("Stock lookup failed")
		h.writeError(w, http.StatusBadGateway, err.Error())
		return
	}

	details, err := h.quotes.PriceDetails(r.Context(), symbol)
	if err != nil {
		h.log.Warn().Err(err).Str("symbol", symbol).Msg("Price lookup failed")
		h.writeError(w, http.StatusBadGateway, err.Error())
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"status": "success",
		"data": map[string]interface{}{
			"overview": overview,
			"price":    details,
		},
	})
}

// HandleGetPriceDetails returns current price details for a symbol
func (h *Handler) HandleGetPriceDetails(w http.ResponseWriter, r *http.Request) {
	symbol := chi.URLParam(r, "symbol")

	details, err := h.quotes.PriceDetails(r.Context(), symbol)
	if err != nil {
		h.log.Warn().Err(err).Str("symbol", symbol).Msg("Price details lookup failed")
		h.writeError(w, http.StatusBadGateway, err.Error())
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"status": "success",
		"data":   details,
	})
}

// HandleFetchHistoricalData returns the daily series for a symbol within a
// date range
func (h *Handler) HandleFetchHistoricalData(w http.ResponseWriter, r *http.Request) {
	symbol := chi.URLParam(r, "symbol")
	startDate := chi.URLParam(r, "start_date")
	endDate := chi.URLParam(r, "end_date")

	bars, err := h.quotes.DailySeries(r.Context(), symbol, startDate, endDate)
	if err != nil {
		h.log.Warn().
			Err(err).
			Str("symbol", symbol).
			Str("start", startDate).
			Str("end", endDate).
			Msg("Historical data fetch failed")
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"status": "success",
		"data":   bars,
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
