// Package handlers provides HTTP handlers for portfolio and trading
// operations.
package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/rs/zerolog"

	"stockfolio/internal/modules/ledger"
)

// Handler handles portfolio HTTP requests
type Handler struct {
	registry *ledger.Registry
	log      zerolog.Logger
}

// NewHandler creates a new portfolio handler
func NewHandler(registry *ledger.Registry, log zerolog.Logger) *Handler {
	return &Handler{
		registry: registry,
		log:      log.With().Str("handler", "ledger").Logger(),
	}
}

type stockRequest struct {
	Symbol   string `json:"symbol"`
	Quantity int64  `json:"quantity"`
}

type addStockRequest struct {
	Symbol      string   `json:"symbol"`
	Quantity    int64    `json:"quantity"`
	BoughtPrice *float64 `json:"bought_price"`
}

type cashRequest struct {
	Amount *float64 `json:"amount"`
}

// HandleGetPortfolio returns the merged portfolio view with fresh valuations
func (h *Handler) HandleGetPortfolio(w http.ResponseWriter, r *http.Request) {
	views, err := h.registry.Active().Portfolio(r.Context())
	if err != nil {
		h.writeLedgerError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "success",
		"portfolio": views,
	})
}

// HandleGetTotalValues returns the stock/cash/total valuation breakdown
func (h *Handler) HandleGetTotalValues(w http.ResponseWriter, r *http.Request) {
	totals, err := h.registry.Active().TotalValues(r.Context())
	if err != nil {
		h.writeLedgerError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":       "success",
		"total_values": totals,
	})
}

// HandleAddStock adds shares at a supplied price with no cash effect
func (h *Handler) HandleAddStock(w http.ResponseWriter, r *http.Request) {
	var req addStockRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid JSON payload")
		return
	}
	if req.Symbol == "" || req.BoughtPrice == nil {
		h.writeError(w, http.StatusBadRequest, "Missing required fields: symbol, quantity, bought_price")
		return
	}

	if err := h.registry.Active().AddStock(req.Symbol, req.Quantity, *req.BoughtPrice); err != nil {
		h.writeLedgerError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]string{
		"status":  "success",
		"message": fmt.Sprintf("%d shares of %s added.", req.Quantity, req.Symbol),
	})
}

// HandleRemoveStock removes shares from a holding with no cash effect
func (h *Handler) HandleRemoveStock(w http.ResponseWriter, r *http.Request) {
	var req stockRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid JSON payload")
		return
	}
	if req.Symbol == "" {
		h.writeError(w, http.StatusBadRequest, "Missing required fields: symbol, quantity")
		return
	}

	if err := h.registry.Active().RemoveStock(req.Symbol, req.Quantity); err != nil {
		h.writeLedgerError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]string{
		"status":  "success",
		"message": fmt.Sprintf("Removed %d shares of %s.", req.Quantity, req.Symbol),
	})
}

// HandleUpdateCash adds or withdraws cash and returns the new balance
func (h *Handler) HandleUpdateCash(w http.ResponseWriter, r *http.Request) {
	var req cashRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid JSON payload")
		return
	}
	if req.Amount == nil {
		h.writeError(w, http.StatusBadRequest, "Missing required field: amount")
		return
	}

	active := h.registry.Active()
	if err := active.UpdateCash(*req.Amount); err != nil {
		h.writeLedgerError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":      "success",
		"new_balance": active.CashBalance(),
	})
}

// HandleBuyStock buys shares at the current market price
func (h *Handler) HandleBuyStock(w http.ResponseWriter, r *http.Request) {
	var req stockRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid JSON payload")
		return
	}
	if req.Symbol == "" {
		h.writeError(w, http.StatusBadRequest, "Missing required fields: symbol, quantity")
		return
	}

	if err := h.registry.Active().Buy(r.Context(), req.Symbol, req.Quantity); err != nil {
		h.writeLedgerError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]string{
		"status":  "success",
		"message": fmt.Sprintf("Bought %d shares of %s.", req.Quantity, req.Symbol),
	})
}

// HandleSellStock sells shares at the current market price
func (h *Handler) HandleSellStock(w http.ResponseWriter, r *http.Request) {
	var req stockRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid JSON payload")
		return
	}
	if req.Symbol == "" {
		h.writeError(w, http.StatusBadRequest, "Missing required fields: symbol, quantity")
		return
	}

	if err := h.registry.Active().Sell(r.Context(), req.Symbol, req.Quantity); err != nil {
		h.writeLedgerError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]string{
		"status":  "success",
		"message": fmt.Sprintf("Sold %d shares of %s.", req.Quantity, req.Symbol),
	})
}

// HandleClearPortfolio resets holdings and cash balance
func (h *Handler) HandleClearPortfolio(w http.ResponseWriter, r *http.Request) {
	h.registry.Active().Clear()

	h.writeJSON(w, http.StatusOK, map[string]string{
		"status":  "success",
		"message": "Portfolio cleared.",
	})
}

// writeLedgerError translates the ledger error taxonomy into HTTP statuses:
// precondition failures are client errors, quote failures are upstream
// errors, anything else is a server error.
func (h *Handler) writeLedgerError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ledger.ErrInvalidArgument),
		errors.Is(err, ledger.ErrNotFound),
		errors.Is(err, ledger.ErrInsufficientQuantity),
		errors.Is(err, ledger.ErrInsufficientFunds):
		h.writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, ledger.ErrQuoteUnavailable):
		h.writeError(w, http.StatusBadGateway, err.Error())
	default:
		h.log.Error().Err(err).Msg("Unexpected ledger error")
		h.writeError(w, http.StatusInternalServerError, "An unexpected error occurred")
	}
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
