// Package ledger implements the in-memory portfolio accounting engine: a
// per-user cash balance plus symbol holdings with weighted-average cost basis.
//
// Invariants held after every operation:
//   - cash balance >= 0
//   - every holding has quantity > 0 and avg price >= 0
//   - avg price is the quantity-weighted mean of the purchase prices
//     contributing to the currently-held quantity (sells never change it)
//
// Every operation is a single logical transaction: all preconditions,
// including the quote fetch for buys and sells, are validated before any
// mutation, so a failed operation never leaves partial state behind.
package ledger

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
)

// Ledger is the per-user record of cash and holdings. Operations are
// multi-step reads-then-writes over shared state, so each one runs under the
// ledger's mutex; two requests for the same user serialize here.
type Ledger struct {
	mu       sync.Mutex
	cash     float64
	holdings map[string]Holding
	quotes   QuoteProvider
	log      zerolog.Logger
}

// New creates an empty ledger with a zero cash balance.
func New(quotes QuoteProvider, log zerolog.Logger) *Ledger {
	return &Ledger{
		holdings: make(map[string]Holding),
		quotes:   quotes,
		log:      log.With().Str("component", "ledger").Logger(),
	}
}

// AddStock inserts shares at an explicitly supplied price, with no cash
// effect. This is the manual portfolio edit, distinct from Buy which fetches
// the market price and debits cash; both stay public on purpose.
//
// If the symbol is already held at (q0, p0), the new average price is the
// weighted mean (q0*p0 + quantity*price) / (q0+quantity).
func (l *Ledger) AddStock(symbol string, quantity int64, price float64) error {
	if quantity < 1 {
		return fmt.Errorf("%w: quantity must be at least 1, got %d", ErrInvalidArgument, quantity)
	}
	if price < 0 {
		return fmt.Errorf("%w: price must be non-negative, got %f", ErrInvalidArgument, price)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	l.applyAdd(symbol, quantity, price)

	l.log.Info().
		Str("symbol", symbol).
		Int64("quantity", quantity).
		Float64("price", price).
		Msg("Stock added to portfolio")

	return nil
}

// applyAdd merges shares into the holdings map. Caller holds the mutex and
// has already validated quantity and price.
func (l *Ledger) applyAdd(symbol string, quantity int64, price float64) {
	h, ok := l.holdings[symbol]
	if !ok {
		l.holdings[symbol] = Holding{Quantity: quantity, AvgPrice: price}
		return
	}

	// Weighted average over float64 operands; integer truncation of the
	// numerator would corrupt the cost basis.
	newQuantity := h.Quantity + quantity
	newAvg := (float64(h.Quantity)*h.AvgPrice + float64(quantity)*price) / float64(newQuantity)
	l.holdings[symbol] = Holding{Quantity: newQuantity, AvgPrice: newAvg}
}

// RemoveStock decrements a holding, deleting the entry entirely when the
// quantity reaches zero. The average price of any remainder is unchanged.
func (l *Ledger) RemoveStock(symbol string, quantity int64) error {
	if quantity < 1 {
		return fmt.Errorf("%w: quantity must be at least 1, got %d", ErrInvalidArgument, quantity)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.applyRemove(symbol, quantity); err != nil {
		return err
	}

	l.log.Info().
		Str("symbol", symbol).
		Int64("quantity", quantity).
		Msg("Stock removed from holding")

	return nil
}

// applyRemove validates and applies a holding decrement. Caller holds the
// mutex and has already validated quantity >= 1.
func (l *Ledger) applyRemove(symbol string, quantity int64) error {
	h, ok := l.holdings[symbol]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, symbol)
	}
	if quantity > h.Quantity {
		return fmt.Errorf("%w: cannot remove %d shares of %s, only %d held",
			ErrInsufficientQuantity, quantity, symbol, h.Quantity)
	}

	if quantity == h.Quantity {
		delete(l.holdings, symbol)
		return nil
	}

	l.holdings[symbol] = Holding{Quantity: h.Quantity - quantity, AvgPrice: h.AvgPrice}
	return nil
}

// UpdateCash adds amount to the cash balance. Amount may be negative; the
// operation fails without mutation if it would drive the balance below zero.
func (l *Ledger) UpdateCash(amount float64) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.cash+amount < 0 {
		return fmt.Errorf("%w: balance %.2f, requested change %.2f",
			ErrInsufficientFunds, l.cash, amount)
	}

	l.cash += amount

	l.log.Info().
		Float64("amount", amount).
		Float64("balance", l.cash).
		Msg("Cash balance updated")

	return nil
}

// CashBalance returns the current cash balance.
func (l *Ledger) CashBalance() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.cash
}

// Holding returns the holding for symbol, if present.
func (l *Ledger) Holding(symbol string) (Holding, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	h, ok := l.holdings[symbol]
	return h, ok
}

// Buy purchases shares at the current market price, debiting cash.
//
// The price is fetched exactly once and that single value is used for both
// the cost computation and the holding update; re-querying mid-operation
// could observe a different price and corrupt the atomicity of the trade.
func (l *Ledger) Buy(ctx context.Context, symbol string, quantity int64) error {
	if quantity < 1 {
		return fmt.Errorf("%w: quantity must be at least 1, got %d", ErrInvalidArgument, quantity)
	}

	price, err := l.fetchPrice(ctx, symbol)
	if err != nil {
		return err
	}

	totalCost := float64(quantity) * price

	l.mu.Lock()
	defer l.mu.Unlock()

	if totalCost > l.cash {
		return fmt.Errorf("%w: cost %.2f exceeds balance %.2f",
			ErrInsufficientFunds, totalCost, l.cash)
	}

	l.cash -= totalCost
	l.applyAdd(symbol, quantity, price)

	l.log.Info().
		Str("symbol", symbol).
		Int64("quantity", quantity).
		Float64("price", price).
		Float64("cost", totalCost).
		Msg("Stock bought")

	return nil
}

// Sell disposes of shares at the current market price, crediting cash.
// Same single-fetch discipline as Buy.
func (l *Ledger) Sell(ctx context.Context, symbol string, quantity int64) error {
	if quantity < 1 {
		return fmt.Errorf("%w: quantity must be at least 1, got %d", ErrInvalidArgument, quantity)
	}

	price, err := l.fetchPrice(ctx, symbol)
	if err != nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.applyRemove(symbol, quantity); err != nil {
		return err
	}

	revenue := float64(quantity) * price
	l.cash += revenue

	l.log.Info().
		Str("symbol", symbol).
		Int64("quantity", quantity).
		Float64("price", price).
		Float64("revenue", revenue).
		Msg("Stock sold")

	return nil
}

// fetchPrice performs the single outbound price lookup for a trade and maps
// every failure mode, including a non-positive price, to ErrQuoteUnavailable.
func (l *Ledger) fetchPrice(ctx context.Context, symbol string) (float64, error) {
	price, err := l.quotes.CurrentPrice(ctx, symbol)
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %v", ErrQuoteUnavailable, symbol, err)
	}
	if price <= 0 {
		return 0, fmt.Errorf("%w: %s returned non-positive price %f", ErrQuoteUnavailable, symbol, price)
	}
	return price, nil
}

// Clear resets the ledger to its initial state: no holdings and a zero cash
// balance. Unconditional and idempotent.
func (l *Ledger) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.holdings = make(map[string]Holding)
	l.cash = 0

	l.log.Info().Msg("Portfolio and cash balance cleared")
}

// Snapshot exports a copy of the ledger's state. The returned map is owned by
// the caller.
func (l *Ledger) Snapshot() Snapshot {
	l.mu.Lock()
	defer l.mu.Unlock()

	holdings := make(map[string]Holding, len(l.holdings))
	for symbol, h := range l.holdings {
		holdings[symbol] = h
	}

	return Snapshot{Holdings: holdings, CashBalance: l.cash}
}

// Restore replaces the ledger's state with the given snapshot, validating the
// ledger invariants first. On any violation the ledger is left untouched.
func (l *Ledger) Restore(snap Snapshot) error {
	if snap.CashBalance < 0 {
		return fmt.Errorf("%w: snapshot cash balance %.2f is negative",
			ErrInvalidArgument, snap.CashBalance)
	}
	for symbol, h := range snap.Holdings {
		if h.Quantity < 1 {
			return fmt.Errorf("%w: snapshot holding %s has non-positive quantity %d",
				ErrInvalidArgument, symbol, h.Quantity)
		}
		if h.AvgPrice < 0 {
			return fmt.Errorf("%w: snapshot holding %s has negative avg price %f",
				ErrInvalidArgument, symbol, h.AvgPrice)
		}
	}

	holdings := make(map[string]Holding, len(snap.Holdings))
	for symbol, h := range snap.Holdings {
		holdings[symbol] = h
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	l.holdings = holdings
	l.cash = snap.CashBalance

	l.log.Info().
		Int("holdings", len(holdings)).
		Float64("cash", snap.CashBalance).
		Msg("Ledger state restored from snapshot")

	return nil
}
