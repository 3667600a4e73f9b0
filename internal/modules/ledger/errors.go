package ledger

import "errors"

// Error taxonomy surfaced by ledger operations. Handlers match these with
// errors.Is to translate them into HTTP statuses; the ledger itself never
// suppresses or retries them.
var (
	// ErrInvalidArgument indicates a bad quantity or price.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrNotFound indicates the symbol is not present in the holdings.
	ErrNotFound = errors.New("symbol not held")

	// ErrInsufficientQuantity indicates a sell/remove of more shares than held.
	ErrInsufficientQuantity = errors.New("insufficient quantity")

	// ErrInsufficientFunds indicates a spend/withdrawal exceeding the cash balance.
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrQuoteUnavailable indicates the price lookup failed or returned an
	// invalid (non-positive) value.
	ErrQuoteUnavailable = errors.New("quote unavailable")
)
