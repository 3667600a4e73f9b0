package server

import (
	"context"

	"stockfolio/internal/clients/alphavantage"
	"stockfolio/internal/modules/ledger"
)

// QuoteAdapter adapts the Alpha Vantage client to the ledger's QuoteProvider
// contract, keeping the ledger free of any client-package dependency.
type QuoteAdapter struct {
	client *alphavantage.Client
}

// NewQuoteAdapter creates a quote adapter around the Alpha Vantage client
func NewQuoteAdapter(client *alphavantage.Client) *QuoteAdapter {
	return &QuoteAdapter{client: client}
}

// CurrentPrice returns the latest market price for symbol
func (a *QuoteAdapter) CurrentPrice(ctx context.Context, symbol string) (float64, error) {
	return a.client.CurrentPrice(ctx, symbol)
}

// Overview returns descriptive fields for symbol in the ledger's shape
func (a *QuoteAdapter) Overview(ctx context.Context, symbol string) (ledger.SymbolOverview, error) {
	o, err := a.client.GetOverview(ctx, symbol)
	if err != nil {
		return ledger.SymbolOverview{}, err
	}

	return ledger.SymbolOverview{
		Name:        o.Name,
		Exchange:    o.Exchange,
		Description: o.Description,
		PERatio:     o.PERatio,
		Week52High:  o.Week52High,
		Week52Low:   o.Week52Low,
	}, nil
}

var _ ledger.QuoteProvider = (*QuoteAdapter)(nil)
