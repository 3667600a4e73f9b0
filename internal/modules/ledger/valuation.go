package ledger

import (
	"context"
	"fmt"
	"sort"
)

// Portfolio returns the merged portfolio view: for every held symbol, the
// static ledger data joined with a fresh current price and overview fields.
//
// The call is all-or-nothing: a lookup failure for any single symbol fails the
// whole view. One bad symbol blocking the entire portfolio is a known
// limitation, kept deliberately in favor of partial-success semantics.
func (l *Ledger) Portfolio(ctx context.Context) ([]PositionView, error) {
	held := l.heldSorted()

	views := make([]PositionView, 0, len(held))
	for _, entry := range held {
		price, err := l.quotes.CurrentPrice(ctx, entry.symbol)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrQuoteUnavailable, entry.symbol, err)
		}
		if price <= 0 {
			return nil, fmt.Errorf("%w: %s returned non-positive price %f",
				ErrQuoteUnavailable, entry.symbol, price)
		}

		overview, err := l.quotes.Overview(ctx, entry.symbol)
		if err != nil {
			return nil, fmt.Errorf("%w: overview for %s: %v", ErrQuoteUnavailable, entry.symbol, err)
		}

		marketValue := float64(entry.holding.Quantity) * price
		costBasis := float64(entry.holding.Quantity) * entry.holding.AvgPrice

		views = append(views, PositionView{
			Symbol:        entry.symbol,
			Quantity:      entry.holding.Quantity,
			AvgPrice:      entry.holding.AvgPrice,
			CurrentPrice:  price,
			MarketValue:   marketValue,
			UnrealizedPnL: marketValue - costBasis,
			Name:          overview.Name,
			Exchange:      overview.Exchange,
			Description:   overview.Description,
			PERatio:       overview.PERatio,
			Week52High:    overview.Week52High,
			Week52Low:     overview.Week52Low,
		})
	}

	return views, nil
}

// TotalValues sums quantity*current_price over all holdings plus the cash
// balance, re-fetching the current price per symbol with no cache. Same
// all-or-nothing failure policy as Portfolio.
func (l *Ledger) TotalValues(ctx context.Context) (TotalValues, error) {
	held := l.heldSorted()

	var stockValue float64
	for _, entry := range held {
		price, err := l.quotes.CurrentPrice(ctx, entry.symbol)
		if err != nil {
			return TotalValues{}, fmt.Errorf("%w: %s: %v", ErrQuoteUnavailable, entry.symbol, err)
		}
		if price <= 0 {
			return TotalValues{}, fmt.Errorf("%w: %s returned non-positive price %f",
				ErrQuoteUnavailable, entry.symbol, price)
		}
		stockValue += float64(entry.holding.Quantity) * price
	}

	cash := l.CashBalance()

	return TotalValues{
		StockValue:  stockValue,
		CashBalance: cash,
		TotalValue:  stockValue + cash,
	}, nil
}

type heldEntry struct {
	symbol  string
	holding Holding
}

// heldSorted copies the current holdings under the lock and returns them in
// symbol order, so valuation queries iterate a stable, consistent snapshot
// while the network fetches run outside the critical section.
func (l *Ledger) heldSorted() []heldEntry {
	l.mu.Lock()
	entries := make([]heldEntry, 0, len(l.holdings))
	for symbol, h := range l.holdings {
		entries = append(entries, heldEntry{symbol: symbol, holding: h})
	}
	l.mu.Unlock()

	sort.Slice(entries, func(i, j int) bool { return entries[i].symbol < entries[j].symbol })
	return entries
}
