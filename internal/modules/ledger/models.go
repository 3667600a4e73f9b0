package ledger

import "context"

// Holding is one portfolio entry. A symbol is present in the ledger if and
// only if its quantity is positive; selling down to zero deletes the entry,
// there are no zero-quantity placeholders.
type Holding struct {
	Quantity int64   `json:"quantity" msgpack:"quantity"`
	AvgPrice float64 `json:"avg_price" msgpack:"avg_price"`
}

// Snapshot is the stable export/import shape consumed by the session store.
// The persistence format (msgpack blob in sessions.db) is the store's
// concern; the ledger only guarantees this in-memory shape round-trips.
type Snapshot struct {
	Holdings    map[string]Holding `json:"holdings" msgpack:"holdings"`
	CashBalance float64            `json:"cash_balance" msgpack:"cash_balance"`
}

// SymbolOverview carries the descriptive fields merged into portfolio views.
// Fields the upstream provider lacks hold the "N/A" sentinel.
type SymbolOverview struct {
	Name        string
	Exchange    string
	Description string
	PERatio     string
	Week52High  string
	Week52Low   string
}

// QuoteProvider is the market-data contract the ledger consumes. Defined here
// rather than in the client package so the ledger owns its dependency surface;
// the server wires the Alpha Vantage client in through an adapter.
type QuoteProvider interface {
	// CurrentPrice returns the latest market price for symbol. It fails when
	// the symbol is unknown or the upstream call errors; a successful result
	// is always positive.
	CurrentPrice(ctx context.Context, symbol string) (float64, error)

	// Overview returns descriptive fields for symbol. It fails only when the
	// symbol itself is invalid.
	Overview(ctx context.Context, symbol string) (SymbolOverview, error)
}

// PositionView is one row of the merged portfolio view: static ledger data
// plus a fresh valuation and overview fields.
type PositionView struct {
	Symbol        string  `json:"symbol"`
	Quantity      int64   `json:"quantity"`
	AvgPrice      float64 `json:"avg_price"`
	CurrentPrice  float64 `json:"current_price"`
	MarketValue   float64 `json:"market_value"`
	UnrealizedPnL float64 `json:"unrealized_pnl"`
	Name          string  `json:"name"`
	Exchange      string  `json:"exchange"`
	Description   string  `json:"description"`
	PERatio       string  `json:"pe_ratio"`
	Week52High    string  `json:"week_52_high"`
	Week52Low     string  `json:"week_52_low"`
}

// TotalValues is the three-way valuation breakdown.
type TotalValues struct {
	StockValue  float64 `json:"stock_value"`
	CashBalance float64 `json:"cash_balance"`
	TotalValue  float64 `json:"total_value"`
}
