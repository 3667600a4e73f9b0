package ledger

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubQuotes is a canned QuoteProvider for tests. It counts price lookups so
// tests can assert the single-fetch discipline of Buy and Sell.
type stubQuotes struct {
	prices     map[string]float64
	overviews  map[string]SymbolOverview
	priceErr   error
	priceCalls int
}

func (s *stubQuotes) CurrentPrice(_ context.Context, symbol string) (float64, error) {
	s.priceCalls++
	if s.priceErr != nil {
		return 0, s.priceErr
	}
	price, ok := s.prices[symbol]
	if !ok {
		return 0, fmt.Errorf("unknown symbol %s", symbol)
	}
	return price, nil
}

func (s *stubQuotes) Overview(_ context.Context, symbol string) (SymbolOverview, error) {
	if o, ok := s.overviews[symbol]; ok {
		return o, nil
	}
	return SymbolOverview{
		Name:        symbol + " Inc.",
		Exchange:    "NASDAQ",
		Description: "N/A",
		PERatio:     "N/A",
		Week52High:  "N/A",
		Week52Low:   "N/A",
	}, nil
}

func newTestLedger(quotes *stubQuotes) *Ledger {
	return New(quotes, zerolog.New(nil).Level(zerolog.Disabled))
}

func TestAddStock(t *testing.T) {
	tests := []struct {
		name     string
		quantity int64
		price    float64
		wantErr  error
	}{
		{name: "valid add", quantity: 10, price: 150.0},
		{name: "zero quantity", quantity: 0, price: 150.0, wantErr: ErrInvalidArgument},
		{name: "negative quantity", quantity: -5, price: 150.0, wantErr: ErrInvalidArgument},
		{name: "negative price", quantity: 10, price: -1.0, wantErr: ErrInvalidArgument},
		{name: "zero price is allowed", quantity: 10, price: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := newTestLedger(&stubQuotes{})

			err := l.AddStock("NVDA", tt.quantity, tt.price)

			if tt.wantErr != nil {
				require.Error(t, err)
				assert.ErrorIs(t, err, tt.wantErr)
				_, held := l.Holding("NVDA")
				assert.False(t, held, "failed add must not create a holding")
				return
			}

			require.NoError(t, err)
			h, held := l.Holding("NVDA")
			require.True(t, held)
			assert.Equal(t, tt.quantity, h.Quantity)
			assert.Equal(t, tt.price, h.AvgPrice)
		})
	}
}

func TestAddStockWeightedAverage(t *testing.T) {
	l := newTestLedger(&stubQuotes{})

	require.NoError(t, l.AddStock("NVDA", 10, 150.0))
	require.NoError(t, l.AddStock("NVDA", 5, 180.0))

	h, held := l.Holding("NVDA")
	require.True(t, held)
	assert.Equal(t, int64(15), h.Quantity)
	// (10*150 + 5*180) / 15 = 160
	assert.InDelta(t, 160.0, h.AvgPrice, 1e-9)
}

func TestAddStockHasNoCashEffect(t *testing.T) {
	l := newTestLedger(&stubQuotes{})
	require.NoError(t, l.UpdateCash(500.0))

	require.NoError(t, l.AddStock("AAPL", 3, 120.0))

	assert.Equal(t, 500.0, l.CashBalance())
}

func TestRemoveStock(t *testing.T) {
	t.Run("removing all shares deletes the entry", func(t *testing.T) {
		l := newTestLedger(&stubQuotes{})
		require.NoError(t, l.AddStock("AAPL", 10, 100.0))

		require.NoError(t, l.RemoveStock("AAPL", 10))

		_, held := l.Holding("AAPL")
		assert.False(t, held)
	})

	t.Run("partial removal keeps avg price", func(t *testing.T) {
		l := newTestLedger(&stubQuotes{})
		require.NoError(t, l.AddStock("AAPL", 10, 100.0))

		require.NoError(t, l.RemoveStock("AAPL", 4))

		h, held := l.Holding("AAPL")
		require.True(t, held)
		assert.Equal(t, int64(6), h.Quantity)
		assert.Equal(t, 100.0, h.AvgPrice)
	})

	t.Run("removing more than held fails and leaves state unchanged", func(t *testing.T) {
		l := newTestLedger(&stubQuotes{})
		require.NoError(t, l.AddStock("AAPL", 2, 100.0))

		err := l.RemoveStock("AAPL", 5)

		require.Error(t, err)
		assert.ErrorIs(t, err, ErrInsufficientQuantity)
		h, held := l.Holding("AAPL")
		require.True(t, held)
		assert.Equal(t, int64(2), h.Quantity)
	})

	t.Run("unknown symbol", func(t *testing.T) {
		l := newTestLedger(&stubQuotes{})

		err := l.RemoveStock("MSFT", 1)

		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("invalid quantity", func(t *testing.T) {
		l := newTestLedger(&stubQuotes{})
		require.NoError(t, l.AddStock("AAPL", 2, 100.0))

		err := l.RemoveStock("AAPL", 0)

		assert.ErrorIs(t, err, ErrInvalidArgument)
	})
}

func TestUpdateCash(t *testing.T) {
	l := newTestLedger(&stubQuotes{})

	require.NoError(t, l.UpdateCash(100.0))
	assert.Equal(t, 100.0, l.CashBalance())

	// Withdrawal below zero fails without mutation
	err := l.UpdateCash(-150.0)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInsufficientFunds)
	assert.Equal(t, 100.0, l.CashBalance())

	// Exact drain to zero is allowed
	require.NoError(t, l.UpdateCash(-100.0))
	assert.Equal(t, 0.0, l.CashBalance())
}

func TestBuyStock(t *testing.T) {
	t.Run("insufficient funds leaves holdings and cash unchanged", func(t *testing.T) {
		quotes := &stubQuotes{prices: map[string]float64{"NVDA": 200.0}}
		l := newTestLedger(quotes)
		require.NoError(t, l.AddStock("NVDA", 10, 150.0))
		require.NoError(t, l.UpdateCash(500.0))

		err := l.Buy(context.Background(), "NVDA", 5)

		require.Error(t, err)
		assert.ErrorIs(t, err, ErrInsufficientFunds)
		assert.Equal(t, 500.0, l.CashBalance())
		h, _ := l.Holding("NVDA")
		assert.Equal(t, int64(10), h.Quantity)
		assert.InDelta(t, 150.0, h.AvgPrice, 1e-9)
	})

	t.Run("success debits cash and recomputes avg price", func(t *testing.T) {
		quotes := &stubQuotes{prices: map[string]float64{"NVDA": 200.0}}
		l := newTestLedger(quotes)
		require.NoError(t, l.AddStock("NVDA", 10, 150.0))
		require.NoError(t, l.UpdateCash(1000.0))

		require.NoError(t, l.Buy(context.Background(), "NVDA", 5))

		assert.Equal(t, 0.0, l.CashBalance())
		h, _ := l.Holding("NVDA")
		assert.Equal(t, int64(15), h.Quantity)
		// (10*150 + 5*200) / 15 = 166.67
		assert.InDelta(t, 166.67, h.AvgPrice, 0.01)
	})

	t.Run("fetches the price exactly once", func(t *testing.T) {
		quotes := &stubQuotes{prices: map[string]float64{"NVDA": 200.0}}
		l := newTestLedger(quotes)
		require.NoError(t, l.UpdateCash(1000.0))

		require.NoError(t, l.Buy(context.Background(), "NVDA", 5))

		assert.Equal(t, 1, quotes.priceCalls)
	})

	t.Run("quote failure", func(t *testing.T) {
		quotes := &stubQuotes{priceErr: errors.New("upstream down")}
		l := newTestLedger(quotes)
		require.NoError(t, l.UpdateCash(1000.0))

		err := l.Buy(context.Background(), "NVDA", 5)

		require.Error(t, err)
		assert.ErrorIs(t, err, ErrQuoteUnavailable)
		assert.Equal(t, 1000.0, l.CashBalance())
	})

	t.Run("non-positive price is a quote failure", func(t *testing.T) {
		quotes := &stubQuotes{prices: map[string]float64{"NVDA": 0}}
		l := newTestLedger(quotes)
		require.NoError(t, l.UpdateCash(1000.0))

		err := l.Buy(context.Background(), "NVDA", 5)

		assert.ErrorIs(t, err, ErrQuoteUnavailable)
	})

	t.Run("invalid quantity skips the quote fetch", func(t *testing.T) {
		quotes := &stubQuotes{prices: map[string]float64{"NVDA": 200.0}}
		l := newTestLedger(quotes)

		err := l.Buy(context.Background(), "NVDA", 0)

		assert.ErrorIs(t, err, ErrInvalidArgument)
		assert.Equal(t, 0, quotes.priceCalls)
	})
}

func TestSellStock(t *testing.T) {
	t.Run("success credits cash and keeps avg price", func(t *testing.T) {
		quotes := &stubQuotes{prices: map[string]float64{"NVDA": 200.0}}
		l := newTestLedger(quotes)
		require.NoError(t, l.AddStock("NVDA", 10, 150.0))

		require.NoError(t, l.Sell(context.Background(), "NVDA", 5))

		assert.Equal(t, 1000.0, l.CashBalance())
		h, held := l.Holding("NVDA")
		require.True(t, held)
		assert.Equal(t, int64(5), h.Quantity)
		assert.InDelta(t, 150.0, h.AvgPrice, 1e-9)
	})

	t.Run("selling the full position deletes the entry", func(t *testing.T) {
		quotes := &stubQuotes{prices: map[string]float64{"NVDA": 200.0}}
		l := newTestLedger(quotes)
		require.NoError(t, l.AddStock("NVDA", 10, 150.0))

		require.NoError(t, l.Sell(context.Background(), "NVDA", 10))

		_, held := l.Holding("NVDA")
		assert.False(t, held)
		assert.Equal(t, 2000.0, l.CashBalance())
	})

	t.Run("selling more than held fails without mutation", func(t *testing.T) {
		quotes := &stubQuotes{prices: map[string]float64{"NVDA": 200.0}}
		l := newTestLedger(quotes)
		require.NoError(t, l.AddStock("NVDA", 2, 150.0))

		err := l.Sell(context.Background(), "NVDA", 5)

		require.Error(t, err)
		assert.ErrorIs(t, err, ErrInsufficientQuantity)
		assert.Equal(t, 0.0, l.CashBalance())
		h, _ := l.Holding("NVDA")
		assert.Equal(t, int64(2), h.Quantity)
	})

	t.Run("unknown symbol", func(t *testing.T) {
		quotes := &stubQuotes{prices: map[string]float64{"NVDA": 200.0}}
		l := newTestLedger(quotes)

		err := l.Sell(context.Background(), "NVDA", 1)

		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("quote failure happens before any mutation", func(t *testing.T) {
		quotes := &stubQuotes{priceErr: errors.New("upstream down")}
		l := newTestLedger(quotes)
		require.NoError(t, l.AddStock("NVDA", 10, 150.0))

		err := l.Sell(context.Background(), "NVDA", 5)

		require.Error(t, err)
		assert.ErrorIs(t, err, ErrQuoteUnavailable)
		h, _ := l.Holding("NVDA")
		assert.Equal(t, int64(10), h.Quantity)
	})
}

func TestClearIsIdempotent(t *testing.T) {
	l := newTestLedger(&stubQuotes{})
	require.NoError(t, l.AddStock("NVDA", 10, 150.0))
	require.NoError(t, l.UpdateCash(1000.0))

	l.Clear()

	snap := l.Snapshot()
	assert.Empty(t, snap.Holdings)
	assert.Equal(t, 0.0, snap.CashBalance)

	// Second clear yields the same empty state
	l.Clear()

	snap = l.Snapshot()
	assert.Empty(t, snap.Holdings)
	assert.Equal(t, 0.0, snap.CashBalance)
}

func TestSnapshotRoundTrip(t *testing.T) {
	l := newTestLedger(&stubQuotes{})
	require.NoError(t, l.AddStock("NVDA", 10, 150.0))
	require.NoError(t, l.AddStock("AAPL", 3, 120.0))
	require.NoError(t, l.UpdateCash(750.50))

	snap := l.Snapshot()

	restored := newTestLedger(&stubQuotes{})
	require.NoError(t, restored.Restore(snap))

	assert.Equal(t, snap, restored.Snapshot())
	assert.Equal(t, 750.50, restored.CashBalance())
}

func TestSnapshotIsACopy(t *testing.T) {
	l := newTestLedger(&stubQuotes{})
	require.NoError(t, l.AddStock("NVDA", 10, 150.0))

	snap := l.Snapshot()
	snap.Holdings["NVDA"] = Holding{Quantity: 999, AvgPrice: 1.0}

	h, _ := l.Holding("NVDA")
	assert.Equal(t, int64(10), h.Quantity, "mutating a snapshot must not affect the ledger")
}

func TestRestoreRejectsInvalidSnapshots(t *testing.T) {
	tests := []struct {
		name string
		snap Snapshot
	}{
		{
			name: "negative cash",
			snap: Snapshot{Holdings: map[string]Holding{}, CashBalance: -1.0},
		},
		{
			name: "zero quantity holding",
			snap: Snapshot{Holdings: map[string]Holding{"NVDA": {Quantity: 0, AvgPrice: 100}}},
		},
		{
			name: "negative avg price",
			snap: Snapshot{Holdings: map[string]Holding{"NVDA": {Quantity: 1, AvgPrice: -5}}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := newTestLedger(&stubQuotes{})
			require.NoError(t, l.AddStock("AAPL", 2, 50.0))

			err := l.Restore(tt.snap)

			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidArgument)
			// Failed restore leaves the previous state intact
			h, held := l.Holding("AAPL")
			require.True(t, held)
			assert.Equal(t, int64(2), h.Quantity)
		})
	}
}
