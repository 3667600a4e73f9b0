// Package alphavantage provides the market-data client for the Alpha Vantage
// HTTP API. The client is a pure pass-through: no caching, no retries, no
// rate limiting. Every failure is reported to the caller immediately.
package alphavantage

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Client is an Alpha Vantage API client
type Client struct {
	baseURL string
	apiKey  string
	client  *http.Client
	log     zerolog.Logger
}

// NewClient creates a new Alpha Vantage client. The API key is injected here;
// config.Load has already failed startup if it is missing.
func NewClient(apiKey string, log zerolog.Logger) *Client {
	return &Client{
		baseURL: "https://www.alphavantage.co/query",
		apiKey:  apiKey,
		client:  &http.Client{Timeout: 30 * time.Second},
		log:     log.With().Str("client", "alphavantage").Logger(),
	}
}

// CurrentPrice returns the latest market price for symbol via GLOBAL_QUOTE.
// Fails for unknown symbols, transport errors, malformed payloads, and
// non-positive prices.
func (c *Client) CurrentPrice(ctx context.Context, symbol string) (float64, error) {
	details, err := c.PriceDetails(ctx, symbol)
	if err != nil {
		return 0, err
	}
	return details.Price, nil
}

// PriceDetails returns the GLOBAL_QUOTE fields for symbol.
func (c *Client) PriceDetails(ctx context.Context, symbol string) (*PriceDetails, error) {
	params := url.Values{
		"function": {"GLOBAL_QUOTE"},
		"symbol":   {symbol},
	}

	var payload struct {
		GlobalQuote map[string]string `json:"Global Quote"`
	}
	if err := c.get(ctx, params, &payload); err != nil {
		return nil, err
	}

	// Alpha Vantage answers unknown symbols with an empty quote object
	// rather than an error status.
	if len(payload.GlobalQuote) == 0 {
		return nil, fmt.Errorf("no quote data for symbol %s", symbol)
	}

	price, err := strconv.ParseFloat(payload.GlobalQuote["05. price"], 64)
	if err != nil {
		return nil, fmt.Errorf("malformed price in quote for %s: %w", symbol, err)
	}
	if price <= 0 {
		return nil, fmt.Errorf("non-positive price %f for symbol %s", price, symbol)
	}

	change, _ := strconv.ParseFloat(payload.GlobalQuote["09. change"], 64)
	prevClose, _ := strconv.ParseFloat(payload.GlobalQuote["08. previous close"], 64)
	volume, _ := strconv.ParseInt(payload.GlobalQuote["06. volume"], 10, 64)

	c.log.Debug().
		Str("symbol", symbol).
		Float64("price", price).
		Msg("Fetched quote")

	return &PriceDetails{
		Symbol:        symbol,
		Price:         price,
		Change:        change,
		ChangePercent: stringOrNA(payload.GlobalQuote["10. change percent"]),
		PreviousClose: prevClose,
		Volume:        volume,
	}, nil
}

// GetOverview returns the company overview for symbol. Missing fields are
// mapped to the NotAvailable sentinel; the call fails only when the symbol
// itself is invalid or the request fails.
func (c *Client) GetOverview(ctx context.Context, symbol string) (*Overview, error) {
	params := url.Values{
		"function": {"OVERVIEW"},
		"symbol":   {symbol},
	}

	var payload map[string]string
	if err := c.get(ctx, params, &payload); err != nil {
		return nil, err
	}

	// An empty object means the symbol is unknown to the provider.
	if len(payload) == 0 {
		return nil, fmt.Errorf("no overview data for symbol %s", symbol)
	}

	return &Overview{
		Symbol:      symbol,
		Name:        stringOrNA(payload["Name"]),
		Exchange:    stringOrNA(payload["Exchange"]),
		Description: stringOrNA(payload["Description"]),
		PERatio:     stringOrNA(payload["PERatio"]),
		Week52High:  stringOrNA(payload["52WeekHigh"]),
		Week52Low:   stringOrNA(payload["52WeekLow"]),
	}, nil
}

// DailySeries returns the daily bars for symbol within [startDate, endDate],
// ordered by date ascending. Dates must be YYYY-MM-DD; an empty result for an
// otherwise-valid symbol is an error.
func (c *Client) DailySeries(ctx context.Context, symbol, startDate, endDate string) ([]Bar, error) {
	start, err := time.Parse("2006-01-02", startDate)
	if err != nil {
		return nil, fmt.Errorf("invalid start date %q: must be YYYY-MM-DD", startDate)
	}
	end, err := time.Parse("2006-01-02", endDate)
	if err != nil {
		return nil, fmt.Errorf("invalid end date %q: must be YYYY-MM-DD", endDate)
	}
	if end.Before(start) {
		return nil, fmt.Errorf("end date %s is before start date %s", endDate, startDate)
	}

	params := url.Values{
		"function":   {"TIME_SERIES_DAILY"},
		"symbol":     {symbol},
		"outputsize": {"full"},
	}

	var payload struct {
		Series map[string]map[string]string `json:"Time Series (Daily)"`
	}
	if err := c.get(ctx, params, &payload); err != nil {
		return nil, err
	}

	if len(payload.Series) == 0 {
		return nil, fmt.Errorf("no historical data for symbol %s", symbol)
	}

	var bars []Bar
	for date, fields := range payload.Series {
		day, err := time.Parse("2006-01-02", date)
		if err != nil {
			continue
		}
		if day.Before(start) || day.After(end) {
			continue
		}

		bar, err := parseBar(date, fields)
		if err != nil {
			return nil, fmt.Errorf("malformed bar for %s on %s: %w", symbol, date, err)
		}
		bars = append(bars, bar)
	}

	if len(bars) == 0 {
		return nil, fmt.Errorf("no historical data for %s between %s and %s", symbol, startDate, endDate)
	}

	sort.Slice(bars, func(i, j int) bool { return bars[i].Date < bars[j].Date })

	c.log.Debug().
		Str("symbol", symbol).
		Int("bars", len(bars)).
		Msg("Fetched historical series")

	return bars, nil
}

// get performs one API request and decodes the JSON body into out. Alpha
// Vantage signals some failures inside a 200 body ("Error Message" for bad
// symbols/functions, "Note"/"Information" for throttling), so those are
// checked before the payload decode.
func (c *Client) get(ctx context.Context, params url.Values, out interface{}) error {
	params.Set("apikey", c.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("API request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("API returned status %d", resp.StatusCode)
	}

	var raw json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}

	var apiErr struct {
		ErrorMessage string `json:"Error Message"`
		Note         string `json:"Note"`
		Information  string `json:"Information"`
	}
	if err := json.Unmarshal(raw, &apiErr); err == nil {
		if apiErr.ErrorMessage != "" {
			return fmt.Errorf("API error: %s", apiErr.ErrorMessage)
		}
		if apiErr.Note != "" || apiErr.Information != "" {
			return fmt.Errorf("API request rejected: %s%s", apiErr.Note, apiErr.Information)
		}
	}

	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}

	return nil
}

func parseBar(date string, fields map[string]string) (Bar, error) {
	open, err := strconv.ParseFloat(fields["1. open"], 64)
	if err != nil {
		return Bar{}, fmt.Errorf("open: %w", err)
	}
	high, err := strconv.ParseFloat(fields["2. high"], 64)
	if err != nil {
		return Bar{}, fmt.Errorf("high: %w", err)
	}
	low, err := strconv.ParseFloat(fields["3. low"], 64)
	if err != nil {
		return Bar{}, fmt.Errorf("low: %w", err)
	}
	closePrice, err := strconv.ParseFloat(fields["4. close"], 64)
	if err != nil {
		return Bar{}, fmt.Errorf("close: %w", err)
	}
	volume, err := strconv.ParseInt(fields["5. volume"], 10, 64)
	if err != nil {
		return Bar{}, fmt.Errorf("volume: %w", err)
	}

	return Bar{Date: date, Open: open, High: high, Low: low, Close: closePrice, Volume: volume}, nil
}

// stringOrNA maps the provider's empty/"None"/"-" placeholders to the
// service's sentinel.
func stringOrNA(s string) string {
	s = strings.TrimSpace(s)
	if s == "" || s == "None" || s == "-" {
		return NotAvailable
	}
	return s
}
