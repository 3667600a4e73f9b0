package alphavantage

// NotAvailable is the sentinel for overview fields the provider lacks.
const NotAvailable = "N/A"

// Overview holds the descriptive company fields from the OVERVIEW function.
// Any field may be NotAvailable when the provider has no value for it.
type Overview struct {
	Symbol      string `json:"symbol"`
	Name        string `json:"name"`
	Exchange    string `json:"exchange"`
	Description string `json:"description"`
	PERatio     string `json:"pe_ratio"`
	Week52High  string `json:"week_52_high"`
	Week52Low   string `json:"week_52_low"`
}

// PriceDetails holds the GLOBAL_QUOTE fields surfaced by the price-details
// endpoint.
type PriceDetails struct {
	Symbol        string  `json:"symbol"`
	Price         float64 `json:"price"`
	Change        float64 `json:"change"`
	ChangePercent string  `json:"change_percent"`
	PreviousClose float64 `json:"previous_close"`
	Volume        int64   `json:"volume"`
}

// Bar is one day of the historical series.
type Bar struct {
	Date   string  `json:"date"`
	Open   float64 `json:"open"`
	High   float64 `json:"high"`
	Low    float64 `json:"low"`
	Close  float64 `json:"close"`
	Volume int64   `json:"volume"`
}
