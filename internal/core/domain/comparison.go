package domain

import "time"

// ComparisonRow holds one company's figures on both comparison dates.
// The USD and EUR values on both sides are normalized through the same
// rate snapshot so the change columns reflect market-cap movement rather
// than exchange-rate drift.
type ComparisonRow struct {
	Ticker           string   `json:"ticker"`
	Name             string   `json:"name"`
	OriginalCurrency string   `json:"originalCurrency"`
	FromRank         int      `json:"fromRank"`
	ToRank           int      `json:"toRank"`
	FromCapOriginal  float64  `json:"fromCapOriginal"`
	ToCapOriginal    float64  `json:"toCapOriginal"`
	FromCapUSD       float64  `json:"fromCapUSD"`
	ToCapUSD         float64  `json:"toCapUSD"`
	FromCapEUR       float64  `json:"fromCapEUR"`
	ToCapEUR         float64  `json:"toCapEUR"`
	ChangeUSD        float64  `json:"changeUSD"`
	ChangePct        float64  `json:"changePct"`
	Warnings         []string `json:"warnings,omitempty"`
}

// Mover is a compact gainer/loser line for report summaries.
type Mover struct {
	Ticker    string  `json:"ticker"`
	Name      string  `json:"name"`
	ChangeUSD float64 `json:"changeUSD"`
	ChangePct float64 `json:"changePct"`
}

// RateLine records one exchange rate applied during normalization,
// including how it was resolved.
type RateLine struct {
	FromCurrency string  `json:"fromCurrency"`
	ToCurrency   string  `json:"toCurrency"`
	Rate         float64 `json:"rate"`
	Source       string  `json:"source"`
}

// Comparison is the full result of comparing market caps between two dates.
// FxNoiseEliminated is false when no rate snapshot was available and the
// stored per-date conversions had to be used as-is.
type Comparison struct {
	FromDate          time.Time       `json:"fromDate"`
	ToDate            time.Time       `json:"toDate"`
	Rows              []ComparisonRow `json:"rows"`
	TopGainers        []Mover         `json:"topGainers"`
	TopLosers         []Mover         `json:"topLosers"`
	Rates             []RateLine      `json:"rates"`
	TotalFromUSD      float64         `json:"totalFromUSD"`
	TotalToUSD        float64         `json:"totalToUSD"`
	TotalChangeUSD    float64         `json:"totalChangeUSD"`
	TotalChangePct    float64         `json:"totalChangePct"`
	Top10Share        float64         `json:"top10Share"`
	FxNoiseEliminated bool            `json:"fxNoiseEliminated"`
	Warnings          []string        `json:"warnings,omitempty"`
}
