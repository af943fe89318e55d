package domain

import "time"

// ForexRate is one stored forex quote for a currency pair symbol.
// The pair is kept in its quoted "FROM/TO" form; parsing and any derived
// rates are the snapshot builder's business, not the store's.
type ForexRate struct {
	ID        int64     `json:"id"`
	Symbol    string    `json:"symbol"` // "FROM/TO", e.g. "EUR/USD"
	Ask       float64   `json:"ask"`
	Bid       float64   `json:"bid"`
	Timestamp time.Time `json:"timestamp"`
}
