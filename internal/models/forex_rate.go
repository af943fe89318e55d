package models

import "time"

// ForexRate is the forex_rates table row. One stored quote for a
// currency pair symbol; (symbol, timestamp) is unique.
type ForexRate struct {
	ID        int64     `db:"id"`
	Symbol    string    `db:"symbol"` // "FROM/TO", e.g. "EUR/USD"
	Ask       float64   `db:"ask"`
	Bid       float64   `db:"bid"`
	Timestamp time.Time `db:"timestamp"`
}
