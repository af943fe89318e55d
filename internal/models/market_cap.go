package models

import "time"

// MarketCapEntry is the market_caps table row. One company observation
// with the EUR and USD figures computed at ingestion time;
// (ticker, timestamp) is unique.
type MarketCapEntry struct {
	ID                int64     `db:"id"`
	Ticker            string    `db:"ticker"`
	Name              string    `db:"name"`
	MarketCapOriginal float64   `db:"market_cap_original"`
	OriginalCurrency  string    `db:"original_currency"`
	MarketCapEUR      float64   `db:"market_cap_eur"`
	MarketCapUSD      float64   `db:"market_cap_usd"`
	EURRate           float64   `db:"eur_rate"`
	USDRate           float64   `db:"usd_rate"`
	Price             float64   `db:"price"`
	Exchange          string    `db:"exchange"`
	Active            bool      `db:"active"`
	Timestamp         time.Time `db:"timestamp"`
}
