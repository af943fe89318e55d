package domain

import "time"

// MarketCapEntry is one company's market capitalization observation,
// stored in its original listing currency alongside the EUR and USD
// figures computed at ingestion time with the rates then in effect.
type MarketCapEntry struct {
	ID                int64     `json:"id"`
	Ticker            string    `json:"ticker"`
	Name              string    `json:"name"`
	MarketCapOriginal float64   `json:"marketCapOriginal"`
	OriginalCurrency  string    `json:"originalCurrency"`
	MarketCapEUR      float64   `json:"marketCapEUR"`
	MarketCapUSD      float64   `json:"marketCapUSD"`
	EURRate           float64   `json:"eurRate"`
	USDRate           float64   `json:"usdRate"`
	Price             float64   `json:"price"`
	Exchange          string    `json:"exchange"`
	Active            bool      `json:"active"`
	Timestamp         time.Time `json:"timestamp"`
}
