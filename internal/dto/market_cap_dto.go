package dto

import (
	"time"

	"github.com/apparelmetrics/market_cap_app/internal/core/domain"
)

// MarketCapResponse defines the data returned for one market cap entry.
type MarketCapResponse struct {
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

// ListMarketCapsResponse wraps a ranked market cap listing for one date.
type ListMarketCapsResponse struct {
	Date    string              `json:"date,omitempty"`
	Entries []MarketCapResponse `json:"entries"`
}

// ToMarketCapResponse converts a domain.MarketCapEntry to MarketCapResponse DTO
func ToMarketCapResponse(entry *domain.MarketCapEntry) MarketCapResponse {
	return MarketCapResponse{
		Ticker:            entry.Ticker,
		Name:              entry.Name,
		MarketCapOriginal: entry.MarketCapOriginal,
		OriginalCurrency:  entry.OriginalCurrency,
		MarketCapEUR:      entry.MarketCapEUR,
		MarketCapUSD:      entry.MarketCapUSD,
		EURRate:           entry.EURRate,
		USDRate:           entry.USDRate,
		Price:             entry.Price,
		Exchange:          entry.Exchange,
		Active:            entry.Active,
		Timestamp:         entry.Timestamp,
	}
}

// ToListMarketCapsResponse converts a slice of domain.MarketCapEntry to ListMarketCapsResponse DTO
func ToListMarketCapsResponse(entries []domain.MarketCapEntry, date *time.Time) ListMarketCapsResponse {
	response := ListMarketCapsResponse{
		Entries: make([]MarketCapResponse, len(entries)),
	}
	if date != nil {
		response.Date = date.Format("2006-01-02")
	}
	for i, entry := range entries {
		response.Entries[i] = ToMarketCapResponse(&entry)
	}
	return response
}
