package dto

import (
	"time"

	"github.com/apparelmetrics/market_cap_app/internal/core/domain"
	"github.com/apparelmetrics/market_cap_app/internal/core/fx"
)

// ForexRateResponse defines the data returned for a stored forex quote.
type ForexRateResponse struct {
	Symbol    string    `json:"symbol"`
	Ask       float64   `json:"ask"`
	Bid       float64   `json:"bid"`
	Timestamp time.Time `json:"timestamp"`
}

// ToForexRateResponse converts a domain.ForexRate to ForexRateResponse DTO
func ToForexRateResponse(rate *domain.ForexRate) ForexRateResponse {
	return ForexRateResponse{
		Symbol:    rate.Symbol,
		Ask:       rate.Ask,
		Bid:       rate.Bid,
		Timestamp: rate.Timestamp,
	}
}

// ToListForexRateResponse converts a slice of domain.ForexRate to a slice of ForexRateResponse DTOs
func ToListForexRateResponse(rates []domain.ForexRate) []ForexRateResponse {
	responses := make([]ForexRateResponse, len(rates))
	for i, rate := range rates {
		responses[i] = ToForexRateResponse(&rate)
	}
	return responses
}

// RateHistoryResponse wraps one page of quote history for a pair.
type RateHistoryResponse struct {
	Rates     []ForexRateResponse `json:"rates"`
	NextToken *string             `json:"nextToken,omitempty"`
}

// RateLineResponse is one resolved pair in a snapshot listing.
type RateLineResponse struct {
	FromCurrency string  `json:"fromCurrency"`
	ToCurrency   string  `json:"toCurrency"`
	Rate         float64 `json:"rate"`
	Source       string  `json:"source"`
}

// SnapshotResponse lists every directed pair resolvable from one rate snapshot.
type SnapshotResponse struct {
	AsOf  string             `json:"asOf,omitempty"`
	Count int                `json:"count"`
	Rates []RateLineResponse `json:"rates"`
}

// ToSnapshotResponse converts a built fx.Snapshot to SnapshotResponse DTO
func ToSnapshotResponse(snap *fx.Snapshot, asOf *time.Time) SnapshotResponse {
	entries := snap.Entries()
	response := SnapshotResponse{
		Count: len(entries),
		Rates: make([]RateLineResponse, len(entries)),
	}
	if asOf != nil {
		response.AsOf = asOf.Format("2006-01-02")
	}
	for i, e := range entries {
		response.Rates[i] = RateLineResponse{
			FromCurrency: e.Pair.From,
			ToCurrency:   e.Pair.To,
			Rate:         e.Rate,
			Source:       string(e.Source),
		}
	}
	return response
}

// ConvertQuery defines query parameters for a currency conversion.
// From and To accept subunit codes such as GBp, so no case constraint.
type ConvertQuery struct {
	Amount float64 `form:"amount" binding:"required,gt=0"`
	From   string  `form:"from" binding:"required"`
	To     string  `form:"to" binding:"required"`
	At     string  `form:"at" binding:"omitempty,datetime=2006-01-02"` // optional cutoff date, YYYY-MM-DD
}

// ConversionResponse defines the data returned for a conversion.
type ConversionResponse struct {
	From           string   `json:"from"`
	To             string   `json:"to"`
	OriginalAmount float64  `json:"originalAmount"`
	Amount         float64  `json:"amount"`
	Rate           float64  `json:"rate"`
	Source         string   `json:"source"`
	Warnings       []string `json:"warnings,omitempty"`
}

// ToConversionResponse converts an fx.ConversionResult to ConversionResponse DTO
func ToConversionResponse(result fx.ConversionResult, amount float64, from, to string) ConversionResponse {
	return ConversionResponse{
		From:           from,
		To:             to,
		OriginalAmount: amount,
		Amount:         result.Amount,
		Rate:           result.Rate,
		Source:         string(result.Source),
		Warnings:       result.Warnings,
	}
}
