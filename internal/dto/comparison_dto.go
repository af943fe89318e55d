package dto

import (
	"github.com/apparelmetrics/market_cap_app/internal/core/domain"
)

// ComparisonQuery defines query parameters for a market cap comparison.
type ComparisonQuery struct {
	FromDate string `form:"fromDate" binding:"required,datetime=2006-01-02"`
	ToDate   string `form:"toDate" binding:"required,datetime=2006-01-02"`
}

// ComparisonRowResponse represents one company in a comparison response.
type ComparisonRowResponse struct {
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

// MoverResponse is a compact gainer/loser line.
type MoverResponse struct {
	Ticker    string  `json:"ticker"`
	Name      string  `json:"name"`
	ChangeUSD float64 `json:"changeUSD"`
	ChangePct float64 `json:"changePct"`
}

// ComparisonResponse represents the full comparison between two dates.
type ComparisonResponse struct {
	FromDate   string                  `json:"fromDate"`
	ToDate     string                  `json:"toDate"`
	Rows       []ComparisonRowResponse `json:"rows"`
	TopGainers []MoverResponse         `json:"topGainers"`
	TopLosers  []MoverResponse         `json:"topLosers"`
	Rates      []RateLineResponse      `json:"rates"`
	Summary    struct {
		TotalFromUSD   float64 `json:"totalFromUSD"`
		TotalToUSD     float64 `json:"totalToUSD"`
		TotalChangeUSD float64 `json:"totalChangeUSD"`
		TotalChangePct float64 `json:"totalChangePct"`
		Top10Share     float64 `json:"top10Share"`
	} `json:"summary"`
	FxNoiseEliminated bool     `json:"fxNoiseEliminated"`
	Warnings          []string `json:"warnings,omitempty"`
}

// ToComparisonResponse converts a domain.Comparison to ComparisonResponse DTO
func ToComparisonResponse(cmp *domain.Comparison) ComparisonResponse {
	response := ComparisonResponse{
		FromDate:          cmp.FromDate.Format("2006-01-02"),
		ToDate:            cmp.ToDate.Format("2006-01-02"),
		Rows:              make([]ComparisonRowResponse, len(cmp.Rows)),
		TopGainers:        toMoverResponses(cmp.TopGainers),
		TopLosers:         toMoverResponses(cmp.TopLosers),
		Rates:             make([]RateLineResponse, len(cmp.Rates)),
		FxNoiseEliminated: cmp.FxNoiseEliminated,
		Warnings:          cmp.Warnings,
	}

	for i, row := range cmp.Rows {
		response.Rows[i] = ComparisonRowResponse{
			Ticker:           row.Ticker,
			Name:             row.Name,
			OriginalCurrency: row.OriginalCurrency,
			FromRank:         row.FromRank,
			ToRank:           row.ToRank,
			FromCapOriginal:  row.FromCapOriginal,
			ToCapOriginal:    row.ToCapOriginal,
			FromCapUSD:       row.FromCapUSD,
			ToCapUSD:         row.ToCapUSD,
			FromCapEUR:       row.FromCapEUR,
			ToCapEUR:         row.ToCapEUR,
			ChangeUSD:        row.ChangeUSD,
			ChangePct:        row.ChangePct,
			Warnings:         row.Warnings,
		}
	}

	for i, rate := range cmp.Rates {
		response.Rates[i] = RateLineResponse{
			FromCurrency: rate.FromCurrency,
			ToCurrency:   rate.ToCurrency,
			Rate:         rate.Rate,
			Source:       rate.Source,
		}
	}

	response.Summary.TotalFromUSD = cmp.TotalFromUSD
	response.Summary.TotalToUSD = cmp.TotalToUSD
	response.Summary.TotalChangeUSD = cmp.TotalChangeUSD
	response.Summary.TotalChangePct = cmp.TotalChangePct
	response.Summary.Top10Share = cmp.Top10Share

	return response
}

func toMoverResponses(movers []domain.Mover) []MoverResponse {
	responses := make([]MoverResponse, len(movers))
	for i, m := range movers {
		responses[i] = MoverResponse{
			Ticker:    m.Ticker,
			Name:      m.Name,
			ChangeUSD: m.ChangeUSD,
			ChangePct: m.ChangePct,
		}
	}
	return responses
}
