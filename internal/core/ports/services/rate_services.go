package services

import (
	"context"
	"time"

	"github.com/apparelmetrics/market_cap_app/internal/core/domain"
	"github.com/apparelmetrics/market_cap_app/internal/core/fx"
)

// RateReaderSvc defines read operations over stored forex quotes
type RateReaderSvc interface {
	// SnapshotAt builds a rate snapshot from the latest stored quote per
	// symbol at or before the cutoff. A nil cutoff uses the latest quotes
	// overall. The returned snapshot may be empty but is never nil.
	SnapshotAt(ctx context.Context, cutoff *time.Time) (*fx.Snapshot, error)

	// ConvertAmount converts an amount between two currencies against the
	// snapshot for the given cutoff.
	ConvertAmount(ctx context.Context, amount float64, fromCurrency, toCurrency string, cutoff *time.Time) (fx.ConversionResult, error)

	// ListRateHistory retrieves a page of stored quote history for one symbol,
	// newest first. A non-nil nextToken resumes after the page that produced
	// it; the returned token is nil on the last page.
	ListRateHistory(ctx context.Context, symbol string, limit int, nextToken *string) ([]domain.ForexRate, *string, error)
}

// RateFetcherSvc defines operations that pull quotes from the upstream
// provider and persist them
type RateFetcherSvc interface {
	// FetchAndStoreForexQuotes fetches the current quote for every available
	// forex pair and persists the batch. Returns the number of quotes stored.
	FetchAndStoreForexQuotes(ctx context.Context) (int, error)

	// FetchAndStoreHistoricalRates fetches daily closes for one pair over a
	// date range and persists them. Returns the number of quotes stored.
	FetchAndStoreHistoricalRates(ctx context.Context, pair string, from, to time.Time) (int, error)
}

// RateSvcFacade combines all rate-related service interfaces
type RateSvcFacade interface {
	RateReaderSvc
	RateFetcherSvc
}
