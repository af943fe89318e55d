package services

import (
	"context"
	"time"

	"github.com/apparelmetrics/market_cap_app/internal/core/domain"
)

// ProgressFunc reports per-ticker progress during a long-running fetch.
// Implementations must be safe to call from multiple goroutines.
type ProgressFunc func(current, total int, ticker string)

// MarketCapReaderSvc defines read operations for market cap data
type MarketCapReaderSvc interface {
	// ListMarketCaps retrieves the ranked market cap listing as of the end of
	// the given date. A nil date uses the latest data overall.
	ListMarketCaps(ctx context.Context, date *time.Time) ([]domain.MarketCapEntry, error)

	// ListAvailableDates retrieves the distinct dates with stored data,
	// newest first, up to limit rows.
	ListAvailableDates(ctx context.Context, limit int) ([]time.Time, error)

	// GetMarketCapByTicker retrieves the most recent entry for one ticker.
	GetMarketCapByTicker(ctx context.Context, ticker string) (*domain.MarketCapEntry, error)
}

// MarketCapFetcherSvc defines operations that pull market caps from the
// upstream provider and persist them
type MarketCapFetcherSvc interface {
	// FetchAndStoreMarketCaps fetches profile and market cap data for every
	// configured ticker, converts to EUR and USD with the current rate
	// snapshot, and persists the batch. onProgress may be nil.
	FetchAndStoreMarketCaps(ctx context.Context, onProgress ProgressFunc) ([]domain.MarketCapEntry, error)

	// FetchAndStoreHistoricalMarketCaps fetches market caps for every
	// configured ticker as of a past date and persists them. onProgress may
	// be nil.
	FetchAndStoreHistoricalMarketCaps(ctx context.Context, date time.Time, onProgress ProgressFunc) ([]domain.MarketCapEntry, error)
}

// MarketCapSvcFacade combines all market-cap service interfaces
type MarketCapSvcFacade interface {
	MarketCapReaderSvc
	MarketCapFetcherSvc
}
