package repositories

import (
	"context"
	"time"

	"github.com/apparelmetrics/market_cap_app/internal/core/domain"
)

// MarketCapReader defines read operations for market cap data
type MarketCapReader interface {
	// ListLatestMarketCaps retrieves, per ticker, the most recent entry with a
	// timestamp at or before the cutoff, ordered by EUR market cap descending.
	// A nil cutoff means the latest entry per ticker overall.
	ListLatestMarketCaps(ctx context.Context, cutoff *time.Time) ([]domain.MarketCapEntry, error)

	// ListMarketCapDates retrieves the distinct dates for which entries exist,
	// newest first, up to limit rows.
	ListMarketCapDates(ctx context.Context, limit int) ([]time.Time, error)

	// FindLatestMarketCapByTicker retrieves the most recent entry for one ticker.
	FindLatestMarketCapByTicker(ctx context.Context, ticker string) (*domain.MarketCapEntry, error)
}

// MarketCapWriter defines write operations for market cap data
type MarketCapWriter interface {
	// SaveMarketCaps persists a batch of entries, upserting on (ticker, timestamp).
	SaveMarketCaps(ctx context.Context, entries []domain.MarketCapEntry) error
}

// MarketCapRepositoryFacade combines all market-cap repository interfaces
// This is a facade for clients that need access to all operations
type MarketCapRepositoryFacade interface {
	MarketCapReader
	MarketCapWriter
}
