package repositories

import (
	"context"
	"time"

	"github.com/apparelmetrics/market_cap_app/internal/core/domain"
)

// ForexRateReader defines read operations for stored forex quotes
type ForexRateReader interface {
	// ListLatestForexRates retrieves, per symbol, the most recent quote with a
	// timestamp at or before the cutoff. A nil cutoff means the latest quote
	// per symbol overall.
	ListLatestForexRates(ctx context.Context, cutoff *time.Time) ([]domain.ForexRate, error)

	// ListForexRatesBySymbol retrieves the quote history for one symbol,
	// newest first, up to limit rows. A non-nil nextToken resumes after the
	// page that produced it; the returned token is nil on the last page.
	ListForexRatesBySymbol(ctx context.Context, symbol string, limit int, nextToken *string) ([]domain.ForexRate, *string, error)
}

// ForexRateWriter defines write operations for stored forex quotes
type ForexRateWriter interface {
	// SaveForexRates persists a batch of quotes, upserting on (symbol, timestamp).
	SaveForexRates(ctx context.Context, rates []domain.ForexRate) error
}

// ForexRateRepositoryFacade combines all forex-rate repository interfaces
// This is a facade for clients that need access to all operations
type ForexRateRepositoryFacade interface {
	ForexRateReader
	ForexRateWriter
}
