package services

import (
	"context"
	"time"

	"github.com/apparelmetrics/market_cap_app/internal/core/domain"
)

// ComparisonSvcFacade defines operations for comparing market caps between dates
type ComparisonSvcFacade interface {
	// Compare builds the full comparison between two dates. Both sides are
	// normalized through a single rate snapshot as of the later date so the
	// change columns are free of exchange-rate noise; when no snapshot can
	// be built the stored conversions are used and the result says so.
	Compare(ctx context.Context, fromDate, toDate time.Time) (*domain.Comparison, error)
}
