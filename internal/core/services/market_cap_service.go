package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/apparelmetrics/market_cap_app/internal/adapters/fmp"
	"github.com/apparelmetrics/market_cap_app/internal/apperrors"
	"github.com/apparelmetrics/market_cap_app/internal/core/domain"
	"github.com/apparelmetrics/market_cap_app/internal/core/fx"
	portsrepo "github.com/apparelmetrics/market_cap_app/internal/core/ports/repositories"
	portssvc "github.com/apparelmetrics/market_cap_app/internal/core/ports/services"
	"github.com/apparelmetrics/market_cap_app/internal/middleware"
	"golang.org/x/sync/errgroup"
)

// fetchConcurrency caps in-flight ticker fetches so one batch cannot
// monopolize the provider rate budget.
const fetchConcurrency = 50

// profileProvider is the slice of the market data API the market cap
// service needs.
type profileProvider interface {
	CompanyProfile(ctx context.Context, ticker string) (*fmp.CompanyProfile, error)
	TickerQuote(ctx context.Context, ticker string) (*fmp.TickerQuote, error)
	HistoricalMarketCap(ctx context.Context, ticker string, date time.Time) (*fmp.HistoricalMarketCapPoint, error)
}

// marketCapService implements portssvc.MarketCapSvcFacade on top of the
// market cap store, the rate service, and the upstream provider.
type marketCapService struct {
	marketCapRepo portsrepo.MarketCapRepositoryFacade
	rateSvc       portssvc.RateReaderSvc
	provider      profileProvider
	tickers       []string
}

// NewMarketCapService creates the market cap service for the configured
// ticker universe.
func NewMarketCapService(marketCapRepo portsrepo.MarketCapRepositoryFacade, rateSvc portssvc.RateReaderSvc, provider profileProvider, tickers []string) portssvc.MarketCapSvcFacade {
	return &marketCapService{
		marketCapRepo: marketCapRepo,
		rateSvc:       rateSvc,
		provider:      provider,
		tickers:       tickers,
	}
}

var _ portssvc.MarketCapSvcFacade = (*marketCapService)(nil)

// ListMarketCaps retrieves the ranked listing as of the end of the given
// date, or the latest listing when date is nil.
func (s *marketCapService) ListMarketCaps(ctx context.Context, date *time.Time) ([]domain.MarketCapEntry, error) {
	var cutoff *time.Time
	if date != nil {
		end := endOfDayUTC(*date)
		cutoff = &end
	}

	entries, err := s.marketCapRepo.ListLatestMarketCaps(ctx, cutoff)
	if err != nil {
		return nil, fmt.Errorf("failed to list market caps: %w", err)
	}
	if entries == nil {
		entries = []domain.MarketCapEntry{}
	}
	return entries, nil
}

// ListAvailableDates retrieves the distinct dates with stored data, newest
// first.
func (s *marketCapService) ListAvailableDates(ctx context.Context, limit int) ([]time.Time, error) {
	dates, err := s.marketCapRepo.ListMarketCapDates(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list market cap dates: %w", err)
	}
	if dates == nil {
		dates = []time.Time{}
	}
	return dates, nil
}

// GetMarketCapByTicker retrieves the most recent entry for one ticker.
func (s *marketCapService) GetMarketCapByTicker(ctx context.Context, ticker string) (*domain.MarketCapEntry, error) {
	normalized := strings.ToUpper(strings.TrimSpace(ticker))
	if normalized == "" {
		return nil, fmt.Errorf("%w: ticker must not be empty", apperrors.ErrValidation)
	}

	entry, err := s.marketCapRepo.FindLatestMarketCapByTicker(ctx, normalized)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, fmt.Errorf("%w: no market cap data for %s", apperrors.ErrNotFound, normalized)
		}
		return nil, fmt.Errorf("failed to get market cap for %s: %w", normalized, err)
	}
	return entry, nil
}

// FetchAndStoreMarketCaps fetches the live profile for every configured
// ticker, converts each cap to EUR and USD through the current rate
// snapshot, and stores the batch with a shared timestamp.
func (s *marketCapService) FetchAndStoreMarketCaps(ctx context.Context, onProgress portssvc.ProgressFunc) ([]domain.MarketCapEntry, error) {
	logger := middleware.GetLoggerFromCtx(ctx)
	if len(s.tickers) == 0 {
		return nil, fmt.Errorf("%w: no tickers configured", apperrors.ErrValidation)
	}

	snapshot, err := s.rateSvc.SnapshotAt(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to load rate snapshot: %w", err)
	}
	if snapshot.Len() == 0 {
		logger.Warn("No exchange rates stored, caps will keep their original amounts")
	}

	now := time.Now().UTC()
	entries, err := s.collectEntries(ctx, onProgress, func(gctx context.Context, ticker string) (domain.MarketCapEntry, error) {
		return s.currentEntry(gctx, ticker, snapshot, now)
	})
	if err != nil {
		return nil, err
	}
	return s.storeRanked(ctx, entries)
}

// FetchAndStoreHistoricalMarketCaps fetches every configured ticker's cap as
// of a past date, converts through the snapshot for that date, and stores the
// batch timestamped at that day's UTC midnight.
func (s *marketCapService) FetchAndStoreHistoricalMarketCaps(ctx context.Context, date time.Time, onProgress portssvc.ProgressFunc) ([]domain.MarketCapEntry, error) {
	logger := middleware.GetLoggerFromCtx(ctx)
	if len(s.tickers) == 0 {
		return nil, fmt.Errorf("%w: no tickers configured", apperrors.ErrValidation)
	}

	// Rates as of the start of the day, matching the midnight timestamps the
	// historical rate fetch writes.
	day := startOfDayUTC(date)
	snapshot, err := s.rateSvc.SnapshotAt(ctx, &day)
	if err != nil {
		return nil, fmt.Errorf("failed to load rate snapshot for %s: %w", day.Format("2006-01-02"), err)
	}
	if snapshot.Len() == 0 {
		logger.Warn("No exchange rates stored at or before date, caps will keep their original amounts",
			slog.String("date", day.Format("2006-01-02")))
	}

	entries, err := s.collectEntries(ctx, onProgress, func(gctx context.Context, ticker string) (domain.MarketCapEntry, error) {
		return s.historicalEntry(gctx, ticker, day, snapshot)
	})
	if err != nil {
		return nil, err
	}
	return s.storeRanked(ctx, entries)
}

type entryFetchFunc func(ctx context.Context, ticker string) (domain.MarketCapEntry, error)

// collectEntries runs the fetch for every ticker in parallel. A ticker that
// fails is logged and skipped; only context cancellation aborts the batch.
func (s *marketCapService) collectEntries(ctx context.Context, onProgress portssvc.ProgressFunc, fetch entryFetchFunc) ([]domain.MarketCapEntry, error) {
	logger := middleware.GetLoggerFromCtx(ctx)
	total := len(s.tickers)

	var (
		mu      sync.Mutex
		done    int
		entries []domain.MarketCapEntry
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(fetchConcurrency)
	for _, ticker := range s.tickers {
		ticker := ticker
		g.Go(func() error {
			entry, err := fetch(gctx, ticker)

			mu.Lock()
			done++
			current := done
			if err == nil {
				entries = append(entries, entry)
			}
			mu.Unlock()

			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				logger.Warn("Skipping ticker",
					slog.String("ticker", ticker),
					slog.String("error", err.Error()),
				)
			}
			if onProgress != nil {
				onProgress(current, total, ticker)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return entries, nil
}

// storeRanked sorts a fetched batch by EUR cap descending and persists it.
func (s *marketCapService) storeRanked(ctx context.Context, entries []domain.MarketCapEntry) ([]domain.MarketCapEntry, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	if len(entries) == 0 {
		return nil, fmt.Errorf("%w: no market cap data fetched for any configured ticker", apperrors.ErrNotFound)
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].MarketCapEUR > entries[j].MarketCapEUR
	})

	if err := s.marketCapRepo.SaveMarketCaps(ctx, entries); err != nil {
		return nil, fmt.Errorf("failed to store market caps: %w", err)
	}

	logger.Info("Stored market caps",
		slog.Int("count", len(entries)),
		slog.Int("failed", len(s.tickers)-len(entries)),
	)
	return entries, nil
}

// currentEntry builds an entry from the live company profile.
func (s *marketCapService) currentEntry(ctx context.Context, ticker string, snap *fx.Snapshot, asOf time.Time) (domain.MarketCapEntry, error) {
	profile, err := s.provider.CompanyProfile(ctx, ticker)
	if err != nil {
		return domain.MarketCapEntry{}, err
	}
	return s.buildEntry(ctx, ticker, profile, profile.MarketCap, profile.Price, snap, asOf), nil
}

// historicalEntry builds an entry from the as-of cap, falling back to the
// live quote when the provider has no history for the date. The price column
// stays zero on the historical path; the provider does not report it
// alongside past caps.
func (s *marketCapService) historicalEntry(ctx context.Context, ticker string, day time.Time, snap *fx.Snapshot) (domain.MarketCapEntry, error) {
	capValue := 0.0
	price := 0.0

	point, err := s.provider.HistoricalMarketCap(ctx, ticker, day)
	switch {
	case err == nil:
		capValue = point.MarketCap
	case errors.Is(err, apperrors.ErrNotFound):
		quote, qErr := s.provider.TickerQuote(ctx, ticker)
		if qErr != nil {
			return domain.MarketCapEntry{}, fmt.Errorf("no cap for %s on %s and no live quote: %w",
				ticker, day.Format("2006-01-02"), qErr)
		}
		capValue = quote.MarketCap
		price = quote.Price
	default:
		return domain.MarketCapEntry{}, err
	}

	profile, err := s.provider.CompanyProfile(ctx, ticker)
	if err != nil {
		return domain.MarketCapEntry{}, err
	}
	return s.buildEntry(ctx, ticker, profile, capValue, price, snap, day), nil
}

// buildEntry converts the original-currency cap to EUR and USD through the
// snapshot and assembles the stored row.
func (s *marketCapService) buildEntry(ctx context.Context, ticker string, profile *fmp.CompanyProfile, capValue, price float64, snap *fx.Snapshot, asOf time.Time) domain.MarketCapEntry {
	eur := fx.Convert(capValue, profile.Currency, "EUR", snap)
	usd := fx.Convert(capValue, profile.Currency, "USD", snap)

	logger := middleware.GetLoggerFromCtx(ctx)
	for _, warning := range append(eur.Warnings, usd.Warnings...) {
		logger.Warn("Currency conversion warning",
			slog.String("ticker", ticker),
			slog.String("warning", warning),
		)
	}

	return domain.MarketCapEntry{
		Ticker:            ticker,
		Name:              profile.CompanyName,
		MarketCapOriginal: capValue,
		OriginalCurrency:  profile.Currency,
		MarketCapEUR:      eur.Amount,
		MarketCapUSD:      usd.Amount,
		EURRate:           eur.Rate,
		USDRate:           usd.Rate,
		Price:             price,
		Exchange:          profile.Exchange,
		Active:            profile.IsActivelyTrading,
		Timestamp:         asOf,
	}
}

// startOfDayUTC truncates a time to UTC midnight.
func startOfDayUTC(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// endOfDayUTC returns the last instant of the day in UTC.
func endOfDayUTC(t time.Time) time.Time {
	return startOfDayUTC(t).AddDate(0, 0, 1).Add(-time.Nanosecond)
}
