package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/apparelmetrics/market_cap_app/internal/adapters/fmp"
	"github.com/apparelmetrics/market_cap_app/internal/apperrors"
	"github.com/apparelmetrics/market_cap_app/internal/core/domain"
	"github.com/apparelmetrics/market_cap_app/internal/core/fx"
	portsrepo "github.com/apparelmetrics/market_cap_app/internal/core/ports/repositories"
	portssvc "github.com/apparelmetrics/market_cap_app/internal/core/ports/services"
	"github.com/apparelmetrics/market_cap_app/internal/middleware"
)

// forexProvider is the slice of the market data API the rate service needs.
type forexProvider interface {
	ForexQuotes(ctx context.Context) ([]fmp.ForexQuote, error)
	AvailableForexPairs(ctx context.Context) ([]fmp.ForexPair, error)
	HistoricalForex(ctx context.Context, pair string, from, to time.Time) (*fmp.HistoricalPriceResponse, error)
}

// rateService implements portssvc.RateSvcFacade on top of the forex rate
// store and the upstream provider.
type rateService struct {
	rateRepo portsrepo.ForexRateRepositoryFacade
	provider forexProvider
}

// NewRateService creates the rate service.
func NewRateService(rateRepo portsrepo.ForexRateRepositoryFacade, provider forexProvider) portssvc.RateSvcFacade {
	return &rateService{rateRepo: rateRepo, provider: provider}
}

var _ portssvc.RateSvcFacade = (*rateService)(nil)

// SnapshotAt builds a snapshot from the latest stored quote per symbol at or
// before the cutoff. A nil cutoff uses the latest quotes overall.
func (s *rateService) SnapshotAt(ctx context.Context, cutoff *time.Time) (*fx.Snapshot, error) {
	rates, err := s.rateRepo.ListLatestForexRates(ctx, cutoff)
	if err != nil {
		return nil, fmt.Errorf("failed to load rates for snapshot: %w", err)
	}

	quotes := make([]fx.Quote, 0, len(rates))
	for _, rate := range rates {
		quotes = append(quotes, fx.Quote{
			Symbol: rate.Symbol,
			Rate:   rate.Ask,
			AsOf:   rate.Timestamp.Unix(),
		})
	}
	return fx.BuildSnapshot(quotes), nil
}

// ConvertAmount converts an amount between two currencies against the
// snapshot for the given cutoff. Missing rates surface as warnings on the
// result, not as errors.
func (s *rateService) ConvertAmount(ctx context.Context, amount float64, fromCurrency, toCurrency string, cutoff *time.Time) (fx.ConversionResult, error) {
	if strings.TrimSpace(fromCurrency) == "" || strings.TrimSpace(toCurrency) == "" {
		return fx.ConversionResult{}, fmt.Errorf("%w: source and target currencies are required", apperrors.ErrValidation)
	}

	snapshot, err := s.SnapshotAt(ctx, cutoff)
	if err != nil {
		return fx.ConversionResult{}, err
	}
	return fx.Convert(amount, fromCurrency, toCurrency, snapshot), nil
}

// ListRateHistory retrieves a page of stored quotes for one symbol, newest
// first, with an opaque token for the next page.
func (s *rateService) ListRateHistory(ctx context.Context, symbol string, limit int, nextToken *string) ([]domain.ForexRate, *string, error) {
	normalized := normalizePair(symbol)
	if normalized == "" {
		return nil, nil, fmt.Errorf("%w: symbol %q must look like EUR/USD", apperrors.ErrValidation, symbol)
	}

	rates, token, err := s.rateRepo.ListForexRatesBySymbol(ctx, normalized, limit, nextToken)
	if err != nil {
		if errors.Is(err, apperrors.ErrValidation) {
			return nil, nil, err
		}
		return nil, nil, fmt.Errorf("failed to list rate history for %s: %w", normalized, err)
	}
	if rates == nil {
		rates = []domain.ForexRate{}
	}
	return rates, token, nil
}

// FetchAndStoreForexQuotes pulls the current quote list and stores every
// parseable pair with ask and bid set to the quoted price.
func (s *rateService) FetchAndStoreForexQuotes(ctx context.Context) (int, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	quotes, err := s.provider.ForexQuotes(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to fetch forex quotes: %w", err)
	}

	now := time.Now().UTC()
	rates := make([]domain.ForexRate, 0, len(quotes))
	for _, quote := range quotes {
		from, to, ok := strings.Cut(quote.Name, "/")
		if !ok || quote.Price <= 0 {
			continue
		}
		if warning, warned := fx.ValidateRate(quote.Price, from, to); warned {
			logger.Warn("Suspicious forex quote", slog.String("warning", warning))
		}
		rates = append(rates, domain.ForexRate{
			Symbol:    quote.Name,
			Ask:       quote.Price,
			Bid:       quote.Price,
			Timestamp: now,
		})
	}

	if len(rates) == 0 {
		return 0, fmt.Errorf("%w: provider returned no usable forex quotes", apperrors.ErrNotFound)
	}

	if err := s.rateRepo.SaveForexRates(ctx, rates); err != nil {
		return 0, fmt.Errorf("failed to store forex quotes: %w", err)
	}

	logger.Info("Stored forex quotes",
		slog.Int("count", len(rates)),
		slog.Int("skipped", len(quotes)-len(rates)),
	)
	return len(rates), nil
}

// FetchAndStoreHistoricalRates fetches daily closes for one pair over a date
// range and stores each close as that day's quote, timestamped at UTC
// midnight.
func (s *rateService) FetchAndStoreHistoricalRates(ctx context.Context, pair string, from, to time.Time) (int, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	symbol := normalizePair(pair)
	if symbol == "" {
		return 0, fmt.Errorf("%w: pair %q must look like EUR/USD", apperrors.ErrValidation, pair)
	}
	if to.Before(from) {
		return 0, fmt.Errorf("%w: range end %s is before start %s",
			apperrors.ErrValidation, to.Format("2006-01-02"), from.Format("2006-01-02"))
	}

	// The provider's pair symbols carry no separator.
	apiSymbol := strings.ReplaceAll(symbol, "/", "")
	available, err := s.provider.AvailableForexPairs(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list available forex pairs: %w", err)
	}
	supported := false
	for _, candidate := range available {
		if candidate.Symbol == apiSymbol {
			supported = true
			break
		}
	}
	if !supported {
		return 0, fmt.Errorf("%w: pair %s is not quoted by the provider", apperrors.ErrValidation, symbol)
	}

	response, err := s.provider.HistoricalForex(ctx, apiSymbol, from, to)
	if err != nil {
		return 0, fmt.Errorf("failed to fetch history for %s: %w", symbol, err)
	}

	rates := make([]domain.ForexRate, 0, len(response.Historical))
	for _, bar := range response.Historical {
		if bar.Close <= 0 {
			continue
		}
		day, err := time.Parse("2006-01-02", bar.Date)
		if err != nil {
			logger.Warn("Skipping bar with unparseable date",
				slog.String("symbol", symbol),
				slog.String("date", bar.Date),
			)
			continue
		}
		rates = append(rates, domain.ForexRate{
			Symbol:    symbol,
			Ask:       bar.Close,
			Bid:       bar.Close,
			Timestamp: day,
		})
	}

	if len(rates) == 0 {
		return 0, fmt.Errorf("%w: no usable bars for %s between %s and %s",
			apperrors.ErrNotFound, symbol, from.Format("2006-01-02"), to.Format("2006-01-02"))
	}

	if err := s.rateRepo.SaveForexRates(ctx, rates); err != nil {
		return 0, fmt.Errorf("failed to store history for %s: %w", symbol, err)
	}

	logger.Info("Stored historical rates", slog.String("symbol", symbol), slog.Int("count", len(rates)))
	return len(rates), nil
}

// normalizePair upper-cases a FROM/TO symbol, returning "" when it does not
// split into two non-empty legs.
func normalizePair(symbol string) string {
	from, to, ok := strings.Cut(strings.ToUpper(strings.TrimSpace(symbol)), "/")
	if !ok || from == "" || to == "" {
		return ""
	}
	return from + "/" + to
}
