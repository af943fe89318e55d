package services

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"time"

	"github.com/apparelmetrics/market_cap_app/internal/apperrors"
	"github.com/apparelmetrics/market_cap_app/internal/core/domain"
	"github.com/apparelmetrics/market_cap_app/internal/core/fx"
	portsrepo "github.com/apparelmetrics/market_cap_app/internal/core/ports/repositories"
	portssvc "github.com/apparelmetrics/market_cap_app/internal/core/ports/services"
	"github.com/apparelmetrics/market_cap_app/internal/middleware"
)

// moverLimit caps the gainer and loser lists.
const moverLimit = 10

// noRatesWarning flags a comparison that could not be normalized through a
// shared snapshot.
const noRatesWarning = "No exchange rates stored; changes include currency moves alongside market cap moves"

// comparisonService implements portssvc.ComparisonSvcFacade over the market
// cap store and the rate service.
type comparisonService struct {
	marketCapRepo portsrepo.MarketCapRepositoryFacade
	rateSvc       portssvc.RateReaderSvc
}

// NewComparisonService creates the comparison service.
func NewComparisonService(marketCapRepo portsrepo.MarketCapRepositoryFacade, rateSvc portssvc.RateReaderSvc) portssvc.ComparisonSvcFacade {
	return &comparisonService{marketCapRepo: marketCapRepo, rateSvc: rateSvc}
}

var _ portssvc.ComparisonSvcFacade = (*comparisonService)(nil)

// Compare builds the comparison between two dates. Both sides are converted
// from their original-currency caps through one snapshot as of the to date,
// so an exchange-rate move between the dates never shows up as a market cap
// change. With no snapshot at or before the to date the latest snapshot is
// used; with no snapshot at all the stored conversions are kept and the
// result is flagged.
func (s *comparisonService) Compare(ctx context.Context, fromDate, toDate time.Time) (*domain.Comparison, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	from := startOfDayUTC(fromDate)
	to := startOfDayUTC(toDate)
	if to.Before(from) {
		return nil, fmt.Errorf("%w: to date %s is before from date %s",
			apperrors.ErrValidation, to.Format("2006-01-02"), from.Format("2006-01-02"))
	}

	fromCut := endOfDayUTC(from)
	toCut := endOfDayUTC(to)

	fromEntries, err := s.marketCapRepo.ListLatestMarketCaps(ctx, &fromCut)
	if err != nil {
		return nil, fmt.Errorf("failed to load market caps for %s: %w", from.Format("2006-01-02"), err)
	}
	if len(fromEntries) == 0 {
		return nil, fmt.Errorf("%w: no market cap data at or before %s", apperrors.ErrNotFound, from.Format("2006-01-02"))
	}

	toEntries, err := s.marketCapRepo.ListLatestMarketCaps(ctx, &toCut)
	if err != nil {
		return nil, fmt.Errorf("failed to load market caps for %s: %w", to.Format("2006-01-02"), err)
	}
	if len(toEntries) == 0 {
		return nil, fmt.Errorf("%w: no market cap data at or before %s", apperrors.ErrNotFound, to.Format("2006-01-02"))
	}

	// One snapshot for both sides, as of the to date's midnight to match the
	// timestamps the historical rate fetch writes.
	snapshot, err := s.rateSvc.SnapshotAt(ctx, &to)
	if err != nil {
		return nil, fmt.Errorf("failed to load rate snapshot for %s: %w", to.Format("2006-01-02"), err)
	}
	if snapshot.Len() == 0 {
		logger.Warn("No exchange rates at or before to date, falling back to latest rates",
			slog.String("date", to.Format("2006-01-02")))
		snapshot, err = s.rateSvc.SnapshotAt(ctx, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to load latest rate snapshot: %w", err)
		}
	}

	comparison := &domain.Comparison{
		FromDate:          from,
		ToDate:            to,
		FxNoiseEliminated: snapshot.Len() > 0,
	}
	if !comparison.FxNoiseEliminated {
		logger.Warn("No exchange rates stored at all, comparison keeps stored conversions")
		comparison.Warnings = append(comparison.Warnings, noRatesWarning)
	}

	comparison.Rows = buildRows(fromEntries, toEntries, snapshot, comparison.FxNoiseEliminated)
	fillAggregates(comparison)
	if comparison.FxNoiseEliminated {
		comparison.Rates = rateLines(fromEntries, toEntries, snapshot)
	}

	logger.Info("Built market cap comparison",
		slog.String("from", from.Format("2006-01-02")),
		slog.String("to", to.Format("2006-01-02")),
		slog.Int("companies", len(comparison.Rows)),
		slog.Bool("fxNoiseEliminated", comparison.FxNoiseEliminated),
	)
	return comparison, nil
}

// buildRows joins the two sides on ticker and normalizes each side's
// original-currency cap through the shared snapshot. Rows are sorted by
// percentage change descending with one-sided rows last.
func buildRows(fromEntries, toEntries []domain.MarketCapEntry, snap *fx.Snapshot, normalize bool) []domain.ComparisonRow {
	byTicker := make(map[string]*domain.ComparisonRow, len(fromEntries)+len(toEntries))

	// Readers return entries ranked by EUR cap descending; position is rank.
	for i, entry := range fromEntries {
		row := rowFor(byTicker, entry)
		row.FromRank = i + 1
		row.FromCapOriginal = entry.MarketCapOriginal
		row.FromCapUSD, row.FromCapEUR = normalizedCaps(entry, snap, normalize, row)
	}
	for i, entry := range toEntries {
		row := rowFor(byTicker, entry)
		row.Name = entry.Name
		row.OriginalCurrency = entry.OriginalCurrency
		row.ToRank = i + 1
		row.ToCapOriginal = entry.MarketCapOriginal
		row.ToCapUSD, row.ToCapEUR = normalizedCaps(entry, snap, normalize, row)
	}

	rows := make([]domain.ComparisonRow, 0, len(byTicker))
	for _, row := range byTicker {
		if row.FromRank > 0 && row.ToRank > 0 {
			row.ChangeUSD = row.ToCapUSD - row.FromCapUSD
			if row.FromCapUSD != 0 {
				row.ChangePct = row.ChangeUSD / row.FromCapUSD * 100
			}
		}
		rows = append(rows, *row)
	}

	sort.Slice(rows, func(i, j int) bool {
		a, b := sortPct(rows[i]), sortPct(rows[j])
		if a != b {
			return a > b
		}
		return rows[i].Ticker < rows[j].Ticker
	})
	return rows
}

func rowFor(byTicker map[string]*domain.ComparisonRow, entry domain.MarketCapEntry) *domain.ComparisonRow {
	row, ok := byTicker[entry.Ticker]
	if !ok {
		row = &domain.ComparisonRow{
			Ticker:           entry.Ticker,
			Name:             entry.Name,
			OriginalCurrency: entry.OriginalCurrency,
		}
		byTicker[entry.Ticker] = row
	}
	return row
}

// normalizedCaps converts one side through the snapshot, or keeps the
// conversions stored at ingestion time when no snapshot exists. Conversion
// warnings land on the row.
func normalizedCaps(entry domain.MarketCapEntry, snap *fx.Snapshot, normalize bool, row *domain.ComparisonRow) (usd, eur float64) {
	if !normalize {
		return entry.MarketCapUSD, entry.MarketCapEUR
	}

	usdRes := fx.Convert(entry.MarketCapOriginal, entry.OriginalCurrency, "USD", snap)
	eurRes := fx.Convert(entry.MarketCapOriginal, entry.OriginalCurrency, "EUR", snap)
	row.Warnings = append(row.Warnings, usdRes.Warnings...)
	row.Warnings = append(row.Warnings, eurRes.Warnings...)
	return usdRes.Amount, eurRes.Amount
}

// sortPct orders one-sided rows after every two-sided row, mirroring a
// missing percentage sorting as negative infinity.
func sortPct(row domain.ComparisonRow) float64 {
	if row.FromRank == 0 || row.ToRank == 0 {
		return math.Inf(-1)
	}
	return row.ChangePct
}

// fillAggregates computes totals, concentration, and the mover lists from
// the sorted rows.
func fillAggregates(comparison *domain.Comparison) {
	var top10USD float64
	for _, row := range comparison.Rows {
		if row.FromRank > 0 {
			comparison.TotalFromUSD += row.FromCapUSD
		}
		if row.ToRank > 0 {
			comparison.TotalToUSD += row.ToCapUSD
			if row.ToRank <= moverLimit {
				top10USD += row.ToCapUSD
			}
		}
	}
	comparison.TotalChangeUSD = comparison.TotalToUSD - comparison.TotalFromUSD
	if comparison.TotalFromUSD > 0 {
		comparison.TotalChangePct = comparison.TotalChangeUSD / comparison.TotalFromUSD * 100
	}
	if comparison.TotalToUSD > 0 {
		comparison.Top10Share = top10USD / comparison.TotalToUSD * 100
	}

	// Rows are already sorted by percentage change descending.
	for _, row := range comparison.Rows {
		if row.FromRank == 0 || row.ToRank == 0 || row.ChangePct <= 0 {
			continue
		}
		comparison.TopGainers = append(comparison.TopGainers, moverFromRow(row))
		if len(comparison.TopGainers) == moverLimit {
			break
		}
	}
	for i := len(comparison.Rows) - 1; i >= 0; i-- {
		row := comparison.Rows[i]
		if row.FromRank == 0 || row.ToRank == 0 {
			continue
		}
		if row.ChangePct >= 0 {
			break
		}
		comparison.TopLosers = append(comparison.TopLosers, moverFromRow(row))
		if len(comparison.TopLosers) == moverLimit {
			break
		}
	}
}

func moverFromRow(row domain.ComparisonRow) domain.Mover {
	return domain.Mover{
		Ticker:    row.Ticker,
		Name:      row.Name,
		ChangeUSD: row.ChangeUSD,
		ChangePct: row.ChangePct,
	}
}

// rateLines reports the snapshot legs the normalization used, one line per
// distinct original currency and reporting currency.
func rateLines(fromEntries, toEntries []domain.MarketCapEntry, snap *fx.Snapshot) []domain.RateLine {
	currencies := make(map[string]struct{})
	for _, entry := range fromEntries {
		currencies[entry.OriginalCurrency] = struct{}{}
	}
	for _, entry := range toEntries {
		currencies[entry.OriginalCurrency] = struct{}{}
	}

	var lines []domain.RateLine
	for currency := range currencies {
		for _, target := range []string{"USD", "EUR"} {
			if currency == target {
				continue
			}
			result := fx.Convert(1, currency, target, snap)
			lines = append(lines, domain.RateLine{
				FromCurrency: currency,
				ToCurrency:   target,
				Rate:         result.Rate,
				Source:       string(result.Source),
			})
		}
	}

	sort.Slice(lines, func(i, j int) bool {
		if lines[i].FromCurrency != lines[j].FromCurrency {
			return lines[i].FromCurrency < lines[j].FromCurrency
		}
		return lines[i].ToCurrency < lines[j].ToCurrency
	})
	return lines
}
