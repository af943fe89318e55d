package pgsql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/apparelmetrics/market_cap_app/internal/apperrors"
	"github.com/apparelmetrics/market_cap_app/internal/core/domain"
	"github.com/apparelmetrics/market_cap_app/internal/core/ports/repositories"
	"github.com/apparelmetrics/market_cap_app/internal/models"
	"github.com/apparelmetrics/market_cap_app/internal/utils/mapping"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PgxMarketCapRepository struct {
	pool *pgxpool.Pool
}

// NewPgxMarketCapRepository creates a new repository for market cap data.
func NewPgxMarketCapRepository(pool *pgxpool.Pool) repositories.MarketCapRepositoryFacade {
	return &PgxMarketCapRepository{pool: pool}
}

var _ repositories.MarketCapRepositoryFacade = (*PgxMarketCapRepository)(nil)

// SaveMarketCaps persists a batch of entries in one transaction, upserting on
// (ticker, timestamp) so re-fetching a date is idempotent.
func (r *PgxMarketCapRepository) SaveMarketCaps(ctx context.Context, entries []domain.MarketCapEntry) error {
	if len(entries) == 0 {
		return nil
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	batch := &pgx.Batch{}
	query := `
		INSERT INTO market_caps (ticker, name, market_cap_original, original_currency, market_cap_eur, market_cap_usd, eur_rate, usd_rate, price, exchange, active, timestamp)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (ticker, timestamp) DO UPDATE SET
			name = EXCLUDED.name,
			market_cap_original = EXCLUDED.market_cap_original,
			original_currency = EXCLUDED.original_currency,
			market_cap_eur = EXCLUDED.market_cap_eur,
			market_cap_usd = EXCLUDED.market_cap_usd,
			eur_rate = EXCLUDED.eur_rate,
			usd_rate = EXCLUDED.usd_rate,
			price = EXCLUDED.price,
			exchange = EXCLUDED.exchange,
			active = EXCLUDED.active;
	`
	for _, entry := range entries {
		modelEntry := mapping.ToModelMarketCapEntry(entry)
		batch.Queue(query,
			modelEntry.Ticker,
			modelEntry.Name,
			modelEntry.MarketCapOriginal,
			modelEntry.OriginalCurrency,
			modelEntry.MarketCapEUR,
			modelEntry.MarketCapUSD,
			modelEntry.EURRate,
			modelEntry.USDRate,
			modelEntry.Price,
			modelEntry.Exchange,
			modelEntry.Active,
			modelEntry.Timestamp,
		)
	}

	br := tx.SendBatch(ctx, batch)
	if err := br.Close(); err != nil {
		return fmt.Errorf("failed to execute market cap batch: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit market cap batch: %w", err)
	}

	return nil
}

// ListLatestMarketCaps retrieves the most recent entry per ticker at or
// before the cutoff, ranked by EUR market cap descending. A nil cutoff
// returns the latest entry per ticker.
func (r *PgxMarketCapRepository) ListLatestMarketCaps(ctx context.Context, cutoff *time.Time) ([]domain.MarketCapEntry, error) {
	query := `
		SELECT id, ticker, name, market_cap_original, original_currency, market_cap_eur, market_cap_usd, eur_rate, usd_rate, price, exchange, active, timestamp
		FROM (
			SELECT DISTINCT ON (ticker) id, ticker, name, market_cap_original, original_currency, market_cap_eur, market_cap_usd, eur_rate, usd_rate, price, exchange, active, timestamp
			FROM market_caps
			WHERE $1::timestamptz IS NULL OR timestamp <= $1
			ORDER BY ticker, timestamp DESC
		) m
		ORDER BY market_cap_eur DESC;
	`
	rows, err := r.pool.Query(ctx, query, cutoff)
	if err != nil {
		return nil, fmt.Errorf("failed to query latest market caps: %w", err)
	}
	defer rows.Close()

	modelEntries, err := pgx.CollectRows(rows, scanMarketCapEntry)
	if err != nil {
		return nil, fmt.Errorf("failed to scan market caps: %w", err)
	}

	return mapping.ToDomainMarketCapEntrySlice(modelEntries), nil
}

// ListMarketCapDates retrieves the distinct dates with stored entries, newest first.
func (r *PgxMarketCapRepository) ListMarketCapDates(ctx context.Context, limit int) ([]time.Time, error) {
	if limit <= 0 {
		limit = 30
	}

	query := `
		SELECT DISTINCT timestamp::date AS day
		FROM market_caps
		ORDER BY day DESC
		LIMIT $1;
	`
	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query market cap dates: %w", err)
	}
	defer rows.Close()

	dates, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (time.Time, error) {
		var day time.Time
		err := row.Scan(&day)
		return day, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan market cap dates: %w", err)
	}

	return dates, nil
}

// FindLatestMarketCapByTicker retrieves the most recent entry for one ticker.
func (r *PgxMarketCapRepository) FindLatestMarketCapByTicker(ctx context.Context, ticker string) (*domain.MarketCapEntry, error) {
	query := `
		SELECT id, ticker, name, market_cap_original, original_currency, market_cap_eur, market_cap_usd, eur_rate, usd_rate, price, exchange, active, timestamp
		FROM market_caps
		WHERE ticker = $1
		ORDER BY timestamp DESC
		LIMIT 1;
	`
	rows, err := r.pool.Query(ctx, query, ticker)
	if err != nil {
		return nil, fmt.Errorf("failed to query market cap for %s: %w", ticker, err)
	}
	defer rows.Close()

	modelEntry, err := pgx.CollectOneRow(rows, scanMarketCapEntry)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to scan market cap for %s: %w", ticker, err)
	}

	domainEntry := mapping.ToDomainMarketCapEntry(modelEntry)
	return &domainEntry, nil
}

func scanMarketCapEntry(row pgx.CollectableRow) (models.MarketCapEntry, error) {
	var entry models.MarketCapEntry
	err := row.Scan(
		&entry.ID,
		&entry.Ticker,
		&entry.Name,
		&entry.MarketCapOriginal,
		&entry.OriginalCurrency,
		&entry.MarketCapEUR,
		&entry.MarketCapUSD,
		&entry.EURRate,
		&entry.USDRate,
		&entry.Price,
		&entry.Exchange,
		&entry.Active,
		&entry.Timestamp,
	)
	return entry, err
}
