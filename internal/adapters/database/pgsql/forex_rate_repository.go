package pgsql

import (
	"context"
	"fmt"
	"time"

	"github.com/apparelmetrics/market_cap_app/internal/apperrors"
	"github.com/apparelmetrics/market_cap_app/internal/core/domain"
	"github.com/apparelmetrics/market_cap_app/internal/core/ports/repositories"
	"github.com/apparelmetrics/market_cap_app/internal/models"
	"github.com/apparelmetrics/market_cap_app/internal/utils/mapping"
	"github.com/apparelmetrics/market_cap_app/internal/utils/pagination"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PgxForexRateRepository struct {
	pool *pgxpool.Pool
}

// NewPgxForexRateRepository creates a new repository for stored forex quotes.
func NewPgxForexRateRepository(pool *pgxpool.Pool) repositories.ForexRateRepositoryFacade {
	return &PgxForexRateRepository{pool: pool}
}

var _ repositories.ForexRateRepositoryFacade = (*PgxForexRateRepository)(nil)

// SaveForexRates persists a batch of quotes in one transaction, upserting on
// (symbol, timestamp) so re-fetching a window is idempotent.
func (r *PgxForexRateRepository) SaveForexRates(ctx context.Context, rates []domain.ForexRate) error {
	if len(rates) == 0 {
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
		INSERT INTO forex_rates (symbol, ask, bid, timestamp)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (symbol, timestamp) DO UPDATE SET
			ask = EXCLUDED.ask,
			bid = EXCLUDED.bid;
	`
	for _, rate := range rates {
		modelRate := mapping.ToModelForexRate(rate)
		batch.Queue(query, modelRate.Symbol, modelRate.Ask, modelRate.Bid, modelRate.Timestamp)
	}

	br := tx.SendBatch(ctx, batch)
	if err := br.Close(); err != nil {
		return fmt.Errorf("failed to execute forex rate batch: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit forex rate batch: %w", err)
	}

	return nil
}

// ListLatestForexRates retrieves the most recent quote per symbol at or
// before the cutoff. A nil cutoff returns the latest quote per symbol.
func (r *PgxForexRateRepository) ListLatestForexRates(ctx context.Context, cutoff *time.Time) ([]domain.ForexRate, error) {
	query := `
		SELECT DISTINCT ON (symbol) id, symbol, ask, bid, timestamp
		FROM forex_rates
		WHERE $1::timestamptz IS NULL OR timestamp <= $1
		ORDER BY symbol, timestamp DESC;
	`
	rows, err := r.pool.Query(ctx, query, cutoff)
	if err != nil {
		return nil, fmt.Errorf("failed to query latest forex rates: %w", err)
	}
	defer rows.Close()

	modelRates, err := pgx.CollectRows(rows, scanForexRate)
	if err != nil {
		return nil, fmt.Errorf("failed to scan forex rates: %w", err)
	}

	return mapping.ToDomainForexRateSlice(modelRates), nil
}

// ListForexRatesBySymbol retrieves a page of quote history for one symbol,
// newest first, using token-based pagination. It returns the rows, a token
// for the next page (if any), and an error.
func (r *PgxForexRateRepository) ListForexRatesBySymbol(ctx context.Context, symbol string, limit int, nextToken *string) ([]domain.ForexRate, *string, error) {
	if limit <= 0 {
		limit = 100
	}
	// Fetch one extra row to determine whether there is a next page.
	fetchLimit := limit + 1

	// (symbol, timestamp) is unique, so timestamp alone is a stable cursor.
	var before *time.Time
	if nextToken != nil && *nextToken != "" {
		cursor, decodeErr := pagination.DecodeTimeToken(*nextToken)
		if decodeErr != nil {
			return nil, nil, fmt.Errorf("%w: invalid nextToken", apperrors.ErrValidation)
		}
		before = &cursor
	}

	query := `
		SELECT id, symbol, ask, bid, timestamp
		FROM forex_rates
		WHERE symbol = $1
		  AND ($2::timestamptz IS NULL OR timestamp < $2)
		ORDER BY timestamp DESC
		LIMIT $3;
	`
	rows, err := r.pool.Query(ctx, query, symbol, before, fetchLimit)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to query forex rates for %s: %w", symbol, err)
	}
	defer rows.Close()

	modelRates, err := pgx.CollectRows(rows, scanForexRate)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to scan forex rates for %s: %w", symbol, err)
	}

	var nextTokenVal *string
	if len(modelRates) > limit {
		// The token points to the last row included in this page; the next
		// query resumes strictly before it.
		modelRates = modelRates[:limit]
		token := pagination.EncodeTimeToken(modelRates[limit-1].Timestamp)
		nextTokenVal = &token
	}

	return mapping.ToDomainForexRateSlice(modelRates), nextTokenVal, nil
}

func scanForexRate(row pgx.CollectableRow) (models.ForexRate, error) {
	var rate models.ForexRate
	err := row.Scan(
		&rate.ID,
		&rate.Symbol,
		&rate.Ask,
		&rate.Bid,
		&rate.Timestamp,
	)
	return rate, err
}
