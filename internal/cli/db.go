package cli

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/apparelmetrics/market_cap_app/internal/adapters/database/pgsql"
	portsrepo "github.com/apparelmetrics/market_cap_app/internal/core/ports/repositories"
	portssvc "github.com/apparelmetrics/market_cap_app/internal/core/ports/services"
	"github.com/apparelmetrics/market_cap_app/internal/core/services"
	"github.com/apparelmetrics/market_cap_app/pkg/database"

	migrate "github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/jackc/pgx/v5/stdlib"
)

// runMigrations applies all pending up migrations. It opens a separate
// database/sql connection because migrate does not work on a pgx pool.
func runMigrations(databaseURL string, logger *slog.Logger) error {
	logger.Info("Running database migrations...")

	migrationDB, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return fmt.Errorf("failed to open database connection for migrations: %w", err)
	}
	defer func() {
		if cerr := migrationDB.Close(); cerr != nil {
			logger.Error("Error closing migration DB connection", slog.String("error", cerr.Error()))
		}
	}()
	if err := migrationDB.Ping(); err != nil {
		return fmt.Errorf("failed to ping database for migrations: %w", err)
	}

	driver, err := postgres.WithInstance(migrationDB, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("could not create postgres driver instance for migrations: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance("file://migrations", "postgres", driver)
	if err != nil {
		return fmt.Errorf("could not create migrate instance: %w", err)
	}

	upErr := m.Up()
	if upErr != nil && !errors.Is(upErr, migrate.ErrNoChange) {
		return fmt.Errorf("failed to apply migrations: %w", upErr)
	}

	sourceErr, dbErr := m.Close()
	if sourceErr != nil {
		return fmt.Errorf("migration source error: %w", sourceErr)
	}
	if dbErr != nil {
		return fmt.Errorf("migration database error: %w", dbErr)
	}

	if errors.Is(upErr, migrate.ErrNoChange) {
		logger.Info("No new migrations to apply.")
	} else {
		logger.Info("Database migrations applied successfully.")
	}
	return nil
}

// openServices migrates the database, opens the connection pool and builds
// the service container on top of it. The caller owns the returned pool.
func openServices(ctx context.Context) (*pgxpool.Pool, *portssvc.ServiceContainer, error) {
	if err := runMigrations(cfg.DatabaseURL, logger); err != nil {
		return nil, nil, err
	}

	pool, err := database.NewPgxPool(ctx, cfg.DatabaseURL, cfg.EnableDBCheck)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize database pool: %w", err)
	}
	logger.Info("Database connection pool established.")

	repos := portsrepo.RepositoryProvider{
		CurrencyRepo:  pgsql.NewPgxCurrencyRepository(pool),
		ForexRateRepo: pgsql.NewPgxForexRateRepository(pool),
		MarketCapRepo: pgsql.NewPgxMarketCapRepository(pool),
		UserRepo:      pgsql.NewPgxUserRepository(pool),
	}
	return pool, services.NewServiceContainer(cfg, repos), nil
}
