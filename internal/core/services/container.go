package services

import (
	"github.com/apparelmetrics/market_cap_app/internal/adapters/fmp"
	portsrepo "github.com/apparelmetrics/market_cap_app/internal/core/ports/repositories"
	portssvc "github.com/apparelmetrics/market_cap_app/internal/core/ports/services"
	"github.com/apparelmetrics/market_cap_app/pkg/config"
)

// NewServiceContainer creates a new service container with properly
// initialized dependencies. The market data client is shared by the rate and
// market cap services so they draw from one rate-limit budget.
func NewServiceContainer(cfg *config.Config, repos portsrepo.RepositoryProvider) *portssvc.ServiceContainer {
	container := &portssvc.ServiceContainer{}

	var fmpOptions []fmp.Option
	if cfg.FMPBaseURL != "" {
		fmpOptions = append(fmpOptions, fmp.WithBaseURL(cfg.FMPBaseURL))
	}
	provider := fmp.NewClient(cfg.FMPAPIKey, fmpOptions...)

	// Rate service first since conversion-dependent services build on it.
	container.Currency = NewCurrencyService(repos.CurrencyRepo)
	container.Rate = NewRateService(repos.ForexRateRepo, provider)
	container.MarketCap = NewMarketCapService(repos.MarketCapRepo, container.Rate, provider, cfg.Tickers.All())
	container.Comparison = NewComparisonService(repos.MarketCapRepo, container.Rate)

	container.User = NewUserService(repos.UserRepo)
	container.Token = NewTokenService(cfg, container.User)
	container.GoogleOAuth = NewGoogleOAuthHandlerService(cfg)

	return container
}
