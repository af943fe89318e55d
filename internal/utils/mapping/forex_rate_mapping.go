package mapping

import (
	"github.com/apparelmetrics/market_cap_app/internal/core/domain"
	"github.com/apparelmetrics/market_cap_app/internal/models"
)

// ToModelForexRate converts a domain ForexRate to a model ForexRate
func ToModelForexRate(d domain.ForexRate) models.ForexRate {
	return models.ForexRate{
		ID:        d.ID,
		Symbol:    d.Symbol,
		Ask:       d.Ask,
		Bid:       d.Bid,
		Timestamp: d.Timestamp,
	}
}

// ToDomainForexRate converts a model ForexRate to a domain ForexRate
func ToDomainForexRate(m models.ForexRate) domain.ForexRate {
	return domain.ForexRate{
		ID:        m.ID,
		Symbol:    m.Symbol,
		Ask:       m.Ask,
		Bid:       m.Bid,
		Timestamp: m.Timestamp,
	}
}

// ToDomainForexRateSlice converts a slice of model ForexRates to a slice of domain ForexRates
func ToDomainForexRateSlice(ms []models.ForexRate) []domain.ForexRate {
	ds := make([]domain.ForexRate, len(ms))
	for i, m := range ms {
		ds[i] = ToDomainForexRate(m)
	}
	return ds
}
