package mapping

import (
	"github.com/apparelmetrics/market_cap_app/internal/core/domain"
	"github.com/apparelmetrics/market_cap_app/internal/models"
)

// ToModelMarketCapEntry converts a domain MarketCapEntry to a model MarketCapEntry
func ToModelMarketCapEntry(d domain.MarketCapEntry) models.MarketCapEntry {
	return models.MarketCapEntry{
		ID:                d.ID,
		Ticker:            d.Ticker,
		Name:              d.Name,
		MarketCapOriginal: d.MarketCapOriginal,
		OriginalCurrency:  d.OriginalCurrency,
		MarketCapEUR:      d.MarketCapEUR,
		MarketCapUSD:      d.MarketCapUSD,
		EURRate:           d.EURRate,
		USDRate:           d.USDRate,
		Price:             d.Price,
		Exchange:          d.Exchange,
		Active:            d.Active,
		Timestamp:         d.Timestamp,
	}
}

// ToDomainMarketCapEntry converts a model MarketCapEntry to a domain MarketCapEntry
func ToDomainMarketCapEntry(m models.MarketCapEntry) domain.MarketCapEntry {
	return domain.MarketCapEntry{
		ID:                m.ID,
		Ticker:            m.Ticker,
		Name:              m.Name,
		MarketCapOriginal: m.MarketCapOriginal,
		OriginalCurrency:  m.OriginalCurrency,
		MarketCapEUR:      m.MarketCapEUR,
		MarketCapUSD:      m.MarketCapUSD,
		EURRate:           m.EURRate,
		USDRate:           m.USDRate,
		Price:             m.Price,
		Exchange:          m.Exchange,
		Active:            m.Active,
		Timestamp:         m.Timestamp,
	}
}

// ToDomainMarketCapEntrySlice converts a slice of model MarketCapEntries to a slice of domain MarketCapEntries
func ToDomainMarketCapEntrySlice(ms []models.MarketCapEntry) []domain.MarketCapEntry {
	ds := make([]domain.MarketCapEntry, len(ms))
	for i, m := range ms {
		ds[i] = ToDomainMarketCapEntry(m)
	}
	return ds
}
