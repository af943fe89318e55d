package services_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/apparelmetrics/market_cap_app/internal/adapters/fmp"
	"github.com/apparelmetrics/market_cap_app/internal/apperrors"
	"github.com/apparelmetrics/market_cap_app/internal/core/domain"
	"github.com/apparelmetrics/market_cap_app/internal/core/fx"
	portssvc "github.com/apparelmetrics/market_cap_app/internal/core/ports/services"
	"github.com/apparelmetrics/market_cap_app/internal/core/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

// --- Mock profile provider ---
type MockProfileProvider struct {
	mock.Mock
}

func (m *MockProfileProvider) CompanyProfile(ctx context.Context, ticker string) (*fmp.CompanyProfile, error) {
	args := m.Called(ctx, ticker)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*fmp.CompanyProfile), args.Error(1)
}

func (m *MockProfileProvider) TickerQuote(ctx context.Context, ticker string) (*fmp.TickerQuote, error) {
	args := m.Called(ctx, ticker)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*fmp.TickerQuote), args.Error(1)
}

func (m *MockProfileProvider) HistoricalMarketCap(ctx context.Context, ticker string, date time.Time) (*fmp.HistoricalMarketCapPoint, error) {
	args := m.Called(ctx, ticker, date)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*fmp.HistoricalMarketCapPoint), args.Error(1)
}

// --- Test Suite ---
// Repository and rate reader mocks are shared with the comparison service
// tests in this package.
type MarketCapServiceTestSuite struct {
	suite.Suite
	mockRepo     *MockMarketCapRepository
	mockRates    *MockRateReader
	mockProvider *MockProfileProvider
	service      portssvc.MarketCapSvcFacade
}

func (suite *MarketCapServiceTestSuite) SetupTest() {
	suite.mockRepo = new(MockMarketCapRepository)
	suite.mockRates = new(MockRateReader)
	suite.mockProvider = new(MockProfileProvider)
	suite.service = services.NewMarketCapService(suite.mockRepo, suite.mockRates, suite.mockProvider, []string{"NKE", "MC.PA"})
}

func (suite *MarketCapServiceTestSuite) TestListMarketCaps_CutsOffAtEndOfDay() {
	ctx := context.Background()
	date := time.Date(2025, 6, 2, 15, 30, 0, 0, time.UTC)
	end := time.Date(2025, 6, 3, 0, 0, 0, 0, time.UTC).Add(-time.Nanosecond)
	entries := []domain.MarketCapEntry{{Ticker: "NKE"}}

	suite.mockRepo.On("ListLatestMarketCaps", ctx, &end).Return(entries, nil).Once()

	got, err := suite.service.ListMarketCaps(ctx, &date)

	suite.Require().NoError(err)
	suite.Equal(entries, got)
	suite.mockRepo.AssertExpectations(suite.T())
}

func (suite *MarketCapServiceTestSuite) TestListMarketCaps_NilDateUsesLatest() {
	ctx := context.Background()

	suite.mockRepo.On("ListLatestMarketCaps", ctx, (*time.Time)(nil)).Return(nil, nil).Once()

	got, err := suite.service.ListMarketCaps(ctx, nil)

	suite.Require().NoError(err)
	suite.NotNil(got)
	suite.Empty(got)
}

func (suite *MarketCapServiceTestSuite) TestGetMarketCapByTicker_NormalizesTicker() {
	ctx := context.Background()
	entry := &domain.MarketCapEntry{Ticker: "NKE", MarketCapUSD: 200e9}

	suite.mockRepo.On("FindLatestMarketCapByTicker", ctx, "NKE").Return(entry, nil).Once()

	got, err := suite.service.GetMarketCapByTicker(ctx, " nke ")

	suite.Require().NoError(err)
	suite.Equal(entry, got)
	suite.mockRepo.AssertExpectations(suite.T())
}

func (suite *MarketCapServiceTestSuite) TestGetMarketCapByTicker_EmptyTickerRejected() {
	ctx := context.Background()

	got, err := suite.service.GetMarketCapByTicker(ctx, "  ")

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrValidation)
	suite.Nil(got)
	suite.mockRepo.AssertNotCalled(suite.T(), "FindLatestMarketCapByTicker", mock.Anything, mock.Anything)
}

func (suite *MarketCapServiceTestSuite) TestGetMarketCapByTicker_NotFound() {
	ctx := context.Background()

	suite.mockRepo.On("FindLatestMarketCapByTicker", ctx, "VFC").Return(nil, apperrors.ErrNotFound).Once()

	got, err := suite.service.GetMarketCapByTicker(ctx, "VFC")

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrNotFound)
	suite.Nil(got)
}

func (suite *MarketCapServiceTestSuite) TestFetchAndStoreMarketCaps() {
	ctx := context.Background()
	snapshot := fx.BuildSnapshot([]fx.Quote{{Symbol: "EUR/USD", Rate: 1.10}})

	nike := &fmp.CompanyProfile{
		Symbol: "NKE", CompanyName: "Nike Inc", Currency: "USD",
		MarketCap: 200e9, Price: 75.50, Exchange: "NYSE", IsActivelyTrading: true,
	}
	lvmh := &fmp.CompanyProfile{
		Symbol: "MC.PA", CompanyName: "LVMH", Currency: "EUR",
		MarketCap: 300e9, Price: 600, Exchange: "Euronext Paris", IsActivelyTrading: true,
	}

	suite.mockRates.On("SnapshotAt", ctx, (*time.Time)(nil)).Return(snapshot, nil).Once()
	// Fetches run under a derived group context.
	suite.mockProvider.On("CompanyProfile", mock.Anything, "NKE").Return(nike, nil).Once()
	suite.mockProvider.On("CompanyProfile", mock.Anything, "MC.PA").Return(lvmh, nil).Once()
	suite.mockRepo.On("SaveMarketCaps", ctx, mock.MatchedBy(func(entries []domain.MarketCapEntry) bool {
		return len(entries) == 2
	})).Return(nil).Once()

	var (
		mu       sync.Mutex
		progress int
	)
	entries, err := suite.service.FetchAndStoreMarketCaps(ctx, func(current, total int, ticker string) {
		mu.Lock()
		progress++
		mu.Unlock()
	})

	suite.Require().NoError(err)
	suite.Require().Len(entries, 2)
	suite.Equal(2, progress)

	// Ranked by EUR cap descending: 300B EUR beats 200B USD.
	suite.Equal("MC.PA", entries[0].Ticker)
	suite.InDelta(300e9, entries[0].MarketCapEUR, 1)
	suite.InDelta(330e9, entries[0].MarketCapUSD, 1)
	suite.InDelta(1.10, entries[0].USDRate, 0.0001)

	suite.Equal("NKE", entries[1].Ticker)
	suite.InDelta(200e9, entries[1].MarketCapUSD, 1)
	suite.InDelta(200e9/1.10, entries[1].MarketCapEUR, 1)
	suite.Equal(75.50, entries[1].Price)
	suite.Equal("NYSE", entries[1].Exchange)
	suite.True(entries[1].Active)

	// One shared timestamp for the whole batch.
	suite.True(entries[0].Timestamp.Equal(entries[1].Timestamp))

	suite.mockProvider.AssertExpectations(suite.T())
	suite.mockRepo.AssertExpectations(suite.T())
}

func (suite *MarketCapServiceTestSuite) TestFetchAndStoreMarketCaps_SkipsFailedTicker() {
	ctx := context.Background()
	snapshot := fx.BuildSnapshot([]fx.Quote{{Symbol: "EUR/USD", Rate: 1.10}})
	nike := &fmp.CompanyProfile{Symbol: "NKE", CompanyName: "Nike Inc", Currency: "USD", MarketCap: 200e9}

	suite.mockRates.On("SnapshotAt", ctx, (*time.Time)(nil)).Return(snapshot, nil).Once()
	suite.mockProvider.On("CompanyProfile", mock.Anything, "NKE").Return(nike, nil).Once()
	suite.mockProvider.On("CompanyProfile", mock.Anything, "MC.PA").Return(nil, assert.AnError).Once()
	suite.mockRepo.On("SaveMarketCaps", ctx, mock.MatchedBy(func(entries []domain.MarketCapEntry) bool {
		return len(entries) == 1 && entries[0].Ticker == "NKE"
	})).Return(nil).Once()

	entries, err := suite.service.FetchAndStoreMarketCaps(ctx, nil)

	suite.Require().NoError(err)
	suite.Len(entries, 1)
	suite.mockRepo.AssertExpectations(suite.T())
}

func (suite *MarketCapServiceTestSuite) TestFetchAndStoreMarketCaps_AllTickersFailed() {
	ctx := context.Background()
	snapshot := fx.BuildSnapshot(nil)

	suite.mockRates.On("SnapshotAt", ctx, (*time.Time)(nil)).Return(snapshot, nil).Once()
	suite.mockProvider.On("CompanyProfile", mock.Anything, mock.Anything).Return(nil, assert.AnError).Twice()

	entries, err := suite.service.FetchAndStoreMarketCaps(ctx, nil)

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrNotFound)
	suite.Nil(entries)
	suite.mockRepo.AssertNotCalled(suite.T(), "SaveMarketCaps", mock.Anything, mock.Anything)
}

func (suite *MarketCapServiceTestSuite) TestFetchAndStoreMarketCaps_NoTickersConfigured() {
	ctx := context.Background()
	service := services.NewMarketCapService(suite.mockRepo, suite.mockRates, suite.mockProvider, nil)

	entries, err := service.FetchAndStoreMarketCaps(ctx, nil)

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrValidation)
	suite.Nil(entries)
}

func (suite *MarketCapServiceTestSuite) TestFetchAndStoreHistoricalMarketCaps() {
	ctx := context.Background()
	date := time.Date(2025, 5, 1, 15, 30, 0, 0, time.UTC)
	day := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)
	snapshot := fx.BuildSnapshot([]fx.Quote{{Symbol: "EUR/USD", Rate: 1.08}})

	nike := &fmp.CompanyProfile{Symbol: "NKE", CompanyName: "Nike Inc", Currency: "USD"}
	lvmh := &fmp.CompanyProfile{Symbol: "MC.PA", CompanyName: "LVMH", Currency: "EUR"}

	suite.mockRates.On("SnapshotAt", ctx, &day).Return(snapshot, nil).Once()
	suite.mockProvider.On("HistoricalMarketCap", mock.Anything, "NKE", day).
		Return(&fmp.HistoricalMarketCapPoint{Symbol: "NKE", Date: "2025-05-01", MarketCap: 190e9}, nil).Once()
	suite.mockProvider.On("HistoricalMarketCap", mock.Anything, "MC.PA", day).
		Return(&fmp.HistoricalMarketCapPoint{Symbol: "MC.PA", Date: "2025-05-01", MarketCap: 280e9}, nil).Once()
	suite.mockProvider.On("CompanyProfile", mock.Anything, "NKE").Return(nike, nil).Once()
	suite.mockProvider.On("CompanyProfile", mock.Anything, "MC.PA").Return(lvmh, nil).Once()
	suite.mockRepo.On("SaveMarketCaps", ctx, mock.Anything).Return(nil).Once()

	entries, err := suite.service.FetchAndStoreHistoricalMarketCaps(ctx, date, nil)

	suite.Require().NoError(err)
	suite.Require().Len(entries, 2)

	suite.Equal("MC.PA", entries[0].Ticker)
	suite.InDelta(280e9, entries[0].MarketCapOriginal, 1)
	suite.True(entries[0].Timestamp.Equal(day))
	// The historical endpoint reports no price.
	suite.Zero(entries[0].Price)

	suite.mockProvider.AssertExpectations(suite.T())
}

func (suite *MarketCapServiceTestSuite) TestFetchAndStoreHistoricalMarketCaps_FallsBackToLiveQuote() {
	ctx := context.Background()
	date := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)
	snapshot := fx.BuildSnapshot([]fx.Quote{{Symbol: "EUR/USD", Rate: 1.08}})

	nike := &fmp.CompanyProfile{Symbol: "NKE", CompanyName: "Nike Inc", Currency: "USD"}
	lvmh := &fmp.CompanyProfile{Symbol: "MC.PA", CompanyName: "LVMH", Currency: "EUR"}

	suite.mockRates.On("SnapshotAt", ctx, &date).Return(snapshot, nil).Once()
	suite.mockProvider.On("HistoricalMarketCap", mock.Anything, "NKE", date).
		Return(nil, apperrors.ErrNotFound).Once()
	suite.mockProvider.On("TickerQuote", mock.Anything, "NKE").
		Return(&fmp.TickerQuote{Symbol: "NKE", Price: 70, MarketCap: 185e9}, nil).Once()
	suite.mockProvider.On("HistoricalMarketCap", mock.Anything, "MC.PA", date).
		Return(&fmp.HistoricalMarketCapPoint{Symbol: "MC.PA", Date: "2025-05-01", MarketCap: 280e9}, nil).Once()
	suite.mockProvider.On("CompanyProfile", mock.Anything, "NKE").Return(nike, nil).Once()
	suite.mockProvider.On("CompanyProfile", mock.Anything, "MC.PA").Return(lvmh, nil).Once()
	suite.mockRepo.On("SaveMarketCaps", ctx, mock.Anything).Return(nil).Once()

	entries, err := suite.service.FetchAndStoreHistoricalMarketCaps(ctx, date, nil)

	suite.Require().NoError(err)
	suite.Require().Len(entries, 2)

	suite.Equal("NKE", entries[1].Ticker)
	suite.InDelta(185e9, entries[1].MarketCapOriginal, 1)
	suite.Equal(70.0, entries[1].Price)

	suite.mockProvider.AssertExpectations(suite.T())
}

func TestMarketCapServiceTestSuite(t *testing.T) {
	suite.Run(t, new(MarketCapServiceTestSuite))
}
