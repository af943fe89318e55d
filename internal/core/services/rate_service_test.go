package services_test

import (
	"context"
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

// --- Mock ForexRateRepository ---
type MockForexRateRepository struct {
	mock.Mock
}

func (m *MockForexRateRepository) ListLatestForexRates(ctx context.Context, cutoff *time.Time) ([]domain.ForexRate, error) {
	args := m.Called(ctx, cutoff)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.ForexRate), args.Error(1)
}

func (m *MockForexRateRepository) ListForexRatesBySymbol(ctx context.Context, symbol string, limit int, nextToken *string) ([]domain.ForexRate, *string, error) {
	args := m.Called(ctx, symbol, limit, nextToken)
	var rates []domain.ForexRate
	if args.Get(0) != nil {
		rates = args.Get(0).([]domain.ForexRate)
	}
	var token *string
	if args.Get(1) != nil {
		token = args.Get(1).(*string)
	}
	return rates, token, args.Error(2)
}

func (m *MockForexRateRepository) SaveForexRates(ctx context.Context, rates []domain.ForexRate) error {
	args := m.Called(ctx, rates)
	return args.Error(0)
}

// --- Mock forex provider ---
type MockForexProvider struct {
	mock.Mock
}

func (m *MockForexProvider) ForexQuotes(ctx context.Context) ([]fmp.ForexQuote, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]fmp.ForexQuote), args.Error(1)
}

func (m *MockForexProvider) AvailableForexPairs(ctx context.Context) ([]fmp.ForexPair, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]fmp.ForexPair), args.Error(1)
}

func (m *MockForexProvider) HistoricalForex(ctx context.Context, pair string, from, to time.Time) (*fmp.HistoricalPriceResponse, error) {
	args := m.Called(ctx, pair, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*fmp.HistoricalPriceResponse), args.Error(1)
}

// --- Test Suite ---
type RateServiceTestSuite struct {
	suite.Suite
	mockRepo     *MockForexRateRepository
	mockProvider *MockForexProvider
	service      portssvc.RateSvcFacade
}

func (suite *RateServiceTestSuite) SetupTest() {
	suite.mockRepo = new(MockForexRateRepository)
	suite.mockProvider = new(MockForexProvider)
	suite.service = services.NewRateService(suite.mockRepo, suite.mockProvider)
}

func (suite *RateServiceTestSuite) TestSnapshotAt_BuildsFromStoredRates() {
	ctx := context.Background()
	asOf := time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)
	stored := []domain.ForexRate{
		{Symbol: "EUR/USD", Ask: 1.10, Bid: 1.0995, Timestamp: asOf},
		{Symbol: "GBP/USD", Ask: 1.27, Bid: 1.2690, Timestamp: asOf},
	}

	suite.mockRepo.On("ListLatestForexRates", ctx, (*time.Time)(nil)).Return(stored, nil).Once()

	snapshot, err := suite.service.SnapshotAt(ctx, nil)

	suite.Require().NoError(err)
	suite.Require().NotNil(snapshot)

	rate, ok := snapshot.Rate("EUR", "USD")
	suite.True(ok)
	suite.InDelta(1.10, rate, 0.0001)

	// The reciprocal and the single-hop cross both come out of the same
	// two stored quotes.
	rate, ok = snapshot.Rate("USD", "EUR")
	suite.True(ok)
	suite.InDelta(1/1.10, rate, 0.0001)

	rate, ok = snapshot.Rate("EUR", "GBP")
	suite.True(ok)
	suite.InDelta(1.10/1.27, rate, 0.0001)

	suite.mockRepo.AssertExpectations(suite.T())
}

func (suite *RateServiceTestSuite) TestSnapshotAt_RepositoryError() {
	ctx := context.Background()
	expectedErr := assert.AnError

	suite.mockRepo.On("ListLatestForexRates", ctx, (*time.Time)(nil)).Return(nil, expectedErr).Once()

	snapshot, err := suite.service.SnapshotAt(ctx, nil)

	suite.Require().Error(err)
	suite.ErrorIs(err, expectedErr)
	suite.Nil(snapshot)
}

func (suite *RateServiceTestSuite) TestConvertAmount() {
	ctx := context.Background()
	cutoff := time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)
	stored := []domain.ForexRate{
		{Symbol: "EUR/USD", Ask: 1.10, Bid: 1.0995, Timestamp: cutoff},
	}

	suite.mockRepo.On("ListLatestForexRates", ctx, &cutoff).Return(stored, nil).Once()

	result, err := suite.service.ConvertAmount(ctx, 100, "EUR", "USD", &cutoff)

	suite.Require().NoError(err)
	suite.InDelta(110.0, result.Amount, 0.0001)
	suite.Equal(fx.SourceDirect, result.Source)
	suite.mockRepo.AssertExpectations(suite.T())
}

func (suite *RateServiceTestSuite) TestConvertAmount_RequiresBothCurrencies() {
	ctx := context.Background()

	_, err := suite.service.ConvertAmount(ctx, 100, " ", "USD", nil)

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrValidation)
	suite.mockRepo.AssertNotCalled(suite.T(), "ListLatestForexRates", mock.Anything, mock.Anything)
}

func (suite *RateServiceTestSuite) TestListRateHistory_NormalizesSymbol() {
	ctx := context.Background()

	suite.mockRepo.On("ListForexRatesBySymbol", ctx, "EUR/USD", 30, (*string)(nil)).Return(nil, nil, nil).Once()

	rates, token, err := suite.service.ListRateHistory(ctx, "eur/usd", 30, nil)

	suite.Require().NoError(err)
	suite.NotNil(rates)
	suite.Empty(rates)
	suite.Nil(token)
	suite.mockRepo.AssertExpectations(suite.T())
}

func (suite *RateServiceTestSuite) TestListRateHistory_PassesTokenThrough() {
	ctx := context.Background()
	requestToken := "cGFnZS10d28="
	pageToken := "cGFnZS10aHJlZQ=="
	stored := []domain.ForexRate{
		{Symbol: "EUR/USD", Ask: 1.10, Bid: 1.0995, Timestamp: time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)},
	}

	suite.mockRepo.On("ListForexRatesBySymbol", ctx, "EUR/USD", 1, &requestToken).Return(stored, &pageToken, nil).Once()

	rates, token, err := suite.service.ListRateHistory(ctx, "EUR/USD", 1, &requestToken)

	suite.Require().NoError(err)
	suite.Len(rates, 1)
	suite.Require().NotNil(token)
	suite.Equal(pageToken, *token)
	suite.mockRepo.AssertExpectations(suite.T())
}

func (suite *RateServiceTestSuite) TestListRateHistory_RejectsMalformedSymbol() {
	ctx := context.Background()

	rates, token, err := suite.service.ListRateHistory(ctx, "EURUSD", 30, nil)

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrValidation)
	suite.Nil(rates)
	suite.Nil(token)
	suite.mockRepo.AssertNotCalled(suite.T(), "ListForexRatesBySymbol", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func (suite *RateServiceTestSuite) TestFetchAndStoreForexQuotes() {
	ctx := context.Background()
	quotes := []fmp.ForexQuote{
		{Symbol: "EURUSD", Name: "EUR/USD", Price: 1.10},
		{Symbol: "GBPUSD", Name: "GBPUSD", Price: 1.27},  // no separator, skipped
		{Symbol: "JPYUSD", Name: "JPY/USD", Price: 0},    // no price, skipped
	}

	suite.mockProvider.On("ForexQuotes", ctx).Return(quotes, nil).Once()
	suite.mockRepo.On("SaveForexRates", ctx, mock.MatchedBy(func(rates []domain.ForexRate) bool {
		return len(rates) == 1 &&
			rates[0].Symbol == "EUR/USD" &&
			rates[0].Ask == 1.10 &&
			rates[0].Bid == 1.10 &&
			!rates[0].Timestamp.IsZero()
	})).Return(nil).Once()

	count, err := suite.service.FetchAndStoreForexQuotes(ctx)

	suite.Require().NoError(err)
	suite.Equal(1, count)
	suite.mockProvider.AssertExpectations(suite.T())
	suite.mockRepo.AssertExpectations(suite.T())
}

func (suite *RateServiceTestSuite) TestFetchAndStoreForexQuotes_NothingUsable() {
	ctx := context.Background()
	quotes := []fmp.ForexQuote{
		{Symbol: "EURUSD", Name: "EURUSD", Price: 1.10},
	}

	suite.mockProvider.On("ForexQuotes", ctx).Return(quotes, nil).Once()

	count, err := suite.service.FetchAndStoreForexQuotes(ctx)

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrNotFound)
	suite.Zero(count)
	suite.mockRepo.AssertNotCalled(suite.T(), "SaveForexRates", mock.Anything, mock.Anything)
}

func (suite *RateServiceTestSuite) TestFetchAndStoreHistoricalRates() {
	ctx := context.Background()
	from := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2025, 5, 3, 0, 0, 0, 0, time.UTC)
	available := []fmp.ForexPair{{Symbol: "GBPUSD"}, {Symbol: "EURUSD"}}
	response := &fmp.HistoricalPriceResponse{
		Symbol: "EURUSD",
		Historical: []fmp.HistoricalForexData{
			{Date: "2025-05-02", Close: 1.0950},
			{Date: "2025-05-01", Close: 0},       // no close, skipped
			{Date: "not-a-date", Close: 1.0940},  // unparseable, skipped
		},
	}

	suite.mockProvider.On("AvailableForexPairs", ctx).Return(available, nil).Once()
	suite.mockProvider.On("HistoricalForex", ctx, "EURUSD", from, to).Return(response, nil).Once()
	suite.mockRepo.On("SaveForexRates", ctx, mock.MatchedBy(func(rates []domain.ForexRate) bool {
		return len(rates) == 1 &&
			rates[0].Symbol == "EUR/USD" &&
			rates[0].Ask == 1.0950 &&
			rates[0].Timestamp.Equal(time.Date(2025, 5, 2, 0, 0, 0, 0, time.UTC))
	})).Return(nil).Once()

	count, err := suite.service.FetchAndStoreHistoricalRates(ctx, "eur/usd", from, to)

	suite.Require().NoError(err)
	suite.Equal(1, count)
	suite.mockProvider.AssertExpectations(suite.T())
	suite.mockRepo.AssertExpectations(suite.T())
}

func (suite *RateServiceTestSuite) TestFetchAndStoreHistoricalRates_UnsupportedPair() {
	ctx := context.Background()
	from := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2025, 5, 3, 0, 0, 0, 0, time.UTC)

	suite.mockProvider.On("AvailableForexPairs", ctx).Return([]fmp.ForexPair{{Symbol: "GBPUSD"}}, nil).Once()

	count, err := suite.service.FetchAndStoreHistoricalRates(ctx, "EUR/XXX", from, to)

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrValidation)
	suite.Zero(count)
	suite.mockProvider.AssertNotCalled(suite.T(), "HistoricalForex", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func (suite *RateServiceTestSuite) TestFetchAndStoreHistoricalRates_EndBeforeStart() {
	ctx := context.Background()
	from := time.Date(2025, 5, 3, 0, 0, 0, 0, time.UTC)
	to := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)

	count, err := suite.service.FetchAndStoreHistoricalRates(ctx, "EUR/USD", from, to)

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrValidation)
	suite.Zero(count)
	suite.mockProvider.AssertNotCalled(suite.T(), "AvailableForexPairs", mock.Anything)
}

func TestRateServiceTestSuite(t *testing.T) {
	suite.Run(t, new(RateServiceTestSuite))
}
