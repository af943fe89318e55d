// Package fmp is a thin client for the Financial Modeling Prep REST API,
// covering the forex and market capitalization endpoints the fetch
// services need.
package fmp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/apparelmetrics/market_cap_app/internal/apperrors"
)

const (
	defaultBaseURL = "https://financialmodelingprep.com/api/v3"

	maxRetries     = 3
	initialBackoff = 5 * time.Second

	// The provider signals plan limits in a 200 body rather than a status
	// code, so concurrency is capped client-side: up to maxInFlight requests,
	// each holding its permit for permitHold.
	maxInFlight = 300
	permitHold  = 200 * time.Millisecond
)

// HTTPDoer describes an HTTP client.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client is a client for the Financial Modeling Prep API.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient HTTPDoer
	logger     *slog.Logger
	permits    chan struct{}
}

// Option is a configuration option for the client.
type Option func(*Client)

// WithBaseURL sets the base URL for the API.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		c.baseURL = baseURL
	}
}

// WithHTTPClient sets the HTTP client used for requests.
func WithHTTPClient(httpClient HTTPDoer) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithLogger sets the logger used for retry warnings.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// NewClient creates a new API client.
func NewClient(apiKey string, options ...Option) *Client {
	c := &Client{
		baseURL:    defaultBaseURL,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		logger:     slog.Default(),
		permits:    make(chan struct{}, maxInFlight),
	}
	for _, option := range options {
		option(c)
	}
	return c
}

// ForexQuotes retrieves the current quote for every forex pair.
func (c *Client) ForexQuotes(ctx context.Context) ([]ForexQuote, error) {
	var quotes []ForexQuote
	if err := c.getJSON(ctx, "quotes/forex", nil, &quotes); err != nil {
		return nil, err
	}
	return quotes, nil
}

// AvailableForexPairs retrieves the forex pairs the provider quotes.
func (c *Client) AvailableForexPairs(ctx context.Context) ([]ForexPair, error) {
	var pairs []ForexPair
	if err := c.getJSON(ctx, "symbol/available-forex-currency-pairs", nil, &pairs); err != nil {
		return nil, err
	}
	return pairs, nil
}

// HistoricalForex retrieves daily bars for one pair over a date range.
func (c *Client) HistoricalForex(ctx context.Context, pair string, from, to time.Time) (*HistoricalPriceResponse, error) {
	query := url.Values{}
	query.Set("from", from.Format("2006-01-02"))
	query.Set("to", to.Format("2006-01-02"))

	var response HistoricalPriceResponse
	if err := c.getJSON(ctx, "historical-price-full/"+url.PathEscape(pair), query, &response); err != nil {
		return nil, err
	}
	return &response, nil
}

// CompanyProfile retrieves the profile for one ticker.
func (c *Client) CompanyProfile(ctx context.Context, ticker string) (*CompanyProfile, error) {
	if ticker == "" {
		return nil, fmt.Errorf("%w: ticker must not be empty", apperrors.ErrValidation)
	}

	var profiles []CompanyProfile
	if err := c.getJSON(ctx, "profile/"+url.PathEscape(ticker), nil, &profiles); err != nil {
		return nil, err
	}
	if len(profiles) == 0 {
		return nil, fmt.Errorf("%w: no profile data for %s", apperrors.ErrNotFound, ticker)
	}
	return &profiles[0], nil
}

// TickerQuote retrieves the current quote for one ticker.
func (c *Client) TickerQuote(ctx context.Context, ticker string) (*TickerQuote, error) {
	if ticker == "" {
		return nil, fmt.Errorf("%w: ticker must not be empty", apperrors.ErrValidation)
	}

	var quotes []TickerQuote
	if err := c.getJSON(ctx, "quote/"+url.PathEscape(ticker), nil, &quotes); err != nil {
		return nil, err
	}
	if len(quotes) == 0 {
		return nil, fmt.Errorf("%w: no quote data for %s", apperrors.ErrNotFound, ticker)
	}
	return &quotes[0], nil
}

// HistoricalMarketCap retrieves the market capitalization of one ticker on a
// past date. The endpoint returns the nearest trading day at or before the
// requested date when the market was closed.
func (c *Client) HistoricalMarketCap(ctx context.Context, ticker string, date time.Time) (*HistoricalMarketCapPoint, error) {
	if ticker == "" {
		return nil, fmt.Errorf("%w: ticker must not be empty", apperrors.ErrValidation)
	}

	query := url.Values{}
	query.Set("from", date.Format("2006-01-02"))
	query.Set("to", date.Format("2006-01-02"))

	var points []HistoricalMarketCapPoint
	if err := c.getJSON(ctx, "historical-market-capitalization/"+url.PathEscape(ticker), query, &points); err != nil {
		return nil, err
	}
	if len(points) == 0 {
		return nil, fmt.Errorf("%w: no historical market cap for %s on %s", apperrors.ErrNotFound, ticker, date.Format("2006-01-02"))
	}
	return &points[0], nil
}

// getJSON performs a GET against path and decodes the body into out,
// retrying with exponential backoff when the provider reports its request
// limit. The API key is appended here and never logged.
func (c *Client) getJSON(ctx context.Context, path string, query url.Values, out any) error {
	if query == nil {
		query = url.Values{}
	}
	query.Set("apikey", c.apiKey)
	endpoint := fmt.Sprintf("%s/%s?%s", c.baseURL, path, query.Encode())

	backoff := initialBackoff
	for attempt := 0; ; attempt++ {
		body, status, err := c.fetch(ctx, endpoint, path)
		if err != nil {
			return err
		}

		if status == http.StatusTooManyRequests || bytes.Contains(body, []byte("Limit Reach")) {
			if attempt >= maxRetries {
				return fmt.Errorf("rate limit reached for %s after %d retries", path, maxRetries)
			}
			c.logger.Warn("Provider rate limit hit, backing off",
				slog.String("path", path),
				slog.Duration("backoff", backoff),
			)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}
			backoff *= 2
			continue
		}

		if status != http.StatusOK {
			return fmt.Errorf("unexpected status %d from %s", status, path)
		}

		if err := json.Unmarshal(body, out); err != nil {
			return fmt.Errorf("decoding response from %s: %w", path, err)
		}
		return nil
	}
}

func (c *Client) fetch(ctx context.Context, endpoint, path string) ([]byte, int, error) {
	select {
	case c.permits <- struct{}{}:
	case <-ctx.Done():
		return nil, 0, ctx.Err()
	}
	time.AfterFunc(permitHold, func() { <-c.permits })

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, http.NoBody)
	if err != nil {
		return nil, 0, fmt.Errorf("creating request for %s: %w", path, err)
	}

	res, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("performing request for %s: %w", path, err)
	}
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, 0, fmt.Errorf("reading response from %s: %w", path, err)
	}

	return body, res.StatusCode, nil
}
