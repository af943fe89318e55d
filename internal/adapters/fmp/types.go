package fmp

// ForexQuote is one entry from the forex quote list endpoint. Name carries
// the "FROM/TO" pair; Symbol is the same pair without the separator.
type ForexQuote struct {
	Symbol    string  `json:"symbol"`
	Name      string  `json:"name"`
	Price     float64 `json:"price"`
	Timestamp int64   `json:"timestamp"`
}

// ForexPair is one entry from the available forex pairs endpoint.
type ForexPair struct {
	Symbol            string `json:"symbol"`
	Name              string `json:"name"`
	Currency          string `json:"currency"`
	StockExchange     string `json:"stockExchange"`
	ExchangeShortName string `json:"exchangeShortName"`
}

// CompanyProfile is one entry from the profile endpoint.
type CompanyProfile struct {
	Symbol            string  `json:"symbol"`
	Price             float64 `json:"price"`
	MarketCap         float64 `json:"mktCap"`
	CompanyName       string  `json:"companyName"`
	Currency          string  `json:"currency"`
	Exchange          string  `json:"exchange"`
	ExchangeShortName string  `json:"exchangeShortName"`
	Website           string  `json:"website"`
	IsActivelyTrading bool    `json:"isActivelyTrading"`
}

// TickerQuote is one entry from the quote endpoint.
type TickerQuote struct {
	Symbol    string  `json:"symbol"`
	Name      string  `json:"name"`
	Price     float64 `json:"price"`
	MarketCap float64 `json:"marketCap"`
	Timestamp int64   `json:"timestamp"`
}

// HistoricalMarketCapPoint is one entry from the historical market
// capitalization endpoint.
type HistoricalMarketCapPoint struct {
	Symbol    string  `json:"symbol"`
	Date      string  `json:"date"` // YYYY-MM-DD
	MarketCap float64 `json:"marketCap"`
}

// HistoricalPriceResponse is the historical daily price response for one pair.
type HistoricalPriceResponse struct {
	Symbol     string                `json:"symbol"`
	Historical []HistoricalForexData `json:"historical"`
}

// HistoricalForexData is one daily bar from the historical price endpoint.
type HistoricalForexData struct {
	Date   string  `json:"date"` // YYYY-MM-DD
	Open   float64 `json:"open"`
	High   float64 `json:"high"`
	Low    float64 `json:"low"`
	Close  float64 `json:"close"`
	Volume float64 `json:"volume"`
}
