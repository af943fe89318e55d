package reports

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/apparelmetrics/market_cap_app/internal/core/domain"
	"github.com/apparelmetrics/market_cap_app/internal/core/fx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	file, err := os.Open(path)
	require.NoError(t, err, "Report file should exist")
	defer file.Close()

	records, err := csv.NewReader(file).ReadAll()
	require.NoError(t, err, "Report file should parse as CSV")
	return records
}

func TestWriteMarketCapFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "marketcaps.csv")
	date := time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)
	entries := []domain.MarketCapEntry{
		{
			Ticker:            "NKE",
			Name:              "Nike Inc",
			MarketCapOriginal: 200e9,
			OriginalCurrency:  "USD",
			MarketCapEUR:      181818181818,
			MarketCapUSD:      200e9,
			EURRate:           0.909091,
			USDRate:           1,
			Price:             75.5,
			Exchange:          "NYSE",
			Active:            true,
			Timestamp:         date,
		},
		{
			Ticker:            "MC.PA",
			Name:              "LVMH",
			MarketCapOriginal: 300e9,
			OriginalCurrency:  "EUR",
			MarketCapEUR:      300e9,
			MarketCapUSD:      330e9,
			EURRate:           1,
			USDRate:           1.10,
			Timestamp:         date,
		},
	}

	err := WriteMarketCapFile(path, entries, date)
	require.NoError(t, err)

	records := readCSV(t, path)
	require.Len(t, records, 3, "Should have a header and one row per entry")
	assert.Equal(t, marketCapHeader, records[0])

	nike := records[1]
	assert.Equal(t, "1", nike[0], "Rank should be the 1-based position")
	assert.Equal(t, "NKE", nike[1])
	assert.Equal(t, "200000000000", nike[3], "Original cap should have no decimals")
	assert.Equal(t, "USD", nike[4])
	assert.Equal(t, "0.909091", nike[6], "EUR rate should carry six decimals")
	assert.Equal(t, "75.5", nike[9])
	assert.Equal(t, "true", nike[11])
	assert.Equal(t, "2025-06-02", nike[12])

	assert.Equal(t, "2", records[2][0])
	assert.Equal(t, "MC.PA", records[2][1])
}

func TestWriteComparisonFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "comparison.csv")
	comparison := sampleComparison()

	err := WriteComparisonFile(path, comparison)
	require.NoError(t, err)

	records := readCSV(t, path)
	require.Len(t, records, 4)
	assert.Equal(t, comparisonHeader, records[0])

	nike := records[1]
	assert.Equal(t, "NKE", nike[0])
	assert.Equal(t, "200000000000.00", nike[2])
	assert.Equal(t, "220000000000.00", nike[3])
	assert.Equal(t, "20000000000.00", nike[4])
	assert.Equal(t, "10.00", nike[5])
	assert.Equal(t, "2", nike[6])
	assert.Equal(t, "1", nike[7])
	assert.Equal(t, "+1", nike[8], "Rank improvements should carry an explicit sign")

	lvmh := records[2]
	assert.Equal(t, "MC.PA", lvmh[0])
	assert.Equal(t, "-1", lvmh[8], "Rank declines should be negative")

	// VFC is only present on the to side.
	vfc := records[3]
	assert.Equal(t, "VFC", vfc[0])
	assert.Equal(t, "NA", vfc[2], "Missing from-side cap should degrade to NA")
	assert.Equal(t, "NA", vfc[4], "Change needs both sides")
	assert.Equal(t, "NA", vfc[5])
	assert.Equal(t, "NA", vfc[6])
	assert.Equal(t, "3", vfc[7])
	assert.Equal(t, "NA", vfc[8])
	assert.Equal(t, "NA", vfc[9])
	assert.NotEqual(t, "NA", vfc[10], "To-side share should still be reported")
}

func TestWriteRatesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rates.csv")
	asOf := time.Date(2025, 6, 2, 9, 30, 0, 0, time.UTC)
	rates := []fx.PairRate{
		{Pair: fx.Pair{From: "EUR", To: "USD"}, Rate: 1.10, Source: fx.SourceDirect},
		{Pair: fx.Pair{From: "USD", To: "EUR"}, Rate: 1 / 1.10, Source: fx.SourceReverse},
	}

	err := WriteRatesFile(path, rates, asOf)
	require.NoError(t, err)

	records := readCSV(t, path)
	require.Len(t, records, 3)
	assert.Equal(t, ratesHeader, records[0])
	assert.Equal(t, []string{"EUR", "USD", "1.100000", "direct", "2025-06-02"}, records[1])
	assert.Equal(t, []string{"USD", "EUR", "0.909091", "reverse", "2025-06-02"}, records[2])
}

// sampleComparison is shared with the markdown tests.
func sampleComparison() *domain.Comparison {
	return &domain.Comparison{
		FromDate: time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC),
		ToDate:   time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC),
		Rows: []domain.ComparisonRow{
			{
				Ticker: "NKE", Name: "Nike Inc", OriginalCurrency: "USD",
				FromRank: 2, ToRank: 1,
				FromCapOriginal: 200e9, ToCapOriginal: 220e9,
				FromCapUSD: 200e9, ToCapUSD: 220e9,
				ChangeUSD: 20e9, ChangePct: 10,
			},
			{
				Ticker: "MC.PA", Name: "LVMH", OriginalCurrency: "EUR",
				FromRank: 1, ToRank: 2,
				FromCapOriginal: 190e9, ToCapOriginal: 186e9,
				FromCapUSD: 210e9, ToCapUSD: 205e9,
				ChangeUSD: -5e9, ChangePct: -2.38,
			},
			{
				Ticker: "VFC", Name: "VF Corp", OriginalCurrency: "USD",
				FromRank: 0, ToRank: 3,
				ToCapOriginal: 8e9, ToCapUSD: 8e9,
			},
		},
		TopGainers: []domain.Mover{
			{Ticker: "NKE", Name: "Nike Inc", ChangeUSD: 20e9, ChangePct: 10},
		},
		TopLosers: []domain.Mover{
			{Ticker: "MC.PA", Name: "LVMH", ChangeUSD: -5e9, ChangePct: -2.38},
		},
		Rates: []domain.RateLine{
			{FromCurrency: "EUR", ToCurrency: "USD", Rate: 1.10, Source: "direct"},
			{FromCurrency: "USD", ToCurrency: "EUR", Rate: 1 / 1.10, Source: "reverse"},
		},
		TotalFromUSD:      410e9,
		TotalToUSD:        433e9,
		TotalChangeUSD:    23e9,
		TotalChangePct:    5.61,
		Top10Share:        100,
		FxNoiseEliminated: true,
	}
}
