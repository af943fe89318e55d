package reports

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/apparelmetrics/market_cap_app/internal/core/domain"
	"github.com/apparelmetrics/market_cap_app/internal/core/fx"
	"github.com/apparelmetrics/market_cap_app/internal/utils"
)

// missingValue marks a figure that is absent on one side of a comparison.
const missingValue = "NA"

var marketCapHeader = []string{
	"Rank", "Ticker", "Name", "Market Cap (Original)", "Original Currency",
	"Market Cap (EUR)", "EUR Rate", "Market Cap (USD)", "USD Rate",
	"Price", "Exchange", "Active", "Date",
}

var comparisonHeader = []string{
	"Ticker", "Name", "Market Cap From (USD)", "Market Cap To (USD)",
	"Absolute Change (USD)", "Percentage Change (%)", "Rank From", "Rank To",
	"Rank Change", "Market Share From (%)", "Market Share To (%)",
}

var ratesHeader = []string{"From", "To", "Rate", "Source", "As Of"}

// WriteMarketCapFile writes a ranked market cap listing to path. Rank is the
// 1-based position in the given order, which readers return sorted by EUR
// market cap descending.
func WriteMarketCapFile(path string, entries []domain.MarketCapEntry, date time.Time) error {
	day := date.Format("2006-01-02")

	records := make([][]string, 0, len(entries)+1)
	records = append(records, marketCapHeader)
	for i, entry := range entries {
		records = append(records, []string{
			strconv.Itoa(i + 1),
			entry.Ticker,
			entry.Name,
			strconv.FormatFloat(entry.MarketCapOriginal, 'f', 0, 64),
			entry.OriginalCurrency,
			strconv.FormatFloat(entry.MarketCapEUR, 'f', 0, 64),
			utils.FormatRate(entry.EURRate),
			strconv.FormatFloat(entry.MarketCapUSD, 'f', 0, 64),
			utils.FormatRate(entry.USDRate),
			strconv.FormatFloat(entry.Price, 'f', -1, 64),
			entry.Exchange,
			strconv.FormatBool(entry.Active),
			day,
		})
	}

	return writeCSV(path, records)
}

// WriteComparisonFile writes the per-company comparison table to path, in
// the row order of the comparison (percentage change descending, companies
// missing a side last).
func WriteComparisonFile(path string, comparison *domain.Comparison) error {
	records := make([][]string, 0, len(comparison.Rows)+1)
	records = append(records, comparisonHeader)
	for _, row := range comparison.Rows {
		records = append(records, comparisonRecord(row, comparison))
	}

	return writeCSV(path, records)
}

// WriteRatesFile writes a rate snapshot to path, one row per directed pair.
func WriteRatesFile(path string, rates []fx.PairRate, asOf time.Time) error {
	day := asOf.Format("2006-01-02")

	records := make([][]string, 0, len(rates)+1)
	records = append(records, ratesHeader)
	for _, rate := range rates {
		records = append(records, []string{
			rate.Pair.From,
			rate.Pair.To,
			utils.FormatRate(rate.Rate),
			string(rate.Source),
			day,
		})
	}

	return writeCSV(path, records)
}

// comparisonRecord renders one row. A rank of zero marks the side the ticker
// was absent from; dependent columns degrade to NA.
func comparisonRecord(row domain.ComparisonRow, comparison *domain.Comparison) []string {
	fromCap, toCap := missingValue, missingValue
	fromRank, toRank := missingValue, missingValue
	fromShare, toShare := missingValue, missingValue

	if row.FromRank > 0 {
		fromCap = strconv.FormatFloat(row.FromCapUSD, 'f', 2, 64)
		fromRank = strconv.Itoa(row.FromRank)
		if comparison.TotalFromUSD > 0 {
			fromShare = strconv.FormatFloat(row.FromCapUSD/comparison.TotalFromUSD*100, 'f', 4, 64)
		}
	}
	if row.ToRank > 0 {
		toCap = strconv.FormatFloat(row.ToCapUSD, 'f', 2, 64)
		toRank = strconv.Itoa(row.ToRank)
		if comparison.TotalToUSD > 0 {
			toShare = strconv.FormatFloat(row.ToCapUSD/comparison.TotalToUSD*100, 'f', 4, 64)
		}
	}

	change, pct, rankChange := missingValue, missingValue, missingValue
	if row.FromRank > 0 && row.ToRank > 0 {
		change = strconv.FormatFloat(row.ChangeUSD, 'f', 2, 64)
		pct = strconv.FormatFloat(row.ChangePct, 'f', 2, 64)

		delta := row.FromRank - row.ToRank
		rankChange = strconv.Itoa(delta)
		if delta > 0 {
			rankChange = "+" + rankChange
		}
	}

	return []string{
		row.Ticker, row.Name,
		fromCap, toCap, change, pct,
		fromRank, toRank, rankChange,
		fromShare, toShare,
	}
}

func writeCSV(path string, records [][]string) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}

	writer := csv.NewWriter(file)
	if err := writer.WriteAll(records); err != nil {
		file.Close()
		return fmt.Errorf("writing %s: %w", path, err)
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", path, err)
	}
	return nil
}
