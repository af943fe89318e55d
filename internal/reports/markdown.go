package reports

import (
	"fmt"
	"math"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/apparelmetrics/market_cap_app/internal/core/domain"
	"github.com/apparelmetrics/market_cap_app/internal/utils"
)

// WriteComparisonSummaryFile writes the Markdown comparison summary to path.
func WriteComparisonSummaryFile(path string, comparison *domain.Comparison) error {
	summary := buildComparisonSummary(comparison, time.Now())
	if err := os.WriteFile(path, []byte(summary), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

func buildComparisonSummary(comparison *domain.Comparison, generatedAt time.Time) string {
	from := comparison.FromDate.Format("2006-01-02")
	to := comparison.ToDate.Format("2006-01-02")

	var b strings.Builder
	fmt.Fprintf(&b, "# Market Cap Comparison: %s to %s\n\n", from, to)

	b.WriteString("## Overview Statistics\n")
	fmt.Fprintf(&b, "- Total Market Cap on %s: $%sB\n", from, utils.FormatBillions(comparison.TotalFromUSD))
	fmt.Fprintf(&b, "- Total Market Cap on %s: $%sB\n", to, utils.FormatBillions(comparison.TotalToUSD))
	fmt.Fprintf(&b, "- Total Change: $%sB (%s%%)\n\n",
		utils.FormatBillions(comparison.TotalChangeUSD), utils.FormatPercent(comparison.TotalChangePct))

	b.WriteString("## Top 10 Gainers (by percentage)\n")
	for i, mover := range comparison.TopGainers {
		fmt.Fprintf(&b, "%d. **%s** (%s): %s%% ($%sM increase)\n",
			i+1, mover.Name, tickerLink(mover.Ticker),
			utils.FormatPercent(mover.ChangePct), utils.FormatMillions(mover.ChangeUSD))
	}
	b.WriteString("\n")

	b.WriteString("## Top 10 Losers (by percentage)\n")
	for i, mover := range comparison.TopLosers {
		fmt.Fprintf(&b, "%d. **%s** (%s): %s%% ($%sM decrease)\n",
			i+1, mover.Name, tickerLink(mover.Ticker),
			utils.FormatPercent(mover.ChangePct), utils.FormatMillions(math.Abs(mover.ChangeUSD)))
	}
	b.WriteString("\n")

	both := bothSides(comparison.Rows)

	b.WriteString("## Top 10 by Absolute Gain\n")
	sort.Slice(both, func(i, j int) bool { return both[i].ChangeUSD > both[j].ChangeUSD })
	for i, row := range topRows(both, 10) {
		fmt.Fprintf(&b, "%d. **%s** (%s): $%sB gain (%s%%)\n",
			i+1, row.Name, tickerLink(row.Ticker),
			utils.FormatBillions(row.ChangeUSD), utils.FormatPercent(row.ChangePct))
	}
	b.WriteString("\n")

	b.WriteString("## Top 10 by Absolute Loss\n")
	sort.Slice(both, func(i, j int) bool { return both[i].ChangeUSD < both[j].ChangeUSD })
	for i, row := range topRows(both, 10) {
		if row.ChangeUSD >= 0 {
			break
		}
		fmt.Fprintf(&b, "%d. **%s** (%s): $%sB loss (%s%%)\n",
			i+1, row.Name, tickerLink(row.Ticker),
			utils.FormatBillions(math.Abs(row.ChangeUSD)), utils.FormatPercent(row.ChangePct))
	}
	b.WriteString("\n")

	b.WriteString("## Biggest Rank Improvements\n")
	sort.Slice(both, func(i, j int) bool {
		return both[i].FromRank-both[i].ToRank > both[j].FromRank-both[j].ToRank
	})
	for i, row := range topRows(both, 10) {
		delta := row.FromRank - row.ToRank
		if delta <= 0 {
			break
		}
		fmt.Fprintf(&b, "%d. **%s** (%s): +%d positions (#%d -> #%d)\n",
			i+1, row.Name, tickerLink(row.Ticker), delta, row.FromRank, row.ToRank)
	}
	b.WriteString("\n")

	b.WriteString("## Biggest Rank Declines\n")
	sort.Slice(both, func(i, j int) bool {
		return both[i].FromRank-both[i].ToRank < both[j].FromRank-both[j].ToRank
	})
	for i, row := range topRows(both, 10) {
		delta := row.FromRank - row.ToRank
		if delta >= 0 {
			break
		}
		fmt.Fprintf(&b, "%d. **%s** (%s): %d positions (#%d -> #%d)\n",
			i+1, row.Name, tickerLink(row.Ticker), delta, row.FromRank, row.ToRank)
	}
	b.WriteString("\n")

	writeConcentration(&b, comparison, to)
	writeRatesSection(&b, comparison, to)

	if len(comparison.Warnings) > 0 {
		b.WriteString("## Warnings\n")
		for _, warning := range comparison.Warnings {
			fmt.Fprintf(&b, "- %s\n", warning)
		}
		b.WriteString("\n")
	}

	b.WriteString("---\n")
	fmt.Fprintf(&b, "*Generated on %s*\n", generatedAt.Format("2006-01-02 15:04:05"))

	return b.String()
}

func writeConcentration(b *strings.Builder, comparison *domain.Comparison, to string) {
	var increased, decreased, entered, dropped int
	for _, row := range comparison.Rows {
		switch {
		case row.FromRank == 0 && row.ToRank > 0:
			entered++
		case row.FromRank > 0 && row.ToRank == 0:
			dropped++
		case row.ChangePct > 0:
			increased++
		case row.ChangePct < 0:
			decreased++
		}
	}

	b.WriteString("## Market Concentration Analysis\n")
	fmt.Fprintf(b, "- Companies with increased market cap: %d\n", increased)
	fmt.Fprintf(b, "- Companies with decreased market cap: %d\n", decreased)
	fmt.Fprintf(b, "- New companies in list: %d\n", entered)
	fmt.Fprintf(b, "- Companies no longer in list: %d\n", dropped)
	fmt.Fprintf(b, "- Top 10 share of market cap on %s: %s%%\n\n",
		to, strconv.FormatFloat(comparison.Top10Share, 'f', 2, 64))
}

func writeRatesSection(b *strings.Builder, comparison *domain.Comparison, to string) {
	b.WriteString("## Exchange Rates Used for Normalization\n\n")
	if comparison.FxNoiseEliminated {
		fmt.Fprintf(b, "All values in this report are normalized to USD using exchange rates from **%s**.\n", to)
		b.WriteString("This eliminates currency fluctuations and shows pure market cap changes.\n\n")
	} else {
		fmt.Fprintf(b, "No rate snapshot was available for **%s**; values fall back to the conversions stored with each entry, so exchange-rate moves are still part of the reported changes.\n\n", to)
	}

	usdRates := make([]domain.RateLine, 0, len(comparison.Rates))
	for _, rate := range comparison.Rates {
		if rate.ToCurrency == "USD" && rate.FromCurrency != "USD" {
			usdRates = append(usdRates, rate)
		}
	}
	sort.Slice(usdRates, func(i, j int) bool { return usdRates[i].FromCurrency < usdRates[j].FromCurrency })

	if len(usdRates) == 0 {
		b.WriteString("_All companies are USD-denominated, no currency conversion needed._\n\n")
		return
	}

	b.WriteString("| Currency | Rate to USD |\n")
	b.WriteString("|----------|-------------|\n")
	for _, rate := range usdRates {
		fmt.Fprintf(b, "| %s | %s |\n", rate.FromCurrency, utils.FormatRate(rate.Rate))
	}
	b.WriteString("\n")
}

func tickerLink(ticker string) string {
	return fmt.Sprintf("[%s](https://finance.yahoo.com/quote/%s/)", ticker, ticker)
}

func bothSides(rows []domain.ComparisonRow) []domain.ComparisonRow {
	both := make([]domain.ComparisonRow, 0, len(rows))
	for _, row := range rows {
		if row.FromRank > 0 && row.ToRank > 0 {
			both = append(both, row)
		}
	}
	return both
}

func topRows(rows []domain.ComparisonRow, n int) []domain.ComparisonRow {
	if len(rows) > n {
		return rows[:n]
	}
	return rows
}
