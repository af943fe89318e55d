package utils

import (
	"github.com/shopspring/decimal"
)

var (
	oneMillion = decimal.NewFromInt(1_000_000)
	oneBillion = decimal.NewFromInt(1_000_000_000)
)

// FormatRate formats an exchange rate with six decimal places, the precision
// used throughout report output.
func FormatRate(rate float64) string {
	return decimal.NewFromFloat(rate).Round(6).StringFixed(6)
}

// FormatBillions formats a market cap as billions with two decimal places,
// e.g. 234_567_000_000 becomes "234.57".
func FormatBillions(amount float64) string {
	return decimal.NewFromFloat(amount).Div(oneBillion).Round(2).StringFixed(2)
}

// FormatMillions formats a market cap change as millions with two decimal
// places.
func FormatMillions(amount float64) string {
	return decimal.NewFromFloat(amount).Div(oneMillion).Round(2).StringFixed(2)
}

// FormatPercent formats a percentage change with two decimal places and an
// explicit sign on gains, e.g. "+4.20" or "-1.35".
func FormatPercent(pct float64) string {
	d := decimal.NewFromFloat(pct).Round(2)
	if d.Sign() > 0 {
		return "+" + d.StringFixed(2)
	}
	return d.StringFixed(2)
}
