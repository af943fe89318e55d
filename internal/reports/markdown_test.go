package reports

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildComparisonSummary(t *testing.T) {
	comparison := sampleComparison()
	generatedAt := time.Date(2025, 6, 15, 10, 30, 0, 0, time.UTC)

	summary := buildComparisonSummary(comparison, generatedAt)

	assert.Contains(t, summary, "# Market Cap Comparison: 2025-05-01 to 2025-06-02")
	assert.Contains(t, summary, "- Total Market Cap on 2025-05-01: $410.00B")
	assert.Contains(t, summary, "- Total Market Cap on 2025-06-02: $433.00B")
	assert.Contains(t, summary, "- Total Change: $23.00B (+5.61%)")

	assert.Contains(t, summary, "1. **Nike Inc** ([NKE](https://finance.yahoo.com/quote/NKE/)): +10.00% ($20000.00M increase)")
	assert.Contains(t, summary, "1. **LVMH** ([MC.PA](https://finance.yahoo.com/quote/MC.PA/)): -2.38% ($5000.00M decrease)")

	// Absolute moves report billions, losses as positive magnitudes.
	assert.Contains(t, summary, "$20.00B gain (+10.00%)")
	assert.Contains(t, summary, "$5.00B loss (-2.38%)")

	assert.Contains(t, summary, "+1 positions (#2 -> #1)")
	assert.Contains(t, summary, "-1 positions (#1 -> #2)")

	assert.Contains(t, summary, "- Companies with increased market cap: 1")
	assert.Contains(t, summary, "- Companies with decreased market cap: 1")
	assert.Contains(t, summary, "- New companies in list: 1")
	assert.Contains(t, summary, "- Companies no longer in list: 0")
	assert.Contains(t, summary, "- Top 10 share of market cap on 2025-06-02: 100.00%")

	assert.Contains(t, summary, "normalized to USD using exchange rates from **2025-06-02**")
	assert.Contains(t, summary, "| EUR | 1.100000 |", "Only non-USD currencies belong in the rate table")
	assert.NotContains(t, summary, "| USD |")

	assert.NotContains(t, summary, "## Warnings", "A clean comparison has no warnings section")
	assert.Contains(t, summary, "*Generated on 2025-06-15 10:30:00*")
}

func TestBuildComparisonSummary_WithoutRates(t *testing.T) {
	comparison := sampleComparison()
	comparison.FxNoiseEliminated = false
	comparison.Rates = nil
	comparison.Warnings = []string{"No exchange rates stored; changes include currency moves alongside market cap moves"}

	summary := buildComparisonSummary(comparison, time.Date(2025, 6, 15, 10, 30, 0, 0, time.UTC))

	assert.Contains(t, summary, "No rate snapshot was available for **2025-06-02**")
	assert.Contains(t, summary, "_All companies are USD-denominated, no currency conversion needed._")
	assert.Contains(t, summary, "## Warnings")
	assert.Contains(t, summary, "- No exchange rates stored; changes include currency moves alongside market cap moves")
}

func TestWriteComparisonSummaryFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "summary.md")

	err := WriteComparisonSummaryFile(path, sampleComparison())
	require.NoError(t, err)

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(content), "# Market Cap Comparison: 2025-05-01 to 2025-06-02")
}
