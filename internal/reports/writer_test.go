package reports

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/apparelmetrics/market_cap_app/internal/core/fx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriterCreatesOutputDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "out")
	writer := NewWriter(dir)
	asOf := time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)
	rates := []fx.PairRate{
		{Pair: fx.Pair{From: "EUR", To: "USD"}, Rate: 1.10, Source: fx.SourceDirect},
	}

	path, err := writer.WriteRatesCSV(rates, asOf)
	require.NoError(t, err)

	_, err = os.Stat(path)
	assert.NoError(t, err, "Report file should exist on disk")
	assert.Equal(t, dir, filepath.Dir(path))

	name := filepath.Base(path)
	assert.True(t, strings.HasPrefix(name, "rates_2025-06-02_"), "File name should carry the as-of date: %s", name)
	assert.True(t, strings.HasSuffix(name, ".csv"), "File name should be a CSV: %s", name)
}

func TestWriterComparisonFileNames(t *testing.T) {
	dir := t.TempDir()
	writer := NewWriter(dir)
	comparison := sampleComparison()

	csvPath, err := writer.WriteComparisonCSV(comparison)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(filepath.Base(csvPath), "comparison_2025-05-01_to_2025-06-02_"),
		"CSV name should carry both dates: %s", csvPath)

	mdPath, err := writer.WriteComparisonSummary(comparison)
	require.NoError(t, err)
	name := filepath.Base(mdPath)
	assert.Contains(t, name, "_summary_", "Summary name should be distinguishable: %s", name)
	assert.True(t, strings.HasSuffix(name, ".md"), "Summary should be Markdown: %s", name)
}
