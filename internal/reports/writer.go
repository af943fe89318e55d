// Package reports writes the CSV and Markdown artifacts produced by fetch
// and comparison runs.
package reports

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/apparelmetrics/market_cap_app/internal/core/domain"
	"github.com/apparelmetrics/market_cap_app/internal/core/fx"
)

// Writer writes report files into a single output directory using
// timestamped default names.
type Writer struct {
	dir string
}

// NewWriter creates a writer rooted at dir.
func NewWriter(dir string) *Writer {
	if dir == "" {
		dir = "output"
	}
	return &Writer{dir: dir}
}

// WriteMarketCapCSV writes a ranked market cap listing for one date and
// returns the path written.
func (w *Writer) WriteMarketCapCSV(entries []domain.MarketCapEntry, date time.Time) (string, error) {
	name := fmt.Sprintf("marketcaps_%s_%s.csv", date.Format("2006-01-02"), timestamp())
	path, err := w.preparePath(name)
	if err != nil {
		return "", err
	}
	if err := WriteMarketCapFile(path, entries, date); err != nil {
		return "", err
	}
	return path, nil
}

// WriteComparisonCSV writes the per-company comparison table and returns the
// path written.
func (w *Writer) WriteComparisonCSV(comparison *domain.Comparison) (string, error) {
	name := fmt.Sprintf("comparison_%s_to_%s_%s.csv",
		comparison.FromDate.Format("2006-01-02"),
		comparison.ToDate.Format("2006-01-02"),
		timestamp(),
	)
	path, err := w.preparePath(name)
	if err != nil {
		return "", err
	}
	if err := WriteComparisonFile(path, comparison); err != nil {
		return "", err
	}
	return path, nil
}

// WriteComparisonSummary writes the Markdown comparison summary and returns
// the path written.
func (w *Writer) WriteComparisonSummary(comparison *domain.Comparison) (string, error) {
	name := fmt.Sprintf("comparison_%s_to_%s_summary_%s.md",
		comparison.FromDate.Format("2006-01-02"),
		comparison.ToDate.Format("2006-01-02"),
		timestamp(),
	)
	path, err := w.preparePath(name)
	if err != nil {
		return "", err
	}
	if err := WriteComparisonSummaryFile(path, comparison); err != nil {
		return "", err
	}
	return path, nil
}

// WriteRatesCSV writes the rate snapshot and returns the path written.
func (w *Writer) WriteRatesCSV(rates []fx.PairRate, asOf time.Time) (string, error) {
	name := fmt.Sprintf("rates_%s_%s.csv", asOf.Format("2006-01-02"), timestamp())
	path, err := w.preparePath(name)
	if err != nil {
		return "", err
	}
	if err := WriteRatesFile(path, rates, asOf); err != nil {
		return "", err
	}
	return path, nil
}

func (w *Writer) preparePath(name string) (string, error) {
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return "", fmt.Errorf("creating output directory %s: %w", w.dir, err)
	}
	return filepath.Join(w.dir, name), nil
}

func timestamp() string {
	return time.Now().Format("20060102_150405")
}
