package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatRate(t *testing.T) {
	assert.Equal(t, "1.100000", FormatRate(1.10))
	assert.Equal(t, "0.909091", FormatRate(1/1.10), "Rates should round to six decimals")
	assert.Equal(t, "0.000000", FormatRate(0))
}

func TestFormatBillions(t *testing.T) {
	assert.Equal(t, "234.57", FormatBillions(234_567_000_000))
	assert.Equal(t, "-5.00", FormatBillions(-5_000_000_000))
	assert.Equal(t, "0.00", FormatBillions(0))
}

func TestFormatMillions(t *testing.T) {
	assert.Equal(t, "20000.00", FormatMillions(20_000_000_000))
	assert.Equal(t, "1.50", FormatMillions(1_500_000))
}

func TestFormatPercent(t *testing.T) {
	assert.Equal(t, "+4.20", FormatPercent(4.2), "Gains should carry an explicit sign")
	assert.Equal(t, "-1.35", FormatPercent(-1.35))
	assert.Equal(t, "0.00", FormatPercent(0))
}
