package fx_test

import (
	"math"
	"testing"

	"github.com/apparelmetrics/market_cap_app/internal/core/fx"
	"github.com/stretchr/testify/assert"
)

func TestValidateRate(t *testing.T) {
	tests := []struct {
		name         string
		rate         float64
		wantWarning  bool
		wantContains string
	}{
		{name: "typical rate", rate: 1.08, wantWarning: false},
		{name: "high but reasonable", rate: 9999.0, wantWarning: false},
		{name: "upper bound is inclusive", rate: 10000.0, wantWarning: false},
		{name: "low but reasonable", rate: 0.0002, wantWarning: false},
		{name: "lower bound is inclusive", rate: 0.0001, wantWarning: false},
		{name: "unusually high", rate: 10001.0, wantWarning: true, wantContains: "unusually high"},
		{name: "unusually low", rate: 0.00009, wantWarning: true, wantContains: "unusually low"},
		{name: "zero", rate: 0, wantWarning: true, wantContains: "must be positive"},
		{name: "negative", rate: -1.5, wantWarning: true, wantContains: "must be positive"},
		{name: "NaN", rate: math.NaN(), wantWarning: true, wantContains: "NaN or infinite"},
		{name: "positive infinity", rate: math.Inf(1), wantWarning: true, wantContains: "NaN or infinite"},
		{name: "negative infinity", rate: math.Inf(-1), wantWarning: true, wantContains: "must be positive"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			warning, flagged := fx.ValidateRate(tt.rate, "EUR", "USD")
			assert.Equal(t, tt.wantWarning, flagged)
			if tt.wantWarning {
				assert.Contains(t, warning, tt.wantContains)
				assert.Contains(t, warning, "EUR/USD")
			} else {
				assert.Empty(t, warning)
			}
		})
	}
}
