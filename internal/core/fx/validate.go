package fx

import (
	"fmt"
	"math"
)

// Sanity bounds on a raw exchange rate. Rates outside this window are almost
// always fat-finger or unit errors, but legitimately extreme pairs exist, so
// breaching a bound only warns.
const (
	MaxReasonableRate = 10000.0
	MinReasonableRate = 0.0001
)

// ValidateRate checks a raw scalar rate for the from/to pair and returns an
// advisory warning when the rate looks wrong. It never blocks a conversion;
// callers attach the warning to their result and proceed.
func ValidateRate(rate float64, from, to string) (string, bool) {
	switch {
	case rate <= 0:
		return fmt.Sprintf("rate %v for %s/%s must be positive", rate, from, to), true
	case math.IsNaN(rate) || math.IsInf(rate, 0):
		return fmt.Sprintf("rate for %s/%s is NaN or infinite", from, to), true
	case rate > MaxReasonableRate:
		return fmt.Sprintf("rate %v for %s/%s is unusually high", rate, from, to), true
	case rate < MinReasonableRate:
		return fmt.Sprintf("rate %v for %s/%s is unusually low", rate, from, to), true
	}
	return "", false
}
