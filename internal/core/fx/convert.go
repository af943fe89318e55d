package fx

import "fmt"

// Source records which resolution path produced a conversion.
type Source string

const (
	SourceSame     Source = "same"
	SourceDirect   Source = "direct"
	SourceReverse  Source = "reverse"
	SourceCross    Source = "cross"
	SourceNotFound Source = "not_found"
)

// ConversionResult is the outcome of a single conversion. Rate is the
// effective rate after subunit adjustment, i.e. the factor that maps the
// caller's original amount onto the returned one. Warnings are advisory;
// a result carrying them is still usable but should be treated as suspect.
type ConversionResult struct {
	Amount   float64
	Rate     float64
	Source   Source
	Warnings []string
}

// subunitAlias maps a minor-unit currency code onto its canonical code and
// the divisor that converts the minor unit into it.
type subunitAlias struct {
	canonical string
	divisor   float64
}

// Exchanges quote some instruments in minor units (LSE in pence, JSE in
// cents) while rates are quoted for the major unit. ILA maps to ILS without
// scaling, matching how the upstream feed quotes it.
var subunitAliases = map[string]subunitAlias{
	"GBp": {canonical: "GBP", divisor: 100},
	"ZAc": {canonical: "ZAR", divisor: 100},
	"ILA": {canonical: "ILS", divisor: 1},
}

// Convert resolves amount from one currency into another against the
// snapshot. It is a pure function; the snapshot is only read.
//
// Resolution order, first match wins:
//  1. identical raw codes: identity, before any subunit handling
//  2. subunit codes are canonicalized (amount divided by the source divisor,
//     the target divisor remembered as a result multiplier)
//  3. snapshot lookup of canonicalFrom/canonicalTo, reported with the
//     provenance the entry was built with
//  4. lookup of the opposite direction, inverted at resolution time
//  5. single-hop cross search over entries starting at canonicalFrom,
//     first intermediate in sorted pair order wins, both legs validated
//  6. not found: the original amount is returned unchanged with rate 1.0 and
//     a warning, so a bad pair degrades the report instead of aborting it
func Convert(amount float64, from, to string, snap *Snapshot) ConversionResult {
	if from == to {
		return ConversionResult{Amount: amount, Rate: 1.0, Source: SourceSame}
	}

	canonFrom, sourceDivisor := canonicalize(from)
	canonTo, targetMultiplier := canonicalize(to)
	adjusted := amount / sourceDivisor

	if snap != nil {
		if e, ok := snap.entries[Pair{From: canonFrom, To: canonTo}]; ok {
			return resolved(adjusted, e.rate, sourceDivisor, targetMultiplier, e.origin,
				appendRateWarning(nil, e.rate, canonFrom, canonTo))
		}

		if e, ok := snap.entries[Pair{From: canonTo, To: canonFrom}]; ok {
			inverted := 1.0 / e.rate
			return resolved(adjusted, inverted, sourceDivisor, targetMultiplier, SourceReverse,
				appendRateWarning(nil, inverted, canonFrom, canonTo))
		}

		for _, p := range snap.pairs {
			if p.From != canonFrom {
				continue
			}
			second, ok := snap.entries[Pair{From: p.To, To: canonTo}]
			if !ok {
				continue
			}
			first := snap.entries[p]
			warnings := appendRateWarning(nil, first.rate, p.From, p.To)
			warnings = appendRateWarning(warnings, second.rate, p.To, canonTo)
			return resolved(adjusted, first.rate*second.rate, sourceDivisor, targetMultiplier, SourceCross, warnings)
		}
	}

	return ConversionResult{
		Amount:   amount,
		Rate:     1.0,
		Source:   SourceNotFound,
		Warnings: []string{fmt.Sprintf("No exchange rate found for %s/%s", canonFrom, canonTo)},
	}
}

func canonicalize(code string) (string, float64) {
	if alias, ok := subunitAliases[code]; ok {
		return alias.canonical, alias.divisor
	}
	return code, 1.0
}

func resolved(adjusted, rate, sourceDivisor, targetMultiplier float64, src Source, warnings []string) ConversionResult {
	return ConversionResult{
		Amount:   adjusted * rate * targetMultiplier,
		Rate:     rate * targetMultiplier / sourceDivisor,
		Source:   src,
		Warnings: warnings,
	}
}

func appendRateWarning(warnings []string, rate float64, from, to string) []string {
	if w, ok := ValidateRate(rate, from, to); ok {
		warnings = append(warnings, w)
	}
	return warnings
}
