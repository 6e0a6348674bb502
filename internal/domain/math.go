package domain

import (
	"log/slog"
	"math"

	"github.com/shopspring/decimal"
)

// SafeParse parses a string into a decimal, returning zero for invalid or empty input.
func SafeParse(value string) decimal.Decimal {
	if value == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// TokensUsd converts a token quantity to USD at the given unit price.
func TokensUsd(tokens decimal.Decimal, price float64) float64 {
	f, exact := tokens.Float64()
	if !exact && tokens.NumDigits() > 15 {
		slog.Warn("precision loss converting tokens to float64", "tokens", tokens.String())
	}
	return f * price
}

// SafePercent returns numer/denom*100, or 0 when the denominator is not
// strictly positive. Keeps NaN and Inf out of every percent field.
func SafePercent(numer, denom float64) float64 {
	if denom <= 0 {
		return 0
	}
	return numer / denom * 100
}

// SafeRatio returns a/b, or 0 when b is zero.
func SafeRatio(a, b float64) float64 {
	if b == 0 {
		return 0
	}
	return a / b
}

// Annualize converts a ROI percentage over daysActive days into an annual
// rate. Returns nil when the compounding base 1+roi/100 is non-positive,
// which has no real fractional power.
func Annualize(roiPercent float64, daysActive int) *float64 {
	if daysActive < 1 {
		return nil
	}
	base := 1 + roiPercent/100
	if base <= 0 {
		return nil
	}
	annual := (math.Pow(base, 365/float64(daysActive)) - 1) * 100
	return &annual
}
