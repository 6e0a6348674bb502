// Package apy reconstructs historical APY series from successive exchange
// rate snapshots.
package apy

import (
	"math"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/smoothiefi/smoothie/internal/domain"
)

// Sample is one daily rate snapshot. For lending reserves Rate is the b_rate
// accrual factor; for backstops it is the share rate. HasRealData is false
// for rows the store forward-filled over gap days.
type Sample struct {
	Date        time.Time
	Rate        decimal.Decimal
	HasRealData bool
}

// annualized converts a daily growth factor to an APY percentage, floored at
// zero: a rate decrease between samples renders as 0%, never negative.
func annualized(dailyReturn float64) float64 {
	apy := (math.Pow(dailyReturn, 365) - 1) * 100
	return math.Max(0, apy)
}

// sortSamples returns the samples in ascending date order without mutating
// the caller's slice.
func sortSamples(samples []Sample) []Sample {
	sorted := make([]Sample, len(samples))
	copy(sorted, samples)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Date.Before(sorted[j].Date)
	})
	return sorted
}

// FromShareRates derives an APY series from consecutive share-rate (or LP
// price) samples. Each day's APY annualizes the single-day growth against
// the previous sample; when the previous rate is missing or non-positive,
// the last computed APY is carried forward instead of a discontinuity.
func FromShareRates(samples []Sample) []domain.ApyPoint {
	sorted := sortSamples(samples)
	if len(sorted) < 2 {
		return nil
	}

	points := make([]domain.ApyPoint, 0, len(sorted)-1)
	var lastApy float64
	for i := 1; i < len(sorted); i++ {
		prev, cur := sorted[i-1], sorted[i]
		apy := lastApy
		if prev.Rate.IsPositive() && cur.Rate.IsPositive() {
			ratio, _ := cur.Rate.Div(prev.Rate).Float64()
			apy = annualized(ratio)
			lastApy = apy
		}
		points = append(points, domain.ApyPoint{Date: domain.FormatDay(cur.Date), Apy: apy})
	}
	return points
}

// FromAccrualRates derives an APY series from b_rate samples where
// forward-filled gap rows are tagged HasRealData=false.
//
// Two passes: the first locates the real-data rows, the second spreads each
// real-to-real return evenly across the days it covers, so a multi-day gap
// renders as a flat, correctly annualized line instead of a zero-then-spike
// artifact. Trailing forward-filled days with no later real row inherit the
// last non-zero APY.
func FromAccrualRates(samples []Sample) []domain.ApyPoint {
	sorted := sortSamples(samples)
	if len(sorted) < 2 {
		return nil
	}

	// Pass 1: segment boundaries.
	var realIdx []int
	for i, s := range sorted {
		if s.HasRealData && s.Rate.IsPositive() {
			realIdx = append(realIdx, i)
		}
	}

	apys := make([]float64, len(sorted))

	// Pass 2: fill each real-to-real segment with its resolved APY.
	var lastNonZero float64
	lastFilled := 0
	for seg := 1; seg < len(realIdx); seg++ {
		i, j := realIdx[seg-1], realIdx[seg]
		daysElapsed := sorted[j].Date.Sub(sorted[i].Date).Hours() / 24
		if daysElapsed <= 0 {
			daysElapsed = float64(j - i)
		}
		ratio, _ := sorted[j].Rate.Div(sorted[i].Rate).Float64()
		dailyReturn := math.Pow(ratio, 1/daysElapsed)
		apy := annualized(dailyReturn)
		for k := i + 1; k <= j; k++ {
			apys[k] = apy
		}
		if apy > 0 {
			lastNonZero = apy
		}
		lastFilled = j
	}

	// Trailing forward-filled days.
	for k := lastFilled + 1; k < len(sorted); k++ {
		apys[k] = lastNonZero
	}

	points := make([]domain.ApyPoint, 0, len(sorted)-1)
	for i := 1; i < len(sorted); i++ {
		points = append(points, domain.ApyPoint{Date: domain.FormatDay(sorted[i].Date), Apy: apys[i]})
	}
	return points
}
