// Package performance walks the full user action ledger to produce realized
// P&L totals and dense cumulative time series for charting.
package performance

import (
	"sort"
	"time"

	"github.com/samber/lo"

	"github.com/smoothiefi/smoothie/internal/domain"
)

// Compute aggregates a user's transactions into realized-yield totals and
// the four cumulative series (overall, per source, per pool claims-only).
// Series cover every calendar day from first activity through today in loc,
// forward-carrying the last cumulative value over inactive days so charts
// render continuous lines.
//
// RealizedPnl is the cash-flow definition (withdrawn minus deposited, claims
// counted into withdrawn); the claims-only running profit rides alongside in
// ClaimedUsd fields. Claims are pure realized profit: they do not offset the
// principal until the principal itself is withdrawn.
func Compute(transactions []domain.Transaction, today time.Time, loc *time.Location) domain.PerformanceReport {
	if len(transactions) == 0 {
		return domain.PerformanceReport{
			BySource: map[domain.PositionSource][]domain.SourcePoint{},
			ByPool:   map[string][]domain.PoolClaimPoint{},
		}
	}

	sorted := make([]domain.Transaction, len(transactions))
	copy(sorted, transactions)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Date.Before(sorted[j].Date)
	})

	report := domain.PerformanceReport{
		Totals:   computeTotals(sorted, loc),
		BySource: map[domain.PositionSource][]domain.SourcePoint{},
		ByPool:   map[string][]domain.PoolClaimPoint{},
	}

	buildSeries(&report, sorted, today, loc)
	return report
}

func computeTotals(sorted []domain.Transaction, loc *time.Location) domain.RealizedYieldTotals {
	totals := domain.RealizedYieldTotals{}

	for _, tx := range sorted {
		side := &totals.Pools
		if tx.Source == domain.SourceBackstop {
			side = &totals.Backstop
		}

		switch tx.Type {
		case domain.ActionDeposit:
			totals.TotalDepositedUsd += tx.UsdValue
			side.DepositedUsd += tx.UsdValue
		case domain.ActionWithdraw:
			totals.TotalWithdrawnUsd += tx.UsdValue
			side.WithdrawnUsd += tx.UsdValue
		case domain.ActionClaim:
			totals.TotalWithdrawnUsd += tx.UsdValue
			side.WithdrawnUsd += tx.UsdValue
			totals.Emissions.UsdValue += tx.UsdValue
			switch tx.ClaimToken {
			case domain.ClaimLP:
				totals.Emissions.LpClaimed = totals.Emissions.LpClaimed.Add(tx.Tokens)
			default:
				totals.Emissions.BlndClaimed = totals.Emissions.BlndClaimed.Add(tx.Tokens)
			}
		}
	}

	totals.RealizedPnl = totals.TotalWithdrawnUsd - totals.TotalDepositedUsd
	totals.Pools.RealizedUsd = totals.Pools.WithdrawnUsd - totals.Pools.DepositedUsd
	totals.Backstop.RealizedUsd = totals.Backstop.WithdrawnUsd - totals.Backstop.DepositedUsd

	first := sorted[0].Date
	last := sorted[len(sorted)-1].Date
	totals.FirstActivityDate = domain.FormatDay(domain.Day(first, loc))
	totals.LastActivityDate = domain.FormatDay(domain.Day(last, loc))
	totals.DaysActive = domain.DaysBetween(first, last)

	if totals.TotalDepositedUsd > 0 {
		roi := totals.RealizedPnl / totals.TotalDepositedUsd * 100
		totals.RoiPercent = &roi
		totals.AnnualizedRoiPercent = domain.Annualize(roi, totals.DaysActive)
	}

	return totals
}

// buildSeries walks calendar days from first activity through today,
// advancing running sums on days with activity and carrying them forward
// otherwise.
func buildSeries(report *domain.PerformanceReport, sorted []domain.Transaction, today time.Time, loc *time.Location) {
	byDay := lo.GroupBy(sorted, func(tx domain.Transaction) string {
		return domain.FormatDay(domain.Day(tx.Date, loc))
	})

	sources := []domain.PositionSource{domain.SourcePool, domain.SourceBackstop}
	pools := lo.Uniq(lo.FilterMap(sorted, func(tx domain.Transaction, _ int) (string, bool) {
		return tx.PoolID, tx.Type == domain.ActionClaim && tx.PoolID != ""
	}))
	sort.Strings(pools)

	var overall domain.CumulativePoint
	bySource := map[domain.PositionSource]*domain.SourcePoint{}
	for _, s := range sources {
		bySource[s] = &domain.SourcePoint{}
	}
	byPool := map[string]float64{}

	end := domain.Day(today, loc)
	for day := domain.Day(sorted[0].Date, loc); !day.After(end); day = day.AddDate(0, 0, 1) {
		date := domain.FormatDay(day)
		for _, tx := range byDay[date] {
			// Unknown sources land on the pools side, same as computeTotals.
			src := bySource[domain.SourcePool]
			if tx.Source == domain.SourceBackstop {
				src = bySource[domain.SourceBackstop]
			}
			switch tx.Type {
			case domain.ActionDeposit:
				overall.DepositedUsd += tx.UsdValue
				src.DepositedUsd += tx.UsdValue
			case domain.ActionWithdraw:
				overall.WithdrawnUsd += tx.UsdValue
				src.WithdrawnUsd += tx.UsdValue
			case domain.ActionClaim:
				overall.WithdrawnUsd += tx.UsdValue
				overall.ClaimedUsd += tx.UsdValue
				src.WithdrawnUsd += tx.UsdValue
				src.ClaimedUsd += tx.UsdValue
				if tx.PoolID != "" {
					byPool[tx.PoolID] += tx.UsdValue
				}
			}
		}
		overall.RealizedPnl = overall.WithdrawnUsd - overall.DepositedUsd

		point := overall
		point.Date = date
		report.Overall = append(report.Overall, point)

		for _, s := range sources {
			p := *bySource[s]
			p.Date = date
			report.BySource[s] = append(report.BySource[s], p)
		}
		for _, pool := range pools {
			report.ByPool[pool] = append(report.ByPool[pool], domain.PoolClaimPoint{
				Date:       date,
				ClaimedUsd: byPool[pool],
			})
		}
	}
}
