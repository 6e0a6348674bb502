package domain

import "github.com/shopspring/decimal"

// SideTotals accumulates cash flow for one position source (pool or backstop).
type SideTotals struct {
	DepositedUsd float64 `json:"deposited"`
	WithdrawnUsd float64 `json:"withdrawn"`
	RealizedUsd  float64 `json:"realized"`
}

// EmissionTotals accumulates claimed emission rewards.
type EmissionTotals struct {
	BlndClaimed decimal.Decimal `json:"blndClaimed"`
	LpClaimed   decimal.Decimal `json:"lpClaimed"`
	UsdValue    float64         `json:"usdValue"`
}

// RealizedYieldTotals is the per-user realized P&L summary.
// RealizedPnl is the cash-flow definition: withdrawn minus deposited, with
// claims counted into withdrawn. Roi and AnnualizedRoi are nil when undefined
// (no deposits, or a loss deep enough that the annualization base goes
// non-positive).
type RealizedYieldTotals struct {
	TotalDepositedUsd    float64        `json:"totalDepositedUsd"`
	TotalWithdrawnUsd    float64        `json:"totalWithdrawnUsd"`
	RealizedPnl          float64        `json:"realizedPnl"`
	Pools                SideTotals     `json:"pools"`
	Backstop             SideTotals     `json:"backstop"`
	Emissions            EmissionTotals `json:"emissions"`
	RoiPercent           *float64       `json:"roiPercent"`
	AnnualizedRoiPercent *float64       `json:"annualizedRoiPercent"`
	DaysActive           int            `json:"daysActive"`
	FirstActivityDate    string         `json:"firstActivityDate,omitempty"`
	LastActivityDate     string         `json:"lastActivityDate,omitempty"`
}

// CumulativePoint is one densified day of the overall running series.
// ClaimedUsd is the claims-only running profit, the secondary realized
// metric carried alongside the cash-flow RealizedPnl.
type CumulativePoint struct {
	Date         string  `json:"date"`
	DepositedUsd float64 `json:"deposited"`
	WithdrawnUsd float64 `json:"withdrawn"`
	RealizedPnl  float64 `json:"realizedPnl"`
	ClaimedUsd   float64 `json:"claimed"`
}

// SourcePoint is one densified day of a per-source running series.
type SourcePoint struct {
	Date         string  `json:"date"`
	DepositedUsd float64 `json:"deposited"`
	WithdrawnUsd float64 `json:"withdrawn"`
	ClaimedUsd   float64 `json:"claimed"`
}

// PoolClaimPoint is one densified day of a per-pool claims-only series,
// feeding the stacked realized-by-pool chart.
type PoolClaimPoint struct {
	Date       string  `json:"date"`
	ClaimedUsd float64 `json:"claimed"`
}

// PerformanceReport bundles the realized-yield summary with the chartable
// cumulative series. All four aggregations are built from the same
// transaction list and reconcile to the same totals.
type PerformanceReport struct {
	Totals   RealizedYieldTotals              `json:"totals"`
	Overall  []CumulativePoint                `json:"overall"`
	BySource map[PositionSource][]SourcePoint `json:"bySource"`
	ByPool   map[string][]PoolClaimPoint      `json:"byPool"`
}
