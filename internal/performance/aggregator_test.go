package performance

import (
	"math"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/smoothiefi/smoothie/internal/domain"
)

func day(s string) time.Time {
	t, err := domain.ParseDay(s, time.UTC)
	if err != nil {
		panic(err)
	}
	return t
}

func tx(date string, typ domain.ActionType, source domain.PositionSource, pool string, usd float64) domain.Transaction {
	return domain.Transaction{
		Date:     day(date),
		Type:     typ,
		Source:   source,
		PoolID:   pool,
		Tokens:   decimal.NewFromFloat(usd),
		UsdValue: usd,
	}
}

func approx(t *testing.T, name string, got, want float64) {
	t.Helper()
	if math.Abs(got-want) > 1e-9 {
		t.Errorf("%s = %v, want %v", name, got, want)
	}
}

func TestComputeEmptyLedger(t *testing.T) {
	report := Compute(nil, day("2025-06-01"), time.UTC)
	if report.Totals.TotalDepositedUsd != 0 || len(report.Overall) != 0 {
		t.Errorf("empty ledger produced non-empty report: %+v", report)
	}
	if report.Totals.RoiPercent != nil {
		t.Error("RoiPercent with no deposits should be nil")
	}
}

func TestComputeClaimsArePureProfit(t *testing.T) {
	// One $500 deposit and one $50 claim: pnl is paper-negative until the
	// principal itself is withdrawn.
	report := Compute([]domain.Transaction{
		tx("2025-01-01", domain.ActionDeposit, domain.SourcePool, "p1", 500),
		tx("2025-02-01", domain.ActionClaim, domain.SourcePool, "p1", 50),
	}, day("2025-02-01"), time.UTC)

	approx(t, "TotalDepositedUsd", report.Totals.TotalDepositedUsd, 500)
	approx(t, "TotalWithdrawnUsd", report.Totals.TotalWithdrawnUsd, 50)
	approx(t, "RealizedPnl", report.Totals.RealizedPnl, -450)
	approx(t, "Emissions.UsdValue", report.Totals.Emissions.UsdValue, 50)
}

func TestComputePerSourceSplit(t *testing.T) {
	report := Compute([]domain.Transaction{
		tx("2025-01-01", domain.ActionDeposit, domain.SourcePool, "p1", 1000),
		tx("2025-01-02", domain.ActionDeposit, domain.SourceBackstop, "p1", 300),
		tx("2025-01-10", domain.ActionWithdraw, domain.SourcePool, "p1", 400),
		tx("2025-01-12", domain.ActionClaim, domain.SourceBackstop, "p1", 25),
	}, day("2025-01-12"), time.UTC)

	approx(t, "Pools.DepositedUsd", report.Totals.Pools.DepositedUsd, 1000)
	approx(t, "Pools.WithdrawnUsd", report.Totals.Pools.WithdrawnUsd, 400)
	approx(t, "Pools.RealizedUsd", report.Totals.Pools.RealizedUsd, -600)
	approx(t, "Backstop.DepositedUsd", report.Totals.Backstop.DepositedUsd, 300)
	approx(t, "Backstop.WithdrawnUsd", report.Totals.Backstop.WithdrawnUsd, 25)

	// Side totals reconcile with the overall totals.
	approx(t, "deposited reconciliation",
		report.Totals.Pools.DepositedUsd+report.Totals.Backstop.DepositedUsd,
		report.Totals.TotalDepositedUsd)
	approx(t, "withdrawn reconciliation",
		report.Totals.Pools.WithdrawnUsd+report.Totals.Backstop.WithdrawnUsd,
		report.Totals.TotalWithdrawnUsd)
}

func TestComputeSeriesDensified(t *testing.T) {
	// Activity on Jan 1 and Jan 5, today Jan 7: the series must carry a
	// point for every day in between.
	report := Compute([]domain.Transaction{
		tx("2025-01-01", domain.ActionDeposit, domain.SourcePool, "p1", 100),
		tx("2025-01-05", domain.ActionClaim, domain.SourcePool, "p1", 10),
	}, day("2025-01-07"), time.UTC)

	if len(report.Overall) != 7 {
		t.Fatalf("Overall series length = %d, want 7", len(report.Overall))
	}

	// Inactive days forward-carry the cumulative value.
	approx(t, "Jan 3 deposited", report.Overall[2].DepositedUsd, 100)
	approx(t, "Jan 3 claimed", report.Overall[2].ClaimedUsd, 0)
	approx(t, "Jan 5 claimed", report.Overall[4].ClaimedUsd, 10)
	approx(t, "Jan 7 claimed", report.Overall[6].ClaimedUsd, 10)
	if report.Overall[0].Date != "2025-01-01" || report.Overall[6].Date != "2025-01-07" {
		t.Errorf("series bounds = %s..%s", report.Overall[0].Date, report.Overall[6].Date)
	}

	// Scalar and final series point agree on the cash-flow definition.
	last := report.Overall[len(report.Overall)-1]
	approx(t, "series/scalar reconciliation", last.RealizedPnl, report.Totals.RealizedPnl)
}

func TestComputeUnknownSourceCountsAsPools(t *testing.T) {
	// A source value outside pool/backstop (a malformed row, or a future
	// source type) must not break series building; it lands on the pools
	// side like the totals path does.
	report := Compute([]domain.Transaction{
		tx("2025-01-01", domain.ActionDeposit, domain.SourcePool, "p1", 100),
		tx("2025-01-02", domain.ActionDeposit, "escrow", "p1", 40),
		tx("2025-01-03", domain.ActionWithdraw, "escrow", "p1", 10),
	}, day("2025-01-03"), time.UTC)

	approx(t, "Pools.DepositedUsd", report.Totals.Pools.DepositedUsd, 140)
	approx(t, "TotalWithdrawnUsd", report.Totals.TotalWithdrawnUsd, 10)

	poolSeries := report.BySource[domain.SourcePool]
	if len(poolSeries) != 3 {
		t.Fatalf("pool series length = %d, want 3", len(poolSeries))
	}
	approx(t, "pool series final deposited", poolSeries[2].DepositedUsd, 140)
	approx(t, "pool series final withdrawn", poolSeries[2].WithdrawnUsd, 10)
}

func TestComputeByPoolClaimsOnly(t *testing.T) {
	report := Compute([]domain.Transaction{
		tx("2025-01-01", domain.ActionDeposit, domain.SourcePool, "p1", 100),
		tx("2025-01-02", domain.ActionClaim, domain.SourcePool, "p1", 5),
		tx("2025-01-03", domain.ActionClaim, domain.SourcePool, "p2", 7),
		tx("2025-01-04", domain.ActionWithdraw, domain.SourcePool, "p2", 50),
	}, day("2025-01-04"), time.UTC)

	if len(report.ByPool) != 2 {
		t.Fatalf("ByPool pools = %d, want 2", len(report.ByPool))
	}
	p1 := report.ByPool["p1"]
	p2 := report.ByPool["p2"]
	if len(p1) != 4 || len(p2) != 4 {
		t.Fatalf("per-pool series not densified: p1=%d p2=%d", len(p1), len(p2))
	}
	// Withdrawals never contribute to the claims-only pool series.
	approx(t, "p2 final claimed", p2[3].ClaimedUsd, 7)
	approx(t, "p1 final claimed", p1[3].ClaimedUsd, 5)
}

func TestComputeRoiAndAnnualized(t *testing.T) {
	report := Compute([]domain.Transaction{
		tx("2024-01-01", domain.ActionDeposit, domain.SourcePool, "p1", 1000),
		tx("2024-12-31", domain.ActionWithdraw, domain.SourcePool, "p1", 1200),
	}, day("2024-12-31"), time.UTC)

	if report.Totals.RoiPercent == nil {
		t.Fatal("RoiPercent = nil, want value")
	}
	approx(t, "RoiPercent", *report.Totals.RoiPercent, 20)
	if report.Totals.AnnualizedRoiPercent == nil {
		t.Fatal("AnnualizedRoiPercent = nil, want value")
	}
	if report.Totals.DaysActive != 365 {
		t.Errorf("DaysActive = %d, want 365", report.Totals.DaysActive)
	}
}

func TestComputeAnnualizedGuard(t *testing.T) {
	// Total loss beyond -100% ROI has no real annualization.
	report := Compute([]domain.Transaction{
		tx("2025-01-01", domain.ActionDeposit, domain.SourcePool, "p1", 100),
		tx("2025-01-02", domain.ActionDeposit, domain.SourcePool, "p1", 100),
	}, day("2025-01-02"), time.UTC)

	// roi = (0 - 200)/200 * 100 = -100
	if report.Totals.RoiPercent == nil {
		t.Fatal("RoiPercent = nil, want value")
	}
	approx(t, "RoiPercent", *report.Totals.RoiPercent, -100)
	if report.Totals.AnnualizedRoiPercent != nil {
		t.Errorf("AnnualizedRoiPercent = %v, want nil", *report.Totals.AnnualizedRoiPercent)
	}
}

func TestComputeEmissionTokenSplit(t *testing.T) {
	blnd := tx("2025-01-02", domain.ActionClaim, domain.SourcePool, "p1", 12)
	blnd.ClaimToken = domain.ClaimBLND
	blnd.Tokens = decimal.NewFromInt(300)
	lp := tx("2025-01-03", domain.ActionClaim, domain.SourceBackstop, "p1", 8)
	lp.ClaimToken = domain.ClaimLP
	lp.Tokens = decimal.NewFromInt(4)

	report := Compute([]domain.Transaction{
		tx("2025-01-01", domain.ActionDeposit, domain.SourcePool, "p1", 100),
		blnd,
		lp,
	}, day("2025-01-03"), time.UTC)

	if !report.Totals.Emissions.BlndClaimed.Equal(decimal.NewFromInt(300)) {
		t.Errorf("BlndClaimed = %v, want 300", report.Totals.Emissions.BlndClaimed)
	}
	if !report.Totals.Emissions.LpClaimed.Equal(decimal.NewFromInt(4)) {
		t.Errorf("LpClaimed = %v, want 4", report.Totals.Emissions.LpClaimed)
	}
	approx(t, "Emissions.UsdValue", report.Totals.Emissions.UsdValue, 20)
}
