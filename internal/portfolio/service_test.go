package portfolio

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/smoothiefi/smoothie/internal/apy"
	"github.com/smoothiefi/smoothie/internal/costbasis"
	"github.com/smoothiefi/smoothie/internal/domain"
	"github.com/smoothiefi/smoothie/internal/events"
	"github.com/smoothiefi/smoothie/internal/positions"
)

type fakePositions struct {
	results []positions.WalletResult
}

func (f *fakePositions) FetchAll(_ context.Context, _ []string) []positions.WalletResult {
	return f.results
}

type fakeEvents struct {
	ledgers      map[string]costbasis.WalletLedgers
	transactions []domain.Transaction
	rates        []apy.Sample
	err          error
}

func (f *fakeEvents) DepositEvents(_ context.Context, wallet string, _ []domain.PoolAssetKey, _ map[domain.PoolAssetKey]float64, _ *time.Location) (costbasis.WalletLedgers, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.ledgers[wallet], nil
}

func (f *fakeEvents) UserActions(_ context.Context, _ []string, _ events.ActionFilter) ([]domain.Transaction, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.transactions, nil
}

func (f *fakeEvents) DailyRates(_ context.Context, _, _ string, _ int) ([]apy.Sample, error) {
	return f.rates, f.err
}

func (f *fakeEvents) BackstopDailyRates(_ context.Context, _ string, _ int) ([]apy.Sample, error) {
	return f.rates, f.err
}

type fakeHistory struct {
	points []domain.BalancePoint
}

func (f *fakeHistory) History(_ context.Context, _ []string, _ domain.PoolAssetKey, _ int) ([]domain.BalancePoint, error) {
	return f.points, nil
}

func day(s string) time.Time {
	t, err := domain.ParseDay(s, time.UTC)
	if err != nil {
		panic(err)
	}
	return t
}

func poolResult(wallet, poolID, asset string, tokens decimal.Decimal, price float64) positions.WalletResult {
	return positions.WalletResult{
		Wallet: wallet,
		Positions: domain.WalletPositions{
			Wallet: wallet,
			Pools: []domain.PoolPosition{{
				Wallet:       wallet,
				PoolID:       poolID,
				AssetAddress: asset,
				SupplyTokens: tokens,
				UsdPrice:     price,
			}},
		},
	}
}

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-6
}

func TestGetDashboardDecomposesYield(t *testing.T) {
	key := domain.NewPoolAssetKey("pool-1", "USDC")
	deposits := []domain.LedgerEvent{{
		Date:         day("2025-01-10"),
		Tokens:       decimal.NewFromInt(1000),
		PriceAtEvent: 1.0,
		UsdValue:     1000,
		PriceSource:  domain.PriceExact,
	}}

	svc := NewService(
		&fakePositions{results: []positions.WalletResult{
			poolResult("GAAA", "pool-1", "USDC", decimal.NewFromInt(1050), 1.02),
		}},
		&fakeEvents{ledgers: map[string]costbasis.WalletLedgers{
			"GAAA": {key: domain.EventLedger{Deposits: deposits}},
		}},
		&fakeHistory{},
		time.UTC,
	)

	dash, err := svc.GetDashboard(context.Background(), []string{"GAAA"}, nil, nil)
	if err != nil {
		t.Fatalf("GetDashboard: %v", err)
	}
	if len(dash.Positions) != 1 {
		t.Fatalf("positions = %d, want 1", len(dash.Positions))
	}

	b := dash.Positions[0].Breakdown
	if !almostEqual(b.ProtocolYieldUsd, 51) { // 50 yield tokens at 1.02
		t.Errorf("ProtocolYieldUsd = %v, want 51", b.ProtocolYieldUsd)
	}
	if !almostEqual(b.PriceChangeUsd, 20) { // 1000 tokens, price +0.02
		t.Errorf("PriceChangeUsd = %v, want 20", b.PriceChangeUsd)
	}
	if !almostEqual(b.TotalEarnedUsd, b.ProtocolYieldUsd+b.PriceChangeUsd) {
		t.Errorf("TotalEarnedUsd = %v, want sum of components", b.TotalEarnedUsd)
	}
	if !almostEqual(dash.Totals.CurrentValueUsd, 1071) {
		t.Errorf("Totals.CurrentValueUsd = %v, want 1071", dash.Totals.CurrentValueUsd)
	}
}

func TestGetDashboardNoEventsCountsValueAsYield(t *testing.T) {
	svc := NewService(
		&fakePositions{results: []positions.WalletResult{
			poolResult("GAAA", "pool-1", "XLM", decimal.NewFromInt(500), 0.4),
		}},
		&fakeEvents{},
		&fakeHistory{},
		time.UTC,
	)

	dash, err := svc.GetDashboard(context.Background(), []string{"GAAA"}, nil, nil)
	if err != nil {
		t.Fatalf("GetDashboard: %v", err)
	}

	b := dash.Positions[0].Breakdown
	if !almostEqual(b.ProtocolYieldUsd, 200) {
		t.Errorf("ProtocolYieldUsd = %v, want 200", b.ProtocolYieldUsd)
	}
	if !almostEqual(b.PriceChangeUsd, 0) {
		t.Errorf("PriceChangeUsd = %v, want 0", b.PriceChangeUsd)
	}
}

func TestGetDashboardFailedWalletBecomesWarning(t *testing.T) {
	svc := NewService(
		&fakePositions{results: []positions.WalletResult{
			poolResult("GAAA", "pool-1", "USDC", decimal.NewFromInt(100), 1.0),
			{Wallet: "GBBB", Err: errors.New("indexer down")},
		}},
		&fakeEvents{},
		&fakeHistory{},
		time.UTC,
	)

	dash, err := svc.GetDashboard(context.Background(), []string{"GAAA", "GBBB"}, nil, nil)
	if err != nil {
		t.Fatalf("GetDashboard: %v", err)
	}
	if len(dash.Warnings) != 1 {
		t.Fatalf("warnings = %v, want one entry", dash.Warnings)
	}
	if len(dash.Positions) != 1 {
		t.Errorf("positions = %d, want only the settled wallet", len(dash.Positions))
	}
}

func TestGetDashboardPriceOverride(t *testing.T) {
	key := domain.NewPoolAssetKey("pool-1", "USDC")
	svc := NewService(
		&fakePositions{results: []positions.WalletResult{
			poolResult("GAAA", "pool-1", "USDC", decimal.NewFromInt(100), 1.0),
		}},
		&fakeEvents{},
		&fakeHistory{},
		time.UTC,
	)

	dash, err := svc.GetDashboard(context.Background(), []string{"GAAA"}, map[domain.PoolAssetKey]float64{key: 2.0}, nil)
	if err != nil {
		t.Fatalf("GetDashboard: %v", err)
	}
	if !almostEqual(dash.Positions[0].CurrentPrice, 2.0) {
		t.Errorf("CurrentPrice = %v, want override 2.0", dash.Positions[0].CurrentPrice)
	}
}

func TestGetDashboardDimensionsSumToTotals(t *testing.T) {
	results := []positions.WalletResult{
		poolResult("GAAA", "pool-1", "USDC", decimal.NewFromInt(100), 1.0),
		{
			Wallet: "GBBB",
			Positions: domain.WalletPositions{
				Wallet: "GBBB",
				Backstop: []domain.BackstopPosition{{
					Wallet:     "GBBB",
					PoolID:     "pool-2",
					LpTokens:   decimal.NewFromInt(40),
					LpUsdPrice: 5.0,
				}},
			},
		},
	}

	svc := NewService(&fakePositions{results: results}, &fakeEvents{}, &fakeHistory{}, time.UTC)
	dash, err := svc.GetDashboard(context.Background(), []string{"GAAA", "GBBB"}, nil, nil)
	if err != nil {
		t.Fatalf("GetDashboard: %v", err)
	}

	var bySource, byPool float64
	for _, totals := range dash.BySource {
		bySource += totals.CurrentValueUsd
	}
	for _, totals := range dash.ByPool {
		byPool += totals.CurrentValueUsd
	}
	if !almostEqual(bySource, dash.Totals.CurrentValueUsd) {
		t.Errorf("BySource sum = %v, Totals = %v", bySource, dash.Totals.CurrentValueUsd)
	}
	if !almostEqual(byPool, dash.Totals.CurrentValueUsd) {
		t.Errorf("ByPool sum = %v, Totals = %v", byPool, dash.Totals.CurrentValueUsd)
	}
	if dash.BySource[domain.SourceBackstop].CurrentValueUsd != 200 {
		t.Errorf("backstop value = %v, want 200", dash.BySource[domain.SourceBackstop].CurrentValueUsd)
	}
}

func TestGetDashboardEventsErrorPropagates(t *testing.T) {
	svc := NewService(
		&fakePositions{results: []positions.WalletResult{
			poolResult("GAAA", "pool-1", "USDC", decimal.NewFromInt(100), 1.0),
		}},
		&fakeEvents{err: errors.New("db down")},
		&fakeHistory{},
		time.UTC,
	)

	if _, err := svc.GetDashboard(context.Background(), []string{"GAAA"}, nil, nil); err == nil {
		t.Fatal("expected error when event loading fails")
	}
}

func TestGetPeriodDashboardUsesAnchor(t *testing.T) {
	svc := NewService(
		&fakePositions{results: []positions.WalletResult{
			poolResult("GAAA", "pool-1", "USDC", decimal.NewFromInt(1030), 1.01),
		}},
		&fakeEvents{},
		&fakeHistory{points: []domain.BalancePoint{
			{Date: day("2025-06-01"), Tokens: decimal.NewFromInt(1000), Price: 1.0},
			{Date: day("2025-06-15"), Tokens: decimal.NewFromInt(1015), Price: 1.0},
		}},
		time.UTC,
	)

	dash, err := svc.GetPeriodDashboard(context.Background(), []string{"GAAA"}, day("2025-06-10"), nil, nil)
	if err != nil {
		t.Fatalf("GetPeriodDashboard: %v", err)
	}

	// Anchor is the 2025-06-01 snapshot: 30 yield tokens at 1.01 plus
	// 1000 tokens repriced by +0.01.
	b := dash.Positions[0].Breakdown
	if !almostEqual(b.ProtocolYieldUsd, 30.3) {
		t.Errorf("ProtocolYieldUsd = %v, want 30.3", b.ProtocolYieldUsd)
	}
	if !almostEqual(b.PriceChangeUsd, 10) {
		t.Errorf("PriceChangeUsd = %v, want 10", b.PriceChangeUsd)
	}
}

func TestPerformanceDelegates(t *testing.T) {
	svc := NewService(&fakePositions{}, &fakeEvents{transactions: []domain.Transaction{
		{Date: day("2025-03-01"), Wallet: "GAAA", Type: domain.ActionDeposit, Source: domain.SourcePool, PoolID: "pool-1", UsdValue: 500},
		{Date: day("2025-04-01"), Wallet: "GAAA", Type: domain.ActionClaim, Source: domain.SourcePool, PoolID: "pool-1", UsdValue: 25, ClaimToken: domain.ClaimBLND},
	}}, &fakeHistory{}, time.UTC)

	report, err := svc.Performance(context.Background(), []string{"GAAA"}, events.ActionFilter{}, nil)
	if err != nil {
		t.Fatalf("Performance: %v", err)
	}
	if !almostEqual(report.Totals.TotalDepositedUsd, 500) {
		t.Errorf("TotalDepositedUsd = %v, want 500", report.Totals.TotalDepositedUsd)
	}
	if !almostEqual(report.Totals.TotalWithdrawnUsd, 25) {
		t.Errorf("TotalWithdrawnUsd = %v, want 25 (claim counts as withdrawal)", report.Totals.TotalWithdrawnUsd)
	}
}

func TestLendingApyDelegates(t *testing.T) {
	svc := NewService(&fakePositions{}, &fakeEvents{rates: []apy.Sample{
		{Date: day("2025-05-01"), Rate: decimal.RequireFromString("1.0000000"), HasRealData: true},
		{Date: day("2025-05-02"), Rate: decimal.RequireFromString("1.0001000"), HasRealData: true},
	}}, &fakeHistory{}, time.UTC)

	points, err := svc.LendingApy(context.Background(), "pool-1", "USDC", 30)
	if err != nil {
		t.Fatalf("LendingApy: %v", err)
	}
	if len(points) != 2 {
		t.Fatalf("points = %d, want 2", len(points))
	}
	if points[1].Apy <= 0 {
		t.Errorf("Apy = %v, want positive", points[1].Apy)
	}
}

func TestBackstopApyErrorPropagates(t *testing.T) {
	svc := NewService(&fakePositions{}, &fakeEvents{err: errors.New("db down")}, &fakeHistory{}, time.UTC)
	if _, err := svc.BackstopApy(context.Background(), "pool-1", 30); err == nil {
		t.Fatal("expected error")
	}
}
