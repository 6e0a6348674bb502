package portfolio

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/smoothiefi/smoothie/internal/costbasis"
	"github.com/smoothiefi/smoothie/internal/domain"
	"github.com/smoothiefi/smoothie/internal/positions"
	"github.com/smoothiefi/smoothie/internal/yield"
)

// currentState is the live view assembled from settled position fetches:
// summed balances, per-key prices, and which wallets still hold each key.
type currentState struct {
	balances      map[domain.PoolAssetKey]decimal.Decimal
	prices        map[domain.PoolAssetKey]float64
	sources       map[domain.PoolAssetKey]domain.PositionSource
	activeWallets map[domain.PoolAssetKey][]string
	wallets       []string
}

// GetDashboard runs the full pipeline for a set of wallets. priceOverrides
// optionally replaces SDK-reported prices per key; loc pins day boundaries
// (nil uses the service default). A wallet whose position fetch failed is
// reported in Warnings and excluded; the rest of the batch still computes.
func (s *Service) GetDashboard(ctx context.Context, wallets []string, priceOverrides map[domain.PoolAssetKey]float64, loc *time.Location) (Dashboard, error) {
	if loc == nil {
		loc = s.loc
	}

	results := s.positions.FetchAll(ctx, wallets)
	state, warnings := assembleState(results, priceOverrides)

	keys := sortedKeys(state.balances)
	perWallet := make(map[string]costbasis.WalletLedgers, len(state.wallets))
	for _, wallet := range state.wallets {
		ledgers, err := s.events.DepositEvents(ctx, wallet, keys, state.prices, loc)
		if err != nil {
			return Dashboard{}, fmt.Errorf("loading events for %s: %w", wallet, err)
		}
		perWallet[wallet] = ledgers
	}

	// Closed positions are excluded per key before any cost basis runs.
	merged := costbasis.Merge(perWallet, state.activeWallets)
	today := domain.Today(loc)
	records := costbasis.ComputeAll(merged, state.prices, today, loc)

	dashboard := Dashboard{
		BySource: map[domain.PositionSource]AggregateTotals{},
		ByPool:   map[string]AggregateTotals{},
		Warnings: warnings,
	}

	for _, key := range keys {
		tokens := state.balances[key]
		price := state.prices[key]

		record, ok := records[key]
		if !ok {
			// Live balance with no tracked events: the whole value is
			// treated as yield against a zero basis at today's price.
			record = domain.CostBasisRecord{Key: key, WeightedAvgDepositPrice: price}
		}

		breakdown := yield.Breakdown(tokens, price, record)
		dashboard.Positions = append(dashboard.Positions, PositionBreakdown{
			Key:           key,
			Source:        state.sources[key],
			CurrentTokens: tokens,
			CurrentPrice:  price,
			Breakdown:     breakdown,
		})

		agg := aggregate(breakdown)
		dashboard.Totals = addTotals(dashboard.Totals, agg)
		dashboard.BySource[state.sources[key]] = addTotals(dashboard.BySource[state.sources[key]], agg)
		dashboard.ByPool[key.PoolID] = addTotals(dashboard.ByPool[key.PoolID], agg)
	}

	return dashboard, nil
}

// GetPeriodDashboard is the period-anchored variant: breakdowns measure
// growth since periodStart using the snapshot history as the anchor. A key
// with no snapshot on or before the start is new within the window and its
// whole current value counts as yield.
func (s *Service) GetPeriodDashboard(ctx context.Context, wallets []string, periodStart time.Time, priceOverrides map[domain.PoolAssetKey]float64, loc *time.Location) (Dashboard, error) {
	if loc == nil {
		loc = s.loc
	}

	results := s.positions.FetchAll(ctx, wallets)
	state, warnings := assembleState(results, priceOverrides)

	today := domain.Today(loc)
	historyDays := domain.DaysBetween(periodStart, today) + 1

	dashboard := Dashboard{
		BySource: map[domain.PositionSource]AggregateTotals{},
		ByPool:   map[string]AggregateTotals{},
		Warnings: warnings,
	}

	for _, key := range sortedKeys(state.balances) {
		history, err := s.history.History(ctx, state.wallets, key, historyDays)
		if err != nil {
			return Dashboard{}, fmt.Errorf("loading history for %s: %w", key, err)
		}

		anchor := yield.AnchorAt(history, domain.Day(periodStart, loc))
		breakdown := yield.PeriodBreakdown(state.balances[key], state.prices[key], anchor)

		dashboard.Positions = append(dashboard.Positions, PositionBreakdown{
			Key:           key,
			Source:        state.sources[key],
			CurrentTokens: state.balances[key],
			CurrentPrice:  state.prices[key],
			Breakdown:     breakdown,
		})

		agg := aggregate(breakdown)
		dashboard.Totals = addTotals(dashboard.Totals, agg)
		dashboard.BySource[state.sources[key]] = addTotals(dashboard.BySource[state.sources[key]], agg)
		dashboard.ByPool[key.PoolID] = addTotals(dashboard.ByPool[key.PoolID], agg)
	}

	return dashboard, nil
}

func assembleState(results []positions.WalletResult, priceOverrides map[domain.PoolAssetKey]float64) (currentState, []string) {
	state := currentState{
		balances:      map[domain.PoolAssetKey]decimal.Decimal{},
		prices:        map[domain.PoolAssetKey]float64{},
		sources:       map[domain.PoolAssetKey]domain.PositionSource{},
		activeWallets: map[domain.PoolAssetKey][]string{},
	}

	var warnings []string
	for _, res := range results {
		if res.Err != nil {
			warnings = append(warnings, fmt.Sprintf("positions unavailable for %s: %v", res.Wallet, res.Err))
			continue
		}
		state.wallets = append(state.wallets, res.Wallet)

		for _, p := range res.Positions.Pools {
			addPosition(&state, p.Key(), res.Wallet, p.SupplyTokens, p.UsdPrice, domain.SourcePool)
		}
		for _, b := range res.Positions.Backstop {
			addPosition(&state, b.Key(), res.Wallet, b.LpTokens, b.LpUsdPrice, domain.SourceBackstop)
		}
	}

	for key, price := range priceOverrides {
		if _, ok := state.balances[key]; ok {
			state.prices[key] = price
		}
	}

	return state, warnings
}

func addPosition(state *currentState, key domain.PoolAssetKey, wallet string, tokens decimal.Decimal, price float64, source domain.PositionSource) {
	if tokens.IsZero() {
		return
	}
	state.balances[key] = state.balances[key].Add(tokens)
	state.prices[key] = price
	state.sources[key] = source
	state.activeWallets[key] = append(state.activeWallets[key], wallet)
}

func aggregate(b domain.YieldBreakdown) AggregateTotals {
	return AggregateTotals{
		CurrentValueUsd:  b.CurrentValueUsd,
		CostBasisUsd:     b.CostBasisHistorical,
		ProtocolYieldUsd: b.ProtocolYieldUsd,
		PriceChangeUsd:   b.PriceChangeUsd,
		TotalEarnedUsd:   b.TotalEarnedUsd,
	}
}

func addTotals(a, b AggregateTotals) AggregateTotals {
	return AggregateTotals{
		CurrentValueUsd:  a.CurrentValueUsd + b.CurrentValueUsd,
		CostBasisUsd:     a.CostBasisUsd + b.CostBasisUsd,
		ProtocolYieldUsd: a.ProtocolYieldUsd + b.ProtocolYieldUsd,
		PriceChangeUsd:   a.PriceChangeUsd + b.PriceChangeUsd,
		TotalEarnedUsd:   a.TotalEarnedUsd + b.TotalEarnedUsd,
	}
}

func sortedKeys(balances map[domain.PoolAssetKey]decimal.Decimal) []domain.PoolAssetKey {
	keys := make([]domain.PoolAssetKey, 0, len(balances))
	for key := range balances {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].String() < keys[j].String() })
	return keys
}
