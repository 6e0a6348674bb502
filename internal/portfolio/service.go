// Package portfolio orchestrates the dashboard pipeline: live positions,
// merged event ledgers, cost basis, and yield breakdowns per position.
package portfolio

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/smoothiefi/smoothie/internal/apy"
	"github.com/smoothiefi/smoothie/internal/costbasis"
	"github.com/smoothiefi/smoothie/internal/domain"
	"github.com/smoothiefi/smoothie/internal/events"
	"github.com/smoothiefi/smoothie/internal/positions"
)

// PositionSource fetches live positions for wallets, settling all of them.
type PositionSource interface {
	FetchAll(ctx context.Context, wallets []string) []positions.WalletResult
}

// EventStore is the slice of the event repository the pipeline needs.
type EventStore interface {
	DepositEvents(ctx context.Context, wallet string, keys []domain.PoolAssetKey, fallbackPrices map[domain.PoolAssetKey]float64, loc *time.Location) (costbasis.WalletLedgers, error)
	UserActions(ctx context.Context, wallets []string, filter events.ActionFilter) ([]domain.Transaction, error)
	DailyRates(ctx context.Context, poolID, assetAddress string, days int) ([]apy.Sample, error)
	BackstopDailyRates(ctx context.Context, poolID string, days int) ([]apy.Sample, error)
}

// BalanceHistory reads combined snapshot history for a key.
type BalanceHistory interface {
	History(ctx context.Context, wallets []string, key domain.PoolAssetKey, days int) ([]domain.BalancePoint, error)
}

// PositionBreakdown is one pool-asset position with its yield decomposition.
type PositionBreakdown struct {
	Key           domain.PoolAssetKey   `json:"key"`
	Source        domain.PositionSource `json:"source"`
	CurrentTokens decimal.Decimal       `json:"currentTokens"`
	CurrentPrice  float64               `json:"currentPrice"`
	Breakdown     domain.YieldBreakdown `json:"breakdown"`
}

// AggregateTotals sums breakdown values over one aggregation dimension.
type AggregateTotals struct {
	CurrentValueUsd  float64 `json:"currentValueUsd"`
	CostBasisUsd     float64 `json:"costBasisUsd"`
	ProtocolYieldUsd float64 `json:"protocolYieldUsd"`
	PriceChangeUsd   float64 `json:"priceChangeUsd"`
	TotalEarnedUsd   float64 `json:"totalEarnedUsd"`
}

// Dashboard is the aggregated portfolio payload. Per-position, per-source,
// and per-pool dimensions all sum to Totals.
type Dashboard struct {
	Positions []PositionBreakdown                       `json:"positions"`
	BySource  map[domain.PositionSource]AggregateTotals `json:"bySource"`
	ByPool    map[string]AggregateTotals                `json:"byPool"`
	Totals    AggregateTotals                           `json:"totals"`
	Warnings  []string                                  `json:"warnings,omitempty"`
}

// Service runs the portfolio pipeline.
type Service struct {
	positions PositionSource
	events    EventStore
	history   BalanceHistory
	loc       *time.Location
}

// NewService creates a new portfolio Service. loc is the default timezone
// for day boundaries when the request does not supply one.
func NewService(pos PositionSource, store EventStore, history BalanceHistory, loc *time.Location) *Service {
	if loc == nil {
		loc = time.UTC
	}
	return &Service{positions: pos, events: store, history: history, loc: loc}
}
