package domain

import "github.com/shopspring/decimal"

// CostBasisRecord is the average-cost reconstruction for one pool-asset key.
// Derived fresh on every request, never persisted or mutated.
type CostBasisRecord struct {
	Key                     PoolAssetKey    `json:"key"`
	CostBasisHistorical     float64         `json:"costBasisHistorical"`
	WeightedAvgDepositPrice float64         `json:"weightedAvgDepositPrice"`
	NetDepositedTokens      decimal.Decimal `json:"netDepositedTokens"`
}

// YieldBreakdown decomposes a position's total gain into protocol yield
// (token-count growth) and price change (market movement).
// Invariant: TotalEarnedUsd == ProtocolYieldUsd + PriceChangeUsd.
type YieldBreakdown struct {
	CostBasisHistorical     float64         `json:"costBasisHistorical"`
	WeightedAvgDepositPrice float64         `json:"weightedAvgDepositPrice"`
	NetDepositedTokens      decimal.Decimal `json:"netDepositedTokens"`
	ProtocolYieldTokens     decimal.Decimal `json:"protocolYieldTokens"`
	ProtocolYieldUsd        float64         `json:"protocolYieldUsd"`
	PriceChangeUsd          float64         `json:"priceChangeUsd"`
	PriceChangePercent      float64         `json:"priceChangePercent"`
	CurrentValueUsd         float64         `json:"currentValueUsd"`
	TotalEarnedUsd          float64         `json:"totalEarnedUsd"`
	TotalEarnedPercent      float64         `json:"totalEarnedPercent"`
}

// ApyPoint is one day of reconstructed APY.
type ApyPoint struct {
	Date string  `json:"date"`
	Apy  float64 `json:"apy"`
}
