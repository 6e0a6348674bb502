// Package yield decomposes position gains into protocol yield and price
// change components.
package yield

import (
	"github.com/shopspring/decimal"

	"github.com/smoothiefi/smoothie/internal/domain"
)

// Breakdown splits the full-history gain on a position into protocol yield
// (growth in token count from interest and emissions, valued at the current
// price) and price change (market movement on the historical net deposit).
//
// currentTokens is the live balance from the SDK snapshot and may differ from
// basis.NetDepositedTokens by exactly the accrued yield tokens.
func Breakdown(currentTokens decimal.Decimal, currentPrice float64, basis domain.CostBasisRecord) domain.YieldBreakdown {
	protocolYieldTokens := currentTokens.Sub(basis.NetDepositedTokens)
	protocolYieldUsd := domain.TokensUsd(protocolYieldTokens, currentPrice)
	priceChangeUsd := domain.TokensUsd(basis.NetDepositedTokens, currentPrice-basis.WeightedAvgDepositPrice)
	currentValueUsd := domain.TokensUsd(currentTokens, currentPrice)
	totalEarnedUsd := protocolYieldUsd + priceChangeUsd

	return domain.YieldBreakdown{
		CostBasisHistorical:     basis.CostBasisHistorical,
		WeightedAvgDepositPrice: basis.WeightedAvgDepositPrice,
		NetDepositedTokens:      basis.NetDepositedTokens,
		ProtocolYieldTokens:     protocolYieldTokens,
		ProtocolYieldUsd:        protocolYieldUsd,
		PriceChangeUsd:          priceChangeUsd,
		PriceChangePercent:      domain.SafePercent(currentPrice-basis.WeightedAvgDepositPrice, basis.WeightedAvgDepositPrice),
		CurrentValueUsd:         currentValueUsd,
		TotalEarnedUsd:          totalEarnedUsd,
		TotalEarnedPercent:      domain.SafePercent(totalEarnedUsd, basis.CostBasisHistorical),
	}
}
