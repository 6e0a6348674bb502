package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// PoolPosition is a live pool reserve position reported by the SDK snapshot.
// Ground truth for "now", independent of the historical event ledger.
type PoolPosition struct {
	Wallet       string          `json:"wallet"`
	PoolID       string          `json:"poolId"`
	AssetAddress string          `json:"assetId"`
	SupplyTokens decimal.Decimal `json:"supplyAmount"`
	BorrowTokens decimal.Decimal `json:"borrowAmount"`
	UsdPrice     float64         `json:"usdPrice"`
}

// Key returns the pool-asset key this position belongs to.
func (p PoolPosition) Key() PoolAssetKey {
	return NewPoolAssetKey(p.PoolID, p.AssetAddress)
}

// BackstopPosition is a live backstop deposit reported by the SDK snapshot.
// Shares and LP tokens are decimal because on-chain share counts exceed what
// float64 can represent exactly; they cross the wire as decimal strings.
type BackstopPosition struct {
	Wallet     string          `json:"wallet"`
	PoolID     string          `json:"poolId"`
	LpTokens   decimal.Decimal `json:"lpTokens"`
	Shares     decimal.Decimal `json:"shares"`
	Q4WShares  decimal.Decimal `json:"q4wShares"`
	LpUsdPrice float64         `json:"lpUsdPrice"`
}

// Key returns the backstop key this position belongs to.
func (p BackstopPosition) Key() PoolAssetKey {
	return BackstopKey(p.PoolID)
}

// BalancePoint is one day of a position's snapshot history: token balance
// and USD unit price as of that day.
type BalancePoint struct {
	Date   time.Time       `json:"date"`
	Tokens decimal.Decimal `json:"tokens"`
	Price  float64         `json:"price"`
}

// WalletPositions groups one wallet's live positions.
type WalletPositions struct {
	Wallet   string             `json:"wallet"`
	Pools    []PoolPosition     `json:"pools"`
	Backstop []BackstopPosition `json:"backstop"`
}
