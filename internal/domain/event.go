package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// PriceResolution tags how a historical USD price was resolved for an event.
type PriceResolution string

const (
	PriceExact       PriceResolution = "exact"        // price row for the event day
	PriceForwardFill PriceResolution = "forward_fill" // most recent earlier price row
	PriceFallback    PriceResolution = "fallback"     // caller-supplied SDK price
)

// LedgerEvent is a single deposit or withdrawal from the event store.
// Tokens is always positive; the deposit/withdrawal split is carried by the
// ledger it belongs to. Immutable once read.
type LedgerEvent struct {
	Date         time.Time       `json:"date"`
	Tokens       decimal.Decimal `json:"tokens"`
	PriceAtEvent float64         `json:"priceAtEvent"`
	UsdValue     float64         `json:"usdValue"`
	PriceSource  PriceResolution `json:"priceSource"`
}

// EventLedger holds the deposit and withdrawal history for one pool-asset key.
type EventLedger struct {
	Deposits    []LedgerEvent `json:"deposits"`
	Withdrawals []LedgerEvent `json:"withdrawals"`
}

// IsEmpty reports whether the ledger carries no events at all.
func (l EventLedger) IsEmpty() bool {
	return len(l.Deposits) == 0 && len(l.Withdrawals) == 0
}

// ActionType classifies ledger transactions.
type ActionType string

const (
	ActionDeposit  ActionType = "deposit"
	ActionWithdraw ActionType = "withdraw"
	ActionClaim    ActionType = "claim"
)

// PositionSource distinguishes lending-pool positions from backstop positions.
type PositionSource string

const (
	SourcePool     PositionSource = "pool"
	SourceBackstop PositionSource = "backstop"
)

// ClaimToken identifies what a claim transaction paid out in.
type ClaimToken string

const (
	ClaimBLND ClaimToken = "blnd"
	ClaimLP   ClaimToken = "lp"
)

// Transaction is one row of the full chronological user action ledger.
type Transaction struct {
	Date         time.Time       `json:"date"`
	Wallet       string          `json:"wallet"`
	Type         ActionType      `json:"type"`
	Source       PositionSource  `json:"source"`
	PoolID       string          `json:"poolId"`
	AssetAddress string          `json:"assetAddress,omitempty"`
	Tokens       decimal.Decimal `json:"tokens"`
	UsdValue     float64         `json:"usdValue"`
	ClaimToken   ClaimToken      `json:"claimToken,omitempty"`
}
