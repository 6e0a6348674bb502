// Package events provides access to the deposit/withdraw/claim event store
// and the daily rate series backing APY reconstruction.
package events

import (
	"context"
	"errors"
	"time"

	"github.com/smoothiefi/smoothie/internal/apy"
	"github.com/smoothiefi/smoothie/internal/costbasis"
	"github.com/smoothiefi/smoothie/internal/domain"
)

// ErrNotFound indicates that the requested series has no rows at all.
var ErrNotFound = errors.New("not found")

// ActionFilter narrows a user action query. Zero values mean no restriction.
type ActionFilter struct {
	From   time.Time
	To     time.Time
	Source domain.PositionSource
	PoolID string
}

// Repository is the event and rate store contract consumed by the
// computation core. Implementations resolve historical USD prices per event:
// exact day match first, then forward-fill from the most recent known price,
// then the caller-supplied fallback.
type Repository interface {
	// DepositEvents loads one wallet's deposit/withdrawal ledgers for the
	// given keys, with historical USD prices resolved per event.
	DepositEvents(ctx context.Context, wallet string, keys []domain.PoolAssetKey, fallbackPrices map[domain.PoolAssetKey]float64, loc *time.Location) (costbasis.WalletLedgers, error)

	// UserActions returns the full chronological action ledger for the
	// wallets, oldest first.
	UserActions(ctx context.Context, wallets []string, filter ActionFilter) ([]domain.Transaction, error)

	// DailyRates returns up to days of b_rate samples for a pool reserve,
	// oldest first. Forward-filled rows carry HasRealData=false. Returns
	// ErrNotFound when no samples exist for the reserve.
	DailyRates(ctx context.Context, poolID, assetAddress string, days int) ([]apy.Sample, error)

	// BackstopDailyRates returns up to days of backstop share-rate samples
	// for a pool, oldest first. Returns ErrNotFound when no samples exist.
	BackstopDailyRates(ctx context.Context, poolID string, days int) ([]apy.Sample, error)
}
