package snapshot

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/smoothiefi/smoothie/internal/domain"
	"github.com/smoothiefi/smoothie/internal/positions"
)

// PositionSource fetches live positions for a set of wallets, settling
// every wallet before returning.
type PositionSource interface {
	FetchAll(ctx context.Context, wallets []string) []positions.WalletResult
}

// Service generates and reads daily position snapshots.
type Service struct {
	source PositionSource
	repo   Repository
	loc    *time.Location
}

// NewService creates a new snapshot Service. loc pins which calendar day a
// snapshot belongs to; nil means UTC.
func NewService(source PositionSource, repo Repository, loc *time.Location) *Service {
	if loc == nil {
		loc = time.UTC
	}
	return &Service{source: source, repo: repo, loc: loc}
}

// Generate snapshots every followed wallet's current positions under the
// given date. Wallets whose fetch failed are logged and skipped; the rest
// are still persisted.
func (s *Service) Generate(ctx context.Context, date time.Time) error {
	wallets, err := s.repo.ListFollowed(ctx)
	if err != nil {
		return fmt.Errorf("listing followed wallets: %w", err)
	}
	if len(wallets) == 0 {
		return nil
	}

	day := domain.Day(date, s.loc)
	results := s.source.FetchAll(ctx, wallets)

	var snaps []PositionSnapshot
	for _, res := range results {
		if res.Err != nil {
			slog.Warn("snapshot: wallet fetch failed, skipping", "wallet", res.Wallet, "error", res.Err)
			continue
		}
		snaps = append(snaps, flatten(res.Positions, day)...)
	}
	if len(snaps) == 0 {
		return nil
	}

	if err := s.repo.Save(ctx, snaps); err != nil {
		return fmt.Errorf("saving snapshots: %w", err)
	}
	return nil
}

// History returns the combined daily balance series for a key over the last
// days, summed across the given wallets.
func (s *Service) History(ctx context.Context, wallets []string, key domain.PoolAssetKey, days int) ([]domain.BalancePoint, error) {
	to := domain.Today(s.loc)
	from := to.AddDate(0, 0, -days)
	return s.repo.History(ctx, wallets, key, from, to)
}

// Follow registers a wallet for daily snapshotting.
func (s *Service) Follow(ctx context.Context, wallet string) error {
	return s.repo.Follow(ctx, wallet)
}

// Unfollow removes a wallet from the snapshot registry.
func (s *Service) Unfollow(ctx context.Context, wallet string) error {
	return s.repo.Unfollow(ctx, wallet)
}

// Followed lists every wallet registered for daily snapshotting.
func (s *Service) Followed(ctx context.Context) ([]string, error) {
	return s.repo.ListFollowed(ctx)
}

func flatten(wp domain.WalletPositions, day time.Time) []PositionSnapshot {
	snaps := make([]PositionSnapshot, 0, len(wp.Pools)+len(wp.Backstop))
	for _, p := range wp.Pools {
		snaps = append(snaps, PositionSnapshot{
			Wallet:   wp.Wallet,
			Key:      p.Key(),
			Date:     day,
			Tokens:   p.SupplyTokens,
			UsdPrice: p.UsdPrice,
		})
	}
	for _, b := range wp.Backstop {
		snaps = append(snaps, PositionSnapshot{
			Wallet:   wp.Wallet,
			Key:      b.Key(),
			Date:     day,
			Tokens:   b.LpTokens,
			UsdPrice: b.LpUsdPrice,
		})
	}
	return snaps
}
