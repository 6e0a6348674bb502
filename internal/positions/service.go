package positions

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/smoothiefi/smoothie/internal/domain"
)

// maxConcurrentFetches bounds parallel indexer calls per request.
const maxConcurrentFetches = 4

// Fetcher fetches one wallet's live positions.
type Fetcher interface {
	FetchPositions(ctx context.Context, wallet string) (domain.WalletPositions, error)
}

// WalletResult pairs a wallet with its fetch outcome. A failed wallet
// carries its error, leaving other wallets' results intact.
type WalletResult struct {
	Wallet    string
	Positions domain.WalletPositions
	Err       error
}

// Service fans position fetches out across wallets.
type Service struct {
	fetcher Fetcher
}

// NewService creates a new positions Service.
func NewService(fetcher Fetcher) *Service {
	return &Service{fetcher: fetcher}
}

// FetchAll fetches every wallet's positions concurrently and returns only
// after all fetches have settled. Aggregation over a partial result set
// silently miscounts cost basis, so callers get either all outcomes or a
// context error. Results are ordered like the input wallets.
func (s *Service) FetchAll(ctx context.Context, wallets []string) []WalletResult {
	results := make([]WalletResult, len(wallets))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentFetches)
	for i, wallet := range wallets {
		g.Go(func() error {
			positions, err := s.fetcher.FetchPositions(ctx, wallet)
			results[i] = WalletResult{Wallet: wallet, Positions: positions, Err: err}
			return nil
		})
	}
	// Goroutines never return errors; Wait is the all-settled gate.
	_ = g.Wait()

	return results
}
