package prices

import (
	"context"
	"fmt"
	"log/slog"
)

// PriceFetcher fetches USD quotes from the external market data source.
type PriceFetcher interface {
	FetchPrices(ctx context.Context) (map[string]float64, error)
}

// Service resolves token USD quotes, preferring the in-process cache, then
// the database. FetchAndStoreQuotes is the refresh path driven by the worker.
type Service struct {
	fetcher PriceFetcher
	repo    QuoteRepository
	cache   *quoteCache
}

// NewService creates a new quote Service.
func NewService(fetcher PriceFetcher, repo QuoteRepository) *Service {
	return &Service{
		fetcher: fetcher,
		repo:    repo,
		cache:   newQuoteCache(),
	}
}

// FetchAndStoreQuotes pulls fresh quotes and persists them. Implements the
// worker refresh interface. Individual save failures are logged and skipped
// so one bad symbol cannot starve the rest.
func (s *Service) FetchAndStoreQuotes(ctx context.Context) error {
	quotes, err := s.fetcher.FetchPrices(ctx)
	if err != nil {
		return fmt.Errorf("fetching external quotes: %w", err)
	}

	for symbol, priceUsd := range quotes {
		if err := s.repo.SaveQuote(ctx, symbol, priceUsd); err != nil {
			slog.Error("failed to store quote", "symbol", symbol, "error", err)
			continue
		}
	}
	return nil
}

// QuoteUsd returns the USD price for a symbol.
func (s *Service) QuoteUsd(ctx context.Context, symbol string) (float64, error) {
	if q, ok := s.cache.get(symbol); ok {
		return q.PriceUsd, nil
	}

	q, err := s.repo.GetQuote(ctx, symbol)
	if err != nil {
		return 0, err
	}
	s.cache.set(symbol, q)
	return q.PriceUsd, nil
}

// AllQuotes returns every stored external quote.
func (s *Service) AllQuotes(ctx context.Context) ([]Quote, error) {
	return s.repo.GetAllQuotes(ctx)
}
