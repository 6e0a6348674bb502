package prices

import (
	"context"
	"errors"
	"testing"
	"time"
)

type fakeFetcher struct {
	prices map[string]float64
	err    error
}

func (f *fakeFetcher) FetchPrices(context.Context) (map[string]float64, error) {
	return f.prices, f.err
}

type fakeRepo struct {
	saved    map[string]float64
	getCalls int
}

func (r *fakeRepo) SaveQuote(_ context.Context, symbol string, priceUsd float64) error {
	if r.saved == nil {
		r.saved = map[string]float64{}
	}
	r.saved[symbol] = priceUsd
	return nil
}

func (r *fakeRepo) GetQuote(_ context.Context, symbol string) (Quote, error) {
	r.getCalls++
	price, ok := r.saved[symbol]
	if !ok {
		return Quote{}, ErrNotFound
	}
	return Quote{Symbol: symbol, PriceUsd: price, UpdatedAt: time.Now()}, nil
}

func (r *fakeRepo) GetAllQuotes(context.Context) ([]Quote, error) { return nil, nil }

func TestFetchAndStoreQuotes(t *testing.T) {
	repo := &fakeRepo{}
	svc := NewService(&fakeFetcher{prices: map[string]float64{"BLND": 0.06, "XLM": 0.41}}, repo)

	if err := svc.FetchAndStoreQuotes(context.Background()); err != nil {
		t.Fatalf("FetchAndStoreQuotes() error: %v", err)
	}
	if repo.saved["BLND"] != 0.06 {
		t.Errorf("stored BLND = %v, want 0.06", repo.saved["BLND"])
	}
}

func TestFetchAndStoreQuotesFetchError(t *testing.T) {
	svc := NewService(&fakeFetcher{err: errors.New("rate limited")}, &fakeRepo{})
	if err := svc.FetchAndStoreQuotes(context.Background()); err == nil {
		t.Error("FetchAndStoreQuotes() swallowed the fetch error")
	}
}

func TestQuoteUsdCaches(t *testing.T) {
	repo := &fakeRepo{saved: map[string]float64{"BLND": 0.06}}
	svc := NewService(&fakeFetcher{}, repo)

	for range 3 {
		price, err := svc.QuoteUsd(context.Background(), "BLND")
		if err != nil {
			t.Fatalf("QuoteUsd() error: %v", err)
		}
		if price != 0.06 {
			t.Errorf("QuoteUsd() = %v, want 0.06", price)
		}
	}
	if repo.getCalls != 1 {
		t.Errorf("repository hit %d times, want 1 (cache miss only)", repo.getCalls)
	}
}

func TestQuoteUsdUnknownSymbol(t *testing.T) {
	svc := NewService(&fakeFetcher{}, &fakeRepo{})
	if _, err := svc.QuoteUsd(context.Background(), "DOGE"); !errors.Is(err, ErrNotFound) {
		t.Errorf("QuoteUsd() error = %v, want ErrNotFound", err)
	}
}
