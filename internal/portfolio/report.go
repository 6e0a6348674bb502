package portfolio

import (
	"context"
	"fmt"
	"time"

	"github.com/smoothiefi/smoothie/internal/apy"
	"github.com/smoothiefi/smoothie/internal/domain"
	"github.com/smoothiefi/smoothie/internal/events"
	"github.com/smoothiefi/smoothie/internal/performance"
)

// Performance aggregates realized yield across the wallets' full transaction
// history subject to the filter.
func (s *Service) Performance(ctx context.Context, wallets []string, filter events.ActionFilter, loc *time.Location) (domain.PerformanceReport, error) {
	if loc == nil {
		loc = s.loc
	}

	transactions, err := s.events.UserActions(ctx, wallets, filter)
	if err != nil {
		return domain.PerformanceReport{}, fmt.Errorf("loading user actions: %w", err)
	}

	return performance.Compute(transactions, domain.Today(loc), loc), nil
}

// LendingApy reconstructs the daily supply APY series for one pool asset
// from stored accrual rates.
func (s *Service) LendingApy(ctx context.Context, poolID, assetAddress string, days int) ([]domain.ApyPoint, error) {
	samples, err := s.events.DailyRates(ctx, poolID, assetAddress, days)
	if err != nil {
		return nil, fmt.Errorf("loading daily rates: %w", err)
	}
	return apy.FromAccrualRates(samples), nil
}

// BackstopApy reconstructs the daily backstop APY series for one pool from
// stored share rates.
func (s *Service) BackstopApy(ctx context.Context, poolID string, days int) ([]domain.ApyPoint, error) {
	samples, err := s.events.BackstopDailyRates(ctx, poolID, days)
	if err != nil {
		return nil, fmt.Errorf("loading backstop rates: %w", err)
	}
	return apy.FromShareRates(samples), nil
}
