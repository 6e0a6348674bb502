// Package export renders performance reports to spreadsheets: a Google
// Sheets destination refreshed by the worker, and an xlsx workbook served
// as an API download.
package export

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/smoothiefi/smoothie/internal/domain"
	"github.com/smoothiefi/smoothie/internal/events"
)

// SheetWriter writes a performance report to a spreadsheet destination.
type SheetWriter interface {
	Write(ctx context.Context, report domain.PerformanceReport) error
}

// PerformanceSource computes a realized-yield report for a set of wallets.
type PerformanceSource interface {
	Performance(ctx context.Context, wallets []string, filter events.ActionFilter, loc *time.Location) (domain.PerformanceReport, error)
}

// WalletRegistry lists the wallets to include in scheduled exports.
type WalletRegistry interface {
	Followed(ctx context.Context) ([]string, error)
}

// Service computes the followed-wallet performance report and delegates
// writing to a SheetWriter.
type Service struct {
	source   PerformanceSource
	registry WalletRegistry
	writer   SheetWriter
}

// NewService creates a new export Service.
func NewService(source PerformanceSource, registry WalletRegistry, writer SheetWriter) *Service {
	return &Service{source: source, registry: registry, writer: writer}
}

// Export recomputes the full-history report for every followed wallet and
// rewrites the destination sheet. Implements worker.AfterSnapshotHook.
func (s *Service) Export(ctx context.Context) error {
	wallets, err := s.registry.Followed(ctx)
	if err != nil {
		return fmt.Errorf("listing followed wallets: %w", err)
	}
	if len(wallets) == 0 {
		return nil
	}

	report, err := s.source.Performance(ctx, wallets, events.ActionFilter{}, nil)
	if err != nil {
		return fmt.Errorf("computing performance report: %w", err)
	}

	return s.writer.Write(ctx, report)
}

// buildSummary builds the SUMMARY sheet data.
// Columns: Metric | Value
func buildSummary(report domain.PerformanceReport) [][]any {
	t := report.Totals
	data := [][]any{
		{"Metric", "Value"},
		{"Total deposited (USD)", t.TotalDepositedUsd},
		{"Total withdrawn (USD)", t.TotalWithdrawnUsd},
		{"Realized P&L (USD)", t.RealizedPnl},
		{"Pools deposited (USD)", t.Pools.DepositedUsd},
		{"Pools withdrawn (USD)", t.Pools.WithdrawnUsd},
		{"Backstop deposited (USD)", t.Backstop.DepositedUsd},
		{"Backstop withdrawn (USD)", t.Backstop.WithdrawnUsd},
		{"BLND claimed (tokens)", decimalFloat(t.Emissions.BlndClaimed)},
		{"LP claimed (tokens)", decimalFloat(t.Emissions.LpClaimed)},
		{"Emissions claimed (USD)", t.Emissions.UsdValue},
		{"Days active", t.DaysActive},
		{"First activity", t.FirstActivityDate},
		{"Last activity", t.LastActivityDate},
	}
	data = append(data, []any{"ROI (%)", optFloat(t.RoiPercent)})
	data = append(data, []any{"Annualized ROI (%)", optFloat(t.AnnualizedRoiPercent)})
	return data
}

// buildDaily builds the DAILY sheet data from the densified overall series.
// Columns: Date | Deposited | Withdrawn | Realized P&L | Claimed
func buildDaily(report domain.PerformanceReport) [][]any {
	data := make([][]any, 0, len(report.Overall)+1)
	data = append(data, []any{"Date", "Deposited", "Withdrawn", "Realized P&L", "Claimed"})
	for _, p := range report.Overall {
		data = append(data, []any{p.Date, p.DepositedUsd, p.WithdrawnUsd, p.RealizedPnl, p.ClaimedUsd})
	}
	return data
}

func decimalFloat(d decimal.Decimal) float64 {
	f, _ := d.Float64()
	return f
}

func optFloat(f *float64) any {
	if f == nil {
		return nil
	}
	return *f
}
