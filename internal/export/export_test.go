package export

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/smoothiefi/smoothie/internal/domain"
	"github.com/smoothiefi/smoothie/internal/events"
)

type fakeSource struct {
	report  domain.PerformanceReport
	wallets []string
	err     error
}

func (f *fakeSource) Performance(_ context.Context, wallets []string, _ events.ActionFilter, _ *time.Location) (domain.PerformanceReport, error) {
	f.wallets = wallets
	return f.report, f.err
}

type fakeRegistry struct {
	wallets []string
	err     error
}

func (f *fakeRegistry) Followed(_ context.Context) ([]string, error) {
	return f.wallets, f.err
}

type fakeWriter struct {
	written *domain.PerformanceReport
}

func (f *fakeWriter) Write(_ context.Context, report domain.PerformanceReport) error {
	f.written = &report
	return nil
}

func sampleReport() domain.PerformanceReport {
	roi := 12.5
	return domain.PerformanceReport{
		Totals: domain.RealizedYieldTotals{
			TotalDepositedUsd: 1000,
			TotalWithdrawnUsd: 1125,
			RealizedPnl:       125,
			Emissions: domain.EmissionTotals{
				BlndClaimed: decimal.NewFromInt(300),
				UsdValue:    45,
			},
			RoiPercent:        &roi,
			DaysActive:        90,
			FirstActivityDate: "2025-06-01",
			LastActivityDate:  "2025-08-30",
		},
		Overall: []domain.CumulativePoint{
			{Date: "2025-06-01", DepositedUsd: 1000, RealizedPnl: -1000},
			{Date: "2025-06-02", DepositedUsd: 1000, WithdrawnUsd: 1125, RealizedPnl: 125, ClaimedUsd: 45},
		},
	}
}

func TestExportWritesFollowedWalletReport(t *testing.T) {
	source := &fakeSource{report: sampleReport()}
	writer := &fakeWriter{}
	svc := NewService(source, &fakeRegistry{wallets: []string{"GAAA", "GBBB"}}, writer)

	if err := svc.Export(context.Background()); err != nil {
		t.Fatalf("Export: %v", err)
	}
	if writer.written == nil {
		t.Fatal("writer was not invoked")
	}
	if len(source.wallets) != 2 {
		t.Errorf("wallets passed = %v, want both followed wallets", source.wallets)
	}
}

func TestExportNoFollowedWalletsSkipsWrite(t *testing.T) {
	writer := &fakeWriter{}
	svc := NewService(&fakeSource{}, &fakeRegistry{}, writer)

	if err := svc.Export(context.Background()); err != nil {
		t.Fatalf("Export: %v", err)
	}
	if writer.written != nil {
		t.Error("writer should not run with no followed wallets")
	}
}

func TestExportSourceErrorPropagates(t *testing.T) {
	svc := NewService(&fakeSource{err: errors.New("db down")}, &fakeRegistry{wallets: []string{"GAAA"}}, &fakeWriter{})
	if err := svc.Export(context.Background()); err == nil {
		t.Fatal("expected error")
	}
}

func TestBuildDailyMatchesSeries(t *testing.T) {
	rows := buildDaily(sampleReport())
	if len(rows) != 3 {
		t.Fatalf("rows = %d, want header plus two days", len(rows))
	}
	if rows[1][0] != "2025-06-01" {
		t.Errorf("first data row date = %v", rows[1][0])
	}
	if rows[2][3] != 125.0 {
		t.Errorf("realized pnl cell = %v, want 125", rows[2][3])
	}
}

func TestBuildSummaryHandlesNilRoi(t *testing.T) {
	report := sampleReport()
	report.Totals.AnnualizedRoiPercent = nil
	rows := buildSummary(report)

	last := rows[len(rows)-1]
	if last[0] != "Annualized ROI (%)" {
		t.Fatalf("last row = %v", last)
	}
	if last[1] != nil {
		t.Errorf("nil annualized ROI should render empty, got %v", last[1])
	}
}

func TestWorkbookRenders(t *testing.T) {
	buf, err := Workbook(sampleReport())
	if err != nil {
		t.Fatalf("Workbook: %v", err)
	}
	if buf.Len() == 0 {
		t.Error("workbook buffer is empty")
	}
}
