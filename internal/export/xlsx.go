package export

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/smoothiefi/smoothie/internal/domain"
)

// Workbook renders the report as an xlsx workbook with SUMMARY and DAILY
// sheets, for direct download from the API.
func Workbook(report domain.PerformanceReport) (*bytes.Buffer, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", "SUMMARY"); err != nil {
		return nil, fmt.Errorf("renaming summary sheet: %w", err)
	}
	if _, err := f.NewSheet("DAILY"); err != nil {
		return nil, fmt.Errorf("creating daily sheet: %w", err)
	}

	if err := writeRows(f, "SUMMARY", buildSummary(report)); err != nil {
		return nil, err
	}
	if err := writeRows(f, "DAILY", buildDaily(report)); err != nil {
		return nil, err
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("serializing workbook: %w", err)
	}
	return buf, nil
}

func writeRows(f *excelize.File, sheet string, rows [][]any) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return fmt.Errorf("resolving cell for row %d: %w", i+1, err)
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("writing %s row %d: %w", sheet, i+1, err)
		}
	}
	return nil
}
