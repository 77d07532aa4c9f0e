package report

import (
	"fmt"

	"github.com/xuri/excelize/v2"
)

const (
	sheetSummary   = "Summary"
	sheetUnmatched = "Unmatched"
	sheetFailures  = "Parse failures"
)

// WriteXLSX saves the report as a workbook with one sheet per section
func (r *Report) WriteXLSX(path string) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetSummary); err != nil {
		return err
	}
	for _, name := range []string{sheetUnmatched, sheetFailures} {
		if _, err := f.NewSheet(name); err != nil {
			return err
		}
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}

	s := r.Summary
	summary := [][]any{
		{"Generated at", r.GeneratedAt},
		{"Archives", s.Archives},
		{"Media files", s.MediaFiles},
		{"Media size", s.MediaSize},
		{"Sidecars", s.Sidecars},
		{"Parse failures", s.ParseFailures},
		{"Matched", s.Matched},
		{"Unmatched", s.Unmatched},
		{"Edited", s.Edited},
		{"Exported", s.Exported},
		{"Library copies", s.LibraryCopies},
	}
	if err := writeRows(f, sheetSummary, summary); err != nil {
		return err
	}
	if err := f.SetColStyle(sheetSummary, "A", bold); err != nil {
		return err
	}

	unmatched := [][]any{{"Path", "Archive", "Size"}}
	for _, u := range r.Unmatched {
		unmatched = append(unmatched, []any{u.Path, u.Archive, u.Size})
	}
	failures := [][]any{{"Path", "Archive", "Reason"}}
	for _, p := range r.ParseFailures {
		failures = append(failures, []any{p.Path, p.Archive, p.Reason})
	}
	for sheet, rows := range map[string][][]any{sheetUnmatched: unmatched, sheetFailures: failures} {
		if err := writeRows(f, sheet, rows); err != nil {
			return err
		}
		if err := f.SetRowStyle(sheet, 1, 1, bold); err != nil {
			return err
		}
		if err := f.SetColWidth(sheet, "A", "A", 80); err != nil {
			return err
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save %s: %w", path, err)
	}
	return nil
}

func writeRows(f *excelize.File, sheet string, rows [][]any) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write %s row %d: %w", sheet, i+1, err)
		}
	}
	return nil
}
