package export

import (
	"context"
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/mtlprog/folio/internal/domain"
)

// XLSXWriter writes workbooks as .xlsx files to an io.Writer.
type XLSXWriter struct {
	out io.Writer
}

// NewXLSXWriter creates an XLSXWriter targeting out.
func NewXLSXWriter(out io.Writer) *XLSXWriter {
	return &XLSXWriter{out: out}
}

// Write renders one sheet per table plus a pie chart of positive currency balances.
func (w *XLSXWriter) Write(_ context.Context, wb Workbook) error {
	f := excelize.NewFile()
	defer f.Close()

	for i, t := range wb.Tables() {
		if i == 0 {
			if err := f.SetSheetName(f.GetSheetName(0), t.Title); err != nil {
				return fmt.Errorf("naming sheet %s: %w", t.Title, err)
			}
		} else if _, err := f.NewSheet(t.Title); err != nil {
			return fmt.Errorf("creating sheet %s: %w", t.Title, err)
		}
		if err := writeRows(f, t.Title, 1, 1, t.values()); err != nil {
			return err
		}
	}

	if !wb.Chart.Empty() {
		if err := addCurrencyChart(f, wb); err != nil {
			return err
		}
	}

	f.SetActiveSheet(0)
	if _, err := f.WriteTo(w.out); err != nil {
		return fmt.Errorf("writing workbook: %w", err)
	}
	return nil
}

// addCurrencyChart writes the chart's slices next to the currency table and plots them.
func addCurrencyChart(f *excelize.File, wb Workbook) error {
	const sheet, firstCol = "Currencies", 4

	rows := [][]any{{"Allocation", "Amount"}}
	for _, s := range wb.Chart.Slices {
		rows = append(rows, []any{s.Label, toFloat(domain.Scale(s.Value))})
	}
	if err := writeRows(f, sheet, firstCol, 1, rows); err != nil {
		return err
	}

	last := len(rows)
	err := f.AddChart(sheet, "G2", &excelize.Chart{
		Type: excelize.Pie,
		Series: []excelize.ChartSeries{{
			Name:       fmt.Sprintf("%s!$E$1", sheet),
			Categories: fmt.Sprintf("%s!$D$2:$D$%d", sheet, last),
			Values:     fmt.Sprintf("%s!$E$2:$E$%d", sheet, last),
		}},
		Title:    []excelize.RichTextRun{{Text: wb.Portfolio + " currencies"}},
		PlotArea: excelize.ChartPlotArea{ShowCatName: true, ShowPercent: true},
	})
	if err != nil {
		return fmt.Errorf("adding currency chart: %w", err)
	}
	return nil
}

func writeRows(f *excelize.File, sheet string, col, row int, rows [][]any) error {
	for i, r := range rows {
		cell, err := excelize.CoordinatesToCellName(col, row+i)
		if err != nil {
			return fmt.Errorf("locating row %d of %s: %w", i, sheet, err)
		}
		if err := f.SetSheetRow(sheet, cell, &r); err != nil {
			return fmt.Errorf("writing row %d of %s: %w", i, sheet, err)
		}
	}
	return nil
}
