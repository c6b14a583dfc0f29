package export

import (
	"context"
	"fmt"
	"time"

	"github.com/samber/lo"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	sheets "google.golang.org/api/sheets/v4"
)

// SheetsWriter implements TableWriter using the Google Sheets API.
// Each portfolio gets its own "<name> <table>" sheets plus a "<name> History" sheet
// that receives one row of currency balances per export.
type SheetsWriter struct {
	spreadsheetID string
	svc           *sheets.Service
	now           func() time.Time
}

// NewSheetsWriter creates a SheetsWriter authenticated with a service account JSON.
func NewSheetsWriter(ctx context.Context, spreadsheetID, credentialsJSON string) (*SheetsWriter, error) {
	creds, err := google.CredentialsFromJSON(
		ctx,
		[]byte(credentialsJSON),
		sheets.SpreadsheetsScope,
	)
	if err != nil {
		return nil, fmt.Errorf("parsing google credentials: %w", err)
	}

	svc, err := sheets.NewService(ctx, option.WithCredentials(creds))
	if err != nil {
		return nil, fmt.Errorf("creating sheets service: %w", err)
	}

	return &SheetsWriter{spreadsheetID: spreadsheetID, svc: svc, now: time.Now}, nil
}

// Write ensures the portfolio's sheets exist, rewrites the tables and appends a history row.
func (w *SheetsWriter) Write(ctx context.Context, wb Workbook) error {
	tables := wb.Tables()
	titles := lo.Map(tables, func(t Table, _ int) string { return sheetTitle(wb.Portfolio, t.Title) })
	history := sheetTitle(wb.Portfolio, "History")

	meta, err := w.ensureSheets(ctx, append(titles, history)...)
	if err != nil {
		return err
	}

	_, err = w.svc.Spreadsheets.Values.BatchClear(
		w.spreadsheetID,
		&sheets.BatchClearValuesRequest{
			Ranges: lo.Map(titles, func(title string, _ int) string { return a1(title, "A:Z") }),
		},
	).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("clearing sheets: %w", err)
	}

	data := make([]*sheets.ValueRange, 0, len(tables))
	for i, t := range tables {
		data = append(data, &sheets.ValueRange{Range: a1(titles[i], "A1"), Values: t.values()})
	}
	_, err = w.svc.Spreadsheets.Values.BatchUpdate(
		w.spreadsheetID,
		&sheets.BatchUpdateValuesRequest{ValueInputOption: "USER_ENTERED", Data: data},
	).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("writing sheets: %w", err)
	}

	if err := w.appendHistory(ctx, history, wb); err != nil {
		return err
	}

	return w.applyHeaderFormatting(ctx, lo.Map(titles, func(title string, _ int) int64 { return meta[title] }))
}

// buildHistoryRows returns the header and one dated row of currency balances.
// Columns follow the currency table order.
func buildHistoryRows(wb Workbook, at time.Time) (header []any, row []any) {
	header = []any{"Date"}
	row = []any{at.UTC().Format("2006-01-02")}
	for _, r := range wb.Currencies.Rows {
		header = append(header, r[0])
		row = append(row, r[1])
	}
	return header, row
}

// appendHistory writes the header row when the sheet is empty, then appends today's balances.
func (w *SheetsWriter) appendHistory(ctx context.Context, title string, wb Workbook) error {
	header, row := buildHistoryRows(wb, w.now())

	existing, err := w.svc.Spreadsheets.Values.Get(w.spreadsheetID, a1(title, "A1:A1")).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("reading %s header: %w", title, err)
	}

	if len(existing.Values) == 0 {
		_, err = w.svc.Spreadsheets.Values.Update(
			w.spreadsheetID,
			a1(title, "A1"),
			&sheets.ValueRange{Values: [][]any{header}},
		).ValueInputOption("USER_ENTERED").Context(ctx).Do()
		if err != nil {
			return fmt.Errorf("writing %s header: %w", title, err)
		}
	}

	_, err = w.svc.Spreadsheets.Values.Append(
		w.spreadsheetID,
		a1(title, "A:Z"),
		&sheets.ValueRange{Values: [][]any{row}},
	).ValueInputOption("USER_ENTERED").InsertDataOption("INSERT_ROWS").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("appending %s row: %w", title, err)
	}
	return nil
}

// applyHeaderFormatting makes the first row bold and frozen on each sheet.
func (w *SheetsWriter) applyHeaderFormatting(ctx context.Context, sheetIDs []int64) error {
	var reqs []*sheets.Request
	for _, id := range sheetIDs {
		reqs = append(reqs,
			&sheets.Request{
				RepeatCell: &sheets.RepeatCellRequest{
					Range: &sheets.GridRange{SheetId: id, StartRowIndex: 0, EndRowIndex: 1},
					Cell: &sheets.CellData{UserEnteredFormat: &sheets.CellFormat{
						TextFormat: &sheets.TextFormat{Bold: true},
					}},
					Fields: "userEnteredFormat.textFormat.bold",
				},
			},
			&sheets.Request{
				UpdateSheetProperties: &sheets.UpdateSheetPropertiesRequest{
					Properties: &sheets.SheetProperties{
						SheetId:        id,
						GridProperties: &sheets.GridProperties{FrozenRowCount: 1},
					},
					Fields: "gridProperties.frozenRowCount",
				},
			},
		)
	}

	_, err := w.svc.Spreadsheets.BatchUpdate(
		w.spreadsheetID,
		&sheets.BatchUpdateSpreadsheetRequest{Requests: reqs},
	).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("formatting sheets: %w", err)
	}
	return nil
}

// ensureSheets creates any of the named sheets that do not already exist
// and returns the sheet ID of every requested title.
func (w *SheetsWriter) ensureSheets(ctx context.Context, names ...string) (map[string]int64, error) {
	spreadsheet, err := w.svc.Spreadsheets.Get(w.spreadsheetID).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("getting spreadsheet metadata: %w", err)
	}

	ids := make(map[string]int64, len(spreadsheet.Sheets))
	for _, s := range spreadsheet.Sheets {
		ids[s.Properties.Title] = s.Properties.SheetId
	}

	var requests []*sheets.Request
	for _, name := range names {
		if _, ok := ids[name]; !ok {
			requests = append(requests, &sheets.Request{
				AddSheet: &sheets.AddSheetRequest{
					Properties: &sheets.SheetProperties{Title: name},
				},
			})
		}
	}

	if len(requests) == 0 {
		return ids, nil
	}

	resp, err := w.svc.Spreadsheets.BatchUpdate(
		w.spreadsheetID,
		&sheets.BatchUpdateSpreadsheetRequest{Requests: requests},
	).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("creating sheets: %w", err)
	}
	for _, r := range resp.Replies {
		if r.AddSheet != nil && r.AddSheet.Properties != nil {
			ids[r.AddSheet.Properties.Title] = r.AddSheet.Properties.SheetId
		}
	}

	return ids, nil
}

func sheetTitle(portfolio, table string) string {
	return portfolio + " " + table
}

// a1 builds an A1-notation range on a sheet whose title may contain spaces.
func a1(title, cells string) string {
	return fmt.Sprintf("'%s'!%s", title, cells)
}
