package export

import (
	"context"
	"fmt"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"github.com/mtlprog/folio/internal/display"
)

// Table is one sheet worth of rows under a header.
type Table struct {
	Title  string
	Header []string
	Rows   [][]any
}

// Workbook is the spreadsheet form of one portfolio.
type Workbook struct {
	Portfolio    string
	Assets       Table
	Currencies   Table
	Transactions Table
	Chart        display.PieChart
}

// Tables returns the workbook's tables in sheet order.
func (wb Workbook) Tables() []Table {
	return []Table{wb.Assets, wb.Currencies, wb.Transactions}
}

// TableWriter writes a workbook to a spreadsheet destination.
type TableWriter interface {
	Write(ctx context.Context, wb Workbook) error
}

// Service turns portfolios into workbooks and hands them to a TableWriter.
type Service struct {
	source display.Source
}

// NewService creates a new export Service.
func NewService(source display.Source) *Service {
	return &Service{source: source}
}

// Export builds the named portfolio's workbook and writes it with w.
func (s *Service) Export(ctx context.Context, name string, w TableWriter) error {
	view, err := display.Build(name, s.source)
	if err != nil {
		return fmt.Errorf("building view for %s: %w", name, err)
	}
	if err := w.Write(ctx, BuildWorkbook(view)); err != nil {
		return fmt.Errorf("writing %s: %w", name, err)
	}
	return nil
}

// BuildWorkbook lays out a view as Assets, Currencies and Transactions tables.
// Monetary columns hold scaled values; transactions stay most recent first.
func BuildWorkbook(v display.View) Workbook {
	return Workbook{
		Portfolio: v.Name,
		Assets: Table{
			Title:  "Assets",
			Header: []string{"Ticker", "Amount", "Unit price", "Currency"},
			Rows: lo.Map(v.Assets, func(a display.AssetLine, _ int) []any {
				return []any{a.Ticker, a.Amount, toFloat(a.UnitPrice), a.Currency}
			}),
		},
		Currencies: Table{
			Title:  "Currencies",
			Header: []string{"Code", "Amount"},
			Rows: lo.Map(v.Currencies, func(c display.CurrencyLine, _ int) []any {
				return []any{c.Code, toFloat(c.Amount)}
			}),
		},
		Transactions: Table{
			Title:  "Transactions",
			Header: []string{"Type", "Date", "Ticker", "Amount", "Unit price", "Currency"},
			Rows: lo.Map(v.Transactions, func(t display.TransactionLine, _ int) []any {
				return []any{t.Type, t.Date, t.Code, t.Amount, toFloat(t.UnitPrice), t.Currency}
			}),
		},
		Chart: v.Chart,
	}
}

// values returns the header followed by the rows, as spreadsheet APIs expect.
func (t Table) values() [][]any {
	header := lo.Map(t.Header, func(h string, _ int) any { return h })
	return append([][]any{header}, t.Rows...)
}

func toFloat(d decimal.Decimal) float64 {
	f, _ := d.Float64()
	return f
}
