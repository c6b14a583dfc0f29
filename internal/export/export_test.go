package export

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/mtlprog/folio/internal/display"
	"github.com/mtlprog/folio/internal/domain"
	"github.com/mtlprog/folio/internal/store"
)

type mockSource struct {
	err error
}

func (m *mockSource) Assets(_ string) (map[string]domain.Asset, error) {
	return map[string]domain.Asset{"AAPL": {UnitPrice: 1502500, Currency: "USD", Amount: 3}}, m.err
}

func (m *mockSource) Currencies(_ string) (map[string]int64, error) {
	return map[string]int64{"USD": 750000, "EUR": 250000, "PLN": -10000}, m.err
}

func (m *mockSource) Transactions(_ string) ([]domain.Transaction, error) {
	return []domain.Transaction{
		{Type: "BUY", Date: "2021-01-04", Code: "AAPL", Amount: 3, UnitPrice: 1300000, Currency: "USD"},
		{Type: "SELL", Date: "2021-03-15", Code: "AAPL", Amount: 1, UnitPrice: 1450000, Currency: "USD"},
	}, m.err
}

type captureWriter struct {
	got Workbook
	err error
}

func (c *captureWriter) Write(_ context.Context, wb Workbook) error {
	c.got = wb
	return c.err
}

func sampleWorkbook(t *testing.T) Workbook {
	t.Helper()
	v, err := display.Build("Main", &mockSource{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return BuildWorkbook(v)
}

func TestBuildWorkbook(t *testing.T) {
	wb := sampleWorkbook(t)

	if wb.Portfolio != "Main" {
		t.Errorf("Portfolio = %q, want Main", wb.Portfolio)
	}

	assets := wb.Assets.Rows
	if len(assets) != 1 {
		t.Fatalf("asset rows = %d, want 1", len(assets))
	}
	if assets[0][0] != "AAPL" || assets[0][1] != int64(3) || assets[0][2] != 150.25 || assets[0][3] != "USD" {
		t.Errorf("asset row = %v", assets[0])
	}

	if len(wb.Currencies.Rows) != 3 {
		t.Errorf("currency rows = %d, want 3", len(wb.Currencies.Rows))
	}
	if wb.Currencies.Rows[0][0] != "EUR" || wb.Currencies.Rows[0][1] != 25.0 {
		t.Errorf("currency row = %v", wb.Currencies.Rows[0])
	}

	if wb.Transactions.Rows[0][0] != "SELL" {
		t.Errorf("transactions not most recent first: %v", wb.Transactions.Rows)
	}

	if got := wb.Chart.Labels(); len(got) != 2 {
		t.Errorf("chart labels = %v, want EUR and USD", got)
	}
}

func TestTableValuesPrependsHeader(t *testing.T) {
	tbl := Table{Header: []string{"Code", "Amount"}, Rows: [][]any{{"USD", 1.5}}}
	values := tbl.values()

	if len(values) != 2 {
		t.Fatalf("values = %d rows, want 2", len(values))
	}
	if values[0][0] != "Code" || values[1][0] != "USD" {
		t.Errorf("values = %v", values)
	}
}

func TestBuildHistoryRows(t *testing.T) {
	wb := sampleWorkbook(t)
	at := time.Date(2026, 2, 24, 23, 0, 0, 0, time.FixedZone("X", -3*3600))

	header, row := buildHistoryRows(wb, at)

	if len(header) != 4 || header[0] != "Date" || header[1] != "EUR" {
		t.Errorf("header = %v", header)
	}
	if row[0] != "2026-02-25" {
		t.Errorf("date = %v, want 2026-02-25 (UTC)", row[0])
	}
	if row[3] != 75.0 {
		t.Errorf("USD balance = %v, want 75", row[3])
	}
}

func TestA1QuotesTitle(t *testing.T) {
	if got := a1(sheetTitle("Main", "Assets"), "A:Z"); got != "'Main Assets'!A:Z" {
		t.Errorf("a1() = %q", got)
	}
}

func TestXLSXWriter(t *testing.T) {
	var buf bytes.Buffer
	if err := NewXLSXWriter(&buf).Write(context.Background(), sampleWorkbook(t)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("reading workbook: %v", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	want := []string{"Assets", "Currencies", "Transactions"}
	if len(sheets) != len(want) {
		t.Fatalf("sheets = %v, want %v", sheets, want)
	}
	for i := range want {
		if sheets[i] != want[i] {
			t.Errorf("sheet %d = %q, want %q", i, sheets[i], want[i])
		}
	}

	if v, _ := f.GetCellValue("Assets", "A2"); v != "AAPL" {
		t.Errorf("Assets!A2 = %q, want AAPL", v)
	}
	if v, _ := f.GetCellValue("Assets", "C2"); v != "150.25" {
		t.Errorf("Assets!C2 = %q, want 150.25", v)
	}
	if v, _ := f.GetCellValue("Transactions", "A2"); v != "SELL" {
		t.Errorf("Transactions!A2 = %q, want SELL", v)
	}
	if v, _ := f.GetCellValue("Currencies", "D3"); v != "USD" {
		t.Errorf("Currencies!D3 = %q, want USD (chart data)", v)
	}
	if v, _ := f.GetCellValue("Currencies", "D4"); v != "" {
		t.Errorf("Currencies!D4 = %q, want empty (PLN is not positive)", v)
	}
}

func TestServiceExport(t *testing.T) {
	svc := NewService(&mockSource{})
	w := &captureWriter{}

	if err := svc.Export(context.Background(), "Main", w); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if w.got.Portfolio != "Main" || len(w.got.Assets.Rows) != 1 {
		t.Errorf("workbook = %+v", w.got)
	}
}

func TestServiceExportErrors(t *testing.T) {
	svc := NewService(&mockSource{err: fmt.Errorf("loading Main: %w", store.ErrNotFound)})
	if err := svc.Export(context.Background(), "Main", &captureWriter{}); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("Export() error = %v, want store.ErrNotFound", err)
	}

	writeErr := errors.New("disk full")
	svc = NewService(&mockSource{})
	if err := svc.Export(context.Background(), "Main", &captureWriter{err: writeErr}); !errors.Is(err, writeErr) {
		t.Errorf("Export() error = %v, want %v", err, writeErr)
	}
}

type staticNames []string

func (n staticNames) Names() []string { return n }

type failingSource struct {
	mockSource
	fail string
}

func (f *failingSource) Currencies(name string) (map[string]int64, error) {
	if name == f.fail {
		return nil, fmt.Errorf("loading %s: %w", name, store.ErrNotFound)
	}
	return f.mockSource.Currencies(name)
}

type recordingWriter struct {
	portfolios []string
}

func (r *recordingWriter) Write(_ context.Context, wb Workbook) error {
	r.portfolios = append(r.portfolios, wb.Portfolio)
	return nil
}

func TestPublisherExportsEveryPortfolio(t *testing.T) {
	src := &failingSource{fail: "Broken"}
	w := &recordingWriter{}
	p := NewPublisher(NewService(src), staticNames{"Broken", "Main", "Savings"}, w)

	err := p.Publish(context.Background())
	if !errors.Is(err, store.ErrNotFound) {
		t.Errorf("Publish() error = %v, want store.ErrNotFound", err)
	}
	if len(w.portfolios) != 2 || w.portfolios[0] != "Main" || w.portfolios[1] != "Savings" {
		t.Errorf("exported = %v, want [Main Savings]", w.portfolios)
	}
}
