package display

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"testing"

	"github.com/mtlprog/folio/internal/domain"
	"github.com/mtlprog/folio/internal/portfolio"
	"github.com/mtlprog/folio/internal/store"
)

type mockSource struct {
	assets        map[string]domain.Asset
	currencies    map[string]int64
	txs           []domain.Transaction
	assetsErr     error
	currenciesErr error
	txsErr        error
}

func (m *mockSource) Assets(_ string) (map[string]domain.Asset, error) {
	return m.assets, m.assetsErr
}

func (m *mockSource) Currencies(_ string) (map[string]int64, error) {
	return m.currencies, m.currenciesErr
}

func (m *mockSource) Transactions(_ string) ([]domain.Transaction, error) {
	return m.txs, m.txsErr
}

func sampleSource() *mockSource {
	return &mockSource{
		assets: map[string]domain.Asset{
			"MSFT": {UnitPrice: 2500000, Currency: "USD", Amount: 2},
			"AAPL": {UnitPrice: 1502500, Currency: "USD", Amount: 3},
		},
		currencies: map[string]int64{"USD": 750000, "EUR": 250000, "PLN": -10000, "CHF": 0},
		txs: []domain.Transaction{
			{Type: "BUY", Date: "2021-01-04", Code: "AAPL", Amount: 3, UnitPrice: 1300000, Currency: "USD"},
			{Type: "BUY", Date: "2021-02-01", Code: "MSFT", Amount: 2, UnitPrice: 2400000, Currency: "USD"},
			{Type: "SELL", Date: "2021-03-15", Code: "AAPL", Amount: 1, UnitPrice: 1450000, Currency: "USD"},
		},
	}
}

func TestAssetLines(t *testing.T) {
	lines := AssetLines(sampleSource().assets)

	got := lines[0].String()
	if got != "3 AAPL: 150.25 USD per AAPL" {
		t.Errorf("lines[0] = %q", got)
	}
	if lines[1].Ticker != "MSFT" {
		t.Errorf("lines not ordered by ticker: %v", lines)
	}
}

func TestCurrencyLines(t *testing.T) {
	lines := CurrencyLines(map[string]int64{"USD": 1234500, "EUR": -50000})

	want := []string{"EUR : -5.0", "USD : 123.45"}
	got := []string{lines[0].String(), lines[1].String()}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("CurrencyLines() = %v, want %v", got, want)
	}
}

func TestTransactionLinesMostRecentFirst(t *testing.T) {
	src := sampleSource()
	lines := TransactionLines(src.txs)

	if len(lines) != 3 {
		t.Fatalf("lines = %d, want 3", len(lines))
	}
	if got := lines[0].String(); got != "SELL,2021-03-15,AAPL,1,145.0,USD" {
		t.Errorf("lines[0] = %q", got)
	}
	if lines[2].Date != "2021-01-04" {
		t.Errorf("lines[2].Date = %q, want 2021-01-04", lines[2].Date)
	}
	if src.txs[0].Date != "2021-01-04" {
		t.Error("input slice was reordered")
	}
}

func TestCurrencyChartPositiveOnly(t *testing.T) {
	chart := CurrencyChart(sampleSource().currencies)

	if got := chart.Labels(); !reflect.DeepEqual(got, []string{"EUR", "USD"}) {
		t.Errorf("Labels() = %v, want [EUR USD]", got)
	}
	if got := chart.Values(); !reflect.DeepEqual(got, []int64{250000, 750000}) {
		t.Errorf("Values() = %v", got)
	}
	if got := chart.Percentages(); !reflect.DeepEqual(got, []string{"25.0%", "75.0%"}) {
		t.Errorf("Percentages() = %v", got)
	}
}

func TestCurrencyChartEmpty(t *testing.T) {
	chart := CurrencyChart(map[string]int64{"USD": 0, "EUR": -1})
	if !chart.Empty() {
		t.Errorf("chart = %+v, want empty", chart)
	}
	if PieSVG(chart, 300) != "" {
		t.Error("PieSVG() of empty chart should be empty")
	}
}

func TestPieSVG(t *testing.T) {
	svg := PieSVG(PieChart{Slices: []Slice{{Label: "EUR", Value: 1}, {Label: "<b>", Value: 3}}}, 300)

	if !strings.HasPrefix(svg, "<svg") || !strings.HasSuffix(svg, "</svg>") {
		t.Fatalf("not an svg document: %s", svg)
	}
	if strings.Count(svg, "<path") != 2 {
		t.Errorf("expected 2 wedges: %s", svg)
	}
	if !strings.Contains(svg, "25.0%") || !strings.Contains(svg, "75.0%") {
		t.Errorf("missing percentages: %s", svg)
	}
	if strings.Contains(svg, "<b>") || !strings.Contains(svg, "&lt;b&gt;") {
		t.Errorf("label not escaped: %s", svg)
	}
	// The first wedge starts at 12 o'clock.
	if !strings.Contains(svg, "L150.00,45.00") {
		t.Errorf("first wedge does not start at the top: %s", svg)
	}
}

func TestPieSVGSingleSlice(t *testing.T) {
	svg := PieSVG(PieChart{Slices: []Slice{{Label: "USD", Value: 10}}}, 200)
	if !strings.Contains(svg, "<circle") || strings.Contains(svg, "<path") {
		t.Errorf("single slice should render as a circle: %s", svg)
	}
	if !strings.Contains(svg, "100.0%") {
		t.Errorf("missing percentage: %s", svg)
	}
}

func TestBuild(t *testing.T) {
	v, err := Build("Main", sampleSource())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if v.Name != "Main" {
		t.Errorf("Name = %q", v.Name)
	}
	if len(v.Assets) != 2 || len(v.Currencies) != 4 || len(v.Transactions) != 3 {
		t.Errorf("sections = %d/%d/%d", len(v.Assets), len(v.Currencies), len(v.Transactions))
	}
	if len(v.Chart.Slices) != 2 {
		t.Errorf("chart slices = %d, want 2", len(v.Chart.Slices))
	}
	if len(v.Messages) != 0 {
		t.Errorf("Messages = %v, want none", v.Messages)
	}
}

func TestBuildDowngradesDecodeErrors(t *testing.T) {
	decodeErr := fmt.Errorf("%w Main: unexpected end of JSON input", portfolio.ErrDecode)
	src := &mockSource{assetsErr: decodeErr, currenciesErr: decodeErr, txsErr: decodeErr}

	v, err := Build("Main", src)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !reflect.DeepEqual(v.Messages, []string{LoadErrorMessage}) {
		t.Errorf("Messages = %v, want [%q]", v.Messages, LoadErrorMessage)
	}
	if len(v.Assets) != 0 || len(v.Currencies) != 0 || len(v.Transactions) != 0 || !v.Chart.Empty() {
		t.Errorf("expected empty sections, got %+v", v)
	}

	out, err := Markdown(v)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, LoadErrorMessage) || !strings.Contains(out, "## Assets") {
		t.Errorf("markdown = %q", out)
	}
}

func TestBuildPropagatesOtherErrors(t *testing.T) {
	src := sampleSource()
	src.currenciesErr = fmt.Errorf("loading Main: %w", store.ErrNotFound)

	if _, err := Build("Main", src); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("Build() error = %v, want store.ErrNotFound", err)
	}
}

func TestMarkdown(t *testing.T) {
	v, err := Build("Main", sampleSource())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	out, err := Markdown(v)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, want := range []string{
		"# Main",
		"## Assets",
		"3 AAPL: 150.25 USD per AAPL",
		"## Currencies",
		"PLN : -1.0",
		"### Allocation",
		"- USD: 75.0%",
		"### Transaction records",
		TransactionsHeader,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("markdown missing %q:\n%s", want, out)
		}
	}

	sell := strings.Index(out, "SELL,2021-03-15")
	buy := strings.Index(out, "BUY,2021-01-04")
	if sell < 0 || buy < 0 || sell > buy {
		t.Errorf("transactions not most recent first:\n%s", out)
	}
}

func TestHTML(t *testing.T) {
	src := sampleSource()
	src.assets["<script>alert(1)</script>"] = domain.Asset{Amount: 1, Currency: "USD"}

	v, err := Build("Main", src)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	out, err := HTML(v)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, "<h2>Assets</h2>") {
		t.Errorf("missing assets heading: %s", out)
	}
	if strings.Contains(out, "<script>") {
		t.Errorf("unsanitized output: %s", out)
	}
}

func TestFormatAmount(t *testing.T) {
	tests := []struct {
		v    int64
		want string
	}{
		{10000, "1.0"},
		{0, "0.0"},
		{-50000, "-5.0"},
		{1502500, "150.25"},
		{1, "0.0001"},
	}
	for _, tt := range tests {
		if got := formatAmount(domain.Scale(tt.v)); got != tt.want {
			t.Errorf("formatAmount(%d) = %q, want %q", tt.v, got, tt.want)
		}
	}
}

func TestEscapeMarkdown(t *testing.T) {
	tests := map[string]string{
		"USD : 1.0":                   "USD : 1.0",
		"<USD> : 1.0":                 `\<USD\> : 1.0`,
		"[x](http://evil.example)":    `\[x\](http://evil.example)`,
		"-5 X: 1.0 USD per X":         `\-5 X: 1.0 USD per X`,
		"1. : 2.0":                    `1\. : 2.0`,
		"3 AAPL: 150.25 USD per AAPL": "3 AAPL: 150.25 USD per AAPL",
	}
	for in, want := range tests {
		if got := escapeMarkdown(in); got != want {
			t.Errorf("escapeMarkdown(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestHTMLKeepsPortfolioTextLiteral(t *testing.T) {
	src := &mockSource{
		assets: map[string]domain.Asset{
			"[x](http://evil.example)": {UnitPrice: 10000, Currency: "USD", Amount: 1},
		},
		currencies: map[string]int64{"<USD>": 10000, "*EUR*": 20000},
	}

	v, err := Build("Main", src)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	out, err := HTML(v)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, want := range []string{"&lt;USD&gt; : 1.0", "*EUR* : 2.0", "[x](http://evil.example)"} {
		if !strings.Contains(out, want) {
			t.Errorf("HTML missing literal %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "<a ") || strings.Contains(out, "<em>") {
		t.Errorf("portfolio text interpreted as markdown:\n%s", out)
	}
}
