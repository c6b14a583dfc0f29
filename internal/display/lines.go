package display

import (
	"fmt"
	"slices"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"github.com/mtlprog/folio/internal/domain"
)

// TransactionsHeader is the column legend printed above transaction lines.
const TransactionsHeader = "Type, Date, Ticker, amount, unit price, currency"

// AssetLine is one held ticker with its scaled unit price.
type AssetLine struct {
	Ticker    string          `json:"ticker"`
	Amount    int64           `json:"amount"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
	Currency  string          `json:"currency"`
}

func (l AssetLine) String() string {
	return fmt.Sprintf("%d %s: %s %s per %s", l.Amount, l.Ticker, formatAmount(l.UnitPrice), l.Currency, l.Ticker)
}

// CurrencyLine is one currency balance, scaled.
type CurrencyLine struct {
	Code   string          `json:"code"`
	Amount decimal.Decimal `json:"amount"`
}

func (l CurrencyLine) String() string {
	return fmt.Sprintf("%s : %s", l.Code, formatAmount(l.Amount))
}

// TransactionLine is one transaction with its scaled unit price.
type TransactionLine struct {
	Type      string          `json:"type"`
	Date      string          `json:"date"`
	Code      string          `json:"code"`
	Amount    int64           `json:"amount"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
	Currency  string          `json:"currency"`
}

func (l TransactionLine) String() string {
	return fmt.Sprintf("%s,%s,%s,%d,%s,%s", l.Type, l.Date, l.Code, l.Amount, formatAmount(l.UnitPrice), l.Currency)
}

// AssetLines returns one line per asset, ordered by ticker.
func AssetLines(assets map[string]domain.Asset) []AssetLine {
	return lo.Map(sortedKeys(assets), func(ticker string, _ int) AssetLine {
		a := assets[ticker]
		return AssetLine{
			Ticker:    ticker,
			Amount:    a.Amount,
			UnitPrice: domain.Scale(a.UnitPrice),
			Currency:  a.Currency,
		}
	})
}

// CurrencyLines returns one line per currency, ordered by code.
func CurrencyLines(currencies map[string]int64) []CurrencyLine {
	return lo.Map(sortedKeys(currencies), func(code string, _ int) CurrencyLine {
		return CurrencyLine{Code: code, Amount: domain.Scale(currencies[code])}
	})
}

// TransactionLines returns the transactions most recent first.
// The input is expected in chronological order and is not modified.
func TransactionLines(txs []domain.Transaction) []TransactionLine {
	lines := lo.Map(txs, func(t domain.Transaction, _ int) TransactionLine {
		return TransactionLine{
			Type:      t.Type,
			Date:      t.Date,
			Code:      t.Code,
			Amount:    t.Amount,
			UnitPrice: domain.Scale(t.UnitPrice),
			Currency:  t.Currency,
		}
	})
	slices.Reverse(lines)
	return lines
}

func sortedKeys[V any](m map[string]V) []string {
	keys := lo.Keys(m)
	slices.Sort(keys)
	return keys
}

// formatAmount prints whole amounts with one decimal place ("75.0") and
// fractional ones without trailing zeros ("150.25").
func formatAmount(d decimal.Decimal) string {
	if d.Equal(d.Truncate(0)) {
		return d.StringFixed(1)
	}
	return d.String()
}
