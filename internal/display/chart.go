package display

import (
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

// Slice is one labelled wedge of a pie chart. Value is the raw fixed-point amount.
type Slice struct {
	Label string `json:"label"`
	Value int64  `json:"value"`
}

// PieChart holds the data behind a proportion chart; rendering is left to the caller.
type PieChart struct {
	Slices []Slice `json:"slices"`
}

// CurrencyChart builds a chart of the currencies whose balance is strictly positive, ordered by code.
func CurrencyChart(currencies map[string]int64) PieChart {
	codes := lo.Filter(sortedKeys(currencies), func(code string, _ int) bool {
		return currencies[code] > 0
	})
	return PieChart{Slices: lo.Map(codes, func(code string, _ int) Slice {
		return Slice{Label: code, Value: currencies[code]}
	})}
}

// Empty reports whether the chart has nothing to draw.
func (c PieChart) Empty() bool {
	return len(c.Slices) == 0
}

// Labels returns the slice labels in order.
func (c PieChart) Labels() []string {
	return lo.Map(c.Slices, func(s Slice, _ int) string { return s.Label })
}

// Values returns the slice values in order.
func (c PieChart) Values() []int64 {
	return lo.Map(c.Slices, func(s Slice, _ int) int64 { return s.Value })
}

// Fractions returns each slice's share of the total in [0, 1].
func (c PieChart) Fractions() []decimal.Decimal {
	total := lo.Reduce(c.Slices, func(acc decimal.Decimal, s Slice, _ int) decimal.Decimal {
		return acc.Add(decimal.NewFromInt(s.Value))
	}, decimal.Zero)

	return lo.Map(c.Slices, func(s Slice, _ int) decimal.Decimal {
		if total.IsZero() {
			return decimal.Zero
		}
		return decimal.NewFromInt(s.Value).Div(total)
	})
}

// Percentages returns each slice's share formatted with one decimal place, e.g. "62.5%".
func (c PieChart) Percentages() []string {
	return lo.Map(c.Fractions(), func(f decimal.Decimal, _ int) string {
		return f.Shift(2).StringFixed(1) + "%"
	})
}
