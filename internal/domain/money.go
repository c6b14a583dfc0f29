package domain

import "github.com/shopspring/decimal"

// MaxDecimal is the number of decimal places carried by fixed-point monetary integers.
// A stored value v represents v / 10^MaxDecimal.
const MaxDecimal = 4

// Scale converts a fixed-point integer into its decimal value.
func Scale(v int64) decimal.Decimal {
	return decimal.New(v, -MaxDecimal)
}
