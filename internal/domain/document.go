package domain

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrMissingKey indicates that a portfolio document lacks one of its required top-level keys.
var ErrMissingKey = errors.New("missing required key")

// Top-level keys of a portfolio document, in canonical order.
const (
	KeyAssets       = "assets"
	KeyTransactions = "transactions"
	KeyCurrencies   = "currencies"
	KeyCategories   = "categories"
)

var requiredKeys = []string{KeyAssets, KeyTransactions, KeyCurrencies, KeyCategories}

// Asset is a holding of a single ticker. UnitPrice is fixed-point (see MaxDecimal).
type Asset struct {
	UnitPrice int64  `json:"unit_price"`
	Currency  string `json:"currency"`
	Amount    int64  `json:"amount"`
}

// Transaction is a single recorded operation. UnitPrice is fixed-point (see MaxDecimal).
type Transaction struct {
	Type      string `json:"type"`
	Date      string `json:"date"`
	Code      string `json:"code"`
	Amount    int64  `json:"amount"`
	UnitPrice int64  `json:"unit_price"`
	Currency  string `json:"currency"`
}

// Document is the on-disk portfolio: assets by ticker, transactions in chronological order,
// fixed-point currency balances by code, and free-form categories.
type Document struct {
	Assets       map[string]Asset `json:"assets"`
	Transactions []Transaction    `json:"transactions"`
	Currencies   map[string]int64 `json:"currencies"`
	Categories   json.RawMessage  `json:"categories"`
}

// EmptyDocument returns the canonical empty portfolio.
func EmptyDocument() Document {
	return Document{
		Assets:       map[string]Asset{},
		Transactions: []Transaction{},
		Currencies:   map[string]int64{},
		Categories:   json.RawMessage(`{}`),
	}
}

// Decode parses and validates a portfolio document.
// All four top-level keys must be present and non-null.
func Decode(data []byte) (Document, error) {
	var keys map[string]json.RawMessage
	if err := json.Unmarshal(data, &keys); err != nil {
		return Document{}, err
	}
	for _, k := range requiredKeys {
		raw, ok := keys[k]
		if !ok || string(raw) == "null" {
			return Document{}, fmt.Errorf("%w: %q", ErrMissingKey, k)
		}
	}

	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return Document{}, err
	}
	return doc, nil
}
