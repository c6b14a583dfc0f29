package display

import (
	"errors"

	"github.com/samber/lo"

	"github.com/mtlprog/folio/internal/domain"
	"github.com/mtlprog/folio/internal/portfolio"
)

// LoadErrorMessage is shown in place of a section whose portfolio file could not be decoded.
const LoadErrorMessage = "Couldn't load file!"

// Source exposes the read-only sections of a named portfolio.
type Source interface {
	Assets(name string) (map[string]domain.Asset, error)
	Currencies(name string) (map[string]int64, error)
	Transactions(name string) ([]domain.Transaction, error)
}

// View is everything needed to present one portfolio.
type View struct {
	Name         string            `json:"name"`
	Assets       []AssetLine       `json:"assets"`
	Currencies   []CurrencyLine    `json:"currencies"`
	Chart        PieChart          `json:"chart"`
	Transactions []TransactionLine `json:"transactions"`
	Messages     []string          `json:"messages,omitempty"`
}

// Build reads the portfolio's sections from src and prepares them for display.
// A section that fails to decode is rendered empty with LoadErrorMessage;
// any other error is returned.
func Build(name string, src Source) (View, error) {
	v := View{Name: name}

	assets, err := src.Assets(name)
	if err := v.downgrade(err); err != nil {
		return View{}, err
	}
	currencies, err := src.Currencies(name)
	if err := v.downgrade(err); err != nil {
		return View{}, err
	}
	txs, err := src.Transactions(name)
	if err := v.downgrade(err); err != nil {
		return View{}, err
	}

	v.Assets = AssetLines(assets)
	v.Currencies = CurrencyLines(currencies)
	v.Chart = CurrencyChart(currencies)
	v.Transactions = TransactionLines(txs)
	v.Messages = lo.Uniq(v.Messages)
	return v, nil
}

func (v *View) downgrade(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, portfolio.ErrDecode) {
		v.Messages = append(v.Messages, LoadErrorMessage)
		return nil
	}
	return err
}
