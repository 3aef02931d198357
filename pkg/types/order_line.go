package types

import "github.com/shopspring/decimal"

// OrderLine is one cart row of a bill. Name and Rate are filled in by the
// store at checkout time.
type OrderLine struct {
	Id       ItemId          `json:"id"`
	Name     string          `json:"name"`
	Quantity int             `json:"quantity"`
	Rate     decimal.Decimal `json:"rate"`
}

func (l OrderLine) Amount() decimal.Decimal {
	return l.Rate.Mul(decimal.NewFromInt(int64(l.Quantity)))
}
