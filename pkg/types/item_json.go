package types

import (
	"bytes"
	"fmt"

	"github.com/shopspring/decimal"
)

// Price renders as a JSON number with two fractional digits.
type Price struct {
	decimal.Decimal
}

func NewPrice(d decimal.Decimal) Price {
	return Price{Decimal: d}
}

func (p Price) MarshalJSON() ([]byte, error) {
	return []byte(p.StringFixed(2)), nil
}

// UnmarshalJSON accepts both numbers and quoted numbers.
func (p *Price) UnmarshalJSON(data []byte) error {
	data = bytes.Trim(bytes.TrimSpace(data), `"`)
	if len(data) == 0 || string(data) == "null" {
		return fmt.Errorf("%w: price is required", ErrInvalidValue)
	}
	d, err := decimal.NewFromString(string(data))
	if err != nil {
		return fmt.Errorf("%w: price %q", ErrInvalidValue, data)
	}
	p.Decimal = d
	return nil
}

type ItemView struct {
	Id         ItemId `json:"id"`
	Name       string `json:"name"`
	Category   string `json:"category"`
	Price      Price  `json:"price"`
	Quantity   int    `json:"quantity"`
	Perishable bool   `json:"perishable"`
	Expiry     string `json:"expiry"`
}

func (i *Item) View() ItemView {
	return ItemView{
		Id:         i.GetId(),
		Name:       i.GetName(),
		Category:   i.GetCategory(),
		Price:      NewPrice(i.GetPrice()),
		Quantity:   i.GetQuantity(),
		Perishable: i.IsPerishable(),
		Expiry:     i.GetExpiry(),
	}
}

func Views(items []*Item) []ItemView {
	res := make([]ItemView, 0, len(items))
	for _, item := range items {
		res = append(res, item.View())
	}
	return res
}

// ToItem rebuilds the item the view describes.
func (v ItemView) ToItem() (*Item, error) {
	if v.Perishable {
		return NewPerishable(v.Id, v.Name, v.Category, v.Price.Decimal, v.Quantity, v.Expiry)
	}
	return NewNonPerishable(v.Id, v.Name, v.Category, v.Price.Decimal, v.Quantity)
}
