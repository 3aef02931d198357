package billing

import (
	"fmt"
	"time"

	"github.com/matst80/slask-grocery/pkg/types"
	"github.com/shopspring/decimal"
)

var (
	DefaultTaxPercent      = decimal.NewFromInt(5)
	DefaultDiscountPercent = decimal.Zero
	hundred                = decimal.NewFromInt(100)
)

type BillLine struct {
	Id       types.ItemId
	Name     string
	Quantity int
	Rate     decimal.Decimal
	Amount   decimal.Decimal
}

type Bill struct {
	Lines           []BillLine
	Subtotal        decimal.Decimal
	DiscountPercent decimal.Decimal
	DiscountAmount  decimal.Decimal
	TaxPercent      decimal.Decimal
	TaxAmount       decimal.Decimal
	Total           decimal.Decimal
	Timestamp       time.Time
}

func ValidateRates(taxPercent, discountPercent decimal.Decimal) error {
	if taxPercent.IsNegative() {
		return fmt.Errorf("%w: tax cannot be negative", types.ErrInvalidValue)
	}
	if discountPercent.IsNegative() || discountPercent.GreaterThan(hundred) {
		return fmt.Errorf("%w: discount must be between 0 and 100", types.ErrInvalidValue)
	}
	return nil
}

// Calculate prices the checked out lines. The discount is taken off the
// subtotal first and tax is applied to what remains.
func Calculate(lines []types.OrderLine, taxPercent, discountPercent decimal.Decimal, now time.Time) (*Bill, error) {
	if len(lines) == 0 {
		return nil, fmt.Errorf("%w: cart is empty", types.ErrInvalidValue)
	}
	if err := ValidateRates(taxPercent, discountPercent); err != nil {
		return nil, err
	}

	bill := &Bill{
		Lines:           make([]BillLine, 0, len(lines)),
		Subtotal:        decimal.Zero,
		DiscountPercent: discountPercent,
		TaxPercent:      taxPercent,
		Timestamp:       now,
	}
	for _, l := range lines {
		amount := l.Amount()
		bill.Subtotal = bill.Subtotal.Add(amount)
		bill.Lines = append(bill.Lines, BillLine{
			Id:       l.Id,
			Name:     l.Name,
			Quantity: l.Quantity,
			Rate:     l.Rate,
			Amount:   amount,
		})
	}
	bill.DiscountAmount = bill.Subtotal.Mul(discountPercent).Div(hundred)
	taxable := bill.Subtotal.Sub(bill.DiscountAmount)
	bill.TaxAmount = taxable.Mul(taxPercent).Div(hundred)
	bill.Total = taxable.Add(bill.TaxAmount)
	return bill, nil
}
