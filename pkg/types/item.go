package types

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type ItemId uint32

// Kind is the perishability capability of an item, fixed when the item is created.
type Kind uint8

const (
	NonPerishable Kind = iota
	Perishable
)

const ExpiryLayout = "2006-01-02"

func (k Kind) String() string {
	switch k {
	case Perishable:
		return "perishable"
	default:
		return "non-perishable"
	}
}

// Item is a single catalog entry. Fields are only reachable through the
// accessors and setters so price and quantity can never go negative.
type Item struct {
	id       ItemId
	name     string
	category string
	price    decimal.Decimal
	quantity int
	kind     Kind
	expiry   string
}

func NewNonPerishable(id ItemId, name, category string, price decimal.Decimal, quantity int) (*Item, error) {
	item := &Item{
		id:       id,
		name:     name,
		category: category,
		price:    price,
		quantity: quantity,
		kind:     NonPerishable,
	}
	if err := item.validate(); err != nil {
		return nil, err
	}
	return item, nil
}

// NewPerishable fails with ErrInvalidValue when expiry is blank or any other field is invalid.
func NewPerishable(id ItemId, name, category string, price decimal.Decimal, quantity int, expiry string) (*Item, error) {
	if strings.TrimSpace(expiry) == "" {
		return nil, fmt.Errorf("%w: perishable item %q requires an expiry date", ErrInvalidValue, name)
	}
	item := &Item{
		id:       id,
		name:     name,
		category: category,
		price:    price,
		quantity: quantity,
		kind:     Perishable,
		expiry:   expiry,
	}
	if err := item.validate(); err != nil {
		return nil, err
	}
	return item, nil
}

func (i *Item) validate() error {
	if err := validateName(i.name); err != nil {
		return err
	}
	if err := validatePrice(i.price); err != nil {
		return err
	}
	return validateQuantity(i.quantity)
}

func validateName(name string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidValue)
	}
	return nil
}

func validatePrice(price decimal.Decimal) error {
	if price.IsNegative() {
		return fmt.Errorf("%w: price cannot be negative", ErrInvalidValue)
	}
	return nil
}

func validateQuantity(quantity int) error {
	if quantity < 0 {
		return fmt.Errorf("%w: quantity cannot be negative", ErrInvalidValue)
	}
	return nil
}

func (i *Item) GetId() ItemId {
	return i.id
}

func (i *Item) GetName() string {
	return i.name
}

func (i *Item) GetCategory() string {
	return i.category
}

func (i *Item) GetPrice() decimal.Decimal {
	return i.price
}

func (i *Item) GetQuantity() int {
	return i.quantity
}

func (i *Item) Kind() Kind {
	return i.kind
}

func (i *Item) IsPerishable() bool {
	return i.kind == Perishable
}

// GetExpiry returns the expiry text, always empty for non-perishable items.
func (i *Item) GetExpiry() string {
	switch i.kind {
	case Perishable:
		return i.expiry
	default:
		return ""
	}
}

// ExpiryDate parses the expiry as a calendar date. Items without a
// parseable expiry report false.
func (i *Item) ExpiryDate() (time.Time, bool) {
	if i.kind != Perishable {
		return time.Time{}, false
	}
	t, err := time.Parse(ExpiryLayout, strings.TrimSpace(i.expiry))
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

func (i *Item) SetName(name string) error {
	if err := validateName(name); err != nil {
		return err
	}
	i.name = name
	return nil
}

func (i *Item) SetCategory(category string) {
	i.category = category
}

func (i *Item) SetPrice(price decimal.Decimal) error {
	if err := validatePrice(price); err != nil {
		return err
	}
	i.price = price
	return nil
}

func (i *Item) SetQuantity(quantity int) error {
	if err := validateQuantity(quantity); err != nil {
		return err
	}
	i.quantity = quantity
	return nil
}

func (i *Item) IncreaseQuantity(n int) error {
	if n < 0 {
		return fmt.Errorf("%w: cannot add negative quantity", ErrInvalidValue)
	}
	if n > math.MaxInt-i.quantity {
		return fmt.Errorf("%w: adding %d to %s overflows the quantity", ErrInvalidValue, n, i.name)
	}
	i.quantity += n
	return nil
}

// DecreaseQuantity fails with ErrInvalidValue for negative n and with
// ErrInsufficientStock when n exceeds the quantity. The item is unchanged on error.
func (i *Item) DecreaseQuantity(n int) error {
	if n < 0 {
		return fmt.Errorf("%w: cannot subtract negative quantity", ErrInvalidValue)
	}
	if n > i.quantity {
		return fmt.Errorf("%w for %s: requested %d, available %d", ErrInsufficientStock, i.name, n, i.quantity)
	}
	i.quantity -= n
	return nil
}

// Clone returns an independent copy that keeps the kind and expiry.
func (i *Item) Clone() *Item {
	c := *i
	return &c
}

// WithId returns a clone carrying a new identifier.
func (i *Item) WithId(id ItemId) *Item {
	c := i.Clone()
	c.id = id
	return c
}

// ItemUpdate holds the mutable fields of an item, nil fields are left untouched.
type ItemUpdate struct {
	Name     *string
	Category *string
	Price    *decimal.Decimal
	Quantity *int
}

func (u ItemUpdate) IsEmpty() bool {
	return u.Name == nil && u.Category == nil && u.Price == nil && u.Quantity == nil
}

// ApplyUpdate validates every supplied field before touching the item.
func (i *Item) ApplyUpdate(u ItemUpdate) error {
	if u.Name != nil {
		if err := validateName(*u.Name); err != nil {
			return err
		}
	}
	if u.Price != nil {
		if err := validatePrice(*u.Price); err != nil {
			return err
		}
	}
	if u.Quantity != nil {
		if err := validateQuantity(*u.Quantity); err != nil {
			return err
		}
	}
	if u.Name != nil {
		i.name = *u.Name
	}
	if u.Category != nil {
		i.category = *u.Category
	}
	if u.Price != nil {
		i.price = *u.Price
	}
	if u.Quantity != nil {
		i.quantity = *u.Quantity
	}
	return nil
}

func (i *Item) String() string {
	if i.kind == Perishable {
		return fmt.Sprintf("#%d %s (%s) %s x%d exp %s", i.id, i.name, i.category, i.price.StringFixed(2), i.quantity, i.expiry)
	}
	return fmt.Sprintf("#%d %s (%s) %s x%d", i.id, i.name, i.category, i.price.StringFixed(2), i.quantity)
}
