package types

import "errors"

var (
	// ErrInvalidValue is returned for negative prices, quantities or deltas and for incomplete items.
	ErrInvalidValue = errors.New("invalid value")
	// ErrInsufficientStock is returned when a decrease exceeds the available quantity.
	ErrInsufficientStock = errors.New("insufficient stock")
	// ErrNotFound is returned when an id does not exist in the store.
	ErrNotFound = errors.New("item not found")
)
