package store

import "errors"

var (
	// ErrNotFound is returned when the requested row does not exist
	ErrNotFound = errors.New("not found")

	// ErrEmptyCart is returned when checkout is attempted on an empty cart
	ErrEmptyCart = errors.New("cart is empty")

	// ErrOutOfStock is returned when an order asks for more units than
	// are in stock
	ErrOutOfStock = errors.New("insufficient stock")

	// ErrInvalidQuantity is returned for non-positive item quantities
	ErrInvalidQuantity = errors.New("quantity must be positive")

	// ErrInvalidStatus is returned for unknown order status transitions
	ErrInvalidStatus = errors.New("invalid order status")
)
