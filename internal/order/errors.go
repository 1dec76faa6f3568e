package order

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyOrder is returned before any store call when the request
	// carries no lines.
	ErrEmptyOrder = errors.New("order has no items")

	// ErrInvalidQuantity is returned before any store call when a line
	// quantity is not a positive integer.
	ErrInvalidQuantity = errors.New("quantity must be positive")

	// ErrCustomerNotFound is returned when the customer id does not
	// resolve. No side effects have occurred.
	ErrCustomerNotFound = errors.New("customer not found")
)

// ProductNotFoundError is returned when a requested product id is absent
// from the catalog. No side effects have occurred.
type ProductNotFoundError struct {
	ProductID string
}

func (e *ProductNotFoundError) Error() string {
	return fmt.Sprintf("product %s not found", e.ProductID)
}

// InsufficientStockError is returned when a line requests more than the
// remaining availability, accounting for earlier lines of the same
// product in the same request. No side effects have occurred.
type InsufficientStockError struct {
	ProductID string
	Requested int
	Available int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for product %s: requested %d, available %d",
		e.ProductID, e.Requested, e.Available)
}

// PersistenceError reports a store failure after stock was already
// reserved. Compensated tells the caller whether the reservation was
// rolled back; when false the stores are inconsistent and the condition
// has been logged for reconciliation.
type PersistenceError struct {
	Compensated bool
	Err         error
}

func (e *PersistenceError) Error() string {
	if e.Compensated {
		return fmt.Sprintf("order persistence failed (stock released): %v", e.Err)
	}
	return fmt.Sprintf("order persistence failed (stock NOT released): %v", e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }
