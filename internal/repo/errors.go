// Package repo implements storage access on top of gorm. Sentinel errors
// defined here let the service and transport layers distinguish expected
// failure modes without inspecting SQL state.
package repo

import "errors"

var (
	// ErrNotFound is returned when the requested row does not exist.
	ErrNotFound = errors.New("not found")

	// ErrConflict signals a uniqueness violation, e.g. a duplicate slug
	// or an already registered email.
	ErrConflict = errors.New("conflict")

	// ErrReferenced is returned when a delete is blocked by rows that
	// still point at the target.
	ErrReferenced = errors.New("referenced")

	// ErrInvalidState signals an illegal state change, such as cancelling
	// a shipped order or parenting a category to itself.
	ErrInvalidState = errors.New("invalid state")

	// ErrInsufficientStock aborts an order when any line exceeds the
	// live stock of its product.
	ErrInsufficientStock = errors.New("insufficient stock")

	// ErrCartEmpty is returned by order creation when the caller's cart
	// has no items.
	ErrCartEmpty = errors.New("cart is empty")

	// ErrForbidden is returned when the caller does not own the target row.
	ErrForbidden = errors.New("forbidden")
)
