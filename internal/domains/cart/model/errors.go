package model

import (
	"errors"
	"fmt"
)

// Validation errors: raised before any network call, nothing is mutated.
var (
	ErrInvalidQuantity   = errors.New("quantity must be a positive integer")
	ErrInsufficientStock = errors.New("not enough stock for the requested quantity")
	ErrItemNotFound      = errors.New("item not found")
	ErrItemNotSynced     = errors.New("item is still being added to the cart")
	ErrInvalidProduct    = errors.New("product id must be positive")
	ErrProductNotFound   = errors.New("product not found")
)

// Generic user-facing messages used when the server gives none
const (
	MsgAddFailed      = "Could not add the product to the cart"
	MsgRemoveFailed   = "Could not remove the product from the cart"
	MsgQuantityFailed = "Could not update the quantity"
	MsgCheckoutFailed = "Checkout is not available right now, please try again"
)

// OperationError is returned when the remote call of a cart operation fails.
// The cache has already been rolled back when the caller sees it.
type OperationError struct {
	Op        string
	Message   string // user-facing text
	Retryable bool
	Err       error
}

func (e *OperationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Op, e.Message)
}

func (e *OperationError) Unwrap() error {
	return e.Err
}

// IsValidation reports whether err was raised before any network call
func IsValidation(err error) bool {
	return errors.Is(err, ErrInvalidQuantity) ||
		errors.Is(err, ErrInsufficientStock) ||
		errors.Is(err, ErrItemNotFound) ||
		errors.Is(err, ErrItemNotSynced) ||
		errors.Is(err, ErrInvalidProduct) ||
		errors.Is(err, ErrProductNotFound)
}
