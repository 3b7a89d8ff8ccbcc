package errors

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrInvalidCard       = errors.New("invalid card data")
	ErrInvalidOrderState = errors.New("order not payable in its current state")
	ErrUnsupportedMethod = errors.New("unsupported payment method")
	ErrStepOrder         = errors.New("previous authentication step not completed")
	ErrAttemptMissing    = errors.New("no payment attempt recorded for order")
	ErrProtocolViolation = errors.New("gateway response violates authentication contract")
	ErrVoidFailed        = errors.New("void of the original transaction failed")
	ErrEmptyOrder        = errors.New("order must contain at least one item")
)

// OutOfStockError names the product and the shortfall that prevented an
// order from being created.
type OutOfStockError struct {
	ProductName string
	Requested   int32
	Available   int32
}

func (e OutOfStockError) Error() string {
	return fmt.Sprintf("out of stock: %s (requested %d, available %d)", e.ProductName, e.Requested, e.Available)
}
