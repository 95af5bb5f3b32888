package services

import (
	"errors"
	"fmt"
)

// Validation failures are recoverable: the operator corrects the input and
// retries. Storage failures are wrapped with %w and surfaced for logging.
var (
	ErrInvalidSale      = errors.New("sale needs at least one line with a positive quantity")
	ErrCustomerNotFound = errors.New("customer not found")
	ErrProductNotFound  = errors.New("product not found")
)

// OutOfStockError names the product so the operator can adjust the quantity.
// Available is the stock observed at validation time; a concurrent sale may
// have consumed more by the time the caller reads it.
type OutOfStockError struct {
	ProductName string
	Requested   int
	Available   int
}

func (e *OutOfStockError) Error() string {
	return fmt.Sprintf("insufficient stock for %q: requested %d, available %d", e.ProductName, e.Requested, e.Available)
}

// InsufficientPaymentError reports the shortfall between tendered amount and total.
type InsufficientPaymentError struct {
	Total   int64
	Payment int64
}

func (e *InsufficientPaymentError) Error() string {
	return fmt.Sprintf("payment %d does not cover total %d", e.Payment, e.Total)
}
