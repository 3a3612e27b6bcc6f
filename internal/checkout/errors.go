package checkout

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyCart rejects a checkout with no lines before any storage access.
	ErrEmptyCart = errors.New("cart is empty, nothing to checkout")

	// ErrTransactionConflict is surfaced when the bounded retry budget is
	// exhausted by persistent concurrent contention. The caller may re-attempt
	// the whole checkout.
	ErrTransactionConflict = errors.New("checkout aborted after repeated concurrent stock conflicts")
)

// InvalidQuantityError rejects a malformed cart line before any storage access.
type InvalidQuantityError struct {
	Barcode  string
	Quantity int
}

func (e *InvalidQuantityError) Error() string {
	return fmt.Sprintf("invalid quantity %d for product %s", e.Quantity, e.Barcode)
}

// ProductNotFoundError means a cart barcode had no catalog entry at
// transaction time. The whole checkout aborts with no partial effect.
type ProductNotFoundError struct {
	Barcode string
}

func (e *ProductNotFoundError) Error() string {
	return fmt.Sprintf("product %s does not exist", e.Barcode)
}

// InsufficientStockError carries enough detail for a precise user message.
type InsufficientStockError struct {
	Barcode   string
	Name      string
	Available int
	Requested int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("not enough stock for %s: %d available, %d requested", e.Name, e.Available, e.Requested)
}
