package cart

import (
	"errors"
	"sync"

	"github.com/akashcruz/pos-system-lkvoice/internal/domain"
)

// ErrOutOfStock rejects adding a product whose advisory stock is zero.
// The authoritative check still happens inside the checkout transaction.
var ErrOutOfStock = errors.New("product is out of stock")

// Cart aggregates scanned products into quantity-bearing line items for one
// checkout session. At most one line exists per barcode; duplicate scans
// increment quantity. Nothing here persists: the cart lives and dies with
// its session.
type Cart struct {
	mu    sync.Mutex
	lines []domain.CartLine
	index map[string]int // barcode -> position in lines
}

// New creates an empty cart.
func New() *Cart {
	return &Cart{
		index: make(map[string]int),
	}
}

// AddOrIncrement merges the product into the cart: an existing line gains
// quantity 1, otherwise a new line is inserted with a price snapshot
// captured now. Returns ErrOutOfStock when the product's advisory stock
// is not positive.
func (c *Cart) AddOrIncrement(product *domain.Product) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if i, exists := c.index[product.Barcode]; exists {
		c.lines[i].Quantity++
		return nil
	}

	if !product.InStock() {
		return ErrOutOfStock
	}

	c.index[product.Barcode] = len(c.lines)
	c.lines = append(c.lines, domain.CartLine{
		Barcode:   product.Barcode,
		Name:      product.Name,
		Quantity:  1,
		UnitPrice: product.Price,
	})
	return nil
}

// SetQuantity replaces the line's quantity. Quantities below 1 are a no-op;
// lines are only dropped through Remove. A missing barcode is also a no-op.
func (c *Cart) SetQuantity(barcode string, quantity int) {
	if quantity < 1 {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if i, exists := c.index[barcode]; exists {
		c.lines[i].Quantity = quantity
	}
}

// Remove deletes the line if present. Absent barcodes are not an error.
func (c *Cart) Remove(barcode string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	i, exists := c.index[barcode]
	if !exists {
		return
	}

	c.lines = append(c.lines[:i], c.lines[i+1:]...)
	delete(c.index, barcode)
	for barcode, pos := range c.index {
		if pos > i {
			c.index[barcode] = pos - 1
		}
	}
}

// Total recomputes the advisory cart total from the add-time price
// snapshots. Never cached.
func (c *Cart) Total() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	var total float64
	for _, line := range c.lines {
		total += line.Subtotal()
	}
	return total
}

// Len returns the number of distinct lines.
func (c *Cart) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.lines)
}

// Snapshot returns an ordered copy of the lines for handoff to checkout.
// Mutating the snapshot does not affect the live cart and vice versa.
func (c *Cart) Snapshot() []domain.CartLine {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]domain.CartLine(nil), c.lines...)
}

// Clear empties the cart, keeping the session usable for the next sale.
func (c *Cart) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lines = nil
	c.index = make(map[string]int)
}
