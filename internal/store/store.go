package store

import (
	"context"
	"errors"
	"time"

	"github.com/akashcruz/pos-system-lkvoice/internal/domain"
)

// Common errors returned by the stores
var (
	ErrProductNotFound = errors.New("product not found")
	ErrVersionConflict = errors.New("product modified concurrently")
)

// Catalog is the keyed product storage. Upserts come from inventory entry,
// reads from the lookup path. Reads return a copy the caller may mutate.
type Catalog interface {
	// GetProduct returns the current record for the barcode, including its
	// version, or ErrProductNotFound.
	GetProduct(ctx context.Context, barcode string) (*domain.Product, error)

	// UpsertProduct creates or replaces the record keyed by product.Barcode,
	// bumping its version and setting UpdatedAt.
	UpsertProduct(ctx context.Context, product *domain.Product) error

	// ListProducts returns every catalog record ordered by barcode.
	ListProducts(ctx context.Context) ([]*domain.Product, error)
}

// StockWrite is one conditional stock decrement inside a checkout commit.
// The write only applies if the product's version still equals
// ExpectedVersion at commit time.
type StockWrite struct {
	Barcode         string
	NewStock        int
	ExpectedVersion int64
}

// CheckoutStore is the strongly consistent surface the checkout engine runs
// against. GetProduct here must never serve cached data.
type CheckoutStore interface {
	GetProduct(ctx context.Context, barcode string) (*domain.Product, error)

	// CommitSale applies every stock write and appends the sale as a single
	// atomic unit: either all of it is visible to subsequent reads or none.
	// If any product's version no longer matches, nothing is written and
	// ErrVersionConflict is returned. The store assigns sale.CreatedAt.
	CommitSale(ctx context.Context, writes []StockWrite, sale *domain.Sale) error
}

// Ledger is the append-only sales record. Appends happen only inside
// CommitSale; this is the read side.
type Ledger interface {
	// SalesInRange returns sales with from <= CreatedAt < to, ordered by
	// creation time descending.
	SalesInRange(ctx context.Context, from, to time.Time) ([]*domain.Sale, error)
}
