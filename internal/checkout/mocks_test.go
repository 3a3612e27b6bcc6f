package checkout

import (
	"context"

	"github.com/akashcruz/pos-system-lkvoice/internal/domain"
	"github.com/akashcruz/pos-system-lkvoice/internal/store"
)

// conflictingStore wraps a real store and fails the first N commits with a
// version conflict, simulating another terminal winning the race.
type conflictingStore struct {
	inner     store.CheckoutStore
	conflicts int

	commits int
}

func (c *conflictingStore) GetProduct(ctx context.Context, barcode string) (*domain.Product, error) {
	return c.inner.GetProduct(ctx, barcode)
}

func (c *conflictingStore) CommitSale(ctx context.Context, writes []store.StockWrite, sale *domain.Sale) error {
	c.commits++
	if c.commits <= c.conflicts {
		return store.ErrVersionConflict
	}
	return c.inner.CommitSale(ctx, writes, sale)
}

// failingStore returns a fixed error from either call, for the
// storage-unavailable paths.
type failingStore struct {
	getErr    error
	commitErr error
	product   *domain.Product
}

func (f *failingStore) GetProduct(_ context.Context, _ string) (*domain.Product, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	cp := *f.product
	return &cp, nil
}

func (f *failingStore) CommitSale(_ context.Context, _ []store.StockWrite, _ *domain.Sale) error {
	return f.commitErr
}
