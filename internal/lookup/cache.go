package lookup

import (
	"context"
	"errors"

	"github.com/akashcruz/pos-system-lkvoice/internal/domain"
)

// ErrCacheMiss is returned when the barcode has no cached snapshot.
var ErrCacheMiss = errors.New("cache miss")

// ProductCache holds short-lived product snapshots for the cart-population
// path, which tolerates stale reads. The checkout engine never reads it.
type ProductCache interface {
	Get(ctx context.Context, barcode string) (*domain.Product, error)
	Set(ctx context.Context, product *domain.Product) error
	Delete(ctx context.Context, barcodes ...string) error
}
