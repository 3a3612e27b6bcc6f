package lookup

import (
	"context"
	"errors"
	"time"

	"github.com/akashcruz/pos-system-lkvoice/internal/domain"
	"github.com/akashcruz/pos-system-lkvoice/internal/store"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// Service resolves a barcode to a current product snapshot. This is the
// cart-population read path: cache-first, stale-tolerant. The checkout
// engine re-reads the catalog itself and never goes through here.
type Service struct {
	catalog store.Catalog
	cache   ProductCache // may be nil when no cache is configured
	sfg     singleflight.Group
	log     *zap.Logger
}

// NewService creates a lookup service. cache may be nil.
func NewService(catalog store.Catalog, cache ProductCache, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		catalog: catalog,
		cache:   cache,
		log:     log,
	}
}

// Lookup returns the product for the barcode or store.ErrProductNotFound.
// Concurrent misses for the same barcode collapse into one catalog read.
func (s *Service) Lookup(ctx context.Context, barcode string) (*domain.Product, error) {
	v, err, _ := s.sfg.Do(barcode, func() (interface{}, error) {
		if s.cache != nil {
			product, cacheErr := s.cache.Get(ctx, barcode)
			if cacheErr == nil {
				return product, nil
			}
			if !errors.Is(cacheErr, ErrCacheMiss) {
				// Degrade to the catalog; a broken cache must not block scans.
				s.log.Warn("product cache get failed", zap.String("barcode", barcode), zap.Error(cacheErr))
			}
		}

		product, err := s.catalog.GetProduct(ctx, barcode)
		if err != nil {
			return nil, err
		}

		if s.cache != nil {
			go func() {
				cacheCtx, cancel := context.WithTimeout(context.Background(), time.Second)
				defer cancel()
				if setErr := s.cache.Set(cacheCtx, product); setErr != nil {
					s.log.Warn("product cache set failed", zap.String("barcode", barcode), zap.Error(setErr))
				}
			}()
		}

		return product, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*domain.Product), nil
}

// Invalidate drops cached snapshots, called after inventory upserts and
// committed checkouts so the next scan sees fresh stock.
func (s *Service) Invalidate(ctx context.Context, barcodes ...string) {
	if s.cache == nil || len(barcodes) == 0 {
		return
	}
	if err := s.cache.Delete(ctx, barcodes...); err != nil {
		s.log.Warn("product cache invalidate failed", zap.Error(err))
	}
}
