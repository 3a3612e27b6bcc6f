package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/akashcruz/pos-system-lkvoice/internal/domain"
	"github.com/akashcruz/pos-system-lkvoice/internal/store"
	"github.com/google/uuid"
)

// Store implements store.Catalog, store.CheckoutStore and store.Ledger with
// in-memory storage. A single mutex guards both maps; versions are bumped
// under it, so CommitSale is atomic and conflicting commits observe a
// version mismatch rather than each other's intermediate state.
type Store struct {
	mu       sync.RWMutex
	products map[string]*domain.Product // barcode -> record
	sales    []*domain.Sale             // append order == commit order
}

// NewStore creates an empty in-memory store.
func NewStore() *Store {
	return &Store{
		products: make(map[string]*domain.Product),
	}
}

func (s *Store) GetProduct(_ context.Context, barcode string) (*domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, exists := s.products[barcode]
	if !exists {
		return nil, store.ErrProductNotFound
	}
	cp := *p
	return &cp, nil
}

func (s *Store) UpsertProduct(_ context.Context, product *domain.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *product
	if existing, exists := s.products[product.Barcode]; exists {
		cp.Version = existing.Version + 1
	} else {
		cp.Version = 1
	}
	cp.UpdatedAt = time.Now()
	s.products[product.Barcode] = &cp
	return nil
}

func (s *Store) ListProducts(_ context.Context) ([]*domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*domain.Product, 0, len(s.products))
	for _, p := range s.products {
		cp := *p
		result = append(result, &cp)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Barcode < result[j].Barcode
	})
	return result, nil
}

func (s *Store) CommitSale(_ context.Context, writes []store.StockWrite, sale *domain.Sale) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// First pass: every write must still match the version it was read at.
	for _, w := range writes {
		p, exists := s.products[w.Barcode]
		if !exists {
			return store.ErrProductNotFound
		}
		if p.Version != w.ExpectedVersion {
			return store.ErrVersionConflict
		}
	}

	// Second pass: apply all stock writes.
	now := time.Now()
	for _, w := range writes {
		p := s.products[w.Barcode]
		p.Stock = w.NewStock
		p.Version++
		p.UpdatedAt = now
	}

	if sale.ID == "" {
		sale.ID = uuid.New().String()
	}
	sale.CreatedAt = now

	cp := *sale
	cp.Items = append([]domain.SaleItem(nil), sale.Items...)
	s.sales = append(s.sales, &cp)
	return nil
}

func (s *Store) SalesInRange(_ context.Context, from, to time.Time) ([]*domain.Sale, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.Sale
	// Walk backwards so the result is ordered by creation time descending.
	for i := len(s.sales) - 1; i >= 0; i-- {
		sale := s.sales[i]
		if sale.CreatedAt.Before(from) || !sale.CreatedAt.Before(to) {
			continue
		}
		cp := *sale
		cp.Items = append([]domain.SaleItem(nil), sale.Items...)
		result = append(result, &cp)
	}
	return result, nil
}
