package checkout

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/akashcruz/pos-system-lkvoice/internal/domain"
	"github.com/akashcruz/pos-system-lkvoice/internal/metrics"
	"github.com/akashcruz/pos-system-lkvoice/internal/store"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DefaultMaxAttempts bounds the optimistic retry loop. Contention on a small
// product set resolves in one or two retries; anything beyond this is
// persistent contention and surfaces as ErrTransactionConflict.
const DefaultMaxAttempts = 5

// Engine turns a finalized cart into a committed Sale plus stock decrements,
// all-or-nothing. Stock is re-read from the store on every attempt; the
// cart's price and stock snapshots are never trusted for the decision.
type Engine struct {
	store       store.CheckoutStore
	maxAttempts int
	log         *zap.Logger
	metrics     *metrics.CheckoutMetrics
}

// Option configures an Engine.
type Option func(*Engine)

// WithMaxAttempts overrides the retry bound. Values below 1 are ignored.
func WithMaxAttempts(n int) Option {
	return func(e *Engine) {
		if n >= 1 {
			e.maxAttempts = n
		}
	}
}

// WithMetrics attaches checkout metrics.
func WithMetrics(m *metrics.CheckoutMetrics) Option {
	return func(e *Engine) {
		e.metrics = m
	}
}

// NewEngine creates a checkout engine over the given store.
func NewEngine(checkoutStore store.CheckoutStore, log *zap.Logger, opts ...Option) *Engine {
	if log == nil {
		log = zap.NewNop()
	}
	e := &Engine{
		store:       checkoutStore,
		maxAttempts: DefaultMaxAttempts,
		log:         log,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Checkout runs the atomic unit of work for the given cart lines. It returns
// the committed Sale, or an error with no partial effect on the catalog or
// ledger. Once invoked it runs to a terminal outcome; conflict retries are
// internal and invisible to the caller except as latency.
func (e *Engine) Checkout(ctx context.Context, lines []domain.CartLine) (*domain.Sale, error) {
	if len(lines) == 0 {
		e.observe("empty_cart", 0)
		return nil, ErrEmptyCart
	}
	for _, line := range lines {
		if line.Quantity < 1 {
			e.observe("invalid_quantity", 0)
			return nil, &InvalidQuantityError{Barcode: line.Barcode, Quantity: line.Quantity}
		}
	}

	started := time.Now()
	for attempt := 1; attempt <= e.maxAttempts; attempt++ {
		sale, err := e.attempt(ctx, lines)
		if errors.Is(err, store.ErrVersionConflict) {
			e.log.Info("checkout commit conflicted, retrying",
				zap.Int("attempt", attempt),
				zap.Int("lines", len(lines)))
			if e.metrics != nil {
				e.metrics.Conflicts.Inc()
			}
			continue
		}
		if err != nil {
			e.observe(resultLabel(err), time.Since(started))
			return nil, err
		}
		e.observe("committed", time.Since(started))
		return sale, nil
	}

	e.observe("conflict", time.Since(started))
	return nil, ErrTransactionConflict
}

// attempt performs one check-all-then-write-all pass. Every product is read
// fresh; no write happens until every line has passed the stock check.
func (e *Engine) attempt(ctx context.Context, lines []domain.CartLine) (*domain.Sale, error) {
	writes := make([]store.StockWrite, 0, len(lines))
	items := make([]domain.SaleItem, 0, len(lines))
	var total float64

	for _, line := range lines {
		product, err := e.store.GetProduct(ctx, line.Barcode)
		if errors.Is(err, store.ErrProductNotFound) {
			return nil, &ProductNotFoundError{Barcode: line.Barcode}
		}
		if err != nil {
			return nil, fmt.Errorf("read product %s: %w", line.Barcode, err)
		}

		newStock := product.Stock - line.Quantity
		if newStock < 0 {
			return nil, &InsufficientStockError{
				Barcode:   product.Barcode,
				Name:      product.Name,
				Available: product.Stock,
				Requested: line.Quantity,
			}
		}

		writes = append(writes, store.StockWrite{
			Barcode:         product.Barcode,
			NewStock:        newStock,
			ExpectedVersion: product.Version,
		})

		// Price from the fresh read, not the cart-time snapshot.
		subtotal := product.Price * float64(line.Quantity)
		items = append(items, domain.SaleItem{
			Barcode:   product.Barcode,
			Name:      product.Name,
			UnitPrice: product.Price,
			Quantity:  line.Quantity,
			Subtotal:  subtotal,
		})
		total += subtotal
	}

	sale := &domain.Sale{
		ID:          uuid.New().String(),
		Items:       items,
		TotalAmount: total,
	}
	if err := e.store.CommitSale(ctx, writes, sale); err != nil {
		if errors.Is(err, store.ErrVersionConflict) || errors.Is(err, store.ErrProductNotFound) {
			// A product vanishing between read and commit is a concurrent
			// modification too; re-running the reads classifies it properly.
			return nil, store.ErrVersionConflict
		}
		return nil, fmt.Errorf("commit sale: %w", err)
	}
	return sale, nil
}

func (e *Engine) observe(result string, elapsed time.Duration) {
	if e.metrics == nil {
		return
	}
	e.metrics.Checkouts.WithLabelValues(result).Inc()
	if elapsed > 0 {
		e.metrics.Duration.Observe(elapsed.Seconds())
	}
}

func resultLabel(err error) string {
	var notFound *ProductNotFoundError
	var insufficient *InsufficientStockError
	switch {
	case errors.As(err, &notFound):
		return "product_not_found"
	case errors.As(err, &insufficient):
		return "insufficient_stock"
	default:
		return "storage_error"
	}
}
