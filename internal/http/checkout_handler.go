package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/akashcruz/pos-system-lkvoice/internal/cart"
	"github.com/akashcruz/pos-system-lkvoice/internal/checkout"
	"github.com/akashcruz/pos-system-lkvoice/internal/domain"
	"github.com/akashcruz/pos-system-lkvoice/internal/events"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// publishTimeout bounds the fire-and-forget event publish after a commit.
const publishTimeout = 5 * time.Second

// CheckoutEngine is the atomic commit path behind the checkout endpoint.
type CheckoutEngine interface {
	Checkout(ctx context.Context, lines []domain.CartLine) (*domain.Sale, error)
}

// CheckoutHandler finalizes a cart session into a committed sale.
type CheckoutHandler struct {
	sessions  *cart.Manager
	engine    CheckoutEngine
	lookup    ProductLookup
	publisher events.Publisher
	log       *zap.Logger
}

func NewCheckoutHandler(sessions *cart.Manager, engine CheckoutEngine, lookup ProductLookup, publisher events.Publisher, log *zap.Logger) *CheckoutHandler {
	if log == nil {
		log = zap.NewNop()
	}
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &CheckoutHandler{
		sessions:  sessions,
		engine:    engine,
		lookup:    lookup,
		publisher: publisher,
		log:       log,
	}
}

// Checkout commits the session's cart. On success the cart is emptied, the
// session stays open for the next customer and the sale is returned. On any
// failure the cart is left untouched so the cashier can correct and retry.
func (h *CheckoutHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "session_id")
	c, err := h.sessions.Get(sessionID)
	if err != nil {
		respondError(w, http.StatusNotFound, "session_not_found", "unknown or expired cart session")
		return
	}

	lines := c.Snapshot()
	sale, err := h.engine.Checkout(r.Context(), lines)
	if err != nil {
		h.respondCheckoutError(w, r, err)
		return
	}

	c.Clear()

	barcodes := make([]string, 0, len(sale.Items))
	for _, item := range sale.Items {
		barcodes = append(barcodes, item.Barcode)
	}
	h.lookup.Invalidate(r.Context(), barcodes...)

	// Best-effort: the sale is already durable, a publish failure only
	// delays downstream consumers.
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
		defer cancel()
		if err := h.publisher.PublishSaleCompleted(ctx, sale); err != nil {
			h.log.Warn("sale event publish failed", zap.String("sale_id", sale.ID), zap.Error(err))
		}
	}()

	h.log.Info("sale committed",
		zap.String("sale_id", sale.ID),
		zap.String("request_id", getRequestID(r.Context())),
		zap.Int("items", len(sale.Items)),
		zap.Float64("total", sale.TotalAmount))

	respondJSON(w, http.StatusCreated, sale)
}

func (h *CheckoutHandler) respondCheckoutError(w http.ResponseWriter, r *http.Request, err error) {
	var invalidQty *checkout.InvalidQuantityError
	var notFound *checkout.ProductNotFoundError
	var insufficient *checkout.InsufficientStockError

	switch {
	case errors.Is(err, checkout.ErrEmptyCart):
		respondError(w, http.StatusBadRequest, "empty_cart", "cart has no items to check out")
	case errors.As(err, &invalidQty):
		respondError(w, http.StatusBadRequest, "invalid_quantity", invalidQty.Error())
	case errors.As(err, &notFound):
		respondError(w, http.StatusNotFound, "product_not_found", notFound.Error())
	case errors.As(err, &insufficient):
		respondJSON(w, http.StatusConflict, ErrorResponse{
			Error: insufficient.Error(),
			Code:  "insufficient_stock",
			Details: fmt.Sprintf("barcode=%s available=%d requested=%d",
				insufficient.Barcode, insufficient.Available, insufficient.Requested),
		})
	case errors.Is(err, checkout.ErrTransactionConflict):
		respondError(w, http.StatusConflict, "checkout_conflict", "stock changed during checkout, please retry")
	default:
		h.log.Error("checkout failed",
			zap.String("request_id", getRequestID(r.Context())),
			zap.Error(err))
		respondError(w, http.StatusInternalServerError, "internal_error", "checkout failed")
	}
}
