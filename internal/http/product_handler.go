package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/akashcruz/pos-system-lkvoice/internal/domain"
	"github.com/akashcruz/pos-system-lkvoice/internal/store"
	"github.com/go-chi/chi/v5"
)

// ProductLookup is the read path used for scans; the handler never hits the
// catalog directly for GETs so cached snapshots can serve rapid rescans.
type ProductLookup interface {
	Lookup(ctx context.Context, barcode string) (*domain.Product, error)
	Invalidate(ctx context.Context, barcodes ...string)
}

// ProductHandler covers inventory entry and barcode lookup.
type ProductHandler struct {
	catalog store.Catalog
	lookup  ProductLookup
}

func NewProductHandler(catalog store.Catalog, lookup ProductLookup) *ProductHandler {
	return &ProductHandler{
		catalog: catalog,
		lookup:  lookup,
	}
}

type UpsertProductRequestDTO struct {
	Barcode string  `json:"barcode"`
	Name    string  `json:"name"`
	Price   float64 `json:"price"`
	Stock   int     `json:"stock"`
}

// Upsert creates the product or replaces its details. Stock is an absolute
// count, the way a stocktake records it, not a delta.
func (h *ProductHandler) Upsert(w http.ResponseWriter, r *http.Request) {
	var req UpsertProductRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	if req.Barcode == "" {
		respondError(w, http.StatusBadRequest, "invalid_barcode", "barcode must not be empty")
		return
	}
	if req.Name == "" {
		respondError(w, http.StatusBadRequest, "invalid_name", "name must not be empty")
		return
	}
	if req.Price < 0 {
		respondError(w, http.StatusBadRequest, "invalid_price", "price must not be negative")
		return
	}
	if req.Stock < 0 {
		respondError(w, http.StatusBadRequest, "invalid_stock", "stock must not be negative")
		return
	}

	product := &domain.Product{
		Barcode: req.Barcode,
		Name:    req.Name,
		Price:   req.Price,
		Stock:   req.Stock,
	}
	if err := h.catalog.UpsertProduct(r.Context(), product); err != nil {
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to save product")
		return
	}

	// The next scan must see the new details.
	h.lookup.Invalidate(r.Context(), req.Barcode)

	respondJSON(w, http.StatusOK, product)
}

// Get resolves a scanned barcode.
func (h *ProductHandler) Get(w http.ResponseWriter, r *http.Request) {
	barcode := chi.URLParam(r, "barcode")

	product, err := h.lookup.Lookup(r.Context(), barcode)
	if errors.Is(err, store.ErrProductNotFound) {
		respondError(w, http.StatusNotFound, "product_not_found", "no product with barcode "+barcode)
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to look up product")
		return
	}

	respondJSON(w, http.StatusOK, product)
}

// List returns the whole catalog, ordered by barcode.
func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	products, err := h.catalog.ListProducts(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to list products")
		return
	}

	respondJSON(w, http.StatusOK, products)
}
