package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/akashcruz/pos-system-lkvoice/internal/cart"
	"github.com/akashcruz/pos-system-lkvoice/internal/domain"
	"github.com/akashcruz/pos-system-lkvoice/internal/store"
	"github.com/go-chi/chi/v5"
)

// CartHandler exposes the per-terminal cart sessions. Carts live in memory
// only; an expired or lost session costs the cashier a rescan, nothing more.
type CartHandler struct {
	sessions *cart.Manager
	lookup   ProductLookup
}

func NewCartHandler(sessions *cart.Manager, lookup ProductLookup) *CartHandler {
	return &CartHandler{
		sessions: sessions,
		lookup:   lookup,
	}
}

type AddItemRequestDTO struct {
	Barcode string `json:"barcode"`
}

type UpdateQuantityRequestDTO struct {
	Quantity int `json:"quantity"`
}

type CartResponseDTO struct {
	SessionID string            `json:"session_id"`
	Lines     []domain.CartLine `json:"lines"`
	Total     float64           `json:"total"`
}

func cartResponse(sessionID string, c *cart.Cart) CartResponseDTO {
	return CartResponseDTO{
		SessionID: sessionID,
		Lines:     c.Snapshot(),
		Total:     c.Total(),
	}
}

// CreateSession opens an empty cart for a terminal.
func (h *CartHandler) CreateSession(w http.ResponseWriter, r *http.Request) {
	id, c := h.sessions.Create()
	respondJSON(w, http.StatusCreated, cartResponse(id, c))
}

// GetCart returns the session's current lines and advisory total.
func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "session_id")
	c, err := h.sessions.Get(sessionID)
	if err != nil {
		respondError(w, http.StatusNotFound, "session_not_found", "unknown or expired cart session")
		return
	}

	respondJSON(w, http.StatusOK, cartResponse(sessionID, c))
}

// AddItem resolves the scanned barcode and merges it into the cart. A
// duplicate scan bumps the existing line's quantity instead of adding a row.
func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "session_id")
	c, err := h.sessions.Get(sessionID)
	if err != nil {
		respondError(w, http.StatusNotFound, "session_not_found", "unknown or expired cart session")
		return
	}

	var req AddItemRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if req.Barcode == "" {
		respondError(w, http.StatusBadRequest, "invalid_barcode", "barcode must not be empty")
		return
	}

	product, err := h.lookup.Lookup(r.Context(), req.Barcode)
	if errors.Is(err, store.ErrProductNotFound) {
		respondError(w, http.StatusNotFound, "product_not_found", "no product with barcode "+req.Barcode)
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to look up product")
		return
	}

	if err := c.AddOrIncrement(product); err != nil {
		respondError(w, http.StatusConflict, "out_of_stock", product.Name+" is out of stock")
		return
	}

	respondJSON(w, http.StatusCreated, cartResponse(sessionID, c))
}

// UpdateQuantity sets a line's quantity directly, for keyed-in corrections.
func (h *CartHandler) UpdateQuantity(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "session_id")
	c, err := h.sessions.Get(sessionID)
	if err != nil {
		respondError(w, http.StatusNotFound, "session_not_found", "unknown or expired cart session")
		return
	}

	var req UpdateQuantityRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if req.Quantity < 1 {
		respondError(w, http.StatusBadRequest, "invalid_quantity", "quantity must be at least 1")
		return
	}

	c.SetQuantity(chi.URLParam(r, "barcode"), req.Quantity)
	respondJSON(w, http.StatusOK, cartResponse(sessionID, c))
}

// RemoveItem drops a line from the cart.
func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "session_id")
	c, err := h.sessions.Get(sessionID)
	if err != nil {
		respondError(w, http.StatusNotFound, "session_not_found", "unknown or expired cart session")
		return
	}

	c.Remove(chi.URLParam(r, "barcode"))
	respondJSON(w, http.StatusOK, cartResponse(sessionID, c))
}

// ClearSession discards the session and its cart.
func (h *CartHandler) ClearSession(w http.ResponseWriter, r *http.Request) {
	h.sessions.Clear(chi.URLParam(r, "session_id"))
	w.WriteHeader(http.StatusNoContent)
}
