package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Handlers collects everything the router mounts.
type Handlers struct {
	Products  *ProductHandler
	Carts     *CartHandler
	Checkout  *CheckoutHandler
	Dashboard *DashboardHandler
	Metrics   http.Handler // optional, mounted at /metrics
}

// NewRouter wires the API routes with the global middleware stack.
func NewRouter(h Handlers, requestTimeout time.Duration) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestIDMiddleware)
	r.Use(middleware.Timeout(requestTimeout))
	r.Use(middleware.Compress(5))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if h.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", h.Metrics)
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/products", func(r chi.Router) {
			r.Get("/", h.Products.List)
			r.Post("/", h.Products.Upsert)
			r.Get("/{barcode}", h.Products.Get)
		})

		r.Route("/carts", func(r chi.Router) {
			r.Post("/", h.Carts.CreateSession)
			r.Route("/{session_id}", func(r chi.Router) {
				r.Get("/", h.Carts.GetCart)
				r.Delete("/", h.Carts.ClearSession)
				r.Post("/items", h.Carts.AddItem)
				r.Put("/items/{barcode}", h.Carts.UpdateQuantity)
				r.Delete("/items/{barcode}", h.Carts.RemoveItem)
				r.Post("/checkout", h.Checkout.Checkout)
			})
		})

		r.Get("/dashboard/today", h.Dashboard.Today)
	})

	return r
}
