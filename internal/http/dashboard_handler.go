package http

import (
	"context"
	"net/http"
	"time"

	"github.com/akashcruz/pos-system-lkvoice/internal/dashboard"
)

// SalesSummarizer aggregates the ledger for the dashboard.
type SalesSummarizer interface {
	DaySummary(ctx context.Context, at time.Time) (*dashboard.Summary, error)
}

// DashboardHandler serves the today-view sales aggregation.
type DashboardHandler struct {
	summarizer SalesSummarizer
}

func NewDashboardHandler(summarizer SalesSummarizer) *DashboardHandler {
	return &DashboardHandler{summarizer: summarizer}
}

// Today returns order count, revenue total and recent sales for the current
// store-local day.
func (h *DashboardHandler) Today(w http.ResponseWriter, r *http.Request) {
	summary, err := h.summarizer.DaySummary(r.Context(), time.Now())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to build sales summary")
		return
	}

	respondJSON(w, http.StatusOK, summary)
}
