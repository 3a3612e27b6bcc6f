package dashboard

import (
	"context"
	"fmt"
	"time"

	"github.com/akashcruz/pos-system-lkvoice/internal/domain"
	"github.com/akashcruz/pos-system-lkvoice/internal/store"
)

// recentLimit caps the transaction list in a summary.
const recentLimit = 20

// Summary is the read-only aggregation shown on the sales dashboard.
type Summary struct {
	Day         time.Time      `json:"day"`
	Orders      int            `json:"orders"`
	TotalAmount float64        `json:"total_amount"`
	Recent      []*domain.Sale `json:"recent"`
}

// Service aggregates the sales ledger for a store-local calendar day.
// The deployment is single-timezone; the day boundary comes from the
// configured location.
type Service struct {
	ledger store.Ledger
	loc    *time.Location
}

// NewService creates a dashboard service. loc nil falls back to time.Local.
func NewService(ledger store.Ledger, loc *time.Location) *Service {
	if loc == nil {
		loc = time.Local
	}
	return &Service{ledger: ledger, loc: loc}
}

// DaySummary aggregates count and total for the calendar day containing the
// given instant, with the most recent sales first.
func (s *Service) DaySummary(ctx context.Context, at time.Time) (*Summary, error) {
	local := at.In(s.loc)
	start := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, s.loc)
	end := start.AddDate(0, 0, 1)

	sales, err := s.ledger.SalesInRange(ctx, start, end)
	if err != nil {
		return nil, fmt.Errorf("query sales for day: %w", err)
	}

	summary := &Summary{Day: start}
	for _, sale := range sales {
		summary.Orders++
		summary.TotalAmount += sale.TotalAmount
		if len(summary.Recent) < recentLimit {
			summary.Recent = append(summary.Recent, sale)
		}
	}
	return summary, nil
}
