package domain

import "time"

// Product is a catalog record keyed by barcode. Stock is decremented only by
// the checkout engine; Version is bumped on every write and serves as the
// optimistic-concurrency token.
type Product struct {
	Barcode   string    `json:"barcode"`
	Name      string    `json:"name"`
	Price     float64   `json:"price"`
	Stock     int       `json:"stock"`
	Version   int64     `json:"-"`
	UpdatedAt time.Time `json:"updated_at"`
}

// InStock reports whether at least one unit is available. Advisory only:
// the authoritative check happens inside the checkout transaction.
func (p *Product) InStock() bool {
	return p.Stock > 0
}
