package domain

import "time"

// SaleItem is a value snapshot of a sold line. It references the product by
// value, not by live reference: later catalog edits must not retroactively
// alter historical sales.
type SaleItem struct {
	Barcode   string  `json:"barcode"`
	Name      string  `json:"name"`
	UnitPrice float64 `json:"unit_price"`
	Quantity  int     `json:"quantity"`
	Subtotal  float64 `json:"subtotal"`
}

// Sale is an immutable, append-only record of one committed checkout.
// CreatedAt is assigned by the store at commit time so that ledger order
// matches commit order.
type Sale struct {
	ID          string     `json:"id"`
	Items       []SaleItem `json:"items"`
	TotalAmount float64    `json:"total_amount"`
	CreatedAt   time.Time  `json:"created_at"`
}
