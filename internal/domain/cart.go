package domain

// CartLine is one quantity-bearing line of a checkout session. UnitPrice is
// the price captured when the line was added; it is shown to the operator but
// never trusted for the checkout decision.
type CartLine struct {
	Barcode   string  `json:"barcode"`
	Name      string  `json:"name"`
	Quantity  int     `json:"quantity"`
	UnitPrice float64 `json:"unit_price"`
}

// Subtotal is the advisory line total at add-time prices.
func (l CartLine) Subtotal() float64 {
	return l.UnitPrice * float64(l.Quantity)
}
