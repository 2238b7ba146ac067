package types

import "github.com/google/uuid"

// CartItem is one line of the caller-owned cart. The engine treats carts as
// immutable input and never persists them itself.
type CartItem struct {
	ProductID            uuid.UUID  `json:"product_id"`
	VariantID            *uuid.UUID `json:"variant_id,omitempty"`
	Name                 string     `json:"name"`
	Quantity             int        `json:"quantity"`
	UnitPricePaise       int64      `json:"unit_price_paise"`
	FreeShippingEligible bool       `json:"free_shipping_eligible"`
}

// TotalPaise returns the line total.
func (i CartItem) TotalPaise() int64 {
	return int64(i.Quantity) * i.UnitPricePaise
}

// Cart is an ordered sequence of line items.
type Cart struct {
	Items []CartItem `json:"items"`
}

// SubtotalPaise sums line totals, skipping non-positive quantities.
func (c Cart) SubtotalPaise() int64 {
	var subtotal int64
	for _, item := range c.Items {
		if item.Quantity <= 0 {
			continue
		}
		subtotal += item.TotalPaise()
	}
	return subtotal
}

// TotalQuantity sums line quantities, skipping non-positive quantities.
func (c Cart) TotalQuantity() int {
	total := 0
	for _, item := range c.Items {
		if item.Quantity > 0 {
			total += item.Quantity
		}
	}
	return total
}

// IsEmpty reports whether the cart carries no purchasable quantity.
func (c Cart) IsEmpty() bool {
	return c.TotalQuantity() == 0
}
