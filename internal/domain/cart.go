package domain

import "time"

// Cart is one shopping cart, keyed by the browser session that owns it.
// Prices are stored in HTG centimes so totals arithmetic stays exact.
type Cart struct {
	ID        string     `bson:"_id,omitempty" json:"id,omitempty"`
	SessionID string     `bson:"session_id" json:"session_id"`
	Lines     []CartLine `bson:"lines" json:"lines"`

	// Buyer drafts collected by the checkout wizard. Replaced wholesale on
	// each step submission, cleared only with the cart itself.
	Customer *CustomerInfo `bson:"customer,omitempty" json:"customer,omitempty"`
	Shipping *Address      `bson:"shipping,omitempty" json:"shipping,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

type CartLine struct {
	LineID    string    `bson:"line_id" json:"line_id"`
	ProductID string    `bson:"product_id" json:"product_id"`
	VariantID string    `bson:"variant_id,omitempty" json:"variant_id,omitempty"`
	Name      string    `bson:"name" json:"name"`
	UnitPrice int64     `bson:"unit_price" json:"unit_price"`
	Quantity  int       `bson:"quantity" json:"quantity"`
	ImageURL  string    `bson:"image_url,omitempty" json:"image_url,omitempty"`
	AddedAt   time.Time `bson:"added_at" json:"added_at"`
}

func (c *Cart) IsEmpty() bool {
	return c == nil || len(c.Lines) == 0
}

// FindLine returns the line matching (productID, variantID), or nil.
// Adding the same product in a different variant creates a separate line.
func (c *Cart) FindLine(productID, variantID string) *CartLine {
	for i := range c.Lines {
		if c.Lines[i].ProductID == productID && c.Lines[i].VariantID == variantID {
			return &c.Lines[i]
		}
	}
	return nil
}

// Totals is derived from the current lines on every read, never cached.
type Totals struct {
	Subtotal int64 `json:"subtotal"`
	Shipping int64 `json:"shipping"`
	Tax      int64 `json:"tax"`
	Total    int64 `json:"total"`
}

// PricingPolicy is external configuration: a flat shipping rate waived above
// a threshold, and a tax rate in basis points.
type PricingPolicy struct {
	FlatShipping          int64
	FreeShippingThreshold int64
	TaxRateBasisPoints    int64
}

// ComputeTotals is a pure function of the line set and the policy.
func ComputeTotals(lines []CartLine, policy PricingPolicy) Totals {
	var subtotal int64
	for _, l := range lines {
		subtotal += l.UnitPrice * int64(l.Quantity)
	}

	var shipping int64
	if subtotal > 0 {
		shipping = policy.FlatShipping
		if policy.FreeShippingThreshold > 0 && subtotal >= policy.FreeShippingThreshold {
			shipping = 0
		}
	}

	tax := subtotal * policy.TaxRateBasisPoints / 10000

	return Totals{
		Subtotal: subtotal,
		Shipping: shipping,
		Tax:      tax,
		Total:    subtotal + shipping + tax,
	}
}
