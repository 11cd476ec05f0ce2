package domain

// OrderItem is a cart line frozen into the submission payload.
type OrderItem struct {
	ProductID string `json:"productId"`
	VariantID string `json:"variantId,omitempty"`
	Name      string `json:"name"`
	UnitPrice int64  `json:"unitPrice"`
	Quantity  int    `json:"quantity"`
}

// MonCashDetails mirrors the wire shape the order endpoint expects.
type MonCashDetails struct {
	ConfirmationNumber string `json:"confirmationNumber"`
	CustomerName       string `json:"customerName"`
	Amount             int64  `json:"amount"`
}

type PaymentDetails struct {
	Method  string         `json:"method"`
	MonCash MonCashDetails `json:"moncash"`
}

// OrderPayload is assembled once, from a fresh read of the cart and drafts,
// immediately before submission. It is immutable after that: one submission
// attempt corresponds to exactly one payload.
type OrderPayload struct {
	IdempotencyKey  string         `json:"idempotencyKey"`
	UserID          *string        `json:"userId"`
	Items           []OrderItem    `json:"items"`
	Customer        CustomerInfo   `json:"customer"`
	ShippingAddress Address        `json:"shippingAddress"`
	BillingAddress  Address        `json:"billingAddress"`
	Payment         PaymentDetails `json:"payment"`
	TotalAmount     int64          `json:"totalAmount"`
}

// OrderRecord is what the gateway returns on success. Status is opaque to us;
// the HTTP-level success of the call is the authoritative signal.
type OrderRecord struct {
	OrderNumber string `bson:"order_number" json:"orderNumber"`
	Total       int64  `bson:"total" json:"total"`
	Status      string `bson:"status" json:"status"`
}
