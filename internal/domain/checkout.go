package domain

import (
	"errors"
	"time"
)

// Step is one state of the checkout wizard. Steps advance strictly forward,
// one at a time; StepDone is terminal.
type Step int

const (
	StepCustomer Step = iota + 1
	StepShipping
	StepPayment
	StepSummary
	StepDone
)

func (s Step) IsTerminal() bool {
	return s == StepDone
}

// String representation (for logging)
func (s Step) String() string {
	switch s {
	case StepCustomer:
		return "CUSTOMER_INFO"
	case StepShipping:
		return "SHIPPING_ADDRESS"
	case StepPayment:
		return "PAYMENT"
	case StepSummary:
		return "ORDER_SUMMARY"
	case StepDone:
		return "DONE"
	default:
		return "UNKNOWN"
	}
}

type Event int

const (
	EventNext Event = iota + 1
	EventBack
	EventSubmitSucceeded
	EventSubmitFailed
)

var ErrIllegalTransition = errors.New("illegal checkout step transition")

// Advance is the wizard transition function. It is pure: callers validate the
// step's fields before firing EventNext, and run side effects only after the
// transition is accepted.
func Advance(s Step, e Event) (Step, error) {
	switch e {
	case EventNext:
		if s >= StepCustomer && s < StepSummary {
			return s + 1, nil
		}
	case EventBack:
		if s > StepCustomer && s < StepDone {
			return s - 1, nil
		}
	case EventSubmitSucceeded:
		if s == StepSummary {
			return StepDone, nil
		}
	case EventSubmitFailed:
		if s == StepSummary {
			return StepSummary, nil
		}
	}
	return s, ErrIllegalTransition
}

type CustomerInfo struct {
	FirstName string `bson:"first_name" json:"firstName"`
	LastName  string `bson:"last_name" json:"lastName"`
	Email     string `bson:"email" json:"email"`
	Phone     string `bson:"phone,omitempty" json:"phone,omitempty"`
}

type Address struct {
	Street     string `bson:"street" json:"street"`
	City       string `bson:"city" json:"city"`
	State      string `bson:"state,omitempty" json:"state,omitempty"`
	PostalCode string `bson:"postal_code,omitempty" json:"postalCode,omitempty"`
	Country    string `bson:"country,omitempty" json:"country,omitempty"`
}

type BillingMode string

const (
	BillingSameAsShipping BillingMode = "same_as_shipping"
	BillingDistinct       BillingMode = "distinct"
)

// BillingAddress is a tagged variant: either it mirrors the shipping address,
// or it carries its own. Construct through the two helpers so Address is set
// exactly when the mode is distinct.
type BillingAddress struct {
	Mode    BillingMode `bson:"mode" json:"mode"`
	Address *Address    `bson:"address,omitempty" json:"address,omitempty"`
}

func SameAsShipping() BillingAddress {
	return BillingAddress{Mode: BillingSameAsShipping}
}

func DistinctBilling(a Address) BillingAddress {
	return BillingAddress{Mode: BillingDistinct, Address: &a}
}

// Resolve returns the address orders should actually bill to.
func (b BillingAddress) Resolve(shipping Address) Address {
	if b.Mode == BillingDistinct && b.Address != nil {
		return *b.Address
	}
	return shipping
}

// PaymentConfirmation records a MonCash transaction code typed in by the
// customer. The code is verified manually by staff later; here it only has to
// be non-empty. Amount is always the server-computed cart total, never the
// value the customer typed.
type PaymentConfirmation struct {
	Method             string `bson:"method" json:"method"`
	ConfirmationNumber string `bson:"confirmation_number" json:"confirmationNumber"`
	PayerName          string `bson:"payer_name" json:"payerName"`
	Amount             int64  `bson:"amount" json:"amount"`
}

const PaymentMethodMonCash = "moncash"

// CheckoutSession is the wizard's persistent state, one per cart session.
// Customer and shipping drafts live on the cart itself; the session carries
// only what the wizard owns. Submitting is the single concurrency guard
// around the gateway call.
type CheckoutSession struct {
	ID             string               `bson:"_id"`
	SessionID      string               `bson:"session_id"`
	UserID         string               `bson:"user_id,omitempty"`
	Step           Step                 `bson:"step"`
	Billing        *BillingAddress      `bson:"billing,omitempty"`
	Payment        *PaymentConfirmation `bson:"payment,omitempty"`
	IdempotencyKey string               `bson:"idempotency_key,omitempty"`
	Submitting     bool                 `bson:"submitting"`
	Order          *OrderRecord         `bson:"order,omitempty"`
	CreatedAt      time.Time            `bson:"created_at"`
	UpdatedAt      time.Time            `bson:"updated_at"`
}
