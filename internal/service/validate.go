package service

import (
	"net/mail"
	"strings"

	"github.com/Roma10boss/fenkparet-checkout/internal/domain"
)

// Each step validates only its own fields. A failed validation keeps the
// wizard where it is and surfaces the field map to the caller.

func validateCustomerInfo(info domain.CustomerInfo) error {
	v := newValidationError()

	if strings.TrimSpace(info.FirstName) == "" {
		v.add("firstName", "first name is required")
	}
	if strings.TrimSpace(info.LastName) == "" {
		v.add("lastName", "last name is required")
	}
	if strings.TrimSpace(info.Email) == "" {
		v.add("email", "email is required")
	} else if _, err := mail.ParseAddress(info.Email); err != nil {
		v.add("email", "email format is invalid")
	}
	// Phone is optional.

	return v.orNil()
}

func validateShipping(addr domain.Address, billing domain.BillingAddress) error {
	v := newValidationError()

	if strings.TrimSpace(addr.Street) == "" {
		v.add("street", "street is required")
	}
	if strings.TrimSpace(addr.City) == "" {
		v.add("city", "city is required")
	}

	if billing.Mode == domain.BillingDistinct {
		if billing.Address == nil {
			v.add("billingAddress", "billing address is required")
		} else {
			if strings.TrimSpace(billing.Address.Street) == "" {
				v.add("billingStreet", "billing street is required")
			}
			if strings.TrimSpace(billing.Address.City) == "" {
				v.add("billingCity", "billing city is required")
			}
		}
	}

	return v.orNil()
}

func validatePayment(confirmationNumber, payerName string) error {
	v := newValidationError()

	// The MonCash code is issued externally and verified by hand later, so
	// non-empty is the whole contract here.
	if strings.TrimSpace(confirmationNumber) == "" {
		v.add("confirmationNumber", "confirmation number is required")
	}
	if strings.TrimSpace(payerName) == "" {
		v.add("payerName", "payer name is required")
	}

	return v.orNil()
}
