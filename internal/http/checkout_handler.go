package http

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/Roma10boss/fenkparet-checkout/internal/domain"
	"github.com/Roma10boss/fenkparet-checkout/internal/service"
	"github.com/go-chi/chi/v5"
)

type CheckoutHandler struct {
	checkout *service.CheckoutService
	timeout  time.Duration
}

func NewCheckoutHandler(checkout *service.CheckoutService, timeout time.Duration) *CheckoutHandler {
	return &CheckoutHandler{
		checkout: checkout,
		timeout:  timeout,
	}
}

type CustomerInfoRequestDTO struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Phone     string `json:"phone,omitempty"`
}

type AddressDTO struct {
	Street     string `json:"street"`
	City       string `json:"city"`
	State      string `json:"state,omitempty"`
	PostalCode string `json:"postal_code,omitempty"`
	Country    string `json:"country,omitempty"`
}

type ShippingRequestDTO struct {
	Address AddressDTO `json:"address"`
	// billing_mode is "same_as_shipping" (default) or "distinct"; a distinct
	// mode requires billing_address.
	BillingMode    string      `json:"billing_mode,omitempty"`
	BillingAddress *AddressDTO `json:"billing_address,omitempty"`
}

type PaymentRequestDTO struct {
	ConfirmationNumber string `json:"confirmation_number"`
	PayerName          string `json:"payer_name"`
}

type CheckoutResponseDTO struct {
	CheckoutID string              `json:"checkout_id"`
	Step       int                 `json:"step"`
	StepName   string              `json:"step_name"`
	Submitting bool                `json:"submitting"`
	Order      *domain.OrderRecord `json:"order,omitempty"`
}

func toCheckoutDTO(s *domain.CheckoutSession) CheckoutResponseDTO {
	return CheckoutResponseDTO{
		CheckoutID: s.ID,
		Step:       int(s.Step),
		StepName:   s.Step.String(),
		Submitting: s.Submitting,
		Order:      s.Order,
	}
}

// POST /api/v1/checkout
func (h *CheckoutHandler) Start(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	session, err := h.checkout.Start(ctx, getSessionID(r.Context()), getUserID(r.Context()))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, toCheckoutDTO(session))
}

// GET /api/v1/checkout
func (h *CheckoutHandler) Current(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	session, err := h.checkout.Current(ctx, getSessionID(r.Context()))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, toCheckoutDTO(session))
}

// GET /api/v1/checkout/{checkout_id}
func (h *CheckoutHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	session, err := h.checkout.Get(ctx, chi.URLParam(r, "checkout_id"))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, toCheckoutDTO(session))
}

// POST /api/v1/checkout/{checkout_id}/customer
func (h *CheckoutHandler) SubmitCustomerInfo(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req CustomerInfoRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	session, err := h.checkout.SubmitCustomerInfo(ctx, chi.URLParam(r, "checkout_id"), domain.CustomerInfo{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Phone:     req.Phone,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, toCheckoutDTO(session))
}

// POST /api/v1/checkout/{checkout_id}/shipping
func (h *CheckoutHandler) SubmitShipping(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req ShippingRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	billing := domain.SameAsShipping()
	switch req.BillingMode {
	case "", string(domain.BillingSameAsShipping):
	case string(domain.BillingDistinct):
		if req.BillingAddress == nil {
			respondError(w, http.StatusBadRequest, "missing_billing_address", "billing_address is required for distinct billing")
			return
		}
		billing = domain.DistinctBilling(toAddress(*req.BillingAddress))
	default:
		respondError(w, http.StatusBadRequest, "invalid_billing_mode", "billing_mode must be same_as_shipping or distinct")
		return
	}

	session, err := h.checkout.SubmitShipping(ctx, chi.URLParam(r, "checkout_id"), toAddress(req.Address), billing)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, toCheckoutDTO(session))
}

// POST /api/v1/checkout/{checkout_id}/payment
func (h *CheckoutHandler) SubmitPayment(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req PaymentRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	session, err := h.checkout.SubmitPayment(ctx, chi.URLParam(r, "checkout_id"), req.ConfirmationNumber, req.PayerName)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, toCheckoutDTO(session))
}

// POST /api/v1/checkout/{checkout_id}/submit
func (h *CheckoutHandler) Submit(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	session, err := h.checkout.Submit(ctx, chi.URLParam(r, "checkout_id"), getBearerToken(r.Context()))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, toCheckoutDTO(session))
}

// POST /api/v1/checkout/{checkout_id}/back
func (h *CheckoutHandler) Back(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	session, err := h.checkout.Back(ctx, chi.URLParam(r, "checkout_id"))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, toCheckoutDTO(session))
}

func toAddress(dto AddressDTO) domain.Address {
	return domain.Address{
		Street:     dto.Street,
		City:       dto.City,
		State:      dto.State,
		PostalCode: dto.PostalCode,
		Country:    dto.Country,
	}
}
