package http

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/Roma10boss/fenkparet-checkout/internal/domain"
	"github.com/Roma10boss/fenkparet-checkout/internal/gateway"
	"github.com/Roma10boss/fenkparet-checkout/internal/repository"
	"github.com/Roma10boss/fenkparet-checkout/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/sony/gobreaker/v2"
)

type CartHandler struct {
	carts   *service.CartService
	timeout time.Duration
}

func NewCartHandler(carts *service.CartService, timeout time.Duration) *CartHandler {
	return &CartHandler{
		carts:   carts,
		timeout: timeout,
	}
}

type AddItemRequestDTO struct {
	ProductID string `json:"product_id"`
	VariantID string `json:"variant_id,omitempty"`
	Name      string `json:"name"`
	UnitPrice int64  `json:"unit_price"`
	Quantity  int    `json:"quantity"`
	ImageURL  string `json:"image_url,omitempty"`
}

type UpdateQuantityRequestDTO struct {
	Quantity int `json:"quantity"`
}

type CartResponseDTO struct {
	Cart   *domain.Cart  `json:"cart"`
	Totals domain.Totals `json:"totals"`
}

type ErrorResponse struct {
	Error  string            `json:"error"`
	Code   string            `json:"code,omitempty"`
	Fields map[string]string `json:"errors,omitempty"`
}

func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	sessionID := getSessionID(r.Context())

	cart, err := h.carts.GetCart(ctx, sessionID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	totals, err := h.carts.Totals(ctx, sessionID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, CartResponseDTO{Cart: cart, Totals: totals})
}

func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	sessionID := getSessionID(r.Context())

	// Parse request body
	var req AddItemRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	// Validate request
	if req.ProductID == "" {
		respondError(w, http.StatusBadRequest, "invalid_product_id", "product_id is required")
		return
	}
	if req.Name == "" {
		respondError(w, http.StatusBadRequest, "invalid_name", "name is required")
		return
	}
	if req.UnitPrice < 0 {
		respondError(w, http.StatusBadRequest, "invalid_unit_price", "unit_price must not be negative")
		return
	}

	line := domain.CartLine{
		ProductID: req.ProductID,
		VariantID: req.VariantID,
		Name:      req.Name,
		UnitPrice: req.UnitPrice,
		Quantity:  req.Quantity,
		ImageURL:  req.ImageURL,
	}

	if err := h.carts.AddItem(ctx, sessionID, line); err != nil {
		handleServiceError(w, err)
		return
	}

	h.respondCart(ctx, w, sessionID, http.StatusCreated)
}

func (h *CartHandler) UpdateQuantity(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	sessionID := getSessionID(r.Context())

	lineID := chi.URLParam(r, "line_id")
	if lineID == "" {
		respondError(w, http.StatusBadRequest, "missing_line_id", "line_id is required")
		return
	}

	// Parse request body
	var req UpdateQuantityRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	// Quantity zero or below removes the line; no validation error here.
	if err := h.carts.UpdateQuantity(ctx, sessionID, lineID, req.Quantity); err != nil {
		handleServiceError(w, err)
		return
	}

	h.respondCart(ctx, w, sessionID, http.StatusOK)
}

func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	sessionID := getSessionID(r.Context())

	lineID := chi.URLParam(r, "line_id")
	if lineID == "" {
		respondError(w, http.StatusBadRequest, "missing_line_id", "line_id is required")
		return
	}

	if err := h.carts.RemoveItem(ctx, sessionID, lineID); err != nil {
		handleServiceError(w, err)
		return
	}

	h.respondCart(ctx, w, sessionID, http.StatusOK)
}

func (h *CartHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	sessionID := getSessionID(r.Context())

	if err := h.carts.Clear(ctx, sessionID); err != nil {
		handleServiceError(w, err)
		return
	}

	h.respondCart(ctx, w, sessionID, http.StatusOK)
}

func (h *CartHandler) respondCart(ctx context.Context, w http.ResponseWriter, sessionID string, status int) {
	cart, err := h.carts.GetCart(ctx, sessionID)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	totals, err := h.carts.Totals(ctx, sessionID)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	respondJSON(w, status, CartResponseDTO{Cart: cart, Totals: totals})
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("failed to encode response: %v", err)
	}
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, ErrorResponse{
		Error: message,
		Code:  code,
	})
}

// handleServiceError maps the error taxonomy onto HTTP statuses. Validation
// stays local, empty-cart sends the client back to the store, gateway
// rejections pass the upstream message through verbatim.
func handleServiceError(w http.ResponseWriter, err error) {
	var validationErr *service.ValidationError
	if errors.As(err, &validationErr) {
		respondJSON(w, http.StatusUnprocessableEntity, ErrorResponse{
			Error:  "validation failed",
			Code:   "validation_failed",
			Fields: validationErr.Fields,
		})
		return
	}

	var apiErr *gateway.APIError
	if errors.As(err, &apiErr) {
		respondError(w, http.StatusBadGateway, "order_rejected", apiErr.Message)
		return
	}

	switch {
	case errors.Is(err, service.ErrEmptyCart):
		respondError(w, http.StatusConflict, "cart_empty", "cart is empty, return to the store")
	case errors.Is(err, repository.ErrCartNotFound),
		errors.Is(err, repository.ErrLineNotFound),
		errors.Is(err, repository.ErrSessionNotFound),
		errors.Is(err, service.ErrNoOpenCheckout):
		respondError(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, repository.ErrAlreadySubmitting):
		respondError(w, http.StatusConflict, "submission_in_flight", "an order submission is already in progress")
	case errors.Is(err, domain.ErrIllegalTransition):
		respondError(w, http.StatusConflict, "illegal_transition", err.Error())
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		respondError(w, http.StatusServiceUnavailable, "gateway_unavailable", "order submission is temporarily unavailable, please retry")
	default:
		respondError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}
