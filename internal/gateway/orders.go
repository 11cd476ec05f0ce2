package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/Roma10boss/fenkparet-checkout/internal/domain"
	"github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// APIError is a non-2xx response from the order endpoint. Message is the
// upstream body's message field when present, shown to the user verbatim.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return e.Message
}

// IsBusinessRejection reports whether the order was refused by a rule
// (stock change, payment mismatch) rather than by an outage.
func (e *APIError) IsBusinessRejection() bool {
	return e.StatusCode >= 400 && e.StatusCode < 500
}

const genericSubmitError = "order submission failed, please try again"

// OrdersClient submits assembled orders to the external order-creation
// endpoint. One call per payload; retries reuse the payload's idempotency key.
type OrdersClient struct {
	baseURL    string
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker[*domain.OrderRecord]
}

func NewOrdersClient(baseURL string, timeout time.Duration) *OrdersClient {
	settings := gobreaker.Settings{
		Name:    "orders-gateway",
		Timeout: 30 * time.Second,
		// Business rejections are well-formed answers; only transport
		// failures and 5xx count against the breaker.
		IsSuccessful: func(err error) bool {
			if err == nil {
				return true
			}
			var apiErr *APIError
			return errors.As(err, &apiErr) && apiErr.IsBusinessRejection()
		},
	}

	return &OrdersClient{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		breaker: gobreaker.NewCircuitBreaker[*domain.OrderRecord](settings),
	}
}

type orderResponse struct {
	Order domain.OrderRecord `json:"order"`
}

type errorResponse struct {
	Message string `json:"message"`
}

func (c *OrdersClient) SubmitOrder(ctx context.Context, payload *domain.OrderPayload, bearerToken string) (*domain.OrderRecord, error) {
	return c.breaker.Execute(func() (*domain.OrderRecord, error) {
		return c.submit(ctx, payload, bearerToken)
	})
}

func (c *OrdersClient) submit(ctx context.Context, payload *domain.OrderPayload, bearerToken string) (*domain.OrderRecord, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal order payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/api/orders/checkout", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build order request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	if bearerToken != "" {
		req.Header.Set("Authorization", "Bearer "+bearerToken)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("order request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var errResp errorResponse
		message := genericSubmitError
		if decodeErr := json.NewDecoder(resp.Body).Decode(&errResp); decodeErr == nil && errResp.Message != "" {
			message = errResp.Message
		}
		return nil, &APIError{StatusCode: resp.StatusCode, Message: message}
	}

	var orderResp orderResponse
	if err := json.NewDecoder(resp.Body).Decode(&orderResp); err != nil {
		return nil, fmt.Errorf("failed to decode order response: %w", err)
	}

	if orderResp.Order.OrderNumber == "" {
		return nil, errors.New("order response missing order number")
	}

	return &orderResp.Order, nil
}
