package repository

import (
	"context"
	"errors"

	"github.com/Roma10boss/fenkparet-checkout/internal/domain"
)

var (
	ErrCartNotFound      = errors.New("cart not found")
	ErrLineNotFound      = errors.New("line not found in cart")
	ErrSessionNotFound   = errors.New("checkout session not found")
	ErrAlreadySubmitting = errors.New("submission already in flight")
)

// CartRepository defines the interface for cart data operations
// Consumers define this interface, not the MongoDB implementation
type CartRepository interface {
	GetCart(ctx context.Context, sessionID string) (*domain.Cart, error)
	AddLine(ctx context.Context, sessionID string, line domain.CartLine) error
	UpdateLineQuantity(ctx context.Context, sessionID, lineID string, quantity int) error
	RemoveLine(ctx context.Context, sessionID, lineID string) error
	SetCustomerInfo(ctx context.Context, sessionID string, info domain.CustomerInfo) error
	SetShippingAddress(ctx context.Context, sessionID string, addr domain.Address) error
	DeleteCart(ctx context.Context, sessionID string) error
}

// CheckoutRepository persists wizard sessions. AcquireSubmitLock flips the
// submitting flag false->true atomically and fails with ErrAlreadySubmitting
// when another submission holds it.
type CheckoutRepository interface {
	GetSession(ctx context.Context, checkoutID string) (*domain.CheckoutSession, error)
	GetSessionBySessionID(ctx context.Context, sessionID string) (*domain.CheckoutSession, error)
	SaveSession(ctx context.Context, session *domain.CheckoutSession) error
	AcquireSubmitLock(ctx context.Context, checkoutID string) error
	ReleaseSubmitLock(ctx context.Context, checkoutID string) error
}
