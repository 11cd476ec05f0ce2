package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/Roma10boss/fenkparet-checkout/internal/domain"
	"github.com/Roma10boss/fenkparet-checkout/internal/repository"
	"github.com/google/uuid"
)

// OrderGateway is the external order-creation endpoint. Consumers define this
// interface, not the HTTP client that implements it.
type OrderGateway interface {
	SubmitOrder(ctx context.Context, payload *domain.OrderPayload, bearerToken string) (*domain.OrderRecord, error)
}

// CheckoutService drives the five-step wizard. It reads the cart through
// CartService and never touches lines directly; the only cart mutations it
// triggers are the draft writes and the post-submission clear.
type CheckoutService struct {
	carts   *CartService
	repo    repository.CheckoutRepository
	gateway OrderGateway
}

func NewCheckoutService(carts *CartService, repo repository.CheckoutRepository, gateway OrderGateway) *CheckoutService {
	return &CheckoutService{
		carts:   carts,
		repo:    repo,
		gateway: gateway,
	}
}

// Start opens a wizard for the session, or returns the one already open.
// An empty cart cannot enter checkout.
func (s *CheckoutService) Start(ctx context.Context, sessionID, userID string) (*domain.CheckoutSession, error) {
	empty, err := s.carts.IsEmpty(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to read cart: %w", err)
	}
	if empty {
		return nil, ErrEmptyCart
	}

	existing, err := s.repo.GetSessionBySessionID(ctx, sessionID)
	if err != nil && !errors.Is(err, repository.ErrSessionNotFound) {
		return nil, fmt.Errorf("failed to look up checkout session: %w", err)
	}
	if existing != nil && !existing.Step.IsTerminal() {
		return existing, nil
	}

	session := &domain.CheckoutSession{
		ID:        uuid.NewString(),
		SessionID: sessionID,
		UserID:    userID,
		Step:      domain.StepCustomer,
	}
	if err := s.repo.SaveSession(ctx, session); err != nil {
		return nil, err
	}

	log.Printf("checkout %s opened for session %s", session.ID, sessionID)
	return session, nil
}

func (s *CheckoutService) Get(ctx context.Context, checkoutID string) (*domain.CheckoutSession, error) {
	return s.repo.GetSession(ctx, checkoutID)
}

// Current returns the session's open wizard, so a reloaded storefront can
// resume where it left off. A finished wizard does not count as open.
func (s *CheckoutService) Current(ctx context.Context, sessionID string) (*domain.CheckoutSession, error) {
	session, err := s.repo.GetSessionBySessionID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, repository.ErrSessionNotFound) {
			return nil, ErrNoOpenCheckout
		}
		return nil, err
	}
	if session.Step.IsTerminal() {
		return nil, ErrNoOpenCheckout
	}
	return session, nil
}

// SubmitCustomerInfo validates step 1 and writes the draft into the cart
// store before advancing.
func (s *CheckoutService) SubmitCustomerInfo(ctx context.Context, checkoutID string, info domain.CustomerInfo) (*domain.CheckoutSession, error) {
	session, err := s.guardedSession(ctx, checkoutID, domain.StepCustomer)
	if err != nil {
		return nil, err
	}

	if err := validateCustomerInfo(info); err != nil {
		return nil, err
	}

	if err := s.carts.SetCustomerInfo(ctx, session.SessionID, info); err != nil {
		return nil, fmt.Errorf("failed to store customer info: %w", err)
	}

	return s.advance(ctx, session, domain.EventNext)
}

// SubmitShipping validates step 2, including the distinct billing address
// when one is given, and writes the shipping draft into the cart store.
func (s *CheckoutService) SubmitShipping(ctx context.Context, checkoutID string, addr domain.Address, billing domain.BillingAddress) (*domain.CheckoutSession, error) {
	session, err := s.guardedSession(ctx, checkoutID, domain.StepShipping)
	if err != nil {
		return nil, err
	}

	if billing.Mode == "" {
		billing = domain.SameAsShipping()
	}
	if err := validateShipping(addr, billing); err != nil {
		return nil, err
	}

	if err := s.carts.SetShippingAddress(ctx, session.SessionID, addr); err != nil {
		return nil, fmt.Errorf("failed to store shipping address: %w", err)
	}

	session.Billing = &billing
	return s.advance(ctx, session, domain.EventNext)
}

// SubmitPayment validates step 3. The recorded amount is the total computed
// right now, not anything the customer typed.
func (s *CheckoutService) SubmitPayment(ctx context.Context, checkoutID, confirmationNumber, payerName string) (*domain.CheckoutSession, error) {
	session, err := s.guardedSession(ctx, checkoutID, domain.StepPayment)
	if err != nil {
		return nil, err
	}

	if err := validatePayment(confirmationNumber, payerName); err != nil {
		return nil, err
	}

	totals, err := s.carts.Totals(ctx, session.SessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to compute totals: %w", err)
	}

	session.Payment = &domain.PaymentConfirmation{
		Method:             domain.PaymentMethodMonCash,
		ConfirmationNumber: confirmationNumber,
		PayerName:          payerName,
		Amount:             totals.Total,
	}
	return s.advance(ctx, session, domain.EventNext)
}

// Back returns to the previous step. Drafts survive; only a successful
// submission or an explicit clear removes them.
func (s *CheckoutService) Back(ctx context.Context, checkoutID string) (*domain.CheckoutSession, error) {
	session, err := s.repo.GetSession(ctx, checkoutID)
	if err != nil {
		return nil, err
	}
	return s.advance(ctx, session, domain.EventBack)
}

// Submit performs the one-shot order submission from the summary step.
//
// Ordering matters: the payload is built from a fresh read of cart and
// drafts, the submit lock is taken before the network call, and on failure
// the cart is left intact and the wizard stays on the summary step.
func (s *CheckoutService) Submit(ctx context.Context, checkoutID, bearerToken string) (*domain.CheckoutSession, error) {
	session, err := s.guardedSession(ctx, checkoutID, domain.StepSummary)
	if err != nil {
		return nil, err
	}

	payload, err := s.buildPayload(ctx, session)
	if err != nil {
		return nil, err
	}

	if err := s.repo.AcquireSubmitLock(ctx, checkoutID); err != nil {
		return nil, err
	}
	// Keep the struct in step with the lock: SaveSession writes the whole
	// document, and persisting submitting=false here would drop the guard.
	session.Submitting = true
	defer func() {
		// Release on a fresh context: the request context may already be
		// dead, and a stuck flag would disable checkout for the session.
		releaseCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if releaseErr := s.repo.ReleaseSubmitLock(releaseCtx, checkoutID); releaseErr != nil {
			log.Printf("failed to release submit lock for checkout %s: %v", checkoutID, releaseErr)
		}
	}()

	// The idempotency key survives failed attempts so a retry after a lost
	// response cannot create a second order.
	if session.IdempotencyKey == "" {
		session.IdempotencyKey = uuid.NewString()
		if err := s.repo.SaveSession(ctx, session); err != nil {
			return nil, err
		}
	}
	payload.IdempotencyKey = session.IdempotencyKey

	record, submitErr := s.gateway.SubmitOrder(ctx, payload, bearerToken)
	if submitErr != nil {
		log.Printf("order submission failed for checkout %s: %v", checkoutID, submitErr)
		if _, advErr := s.advance(ctx, session, domain.EventSubmitFailed); advErr != nil {
			log.Printf("failed to record submission failure: %v", advErr)
		}
		return nil, submitErr
	}

	session.Order = record
	session.Submitting = false
	updated, err := s.advance(ctx, session, domain.EventSubmitSucceeded)
	if err != nil {
		return nil, err
	}

	if clearErr := s.carts.Clear(ctx, session.SessionID); clearErr != nil {
		// The order exists; an unclear cart is an annoyance, not a failure.
		log.Printf("failed to clear cart for session %s: %v", session.SessionID, clearErr)
	}

	log.Printf("checkout %s completed, order %s", checkoutID, record.OrderNumber)
	return updated, nil
}

// buildPayload snapshots the cart and drafts at submission time. Values
// captured when the wizard started could be stale if the cart was edited
// from another tab.
func (s *CheckoutService) buildPayload(ctx context.Context, session *domain.CheckoutSession) (*domain.OrderPayload, error) {
	cart, err := s.carts.GetCart(ctx, session.SessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to read cart: %w", err)
	}
	if cart.IsEmpty() {
		return nil, ErrEmptyCart
	}
	if cart.Customer == nil || cart.Shipping == nil || session.Payment == nil {
		return nil, domain.ErrIllegalTransition
	}

	totals := domain.ComputeTotals(cart.Lines, s.carts.Policy())

	items := make([]domain.OrderItem, len(cart.Lines))
	for i, l := range cart.Lines {
		items[i] = domain.OrderItem{
			ProductID: l.ProductID,
			VariantID: l.VariantID,
			Name:      l.Name,
			UnitPrice: l.UnitPrice,
			Quantity:  l.Quantity,
		}
	}

	billing := domain.SameAsShipping()
	if session.Billing != nil {
		billing = *session.Billing
	}

	var userID *string
	if session.UserID != "" {
		userID = &session.UserID
	}

	payment := *session.Payment
	payment.Amount = totals.Total // always the total as of now, never the typed value

	return &domain.OrderPayload{
		UserID:          userID,
		Items:           items,
		Customer:        *cart.Customer,
		ShippingAddress: *cart.Shipping,
		BillingAddress:  billing.Resolve(*cart.Shipping),
		Payment: domain.PaymentDetails{
			Method: payment.Method,
			MonCash: domain.MonCashDetails{
				ConfirmationNumber: payment.ConfirmationNumber,
				CustomerName:       payment.PayerName,
				Amount:             payment.Amount,
			},
		},
		TotalAmount: totals.Total,
	}, nil
}

// guardedSession loads the session and checks both the expected step and the
// cart-empty guard that applies to every pre-terminal step.
func (s *CheckoutService) guardedSession(ctx context.Context, checkoutID string, step domain.Step) (*domain.CheckoutSession, error) {
	session, err := s.repo.GetSession(ctx, checkoutID)
	if err != nil {
		return nil, err
	}
	if session.Step != step {
		return nil, domain.ErrIllegalTransition
	}

	empty, err := s.carts.IsEmpty(ctx, session.SessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to read cart: %w", err)
	}
	if empty {
		return nil, ErrEmptyCart
	}

	return session, nil
}

func (s *CheckoutService) advance(ctx context.Context, session *domain.CheckoutSession, event domain.Event) (*domain.CheckoutSession, error) {
	next, err := domain.Advance(session.Step, event)
	if err != nil {
		return nil, err
	}

	session.Step = next
	if err := s.repo.SaveSession(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}
