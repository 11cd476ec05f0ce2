package service

import (
	"context"
	"sync"
	"time"

	"github.com/Roma10boss/fenkparet-checkout/internal/cache"
	"github.com/Roma10boss/fenkparet-checkout/internal/domain"
	"github.com/Roma10boss/fenkparet-checkout/internal/repository"
	"github.com/google/uuid"
)

// mockCartRepository mirrors the MongoDB repository's semantics in memory:
// merge on (product, variant), quantity <= 0 removes the line.
type mockCartRepository struct {
	m     sync.Mutex
	carts map[string]*domain.Cart
	err   error
}

func newMockCartRepository() *mockCartRepository {
	return &mockCartRepository{carts: make(map[string]*domain.Cart)}
}

func (m *mockCartRepository) GetCart(_ context.Context, sessionID string) (*domain.Cart, error) {
	m.m.Lock()
	defer m.m.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	cart, ok := m.carts[sessionID]
	if !ok {
		return nil, repository.ErrCartNotFound
	}
	copied := *cart
	copied.Lines = append([]domain.CartLine(nil), cart.Lines...)
	return &copied, nil
}

func (m *mockCartRepository) AddLine(_ context.Context, sessionID string, line domain.CartLine) error {
	m.m.Lock()
	defer m.m.Unlock()
	if m.err != nil {
		return m.err
	}
	cart, ok := m.carts[sessionID]
	if !ok {
		cart = &domain.Cart{SessionID: sessionID, CreatedAt: time.Now()}
		m.carts[sessionID] = cart
	}
	if match := cart.FindLine(line.ProductID, line.VariantID); match != nil {
		match.Quantity += line.Quantity
		return nil
	}
	cart.Lines = append(cart.Lines, line)
	return nil
}

func (m *mockCartRepository) UpdateLineQuantity(_ context.Context, sessionID, lineID string, quantity int) error {
	m.m.Lock()
	defer m.m.Unlock()
	if m.err != nil {
		return m.err
	}
	cart, ok := m.carts[sessionID]
	if !ok {
		return repository.ErrCartNotFound
	}
	for i := range cart.Lines {
		if cart.Lines[i].LineID == lineID {
			if quantity <= 0 {
				cart.Lines = append(cart.Lines[:i], cart.Lines[i+1:]...)
			} else {
				cart.Lines[i].Quantity = quantity
			}
			return nil
		}
	}
	return repository.ErrLineNotFound
}

func (m *mockCartRepository) RemoveLine(_ context.Context, sessionID, lineID string) error {
	m.m.Lock()
	defer m.m.Unlock()
	if m.err != nil {
		return m.err
	}
	cart, ok := m.carts[sessionID]
	if !ok {
		return repository.ErrCartNotFound
	}
	for i := range cart.Lines {
		if cart.Lines[i].LineID == lineID {
			cart.Lines = append(cart.Lines[:i], cart.Lines[i+1:]...)
			return nil
		}
	}
	return repository.ErrCartNotFound
}

func (m *mockCartRepository) SetCustomerInfo(_ context.Context, sessionID string, info domain.CustomerInfo) error {
	m.m.Lock()
	defer m.m.Unlock()
	cart, ok := m.carts[sessionID]
	if !ok {
		return repository.ErrCartNotFound
	}
	cart.Customer = &info
	return nil
}

func (m *mockCartRepository) SetShippingAddress(_ context.Context, sessionID string, addr domain.Address) error {
	m.m.Lock()
	defer m.m.Unlock()
	cart, ok := m.carts[sessionID]
	if !ok {
		return repository.ErrCartNotFound
	}
	cart.Shipping = &addr
	return nil
}

func (m *mockCartRepository) DeleteCart(_ context.Context, sessionID string) error {
	m.m.Lock()
	defer m.m.Unlock()
	if _, ok := m.carts[sessionID]; !ok {
		return repository.ErrCartNotFound
	}
	delete(m.carts, sessionID)
	return nil
}

// missCache never holds anything, so every read goes to the repository.
type missCache struct{}

func (missCache) Get(context.Context, string) (*domain.Cart, error) {
	return nil, cache.ErrCacheMiss
}

func (missCache) Set(context.Context, string, *domain.Cart) error { return nil }

func (missCache) Delete(context.Context, string) error { return nil }

type mockCheckoutRepository struct {
	m        sync.Mutex
	sessions map[string]*domain.CheckoutSession
	err      error
}

func newMockCheckoutRepository() *mockCheckoutRepository {
	return &mockCheckoutRepository{sessions: make(map[string]*domain.CheckoutSession)}
}

func (m *mockCheckoutRepository) GetSession(_ context.Context, checkoutID string) (*domain.CheckoutSession, error) {
	m.m.Lock()
	defer m.m.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	session, ok := m.sessions[checkoutID]
	if !ok {
		return nil, repository.ErrSessionNotFound
	}
	copied := *session
	return &copied, nil
}

func (m *mockCheckoutRepository) GetSessionBySessionID(_ context.Context, sessionID string) (*domain.CheckoutSession, error) {
	m.m.Lock()
	defer m.m.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	for _, session := range m.sessions {
		if session.SessionID == sessionID {
			copied := *session
			return &copied, nil
		}
	}
	return nil, repository.ErrSessionNotFound
}

func (m *mockCheckoutRepository) SaveSession(_ context.Context, session *domain.CheckoutSession) error {
	m.m.Lock()
	defer m.m.Unlock()
	if m.err != nil {
		return m.err
	}
	copied := *session
	m.sessions[session.ID] = &copied
	return nil
}

func (m *mockCheckoutRepository) AcquireSubmitLock(_ context.Context, checkoutID string) error {
	m.m.Lock()
	defer m.m.Unlock()
	session, ok := m.sessions[checkoutID]
	if !ok {
		return repository.ErrSessionNotFound
	}
	if session.Submitting {
		return repository.ErrAlreadySubmitting
	}
	session.Submitting = true
	return nil
}

func (m *mockCheckoutRepository) ReleaseSubmitLock(_ context.Context, checkoutID string) error {
	m.m.Lock()
	defer m.m.Unlock()
	session, ok := m.sessions[checkoutID]
	if !ok {
		return repository.ErrSessionNotFound
	}
	session.Submitting = false
	return nil
}

type mockGateway struct {
	m        sync.Mutex
	calls    int
	payloads []*domain.OrderPayload
	tokens   []string
	delay    time.Duration
	record   *domain.OrderRecord
	err      error
}

func (m *mockGateway) SubmitOrder(_ context.Context, payload *domain.OrderPayload, token string) (*domain.OrderRecord, error) {
	m.m.Lock()
	m.calls++
	m.payloads = append(m.payloads, payload)
	m.tokens = append(m.tokens, token)
	delay, record, err := m.delay, m.record, m.err
	m.m.Unlock()

	if delay > 0 {
		time.Sleep(delay)
	}
	if err != nil {
		return nil, err
	}
	return record, nil
}

func (m *mockGateway) callCount() int {
	m.m.Lock()
	defer m.m.Unlock()
	return m.calls
}

func newTestLine(productID string, price int64, qty int) domain.CartLine {
	return domain.CartLine{
		LineID:    uuid.NewString(),
		ProductID: productID,
		Name:      "Product " + productID,
		UnitPrice: price,
		Quantity:  qty,
	}
}
