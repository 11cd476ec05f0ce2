package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/Roma10boss/fenkparet-checkout/internal/cache"
	"github.com/Roma10boss/fenkparet-checkout/internal/domain"
	"github.com/Roma10boss/fenkparet-checkout/internal/repository"
	"github.com/Roma10boss/fenkparet-checkout/internal/service"
	"github.com/go-chi/chi/v5"
)

// In-memory repositories with the same semantics as the Mongo ones, so the
// handlers can be exercised over a real router without a database.

type memCartRepo struct {
	m     sync.Mutex
	carts map[string]*domain.Cart
}

func newMemCartRepo() *memCartRepo {
	return &memCartRepo{carts: make(map[string]*domain.Cart)}
}

func (r *memCartRepo) GetCart(_ context.Context, sessionID string) (*domain.Cart, error) {
	r.m.Lock()
	defer r.m.Unlock()
	cart, ok := r.carts[sessionID]
	if !ok {
		return nil, repository.ErrCartNotFound
	}
	copied := *cart
	copied.Lines = append([]domain.CartLine(nil), cart.Lines...)
	return &copied, nil
}

func (r *memCartRepo) AddLine(_ context.Context, sessionID string, line domain.CartLine) error {
	r.m.Lock()
	defer r.m.Unlock()
	cart, ok := r.carts[sessionID]
	if !ok {
		cart = &domain.Cart{SessionID: sessionID, CreatedAt: time.Now()}
		r.carts[sessionID] = cart
	}
	if match := cart.FindLine(line.ProductID, line.VariantID); match != nil {
		match.Quantity += line.Quantity
		return nil
	}
	cart.Lines = append(cart.Lines, line)
	return nil
}

func (r *memCartRepo) UpdateLineQuantity(_ context.Context, sessionID, lineID string, quantity int) error {
	r.m.Lock()
	defer r.m.Unlock()
	cart, ok := r.carts[sessionID]
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

func (r *memCartRepo) RemoveLine(_ context.Context, sessionID, lineID string) error {
	return r.UpdateLineQuantity(context.Background(), sessionID, lineID, 0)
}

func (r *memCartRepo) SetCustomerInfo(_ context.Context, sessionID string, info domain.CustomerInfo) error {
	r.m.Lock()
	defer r.m.Unlock()
	cart, ok := r.carts[sessionID]
	if !ok {
		return repository.ErrCartNotFound
	}
	cart.Customer = &info
	return nil
}

func (r *memCartRepo) SetShippingAddress(_ context.Context, sessionID string, addr domain.Address) error {
	r.m.Lock()
	defer r.m.Unlock()
	cart, ok := r.carts[sessionID]
	if !ok {
		return repository.ErrCartNotFound
	}
	cart.Shipping = &addr
	return nil
}

func (r *memCartRepo) DeleteCart(_ context.Context, sessionID string) error {
	r.m.Lock()
	defer r.m.Unlock()
	if _, ok := r.carts[sessionID]; !ok {
		return repository.ErrCartNotFound
	}
	delete(r.carts, sessionID)
	return nil
}

type memCheckoutRepo struct {
	m        sync.Mutex
	sessions map[string]*domain.CheckoutSession
}

func newMemCheckoutRepo() *memCheckoutRepo {
	return &memCheckoutRepo{sessions: make(map[string]*domain.CheckoutSession)}
}

func (r *memCheckoutRepo) GetSession(_ context.Context, checkoutID string) (*domain.CheckoutSession, error) {
	r.m.Lock()
	defer r.m.Unlock()
	session, ok := r.sessions[checkoutID]
	if !ok {
		return nil, repository.ErrSessionNotFound
	}
	copied := *session
	return &copied, nil
}

func (r *memCheckoutRepo) GetSessionBySessionID(_ context.Context, sessionID string) (*domain.CheckoutSession, error) {
	r.m.Lock()
	defer r.m.Unlock()
	for _, session := range r.sessions {
		if session.SessionID == sessionID {
			copied := *session
			return &copied, nil
		}
	}
	return nil, repository.ErrSessionNotFound
}

func (r *memCheckoutRepo) SaveSession(_ context.Context, session *domain.CheckoutSession) error {
	r.m.Lock()
	defer r.m.Unlock()
	copied := *session
	r.sessions[session.ID] = &copied
	return nil
}

func (r *memCheckoutRepo) AcquireSubmitLock(_ context.Context, checkoutID string) error {
	r.m.Lock()
	defer r.m.Unlock()
	session, ok := r.sessions[checkoutID]
	if !ok {
		return repository.ErrSessionNotFound
	}
	if session.Submitting {
		return repository.ErrAlreadySubmitting
	}
	session.Submitting = true
	return nil
}

func (r *memCheckoutRepo) ReleaseSubmitLock(_ context.Context, checkoutID string) error {
	r.m.Lock()
	defer r.m.Unlock()
	session, ok := r.sessions[checkoutID]
	if !ok {
		return repository.ErrSessionNotFound
	}
	session.Submitting = false
	return nil
}

type noCache struct{}

func (noCache) Get(context.Context, string) (*domain.Cart, error) {
	return nil, cache.ErrCacheMiss
}
func (noCache) Set(context.Context, string, *domain.Cart) error { return nil }
func (noCache) Delete(context.Context, string) error            { return nil }

type stubGateway struct {
	m      sync.Mutex
	calls  int
	record *domain.OrderRecord
	err    error
}

func (g *stubGateway) SubmitOrder(_ context.Context, _ *domain.OrderPayload, _ string) (*domain.OrderRecord, error) {
	g.m.Lock()
	defer g.m.Unlock()
	g.calls++
	if g.err != nil {
		return nil, g.err
	}
	return g.record, nil
}

func newTestRouter(gw service.OrderGateway) http.Handler {
	cartService := service.NewCartService(newMemCartRepo(), noCache{}, domain.PricingPolicy{FlatShipping: 50})
	checkoutService := service.NewCheckoutService(cartService, newMemCheckoutRepo(), gw)

	cartHandler := NewCartHandler(cartService, 5*time.Second)
	checkoutHandler := NewCheckoutHandler(checkoutService, 5*time.Second)

	r := chi.NewRouter()
	r.Use(SessionMiddleware)
	r.Use(AuthMiddleware)
	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/cart", func(r chi.Router) {
			r.Get("/", cartHandler.GetCart)
			r.Delete("/", cartHandler.ClearCart)
			r.Post("/items", cartHandler.AddItem)
			r.Put("/items/{line_id}", cartHandler.UpdateQuantity)
			r.Delete("/items/{line_id}", cartHandler.RemoveItem)
		})
		r.Route("/checkout", func(r chi.Router) {
			r.Post("/", checkoutHandler.Start)
			r.Get("/", checkoutHandler.Current)
			r.Route("/{checkout_id}", func(r chi.Router) {
				r.Get("/", checkoutHandler.Get)
				r.Post("/customer", checkoutHandler.SubmitCustomerInfo)
				r.Post("/shipping", checkoutHandler.SubmitShipping)
				r.Post("/payment", checkoutHandler.SubmitPayment)
				r.Post("/submit", checkoutHandler.Submit)
				r.Post("/back", checkoutHandler.Back)
			})
		})
	})
	return r
}
