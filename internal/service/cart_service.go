package service

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/Roma10boss/fenkparet-checkout/internal/cache"
	"github.com/Roma10boss/fenkparet-checkout/internal/domain"
	"github.com/Roma10boss/fenkparet-checkout/internal/repository"
	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"
)

// CartService is the single writer of cart state. Everything else, the wizard
// included, goes through it.
type CartService struct {
	repo   repository.CartRepository
	cache  cache.CartCache
	policy domain.PricingPolicy
	sfg    singleflight.Group // Prevents cache stampede
}

func NewCartService(repo repository.CartRepository, cache cache.CartCache, policy domain.PricingPolicy) *CartService {
	return &CartService{
		repo:   repo,
		cache:  cache,
		policy: policy,
	}
}

func (s *CartService) GetCart(ctx context.Context, sessionID string) (*domain.Cart, error) {
	// Use singleflight to prevent multiple concurrent cache misses for same key
	v, err, _ := s.sfg.Do(sessionID, func() (interface{}, error) {

		cart, err := s.cache.Get(ctx, sessionID)
		if err == nil {
			return cart, nil // cart is in cache
		}

		if !errors.Is(err, cache.ErrCacheMiss) {
			log.Printf("cache get error: %v", err) // log cache error but continue
		}

		cart, errGet := s.repo.GetCart(ctx, sessionID)
		if errGet != nil && errors.Is(errGet, repository.ErrCartNotFound) { // not found cart return empty cart
			return &domain.Cart{
				SessionID: sessionID,
				Lines:     nil,
				CreatedAt: time.Now(),
				UpdatedAt: time.Now(),
			}, nil
		}
		if errGet != nil {
			return nil, errGet // err from repo is not cache miss, return it
		}

		// set cache
		go func() {
			errSet := s.cache.Set(context.Background(), sessionID, cart)
			if errSet != nil {
				log.Printf("cache set error: %v", errSet)
			}
		}()

		return cart, nil // cart was not in cache, return it from repo
	})

	if err != nil {
		return nil, err
	}

	return v.(*domain.Cart), nil
}

// AddItem inserts a new line or merges into an existing (product, variant)
// line. Quantity is clamped to at least one; adding is never an error state.
func (s *CartService) AddItem(ctx context.Context, sessionID string, line domain.CartLine) error {
	if line.Quantity < 1 {
		line.Quantity = 1
	}
	if line.LineID == "" {
		line.LineID = uuid.NewString()
	}

	errAdd := s.repo.AddLine(ctx, sessionID, line)
	if errAdd != nil {
		log.Printf("repo add line error: %v", errAdd)
		return errAdd
	}

	s.invalidateCache(sessionID)
	return nil
}

// UpdateQuantity sets a line's quantity; zero or below removes the line.
func (s *CartService) UpdateQuantity(ctx context.Context, sessionID, lineID string, quantity int) error {
	errUpdate := s.repo.UpdateLineQuantity(ctx, sessionID, lineID, quantity)
	if errUpdate != nil {
		log.Printf("repo update line quantity error: %v", errUpdate)
		return errUpdate
	}

	s.invalidateCache(sessionID)
	return nil
}

func (s *CartService) RemoveItem(ctx context.Context, sessionID, lineID string) error {
	errRemove := s.repo.RemoveLine(ctx, sessionID, lineID)
	if errRemove != nil {
		log.Printf("repo remove line error: %v", errRemove)
		return errRemove
	}

	s.invalidateCache(sessionID)
	return nil
}

// Clear drops the cart and its drafts. Called exactly once per checkout,
// right after a successful order submission.
func (s *CartService) Clear(ctx context.Context, sessionID string) error {
	errDelete := s.repo.DeleteCart(ctx, sessionID)
	if errDelete != nil && !errors.Is(errDelete, repository.ErrCartNotFound) {
		log.Printf("repo delete cart error: %v", errDelete)
		return errDelete
	}

	s.invalidateCache(sessionID)
	return nil
}

func (s *CartService) SetCustomerInfo(ctx context.Context, sessionID string, info domain.CustomerInfo) error {
	errSet := s.repo.SetCustomerInfo(ctx, sessionID, info)
	if errSet != nil {
		log.Printf("repo set customer info error: %v", errSet)
		return errSet
	}

	s.invalidateCache(sessionID)
	return nil
}

func (s *CartService) SetShippingAddress(ctx context.Context, sessionID string, addr domain.Address) error {
	errSet := s.repo.SetShippingAddress(ctx, sessionID, addr)
	if errSet != nil {
		log.Printf("repo set shipping address error: %v", errSet)
		return errSet
	}

	s.invalidateCache(sessionID)
	return nil
}

// Totals recomputes from the current lines on every call so the numbers
// always reflect the latest edits.
func (s *CartService) Totals(ctx context.Context, sessionID string) (domain.Totals, error) {
	cart, err := s.GetCart(ctx, sessionID)
	if err != nil {
		return domain.Totals{}, err
	}
	return domain.ComputeTotals(cart.Lines, s.policy), nil
}

func (s *CartService) IsEmpty(ctx context.Context, sessionID string) (bool, error) {
	cart, err := s.GetCart(ctx, sessionID)
	if err != nil {
		return false, err
	}
	return cart.IsEmpty(), nil
}

func (s *CartService) Policy() domain.PricingPolicy {
	return s.policy
}

func (s *CartService) invalidateCache(sessionID string) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	errInvalidate := s.cache.Delete(ctx, sessionID)
	if errInvalidate != nil {
		log.Printf("cache invalidate error: %v", errInvalidate)
	}
}
