package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmoraru/floraria/internal/core/domain"
	"github.com/dmoraru/floraria/internal/port"
)

var (
	ErrInvalidQuantity = errors.New("quantity must be at least 1")
	ErrNegativePrice   = errors.New("price must not be negative")
)

// CartService keeps one cart per storefront session over an injected
// key-value store. Every mutation persists the resulting item list
// synchronously; no stock validation happens here.
type CartService struct {
	store port.CartStore
}

func NewCartService(store port.CartStore) *CartService {
	return &CartService{store: store}
}

func (s *CartService) Items(ctx context.Context, sessionID string) ([]domain.CartItem, error) {
	items, err := s.store.LoadCart(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("load cart: %w", err)
	}
	return items, nil
}

// AddItem merges the quantity into an existing line with the same
// product ID, or appends a new line.
func (s *CartService) AddItem(ctx context.Context, sessionID string, item domain.CartItem) error {
	if item.Quantity < 1 {
		return ErrInvalidQuantity
	}
	if item.Price.IsNegative() {
		return ErrNegativePrice
	}

	items, err := s.store.LoadCart(ctx, sessionID)
	if err != nil {
		return fmt.Errorf("load cart: %w", err)
	}

	merged := false
	for i := range items {
		if items[i].ProductID == item.ProductID {
			items[i].Quantity += item.Quantity
			merged = true
			break
		}
	}
	if !merged {
		items = append(items, item)
	}

	return s.save(ctx, sessionID, items)
}

func (s *CartService) RemoveItem(ctx context.Context, sessionID, productID string) error {
	items, err := s.store.LoadCart(ctx, sessionID)
	if err != nil {
		return fmt.Errorf("load cart: %w", err)
	}

	kept := items[:0]
	for _, item := range items {
		if item.ProductID != productID {
			kept = append(kept, item)
		}
	}

	return s.save(ctx, sessionID, kept)
}

// UpdateQuantity sets the line quantity, clamped to a minimum of 1.
// Unknown product IDs are a no-op.
func (s *CartService) UpdateQuantity(ctx context.Context, sessionID, productID string, quantity int) error {
	if quantity < 1 {
		quantity = 1
	}

	items, err := s.store.LoadCart(ctx, sessionID)
	if err != nil {
		return fmt.Errorf("load cart: %w", err)
	}

	for i := range items {
		if items[i].ProductID == productID {
			items[i].Quantity = quantity
			break
		}
	}

	return s.save(ctx, sessionID, items)
}

func (s *CartService) Clear(ctx context.Context, sessionID string) error {
	if err := s.store.DeleteCart(ctx, sessionID); err != nil {
		return fmt.Errorf("delete cart: %w", err)
	}
	return nil
}

// SetItems replaces the whole cart, used to hydrate a session from a
// client-held copy.
func (s *CartService) SetItems(ctx context.Context, sessionID string, items []domain.CartItem) error {
	for _, item := range items {
		if item.Quantity < 1 {
			return ErrInvalidQuantity
		}
		if item.Price.IsNegative() {
			return ErrNegativePrice
		}
	}
	return s.save(ctx, sessionID, items)
}

func (s *CartService) save(ctx context.Context, sessionID string, items []domain.CartItem) error {
	if err := s.store.SaveCart(ctx, sessionID, items); err != nil {
		return fmt.Errorf("save cart: %w", err)
	}
	return nil
}
