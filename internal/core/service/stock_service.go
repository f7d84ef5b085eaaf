package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmoraru/floraria/internal/core/domain"
	"github.com/dmoraru/floraria/internal/port"
)

var (
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrUnknownProduct    = errors.New("unknown product")
)

// StockService answers availability questions for cart line items.
// Read-only: the same check runs on the product page for a single
// item and again for the full cart before checkout.
type StockService struct {
	products port.ProductRepository
}

func NewStockService(products port.ProductRepository) *StockService {
	return &StockService{products: products}
}

// CheckComposition verifies that every line item can be fulfilled.
// Composed items (bouquets) need component stock >= component quantity
// x line quantity for each component; simple items check their own
// stock against the line quantity.
func (s *StockService) CheckComposition(ctx context.Context, items []domain.CartItem) error {
	for _, item := range items {
		if len(item.Composition) == 0 {
			if err := s.checkSimple(ctx, item.ProductID, item.Quantity); err != nil {
				return err
			}
			continue
		}

		ids := make([]string, 0, len(item.Composition))
		for _, comp := range item.Composition {
			ids = append(ids, comp.ProductID)
		}

		components, err := s.products.GetProducts(ctx, ids)
		if err != nil {
			return fmt.Errorf("resolve components: %w", err)
		}

		for _, comp := range item.Composition {
			product, ok := components[comp.ProductID]
			if !ok {
				return fmt.Errorf("component %s: %w", comp.ProductID, ErrUnknownProduct)
			}
			needed := comp.Quantity * item.Quantity
			if product.Stock < needed {
				return fmt.Errorf("component %s has %d in stock, need %d: %w",
					product.Title, product.Stock, needed, ErrInsufficientStock)
			}
		}
	}

	return nil
}

func (s *StockService) checkSimple(ctx context.Context, productID string, quantity int) error {
	product, err := s.products.GetProduct(ctx, productID)
	if err != nil {
		return fmt.Errorf("resolve product: %w", err)
	}
	if product == nil {
		return fmt.Errorf("product %s: %w", productID, ErrUnknownProduct)
	}
	if product.Stock < quantity {
		return fmt.Errorf("product %s has %d in stock, need %d: %w",
			product.Title, product.Stock, quantity, ErrInsufficientStock)
	}
	return nil
}
