package port

import (
	"context"
	"errors"

	"github.com/dmoraru/floraria/internal/core/domain"
)

// ErrStockConflict reports that the transactional stock decrement
// found less stock than the earlier read-only check did.
var ErrStockConflict = errors.New("stock conflict")

type OrderRepository interface {
	// CreateOrder persists a new order and its line items in one
	// transaction, decrementing component stock with optimistic locking
	CreateOrder(ctx context.Context, order domain.Order) error

	// NextOrderNumber atomically reserves the next sequential order number
	NextOrderNumber(ctx context.Context) (int64, error)

	// GetOrder retrieves an order by ID, nil if absent
	GetOrder(ctx context.Context, id string) (*domain.Order, error)

	// ListOrders returns all orders, newest first
	ListOrders(ctx context.Context) ([]domain.Order, error)

	// UpdateStatus moves an order between delivery states
	UpdateStatus(ctx context.Context, id string, status domain.OrderStatus) error

	// MarkConfirmationSent flips the confirmation flag once the
	// notification email is through
	MarkConfirmationSent(ctx context.Context, id string) error
}

type ProductRepository interface {
	// GetProduct retrieves a product by ID, nil if absent
	GetProduct(ctx context.Context, id string) (*domain.Product, error)

	// GetProducts resolves a batch of product IDs; missing IDs are
	// simply absent from the result map
	GetProducts(ctx context.Context, ids []string) (map[string]domain.Product, error)

	// ListProducts returns the catalog
	ListProducts(ctx context.Context) ([]domain.Product, error)
}
