package port

import (
	"context"

	"github.com/dmoraru/floraria/internal/core/domain"
)

// CartStore persists cart line items per storefront session. The
// production adapter is Redis; tests inject an in-memory map.
type CartStore interface {
	SaveCart(ctx context.Context, sessionID string, items []domain.CartItem) error
	LoadCart(ctx context.Context, sessionID string) ([]domain.CartItem, error)
	DeleteCart(ctx context.Context, sessionID string) error
}
