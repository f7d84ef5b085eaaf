package port

import (
	"context"

	"github.com/dmoraru/floraria/internal/core/domain"
)

// Notifier delivers the order confirmation to the client. The
// production adapter wraps the outbound email provider endpoint.
type Notifier interface {
	SendOrderConfirmation(ctx context.Context, order domain.Order) error
}
