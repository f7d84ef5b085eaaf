package port

import (
	"context"

	"github.com/dmoraru/floraria/internal/core/domain"
)

// PendingStore holds staged card-payment orders between the gateway
// redirect and its confirmation callback. Entries carry a TTL; Get on
// an expired or missing entry returns nil.
type PendingStore interface {
	PutPending(ctx context.Context, sessionID string, pending domain.PendingOrder) error
	GetPending(ctx context.Context, sessionID string) (*domain.PendingOrder, error)
	DeletePending(ctx context.Context, sessionID string) error
}
