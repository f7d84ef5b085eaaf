package port

import "context"

type CacheRepository interface {
	// ReserveStock atomically decreases the free-stock counter for a
	// simple product, returns false if insufficient
	ReserveStock(ctx context.Context, productID string, quantity int) (bool, error)

	// ReleaseStock restores reserved stock (cancelled or expired card flow)
	ReleaseStock(ctx context.Context, productID string, quantity int) error

	// SetIdempotency sets a key for idempotency check, returns false if already exists
	SetIdempotency(ctx context.Context, key string) (bool, error)

	// DeleteIdempotency drops a key so a failed submission can be
	// retried with the same request ID
	DeleteIdempotency(ctx context.Context, key string) error
}
