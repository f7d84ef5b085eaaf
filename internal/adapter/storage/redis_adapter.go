package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/dmoraru/floraria/internal/core/domain"
)

const (
	stockKeyPrefix    = "stock:"
	cartKeyPrefix     = "cart:"
	pendingKeyPrefix  = "pending:"
	idempotencyKeyTTL = 24 * time.Hour

	// pendingKeyTTL is a cleanup backstop only; the 30-minute business
	// expiry is enforced by domain.PendingOrder.Expired so that an
	// expired entry can still release its stock reservation.
	pendingKeyTTL = 24 * time.Hour
)

var reserveStockScript = redis.NewScript(`
local key = KEYS[1]
local quantity = tonumber(ARGV[1])

local current = redis.call('GET', key)
if not current then
	return 0
end

current = tonumber(current)
if current >= quantity then
	redis.call('DECRBY', key, quantity)
	return 1
end

return 0
`)

type RedisAdapter struct {
	client *redis.Client
}

func NewRedisAdapter(client *redis.Client) *RedisAdapter {
	return &RedisAdapter{client: client}
}

func (r *RedisAdapter) ReserveStock(ctx context.Context, productID string, quantity int) (bool, error) {
	key := stockKeyPrefix + productID

	result, err := reserveStockScript.Run(ctx, r.client, []string{key}, quantity).Int()
	if err != nil {
		return false, err
	}

	return result == 1, nil
}

func (r *RedisAdapter) ReleaseStock(ctx context.Context, productID string, quantity int) error {
	key := stockKeyPrefix + productID
	return r.client.IncrBy(ctx, key, int64(quantity)).Err()
}

func (r *RedisAdapter) SetIdempotency(ctx context.Context, key string) (bool, error) {
	ok, err := r.client.SetNX(ctx, key, 1, idempotencyKeyTTL).Result()
	if err != nil {
		return false, err
	}

	return ok, nil
}

func (r *RedisAdapter) DeleteIdempotency(ctx context.Context, key string) error {
	return r.client.Del(ctx, key).Err()
}

// SetStock seeds the free-stock counter, used at startup to mirror
// the database stock into the cache.
func (r *RedisAdapter) SetStock(ctx context.Context, productID string, quantity int) error {
	key := stockKeyPrefix + productID
	return r.client.Set(ctx, key, quantity, 0).Err()
}

func (r *RedisAdapter) SaveCart(ctx context.Context, sessionID string, items []domain.CartItem) error {
	records := make([]cartItemRecord, 0, len(items))
	for _, item := range items {
		records = append(records, cartItemToRecord(item))
	}

	data, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("marshal cart: %w", err)
	}

	return r.client.Set(ctx, cartKeyPrefix+sessionID, data, 0).Err()
}

func (r *RedisAdapter) LoadCart(ctx context.Context, sessionID string) ([]domain.CartItem, error) {
	data, err := r.client.Get(ctx, cartKeyPrefix+sessionID).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var records []cartItemRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("unmarshal cart: %w", err)
	}

	items := make([]domain.CartItem, 0, len(records))
	for _, record := range records {
		item, err := cartItemFromRecord(record)
		if err != nil {
			return nil, fmt.Errorf("cart item %s: %w", record.ProductID, err)
		}
		items = append(items, item)
	}

	return items, nil
}

func (r *RedisAdapter) DeleteCart(ctx context.Context, sessionID string) error {
	return r.client.Del(ctx, cartKeyPrefix+sessionID).Err()
}

func (r *RedisAdapter) PutPending(ctx context.Context, sessionID string, pending domain.PendingOrder) error {
	record := pendingOrderRecord{
		Order:     orderToRecord(pending.Order),
		PaymentID: pending.PaymentID,
		CreatedAt: pending.CreatedAt,
	}

	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("marshal pending order: %w", err)
	}

	return r.client.Set(ctx, pendingKeyPrefix+sessionID, data, pendingKeyTTL).Err()
}

func (r *RedisAdapter) GetPending(ctx context.Context, sessionID string) (*domain.PendingOrder, error) {
	data, err := r.client.Get(ctx, pendingKeyPrefix+sessionID).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var record pendingOrderRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("unmarshal pending order: %w", err)
	}

	order, err := orderFromRecord(record.Order)
	if err != nil {
		return nil, fmt.Errorf("pending order: %w", err)
	}

	return &domain.PendingOrder{
		Order:     order,
		PaymentID: record.PaymentID,
		CreatedAt: record.CreatedAt,
	}, nil
}

func (r *RedisAdapter) DeletePending(ctx context.Context, sessionID string) error {
	return r.client.Del(ctx, pendingKeyPrefix+sessionID).Err()
}
