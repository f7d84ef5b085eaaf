package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmoraru/floraria/internal/core/domain"
)

func rose(quantity int) domain.CartItem {
	return domain.CartItem{
		ProductID: "red-rose",
		Title:     "Red Rose",
		Price:     ron("8.50"),
		Category:  "flowers",
		Quantity:  quantity,
	}
}

func TestAddItem_MergesQuantity(t *testing.T) {
	store := newMemCartStore()
	carts := NewCartService(store)
	ctx := t.Context()

	require.NoError(t, carts.AddItem(ctx, "sess-1", rose(2)))
	require.NoError(t, carts.AddItem(ctx, "sess-1", rose(3)))

	items, err := carts.Items(ctx, "sess-1")
	require.NoError(t, err)
	require.Len(t, items, 1, "same product must not create a duplicate line")
	assert.Equal(t, 5, items[0].Quantity)
}

func TestAddItem_AppendsNewProduct(t *testing.T) {
	store := newMemCartStore()
	carts := NewCartService(store)
	ctx := t.Context()

	require.NoError(t, carts.AddItem(ctx, "sess-1", rose(1)))

	tulip := domain.CartItem{ProductID: "tulip", Title: "Tulip", Price: ron("5.00"), Quantity: 2}
	require.NoError(t, carts.AddItem(ctx, "sess-1", tulip))

	items, err := carts.Items(ctx, "sess-1")
	require.NoError(t, err)
	assert.Len(t, items, 2)
}

func TestAddItem_RejectsInvalid(t *testing.T) {
	store := newMemCartStore()
	carts := NewCartService(store)
	ctx := t.Context()

	err := carts.AddItem(ctx, "sess-1", rose(0))
	assert.ErrorIs(t, err, ErrInvalidQuantity)

	bad := rose(1)
	bad.Price = ron("-1")
	err = carts.AddItem(ctx, "sess-1", bad)
	assert.ErrorIs(t, err, ErrNegativePrice)
}

func TestUpdateQuantity_ClampsToOne(t *testing.T) {
	store := newMemCartStore()
	carts := NewCartService(store)
	ctx := t.Context()

	require.NoError(t, carts.AddItem(ctx, "sess-1", rose(4)))

	require.NoError(t, carts.UpdateQuantity(ctx, "sess-1", "red-rose", 0))
	items, err := carts.Items(ctx, "sess-1")
	require.NoError(t, err)
	assert.Equal(t, 1, items[0].Quantity, "quantity must never drop below 1")

	require.NoError(t, carts.UpdateQuantity(ctx, "sess-1", "red-rose", -7))
	items, err = carts.Items(ctx, "sess-1")
	require.NoError(t, err)
	assert.Equal(t, 1, items[0].Quantity)

	require.NoError(t, carts.UpdateQuantity(ctx, "sess-1", "red-rose", 9))
	items, err = carts.Items(ctx, "sess-1")
	require.NoError(t, err)
	assert.Equal(t, 9, items[0].Quantity)
}

func TestRemoveItem(t *testing.T) {
	store := newMemCartStore()
	carts := NewCartService(store)
	ctx := t.Context()

	require.NoError(t, carts.AddItem(ctx, "sess-1", rose(1)))
	require.NoError(t, carts.RemoveItem(ctx, "sess-1", "red-rose"))

	items, err := carts.Items(ctx, "sess-1")
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestClear_EmptiesPersistedCopy(t *testing.T) {
	store := newMemCartStore()
	carts := NewCartService(store)
	ctx := t.Context()

	require.NoError(t, carts.AddItem(ctx, "sess-1", rose(1)))
	require.NoError(t, carts.Clear(ctx, "sess-1"))

	items, err := carts.Items(ctx, "sess-1")
	require.NoError(t, err)
	assert.Empty(t, items)

	store.mu.Lock()
	_, exists := store.carts["sess-1"]
	store.mu.Unlock()
	assert.False(t, exists, "clear must drop the persisted copy")
}

func TestSetItems_Hydrates(t *testing.T) {
	store := newMemCartStore()
	carts := NewCartService(store)
	ctx := t.Context()

	hydrated := []domain.CartItem{rose(2), {ProductID: "tulip", Title: "Tulip", Price: ron("5.00"), Quantity: 1}}
	require.NoError(t, carts.SetItems(ctx, "sess-1", hydrated))

	items, err := carts.Items(ctx, "sess-1")
	require.NoError(t, err)
	assert.Len(t, items, 2)

	err = carts.SetItems(ctx, "sess-1", []domain.CartItem{rose(0)})
	assert.ErrorIs(t, err, ErrInvalidQuantity)
}

func TestCarts_AreIsolatedPerSession(t *testing.T) {
	store := newMemCartStore()
	carts := NewCartService(store)
	ctx := t.Context()

	require.NoError(t, carts.AddItem(ctx, "sess-1", rose(1)))

	items, err := carts.Items(ctx, "sess-2")
	require.NoError(t, err)
	assert.Empty(t, items)
}
