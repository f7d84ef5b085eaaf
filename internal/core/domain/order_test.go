package domain

import (
	"fmt"
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func fakeOrderProduct() OrderProduct {
	price := decimal.NewFromFloat(gofakeit.Price(1, 200)).Round(2)
	return OrderProduct{
		ProductID: gofakeit.UUID(),
		Title:     gofakeit.ProductName(),
		Price:     NewMoney(price),
		Quantity:  gofakeit.Number(1, 10),
	}
}

func fakeOrder(lines int) Order {
	products := make([]OrderProduct, 0, lines)
	for i := 0; i < lines; i++ {
		products = append(products, fakeOrderProduct())
	}
	return Order{
		ID:            uuid.NewString(),
		ClientName:    gofakeit.Name(),
		ClientEmail:   gofakeit.Email(),
		ClientPhone:   fmt.Sprintf("+407%08d", gofakeit.Number(0, 99999999)),
		ClientAddress: gofakeit.Street(),
		OrderDate:     time.Now(),
		Status:        OrderStatusPending,
		Confirmation:  ConfirmationPending,
		PaymentMethod: PaymentMethodRamburs,
		Products:      products,
	}
}

func TestOrderTotal(t *testing.T) {
	order := fakeOrder(5)

	want := decimal.Zero
	for _, p := range order.Products {
		want = want.Add(p.Price.Amount.Mul(decimal.NewFromInt(int64(p.Quantity))))
	}

	total := order.Total()
	assert.True(t, total.Amount.Equal(want), "want %s got %s", want, total.Amount)
	assert.Equal(t, RON, total.Currency)
}

func TestOrderTotal_Empty(t *testing.T) {
	total := Order{}.Total()
	assert.True(t, total.Amount.IsZero())
	assert.Equal(t, RON, total.Currency)
}

func TestCartTotal_MatchesOrderTotal(t *testing.T) {
	order := fakeOrder(3)

	items := make([]CartItem, 0, len(order.Products))
	for _, p := range order.Products {
		items = append(items, CartItem{
			ProductID: p.ProductID,
			Title:     p.Title,
			Price:     p.Price,
			Quantity:  p.Quantity,
		})
	}
	cart := Cart{SessionID: uuid.NewString(), Items: items}

	assert.True(t, cart.Total().Amount.Equal(order.Total().Amount))
	assert.False(t, cart.IsEmpty())
	assert.True(t, Cart{}.IsEmpty())
}

func TestPendingOrderExpired(t *testing.T) {
	now := time.Now()
	pending := PendingOrder{
		Order:     fakeOrder(1),
		PaymentID: gofakeit.UUID(),
		CreatedAt: now,
	}

	assert.False(t, pending.Expired(now.Add(29*time.Minute)))
	assert.True(t, pending.Expired(now.Add(31*time.Minute)))
}

func TestMoneyOps(t *testing.T) {
	m := NewMoney(decimal.RequireFromString("7.50"))

	assert.True(t, m.Mul(4).Amount.Equal(decimal.RequireFromString("30")))
	assert.True(t, m.Add(NewMoney(decimal.RequireFromString("2.50"))).Amount.Equal(decimal.RequireFromString("10")))
	assert.False(t, m.IsNegative())
	assert.True(t, NewMoney(decimal.RequireFromString("-1")).IsNegative())
}

func TestProductIsComposed(t *testing.T) {
	simple := Product{ID: "red-rose"}
	assert.False(t, simple.IsComposed())

	bouquet := Product{ID: "spring-bouquet", Composition: []ComponentRef{{ProductID: "red-rose", Quantity: 5}}}
	assert.True(t, bouquet.IsComposed())
}
