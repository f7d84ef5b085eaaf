package service

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dmoraru/floraria/internal/core/domain"
)

func validOrder() domain.Order {
	return domain.Order{
		ClientName:    "Ana Popescu",
		ClientEmail:   "ana.popescu@example.com",
		ClientPhone:   "+40712345678",
		ClientAddress: "Str Unirii 10",
		Products: []domain.OrderProduct{
			{ProductID: "red-rose", Title: "Red Rose", Price: ron("8.50"), Quantity: 3},
		},
	}
}

func TestValidateOrder(t *testing.T) {
	tests := []struct {
		name        string
		mutate      func(*domain.Order)
		wantValid   bool
		wantMessage string
	}{
		{
			name:      "valid order",
			mutate:    func(o *domain.Order) {},
			wantValid: true,
		},
		{
			name:        "phone too short",
			mutate:      func(o *domain.Order) { o.ClientPhone = "12345" },
			wantMessage: "invalid phone number",
		},
		{
			name:        "phone with letters",
			mutate:      func(o *domain.Order) { o.ClientPhone = "+40712abc678" },
			wantMessage: "invalid phone number",
		},
		{
			name:      "phone without plus",
			mutate:    func(o *domain.Order) { o.ClientPhone = "0712345678" },
			wantValid: true,
		},
		{
			name:        "address too short",
			mutate:      func(o *domain.Order) { o.ClientAddress = "Str X" },
			wantMessage: "address is too short",
		},
		{
			name:        "name too short",
			mutate:      func(o *domain.Order) { o.ClientName = "A" },
			wantMessage: "name is too short",
		},
		{
			name:        "bad email",
			mutate:      func(o *domain.Order) { o.ClientEmail = "not-an-email" },
			wantMessage: "invalid email address",
		},
		{
			name:        "no products",
			mutate:      func(o *domain.Order) { o.Products = nil },
			wantMessage: "order has no products",
		},
		{
			name:        "notes too long",
			mutate:      func(o *domain.Order) { o.Info = strings.Repeat("x", domain.MaxOrderInfoLen+1) },
			wantMessage: "delivery notes are too long",
		},
		{
			name: "phone checked before address",
			mutate: func(o *domain.Order) {
				o.ClientPhone = "12345"
				o.ClientAddress = "x"
			},
			wantMessage: "invalid phone number",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			order := validOrder()
			tt.mutate(&order)

			result := ValidateOrder(order)
			assert.Equal(t, tt.wantValid, result.Valid)
			assert.Equal(t, tt.wantMessage, result.Message)
		})
	}
}
