package domain

import "github.com/shopspring/decimal"

// ComponentRef points at a simple product consumed by a composed
// product, e.g. a bouquet using 7 red roses.
type ComponentRef struct {
	ProductID string
	Quantity  int
}

type CartItem struct {
	ProductID   string
	Title       string
	Price       Money
	Category    string
	Quantity    int
	Composition []ComponentRef
	Image       string
}

type Cart struct {
	SessionID string
	Items     []CartItem
}

func (c Cart) Total() Money {
	total := NewMoney(decimal.Zero)
	for _, item := range c.Items {
		total = total.Add(item.Price.Mul(item.Quantity))
	}
	return total
}

func (c Cart) IsEmpty() bool {
	return len(c.Items) == 0
}
