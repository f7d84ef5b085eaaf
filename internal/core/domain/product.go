package domain

import "time"

// Product is a catalog entry. Simple products (single flowers,
// accessories) carry their own stock. Composed products (bouquets,
// arrangements) carry no stock of their own; availability is derived
// from the stock of their composition components.
type Product struct {
	ID          string
	Title       string
	Price       Money
	Category    string
	Stock       int
	Version     int // optimistic locking
	Composition []ComponentRef
	Image       string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (p Product) IsComposed() bool {
	return len(p.Composition) > 0
}
