package domain

import "time"

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusDelivered OrderStatus = "delivered"
)

type PaymentMethod string

const (
	PaymentMethodRamburs PaymentMethod = "ramburs" // cash on delivery
	PaymentMethodCard    PaymentMethod = "card"
)

type ConfirmationStatus string

const (
	// ConfirmationPending means the order row exists but the
	// confirmation email has not been delivered yet.
	ConfirmationPending ConfirmationStatus = "pending"
	ConfirmationSent    ConfirmationStatus = "sent"
)

// MaxOrderInfoLen bounds the free-form delivery notes field.
const MaxOrderInfoLen = 150

type OrderProduct struct {
	ProductID   string
	Title       string
	Price       Money
	Quantity    int
	Composition []ComponentRef
}

type Order struct {
	ID            string // UUID
	OrderNumber   int64  // server-assigned, monotonic
	UserID        string
	ClientName    string
	ClientEmail   string
	ClientPhone   string
	ClientAddress string
	OrderDate     time.Time
	DeliveryDate  *time.Time
	Info          string
	Status        OrderStatus
	Confirmation  ConfirmationStatus
	TotalPrice    Money
	PaymentMethod PaymentMethod
	Products      []OrderProduct
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Total recomputes the sum of line prices. TotalPrice is fixed at
// creation time; this helper exists for building it.
func (o Order) Total() Money {
	total := Money{Currency: RON}
	for _, p := range o.Products {
		total = total.Add(p.Price.Mul(p.Quantity))
	}
	return total
}

// PendingOrder stages a card-payment order between the redirect to
// the gateway and the confirmation callback. It never reaches the
// order collection until the payment is verified.
type PendingOrder struct {
	Order     Order
	PaymentID string
	CreatedAt time.Time
}

// PendingOrderTTL is how long a staged card order stays valid.
const PendingOrderTTL = 30 * time.Minute

func (p PendingOrder) Expired(now time.Time) bool {
	return now.Sub(p.CreatedAt) > PendingOrderTTL
}
