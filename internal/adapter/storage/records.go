package storage

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"

	"github.com/dmoraru/floraria/internal/core/domain"
)

// Serialized shapes for Redis values. Money is flattened to amount +
// ISO currency code because currency.Unit has no JSON representation
// of its own.

type componentRecord struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

type cartItemRecord struct {
	ProductID   string            `json:"product_id"`
	Title       string            `json:"title"`
	Price       decimal.Decimal   `json:"price"`
	Currency    string            `json:"currency"`
	Category    string            `json:"category"`
	Quantity    int               `json:"quantity"`
	Composition []componentRecord `json:"composition,omitempty"`
	Image       string            `json:"image,omitempty"`
}

type orderProductRecord struct {
	ProductID   string            `json:"product_id"`
	Title       string            `json:"title"`
	Price       decimal.Decimal   `json:"price"`
	Currency    string            `json:"currency"`
	Quantity    int               `json:"quantity"`
	Composition []componentRecord `json:"composition,omitempty"`
}

type orderRecord struct {
	ID            string               `json:"id"`
	OrderNumber   int64                `json:"order_number"`
	UserID        string               `json:"user_id,omitempty"`
	ClientName    string               `json:"client_name"`
	ClientEmail   string               `json:"client_email"`
	ClientPhone   string               `json:"client_phone"`
	ClientAddress string               `json:"client_address"`
	OrderDate     time.Time            `json:"order_date"`
	DeliveryDate  *time.Time           `json:"delivery_date,omitempty"`
	Info          string               `json:"info,omitempty"`
	Status        string               `json:"status"`
	Confirmation  string               `json:"confirmation"`
	TotalPrice    decimal.Decimal      `json:"total_price"`
	Currency      string               `json:"currency"`
	PaymentMethod string               `json:"payment_method"`
	Products      []orderProductRecord `json:"products"`
	CreatedAt     time.Time            `json:"created_at"`
	UpdatedAt     time.Time            `json:"updated_at"`
}

type pendingOrderRecord struct {
	Order     orderRecord `json:"order"`
	PaymentID string      `json:"payment_id"`
	CreatedAt time.Time   `json:"created_at"`
}

func componentsToRecords(refs []domain.ComponentRef) []componentRecord {
	if len(refs) == 0 {
		return nil
	}
	records := make([]componentRecord, 0, len(refs))
	for _, ref := range refs {
		records = append(records, componentRecord{ProductID: ref.ProductID, Quantity: ref.Quantity})
	}
	return records
}

func componentsFromRecords(records []componentRecord) []domain.ComponentRef {
	if len(records) == 0 {
		return nil
	}
	refs := make([]domain.ComponentRef, 0, len(records))
	for _, record := range records {
		refs = append(refs, domain.ComponentRef{ProductID: record.ProductID, Quantity: record.Quantity})
	}
	return refs
}

func cartItemToRecord(item domain.CartItem) cartItemRecord {
	return cartItemRecord{
		ProductID:   item.ProductID,
		Title:       item.Title,
		Price:       item.Price.Amount,
		Currency:    item.Price.Currency.String(),
		Category:    item.Category,
		Quantity:    item.Quantity,
		Composition: componentsToRecords(item.Composition),
		Image:       item.Image,
	}
}

func cartItemFromRecord(record cartItemRecord) (domain.CartItem, error) {
	unit, err := currency.ParseISO(record.Currency)
	if err != nil {
		return domain.CartItem{}, fmt.Errorf("currency[%s] is not valid: %w", record.Currency, err)
	}

	return domain.CartItem{
		ProductID:   record.ProductID,
		Title:       record.Title,
		Price:       domain.Money{Amount: record.Price, Currency: unit},
		Category:    record.Category,
		Quantity:    record.Quantity,
		Composition: componentsFromRecords(record.Composition),
		Image:       record.Image,
	}, nil
}

func orderToRecord(order domain.Order) orderRecord {
	products := make([]orderProductRecord, 0, len(order.Products))
	for _, p := range order.Products {
		products = append(products, orderProductRecord{
			ProductID:   p.ProductID,
			Title:       p.Title,
			Price:       p.Price.Amount,
			Currency:    p.Price.Currency.String(),
			Quantity:    p.Quantity,
			Composition: componentsToRecords(p.Composition),
		})
	}

	return orderRecord{
		ID:            order.ID,
		OrderNumber:   order.OrderNumber,
		UserID:        order.UserID,
		ClientName:    order.ClientName,
		ClientEmail:   order.ClientEmail,
		ClientPhone:   order.ClientPhone,
		ClientAddress: order.ClientAddress,
		OrderDate:     order.OrderDate,
		DeliveryDate:  order.DeliveryDate,
		Info:          order.Info,
		Status:        string(order.Status),
		Confirmation:  string(order.Confirmation),
		TotalPrice:    order.TotalPrice.Amount,
		Currency:      order.TotalPrice.Currency.String(),
		PaymentMethod: string(order.PaymentMethod),
		Products:      products,
		CreatedAt:     order.CreatedAt,
		UpdatedAt:     order.UpdatedAt,
	}
}

func orderFromRecord(record orderRecord) (domain.Order, error) {
	unit, err := currency.ParseISO(record.Currency)
	if err != nil {
		return domain.Order{}, fmt.Errorf("currency[%s] is not valid: %w", record.Currency, err)
	}

	products := make([]domain.OrderProduct, 0, len(record.Products))
	for _, p := range record.Products {
		productUnit, err := currency.ParseISO(p.Currency)
		if err != nil {
			return domain.Order{}, fmt.Errorf("currency[%s] is not valid: %w", p.Currency, err)
		}
		products = append(products, domain.OrderProduct{
			ProductID:   p.ProductID,
			Title:       p.Title,
			Price:       domain.Money{Amount: p.Price, Currency: productUnit},
			Quantity:    p.Quantity,
			Composition: componentsFromRecords(p.Composition),
		})
	}

	return domain.Order{
		ID:            record.ID,
		OrderNumber:   record.OrderNumber,
		UserID:        record.UserID,
		ClientName:    record.ClientName,
		ClientEmail:   record.ClientEmail,
		ClientPhone:   record.ClientPhone,
		ClientAddress: record.ClientAddress,
		OrderDate:     record.OrderDate,
		DeliveryDate:  record.DeliveryDate,
		Info:          record.Info,
		Status:        domain.OrderStatus(record.Status),
		Confirmation:  domain.ConfirmationStatus(record.Confirmation),
		TotalPrice:    domain.Money{Amount: record.TotalPrice, Currency: unit},
		PaymentMethod: domain.PaymentMethod(record.PaymentMethod),
		Products:      products,
		CreatedAt:     record.CreatedAt,
		UpdatedAt:     record.UpdatedAt,
	}, nil
}
