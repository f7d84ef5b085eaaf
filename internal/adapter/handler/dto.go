package handler

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"

	"github.com/dmoraru/floraria/internal/core/domain"
	"github.com/dmoraru/floraria/internal/core/service"
)

type componentDTO struct {
	ID       string `json:"id"`
	Quantity int    `json:"quantity"`
}

type cartItemDTO struct {
	ID          string          `json:"id"`
	Title       string          `json:"title"`
	Price       decimal.Decimal `json:"price"`
	Currency    string          `json:"currency,omitempty"`
	Category    string          `json:"category,omitempty"`
	Quantity    int             `json:"quantity"`
	Composition []componentDTO  `json:"composition,omitempty"`
	Image       string          `json:"image,omitempty"`
}

func (d cartItemDTO) toDomain() (domain.CartItem, error) {
	unit := domain.RON
	if d.Currency != "" {
		parsed, err := currency.ParseISO(d.Currency)
		if err != nil {
			return domain.CartItem{}, fmt.Errorf("currency[%s] is not valid", d.Currency)
		}
		unit = parsed
	}

	composition := make([]domain.ComponentRef, 0, len(d.Composition))
	for _, comp := range d.Composition {
		composition = append(composition, domain.ComponentRef{ProductID: comp.ID, Quantity: comp.Quantity})
	}
	if len(composition) == 0 {
		composition = nil
	}

	return domain.CartItem{
		ProductID:   d.ID,
		Title:       d.Title,
		Price:       domain.Money{Amount: d.Price, Currency: unit},
		Category:    d.Category,
		Quantity:    d.Quantity,
		Composition: composition,
		Image:       d.Image,
	}, nil
}

func cartItemsFromDTO(dtos []cartItemDTO) ([]domain.CartItem, error) {
	items := make([]domain.CartItem, 0, len(dtos))
	for _, dto := range dtos {
		item, err := dto.toDomain()
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}

func cartItemToDTO(item domain.CartItem) cartItemDTO {
	composition := make([]componentDTO, 0, len(item.Composition))
	for _, comp := range item.Composition {
		composition = append(composition, componentDTO{ID: comp.ProductID, Quantity: comp.Quantity})
	}
	if len(composition) == 0 {
		composition = nil
	}

	return cartItemDTO{
		ID:          item.ProductID,
		Title:       item.Title,
		Price:       item.Price.Amount,
		Currency:    item.Price.Currency.String(),
		Category:    item.Category,
		Quantity:    item.Quantity,
		Composition: composition,
		Image:       item.Image,
	}
}

type cartDTO struct {
	Items []cartItemDTO   `json:"items"`
	Total decimal.Decimal `json:"total"`
}

func cartResponse(items []domain.CartItem) cartDTO {
	cart := domain.Cart{Items: items}
	dtos := make([]cartItemDTO, 0, len(items))
	for _, item := range items {
		dtos = append(dtos, cartItemToDTO(item))
	}
	return cartDTO{Items: dtos, Total: cart.Total().Amount}
}

type checkoutRequest struct {
	RequestID     string `json:"request_id"`
	UserID        string `json:"user_id,omitempty"`
	ClientName    string `json:"client_name"`
	ClientEmail   string `json:"client_email"`
	ClientPhone   string `json:"client_phone"`
	ClientAddress string `json:"client_address"`
	DeliveryDate  string `json:"delivery_date,omitempty"`
	Info          string `json:"info,omitempty"`
}

func (r checkoutRequest) toDraft() (service.OrderDraft, error) {
	draft := service.OrderDraft{
		RequestID:     r.RequestID,
		UserID:        r.UserID,
		ClientName:    r.ClientName,
		ClientEmail:   r.ClientEmail,
		ClientPhone:   r.ClientPhone,
		ClientAddress: r.ClientAddress,
		Info:          r.Info,
	}
	if r.DeliveryDate != "" {
		date, err := time.Parse("2006-01-02", r.DeliveryDate)
		if err != nil {
			return service.OrderDraft{}, fmt.Errorf("delivery_date must be YYYY-MM-DD")
		}
		draft.DeliveryDate = &date
	}
	return draft, nil
}

type checkoutResponse struct {
	Success     bool   `json:"success"`
	Message     string `json:"message"`
	State       string `json:"state"`
	OrderNumber int64  `json:"order_number,omitempty"`
}

type orderProductDTO struct {
	ID       string          `json:"id"`
	Title    string          `json:"title"`
	Price    decimal.Decimal `json:"price"`
	Quantity int             `json:"quantity"`
}

type orderDTO struct {
	ID            string            `json:"id"`
	OrderNumber   int64             `json:"order_number"`
	UserID        string            `json:"user_id,omitempty"`
	ClientName    string            `json:"client_name"`
	ClientEmail   string            `json:"client_email"`
	ClientPhone   string            `json:"client_phone"`
	ClientAddress string            `json:"client_address"`
	OrderDate     time.Time         `json:"order_date"`
	DeliveryDate  *time.Time        `json:"delivery_date,omitempty"`
	Info          string            `json:"info,omitempty"`
	Status        string            `json:"status"`
	Confirmation  string            `json:"confirmation"`
	TotalPrice    decimal.Decimal   `json:"total_price"`
	Currency      string            `json:"currency"`
	PaymentMethod string            `json:"payment_method"`
	Products      []orderProductDTO `json:"products"`
}

func orderToDTO(order domain.Order) orderDTO {
	products := make([]orderProductDTO, 0, len(order.Products))
	for _, p := range order.Products {
		products = append(products, orderProductDTO{
			ID:       p.ProductID,
			Title:    p.Title,
			Price:    p.Price.Amount,
			Quantity: p.Quantity,
		})
	}

	return orderDTO{
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
	}
}

type productDTO struct {
	ID          string          `json:"id"`
	Title       string          `json:"title"`
	Price       decimal.Decimal `json:"price"`
	Currency    string          `json:"currency"`
	Category    string          `json:"category"`
	Stock       int             `json:"stock"`
	Composition []componentDTO  `json:"composition,omitempty"`
	Image       string          `json:"image,omitempty"`
}

func productToDTO(product domain.Product) productDTO {
	composition := make([]componentDTO, 0, len(product.Composition))
	for _, comp := range product.Composition {
		composition = append(composition, componentDTO{ID: comp.ProductID, Quantity: comp.Quantity})
	}
	if len(composition) == 0 {
		composition = nil
	}

	return productDTO{
		ID:          product.ID,
		Title:       product.Title,
		Price:       product.Price.Amount,
		Currency:    product.Price.Currency.String(),
		Category:    product.Category,
		Stock:       product.Stock,
		Composition: composition,
		Image:       product.Image,
	}
}
