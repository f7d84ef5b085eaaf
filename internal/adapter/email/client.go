// Package email wraps the outbound email provider endpoint that
// delivers order confirmations.
package email

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/dmoraru/floraria/internal/core/domain"
)

type Client struct {
	baseURL string
	http    *http.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
	}
}

type confirmationLine struct {
	Title    string          `json:"title"`
	Price    decimal.Decimal `json:"price"`
	Quantity int             `json:"quantity"`
}

type confirmationPayload struct {
	ClientEmail  string             `json:"client_email"`
	ClientName   string             `json:"client_name"`
	OrderNumber  int64              `json:"order_number"`
	Products     []confirmationLine `json:"products"`
	Total        decimal.Decimal    `json:"total"`
	Currency     string             `json:"currency"`
	Address      string             `json:"address"`
	DeliveryDate string             `json:"delivery_date,omitempty"`
	Info         string             `json:"info,omitempty"`
}

func (c *Client) SendOrderConfirmation(ctx context.Context, order domain.Order) error {
	lines := make([]confirmationLine, 0, len(order.Products))
	for _, p := range order.Products {
		lines = append(lines, confirmationLine{
			Title:    p.Title,
			Price:    p.Price.Amount,
			Quantity: p.Quantity,
		})
	}

	payload := confirmationPayload{
		ClientEmail: order.ClientEmail,
		ClientName:  order.ClientName,
		OrderNumber: order.OrderNumber,
		Products:    lines,
		Total:       order.TotalPrice.Amount,
		Currency:    order.TotalPrice.Currency.String(),
		Address:     order.ClientAddress,
		Info:        order.Info,
	}
	if order.DeliveryDate != nil {
		payload.DeliveryDate = order.DeliveryDate.Format("2006-01-02")
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal confirmation: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/send/placed-order", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("send confirmation: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("email provider returned status %d", resp.StatusCode)
	}
	return nil
}
