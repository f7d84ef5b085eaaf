// Package payment talks to the card payment gateway: creating hosted
// payment sessions and verifying their outcome server-to-server.
package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/dmoraru/floraria/internal/core/domain"
	"github.com/dmoraru/floraria/internal/port"
)

type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

func NewClient(baseURL, apiKey string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		http:    &http.Client{Timeout: timeout},
	}
}

type redirectItem struct {
	Title    string          `json:"title"`
	Price    decimal.Decimal `json:"price"`
	Quantity int             `json:"quantity"`
}

type redirectRequest struct {
	Items       []redirectItem  `json:"items"`
	Amount      decimal.Decimal `json:"amount"`
	Currency    string          `json:"currency"`
	ClientName  string          `json:"client_name"`
	ClientEmail string          `json:"client_email"`
	ReturnURL   string          `json:"return_url"`
	CancelURL   string          `json:"cancel_url"`
}

type redirectResponse struct {
	RedirectURL string `json:"redirect_url"`
	PaymentID   string `json:"payment_id"`
}

func (c *Client) CreateRedirect(ctx context.Context, order domain.Order, returnURL, cancelURL string) (port.RedirectSession, error) {
	items := make([]redirectItem, 0, len(order.Products))
	for _, p := range order.Products {
		items = append(items, redirectItem{
			Title:    p.Title,
			Price:    p.Price.Amount,
			Quantity: p.Quantity,
		})
	}

	reqBody := redirectRequest{
		Items:       items,
		Amount:      order.TotalPrice.Amount,
		Currency:    order.TotalPrice.Currency.String(),
		ClientName:  order.ClientName,
		ClientEmail: order.ClientEmail,
		ReturnURL:   returnURL,
		CancelURL:   cancelURL,
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return port.RedirectSession{}, fmt.Errorf("marshal redirect request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/payments", bytes.NewReader(body))
	if err != nil {
		return port.RedirectSession{}, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return port.RedirectSession{}, fmt.Errorf("create payment: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return port.RedirectSession{}, fmt.Errorf("gateway returned status %d", resp.StatusCode)
	}

	var redirect redirectResponse
	if err := json.NewDecoder(resp.Body).Decode(&redirect); err != nil {
		return port.RedirectSession{}, fmt.Errorf("decode redirect response: %w", err)
	}
	if redirect.RedirectURL == "" || redirect.PaymentID == "" {
		return port.RedirectSession{}, fmt.Errorf("gateway response missing redirect url or payment id")
	}

	return port.RedirectSession{
		RedirectURL: redirect.RedirectURL,
		PaymentID:   redirect.PaymentID,
	}, nil
}

type statusResponse struct {
	Status string `json:"status"`
}

func (c *Client) VerifyPayment(ctx context.Context, paymentID string) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.baseURL+"/payments/"+paymentID, nil)
	if err != nil {
		return false, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return false, fmt.Errorf("verify payment: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return false, fmt.Errorf("gateway returned status %d", resp.StatusCode)
	}

	var status statusResponse
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		return false, fmt.Errorf("decode status response: %w", err)
	}

	return status.Status == "paid", nil
}
