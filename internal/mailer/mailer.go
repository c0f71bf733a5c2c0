package mailer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/Shivanshu999/casePlus/internal/models"
)

const defaultBaseURL = "https://api.resend.com"

// OrderReceived is template data of the confirmation message
type OrderReceived struct {
	OrderID         string
	OrderDate       string
	ShippingAddress *models.Address
}

// Dispatcher sends order confirmation messages. Delivery is best-effort:
// callers log and swallow errors.
type Dispatcher interface {
	SendOrderReceived(ctx context.Context, to string, data OrderReceived) error
}

// Client represents HTTP client for the mail provider API
type Client struct {
	client  *http.Client
	baseURL string
	apiKey  string
	from    string
}

// NewClient creates new Client instance
func NewClient(apiKey, from string) *Client {
	return &Client{
		client: &http.Client{
			Timeout: 5 * time.Second,
		},
		baseURL: defaultBaseURL,
		apiKey:  apiKey,
		from:    from,
	}
}

// NewClientWithBaseURL creates new Client pointed at a non-default API host
func NewClientWithBaseURL(apiKey, from, baseURL string) *Client {
	c := NewClient(apiKey, from)
	c.baseURL = baseURL
	return c
}

type sendRequest struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html"`
}

// SendOrderReceived sends order confirmation message to the customer
func (c *Client) SendOrderReceived(ctx context.Context, to string, data OrderReceived) error {
	body := sendRequest{
		From:    c.from,
		To:      []string{to},
		Subject: "Thanks for your order!",
		HTML:    renderOrderReceived(data),
	}

	buf := bytes.Buffer{}
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/emails", &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if resp != nil {
		defer resp.Body.Close()
	}
	if err != nil {
		return err
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("mail provider returned status %d", resp.StatusCode)
	}

	return nil
}

// renderOrderReceived builds a plain confirmation body. Rich template
// rendering belongs to the storefront side.
func renderOrderReceived(data OrderReceived) string {
	buf := bytes.Buffer{}
	fmt.Fprintf(&buf, "<p>Your order %s was received on %s.</p>", data.OrderID, data.OrderDate)
	if addr := data.ShippingAddress; addr != nil {
		fmt.Fprintf(&buf, "<p>Shipping to: %s, %s, %s %s, %s</p>",
			addr.Name, addr.Street, addr.PostalCode, addr.City, addr.Country)
	}
	return buf.String()
}
