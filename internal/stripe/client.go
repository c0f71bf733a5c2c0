package stripe

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"time"

	"github.com/Shivanshu999/casePlus/internal/models"
)

const defaultBaseURL = "https://api.stripe.com"

var ErrPaymentIntentNotFound = errors.New("payment intent not found")

// PaymentIntent carries the correlation metadata set at checkout time
type PaymentIntent struct {
	ID       string            `json:"id"`
	Status   string            `json:"status"`
	Metadata map[string]string `json:"metadata"`
}

// Client represents HTTP client for payment provider API requests
type Client struct {
	client  *http.Client
	baseURL string
	apiKey  string
}

// NewClient creates new Client instance
func NewClient(apiKey string) *Client {
	return &Client{
		client: &http.Client{
			Timeout: 5 * time.Second,
		},
		baseURL: defaultBaseURL,
		apiKey:  apiKey,
	}
}

// NewClientWithBaseURL creates new Client pointed at a non-default API host
func NewClientWithBaseURL(apiKey, baseURL string) *Client {
	c := NewClient(apiKey)
	c.baseURL = baseURL
	return c
}

// RetrievePaymentIntent returns payment intent by id
// 200 — payment intent returned;
// 404 — unknown payment intent;
// 500 — provider internal error.
func (c *Client) RetrievePaymentIntent(ctx context.Context, id string) (*PaymentIntent, error) {
	// GET /v1/payment_intents/{id}
	url, err := url.JoinPath(c.baseURL, "v1", "payment_intents", id)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(req)
	if resp != nil {
		defer resp.Body.Close()
	}
	if err != nil {
		return nil, err
	}

	switch resp.StatusCode {
	case http.StatusOK:
		intent := PaymentIntent{}
		if err := json.NewDecoder(resp.Body).Decode(&intent); err != nil {
			return nil, err
		}
		return &intent, nil
	case http.StatusNotFound:
		return nil, ErrPaymentIntentNotFound
	case http.StatusInternalServerError:
		return nil, models.ErrInternalError
	default:
		return nil, models.ErrInternalError
	}
}
