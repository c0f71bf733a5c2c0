package confirm

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"time"

	"github.com/Shivanshu999/casePlus/internal/models"
)

// HTTPSource implements StatusSource against the payment status endpoint
type HTTPSource struct {
	client    *http.Client
	baseURL   string
	authToken string
}

// NewHTTPSource creates new HTTPSource instance
func NewHTTPSource(baseURL, authToken string) *HTTPSource {
	return &HTTPSource{
		client: &http.Client{
			Timeout: 5 * time.Second,
		},
		baseURL:   baseURL,
		authToken: authToken,
	}
}

// GetPaymentStatus queries payment status of order
// 200 with literal false — order exists, payment not yet confirmed;
// 200 with detail payload — payment confirmed;
// any other status — query fault.
func (s *HTTPSource) GetPaymentStatus(ctx context.Context, orderID string) (*models.OrderDetail, error) {
	url, err := url.JoinPath(s.baseURL, "api", "user", "orders", orderID, "payment-status")
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.AddCookie(&http.Cookie{Name: "auth_token", Value: s.authToken})

	resp, err := s.client.Do(req)
	if resp != nil {
		defer resp.Body.Close()
	}
	if err != nil {
		return nil, err
	}

	switch resp.StatusCode {
	case http.StatusOK:
		buf := bytes.Buffer{}
		if _, err := buf.ReadFrom(resp.Body); err != nil {
			return nil, err
		}
		if bytes.Equal(bytes.TrimSpace(buf.Bytes()), []byte("false")) {
			return nil, nil
		}
		detail := models.OrderDetail{}
		if err := json.Unmarshal(buf.Bytes(), &detail); err != nil {
			return nil, err
		}
		return &detail, nil
	case http.StatusNotFound:
		return nil, models.ErrOrderNotFound
	default:
		return nil, models.ErrInternalError
	}
}
