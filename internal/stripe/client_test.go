package stripe

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_RetrievePaymentIntent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/payment_intents/pi_1", r.URL.Path)
		assert.Equal(t, "Bearer sk_test", r.Header.Get("Authorization"))

		json.NewEncoder(w).Encode(PaymentIntent{
			ID:       "pi_1",
			Status:   "succeeded",
			Metadata: map[string]string{"orderId": "o1", "userId": "u1"},
		})
	}))
	defer srv.Close()

	client := NewClientWithBaseURL("sk_test", srv.URL)

	intent, err := client.RetrievePaymentIntent(context.Background(), "pi_1")
	require.NoError(t, err)
	assert.Equal(t, "pi_1", intent.ID)
	assert.Equal(t, "o1", intent.Metadata["orderId"])
}

func TestClient_RetrievePaymentIntentNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "no such payment_intent", http.StatusNotFound)
	}))
	defer srv.Close()

	client := NewClientWithBaseURL("sk_test", srv.URL)

	_, err := client.RetrievePaymentIntent(context.Background(), "pi_missing")
	assert.ErrorIs(t, err, ErrPaymentIntentNotFound)
}
