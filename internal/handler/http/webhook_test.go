package handler

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Shivanshu999/casePlus/internal/handler/http/mocks"
	"github.com/Shivanshu999/casePlus/internal/models"
	"github.com/Shivanshu999/casePlus/internal/service"
	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const testWebhookSecret = "whsec_test"

// signPayload builds a valid signature header for payload
func signPayload(payload []byte, secret string, at time.Time) string {
	ts := at.Unix()
	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "%d.%s", ts, payload)
	return fmt.Sprintf("t=%d,v1=%s", ts, hex.EncodeToString(mac.Sum(nil)))
}

func TestWebhookHandler_HandleStripeEvent(t *testing.T) {
	eventBody := []byte(`{"id":"evt_1","type":"checkout.session.completed","data":{"object":{}}}`)

	tests := []struct {
		name           string
		body           []byte
		signature      string
		setup          func(t *testing.T) *mocks.MockReconcileService
		wantStatusCode int
		wantOK         *bool
	}{
		{
			name:      "valid_event_return_200",
			body:      eventBody,
			signature: signPayload(eventBody, testWebhookSecret, time.Now()),
			setup: func(t *testing.T) *mocks.MockReconcileService {

				ctrl := gomock.NewController(t)
				defer ctrl.Finish()

				svcMock := mocks.NewMockReconcileService(ctrl)
				svcMock.EXPECT().Reconcile(gomock.Any(), gomock.Any()).
					Return(service.ReconcileResult{Outcome: service.OutcomeOrderPaid}, nil).AnyTimes()
				return svcMock
			},
			wantStatusCode: http.StatusOK,
			wantOK:         boolPtr(true),
		},
		{
			name:      "benign_noop_return_200",
			body:      eventBody,
			signature: signPayload(eventBody, testWebhookSecret, time.Now()),
			setup: func(t *testing.T) *mocks.MockReconcileService {

				ctrl := gomock.NewController(t)
				defer ctrl.Finish()

				svcMock := mocks.NewMockReconcileService(ctrl)
				svcMock.EXPECT().Reconcile(gomock.Any(), gomock.Any()).
					Return(service.ReconcileResult{Outcome: service.OutcomeAlreadyPaid}, nil).AnyTimes()
				return svcMock
			},
			wantStatusCode: http.StatusOK,
			wantOK:         boolPtr(true),
		},
		{
			name:      "missing_signature_return_400",
			body:      eventBody,
			signature: "",
			setup: func(t *testing.T) *mocks.MockReconcileService {

				ctrl := gomock.NewController(t)
				defer ctrl.Finish()

				svcMock := mocks.NewMockReconcileService(ctrl)
				svcMock.EXPECT().Reconcile(gomock.Any(), gomock.Any()).Times(0)
				return svcMock
			},
			wantStatusCode: http.StatusBadRequest,
		},
		{
			name:      "wrong_secret_return_400",
			body:      eventBody,
			signature: signPayload(eventBody, "whsec_other", time.Now()),
			setup: func(t *testing.T) *mocks.MockReconcileService {

				ctrl := gomock.NewController(t)
				defer ctrl.Finish()

				svcMock := mocks.NewMockReconcileService(ctrl)
				svcMock.EXPECT().Reconcile(gomock.Any(), gomock.Any()).Times(0)
				return svcMock
			},
			wantStatusCode: http.StatusBadRequest,
		},
		{
			name:      "stale_timestamp_return_400",
			body:      eventBody,
			signature: signPayload(eventBody, testWebhookSecret, time.Now().Add(-time.Hour)),
			setup: func(t *testing.T) *mocks.MockReconcileService {

				ctrl := gomock.NewController(t)
				defer ctrl.Finish()

				svcMock := mocks.NewMockReconcileService(ctrl)
				svcMock.EXPECT().Reconcile(gomock.Any(), gomock.Any()).Times(0)
				return svcMock
			},
			wantStatusCode: http.StatusBadRequest,
		},
		{
			name:      "processing_failure_return_500",
			body:      eventBody,
			signature: signPayload(eventBody, testWebhookSecret, time.Now()),
			setup: func(t *testing.T) *mocks.MockReconcileService {

				ctrl := gomock.NewController(t)
				defer ctrl.Finish()

				svcMock := mocks.NewMockReconcileService(ctrl)
				svcMock.EXPECT().Reconcile(gomock.Any(), gomock.Any()).
					Return(service.ReconcileResult{}, models.ErrPersistence).AnyTimes()
				return svcMock
			},
			wantStatusCode: http.StatusInternalServerError,
			wantOK:         boolPtr(false),
		},
		{
			name:      "integration_defect_return_500",
			body:      eventBody,
			signature: signPayload(eventBody, testWebhookSecret, time.Now()),
			setup: func(t *testing.T) *mocks.MockReconcileService {

				ctrl := gomock.NewController(t)
				defer ctrl.Finish()

				svcMock := mocks.NewMockReconcileService(ctrl)
				svcMock.EXPECT().Reconcile(gomock.Any(), gomock.Any()).
					Return(service.ReconcileResult{}, models.ErrMissingMetadata).AnyTimes()
				return svcMock
			},
			wantStatusCode: http.StatusInternalServerError,
			wantOK:         boolPtr(false),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := http.NewRequest(http.MethodPost, "/api/webhooks/stripe", strings.NewReader(string(tt.body)))
			require.NoError(t, err)
			if tt.signature != "" {
				req.Header.Set("Stripe-Signature", tt.signature)
			}

			w := httptest.NewRecorder()

			wh := NewWebhookHandler(tt.setup(t), testWebhookSecret, zap.NewNop())
			wh.HandleStripeEvent().ServeHTTP(w, req)

			resp := w.Result()
			defer resp.Body.Close()

			assert.Equal(t, tt.wantStatusCode, resp.StatusCode)

			if tt.wantOK != nil {
				body, err := io.ReadAll(resp.Body)
				require.NoError(t, err)

				got := struct {
					OK bool `json:"ok"`
				}{}
				require.NoError(t, json.Unmarshal(body, &got))
				assert.Equal(t, *tt.wantOK, got.OK)
			}
		})
	}
}

func TestWebhookHandler_MalformedPayloadRejected(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	svcMock := mocks.NewMockReconcileService(ctrl)
	svcMock.EXPECT().Reconcile(gomock.Any(), gomock.Any()).Times(0)

	// valid signature over a body that is not an event
	body := []byte(`not json`)
	req, err := http.NewRequest(http.MethodPost, "/api/webhooks/stripe", strings.NewReader(string(body)))
	require.NoError(t, err)
	req.Header.Set("Stripe-Signature", signPayload(body, testWebhookSecret, time.Now()))

	w := httptest.NewRecorder()

	wh := NewWebhookHandler(svcMock, testWebhookSecret, zap.NewNop())
	wh.HandleStripeEvent().ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Result().StatusCode)
}

func TestWebhookHandler_ReconcileErrorIsNotRetriedLocally(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	svcMock := mocks.NewMockReconcileService(ctrl)
	svcMock.EXPECT().Reconcile(gomock.Any(), gomock.Any()).
		Return(service.ReconcileResult{}, errors.New("boom")).Times(1)

	body := []byte(`{"id":"evt_2","type":"charge.updated","data":{"object":{}}}`)
	req, err := http.NewRequest(http.MethodPost, "/api/webhooks/stripe", strings.NewReader(string(body)))
	require.NoError(t, err)
	req.Header.Set("Stripe-Signature", signPayload(body, testWebhookSecret, time.Now()))

	w := httptest.NewRecorder()

	wh := NewWebhookHandler(svcMock, testWebhookSecret, zap.NewNop())
	wh.HandleStripeEvent().ServeHTTP(w, req)

	// the provider owns redelivery; the handler answers once with 500
	assert.Equal(t, http.StatusInternalServerError, w.Result().StatusCode)
}

func boolPtr(b bool) *bool { return &b }
