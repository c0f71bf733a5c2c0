package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/Shivanshu999/casePlus/internal/service"
	"github.com/Shivanshu999/casePlus/internal/stripe"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
)

var (
	webhookEventsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "webhook_events_total",
		Help: "Total number of webhook events by type and outcome.",
	}, []string{"type", "outcome"})

	webhookDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name: "webhook_duration_seconds",
		Help: "Webhook processing latency.",
	}, []string{"type"})
)

// ReconcileService is interface for applying verified events to order state
type ReconcileService interface {
	Reconcile(ctx context.Context, ev stripe.Event) (service.ReconcileResult, error)
}

// WebhookHandler represents HTTP handler for provider webhook requests
type WebhookHandler struct {
	svc    ReconcileService
	secret string
	logger *zap.Logger
}

// NewWebhookHandler creates new WebhookHandler instance
// 200 — event processed or benign no-op;
// 400 — missing or invalid signature, malformed payload (permanent reject);
// 500 — processing failure (provider redelivers).
func NewWebhookHandler(svc ReconcileService, secret string, logger *zap.Logger) *WebhookHandler {
	return &WebhookHandler{
		svc:    svc,
		secret: secret,
		logger: logger,
	}
}

type webhookOKResponse struct {
	Result string `json:"result"`
	OK     bool   `json:"ok"`
}

type webhookErrResponse struct {
	Message string `json:"message"`
	OK      bool   `json:"ok"`
}

// HandleStripeEvent verifies and reconciles a single provider notification
func (wh *WebhookHandler) HandleStripeEvent() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		if err != nil {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}
		defer r.Body.Close()

		sig := r.Header.Get("Stripe-Signature")

		ev, err := stripe.ConstructEvent(body, sig, wh.secret)
		if err != nil {
			wh.logger.Warn("webhook rejected", zap.Error(err))
			webhookEventsTotal.WithLabelValues("unknown", "rejected").Inc()
			http.Error(w, "Invalid signature", http.StatusBadRequest)
			return
		}

		wh.logger.Info("event verified",
			zap.String("event_id", ev.ID),
			zap.String("event_type", ev.Type))

		timer := prometheus.NewTimer(webhookDuration.WithLabelValues(ev.Type))
		result, err := wh.svc.Reconcile(r.Context(), ev)
		timer.ObserveDuration()

		if err != nil {
			if errors.Is(err, stripe.ErrMalformedPayload) {
				webhookEventsTotal.WithLabelValues(ev.Type, "rejected").Inc()
				http.Error(w, "Invalid payload", http.StatusBadRequest)
				return
			}

			wh.logger.Error("event processing failed",
				zap.String("event_id", ev.ID),
				zap.String("event_type", ev.Type),
				zap.Error(err))
			webhookEventsTotal.WithLabelValues(ev.Type, "error").Inc()

			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusInternalServerError)
			json.NewEncoder(w).Encode(webhookErrResponse{Message: "Something went wrong", OK: false})
			return
		}

		webhookEventsTotal.WithLabelValues(ev.Type, outcomeLabel(result.Outcome)).Inc()

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(webhookOKResponse{Result: ev.ID, OK: true})
	}
}

func outcomeLabel(o service.Outcome) string {
	switch o {
	case service.OutcomeOrderPaid:
		return "paid"
	case service.OutcomeAlreadyPaid:
		return "noop"
	default:
		return "ignored"
	}
}
