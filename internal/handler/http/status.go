package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/Shivanshu999/casePlus/internal/middleware"
	"github.com/Shivanshu999/casePlus/internal/models"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
)

var paymentStatusRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "payment_status_requests_total",
	Help: "Total number of payment status queries by result.",
}, []string{"result"})

// StatusService is interface for payment status queries
type StatusService interface {
	PaymentStatus(ctx context.Context, userID, orderID uuid.UUID) (*models.OrderDetail, error)
}

// StatusHandler represents HTTP handler for payment status requests
type StatusHandler struct {
	svc    StatusService
	logger *zap.Logger
}

// NewStatusHandler creates new StatusHandler instance
// 200 — returns false while unpaid, full order detail once paid;
// 400 — malformed order id;
// 401 — caller is not authenticated;
// 404 — order does not exist or belongs to another user;
// 500 — internal error.
func NewStatusHandler(svc StatusService, logger *zap.Logger) *StatusHandler {
	return &StatusHandler{svc: svc, logger: logger}
}

// GetPaymentStatus answers a single status poll
func (sh *StatusHandler) GetPaymentStatus() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := middleware.UserID(r.Context())
		if !ok {
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		orderID, err := uuid.Parse(chi.URLParam(r, "orderID"))
		if err != nil {
			paymentStatusRequestsTotal.WithLabelValues("invalid").Inc()
			http.Error(w, "invalid order id", http.StatusBadRequest)
			return
		}

		detail, err := sh.svc.PaymentStatus(r.Context(), userID, orderID)
		if err != nil {
			if errors.Is(err, models.ErrOrderNotFound) {
				paymentStatusRequestsTotal.WithLabelValues("not_found").Inc()
				http.Error(w, "order not found", http.StatusNotFound)
				return
			}
			sh.logger.Error("payment status query failed",
				zap.String("order_id", orderID.String()),
				zap.Error(err))
			paymentStatusRequestsTotal.WithLabelValues("error").Inc()
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)

		// unpaid order answers the bare literal false
		if detail == nil {
			paymentStatusRequestsTotal.WithLabelValues("pending").Inc()
			w.Write([]byte("false"))
			return
		}

		paymentStatusRequestsTotal.WithLabelValues("confirmed").Inc()
		json.NewEncoder(w).Encode(detail)
	}
}
