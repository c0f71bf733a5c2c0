package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Shivanshu999/casePlus/internal/mailer"
	"github.com/Shivanshu999/casePlus/internal/models"
	"github.com/Shivanshu999/casePlus/internal/stripe"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Outcome describes the effect a reconciled event had on the order store
type Outcome int

const (
	// OutcomeOrderPaid means the order was marked paid by this event
	OutcomeOrderPaid Outcome = iota
	// OutcomeAlreadyPaid means the desired state already held, nothing changed
	OutcomeAlreadyPaid
	// OutcomeIgnored means the event did not apply to any order
	OutcomeIgnored
)

// ReconcileResult is outcome of a successfully processed event
type ReconcileResult struct {
	Outcome Outcome
	OrderID uuid.UUID
}

// OrderRepository is interface for interacting with order-related data
type OrderRepository interface {
	// GetOrder returns order by compound (orderID, userID) key
	GetOrder(ctx context.Context, orderID, userID uuid.UUID) (*models.Order, error)
	// MarkPaidWithAddresses atomically creates both address records and flips the paid flag
	MarkPaidWithAddresses(ctx context.Context, orderID, userID uuid.UUID, shipping, billing models.Address) error
	// MarkPaid flips the paid flag only
	MarkPaid(ctx context.Context, orderID, userID uuid.UUID) error
}

// IntentRetriever resolves a payment intent reference to its metadata
type IntentRetriever interface {
	RetrievePaymentIntent(ctx context.Context, id string) (*stripe.PaymentIntent, error)
}

// ReconcileService maps verified provider events to idempotent order mutations
type ReconcileService struct {
	repo       OrderRepository
	intents    IntentRetriever
	dispatcher mailer.Dispatcher
	logger     *zap.Logger
}

// NewReconcileService creates new ReconcileService instance
func NewReconcileService(repo OrderRepository, intents IntentRetriever, dispatcher mailer.Dispatcher, logger *zap.Logger) *ReconcileService {
	return &ReconcileService{
		repo:       repo,
		intents:    intents,
		dispatcher: dispatcher,
		logger:     logger,
	}
}

// Reconcile applies a verified event to the order store. Replayed and
// out-of-order deliveries converge: the paid flag flips at most once and
// address records are created exactly once.
func (rs *ReconcileService) Reconcile(ctx context.Context, ev stripe.Event) (ReconcileResult, error) {
	switch ev.Type {
	case stripe.EventCheckoutSessionCompleted:
		return rs.reconcileSession(ctx, ev)
	case stripe.EventChargeUpdated:
		return rs.reconcileCharge(ctx, ev)
	default:
		rs.logger.Debug("ignoring event type",
			zap.String("event_id", ev.ID),
			zap.String("event_type", ev.Type))
		return ReconcileResult{Outcome: OutcomeIgnored}, nil
	}
}

func (rs *ReconcileService) reconcileSession(ctx context.Context, ev stripe.Event) (ReconcileResult, error) {
	session, err := ev.CheckoutSession()
	if err != nil {
		return ReconcileResult{}, err
	}

	if session.CustomerDetails == nil || session.CustomerDetails.Email == "" {
		return ReconcileResult{}, models.ErrMissingCustomerEmail
	}

	orderID, userID, ok := extractMetadata(session.Metadata)
	if !ok {
		return ReconcileResult{}, models.ErrMissingMetadata
	}

	order, err := rs.repo.GetOrder(ctx, orderID, userID)
	if err != nil {
		return ReconcileResult{}, err
	}

	rs.logger.Debug("order looked up",
		zap.String("event_id", ev.ID),
		zap.String("order_id", orderID.String()),
		zap.Bool("is_paid", order.IsPaid))

	// short-circuit only when fully reconciled: a charge event may have
	// flipped the paid flag first, leaving address records to this path
	if order.IsPaid && order.ShippingAddressID != nil && order.BillingAddressID != nil {
		rs.logger.Info("order already paid, skipping",
			zap.String("event_id", ev.ID),
			zap.String("order_id", orderID.String()))
		return ReconcileResult{Outcome: OutcomeAlreadyPaid, OrderID: orderID}, nil
	}

	if session.CustomerDetails.Address == nil {
		return ReconcileResult{}, models.ErrMissingAddress
	}
	if session.CustomerDetails.Name == "" {
		return ReconcileResult{}, models.ErrMissingCustomerName
	}

	// shipping and billing are stored as two independent records even though
	// the session carries a single address block
	shipping := addressFromSession(session.CustomerDetails.Name, session.CustomerDetails.Address)
	billing := addressFromSession(session.CustomerDetails.Name, session.CustomerDetails.Address)

	if err := rs.repo.MarkPaidWithAddresses(ctx, orderID, userID, shipping, billing); err != nil {
		switch {
		case errors.Is(err, models.ErrOrderAlreadyPaid):
			// lost the race to a concurrent duplicate delivery
			return ReconcileResult{Outcome: OutcomeAlreadyPaid, OrderID: orderID}, nil
		case errors.Is(err, models.ErrOrderNotFound):
			return ReconcileResult{}, models.ErrOrderNotFound
		default:
			rs.logger.Error("order transaction failed",
				zap.String("event_id", ev.ID),
				zap.String("order_id", orderID.String()),
				zap.Error(err))
			return ReconcileResult{}, fmt.Errorf("%w: %v", models.ErrPersistence, err)
		}
	}

	rs.logger.Info("order committed",
		zap.String("event_id", ev.ID),
		zap.String("order_id", orderID.String()))

	rs.dispatch(ctx, ev.ID, orderID, order.CreatedAt, session.CustomerDetails.Email, shipping)

	return ReconcileResult{Outcome: OutcomeOrderPaid, OrderID: orderID}, nil
}

func (rs *ReconcileService) reconcileCharge(ctx context.Context, ev stripe.Event) (ReconcileResult, error) {
	charge, err := ev.Charge()
	if err != nil {
		return ReconcileResult{}, err
	}

	if !charge.Paid || charge.PaymentIntent == "" {
		return ReconcileResult{Outcome: OutcomeIgnored}, nil
	}

	intent, err := rs.intents.RetrievePaymentIntent(ctx, charge.PaymentIntent)
	if err != nil {
		rs.logger.Error("payment intent retrieval failed",
			zap.String("event_id", ev.ID),
			zap.String("payment_intent", charge.PaymentIntent),
			zap.Error(err))
		return ReconcileResult{}, fmt.Errorf("%w: %v", models.ErrProcessing, err)
	}

	orderID, userID, ok := extractMetadata(intent.Metadata)
	if !ok {
		// advisory event, nothing to correlate; noted for monitoring
		rs.logger.Warn("charge carries no order metadata, ignoring",
			zap.String("event_id", ev.ID),
			zap.String("charge_id", charge.ID),
			zap.String("payment_intent", charge.PaymentIntent))
		return ReconcileResult{Outcome: OutcomeIgnored}, nil
	}

	order, err := rs.repo.GetOrder(ctx, orderID, userID)
	if err != nil {
		if errors.Is(err, models.ErrOrderNotFound) {
			rs.logger.Warn("order not found for charge, ignoring",
				zap.String("event_id", ev.ID),
				zap.String("order_id", orderID.String()))
			return ReconcileResult{Outcome: OutcomeIgnored}, nil
		}
		return ReconcileResult{}, fmt.Errorf("%w: %v", models.ErrProcessing, err)
	}

	if order.IsPaid {
		rs.logger.Info("order already paid, skipping charge",
			zap.String("event_id", ev.ID),
			zap.String("order_id", orderID.String()))
		return ReconcileResult{Outcome: OutcomeAlreadyPaid, OrderID: orderID}, nil
	}

	if err := rs.repo.MarkPaid(ctx, orderID, userID); err != nil {
		if errors.Is(err, models.ErrOrderAlreadyPaid) {
			return ReconcileResult{Outcome: OutcomeAlreadyPaid, OrderID: orderID}, nil
		}
		rs.logger.Error("order update failed",
			zap.String("event_id", ev.ID),
			zap.String("order_id", orderID.String()),
			zap.Error(err))
		return ReconcileResult{}, fmt.Errorf("%w: %v", models.ErrPersistence, err)
	}

	rs.logger.Info("order committed from charge",
		zap.String("event_id", ev.ID),
		zap.String("order_id", orderID.String()))

	return ReconcileResult{Outcome: OutcomeOrderPaid, OrderID: orderID}, nil
}

// dispatch sends the confirmation message outside the transaction boundary.
// Delivery failure never fails the committed reconciliation.
func (rs *ReconcileService) dispatch(ctx context.Context, eventID string, orderID uuid.UUID, orderDate time.Time, email string, shipping models.Address) {
	sendCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)

	go func() {
		defer cancel()

		err := rs.dispatcher.SendOrderReceived(sendCtx, email, mailer.OrderReceived{
			OrderID:         orderID.String(),
			OrderDate:       orderDate.Format("January 2, 2006"),
			ShippingAddress: &shipping,
		})
		if err != nil {
			rs.logger.Error("confirmation mail failed",
				zap.String("event_id", eventID),
				zap.String("order_id", orderID.String()),
				zap.Error(err))
			return
		}

		rs.logger.Info("confirmation mail dispatched",
			zap.String("event_id", eventID),
			zap.String("order_id", orderID.String()))
	}()
}

// extractMetadata reads the correlation keys set at checkout time
func extractMetadata(metadata map[string]string) (orderID, userID uuid.UUID, ok bool) {
	rawOrder, rawUser := metadata["orderId"], metadata["userId"]
	if rawOrder == "" || rawUser == "" {
		return uuid.Nil, uuid.Nil, false
	}

	orderID, err := uuid.Parse(rawOrder)
	if err != nil {
		return uuid.Nil, uuid.Nil, false
	}
	userID, err = uuid.Parse(rawUser)
	if err != nil {
		return uuid.Nil, uuid.Nil, false
	}

	return orderID, userID, true
}

func addressFromSession(name string, addr *stripe.SessionAddress) models.Address {
	return models.Address{
		Name:       name,
		Street:     addr.Line1,
		City:       addr.City,
		Country:    addr.Country,
		PostalCode: addr.PostalCode,
		State:      addr.State,
	}
}
