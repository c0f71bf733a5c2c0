package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Shivanshu999/casePlus/internal/models"
	"github.com/Shivanshu999/casePlus/internal/repository/postgres"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const (
	selectOrderQuery = `
						SELECT id, user_id, amount, is_paid, configuration_id, shipping_address_id, billing_address_id, created_at
						FROM orders
						WHERE id = $1 AND user_id = $2
`
	selectOrderPaidForUpdateQuery = `
						SELECT is_paid, shipping_address_id, billing_address_id FROM orders
						WHERE id = $1 AND user_id = $2
						FOR UPDATE
`
	insertShippingAddressQuery = `
						INSERT INTO shipping_addresses (id, name, street, city, country, postal_code, state)
						VALUES ($1, $2, $3, $4, $5, $6, $7)
						RETURNING id
`
	insertBillingAddressQuery = `
						INSERT INTO billing_addresses (id, name, street, city, country, postal_code, state)
						VALUES ($1, $2, $3, $4, $5, $6, $7)
						RETURNING id
`
	updateOrderPaidQuery = `
						UPDATE orders
						SET is_paid = true, shipping_address_id = $1, billing_address_id = $2
						WHERE id = $3
`
	markOrderPaidQuery = `
						UPDATE orders
						SET is_paid = true
						WHERE id = $1 AND user_id = $2 AND is_paid = false
`
	selectOrderDetailQuery = `
						SELECT o.id, o.amount, o.created_at,
						       c.id, c.color, c.cropped_image_url, c.created_at,
						       s.id, s.name, s.street, s.city, s.country, s.postal_code, s.state, s.created_at,
						       b.id, b.name, b.street, b.city, b.country, b.postal_code, b.state, b.created_at
						FROM orders o
						LEFT JOIN configurations c ON c.id = o.configuration_id
						LEFT JOIN shipping_addresses s ON s.id = o.shipping_address_id
						LEFT JOIN billing_addresses b ON b.id = o.billing_address_id
						WHERE o.id = $1 AND o.user_id = $2
`
)

// OrderRepository implements order-related persistence
type OrderRepository struct {
	db *postgres.DB
}

// NewOrderRepository creates new OrderRepository instance
func NewOrderRepository(db *postgres.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

// GetOrder returns order by compound (orderID, userID) key
func (or *OrderRepository) GetOrder(ctx context.Context, orderID, userID uuid.UUID) (*models.Order, error) {
	order := models.Order{}
	err := or.db.QueryRow(ctx, selectOrderQuery, orderID, userID).
		Scan(&order.ID, &order.UserID, &order.Amount, &order.IsPaid,
			&order.ConfigurationID, &order.ShippingAddressID, &order.BillingAddressID, &order.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrOrderNotFound
		}
		return nil, err
	}

	return &order, nil
}

// MarkPaidWithAddresses creates shipping and billing address records and
// flips the order paid flag within a single transaction. Current state is
// re-checked under a row lock so a concurrently delivered duplicate event
// cannot insert a second pair of addresses.
func (or *OrderRepository) MarkPaidWithAddresses(ctx context.Context, orderID, userID uuid.UUID, shipping, billing models.Address) error {
	tx, err := or.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	var (
		isPaid  bool
		curShip *uuid.UUID
		curBill *uuid.UUID
	)
	err = tx.QueryRow(ctx, selectOrderPaidForUpdateQuery, orderID, userID).Scan(&isPaid, &curShip, &curBill)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.ErrOrderNotFound
		}
		return fmt.Errorf("lock order row: %w", err)
	}
	// a paid order with both addresses linked is fully reconciled; a paid
	// order without them was flipped by a charge event and still needs its
	// address records attached
	if isPaid && curShip != nil && curBill != nil {
		return models.ErrOrderAlreadyPaid
	}

	var shippingID uuid.UUID
	err = tx.QueryRow(ctx, insertShippingAddressQuery,
		uuid.New(), shipping.Name, shipping.Street, shipping.City, shipping.Country, shipping.PostalCode, shipping.State).
		Scan(&shippingID)
	if err != nil {
		return fmt.Errorf("insert shipping address: %w", err)
	}

	var billingID uuid.UUID
	err = tx.QueryRow(ctx, insertBillingAddressQuery,
		uuid.New(), billing.Name, billing.Street, billing.City, billing.Country, billing.PostalCode, billing.State).
		Scan(&billingID)
	if err != nil {
		return fmt.Errorf("insert billing address: %w", err)
	}

	if _, err := tx.Exec(ctx, updateOrderPaidQuery, shippingID, billingID, orderID); err != nil {
		return fmt.Errorf("update order: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}

	return nil
}

// MarkPaid flips the paid flag only, without creating addresses. The update
// is conditional on is_paid = false so replays are no-ops.
func (or *OrderRepository) MarkPaid(ctx context.Context, orderID, userID uuid.UUID) error {
	cmd, err := or.db.Exec(ctx, markOrderPaidQuery, orderID, userID)
	if err != nil {
		return err
	}

	if cmd.RowsAffected() == 0 {
		return models.ErrOrderAlreadyPaid
	}

	return nil
}

// GetOrderDetail returns full detail of order including configuration and
// both address records
func (or *OrderRepository) GetOrderDetail(ctx context.Context, orderID, userID uuid.UUID) (*models.OrderDetail, error) {
	var (
		detail models.OrderDetail

		cfgID        *uuid.UUID
		cfgColor     *string
		cfgImageURL  *string
		cfgCreatedAt *time.Time

		shipID, billID           *uuid.UUID
		shipName, billName       *string
		shipStreet, billStreet   *string
		shipCity, billCity       *string
		shipCountry, billCountry *string
		shipPostal, billPostal   *string
		shipState, billState     *string
		shipCreated, billCreated *time.Time
	)

	err := or.db.QueryRow(ctx, selectOrderDetailQuery, orderID, userID).Scan(
		&detail.OrderID, &detail.Amount, &detail.CreatedAt,
		&cfgID, &cfgColor, &cfgImageURL, &cfgCreatedAt,
		&shipID, &shipName, &shipStreet, &shipCity, &shipCountry, &shipPostal, &shipState, &shipCreated,
		&billID, &billName, &billStreet, &billCity, &billCountry, &billPostal, &billState, &billCreated,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrOrderNotFound
		}
		return nil, err
	}

	if cfgID != nil {
		detail.Configuration = &models.Configuration{
			ID:              *cfgID,
			Color:           deref(cfgColor),
			CroppedImageURL: deref(cfgImageURL),
			CreatedAt:       derefTime(cfgCreatedAt),
		}
	}
	if shipID != nil {
		detail.ShippingAddress = &models.Address{
			ID:         *shipID,
			Name:       deref(shipName),
			Street:     deref(shipStreet),
			City:       deref(shipCity),
			Country:    deref(shipCountry),
			PostalCode: deref(shipPostal),
			State:      shipState,
			CreatedAt:  derefTime(shipCreated),
		}
	}
	if billID != nil {
		detail.BillingAddress = &models.Address{
			ID:         *billID,
			Name:       deref(billName),
			Street:     deref(billStreet),
			City:       deref(billCity),
			Country:    deref(billCountry),
			PostalCode: deref(billPostal),
			State:      billState,
			CreatedAt:  derefTime(billCreated),
		}
	}

	return &detail, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func derefTime(t *time.Time) time.Time {
	if t == nil {
		return time.Time{}
	}
	return *t
}
