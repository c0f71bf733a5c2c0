package service

import (
	"context"

	"github.com/Shivanshu999/casePlus/internal/models"
	"github.com/google/uuid"
)

// StatusRepository is interface for reading payment status data
type StatusRepository interface {
	// GetOrder returns order by compound (orderID, userID) key
	GetOrder(ctx context.Context, orderID, userID uuid.UUID) (*models.Order, error)
	// GetOrderDetail returns full detail of order
	GetOrderDetail(ctx context.Context, orderID, userID uuid.UUID) (*models.OrderDetail, error)
}

// StatusService answers payment status queries. Reads only, repeated calls
// never alter order state.
type StatusService struct {
	repo StatusRepository
}

// NewStatusService creates new StatusService instance
func NewStatusService(repo StatusRepository) *StatusService {
	return &StatusService{repo: repo}
}

// PaymentStatus returns nil detail with nil error while the order exists but
// payment is not yet confirmed, the full detail once it is, or
// models.ErrOrderNotFound when the order does not exist or belongs to
// another user.
func (ss *StatusService) PaymentStatus(ctx context.Context, userID, orderID uuid.UUID) (*models.OrderDetail, error) {
	order, err := ss.repo.GetOrder(ctx, orderID, userID)
	if err != nil {
		return nil, err
	}

	if !order.IsPaid {
		return nil, nil
	}

	return ss.repo.GetOrderDetail(ctx, orderID, userID)
}
