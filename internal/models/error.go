package models

import "errors"

var (
	ErrOrderNotFound        = errors.New("order not found or access denied")
	ErrOrderAlreadyPaid     = errors.New("order is already paid")
	ErrMissingCustomerEmail = errors.New("missing customer email")
	ErrMissingMetadata      = errors.New("missing userId or orderId metadata")
	ErrMissingAddress       = errors.New("missing required address information")
	ErrMissingCustomerName  = errors.New("missing customer name")
	ErrPersistence          = errors.New("persistence failure")
	ErrProcessing           = errors.New("event processing failure")
	ErrInternalError        = errors.New("internal error")
)
