package models

import (
	"time"

	"github.com/google/uuid"
)

// Order is order entity. It is created unpaid by the storefront checkout
// flow and marked paid exactly once by the reconciliation service.
type Order struct {
	ID                uuid.UUID
	UserID            uuid.UUID
	Amount            int64 // cents
	IsPaid            bool
	ConfigurationID   *uuid.UUID
	ShippingAddressID *uuid.UUID
	BillingAddressID  *uuid.UUID
	CreatedAt         time.Time
}

// Address is address entity. Shipping and billing addresses are stored as
// separate rows owned by the order that references them.
type Address struct {
	ID         uuid.UUID `json:"id"`
	Name       string    `json:"name"`
	Street     string    `json:"street"`
	City       string    `json:"city"`
	Country    string    `json:"country"`
	PostalCode string    `json:"postalCode"`
	State      *string   `json:"state,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
}

// Configuration is case configuration created by the storefront configurator
type Configuration struct {
	ID              uuid.UUID `json:"id"`
	Color           string    `json:"color"`
	CroppedImageURL string    `json:"croppedImageUrl"`
	CreatedAt       time.Time `json:"createdAt"`
}

// OrderDetail is full payload returned once an order payment is confirmed
type OrderDetail struct {
	OrderID         uuid.UUID      `json:"id"`
	Amount          int64          `json:"amount"`
	CreatedAt       time.Time      `json:"createdAt"`
	Configuration   *Configuration `json:"configuration,omitempty"`
	ShippingAddress *Address       `json:"shippingAddress,omitempty"`
	BillingAddress  *Address       `json:"billingAddress,omitempty"`
}
