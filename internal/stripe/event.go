package stripe

import (
	"encoding/json"
	"errors"
)

// event types handled by the reconciliation service
const (
	EventCheckoutSessionCompleted = "checkout.session.completed"
	EventChargeUpdated            = "charge.updated"
)

var (
	ErrMissingSignature  = errors.New("missing signature header")
	ErrSignatureMismatch = errors.New("signature verification failed")
	ErrMalformedPayload  = errors.New("malformed event payload")
)

// Event is verified provider notification envelope
type Event struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Data struct {
		Raw json.RawMessage `json:"object"`
	} `json:"data"`
}

// SessionAddress is address block of checkout session customer details
type SessionAddress struct {
	Line1      string  `json:"line1"`
	City       string  `json:"city"`
	Country    string  `json:"country"`
	PostalCode string  `json:"postal_code"`
	State      *string `json:"state"`
}

// CustomerDetails is customer block of a completed checkout session
type CustomerDetails struct {
	Email   string          `json:"email"`
	Name    string          `json:"name"`
	Address *SessionAddress `json:"address"`
}

// CheckoutSession is payload of checkout.session.completed event
type CheckoutSession struct {
	ID              string            `json:"id"`
	CustomerDetails *CustomerDetails  `json:"customer_details"`
	Metadata        map[string]string `json:"metadata"`
}

// Charge is payload of charge.updated event
type Charge struct {
	ID            string `json:"id"`
	Paid          bool   `json:"paid"`
	PaymentIntent string `json:"payment_intent"`
}

// CheckoutSession decodes event payload as checkout session
func (e Event) CheckoutSession() (*CheckoutSession, error) {
	session := CheckoutSession{}
	if err := json.Unmarshal(e.Data.Raw, &session); err != nil {
		return nil, ErrMalformedPayload
	}
	return &session, nil
}

// Charge decodes event payload as charge
func (e Event) Charge() (*Charge, error) {
	charge := Charge{}
	if err := json.Unmarshal(e.Data.Raw, &charge); err != nil {
		return nil, ErrMalformedPayload
	}
	return &charge, nil
}
