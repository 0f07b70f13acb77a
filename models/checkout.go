package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// MaxLineQuantity is the largest quantity the payment gateway accepts on
// a single line item.
const MaxLineQuantity = 999999

// CartLine is one line of a client-submitted cart. Only ID and Quantity are
// trusted; the remaining fields exist for optimistic rendering on the client
// and are never read when pricing.
type CartLine struct {
	ID          int64           `json:"id" binding:"required"`
	Quantity    int             `json:"quantity" binding:"required,min=1,max=999999"`
	ClientPrice decimal.Decimal `json:"precio"`
	DisplayName string          `json:"producto"`
	ImageURL    *string         `json:"image_url,omitempty"`
}

// CreateCheckoutBody is the JSON body of POST /create-checkout.
type CreateCheckoutBody struct {
	Items []CartLine `json:"items" binding:"dive"`
}

// CheckoutRequest is everything the checkout service needs for one attempt.
type CheckoutRequest struct {
	Credential string
	Origin     string
	Items      []CartLine
}

// Identity is an authenticated caller.
type Identity struct {
	UserID string
	Email  string
	Role   string
}

func (i *Identity) IsAdmin() bool {
	return i != nil && i.Role == "admin"
}

// PricedLineItem is a line item priced from the catalog. It is the only
// representation of a cart line ever sent to the payment gateway.
type PricedLineItem struct {
	ProductID  int64   `json:"product_id"`
	Name       string  `json:"name"`
	ImageURL   *string `json:"image_url,omitempty"`
	UnitAmount int64   `json:"unit_amount"` // minor units
	Quantity   int64   `json:"quantity"`
}

// SessionRequest is what the gateway needs to open a hosted checkout page.
type SessionRequest struct {
	LineItems         []PricedLineItem
	Mode              string
	Currency          string
	SuccessURL        string
	CancelURL         string
	AllowedCountries  []string
	CustomerReference string
}

// AmountTotal is the sum of unit_amount * quantity over all line items.
func (r *SessionRequest) AmountTotal() int64 {
	var total int64
	for _, li := range r.LineItems {
		total += li.UnitAmount * li.Quantity
	}
	return total
}

// CheckoutSession is a hosted payment page created at the gateway.
type CheckoutSession struct {
	ID              string `json:"id"`
	URL             string `json:"url"`
	SuccessRedirect string `json:"success_redirect"`
	CancelRedirect  string `json:"cancel_redirect"`
	AmountTotal     int64  `json:"amount_total"`
	Currency        string `json:"currency"`
}

// SessionStatus is the gateway's view of a session after creation.
type SessionStatus struct {
	ID                string `json:"id"`
	Status            string `json:"status"`         // open, complete, expired
	PaymentStatus     string `json:"payment_status"` // paid, unpaid, no_payment_required
	AmountTotal       int64  `json:"amount_total"`
	Currency          string `json:"currency"`
	CustomerReference string `json:"-"`
}

// CheckoutSessionEvent is published to SNS when a session is created.
type CheckoutSessionEvent struct {
	Type        string    `json:"type"` // "checkout_session_created"
	SessionID   string    `json:"session_id"`
	UserID      string    `json:"user_id"`
	AmountTotal int64     `json:"amount_total"` // smallest currency unit
	Currency    string    `json:"currency"`
	LineCount   int       `json:"line_count"`
	Timestamp   time.Time `json:"timestamp"`
}
