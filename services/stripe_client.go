package services

import (
	"context"
	"errors"

	"github.com/jjrmrcly79/naturalezamistica/models"

	"github.com/stripe/stripe-go/v80"
	"github.com/stripe/stripe-go/v80/checkout/session"
)

var (
	// ErrGatewayNotConfigured is returned for every call when no secret key was provided.
	ErrGatewayNotConfigured = errors.New("payment gateway secret key not configured")
	// ErrSessionNotFound is returned when the gateway has no session with the given id.
	ErrSessionNotFound = errors.New("checkout session not found")
)

// PaymentGateway creates and reads hosted checkout sessions.
type PaymentGateway interface {
	CreateCheckoutSession(ctx context.Context, req *models.SessionRequest) (*models.CheckoutSession, error)
	GetCheckoutSession(ctx context.Context, id string) (*models.SessionStatus, error)
}

// sessionAPI is the part of the Stripe checkout session client we use.
type sessionAPI interface {
	New(params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error)
	Get(id string, params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error)
}

// StripeGateway implements PaymentGateway on Stripe Checkout.
type StripeGateway struct {
	sessions   sessionAPI
	configured bool
}

// NewStripeGateway creates a gateway on the live Stripe API. Network retries
// are disabled; a failed call surfaces to the caller immediately.
func NewStripeGateway(secretKey string) *StripeGateway {
	backend := stripe.GetBackendWithConfig(stripe.APIBackend, &stripe.BackendConfig{
		MaxNetworkRetries: stripe.Int64(0),
	})
	return NewStripeGatewayWithBackend(secretKey, backend)
}

// NewStripeGatewayWithBackend creates a gateway on an explicit Stripe backend.
func NewStripeGatewayWithBackend(secretKey string, backend stripe.Backend) *StripeGateway {
	return &StripeGateway{
		sessions:   &session.Client{B: backend, Key: secretKey},
		configured: secretKey != "",
	}
}

func (g *StripeGateway) CreateCheckoutSession(ctx context.Context, req *models.SessionRequest) (*models.CheckoutSession, error) {
	if !g.configured {
		return nil, ErrGatewayNotConfigured
	}

	params := buildSessionParams(req)
	params.Context = ctx

	s, err := g.sessions.New(params)
	if err != nil {
		return nil, newGatewayError("create checkout session", err)
	}

	amount := s.AmountTotal
	if amount == 0 {
		amount = req.AmountTotal()
	}
	currency := string(s.Currency)
	if currency == "" {
		currency = req.Currency
	}

	return &models.CheckoutSession{
		ID:              s.ID,
		URL:             s.URL,
		SuccessRedirect: req.SuccessURL,
		CancelRedirect:  req.CancelURL,
		AmountTotal:     amount,
		Currency:        currency,
	}, nil
}

func (g *StripeGateway) GetCheckoutSession(ctx context.Context, id string) (*models.SessionStatus, error) {
	if !g.configured {
		return nil, ErrGatewayNotConfigured
	}

	params := &stripe.CheckoutSessionParams{}
	params.Context = ctx

	s, err := g.sessions.Get(id, params)
	if err != nil {
		var stripeErr *stripe.Error
		if errors.As(err, &stripeErr) && stripeErr.Code == stripe.ErrorCodeResourceMissing {
			return nil, ErrSessionNotFound
		}
		return nil, newGatewayError("get checkout session", err)
	}

	return &models.SessionStatus{
		ID:                s.ID,
		Status:            string(s.Status),
		PaymentStatus:     string(s.PaymentStatus),
		AmountTotal:       s.AmountTotal,
		Currency:          string(s.Currency),
		CustomerReference: s.ClientReferenceID,
	}, nil
}

// buildSessionParams maps a priced session request onto Stripe's params.
// Amounts come only from the priced line items.
func buildSessionParams(req *models.SessionRequest) *stripe.CheckoutSessionParams {
	lineItems := make([]*stripe.CheckoutSessionLineItemParams, 0, len(req.LineItems))
	for _, li := range req.LineItems {
		productData := &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
			Name: stripe.String(li.Name),
		}
		if li.ImageURL != nil && *li.ImageURL != "" {
			productData.Images = stripe.StringSlice([]string{*li.ImageURL})
		}
		lineItems = append(lineItems, &stripe.CheckoutSessionLineItemParams{
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency:    stripe.String(req.Currency),
				ProductData: productData,
				UnitAmount:  stripe.Int64(li.UnitAmount),
			},
			Quantity: stripe.Int64(li.Quantity),
		})
	}

	params := &stripe.CheckoutSessionParams{
		Mode:       stripe.String(req.Mode),
		SuccessURL: stripe.String(req.SuccessURL),
		CancelURL:  stripe.String(req.CancelURL),
		LineItems:  lineItems,
		ShippingAddressCollection: &stripe.CheckoutSessionShippingAddressCollectionParams{
			AllowedCountries: stripe.StringSlice(req.AllowedCountries),
		},
	}
	if req.CustomerReference != "" {
		params.ClientReferenceID = stripe.String(req.CustomerReference)
	}
	return params
}

// GatewayError carries the gateway's own message for diagnostics.
type GatewayError struct {
	Op      string
	Message string
	Err     error
}

func (e *GatewayError) Error() string {
	return "stripe " + e.Op + ": " + e.Message
}

func (e *GatewayError) Unwrap() error {
	return e.Err
}

func newGatewayError(op string, err error) *GatewayError {
	msg := err.Error()
	var stripeErr *stripe.Error
	if errors.As(err, &stripeErr) && stripeErr.Msg != "" {
		msg = stripeErr.Msg
	}
	return &GatewayError{Op: op, Message: msg, Err: err}
}
