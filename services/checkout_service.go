package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jjrmrcly79/naturalezamistica/models"
	aws_pkg "github.com/jjrmrcly79/naturalezamistica/pkg/aws"

	"go.uber.org/zap"
)

const (
	checkoutMode     = "payment"
	checkoutCurrency = "usd"
)

// ShippingCountries is the fixed allow-list offered on the hosted page.
var ShippingCountries = []string{"US", "CA", "MX", "ES", "CL", "AR", "CO", "PE"}

// ProductFinder is the catalog lookup checkout depends on.
type ProductFinder interface {
	FindByIDs(ctx context.Context, ids []int64) ([]models.Product, error)
}

// CheckoutRecorder observes checkout outcomes ("success" or an ErrorKind).
type CheckoutRecorder interface {
	ObserveCheckout(outcome string)
}

// CheckoutService defines the checkout business logic.
type CheckoutService interface {
	CreateCheckoutSession(ctx context.Context, req *models.CheckoutRequest) (*models.CheckoutSession, *ServiceError)
	GetSessionStatus(ctx context.Context, credential, sessionID string) (*models.SessionStatus, *ServiceError)
}

// checkoutServiceImpl implements CheckoutService.
type checkoutServiceImpl struct {
	products    ProductFinder
	auth        Authenticator
	gateway     PaymentGateway
	snsClient   aws_pkg.SNSPublisher
	snsTopicArn string
	recorder    CheckoutRecorder
	callTimeout time.Duration
	logger      *zap.Logger
}

// NewCheckoutService creates a new CheckoutService. Every external call is
// bounded by callTimeout.
func NewCheckoutService(
	products ProductFinder,
	auth Authenticator,
	gateway PaymentGateway,
	snsClient aws_pkg.SNSPublisher,
	snsTopicArn string,
	recorder CheckoutRecorder,
	callTimeout time.Duration,
	logger *zap.Logger,
) CheckoutService {
	return &checkoutServiceImpl{
		products:    products,
		auth:        auth,
		gateway:     gateway,
		snsClient:   snsClient,
		snsTopicArn: snsTopicArn,
		recorder:    recorder,
		callTimeout: callTimeout,
		logger:      logger,
	}
}

// CreateCheckoutSession reprices the cart from the catalog and opens a
// hosted payment session. Client-supplied prices, names and images are
// never read.
func (s *checkoutServiceImpl) CreateCheckoutSession(ctx context.Context, req *models.CheckoutRequest) (*models.CheckoutSession, *ServiceError) {
	sess, svcErr := s.createCheckoutSession(ctx, req)
	if s.recorder != nil {
		if svcErr != nil {
			s.recorder.ObserveCheckout(string(svcErr.Kind))
		} else {
			s.recorder.ObserveCheckout("success")
		}
	}
	return sess, svcErr
}

func (s *checkoutServiceImpl) createCheckoutSession(ctx context.Context, req *models.CheckoutRequest) (*models.CheckoutSession, *ServiceError) {
	credential := strings.TrimSpace(req.Credential)
	if credential == "" {
		return nil, unauthorized("Authorization credential is required", nil)
	}
	if len(req.Items) == 0 {
		return nil, invalidRequest("Cart is empty")
	}
	for _, line := range req.Items {
		if line.ID <= 0 {
			return nil, invalidRequest(fmt.Sprintf("Invalid product id %d", line.ID))
		}
		if line.Quantity < 1 || line.Quantity > models.MaxLineQuantity {
			return nil, invalidRequest(fmt.Sprintf("Invalid quantity for product %d", line.ID))
		}
	}
	origin := strings.TrimSuffix(strings.TrimSpace(req.Origin), "/")
	if origin == "" {
		return nil, invalidRequest("Request origin is required")
	}

	identity, svcErr := s.authenticate(ctx, credential)
	if svcErr != nil {
		return nil, svcErr
	}

	ids := distinctProductIDs(req.Items)
	products, err := s.findProducts(ctx, ids)
	if err != nil {
		s.logger.Error("Catalog lookup failed", zap.Int64s("product_ids", ids), zap.Error(err))
		return nil, upstreamUnavailable("Catalog is unavailable, try again later", err)
	}

	byID := make(map[int64]*models.Product, len(products))
	for i := range products {
		byID[products[i].ID] = &products[i]
	}

	lineItems := make([]models.PricedLineItem, 0, len(req.Items))
	for _, line := range req.Items {
		product, ok := byID[line.ID]
		if !ok {
			s.logger.Warn("Checkout rejected: unknown product",
				zap.String("user_id", identity.UserID),
				zap.Int64("product_id", line.ID),
			)
			return nil, invalidRequest(fmt.Sprintf("Product %d not found", line.ID))
		}
		lineItems = append(lineItems, models.PricedLineItem{
			ProductID:  product.ID,
			Name:       product.Name,
			ImageURL:   product.ImageURL,
			UnitAmount: product.UnitAmountMinor(),
			Quantity:   int64(line.Quantity),
		})
	}

	sessionReq := &models.SessionRequest{
		LineItems:         lineItems,
		Mode:              checkoutMode,
		Currency:          checkoutCurrency,
		SuccessURL:        origin + "/cart?success=true",
		CancelURL:         origin + "/cart",
		AllowedCountries:  ShippingCountries,
		CustomerReference: identity.UserID,
	}

	gwCtx, cancel := context.WithTimeout(ctx, s.callTimeout)
	defer cancel()
	sess, err := s.gateway.CreateCheckoutSession(gwCtx, sessionReq)
	if err != nil {
		s.logger.Error("Payment gateway rejected checkout session",
			zap.String("user_id", identity.UserID),
			zap.Int64("amount_total", sessionReq.AmountTotal()),
			zap.Error(err),
		)
		return nil, upstreamUnavailable("Payment could not be processed, try again later", err)
	}

	s.logger.Info("Checkout session created",
		zap.String("session_id", sess.ID),
		zap.String("user_id", identity.UserID),
		zap.Int64("amount_total", sess.AmountTotal),
		zap.Int("line_count", len(lineItems)),
	)

	s.publishSessionCreatedEvent(ctx, sess, identity.UserID, len(lineItems))
	return sess, nil
}

// GetSessionStatus returns the gateway status of a session the caller created.
// Sessions belonging to other users are reported as not found.
func (s *checkoutServiceImpl) GetSessionStatus(ctx context.Context, credential, sessionID string) (*models.SessionStatus, *ServiceError) {
	credential = strings.TrimSpace(credential)
	if credential == "" {
		return nil, unauthorized("Authorization credential is required", nil)
	}
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return nil, invalidRequest("Session id is required")
	}

	identity, svcErr := s.authenticate(ctx, credential)
	if svcErr != nil {
		return nil, svcErr
	}

	gwCtx, cancel := context.WithTimeout(ctx, s.callTimeout)
	defer cancel()
	status, err := s.gateway.GetCheckoutSession(gwCtx, sessionID)
	if errors.Is(err, ErrSessionNotFound) {
		return nil, notFound("Checkout session not found")
	}
	if err != nil {
		s.logger.Error("Failed to read checkout session", zap.String("session_id", sessionID), zap.Error(err))
		return nil, upstreamUnavailable("Payment gateway is unavailable, try again later", err)
	}
	if status.CustomerReference != identity.UserID {
		return nil, notFound("Checkout session not found")
	}
	return status, nil
}

func (s *checkoutServiceImpl) authenticate(ctx context.Context, credential string) (*models.Identity, *ServiceError) {
	authCtx, cancel := context.WithTimeout(ctx, s.callTimeout)
	defer cancel()

	identity, err := s.auth.Authenticate(authCtx, credential)
	switch {
	case err == nil:
		return identity, nil
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, ErrAuthNotConfigured):
		s.logger.Error("Authenticator unavailable", zap.Error(err))
		return nil, upstreamUnavailable("Authentication is unavailable, try again later", err)
	default:
		s.logger.Debug("Authentication failed", zap.Error(err))
		return nil, unauthorized("Invalid or expired session, please sign in", err)
	}
}

func (s *checkoutServiceImpl) findProducts(ctx context.Context, ids []int64) ([]models.Product, error) {
	dbCtx, cancel := context.WithTimeout(ctx, s.callTimeout)
	defer cancel()
	return s.products.FindByIDs(dbCtx, ids)
}

// distinctProductIDs returns each referenced id once, in first-seen order.
func distinctProductIDs(lines []models.CartLine) []int64 {
	seen := make(map[int64]struct{}, len(lines))
	ids := make([]int64, 0, len(lines))
	for _, line := range lines {
		if _, ok := seen[line.ID]; ok {
			continue
		}
		seen[line.ID] = struct{}{}
		ids = append(ids, line.ID)
	}
	return ids
}

// publishSessionCreatedEvent publishes a checkout_session_created event to SNS.
func (s *checkoutServiceImpl) publishSessionCreatedEvent(ctx context.Context, sess *models.CheckoutSession, userID string, lineCount int) {
	if s.snsClient == nil || s.snsTopicArn == "" {
		s.logger.Debug("SNS client not configured, skipping checkout_session_created event")
		return
	}

	event := models.CheckoutSessionEvent{
		Type:        "checkout_session_created",
		SessionID:   sess.ID,
		UserID:      userID,
		AmountTotal: sess.AmountTotal,
		Currency:    sess.Currency,
		LineCount:   lineCount,
		Timestamp:   time.Now().UTC(),
	}

	eventBytes, err := json.Marshal(event)
	if err != nil {
		s.logger.Error("Failed to marshal checkout_session_created event", zap.Error(err))
		return
	}

	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.callTimeout)
	defer cancel()
	if err := s.snsClient.Publish(pubCtx, s.snsTopicArn, eventBytes); err != nil {
		s.logger.Error("Failed to publish checkout_session_created event",
			zap.String("session_id", sess.ID),
			zap.Error(err),
		)
		return
	}

	s.logger.Info("Published checkout_session_created event", zap.String("session_id", sess.ID))
}
