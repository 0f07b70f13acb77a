package controllers

import (
	"net/http"
	"strings"

	"github.com/jjrmrcly79/naturalezamistica/middleware"
	"github.com/jjrmrcly79/naturalezamistica/models"
	"github.com/jjrmrcly79/naturalezamistica/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// CheckoutController handles HTTP requests for checkout.
type CheckoutController struct {
	checkoutService services.CheckoutService
	frontendURL     string
	logger          *zap.Logger
}

// NewCheckoutController creates a new CheckoutController. frontendURL is the
// origin used when a request carries no Origin header.
func NewCheckoutController(checkoutService services.CheckoutService, frontendURL string, logger *zap.Logger) *CheckoutController {
	return &CheckoutController{
		checkoutService: checkoutService,
		frontendURL:     strings.TrimSuffix(frontendURL, "/"),
		logger:          logger,
	}
}

// CreateCheckout handles POST /create-checkout.
func (cc *CheckoutController) CreateCheckout(ctx *gin.Context) {
	credential := middleware.BearerToken(ctx)
	if credential == "" {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "Authorization credential is required"})
		return
	}

	var body models.CreateCheckoutBody
	if err := ctx.ShouldBindJSON(&body); err != nil {
		cc.logger.Warn("Invalid checkout body", zap.Error(err))
		ctx.JSON(http.StatusBadRequest, gin.H{"error": bindingErrorMessage(err)})
		return
	}

	sess, svcErr := cc.checkoutService.CreateCheckoutSession(ctx.Request.Context(), &models.CheckoutRequest{
		Credential: credential,
		Origin:     cc.origin(ctx),
		Items:      body.Items,
	})
	if svcErr != nil {
		respondError(ctx, cc.logger, svcErr)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"url": sess.URL})
}

// Preflight handles OPTIONS /create-checkout. No authentication is performed.
func (cc *CheckoutController) Preflight(ctx *gin.Context) {
	ctx.Status(http.StatusOK)
}

// GetSessionStatus handles GET /checkout/sessions/:id.
func (cc *CheckoutController) GetSessionStatus(ctx *gin.Context) {
	status, svcErr := cc.checkoutService.GetSessionStatus(ctx.Request.Context(), middleware.BearerToken(ctx), ctx.Param("id"))
	if svcErr != nil {
		respondError(ctx, cc.logger, svcErr)
		return
	}
	ctx.JSON(http.StatusOK, status)
}

// origin returns the request's Origin header, falling back to the configured frontend URL.
func (cc *CheckoutController) origin(ctx *gin.Context) string {
	if o := strings.TrimSpace(ctx.GetHeader("Origin")); o != "" && o != "null" {
		return o
	}
	return cc.frontendURL
}
