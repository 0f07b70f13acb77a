package controllers

import (
	"net/http"

	"github.com/jjrmrcly79/naturalezamistica/middleware"
	"github.com/jjrmrcly79/naturalezamistica/models"
	"github.com/jjrmrcly79/naturalezamistica/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// AdminController handles catalog mutations. Routes are mounted behind
// middleware.RequireAdmin.
type AdminController struct {
	catalogService services.CatalogService
	logger         *zap.Logger
}

func NewAdminController(catalogService services.CatalogService, logger *zap.Logger) *AdminController {
	return &AdminController{catalogService: catalogService, logger: logger}
}

type imageUploadRequest struct {
	ContentType string `json:"content_type" binding:"required"`
}

// CreateProduct handles POST /admin/products.
func (ac *AdminController) CreateProduct(ctx *gin.Context) {
	var in models.ProductInput
	if err := ctx.ShouldBindJSON(&in); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": bindingErrorMessage(err)})
		return
	}

	product, svcErr := ac.catalogService.CreateProduct(ctx.Request.Context(), &in)
	if svcErr != nil {
		respondError(ctx, ac.logger, svcErr)
		return
	}

	ac.audit(ctx, "product_created", product.ID)
	ctx.JSON(http.StatusCreated, gin.H{"product": product})
}

// UpdateProduct handles PUT /admin/products/:id.
func (ac *AdminController) UpdateProduct(ctx *gin.Context) {
	id, ok := parseProductID(ctx)
	if !ok {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid product id"})
		return
	}

	var in models.ProductInput
	if err := ctx.ShouldBindJSON(&in); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": bindingErrorMessage(err)})
		return
	}

	product, svcErr := ac.catalogService.UpdateProduct(ctx.Request.Context(), id, &in)
	if svcErr != nil {
		respondError(ctx, ac.logger, svcErr)
		return
	}

	ac.audit(ctx, "product_updated", id)
	ctx.JSON(http.StatusOK, gin.H{"product": product})
}

// DeleteProduct handles DELETE /admin/products/:id.
func (ac *AdminController) DeleteProduct(ctx *gin.Context) {
	id, ok := parseProductID(ctx)
	if !ok {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid product id"})
		return
	}

	if svcErr := ac.catalogService.DeleteProduct(ctx.Request.Context(), id); svcErr != nil {
		respondError(ctx, ac.logger, svcErr)
		return
	}

	ac.audit(ctx, "product_deleted", id)
	ctx.JSON(http.StatusOK, gin.H{"message": "Product deleted"})
}

// PresignImageUpload handles POST /admin/products/:id/image-upload.
func (ac *AdminController) PresignImageUpload(ctx *gin.Context) {
	id, ok := parseProductID(ctx)
	if !ok {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid product id"})
		return
	}

	var req imageUploadRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": bindingErrorMessage(err)})
		return
	}

	upload, svcErr := ac.catalogService.PresignImageUpload(ctx.Request.Context(), id, req.ContentType)
	if svcErr != nil {
		respondError(ctx, ac.logger, svcErr)
		return
	}
	ctx.JSON(http.StatusOK, upload)
}

func (ac *AdminController) audit(ctx *gin.Context, action string, productID int64) {
	userID := ""
	if identity := middleware.GetIdentity(ctx); identity != nil {
		userID = identity.UserID
	}
	ac.logger.Info("admin action",
		zap.String("action", action),
		zap.Int64("product_id", productID),
		zap.String("user_id", userID),
	)
}
