package controllers

import (
	"net/http"

	"github.com/jjrmrcly79/naturalezamistica/models"
	"github.com/jjrmrcly79/naturalezamistica/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// CatalogController serves the public catalog.
type CatalogController struct {
	catalogService services.CatalogService
	logger         *zap.Logger
}

func NewCatalogController(catalogService services.CatalogService, logger *zap.Logger) *CatalogController {
	return &CatalogController{catalogService: catalogService, logger: logger}
}

// ListProducts handles GET /products?search=&category=&page=&limit=.
func (cc *CatalogController) ListProducts(ctx *gin.Context) {
	page, limit, err := parsePagination(ctx)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, svcErr := cc.catalogService.ListProducts(ctx.Request.Context(), models.ProductQuery{
		Search:   ctx.Query("search"),
		Category: ctx.Query("category"),
		Page:     page,
		Limit:    limit,
	})
	if svcErr != nil {
		respondError(ctx, cc.logger, svcErr)
		return
	}

	totalPages := int((result.Total + int64(result.Limit) - 1) / int64(result.Limit))
	ctx.JSON(http.StatusOK, gin.H{
		"products": result.Products,
		"meta": gin.H{
			"page":       result.Page,
			"limit":      result.Limit,
			"total":      result.Total,
			"totalPages": totalPages,
		},
	})
}

// GetProduct handles GET /products/:id.
func (cc *CatalogController) GetProduct(ctx *gin.Context) {
	id, ok := parseProductID(ctx)
	if !ok {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid product id"})
		return
	}

	product, svcErr := cc.catalogService.GetProduct(ctx.Request.Context(), id)
	if svcErr != nil {
		respondError(ctx, cc.logger, svcErr)
		return
	}
	ctx.JSON(http.StatusOK, product)
}

// ListCategories handles GET /categories.
func (cc *CatalogController) ListCategories(ctx *gin.Context) {
	categories, svcErr := cc.catalogService.ListCategories(ctx.Request.Context())
	if svcErr != nil {
		respondError(ctx, cc.logger, svcErr)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"categories": categories})
}
