package routes

import (
	"github.com/jjrmrcly79/naturalezamistica/controllers"

	"github.com/gin-gonic/gin"
)

// RegisterCheckoutRoutes sets up the checkout routes. limiter guards the
// routes that reach the payment gateway.
func RegisterCheckoutRoutes(r *gin.Engine, cc *controllers.CheckoutController, limiter gin.HandlerFunc) {
	r.OPTIONS("/create-checkout", cc.Preflight)
	r.POST("/create-checkout", limiter, cc.CreateCheckout)

	sessionRoutes := r.Group("/checkout/sessions")
	sessionRoutes.Use(limiter)
	sessionRoutes.GET("/:id", cc.GetSessionStatus)
}

// RegisterCatalogRoutes sets up the public catalog routes.
func RegisterCatalogRoutes(r *gin.Engine, cc *controllers.CatalogController) {
	r.GET("/products", cc.ListProducts)
	r.GET("/products/:id", cc.GetProduct)
	r.GET("/categories", cc.ListCategories)
}

// RegisterAdminRoutes sets up the admin catalog routes behind requireAdmin.
func RegisterAdminRoutes(r *gin.Engine, ac *controllers.AdminController, requireAdmin gin.HandlerFunc) {
	adminRoutes := r.Group("/admin/products")
	adminRoutes.Use(requireAdmin)
	adminRoutes.POST("", ac.CreateProduct)
	adminRoutes.PUT("/:id", ac.UpdateProduct)
	adminRoutes.DELETE("/:id", ac.DeleteProduct)
	adminRoutes.POST("/:id/image-upload", ac.PresignImageUpload)
}
