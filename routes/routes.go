package routes

import (
	"github.com/gin-gonic/gin"
	commonmw "github.com/jonbarlo/onlineshop-api/common/middleware"
	"github.com/jonbarlo/onlineshop-api/controllers"
	"github.com/jonbarlo/onlineshop-api/middleware"
)

// Controllers groups every HTTP handler set.
type Controllers struct {
	Health     *controllers.HealthController
	Auth       *controllers.AuthController
	Products   *controllers.ProductController
	Variants   *controllers.VariantController
	Images     *controllers.ImageController
	Categories *controllers.CategoryController
	Orders     *controllers.OrderController
	Dashboard  *controllers.DashboardController
}

// Limiters throttle the unauthenticated write endpoints. A nil limiter
// leaves its route unthrottled.
type Limiters struct {
	Orders *commonmw.RateLimiter
	Login  *commonmw.RateLimiter
}

func limit(l *commonmw.RateLimiter) []gin.HandlerFunc {
	if l == nil {
		return nil
	}
	return []gin.HandlerFunc{l.Middleware()}
}

// RegisterRoutes mounts the public storefront routes and the admin API.
func RegisterRoutes(r *gin.Engine, ctrl Controllers, tokens middleware.TokenValidator, limiters Limiters) {
	r.GET("/health", ctrl.Health.Health)

	r.POST("/auth/login", append(limit(limiters.Login), ctrl.Auth.Login)...)

	productRoutes := r.Group("/products")
	{
		productRoutes.GET("", ctrl.Products.GetProducts)
		productRoutes.GET("/:id", ctrl.Products.GetProductByID)
	}

	categoryRoutes := r.Group("/categories")
	{
		categoryRoutes.GET("", ctrl.Categories.GetCategories)
		categoryRoutes.GET("/:id", ctrl.Categories.GetCategory)
	}

	orderRoutes := r.Group("/orders")
	{
		orderRoutes.POST("", append(limit(limiters.Orders), ctrl.Orders.CreateOrder)...)
		orderRoutes.GET("/:orderNumber", ctrl.Orders.TrackOrder)
	}

	admin := r.Group("/admin", middleware.AuthMiddleware(tokens), middleware.AdminOnly())
	{
		admin.GET("/me", ctrl.Auth.Me)

		admin.GET("/products", ctrl.Products.AdminGetProducts)
		admin.POST("/products", ctrl.Products.CreateProduct)
		admin.PUT("/products/:id", ctrl.Products.UpdateProduct)
		admin.DELETE("/products/:id", ctrl.Products.DeleteProduct)

		admin.GET("/products/:id/variants", ctrl.Variants.GetVariants)
		admin.POST("/products/:id/variants", ctrl.Variants.CreateVariant)
		admin.PUT("/variants/:id", ctrl.Variants.UpdateVariant)

		admin.GET("/products/:id/images", ctrl.Images.GetImages)
		admin.POST("/products/:id/images", ctrl.Images.AddImage)
		admin.POST("/products/:id/images/upload-url", ctrl.Images.CreateUploadURL)
		admin.PUT("/images/:id", ctrl.Images.UpdateImage)
		admin.DELETE("/images/:id", ctrl.Images.DeleteImage)

		admin.GET("/categories", ctrl.Categories.AdminGetCategories)
		admin.POST("/categories", ctrl.Categories.CreateCategory)
		admin.PUT("/categories/:id", ctrl.Categories.UpdateCategory)
		admin.DELETE("/categories/:id", ctrl.Categories.DeleteCategory)

		admin.GET("/orders", ctrl.Orders.GetOrders)
		admin.GET("/orders/:id", ctrl.Orders.GetOrderByID)
		admin.PUT("/orders/:id/status", ctrl.Orders.UpdateOrderStatus)

		admin.GET("/dashboard/stats", ctrl.Dashboard.GetStats)
	}
}
