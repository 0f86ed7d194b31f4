package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/openshop/storefront/internal/middleware/auth"
)

type Deps struct {
	DB           *gorm.DB
	Auth         *auth.Middleware
	AuthHandler  *AuthHandler
	Catalog      *CatalogHandler
	Cart         *CartHandler
	Orders       *OrderHandler
	AdminCatalog *AdminCatalogHandler
	AdminOrders  *AdminOrderHandler
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusNoContent) })
	e.GET("/health/ready", func(c echo.Context) error {
		sqlDB, err := d.DB.DB()
		if err != nil || sqlDB.PingContext(c.Request().Context()) != nil {
			return c.NoContent(http.StatusServiceUnavailable)
		}
		return c.NoContent(http.StatusNoContent)
	})

	v1 := e.Group("/api/v1")

	v1.POST("/auth/register", d.AuthHandler.Register)
	v1.POST("/auth/login", d.AuthHandler.Login)
	v1.POST("/auth/refresh", d.AuthHandler.Refresh)
	v1.POST("/auth/logout", d.AuthHandler.Logout)
	v1.POST("/auth/forgot-password", d.AuthHandler.ForgotPassword)
	v1.POST("/auth/reset-password", d.AuthHandler.ResetPassword)

	profile := v1.Group("/profile", d.Auth.RequireLogin)
	profile.GET("", d.AuthHandler.Profile)
	profile.PUT("", d.AuthHandler.UpdateProfile)
	profile.POST("/change-password", d.AuthHandler.ChangePassword)

	v1.GET("/categories", d.Catalog.ListCategories)
	v1.GET("/categories/:slug", d.Catalog.GetCategory)
	v1.GET("/products", d.Catalog.ListProducts)
	v1.GET("/products/search", d.Catalog.SearchProducts)
	v1.GET("/products/:slug", d.Catalog.GetProduct)

	cart := v1.Group("/cart", d.Auth.RequireLogin)
	cart.GET("", d.Cart.Get)
	cart.POST("", d.Cart.Add)
	cart.PATCH("/items/:id", d.Cart.UpdateItem)
	cart.DELETE("/items/:id", d.Cart.RemoveItem)
	cart.DELETE("", d.Cart.Clear)

	orders := v1.Group("/orders", d.Auth.RequireLogin)
	orders.POST("", d.Orders.Create)
	orders.GET("", d.Orders.ListMine)
	orders.GET("/:number", d.Orders.Details)
	orders.POST("/:number/cancel", d.Orders.Cancel)

	admin := v1.Group("/admin", d.Auth.RequireLogin, d.Auth.AdminOnly)

	admin.GET("/categories", d.AdminCatalog.ListCategories)
	admin.POST("/categories", d.AdminCatalog.CreateCategory)
	admin.PUT("/categories/:id", d.AdminCatalog.UpdateCategory)
	admin.DELETE("/categories/:id", d.AdminCatalog.DeleteCategory)

	admin.GET("/products", d.AdminCatalog.ListProducts)
	admin.GET("/products/:id", d.AdminCatalog.GetProduct)
	admin.POST("/products", d.AdminCatalog.CreateProduct)
	admin.PUT("/products/:id", d.AdminCatalog.UpdateProduct)
	admin.DELETE("/products/:id", d.AdminCatalog.DeleteProduct)
	admin.PATCH("/products/:id/stock", d.AdminCatalog.UpdateStock)
	admin.POST("/products/:id/images", d.AdminCatalog.UploadImages)
	admin.DELETE("/images/:id", d.AdminCatalog.DeleteImage)

	admin.GET("/orders", d.AdminOrders.List)
	admin.GET("/orders/statistics", d.AdminOrders.Statistics)
	admin.GET("/orders/:number", d.AdminOrders.Details)
	admin.PATCH("/orders/:number/status", d.AdminOrders.UpdateStatus)
}
