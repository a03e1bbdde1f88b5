package routes

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/nexamart/nexamart-backend-go/handlers"
	customMiddleware "github.com/nexamart/nexamart-backend-go/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Handlers groups every HTTP handler the API serves.
type Handlers struct {
	Auth     *handlers.AuthHandler
	Users    *handlers.UserHandler
	Products *handlers.ProductHandler
	Cart     *handlers.CartHandler
	Orders   *handlers.OrderHandler
	Contact  *handlers.ContactHandler
}

// SetupRoutes mounts the API under /api. auth guards signed-in routes and
// limiter throttles the credential and contact endpoints.
func SetupRoutes(e *echo.Echo, h Handlers, auth echo.MiddlewareFunc, limiter *customMiddleware.RateLimiter) {
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	api := e.Group("/api")
	admin := []echo.MiddlewareFunc{auth, customMiddleware.AdminOnly}

	// Auth routes
	authGroup := api.Group("/auth")
	authGroup.GET("", h.Auth.Home)
	authGroup.GET("/", h.Auth.Home)
	authGroup.POST("/register", h.Auth.Register, limiter.Middleware())
	authGroup.POST("/login", h.Auth.Login, limiter.Middleware())
	authGroup.GET("/user", h.Users.GetUser, auth)
	authGroup.PUT("/update", h.Users.UpdateProfile, auth)
	authGroup.PUT("/change-password", h.Users.ChangePassword, auth)

	// Address routes
	address := api.Group("/address", auth)
	address.GET("", h.Users.GetAddresses)
	address.POST("", h.Users.AddAddress)
	address.PUT("/:id", h.Users.UpdateAddress)
	address.DELETE("/:id", h.Users.DeleteAddress)

	// Product routes
	products := api.Group("/products")
	products.GET("", h.Products.GetProducts)
	products.GET("/:id", h.Products.GetProduct)
	products.POST("", h.Products.CreateProduct, admin...)
	products.PUT("/:id", h.Products.UpdateProduct, admin...)
	products.DELETE("/:id", h.Products.DeleteProduct, admin...)

	// Category routes
	categories := api.Group("/categories")
	categories.GET("", h.Products.GetCategories)
	categories.POST("", h.Products.CreateCategory, admin...)
	categories.PUT("/:id", h.Products.UpdateCategory, admin...)
	categories.DELETE("/:id", h.Products.DeleteCategory, admin...)

	// Cart routes
	cart := api.Group("/cart", auth)
	cart.GET("", h.Cart.GetCart)
	cart.POST("", h.Cart.AddToCart)
	cart.DELETE("", h.Cart.ClearCart)
	cart.PUT("/:productId", h.Cart.UpdateCartItem)
	cart.DELETE("/:productId", h.Cart.RemoveCartItem)

	// Order routes
	orders := api.Group("/orders", auth)
	orders.POST("", h.Orders.PlaceOrder)
	orders.POST("/place-order", h.Orders.PlaceOrder)
	orders.POST("/create-checkout-session", h.Orders.CreateCheckoutSession)
	orders.GET("", h.Orders.GetMyOrders)
	orders.GET("/my-orders", h.Orders.GetMyOrders)
	orders.GET("/all", h.Orders.GetAllOrders, customMiddleware.AdminOnly)
	orders.GET("/:id", h.Orders.GetOrder)
	orders.PUT("/:id/status", h.Orders.UpdateOrderStatus, customMiddleware.AdminOnly)

	// Payment routes; the webhook is authenticated by its signature.
	payment := api.Group("/payment")
	payment.POST("/create-checkout-session", h.Orders.CreateCheckoutSession, auth)
	payment.POST("/webhook", h.Orders.Webhook)

	api.POST("/form/contact", h.Contact.Submit, limiter.Middleware())
}
