package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/nexamart/nexamart-backend-go/config"
	"github.com/nexamart/nexamart-backend-go/database"
	"github.com/nexamart/nexamart-backend-go/handlers"
	customMiddleware "github.com/nexamart/nexamart-backend-go/middleware"
	"github.com/nexamart/nexamart-backend-go/routes"
	"github.com/nexamart/nexamart-backend-go/services"
	"github.com/nexamart/nexamart-backend-go/utils"
	"github.com/prometheus/client_golang/prometheus"
)

func main() {
	// Load environment variables
	config.LoadEnv()
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Invalid configuration: ", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Connect to MongoDB
	client, db, err := database.ConnectDB(ctx, cfg.MongoURI, cfg.DatabaseName)
	if err != nil {
		log.Fatal("Failed to connect to database: ", err)
	}
	defer func() {
		if err := client.Disconnect(context.Background()); err != nil {
			log.Println("Error disconnecting from MongoDB:", err)
		}
	}()
	if err := database.EnsureIndexes(ctx, db); err != nil {
		log.Fatal("Failed to create indexes: ", err)
	}

	var cache services.Cache = services.NoopCache{}
	if cfg.RedisURL != "" {
		redisCache, err := database.ConnectRedis(ctx, cfg.RedisURL, cfg.CacheTTL)
		if err != nil {
			log.Println("Redis unavailable, catalog caching disabled:", err)
		} else {
			defer redisCache.Close()
			cache = redisCache
		}
	}

	var gateway services.PaymentGateway
	if processor, err := utils.NewPaymentProcessor(cfg.StripeSecretKey, cfg.StripeWebhookSecret); err != nil {
		log.Println("Online payments disabled:", err)
	} else {
		gateway = processor
	}

	users := database.NewUserStore(db)
	categories := database.NewCategoryStore(db)
	products := database.NewProductStore(db, categories)
	carts := database.NewCartStore(db)
	orders := database.NewOrderStore(client, db)
	payments := database.NewPaymentStore(db)
	contacts := database.NewContactStore(db)

	tokens := utils.NewTokenManager(cfg.JWTSecret, cfg.TokenTTL)
	authService := services.NewAuthService(users, tokens)
	orderService := services.NewOrderService(orders, payments, carts, products, users, gateway, cache, services.OrderConfig{
		Currency:    cfg.Currency,
		FrontendURL: cfg.FrontendURL,
	})

	h := routes.Handlers{
		Auth:     handlers.NewAuthHandler(authService),
		Users:    handlers.NewUserHandler(authService, services.NewAddressService(users)),
		Products: handlers.NewProductHandler(services.NewProductService(products, categories, cache), services.NewCategoryService(categories, products, cache)),
		Cart:     handlers.NewCartHandler(services.NewCartService(carts, products)),
		Orders:   handlers.NewOrderHandler(orderService),
		Contact:  handlers.NewContactHandler(services.NewContactService(contacts)),
	}

	// Initialize Echo
	e := echo.New()
	e.HideBanner = true
	e.Validator = handlers.NewValidator()
	e.HTTPErrorHandler = handlers.ErrorHandler
	e.IPExtractor = customMiddleware.ClientIP(cfg.TrustedProxies)

	// Middleware
	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: func() string { return uuid.NewString() },
	}))
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     cfg.AllowedOrigins,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAuthorization},
		AllowCredentials: true,
	}))
	e.Use(customMiddleware.NewMetrics(prometheus.DefaultRegisterer).Middleware())

	limiter := customMiddleware.NewRateLimiter(cfg.RateLimit, cfg.RateBurst)
	go limiter.Run(ctx.Done())

	// Setup routes
	routes.SetupRoutes(e, h, customMiddleware.Auth(tokens, users), limiter)

	// Start the server
	go func() {
		log.Printf("Server starting on port %s...", cfg.Port)
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Server error: ", err)
		}
	}()

	<-ctx.Done()
	log.Println("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Println("Error during shutdown:", err)
	}
}
