package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/Roma10boss/fenkparet-checkout/internal/cache"
	"github.com/Roma10boss/fenkparet-checkout/internal/domain"
	"github.com/Roma10boss/fenkparet-checkout/internal/gateway"
	h "github.com/Roma10boss/fenkparet-checkout/internal/http"
	"github.com/Roma10boss/fenkparet-checkout/internal/repository"
	"github.com/Roma10boss/fenkparet-checkout/internal/service"
)

type Config struct {
	HTTPPort        string
	MongoURI        string
	MongoDBName     string
	RedisAddr       string
	RedisPassword   string
	OrdersBaseURL   string
	RequestTimeout  time.Duration
	GatewayTimeout  time.Duration
	ShutdownTimeout time.Duration
	Pricing         domain.PricingPolicy
}

func loadConfig() *Config {
	return &Config{
		HTTPPort:        getEnv("HTTP_PORT", "8080"),
		MongoURI:        getEnv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDBName:     getEnv("MONGO_DB_NAME", "checkoutdb"),
		RedisAddr:       getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:   getEnv("REDIS_PASSWORD", ""),
		OrdersBaseURL:   getEnv("ORDERS_BASE_URL", "http://localhost:5000"),
		RequestTimeout:  30 * time.Second,
		GatewayTimeout:  15 * time.Second,
		ShutdownTimeout: 10 * time.Second,
		Pricing: domain.PricingPolicy{
			FlatShipping:          getEnvInt64("FLAT_SHIPPING", 50),
			FreeShippingThreshold: getEnvInt64("FREE_SHIPPING_THRESHOLD", 0),
			TaxRateBasisPoints:    getEnvInt64("TAX_RATE_BASIS_POINTS", 0),
		},
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseInt(value, 10, 64); err == nil {
			return parsed
		}
		log.Fatalf("Invalid %s: %q", key, value)
	}
	return defaultValue
}

func main() {
	log.Println("checkout-service starting...")

	cfg := loadConfig()

	// Set up MongoDB connection
	ctx := context.Background()
	mongoDB, err := repository.ConnectMongoDB(ctx, cfg.MongoURI, cfg.MongoDBName)
	if err != nil {
		log.Fatalf("Failed to connect to MongoDB: %v", err)
	}
	log.Printf("Connected to MongoDB at %s", cfg.MongoURI)

	cartRepo := repository.NewMongoCartRepository(mongoDB)
	if err := cartRepo.CreateIndexes(ctx); err != nil {
		log.Fatalf("Failed to create cart indexes: %v", err)
	}

	checkoutRepo := repository.NewMongoCheckoutRepository(mongoDB)
	if err := checkoutRepo.CreateIndexes(ctx); err != nil {
		log.Fatalf("Failed to create checkout indexes: %v", err)
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       0,
	})
	defer redisClient.Close()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Fatal("Redis connection failed:", err)
	}
	log.Printf("Redis ping succeeded")

	cartCache := cache.NewRedisCache(redisClient)
	cartService := service.NewCartService(cartRepo, cartCache, cfg.Pricing)

	ordersClient := gateway.NewOrdersClient(cfg.OrdersBaseURL, cfg.GatewayTimeout)
	checkoutService := service.NewCheckoutService(cartService, checkoutRepo, ordersClient)

	cartHandler := h.NewCartHandler(cartService, cfg.RequestTimeout)
	checkoutHandler := h.NewCheckoutHandler(checkoutService, cfg.RequestTimeout)

	// Setup router
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.Timeout(cfg.RequestTimeout))
	r.Use(middleware.Compress(5))
	r.Use(h.SessionMiddleware)
	r.Use(h.AuthMiddleware)

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	// API routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/cart", func(r chi.Router) {
			r.Get("/", cartHandler.GetCart)
			r.Delete("/", cartHandler.ClearCart)
			r.Post("/items", cartHandler.AddItem)
			r.Put("/items/{line_id}", cartHandler.UpdateQuantity)
			r.Delete("/items/{line_id}", cartHandler.RemoveItem)
		})
		r.Route("/checkout", func(r chi.Router) {
			r.Post("/", checkoutHandler.Start)
			r.Get("/", checkoutHandler.Current)
			r.Route("/{checkout_id}", func(r chi.Router) {
				r.Get("/", checkoutHandler.Get)
				r.Post("/customer", checkoutHandler.SubmitCustomerInfo)
				r.Post("/shipping", checkoutHandler.SubmitShipping)
				r.Post("/payment", checkoutHandler.SubmitPayment)
				r.Post("/submit", checkoutHandler.Submit)
				r.Post("/back", checkoutHandler.Back)
			})
		})
	})

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      otelhttp.NewHandler(r, "checkout-service"),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 35 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Checkout service listening on :%s", cfg.HTTPPort)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server error: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("server forced to shutdown: %v", err)
	}

	if err := mongoDB.Client().Disconnect(shutdownCtx); err != nil {
		log.Printf("mongo disconnect error: %v", err)
	}

	log.Println("server exited")
}
