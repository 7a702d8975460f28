package main

import (
	"log"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"uzpay-service/internal/cache"
	"uzpay-service/internal/database"
	"uzpay-service/internal/gateways"
	"uzpay-service/internal/handlers"
	"uzpay-service/internal/lock"
	"uzpay-service/internal/metrics"
	"uzpay-service/internal/ratelimit"
	"uzpay-service/internal/services"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found in current directory, trying parent")
		if err := godotenv.Load("../.env"); err != nil {
			log.Println("No .env file found, using system environment variables")
		}
	}

	if mode := os.Getenv("GIN_MODE"); mode != "" {
		gin.SetMode(mode)
	}

	// Initialize Database
	database.Connect()
	database.Migrate()
	db := database.DB

	// Redis: settings cache and the distributed order lock
	redisAddr := os.Getenv("REDIS_URL")
	if redisAddr == "" {
		redisAddr = "localhost:6379"
	}
	rdb := redis.NewClient(&redis.Options{Addr: redisAddr})
	defer rdb.Close()

	// Asynq client for scheduling webhook retries
	asynqClient := asynq.NewClient(asynq.RedisClientOpt{Addr: redisAddr})
	defer asynqClient.Close()

	// Gateway adapters
	baseURL := os.Getenv("PUBLIC_BASE_URL")
	if baseURL == "" {
		baseURL = "http://localhost:8080"
	}
	registry := gateways.NewRegistry(
		gateways.NewPayme(baseURL),
		gateways.NewClick(baseURL),
		gateways.NewFreedomPay(baseURL),
	)

	// Services
	m := metrics.New("uzpay")
	settingsCache := cache.NewSettingsCache(db, rdb)
	locker := lock.NewRedisLocker(rdb)
	retryScheduler := services.NewRetryScheduler(asynqClient, db, m)
	notifier := services.NewHTTPHostNotifier(os.Getenv("HOST_NOTIFY_URL"))
	reconciler := services.NewReconciler(db, registry, locker, settingsCache, retryScheduler, notifier, m)

	idempotency := services.NewIdempotencyService(db)
	checkoutService := services.NewCheckoutService(db, settingsCache, idempotency, registry)
	summaryService := services.NewSummaryService(db)

	// Handlers
	limiter := ratelimit.NewDefault()
	callbackHandler := handlers.NewCallbackHandler(reconciler, limiter, m)
	paymentHandler := handlers.NewPaymentHandler(db, checkoutService, summaryService)
	settingsHandler := handlers.NewSettingsHandler(db, settingsCache)

	// Initialize Gin
	r := gin.Default()

	// Ping endpoint
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"message": "Welcome to UzPay service",
		})
	})

	// Gateway webhooks
	payme, _ := registry.Get("Payme")
	click, _ := registry.Get("Click")
	freedompay, _ := registry.Get("FreedomPay")
	r.POST("/api/callbacks/payme", callbackHandler.Handle(payme))
	r.POST("/api/callbacks/click", callbackHandler.Handle(click))
	r.POST("/api/callbacks/freedompay", callbackHandler.Handle(freedompay))

	// Payment API
	r.POST("/api/payments/:gateway/checkout", paymentHandler.CreateCheckout)
	r.GET("/api/payments", paymentHandler.ListPayments)
	r.GET("/api/payments/summary", paymentHandler.GetSummary)

	// Gateway credential administration
	r.PUT("/api/settings/:gateway", settingsHandler.Upsert)
	r.GET("/api/settings/:gateway", settingsHandler.Get)

	// Prometheus metrics
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Start Cron Schedulers
	monitorService := services.NewMonitorService(db)
	monitorService.StartScheduler()

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	log.Printf("HTTP Server starting on port %s", port)
	if err := r.Run(":" + port); err != nil {
		log.Fatal("Failed to start server: ", err)
	}
}
