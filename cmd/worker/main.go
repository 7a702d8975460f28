package main

import (
	"log"
	"os"

	"github.com/hibiken/asynq"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"uzpay-service/internal/cache"
	"uzpay-service/internal/database"
	"uzpay-service/internal/gateways"
	"uzpay-service/internal/lock"
	"uzpay-service/internal/services"
	"uzpay-service/internal/worker"
)

func main() {
	// Load env
	if err := godotenv.Load("../../.env"); err != nil {
		log.Println("No .env file found in ../../.env, trying .env")
		if err := godotenv.Load(".env"); err != nil {
			log.Println("No .env file found, using system env")
		}
	}

	// Connect DB
	database.Connect()
	db := database.DB

	// Redis
	redisAddr := os.Getenv("REDIS_URL")
	if redisAddr == "" {
		redisAddr = "localhost:6379"
	}
	rdb := redis.NewClient(&redis.Options{Addr: redisAddr})
	defer rdb.Close()

	asynqClient := asynq.NewClient(asynq.RedisClientOpt{Addr: redisAddr})
	defer asynqClient.Close()

	baseURL := os.Getenv("PUBLIC_BASE_URL")
	if baseURL == "" {
		baseURL = "http://localhost:8080"
	}
	registry := gateways.NewRegistry(
		gateways.NewPayme(baseURL),
		gateways.NewClick(baseURL),
		gateways.NewFreedomPay(baseURL),
	)

	settingsCache := cache.NewSettingsCache(db, rdb)
	locker := lock.NewRedisLocker(rdb)
	retryScheduler := services.NewRetryScheduler(asynqClient, db, nil)
	notifier := services.NewHTTPHostNotifier(os.Getenv("HOST_NOTIFY_URL"))
	reconciler := services.NewReconciler(db, registry, locker, settingsCache, retryScheduler, notifier, nil)

	log.Println("Starting Asynq Worker...")
	worker.StartWorker(asynq.RedisClientOpt{Addr: redisAddr}, reconciler)
}
