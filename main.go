package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/SAP-F-2025/lms-service/internal/config"
	"github.com/SAP-F-2025/lms-service/internal/email"
	"github.com/SAP-F-2025/lms-service/internal/events"
	"github.com/SAP-F-2025/lms-service/internal/handlers"
	"github.com/SAP-F-2025/lms-service/internal/jobs"
	"github.com/SAP-F-2025/lms-service/internal/kvstore"
	"github.com/SAP-F-2025/lms-service/internal/repositories/casdoor"
	"github.com/SAP-F-2025/lms-service/internal/repositories/postgres"
	"github.com/SAP-F-2025/lms-service/internal/services"
	"github.com/SAP-F-2025/lms-service/internal/utils"
	"github.com/SAP-F-2025/lms-service/internal/validator"
	"github.com/SAP-F-2025/lms-service/pkg"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger
	slogLogger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}))
	slog.SetDefault(slogLogger)
	logger := utils.NewSlogLogger(slogLogger)

	// Initialize database
	db, err := pkg.InitDatabase(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}

	// Initialize Redis (if configured)
	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient, err = pkg.NewRedisClient(cfg)
		if err != nil {
			logger.Warn("Redis unavailable, using in-process cache and counters", "error", err)
			redisClient = nil
		}
	}

	// Initialize repositories
	repoManager := postgres.NewRepositoryManager(postgres.RepositoryConfig{
		DB:          db,
		RedisClient: redisClient,
		CacheTTL:    cfg.CacheTTL,
	})
	if err := repoManager.Initialize(); err != nil {
		log.Fatalf("Failed to initialize repositories: %v", err)
	}
	repo := repoManager.GetRepository()

	// Short-lived counters
	var store kvstore.Store
	var sweeper jobs.Sweeper
	if redisClient != nil {
		store = kvstore.NewRedisStore(redisClient, "lms:")
	} else {
		memory := kvstore.NewMemoryStore()
		store, sweeper = memory, memory
	}

	// Message bus: Kafka when brokers are configured, otherwise in-process
	var (
		publisher  message.Publisher
		subscriber message.Subscriber
	)
	if len(cfg.KafkaBrokers) > 0 {
		publisher, err = events.NewKafkaPublisher(cfg.KafkaBrokers, slogLogger)
		if err != nil {
			log.Fatalf("Failed to create event publisher: %v", err)
		}
		subscriber, err = events.NewKafkaSubscriber(cfg.KafkaBrokers, cfg.KafkaConsumerGroup, slogLogger)
		if err != nil {
			log.Fatalf("Failed to create event subscriber: %v", err)
		}
	} else {
		pubSub := events.NewInProcessPubSub(slogLogger)
		publisher, subscriber = pubSub, pubSub
	}

	// Email delivery
	var mailer email.Sender = email.NewLogSender(slogLogger)
	if cfg.Email.SendGridAPIKey != "" {
		mailer = email.NewSendGridSender(cfg.Email.SendGridAPIKey, cfg.Email.FromName, cfg.Email.FromEmail)
	}

	consumer, err := events.NewNotificationEmailConsumer(subscriber, mailer, slogLogger)
	if err != nil {
		log.Fatalf("Failed to create notification consumer: %v", err)
	}

	// Initialize validator
	validator := validator.New()

	// Initialize services
	deps := services.Dependencies{
		Cache:     repoManager.CacheManager(),
		Publisher: events.NewWatermillPublisher(publisher, slogLogger),
		KV:        store,
		Tokens:    services.NewTokenManager(cfg.JWT.Secret, cfg.JWT.TTL, cfg.JWT.Issuer),
		Mailer:    mailer,
		OTP:       cfg.OTP,
	}
	if cfg.Google.ClientID != "" {
		deps.GoogleVerifier = services.NewGoogleVerifier(cfg.Google.ClientID)
	}

	serviceManager := services.NewServiceManager(db, repo, slogLogger, validator, deps)
	if err := serviceManager.Initialize(context.Background()); err != nil {
		log.Fatalf("Failed to initialize services: %v", err)
	}

	// Background work
	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	go func() {
		if err := consumer.Run(ctx); err != nil {
			logger.Error("Notification consumer stopped", "error", err)
		}
	}()

	scheduler := jobs.NewScheduler(repo, sweeper, slogLogger)
	if err := scheduler.Register(); err != nil {
		log.Fatalf("Failed to schedule jobs: %v", err)
	}
	scheduler.Start()

	// Initialize handlers
	opts := handlers.HandlerOptions{
		Store:         store,
		Upload:        cfg.Upload,
		AuthRateLimit: cfg.AuthRateLimit,
	}
	if cfg.Casdoor.Enabled() {
		opts.External = casdoor.NewIdentityCasdoor(cfg.Casdoor, redisClient)
		logger.Info("Casdoor SSO enabled", "endpoint", cfg.Casdoor.Endpoint)
	}
	handlerManager := handlers.NewHandlerManager(serviceManager, validator, logger, opts)

	// Setup Gin router
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	handlers.SetupMiddleware(router, logger)
	handlerManager.SetupRoutes(router)

	// Create HTTP server
	server := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Info("Starting server", "port", cfg.Port, "environment", cfg.Environment)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", "error", err)
	}

	scheduler.Stop(shutdownCtx)
	stop()
	if err := consumer.Close(); err != nil {
		logger.Error("Failed to close notification consumer", "error", err)
	}

	// Closes the event publisher
	if err := serviceManager.Shutdown(shutdownCtx); err != nil {
		logger.Error("Failed to shutdown services", "error", err)
	}
	if err := subscriber.Close(); err != nil {
		logger.Error("Failed to close event subscriber", "error", err)
	}

	if err := repoManager.Shutdown(shutdownCtx); err != nil {
		logger.Error("Failed to close database", "error", err)
	}
	if redisClient != nil {
		redisClient.Close()
	}

	logger.Info("Server exited")
}
