package main

import (
	"context"
	"log"

	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"

	"opensox/internal/analytics"
	"opensox/internal/caching"
	"opensox/internal/config"
	"opensox/internal/handlers"
	"opensox/internal/jobs/background"
	"opensox/internal/middleware"
	"opensox/internal/repositories"
	"opensox/internal/services"
	"opensox/pkg/database"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Database connection pool
	pool, err := database.NewPool(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer pool.Close()

	// Cache service
	cacheSvc := caching.NewRedisCacheService(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)

	// Telemetry sink; runs without a broker
	var sink analytics.Sink
	if cfg.AmqpURL != "" {
		sink, err = analytics.NewRabbitSink(cfg.AmqpURL)
		if err != nil {
			log.Printf("WARN: telemetry sink unavailable, events will be dropped: %v", err)
			sink = analytics.NewNopSink()
		}
	} else {
		sink = analytics.NewNopSink()
	}
	defer sink.Close()

	// Object storage for receipts; optional in development
	var storageSvc services.ObjectStorageService
	if cfg.MinioEndpoint != "" {
		storageSvc, err = services.NewMinioService(cfg.MinioEndpoint, cfg.MinioAccessKey, cfg.MinioSecretKey, cfg.MinioUseSSL)
		if err != nil {
			log.Fatalf("Failed to initialize object storage: %v", err)
		}
	}

	// Repositories
	userRepo := repositories.NewUserRepo(pool)
	planRepo := repositories.NewPlanRepo(pool)
	subscriptionRepo := repositories.NewSubscriptionRepo(pool)
	paymentRepo := repositories.NewPaymentRepo(pool)
	ledgerRepo := repositories.NewLedgerRepo(pool)

	// Services
	razorpaySvc := services.NewRazorpayService(cfg.RazorpayKeyID, cfg.RazorpayKeySecret, cfg.RazorpayWebhookSecret)
	orderSvc := services.NewOrderService(planRepo, razorpaySvc)
	verificationSvc := services.NewVerificationService(razorpaySvc, planRepo, ledgerRepo, cacheSvc, sink)
	subscriptionSvc := services.NewSubscriptionService(subscriptionRepo, cacheSvc)
	receiptSvc := services.NewReceiptService(paymentRepo, planRepo, storageSvc)

	if storageSvc != nil {
		if err := storageSvc.EnsureBucketExists(context.Background(), receiptSvc.BucketName()); err != nil {
			log.Printf("WARN: receipt bucket check failed: %v", err)
		}
	}

	// Handlers
	authHandlers := handlers.NewAuthHandlers(userRepo, cfg.JWTSecret)
	planHandlers := handlers.NewPlanHandlers(orderSvc)
	paymentHandlers := handlers.NewPaymentHandlers(orderSvc, verificationSvc, receiptSvc, razorpaySvc)
	subscriptionHandlers := handlers.NewSubscriptionHandlers(subscriptionSvc)
	webhookHandlers := handlers.NewWebhookHandlers(razorpaySvc, verificationSvc)
	healthHandlers := handlers.NewHealthHandlers(pool, cacheSvc, storageSvc, receiptSvc.BucketName())

	// Background jobs
	scheduler := background.NewJobScheduler(subscriptionSvc, receiptSvc, storageSvc)
	if err := scheduler.Start(); err != nil {
		log.Printf("WARN: failed to start job scheduler: %v", err)
	}
	defer scheduler.Stop()

	// Echo instance
	e := echo.New()

	// Global middleware
	e.Use(echoMiddleware.Logger())
	e.Use(echoMiddleware.Recover())
	e.Use(echoMiddleware.CORS())
	e.Pre(echoMiddleware.RemoveTrailingSlash())

	// Health endpoints (no auth required)
	e.GET("/health", healthHandlers.HealthCheck)
	e.GET("/health/live", healthHandlers.LivenessCheck)
	e.GET("/health/ready", healthHandlers.ReadinessCheck)

	// Gateway webhooks authenticate with their own HMAC, not a JWT
	e.POST("/webhooks/razorpay", webhookHandlers.RazorpayWebhook)

	v1 := e.Group("/v1")

	// Authentication routes
	v1.POST("/auth/login", authHandlers.Login)

	// Public catalog
	v1.GET("/plans", planHandlers.ListPlans)

	// Protected routes
	protected := v1.Group("")
	protected.Use(middleware.JWTMiddleware(userRepo, cfg.JWTSecret))

	protected.POST("/payments/order", paymentHandlers.CreateOrder)
	protected.POST("/payments/verify", paymentHandlers.VerifyPayment)
	protected.GET("/payments/:id/receipt", paymentHandlers.GetReceipt)

	protected.GET("/subscription/status", subscriptionHandlers.GetStatus)
	protected.POST("/subscription/status/refresh", subscriptionHandlers.RefreshStatus)

	log.Printf("Opensox payments server starting on port %s", cfg.Port)
	if err := e.Start(":" + cfg.Port); err != nil {
		log.Fatalf("Server stopped: %v", err)
	}
}
