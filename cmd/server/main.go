package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ourskilllab/internal/config"
	"ourskilllab/internal/handlers"
	"ourskilllab/internal/middleware"
	"ourskilllab/internal/repositories/mongodb"
	"ourskilllab/internal/services"
	"ourskilllab/pkg/cache"
	"ourskilllab/pkg/database"
	"ourskilllab/pkg/email"
	"ourskilllab/pkg/logger"
	"ourskilllab/pkg/metrics"
	"ourskilllab/pkg/otp"
	"ourskilllab/pkg/payment"
	"ourskilllab/pkg/sms"
	"ourskilllab/pkg/storage"
	"ourskilllab/routes"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	appLogger, err := logger.NewLogger(&logger.Config{
		Level:   logger.LogLevel(cfg.App.LogLevel),
		Format:  cfg.App.LogFormat,
		Output:  "stdout",
		Caller:  cfg.App.Debug,
		AppName: cfg.App.Name,
		Version: cfg.App.Version,
	})
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, appLogger); err != nil {
		appLogger.WithError(err).Fatal("Server stopped with error")
	}
}

func run(ctx context.Context, cfg *config.Config, appLogger *logger.Logger) error {
	// Database
	db, err := database.NewMongoDB(&database.DatabaseConfig{
		URI:            cfg.Database.URI,
		Database:       cfg.Database.Database,
		MaxPoolSize:    cfg.Database.MaxPoolSize,
		MinPoolSize:    cfg.Database.MinPoolSize,
		ConnectTimeout: cfg.Database.ConnectTimeout,
		SocketTimeout:  cfg.Database.SocketTimeout,
	})
	if err != nil {
		return err
	}
	defer db.Close()

	if cfg.Database.RunMigrations {
		if err := database.NewMigrator(db.Database, appLogger).Up(ctx); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}
	}

	var transactor database.Transactor = database.SequentialTransactor{}
	if cfg.Database.UseTransactions {
		transactor = database.NewMongoTransactor(db.Client)
	}

	// Cache
	var (
		store       cache.Store
		redisClient *redis.Client
	)
	if cfg.Redis.Enabled {
		redisCache, err := cache.NewRedisCache(&cache.RedisConfig{
			Addr:         cfg.Redis.Addr(),
			Password:     cfg.Redis.Password,
			DB:           cfg.Redis.DB,
			PoolSize:     cfg.Redis.PoolSize,
			MinIdleConns: cfg.Redis.MinIdleConns,
			DialTimeout:  cfg.Redis.DialTimeout,
			ReadTimeout:  cfg.Redis.ReadTimeout,
			WriteTimeout: cfg.Redis.WriteTimeout,
		})
		if err != nil {
			return err
		}
		defer redisCache.Close()
		store = redisCache
		redisClient = redisCache.Client()
	} else {
		appLogger.Warn("Redis disabled, using in-process cache")
		store = cache.NewMemoryCache()
	}
	cacheService := services.NewCacheService(store, "ourskilllab", cfg.Redis.CacheTTL, appLogger)

	// OTP
	otpStore, err := newOTPStore(cfg, redisClient)
	if err != nil {
		return err
	}
	go otp.RunPurger(ctx, otpStore, cfg.Security.OTPPurgeInterval, appLogger)

	// Notifications
	smsProvider, err := newSMSProvider(ctx, cfg.SMS, appLogger)
	if err != nil {
		return err
	}
	var emailSender email.Sender = email.NewLogSender(appLogger)
	if cfg.SMTP.Enabled {
		emailSender = email.NewSMTPSender(email.SMTPConfig{
			Host:      cfg.SMTP.Host,
			Port:      cfg.SMTP.Port,
			Username:  cfg.SMTP.Username,
			Password:  cfg.SMTP.Password,
			FromEmail: cfg.SMTP.FromEmail,
			FromName:  cfg.SMTP.FromName,
			SSL:       cfg.SMTP.SSL,
		})
	}

	// Payments
	stripeProvider := payment.NewStripeProvider(cfg.Payment.Stripe.SecretKey, cfg.Payment.Stripe.WebhookSecret)
	providers := []payment.PaymentProvider{stripeProvider}
	if cfg.Payment.Razorpay.KeyID != "" {
		providers = append(providers, payment.NewRazorpayProvider(
			cfg.Payment.Razorpay.KeyID, cfg.Payment.Razorpay.KeySecret, cfg.Payment.Razorpay.WebhookSecret,
		))
	}
	defaultProvider := providers[0]
	for _, p := range providers {
		if p.Name() == cfg.Payment.DefaultProvider {
			defaultProvider = p
		}
	}

	// Storage
	fileStorage, err := newStorage(ctx, cfg.Storage)
	if err != nil {
		return err
	}
	if closer, ok := fileStorage.(io.Closer); ok {
		defer closer.Close()
	}

	m := metrics.New()

	// Repositories
	userRepo := mongodb.NewUserRepository(db.Database, cacheService)
	courseRepo := mongodb.NewCourseRepository(db.Database, cacheService)
	discountRepo := mongodb.NewDiscountRepository(db.Database)
	enrollmentRepo := mongodb.NewEnrollmentRepository(db.Database)
	planRepo := mongodb.NewSubscriptionPlanRepository(db.Database, cacheService)
	subscriptionRepo := mongodb.NewUserSubscriptionRepository(db.Database)

	// Services
	notifier := services.NewNotificationService(smsProvider, emailSender, cfg.App.Name, m, appLogger)
	authService := services.NewAuthService(userRepo, otpStore, notifier, cacheService, services.AuthConfig{
		JWTSecret:  cfg.Security.JWTSecret,
		TokenTTL:   cfg.Security.JWTAccessTokenTTL,
		OTPTTL:     cfg.Security.OTPExpiry,
		BcryptCost: cfg.Security.BcryptCost,
	}, m, appLogger)
	courseService := services.NewCourseService(courseRepo, fileStorage, services.ImageConfig{
		MaxWidth:  uint(cfg.Storage.ImageWidth),
		MaxHeight: uint(cfg.Storage.ImageHeight),
	}, appLogger)
	discountService := services.NewDiscountService(discountRepo, courseRepo, appLogger)
	enrollmentService := services.NewEnrollmentService(
		userRepo, courseRepo, discountRepo, enrollmentRepo, subscriptionRepo,
		transactor, defaultProvider, notifier, cfg.Payment.Currency, m, appLogger,
	)
	var subscriptionProvider payment.SubscriptionProvider
	if cfg.Payment.Stripe.SecretKey != "" {
		subscriptionProvider = stripeProvider
	}
	subscriptionService := services.NewSubscriptionService(
		planRepo, subscriptionRepo, userRepo, subscriptionProvider, cfg.Payment.Currency, m, appLogger,
	)
	webhookService := services.NewWebhookService(providers, enrollmentService, subscriptionService, cacheService, m, appLogger)

	// Router
	if !cfg.App.Debug {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	if err := router.SetTrustedProxies(cfg.Security.TrustedProxies); err != nil {
		return fmt.Errorf("invalid trusted proxies: %w", err)
	}
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.LoggingMiddleware(appLogger, m))
	router.Use(middleware.RecoveryMiddleware(appLogger))
	router.Use(middleware.CORSMiddleware(cfg.Security.CORSAllowedOrigins))

	health := handlers.NewHealthHandler(cfg.App.Version, map[string]handlers.Pinger{
		"mongodb": db,
		"cache":   store,
	}, appLogger)
	router.GET("/health", health.Health)
	router.GET("/metrics", gin.WrapH(m.Handler()))
	if cfg.Storage.Provider == "local" {
		router.Static("/uploads", cfg.Storage.Local.BasePath)
	}

	routes.SetupRoutes(router.Group("/api/v1"), &routes.Handlers{
		Auth:         handlers.NewAuthHandler(authService),
		Course:       handlers.NewCourseHandler(courseService, cfg.Storage.MaxUploadSize),
		Discount:     handlers.NewDiscountHandler(discountService),
		Enrollment:   handlers.NewEnrollmentHandler(enrollmentService),
		Subscription: handlers.NewSubscriptionHandler(subscriptionService),
		Webhook:      handlers.NewWebhookHandler(webhookService),
	}, authService, routes.Limits{
		API: middleware.NewRateLimiter(redisClient, "api", middleware.PerMinute(cfg.Security.RateLimitPerMinute), appLogger),
		OTP: middleware.NewRateLimiter(redisClient, "otp", middleware.PerMinute(cfg.Security.OTPRateLimit), appLogger),
	})

	// Start server
	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.App.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		appLogger.WithField("port", cfg.App.Port).Info("Starting server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	appLogger.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

func newOTPStore(cfg *config.Config, redisClient *redis.Client) (otp.Store, error) {
	opts := []otp.Option{
		otp.WithTTL(cfg.Security.OTPExpiry),
		otp.WithRetention(cfg.Security.OTPRetention),
	}
	if cfg.Security.OTPStore != "redis" {
		return otp.NewMemoryStore(opts...), nil
	}
	if redisClient == nil {
		return nil, errors.New("OTP_STORE=redis requires REDIS_ENABLED")
	}
	return otp.NewRedisStore(redisClient, opts...), nil
}

func newSMSProvider(ctx context.Context, cfg *config.SMSConfig, appLogger *logger.Logger) (sms.SMSProvider, error) {
	switch cfg.Provider {
	case "twilio":
		return sms.NewTwilioProvider(cfg.Twilio.AccountSID, cfg.Twilio.AuthToken, cfg.Twilio.FromNumber), nil
	case "aws_sns":
		return sms.NewAWSSNSProvider(ctx, cfg.AWS.Region, cfg.AWS.AccessKeyID, cfg.AWS.SecretAccessKey, cfg.SenderID)
	case "log", "":
		return sms.NewLogProvider(appLogger), nil
	default:
		return nil, fmt.Errorf("unsupported SMS_PROVIDER %q", cfg.Provider)
	}
}

func newStorage(ctx context.Context, cfg *config.StorageConfig) (storage.StorageProvider, error) {
	switch cfg.Provider {
	case "local", "":
		return storage.NewLocalStorage(cfg.Local.BasePath, cfg.Local.BaseURL)
	case "s3":
		return storage.NewAWSS3Storage(ctx, storage.AWSS3Config{
			Region:          cfg.AWS.Region,
			Bucket:          cfg.AWS.Bucket,
			AccessKeyID:     cfg.AWS.AccessKeyID,
			SecretAccessKey: cfg.AWS.SecretAccessKey,
			CDNDomain:       cfg.AWS.CDNDomain,
		})
	case "gcs":
		return storage.NewGCPStorage(ctx, cfg.GCP.Bucket, cfg.GCP.CredentialsFile, cfg.GCP.CDNDomain)
	default:
		return nil, fmt.Errorf("unsupported STORAGE_PROVIDER %q", cfg.Provider)
	}
}
