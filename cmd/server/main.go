package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	adminapp "github.com/ecopower/backend/internal/application/admin"
	billingapp "github.com/ecopower/backend/internal/application/billing"
	housingapp "github.com/ecopower/backend/internal/application/housing"
	identityapp "github.com/ecopower/backend/internal/application/identity"
	messagingapp "github.com/ecopower/backend/internal/application/messaging"
	meteringapp "github.com/ecopower/backend/internal/application/metering"
	platformapp "github.com/ecopower/backend/internal/application/platform"
	identitydomain "github.com/ecopower/backend/internal/domain/identity"
	"github.com/ecopower/backend/internal/infrastructure/auth"
	"github.com/ecopower/backend/internal/infrastructure/config"
	"github.com/ecopower/backend/internal/infrastructure/logger"
	"github.com/ecopower/backend/internal/infrastructure/metrics"
	"github.com/ecopower/backend/internal/infrastructure/notify"
	"github.com/ecopower/backend/internal/infrastructure/persistence"
	"github.com/ecopower/backend/internal/infrastructure/presence"
	"github.com/ecopower/backend/internal/infrastructure/scheduler"
	"github.com/ecopower/backend/internal/interfaces/http/handler"
	"github.com/ecopower/backend/internal/interfaces/http/middleware"
	"github.com/ecopower/backend/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	log.Info("Starting Ecopower Backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	// Create GORM logger backed by zap
	gormLogLevel := logger.MapGormLogLevel(cfg.Log.Level)
	gormLog := logger.NewGormLogger(log, gormLogLevel)

	// Initialize database connection with custom logger
	db, err := persistence.NewDatabaseWithLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected successfully")

	// Initialize repositories
	userRepo := persistence.NewGormUserRepository(db.DB)
	houseRepo := persistence.NewGormHouseRepository(db.DB)
	consumptionRepo := persistence.NewGormConsumptionRepository(db.DB)
	invoiceRepo := persistence.NewGormInvoiceRepository(db.DB)
	sequenceAllocator := persistence.NewGormSequenceAllocator(db.DB)
	messageRepo := persistence.NewGormMessageRepository(db.DB)
	notificationRepo := persistence.NewGormNotificationRepository(db.DB)
	settingsRepo := persistence.NewGormSettingsRepository(db.DB)
	auditLogRepo := persistence.NewGormAuditLogRepository(db.DB)
	purgeRepo := persistence.NewGormPurgeRepository(db.DB)

	// Presence registry tracks which accounts are connected so pushes
	// only go to offline devices. Redis backs it in normal deployments;
	// fall back to process-local tracking when Redis is unreachable.
	var registry presence.Registry
	redisRegistry, err := presence.NewRedisRegistry(cfg.Redis)
	if err != nil {
		log.Warn("Redis unavailable, using in-memory presence registry", zap.Error(err))
		registry = presence.NewMemoryRegistry()
	} else {
		defer func() {
			if err := redisRegistry.Close(); err != nil {
				log.Error("Error closing presence registry", zap.Error(err))
			}
		}()
		registry = redisRegistry
		log.Info("Presence registry connected", zap.String("addr", cfg.Redis.Addr()))
	}

	// Notification senders
	var (
		push     notify.PushSender
		email    notify.EmailSender
		whatsapp notify.WhatsappSender
	)
	if cfg.Notify.Simulate {
		sim := notify.NewSimulator(log)
		push, email, whatsapp = sim, sim, sim
		log.Info("Notification delivery simulation enabled")
	} else {
		push = notify.NewFCMClient(cfg.Notify)
		email = notify.NewSendGridMailer(cfg.Notify)
		whatsapp = notify.NewWhatsappClient(cfg.Notify)
	}
	dispatcher := notify.NewDispatcher(push, email, whatsapp, auditLogRepo, log)

	// Metrics
	promRegistry := prometheus.NewRegistry()
	collector := metrics.NewCollector(promRegistry)

	// Token and identity services
	jwtService := auth.NewJWTService(cfg.JWT)
	googleVerifier := auth.NewGoogleVerifier(cfg.JWT.GoogleClientID)
	authorizer := identitydomain.NewAuthorizationService(userRepo, houseRepo)

	defaultTariff := decimal.NewFromFloat(cfg.Billing.DefaultTariffKwh)
	defaultFees := decimal.NewFromFloat(cfg.Billing.DefaultFixedFees)

	// Initialize application services
	authService := identityapp.NewAuthService(userRepo, jwtService, googleVerifier, dispatcher, auditLogRepo, log)
	residentService := identityapp.NewResidentService(userRepo, houseRepo, authorizer, dispatcher, notificationRepo, auditLogRepo, purgeRepo, log)
	houseService := housingapp.NewHouseService(houseRepo, authorizer, purgeRepo, log)
	consumptionService := meteringapp.NewConsumptionService(consumptionRepo, houseRepo, userRepo, authorizer, dispatcher, notificationRepo, collector, defaultTariff, log)
	invoiceService := billingapp.NewInvoiceService(invoiceRepo, sequenceAllocator, consumptionRepo, houseRepo, userRepo, authorizer, dispatcher, notificationRepo, collector, defaultTariff, defaultFees, log)
	messageService := messagingapp.NewMessageService(messageRepo, userRepo, authorizer, dispatcher, registry, log)
	notificationService := messagingapp.NewNotificationService(notificationRepo, log)
	statsService := adminapp.NewStatsService(userRepo, houseRepo, consumptionRepo, invoiceRepo, registry, authorizer, log)
	accountService := adminapp.NewAccountService(userRepo, authorizer, purgeRepo, auditLogRepo, log)
	broadcastService := adminapp.NewBroadcastService(userRepo, authorizer, dispatcher, notificationRepo, collector, log)
	settingsService := platformapp.NewSettingsService(settingsRepo, authorizer, email, auditLogRepo, log)

	// Background jobs
	if cfg.Scheduler.Enabled {
		sched := scheduler.New(log)
		sched.Register(scheduler.JobFunc{
			JobName: "overdue-invoice-sweep",
			Fn:      invoiceService.SweepOverdue,
		}, cfg.Scheduler.OverdueSweepPeriod)
		sched.Start(context.Background())
		defer sched.Stop()
		log.Info("Scheduler started",
			zap.Duration("overdue_sweep_period", cfg.Scheduler.OverdueSweepPeriod),
		)
	}

	// Set Gin mode based on environment
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()

	// Configure trusted proxies
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	// Apply middleware stack in order:
	// 1. RequestID - Generate/propagate request ID
	// 2. Recovery - Catch panics
	// 3. Logger - Log requests
	// 4. Metrics - Record request counts and latency
	// 5. CORS - Handle cross-origin requests
	// 6. RateLimit - Apply rate limiting (if enabled)
	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))
	engine.Use(collector.GinMiddleware())

	corsConfig := middleware.CORSConfig{
		AllowOrigins: cfg.HTTP.CORSAllowOrigins,
		AllowMethods: cfg.HTTP.CORSAllowMethods,
		AllowHeaders: cfg.HTTP.CORSAllowHeaders,
	}
	engine.Use(middleware.CORSWithConfig(corsConfig))

	var loginLimit gin.HandlerFunc
	if cfg.HTTP.RateLimitEnabled {
		rateLimiter := middleware.NewRateLimiter(cfg.HTTP.RateLimitRPS, cfg.HTTP.RateLimitBurst)
		engine.Use(rateLimiter.Middleware())

		authLimiter := middleware.NewRateLimiter(cfg.HTTP.AuthRateLimitRPS, cfg.HTTP.AuthRateLimitBurst)
		loginLimit = authLimiter.Middleware()

		log.Info("Rate limiting enabled",
			zap.Float64("rps", cfg.HTTP.RateLimitRPS),
			zap.Int("burst", cfg.HTTP.RateLimitBurst),
		)
	}

	// Health and metrics endpoints (outside API versioning)
	engine.GET("/health", healthHandler(db))
	engine.GET("/metrics", metrics.Handler(promRegistry))

	// Register API routes
	requireAuth := middleware.RequireAuth(jwtService, log)
	router.NewRouter(engine, router.WithAPIVersion("v1")).
		Register(handler.NewAuthHandler(authService, requireAuth, loginLimit)).
		Register(handler.NewHouseHandler(houseService, residentService, requireAuth)).
		Register(handler.NewResidentHandler(residentService, requireAuth)).
		Register(handler.NewConsumptionHandler(consumptionService, requireAuth)).
		Register(handler.NewInvoiceHandler(invoiceService, requireAuth)).
		Register(handler.NewMessageHandler(messageService, requireAuth)).
		Register(handler.NewNotificationHandler(notificationService, requireAuth)).
		Register(handler.NewAdminHandler(statsService, accountService, broadcastService, invoiceService, requireAuth)).
		Register(handler.NewPlatformHandler(settingsService, requireAuth)).
		Register(handler.NewPresenceHandler(registry, requireAuth)).
		Register(handler.NewSystemHandler(cfg.App.Name, cfg.App.Env)).
		Setup()

	// Create HTTP server with config
	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	// Start server in goroutine
	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}

// healthHandler returns a handler for health check endpoints
func healthHandler(db *persistence.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := db.Ping(); err != nil {
			logger.FromGin(c).Warn("Health check failed", zap.Error(err))
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":   "unhealthy",
				"time":     time.Now().Format(time.RFC3339),
				"database": "error",
			})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"status":   "healthy",
			"time":     time.Now().Format(time.RFC3339),
			"database": "ok",
		})
	}
}
