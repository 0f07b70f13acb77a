package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jjrmrcly79/naturalezamistica/config"
	"github.com/jjrmrcly79/naturalezamistica/controllers"
	"github.com/jjrmrcly79/naturalezamistica/database"
	"github.com/jjrmrcly79/naturalezamistica/logger"
	"github.com/jjrmrcly79/naturalezamistica/middleware"
	"github.com/jjrmrcly79/naturalezamistica/models"
	aws_pkg "github.com/jjrmrcly79/naturalezamistica/pkg/aws"
	"github.com/jjrmrcly79/naturalezamistica/pkg/metrics"
	"github.com/jjrmrcly79/naturalezamistica/repository"
	"github.com/jjrmrcly79/naturalezamistica/routes"
	"github.com/jjrmrcly79/naturalezamistica/services"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

func main() {
	// precio is a JSON number on the wire
	decimal.MarshalJSONWithoutQuotes = true

	zlog, err := logger.New(os.Getenv("APP_ENV"))
	if err != nil {
		panic("failed to initialize logger: " + err.Error())
	}
	defer zlog.Sync()

	cfg, err := config.LoadConfig()
	if err != nil {
		zlog.Fatal("Config load failed", zap.Error(err))
	}
	if cfg.StripeSecretKey == "" {
		zlog.Warn("STRIPE_API_KEY not set; every checkout will fail as upstream unavailable")
	}
	if cfg.JWTSecret == "" {
		zlog.Warn("AUTH_JWT_SECRET not set; authenticated routes will fail")
	}

	// --- Database ---
	db, err := database.Connect(cfg.DSN())
	if err != nil {
		zlog.Fatal("DB connection failed", zap.Error(err))
	}
	if err := db.AutoMigrate(&models.Product{}); err != nil {
		zlog.Fatal("Migration failed", zap.Error(err))
	}

	// --- Redis catalog cache (optional) ---
	var redisClient *redis.Client
	var catalogCache services.CatalogCache
	if cfg.RedisURL != "" {
		redisClient, err = database.NewRedisClient(context.Background(), cfg.RedisURL)
		if err != nil {
			zlog.Warn("Redis unavailable, catalog cache disabled", zap.Error(err))
		} else {
			catalogCache = services.NewRedisCatalogCache(redisClient, cfg.CatalogCacheTTL)
		}
	}

	// --- AWS setup (optional) ---
	var snsPublisher aws_pkg.SNSPublisher
	var imageUploader services.ImageUploader
	if cfg.CheckoutSNSTopicARN != "" || cfg.ImageBucket != "" {
		awsCfg, err := aws_pkg.LoadAWSConfig(context.Background())
		if err != nil {
			zlog.Warn("AWS config unavailable, events and image uploads disabled", zap.Error(err))
		} else {
			if cfg.CheckoutSNSTopicARN != "" {
				snsPublisher = aws_pkg.NewSNSClient(awsCfg)
			}
			if cfg.ImageBucket != "" {
				imageUploader = aws_pkg.NewImagePresigner(awsCfg, cfg.ImageBucket)
			}
		}
	}

	srvMetrics := metrics.NewServerMetrics()

	// --- Dependency injection ---
	productRepo := repository.NewGormProductRepository(db)
	authenticator := services.NewJWTAuthenticator(cfg.JWTSecret)
	gateway := services.NewStripeGateway(cfg.StripeSecretKey)

	checkoutService := services.NewCheckoutService(
		productRepo,
		authenticator,
		gateway,
		snsPublisher,
		cfg.CheckoutSNSTopicARN,
		srvMetrics,
		cfg.CheckoutCallTimeout,
		zlog,
	)
	catalogService := services.NewCatalogService(productRepo, catalogCache, imageUploader, cfg.ImagePublicBaseURL, zlog)

	checkoutController := controllers.NewCheckoutController(checkoutService, cfg.FrontendURL, zlog)
	catalogController := controllers.NewCatalogController(catalogService, zlog)
	adminController := controllers.NewAdminController(catalogService, zlog)

	limiter := middleware.NewRateLimiter(cfg.CheckoutRatePerMinute, cfg.CheckoutRateBurst, 5*time.Minute)
	stopLimiter := make(chan struct{})
	go limiter.Run(stopLimiter)

	// --- HTTP router ---
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(
		middleware.CORSMiddleware(),
		middleware.RequestID(),
		middleware.RequestLogger(zlog),
		middleware.Recovery(zlog),
		middleware.Timeout(30*time.Second),
		middleware.MetricsMiddleware(srvMetrics),
	)

	routes.RegisterCheckoutRoutes(r, checkoutController, middleware.RateLimitMiddleware(limiter))
	routes.RegisterCatalogRoutes(r, catalogController)
	routes.RegisterAdminRoutes(r, adminController, middleware.RequireAdmin(authenticator, zlog))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "OK", "service": "storefront"})
	})
	r.GET("/metrics", gin.WrapH(srvMetrics.Handler()))

	// --- HTTP server ---
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		zlog.Info("Storefront service started", zap.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zlog.Fatal("server failed", zap.Error(err))
		}
	}()

	// --- Graceful shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zlog.Info("Initiating graceful shutdown...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		zlog.Error("Server shutdown error", zap.Error(err))
	}
	close(stopLimiter)

	if redisClient != nil {
		if err := redisClient.Close(); err != nil {
			zlog.Error("Redis close error", zap.Error(err))
		}
	}
	if err := database.Close(db); err != nil {
		zlog.Error("Database close error", zap.Error(err))
	}

	log.Println("Storefront service stopped gracefully")
}
