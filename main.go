package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	sdkaws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/jonbarlo/onlineshop-api/cache"
	"github.com/jonbarlo/onlineshop-api/common/auth"
	"github.com/jonbarlo/onlineshop-api/common/logger"
	commonmw "github.com/jonbarlo/onlineshop-api/common/middleware"
	"github.com/jonbarlo/onlineshop-api/controllers"
	"github.com/jonbarlo/onlineshop-api/database"
	"github.com/jonbarlo/onlineshop-api/events"
	awspkg "github.com/jonbarlo/onlineshop-api/pkg/aws"
	"github.com/jonbarlo/onlineshop-api/repository"
	"github.com/jonbarlo/onlineshop-api/routes"
	"github.com/jonbarlo/onlineshop-api/services"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Bootstrap logger until the configuration is known.
	bootLog, err := logger.New(os.Getenv("APP_ENV"), nil)
	if err != nil {
		panic("failed to initialize logger: " + err.Error())
	}
	zap.ReplaceGlobals(bootLog)

	cfg, err := LoadConfig(ctx)
	if err != nil {
		zap.L().Fatal("Failed to load configuration", zap.Error(err))
	}

	// --- 1. AWS ---
	var awsCfg *sdkaws.Config
	if cfg.MetricsEnabled || cfg.CloudWatchLogs || cfg.SNSTopicArn != "" || cfg.S3Bucket != "" {
		loaded, err := awspkg.LoadAWSConfig(ctx)
		if err != nil {
			zap.L().Warn("AWS config unavailable, AWS integrations disabled", zap.Error(err))
		} else {
			awsCfg = &loaded
		}
	}

	log := bootLog
	if cfg.CloudWatchLogs && awsCfg != nil {
		cw, err := awspkg.NewCloudWatchLogsClient(ctx, *awsCfg, cfg.CloudWatchLogGroup, cfg.ServiceName)
		if err != nil {
			zap.L().Warn("CloudWatch Logs unavailable", zap.Error(err))
		} else if log, err = logger.New(cfg.Env, cw); err != nil {
			panic("failed to initialize logger: " + err.Error())
		}
	} else if log, err = logger.New(cfg.Env, nil); err != nil {
		panic("failed to initialize logger: " + err.Error())
	}
	defer log.Sync()
	zap.ReplaceGlobals(log)

	var metrics awspkg.MetricsRecorder
	if awsCfg != nil && cfg.MetricsEnabled {
		metrics = awspkg.NewMetricsClient(*awsCfg, cfg.MetricsNamespace, true)
	}

	// --- 2. Storage ---
	db, err := database.Connect(ctx, cfg.DB)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	sqlDB, err := db.DB()
	if err != nil {
		log.Fatal("Failed to get sql.DB", zap.Error(err))
	}
	defer sqlDB.Close()

	store := repository.NewGormStore(db)

	var productCache services.ProductCache
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			log.Warn("Invalid REDIS_URL, product cache disabled", zap.Error(err))
		} else {
			rdb := redis.NewClient(opts)
			defer rdb.Close()
			if err := rdb.Ping(ctx).Err(); err != nil {
				log.Warn("Redis unreachable, cache reads will miss until it recovers", zap.Error(err))
			}
			productCache = cache.NewProductCache(rdb, cfg.CacheTTL, log)
		}
	}

	// --- 3. Events ---
	var publishers []events.Publisher
	if len(cfg.KafkaBrokers) > 0 {
		publishers = append(publishers, events.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic, log))
	}
	if cfg.SNSTopicArn != "" && awsCfg != nil {
		publishers = append(publishers, events.NewSNSPublisher(awspkg.NewSNSClient(*awsCfg), cfg.SNSTopicArn))
	}
	fanout := events.NewMultiPublisher(publishers...)
	publisher := events.NewAsyncPublisher(fanout, cfg.EventQueueSize, 5*time.Second, log)
	defer publisher.Close()
	log.Info("Order event publishers configured", zap.Int("count", fanout.Len()))

	var uploader services.ImageUploader
	if cfg.S3Bucket != "" && awsCfg != nil {
		uploader = awspkg.NewS3Presigner(*awsCfg, cfg.S3Bucket, cfg.S3UsePathStyle)
	}

	// --- 4. Dependency Injection ---
	tokens, err := auth.NewTokenService(cfg.JWTSecret, cfg.JWTTTL, cfg.JWTIssuer)
	if err != nil {
		log.Fatal("Failed to initialize token service", zap.Error(err))
	}

	variantService := services.NewVariantService(store, productCache, log)
	productService := services.NewProductService(store, productCache, metrics, log)
	categoryService := services.NewCategoryService(store, productCache, log)
	imageService := services.NewImageService(store, productCache, uploader, services.UploadConfig{
		KeyPrefix:     cfg.S3Prefix,
		PublicBaseURL: cfg.S3PublicBaseURL,
	}, log)
	orderService := services.NewOrderService(store, variantService, productCache, publisher, metrics, log)
	authService := services.NewAuthService(store, tokens, log)
	dashboardService := services.NewDashboardService(store, cfg.LowStockThreshold)

	if err := authService.EnsureBootstrapAdmin(ctx, cfg.AdminEmail, cfg.AdminPassword, cfg.AdminName); err != nil {
		log.Error("Failed to bootstrap admin account", zap.Error(err))
	}

	validator := controllers.NewRequestValidator()
	ctrls := routes.Controllers{
		Health:     controllers.NewHealthController(sqlDB, cfg.ServiceName),
		Auth:       controllers.NewAuthController(authService, validator),
		Products:   controllers.NewProductController(productService, validator),
		Variants:   controllers.NewVariantController(variantService, validator),
		Images:     controllers.NewImageController(imageService, validator),
		Categories: controllers.NewCategoryController(categoryService, validator),
		Orders:     controllers.NewOrderController(orderService, validator),
		Dashboard:  controllers.NewDashboardController(dashboardService),
	}

	// --- 5. HTTP Server & Middleware ---
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(commonmw.RequestID())
	r.Use(commonmw.RequestLogger(log))
	r.Use(commonmw.SecurityHeaders())
	r.Use(commonmw.CORS(cfg.AllowedOrigins))
	r.Use(commonmw.Timeout(cfg.RequestTimeout))
	r.Use(commonmw.Metrics(metrics, cfg.ServiceName))

	limiters := routes.Limiters{
		Orders: commonmw.NewRateLimiter(ctx, rate.Limit(cfg.OrderRateLimit), cfg.OrderRateBurst, 10*time.Minute),
		Login:  commonmw.NewRateLimiter(ctx, rate.Limit(cfg.LoginRateLimit), cfg.LoginRateBurst, 10*time.Minute),
	}
	routes.RegisterRoutes(r, ctrls, tokens, limiters)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("Online shop API starting", zap.String("port", cfg.Port), zap.String("env", cfg.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// --- 6. Graceful Shutdown ---
	<-ctx.Done()
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}
	log.Info("Server exiting")
}
