package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/jonbarlo/onlineshop-api/database"
	awspkg "github.com/jonbarlo/onlineshop-api/pkg/aws"
	"go.uber.org/zap"
)

// Config holds every setting of the API, read from the environment.
type Config struct {
	Env         string
	Port        string
	ServiceName string

	DB database.Config

	JWTSecret string
	JWTTTL    time.Duration
	JWTIssuer string

	AdminEmail    string
	AdminPassword string
	AdminName     string

	RedisURL string // empty disables the product cache
	CacheTTL time.Duration

	KafkaBrokers []string
	KafkaTopic   string
	SNSTopicArn  string

	// EventQueueSize bounds events waiting for the background publisher.
	EventQueueSize int

	S3Bucket        string
	S3Prefix        string
	S3PublicBaseURL string
	S3UsePathStyle  bool

	AllowedOrigins []string
	RequestTimeout time.Duration

	OrderRateLimit float64 // requests per second per IP
	OrderRateBurst int
	LoginRateLimit float64
	LoginRateBurst int

	LowStockThreshold int

	MetricsEnabled     bool
	MetricsNamespace   string
	CloudWatchLogs     bool
	CloudWatchLogGroup string

	UseSecrets     bool
	DBSecretName   string
	AuthSecretName string
}

// LoadConfig loads environment variables into Config and validates them.
// With AWS_USE_SECRETS=true the database credentials and the JWT secret are
// read from Secrets Manager, falling back to env vars on failure.
func LoadConfig(ctx context.Context) (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Env:         getEnv("APP_ENV", "development"),
		Port:        getEnv("PORT", "8080"),
		ServiceName: getEnv("SERVICE_NAME", "onlineshop-api"),
		DB: database.Config{
			Host:            getEnv("POSTGRES_HOST", "localhost"),
			Port:            getEnv("POSTGRES_PORT", "5432"),
			User:            getEnv("POSTGRES_USER", "postgres"),
			Password:        os.Getenv("POSTGRES_PASSWORD"),
			Name:            getEnv("POSTGRES_DB", "onlineshop"),
			SSLMode:         getEnv("POSTGRES_SSLMODE", "disable"),
			TimeZone:        getEnv("POSTGRES_TIMEZONE", "UTC"),
			MaxOpenConns:    getEnvInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    getEnvInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: getEnvDuration("DB_CONN_MAX_LIFETIME", 30*time.Minute),
			Debug:           getEnvBool("DB_DEBUG", false),
		},
		JWTSecret:          os.Getenv("JWT_SECRET"),
		JWTTTL:             getEnvDuration("JWT_TTL", 24*time.Hour),
		JWTIssuer:          getEnv("JWT_ISSUER", "onlineshop-api"),
		AdminEmail:         os.Getenv("ADMIN_EMAIL"),
		AdminPassword:      os.Getenv("ADMIN_PASSWORD"),
		AdminName:          getEnv("ADMIN_NAME", "Administrator"),
		RedisURL:           os.Getenv("REDIS_URL"),
		CacheTTL:           getEnvDuration("CACHE_TTL", 5*time.Minute),
		KafkaBrokers:       splitList(os.Getenv("KAFKA_BROKERS")),
		KafkaTopic:         getEnv("KAFKA_ORDER_TOPIC", "order-events"),
		SNSTopicArn:        os.Getenv("SNS_ORDER_TOPIC_ARN"),
		EventQueueSize:     getEnvInt("EVENT_QUEUE_SIZE", 256),
		S3Bucket:           os.Getenv("AWS_S3_BUCKET"),
		S3Prefix:           getEnv("AWS_S3_PREFIX", "products"),
		S3PublicBaseURL:    os.Getenv("AWS_S3_PUBLIC_BASE_URL"),
		S3UsePathStyle:     getEnvBool("AWS_S3_USE_PATH_STYLE", false),
		AllowedOrigins:     splitList(getEnv("ALLOWED_ORIGINS", "*")),
		RequestTimeout:     getEnvDuration("REQUEST_TIMEOUT", 30*time.Second),
		OrderRateLimit:     getEnvFloat("ORDER_RATE_LIMIT", 1),
		OrderRateBurst:     getEnvInt("ORDER_RATE_BURST", 5),
		LoginRateLimit:     getEnvFloat("LOGIN_RATE_LIMIT", 0.2),
		LoginRateBurst:     getEnvInt("LOGIN_RATE_BURST", 5),
		LowStockThreshold:  getEnvInt("LOW_STOCK_THRESHOLD", 5),
		MetricsEnabled:     getEnvBool("CLOUDWATCH_METRICS_ENABLED", false),
		MetricsNamespace:   getEnv("CLOUDWATCH_NAMESPACE", "OnlineShop"),
		CloudWatchLogs:     getEnvBool("CLOUDWATCH_LOGS_ENABLED", false),
		CloudWatchLogGroup: getEnv("CLOUDWATCH_LOG_GROUP", "/onlineshop/api"),
		UseSecrets:         getEnvBool("AWS_USE_SECRETS", false),
		DBSecretName:       getEnv("AWS_DB_SECRET_NAME", "onlineshop/postgres"),
		AuthSecretName:     getEnv("AWS_JWT_SECRET_NAME", "onlineshop/JWT_SECRET"),
	}

	if cfg.S3PublicBaseURL == "" && cfg.S3Bucket != "" {
		cfg.S3PublicBaseURL = fmt.Sprintf("https://%s.s3.amazonaws.com", cfg.S3Bucket)
	}

	if cfg.UseSecrets {
		cfg.loadSecrets(ctx)
	}

	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}
	if cfg.DB.Password == "" && cfg.Env == "production" {
		return nil, fmt.Errorf("POSTGRES_PASSWORD is required in production")
	}
	return cfg, nil
}

func (cfg *Config) loadSecrets(ctx context.Context) {
	awsCfg, err := awspkg.LoadAWSConfig(ctx)
	if err != nil {
		zap.L().Warn("AWS config unavailable, using environment secrets", zap.Error(err))
		return
	}
	sm := awspkg.NewSecretsClient(awsCfg)

	if jwt, err := sm.GetSecret(ctx, cfg.AuthSecretName); err == nil && jwt != "" {
		cfg.JWTSecret = jwt
	} else if err != nil {
		zap.L().Warn("failed to read JWT secret", zap.Error(err))
	}

	creds, err := sm.GetSecretJSON(ctx, cfg.DBSecretName)
	if err != nil {
		zap.L().Warn("failed to read database secret", zap.Error(err))
		return
	}
	if v := creds["username"]; v != "" {
		cfg.DB.User = v
	}
	if v := creds["password"]; v != "" {
		cfg.DB.Password = v
	}
	if v := creds["host"]; v != "" {
		cfg.DB.Host = v
	}
	if v := creds["dbname"]; v != "" {
		cfg.DB.Name = v
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return v
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if v, err := strconv.ParseFloat(os.Getenv(key), 64); err == nil {
		return v
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v, err := strconv.ParseBool(os.Getenv(key)); err == nil {
		return v
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v, err := time.ParseDuration(os.Getenv(key)); err == nil {
		return v
	}
	return fallback
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
