package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	aws_pkg "github.com/jjrmrcly79/naturalezamistica/pkg/aws"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the storefront service.
type Config struct {
	Port        string
	Environment string
	FrontendURL string

	DatabaseURL      string
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresHost     string
	PostgresPort     string
	PostgresSSLMode  string
	PostgresTimeZone string

	StripeSecretKey string
	JWTSecret       string

	RedisURL        string
	CatalogCacheTTL time.Duration

	CheckoutCallTimeout   time.Duration
	CheckoutRatePerMinute int
	CheckoutRateBurst     int
	CheckoutSNSTopicARN   string // SNS topic for checkout_session_created events

	ImageBucket        string
	ImagePublicBaseURL string
}

// LoadConfig reads configuration from the environment (and an optional .env
// file), with Secrets Manager overrides when AWS_USE_SECRETS=true.
func LoadConfig() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Port:                  getEnv("PORT", "8087"),
		Environment:           getEnv("APP_ENV", "development"),
		FrontendURL:           strings.TrimSuffix(getEnv("FRONTEND_URL", "http://localhost:3000"), "/"),
		DatabaseURL:           os.Getenv("DATABASE_URL"),
		PostgresUser:          os.Getenv("POSTGRES_USER"),
		PostgresPassword:      os.Getenv("POSTGRES_PASSWORD"),
		PostgresDB:            os.Getenv("POSTGRES_DB"),
		PostgresHost:          getEnv("POSTGRES_HOST", "localhost"),
		PostgresPort:          getEnv("POSTGRES_PORT", "5432"),
		PostgresSSLMode:       getEnv("POSTGRES_SSLMODE", "disable"),
		PostgresTimeZone:      getEnv("POSTGRES_TIMEZONE", "UTC"),
		StripeSecretKey:       os.Getenv("STRIPE_API_KEY"),
		JWTSecret:             strings.TrimSpace(os.Getenv("AUTH_JWT_SECRET")),
		RedisURL:              os.Getenv("REDIS_URL"),
		CatalogCacheTTL:       getDuration("CATALOG_CACHE_TTL", 5*time.Minute),
		CheckoutCallTimeout:   getDuration("CHECKOUT_CALL_TIMEOUT", 5*time.Second),
		CheckoutRatePerMinute: getInt("CHECKOUT_RATE_PER_MINUTE", 30),
		CheckoutRateBurst:     getInt("CHECKOUT_RATE_BURST", 10),
		CheckoutSNSTopicARN:   os.Getenv("CHECKOUT_SNS_TOPIC_ARN"),
		ImageBucket:           os.Getenv("S3_BUCKET_IMAGES"),
		ImagePublicBaseURL:    strings.TrimSuffix(os.Getenv("S3_PUBLIC_BASE_URL"), "/"),
	}

	// Override secrets from Secrets Manager when running on AWS
	if os.Getenv("AWS_USE_SECRETS") == "true" {
		awsCfg, err := aws_pkg.LoadAWSConfig(context.Background())
		if err != nil {
			return nil, fmt.Errorf("load aws config for secrets: %w", err)
		}
		if err := applySecrets(context.Background(), cfg, aws_pkg.NewSecretsClient(awsCfg)); err != nil {
			return nil, err
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// SecretGetter is the subset of the Secrets Manager client used for overrides.
type SecretGetter interface {
	GetSecret(ctx context.Context, name string) (string, error)
	GetSecretJSON(ctx context.Context, name string) (map[string]string, error)
}

// applySecrets overrides cfg with whatever secrets exist. Missing secrets
// keep the environment value; any other failure is returned.
func applySecrets(ctx context.Context, cfg *Config, sm SecretGetter) error {
	stripeKey, err := sm.GetSecret(ctx, "storefront/STRIPE_API_KEY")
	if err := skipMissing(err); err != nil {
		return err
	}
	if stripeKey != "" {
		cfg.StripeSecretKey = stripeKey
	}

	jwtSecret, err := sm.GetSecret(ctx, "storefront/AUTH_JWT_SECRET")
	if err := skipMissing(err); err != nil {
		return err
	}
	if v := strings.TrimSpace(jwtSecret); v != "" {
		cfg.JWTSecret = v
	}

	db, err := sm.GetSecretJSON(ctx, "storefront/DB_CREDENTIALS")
	if err := skipMissing(err); err != nil {
		return err
	}
	for key, dst := range map[string]*string{
		"DATABASE_URL":      &cfg.DatabaseURL,
		"POSTGRES_USER":     &cfg.PostgresUser,
		"POSTGRES_PASSWORD": &cfg.PostgresPassword,
		"POSTGRES_DB":       &cfg.PostgresDB,
		"POSTGRES_HOST":     &cfg.PostgresHost,
		"POSTGRES_PORT":     &cfg.PostgresPort,
	} {
		if v := db[key]; v != "" {
			*dst = v
		}
	}
	return nil
}

func skipMissing(err error) error {
	if err == nil || errors.Is(err, aws_pkg.ErrSecretNotFound) {
		return nil
	}
	return fmt.Errorf("secrets manager override: %w", err)
}

// Validate checks the settings the process cannot start without. The Stripe
// key is deliberately not among them: checkout reports the gateway as
// unavailable instead.
func (c *Config) Validate() error {
	if c.DatabaseURL == "" && (c.PostgresUser == "" || c.PostgresPassword == "" || c.PostgresDB == "") {
		return fmt.Errorf("database config incomplete: set DATABASE_URL or POSTGRES_USER, POSTGRES_PASSWORD and POSTGRES_DB")
	}
	if c.CheckoutCallTimeout <= 0 {
		return fmt.Errorf("CHECKOUT_CALL_TIMEOUT must be positive")
	}
	if c.CheckoutRatePerMinute <= 0 || c.CheckoutRateBurst <= 0 {
		return fmt.Errorf("checkout rate limit must be positive")
	}
	return nil
}

// DSN returns the Postgres connection string.
func (c *Config) DSN() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=%s",
		c.PostgresHost, c.PostgresUser, c.PostgresPassword, c.PostgresDB, c.PostgresPort, c.PostgresSSLMode, c.PostgresTimeZone)
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getInt(key string, fallback int) int {
	if v, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return v
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	if d, err := time.ParseDuration(os.Getenv(key)); err == nil {
		return d
	}
	return fallback
}
