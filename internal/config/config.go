package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

// Config holds all application configuration loaded from environment variables.
// It is the single source of truth for runtime parameters.
type Config struct {
	Port    string
	Env     string
	SiteURL string

	// AuthJWTSecret verifies session tokens minted by the hosted identity provider.
	AuthJWTSecret  string
	AllowedOrigins []string

	DB       DatabaseConfig
	Redis    RedisConfig
	Razorpay RazorpayConfig
	Shop     ShopConfig
	Storage  StorageConfig
	Notify   NotifyConfig
	OTP      OTPConfig
	Worker   WorkerConfig
}

// DatabaseConfig contains PostgreSQL connection parameters.
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
}

// RedisConfig contains Redis connection parameters.
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

// RazorpayConfig contains payment gateway credentials.
type RazorpayConfig struct {
	KeyID     string
	KeySecret string
	Currency  string
}

// ShopConfig contains storefront pricing and branding parameters.
type ShopConfig struct {
	BrandName             string
	ShippingFee           decimal.Decimal
	FreeShippingThreshold decimal.Decimal
}

// StorageConfig contains S3-compatible object storage configuration
type StorageConfig struct {
	Region          string
	Bucket          string
	Endpoint        string
	PublicBaseURL   string
	AccessKeyID     string
	SecretAccessKey string
}

// NotifyConfig contains email (SES) and SMS (SNS) sender settings.
type NotifyConfig struct {
	Region      string
	EmailFrom   string
	SMSSenderID string
}

// OTPConfig contains one-time code limits.
type OTPConfig struct {
	TTL            time.Duration
	Window         time.Duration
	MaxPerWindow   int
	IssuePerMinute int
}

// WorkerConfig contains interval configuration for background workers.
type WorkerConfig struct {
	OTPCleanupInterval time.Duration
}

// Load reads configuration from environment variables. If a .env file exists
// in the working directory, it will be loaded first. It returns a populated
// Config or an error with a human-friendly message.
func Load() (*Config, error) {
	// Load .env if present; ignore error if file is missing so that production
	// environments relying solely on real environment variables keep working.
	_ = godotenv.Load()

	cfg := &Config{}

	// Server
	cfg.Port = getEnv("PORT", "8080")
	cfg.Env = getEnv("ENV", "development")
	cfg.SiteURL = strings.TrimSuffix(getEnv("SITE_URL", "http://localhost:3000"), "/")
	cfg.AuthJWTSecret = getEnv("AUTH_JWT_SECRET", "")
	cfg.AllowedOrigins = splitList(getEnv("ALLOWED_ORIGINS", "localhost:3000,127.0.0.1:3000"))

	// Database
	cfg.DB = DatabaseConfig{
		Host:     getEnv("DB_HOST", ""),
		Port:     getEnv("DB_PORT", "5432"),
		User:     getEnv("DB_USER", ""),
		Password: getEnv("DB_PASSWORD", ""),
		Name:     getEnv("DB_NAME", ""),
		SSLMode:  getEnv("DB_SSLMODE", "disable"),
	}

	// Redis
	cfg.Redis = RedisConfig{
		Host:     getEnv("REDIS_HOST", "redis"),
		Port:     getEnv("REDIS_PORT", "6379"),
		Password: getEnv("REDIS_PASSWORD", ""),
		DB:       getEnvInt("REDIS_DB", 0),
	}

	// Razorpay
	cfg.Razorpay = RazorpayConfig{
		KeyID:     getEnv("RAZORPAY_KEY_ID", ""),
		KeySecret: getEnv("RAZORPAY_KEY_SECRET", ""),
		Currency:  strings.ToUpper(getEnv("CURRENCY", "INR")),
	}

	// Shop
	var err error
	cfg.Shop.BrandName = getEnv("BRAND_NAME", "Decorhaus")
	if cfg.Shop.ShippingFee, err = parseDecimalEnv("SHIPPING_FEE", "50"); err != nil {
		return nil, fmt.Errorf("invalid SHIPPING_FEE: %w", err)
	}
	if cfg.Shop.FreeShippingThreshold, err = parseDecimalEnv("FREE_SHIPPING_THRESHOLD", "0"); err != nil {
		return nil, fmt.Errorf("invalid FREE_SHIPPING_THRESHOLD: %w", err)
	}

	// Object storage
	cfg.Storage = StorageConfig{
		Region:          getEnv("S3_REGION", "ap-south-1"),
		Bucket:          getEnv("S3_BUCKET", "product-images"),
		Endpoint:        getEnv("S3_ENDPOINT", ""),
		PublicBaseURL:   strings.TrimSuffix(getEnv("S3_PUBLIC_BASE_URL", ""), "/"),
		AccessKeyID:     getEnv("AWS_ACCESS_KEY_ID", ""),
		SecretAccessKey: getEnv("AWS_SECRET_ACCESS_KEY", ""),
	}

	// Notifications
	cfg.Notify = NotifyConfig{
		Region:      getEnv("NOTIFY_REGION", cfg.Storage.Region),
		EmailFrom:   getEnv("EMAIL_FROM", ""),
		SMSSenderID: getEnv("SMS_SENDER_ID", ""),
	}

	// OTP
	cfg.OTP.MaxPerWindow = getEnvInt("OTP_MAX_PER_WINDOW", 10)
	cfg.OTP.IssuePerMinute = getEnvInt("OTP_ISSUE_PER_MINUTE", 3)
	if cfg.OTP.TTL, err = parseDurationEnv("OTP_TTL", "10m"); err != nil {
		return nil, fmt.Errorf("invalid OTP_TTL: %w", err)
	}
	if cfg.OTP.Window, err = parseDurationEnv("OTP_WINDOW", "15m"); err != nil {
		return nil, fmt.Errorf("invalid OTP_WINDOW: %w", err)
	}

	// Workers (durations)
	if cfg.Worker.OTPCleanupInterval, err = parseDurationEnv("OTP_CLEANUP_INTERVAL", "30m"); err != nil {
		return nil, fmt.Errorf("invalid OTP_CLEANUP_INTERVAL: %w", err)
	}

	// Basic validation for DB parameters.
	if cfg.DB.Host == "" || cfg.DB.User == "" || cfg.DB.Name == "" {
		return nil, errors.New("database configuration incomplete: ensure DB_HOST, DB_USER, and DB_NAME are set")
	}

	if cfg.AuthJWTSecret == "" {
		return nil, errors.New("AUTH_JWT_SECRET must be set for session validation")
	}

	return cfg, nil
}

// IsProduction reports whether the service runs in production mode.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// getEnv returns the value of an environment variable or a default if empty.
func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// getEnvInt returns the value of an environment variable as an integer or a default if empty/invalid.
func getEnvInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return i
}

// parseDurationEnv reads an environment variable and parses it as time.Duration.
// If the variable is empty, it falls back to the provided default value.
func parseDurationEnv(key, def string) (time.Duration, error) {
	raw := getEnv(key, def)
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, err
	}
	if d < 0 {
		return 0, fmt.Errorf("duration must be >= 0")
	}
	return d, nil
}

func parseDecimalEnv(key, def string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(getEnv(key, def))
	if err != nil {
		return decimal.Zero, err
	}
	if d.IsNegative() {
		return decimal.Zero, fmt.Errorf("amount must be >= 0")
	}
	return d, nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, strings.ToLower(p))
		}
	}
	return out
}
