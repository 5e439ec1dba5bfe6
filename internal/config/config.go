package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds the whole application configuration, populated from
// environment variables.
type Config struct {
	App      AppConfig
	Database DatabaseConfig
	Redis    RedisConfig
	JWT      JWTConfig
	Catalog  CatalogConfig
	Order    OrderConfig
	Payment  PaymentConfig
	Jobs     JobConfig
}

type AppConfig struct {
	Name        string
	Environment string // development, staging, production
	Port        string
	Version     string
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
	MaxConns int
	MinConns int
}

type RedisConfig struct {
	Host     string
	Password string
	DB       int
}

type JWTConfig struct {
	Secret string
}

// CatalogConfig points at the external catalog service used to resolve
// product and extra prices at order creation.
type CatalogConfig struct {
	BaseURL string
	Timeout time.Duration
}

type OrderConfig struct {
	// DeliveryFee is the flat per-order delivery fee.
	DeliveryFee string
	// TaxRate applied to (subtotal - discount).
	TaxRate string
	// ConfirmBaseURL is the public base for transfer confirmation links.
	ConfirmBaseURL string
}

type PaymentConfig struct {
	// CardDeclineRate lets the simulated authorizer decline a fraction of
	// attempts in non-production environments. 0 disables declines.
	CardDeclineRate float64
}

type JobConfig struct {
	// StaleOrderAge is how old an unpaid pending order must be before the
	// sweep cancels it.
	StaleOrderAge time.Duration
	// StaleOrderCron is the cron spec for the sweep.
	StaleOrderCron string
}

// Load reads config from environment variables.
func Load() (*Config, error) {
	cfg := &Config{
		App: AppConfig{
			Name:        getEnv("APP_NAME", "FoodOrder API"),
			Environment: getEnv("APP_ENV", "development"),
			Port:        getEnv("APP_PORT", "8080"),
			Version:     getEnv("APP_VERSION", "1.0.0"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvInt("DB_PORT", 5432),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", ""),
			Database: getEnv("DB_NAME", "foodorder"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
			MaxConns: getEnvInt("DB_MAX_CONNS", 25),
			MinConns: getEnvInt("DB_MIN_CONNS", 5),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		JWT: JWTConfig{
			Secret: getEnv("JWT_SECRET", "your-secret-key-change-in-production"),
		},
		Catalog: CatalogConfig{
			BaseURL: getEnv("CATALOG_BASE_URL", "http://localhost:8081"),
			Timeout: getEnvDuration("CATALOG_TIMEOUT", 5*time.Second),
		},
		Order: OrderConfig{
			DeliveryFee:    getEnv("ORDER_DELIVERY_FEE", "2.50"),
			TaxRate:        getEnv("ORDER_TAX_RATE", "0.12"),
			ConfirmBaseURL: getEnv("ORDER_CONFIRM_BASE_URL", "http://localhost:8080/api/v1/payments/transfer/confirm"),
		},
		Payment: PaymentConfig{
			CardDeclineRate: getEnvFloat("PAYMENT_CARD_DECLINE_RATE", 0),
		},
		Jobs: JobConfig{
			StaleOrderAge:  getEnvDuration("JOB_STALE_ORDER_AGE", 30*time.Minute),
			StaleOrderCron: getEnv("JOB_STALE_ORDER_CRON", "*/10 * * * *"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks that critical config is set.
func (c *Config) Validate() error {
	if c.App.Environment == "production" {
		if c.JWT.Secret == "your-secret-key-change-in-production" {
			return fmt.Errorf("JWT_SECRET must be set in production")
		}
		if c.Database.Password == "" {
			return fmt.Errorf("DB_PASSWORD must be set in production")
		}
	}

	return nil
}

// Helper functions
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
