package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

// Config holds application configuration
type Config struct {
	// Server
	Port string
	Env  string

	// Database
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	// JWT
	JWTSecret        string
	JWTExpirationDur time.Duration

	// Pipeline
	PipelineAPIKey string

	// Exchange rates
	RatesUSDURL   string
	RatesARSURL   string
	RatesTimeout  time.Duration
	RatesCacheTTL time.Duration
	RedisAddr     string

	// Tracker defaults
	DefaultCurrency    string
	DefaultMonthlyGoal decimal.Decimal
	SavingsTarget      decimal.Decimal
	CatalogFile        string
}

var appConfig *Config

// Load loads configuration from environment variables
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found")
	}

	config := &Config{
		Port: getEnv("PORT", "8080"),
		Env:  getEnv("ENV", "development"),

		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "safe"),
		DBPassword: getEnv("DB_PASSWORD", "safe"),
		DBName:     getEnv("DB_NAME", "safe"),
		DBSSLMode:  getEnv("DB_SSLMODE", "disable"),

		JWTSecret:      getEnv("JWT_SECRET", "fallback-secret-key-for-dev-only"),
		PipelineAPIKey: getEnv("PIPELINE_API_KEY", ""),

		RatesUSDURL: getEnv("RATES_USD_URL", "https://api.exchangerate-api.com/v4/latest/USD"),
		RatesARSURL: getEnv("RATES_ARS_URL", "https://dolarapi.com/v1/dolares/blue"),
		RedisAddr:   getEnv("REDIS_ADDR", ""),

		DefaultCurrency: getEnv("DEFAULT_CURRENCY", "ILS"),
		CatalogFile:     getEnv("CATALOG_FILE", ""),
	}

	config.JWTExpirationDur = getDuration("JWT_EXPIRES_IN", 24*time.Hour)
	config.RatesTimeout = getDuration("RATES_TIMEOUT", 5*time.Second)
	config.RatesCacheTTL = getDuration("RATES_CACHE_TTL", 30*time.Minute)
	config.DefaultMonthlyGoal = getDecimal("DEFAULT_MONTHLY_GOAL", 3000)
	config.SavingsTarget = getDecimal("SAVINGS_TARGET", 200)

	appConfig = config
	return config, nil
}

// Get returns the application configuration
func Get() *Config {
	if appConfig == nil {
		var err error
		appConfig, err = Load()
		if err != nil {
			log.Fatalf("Failed to load configuration: %v", err)
		}
	}
	return appConfig
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	raw := getEnv(key, "")
	if raw == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		log.Printf("Warning: invalid %s value '%s', falling back to %s\n", key, raw, defaultValue)
		return defaultValue
	}
	return d
}

func getDecimal(key string, defaultValue int64) decimal.Decimal {
	raw := getEnv(key, strconv.FormatInt(defaultValue, 10))
	d, err := decimal.NewFromString(raw)
	if err != nil {
		log.Printf("Warning: invalid %s value '%s', falling back to %d\n", key, raw, defaultValue)
		return decimal.NewFromInt(defaultValue)
	}
	return d
}
