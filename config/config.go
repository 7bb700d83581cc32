package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	AppEnv   string
	Port     string
	LogLevel string

	Database DatabaseConfig
	RedisURL string

	AuthSecret  string
	CORSOrigins []string

	Generation GenerationConfig

	SweepSchedule        string
	PaymentWebhookSecret string

	SendGridAPIKey string
	MailFrom       string

	SiteName         string
	SiteURL          string
	SiteDefaultImage string

	SentryDSN string
	SeedDemo  bool
}

type DatabaseConfig struct {
	URL      string
	Host     string
	Port     int
	User     string
	Password string
	Name     string
}

type GenerationConfig struct {
	URL           string
	ServiceKey    string
	SettleDelay   time.Duration
	FailurePolicy string
	Disabled      bool
}

var ErrAuthSecret = errors.New("AUTH_JWT_SECRET is required")

var ErrGenerationConfig = errors.New("GENERATION_URL and GENERATION_SERVICE_KEY are required unless GENERATION_DISABLED=true")

// Load reads the process environment. A .env file is honoured outside production.
func Load() (*Config, error) {
	if os.Getenv("APP_ENV") != "production" {
		_ = godotenv.Load()
	}

	cfg := &Config{
		AppEnv:   getEnv("APP_ENV", "development"),
		Port:     getEnv("PORT", "8888"),
		LogLevel: getEnv("LOG_LEVEL", "info"),
		Database: DatabaseConfig{
			URL:      os.Getenv("DATABASE_URL"),
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvAsInt("DB_PORT", 5432),
			User:     getEnv("DB_USER", "postgres"),
			Password: os.Getenv("DB_PASSWORD"),
			Name:     getEnv("DB_NAME", "agora"),
		},
		RedisURL:    os.Getenv("REDIS_URL"),
		AuthSecret:  strings.TrimSpace(os.Getenv("AUTH_JWT_SECRET")),
		CORSOrigins: splitCSV(getEnv("CORS_ORIGINS", "http://localhost:3000")),
		Generation: GenerationConfig{
			URL:           strings.TrimSpace(os.Getenv("GENERATION_URL")),
			ServiceKey:    strings.TrimSpace(os.Getenv("GENERATION_SERVICE_KEY")),
			SettleDelay:   getEnvAsDuration("GENERATION_SETTLE_DELAY", 3*time.Second),
			FailurePolicy: getEnv("GENERATION_FAILURE_POLICY", "retryable"),
			Disabled:      getEnvAsBool("GENERATION_DISABLED", false),
		},
		SweepSchedule:        getEnv("SWEEP_SCHEDULE", "@every 1m"),
		PaymentWebhookSecret: os.Getenv("PAYMENT_WEBHOOK_SECRET"),
		SendGridAPIKey:       os.Getenv("SENDGRID_API_KEY"),
		MailFrom:             getEnv("MAIL_FROM", "no-reply@agora.local"),
		SiteName:             getEnv("SITE_NAME", "Agora"),
		SiteURL:              strings.TrimRight(getEnv("SITE_URL", "http://localhost:3000"), "/"),
		SiteDefaultImage:     os.Getenv("SITE_DEFAULT_IMAGE"),
		SentryDSN:            os.Getenv("SENTRY_DSN"),
		SeedDemo:             getEnvAsBool("SEED_DEMO", false),
	}

	if cfg.AuthSecret == "" {
		return cfg, ErrAuthSecret
	}
	if !cfg.Generation.Disabled && (cfg.Generation.URL == "" || cfg.Generation.ServiceKey == "") {
		return cfg, ErrGenerationConfig
	}
	return cfg, nil
}

func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.AppEnv, "production")
}

// DSN builds the postgres connection string. DATABASE_URL wins in production.
func (c *Config) DSN() string {
	if c.IsProduction() && c.Database.URL != "" {
		dsn := c.Database.URL
		if !strings.Contains(dsn, "sslmode=") {
			if strings.Contains(dsn, "?") {
				dsn += "&sslmode=require"
			} else {
				dsn += "?sslmode=require"
			}
		}
		return dsn
	}
	if c.Database.URL != "" {
		return c.Database.URL
	}
	return fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%d sslmode=disable TimeZone=UTC",
		c.Database.Host, c.Database.User, c.Database.Password, c.Database.Name, c.Database.Port,
	)
}

func getEnv(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

// getEnvAsDuration accepts Go durations ("3s") or plain milliseconds.
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	if ms, err := strconv.Atoi(value); err == nil {
		return time.Duration(ms) * time.Millisecond
	}
	return defaultValue
}

func splitCSV(input string) []string {
	parts := strings.Split(input, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
