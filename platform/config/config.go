// Package config provides application configuration loading.
// This is part of the platform layer and contains no business logic.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// =============================================================================
// Module-Specific Config Interfaces (Principle of Least Privilege)
// =============================================================================

// DatabaseConfig provides database connection settings.
type DatabaseConfig interface {
	GetDatabaseURL() string
}

// JWTConfig provides JWT validation settings for middleware.
type JWTConfig interface {
	GetJWTAccessSecret() string
}

// HTTPConfig provides settings for the HTTP server.
type HTTPConfig interface {
	GetHTTPAddr() string
	GetCORSAllowAll() bool
	GetCORSOrigins() []string
	GetCORSAllowCreds() bool
}

// SchedulerConfig provides settings for the asynq background job system.
type SchedulerConfig interface {
	GetRedisURL() string
	GetRedisTLSInsecure() bool
	GetAsynqQueueName() string
	GetAsynqConcurrency() int
}

// EmailConfig provides settings for notification email sending.
type EmailConfig interface {
	GetEmailEnabled() bool
	GetSMTPHost() string
	GetSMTPPort() int
	GetSMTPUsername() string
	GetSMTPPassword() string
	GetEmailFromName() string
	GetEmailFromAddress() string
	GetSalesInboxAddress() string
}

// ProgressionConfig provides settings for the stage progression bulk runner.
type ProgressionConfig interface {
	// GetBulkConcurrency is the number of contacts evaluated in parallel.
	// 1 means strictly sequential.
	GetBulkConcurrency() int
	GetBulkBatchSize() int
}

// Config is the concrete configuration loaded from the environment.
type Config struct {
	Env      string
	HTTPAddr string

	DatabaseURL string

	JWTAccessSecret string

	CORSAllowAll   bool
	CORSOrigins    []string
	CORSAllowCreds bool

	RedisURL         string
	RedisTLSInsecure bool
	AsynqQueueName   string
	AsynqConcurrency int

	EmailEnabled      bool
	SMTPHost          string
	SMTPPort          int
	SMTPUsername      string
	SMTPPassword      string
	EmailFromName     string
	EmailFromAddress  string
	SalesInboxAddress string

	BulkConcurrency int
	BulkBatchSize   int

	HTTPShutdownTimeout time.Duration
}

// Load reads configuration from environment variables, with .env support.
func Load() (*Config, error) {
	_ = godotenv.Load()

	corsOrigins := splitCSV(getEnv("CORS_ORIGINS", "http://localhost:4200"))
	corsAllowAll := strings.EqualFold(getEnv("CORS_ALLOW_ALL", "false"), "true")
	if containsWildcard(corsOrigins) {
		corsAllowAll = true
	}

	smtpHost := getEnv("SMTP_HOST", "")
	emailEnabled := strings.EqualFold(getEnv("EMAIL_ENABLED", "true"), "true")

	cfg := &Config{
		Env:                 getEnv("APP_ENV", "development"),
		HTTPAddr:            getEnv("HTTP_ADDR", ":8080"),
		DatabaseURL:         getEnv("DATABASE_URL", ""),
		JWTAccessSecret:     getEnv("JWT_ACCESS_SECRET", ""),
		CORSAllowAll:        corsAllowAll,
		CORSOrigins:         corsOrigins,
		CORSAllowCreds:      strings.EqualFold(getEnv("CORS_ALLOW_CREDENTIALS", "true"), "true"),
		RedisURL:            getEnv("REDIS_URL", ""),
		RedisTLSInsecure:    strings.EqualFold(getEnv("REDIS_TLS_INSECURE", "false"), "true"),
		AsynqQueueName:      getEnv("ASYNQ_QUEUE", "default"),
		AsynqConcurrency:    mustInt(getEnv("ASYNQ_CONCURRENCY", "10")),
		EmailEnabled:        emailEnabled && smtpHost != "",
		SMTPHost:            smtpHost,
		SMTPPort:            mustInt(getEnv("SMTP_PORT", "587")),
		SMTPUsername:        getEnv("SMTP_USERNAME", ""),
		SMTPPassword:        getEnv("SMTP_PASSWORD", ""),
		EmailFromName:       getEnv("EMAIL_FROM_NAME", "Venue CRM"),
		EmailFromAddress:    getEnv("EMAIL_FROM_ADDRESS", ""),
		SalesInboxAddress:   getEnv("SALES_INBOX_ADDRESS", ""),
		BulkConcurrency:     mustInt(getEnv("PROGRESSION_BULK_CONCURRENCY", "1")),
		BulkBatchSize:       mustInt(getEnv("PROGRESSION_BULK_BATCH_SIZE", "500")),
		HTTPShutdownTimeout: mustDuration(getEnv("HTTP_SHUTDOWN_TIMEOUT", "10s")),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.JWTAccessSecret == "" {
		return nil, fmt.Errorf("JWT_ACCESS_SECRET is required")
	}
	if cfg.BulkConcurrency < 1 {
		cfg.BulkConcurrency = 1
	}

	return cfg, nil
}

// Interface implementations.

func (c *Config) GetDatabaseURL() string      { return c.DatabaseURL }
func (c *Config) GetJWTAccessSecret() string  { return c.JWTAccessSecret }
func (c *Config) GetHTTPAddr() string         { return c.HTTPAddr }
func (c *Config) GetCORSAllowAll() bool       { return c.CORSAllowAll }
func (c *Config) GetCORSOrigins() []string    { return c.CORSOrigins }
func (c *Config) GetCORSAllowCreds() bool     { return c.CORSAllowCreds }
func (c *Config) GetRedisURL() string         { return c.RedisURL }
func (c *Config) GetRedisTLSInsecure() bool   { return c.RedisTLSInsecure }
func (c *Config) GetAsynqQueueName() string   { return c.AsynqQueueName }
func (c *Config) GetAsynqConcurrency() int    { return c.AsynqConcurrency }
func (c *Config) GetEmailEnabled() bool       { return c.EmailEnabled }
func (c *Config) GetSMTPHost() string         { return c.SMTPHost }
func (c *Config) GetSMTPPort() int            { return c.SMTPPort }
func (c *Config) GetSMTPUsername() string     { return c.SMTPUsername }
func (c *Config) GetSMTPPassword() string     { return c.SMTPPassword }
func (c *Config) GetEmailFromName() string    { return c.EmailFromName }
func (c *Config) GetEmailFromAddress() string { return c.EmailFromAddress }
func (c *Config) GetSalesInboxAddress() string {
	return c.SalesInboxAddress
}
func (c *Config) GetBulkConcurrency() int { return c.BulkConcurrency }
func (c *Config) GetBulkBatchSize() int   { return c.BulkBatchSize }

// Helpers.

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}

func splitCSV(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func containsWildcard(origins []string) bool {
	for _, origin := range origins {
		if origin == "*" {
			return true
		}
	}
	return false
}

func mustInt(value string) int {
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return 0
	}
	return parsed
}

func mustDuration(value string) time.Duration {
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return 0
	}
	return parsed
}
