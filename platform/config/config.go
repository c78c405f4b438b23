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

// RedisConfig provides settings for the redis-backed cache and task queue.
type RedisConfig interface {
	GetRedisAddr() string
	GetRedisPassword() string
	IsRedisEnabled() bool
}

// CacheConfig provides settings for the stage-board cache.
type CacheConfig interface {
	RedisConfig
	GetStageBoardCacheTTL() time.Duration
}

// ReminderConfig provides settings for meeting/calendar reminders.
type ReminderConfig interface {
	GetReminderLeadTime() time.Duration
}

// EmailConfig provides settings for email notification delivery.
type EmailConfig interface {
	GetEmailEnabled() bool
	GetSMTPHost() string
	GetSMTPPort() int
	GetSMTPUsername() string
	GetSMTPPassword() string
	GetEmailFromName() string
	GetEmailFromAddress() string
	GetEmailNotifyAddress() string
}

// =============================================================================
// Main Config Struct
// =============================================================================

// Config holds all application configuration values.
type Config struct {
	Env                string
	HTTPAddr           string
	DatabaseURL        string
	JWTAccessSecret    string
	CORSAllowAll       bool
	CORSOrigins        []string
	CORSAllowCreds     bool
	RedisAddr          string
	RedisPassword      string
	RedisEnabled       bool
	StageBoardCacheTTL time.Duration
	ReminderLeadTime   time.Duration
	EmailEnabled       bool
	SMTPHost           string
	SMTPPort           int
	SMTPUsername       string
	SMTPPassword       string
	EmailFromName      string
	EmailFromAddress   string
	EmailNotifyAddress string
}

// Load reads configuration from the environment (and .env when present).
func Load() (*Config, error) {
	_ = godotenv.Load()

	corsOrigins := splitCSV(getEnv("CORS_ORIGINS", "http://localhost:4200"))
	corsAllowAll := strings.EqualFold(getEnv("CORS_ALLOW_ALL", "false"), "true")
	if containsWildcard(corsOrigins) {
		corsAllowAll = true
	}

	smtpHost := getEnv("SMTP_HOST", "")
	emailEnabled := strings.EqualFold(getEnv("EMAIL_ENABLED", "false"), "true")

	cfg := &Config{
		Env:                getEnv("APP_ENV", "development"),
		HTTPAddr:           getEnv("HTTP_ADDR", ":8080"),
		DatabaseURL:        getEnv("DATABASE_URL", ""),
		JWTAccessSecret:    getEnv("JWT_ACCESS_SECRET", ""),
		CORSAllowAll:       corsAllowAll,
		CORSOrigins:        corsOrigins,
		CORSAllowCreds:     strings.EqualFold(getEnv("CORS_ALLOW_CREDENTIALS", "true"), "true"),
		RedisAddr:          getEnv("REDIS_ADDR", ""),
		RedisPassword:      getEnv("REDIS_PASSWORD", ""),
		StageBoardCacheTTL: mustDuration(getEnv("STAGE_BOARD_CACHE_TTL", "30s")),
		ReminderLeadTime:   mustDuration(getEnv("REMINDER_LEAD_TIME", "1h")),
		EmailEnabled:       emailEnabled && smtpHost != "",
		SMTPHost:           smtpHost,
		SMTPPort:           mustInt(getEnv("SMTP_PORT", "587")),
		SMTPUsername:       getEnv("SMTP_USERNAME", ""),
		SMTPPassword:       getEnv("SMTP_PASSWORD", ""),
		EmailFromName:      getEnv("EMAIL_FROM_NAME", "CRM"),
		EmailFromAddress:   getEnv("EMAIL_FROM_ADDRESS", ""),
		EmailNotifyAddress: getEnv("EMAIL_NOTIFY_ADDRESS", ""),
	}
	cfg.RedisEnabled = cfg.RedisAddr != ""

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.JWTAccessSecret == "" {
		return nil, fmt.Errorf("JWT_ACCESS_SECRET is required")
	}
	if emailEnabled && cfg.SMTPHost == "" {
		return nil, fmt.Errorf("SMTP_HOST is required when EMAIL_ENABLED is true")
	}
	if cfg.EmailEnabled && cfg.EmailFromAddress == "" {
		return nil, fmt.Errorf("EMAIL_FROM_ADDRESS is required when email is enabled")
	}
	if cfg.CORSAllowAll && cfg.CORSAllowCreds {
		return nil, fmt.Errorf("CORS_ALLOW_CREDENTIALS cannot be true when CORS_ALLOW_ALL is true")
	}

	return cfg, nil
}

// Interface implementations.

func (c *Config) GetDatabaseURL() string               { return c.DatabaseURL }
func (c *Config) GetJWTAccessSecret() string           { return c.JWTAccessSecret }
func (c *Config) GetHTTPAddr() string                  { return c.HTTPAddr }
func (c *Config) GetCORSAllowAll() bool                { return c.CORSAllowAll }
func (c *Config) GetCORSOrigins() []string             { return c.CORSOrigins }
func (c *Config) GetCORSAllowCreds() bool              { return c.CORSAllowCreds }
func (c *Config) GetRedisAddr() string                 { return c.RedisAddr }
func (c *Config) GetRedisPassword() string             { return c.RedisPassword }
func (c *Config) IsRedisEnabled() bool                 { return c.RedisEnabled }
func (c *Config) GetStageBoardCacheTTL() time.Duration { return c.StageBoardCacheTTL }
func (c *Config) GetReminderLeadTime() time.Duration   { return c.ReminderLeadTime }
func (c *Config) GetEmailEnabled() bool                { return c.EmailEnabled }
func (c *Config) GetSMTPHost() string                  { return c.SMTPHost }
func (c *Config) GetSMTPPort() int                     { return c.SMTPPort }
func (c *Config) GetSMTPUsername() string              { return c.SMTPUsername }
func (c *Config) GetSMTPPassword() string              { return c.SMTPPassword }
func (c *Config) GetEmailFromName() string             { return c.EmailFromName }
func (c *Config) GetEmailFromAddress() string          { return c.EmailFromAddress }
func (c *Config) GetEmailNotifyAddress() string        { return c.EmailNotifyAddress }

func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return fallback
}

func mustDuration(value string) time.Duration {
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0
	}
	return d
}

func mustInt(value string) int {
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0
	}
	return n
}

func splitCSV(value string) []string {
	parts := strings.Split(value, ",")
	results := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			results = append(results, trimmed)
		}
	}
	return results
}

func containsWildcard(values []string) bool {
	for _, value := range values {
		if value == "*" {
			return true
		}
	}
	return false
}
