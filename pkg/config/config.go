package config

import (
	"fmt"
	"time"
)

// Default reward destinations used when the config omits them.
const (
	DefaultVideoURL = "https://points.example.com/promo/video"
	DefaultAdURL    = "https://points.example.com/promo/ad"
)

// Config holds runtime configuration for the points bot.
type Config struct {
	AppEnv string `mapstructure:"app_env"`

	Logger  LoggerConfig  `mapstructure:"logger"`
	Server  ServerConfig  `mapstructure:"server"`
	Bot     BotConfig     `mapstructure:"bot" validate:"required"`
	DB      DBConfig      `mapstructure:"db" validate:"required"`
	Redis   RedisConfig   `mapstructure:"redis"`
	Sentry  SentryConfig  `mapstructure:"sentry"`
	Rewards RewardsConfig `mapstructure:"rewards"`
}

// LoggerConfig controls log output format and rotation.
type LoggerConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
}

// ServerConfig configures the admin HTTP server (metrics, health, dashboard).
type ServerConfig struct {
	AdminPort       string        `mapstructure:"admin_port"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// Update delivery modes for the Telegram transport.
const (
	BotModeWebhook = "webhook"
	BotModePolling = "polling"
)

// BotConfig configures the Telegram transport.
type BotConfig struct {
	Token string `mapstructure:"token" validate:"required"`
	// Mode selects webhook delivery or long polling.
	Mode        string        `mapstructure:"mode" validate:"oneof=webhook polling"`
	Listen      string        `mapstructure:"listen"`
	WebhookURL  string        `mapstructure:"webhook_url"`
	SecretToken string        `mapstructure:"secret_token"`
	Timeout     time.Duration `mapstructure:"timeout"`
}

// DBConfig configures the PostgreSQL connection.
type DBConfig struct {
	Host     string `mapstructure:"host" validate:"required"`
	Port     string `mapstructure:"port" validate:"required"`
	User     string `mapstructure:"user" validate:"required"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name" validate:"required"`
	SSLMode  string `mapstructure:"sslmode"`
}

// DSN returns the PostgreSQL connection string.
func (c DBConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host,
		c.Port,
		c.User,
		c.Password,
		c.Name,
		c.SSLMode,
	)
}

// RedisConfig configures the Redis connection shared by the session store,
// idempotency store, balance cache and notify queue.
type RedisConfig struct {
	Addr         string `mapstructure:"addr" validate:"required"`
	Password     string `mapstructure:"password"`
	DB           int    `mapstructure:"db"`
	PoolSize     int    `mapstructure:"pool_size"`
	MinIdleConns int    `mapstructure:"min_idle_conns"`
}

// SentryConfig toggles Sentry error reporting.
type SentryConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	DSN         string `mapstructure:"dsn"`
	Environment string `mapstructure:"environment"`
}

// RewardsConfig carries the reward destinations and session lifetimes.
// This section is hot-reloadable.
type RewardsConfig struct {
	VideoURL   string        `mapstructure:"video_url"`
	AdURL      string        `mapstructure:"ad_url"`
	SessionTTL time.Duration `mapstructure:"session_ttl"`
	CacheTTL   time.Duration `mapstructure:"cache_ttl"`
}
