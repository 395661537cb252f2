// Package config provides configuration loading and validation utilities.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	validator "github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Load reads configuration from YAML files and environment variables,
// validates it, and returns the resulting Config.
func Load() (*Config, *viper.Viper, error) {
	if err := godotenv.Load(".env.local", ".env"); err != nil {
		// missing env files are fine
		_ = err
	}

	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "development"
	}

	v := viper.New()
	v.SetConfigFile(fmt.Sprintf("./configs/%s.yaml", env))
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, nil, fmt.Errorf("unmarshal config: %w", err)
	}
	cfg.AppEnv = env

	validate := validator.New(validator.WithRequiredStructEnabled())
	if err := validate.Struct(cfg); err != nil {
		return nil, nil, fmt.Errorf("validate config: %w", err)
	}

	return &cfg, v, nil
}

// WatchRewards re-reads the rewards section whenever the config file changes
// and hands the result to onChange. Other sections require a restart.
func WatchRewards(v *viper.Viper, log *slog.Logger, onChange func(RewardsConfig)) {
	if v == nil || onChange == nil {
		return
	}
	if log == nil {
		log = slog.Default()
	}

	v.OnConfigChange(func(e fsnotify.Event) {
		var cfg Config
		if err := v.Unmarshal(&cfg); err != nil {
			log.Error("failed to reload config", slog.String("file", e.Name), slog.Any("error", err))
			return
		}

		log.Info("rewards config reloaded",
			slog.String("file", e.Name),
			slog.String("video_url", cfg.Rewards.VideoURL),
			slog.String("ad_url", cfg.Rewards.AdURL),
		)
		onChange(cfg.Rewards)
	})
	v.WatchConfig()
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "json")

	v.SetDefault("server.admin_port", ":9090")
	v.SetDefault("server.shutdown_timeout", 15*time.Second)

	v.SetDefault("bot.mode", "polling")
	v.SetDefault("bot.listen", ":8080")
	v.SetDefault("bot.timeout", 10*time.Second)

	v.SetDefault("db.host", "localhost")
	v.SetDefault("db.port", "5432")
	v.SetDefault("db.sslmode", "disable")

	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.pool_size", 10)

	v.SetDefault("rewards.video_url", DefaultVideoURL)
	v.SetDefault("rewards.ad_url", DefaultAdURL)
	v.SetDefault("rewards.session_ttl", time.Hour)
	v.SetDefault("rewards.cache_ttl", 30*time.Second)
}
