package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment variable the loader reads,
// e.g. FAROS_DATABASE_URL for database.url.
const EnvPrefix = "FAROS"

// keys that have no default but must still be readable from the environment.
var envOnlyKeys = []string{
	"server.log_file",
	"database.url",
	"auth.jwt_secret",
	"redis.url",
	"email.smtp_host",
	"email.smtp_username",
	"email.smtp_password",
	"sentry.dsn",
	"sentry.environment",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.log_level", "info")
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.frontend_url", "http://localhost:3000")
	v.SetDefault("server.auto_migrate", true)

	v.SetDefault("database.max_open_conns", 25)
	v.SetDefault("database.max_idle_conns", 25)

	v.SetDefault("auth.token_lifetime_minutes", 720)
	v.SetDefault("auth.bcrypt_cost", 12)
	v.SetDefault("auth.cookie_name", "access_token")
	v.SetDefault("auth.cookie_secure", false)
	v.SetDefault("auth.cookie_samesite", "lax")

	v.SetDefault("rate_limit.enabled", true)
	v.SetDefault("rate_limit.auth_rate", 0.2)
	v.SetDefault("rate_limit.auth_burst", 5)
	v.SetDefault("rate_limit.api_rate", 10.0)
	v.SetDefault("rate_limit.api_burst", 100)

	v.SetDefault("email.provider", "log")
	v.SetDefault("email.smtp_port", 587)
	v.SetDefault("email.from", "noreply@example.com")
	v.SetDefault("email.breaker_max_failures", 5)
	v.SetDefault("email.breaker_timeout_seconds", 30)

	v.SetDefault("storage.upload_dir", "uploads")
	v.SetDefault("storage.max_upload_size", 10*1024*1024)
	v.SetDefault("storage.allowed_extensions", []string{
		".jpg", ".jpeg", ".png", ".gif", ".pdf", ".txt", ".doc", ".docx",
	})

	v.SetDefault("jobs.worker_count", 2)
	v.SetDefault("jobs.queue_size", 100)

	v.SetDefault("sentry.traces_sample_rate", 0.0)
}

// Load configuration from environment variables and optionally config files.
// A .env file in the working directory is loaded into the process
// environment first; variables already set take precedence over it.
// Environment variables take precedence over values from config files.
// Returns a populated Config struct or an error if loading/validation fails.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("error loading .env file: %w", err)
	}

	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for _, key := range envOnlyKeys {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("error binding %s: %w", key, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks cfg against its struct tags.
func Validate(cfg *Config) error {
	validate := validator.New()
	if err := validate.Struct(cfg); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}
	return nil
}
