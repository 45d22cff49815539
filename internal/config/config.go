package config

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server    ServerConfig    `mapstructure:"server" validate:"required"`
	Database  DatabaseConfig  `mapstructure:"database" validate:"required"`
	Auth      AuthConfig      `mapstructure:"auth" validate:"required"`
	Redis     RedisConfig     `mapstructure:"redis"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	Email     EmailConfig     `mapstructure:"email" validate:"required"`
	Storage   StorageConfig   `mapstructure:"storage" validate:"required"`
	Jobs      JobsConfig      `mapstructure:"jobs" validate:"required"`
	Sentry    SentryConfig    `mapstructure:"sentry"`
}

// ServerConfig contains all server-related configuration settings.
type ServerConfig struct {
	Port        int    `mapstructure:"port" validate:"required,gt=0,lt=65536"`
	LogLevel    string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
	LogFile     string `mapstructure:"log_file"`
	Environment string `mapstructure:"environment" validate:"required,oneof=development test staging production"`
	FrontendURL string `mapstructure:"frontend_url" validate:"required,url"`
	// AutoMigrate applies pending migrations when the server starts.
	AutoMigrate bool `mapstructure:"auto_migrate"`
}

// DatabaseConfig contains all database-related configuration settings.
type DatabaseConfig struct {
	URL          string `mapstructure:"url" validate:"required,url"`
	MaxOpenConns int    `mapstructure:"max_open_conns" validate:"gt=0"`
	MaxIdleConns int    `mapstructure:"max_idle_conns" validate:"gte=0"`
}

// AuthConfig contains all authentication and authorization settings.
type AuthConfig struct {
	JWTSecret            string `mapstructure:"jwt_secret" validate:"required,min=32"`
	TokenLifetimeMinutes int    `mapstructure:"token_lifetime_minutes" validate:"required,gt=0,lte=44640"`
	BCryptCost           int    `mapstructure:"bcrypt_cost" validate:"gte=4,lte=31"`
	CookieName           string `mapstructure:"cookie_name" validate:"required"`
	CookieSecure         bool   `mapstructure:"cookie_secure"`
	CookieSameSite       string `mapstructure:"cookie_samesite" validate:"oneof=lax strict none"`
}

// RedisConfig configures the optional cache and rate limiter backend.
// An empty URL disables both.
type RedisConfig struct {
	URL string `mapstructure:"url" validate:"omitempty,url"`
}

// RateLimitConfig sets token bucket parameters per route group.
// Rates are tokens per second.
type RateLimitConfig struct {
	Enabled   bool    `mapstructure:"enabled"`
	AuthRate  float64 `mapstructure:"auth_rate" validate:"gte=0"`
	AuthBurst int     `mapstructure:"auth_burst" validate:"gte=0"`
	APIRate   float64 `mapstructure:"api_rate" validate:"gte=0"`
	APIBurst  int     `mapstructure:"api_burst" validate:"gte=0"`
}

// EmailConfig selects and configures the outbound email sender.
type EmailConfig struct {
	Provider              string `mapstructure:"provider" validate:"required,oneof=smtp log"`
	SMTPHost              string `mapstructure:"smtp_host" validate:"required_if=Provider smtp"`
	SMTPPort              int    `mapstructure:"smtp_port" validate:"omitempty,gt=0,lt=65536"`
	SMTPUsername          string `mapstructure:"smtp_username"`
	SMTPPassword          string `mapstructure:"smtp_password"`
	From                  string `mapstructure:"from" validate:"required,email"`
	BreakerMaxFailures    uint32 `mapstructure:"breaker_max_failures" validate:"gt=0"`
	BreakerTimeoutSeconds int    `mapstructure:"breaker_timeout_seconds" validate:"gt=0"`
}

// StorageConfig configures the attachment blob backend.
type StorageConfig struct {
	UploadDir         string   `mapstructure:"upload_dir" validate:"required"`
	MaxUploadSize     int64    `mapstructure:"max_upload_size" validate:"gt=0"`
	AllowedExtensions []string `mapstructure:"allowed_extensions" validate:"required,min=1,dive,startswith=."`
}

// JobsConfig sizes the background job runner.
type JobsConfig struct {
	WorkerCount int `mapstructure:"worker_count" validate:"gt=0"`
	QueueSize   int `mapstructure:"queue_size" validate:"gt=0"`
}

// SentryConfig enables error reporting when DSN is set.
type SentryConfig struct {
	DSN              string  `mapstructure:"dsn"`
	Environment      string  `mapstructure:"environment"`
	TracesSampleRate float64 `mapstructure:"traces_sample_rate" validate:"gte=0,lte=1"`
}
