package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Logger   LoggerConfig
	Auth     AuthConfig
	Order    OrderConfig
	Notify   NotifyConfig
	S3       S3Config
	Redis    RedisConfig
	Tracing  TracingConfig
}

// ServerConfig holds server-related configuration.
type ServerConfig struct {
	Host string
	Port int
}

// DatabaseConfig holds database-related configuration.
type DatabaseConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	Database        string
	MaxConnections  int
	MinConnections  int
	MaxConnLifetime int // seconds
	AutoMigrate     bool

	// LockTimeout bounds how long a statement waits for a row lock held by
	// a concurrent checkout.
	LockTimeout time.Duration
}

// LoggerConfig holds logger-related configuration.
type LoggerConfig struct {
	Level  string
	Format string // "json" or "console"
}

// AuthConfig holds bearer token verification settings.
type AuthConfig struct {
	JWTSecret string
	Issuer    string
}

// OrderConfig holds order placement settings.
type OrderConfig struct {
	// PlacementTimeout bounds the whole atomic placement unit.
	PlacementTimeout time.Duration

	// StrictTransitions enforces the order lifecycle graph on admin status updates.
	StrictTransitions bool

	// LowStockThreshold is used by the admin dashboard.
	LowStockThreshold int
}

// NotifyConfig holds customer notification settings.
type NotifyConfig struct {
	Provider       string // "log" or "postmark"
	PostmarkToken  string
	Sender         string
	TemplateSource string // "embedded", "file" or "s3"
	TemplateDir    string
	Workers        int
	QueueSize      int
	MaxAttempts    int
	SendTimeout    time.Duration
}

// S3Config holds AWS S3 configuration for notification templates.
type S3Config struct {
	Bucket string
	Region string
	Prefix string // Path prefix within bucket (e.g., "templates/")
}

// RedisConfig holds catalogue cache configuration.
type RedisConfig struct {
	Enabled  bool
	Addr     string
	Password string
	DB       int
	TTL      time.Duration
}

// TracingConfig selects where OpenTelemetry spans are exported.
type TracingConfig struct {
	Exporter    string // "none" or "stdout"
	ServiceName string
	SampleRatio float64
}

// Load loads configuration from environment variables. A .env file in the
// working directory is read first when present.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to read .env file: %w", err)
	}

	cfg := &Config{
		Server: ServerConfig{
			Host: getEnv("SERVER_HOST", "0.0.0.0"),
			Port: getEnvAsInt("SERVER_PORT", 8080),
		},
		Database: DatabaseConfig{
			Host:            getEnv("DB_HOST", "localhost"),
			Port:            getEnvAsInt("DB_PORT", 5432),
			User:            getEnv("DB_USER", "postgres"),
			Password:        getEnv("DB_PASSWORD", ""),
			Database:        getEnv("DB_NAME", "shopfront"),
			MaxConnections:  getEnvAsInt("DB_MAX_CONNECTIONS", 25),
			MinConnections:  getEnvAsInt("DB_MIN_CONNECTIONS", 5),
			MaxConnLifetime: getEnvAsInt("DB_MAX_CONN_LIFETIME", 300),
			AutoMigrate:     getEnvAsBool("DB_AUTO_MIGRATE", true),
			LockTimeout:     getEnvAsDuration("DB_LOCK_TIMEOUT", 3*time.Second),
		},
		Logger: LoggerConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
		Auth: AuthConfig{
			JWTSecret: getEnv("JWT_SECRET", ""),
			Issuer:    getEnv("JWT_ISSUER", ""),
		},
		Order: OrderConfig{
			PlacementTimeout:  getEnvAsDuration("ORDER_PLACEMENT_TIMEOUT", 5*time.Second),
			StrictTransitions: getEnvAsBool("ORDER_STRICT_TRANSITIONS", false),
			LowStockThreshold: getEnvAsInt("ORDER_LOW_STOCK_THRESHOLD", 10),
		},
		Notify: NotifyConfig{
			Provider:       getEnv("NOTIFY_PROVIDER", "log"),
			PostmarkToken:  getEnv("POSTMARK_API_TOKEN", ""),
			Sender:         getEnv("EMAIL_SENDER", "orders@shopfront.local"),
			TemplateSource: getEnv("NOTIFY_TEMPLATE_SOURCE", "embedded"),
			TemplateDir:    getEnv("NOTIFY_TEMPLATE_DIR", "data/templates"),
			Workers:        getEnvAsInt("NOTIFY_WORKERS", 4),
			QueueSize:      getEnvAsInt("NOTIFY_QUEUE_SIZE", 256),
			MaxAttempts:    getEnvAsInt("NOTIFY_MAX_ATTEMPTS", 3),
			SendTimeout:    getEnvAsDuration("NOTIFY_SEND_TIMEOUT", 10*time.Second),
		},
		S3: S3Config{
			Bucket: getEnv("S3_BUCKET", ""),
			Region: getEnv("S3_REGION", "us-east-1"),
			Prefix: getEnv("S3_PREFIX", "templates/"),
		},
		Redis: RedisConfig{
			Enabled:  getEnvAsBool("REDIS_ENABLED", false),
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
			TTL:      getEnvAsDuration("REDIS_CATALOG_TTL", time.Minute),
		},
		Tracing: TracingConfig{
			Exporter:    getEnv("OTEL_EXPORTER", "none"),
			ServiceName: getEnv("OTEL_SERVICE_NAME", "shopfront"),
			SampleRatio: getEnvAsFloat("OTEL_TRACES_SAMPLE_RATIO", 1),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	if c.Database.Host == "" {
		return fmt.Errorf("database host is required")
	}

	if c.Database.Port < 1 || c.Database.Port > 65535 {
		return fmt.Errorf("invalid database port: %d", c.Database.Port)
	}

	if c.Database.User == "" {
		return fmt.Errorf("database user is required")
	}

	if c.Database.Database == "" {
		return fmt.Errorf("database name is required")
	}

	if c.Database.MaxConnections < 1 {
		return fmt.Errorf("database max connections must be at least 1")
	}

	if c.Database.MinConnections < 1 {
		return fmt.Errorf("database min connections must be at least 1")
	}

	if c.Database.MinConnections > c.Database.MaxConnections {
		return fmt.Errorf("database min connections cannot exceed max connections")
	}

	if c.Database.LockTimeout < 0 {
		return fmt.Errorf("database lock timeout cannot be negative")
	}

	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("JWT secret is required")
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}

	if !validLogLevels[c.Logger.Level] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Logger.Level)
	}

	if c.Logger.Format != "json" && c.Logger.Format != "console" {
		return fmt.Errorf("invalid log format: %s (must be json or console)", c.Logger.Format)
	}

	if c.Order.PlacementTimeout <= 0 {
		return fmt.Errorf("order placement timeout must be positive")
	}

	switch c.Notify.Provider {
	case "log":
	case "postmark":
		if c.Notify.PostmarkToken == "" {
			return fmt.Errorf("postmark API token is required when notify provider is postmark")
		}
	default:
		return fmt.Errorf("invalid notify provider: %s (must be log or postmark)", c.Notify.Provider)
	}

	switch c.Notify.TemplateSource {
	case "embedded":
	case "file":
		if c.Notify.TemplateDir == "" {
			return fmt.Errorf("template directory is required when template source is file")
		}
	case "s3":
		if c.S3.Bucket == "" {
			return fmt.Errorf("S3 bucket is required when template source is s3")
		}
		if c.S3.Region == "" {
			return fmt.Errorf("S3 region is required when template source is s3")
		}
	default:
		return fmt.Errorf("invalid template source: %s (must be embedded, file, or s3)", c.Notify.TemplateSource)
	}

	if c.Notify.Workers < 1 {
		return fmt.Errorf("notify workers must be at least 1")
	}

	if c.Notify.QueueSize < 1 {
		return fmt.Errorf("notify queue size must be at least 1")
	}

	if c.Notify.MaxAttempts < 1 {
		return fmt.Errorf("notify max attempts must be at least 1")
	}

	if c.Redis.Enabled && c.Redis.Addr == "" {
		return fmt.Errorf("redis address is required when redis is enabled")
	}

	if c.Tracing.Exporter != "none" && c.Tracing.Exporter != "stdout" {
		return fmt.Errorf("invalid trace exporter: %s (must be none or stdout)", c.Tracing.Exporter)
	}

	if c.Tracing.SampleRatio < 0 || c.Tracing.SampleRatio > 1 {
		return fmt.Errorf("trace sample ratio must be between 0 and 1")
	}

	return nil
}

// ConnectionString returns the PostgreSQL connection string.
func (c *DatabaseConfig) ConnectionString() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=disable",
		c.User,
		c.Password,
		c.Host,
		c.Port,
		c.Database,
	)
}

// Address returns the server address.
func (c *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// getEnv retrieves an environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value.
func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvAsBool retrieves an environment variable as a boolean or returns a default value.
func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

// getEnvAsDuration retrieves an environment variable as a time.Duration or returns a default value.
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

// getEnvAsFloat retrieves an environment variable as a float64 or returns a default value.
func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}
