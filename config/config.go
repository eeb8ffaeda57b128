package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config represents the complete application configuration
type Config struct {
	Server      ServerConfig
	Database    DatabaseConfig
	Auth        AuthConfig
	Encryption  EncryptionConfig
	KillSwitch  KillSwitchConfig
	Redis       RedisConfig
	Queue       QueueConfig
	Webhooks    WebhooksConfig
	Runtime     RuntimeConfig
	LogLevel    string
	LogFormat   string // json or text
	Environment string
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host            string
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

// DatabaseConfig holds PostgreSQL database configuration.
// When ConnectionString (from DATABASE_URL) is set, it takes precedence over individual fields.
type DatabaseConfig struct {
	ConnectionString string
	Host             string
	Port             int
	User             string
	Password         string
	Database         string
	SSLMode          string
	MaxOpenConns     int
	MaxIdleConns     int
	ConnMaxLifetime  time.Duration
}

// AuthConfig holds bearer-token authentication configuration
type AuthConfig struct {
	JWTSecret string
	Issuer    string
	TokenTTL  time.Duration
}

// EncryptionConfig holds the credentials-at-rest encryption key
type EncryptionConfig struct {
	Key string
}

// KillSwitchConfig holds kill switch cache behavior
type KillSwitchConfig struct {
	CacheTTL      time.Duration
	GlobalDefault bool
}

// RedisConfig holds the optional shared cache/limiter backend. When
// disabled or Host is empty, in-process implementations are used.
type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
}

/// Addr returns the redis host:port address
func (c *RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Active reports whether a shared redis backend should be used
func (c *RedisConfig) Active() bool {
	return c.Enabled && c.Host != ""
}

// QueueConfig holds the optional SQS audit event export
type QueueConfig struct {
	URL             string
	Region          string
	AccessKeyID     string
	SecretAccessKey string
}

// WebhooksConfig holds webhook delivery behavior
type WebhooksConfig struct {
	QueueEnabled    bool
	QueueBuffer     int
	DeliveryTimeout time.Duration
}

// RuntimeConfig holds pipeline behavior shared across requests
type RuntimeConfig struct {
	ProviderTimeout time.Duration
}

// New creates a new Config instance by loading environment variables
func New() (*Config, error) {
	_ = godotenv.Load(".env")

	cfg := &Config{
		Environment: getEnv("ENVIRONMENT", "development"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		LogFormat:   getEnv("LOG_FORMAT", "json"),
		Server: ServerConfig{
			Host:            getEnv("SERVER_HOST", "0.0.0.0"),
			Port:            getEnvAsInt("SERVER_PORT", 8080),
			ReadTimeout:     getEnvAsDuration("SERVER_READ_TIMEOUT", 30*time.Second),
			WriteTimeout:    getEnvAsDuration("SERVER_WRITE_TIMEOUT", 30*time.Second),
			ShutdownTimeout: getEnvAsDuration("SERVER_SHUTDOWN_TIMEOUT", 10*time.Second),
		},
		Database: loadDatabaseConfig(),
		Auth: AuthConfig{
			JWTSecret: getEnv("JWT_SECRET", ""),
			Issuer:    getEnv("JWT_ISSUER", "provider-manager"),
			TokenTTL:  getEnvAsDuration("JWT_TOKEN_TTL", 12*time.Hour),
		},
		Encryption: EncryptionConfig{
			Key: getEnv("ENCRYPTION_KEY", ""),
		},
		KillSwitch: KillSwitchConfig{
			CacheTTL:      getEnvAsDuration("KILL_SWITCH_CACHE_TTL", 30*time.Second),
			GlobalDefault: getEnvAsBool("KILL_SWITCH_DEFAULT", false),
		},
		Redis: RedisConfig{
			Enabled:  getEnvAsBool("CACHE_REDIS_ENABLED", true),
			Host:     getEnv("CACHE_REDIS_HOST", ""),
			Port:     getEnvAsInt("CACHE_REDIS_PORT", 6379),
			Password: getEnv("CACHE_REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("CACHE_REDIS_DB", 1),
		},
		Queue: QueueConfig{
			URL:             getEnv("SQS_QUEUE_URL", ""),
			Region:          getEnv("SQS_REGION", "us-east-1"),
			AccessKeyID:     getEnv("SQS_ACCESS_KEY_ID", ""),
			SecretAccessKey: getEnv("SQS_SECRET_ACCESS_KEY", ""),
		},
		Webhooks: WebhooksConfig{
			QueueEnabled:    getEnvAsBool("WEBHOOKS_QUEUE_ENABLED", true),
			QueueBuffer:     getEnvAsInt("WEBHOOKS_QUEUE_BUFFER", 256),
			DeliveryTimeout: getEnvAsDuration("WEBHOOKS_DELIVERY_TIMEOUT", 10*time.Second),
		},
		Runtime: RuntimeConfig{
			ProviderTimeout: getEnvAsDuration("PROVIDER_TIMEOUT", 60*time.Second),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks if all required configuration fields are set
func (c *Config) Validate() error {
	if c.Database.ConnectionString == "" && c.Database.Host == "" {
		return fmt.Errorf("database configuration required: set DATABASE_URL or DB_HOST")
	}
	if c.Database.ConnectionString == "" {
		if c.Database.User == "" {
			return fmt.Errorf("database user is required")
		}
		if c.Database.Database == "" {
			return fmt.Errorf("database name is required")
		}
	}

	if len(c.Encryption.Key) < 32 {
		return fmt.Errorf("ENCRYPTION_KEY must be at least 32 characters")
	}

	if c.IsProduction() && c.Auth.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required in production")
	}

	if c.LogLevel == "" {
		return fmt.Errorf("log level is required")
	}

	return nil
}

// IsProduction returns true if running in production environment
func (c *Config) IsProduction() bool {
	return c.Environment == "production" || c.Environment == "prod"
}

// IsDevelopment returns true if running in development environment
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development" || c.Environment == "dev"
}

// DSN returns the PostgreSQL connection string.
// Uses ConnectionString (from DATABASE_URL) when set; otherwise builds from individual fields.
func (c *DatabaseConfig) DSN() string {
	if c.ConnectionString != "" {
		return c.ConnectionString
	}
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

// LogString returns a safe string for logging (no password). Parses ConnectionString when set.
func (c *DatabaseConfig) LogString() string {
	if c.ConnectionString != "" {
		u, err := url.Parse(c.ConnectionString)
		if err == nil {
			host := u.Hostname()
			port := u.Port()
			if port == "" {
				port = "5432"
			}
			db := strings.TrimPrefix(u.Path, "/")
			return fmt.Sprintf("host=%s port=%s database=%s", host, port, db)
		}
		return "host=<from DATABASE_URL>"
	}
	return fmt.Sprintf("host=%s port=%d database=%s", c.Host, c.Port, c.Database)
}

func loadDatabaseConfig() DatabaseConfig {
	dbURL := getEnv("DATABASE_URL", "")
	if dbURL != "" {
		return DatabaseConfig{
			ConnectionString: dbURL,
			MaxOpenConns:     getEnvAsInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:     getEnvAsInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime:  getEnvAsDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute),
		}
	}
	return DatabaseConfig{
		Host:            getEnv("DB_HOST", "localhost"),
		Port:            getEnvAsInt("DB_PORT", 5432),
		User:            getEnv("DB_USER", "gateway"),
		Password:        getEnv("DB_PASSWORD", ""),
		Database:        getEnv("DB_NAME", "gateway"),
		SSLMode:         getEnv("DB_SSLMODE", "disable"),
		MaxOpenConns:    getEnvAsInt("DB_MAX_OPEN_CONNS", 25),
		MaxIdleConns:    getEnvAsInt("DB_MAX_IDLE_CONNS", 5),
		ConnMaxLifetime: getEnvAsDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute),
	}
}

// Address returns the HTTP server address
func (c *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Helper functions

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
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

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
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
