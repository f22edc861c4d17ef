package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	// Server
	ServerPort string

	// Database
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	// Redis
	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int

	// Session
	JWTSecret         string
	SessionCookieName string
	SessionSecure     bool

	// AWS S3
	AWSRegion          string
	AWSAccessKeyID     string
	AWSSecretAccessKey string
	AWSEndpoint        string
	S3BucketName       string
	S3UseSSL           string

	// RabbitMQ
	RabbitMQHost     string
	RabbitMQPort     string
	RabbitMQUser     string
	RabbitMQPassword string

	// Logging
	LogLevel  string
	LogFormat string

	// API client
	APIBaseURL string

	// Limits
	RateLimitPerMinute int
	DefaultPageSize    int
	MaxPageSize        int
}

const defaultJWTSecret = "your-secret-key-change-in-production"

func Load() (*Config, error) {
	// .env is optional
	_ = godotenv.Load()

	config := &Config{
		ServerPort: getEnv("SERVER_PORT", "8080"),

		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "postgres"),
		DBPassword: getEnv("DB_PASSWORD", "postgres"),
		DBName:     getEnv("DB_NAME", "fanclub"),
		DBSSLMode:  getEnv("DB_SSLMODE", "disable"),

		RedisHost:     getEnv("REDIS_HOST", "localhost"),
		RedisPort:     getEnv("REDIS_PORT", "6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),

		JWTSecret:         getEnv("JWT_SECRET", defaultJWTSecret),
		SessionCookieName: getEnv("SESSION_COOKIE_NAME", "session"),
		SessionSecure:     getEnv("SESSION_SECURE", "false") == "true",

		AWSRegion:          getEnv("AWS_REGION", "us-east-1"),
		AWSAccessKeyID:     getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretAccessKey: getEnv("AWS_SECRET_ACCESS_KEY", ""),
		AWSEndpoint:        getEnv("AWS_ENDPOINT", ""),
		S3BucketName:       getEnv("S3_BUCKET_NAME", "fanclub-content"),
		S3UseSSL:           getEnv("S3_USE_SSL", "true"),

		RabbitMQHost:     getEnv("RABBITMQ_HOST", "localhost"),
		RabbitMQPort:     getEnv("RABBITMQ_PORT", "5672"),
		RabbitMQUser:     getEnv("RABBITMQ_USER", "guest"),
		RabbitMQPassword: getEnv("RABBITMQ_PASSWORD", "guest"),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "console"),

		APIBaseURL: getEnv("API_BASE_URL", "http://localhost:8080/api/v1"),

		RateLimitPerMinute: getEnvInt("RATE_LIMIT_PER_MINUTE", 100),
		DefaultPageSize:    getEnvInt("DEFAULT_PAGE_SIZE", 20),
		MaxPageSize:        getEnvInt("MAX_PAGE_SIZE", 100),
	}

	return config, nil
}

// HasCustomJWTSecret reports whether JWT_SECRET was changed from the placeholder.
// Services that sign or verify sessions refuse to start without one.
func (c *Config) HasCustomJWTSecret() bool {
	return c.JWTSecret != "" && c.JWTSecret != defaultJWTSecret
}

// ClampPageSize maps a requested limit onto [1, MaxPageSize], using DefaultPageSize for zero or negative values.
func (c *Config) ClampPageSize(limit int) int {
	if limit <= 0 {
		return c.DefaultPageSize
	}
	if limit > c.MaxPageSize {
		return c.MaxPageSize
	}
	return limit
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return parsed
}
