package config

import (
	"os"
	"strings"
)

// Config holds all runtime configuration, loaded from the environment.
type Config struct {
	Port        string
	Environment string

	LogLevel string
	LogFile  string

	// DatabaseURL wins over the discrete DB_* settings when set.
	DatabaseURL string
	DBHost      string
	DBPort      string
	DBUser      string
	DBPassword  string
	DBName      string
	DBSSLMode   string

	RedisHost     string
	RedisPort     string
	RedisPassword string

	JWTSecret string

	// UnmoderatedExcludesReported selects which unmoderated-queue predicate
	// is in force: true is the four-flag AND (reported items are not
	// unmoderated), false the three-flag variant. Both forms exist in the
	// wild; product has not settled which is correct, so it stays a switch.
	UnmoderatedExcludesReported bool

	// OTLPEndpoint enables tracing when non-empty.
	OTLPEndpoint string
}

// Load reads configuration from environment variables with development
// defaults. Call godotenv.Load first if a .env file should be honored.
func Load() *Config {
	return &Config{
		Port:        getEnvOrDefault("PORT", "8585"),
		Environment: getEnvOrDefault("ENVIRONMENT", "development"),

		LogLevel: getEnvOrDefault("LOG_LEVEL", "info"),
		LogFile:  getEnvOrDefault("LOG_FILE", "server.log"),

		DatabaseURL: os.Getenv("DATABASE_URL"),
		DBHost:      getEnvOrDefault("DB_HOST", "localhost"),
		DBPort:      getEnvOrDefault("DB_PORT", "5432"),
		DBUser:      getEnvOrDefault("DB_USER", "postgres"),
		DBPassword:  os.Getenv("DB_PASSWORD"),
		DBName:      getEnvOrDefault("DB_NAME", "subcircle"),
		DBSSLMode:   getEnvOrDefault("DB_SSLMODE", "disable"),

		RedisHost:     getEnvOrDefault("REDIS_HOST", "localhost"),
		RedisPort:     getEnvOrDefault("REDIS_PORT", "6379"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),

		JWTSecret: os.Getenv("JWT_SECRET"),

		UnmoderatedExcludesReported: getEnvBool("MODQUEUE_UNMODERATED_EXCLUDES_REPORTED", true),

		OTLPEndpoint: os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
	}
}

// getEnvOrDefault returns environment variable or default value
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	value := strings.ToLower(os.Getenv(key))
	switch value {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	}
	return defaultValue
}
