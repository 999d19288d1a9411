package configs

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const defaultJWTSecret = "secret"

type Config struct {
	AppPort int

	DBDriver   string
	DBHost     string
	DBPort     int
	DBUser     string
	DBPassword string
	DBName     string
	DBNameTest string
	DBSSLMode  string
	SQLitePath string
	DBLogLevel string

	RedisHost     string
	RedisPort     int
	RedisPassword string
	CacheTTL      time.Duration

	JWTSecret  string
	JWTExpiry  time.Duration
	JWTIssuer  string
	BcryptCost int

	CORSOrigins     string
	RateLimitMax    int
	RateLimitWindow time.Duration

	LogDir string

	AdminEmail    string
	AdminPassword string
	AdminName     string
}

// UsesDefaultSecret is true when JWT_SECRET was not provided.
func (c Config) UsesDefaultSecret() bool {
	return c.JWTSecret == defaultJWTSecret
}

func LoadConfig() Config {
	// Muat file .env
	if err := godotenv.Load(); err != nil {
		// Hanya log jika tidak dalam mode test
		if os.Getenv("GO_ENV") != "test" {
			log.Println("No .env file found, using default values")
		}
	}

	return Config{
		AppPort: getInt("APP_PORT", 3001),

		DBDriver:   strings.ToLower(getString("DB_DRIVER", "postgres")),
		DBHost:     getString("DB_HOST", "localhost"),
		DBPort:     getInt("DB_PORT", 5432),
		DBUser:     getString("DB_USER", "postgres"),
		DBPassword: os.Getenv("DB_PASSWORD"),
		DBName:     getString("DB_NAME", "task_management"),
		DBNameTest: getString("DB_NAME_TEST", "task_management_test"),
		DBSSLMode:  getString("DB_SSLMODE", "disable"),
		SQLitePath: getString("SQLITE_PATH", "task_management.db"),
		DBLogLevel: getString("DB_LOG_LEVEL", "warn"),

		RedisHost:     os.Getenv("REDIS_HOST"),
		RedisPort:     getInt("REDIS_PORT", 6379),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		CacheTTL:      getDuration("CACHE_TTL", time.Hour),

		JWTSecret:  getString("JWT_SECRET", defaultJWTSecret),
		JWTExpiry:  getDuration("JWT_EXPIRY", 7*24*time.Hour),
		JWTIssuer:  getString("JWT_ISSUER", "task-manager"),
		BcryptCost: getInt("BCRYPT_COST", 10),

		CORSOrigins:     getString("CORS_ORIGINS", "*"),
		RateLimitMax:    getInt("RATE_LIMIT_MAX", 100),
		RateLimitWindow: getDuration("RATE_LIMIT_WINDOW", time.Minute),

		LogDir: os.Getenv("LOG_DIR"),

		AdminEmail:    os.Getenv("ADMIN_EMAIL"),
		AdminPassword: os.Getenv("ADMIN_PASSWORD"),
		AdminName:     getString("ADMIN_NAME", "Administrator"),
	}
}

func getString(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) int {
	v, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return v
}

func getDuration(key string, fallback time.Duration) time.Duration {
	v, err := time.ParseDuration(os.Getenv(key))
	if err != nil || v <= 0 {
		return fallback
	}
	return v
}
