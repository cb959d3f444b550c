package config

import (
	"errors"  // Validation errors
	"fmt"     // Error formatting
	"os"      // For environment variables
	"strconv" // For string to int conversion
	"time"    // Session lifetime

	"github.com/joho/godotenv" // For loading .env files
)

// Supported database drivers
const (
	DriverSQLite = "sqlite"
	DriverMySQL  = "mysql"
)

// DefaultSessionSecret is only acceptable outside production
const DefaultSessionSecret = "dev-session-secret"

// Config holds the application configuration
type Config struct {
	AppPort       string        // Application port
	DBDriver      string        // Database driver: sqlite or mysql
	DBPath        string        // SQLite database file
	DBUser        string        // Database user
	DBPassword    string        // Database password
	DBHost        string        // Database host
	DBPort        string        // Database port
	DBName        string        // Database name
	SessionSecret string        // Session signing key
	SessionTTL    time.Duration // Session cookie lifetime
	RedisAddr     string        // Redis server address, empty keeps flashes in cookies
	RedisPass     string        // Redis password
	RedisDB       int           // Redis database number
	IsProd        bool          // Is production environment
}

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	_ = godotenv.Load() // Load .env file if present
	redisDB, _ := strconv.Atoi(os.Getenv("REDIS_DB"))
	ttl, err := time.ParseDuration(getenv("SESSION_TTL", "24h"))
	if err != nil || ttl <= 0 {
		ttl = 24 * time.Hour // Fall back to one day
	}
	return &Config{
		AppPort:       getenv("APP_PORT", "8080"),                     // Application port
		DBDriver:      getenv("DB_DRIVER", DriverSQLite),              // Database driver
		DBPath:        getenv("DB_PATH", "banking.db"),                // SQLite file
		DBUser:        os.Getenv("DB_USER"),                           // Database user
		DBPassword:    os.Getenv("DB_PASSWORD"),                       // Database password
		DBHost:        getenv("DB_HOST", "127.0.0.1"),                 // Database host
		DBPort:        getenv("DB_PORT", "3306"),                      // Database port
		DBName:        getenv("DB_NAME", "banking"),                   // Database name
		SessionSecret: getenv("SESSION_SECRET", DefaultSessionSecret), // Session signing key
		SessionTTL:    ttl,                                            // Session lifetime
		RedisAddr:     os.Getenv("REDIS_ADDR"),                        // Redis server address
		RedisPass:     os.Getenv("REDIS_PASS"),                        // Redis password
		RedisDB:       redisDB,                                        // Redis database number
		IsProd:        os.Getenv("IS_PROD") == "true",                 // Is production environment
	}
}

// Validate rejects configurations the server cannot run with
func (c *Config) Validate() error {
	if c.DBDriver != DriverSQLite && c.DBDriver != DriverMySQL {
		return fmt.Errorf("unsupported DB_DRIVER %q", c.DBDriver)
	}
	if c.SessionSecret == "" {
		return errors.New("SESSION_SECRET must not be empty")
	}
	if c.IsProd && c.SessionSecret == DefaultSessionSecret {
		return errors.New("SESSION_SECRET must be set in production")
	}
	return nil
}

// DSN builds the MySQL Data Source Name
func (c *Config) DSN() string {
	return c.DBUser + ":" + c.DBPassword + "@tcp(" + c.DBHost + ":" + c.DBPort + ")/" + c.DBName + "?parseTime=true"
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
