package main

import (
	"context"                      // context package is needed for Redis operations
	"minibank/internal/api"        // Custom package for HTTP handlers
	"minibank/internal/config"     // Custom package for configuration
	"minibank/internal/db"         // Custom package for database setup
	"minibank/internal/flash"      // Custom package for flash messages
	"minibank/internal/middleware" // Custom package for middleware
	"minibank/internal/repository" // Custom package for user storage
	"minibank/internal/service"    // Custom package for banking operations

	"github.com/gin-gonic/gin"     // Gin web framework
	"github.com/redis/go-redis/v9" // Redis client
	"github.com/sirupsen/logrus"   // Logrus for structured logging
)

// Main function to set up and run the server
func main() {
	cfg := config.LoadConfig() // Load configuration

	// Setup logger: readable locally, JSON in production
	if cfg.IsProd {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
		logrus.SetLevel(logrus.DebugLevel)
	}
	log := logrus.StandardLogger()

	if err := cfg.Validate(); err != nil {
		logrus.Fatalf("invalid configuration: %v", err)
	}
	if cfg.SessionSecret == config.DefaultSessionSecret {
		logrus.Warn("SESSION_SECRET is not set, using the development default")
	}

	// Connect to the database and create the schema if it is missing
	gdb, err := db.Open(cfg)
	if err != nil {
		logrus.Fatalf("failed to connect to DB: %v", err) // Fatal error if DB connection fails
	}
	if err := db.Migrate(gdb); err != nil {
		logrus.Fatalf("migration failed: %v", err)
	}

	// Flash messages live in Redis when it is configured, otherwise in a cookie
	var flashes flash.Store = flash.NewCookieStore(flash.DefaultTTL, cfg.IsProd)
	if cfg.RedisAddr != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr, // Redis server address
			Password: cfg.RedisPass, // Redis password
			DB:       cfg.RedisDB,   // Redis database number
		})
		// Test Redis connection
		if _, err := redisClient.Ping(context.Background()).Result(); err != nil {
			logrus.Fatalf("failed to connect to Redis: %v", err)
		}
		flashes = flash.NewRedisStore(redisClient, flash.DefaultTTL, cfg.IsProd)
	}

	// Set Mode to Release if in production
	if cfg.IsProd {
		gin.SetMode(gin.ReleaseMode)
	}

	repo := repository.NewUserRepository(gdb)
	r, err := api.NewRouter(api.Deps{
		Repo:    repo,
		Bank:    service.NewBank(repo, log),
		Flashes: flashes,
		Session: middleware.SessionConfig{
			Secret: cfg.SessionSecret,
			TTL:    cfg.SessionTTL,
			Secure: cfg.IsProd, // Cookies only over HTTPS in production
		},
		Log: log,
	})
	if err != nil {
		logrus.Fatalf("failed to build router: %v", err)
	}

	// Set trusted proxies for Gin
	if err := r.SetTrustedProxies([]string{"127.0.0.1"}); err != nil {
		logrus.Fatalf("failed to set trusted proxies: %v", err)
	}

	logrus.WithFields(logrus.Fields{
		"port":   cfg.AppPort,
		"driver": cfg.DBDriver,
		"redis":  cfg.RedisAddr != "",
	}).Info("Server running")
	if err := r.Run(":" + cfg.AppPort); err != nil { // Start the server on port cfg.AppPort
		logrus.Fatalf("server stopped: %v", err)
	}
}
