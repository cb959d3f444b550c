package db

import (
	"fmt"                      // Error formatting
	"minibank/internal/config" // Application configuration
	"minibank/internal/domain" // Importing domain models
	"time"                     // Slow query threshold

	"github.com/sirupsen/logrus" // Logging library
	"gorm.io/driver/mysql"       // MySQL driver for GORM
	"gorm.io/driver/sqlite"      // SQLite driver for GORM
	"gorm.io/gorm"               // GORM ORM library
	"gorm.io/gorm/logger"        // GORM query logger
)

// Open connects to the database selected by cfg.DBDriver
func Open(cfg *config.Config) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.DBDriver {
	case config.DriverMySQL:
		dialector = mysql.Open(cfg.DSN())
	case config.DriverSQLite:
		dialector = sqlite.Open(cfg.DBPath)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.DBDriver)
	}
	level := logger.Warn // Quiet unless something looks wrong
	if cfg.IsProd {
		level = logger.Error
	}
	queryLog := logger.New(logrus.StandardLogger(), logger.Config{
		SlowThreshold:             200 * time.Millisecond,
		LogLevel:                  level,
		IgnoreRecordNotFoundError: true, // Lookups by username expect misses
	})
	db, err := gorm.Open(dialector, &gorm.Config{
		TranslateError: true, // Surface unique violations as gorm.ErrDuplicatedKey
		Logger:         queryLog,
	})
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", cfg.DBDriver, err)
	}
	return db, nil
}

// Migrate creates the users table and its unique index if they are missing
func Migrate(db *gorm.DB) error {
	// AutoMigrate only adds what is absent, so it is safe on every start
	if err := db.AutoMigrate(&domain.User{}); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	logrus.Info("Migration completed.") // Log successful migration
	return nil
}
