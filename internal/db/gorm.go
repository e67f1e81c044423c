package db

import (
	"fmt"

	"storefront/internal/config"
	"storefront/internal/models"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// GormDB wraps the GORM database instance
type GormDB struct {
	*gorm.DB
}

// NewGorm opens the Postgres connection. Schema changes happen in Migrate.
func NewGorm(cfg *config.Config, log *zap.Logger) (*GormDB, error) {
	level := logger.Warn
	if cfg.IsDevelopment() {
		level = logger.Info
	}

	db, err := gorm.Open(postgres.Open(cfg.DatabaseURL()), &gorm.Config{
		Logger: logger.Default.LogMode(level),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	log.Info("✓ database connected", zap.String("host", cfg.DBHost), zap.String("name", cfg.DBName))
	return &GormDB{db}, nil
}

// Migrate creates or updates every table the store uses.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&models.User{},
		&models.Product{},
		&models.Order{},
		&models.OrderItem{},
		&models.CartItem{},
		&models.AnalyticsEvent{},
	); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}

// Close closes the database connection
func (db *GormDB) Close() error {
	sqlDB, err := db.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
