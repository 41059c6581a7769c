package infra

import (
	"fmt"

	"inventorypro/internal/model"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDatabase opens the PostgreSQL connection that backs shift history and
// migrates its schema.
func NewDatabase(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(10)
	sqlDB.SetMaxIdleConns(2)

	if err := RunMigrations(db); err != nil {
		return nil, err
	}
	return db, nil
}

// RunMigrations creates or updates the shift_closes table and its index.
// History is append-only, so the table never needs destructive changes.
func RunMigrations(db *gorm.DB) error {
	if err := db.AutoMigrate(&model.ShiftClose{}); err != nil {
		return fmt.Errorf("AutoMigrate: %w", err)
	}
	if err := db.Exec(`CREATE INDEX IF NOT EXISTS idx_shift_closes_end_time ON shift_closes (end_time DESC)`).Error; err != nil {
		return fmt.Errorf("index shift_closes.end_time: %w", err)
	}
	return nil
}
