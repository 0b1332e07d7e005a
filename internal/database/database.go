package database

import (
	"errors"
	"log"

	"jmsmp/config"
	"jmsmp/internal/domain"
	"jmsmp/internal/models"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func NewDB(cfg *config.DatabaseConfig) (*gorm.DB, error) {
	db, err := gorm.Open(mysql.Open(cfg.DSN), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Error), // Only log errors, not every SQL query
	})
	if err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	return db, nil
}

// AutoMigrate runs Gorm auto-migration for all models.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.Application{},
		&models.Photo{},
		&models.Notification{},
		&models.SystemSetting{},
	)
}

// SeedAdmin creates the main administrator account if it does not exist yet.
// The seeded account is the only one that can ever hold the site owner role
// out of the box.
func SeedAdmin(db *gorm.DB, cfg *config.AdminConfig) error {
	var existing models.User
	err := db.Where("username = ?", cfg.Username).First(&existing).Error
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(cfg.Password), 12)
	if err != nil {
		return err
	}
	admin := models.User{
		Username:          cfg.Username,
		Email:             cfg.Email,
		PasswordHash:      string(hash),
		Role:              domain.RoleSiteOwner,
		ApplicationStatus: domain.StatusAccepted,
	}
	if err := db.Create(&admin).Error; err != nil {
		return err
	}
	log.Printf("[database] seeded main admin %q", cfg.Username)
	return nil
}
