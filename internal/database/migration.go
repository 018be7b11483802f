package database

import (
	"fmt"

	"github.com/ZivGohasi57/Private-Tutor-CRM/internal/models"

	"gorm.io/gorm"
)

// AutoMigrate runs database schema migrations for all models.
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&models.User{},
		&models.Student{},
		&models.ScheduleEntry{},
		&models.Payment{},
		&models.Grading{},
		&models.Course{},
		&models.RateCard{},
		&models.AuditLog{},
		&models.Backup{},
	); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}
