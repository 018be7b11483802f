package models

import "time"

// Grading is income from checking course assignments, independent of
// student balances. Total is computed server side as Units * UnitPrice.
type Grading struct {
	ID        uint      `gorm:"primaryKey"`
	UserID    uint      `gorm:"index;not null"`
	Course    string    `gorm:"size:64;not null"`
	Task      string    `gorm:"size:128"`
	Units     int       `gorm:"not null"`
	UnitPrice int64     `gorm:"not null"` // agorot per unit
	Total     int64     `gorm:"not null"`
	Date      time.Time `gorm:"index;not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}
