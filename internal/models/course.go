package models

import "time"

// Course is a lookup convenience for grading entries: a course name and
// its default price per checked unit. Name is unique per owner.
type Course struct {
	ID        uint   `gorm:"primaryKey"`
	UserID    uint   `gorm:"uniqueIndex:idx_course_owner_name;not null"`
	Name      string `gorm:"size:64;uniqueIndex:idx_course_owner_name;not null"`
	UnitPrice int64  `gorm:"not null"` // agorot
	CreatedAt time.Time
	UpdatedAt time.Time
}
