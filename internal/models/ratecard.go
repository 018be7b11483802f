package models

import "time"

// RateCard holds an owner's pricing overrides, one row per owner.
// All rates are in agorot. A missing row means the built-in defaults.
// The columns mirror the formula shape in internal/pricing.
type RateCard struct {
	ID     uint `gorm:"primaryKey"`
	UserID uint `gorm:"uniqueIndex;not null"`

	ElementaryHourly int64 `gorm:"not null"`

	MiddleSolo  int64 `gorm:"not null"`
	MiddlePair  int64 `gorm:"not null"`
	MiddleGroup int64 `gorm:"not null"`

	HighSolo  int64 `gorm:"not null"`
	HighPair  int64 `gorm:"not null"`
	HighGroup int64 `gorm:"not null"`

	AcademicFirstHour int64 `gorm:"not null"`
	AcademicExtraHour int64 `gorm:"not null"`
	AcademicPair      int64 `gorm:"not null"`
	AcademicGroup     int64 `gorm:"not null"`

	CreatedAt time.Time
	UpdatedAt time.Time
}
