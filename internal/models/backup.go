package models

import "time"

// Backup is a JSON snapshot file of one owner's business data.
type Backup struct {
	ID        uint   `gorm:"primaryKey"`
	UserID    uint   `gorm:"index;not null"`
	FileName  string `gorm:"size:128;not null"`
	FilePath  string `gorm:"size:255;not null"`
	Size      int64
	CreatedAt time.Time
}
