package models

import "time"

// Level is a student's study tier. It decides which pricing row applies.
type Level string

const (
	LevelElementary Level = "elementary"
	LevelMiddle     Level = "middle"
	LevelHigh       Level = "high"
	LevelAcademic   Level = "academic"
)

// ValidLevel reports whether s is one of the known levels.
func ValidLevel(s string) bool {
	switch Level(s) {
	case LevelElementary, LevelMiddle, LevelHigh, LevelAcademic:
		return true
	}
	return false
}

// Student represents one tutored student.
// Balance is in agorot; negative means the student owes money.
// Balance is maintained by the ledger reconciler only.
type Student struct {
	ID        uint   `gorm:"primaryKey"`
	UserID    uint   `gorm:"index;not null"`
	Name      string `gorm:"size:64;not null"`
	Level     Level  `gorm:"size:16;not null"`
	Balance   int64  `gorm:"not null;default:0"`
	CreatedAt time.Time
	UpdatedAt time.Time
}
