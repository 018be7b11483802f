package models

import "time"

// Kind of a calendar entry. Lessons are billable; blocks only occupy time.
const (
	KindFrontal = "frontal"
	KindOnline  = "online"
	KindBlock   = "block"
)

// ScheduleEntry is one calendar entry: a lesson tied to a student, or a
// block of unavailable time. A recurring entry stores a weekly pattern
// (day of week + the time range of StartAt/EndAt); concrete occurrences
// are derived per query, never materialized as rows.
type ScheduleEntry struct {
	ID          uint   `gorm:"primaryKey"`
	UserID      uint   `gorm:"index;not null"`
	Kind        string `gorm:"size:16;index;not null"`
	Title       string `gorm:"size:128"`
	StudentID   uint   `gorm:"index"`
	StudentName string `gorm:"size:64"`

	StartAt time.Time `gorm:"index;not null"`
	EndAt   time.Time `gorm:"not null"`
	Hours   float64   `gorm:"not null"`
	Price   int64     `gorm:"not null;default:0"` // agorot to debit when the lesson starts

	Location     string `gorm:"size:128"`
	NeedsLibrary bool
	Charged      bool `gorm:"index;not null;default:false"`

	HasReminder  bool
	Reminders    []int `gorm:"serializer:json"` // minutes before start
	ReminderSent bool  `gorm:"not null;default:false"`

	// SlotID groups lessons created together in one time slot.
	SlotID string `gorm:"size:36;index"`

	Recurring    bool `gorm:"index;not null;default:false"`
	DayOfWeek    int  // 0 = Sunday, matters only when Recurring
	RecurringEnd *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsLesson reports whether the entry debits a student when it starts.
func (e *ScheduleEntry) IsLesson() bool {
	return e.Kind != KindBlock
}
