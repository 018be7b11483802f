package models

import "time"

// Payment methods accepted by the tutor.
const (
	MethodCash     = "cash"
	MethodTransfer = "transfer"
	MethodBit      = "bit"
	MethodPaybox   = "paybox"
	MethodCheck    = "check"
)

// ValidMethod reports whether m is a known payment method.
func ValidMethod(m string) bool {
	switch m {
	case MethodCash, MethodTransfer, MethodBit, MethodPaybox, MethodCheck:
		return true
	}
	return false
}

// Payment is money received from a student. Amount is in agorot and
// always positive. Payments are never edited, only created or deleted;
// both trigger a balance reconciliation.
type Payment struct {
	ID        uint      `gorm:"primaryKey"`
	UserID    uint      `gorm:"index;not null"`
	StudentID uint      `gorm:"index;not null"`
	Amount    int64     `gorm:"not null"`
	Method    string    `gorm:"size:16;not null"`
	PaidAt    time.Time `gorm:"index;not null"`
	CreatedAt time.Time
}
