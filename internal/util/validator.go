package util

import (
	"fmt"
	"time"
)

// ValidateAmount checks an agorot amount (positive, below a sanity cap).
func ValidateAmount(agorot int64) error {
	if agorot <= 0 {
		return fmt.Errorf("amount must be positive, got %d", agorot)
	}
	if agorot >= 100_000_000 { // a million shekels is not a tutoring payment
		return fmt.Errorf("amount too large, got %d", agorot)
	}
	return nil
}

// ValidateDate checks a YYYY-MM-DD string.
func ValidateDate(dateStr string) error {
	if dateStr == "" {
		return fmt.Errorf("date is empty")
	}
	_, err := time.Parse("2006-01-02", dateStr)
	if err != nil {
		return fmt.Errorf("invalid date format: %w", err)
	}
	return nil
}

// ValidateName checks a person or course name.
func ValidateName(name string) error {
	if name == "" {
		return fmt.Errorf("name is empty")
	}
	if len(name) > 64 {
		return fmt.Errorf("name too long, max 64 characters")
	}
	return nil
}
