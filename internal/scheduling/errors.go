package scheduling

import (
	"errors"
	"fmt"

	"github.com/ZivGohasi57/Private-Tutor-CRM/internal/models"
)

var (
	ErrInvalidInterval = errors.New("end must be after start")
	ErrNoStudents      = errors.New("at least one student is required")
	ErrBadKind         = errors.New("unknown entry kind")
	ErrCutoffRequired  = errors.New("a weekly series needs an end date")
	ErrNotFound        = errors.New("entry not found")
)

// ConflictError reports the first existing entry that overlaps a
// requested time slot. Nothing is written when it is returned.
type ConflictError struct {
	With *models.ScheduleEntry
}

func (e *ConflictError) Error() string {
	when := e.With.StartAt.Format("2006-01-02 15:04")
	if e.With.Recurring {
		when = fmt.Sprintf("every %s %s", e.With.StartAt.Weekday(), e.With.StartAt.Format("15:04"))
	}
	name := e.With.StudentName
	if name == "" {
		name = e.With.Title
	}
	if name == "" {
		name = "another entry"
	}
	return fmt.Sprintf("time slot overlaps %s (%s)", name, when)
}

// IsConflict reports whether err wraps a ConflictError.
func IsConflict(err error) bool {
	var ce *ConflictError
	return errors.As(err, &ce)
}
