// Package schedule holds the pure calendar logic: half-open interval
// overlap, conflict detection against one-off and weekly-recurring
// entries, and virtual expansion of recurring entries.
package schedule

import (
	"time"

	"github.com/ZivGohasi57/Private-Tutor-CRM/internal/models"
)

// Interval is a half-open time range [Start, End).
type Interval struct {
	Start time.Time
	End   time.Time
}

// Valid reports whether the interval has positive length.
func (iv Interval) Valid() bool {
	return iv.End.After(iv.Start)
}

// Overlaps reports whether two half-open intervals intersect.
func Overlaps(a, b Interval) bool {
	return a.Start.Before(b.End) && b.Start.Before(a.End)
}

// Pattern is a weekly-recurring candidate: a day of week, a minute
// range within that day, the first date it applies and an optional
// cutoff (inclusive last date).
type Pattern struct {
	DayOfWeek int // 0 = Sunday
	StartMin  int
	EndMin    int
	First     time.Time
	Cutoff    *time.Time
}

// minutesOfDay returns the minute offset of t within its day. An end
// timestamp landing exactly on midnight counts as minute 1440 so that
// ranges like 23:00-24:00 stay non-empty.
func minutesOfDay(t time.Time, isEnd bool) int {
	m := t.Hour()*60 + t.Minute()
	if isEnd && m == 0 {
		return 24 * 60
	}
	return m
}

func minutesOverlap(aStart, aEnd, bStart, bEnd int) bool {
	return aStart < bEnd && bStart < aEnd
}

func endOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, 0, t.Location())
}

// FindConflict returns the first existing entry that overlaps the
// candidate interval, or nil. excludeID skips the entry being edited.
//
// One-off entries are compared by absolute timestamps. Recurring
// entries match when the candidate falls on their weekday and inside
// their time-of-day range, unless the candidate starts after the
// recurring entry's cutoff date.
func FindConflict(entries []models.ScheduleEntry, cand Interval, excludeID uint) *models.ScheduleEntry {
	candStart := minutesOfDay(cand.Start, false)
	candEnd := minutesOfDay(cand.End, true)
	candDay := int(cand.Start.Weekday())

	for i := range entries {
		e := &entries[i]
		if excludeID != 0 && e.ID == excludeID {
			continue
		}

		if !e.Recurring {
			if Overlaps(cand, Interval{Start: e.StartAt, End: e.EndAt}) {
				return e
			}
			continue
		}

		if e.RecurringEnd != nil && cand.Start.After(endOfDay(*e.RecurringEnd)) {
			continue
		}
		if e.DayOfWeek != candDay {
			continue
		}
		if minutesOverlap(candStart, candEnd, minutesOfDay(e.StartAt, false), minutesOfDay(e.EndAt, true)) {
			return e
		}
	}
	return nil
}

// FindRecurringConflict checks a weekly pattern candidate against the
// existing entries. A one-off entry conflicts when it falls on the
// pattern's weekday inside its active date range and its time of day
// overlaps. Another recurring entry conflicts when the weekdays match,
// the minute ranges overlap and the active date ranges intersect.
func FindRecurringConflict(entries []models.ScheduleEntry, pat Pattern, excludeID uint) *models.ScheduleEntry {
	firstDay := startOfDay(pat.First)

	for i := range entries {
		e := &entries[i]
		if excludeID != 0 && e.ID == excludeID {
			continue
		}

		if !e.Recurring {
			if int(e.StartAt.Weekday()) != pat.DayOfWeek {
				continue
			}
			if e.StartAt.Before(firstDay) {
				continue
			}
			if pat.Cutoff != nil && e.StartAt.After(endOfDay(*pat.Cutoff)) {
				continue
			}
			if minutesOverlap(pat.StartMin, pat.EndMin, minutesOfDay(e.StartAt, false), minutesOfDay(e.EndAt, true)) {
				return e
			}
			continue
		}

		if e.DayOfWeek != pat.DayOfWeek {
			continue
		}
		if !minutesOverlap(pat.StartMin, pat.EndMin, minutesOfDay(e.StartAt, false), minutesOfDay(e.EndAt, true)) {
			continue
		}
		// date ranges: each side must start before the other's cutoff
		if e.RecurringEnd != nil && firstDay.After(endOfDay(*e.RecurringEnd)) {
			continue
		}
		if pat.Cutoff != nil && startOfDay(e.StartAt).After(endOfDay(*pat.Cutoff)) {
			continue
		}
		return e
	}
	return nil
}

// PatternOf derives the weekly pattern a recurring entry describes.
func PatternOf(e *models.ScheduleEntry) Pattern {
	return Pattern{
		DayOfWeek: e.DayOfWeek,
		StartMin:  minutesOfDay(e.StartAt, false),
		EndMin:    minutesOfDay(e.EndAt, true),
		First:     startOfDay(e.StartAt),
		Cutoff:    e.RecurringEnd,
	}
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
