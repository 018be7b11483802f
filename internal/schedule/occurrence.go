package schedule

import (
	"time"

	"github.com/ZivGohasi57/Private-Tutor-CRM/internal/models"
)

// Occurrence is one concrete appearance of a calendar entry.
type Occurrence struct {
	Entry    *models.ScheduleEntry
	Interval Interval
}

// Occurrences expands an entry into its concrete appearances within
// [from, to). One-off entries contribute at most one occurrence;
// recurring entries contribute one per matching weekday up to their
// cutoff date. Occurrences are derived values and never stored.
func Occurrences(e *models.ScheduleEntry, from, to time.Time) []Occurrence {
	if !to.After(from) {
		return nil
	}

	if !e.Recurring {
		iv := Interval{Start: e.StartAt, End: e.EndAt}
		if Overlaps(iv, Interval{Start: from, End: to}) {
			return []Occurrence{{Entry: e, Interval: iv}}
		}
		return nil
	}

	var out []Occurrence
	startMin := minutesOfDay(e.StartAt, false)
	dur := e.EndAt.Sub(e.StartAt)
	if dur <= 0 {
		dur = time.Hour
	}

	day := startOfDay(from)
	first := startOfDay(e.StartAt)
	for ; day.Before(to); day = day.AddDate(0, 0, 1) {
		if int(day.Weekday()) != e.DayOfWeek {
			continue
		}
		if day.Before(first) {
			continue
		}
		if e.RecurringEnd != nil && day.After(endOfDay(*e.RecurringEnd)) {
			break
		}
		occStart := day.Add(time.Duration(startMin) * time.Minute)
		iv := Interval{Start: occStart, End: occStart.Add(dur)}
		if Overlaps(iv, Interval{Start: from, End: to}) {
			out = append(out, Occurrence{Entry: e, Interval: iv})
		}
	}
	return out
}

// ExpandAll expands a full entry list for a calendar view window.
func ExpandAll(entries []models.ScheduleEntry, from, to time.Time) []Occurrence {
	var out []Occurrence
	for i := range entries {
		out = append(out, Occurrences(&entries[i], from, to)...)
	}
	return out
}

// WeeklyDates enumerates the weekly series dates for a materialized
// block series: the first date, then every 7 days up to and including
// the cutoff date.
func WeeklyDates(first, cutoff time.Time) []time.Time {
	var out []time.Time
	last := endOfDay(cutoff)
	for d := first; !d.After(last); d = d.AddDate(0, 0, 7) {
		out = append(out, d)
	}
	return out
}
