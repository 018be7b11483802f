package report

import (
	"time"

	"github.com/ZivGohasi57/Private-Tutor-CRM/internal/models"
)

// Billing months run from the 10th of a calendar month at 00:00 up to
// (but excluding) the 10th of the next month, matching the tutor's
// payday cycle rather than calendar months.
const billingDay = 10

// Window is a half-open time range [From, To).
type Window struct {
	From time.Time
	To   time.Time
}

func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.From) && t.Before(w.To)
}

// MonthWindow returns the billing window that starts on the 10th of
// the given year/month.
func MonthWindow(year int, month time.Month, loc *time.Location) Window {
	from := time.Date(year, month, billingDay, 0, 0, 0, 0, loc)
	return Window{From: from, To: from.AddDate(0, 1, 0)}
}

// CurrentWindow returns the billing window containing now. Before the
// 10th that is the window that started on the previous month's 10th.
func CurrentWindow(now time.Time) Window {
	year, month := now.Year(), now.Month()
	if now.Day() < billingDay {
		month--
		if month < time.January {
			month = time.December
			year--
		}
	}
	return MonthWindow(year, month, now.Location())
}

// Summary is one billing month's totals, all amounts in agorot.
type Summary struct {
	Window        Window
	LessonCount   int
	LessonHours   float64
	LessonIncome  int64
	Payments      int64
	GradingIncome int64
}

// Received is the money that actually arrived in the window:
// payments plus grading income. Lesson prices are bookings, not cash.
func (s Summary) Received() int64 {
	return s.Payments + s.GradingIncome
}

// Monthly sums a billing window from an owner's entries, payments and
// gradings. Blocks never count; lessons count by their start time
// regardless of whether the sweeper has charged them yet.
func Monthly(entries []models.ScheduleEntry, payments []models.Payment, gradings []models.Grading, w Window) Summary {
	s := Summary{Window: w}
	for _, e := range entries {
		if !e.IsLesson() || e.Recurring {
			continue
		}
		if !w.Contains(e.StartAt) {
			continue
		}
		s.LessonCount++
		s.LessonHours += e.Hours
		s.LessonIncome += e.Price
	}
	for _, p := range payments {
		if w.Contains(p.PaidAt) {
			s.Payments += p.Amount
		}
	}
	for _, g := range gradings {
		if w.Contains(g.Date) {
			s.GradingIncome += g.Total
		}
	}
	return s
}

// FutureIncome sums the prices of lessons that have not started yet:
// money already booked but not yet owed.
func FutureIncome(entries []models.ScheduleEntry, now time.Time) int64 {
	var total int64
	for _, e := range entries {
		if !e.IsLesson() || e.Recurring {
			continue
		}
		if e.StartAt.After(now) {
			total += e.Price
		}
	}
	return total
}
