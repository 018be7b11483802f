package billing

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/ZivGohasi57/Private-Tutor-CRM/internal/metrics"
	"github.com/ZivGohasi57/Private-Tutor-CRM/internal/models"
)

// ReminderStore is the persistence surface the reminder job needs.
type ReminderStore interface {
	// PendingReminders returns upcoming entries that asked for a
	// reminder and have not had one sent yet.
	PendingReminders(ctx context.Context, now time.Time) ([]models.ScheduleEntry, error)
	MarkReminderSent(ctx context.Context, id uint) error
}

// Reminders sends a notification shortly before an entry starts. Each
// entry carries its own lead times in minutes; the reminder fires once
// the earliest of them is reached and is never repeated.
type Reminders struct {
	store    ReminderStore
	notifier Notifier
	interval time.Duration
	now      func() time.Time
}

func NewReminders(store ReminderStore, notifier Notifier, interval time.Duration) *Reminders {
	if interval <= 0 {
		interval = time.Minute
	}
	return &Reminders{store: store, notifier: notifier, interval: interval, now: time.Now}
}

// Run blocks until ctx is done.
func (r *Reminders) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := r.SendDue(ctx); err != nil {
				log.Printf("reminders: %v", err)
			}
		}
	}
}

// SendDue performs one pass and returns how many reminders it sent.
func (r *Reminders) SendDue(ctx context.Context) (int, error) {
	pending, err := r.store.PendingReminders(ctx, r.now())
	if err != nil {
		return 0, fmt.Errorf("find pending reminders: %w", err)
	}

	now := r.now()
	sent := 0
	for _, e := range pending {
		if !reminderDue(&e, now) {
			continue
		}
		// marked before notifying; a failed mark skips the send so the
		// reminder never repeats every tick
		if err := r.store.MarkReminderSent(ctx, e.ID); err != nil {
			log.Printf("mark reminder %d sent: %v", e.ID, err)
			continue
		}
		if r.notifier != nil {
			r.notifier.Send(ctx, reminderText(&e))
		}
		metrics.RemindersSent.Inc()
		sent++
	}
	return sent, nil
}

func reminderDue(e *models.ScheduleEntry, now time.Time) bool {
	if now.After(e.StartAt) {
		return false // the lesson already started, a reminder is noise
	}
	for _, m := range e.Reminders {
		if !now.Before(e.StartAt.Add(-time.Duration(m) * time.Minute)) {
			return true
		}
	}
	return false
}

func reminderText(e *models.ScheduleEntry) string {
	who := e.StudentName
	if who == "" {
		who = e.Title
	}
	return fmt.Sprintf("Reminder: %s at %s", who, e.StartAt.Format("15:04"))
}
