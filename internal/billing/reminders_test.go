package billing

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ZivGohasi57/Private-Tutor-CRM/internal/models"
)

type fakeReminderStore struct {
	entries []models.ScheduleEntry
	markErr error
}

func (f *fakeReminderStore) PendingReminders(_ context.Context, _ time.Time) ([]models.ScheduleEntry, error) {
	var out []models.ScheduleEntry
	for _, e := range f.entries {
		if e.HasReminder && !e.ReminderSent {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeReminderStore) MarkReminderSent(_ context.Context, id uint) error {
	if f.markErr != nil {
		return f.markErr
	}
	for i := range f.entries {
		if f.entries[i].ID == id {
			f.entries[i].ReminderSent = true
		}
	}
	return nil
}

func reminderEntry(id uint, start string, minutes ...int) models.ScheduleEntry {
	ts, _ := time.Parse("2006-01-02 15:04", start)
	return models.ScheduleEntry{
		ID:          id,
		StudentName: "Dana",
		Kind:        models.KindFrontal,
		StartAt:     ts,
		EndAt:       ts.Add(time.Hour),
		HasReminder: true,
		Reminders:   minutes,
	}
}

func TestSendDue_FiresInsideLeadWindow(t *testing.T) {
	store := &fakeReminderStore{entries: []models.ScheduleEntry{
		reminderEntry(1, "2026-02-01 10:00", 30),
		reminderEntry(2, "2026-02-01 12:00", 30), // still too far off
	}}
	notif := &fakeNotifier{}
	r := NewReminders(store, notif, time.Second)
	r.now = sweepClock("2026-02-01 09:40")

	n, err := r.SendDue(context.Background())
	if err != nil {
		t.Fatalf("SendDue() error: %v", err)
	}
	if n != 1 {
		t.Errorf("SendDue() sent %d, want 1", n)
	}
	if !store.entries[0].ReminderSent || store.entries[1].ReminderSent {
		t.Errorf("sent flags = %v/%v, want true/false", store.entries[0].ReminderSent, store.entries[1].ReminderSent)
	}
	if len(notif.messages) != 1 {
		t.Fatalf("sent %d messages, want 1", len(notif.messages))
	}
}

func TestSendDue_NeverRepeats(t *testing.T) {
	store := &fakeReminderStore{entries: []models.ScheduleEntry{
		reminderEntry(1, "2026-02-01 10:00", 30),
	}}
	r := NewReminders(store, &fakeNotifier{}, time.Second)
	r.now = sweepClock("2026-02-01 09:40")

	ctx := context.Background()
	if n, _ := r.SendDue(ctx); n != 1 {
		t.Fatalf("first SendDue() sent %d, want 1", n)
	}
	if n, _ := r.SendDue(ctx); n != 0 {
		t.Errorf("second SendDue() sent %d, want 0", n)
	}
}

func TestSendDue_SkipsStartedLessons(t *testing.T) {
	store := &fakeReminderStore{entries: []models.ScheduleEntry{
		reminderEntry(1, "2026-02-01 09:00", 30),
	}}
	r := NewReminders(store, &fakeNotifier{}, time.Second)
	r.now = sweepClock("2026-02-01 09:30")

	if n, _ := r.SendDue(context.Background()); n != 0 {
		t.Errorf("SendDue() sent %d, want 0 for a lesson already underway", n)
	}
}

func TestSendDue_MarkFailureSkipsNotification(t *testing.T) {
	store := &fakeReminderStore{
		entries: []models.ScheduleEntry{reminderEntry(1, "2026-02-01 10:00", 30)},
		markErr: errors.New("write failed"),
	}
	notif := &fakeNotifier{}
	r := NewReminders(store, notif, time.Second)
	r.now = sweepClock("2026-02-01 09:40")

	if n, _ := r.SendDue(context.Background()); n != 0 {
		t.Errorf("SendDue() sent %d, want 0 when the sent flag cannot be stored", n)
	}
	if len(notif.messages) != 0 {
		t.Errorf("sent %d messages, want none before the mark sticks", len(notif.messages))
	}
}

func TestSendDue_EarliestOffsetWins(t *testing.T) {
	store := &fakeReminderStore{entries: []models.ScheduleEntry{
		reminderEntry(1, "2026-02-01 10:00", 10, 60),
	}}
	r := NewReminders(store, &fakeNotifier{}, time.Second)
	r.now = sweepClock("2026-02-01 09:10")

	if n, _ := r.SendDue(context.Background()); n != 1 {
		t.Errorf("SendDue() sent %d, want 1 once the longest lead time is reached", n)
	}
}
