package billing

import (
	"context"
	"testing"
	"time"

	"github.com/ZivGohasi57/Private-Tutor-CRM/internal/models"
)

type fakeBillingStore struct {
	lessons []models.ScheduleEntry
}

func (f *fakeBillingStore) DueUnbilledLessons(_ context.Context, now time.Time) ([]models.ScheduleEntry, error) {
	var out []models.ScheduleEntry
	for _, l := range f.lessons {
		if l.IsLesson() && !l.Charged && !l.StartAt.After(now) {
			out = append(out, l)
		}
	}
	return out, nil
}

func (f *fakeBillingStore) ChargeLessons(_ context.Context, ids []uint) ([]models.ScheduleEntry, error) {
	want := make(map[uint]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	var charged []models.ScheduleEntry
	for i := range f.lessons {
		l := &f.lessons[i]
		if want[l.ID] && !l.Charged {
			l.Charged = true
			charged = append(charged, *l)
		}
	}
	return charged, nil
}

type fakeReconciler struct {
	calls map[uint]int
}

func (f *fakeReconciler) Recalculate(_ context.Context, _, studentID uint) (int64, error) {
	if f.calls == nil {
		f.calls = make(map[uint]int)
	}
	f.calls[studentID]++
	return 0, nil
}

type fakeNotifier struct {
	messages []string
}

func (f *fakeNotifier) Send(_ context.Context, text string) {
	f.messages = append(f.messages, text)
}

func sweepClock(value string) func() time.Time {
	ts, _ := time.Parse("2006-01-02 15:04", value)
	return func() time.Time { return ts }
}

func dueLesson(id, studentID uint, start string, price int64) models.ScheduleEntry {
	ts, _ := time.Parse("2006-01-02 15:04", start)
	return models.ScheduleEntry{
		ID:          id,
		UserID:      1,
		StudentID:   studentID,
		StudentName: "Dana",
		Kind:        models.KindFrontal,
		StartAt:     ts,
		EndAt:       ts.Add(time.Hour),
		Price:       price,
	}
}

func TestSweep_ChargesStartedLessons(t *testing.T) {
	store := &fakeBillingStore{lessons: []models.ScheduleEntry{
		dueLesson(1, 10, "2026-02-01 09:00", 20000),
		dueLesson(2, 10, "2026-02-01 18:00", 20000), // later today, not due yet
	}}
	rec := &fakeReconciler{}
	notif := &fakeNotifier{}
	s := NewSweeper(store, rec, notif, time.Second)
	s.now = sweepClock("2026-02-01 10:00")

	n, err := s.Sweep(context.Background())
	if err != nil {
		t.Fatalf("Sweep() error: %v", err)
	}
	if n != 1 {
		t.Errorf("Sweep() charged %d lessons, want 1", n)
	}
	if !store.lessons[0].Charged || store.lessons[1].Charged {
		t.Errorf("charged flags = %v/%v, want true/false", store.lessons[0].Charged, store.lessons[1].Charged)
	}
	if rec.calls[10] != 1 {
		t.Errorf("student 10 reconciled %d times, want 1", rec.calls[10])
	}
	if len(notif.messages) != 1 {
		t.Errorf("sent %d notifications, want 1", len(notif.messages))
	}
}

func TestSweep_NeverChargesTwice(t *testing.T) {
	store := &fakeBillingStore{lessons: []models.ScheduleEntry{
		dueLesson(1, 10, "2026-02-01 09:00", 20000),
	}}
	rec := &fakeReconciler{}
	s := NewSweeper(store, rec, nil, time.Second)
	s.now = sweepClock("2026-02-01 10:00")

	ctx := context.Background()
	if n, _ := s.Sweep(ctx); n != 1 {
		t.Fatalf("first Sweep() charged %d, want 1", n)
	}
	if n, _ := s.Sweep(ctx); n != 0 {
		t.Errorf("second Sweep() charged %d, want 0", n)
	}
	if rec.calls[10] != 1 {
		t.Errorf("student reconciled %d times, want 1", rec.calls[10])
	}
}

func TestSweep_BlocksNeverCharged(t *testing.T) {
	block := dueLesson(1, 0, "2026-02-01 09:00", 0)
	block.Kind = models.KindBlock
	store := &fakeBillingStore{lessons: []models.ScheduleEntry{block}}
	s := NewSweeper(store, &fakeReconciler{}, nil, time.Second)
	s.now = sweepClock("2026-02-01 10:00")

	if n, _ := s.Sweep(context.Background()); n != 0 {
		t.Errorf("Sweep() charged %d, want 0 for block entries", n)
	}
}

func TestSweep_OneReconcilePerStudent(t *testing.T) {
	store := &fakeBillingStore{lessons: []models.ScheduleEntry{
		dueLesson(1, 10, "2026-02-01 09:00", 20000),
		dueLesson(2, 10, "2026-02-01 08:00", 20000),
		dueLesson(3, 11, "2026-02-01 08:00", 14000),
	}}
	rec := &fakeReconciler{}
	s := NewSweeper(store, rec, nil, time.Second)
	s.now = sweepClock("2026-02-01 10:00")

	if n, _ := s.Sweep(context.Background()); n != 3 {
		t.Fatalf("Sweep() charged %d, want 3", n)
	}
	if rec.calls[10] != 1 || rec.calls[11] != 1 {
		t.Errorf("reconcile calls = %v, want one per student", rec.calls)
	}
}

func TestFormatAgorot(t *testing.T) {
	cases := []struct {
		in   int64
		want string
	}{
		{35000, "₪350"},
		{12050, "₪120.50"},
		{-5000, "-₪50"},
		{5, "₪0.05"},
	}
	for _, c := range cases {
		if got := FormatAgorot(c.in); got != c.want {
			t.Errorf("FormatAgorot(%d) = %s, want %s", c.in, got, c.want)
		}
	}
}
