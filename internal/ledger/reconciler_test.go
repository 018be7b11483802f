package ledger

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ZivGohasi57/Private-Tutor-CRM/internal/models"
)

type fakeStore struct {
	payments []models.Payment
	lessons  []models.ScheduleEntry
	balances map[uint]int64
	failLoad bool
	setCalls int
}

func (f *fakeStore) PaymentsByStudent(_ context.Context, _, studentID uint) ([]models.Payment, error) {
	if f.failLoad {
		return nil, errors.New("load failed")
	}
	var out []models.Payment
	for _, p := range f.payments {
		if p.StudentID == studentID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakeStore) LessonsByStudent(_ context.Context, _, studentID uint) ([]models.ScheduleEntry, error) {
	var out []models.ScheduleEntry
	for _, l := range f.lessons {
		if l.StudentID == studentID {
			out = append(out, l)
		}
	}
	return out, nil
}

func (f *fakeStore) SetStudentBalance(_ context.Context, _, studentID uint, balance int64) error {
	if f.balances == nil {
		f.balances = make(map[uint]int64)
	}
	f.balances[studentID] = balance
	f.setCalls++
	return nil
}

func fixedClock(value string) func() time.Time {
	ts, _ := time.Parse("2006-01-02 15:04", value)
	return func() time.Time { return ts }
}

func lesson(studentID uint, start string, price int64, kind string) models.ScheduleEntry {
	ts, _ := time.Parse("2006-01-02 15:04", start)
	return models.ScheduleEntry{
		StudentID: studentID,
		Kind:      kind,
		StartAt:   ts,
		EndAt:     ts.Add(time.Hour),
		Price:     price,
	}
}

func TestRecalculate_PaymentsMinusPastLessons(t *testing.T) {
	s := &fakeStore{
		payments: []models.Payment{
			{StudentID: 1, Amount: 30000},
			{StudentID: 1, Amount: 5000},
			{StudentID: 2, Amount: 99999}, // other student, ignored
		},
		lessons: []models.ScheduleEntry{
			lesson(1, "2026-01-05 10:00", 20000, models.KindFrontal),
			lesson(1, "2026-01-12 10:00", 20000, models.KindOnline),
			lesson(1, "2026-03-01 10:00", 20000, models.KindFrontal), // future, not yet owed
		},
	}
	r := NewReconciler(s)
	r.now = fixedClock("2026-02-01 00:00")

	got, err := r.Recalculate(context.Background(), 1, 1)
	if err != nil {
		t.Fatalf("Recalculate() error: %v", err)
	}
	if want := int64(-5000); got != want {
		t.Errorf("Recalculate() = %d, want %d", got, want)
	}
	if s.balances[1] != got {
		t.Errorf("stored balance = %d, want %d", s.balances[1], got)
	}
}

func TestRecalculate_BlocksAreFree(t *testing.T) {
	s := &fakeStore{
		lessons: []models.ScheduleEntry{
			lesson(1, "2026-01-05 10:00", 20000, models.KindBlock),
		},
	}
	r := NewReconciler(s)
	r.now = fixedClock("2026-02-01 00:00")

	got, err := r.Recalculate(context.Background(), 1, 1)
	if err != nil {
		t.Fatalf("Recalculate() error: %v", err)
	}
	if got != 0 {
		t.Errorf("Recalculate() = %d, want 0 for block-only history", got)
	}
}

func TestRecalculate_Idempotent(t *testing.T) {
	s := &fakeStore{
		payments: []models.Payment{{StudentID: 1, Amount: 10000}},
		lessons:  []models.ScheduleEntry{lesson(1, "2026-01-05 10:00", 15000, models.KindFrontal)},
	}
	r := NewReconciler(s)
	r.now = fixedClock("2026-02-01 00:00")

	first, err := r.Recalculate(context.Background(), 1, 1)
	if err != nil {
		t.Fatalf("first Recalculate() error: %v", err)
	}
	second, err := r.Recalculate(context.Background(), 1, 1)
	if err != nil {
		t.Fatalf("second Recalculate() error: %v", err)
	}
	if first != second {
		t.Errorf("repeated Recalculate() = %d then %d, want identical results", first, second)
	}
	if s.setCalls != 2 {
		t.Errorf("SetStudentBalance called %d times, want 2", s.setCalls)
	}
}

func TestRecalculate_PaymentDeletionHeals(t *testing.T) {
	s := &fakeStore{
		payments: []models.Payment{{StudentID: 1, Amount: 20000}},
		lessons:  []models.ScheduleEntry{lesson(1, "2026-01-05 10:00", 20000, models.KindFrontal)},
	}
	r := NewReconciler(s)
	r.now = fixedClock("2026-02-01 00:00")

	if got, _ := r.Recalculate(context.Background(), 1, 1); got != 0 {
		t.Fatalf("balance before deletion = %d, want 0", got)
	}

	s.payments = nil // payment deleted
	got, err := r.Recalculate(context.Background(), 1, 1)
	if err != nil {
		t.Fatalf("Recalculate() after deletion error: %v", err)
	}
	if want := int64(-20000); got != want {
		t.Errorf("balance after deletion = %d, want %d", got, want)
	}
}

func TestRecalculate_ZeroStudentNoop(t *testing.T) {
	s := &fakeStore{failLoad: true}
	r := NewReconciler(s)

	got, err := r.Recalculate(context.Background(), 1, 0)
	if err != nil {
		t.Fatalf("Recalculate(0) error: %v", err)
	}
	if got != 0 || s.setCalls != 0 {
		t.Errorf("Recalculate(0) = %d with %d writes, want 0 and no writes", got, s.setCalls)
	}
}

func TestRecalculate_LoadError(t *testing.T) {
	r := NewReconciler(&fakeStore{failLoad: true})
	if _, err := r.Recalculate(context.Background(), 1, 1); err == nil {
		t.Error("Recalculate() error = nil, want load failure surfaced")
	}
}
