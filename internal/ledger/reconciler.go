package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/ZivGohasi57/Private-Tutor-CRM/internal/models"
)

// Store is the slice of persistence the reconciler needs.
type Store interface {
	PaymentsByStudent(ctx context.Context, ownerID, studentID uint) ([]models.Payment, error)
	LessonsByStudent(ctx context.Context, ownerID, studentID uint) ([]models.ScheduleEntry, error)
	SetStudentBalance(ctx context.Context, ownerID, studentID uint, balance int64) error
}

// Reconciler recomputes student balances from first principles. The
// balance is never adjusted incrementally: every recalculation sums
// all payments and subtracts the price of every lesson that has
// already started, then overwrites whatever was stored. Crashed or
// skipped updates therefore heal on the next pass.
type Reconciler struct {
	store Store
	now   func() time.Time
}

func NewReconciler(s Store) *Reconciler {
	return &Reconciler{store: s, now: time.Now}
}

// Recalculate rebuilds one student's balance and returns the new
// value in agorot. Negative means the student owes money. A zero
// studentID is a no-op so callers can pass through unset references.
func (r *Reconciler) Recalculate(ctx context.Context, ownerID, studentID uint) (int64, error) {
	if studentID == 0 {
		return 0, nil
	}

	payments, err := r.store.PaymentsByStudent(ctx, ownerID, studentID)
	if err != nil {
		return 0, fmt.Errorf("load payments: %w", err)
	}
	lessons, err := r.store.LessonsByStudent(ctx, ownerID, studentID)
	if err != nil {
		return 0, fmt.Errorf("load lessons: %w", err)
	}

	now := r.now()
	var balance int64
	for _, p := range payments {
		balance += p.Amount
	}
	for _, l := range lessons {
		if !l.IsLesson() {
			continue
		}
		if l.StartAt.After(now) {
			continue
		}
		balance -= l.Price
	}

	if err := r.store.SetStudentBalance(ctx, ownerID, studentID, balance); err != nil {
		return 0, fmt.Errorf("store balance: %w", err)
	}
	return balance, nil
}
