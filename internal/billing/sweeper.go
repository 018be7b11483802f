package billing

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/ZivGohasi57/Private-Tutor-CRM/internal/metrics"
	"github.com/ZivGohasi57/Private-Tutor-CRM/internal/models"
)

// Store is the persistence surface the sweeper needs.
type Store interface {
	// DueUnbilledLessons returns lessons that have started but were
	// not yet debited from their student.
	DueUnbilledLessons(ctx context.Context, now time.Time) ([]models.ScheduleEntry, error)
	// ChargeLessons marks the given lessons as charged and returns
	// the ones this call actually flipped. A lesson another sweep
	// already charged is filtered out so it is never debited twice.
	ChargeLessons(ctx context.Context, ids []uint) ([]models.ScheduleEntry, error)
}

// Reconciler rebuilds a student balance after charges land.
type Reconciler interface {
	Recalculate(ctx context.Context, ownerID, studentID uint) (int64, error)
}

// Notifier delivers a human-readable message about a charge.
type Notifier interface {
	Send(ctx context.Context, text string)
}

// Sweeper debits lessons as their start time passes. It runs for the
// lifetime of the process: one sweep immediately on start, then one
// per tick until the context is cancelled.
type Sweeper struct {
	store    Store
	rec      Reconciler
	notifier Notifier
	interval time.Duration
	now      func() time.Time
}

func NewSweeper(store Store, rec Reconciler, notifier Notifier, interval time.Duration) *Sweeper {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &Sweeper{store: store, rec: rec, notifier: notifier, interval: interval, now: time.Now}
}

// Run blocks until ctx is done.
func (s *Sweeper) Run(ctx context.Context) {
	if _, err := s.Sweep(ctx); err != nil {
		log.Printf("billing sweep: %v", err)
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.Sweep(ctx); err != nil {
				log.Printf("billing sweep: %v", err)
			}
		}
	}
}

// Sweep performs one pass and returns how many lessons it charged.
func (s *Sweeper) Sweep(ctx context.Context) (int, error) {
	metrics.SweepsTotal.Inc()

	due, err := s.store.DueUnbilledLessons(ctx, s.now())
	if err != nil {
		return 0, fmt.Errorf("find due lessons: %w", err)
	}
	if len(due) == 0 {
		return 0, nil
	}

	ids := make([]uint, 0, len(due))
	for _, l := range due {
		ids = append(ids, l.ID)
	}
	charged, err := s.store.ChargeLessons(ctx, ids)
	if err != nil {
		return 0, fmt.Errorf("charge lessons: %w", err)
	}

	type studentKey struct{ owner, student uint }
	touched := make(map[studentKey]bool)
	for _, l := range charged {
		metrics.LessonsCharged.Inc()
		metrics.AgorotCharged.Add(float64(l.Price))
		touched[studentKey{l.UserID, l.StudentID}] = true

		if s.notifier != nil {
			s.notifier.Send(ctx, fmt.Sprintf("Lesson started: %s, %s charged", l.StudentName, FormatAgorot(l.Price)))
		}
	}

	for key := range touched {
		if _, err := s.rec.Recalculate(ctx, key.owner, key.student); err != nil {
			log.Printf("reconcile student %d after sweep: %v", key.student, err)
		}
	}
	return len(charged), nil
}

// FormatAgorot renders an agorot amount as shekels for messages.
func FormatAgorot(v int64) string {
	sign := ""
	if v < 0 {
		sign = "-"
		v = -v
	}
	if v%100 == 0 {
		return fmt.Sprintf("%s₪%d", sign, v/100)
	}
	return fmt.Sprintf("%s₪%d.%02d", sign, v/100, v%100)
}
