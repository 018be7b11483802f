package store

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/ZivGohasi57/Private-Tutor-CRM/internal/models"
	"github.com/ZivGohasi57/Private-Tutor-CRM/internal/pricing"
	"github.com/ZivGohasi57/Private-Tutor-CRM/internal/scheduling"
)

// Store wraps the database behind the narrow interfaces the services
// consume, and signals the hub after every mutation so subscribers can
// re-read. All queries are scoped to the owning user.
type Store struct {
	db  *gorm.DB
	hub *Hub
}

func New(db *gorm.DB, hub *Hub) *Store {
	return &Store{db: db, hub: hub}
}

// DB exposes the underlying handle for the HTTP handlers, which run
// their own simple CRUD queries.
func (s *Store) DB() *gorm.DB { return s.db }

// Hub exposes the change-signal hub.
func (s *Store) Hub() *Hub { return s.hub }

// ---------- scheduling.Store ----------

func (s *Store) EntriesByOwner(ctx context.Context, ownerID uint) ([]models.ScheduleEntry, error) {
	var entries []models.ScheduleEntry
	err := s.db.WithContext(ctx).
		Where("user_id = ?", ownerID).
		Order("start_at").
		Find(&entries).Error
	return entries, err
}

func (s *Store) EntryByID(ctx context.Context, ownerID, id uint) (*models.ScheduleEntry, error) {
	var e models.ScheduleEntry
	err := s.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, ownerID).
		First(&e).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, scheduling.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (s *Store) StudentByID(ctx context.Context, ownerID, id uint) (*models.Student, error) {
	var st models.Student
	err := s.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, ownerID).
		First(&st).Error
	if err != nil {
		return nil, err
	}
	return &st, nil
}

func (s *Store) BatchCreateEntries(ctx context.Context, entries []*models.ScheduleEntry) error {
	if len(entries) == 0 {
		return nil
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, e := range entries {
			if err := tx.Create(e).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.hub.Publish(entries[0].UserID, TopicSchedule)
	return nil
}

func (s *Store) SaveEntry(ctx context.Context, e *models.ScheduleEntry) error {
	if err := s.db.WithContext(ctx).Save(e).Error; err != nil {
		return err
	}
	s.hub.Publish(e.UserID, TopicSchedule)
	return nil
}

func (s *Store) DeleteEntry(ctx context.Context, ownerID, id uint) error {
	res := s.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, ownerID).
		Delete(&models.ScheduleEntry{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return scheduling.ErrNotFound
	}
	s.hub.Publish(ownerID, TopicSchedule)
	return nil
}

// RatesByOwner loads the owner's rate card, falling back to the
// default table when none was saved.
func (s *Store) RatesByOwner(ctx context.Context, ownerID uint) (pricing.Rates, error) {
	var rc models.RateCard
	err := s.db.WithContext(ctx).Where("user_id = ?", ownerID).First(&rc).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pricing.DefaultRates(), nil
	}
	if err != nil {
		return pricing.Rates{}, err
	}
	return pricing.FromRateCard(&rc), nil
}

// ---------- ledger.Store ----------

func (s *Store) PaymentsByStudent(ctx context.Context, ownerID, studentID uint) ([]models.Payment, error) {
	var payments []models.Payment
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND student_id = ?", ownerID, studentID).
		Find(&payments).Error
	return payments, err
}

func (s *Store) LessonsByStudent(ctx context.Context, ownerID, studentID uint) ([]models.ScheduleEntry, error) {
	var lessons []models.ScheduleEntry
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND student_id = ? AND kind <> ?", ownerID, studentID, models.KindBlock).
		Find(&lessons).Error
	return lessons, err
}

func (s *Store) SetStudentBalance(ctx context.Context, ownerID, studentID uint, balance int64) error {
	err := s.db.WithContext(ctx).
		Model(&models.Student{}).
		Where("id = ? AND user_id = ?", studentID, ownerID).
		Update("balance", balance).Error
	if err != nil {
		return err
	}
	s.hub.Publish(ownerID, TopicStudents)
	return nil
}

// ---------- billing.Store ----------

func (s *Store) DueUnbilledLessons(ctx context.Context, now time.Time) ([]models.ScheduleEntry, error) {
	var due []models.ScheduleEntry
	err := s.db.WithContext(ctx).
		Where("charged = ? AND kind <> ? AND student_id <> 0 AND price <> 0 AND start_at < ?",
			false, models.KindBlock, now).
		Find(&due).Error
	return due, err
}

// ChargeLessons flips the charged flag and debits each student inside
// one transaction. The conditional update is the re-entrancy guard: a
// lesson a concurrent sweep already flipped affects zero rows and is
// dropped from the result, so it is never debited twice.
func (s *Store) ChargeLessons(ctx context.Context, ids []uint) ([]models.ScheduleEntry, error) {
	var charged []models.ScheduleEntry
	owners := make(map[uint]bool)

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, id := range ids {
			res := tx.Model(&models.ScheduleEntry{}).
				Where("id = ? AND charged = ?", id, false).
				Update("charged", true)
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				continue // lost the race, another sweep took it
			}
			var e models.ScheduleEntry
			if err := tx.First(&e, id).Error; err != nil {
				return err
			}
			err := tx.Model(&models.Student{}).
				Where("id = ? AND user_id = ?", e.StudentID, e.UserID).
				Update("balance", gorm.Expr("balance - ?", e.Price)).Error
			if err != nil {
				return err
			}
			charged = append(charged, e)
			owners[e.UserID] = true
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	for owner := range owners {
		s.hub.Publish(owner, TopicSchedule)
		s.hub.Publish(owner, TopicStudents)
	}
	return charged, nil
}

// ---------- billing.ReminderStore ----------

func (s *Store) PendingReminders(ctx context.Context, now time.Time) ([]models.ScheduleEntry, error) {
	var pending []models.ScheduleEntry
	err := s.db.WithContext(ctx).
		Where("has_reminder = ? AND reminder_sent = ? AND start_at > ?", true, false, now).
		Find(&pending).Error
	return pending, err
}

func (s *Store) MarkReminderSent(ctx context.Context, id uint) error {
	return s.db.WithContext(ctx).
		Model(&models.ScheduleEntry{}).
		Where("id = ?", id).
		Update("reminder_sent", true).Error
}
