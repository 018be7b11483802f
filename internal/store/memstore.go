package store

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/ZivGohasi57/Private-Tutor-CRM/internal/models"
	"github.com/ZivGohasi57/Private-Tutor-CRM/internal/pricing"
	"github.com/ZivGohasi57/Private-Tutor-CRM/internal/scheduling"
)

// MemStore is an in-memory implementation of the service-facing store
// interfaces. It backs tests that exercise the services end to end
// without a database file.
type MemStore struct {
	mu       sync.Mutex
	students map[uint]*models.Student
	entries  map[uint]*models.ScheduleEntry
	payments map[uint]*models.Payment
	rates    map[uint]pricing.Rates
	nextID   uint
}

func NewMemStore() *MemStore {
	return &MemStore{
		students: make(map[uint]*models.Student),
		entries:  make(map[uint]*models.ScheduleEntry),
		payments: make(map[uint]*models.Payment),
		rates:    make(map[uint]pricing.Rates),
		nextID:   1,
	}
}

func (m *MemStore) id() uint {
	id := m.nextID
	m.nextID++
	return id
}

// AddStudent seeds a student and returns its id.
func (m *MemStore) AddStudent(st models.Student) uint {
	m.mu.Lock()
	defer m.mu.Unlock()
	st.ID = m.id()
	m.students[st.ID] = &st
	return st.ID
}

// AddPayment seeds a payment and returns its id.
func (m *MemStore) AddPayment(p models.Payment) uint {
	m.mu.Lock()
	defer m.mu.Unlock()
	p.ID = m.id()
	m.payments[p.ID] = &p
	return p.ID
}

// DeletePayment removes a payment.
func (m *MemStore) DeletePayment(id uint) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.payments, id)
}

// Student returns a copy of a seeded student.
func (m *MemStore) Student(id uint) (models.Student, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	st, ok := m.students[id]
	if !ok {
		return models.Student{}, false
	}
	return *st, true
}

// SetRates overrides one owner's rate card.
func (m *MemStore) SetRates(ownerID uint, r pricing.Rates) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rates[ownerID] = r
}

// ---------- scheduling.Store ----------

func (m *MemStore) EntriesByOwner(_ context.Context, ownerID uint) ([]models.ScheduleEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.ScheduleEntry
	for _, e := range m.entries {
		if e.UserID == ownerID {
			out = append(out, *e)
		}
	}
	return out, nil
}

func (m *MemStore) EntryByID(_ context.Context, ownerID, id uint) (*models.ScheduleEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[id]
	if !ok || e.UserID != ownerID {
		return nil, scheduling.ErrNotFound
	}
	cp := *e
	return &cp, nil
}

func (m *MemStore) StudentByID(_ context.Context, ownerID, id uint) (*models.Student, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	st, ok := m.students[id]
	if !ok || st.UserID != ownerID {
		return nil, errors.New("student not found")
	}
	cp := *st
	return &cp, nil
}

func (m *MemStore) BatchCreateEntries(_ context.Context, entries []*models.ScheduleEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range entries {
		e.ID = m.id()
		cp := *e
		m.entries[e.ID] = &cp
	}
	return nil
}

func (m *MemStore) SaveEntry(_ context.Context, e *models.ScheduleEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.entries[e.ID]; !ok {
		return scheduling.ErrNotFound
	}
	cp := *e
	m.entries[e.ID] = &cp
	return nil
}

func (m *MemStore) DeleteEntry(_ context.Context, ownerID, id uint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[id]
	if !ok || e.UserID != ownerID {
		return scheduling.ErrNotFound
	}
	delete(m.entries, id)
	return nil
}

func (m *MemStore) RatesByOwner(_ context.Context, ownerID uint) (pricing.Rates, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if r, ok := m.rates[ownerID]; ok {
		return r, nil
	}
	return pricing.DefaultRates(), nil
}

// ---------- ledger.Store ----------

func (m *MemStore) PaymentsByStudent(_ context.Context, ownerID, studentID uint) ([]models.Payment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Payment
	for _, p := range m.payments {
		if p.UserID == ownerID && p.StudentID == studentID {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (m *MemStore) LessonsByStudent(_ context.Context, ownerID, studentID uint) ([]models.ScheduleEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.ScheduleEntry
	for _, e := range m.entries {
		if e.UserID == ownerID && e.StudentID == studentID && e.IsLesson() {
			out = append(out, *e)
		}
	}
	return out, nil
}

func (m *MemStore) SetStudentBalance(_ context.Context, ownerID, studentID uint, balance int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	st, ok := m.students[studentID]
	if !ok || st.UserID != ownerID {
		return errors.New("student not found")
	}
	st.Balance = balance
	return nil
}

// ---------- billing.Store ----------

func (m *MemStore) DueUnbilledLessons(_ context.Context, now time.Time) ([]models.ScheduleEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.ScheduleEntry
	for _, e := range m.entries {
		if e.IsLesson() && !e.Charged && e.StudentID != 0 && e.Price != 0 && e.StartAt.Before(now) {
			out = append(out, *e)
		}
	}
	return out, nil
}

func (m *MemStore) ChargeLessons(_ context.Context, ids []uint) ([]models.ScheduleEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var charged []models.ScheduleEntry
	for _, id := range ids {
		e, ok := m.entries[id]
		if !ok || e.Charged {
			continue
		}
		e.Charged = true
		if st, ok := m.students[e.StudentID]; ok {
			st.Balance -= e.Price
		}
		charged = append(charged, *e)
	}
	return charged, nil
}

// ---------- billing.ReminderStore ----------

func (m *MemStore) PendingReminders(_ context.Context, now time.Time) ([]models.ScheduleEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.ScheduleEntry
	for _, e := range m.entries {
		if e.HasReminder && !e.ReminderSent && e.StartAt.After(now) {
			out = append(out, *e)
		}
	}
	return out, nil
}

func (m *MemStore) MarkReminderSent(_ context.Context, id uint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[id]
	if !ok {
		return scheduling.ErrNotFound
	}
	e.ReminderSent = true
	return nil
}
