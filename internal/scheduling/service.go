package scheduling

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/ZivGohasi57/Private-Tutor-CRM/internal/metrics"
	"github.com/ZivGohasi57/Private-Tutor-CRM/internal/models"
	"github.com/ZivGohasi57/Private-Tutor-CRM/internal/pricing"
	"github.com/ZivGohasi57/Private-Tutor-CRM/internal/schedule"
)

// Store is the persistence surface the scheduling service needs.
type Store interface {
	EntriesByOwner(ctx context.Context, ownerID uint) ([]models.ScheduleEntry, error)
	EntryByID(ctx context.Context, ownerID, id uint) (*models.ScheduleEntry, error)
	StudentByID(ctx context.Context, ownerID, id uint) (*models.Student, error)
	// BatchCreateEntries writes all entries or none.
	BatchCreateEntries(ctx context.Context, entries []*models.ScheduleEntry) error
	SaveEntry(ctx context.Context, e *models.ScheduleEntry) error
	DeleteEntry(ctx context.Context, ownerID, id uint) error
	RatesByOwner(ctx context.Context, ownerID uint) (pricing.Rates, error)
}

// Reconciler rebuilds a student balance after entry writes.
type Reconciler interface {
	Recalculate(ctx context.Context, ownerID, studentID uint) (int64, error)
}

// Service owns the calendar-entry lifecycle: conflict checking,
// price derivation, slot expansion and the reconciliation triggers
// that follow every lesson write.
type Service struct {
	store Store
	rec   Reconciler
}

func NewService(store Store, rec Reconciler) *Service {
	return &Service{store: store, rec: rec}
}

// LessonRequest creates one time slot for one or more students.
type LessonRequest struct {
	StudentIDs   []uint
	Kind         string
	Start, End   time.Time
	Location     string
	NeedsLibrary bool
	Reminders    []int
	// TotalPrice, when set, is the user's price for the whole slot.
	// When nil the price table decides.
	TotalPrice *int64
}

// BlockRequest creates unavailable time, one-off or weekly.
type BlockRequest struct {
	Title        string
	Start, End   time.Time
	Recurring    bool
	RecurringEnd *time.Time
}

// SkippedOccurrence is one series date dropped for a conflict.
type SkippedOccurrence struct {
	Date time.Time
	With *models.ScheduleEntry
}

// SeriesResult reports a materialized weekly series: what was written
// and which dates were skipped.
type SeriesResult struct {
	Created []*models.ScheduleEntry
	Skipped []SkippedOccurrence
}

// CreateLessons expands one slot into one lesson entry per student,
// all sharing a slot id and an even price split. The whole batch is
// rejected if the slot overlaps any existing entry.
func (s *Service) CreateLessons(ctx context.Context, ownerID uint, req LessonRequest) ([]*models.ScheduleEntry, error) {
	iv := schedule.Interval{Start: req.Start, End: req.End}
	if !iv.Valid() {
		return nil, ErrInvalidInterval
	}
	if req.Kind != models.KindFrontal && req.Kind != models.KindOnline {
		return nil, ErrBadKind
	}
	if len(req.StudentIDs) == 0 {
		return nil, ErrNoStudents
	}

	students := make([]*models.Student, 0, len(req.StudentIDs))
	seen := make(map[uint]bool)
	for _, id := range req.StudentIDs {
		if seen[id] {
			return nil, fmt.Errorf("student %d listed twice", id)
		}
		seen[id] = true
		st, err := s.store.StudentByID(ctx, ownerID, id)
		if err != nil {
			return nil, fmt.Errorf("load student %d: %w", id, err)
		}
		students = append(students, st)
	}

	existing, err := s.store.EntriesByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("load entries: %w", err)
	}
	if hit := schedule.FindConflict(existing, iv, 0); hit != nil {
		metrics.ConflictsRejected.Inc()
		return nil, &ConflictError{With: hit}
	}

	hours := req.End.Sub(req.Start).Hours()
	total, err := s.slotTotal(ctx, ownerID, students[0].Level, len(students), hours, req.TotalPrice)
	if err != nil {
		return nil, err
	}
	shares := splitEvenly(total, len(students))

	slotID := uuid.NewString()
	entries := make([]*models.ScheduleEntry, 0, len(students))
	for i, st := range students {
		entries = append(entries, &models.ScheduleEntry{
			UserID:       ownerID,
			Kind:         req.Kind,
			StudentID:    st.ID,
			StudentName:  st.Name,
			StartAt:      req.Start,
			EndAt:        req.End,
			Hours:        hours,
			Price:        shares[i],
			Location:     req.Location,
			NeedsLibrary: req.NeedsLibrary,
			HasReminder:  len(req.Reminders) > 0,
			Reminders:    req.Reminders,
			SlotID:       slotID,
		})
	}
	if err := s.store.BatchCreateEntries(ctx, entries); err != nil {
		return nil, fmt.Errorf("write lessons: %w", err)
	}

	for _, st := range students {
		s.reconcile(ctx, ownerID, st.ID)
	}
	return entries, nil
}

// SuggestPrice computes the price to propose for a new slot: the table
// price minus the first student's current balance, so existing debt is
// collected with the next lesson and existing credit reduces it.
// Suggestions apply on creation only; edits keep the stored price.
func (s *Service) SuggestPrice(ctx context.Context, ownerID uint, studentIDs []uint, start, end time.Time) (int64, error) {
	iv := schedule.Interval{Start: start, End: end}
	if !iv.Valid() {
		return 0, ErrInvalidInterval
	}
	if len(studentIDs) == 0 {
		return 0, ErrNoStudents
	}

	st, err := s.store.StudentByID(ctx, ownerID, studentIDs[0])
	if err != nil {
		return 0, fmt.Errorf("load student: %w", err)
	}
	rates, err := s.store.RatesByOwner(ctx, ownerID)
	if err != nil {
		return 0, fmt.Errorf("load rates: %w", err)
	}
	base, err := pricing.Calculate(rates, st.Level, len(studentIDs), end.Sub(start).Hours())
	if err != nil {
		return 0, err
	}
	return base - st.Balance, nil
}

// CreateBlock writes one block entry. A weekly block is stored as a
// single entry with a day-of-week pattern; its occurrences are virtual.
func (s *Service) CreateBlock(ctx context.Context, ownerID uint, req BlockRequest) (*models.ScheduleEntry, error) {
	iv := schedule.Interval{Start: req.Start, End: req.End}
	if !iv.Valid() {
		return nil, ErrInvalidInterval
	}

	existing, err := s.store.EntriesByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("load entries: %w", err)
	}
	if req.Recurring {
		pat := schedule.Pattern{
			DayOfWeek: int(req.Start.Weekday()),
			StartMin:  req.Start.Hour()*60 + req.Start.Minute(),
			EndMin:    req.End.Hour()*60 + req.End.Minute(),
			First:     req.Start,
			Cutoff:    req.RecurringEnd,
		}
		if pat.EndMin == 0 {
			pat.EndMin = 24 * 60
		}
		if hit := schedule.FindRecurringConflict(existing, pat, 0); hit != nil {
			metrics.ConflictsRejected.Inc()
			return nil, &ConflictError{With: hit}
		}
	} else if hit := schedule.FindConflict(existing, iv, 0); hit != nil {
		metrics.ConflictsRejected.Inc()
		return nil, &ConflictError{With: hit}
	}

	e := &models.ScheduleEntry{
		UserID:       ownerID,
		Kind:         models.KindBlock,
		Title:        req.Title,
		StartAt:      req.Start,
		EndAt:        req.End,
		Hours:        req.End.Sub(req.Start).Hours(),
		Recurring:    req.Recurring,
		DayOfWeek:    int(req.Start.Weekday()),
		RecurringEnd: req.RecurringEnd,
	}
	if err := s.store.BatchCreateEntries(ctx, []*models.ScheduleEntry{e}); err != nil {
		return nil, fmt.Errorf("write block: %w", err)
	}
	return e, nil
}

// CreateBlockSeries materializes a weekly block as one entry per week
// from the start date through the end date. Dates that overlap an
// existing entry are skipped and reported; the rest are still written.
func (s *Service) CreateBlockSeries(ctx context.Context, ownerID uint, req BlockRequest) (*SeriesResult, error) {
	iv := schedule.Interval{Start: req.Start, End: req.End}
	if !iv.Valid() {
		return nil, ErrInvalidInterval
	}
	if req.RecurringEnd == nil {
		return nil, ErrCutoffRequired
	}

	existing, err := s.store.EntriesByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("load entries: %w", err)
	}

	dur := req.End.Sub(req.Start)
	slotID := uuid.NewString()
	res := &SeriesResult{}
	for _, start := range schedule.WeeklyDates(req.Start, *req.RecurringEnd) {
		occ := schedule.Interval{Start: start, End: start.Add(dur)}
		if hit := schedule.FindConflict(existing, occ, 0); hit != nil {
			metrics.ConflictsRejected.Inc()
			res.Skipped = append(res.Skipped, SkippedOccurrence{Date: start, With: hit})
			continue
		}
		res.Created = append(res.Created, &models.ScheduleEntry{
			UserID:  ownerID,
			Kind:    models.KindBlock,
			Title:   req.Title,
			StartAt: occ.Start,
			EndAt:   occ.End,
			Hours:   dur.Hours(),
			SlotID:  slotID,
		})
	}

	if len(res.Created) > 0 {
		if err := s.store.BatchCreateEntries(ctx, res.Created); err != nil {
			return nil, fmt.Errorf("write series: %w", err)
		}
	}
	return res, nil
}

// UpdateRequest carries the fields an edit may change. Nil means keep.
// Price is never recomputed on edit; it changes only when set here.
type UpdateRequest struct {
	Start        *time.Time
	End          *time.Time
	StudentID    *uint
	Price        *int64
	Title        *string
	Location     *string
	NeedsLibrary *bool
	Reminders    *[]int
	RecurringEnd *time.Time
}

// UpdateEntry edits an entry in place after re-running the conflict
// check against everything but the entry itself.
func (s *Service) UpdateEntry(ctx context.Context, ownerID, id uint, req UpdateRequest) (*models.ScheduleEntry, error) {
	e, err := s.store.EntryByID(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}

	prevStudentID := e.StudentID
	if req.StudentID != nil && *req.StudentID != e.StudentID {
		if !e.IsLesson() {
			return nil, ErrBadKind
		}
		student, err := s.store.StudentByID(ctx, ownerID, *req.StudentID)
		if err != nil {
			return nil, err
		}
		e.StudentID = student.ID
		e.StudentName = student.Name
	}

	if req.Start != nil {
		e.StartAt = *req.Start
	}
	if req.End != nil {
		e.EndAt = *req.End
	}
	if req.Price != nil {
		e.Price = *req.Price
	}
	if req.Title != nil {
		e.Title = *req.Title
	}
	if req.Location != nil {
		e.Location = *req.Location
	}
	if req.NeedsLibrary != nil {
		e.NeedsLibrary = *req.NeedsLibrary
	}
	if req.Reminders != nil {
		e.Reminders = *req.Reminders
		e.HasReminder = len(*req.Reminders) > 0
		e.ReminderSent = false
	}
	if req.RecurringEnd != nil {
		e.RecurringEnd = req.RecurringEnd
	}

	iv := schedule.Interval{Start: e.StartAt, End: e.EndAt}
	if !iv.Valid() {
		return nil, ErrInvalidInterval
	}
	if e.Recurring {
		e.DayOfWeek = int(e.StartAt.Weekday())
	}

	existing, err := s.store.EntriesByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("load entries: %w", err)
	}
	if e.Recurring {
		if hit := schedule.FindRecurringConflict(existing, schedule.PatternOf(e), e.ID); hit != nil {
			metrics.ConflictsRejected.Inc()
			return nil, &ConflictError{With: hit}
		}
	} else if hit := schedule.FindConflict(existing, iv, e.ID); hit != nil {
		metrics.ConflictsRejected.Inc()
		return nil, &ConflictError{With: hit}
	}

	e.Hours = e.EndAt.Sub(e.StartAt).Hours()
	if err := s.store.SaveEntry(ctx, e); err != nil {
		return nil, fmt.Errorf("save entry: %w", err)
	}

	if e.IsLesson() {
		s.reconcile(ctx, ownerID, e.StudentID)
		if prevStudentID != e.StudentID {
			s.reconcile(ctx, ownerID, prevStudentID)
		}
	}
	return e, nil
}

// DeleteEntry removes an entry and settles the student's balance.
func (s *Service) DeleteEntry(ctx context.Context, ownerID, id uint) error {
	e, err := s.store.EntryByID(ctx, ownerID, id)
	if err != nil {
		return err
	}
	if err := s.store.DeleteEntry(ctx, ownerID, id); err != nil {
		return fmt.Errorf("delete entry: %w", err)
	}
	if e.IsLesson() {
		s.reconcile(ctx, ownerID, e.StudentID)
	}
	return nil
}

func (s *Service) slotTotal(ctx context.Context, ownerID uint, level models.Level, groupSize int, hours float64, override *int64) (int64, error) {
	if override != nil {
		return *override, nil
	}
	rates, err := s.store.RatesByOwner(ctx, ownerID)
	if err != nil {
		return 0, fmt.Errorf("load rates: %w", err)
	}
	return pricing.Calculate(rates, level, groupSize, hours)
}

// reconcile runs the ledger after a committed write. Failures leave
// the old balance in place and are logged, never surfaced: the entry
// write already succeeded and the next trigger heals the balance.
func (s *Service) reconcile(ctx context.Context, ownerID, studentID uint) {
	if _, err := s.rec.Recalculate(ctx, ownerID, studentID); err != nil {
		log.Printf("reconcile student %d: %v", studentID, err)
	}
}

// splitEvenly divides an amount into n shares that sum exactly to the
// amount, any remainder going to the first share.
func splitEvenly(total int64, n int) []int64 {
	shares := make([]int64, n)
	each := total / int64(n)
	for i := range shares {
		shares[i] = each
	}
	shares[0] += total - each*int64(n)
	return shares
}
