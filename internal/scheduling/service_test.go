package scheduling

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ZivGohasi57/Private-Tutor-CRM/internal/models"
	"github.com/ZivGohasi57/Private-Tutor-CRM/internal/pricing"
)

type fakeStore struct {
	students map[uint]*models.Student
	entries  []models.ScheduleEntry
	rates    pricing.Rates
	nextID   uint
	batches  int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		students: make(map[uint]*models.Student),
		rates:    pricing.DefaultRates(),
		nextID:   1,
	}
}

func (f *fakeStore) EntriesByOwner(_ context.Context, _ uint) ([]models.ScheduleEntry, error) {
	return f.entries, nil
}

func (f *fakeStore) EntryByID(_ context.Context, _, id uint) (*models.ScheduleEntry, error) {
	for i := range f.entries {
		if f.entries[i].ID == id {
			e := f.entries[i]
			return &e, nil
		}
	}
	return nil, ErrNotFound
}

func (f *fakeStore) StudentByID(_ context.Context, _, id uint) (*models.Student, error) {
	st, ok := f.students[id]
	if !ok {
		return nil, errors.New("student not found")
	}
	return st, nil
}

func (f *fakeStore) BatchCreateEntries(_ context.Context, entries []*models.ScheduleEntry) error {
	f.batches++
	for _, e := range entries {
		e.ID = f.nextID
		f.nextID++
		f.entries = append(f.entries, *e)
	}
	return nil
}

func (f *fakeStore) SaveEntry(_ context.Context, e *models.ScheduleEntry) error {
	for i := range f.entries {
		if f.entries[i].ID == e.ID {
			f.entries[i] = *e
			return nil
		}
	}
	return ErrNotFound
}

func (f *fakeStore) DeleteEntry(_ context.Context, _, id uint) error {
	for i := range f.entries {
		if f.entries[i].ID == id {
			f.entries = append(f.entries[:i], f.entries[i+1:]...)
			return nil
		}
	}
	return ErrNotFound
}

func (f *fakeStore) RatesByOwner(_ context.Context, _ uint) (pricing.Rates, error) {
	return f.rates, nil
}

type countingReconciler struct {
	calls map[uint]int
}

func (c *countingReconciler) Recalculate(_ context.Context, _, studentID uint) (int64, error) {
	if c.calls == nil {
		c.calls = make(map[uint]int)
	}
	c.calls[studentID]++
	return 0, nil
}

func ts(t *testing.T, value string) time.Time {
	t.Helper()
	v, err := time.Parse("2006-01-02 15:04", value)
	if err != nil {
		t.Fatalf("bad test time %q: %v", value, err)
	}
	return v
}

func newService(store *fakeStore) (*Service, *countingReconciler) {
	rec := &countingReconciler{}
	return NewService(store, rec), rec
}

func addStudent(store *fakeStore, id uint, name string, level models.Level, balance int64) {
	store.students[id] = &models.Student{ID: id, UserID: 1, Name: name, Level: level, Balance: balance}
}

func TestCreateLessons_SoloLesson(t *testing.T) {
	store := newFakeStore()
	addStudent(store, 10, "Dana", models.LevelAcademic, 0)
	svc, rec := newService(store)

	got, err := svc.CreateLessons(context.Background(), 1, LessonRequest{
		StudentIDs: []uint{10},
		Kind:       models.KindFrontal,
		Start:      ts(t, "2026-03-02 10:00"),
		End:        ts(t, "2026-03-02 12:00"),
	})
	if err != nil {
		t.Fatalf("CreateLessons() error: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("CreateLessons() wrote %d entries, want 1", len(got))
	}
	if got[0].Price != 35000 {
		t.Errorf("price = %d, want 35000 (academic solo 2h)", got[0].Price)
	}
	if got[0].StudentName != "Dana" || got[0].Hours != 2 {
		t.Errorf("entry = %+v, want Dana for 2 hours", got[0])
	}
	if rec.calls[10] != 1 {
		t.Errorf("student reconciled %d times, want 1", rec.calls[10])
	}
}

func TestCreateLessons_GroupSplitsEvenly(t *testing.T) {
	store := newFakeStore()
	addStudent(store, 10, "Dana", models.LevelHigh, 0)
	addStudent(store, 11, "Omer", models.LevelHigh, 0)
	addStudent(store, 12, "Noa", models.LevelHigh, 0)
	svc, _ := newService(store)

	got, err := svc.CreateLessons(context.Background(), 1, LessonRequest{
		StudentIDs: []uint{10, 11, 12},
		Kind:       models.KindOnline,
		Start:      ts(t, "2026-03-02 10:00"),
		End:        ts(t, "2026-03-02 11:00"),
	})
	if err != nil {
		t.Fatalf("CreateLessons() error: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("CreateLessons() wrote %d entries, want 3", len(got))
	}
	// high 3+: 120 per student per hour
	var total int64
	for _, e := range got {
		if e.Price != 12000 {
			t.Errorf("share = %d, want 12000", e.Price)
		}
		if e.SlotID != got[0].SlotID {
			t.Error("entries in one slot must share a slot id")
		}
		total += e.Price
	}
	if total != 36000 {
		t.Errorf("total = %d, want 36000", total)
	}
}

func TestCreateLessons_RemainderGoesToFirstShare(t *testing.T) {
	store := newFakeStore()
	addStudent(store, 10, "Dana", models.LevelHigh, 0)
	addStudent(store, 11, "Omer", models.LevelHigh, 0)
	addStudent(store, 12, "Noa", models.LevelHigh, 0)
	svc, _ := newService(store)

	price := int64(10000) // not divisible by 3
	got, err := svc.CreateLessons(context.Background(), 1, LessonRequest{
		StudentIDs: []uint{10, 11, 12},
		Kind:       models.KindFrontal,
		Start:      ts(t, "2026-03-02 10:00"),
		End:        ts(t, "2026-03-02 11:00"),
		TotalPrice: &price,
	})
	if err != nil {
		t.Fatalf("CreateLessons() error: %v", err)
	}
	if got[0].Price != 3334 || got[1].Price != 3333 || got[2].Price != 3333 {
		t.Errorf("shares = %d/%d/%d, want 3334/3333/3333", got[0].Price, got[1].Price, got[2].Price)
	}
}

func TestCreateLessons_ConflictRejectsWholeBatch(t *testing.T) {
	store := newFakeStore()
	addStudent(store, 10, "Dana", models.LevelHigh, 0)
	addStudent(store, 11, "Omer", models.LevelHigh, 0)
	store.entries = []models.ScheduleEntry{{
		ID:      99,
		Kind:    models.KindFrontal,
		StartAt: ts(t, "2026-03-02 10:30"),
		EndAt:   ts(t, "2026-03-02 11:30"),
	}}
	svc, rec := newService(store)

	_, err := svc.CreateLessons(context.Background(), 1, LessonRequest{
		StudentIDs: []uint{10, 11},
		Kind:       models.KindFrontal,
		Start:      ts(t, "2026-03-02 10:00"),
		End:        ts(t, "2026-03-02 11:00"),
	})
	if !IsConflict(err) {
		t.Fatalf("CreateLessons() error = %v, want conflict", err)
	}
	if len(store.entries) != 1 {
		t.Errorf("store has %d entries, want the pre-existing 1 only", len(store.entries))
	}
	if len(rec.calls) != 0 {
		t.Errorf("reconciler called %v, want untouched on rejection", rec.calls)
	}
}

func TestCreateLessons_Validation(t *testing.T) {
	store := newFakeStore()
	addStudent(store, 10, "Dana", models.LevelHigh, 0)
	svc, _ := newService(store)
	ctx := context.Background()

	_, err := svc.CreateLessons(ctx, 1, LessonRequest{
		StudentIDs: []uint{10},
		Kind:       models.KindFrontal,
		Start:      ts(t, "2026-03-02 11:00"),
		End:        ts(t, "2026-03-02 10:00"),
	})
	if !errors.Is(err, ErrInvalidInterval) {
		t.Errorf("reversed interval error = %v, want ErrInvalidInterval", err)
	}

	_, err = svc.CreateLessons(ctx, 1, LessonRequest{
		Kind:  models.KindFrontal,
		Start: ts(t, "2026-03-02 10:00"),
		End:   ts(t, "2026-03-02 11:00"),
	})
	if !errors.Is(err, ErrNoStudents) {
		t.Errorf("empty student list error = %v, want ErrNoStudents", err)
	}

	_, err = svc.CreateLessons(ctx, 1, LessonRequest{
		StudentIDs: []uint{10},
		Kind:       models.KindBlock,
		Start:      ts(t, "2026-03-02 10:00"),
		End:        ts(t, "2026-03-02 11:00"),
	})
	if !errors.Is(err, ErrBadKind) {
		t.Errorf("block kind error = %v, want ErrBadKind", err)
	}
}

func TestSuggestPrice_SubtractsBalance(t *testing.T) {
	store := newFakeStore()
	svc, _ := newService(store)
	ctx := context.Background()

	cases := []struct {
		name    string
		balance int64
		want    int64
	}{
		{"no balance", 0, 35000},
		{"debt increases the suggestion", -35000, 70000},
		{"credit reduces it", 10000, 25000},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			addStudent(store, 10, "Dana", models.LevelAcademic, c.balance)
			got, err := svc.SuggestPrice(ctx, 1, []uint{10}, ts(t, "2026-03-02 10:00"), ts(t, "2026-03-02 12:00"))
			if err != nil {
				t.Fatalf("SuggestPrice() error: %v", err)
			}
			if got != c.want {
				t.Errorf("SuggestPrice() = %d, want %d", got, c.want)
			}
		})
	}
}

func TestCreateBlock_RecurringIsSingleEntry(t *testing.T) {
	store := newFakeStore()
	svc, _ := newService(store)

	cutoff := ts(t, "2026-06-30 00:00")
	got, err := svc.CreateBlock(context.Background(), 1, BlockRequest{
		Title:        "Army reserve",
		Start:        ts(t, "2026-03-04 09:00"), // a Wednesday
		End:          ts(t, "2026-03-04 10:00"),
		Recurring:    true,
		RecurringEnd: &cutoff,
	})
	if err != nil {
		t.Fatalf("CreateBlock() error: %v", err)
	}
	if len(store.entries) != 1 {
		t.Fatalf("store has %d entries, want a single virtual series entry", len(store.entries))
	}
	if !got.Recurring || got.DayOfWeek != int(time.Wednesday) {
		t.Errorf("entry = %+v, want recurring on Wednesday", got)
	}
	if got.Kind != models.KindBlock {
		t.Errorf("kind = %s, want block", got.Kind)
	}
}

func TestCreateBlock_RecurringConflictsWithOneOff(t *testing.T) {
	store := newFakeStore()
	// one-off lesson on a future Wednesday morning
	store.entries = []models.ScheduleEntry{{
		ID:      5,
		Kind:    models.KindFrontal,
		StartAt: ts(t, "2026-03-11 09:30"),
		EndAt:   ts(t, "2026-03-11 10:30"),
	}}
	svc, _ := newService(store)

	_, err := svc.CreateBlock(context.Background(), 1, BlockRequest{
		Start:     ts(t, "2026-03-04 09:00"),
		End:       ts(t, "2026-03-04 10:00"),
		Recurring: true,
	})
	if !IsConflict(err) {
		t.Fatalf("CreateBlock() error = %v, want conflict with the one-off occurrence", err)
	}
}

func TestCreateBlockSeries_SkipsConflictingDates(t *testing.T) {
	store := newFakeStore()
	// existing lesson on the second Wednesday
	store.entries = []models.ScheduleEntry{{
		ID:      5,
		Kind:    models.KindFrontal,
		StartAt: ts(t, "2026-03-11 09:00"),
		EndAt:   ts(t, "2026-03-11 10:00"),
	}}
	svc, _ := newService(store)

	cutoff := ts(t, "2026-03-25 00:00")
	res, err := svc.CreateBlockSeries(context.Background(), 1, BlockRequest{
		Title:        "Gym",
		Start:        ts(t, "2026-03-04 09:00"),
		End:          ts(t, "2026-03-04 10:00"),
		Recurring:    true,
		RecurringEnd: &cutoff,
	})
	if err != nil {
		t.Fatalf("CreateBlockSeries() error: %v", err)
	}
	if len(res.Created) != 3 {
		t.Errorf("created %d occurrences, want 3 of the 4 Wednesdays", len(res.Created))
	}
	if len(res.Skipped) != 1 {
		t.Fatalf("skipped %d occurrences, want 1", len(res.Skipped))
	}
	if d := res.Skipped[0].Date.Format("2006-01-02"); d != "2026-03-11" {
		t.Errorf("skipped date = %s, want 2026-03-11", d)
	}
	for _, e := range res.Created {
		if e.Recurring {
			t.Error("materialized occurrences must be one-off entries")
		}
		if e.SlotID != res.Created[0].SlotID {
			t.Error("series occurrences must share a slot id")
		}
	}
}

func TestCreateBlockSeries_RequiresCutoff(t *testing.T) {
	svc, _ := newService(newFakeStore())

	_, err := svc.CreateBlockSeries(context.Background(), 1, BlockRequest{
		Start:     ts(t, "2026-03-04 09:00"),
		End:       ts(t, "2026-03-04 10:00"),
		Recurring: true,
	})
	if !errors.Is(err, ErrCutoffRequired) {
		t.Errorf("CreateBlockSeries() error = %v, want ErrCutoffRequired", err)
	}
}

func TestUpdateEntry_MovesLessonAndReconciles(t *testing.T) {
	store := newFakeStore()
	addStudent(store, 10, "Dana", models.LevelHigh, 0)
	store.entries = []models.ScheduleEntry{{
		ID:        1,
		UserID:    1,
		Kind:      models.KindFrontal,
		StudentID: 10,
		StartAt:   ts(t, "2026-03-02 10:00"),
		EndAt:     ts(t, "2026-03-02 11:00"),
		Price:     16000,
	}}
	svc, rec := newService(store)

	newStart := ts(t, "2026-03-03 10:00")
	newEnd := ts(t, "2026-03-03 12:00")
	got, err := svc.UpdateEntry(context.Background(), 1, 1, UpdateRequest{
		Start: &newStart,
		End:   &newEnd,
	})
	if err != nil {
		t.Fatalf("UpdateEntry() error: %v", err)
	}
	if got.Price != 16000 {
		t.Errorf("price = %d after move, want unchanged 16000", got.Price)
	}
	if got.Hours != 2 {
		t.Errorf("hours = %v, want 2", got.Hours)
	}
	if rec.calls[10] != 1 {
		t.Errorf("student reconciled %d times, want 1", rec.calls[10])
	}
}

func TestUpdateEntry_ReassignStudentReconcilesBoth(t *testing.T) {
	store := newFakeStore()
	addStudent(store, 10, "Dana", models.LevelHigh, 0)
	addStudent(store, 11, "Yoav", models.LevelHigh, 0)
	store.entries = []models.ScheduleEntry{{
		ID:          1,
		UserID:      1,
		Kind:        models.KindFrontal,
		StudentID:   10,
		StudentName: "Dana",
		StartAt:     ts(t, "2026-03-02 10:00"),
		EndAt:       ts(t, "2026-03-02 11:00"),
		Price:       16000,
	}}
	svc, rec := newService(store)

	newStudent := uint(11)
	got, err := svc.UpdateEntry(context.Background(), 1, 1, UpdateRequest{
		StudentID: &newStudent,
	})
	if err != nil {
		t.Fatalf("UpdateEntry() error: %v", err)
	}
	if got.StudentID != 11 || got.StudentName != "Yoav" {
		t.Errorf("entry student = %d/%q, want 11/Yoav", got.StudentID, got.StudentName)
	}
	if rec.calls[10] != 1 || rec.calls[11] != 1 {
		t.Errorf("reconcile calls = %d/%d for old/new, want 1/1", rec.calls[10], rec.calls[11])
	}
}

func TestUpdateEntry_ReassignStudentOnBlockRejected(t *testing.T) {
	store := newFakeStore()
	addStudent(store, 10, "Dana", models.LevelHigh, 0)
	store.entries = []models.ScheduleEntry{{
		ID:      1,
		UserID:  1,
		Kind:    models.KindBlock,
		Title:   "army reserve",
		StartAt: ts(t, "2026-03-02 10:00"),
		EndAt:   ts(t, "2026-03-02 11:00"),
	}}
	svc, rec := newService(store)

	newStudent := uint(10)
	if _, err := svc.UpdateEntry(context.Background(), 1, 1, UpdateRequest{StudentID: &newStudent}); !errors.Is(err, ErrBadKind) {
		t.Errorf("UpdateEntry() error = %v, want ErrBadKind", err)
	}
	if len(rec.calls) != 0 {
		t.Errorf("reconcile ran %v times on a rejected edit", rec.calls)
	}
}

func TestUpdateEntry_SelfOverlapAllowed(t *testing.T) {
	store := newFakeStore()
	addStudent(store, 10, "Dana", models.LevelHigh, 0)
	store.entries = []models.ScheduleEntry{{
		ID:        1,
		UserID:    1,
		Kind:      models.KindFrontal,
		StudentID: 10,
		StartAt:   ts(t, "2026-03-02 10:00"),
		EndAt:     ts(t, "2026-03-02 11:00"),
	}}
	svc, _ := newService(store)

	newEnd := ts(t, "2026-03-02 11:30")
	if _, err := svc.UpdateEntry(context.Background(), 1, 1, UpdateRequest{End: &newEnd}); err != nil {
		t.Errorf("UpdateEntry() extending into its own slot error = %v, want nil", err)
	}
}

func TestUpdateEntry_ConflictWithOther(t *testing.T) {
	store := newFakeStore()
	store.entries = []models.ScheduleEntry{
		{ID: 1, UserID: 1, Kind: models.KindFrontal, StudentID: 10, StartAt: ts(t, "2026-03-02 10:00"), EndAt: ts(t, "2026-03-02 11:00")},
		{ID: 2, UserID: 1, Kind: models.KindFrontal, StudentID: 11, StartAt: ts(t, "2026-03-02 12:00"), EndAt: ts(t, "2026-03-02 13:00")},
	}
	svc, _ := newService(store)

	newEnd := ts(t, "2026-03-02 12:30")
	_, err := svc.UpdateEntry(context.Background(), 1, 1, UpdateRequest{End: &newEnd})
	if !IsConflict(err) {
		t.Fatalf("UpdateEntry() error = %v, want conflict with entry 2", err)
	}
	if store.entries[0].EndAt != ts(t, "2026-03-02 11:00") {
		t.Error("rejected update must not be persisted")
	}
}

func TestDeleteEntry_LessonTriggersReconcile(t *testing.T) {
	store := newFakeStore()
	store.entries = []models.ScheduleEntry{
		{ID: 1, UserID: 1, Kind: models.KindFrontal, StudentID: 10, StartAt: ts(t, "2026-03-02 10:00"), EndAt: ts(t, "2026-03-02 11:00")},
		{ID: 2, UserID: 1, Kind: models.KindBlock, StartAt: ts(t, "2026-03-03 10:00"), EndAt: ts(t, "2026-03-03 11:00")},
	}
	svc, rec := newService(store)
	ctx := context.Background()

	if err := svc.DeleteEntry(ctx, 1, 1); err != nil {
		t.Fatalf("DeleteEntry(lesson) error: %v", err)
	}
	if rec.calls[10] != 1 {
		t.Errorf("student reconciled %d times, want 1", rec.calls[10])
	}

	if err := svc.DeleteEntry(ctx, 1, 2); err != nil {
		t.Fatalf("DeleteEntry(block) error: %v", err)
	}
	if len(rec.calls) != 1 {
		t.Errorf("reconciler calls = %v, want no call for block deletion", rec.calls)
	}
	if len(store.entries) != 0 {
		t.Errorf("store has %d entries, want 0", len(store.entries))
	}
}
