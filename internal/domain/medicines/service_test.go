package medicines

import (
	"context"
	"errors"
	"testing"
	"time"
)

// -------------------------
// Test repo (in-memory)
// -------------------------

var errRepoNotFound = errors.New("repo: not found")

type testRepo struct {
	byID map[string]Medicine
}

func newTestRepo() *testRepo {
	return &testRepo{byID: map[string]Medicine{}}
}

func (r *testRepo) Create(ctx context.Context, m Medicine) error {
	if m.ID == "" {
		return errors.New("repo: id required")
	}
	r.byID[m.ID] = m
	return nil
}

func (r *testRepo) Update(ctx context.Context, m Medicine) error {
	prev, ok := r.byID[m.ID]
	if !ok {
		return errRepoNotFound
	}
	m.Taken = prev.Taken
	r.byID[m.ID] = m
	return nil
}

func (r *testRepo) GetByID(ctx context.Context, id string) (Medicine, error) {
	m, ok := r.byID[id]
	if !ok {
		return Medicine{}, errRepoNotFound
	}
	return m, nil
}

func (r *testRepo) ListActiveByUser(ctx context.Context, userID string) ([]Medicine, error) {
	out := make([]Medicine, 0)
	for _, m := range r.byID {
		if m.UserID == userID && m.Active {
			out = append(out, m)
		}
	}
	return out, nil
}

func (r *testRepo) ListActiveAll(ctx context.Context, notEndedBefore time.Time) ([]Medicine, error) {
	out := make([]Medicine, 0)
	for _, m := range r.byID {
		if !m.Active {
			continue
		}
		if m.EndDate != nil && m.EndDate.Before(notEndedBefore) {
			continue
		}
		out = append(out, m)
	}
	return out, nil
}

func (r *testRepo) AppendTaken(ctx context.Context, medicineID string, rec TakenRecord) error {
	m, ok := r.byID[medicineID]
	if !ok {
		return errRepoNotFound
	}
	m.Taken = append(m.Taken, rec)
	r.byID[medicineID] = m
	return nil
}

func (r *testRepo) RemoveTaken(ctx context.Context, medicineID, date, tod string) error {
	m, ok := r.byID[medicineID]
	if !ok {
		return errRepoNotFound
	}
	for i, rec := range m.Taken {
		if rec.Date == date && rec.Time == tod {
			m.Taken = append(m.Taken[:i], m.Taken[i+1:]...)
			r.byID[medicineID] = m
			return nil
		}
	}
	return errRepoNotFound
}

// scheduler fake para verificar el re-schedule dirigido
type testSched struct {
	scheduled []string
	cancelled []string
}

func (s *testSched) ScheduleMedicine(ctx context.Context, m Medicine) {
	s.scheduled = append(s.scheduled, m.ID)
}

func (s *testSched) CancelMedicine(medicineID string) {
	s.cancelled = append(s.cancelled, medicineID)
}

// -------------------------
// Tests
// -------------------------

func TestService_Add_SchedulesReminders(t *testing.T) {
	repo := newTestRepo()
	svc := NewService(repo)
	sched := &testSched{}
	svc.SetRescheduler(sched)

	m, err := svc.Add(context.Background(), "user-1", AddInput{
		Name:   "Aspirin",
		Dosage: "100mg",
		Doses:  []DoseInput{{Time: "08:00"}, {Time: "8:00 PM"}},
	})
	if err != nil {
		t.Fatalf("Add error: %v", err)
	}
	if !m.Active {
		t.Fatalf("expected new medicine active")
	}
	if len(m.Doses) != 2 || m.Doses[0].Frequency != FrequencyDaily {
		t.Fatalf("expected 2 daily doses, got %#v", m.Doses)
	}
	if len(sched.scheduled) != 1 || sched.scheduled[0] != m.ID {
		t.Fatalf("expected medicine scheduled, got %#v", sched.scheduled)
	}
}

func TestService_Add_RejectsBadInput(t *testing.T) {
	svc := NewService(newTestRepo())

	cases := []AddInput{
		{Name: "", Dosage: "100mg"},
		{Name: "Aspirin", Dosage: ""},
		{Name: "Aspirin", Dosage: "100mg", Doses: []DoseInput{{Time: ""}}},
		{Name: "Aspirin", Dosage: "100mg", Doses: []DoseInput{{Time: "08:00", Frequency: "hourly"}}},
		{Name: "Aspirin", Dosage: "100mg", Doses: []DoseInput{{Time: "08:00", Frequency: FrequencyWeekly, DaysOfWeek: []int{7}}}},
	}
	for i, in := range cases {
		if _, err := svc.Add(context.Background(), "user-1", in); !errors.Is(err, ErrInvalidInput) {
			t.Errorf("case %d: expected ErrInvalidInput, got %v", i, err)
		}
	}
}

func TestService_Update_ReschedulesOnlyThatMedicine(t *testing.T) {
	repo := newTestRepo()
	svc := NewService(repo)
	sched := &testSched{}
	svc.SetRescheduler(sched)

	m, err := svc.Add(context.Background(), "user-1", AddInput{Name: "Aspirin", Dosage: "100mg"})
	if err != nil {
		t.Fatalf("Add error: %v", err)
	}

	name := "Ibuprofen"
	updated, err := svc.Update(context.Background(), "user-1", m.ID, UpdateInput{
		Name:  &name,
		Doses: []DoseInput{{Time: "09:00"}},
	})
	if err != nil {
		t.Fatalf("Update error: %v", err)
	}
	if updated.Name != "Ibuprofen" || len(updated.Doses) != 1 {
		t.Fatalf("unexpected update result: %#v", updated)
	}
	if len(sched.cancelled) != 1 || sched.cancelled[0] != m.ID {
		t.Fatalf("expected cancel before reschedule, got %#v", sched.cancelled)
	}
	if len(sched.scheduled) != 2 {
		t.Fatalf("expected schedule on add and update, got %#v", sched.scheduled)
	}
}

func TestService_Update_OwnershipEnforced(t *testing.T) {
	repo := newTestRepo()
	svc := NewService(repo)

	m, _ := svc.Add(context.Background(), "user-1", AddInput{Name: "Aspirin", Dosage: "100mg"})

	name := "Stolen"
	if _, err := svc.Update(context.Background(), "user-2", m.ID, UpdateInput{Name: &name}); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}

func TestService_SoftDelete_CancelsReminders(t *testing.T) {
	repo := newTestRepo()
	svc := NewService(repo)
	sched := &testSched{}
	svc.SetRescheduler(sched)

	m, _ := svc.Add(context.Background(), "user-1", AddInput{Name: "Aspirin", Dosage: "100mg"})
	if err := svc.SoftDelete(context.Background(), "user-1", m.ID); err != nil {
		t.Fatalf("SoftDelete error: %v", err)
	}

	got, _ := repo.GetByID(context.Background(), m.ID)
	if got.Active {
		t.Fatalf("expected medicine inactive after soft delete")
	}
	if len(sched.cancelled) != 1 {
		t.Fatalf("expected reminders cancelled, got %#v", sched.cancelled)
	}

	// sigue accesible por id: el borrado es lógico
	if _, err := svc.Get(context.Background(), "user-1", m.ID); err != nil {
		t.Fatalf("expected soft-deleted medicine still readable: %v", err)
	}
}

func TestService_MarkTaken_RejectsDuplicate(t *testing.T) {
	repo := newTestRepo()
	svc := NewService(repo)

	m, _ := svc.Add(context.Background(), "user-1", AddInput{Name: "Aspirin", Dosage: "100mg"})

	if err := svc.MarkTaken(context.Background(), "user-1", m.ID, "2026-01-06", "08:00"); err != nil {
		t.Fatalf("MarkTaken error: %v", err)
	}
	if err := svc.MarkTaken(context.Background(), "user-1", m.ID, "2026-01-06", "08:00"); !errors.Is(err, ErrAlreadyMarked) {
		t.Fatalf("expected ErrAlreadyMarked, got %v", err)
	}

	// otra ocurrencia del mismo día sí pasa
	if err := svc.MarkTaken(context.Background(), "user-1", m.ID, "2026-01-06", "20:00"); err != nil {
		t.Fatalf("MarkTaken second dose error: %v", err)
	}
}

func TestService_MarkTaken_RejectsBadDate(t *testing.T) {
	repo := newTestRepo()
	svc := NewService(repo)
	m, _ := svc.Add(context.Background(), "user-1", AddInput{Name: "Aspirin", Dosage: "100mg"})

	if err := svc.MarkTaken(context.Background(), "user-1", m.ID, "06/01/2026", "08:00"); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for bad date, got %v", err)
	}
}

func TestService_UnmarkTaken(t *testing.T) {
	repo := newTestRepo()
	svc := NewService(repo)
	m, _ := svc.Add(context.Background(), "user-1", AddInput{Name: "Aspirin", Dosage: "100mg"})

	if err := svc.UnmarkTaken(context.Background(), "user-1", m.ID, "2026-01-06", "08:00"); !errors.Is(err, ErrNotMarked) {
		t.Fatalf("expected ErrNotMarked, got %v", err)
	}

	_ = svc.MarkTaken(context.Background(), "user-1", m.ID, "2026-01-06", "08:00")
	if err := svc.UnmarkTaken(context.Background(), "user-1", m.ID, "2026-01-06", "08:00"); err != nil {
		t.Fatalf("UnmarkTaken error: %v", err)
	}

	// se puede volver a marcar después de desmarcar
	if err := svc.MarkTaken(context.Background(), "user-1", m.ID, "2026-01-06", "08:00"); err != nil {
		t.Fatalf("re-mark after unmark error: %v", err)
	}
}

func TestService_Calendar_ProjectsDosesOverMonth(t *testing.T) {
	repo := newTestRepo()
	svc := NewService(repo)
	svc.now = func() time.Time { return time.Date(2026, 1, 6, 10, 0, 0, 0, time.UTC) }

	start := time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 1, 12, 0, 0, 0, 0, time.UTC)
	_, err := svc.Add(context.Background(), "user-1", AddInput{
		Name:      "Aspirin",
		Dosage:    "100mg",
		StartDate: &start,
		EndDate:   &end,
		Notes:     "after meals",
		Doses:     []DoseInput{{Time: "08:00"}},
	})
	if err != nil {
		t.Fatalf("Add error: %v", err)
	}

	cal, err := svc.Calendar(context.Background(), "user-1", 1, 2026)
	if err != nil {
		t.Fatalf("Calendar error: %v", err)
	}
	if len(cal) != 3 {
		t.Fatalf("expected 3 days in calendar, got %d", len(cal))
	}
	if len(cal["2026-01-10"]) != 1 || cal["2026-01-10"][0].Time != "08:00" {
		t.Fatalf("unexpected entry for 2026-01-10: %#v", cal["2026-01-10"])
	}
	if cal["2026-01-10"][0].Notes != "after meals" {
		t.Fatalf("expected medicine notes on calendar entry, got %q", cal["2026-01-10"][0].Notes)
	}
	if _, ok := cal["2026-01-09"]; ok {
		t.Fatalf("expected no entry before start date")
	}
}

func TestService_Calendar_WeeklyDoseOnlyOnItsDays(t *testing.T) {
	repo := newTestRepo()
	svc := NewService(repo)
	svc.now = func() time.Time { return time.Date(2026, 1, 6, 10, 0, 0, 0, time.UTC) }

	_, err := svc.Add(context.Background(), "user-1", AddInput{
		Name:   "Vitamin D",
		Dosage: "1000IU",
		Doses: []DoseInput{{
			Time:       "09:00",
			Frequency:  FrequencyWeekly,
			DaysOfWeek: []int{1}, // lunes
		}},
	})
	if err != nil {
		t.Fatalf("Add error: %v", err)
	}

	cal, err := svc.Calendar(context.Background(), "user-1", 1, 2026)
	if err != nil {
		t.Fatalf("Calendar error: %v", err)
	}
	// lunes de enero 2026: 5, 12, 19, 26
	if len(cal) != 4 {
		t.Fatalf("expected 4 Mondays, got %d days", len(cal))
	}
	if _, ok := cal["2026-01-05"]; !ok {
		t.Fatalf("expected entry on Monday 2026-01-05")
	}
	if _, ok := cal["2026-01-06"]; ok {
		t.Fatalf("expected no entry on Tuesday")
	}
}

func TestService_ByDate_SortedByTime(t *testing.T) {
	repo := newTestRepo()
	svc := NewService(repo)

	_, err := svc.Add(context.Background(), "user-1", AddInput{
		Name:   "Aspirin",
		Dosage: "100mg",
		Doses:  []DoseInput{{Time: "20:00"}, {Time: "08:00"}},
	})
	if err != nil {
		t.Fatalf("Add error: %v", err)
	}

	entries, err := svc.ByDate(context.Background(), "user-1", "2026-01-06")
	if err != nil {
		t.Fatalf("ByDate error: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].Time != "08:00" || entries[1].Time != "20:00" {
		t.Fatalf("expected entries sorted by time, got %#v", entries)
	}
}
