package ratings

import (
	"context"
	"errors"
	"sort"
	"strings"
	"testing"

	"care-coordination/internal/domain/users"
)

// -------------------------
// Test repo (in-memory)
// -------------------------

var errRepoNotFound = errors.New("repo: not found")

type testRepo struct {
	byID map[string]Rating
}

func newTestRepo() *testRepo {
	return &testRepo{byID: map[string]Rating{}}
}

func (r *testRepo) Create(ctx context.Context, rt Rating) error {
	r.byID[rt.ID] = rt
	return nil
}

func (r *testRepo) Update(ctx context.Context, rt Rating) error {
	if _, ok := r.byID[rt.ID]; !ok {
		return errRepoNotFound
	}
	r.byID[rt.ID] = rt
	return nil
}

func (r *testRepo) Find(ctx context.Context, targetID, raterID, appointmentID string) (Rating, error) {
	for _, rt := range r.byID {
		if rt.TargetUserID != targetID || rt.RatedByID != raterID {
			continue
		}
		if appointmentID != "" && rt.AppointmentID != appointmentID {
			continue
		}
		return rt, nil
	}
	return Rating{}, errRepoNotFound
}

func (r *testRepo) ListByTarget(ctx context.Context, targetID string, limit, offset int) ([]Rating, error) {
	all := make([]Rating, 0)
	for _, rt := range r.byID {
		if rt.TargetUserID == targetID {
			all = append(all, rt)
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })

	if offset >= len(all) {
		return []Rating{}, nil
	}
	all = all[offset:]
	if limit < len(all) {
		all = all[:limit]
	}
	return all, nil
}

func (r *testRepo) Aggregate(ctx context.Context, targetID string) (float64, int, error) {
	sum, count := 0, 0
	for _, rt := range r.byID {
		if rt.TargetUserID == targetID {
			sum += rt.Value
			count++
		}
	}
	if count == 0 {
		return 0, 0, nil
	}
	return float64(sum) / float64(count), count, nil
}

type testDirectory struct {
	users map[string]users.User
}

func (d *testDirectory) GetByID(ctx context.Context, id string) (users.User, error) {
	u, ok := d.users[id]
	if !ok {
		return users.User{}, errRepoNotFound
	}
	return u, nil
}

func newTestService() (*Service, *testRepo) {
	repo := newTestRepo()
	directory := &testDirectory{users: map[string]users.User{
		"doctor-1":  {ID: "doctor-1", Role: users.RoleDoctor},
		"pharm-1":   {ID: "pharm-1", Role: users.RolePharmacist},
		"patient-1": {ID: "patient-1", Role: users.RolePatient},
	}}
	return NewService(repo, directory), repo
}

// -------------------------
// Tests
// -------------------------

func TestService_Submit_Validation(t *testing.T) {
	svc, _ := newTestService()

	cases := []SubmitInput{
		{TargetUserID: "doctor-1", Value: 0},
		{TargetUserID: "doctor-1", Value: 6},
		{TargetUserID: "ghost", Value: 4},
		{TargetUserID: "patient-1", Value: 4}, // solo doctores y farmacéuticos
		{TargetUserID: "doctor-1", Value: 4, ServiceType: "surgery"},
		{TargetUserID: "doctor-1", Value: 4, Review: strings.Repeat("x", 501)},
	}
	for i, in := range cases {
		if _, err := svc.Submit(context.Background(), "patient-1", in); err == nil {
			t.Errorf("case %d: expected error", i)
		}
	}
}

func TestService_Submit_DefaultsToGeneral(t *testing.T) {
	svc, _ := newTestService()

	r, err := svc.Submit(context.Background(), "patient-1", SubmitInput{
		TargetUserID: "doctor-1",
		Value:        4,
	})
	if err != nil {
		t.Fatalf("Submit error: %v", err)
	}
	if r.ServiceType != ServiceGeneral {
		t.Fatalf("expected general service type, got %s", r.ServiceType)
	}
}

func TestService_Submit_UpsertsPerAppointment(t *testing.T) {
	svc, repo := newTestService()

	r1, err := svc.Submit(context.Background(), "patient-1", SubmitInput{
		TargetUserID:  "doctor-1",
		Value:         3,
		AppointmentID: "appt-1",
	})
	if err != nil {
		t.Fatalf("Submit #1 error: %v", err)
	}

	r2, err := svc.Submit(context.Background(), "patient-1", SubmitInput{
		TargetUserID:  "doctor-1",
		Value:         5,
		Review:        "much better",
		AppointmentID: "appt-1",
	})
	if err != nil {
		t.Fatalf("Submit #2 error: %v", err)
	}
	if r2.ID != r1.ID {
		t.Fatalf("expected same rating updated, got %s vs %s", r1.ID, r2.ID)
	}
	if r2.Value != 5 || r2.Review != "much better" {
		t.Fatalf("unexpected updated rating: %#v", r2)
	}
	if len(repo.byID) != 1 {
		t.Fatalf("expected a single stored rating, got %d", len(repo.byID))
	}

	// otro turno del mismo par crea una fila nueva
	r3, err := svc.Submit(context.Background(), "patient-1", SubmitInput{
		TargetUserID:  "doctor-1",
		Value:         4,
		AppointmentID: "appt-2",
	})
	if err != nil {
		t.Fatalf("Submit #3 error: %v", err)
	}
	if r3.ID == r1.ID {
		t.Fatalf("expected new rating for different appointment")
	}
}

func TestService_AverageFor_RoundsToOneDecimal(t *testing.T) {
	svc, _ := newTestService()

	for i, v := range []int{5, 4, 4} { // promedio 4.333...
		if _, err := svc.Submit(context.Background(), "patient-1", SubmitInput{
			TargetUserID:  "doctor-1",
			Value:         v,
			AppointmentID: "appt-" + string(rune('a'+i)),
		}); err != nil {
			t.Fatalf("Submit error: %v", err)
		}
	}

	avg, err := svc.AverageFor(context.Background(), "doctor-1")
	if err != nil {
		t.Fatalf("AverageFor error: %v", err)
	}
	if avg.Value != 4.3 || avg.Count != 3 {
		t.Fatalf("expected 4.3 over 3, got %#v", avg)
	}
}

func TestService_AverageFor_NoRatings(t *testing.T) {
	svc, _ := newTestService()

	avg, err := svc.AverageFor(context.Background(), "doctor-1")
	if err != nil {
		t.Fatalf("AverageFor error: %v", err)
	}
	if avg.Value != 0 || avg.Count != 0 {
		t.Fatalf("expected zero average, got %#v", avg)
	}
}

func TestService_CanRate(t *testing.T) {
	svc, _ := newTestService()

	ok, prev, err := svc.CanRate(context.Background(), "patient-1", "doctor-1", "appt-1")
	if err != nil || !ok || prev != nil {
		t.Fatalf("expected can rate before submitting, got ok=%v prev=%v err=%v", ok, prev, err)
	}

	if _, err := svc.Submit(context.Background(), "patient-1", SubmitInput{
		TargetUserID:  "doctor-1",
		Value:         4,
		AppointmentID: "appt-1",
	}); err != nil {
		t.Fatalf("Submit error: %v", err)
	}

	ok, prev, err = svc.CanRate(context.Background(), "patient-1", "doctor-1", "appt-1")
	if err != nil {
		t.Fatalf("CanRate error: %v", err)
	}
	if ok || prev == nil || prev.Value != 4 {
		t.Fatalf("expected existing rating reported, got ok=%v prev=%#v", ok, prev)
	}
}

func TestService_List_Paginates(t *testing.T) {
	svc, _ := newTestService()

	for i := 0; i < 5; i++ {
		if _, err := svc.Submit(context.Background(), "patient-1", SubmitInput{
			TargetUserID:  "pharm-1",
			Value:         5,
			AppointmentID: "appt-" + string(rune('a'+i)),
		}); err != nil {
			t.Fatalf("Submit error: %v", err)
		}
	}

	items, avg, err := svc.List(context.Background(), "pharm-1", 2, 1)
	if err != nil {
		t.Fatalf("List error: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected page of 2, got %d", len(items))
	}
	if avg.Count != 5 || avg.Value != 5 {
		t.Fatalf("unexpected average: %#v", avg)
	}

	items, _, err = svc.List(context.Background(), "pharm-1", 2, 3)
	if err != nil {
		t.Fatalf("List page 3 error: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("expected last page of 1, got %d", len(items))
	}
}
