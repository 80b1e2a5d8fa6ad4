package users

import (
	"context"
	"errors"
	"testing"
)

// -------------------------
// Test repo (in-memory)
// -------------------------

var errRepoNotFound = errors.New("repo: not found")

type testRepo struct {
	byID    map[string]User
	byEmail map[string]string
}

func newTestRepo() *testRepo {
	return &testRepo{byID: map[string]User{}, byEmail: map[string]string{}}
}

func (r *testRepo) Create(ctx context.Context, u User) error {
	if u.ID == "" {
		return errors.New("repo: id required")
	}
	r.byID[u.ID] = u
	r.byEmail[u.Email] = u.ID
	return nil
}

func (r *testRepo) Update(ctx context.Context, u User) error {
	if _, ok := r.byID[u.ID]; !ok {
		return errRepoNotFound
	}
	r.byID[u.ID] = u
	return nil
}

func (r *testRepo) GetByID(ctx context.Context, id string) (User, error) {
	u, ok := r.byID[id]
	if !ok {
		return User{}, errRepoNotFound
	}
	return u, nil
}

func (r *testRepo) GetByEmail(ctx context.Context, email string) (User, error) {
	id, ok := r.byEmail[email]
	if !ok {
		return User{}, errRepoNotFound
	}
	return r.byID[id], nil
}

func (r *testRepo) ListByRole(ctx context.Context, role Role) ([]User, error) {
	out := make([]User, 0)
	for _, u := range r.byID {
		if u.Role == role {
			out = append(out, u)
		}
	}
	return out, nil
}

type testOnboarder struct {
	registered []string
}

func (o *testOnboarder) RegisterOnSignup(ctx context.Context, u User) {
	o.registered = append(o.registered, u.ID)
}

func validRegister() RegisterInput {
	return RegisterInput{
		FullName: "Jane Doe",
		Email:    "jane@example.com",
		Phone:    "9876543210",
		Password: "secret1",
		Role:     RolePatient,
	}
}

// -------------------------
// Tests
// -------------------------

func TestService_Register_HashesPasswordAndOnboards(t *testing.T) {
	repo := newTestRepo()
	svc := NewService(repo)
	onboarder := &testOnboarder{}
	svc.SetOnboarder(onboarder)

	u, err := svc.Register(context.Background(), validRegister())
	if err != nil {
		t.Fatalf("Register error: %v", err)
	}
	if u.PasswordHash == "secret1" || u.PasswordHash == "" {
		t.Fatalf("expected password hashed")
	}
	if len(onboarder.registered) != 1 || onboarder.registered[0] != u.ID {
		t.Fatalf("expected onboarder called with new user, got %#v", onboarder.registered)
	}
}

func TestService_Register_NormalizesEmail(t *testing.T) {
	repo := newTestRepo()
	svc := NewService(repo)

	in := validRegister()
	in.Email = "  Jane@Example.COM "
	u, err := svc.Register(context.Background(), in)
	if err != nil {
		t.Fatalf("Register error: %v", err)
	}
	if u.Email != "jane@example.com" {
		t.Fatalf("expected normalized email, got %q", u.Email)
	}
}

func TestService_Register_DuplicateEmail(t *testing.T) {
	repo := newTestRepo()
	svc := NewService(repo)

	if _, err := svc.Register(context.Background(), validRegister()); err != nil {
		t.Fatalf("Register #1 error: %v", err)
	}
	if _, err := svc.Register(context.Background(), validRegister()); !errors.Is(err, ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}
}

func TestService_Register_Validation(t *testing.T) {
	svc := NewService(newTestRepo())

	cases := []func(*RegisterInput){
		func(in *RegisterInput) { in.FullName = "" },
		func(in *RegisterInput) { in.Email = "not-an-email" },
		func(in *RegisterInput) { in.Phone = "123" },
		func(in *RegisterInput) { in.Password = "short" },
		func(in *RegisterInput) { in.Role = "admin" },
	}
	for i, mutate := range cases {
		in := validRegister()
		mutate(&in)
		if _, err := svc.Register(context.Background(), in); !errors.Is(err, ErrInvalidInput) {
			t.Errorf("case %d: expected ErrInvalidInput, got %v", i, err)
		}
	}
}

func TestService_Login(t *testing.T) {
	repo := newTestRepo()
	svc := NewService(repo)

	if _, err := svc.Register(context.Background(), validRegister()); err != nil {
		t.Fatalf("Register error: %v", err)
	}

	if _, err := svc.Login(context.Background(), "jane@example.com", "secret1"); err != nil {
		t.Fatalf("Login error: %v", err)
	}
	// mayúsculas en el email no importan
	if _, err := svc.Login(context.Background(), "JANE@example.com", "secret1"); err != nil {
		t.Fatalf("Login with uppercase email error: %v", err)
	}
	if _, err := svc.Login(context.Background(), "jane@example.com", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if _, err := svc.Login(context.Background(), "nobody@example.com", "secret1"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for unknown email, got %v", err)
	}
}

func TestService_UpdateProfile_DoctorCompleteness(t *testing.T) {
	repo := newTestRepo()
	svc := NewService(repo)

	in := validRegister()
	in.Role = RoleDoctor
	u, err := svc.Register(context.Background(), in)
	if err != nil {
		t.Fatalf("Register error: %v", err)
	}

	spec := "Cardiology"
	updated, err := svc.UpdateProfile(context.Background(), u.ID, ProfileInput{Specialization: &spec})
	if err != nil {
		t.Fatalf("UpdateProfile error: %v", err)
	}
	if updated.ProfileComplete {
		t.Fatalf("expected incomplete profile without clinic name")
	}

	clinic := "Heart Care"
	updated, err = svc.UpdateProfile(context.Background(), u.ID, ProfileInput{ClinicName: &clinic})
	if err != nil {
		t.Fatalf("UpdateProfile error: %v", err)
	}
	if !updated.ProfileComplete {
		t.Fatalf("expected complete profile with specialization and clinic")
	}
}

func TestService_UpdateProfile_AvailabilityValidation(t *testing.T) {
	repo := newTestRepo()
	svc := NewService(repo)

	in := validRegister()
	in.Role = RoleDoctor
	u, _ := svc.Register(context.Background(), in)

	good := []Availability{{Day: "Monday", From: "09:00", To: "13:00"}}
	updated, err := svc.UpdateProfile(context.Background(), u.ID, ProfileInput{Availability: &good})
	if err != nil {
		t.Fatalf("UpdateProfile error: %v", err)
	}
	if len(updated.Availability) != 1 {
		t.Fatalf("expected availability saved, got %#v", updated.Availability)
	}

	bad := [][]Availability{
		{{Day: "Lunes", From: "09:00", To: "13:00"}},
		{{Day: "Monday", From: "9am", To: "13:00"}},
		{{Day: "Monday", From: "13:00", To: "09:00"}},
		{{Day: "Monday", From: "09:00", To: "09:00"}},
	}
	for i, av := range bad {
		if _, err := svc.UpdateProfile(context.Background(), u.ID, ProfileInput{Availability: &av}); !errors.Is(err, ErrInvalidInput) {
			t.Errorf("case %d: expected ErrInvalidInput, got %v", i, err)
		}
	}
}

func TestService_DeviceTokens(t *testing.T) {
	repo := newTestRepo()
	svc := NewService(repo)

	u, err := svc.Register(context.Background(), validRegister())
	if err != nil {
		t.Fatalf("Register error: %v", err)
	}

	if err := svc.SaveDeviceToken(context.Background(), u.ID, "tok-1", "android"); err != nil {
		t.Fatalf("SaveDeviceToken error: %v", err)
	}
	if err := svc.SaveDeviceToken(context.Background(), u.ID, "tok-2", "ios"); err != nil {
		t.Fatalf("SaveDeviceToken error: %v", err)
	}
	// re-registro del mismo token no duplica
	if err := svc.SaveDeviceToken(context.Background(), u.ID, "tok-1", "android"); err != nil {
		t.Fatalf("SaveDeviceToken error: %v", err)
	}

	tokens, err := svc.PushTokens(context.Background(), u.ID)
	if err != nil {
		t.Fatalf("PushTokens error: %v", err)
	}
	if len(tokens) != 2 {
		t.Fatalf("expected 2 distinct tokens, got %#v", tokens)
	}
	// el primario es el último registrado
	if tokens[0] != "tok-1" {
		t.Fatalf("expected primary token first, got %#v", tokens)
	}

	if err := svc.RemoveDeviceToken(context.Background(), u.ID, "tok-1"); err != nil {
		t.Fatalf("RemoveDeviceToken error: %v", err)
	}
	tokens, _ = svc.PushTokens(context.Background(), u.ID)
	if len(tokens) != 1 || tokens[0] != "tok-2" {
		t.Fatalf("expected only tok-2 left, got %#v", tokens)
	}

	// ClearToken es best-effort, no explota con usuario inexistente
	svc.ClearToken(context.Background(), "ghost", "tok-1")
}
