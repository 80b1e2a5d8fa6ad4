package users

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidInput       = errors.New("invalid input")
	ErrNotFound           = errors.New("not found")
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

var phoneRe = regexp.MustCompile(`^[0-9]{10}$`)

// Onboarder replica el alta en sistemas externos (ficha de emergencia).
// Best-effort: el alta local ya está confirmada cuando corre.
type Onboarder interface {
	RegisterOnSignup(ctx context.Context, u User)
}

type Service struct {
	repo      Repository
	onboarder Onboarder
	now       func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{
		repo: repo,
		now:  time.Now,
	}
}

// SetOnboarder se llama en el wiring; users no puede depender del
// paquete de emergencias porque este ya depende de users.
func (s *Service) SetOnboarder(o Onboarder) { s.onboarder = o }

type RegisterInput struct {
	FullName string
	Email    string
	Phone    string
	Password string
	Role     Role
}

func (s *Service) Register(ctx context.Context, in RegisterInput) (User, error) {
	name := strings.TrimSpace(in.FullName)
	email := strings.ToLower(strings.TrimSpace(in.Email))
	phone := strings.TrimSpace(in.Phone)

	if name == "" || email == "" || !strings.Contains(email, "@") {
		return User{}, ErrInvalidInput
	}
	if !phoneRe.MatchString(phone) {
		return User{}, ErrInvalidInput
	}
	if len(in.Password) < 6 {
		return User{}, ErrInvalidInput
	}
	if !ValidRole(in.Role) {
		return User{}, ErrInvalidInput
	}

	if _, err := s.repo.GetByEmail(ctx, email); err == nil {
		return User{}, ErrEmailTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return User{}, err
	}

	now := s.now()
	u := User{
		ID:           uuid.NewString(),
		FullName:     name,
		Email:        email,
		Phone:        phone,
		PasswordHash: string(hash),
		Role:         in.Role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.repo.Create(ctx, u); err != nil {
		return User{}, err
	}

	if s.onboarder != nil {
		s.onboarder.RegisterOnSignup(ctx, u)
	}
	return u, nil
}

func (s *Service) Login(ctx context.Context, email, password string) (User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return User{}, ErrInvalidCredentials
	}

	u, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		return User{}, ErrInvalidCredentials
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return User{}, ErrInvalidCredentials
	}
	return u, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (User, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return User{}, ErrInvalidInput
	}
	return s.repo.GetByID(ctx, id)
}

func (s *Service) ListByRole(ctx context.Context, role Role) ([]User, error) {
	if !ValidRole(role) {
		return nil, ErrInvalidInput
	}
	return s.repo.ListByRole(ctx, role)
}

type ProfileInput struct {
	Specialization  *string
	ClinicName      *string
	ClinicAddress   *string
	Availability    *[]Availability
	PharmacyName    *string
	PharmacyAddress *string
}

var weekdayNames = map[string]struct{}{
	"Sunday": {}, "Monday": {}, "Tuesday": {}, "Wednesday": {},
	"Thursday": {}, "Friday": {}, "Saturday": {},
}

var clockRe = regexp.MustCompile(`^([01][0-9]|2[0-3]):[0-5][0-9]$`)

func validAvailability(av []Availability) bool {
	for _, a := range av {
		if _, ok := weekdayNames[a.Day]; !ok {
			return false
		}
		if !clockRe.MatchString(a.From) || !clockRe.MatchString(a.To) {
			return false
		}
		if a.From >= a.To {
			return false
		}
	}
	return true
}

// UpdateProfile aplica un PATCH parcial sobre los campos profesionales.
func (s *Service) UpdateProfile(ctx context.Context, userID string, in ProfileInput) (User, error) {
	u, err := s.GetByID(ctx, userID)
	if err != nil {
		return User{}, err
	}

	if in.Specialization != nil {
		u.Specialization = strings.TrimSpace(*in.Specialization)
	}
	if in.ClinicName != nil {
		u.ClinicName = strings.TrimSpace(*in.ClinicName)
	}
	if in.ClinicAddress != nil {
		u.ClinicAddress = strings.TrimSpace(*in.ClinicAddress)
	}
	if in.Availability != nil {
		if !validAvailability(*in.Availability) {
			return User{}, ErrInvalidInput
		}
		u.Availability = *in.Availability
	}
	if in.PharmacyName != nil {
		u.PharmacyName = strings.TrimSpace(*in.PharmacyName)
	}
	if in.PharmacyAddress != nil {
		u.PharmacyAddress = strings.TrimSpace(*in.PharmacyAddress)
	}

	u.ProfileComplete = profileComplete(u)
	u.UpdatedAt = s.now()

	if err := s.repo.Update(ctx, u); err != nil {
		return User{}, err
	}
	return u, nil
}

func profileComplete(u User) bool {
	switch u.Role {
	case RoleDoctor:
		return u.Specialization != "" && u.ClinicName != ""
	case RolePharmacist:
		return u.PharmacyName != ""
	default:
		return true
	}
}

// SaveDeviceToken registra (o refresca) el token push de un dispositivo.
// El token queda además como primario, igual que hacía la app móvil.
func (s *Service) SaveDeviceToken(ctx context.Context, userID, token, device string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return ErrInvalidInput
	}
	if device = strings.TrimSpace(device); device == "" {
		device = "unknown"
	}

	u, err := s.GetByID(ctx, userID)
	if err != nil {
		return err
	}

	now := s.now()
	found := false
	for i := range u.DeviceTokens {
		if u.DeviceTokens[i].Token == token {
			u.DeviceTokens[i].Device = device
			u.DeviceTokens[i].UpdatedAt = now
			found = true
			break
		}
	}
	if !found {
		u.DeviceTokens = append(u.DeviceTokens, DeviceToken{
			Token:     token,
			Device:    device,
			UpdatedAt: now,
		})
	}

	u.FCMToken = token
	u.UpdatedAt = now
	return s.repo.Update(ctx, u)
}

// RemoveDeviceToken borra un token (logout del dispositivo).
func (s *Service) RemoveDeviceToken(ctx context.Context, userID, token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return ErrInvalidInput
	}

	u, err := s.GetByID(ctx, userID)
	if err != nil {
		return err
	}

	out := u.DeviceTokens[:0]
	for _, dt := range u.DeviceTokens {
		if dt.Token != token {
			out = append(out, dt)
		}
	}
	u.DeviceTokens = out
	if u.FCMToken == token {
		u.FCMToken = ""
	}
	u.UpdatedAt = s.now()
	return s.repo.Update(ctx, u)
}

// PushTokens devuelve los destinos push del usuario, sin duplicados.
// Lista vacía no es error: el caller decide si loguear y seguir.
func (s *Service) PushTokens(ctx context.Context, userID string) ([]string, error) {
	u, err := s.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	seen := map[string]struct{}{}
	tokens := make([]string, 0, len(u.DeviceTokens)+1)
	if u.FCMToken != "" {
		seen[u.FCMToken] = struct{}{}
		tokens = append(tokens, u.FCMToken)
	}
	for _, dt := range u.DeviceTokens {
		if dt.Token == "" {
			continue
		}
		if _, ok := seen[dt.Token]; ok {
			continue
		}
		seen[dt.Token] = struct{}{}
		tokens = append(tokens, dt.Token)
	}
	return tokens, nil
}

// ClearToken saca un token vencido reportado por el gateway push.
// Best-effort: si el usuario no existe ya no hay nada que limpiar.
func (s *Service) ClearToken(ctx context.Context, userID, token string) {
	_ = s.RemoveDeviceToken(ctx, userID, token)
}
