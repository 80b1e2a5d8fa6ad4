package users

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"care-coordination/internal/middleware"

	"github.com/go-chi/chi/v5"
)

// TokenIssuer firma un token de sesión. Implementado por el adapter JWT;
// en tests se puede usar un fake.
type TokenIssuer interface {
	Issue(userID, email, role string) (string, error)
}

func RegisterRoutes(r chi.Router, svc *Service, issuer TokenIssuer) {
	r.Post("/auth/register", registerHandler(svc, issuer))
	r.Post("/auth/login", loginHandler(svc, issuer))

	r.Get("/me", meHandler(svc))
	r.Patch("/me/profile", updateProfileHandler(svc))

	// Directorio público (la app lo usa sin sesión para browse)
	r.Get("/users/doctors", listByRoleHandler(svc, RoleDoctor))
	r.Get("/users/doctors/{userID}", getByRoleHandler(svc, RoleDoctor))
	r.Get("/users/pharmacists", listByRoleHandler(svc, RolePharmacist))
	r.Get("/users/pharmacists/{userID}", getByRoleHandler(svc, RolePharmacist))

	// Tokens push por dispositivo
	r.Post("/fcm/token", saveTokenHandler(svc))
	r.Delete("/fcm/token", removeTokenHandler(svc))
}

type registerRequest struct {
	FullName string `json:"full_name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type authResponse struct {
	Token string       `json:"token"`
	User  userResponse `json:"user"`
}

type userResponse struct {
	ID       string `json:"id"`
	FullName string `json:"full_name"`
	Email    string `json:"email,omitempty"`
	Phone    string `json:"phone,omitempty"`
	Role     string `json:"role"`

	Specialization  string             `json:"specialization,omitempty"`
	ClinicName      string             `json:"clinic_name,omitempty"`
	ClinicAddress   string             `json:"clinic_address,omitempty"`
	Availability    []availabilityItem `json:"availability,omitempty"`
	PharmacyName    string             `json:"pharmacy_name,omitempty"`
	PharmacyAddress string             `json:"pharmacy_address,omitempty"`

	ProfileComplete bool      `json:"profile_complete"`
	CreatedAt       time.Time `json:"created_at"`
}

type availabilityItem struct {
	Day  string `json:"day"`
	From string `json:"from"`
	To   string `json:"to"`
}

type profileRequest struct {
	Specialization  *string             `json:"specialization"`
	ClinicName      *string             `json:"clinic_name"`
	ClinicAddress   *string             `json:"clinic_address"`
	Availability    *[]availabilityItem `json:"availability"`
	PharmacyName    *string             `json:"pharmacy_name"`
	PharmacyAddress *string             `json:"pharmacy_address"`
}

type tokenRequest struct {
	Token  string `json:"token"`
	Device string `json:"device"`
}

func registerHandler(svc *Service, issuer TokenIssuer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req registerRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		u, err := svc.Register(r.Context(), RegisterInput{
			FullName: req.FullName,
			Email:    req.Email,
			Phone:    req.Phone,
			Password: req.Password,
			Role:     Role(strings.TrimSpace(req.Role)),
		})
		if err != nil {
			switch {
			case errors.Is(err, ErrEmailTaken):
				http.Error(w, err.Error(), http.StatusConflict)
			case errors.Is(err, ErrInvalidInput):
				http.Error(w, err.Error(), http.StatusBadRequest)
			default:
				http.Error(w, "internal error", http.StatusInternalServerError)
			}
			return
		}

		token, err := issueToken(issuer, u)
		if err != nil {
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		writeJSON(w, http.StatusCreated, authResponse{Token: token, User: toUserResponse(u, true)})
	}
}

func loginHandler(svc *Service, issuer TokenIssuer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req loginRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		u, err := svc.Login(r.Context(), req.Email, req.Password)
		if err != nil {
			http.Error(w, "invalid credentials", http.StatusUnauthorized)
			return
		}

		token, err := issueToken(issuer, u)
		if err != nil {
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		writeJSON(w, http.StatusOK, authResponse{Token: token, User: toUserResponse(u, true)})
	}
}

func meHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		u, err := svc.GetByID(r.Context(), claims.UserID)
		if err != nil {
			http.Error(w, "user not found", http.StatusNotFound)
			return
		}
		writeJSON(w, http.StatusOK, toUserResponse(u, true))
	}
}

func updateProfileHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		var req profileRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		in := ProfileInput{
			Specialization:  req.Specialization,
			ClinicName:      req.ClinicName,
			ClinicAddress:   req.ClinicAddress,
			PharmacyName:    req.PharmacyName,
			PharmacyAddress: req.PharmacyAddress,
		}
		if req.Availability != nil {
			av := make([]Availability, 0, len(*req.Availability))
			for _, item := range *req.Availability {
				av = append(av, Availability{Day: item.Day, From: item.From, To: item.To})
			}
			in.Availability = &av
		}

		u, err := svc.UpdateProfile(r.Context(), claims.UserID, in)
		if err != nil {
			switch {
			case errors.Is(err, ErrNotFound):
				http.Error(w, "user not found", http.StatusNotFound)
			case errors.Is(err, ErrInvalidInput):
				http.Error(w, "invalid availability", http.StatusBadRequest)
			default:
				http.Error(w, "internal error", http.StatusInternalServerError)
			}
			return
		}
		writeJSON(w, http.StatusOK, toUserResponse(u, true))
	}
}

func listByRoleHandler(svc *Service, role Role) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		items, err := svc.ListByRole(r.Context(), role)
		if err != nil {
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		out := make([]userResponse, 0, len(items))
		for _, u := range items {
			out = append(out, toUserResponse(u, false))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func getByRoleHandler(svc *Service, role Role) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		u, err := svc.GetByID(r.Context(), chi.URLParam(r, "userID"))
		if err != nil || u.Role != role {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		writeJSON(w, http.StatusOK, toUserResponse(u, false))
	}
}

func saveTokenHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		var req tokenRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		if err := svc.SaveDeviceToken(r.Context(), claims.UserID, req.Token, req.Device); err != nil {
			if errors.Is(err, ErrInvalidInput) {
				http.Error(w, "token is required", http.StatusBadRequest)
				return
			}
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"success": true})
	}
}

func removeTokenHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		var req tokenRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		if err := svc.RemoveDeviceToken(r.Context(), claims.UserID, req.Token); err != nil {
			if errors.Is(err, ErrInvalidInput) {
				http.Error(w, "token is required", http.StatusBadRequest)
				return
			}
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"success": true})
	}
}

func issueToken(issuer TokenIssuer, u User) (string, error) {
	if issuer == nil {
		// modo dev sin JWT configurado
		return "", nil
	}
	return issuer.Issue(u.ID, u.Email, string(u.Role))
}

// withEmail: el perfil propio incluye email/phone; el directorio público no.
func toUserResponse(u User, withContact bool) userResponse {
	out := userResponse{
		ID:              u.ID,
		FullName:        u.FullName,
		Role:            string(u.Role),
		Specialization:  u.Specialization,
		ClinicName:      u.ClinicName,
		ClinicAddress:   u.ClinicAddress,
		PharmacyName:    u.PharmacyName,
		PharmacyAddress: u.PharmacyAddress,
		ProfileComplete: u.ProfileComplete,
		CreatedAt:       u.CreatedAt,
	}
	for _, a := range u.Availability {
		out.Availability = append(out.Availability, availabilityItem{Day: a.Day, From: a.From, To: a.To})
	}
	if withContact {
		out.Email = u.Email
		out.Phone = u.Phone
	}
	return out
}

// writeJSON está duplicado a propósito en los handlers de cada módulo
// para no crear helpers compartidos antes de tiempo.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
