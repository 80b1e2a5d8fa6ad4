package ratings

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"care-coordination/internal/middleware"

	"github.com/go-chi/chi/v5"
)

func RegisterRoutes(r chi.Router, svc *Service) {
	r.Route("/ratings", func(r chi.Router) {
		r.Post("/", submitHandler(svc))
		r.Get("/can-rate/{targetID}", canRateHandler(svc))
		r.Get("/{targetID}", listHandler(svc))
		r.Get("/{targetID}/average", averageHandler(svc))
	})
}

type submitRequest struct {
	TargetUserID  string `json:"target_user_id"`
	Rating        int    `json:"rating"`
	Review        string `json:"review"`
	AppointmentID string `json:"appointment_id"`
	ServiceType   string `json:"service_type"`
}

type ratingResponse struct {
	ID            string    `json:"id"`
	TargetUserID  string    `json:"target_user_id"`
	RatedByID     string    `json:"rated_by_id"`
	AppointmentID string    `json:"appointment_id,omitempty"`
	Rating        int       `json:"rating"`
	Review        string    `json:"review,omitempty"`
	ServiceType   string    `json:"service_type"`
	CreatedAt     time.Time `json:"created_at"`
}

type listResponse struct {
	Ratings       []ratingResponse `json:"ratings"`
	AverageRating float64          `json:"average_rating"`
	TotalRatings  int              `json:"total_ratings"`
	Page          int              `json:"page"`
	Limit         int              `json:"limit"`
}

func submitHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := currentUser(r)
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		var req submitRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		rt, err := svc.Submit(r.Context(), userID, SubmitInput{
			TargetUserID:  req.TargetUserID,
			Value:         req.Rating,
			Review:        req.Review,
			AppointmentID: req.AppointmentID,
			ServiceType:   ServiceType(req.ServiceType),
		})
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, toResponse(rt))
	}
}

func listHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		limit := atoiDefault(q.Get("limit"), 10)
		page := atoiDefault(q.Get("page"), 1)

		items, avg, err := svc.List(r.Context(), chi.URLParam(r, "targetID"), limit, page)
		if err != nil {
			writeError(w, err)
			return
		}

		out := make([]ratingResponse, 0, len(items))
		for _, rt := range items {
			out = append(out, toResponse(rt))
		}
		writeJSON(w, http.StatusOK, listResponse{
			Ratings:       out,
			AverageRating: avg.Value,
			TotalRatings:  avg.Count,
			Page:          page,
			Limit:         limit,
		})
	}
}

func averageHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		avg, err := svc.AverageFor(r.Context(), chi.URLParam(r, "targetID"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, avg)
	}
}

func canRateHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := currentUser(r)
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		can, existing, err := svc.CanRate(r.Context(), userID,
			chi.URLParam(r, "targetID"), r.URL.Query().Get("appointment_id"))
		if err != nil {
			writeError(w, err)
			return
		}

		resp := map[string]any{"can_rate": can}
		if existing != nil {
			resp["existing_rating"] = toResponse(*existing)
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func currentUser(r *http.Request) (string, bool) {
	claims, ok := middleware.GetClaims(r.Context())
	if !ok || strings.TrimSpace(claims.UserID) == "" {
		return "", false
	}
	return claims.UserID, true
}

func atoiDefault(s string, def int) int {
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return def
	}
	return n
}

func toResponse(rt Rating) ratingResponse {
	return ratingResponse{
		ID:            rt.ID,
		TargetUserID:  rt.TargetUserID,
		RatedByID:     rt.RatedByID,
		AppointmentID: rt.AppointmentID,
		Rating:        rt.Value,
		Review:        rt.Review,
		ServiceType:   string(rt.ServiceType),
		CreatedAt:     rt.CreatedAt,
	}
}

func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, ErrInvalidInput):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

// writeJSON está duplicado a propósito en los handlers de cada módulo
// para no crear helpers compartidos antes de tiempo.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
