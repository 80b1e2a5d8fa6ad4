package medicines

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
	r.Route("/medicine", func(mr chi.Router) {
		mr.Post("/", addMedicineHandler(svc))
		mr.Get("/", listMedicinesHandler(svc))
		mr.Get("/calendar", calendarHandler(svc))
		mr.Get("/by-date", byDateHandler(svc))

		mr.Get("/{medicineID}", getMedicineHandler(svc))
		mr.Put("/{medicineID}", updateMedicineHandler(svc))
		mr.Delete("/{medicineID}", deleteMedicineHandler(svc))

		mr.Post("/{medicineID}/taken", markTakenHandler(svc))
		mr.Delete("/{medicineID}/taken", unmarkTakenHandler(svc))
	})
}

type doseRequest struct {
	Time        string `json:"time"`
	Instruction string `json:"instruction"`
	Frequency   string `json:"frequency"`
	DaysOfWeek  []int  `json:"days_of_week"`
}

type addMedicineRequest struct {
	Name      string        `json:"name"`
	Dosage    string        `json:"dosage"`
	StartDate string        `json:"start_date"` // YYYY-MM-DD opcional
	EndDate   string        `json:"end_date"`   // YYYY-MM-DD opcional
	Notes     string        `json:"notes"`
	Doses     []doseRequest `json:"doses"`
}

type updateMedicineRequest struct {
	Name      *string       `json:"name"`
	Dosage    *string       `json:"dosage"`
	StartDate *string       `json:"start_date"`
	EndDate   *string       `json:"end_date"`
	Notes     *string       `json:"notes"`
	Doses     []doseRequest `json:"doses"` // presente => reemplazo completo
}

type takenRequest struct {
	Date string `json:"date"` // YYYY-MM-DD
	Time string `json:"time"`
}

type doseResponse struct {
	ID          string `json:"id"`
	Time        string `json:"time"`
	Instruction string `json:"instruction,omitempty"`
	Frequency   string `json:"frequency"`
	DaysOfWeek  []int  `json:"days_of_week,omitempty"`
}

type takenResponse struct {
	Date     string    `json:"date"`
	Time     string    `json:"time"`
	MarkedAt time.Time `json:"marked_at"`
}

type medicineResponse struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Dosage    string          `json:"dosage"`
	StartDate *time.Time      `json:"start_date,omitempty"`
	EndDate   *time.Time      `json:"end_date,omitempty"`
	Notes     string          `json:"notes,omitempty"`
	Doses     []doseResponse  `json:"doses"`
	Taken     []takenResponse `json:"taken,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

type calendarEntryResponse struct {
	MedicineID string `json:"medicine_id"`
	Name       string `json:"name"`
	Dosage     string `json:"dosage"`
	Time       string `json:"time"`
	Notes      string `json:"notes,omitempty"`
}

func addMedicineHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		var req addMedicineRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		start, err := parseOptionalDate(req.StartDate)
		if err != nil {
			http.Error(w, "start_date must be YYYY-MM-DD", http.StatusBadRequest)
			return
		}
		end, err := parseOptionalDate(req.EndDate)
		if err != nil {
			http.Error(w, "end_date must be YYYY-MM-DD", http.StatusBadRequest)
			return
		}

		m, err := svc.Add(r.Context(), claims.UserID, AddInput{
			Name:      req.Name,
			Dosage:    req.Dosage,
			StartDate: start,
			EndDate:   end,
			Notes:     req.Notes,
			Doses:     toDoseInputs(req.Doses),
		})
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		writeJSON(w, http.StatusCreated, toMedicineResponse(m))
	}
}

func listMedicinesHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		items, err := svc.ListActive(r.Context(), claims.UserID)
		if err != nil {
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		out := make([]medicineResponse, 0, len(items))
		for _, m := range items {
			out = append(out, toMedicineResponse(m))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func calendarHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		month, _ := strconv.Atoi(r.URL.Query().Get("month"))
		year, _ := strconv.Atoi(r.URL.Query().Get("year"))

		cal, err := svc.Calendar(r.Context(), claims.UserID, month, year)
		if err != nil {
			if errors.Is(err, ErrInvalidInput) {
				http.Error(w, "month and year are required", http.StatusBadRequest)
				return
			}
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		out := make(map[string][]calendarEntryResponse, len(cal))
		for day, entries := range cal {
			for _, e := range entries {
				out[day] = append(out[day], toCalendarEntryResponse(e))
			}
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func byDateHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		entries, err := svc.ByDate(r.Context(), claims.UserID, r.URL.Query().Get("date"))
		if err != nil {
			if errors.Is(err, ErrInvalidInput) {
				http.Error(w, "date must be YYYY-MM-DD", http.StatusBadRequest)
				return
			}
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		out := make([]calendarEntryResponse, 0, len(entries))
		for _, e := range entries {
			out = append(out, toCalendarEntryResponse(e))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func getMedicineHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		m, err := svc.Get(r.Context(), claims.UserID, chi.URLParam(r, "medicineID"))
		if err != nil {
			writeMedicineError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toMedicineResponse(m))
	}
}

func updateMedicineHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		// Para distinguir "doses ausente" de "doses: []" decodificamos a
		// map primero; un array vacío borra todas las tomas.
		var raw map[string]json.RawMessage
		if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}
		b, _ := json.Marshal(raw)
		var req updateMedicineRequest
		if err := json.Unmarshal(b, &req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		in := UpdateInput{
			Name:   req.Name,
			Dosage: req.Dosage,
			Notes:  req.Notes,
		}

		if req.StartDate != nil {
			t, err := parseOptionalDate(*req.StartDate)
			if err != nil {
				http.Error(w, "start_date must be YYYY-MM-DD", http.StatusBadRequest)
				return
			}
			in.StartDate = t
		}
		if req.EndDate != nil {
			t, err := parseOptionalDate(*req.EndDate)
			if err != nil {
				http.Error(w, "end_date must be YYYY-MM-DD", http.StatusBadRequest)
				return
			}
			in.EndDate = t
		}
		if _, present := raw["doses"]; present {
			in.Doses = toDoseInputs(req.Doses)
			if in.Doses == nil {
				in.Doses = []DoseInput{}
			}
		}

		m, err := svc.Update(r.Context(), claims.UserID, chi.URLParam(r, "medicineID"), in)
		if err != nil {
			writeMedicineError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toMedicineResponse(m))
	}
}

func deleteMedicineHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		if err := svc.SoftDelete(r.Context(), claims.UserID, chi.URLParam(r, "medicineID")); err != nil {
			writeMedicineError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"success": true})
	}
}

func markTakenHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		var req takenRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		err := svc.MarkTaken(r.Context(), claims.UserID, chi.URLParam(r, "medicineID"), req.Date, req.Time)
		if err != nil {
			if errors.Is(err, ErrAlreadyMarked) {
				http.Error(w, err.Error(), http.StatusConflict)
				return
			}
			writeMedicineError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"success": true})
	}
}

func unmarkTakenHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		q := r.URL.Query()
		err := svc.UnmarkTaken(r.Context(), claims.UserID, chi.URLParam(r, "medicineID"), q.Get("date"), q.Get("time"))
		if err != nil {
			if errors.Is(err, ErrNotMarked) {
				http.Error(w, err.Error(), http.StatusNotFound)
				return
			}
			writeMedicineError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"success": true})
	}
}

func writeMedicineError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrInvalidInput):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, ErrNotFound):
		http.Error(w, "medicine not found", http.StatusNotFound)
	case errors.Is(err, ErrForbidden):
		http.Error(w, "forbidden", http.StatusForbidden)
	default:
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func parseOptionalDate(s string) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func toDoseInputs(in []doseRequest) []DoseInput {
	if in == nil {
		return nil
	}
	out := make([]DoseInput, 0, len(in))
	for _, d := range in {
		out = append(out, DoseInput{
			Time:        d.Time,
			Instruction: d.Instruction,
			Frequency:   Frequency(strings.TrimSpace(d.Frequency)),
			DaysOfWeek:  d.DaysOfWeek,
		})
	}
	return out
}

func toMedicineResponse(m Medicine) medicineResponse {
	doses := make([]doseResponse, 0, len(m.Doses))
	for _, d := range m.Doses {
		doses = append(doses, doseResponse{
			ID:          d.ID,
			Time:        d.Time,
			Instruction: d.Instruction,
			Frequency:   string(d.Frequency),
			DaysOfWeek:  d.DaysOfWeek,
		})
	}

	taken := make([]takenResponse, 0, len(m.Taken))
	for _, rec := range m.Taken {
		taken = append(taken, takenResponse{Date: rec.Date, Time: rec.Time, MarkedAt: rec.MarkedAt})
	}

	return medicineResponse{
		ID:        m.ID,
		Name:      m.Name,
		Dosage:    m.Dosage,
		StartDate: m.StartDate,
		EndDate:   m.EndDate,
		Notes:     m.Notes,
		Doses:     doses,
		Taken:     taken,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

func toCalendarEntryResponse(e CalendarEntry) calendarEntryResponse {
	return calendarEntryResponse{
		MedicineID: e.MedicineID,
		Name:       e.Name,
		Dosage:     e.Dosage,
		Time:       e.Time,
		Notes:      e.Notes,
	}
}

// writeJSON está duplicado a propósito en los handlers de cada módulo
// para no crear helpers compartidos antes de tiempo.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
