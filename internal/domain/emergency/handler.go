package emergency

import (
	"encoding/json"
	"net/http"
	"strings"

	"care-coordination/internal/middleware"

	"github.com/go-chi/chi/v5"
	qrcode "github.com/skip2/go-qrcode"
)

func RegisterRoutes(r chi.Router, svc *Service) {
	r.Route("/emergency", func(r chi.Router) {
		r.Post("/sync", syncHandler(svc))
		r.Get("/qr-url", qrURLHandler(svc))
		r.Get("/qr.png", qrImageHandler(svc))
		r.Get("/status", statusHandler(svc))
	})
}

type syncRequest struct {
	HealthProfile *HealthProfile `json:"health_profile"`
}

func syncHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := currentUser(r)
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		var req syncRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.HealthProfile == nil {
			http.Error(w, "health_profile is required", http.StatusBadRequest)
			return
		}

		// el sync fallido también responde 200: la ficha local ya quedó
		writeJSON(w, http.StatusOK, svc.Sync(r.Context(), userID, *req.HealthProfile))
	}
}

func qrURLHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := currentUser(r)
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		url, err := svc.QRURL(r.Context(), userID)
		if err != nil {
			http.Error(w, "emergency service unavailable", http.StatusServiceUnavailable)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"qr_url": url})
	}
}

// qrImageHandler renderiza el QR localmente: si el servicio de
// emergencias está caído la app igual no tendría URL, pero cuando está
// arriba no hace falta otro round-trip para la imagen.
func qrImageHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := currentUser(r)
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		url, err := svc.QRURL(r.Context(), userID)
		if err != nil {
			http.Error(w, "emergency service unavailable", http.StatusServiceUnavailable)
			return
		}

		png, err := qrcode.Encode(url, qrcode.Medium, 256)
		if err != nil {
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "image/png")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(png)
	}
}

func statusHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, svc.Health(r.Context()))
	}
}

func currentUser(r *http.Request) (string, bool) {
	claims, ok := middleware.GetClaims(r.Context())
	if !ok || strings.TrimSpace(claims.UserID) == "" {
		return "", false
	}
	return claims.UserID, true
}

// writeJSON está duplicado a propósito en los handlers de cada módulo
// para no crear helpers compartidos antes de tiempo.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
