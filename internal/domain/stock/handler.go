package stock

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"care-coordination/internal/middleware"

	"github.com/go-chi/chi/v5"
)

func RegisterRoutes(r chi.Router, svc *Service) {
	r.Route("/medicine-stock", func(r chi.Router) {
		r.Post("/", addHandler(svc))
		r.Get("/", listHandler(svc))
		r.Get("/search/{query}", searchHandler(svc))
		r.Get("/alerts/low-stock", lowStockHandler(svc))
		r.Get("/alerts/expiring", expiringHandler(svc))
		r.Get("/{itemID}", getHandler(svc))
		r.Put("/{itemID}", updateHandler(svc))
		r.Delete("/{itemID}", deleteHandler(svc))
		r.Patch("/{itemID}/quantity", quantityHandler(svc))
		r.Post("/{itemID}/sale", saleHandler(svc))
	})
}

const expiryLayout = "2006-01-02"

type addRequest struct {
	Name          string  `json:"name"`
	BatchNumber   string  `json:"batch_number"`
	ExpiryDate    string  `json:"expiry_date"`
	Quantity      int     `json:"quantity"`
	Price         float64 `json:"price"`
	Manufacturer  string  `json:"manufacturer"`
	Category      string  `json:"category"`
	LowStockLevel int     `json:"low_stock_level"`
}

type updateRequest struct {
	Name          *string  `json:"name"`
	BatchNumber   *string  `json:"batch_number"`
	ExpiryDate    *string  `json:"expiry_date"`
	Price         *float64 `json:"price"`
	Manufacturer  *string  `json:"manufacturer"`
	Category      *string  `json:"category"`
	LowStockLevel *int     `json:"low_stock_level"`
}

type quantityRequest struct {
	Action   string `json:"action"`
	Quantity int    `json:"quantity"`
}

type saleRequest struct {
	QuantitySold int `json:"quantity_sold"`
}

type itemResponse struct {
	ID            string  `json:"id"`
	Name          string  `json:"name"`
	BatchNumber   string  `json:"batch_number"`
	ExpiryDate    string  `json:"expiry_date"`
	Quantity      int     `json:"quantity"`
	Price         float64 `json:"price"`
	Manufacturer  string  `json:"manufacturer,omitempty"`
	Category      string  `json:"category,omitempty"`
	LowStockLevel int     `json:"low_stock_level"`
	LowStock      bool    `json:"low_stock"`
	ExpiringSoon  bool    `json:"expiring_soon"`
}

type listResponse struct {
	Items   []itemResponse `json:"items"`
	Summary Summary        `json:"summary"`
}

func addHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := currentUser(r)
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		var req addRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		expiry, err := time.Parse(expiryLayout, req.ExpiryDate)
		if err != nil {
			http.Error(w, "expiry_date must be YYYY-MM-DD", http.StatusBadRequest)
			return
		}

		item, err := svc.Add(r.Context(), userID, AddInput{
			Name:          req.Name,
			BatchNumber:   req.BatchNumber,
			ExpiryDate:    expiry,
			Quantity:      req.Quantity,
			Price:         req.Price,
			Manufacturer:  req.Manufacturer,
			Category:      req.Category,
			LowStockLevel: req.LowStockLevel,
		})
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, toItemResponse(item, time.Now()))
	}
}

func listHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := currentUser(r)
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		ov, err := svc.List(r.Context(), userID)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, listResponse{
			Items:   toItemResponses(ov.Items),
			Summary: ov.Summary,
		})
	}
}

func searchHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := currentUser(r)
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		items, err := svc.Search(r.Context(), userID, chi.URLParam(r, "query"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toItemResponses(items))
	}
}

func lowStockHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := currentUser(r)
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		items, err := svc.LowStock(r.Context(), userID)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toItemResponses(items))
	}
}

func expiringHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := currentUser(r)
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		items, err := svc.Expiring(r.Context(), userID)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toItemResponses(items))
	}
}

func getHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := currentUser(r)
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		item, err := svc.Get(r.Context(), userID, chi.URLParam(r, "itemID"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toItemResponse(item, time.Now()))
	}
}

func updateHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := currentUser(r)
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		var req updateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		in := UpdateInput{
			Name:          req.Name,
			BatchNumber:   req.BatchNumber,
			Price:         req.Price,
			Manufacturer:  req.Manufacturer,
			Category:      req.Category,
			LowStockLevel: req.LowStockLevel,
		}
		if req.ExpiryDate != nil {
			expiry, err := time.Parse(expiryLayout, *req.ExpiryDate)
			if err != nil {
				http.Error(w, "expiry_date must be YYYY-MM-DD", http.StatusBadRequest)
				return
			}
			in.ExpiryDate = &expiry
		}

		item, err := svc.Update(r.Context(), userID, chi.URLParam(r, "itemID"), in)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toItemResponse(item, time.Now()))
	}
}

func deleteHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := currentUser(r)
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		if err := svc.Delete(r.Context(), userID, chi.URLParam(r, "itemID")); err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"success": true})
	}
}

func quantityHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := currentUser(r)
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		var req quantityRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		item, err := svc.AdjustQuantity(r.Context(), userID, chi.URLParam(r, "itemID"), req.Action, req.Quantity)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toItemResponse(item, time.Now()))
	}
}

func saleHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := currentUser(r)
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		var req saleRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		item, err := svc.RecordSale(r.Context(), userID, chi.URLParam(r, "itemID"), req.QuantitySold)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toItemResponse(item, time.Now()))
	}
}

func currentUser(r *http.Request) (string, bool) {
	claims, ok := middleware.GetClaims(r.Context())
	if !ok || strings.TrimSpace(claims.UserID) == "" {
		return "", false
	}
	return claims.UserID, true
}

func toItemResponse(item Item, now time.Time) itemResponse {
	return itemResponse{
		ID:            item.ID,
		Name:          item.Name,
		BatchNumber:   item.BatchNumber,
		ExpiryDate:    item.ExpiryDate.Format(expiryLayout),
		Quantity:      item.Quantity,
		Price:         item.Price,
		Manufacturer:  item.Manufacturer,
		Category:      item.Category,
		LowStockLevel: item.LowStockLevel,
		LowStock:      item.IsLowStock(),
		ExpiringSoon:  item.IsExpiringSoon(now),
	}
}

func toItemResponses(items []Item) []itemResponse {
	now := time.Now()
	out := make([]itemResponse, 0, len(items))
	for _, item := range items {
		out = append(out, toItemResponse(item, now))
	}
	return out
}

func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, ErrForbidden):
		http.Error(w, err.Error(), http.StatusForbidden)
	case errors.Is(err, ErrInsufficient), errors.Is(err, ErrInvalidInput):
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
