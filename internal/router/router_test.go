package router_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"care-coordination/internal/router"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	handler, _ := router.NewRouter(router.Options{AuthVerifier: nil}) // modo dev
	ts := httptest.NewServer(handler)
	t.Cleanup(ts.Close)
	return ts
}

func TestHTTP_EndToEnd_AppointmentFlow(t *testing.T) {
	ts := newTestServer(t)

	patientID := registerUser(t, ts.URL, "Pat Doe", "pat@example.com", "patient")
	doctorID := registerUser(t, ts.URL, "Greg House", "greg@example.com", "doctor")

	// 1) El doctor configura su franja del martes
	{
		st, body := doReq(t, ts.URL, "PATCH", "/me/profile", doctorID, map[string]any{
			"specialization": "Cardiology",
			"clinic_name":    "Heart Care",
			"availability": []map[string]string{
				{"day": "Tuesday", "from": "09:00", "to": "10:00"},
			},
		})
		if st != http.StatusOK {
			t.Fatalf("expected 200 profile update, got %d body=%s", st, string(body))
		}
	}

	// 2) 2026-01-06 es martes: dos slots de 30min
	{
		st, body := doReq(t, ts.URL, "GET", "/appointments/slots?doctor_id="+doctorID+"&date=2026-01-06", patientID, nil)
		if st != http.StatusOK {
			t.Fatalf("expected 200 slots, got %d body=%s", st, string(body))
		}
		var resp struct {
			Slots []string `json:"slots"`
		}
		_ = json.Unmarshal(body, &resp)
		if len(resp.Slots) != 2 || resp.Slots[0] != "09:00" || resp.Slots[1] != "09:30" {
			t.Fatalf("unexpected slots: %#v", resp.Slots)
		}
	}

	// 3) El paciente reserva
	var apptID string
	{
		st, body := doReq(t, ts.URL, "POST", "/appointments/book", patientID, map[string]any{
			"doctor_id": doctorID,
			"date":      "2026-01-06",
			"time":      "09:00",
			"symptoms":  "chest pain",
		})
		if st != http.StatusCreated {
			t.Fatalf("expected 201 book, got %d body=%s", st, string(body))
		}
		var resp struct {
			ID     string `json:"id"`
			Status string `json:"status"`
		}
		_ = json.Unmarshal(body, &resp)
		if resp.Status != "pending" {
			t.Fatalf("expected pending status, got %s", resp.Status)
		}
		apptID = resp.ID
	}

	// 4) El mismo slot ya no se puede reservar
	{
		other := registerUser(t, ts.URL, "Sam Roe", "sam@example.com", "patient")
		st, _ := doReq(t, ts.URL, "POST", "/appointments/book", other, map[string]any{
			"doctor_id": doctorID,
			"date":      "2026-01-06",
			"time":      "09:00",
		})
		if st != http.StatusConflict {
			t.Fatalf("expected 409 double booking, got %d", st)
		}
	}

	// 5) Al doctor le llegó el aviso de la reserva
	{
		titles := notificationTitles(t, ts.URL, doctorID)
		if len(titles) != 1 || titles[0] != "New Appointment Request" {
			t.Fatalf("expected booking notification for doctor, got %#v", titles)
		}
	}

	// 6) El doctor aprueba; al paciente le llega el aviso
	{
		st, body := doReq(t, ts.URL, "PUT", "/appointments/"+apptID+"/status", doctorID, map[string]any{
			"status": "approved",
		})
		if st != http.StatusOK {
			t.Fatalf("expected 200 approve, got %d body=%s", st, string(body))
		}

		titles := notificationTitles(t, ts.URL, patientID)
		if len(titles) != 1 || titles[0] != "Appointment Approved" {
			t.Fatalf("expected approval notification for patient, got %#v", titles)
		}
	}

	// 7) El paciente no puede aprobar ni el doctor cancelar
	{
		st, _ := doReq(t, ts.URL, "PUT", "/appointments/"+apptID+"/status", patientID, map[string]any{
			"status": "approved",
		})
		if st != http.StatusBadRequest {
			t.Fatalf("expected 400 for patient approving, got %d", st)
		}
	}

	// 8) Luego de aprobar, el paciente puede calificar al doctor
	{
		st, body := doReq(t, ts.URL, "POST", "/ratings/", patientID, map[string]any{
			"target_user_id": doctorID,
			"rating":         5,
			"review":         "great doctor",
			"appointment_id": apptID,
		})
		if st != http.StatusCreated {
			t.Fatalf("expected 201 rating, got %d body=%s", st, string(body))
		}

		st, body = doReq(t, ts.URL, "GET", "/ratings/can-rate/"+doctorID+"?appointment_id="+apptID, patientID, nil)
		if st != http.StatusOK {
			t.Fatalf("expected 200 can-rate, got %d body=%s", st, string(body))
		}
		var resp struct {
			CanRate bool `json:"can_rate"`
		}
		_ = json.Unmarshal(body, &resp)
		if resp.CanRate {
			t.Fatalf("expected can_rate=false after rating, body=%s", string(body))
		}
	}
}

func TestHTTP_EndToEnd_MedicineTracking(t *testing.T) {
	ts := newTestServer(t)
	patientID := registerUser(t, ts.URL, "Pat Doe", "pat@example.com", "patient")

	var medID string
	{
		st, body := doReq(t, ts.URL, "POST", "/medicine/", patientID, map[string]any{
			"name":   "Aspirin",
			"dosage": "100mg",
			"doses": []map[string]any{
				{"time": "08:00"},
				{"time": "8:00 PM", "instruction": "After food"},
			},
		})
		if st != http.StatusCreated {
			t.Fatalf("expected 201 add medicine, got %d body=%s", st, string(body))
		}
		var resp struct {
			ID string `json:"id"`
		}
		_ = json.Unmarshal(body, &resp)
		medID = resp.ID
	}

	// marcar una toma; repetirla es conflicto
	{
		st, body := doReq(t, ts.URL, "POST", "/medicine/"+medID+"/taken", patientID, map[string]any{
			"date": "2026-01-06",
			"time": "08:00",
		})
		if st != http.StatusOK {
			t.Fatalf("expected 200 mark taken, got %d body=%s", st, string(body))
		}

		st, _ = doReq(t, ts.URL, "POST", "/medicine/"+medID+"/taken", patientID, map[string]any{
			"date": "2026-01-06",
			"time": "08:00",
		})
		if st != http.StatusConflict {
			t.Fatalf("expected 409 duplicate mark, got %d", st)
		}
	}

	// desmarcar la vuelve marcable
	{
		st, _ := doReq(t, ts.URL, "DELETE", "/medicine/"+medID+"/taken?date=2026-01-06&time=08:00", patientID, nil)
		if st != http.StatusOK {
			t.Fatalf("expected 200 unmark, got %d", st)
		}
		st, _ = doReq(t, ts.URL, "POST", "/medicine/"+medID+"/taken", patientID, map[string]any{
			"date": "2026-01-06",
			"time": "08:00",
		})
		if st != http.StatusOK {
			t.Fatalf("expected 200 re-mark after unmark, got %d", st)
		}
	}

	// otro usuario no ve el medicamento
	{
		other := registerUser(t, ts.URL, "Sam Roe", "sam@example.com", "patient")
		st, _ := doReq(t, ts.URL, "GET", "/medicine/"+medID, other, nil)
		if st != http.StatusForbidden {
			t.Fatalf("expected 403 for other user, got %d", st)
		}
	}

	// sin sesión no hay acceso
	{
		st, _ := doReq(t, ts.URL, "GET", "/medicine/", "", nil)
		if st != http.StatusUnauthorized {
			t.Fatalf("expected 401 without session, got %d", st)
		}
	}
}

func TestHTTP_EndToEnd_PharmacistStock(t *testing.T) {
	ts := newTestServer(t)
	pharmID := registerUser(t, ts.URL, "Phil Pharm", "phil@example.com", "pharmacist")
	patientID := registerUser(t, ts.URL, "Pat Doe", "pat@example.com", "patient")

	// un paciente no puede cargar stock
	{
		st, _ := doReq(t, ts.URL, "POST", "/medicine-stock/", patientID, map[string]any{
			"name":         "Paracetamol",
			"batch_number": "B-100",
			"expiry_date":  "2027-06-30",
			"quantity":     12,
			"price":        2.5,
		})
		if st != http.StatusForbidden {
			t.Fatalf("expected 403 for patient, got %d", st)
		}
	}

	var itemID string
	{
		st, body := doReq(t, ts.URL, "POST", "/medicine-stock/", pharmID, map[string]any{
			"name":         "Paracetamol",
			"batch_number": "B-100",
			"expiry_date":  "2027-06-30",
			"quantity":     12,
			"price":        2.5,
		})
		if st != http.StatusCreated {
			t.Fatalf("expected 201 add item, got %d body=%s", st, string(body))
		}
		var resp struct {
			ID string `json:"id"`
		}
		_ = json.Unmarshal(body, &resp)
		itemID = resp.ID
	}

	// una venta que cruza el umbral dispara la alerta de stock bajo
	{
		st, body := doReq(t, ts.URL, "POST", "/medicine-stock/"+itemID+"/sale", pharmID, map[string]any{
			"quantity_sold": 5,
		})
		if st != http.StatusOK {
			t.Fatalf("expected 200 sale, got %d body=%s", st, string(body))
		}
		var resp struct {
			Quantity int  `json:"quantity"`
			LowStock bool `json:"low_stock"`
		}
		_ = json.Unmarshal(body, &resp)
		if resp.Quantity != 7 || !resp.LowStock {
			t.Fatalf("expected 7 units flagged low, got %#v", resp)
		}

		titles := notificationTitles(t, ts.URL, pharmID)
		if len(titles) != 1 || titles[0] != "Low Stock Alert" {
			t.Fatalf("expected low stock alert, got %#v", titles)
		}
	}

	// vender más de lo que hay falla
	{
		st, _ := doReq(t, ts.URL, "POST", "/medicine-stock/"+itemID+"/sale", pharmID, map[string]any{
			"quantity_sold": 100,
		})
		if st != http.StatusBadRequest {
			t.Fatalf("expected 400 overselling, got %d", st)
		}
	}

	// el resumen del inventario refleja el estado
	{
		st, body := doReq(t, ts.URL, "GET", "/medicine-stock/", pharmID, nil)
		if st != http.StatusOK {
			t.Fatalf("expected 200 list, got %d body=%s", st, string(body))
		}
		var resp struct {
			Summary struct {
				Total    int `json:"total"`
				LowStock int `json:"low_stock"`
			} `json:"summary"`
		}
		_ = json.Unmarshal(body, &resp)
		if resp.Summary.Total != 1 || resp.Summary.LowStock != 1 {
			t.Fatalf("unexpected summary: %#v", resp.Summary)
		}
	}
}

func TestHTTP_EndToEnd_Prescriptions(t *testing.T) {
	ts := newTestServer(t)
	doctorID := registerUser(t, ts.URL, "Greg House", "greg@example.com", "doctor")
	patientID := registerUser(t, ts.URL, "Pat Doe", "pat@example.com", "patient")

	// solo doctores emiten recetas
	{
		st, _ := doReq(t, ts.URL, "POST", "/prescriptions/", patientID, map[string]any{
			"patient_id": doctorID,
			"type":       "text",
			"content":    "ibuprofen 400mg",
		})
		if st != http.StatusForbidden {
			t.Fatalf("expected 403 for patient issuing, got %d", st)
		}
	}

	{
		st, body := doReq(t, ts.URL, "POST", "/prescriptions/", doctorID, map[string]any{
			"patient_id": patientID,
			"type":       "text",
			"content":    "ibuprofen 400mg",
			"diagnosis":  "migraine",
		})
		if st != http.StatusCreated {
			t.Fatalf("expected 201 prescription, got %d body=%s", st, string(body))
		}
	}

	// el paciente la ve y recibió el aviso
	{
		st, body := doReq(t, ts.URL, "GET", "/prescriptions/patient", patientID, nil)
		if st != http.StatusOK {
			t.Fatalf("expected 200 patient list, got %d body=%s", st, string(body))
		}
		var items []struct {
			Content string `json:"content"`
		}
		_ = json.Unmarshal(body, &items)
		if len(items) != 1 || items[0].Content != "ibuprofen 400mg" {
			t.Fatalf("unexpected prescriptions: %#v", items)
		}

		titles := notificationTitles(t, ts.URL, patientID)
		if len(titles) != 1 || titles[0] != "New Prescription" {
			t.Fatalf("expected prescription notification, got %#v", titles)
		}
	}

	// el doctor aparece en los contactos del paciente
	{
		st, body := doReq(t, ts.URL, "GET", "/prescriptions/patient/doctors", patientID, nil)
		if st != http.StatusOK {
			t.Fatalf("expected 200 doctors list, got %d body=%s", st, string(body))
		}
		var contacts []struct {
			ID       string `json:"id"`
			FullName string `json:"full_name"`
		}
		_ = json.Unmarshal(body, &contacts)
		if len(contacts) != 1 || contacts[0].ID != doctorID {
			t.Fatalf("unexpected contacts: %#v", contacts)
		}
	}
}

func TestHTTP_EmergencyStatus_Unconfigured(t *testing.T) {
	ts := newTestServer(t)
	patientID := registerUser(t, ts.URL, "Pat Doe", "pat@example.com", "patient")

	st, body := doReq(t, ts.URL, "GET", "/emergency/status", patientID, nil)
	if st != http.StatusOK {
		t.Fatalf("expected 200 status, got %d body=%s", st, string(body))
	}
	var resp struct {
		Available bool `json:"available"`
	}
	_ = json.Unmarshal(body, &resp)
	if resp.Available {
		t.Fatalf("expected emergency service unavailable without config")
	}
}

func registerUser(t *testing.T, baseURL, name, email, role string) string {
	t.Helper()

	st, body := doReq(t, baseURL, "POST", "/auth/register", "", map[string]any{
		"full_name": name,
		"email":     email,
		"phone":     "9876543210",
		"password":  "secret1",
		"role":      role,
	})
	if st != http.StatusCreated {
		t.Fatalf("expected 201 register, got %d body=%s", st, string(body))
	}

	var resp struct {
		User struct {
			ID string `json:"id"`
		} `json:"user"`
	}
	_ = json.Unmarshal(body, &resp)
	if resp.User.ID == "" {
		t.Fatalf("register: missing user id body=%s", string(body))
	}
	return resp.User.ID
}

func notificationTitles(t *testing.T, baseURL, userID string) []string {
	t.Helper()

	st, body := doReq(t, baseURL, "GET", "/notifications/", userID, nil)
	if st != http.StatusOK {
		t.Fatalf("expected 200 notifications, got %d body=%s", st, string(body))
	}
	var items []struct {
		Title string `json:"title"`
	}
	_ = json.Unmarshal(body, &items)

	titles := make([]string, 0, len(items))
	for _, n := range items {
		titles = append(titles, n.Title)
	}
	return titles
}

func doReq(t *testing.T, baseURL, method, path, debugUserID string, body any) (int, []byte) {
	t.Helper()

	var rdr io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("json marshal: %v", err)
		}
		rdr = bytes.NewReader(b)
	}

	req, err := http.NewRequest(method, baseURL+path, rdr)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if debugUserID != "" {
		req.Header.Set("X-Debug-User-ID", debugUserID)
	}

	res, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	defer res.Body.Close()

	respBody, _ := io.ReadAll(res.Body)
	return res.StatusCode, respBody
}
