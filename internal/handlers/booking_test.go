package handlers

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/saudeclin/clinica-api/internal/model"
)

var testClock = time.Date(2029, 12, 31, 12, 0, 0, 0, time.UTC)

func newTestBookingHandler(f *fakeStore) *BookingHandler {
	h := NewBookingHandler(f, f, slog.New(slog.DiscardHandler))
	h.now = func() time.Time { return testClock }
	return h
}

func postJSON(t *testing.T, h http.HandlerFunc, clinic, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "http://example.com/", strings.NewReader(body))
	req.SetPathValue("clinica", clinic)
	rw := httptest.NewRecorder()
	h(rw, req)
	return rw
}

func decodeBody(t *testing.T, rw *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(rw.Body.Bytes(), &out); err != nil {
		t.Fatalf("invalid response body %q: %v", rw.Body.String(), err)
	}
	return out
}

const registerBody = `{"paciente":"12345678901","medico":"123456789","data_hora":"2030-01-01T10:00:00"}`

func TestRegisterThenConflictThenCancel(t *testing.T) {
	f := newFakeStore()
	seedCentral(f)
	h := newTestBookingHandler(f)

	rw := postJSON(t, h.Register, "Central", registerBody)
	if rw.Code != http.StatusCreated {
		t.Fatalf("first booking: expected 201, got %d (%s)", rw.Code, rw.Body.String())
	}
	body := decodeBody(t, rw)
	if _, ok := body["consulta_id"]; !ok {
		t.Fatalf("expected consulta_id in response, got %v", body)
	}

	rw = postJSON(t, h.Register, "Central", registerBody)
	if rw.Code != http.StatusConflict {
		t.Fatalf("duplicate booking: expected 409, got %d", rw.Code)
	}

	rw = postJSON(t, h.Cancel, "Central", registerBody)
	if rw.Code != http.StatusOK {
		t.Fatalf("cancel: expected 200, got %d (%s)", rw.Code, rw.Body.String())
	}

	rw = postJSON(t, h.Cancel, "Central", registerBody)
	if rw.Code != http.StatusNotFound {
		t.Fatalf("second cancel: expected 404, got %d", rw.Code)
	}
}

func TestRegisterRejectsPastDatetime(t *testing.T) {
	f := newFakeStore()
	seedCentral(f)
	h := newTestBookingHandler(f)

	rw := postJSON(t, h.Register, "Central",
		`{"paciente":"12345678901","medico":"123456789","data_hora":"2020-01-01T10:00:00"}`)
	if rw.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for past data_hora, got %d", rw.Code)
	}
}

func TestRegisterUnknownParticipants(t *testing.T) {
	f := newFakeStore()
	seedCentral(f)
	h := newTestBookingHandler(f)

	cases := []struct {
		name   string
		clinic string
		body   string
	}{
		{"unknown clinic", "Norte", registerBody},
		{"unknown patient", "Central", `{"paciente":"00000000000","medico":"123456789","data_hora":"2030-01-01T10:00:00"}`},
		{"doctor not at clinic", "Central", `{"paciente":"12345678901","medico":"999999999","data_hora":"2030-01-01T10:00:00"}`},
	}
	for _, tc := range cases {
		rw := postJSON(t, h.Register, tc.clinic, tc.body)
		if rw.Code != http.StatusNotFound {
			t.Fatalf("%s: expected 404, got %d", tc.name, rw.Code)
		}
	}
}

func TestRegisterDuplicateSNSCode(t *testing.T) {
	f := newFakeStore()
	seedCentral(f)
	h := newTestBookingHandler(f)

	first := `{"paciente":"12345678901","medico":"123456789","data_hora":"2030-01-01T10:00:00","codigo_sns":"SNS000000001"}`
	second := `{"paciente":"12345678901","medico":"123456789","data_hora":"2030-01-02T10:00:00","codigo_sns":"SNS000000001"}`

	if rw := postJSON(t, h.Register, "Central", first); rw.Code != http.StatusCreated {
		t.Fatalf("first booking: expected 201, got %d", rw.Code)
	}
	if rw := postJSON(t, h.Register, "Central", second); rw.Code != http.StatusConflict {
		t.Fatalf("duplicate codigo_sns: expected 409, got %d", rw.Code)
	}
}

func TestCancelPastAppointmentIsRejected(t *testing.T) {
	f := newFakeStore()
	seedCentral(f)
	// Planted directly: a past appointment can no longer be created via the API.
	f.appts = append(f.appts, model.Appointment{
		ID:          42,
		PatientSSN:  "12345678901",
		DoctorNIF:   "123456789",
		ClinicName:  "Central",
		ScheduledAt: time.Date(2020, 1, 1, 10, 0, 0, 0, time.UTC),
	})
	h := newTestBookingHandler(f)

	rw := postJSON(t, h.Cancel, "Central", `{"consulta_id":42}`)
	if rw.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for past appointment, got %d", rw.Code)
	}
	if len(f.appts) != 1 {
		t.Fatal("past appointment must not be deleted")
	}
}

func TestCancelByID(t *testing.T) {
	f := newFakeStore()
	seedCentral(f)
	h := newTestBookingHandler(f)

	rw := postJSON(t, h.Register, "Central", registerBody)
	if rw.Code != http.StatusCreated {
		t.Fatalf("booking: expected 201, got %d", rw.Code)
	}
	id, ok := decodeBody(t, rw)["consulta_id"].(float64)
	if !ok {
		t.Fatal("expected numeric consulta_id")
	}

	rw = postJSON(t, h.Cancel, "Central", fmt.Sprintf(`{"consulta_id":%d}`, int64(id)))
	if rw.Code != http.StatusOK {
		t.Fatalf("cancel by id: expected 200, got %d", rw.Code)
	}
}

func TestCancelRequiresIdentifiers(t *testing.T) {
	f := newFakeStore()
	seedCentral(f)
	h := newTestBookingHandler(f)

	rw := postJSON(t, h.Cancel, "Central", `{}`)
	if rw.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without identifiers, got %d", rw.Code)
	}
}
