package handlers

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/saudeclin/clinica-api/internal/availability"
	"github.com/saudeclin/clinica-api/internal/storage"
)

const (
	defaultFreeSlots = 3
	maxFreeSlots     = 20
)

// SlotsHandler computes a doctor's next genuinely free times at a clinic:
// the trabalha weekday grid minus everything the doctor already has booked.
type SlotsHandler struct {
	dir    DirectoryStore
	appts  AppointmentStore
	logger *slog.Logger
	now    func() time.Time
}

func NewSlotsHandler(dir DirectoryStore, appts AppointmentStore, logger *slog.Logger) *SlotsHandler {
	return &SlotsHandler{dir: dir, appts: appts, logger: logger, now: time.Now}
}

func (h *SlotsHandler) FreeSlots(w http.ResponseWriter, r *http.Request) {
	clinic := r.PathValue("clinica")
	nif := strings.TrimSpace(r.URL.Query().Get("medico"))
	if nif == "" {
		writeError(w, http.StatusBadRequest, "medico is required")
		return
	}

	n := defaultFreeSlots
	if raw := strings.TrimSpace(r.URL.Query().Get("n")); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 1 || v > maxFreeSlots {
			writeError(w, http.StatusBadRequest, "n must be between 1 and 20")
			return
		}
		n = v
	}

	ctx := r.Context()
	if _, err := h.dir.GetClinic(ctx, clinic); err != nil {
		if storage.IsNotFound(err) {
			writeError(w, http.StatusNotFound, "clinic not found")
			return
		}
		storageFailure(w, h.logger, "get clinic failed", err)
		return
	}
	doctor, err := h.dir.GetDoctorAtClinic(ctx, nif, clinic)
	if err != nil {
		if storage.IsNotFound(err) {
			writeError(w, http.StatusNotFound, "doctor does not work at this clinic")
			return
		}
		storageFailure(w, h.logger, "get doctor failed", err)
		return
	}

	weekdays, err := h.dir.Weekdays(ctx, doctor.NIF, clinic)
	if err != nil {
		storageFailure(w, h.logger, "load weekly schedule failed", err)
		return
	}

	now := h.now()
	// Booked times block across every clinic: the unique constraint is per
	// doctor, not per (doctor, clinic).
	booked, err := h.appts.BookedFrom(ctx, doctor.NIF, now)
	if err != nil {
		storageFailure(w, h.logger, "load booked times failed", err)
		return
	}

	slots := availability.NextFreeSlots(weekdays, booked, now, n)
	writeJSON(w, http.StatusOK, map[string]any{
		"medico":   doctor.NIF,
		"horarios": slotPairs(slots),
	})
}
