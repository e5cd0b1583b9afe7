package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/saudeclin/clinica-api/internal/storage"
)

// ClinicHandler serves the public directory: clinics, specialties and doctors
// with their next booked times.
type ClinicHandler struct {
	dir    DirectoryStore
	appts  AppointmentStore
	logger *slog.Logger
	now    func() time.Time
}

func NewClinicHandler(dir DirectoryStore, appts AppointmentStore, logger *slog.Logger) *ClinicHandler {
	return &ClinicHandler{dir: dir, appts: appts, logger: logger, now: time.Now}
}

type clinicItem struct {
	Nome     string `json:"nome"`
	Telefone string `json:"telefone"`
	Morada   string `json:"morada"`
}

func (h *ClinicHandler) ListClinics(w http.ResponseWriter, r *http.Request) {
	clinics, err := h.dir.ListClinics(r.Context())
	if err != nil {
		storageFailure(w, h.logger, "list clinics failed", err)
		return
	}

	items := make([]clinicItem, 0, len(clinics))
	for _, c := range clinics {
		items = append(items, clinicItem{Nome: c.Name, Telefone: c.Phone, Morada: c.Address})
	}
	writeJSON(w, http.StatusOK, map[string]any{"clinics": items})
}

func (h *ClinicHandler) ListSpecialties(w http.ResponseWriter, r *http.Request) {
	clinic := r.PathValue("clinica")
	if _, err := h.dir.GetClinic(r.Context(), clinic); err != nil {
		if storage.IsNotFound(err) {
			writeError(w, http.StatusNotFound, "clinic not found")
			return
		}
		storageFailure(w, h.logger, "get clinic failed", err)
		return
	}

	specialties, err := h.dir.ListSpecialties(r.Context(), clinic)
	if err != nil {
		storageFailure(w, h.logger, "list specialties failed", err)
		return
	}
	if specialties == nil {
		specialties = []string{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"specialties": specialties})
}

// ListDoctors returns every doctor of the specialty at the clinic together
// with their next 3 upcoming appointment times. Doctors with no upcoming
// appointments appear with an empty list.
func (h *ClinicHandler) ListDoctors(w http.ResponseWriter, r *http.Request) {
	clinic := r.PathValue("clinica")
	specialty := r.PathValue("especialidade")

	if _, err := h.dir.GetClinic(r.Context(), clinic); err != nil {
		if storage.IsNotFound(err) {
			writeError(w, http.StatusNotFound, "clinic not found")
			return
		}
		storageFailure(w, h.logger, "get clinic failed", err)
		return
	}

	doctors, err := h.dir.ListDoctors(r.Context(), clinic, specialty)
	if err != nil {
		storageFailure(w, h.logger, "list doctors failed", err)
		return
	}

	now := h.now()
	names := make([]string, 0, len(doctors))
	appointments := make(map[string][][2]string, len(doctors))
	for _, d := range doctors {
		upcoming, err := h.appts.UpcomingByDoctor(r.Context(), clinic, d.NIF, now, 3)
		if err != nil {
			storageFailure(w, h.logger, "list upcoming appointments failed", err)
			return
		}
		names = append(names, d.Name)
		appointments[d.Name] = slotPairs(upcoming)
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"doctors":      names,
		"appointments": appointments,
	})
}

func Ping(w http.ResponseWriter, _ *http.Request) {
	writeMessage(w, http.StatusOK, "pong")
}
