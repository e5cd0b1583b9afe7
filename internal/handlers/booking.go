package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/saudeclin/clinica-api/internal/model"
	"github.com/saudeclin/clinica-api/internal/storage"
)

// BookingHandler registers and cancels appointments. Double-booking is caught
// by the unique constraint, not by a pre-check, so two concurrent requests for
// the same (doctor, date, time) cannot both succeed.
type BookingHandler struct {
	dir    DirectoryStore
	appts  AppointmentStore
	logger *slog.Logger
	now    func() time.Time
}

func NewBookingHandler(dir DirectoryStore, appts AppointmentStore, logger *slog.Logger) *BookingHandler {
	return &BookingHandler{dir: dir, appts: appts, logger: logger, now: time.Now}
}

type registerRequest struct {
	Paciente  string `json:"paciente"`
	Medico    string `json:"medico"`
	DataHora  string `json:"data_hora"`
	CodigoSNS string `json:"codigo_sns"`
}

type cancelRequest struct {
	Paciente   string `json:"paciente"`
	Medico     string `json:"medico"`
	DataHora   string `json:"data_hora"`
	ConsultaID int64  `json:"consulta_id"`
}

func (h *BookingHandler) Register(w http.ResponseWriter, r *http.Request) {
	clinic := r.PathValue("clinica")

	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}
	req.Paciente = strings.TrimSpace(req.Paciente)
	req.Medico = strings.TrimSpace(req.Medico)
	req.CodigoSNS = strings.TrimSpace(req.CodigoSNS)
	if req.Paciente == "" || req.Medico == "" || req.DataHora == "" {
		writeError(w, http.StatusBadRequest, "paciente, medico and data_hora are required")
		return
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
	patient, err := h.dir.GetPatient(ctx, req.Paciente)
	if err != nil {
		if storage.IsNotFound(err) {
			writeError(w, http.StatusNotFound, "patient not found")
			return
		}
		storageFailure(w, h.logger, "get patient failed", err)
		return
	}
	doctor, err := h.dir.GetDoctorAtClinic(ctx, req.Medico, clinic)
	if err != nil {
		if storage.IsNotFound(err) {
			writeError(w, http.StatusNotFound, "doctor does not work at this clinic")
			return
		}
		storageFailure(w, h.logger, "get doctor failed", err)
		return
	}

	at, err := parseDataHora(req.DataHora)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid data_hora")
		return
	}
	if !at.After(h.now()) {
		writeError(w, http.StatusBadRequest, "data_hora must be in the future")
		return
	}

	id, err := h.appts.Book(ctx, model.Appointment{
		PatientSSN:  patient.SSN,
		DoctorNIF:   doctor.NIF,
		ClinicName:  clinic,
		ScheduledAt: at,
		SNSCode:     req.CodigoSNS,
	})
	if err != nil {
		if storage.IsConflict(err) {
			writeError(w, http.StatusConflict, "appointment slot already taken")
			return
		}
		if storage.IsForeignKeyViolation(err) {
			writeError(w, http.StatusNotFound, "doctor does not work at this clinic")
			return
		}
		storageFailure(w, h.logger, "book appointment failed", err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"message":     "Marcação registrada com sucesso",
		"consulta_id": id,
	})
}

func (h *BookingHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	clinic := r.PathValue("clinica")

	var req cancelRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}
	req.Paciente = strings.TrimSpace(req.Paciente)
	req.Medico = strings.TrimSpace(req.Medico)

	ctx := r.Context()
	if _, err := h.dir.GetClinic(ctx, clinic); err != nil {
		if storage.IsNotFound(err) {
			writeError(w, http.StatusNotFound, "clinic not found")
			return
		}
		storageFailure(w, h.logger, "get clinic failed", err)
		return
	}

	var cancelErr error
	switch {
	case req.ConsultaID != 0:
		cancelErr = h.appts.CancelByID(ctx, req.ConsultaID, h.now())
	case req.Paciente != "" && req.Medico != "" && req.DataHora != "":
		doctor, err := h.dir.GetDoctorAtClinic(ctx, req.Medico, clinic)
		if err != nil {
			if storage.IsNotFound(err) {
				writeError(w, http.StatusNotFound, "doctor does not work at this clinic")
				return
			}
			storageFailure(w, h.logger, "get doctor failed", err)
			return
		}
		at, err := parseDataHora(req.DataHora)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid data_hora")
			return
		}
		cancelErr = h.appts.CancelByDetails(ctx, req.Paciente, doctor.NIF, at, h.now())
	default:
		writeError(w, http.StatusBadRequest, "either consulta_id or paciente, medico and data_hora are required")
		return
	}

	if cancelErr != nil {
		if storage.IsNotFound(cancelErr) {
			writeMessage(w, http.StatusNotFound, "Marcação não encontrada")
			return
		}
		if errors.Is(cancelErr, storage.ErrPastAppointment) {
			writeError(w, http.StatusBadRequest, "Não é possível cancelar uma marcação passada")
			return
		}
		storageFailure(w, h.logger, "cancel appointment failed", cancelErr)
		return
	}
	writeMessage(w, http.StatusOK, "Marcação cancelada com sucesso")
}
