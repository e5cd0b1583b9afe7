package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/saudeclin/clinica-api/internal/storage"
)

// RecordsHandler serves the clinical records attached to an appointment.
type RecordsHandler struct {
	records RecordsStore
	logger  *slog.Logger
}

func NewRecordsHandler(records RecordsStore, logger *slog.Logger) *RecordsHandler {
	return &RecordsHandler{records: records, logger: logger}
}

type addPrescriptionRequest struct {
	Medicamento string `json:"medicamento"`
	Quantidade  int    `json:"quantidade"`
}

func (h *RecordsHandler) AddPrescription(w http.ResponseWriter, r *http.Request) {
	id, ok := appointmentID(w, r)
	if !ok {
		return
	}

	var req addPrescriptionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}
	req.Medicamento = strings.TrimSpace(req.Medicamento)
	if req.Medicamento == "" || req.Quantidade <= 0 {
		writeError(w, http.StatusBadRequest, "medicamento and a positive quantidade are required")
		return
	}

	err := h.records.AddPrescription(r.Context(), id, req.Medicamento, req.Quantidade)
	if err != nil {
		if storage.IsNotFound(err) {
			writeError(w, http.StatusNotFound, "appointment not found")
			return
		}
		if errors.Is(err, storage.ErrNoSNSCode) {
			writeError(w, http.StatusBadRequest, "appointment has no codigo_sns")
			return
		}
		if storage.IsConflict(err) {
			writeError(w, http.StatusConflict, "prescription already recorded")
			return
		}
		storageFailure(w, h.logger, "add prescription failed", err)
		return
	}
	writeMessage(w, http.StatusCreated, "Receita registrada com sucesso")
}

type addObservationRequest struct {
	Parametro string   `json:"parametro"`
	Valor     *float64 `json:"valor"`
}

func (h *RecordsHandler) AddObservation(w http.ResponseWriter, r *http.Request) {
	id, ok := appointmentID(w, r)
	if !ok {
		return
	}

	var req addObservationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}
	req.Parametro = strings.TrimSpace(req.Parametro)
	if req.Parametro == "" {
		writeError(w, http.StatusBadRequest, "parametro is required")
		return
	}

	err := h.records.AddObservation(r.Context(), id, req.Parametro, req.Valor)
	if err != nil {
		if storage.IsForeignKeyViolation(err) {
			writeError(w, http.StatusNotFound, "appointment not found")
			return
		}
		if storage.IsConflict(err) {
			writeError(w, http.StatusConflict, "observation already recorded")
			return
		}
		storageFailure(w, h.logger, "add observation failed", err)
		return
	}
	writeMessage(w, http.StatusCreated, "Observação registrada com sucesso")
}

type prescriptionItem struct {
	Medicamento string `json:"medicamento"`
	Quantidade  int    `json:"quantidade"`
}

type observationItem struct {
	Parametro string   `json:"parametro"`
	Valor     *float64 `json:"valor"`
}

func (h *RecordsHandler) ListRecords(w http.ResponseWriter, r *http.Request) {
	id, ok := appointmentID(w, r)
	if !ok {
		return
	}

	prescriptions, observations, err := h.records.ListRecords(r.Context(), id)
	if err != nil {
		if storage.IsNotFound(err) {
			writeError(w, http.StatusNotFound, "appointment not found")
			return
		}
		storageFailure(w, h.logger, "list records failed", err)
		return
	}

	receitas := make([]prescriptionItem, 0, len(prescriptions))
	for _, p := range prescriptions {
		receitas = append(receitas, prescriptionItem{Medicamento: p.Drug, Quantidade: p.Quantity})
	}
	observacoes := make([]observationItem, 0, len(observations))
	for _, o := range observations {
		observacoes = append(observacoes, observationItem{Parametro: o.Parameter, Valor: o.Value})
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"receitas":    receitas,
		"observacoes": observacoes,
	})
}

func appointmentID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "invalid appointment id")
		return 0, false
	}
	return id, true
}
