package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/saudeclin/clinica-api/internal/model"
	"github.com/saudeclin/clinica-api/internal/storage"
)

// RequireAdmin guards the administrative surface with a static bearer token
// whose bcrypt hash is held in configuration.
func RequireAdmin(next http.Handler, tokenHash string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || strings.TrimSpace(token) == "" {
			writeError(w, http.StatusUnauthorized, "missing bearer token")
			return
		}
		if bcrypt.CompareHashAndPassword([]byte(tokenHash), []byte(strings.TrimSpace(token))) != nil {
			writeError(w, http.StatusUnauthorized, "invalid token")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// AdminHandler creates the reference rows: clinics, doctors, patients and
// trabalha entries.
type AdminHandler struct {
	dir    ReferenceAdminStore
	logger *slog.Logger
}

func NewAdminHandler(dir ReferenceAdminStore, logger *slog.Logger) *AdminHandler {
	return &AdminHandler{dir: dir, logger: logger}
}

type createClinicRequest struct {
	Nome     string `json:"nome"`
	Telefone string `json:"telefone"`
	Morada   string `json:"morada"`
}

func (h *AdminHandler) CreateClinic(w http.ResponseWriter, r *http.Request) {
	var req createClinicRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}
	req.Nome = strings.TrimSpace(req.Nome)
	req.Telefone = strings.TrimSpace(req.Telefone)
	req.Morada = strings.TrimSpace(req.Morada)
	if req.Nome == "" || req.Telefone == "" || req.Morada == "" {
		writeError(w, http.StatusBadRequest, "nome, telefone and morada are required")
		return
	}

	err := h.dir.CreateClinic(r.Context(), model.Clinic{Name: req.Nome, Phone: req.Telefone, Address: req.Morada})
	if err != nil {
		if storage.IsConflict(err) {
			writeError(w, http.StatusConflict, "clinic already exists")
			return
		}
		storageFailure(w, h.logger, "create clinic failed", err)
		return
	}
	writeMessage(w, http.StatusCreated, "Clínica criada com sucesso")
}

type createDoctorRequest struct {
	NIF           string `json:"nif"`
	Nome          string `json:"nome"`
	Telefone      string `json:"telefone"`
	Morada        string `json:"morada"`
	Especialidade string `json:"especialidade"`
}

func (h *AdminHandler) CreateDoctor(w http.ResponseWriter, r *http.Request) {
	var req createDoctorRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}
	req.NIF = strings.TrimSpace(req.NIF)
	req.Nome = strings.TrimSpace(req.Nome)
	req.Especialidade = strings.TrimSpace(req.Especialidade)
	if req.NIF == "" || req.Nome == "" || req.Especialidade == "" {
		writeError(w, http.StatusBadRequest, "nif, nome and especialidade are required")
		return
	}

	err := h.dir.CreateDoctor(r.Context(), model.Doctor{
		NIF:       req.NIF,
		Name:      req.Nome,
		Phone:     strings.TrimSpace(req.Telefone),
		Address:   strings.TrimSpace(req.Morada),
		Specialty: req.Especialidade,
	})
	if err != nil {
		if storage.IsConflict(err) {
			writeError(w, http.StatusConflict, "doctor already exists")
			return
		}
		storageFailure(w, h.logger, "create doctor failed", err)
		return
	}
	writeMessage(w, http.StatusCreated, "Médico criado com sucesso")
}

type createPatientRequest struct {
	SSN      string `json:"ssn"`
	NIF      string `json:"nif"`
	Nome     string `json:"nome"`
	Telefone string `json:"telefone"`
	Morada   string `json:"morada"`
	DataNasc string `json:"data_nasc"`
}

func (h *AdminHandler) CreatePatient(w http.ResponseWriter, r *http.Request) {
	var req createPatientRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}
	req.SSN = strings.TrimSpace(req.SSN)
	req.NIF = strings.TrimSpace(req.NIF)
	req.Nome = strings.TrimSpace(req.Nome)
	if req.SSN == "" || req.NIF == "" || req.Nome == "" || req.DataNasc == "" {
		writeError(w, http.StatusBadRequest, "ssn, nif, nome and data_nasc are required")
		return
	}
	birth, err := time.ParseInLocation(dateLayout, strings.TrimSpace(req.DataNasc), time.UTC)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid data_nasc")
		return
	}

	err = h.dir.CreatePatient(r.Context(), model.Patient{
		SSN:       req.SSN,
		NIF:       req.NIF,
		Name:      req.Nome,
		Phone:     strings.TrimSpace(req.Telefone),
		Address:   strings.TrimSpace(req.Morada),
		BirthDate: birth,
	})
	if err != nil {
		if storage.IsConflict(err) {
			writeError(w, http.StatusConflict, "patient already exists")
			return
		}
		storageFailure(w, h.logger, "create patient failed", err)
		return
	}
	writeMessage(w, http.StatusCreated, "Paciente criado com sucesso")
}

type createWorksAtRequest struct {
	NIF         string `json:"nif"`
	Clinica     string `json:"clinica"`
	DiaDaSemana *int   `json:"dia_da_semana"`
}

func (h *AdminHandler) CreateWorksAt(w http.ResponseWriter, r *http.Request) {
	var req createWorksAtRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}
	req.NIF = strings.TrimSpace(req.NIF)
	req.Clinica = strings.TrimSpace(req.Clinica)
	if req.NIF == "" || req.Clinica == "" || req.DiaDaSemana == nil {
		writeError(w, http.StatusBadRequest, "nif, clinica and dia_da_semana are required")
		return
	}
	if *req.DiaDaSemana < 0 || *req.DiaDaSemana > 6 {
		writeError(w, http.StatusBadRequest, "dia_da_semana must be between 0 and 6")
		return
	}

	err := h.dir.CreateWorksAt(r.Context(), model.WorksAt{
		DoctorNIF:  req.NIF,
		ClinicName: req.Clinica,
		Weekday:    *req.DiaDaSemana,
	})
	if err != nil {
		if storage.IsConflict(err) {
			writeError(w, http.StatusConflict, "trabalha entry already exists")
			return
		}
		if storage.IsForeignKeyViolation(err) {
			writeError(w, http.StatusNotFound, "unknown doctor or clinic")
			return
		}
		storageFailure(w, h.logger, "create trabalha failed", err)
		return
	}
	writeMessage(w, http.StatusCreated, "Horário semanal criado com sucesso")
}
