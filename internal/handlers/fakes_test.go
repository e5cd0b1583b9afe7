package handlers

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/saudeclin/clinica-api/internal/model"
	"github.com/saudeclin/clinica-api/internal/storage"
)

// fakeStore mimics the relational semantics the repositories rely on,
// including unique and foreign-key violations surfaced as pgconn errors.
type fakeStore struct {
	clinics       map[string]model.Clinic
	doctors       map[string]model.Doctor
	patients      map[string]model.Patient
	worksAt       []model.WorksAt
	appts         []model.Appointment
	prescriptions []model.Prescription
	observations  []model.Observation
	nextID        int64
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		clinics:  map[string]model.Clinic{},
		doctors:  map[string]model.Doctor{},
		patients: map[string]model.Patient{},
		nextID:   1,
	}
}

func uniqueViolation(constraint string) error {
	return &pgconn.PgError{Code: "23505", ConstraintName: constraint}
}

func fkViolation(constraint string) error {
	return &pgconn.PgError{Code: "23503", ConstraintName: constraint}
}

func (f *fakeStore) ListClinics(context.Context) ([]model.Clinic, error) {
	var out []model.Clinic
	var names []string
	for name := range f.clinics {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		out = append(out, f.clinics[name])
	}
	return out, nil
}

func (f *fakeStore) GetClinic(_ context.Context, name string) (model.Clinic, error) {
	c, ok := f.clinics[name]
	if !ok {
		return model.Clinic{}, fmt.Errorf("clinic %q: %w", name, storage.ErrNotFound)
	}
	return c, nil
}

func (f *fakeStore) ListSpecialties(_ context.Context, clinic string) ([]string, error) {
	seen := map[string]bool{}
	var out []string
	for _, w := range f.worksAt {
		if w.ClinicName != clinic {
			continue
		}
		d := f.doctors[w.DoctorNIF]
		if !seen[d.Specialty] {
			seen[d.Specialty] = true
			out = append(out, d.Specialty)
		}
	}
	sort.Strings(out)
	return out, nil
}

func (f *fakeStore) ListDoctors(_ context.Context, clinic, specialty string) ([]model.Doctor, error) {
	seen := map[string]bool{}
	var out []model.Doctor
	for _, w := range f.worksAt {
		if w.ClinicName != clinic || seen[w.DoctorNIF] {
			continue
		}
		d := f.doctors[w.DoctorNIF]
		if d.Specialty == specialty {
			seen[w.DoctorNIF] = true
			out = append(out, d)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (f *fakeStore) GetPatient(_ context.Context, ssn string) (model.Patient, error) {
	p, ok := f.patients[ssn]
	if !ok {
		return model.Patient{}, fmt.Errorf("patient %q: %w", ssn, storage.ErrNotFound)
	}
	return p, nil
}

func (f *fakeStore) GetDoctorAtClinic(_ context.Context, nif, clinic string) (model.Doctor, error) {
	for _, w := range f.worksAt {
		if w.DoctorNIF == nif && w.ClinicName == clinic {
			return f.doctors[nif], nil
		}
	}
	return model.Doctor{}, fmt.Errorf("doctor %q at %q: %w", nif, clinic, storage.ErrNotFound)
}

func (f *fakeStore) Weekdays(_ context.Context, nif, clinic string) ([]time.Weekday, error) {
	var out []time.Weekday
	for _, w := range f.worksAt {
		if w.DoctorNIF == nif && w.ClinicName == clinic {
			out = append(out, time.Weekday(w.Weekday))
		}
	}
	return out, nil
}

func (f *fakeStore) Book(_ context.Context, appt model.Appointment) (int64, error) {
	worksHere := false
	for _, w := range f.worksAt {
		if w.DoctorNIF == appt.DoctorNIF && w.ClinicName == appt.ClinicName {
			worksHere = true
			break
		}
	}
	if !worksHere {
		return 0, fkViolation("consulta_nif_nome_fkey")
	}
	for _, existing := range f.appts {
		if existing.DoctorNIF == appt.DoctorNIF && existing.ScheduledAt.Equal(appt.ScheduledAt) {
			return 0, uniqueViolation("consulta_nif_data_hora_key")
		}
		if appt.SNSCode != "" && existing.SNSCode == appt.SNSCode {
			return 0, uniqueViolation("consulta_codigo_sns_key")
		}
	}
	appt.ID = f.nextID
	f.nextID++
	f.appts = append(f.appts, appt)
	return appt.ID, nil
}

func (f *fakeStore) CancelByID(_ context.Context, id int64, now time.Time) error {
	for i, appt := range f.appts {
		if appt.ID == id {
			return f.remove(i, now)
		}
	}
	return fmt.Errorf("consulta %d: %w", id, storage.ErrNotFound)
}

func (f *fakeStore) CancelByDetails(_ context.Context, ssn, nif string, at, now time.Time) error {
	for i, appt := range f.appts {
		if appt.PatientSSN == ssn && appt.DoctorNIF == nif && appt.ScheduledAt.Equal(at) {
			return f.remove(i, now)
		}
	}
	return fmt.Errorf("consulta: %w", storage.ErrNotFound)
}

func (f *fakeStore) remove(i int, now time.Time) error {
	if !f.appts[i].ScheduledAt.After(now) {
		return storage.ErrPastAppointment
	}
	f.appts = append(f.appts[:i], f.appts[i+1:]...)
	return nil
}

func (f *fakeStore) UpcomingByDoctor(_ context.Context, clinic, nif string, now time.Time, limit int) ([]time.Time, error) {
	var out []time.Time
	for _, appt := range f.appts {
		if appt.ClinicName == clinic && appt.DoctorNIF == nif && appt.ScheduledAt.After(now) {
			out = append(out, appt.ScheduledAt)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeStore) BookedFrom(_ context.Context, nif string, from time.Time) ([]time.Time, error) {
	var out []time.Time
	for _, appt := range f.appts {
		if appt.DoctorNIF == nif && appt.ScheduledAt.After(from) {
			out = append(out, appt.ScheduledAt)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out, nil
}

func (f *fakeStore) CreateClinic(_ context.Context, c model.Clinic) error {
	if _, exists := f.clinics[c.Name]; exists {
		return uniqueViolation("clinica_pkey")
	}
	f.clinics[c.Name] = c
	return nil
}

func (f *fakeStore) CreateDoctor(_ context.Context, d model.Doctor) error {
	if _, exists := f.doctors[d.NIF]; exists {
		return uniqueViolation("medico_pkey")
	}
	f.doctors[d.NIF] = d
	return nil
}

func (f *fakeStore) CreatePatient(_ context.Context, p model.Patient) error {
	if _, exists := f.patients[p.SSN]; exists {
		return uniqueViolation("paciente_pkey")
	}
	f.patients[p.SSN] = p
	return nil
}

func (f *fakeStore) CreateWorksAt(_ context.Context, w model.WorksAt) error {
	if _, ok := f.doctors[w.DoctorNIF]; !ok {
		return fkViolation("trabalha_nif_fkey")
	}
	if _, ok := f.clinics[w.ClinicName]; !ok {
		return fkViolation("trabalha_nome_fkey")
	}
	for _, existing := range f.worksAt {
		if existing.DoctorNIF == w.DoctorNIF && existing.ClinicName == w.ClinicName {
			return uniqueViolation("trabalha_pkey")
		}
	}
	f.worksAt = append(f.worksAt, w)
	return nil
}

func (f *fakeStore) findAppointment(id int64) (model.Appointment, bool) {
	for _, appt := range f.appts {
		if appt.ID == id {
			return appt, true
		}
	}
	return model.Appointment{}, false
}

func (f *fakeStore) AddPrescription(_ context.Context, appointmentID int64, drug string, quantity int) error {
	appt, ok := f.findAppointment(appointmentID)
	if !ok {
		return fmt.Errorf("appointment %d: %w", appointmentID, storage.ErrNotFound)
	}
	if appt.SNSCode == "" {
		return storage.ErrNoSNSCode
	}
	for _, p := range f.prescriptions {
		if p.SNSCode == appt.SNSCode && p.Drug == drug {
			return uniqueViolation("receita_pkey")
		}
	}
	f.prescriptions = append(f.prescriptions, model.Prescription{SNSCode: appt.SNSCode, Drug: drug, Quantity: quantity})
	return nil
}

func (f *fakeStore) AddObservation(_ context.Context, appointmentID int64, parameter string, value *float64) error {
	if _, ok := f.findAppointment(appointmentID); !ok {
		return fkViolation("observacao_id_fkey")
	}
	for _, o := range f.observations {
		if o.AppointmentID == appointmentID && o.Parameter == parameter {
			return uniqueViolation("observacao_pkey")
		}
	}
	f.observations = append(f.observations, model.Observation{AppointmentID: appointmentID, Parameter: parameter, Value: value})
	return nil
}

func (f *fakeStore) ListRecords(_ context.Context, appointmentID int64) ([]model.Prescription, []model.Observation, error) {
	appt, ok := f.findAppointment(appointmentID)
	if !ok {
		return nil, nil, fmt.Errorf("appointment %d: %w", appointmentID, storage.ErrNotFound)
	}
	var prescriptions []model.Prescription
	for _, p := range f.prescriptions {
		if p.SNSCode == appt.SNSCode && appt.SNSCode != "" {
			prescriptions = append(prescriptions, p)
		}
	}
	sort.Slice(prescriptions, func(i, j int) bool { return prescriptions[i].Drug < prescriptions[j].Drug })
	var observations []model.Observation
	for _, o := range f.observations {
		if o.AppointmentID == appointmentID {
			observations = append(observations, o)
		}
	}
	sort.Slice(observations, func(i, j int) bool { return observations[i].Parameter < observations[j].Parameter })
	return prescriptions, observations, nil
}

// seedCentral sets up the fixture every test starts from: clinic Central,
// one cardiologist working Mondays, one patient.
func seedCentral(f *fakeStore) {
	f.clinics["Central"] = model.Clinic{Name: "Central", Phone: "211234567", Address: "Av. da Liberdade 1"}
	f.doctors["123456789"] = model.Doctor{NIF: "123456789", Name: "Ana Matos", Specialty: "cardiologia"}
	f.patients["12345678901"] = model.Patient{SSN: "12345678901", NIF: "987654321", Name: "Rui Costa"}
	f.worksAt = append(f.worksAt,
		model.WorksAt{DoctorNIF: "123456789", ClinicName: "Central", Weekday: 1},
	)
}
