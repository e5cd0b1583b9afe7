package handlers

import (
	"context"
	"time"

	"github.com/saudeclin/clinica-api/internal/model"
)

// DirectoryStore is the reference-data surface the handlers consume,
// implemented by storage.DirectoryRepository.
type DirectoryStore interface {
	ListClinics(ctx context.Context) ([]model.Clinic, error)
	GetClinic(ctx context.Context, name string) (model.Clinic, error)
	ListSpecialties(ctx context.Context, clinic string) ([]string, error)
	ListDoctors(ctx context.Context, clinic, specialty string) ([]model.Doctor, error)
	GetPatient(ctx context.Context, ssn string) (model.Patient, error)
	GetDoctorAtClinic(ctx context.Context, nif, clinic string) (model.Doctor, error)
	Weekdays(ctx context.Context, nif, clinic string) ([]time.Weekday, error)
}

// AppointmentStore is implemented by storage.AppointmentRepository.
type AppointmentStore interface {
	Book(ctx context.Context, appt model.Appointment) (int64, error)
	CancelByID(ctx context.Context, id int64, now time.Time) error
	CancelByDetails(ctx context.Context, ssn, nif string, at, now time.Time) error
	UpcomingByDoctor(ctx context.Context, clinic, nif string, now time.Time, limit int) ([]time.Time, error)
	BookedFrom(ctx context.Context, nif string, from time.Time) ([]time.Time, error)
}

// ReferenceAdminStore is implemented by storage.DirectoryRepository.
type ReferenceAdminStore interface {
	CreateClinic(ctx context.Context, c model.Clinic) error
	CreateDoctor(ctx context.Context, d model.Doctor) error
	CreatePatient(ctx context.Context, p model.Patient) error
	CreateWorksAt(ctx context.Context, w model.WorksAt) error
}

// RecordsStore is implemented by storage.RecordsRepository.
type RecordsStore interface {
	AddPrescription(ctx context.Context, appointmentID int64, drug string, quantity int) error
	AddObservation(ctx context.Context, appointmentID int64, parameter string, value *float64) error
	ListRecords(ctx context.Context, appointmentID int64) ([]model.Prescription, []model.Observation, error)
}
