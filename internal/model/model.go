package model

import "time"

// Clinic is a physical medical facility. The name is the natural key.
type Clinic struct {
	Name    string
	Phone   string
	Address string
}

// Doctor is identified by the national tax id (NIF).
type Doctor struct {
	NIF       string
	Name      string
	Phone     string
	Address   string
	Specialty string
}

// WorksAt records a doctor's recurring weekly presence at a clinic.
// Weekday follows the Postgres convention (0 = Sunday .. 6 = Saturday).
type WorksAt struct {
	DoctorNIF  string
	ClinicName string
	Weekday    int
}

// Patient is identified by the national health number (SSN).
type Patient struct {
	SSN       string
	NIF       string
	Name      string
	Phone     string
	Address   string
	BirthDate time.Time
}

// Appointment is a (patient, doctor, clinic, date, time) booking. ScheduledAt
// combines the stored date and time-of-day columns; SNSCode is the optional
// globally-unique external code.
type Appointment struct {
	ID          int64
	PatientSSN  string
	DoctorNIF   string
	ClinicName  string
	ScheduledAt time.Time
	SNSCode     string
}

// Prescription (receita) is keyed by the appointment's SNS code.
type Prescription struct {
	SNSCode  string
	Drug     string
	Quantity int
}

// Observation (observacao) is keyed by the appointment id.
type Observation struct {
	AppointmentID int64
	Parameter     string
	Value         *float64
}
