package storage

import (
	"context"
	"time"

	"github.com/saudeclin/clinica-api/internal/model"
	"github.com/saudeclin/clinica-api/libs/db"
)

// DirectoryRepository serves the reference data: clinics, doctors, patients
// and the weekly trabalha schedule.
type DirectoryRepository struct {
	pool *db.Pool
}

func NewDirectoryRepository(pool *db.Pool) *DirectoryRepository {
	return &DirectoryRepository{pool: pool}
}

func (r *DirectoryRepository) ListClinics(ctx context.Context) ([]model.Clinic, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT nome, telefone, morada
		FROM clinica
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var clinics []model.Clinic
	for rows.Next() {
		var c model.Clinic
		if err := rows.Scan(&c.Name, &c.Phone, &c.Address); err != nil {
			return nil, err
		}
		clinics = append(clinics, c)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return clinics, nil
}

func (r *DirectoryRepository) GetClinic(ctx context.Context, name string) (model.Clinic, error) {
	var c model.Clinic
	err := r.pool.QueryRow(ctx, `
		SELECT nome, telefone, morada
		FROM clinica
		WHERE nome = $1
	`, name).Scan(&c.Name, &c.Phone, &c.Address)
	if err != nil {
		return model.Clinic{}, err
	}
	return c, nil
}

func (r *DirectoryRepository) ListSpecialties(ctx context.Context, clinic string) ([]string, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT DISTINCT m.especialidade
		FROM medico m
		JOIN trabalha t ON t.nif = m.nif
		WHERE t.nome = $1
		ORDER BY m.especialidade
	`, clinic)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var specialties []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		specialties = append(specialties, s)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return specialties, nil
}

func (r *DirectoryRepository) ListDoctors(ctx context.Context, clinic, specialty string) ([]model.Doctor, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT m.nif, m.nome, m.telefone, m.morada, m.especialidade
		FROM medico m
		JOIN trabalha t ON t.nif = m.nif
		WHERE t.nome = $1 AND m.especialidade = $2
		ORDER BY m.nome
	`, clinic, specialty)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var doctors []model.Doctor
	for rows.Next() {
		var d model.Doctor
		if err := rows.Scan(&d.NIF, &d.Name, &d.Phone, &d.Address, &d.Specialty); err != nil {
			return nil, err
		}
		doctors = append(doctors, d)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return doctors, nil
}

func (r *DirectoryRepository) GetPatient(ctx context.Context, ssn string) (model.Patient, error) {
	var p model.Patient
	err := r.pool.QueryRow(ctx, `
		SELECT ssn, nif, nome, telefone, morada, data_nasc
		FROM paciente
		WHERE ssn = $1
	`, ssn).Scan(&p.SSN, &p.NIF, &p.Name, &p.Phone, &p.Address, &p.BirthDate)
	if err != nil {
		return model.Patient{}, err
	}
	return p, nil
}

// GetDoctorAtClinic resolves a doctor by NIF only if they have a trabalha row
// at the clinic; pgx.ErrNoRows otherwise.
func (r *DirectoryRepository) GetDoctorAtClinic(ctx context.Context, nif, clinic string) (model.Doctor, error) {
	var d model.Doctor
	err := r.pool.QueryRow(ctx, `
		SELECT DISTINCT m.nif, m.nome, m.telefone, m.morada, m.especialidade
		FROM medico m
		JOIN trabalha t ON t.nif = m.nif
		WHERE m.nif = $1 AND t.nome = $2
	`, nif, clinic).Scan(&d.NIF, &d.Name, &d.Phone, &d.Address, &d.Specialty)
	if err != nil {
		return model.Doctor{}, err
	}
	return d, nil
}

// Weekdays returns the weekdays on which the doctor works at the clinic,
// Postgres convention (0 = Sunday).
func (r *DirectoryRepository) Weekdays(ctx context.Context, nif, clinic string) ([]time.Weekday, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT dia_da_semana
		FROM trabalha
		WHERE nif = $1 AND nome = $2
		ORDER BY dia_da_semana
	`, nif, clinic)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var weekdays []time.Weekday
	for rows.Next() {
		var d int
		if err := rows.Scan(&d); err != nil {
			return nil, err
		}
		weekdays = append(weekdays, time.Weekday(d))
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return weekdays, nil
}

func (r *DirectoryRepository) CreateClinic(ctx context.Context, c model.Clinic) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO clinica (nome, telefone, morada)
		VALUES ($1, $2, $3)
	`, c.Name, c.Phone, c.Address)
	return err
}

func (r *DirectoryRepository) CreateDoctor(ctx context.Context, d model.Doctor) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO medico (nif, nome, telefone, morada, especialidade)
		VALUES ($1, $2, $3, $4, $5)
	`, d.NIF, d.Name, d.Phone, d.Address, d.Specialty)
	return err
}

func (r *DirectoryRepository) CreatePatient(ctx context.Context, p model.Patient) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO paciente (ssn, nif, nome, telefone, morada, data_nasc)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, p.SSN, p.NIF, p.Name, p.Phone, p.Address, p.BirthDate)
	return err
}

func (r *DirectoryRepository) CreateWorksAt(ctx context.Context, w model.WorksAt) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO trabalha (nif, nome, dia_da_semana)
		VALUES ($1, $2, $3)
	`, w.DoctorNIF, w.ClinicName, w.Weekday)
	return err
}
