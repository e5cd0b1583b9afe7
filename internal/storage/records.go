package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/saudeclin/clinica-api/internal/model"
	"github.com/saudeclin/clinica-api/libs/db"
)

// RecordsRepository owns receita and observacao, the clinical records attached
// to an appointment.
type RecordsRepository struct {
	pool *db.Pool
}

func NewRecordsRepository(pool *db.Pool) *RecordsRepository {
	return &RecordsRepository{pool: pool}
}

// AddPrescription attaches a receita to the appointment's SNS code. Fails with
// ErrNotFound for an unknown appointment and ErrNoSNSCode for one registered
// without a code.
func (r *RecordsRepository) AddPrescription(ctx context.Context, appointmentID int64, drug string, quantity int) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var code *string
	err = tx.QueryRow(ctx, `
		SELECT codigo_sns FROM consulta WHERE id = $1
	`, appointmentID).Scan(&code)
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("appointment %d: %w", appointmentID, ErrNotFound)
	}
	if err != nil {
		return err
	}
	if code == nil {
		return ErrNoSNSCode
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO receita (codigo_sns, medicamento, quantidade)
		VALUES ($1, $2, $3)
	`, *code, drug, quantity)
	if err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// AddObservation records a measured parameter for the appointment.
func (r *RecordsRepository) AddObservation(ctx context.Context, appointmentID int64, parameter string, value *float64) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO observacao (id, parametro, valor)
		VALUES ($1, $2, $3)
	`, appointmentID, parameter, value)
	return err
}

// ListRecords returns the appointment's prescriptions and observations.
func (r *RecordsRepository) ListRecords(ctx context.Context, appointmentID int64) ([]model.Prescription, []model.Observation, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM consulta WHERE id = $1)
	`, appointmentID).Scan(&exists)
	if err != nil {
		return nil, nil, err
	}
	if !exists {
		return nil, nil, fmt.Errorf("appointment %d: %w", appointmentID, ErrNotFound)
	}

	rows, err := r.pool.Query(ctx, `
		SELECT r.codigo_sns, r.medicamento, r.quantidade
		FROM receita r
		JOIN consulta c ON c.codigo_sns = r.codigo_sns
		WHERE c.id = $1
		ORDER BY r.medicamento
	`, appointmentID)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	var prescriptions []model.Prescription
	for rows.Next() {
		var p model.Prescription
		if err := rows.Scan(&p.SNSCode, &p.Drug, &p.Quantity); err != nil {
			return nil, nil, err
		}
		prescriptions = append(prescriptions, p)
	}
	if rows.Err() != nil {
		return nil, nil, rows.Err()
	}

	obsRows, err := r.pool.Query(ctx, `
		SELECT id, parametro, valor
		FROM observacao
		WHERE id = $1
		ORDER BY parametro
	`, appointmentID)
	if err != nil {
		return nil, nil, err
	}
	defer obsRows.Close()

	var observations []model.Observation
	for obsRows.Next() {
		var o model.Observation
		if err := obsRows.Scan(&o.AppointmentID, &o.Parameter, &o.Value); err != nil {
			return nil, nil, err
		}
		observations = append(observations, o)
	}
	if obsRows.Err() != nil {
		return nil, nil, obsRows.Err()
	}
	return prescriptions, observations, nil
}
