package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/saudeclin/clinica-api/internal/model"
	"github.com/saudeclin/clinica-api/internal/outbox"
	"github.com/saudeclin/clinica-api/libs/db"
)

const (
	dateLayout = "2006-01-02"
	timeLayout = "15:04:05"
)

// AppointmentRepository owns the consulta table. Booking and cancellation run
// inside a single transaction together with their outbox event, so the domain
// change and the event become visible atomically. The UNIQUE (nif, data, hora)
// constraint is the sole double-booking enforcement; a violating concurrent
// insert surfaces through IsConflict.
type AppointmentRepository struct {
	pool   *db.Pool
	outbox *outbox.Repository
}

func NewAppointmentRepository(pool *db.Pool, outboxRepo *outbox.Repository) *AppointmentRepository {
	return &AppointmentRepository{pool: pool, outbox: outboxRepo}
}

// Book inserts the appointment and returns the generated id. Constraint
// violations pass through untranslated for the caller's IsConflict /
// IsForeignKeyViolation checks.
func (r *AppointmentRepository) Book(ctx context.Context, appt model.Appointment) (int64, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var id int64
	err = tx.QueryRow(ctx, `
		INSERT INTO consulta (ssn, nif, nome, data, hora, codigo_sns)
		VALUES ($1, $2, $3, $4, $5::time, NULLIF($6, ''))
		RETURNING id
	`, appt.PatientSSN, appt.DoctorNIF, appt.ClinicName,
		appt.ScheduledAt, appt.ScheduledAt.Format(timeLayout), appt.SNSCode).Scan(&id)
	if err != nil {
		return 0, err
	}

	appt.ID = id
	if err := r.insertEvent(ctx, tx, outbox.EventAppointmentBooked, appt); err != nil {
		return 0, err
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, err
	}
	return id, nil
}

// CancelByID deletes a future appointment by id.
func (r *AppointmentRepository) CancelByID(ctx context.Context, id int64, now time.Time) error {
	return r.cancel(ctx, now, `WHERE id = $1`, id)
}

// CancelByDetails deletes a future appointment matched by patient, doctor and
// scheduled date-time.
func (r *AppointmentRepository) CancelByDetails(ctx context.Context, ssn, nif string, at time.Time, now time.Time) error {
	return r.cancel(ctx, now,
		`WHERE ssn = $1 AND nif = $2 AND data = $3 AND hora = $4::time`,
		ssn, nif, at, at.Format(timeLayout))
}

func (r *AppointmentRepository) cancel(ctx context.Context, now time.Time, where string, args ...any) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var (
		appt     model.Appointment
		day      time.Time
		horaText string
		code     *string
	)
	err = tx.QueryRow(ctx, `
		SELECT id, ssn, nif, nome, data, hora::text, codigo_sns
		FROM consulta
		`+where+`
		FOR UPDATE
	`, args...).Scan(&appt.ID, &appt.PatientSSN, &appt.DoctorNIF, &appt.ClinicName, &day, &horaText, &code)
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("cancel appointment: %w", ErrNotFound)
	}
	if err != nil {
		return err
	}
	appt.ScheduledAt, err = combine(day, horaText)
	if err != nil {
		return err
	}
	if code != nil {
		appt.SNSCode = *code
	}

	// Past appointments are immutable.
	if !appt.ScheduledAt.After(now) {
		return ErrPastAppointment
	}

	tag, err := tx.Exec(ctx, `DELETE FROM consulta WHERE id = $1`, appt.ID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("cancel appointment: %w", ErrNotFound)
	}

	if err := r.insertEvent(ctx, tx, outbox.EventAppointmentCancelled, appt); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// UpcomingByDoctor returns the doctor's next appointments at the clinic,
// strictly after now, ascending by date then time, at most limit.
func (r *AppointmentRepository) UpcomingByDoctor(ctx context.Context, clinic, nif string, now time.Time, limit int) ([]time.Time, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT data, hora::text
		FROM consulta
		WHERE nome = $1 AND nif = $2 AND data + hora > $3::timestamp
		ORDER BY data, hora
		LIMIT $4
	`, clinic, nif, now, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanSlots(rows)
}

// BookedFrom returns every future (date, time) the doctor already has booked,
// at any clinic, for free-slot computation.
func (r *AppointmentRepository) BookedFrom(ctx context.Context, nif string, from time.Time) ([]time.Time, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT data, hora::text
		FROM consulta
		WHERE nif = $1 AND data + hora > $2::timestamp
		ORDER BY data, hora
	`, nif, from)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanSlots(rows)
}

func (r *AppointmentRepository) insertEvent(ctx context.Context, tx pgx.Tx, eventType string, appt model.Appointment) error {
	payload, err := json.Marshal(map[string]any{
		"consulta_id": appt.ID,
		"paciente":    appt.PatientSSN,
		"medico":      appt.DoctorNIF,
		"clinica":     appt.ClinicName,
		"data":        appt.ScheduledAt.Format(dateLayout),
		"hora":        appt.ScheduledAt.Format(timeLayout),
		"codigo_sns":  appt.SNSCode,
	})
	if err != nil {
		return err
	}
	return r.outbox.Insert(ctx, tx, outbox.Event{
		AggregateType: "consulta",
		AggregateID:   strconv.FormatInt(appt.ID, 10),
		EventType:     eventType,
		Payload:       payload,
	})
}

func scanSlots(rows pgx.Rows) ([]time.Time, error) {
	var slots []time.Time
	for rows.Next() {
		var (
			day      time.Time
			horaText string
		)
		if err := rows.Scan(&day, &horaText); err != nil {
			return nil, err
		}
		at, err := combine(day, horaText)
		if err != nil {
			return nil, err
		}
		slots = append(slots, at)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return slots, nil
}

func combine(day time.Time, horaText string) (time.Time, error) {
	clock, err := time.Parse(timeLayout, horaText)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse hora %q: %w", horaText, err)
	}
	return time.Date(day.Year(), day.Month(), day.Day(),
		clock.Hour(), clock.Minute(), clock.Second(), 0, time.UTC), nil
}
