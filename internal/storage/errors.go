package storage

import (
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

var (
	// ErrNotFound reports that no row matched the operation's criteria.
	ErrNotFound = errors.New("not found")
	// ErrPastAppointment reports an attempt to mutate an appointment whose
	// date-time has already passed.
	ErrPastAppointment = errors.New("appointment is in the past")
	// ErrNoSNSCode reports that a prescription was attached to an appointment
	// registered without an SNS code.
	ErrNoSNSCode = errors.New("appointment has no SNS code")
)

// Postgres error codes the operations translate at the boundary.
const (
	codeUniqueViolation     = "23505"
	codeForeignKeyViolation = "23503"
	codeExclusionViolation  = "23P01"
)

// IsConflict reports whether err is a uniqueness (or exclusion) constraint
// violation. The database constraint is the authoritative double-booking
// enforcement; a violating insert is expected under concurrent bookings.
func IsConflict(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	return pgErr.Code == codeUniqueViolation || pgErr.Code == codeExclusionViolation
}

// IsForeignKeyViolation reports a referenced row (patient, doctor, clinic or
// trabalha pair) missing at insert time.
func IsForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == codeForeignKeyViolation
}

func IsNotFound(err error) bool {
	return errors.Is(err, pgx.ErrNoRows) || errors.Is(err, ErrNotFound)
}
