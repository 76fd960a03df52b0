// Package repo is the PostgreSQL persistence layer. Every repository runs its
// statements through DBTX so a *pgxpool.Pool, a pgx.Tx or a pgxmock pool can
// back it interchangeably.
package repo

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DBTX is the subset of pgxpool.Pool used by the repositories.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

var ErrNotFound = errors.New("record not found")

// UniqueViolation reports a rejected insert or update and the constraint that
// rejected it.
type UniqueViolation struct {
	Constraint string
	Err        error
}

func (e *UniqueViolation) Error() string {
	return fmt.Sprintf("unique violation on %s", e.Constraint)
}

func (e *UniqueViolation) Unwrap() error { return e.Err }

// Constraint names declared in migrations/000001_init.up.sql.
const (
	ConstraintCenterCode       = "uq_medical_centers_code"
	ConstraintSessionCode      = "uq_sessions_code"
	ConstraintSessionName      = "uq_sessions_center_name"
	ConstraintPatientCode      = "uq_patients_code"
	ConstraintAppointmentCode  = "uq_appointments_code"
	ConstraintAppointmentToken = "uq_appointments_token"
	ConstraintActiveBooking    = "uq_appointments_active_booking"
	ConstraintPrescriptionNo   = "uq_prescriptions_no"
	pgUniqueViolationSQLState  = "23505"
)

func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsUniqueViolation reports whether err is a unique violation. When
// constraints are given, only those constraints match.
func IsUniqueViolation(err error, constraints ...string) bool {
	var uv *UniqueViolation
	if !errors.As(err, &uv) {
		return false
	}
	if len(constraints) == 0 {
		return true
	}
	for _, c := range constraints {
		if uv.Constraint == c {
			return true
		}
	}
	return false
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// containsPattern is an ILIKE pattern matching s literally anywhere. Callers
// pair it with ESCAPE '\'.
func containsPattern(s string) string {
	return "%" + likeEscaper.Replace(s) + "%"
}

// mapErr translates driver errors into the package's error vocabulary.
func mapErr(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolationSQLState {
		return &UniqueViolation{Constraint: pgErr.ConstraintName, Err: err}
	}
	return fmt.Errorf("%s: %w", op, err)
}

// Client groups the repositories behind interfaces so services can be tested
// against in-memory implementations.
type Client struct {
	Centers       CenterRepository
	Sessions      SessionRepository
	Patients      PatientRepository
	Appointments  AppointmentRepository
	Prescriptions PrescriptionRepository
}

func NewClient(db DBTX) *Client {
	return &Client{
		Centers:       &centerRepo{db: db},
		Sessions:      &sessionRepo{db: db},
		Patients:      &patientRepo{db: db},
		Appointments:  &appointmentRepo{db: db},
		Prescriptions: &prescriptionRepo{db: db},
	}
}

// Page is an offset window over a list query.
type Page struct {
	Limit  int
	Offset int
}

// lastCode runs a single-column query ordered so the highest code comes first.
// Longer codes sort first because the counter may outgrow its pad width.
func lastCode(ctx context.Context, db DBTX, op, sql string, args ...any) (string, error) {
	var code string
	err := db.QueryRow(ctx, sql, args...).Scan(&code)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", nil
	}
	return code, mapErr(op, err)
}
