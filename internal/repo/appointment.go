package repo

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const (
	StatusScheduled = "scheduled"
	StatusCancelled = "cancelled"
	StatusCompleted = "completed"
)

type Appointment struct {
	ID               uuid.UUID      `json:"id"`
	Code             string         `json:"appointmentId"`
	TokenNo          int            `json:"tokenNo"`
	PatientID        uuid.UUID      `json:"patientUUID"`
	PatientCode      string         `json:"patientId"`
	CenterID         uuid.UUID      `json:"centerUUID"`
	CenterCode       string         `json:"centerId"`
	SessionID        uuid.UUID      `json:"sessionUUID"`
	SessionCode      string         `json:"sessionId"`
	Date             time.Time      `json:"date"`
	Status           string         `json:"status"`
	IsPatientVisited bool           `json:"isPatientvisited"`
	IsDeleted        bool           `json:"isDeleted"`
	History          []HistoryEntry `json:"modificationHistory"`
	CreatedAt        time.Time      `json:"createdAt"`
	UpdatedAt        time.Time      `json:"updatedAt"`
}

// AppointmentFilter narrows List. From and To bound Date as [From, To).
type AppointmentFilter struct {
	Search           string
	CenterID         *uuid.UUID
	SessionID        *uuid.UUID
	PatientID        *uuid.UUID
	IsPatientVisited *bool
	From             *time.Time
	To               *time.Time
	Status           string
	IncludeDeleted   bool
	// SortByToken orders by token only, for single-session listings.
	SortByToken bool
	Page
}

type AppointmentRepository interface {
	Create(ctx context.Context, a *Appointment) error
	GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error)
	GetByCode(ctx context.Context, code string) (*Appointment, error)
	// ExistsActive reports whether a non-cancelled booking exists for the
	// patient, center and session with a date in [from, to).
	ExistsActive(ctx context.Context, patientID, centerID, sessionID uuid.UUID, from, to time.Time) (bool, error)
	MaxTokenNo(ctx context.Context, sessionID uuid.UUID, from, to time.Time) (int, error)
	ListScheduled(ctx context.Context, sessionID uuid.UUID, from, to time.Time) ([]*Appointment, error)
	List(ctx context.Context, f AppointmentFilter) ([]*Appointment, int, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status string, visited bool, entry HistoryEntry) (*Appointment, error)
}

const appointmentColumns = `id, appointment_code, token_no, patient_id, patient_code, center_id, center_code,
	session_id, session_code, date, status, is_patient_visited, is_deleted, modification_history,
	created_at, updated_at`

type appointmentRepo struct {
	db DBTX
}

func scanAppointment(row pgx.Row) (*Appointment, error) {
	var (
		a       Appointment
		history []byte
	)
	if err := row.Scan(&a.ID, &a.Code, &a.TokenNo, &a.PatientID, &a.PatientCode, &a.CenterID,
		&a.CenterCode, &a.SessionID, &a.SessionCode, &a.Date, &a.Status, &a.IsPatientVisited,
		&a.IsDeleted, &history, &a.CreatedAt, &a.UpdatedAt); err != nil {
		return nil, err
	}
	h, err := decodeHistory(history)
	if err != nil {
		return nil, err
	}
	a.History = h
	return &a, nil
}

func (r *appointmentRepo) collect(ctx context.Context, op, sql string, args ...any) ([]*Appointment, error) {
	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, mapErr(op, err)
	}
	defer rows.Close()

	var out []*Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan appointment: %w", err)
		}
		out = append(out, a)
	}
	return out, mapErr(op, rows.Err())
}

func (r *appointmentRepo) Create(ctx context.Context, a *Appointment) error {
	history, err := appendArg(a.History...)
	if err != nil {
		return err
	}
	err = r.db.QueryRow(ctx, `
		INSERT INTO appointments (id, appointment_code, token_no, patient_id, patient_code, center_id, center_code,
		                          session_id, session_code, date, status, is_patient_visited, modification_history)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13::jsonb)
		RETURNING created_at, updated_at`,
		a.ID, a.Code, a.TokenNo, a.PatientID, a.PatientCode, a.CenterID, a.CenterCode,
		a.SessionID, a.SessionCode, a.Date, a.Status, a.IsPatientVisited, history,
	).Scan(&a.CreatedAt, &a.UpdatedAt)
	return mapErr("insert appointment", err)
}

func (r *appointmentRepo) GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	a, err := scanAppointment(r.db.QueryRow(ctx,
		`SELECT `+appointmentColumns+` FROM appointments WHERE id = $1`, id))
	return a, mapErr("get appointment", err)
}

func (r *appointmentRepo) GetByCode(ctx context.Context, code string) (*Appointment, error) {
	a, err := scanAppointment(r.db.QueryRow(ctx,
		`SELECT `+appointmentColumns+` FROM appointments WHERE appointment_code = $1`, code))
	return a, mapErr("get appointment by code", err)
}

func (r *appointmentRepo) ExistsActive(ctx context.Context, patientID, centerID, sessionID uuid.UUID, from, to time.Time) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM appointments
			WHERE patient_id = $1 AND center_id = $2 AND session_id = $3
			  AND date >= $4 AND date < $5 AND status <> 'cancelled'
		)`, patientID, centerID, sessionID, from, to).Scan(&exists)
	return exists, mapErr("check duplicate booking", err)
}

func (r *appointmentRepo) MaxTokenNo(ctx context.Context, sessionID uuid.UUID, from, to time.Time) (int, error) {
	var n int
	err := r.db.QueryRow(ctx, `
		SELECT COALESCE(MAX(token_no), 0) FROM appointments
		WHERE session_id = $1 AND date >= $2 AND date < $3`, sessionID, from, to).Scan(&n)
	return n, mapErr("max token", err)
}

func (r *appointmentRepo) ListScheduled(ctx context.Context, sessionID uuid.UUID, from, to time.Time) ([]*Appointment, error) {
	return r.collect(ctx, "list scheduled appointments", `
		SELECT `+appointmentColumns+` FROM appointments
		WHERE session_id = $1 AND date >= $2 AND date < $3
		  AND status = 'scheduled' AND NOT is_deleted
		ORDER BY token_no ASC`, sessionID, from, to)
}

func (r *appointmentRepo) List(ctx context.Context, f AppointmentFilter) ([]*Appointment, int, error) {
	var (
		where []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if !f.IncludeDeleted {
		where = append(where, "NOT is_deleted")
	}
	if s := strings.TrimSpace(f.Search); s != "" {
		where = append(where, "appointment_code ILIKE "+arg(containsPattern(s))+` ESCAPE '\'`)
	}
	if f.CenterID != nil {
		where = append(where, "center_id = "+arg(*f.CenterID))
	}
	if f.SessionID != nil {
		where = append(where, "session_id = "+arg(*f.SessionID))
	}
	if f.PatientID != nil {
		where = append(where, "patient_id = "+arg(*f.PatientID))
	}
	if f.IsPatientVisited != nil {
		where = append(where, "is_patient_visited = "+arg(*f.IsPatientVisited))
	}
	if f.From != nil {
		where = append(where, "date >= "+arg(*f.From))
	}
	if f.To != nil {
		where = append(where, "date < "+arg(*f.To))
	}
	if f.Status != "" {
		where = append(where, "status = "+arg(f.Status))
	}

	clause := ""
	if len(where) > 0 {
		clause = " WHERE " + strings.Join(where, " AND ")
	}

	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM appointments`+clause, args...).Scan(&total); err != nil {
		return nil, 0, mapErr("count appointments", err)
	}

	order := " ORDER BY date DESC, token_no ASC"
	if f.SortByToken {
		order = " ORDER BY token_no ASC"
	}
	limit, offset := arg(f.Limit), arg(f.Offset)

	out, err := r.collect(ctx, "list appointments",
		`SELECT `+appointmentColumns+` FROM appointments`+clause+order+
			" LIMIT "+limit+" OFFSET "+offset, args...)
	if err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

func (r *appointmentRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status string, visited bool, entry HistoryEntry) (*Appointment, error) {
	history, err := appendArg(entry)
	if err != nil {
		return nil, err
	}
	a, err := scanAppointment(r.db.QueryRow(ctx, `
		UPDATE appointments
		SET status = $2, is_patient_visited = $3,
		    modification_history = modification_history || $4::jsonb, updated_at = NOW()
		WHERE id = $1
		RETURNING `+appointmentColumns, id, status, visited, history))
	return a, mapErr("update appointment status", err)
}
