package repo

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type Patient struct {
	ID            uuid.UUID      `json:"id"`
	Code          string         `json:"patientId"`
	Name          string         `json:"name"`
	ContactNumber string         `json:"contactNumber"`
	Email         string         `json:"email"`
	Gender        string         `json:"gender"`
	DateOfBirth   *time.Time     `json:"dateOfBirth,omitempty"`
	IsDeleted     bool           `json:"isDeleted"`
	History       []HistoryEntry `json:"modificationHistory"`
	CreatedAt     time.Time      `json:"createdAt"`
	UpdatedAt     time.Time      `json:"updatedAt"`
}

type PatientFilter struct {
	Search string
	Page
}

type PatientRepository interface {
	Create(ctx context.Context, p *Patient) error
	GetByID(ctx context.Context, id uuid.UUID) (*Patient, error)
	GetByCode(ctx context.Context, code string) (*Patient, error)
	GetMany(ctx context.Context, ids []uuid.UUID) ([]*Patient, error)
	LastCode(ctx context.Context) (string, error)
	List(ctx context.Context, f PatientFilter) ([]*Patient, int, error)
	Update(ctx context.Context, p *Patient, entry HistoryEntry) error
}

const patientColumns = `id, patient_code, name, contact_number, email, gender, date_of_birth, is_deleted,
	modification_history, created_at, updated_at`

type patientRepo struct {
	db DBTX
}

func scanPatient(row pgx.Row) (*Patient, error) {
	var (
		p       Patient
		history []byte
	)
	if err := row.Scan(&p.ID, &p.Code, &p.Name, &p.ContactNumber, &p.Email, &p.Gender,
		&p.DateOfBirth, &p.IsDeleted, &history, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	h, err := decodeHistory(history)
	if err != nil {
		return nil, err
	}
	p.History = h
	return &p, nil
}

func (r *patientRepo) collect(ctx context.Context, op, sql string, args ...any) ([]*Patient, error) {
	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, mapErr(op, err)
	}
	defer rows.Close()

	var out []*Patient
	for rows.Next() {
		p, err := scanPatient(rows)
		if err != nil {
			return nil, fmt.Errorf("scan patient: %w", err)
		}
		out = append(out, p)
	}
	return out, mapErr(op, rows.Err())
}

func (r *patientRepo) Create(ctx context.Context, p *Patient) error {
	history, err := appendArg(p.History...)
	if err != nil {
		return err
	}
	err = r.db.QueryRow(ctx, `
		INSERT INTO patients (id, patient_code, name, contact_number, email, gender, date_of_birth, modification_history)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8::jsonb)
		RETURNING created_at, updated_at`,
		p.ID, p.Code, p.Name, p.ContactNumber, p.Email, p.Gender, p.DateOfBirth, history,
	).Scan(&p.CreatedAt, &p.UpdatedAt)
	return mapErr("insert patient", err)
}

func (r *patientRepo) GetByID(ctx context.Context, id uuid.UUID) (*Patient, error) {
	p, err := scanPatient(r.db.QueryRow(ctx,
		`SELECT `+patientColumns+` FROM patients WHERE id = $1`, id))
	return p, mapErr("get patient", err)
}

func (r *patientRepo) GetByCode(ctx context.Context, code string) (*Patient, error) {
	p, err := scanPatient(r.db.QueryRow(ctx,
		`SELECT `+patientColumns+` FROM patients WHERE patient_code = $1`, code))
	return p, mapErr("get patient by code", err)
}

func (r *patientRepo) GetMany(ctx context.Context, ids []uuid.UUID) ([]*Patient, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	return r.collect(ctx, "get patients",
		`SELECT `+patientColumns+` FROM patients WHERE id = ANY($1)`, ids)
}

func (r *patientRepo) LastCode(ctx context.Context) (string, error) {
	return lastCode(ctx, r.db, "last patient code", `
		SELECT patient_code FROM patients
		ORDER BY LENGTH(patient_code) DESC, patient_code DESC LIMIT 1`)
}

func (r *patientRepo) List(ctx context.Context, f PatientFilter) ([]*Patient, int, error) {
	clause := " WHERE NOT is_deleted"
	var args []any
	if s := strings.TrimSpace(f.Search); s != "" {
		args = append(args, containsPattern(s))
		clause += ` AND (name ILIKE $1 ESCAPE '\' OR patient_code ILIKE $1 ESCAPE '\' OR contact_number ILIKE $1 ESCAPE '\')`
	}

	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM patients`+clause, args...).Scan(&total); err != nil {
		return nil, 0, mapErr("count patients", err)
	}

	args = append(args, f.Limit, f.Offset)
	out, err := r.collect(ctx, "list patients",
		`SELECT `+patientColumns+` FROM patients`+clause+
			fmt.Sprintf(" ORDER BY patient_code ASC LIMIT $%d OFFSET $%d", len(args)-1, len(args)),
		args...)
	if err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

func (r *patientRepo) Update(ctx context.Context, p *Patient, entry HistoryEntry) error {
	history, err := appendArg(entry)
	if err != nil {
		return err
	}
	tag, err := r.db.Exec(ctx, `
		UPDATE patients
		SET name = $2, contact_number = $3, email = $4, gender = $5, date_of_birth = $6,
		    modification_history = modification_history || $7::jsonb, updated_at = NOW()
		WHERE id = $1 AND NOT is_deleted`,
		p.ID, p.Name, p.ContactNumber, p.Email, p.Gender, p.DateOfBirth, history)
	if err != nil {
		return mapErr("update patient", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	p.History = append(p.History, entry)
	return nil
}
