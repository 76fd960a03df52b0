package repo

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type Medicine struct {
	Name      string `json:"name"`
	Dosage    string `json:"dosage,omitempty"`
	Frequency string `json:"frequency,omitempty"`
	Duration  string `json:"duration,omitempty"`
	Notes     string `json:"notes,omitempty"`
}

type Prescription struct {
	ID              uuid.UUID      `json:"id"`
	Number          string         `json:"prescriptionNo"`
	AppointmentID   uuid.UUID      `json:"appointmentUUID"`
	AppointmentCode string         `json:"appointmentId"`
	PatientID       uuid.UUID      `json:"patientUUID"`
	CenterID        uuid.UUID      `json:"centerUUID"`
	Medicines       []Medicine     `json:"medicines"`
	Notes           string         `json:"notes"`
	History         []HistoryEntry `json:"modificationHistory"`
	CreatedAt       time.Time      `json:"createdAt"`
}

type PrescriptionRepository interface {
	Create(ctx context.Context, p *Prescription) error
	CountByAppointment(ctx context.Context, appointmentID uuid.UUID) (int, error)
	ListByAppointment(ctx context.Context, appointmentID uuid.UUID) ([]*Prescription, error)
	GetByNumber(ctx context.Context, number string) (*Prescription, error)
}

const prescriptionColumns = `id, prescription_no, appointment_id, appointment_code, patient_id, center_id,
	medicines, notes, modification_history, created_at`

type prescriptionRepo struct {
	db DBTX
}

func scanPrescription(row pgx.Row) (*Prescription, error) {
	var (
		p                  Prescription
		medicines, history []byte
	)
	if err := row.Scan(&p.ID, &p.Number, &p.AppointmentID, &p.AppointmentCode, &p.PatientID,
		&p.CenterID, &medicines, &p.Notes, &history, &p.CreatedAt); err != nil {
		return nil, err
	}
	if len(medicines) > 0 {
		if err := json.Unmarshal(medicines, &p.Medicines); err != nil {
			return nil, fmt.Errorf("decode medicines: %w", err)
		}
	}
	h, err := decodeHistory(history)
	if err != nil {
		return nil, err
	}
	p.History = h
	return &p, nil
}

func (r *prescriptionRepo) Create(ctx context.Context, p *Prescription) error {
	medicines := p.Medicines
	if medicines == nil {
		medicines = []Medicine{}
	}
	meds, err := json.Marshal(medicines)
	if err != nil {
		return fmt.Errorf("encode medicines: %w", err)
	}
	history, err := appendArg(p.History...)
	if err != nil {
		return err
	}
	err = r.db.QueryRow(ctx, `
		INSERT INTO prescriptions (id, prescription_no, appointment_id, appointment_code, patient_id, center_id,
		                           medicines, notes, modification_history)
		VALUES ($1, $2, $3, $4, $5, $6, $7::jsonb, $8, $9::jsonb)
		RETURNING created_at`,
		p.ID, p.Number, p.AppointmentID, p.AppointmentCode, p.PatientID, p.CenterID, meds, p.Notes, history,
	).Scan(&p.CreatedAt)
	return mapErr("insert prescription", err)
}

func (r *prescriptionRepo) CountByAppointment(ctx context.Context, appointmentID uuid.UUID) (int, error) {
	var n int
	err := r.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM prescriptions WHERE appointment_id = $1`, appointmentID).Scan(&n)
	return n, mapErr("count prescriptions", err)
}

func (r *prescriptionRepo) ListByAppointment(ctx context.Context, appointmentID uuid.UUID) ([]*Prescription, error) {
	rows, err := r.db.Query(ctx, `SELECT `+prescriptionColumns+` FROM prescriptions
		WHERE appointment_id = $1 ORDER BY created_at ASC`, appointmentID)
	if err != nil {
		return nil, mapErr("list prescriptions", err)
	}
	defer rows.Close()

	var out []*Prescription
	for rows.Next() {
		p, err := scanPrescription(rows)
		if err != nil {
			return nil, fmt.Errorf("scan prescription: %w", err)
		}
		out = append(out, p)
	}
	return out, mapErr("list prescriptions", rows.Err())
}

func (r *prescriptionRepo) GetByNumber(ctx context.Context, number string) (*Prescription, error) {
	p, err := scanPrescription(r.db.QueryRow(ctx,
		`SELECT `+prescriptionColumns+` FROM prescriptions WHERE prescription_no = $1`, number))
	return p, mapErr("get prescription", err)
}
