package repo

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type Session struct {
	ID              uuid.UUID      `json:"id"`
	Code            string         `json:"sessionId"`
	CenterID        uuid.UUID      `json:"centerUUID"`
	CenterCode      string         `json:"centerId"`
	Name            string         `json:"sessionName"`
	StartTime       TimeOfDay      `json:"startTime"`
	EndTime         TimeOfDay      `json:"endTime"`
	IsSessionActive bool           `json:"isSessionActive"`
	IsDeleted       bool           `json:"isDeleted"`
	History         []HistoryEntry `json:"modificationHistory"`
	CreatedAt       time.Time      `json:"createdAt"`
	UpdatedAt       time.Time      `json:"updatedAt"`
}

type SessionRepository interface {
	Create(ctx context.Context, s *Session) error
	GetByID(ctx context.Context, id uuid.UUID) (*Session, error)
	GetByCode(ctx context.Context, code string) (*Session, error)
	GetMany(ctx context.Context, ids []uuid.UUID) ([]*Session, error)
	// GetByName matches the exact, case-sensitive name among non-deleted sessions.
	GetByName(ctx context.Context, centerID uuid.UUID, name string) (*Session, error)
	ListByCenter(ctx context.Context, centerID uuid.UUID, includeDeleted bool) ([]*Session, error)
	ListActive(ctx context.Context) ([]*Session, error)
	LastCode(ctx context.Context, centerID uuid.UUID) (string, error)
	Update(ctx context.Context, s *Session, entry HistoryEntry) error
	SetActive(ctx context.Context, id uuid.UUID, active bool, entry HistoryEntry) (*Session, error)
	SoftDelete(ctx context.Context, id uuid.UUID, entry HistoryEntry) error
}

const sessionColumns = `id, session_code, center_id, center_code, session_name, start_minute, end_minute,
	is_session_active, is_deleted, modification_history, created_at, updated_at`

type sessionRepo struct {
	db DBTX
}

func scanSession(row pgx.Row) (*Session, error) {
	var (
		s          Session
		start, end int
		history    []byte
	)
	if err := row.Scan(&s.ID, &s.Code, &s.CenterID, &s.CenterCode, &s.Name, &start, &end,
		&s.IsSessionActive, &s.IsDeleted, &history, &s.CreatedAt, &s.UpdatedAt); err != nil {
		return nil, err
	}
	h, err := decodeHistory(history)
	if err != nil {
		return nil, err
	}
	s.StartTime, s.EndTime, s.History = TimeOfDay(start), TimeOfDay(end), h
	return &s, nil
}

func (r *sessionRepo) collect(ctx context.Context, op, sql string, args ...any) ([]*Session, error) {
	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, mapErr(op, err)
	}
	defer rows.Close()

	var out []*Session
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		out = append(out, s)
	}
	return out, mapErr(op, rows.Err())
}

func (r *sessionRepo) Create(ctx context.Context, s *Session) error {
	history, err := appendArg(s.History...)
	if err != nil {
		return err
	}
	err = r.db.QueryRow(ctx, `
		INSERT INTO sessions (id, session_code, center_id, center_code, session_name, start_minute, end_minute,
		                      is_session_active, modification_history)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9::jsonb)
		RETURNING created_at, updated_at`,
		s.ID, s.Code, s.CenterID, s.CenterCode, s.Name, int(s.StartTime), int(s.EndTime),
		s.IsSessionActive, history,
	).Scan(&s.CreatedAt, &s.UpdatedAt)
	return mapErr("insert session", err)
}

func (r *sessionRepo) GetByID(ctx context.Context, id uuid.UUID) (*Session, error) {
	s, err := scanSession(r.db.QueryRow(ctx,
		`SELECT `+sessionColumns+` FROM sessions WHERE id = $1`, id))
	return s, mapErr("get session", err)
}

func (r *sessionRepo) GetByCode(ctx context.Context, code string) (*Session, error) {
	s, err := scanSession(r.db.QueryRow(ctx,
		`SELECT `+sessionColumns+` FROM sessions WHERE session_code = $1`, code))
	return s, mapErr("get session by code", err)
}

func (r *sessionRepo) GetMany(ctx context.Context, ids []uuid.UUID) ([]*Session, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	return r.collect(ctx, "get sessions",
		`SELECT `+sessionColumns+` FROM sessions WHERE id = ANY($1)`, ids)
}

func (r *sessionRepo) GetByName(ctx context.Context, centerID uuid.UUID, name string) (*Session, error) {
	s, err := scanSession(r.db.QueryRow(ctx,
		`SELECT `+sessionColumns+` FROM sessions
		 WHERE center_id = $1 AND session_name = $2 AND NOT is_deleted`, centerID, name))
	return s, mapErr("get session by name", err)
}

func (r *sessionRepo) ListByCenter(ctx context.Context, centerID uuid.UUID, includeDeleted bool) ([]*Session, error) {
	return r.collect(ctx, "list sessions",
		`SELECT `+sessionColumns+` FROM sessions
		 WHERE center_id = $1 AND ($2 OR NOT is_deleted)
		 ORDER BY start_minute ASC, session_code ASC`, centerID, includeDeleted)
}

func (r *sessionRepo) ListActive(ctx context.Context) ([]*Session, error) {
	return r.collect(ctx, "list active sessions",
		`SELECT `+sessionColumns+` FROM sessions
		 WHERE is_session_active AND NOT is_deleted ORDER BY session_code ASC`)
}

func (r *sessionRepo) LastCode(ctx context.Context, centerID uuid.UUID) (string, error) {
	return lastCode(ctx, r.db, "last session code", `
		SELECT session_code FROM sessions WHERE center_id = $1
		ORDER BY LENGTH(session_code) DESC, session_code DESC LIMIT 1`, centerID)
}

func (r *sessionRepo) Update(ctx context.Context, s *Session, entry HistoryEntry) error {
	history, err := appendArg(entry)
	if err != nil {
		return err
	}
	tag, err := r.db.Exec(ctx, `
		UPDATE sessions
		SET session_name = $2, start_minute = $3, end_minute = $4,
		    modification_history = modification_history || $5::jsonb, updated_at = NOW()
		WHERE id = $1`,
		s.ID, s.Name, int(s.StartTime), int(s.EndTime), history)
	if err != nil {
		return mapErr("update session", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	s.History = append(s.History, entry)
	return nil
}

// SetActive writes the flag and the history entry in one statement and
// returns the stored row.
func (r *sessionRepo) SetActive(ctx context.Context, id uuid.UUID, active bool, entry HistoryEntry) (*Session, error) {
	history, err := appendArg(entry)
	if err != nil {
		return nil, err
	}
	s, err := scanSession(r.db.QueryRow(ctx, `
		UPDATE sessions
		SET is_session_active = $2, modification_history = modification_history || $3::jsonb, updated_at = NOW()
		WHERE id = $1 AND NOT is_deleted
		RETURNING `+sessionColumns, id, active, history))
	return s, mapErr("set session active", err)
}

func (r *sessionRepo) SoftDelete(ctx context.Context, id uuid.UUID, entry HistoryEntry) error {
	history, err := appendArg(entry)
	if err != nil {
		return err
	}
	tag, err := r.db.Exec(ctx, `
		UPDATE sessions
		SET is_deleted = TRUE, is_session_active = FALSE,
		    modification_history = modification_history || $2::jsonb, updated_at = NOW()
		WHERE id = $1 AND NOT is_deleted`, id, history)
	if err != nil {
		return mapErr("delete session", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
