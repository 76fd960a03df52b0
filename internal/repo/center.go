package repo

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type Center struct {
	ID            uuid.UUID      `json:"id"`
	Code          string         `json:"centerId"`
	Name          string         `json:"name"`
	Email         string         `json:"email"`
	ContactNumber string         `json:"contactNumber"`
	Address       string         `json:"address"`
	IsDeleted     bool           `json:"isDeleted"`
	History       []HistoryEntry `json:"modificationHistory"`
	CreatedAt     time.Time      `json:"createdAt"`
	UpdatedAt     time.Time      `json:"updatedAt"`
}

type CenterFilter struct {
	Search         string
	IncludeDeleted bool
	Page
}

type CenterRepository interface {
	Create(ctx context.Context, c *Center) error
	GetByID(ctx context.Context, id uuid.UUID) (*Center, error)
	GetByCode(ctx context.Context, code string) (*Center, error)
	GetMany(ctx context.Context, ids []uuid.UUID) ([]*Center, error)
	LastCode(ctx context.Context) (string, error)
	List(ctx context.Context, f CenterFilter) ([]*Center, int, error)
	Update(ctx context.Context, c *Center, entry HistoryEntry) error
	SoftDelete(ctx context.Context, id uuid.UUID, entry HistoryEntry) error
}

const centerColumns = `id, center_code, name, email, contact_number, address, is_deleted,
	modification_history, created_at, updated_at`

type centerRepo struct {
	db DBTX
}

func scanCenter(row pgx.Row) (*Center, error) {
	var (
		c       Center
		history []byte
	)
	if err := row.Scan(&c.ID, &c.Code, &c.Name, &c.Email, &c.ContactNumber, &c.Address,
		&c.IsDeleted, &history, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, err
	}
	h, err := decodeHistory(history)
	if err != nil {
		return nil, err
	}
	c.History = h
	return &c, nil
}

func (r *centerRepo) Create(ctx context.Context, c *Center) error {
	history, err := appendArg(c.History...)
	if err != nil {
		return err
	}
	err = r.db.QueryRow(ctx, `
		INSERT INTO medical_centers (id, center_code, name, email, contact_number, address, modification_history)
		VALUES ($1, $2, $3, $4, $5, $6, $7::jsonb)
		RETURNING created_at, updated_at`,
		c.ID, c.Code, c.Name, c.Email, c.ContactNumber, c.Address, history,
	).Scan(&c.CreatedAt, &c.UpdatedAt)
	return mapErr("insert center", err)
}

func (r *centerRepo) GetByID(ctx context.Context, id uuid.UUID) (*Center, error) {
	c, err := scanCenter(r.db.QueryRow(ctx,
		`SELECT `+centerColumns+` FROM medical_centers WHERE id = $1`, id))
	return c, mapErr("get center", err)
}

func (r *centerRepo) GetByCode(ctx context.Context, code string) (*Center, error) {
	c, err := scanCenter(r.db.QueryRow(ctx,
		`SELECT `+centerColumns+` FROM medical_centers WHERE center_code = $1`, code))
	return c, mapErr("get center by code", err)
}

func (r *centerRepo) GetMany(ctx context.Context, ids []uuid.UUID) ([]*Center, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	rows, err := r.db.Query(ctx,
		`SELECT `+centerColumns+` FROM medical_centers WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, mapErr("get centers", err)
	}
	defer rows.Close()

	var out []*Center
	for rows.Next() {
		c, err := scanCenter(rows)
		if err != nil {
			return nil, fmt.Errorf("scan center: %w", err)
		}
		out = append(out, c)
	}
	return out, mapErr("get centers", rows.Err())
}

// LastCode returns the highest issued center code, or "" when there is none.
func (r *centerRepo) LastCode(ctx context.Context) (string, error) {
	return lastCode(ctx, r.db, "last center code", `
		SELECT center_code FROM medical_centers
		ORDER BY LENGTH(center_code) DESC, center_code DESC LIMIT 1`)
}

func (r *centerRepo) List(ctx context.Context, f CenterFilter) ([]*Center, int, error) {
	var (
		where []string
		args  []any
	)
	if !f.IncludeDeleted {
		where = append(where, "NOT is_deleted")
	}
	if s := strings.TrimSpace(f.Search); s != "" {
		args = append(args, containsPattern(s))
		where = append(where, fmt.Sprintf(`(name ILIKE $%d ESCAPE '\' OR center_code ILIKE $%d ESCAPE '\')`, len(args), len(args)))
	}
	clause := ""
	if len(where) > 0 {
		clause = " WHERE " + strings.Join(where, " AND ")
	}

	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM medical_centers`+clause, args...).Scan(&total); err != nil {
		return nil, 0, mapErr("count centers", err)
	}

	args = append(args, f.Limit, f.Offset)
	rows, err := r.db.Query(ctx,
		`SELECT `+centerColumns+` FROM medical_centers`+clause+
			fmt.Sprintf(" ORDER BY center_code ASC LIMIT $%d OFFSET $%d", len(args)-1, len(args)),
		args...)
	if err != nil {
		return nil, 0, mapErr("list centers", err)
	}
	defer rows.Close()

	var out []*Center
	for rows.Next() {
		c, err := scanCenter(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan center: %w", err)
		}
		out = append(out, c)
	}
	return out, total, mapErr("list centers", rows.Err())
}

func (r *centerRepo) Update(ctx context.Context, c *Center, entry HistoryEntry) error {
	history, err := appendArg(entry)
	if err != nil {
		return err
	}
	tag, err := r.db.Exec(ctx, `
		UPDATE medical_centers
		SET name = $2, email = $3, contact_number = $4, address = $5,
		    modification_history = modification_history || $6::jsonb, updated_at = NOW()
		WHERE id = $1`,
		c.ID, c.Name, c.Email, c.ContactNumber, c.Address, history)
	if err != nil {
		return mapErr("update center", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	c.History = append(c.History, entry)
	return nil
}

func (r *centerRepo) SoftDelete(ctx context.Context, id uuid.UUID, entry HistoryEntry) error {
	history, err := appendArg(entry)
	if err != nil {
		return err
	}
	tag, err := r.db.Exec(ctx, `
		UPDATE medical_centers
		SET is_deleted = TRUE, modification_history = modification_history || $2::jsonb, updated_at = NOW()
		WHERE id = $1 AND NOT is_deleted`, id, history)
	if err != nil {
		return mapErr("delete center", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
