package appointment

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/Alijeyrad/medicenter_backend/internal/repo"
	"github.com/Alijeyrad/medicenter_backend/internal/service/session"
	"github.com/Alijeyrad/medicenter_backend/pkg/paging"
)

func (s *appointmentService) GetByID(ctx context.Context, ref string) (*Detail, error) {
	ctx, span := tracer.Start(ctx, "appointment.GetByID")
	defer span.End()

	a, err := s.find(ctx, ref)
	if err != nil {
		return nil, err
	}
	d := &Detail{Appointment: a}

	// A referenced record that has since vanished leaves its field nil.
	if d.Session, err = s.db.Sessions.GetByID(ctx, a.SessionID); err != nil && !repo.IsNotFound(err) {
		return nil, fmt.Errorf("get session: %w", err)
	}
	if d.Center, err = s.db.Centers.GetByID(ctx, a.CenterID); err != nil && !repo.IsNotFound(err) {
		return nil, fmt.Errorf("get center: %w", err)
	}
	if d.Patient, err = s.db.Patients.GetByID(ctx, a.PatientID); err != nil && !repo.IsNotFound(err) {
		return nil, fmt.Errorf("get patient: %w", err)
	}
	return d, nil
}

// errNoMatch marks a filter reference that resolves to nothing, so the
// listing is empty.
var errNoMatch = errors.New("no match")

func resolve[T any](ctx context.Context, ref string, lookup func(context.Context, string) (*T, error), id func(*T) uuid.UUID) (*uuid.UUID, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil, nil
	}
	v, err := lookup(ctx, ref)
	if err != nil {
		if repo.IsNotFound(err) {
			return nil, errNoMatch
		}
		return nil, err
	}
	out := id(v)
	return &out, nil
}

func (s *appointmentService) filter(ctx context.Context, req ListRequest, page paging.Request) (repo.AppointmentFilter, error) {
	f := repo.AppointmentFilter{
		Search:           strings.TrimSpace(req.Search),
		IsPatientVisited: req.IsPatientVisited,
		Status:           strings.TrimSpace(req.Status),
		IncludeDeleted:   req.IncludeDeleted,
		Page:             repo.Page{Limit: page.Limit, Offset: page.Offset()},
	}

	var err error
	if f.CenterID, err = resolve(ctx, req.CenterID, s.db.CenterByRef, func(c *repo.Center) uuid.UUID { return c.ID }); err != nil {
		return f, err
	}
	if f.SessionID, err = resolve(ctx, req.SessionID, s.db.SessionByRef, func(v *repo.Session) uuid.UUID { return v.ID }); err != nil {
		return f, err
	}
	if f.PatientID, err = resolve(ctx, req.PatientID, s.db.PatientByRef, func(p *repo.Patient) uuid.UUID { return p.ID }); err != nil {
		return f, err
	}
	f.SortByToken = f.SessionID != nil

	if strings.TrimSpace(req.Date) != "" {
		day, err := s.parseDay(req.Date)
		if err != nil {
			return f, err
		}
		from, to := session.DayBounds(day, s.loc)
		from, to = from.UTC(), to.UTC()
		f.From, f.To = &from, &to
	}
	return f, nil
}

func (s *appointmentService) List(ctx context.Context, req ListRequest) (paging.Result[*View], error) {
	ctx, span := tracer.Start(ctx, "appointment.List")
	defer span.End()

	page := s.limits.Normalize(req.Page, req.Limit)
	f, err := s.filter(ctx, req, page)
	if errors.Is(err, errNoMatch) {
		return paging.NewResult[*View](nil, 0, page), nil
	}
	if err != nil {
		return paging.Result[*View]{}, err
	}

	list, total, err := s.db.Appointments.List(ctx, f)
	if err != nil {
		return paging.Result[*View]{}, fmt.Errorf("list appointments: %w", err)
	}

	views, err := s.enrich(ctx, list)
	if err != nil {
		return paging.Result[*View]{}, err
	}
	return paging.NewResult(views, total, page), nil
}

// enrich loads the distinct sessions of a page in one query and merges them
// onto the rows.
func (s *appointmentService) enrich(ctx context.Context, list []*repo.Appointment) ([]*View, error) {
	seen := make(map[uuid.UUID]struct{}, len(list))
	ids := make([]uuid.UUID, 0, len(list))
	for _, a := range list {
		if _, ok := seen[a.SessionID]; !ok {
			seen[a.SessionID] = struct{}{}
			ids = append(ids, a.SessionID)
		}
	}

	sessions, err := s.db.Sessions.GetMany(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load sessions: %w", err)
	}
	byID := make(map[uuid.UUID]*repo.Session, len(sessions))
	for _, sess := range sessions {
		byID[sess.ID] = sess
	}

	views := make([]*View, 0, len(list))
	for _, a := range list {
		views = append(views, &View{Appointment: a, Session: byID[a.SessionID]})
	}
	return views, nil
}
