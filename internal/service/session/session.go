package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/Alijeyrad/medicenter_backend/internal/repo"
	"github.com/Alijeyrad/medicenter_backend/internal/service/notification"
	"github.com/Alijeyrad/medicenter_backend/pkg/constants"
	"github.com/Alijeyrad/medicenter_backend/pkg/idgen"
)

var tracer = otel.Tracer("medicenter.internal.session")

// ---------------------------------------------------------------------------
// DTOs
// ---------------------------------------------------------------------------

type CreateSessionRequest struct {
	// CenterID is the center's UUID or its MC#### code.
	CenterID    string
	SessionName string
	StartTime   string
	EndTime     string
}

type UpdateSessionRequest struct {
	SessionName *string
	StartTime   *string
	EndTime     *string
}

// ---------------------------------------------------------------------------
// Interface
// ---------------------------------------------------------------------------

type Service interface {
	Create(ctx context.Context, req CreateSessionRequest, actor string) (*repo.Session, error)
	GetByID(ctx context.Context, id uuid.UUID) (*repo.Session, error)
	GetByCode(ctx context.Context, code string) (*repo.Session, error)
	ListByCenter(ctx context.Context, centerRef string, includeDeleted bool) ([]*repo.Session, error)
	Update(ctx context.Context, ref string, req UpdateSessionRequest, actor string) (*repo.Session, error)
	Delete(ctx context.Context, ref string, actor string) error

	// SetActive persists the toggle, then notifies every patient with a
	// scheduled appointment in the session today. Notification failures
	// never fail the call.
	SetActive(ctx context.Context, ref string, isActive bool, actor string) (*repo.Session, error)

	// DeactivateExpired switches off active sessions whose end time has
	// passed today. It returns how many were deactivated.
	DeactivateExpired(ctx context.Context, now time.Time) (int, error)
}

// ---------------------------------------------------------------------------
// Implementation
// ---------------------------------------------------------------------------

type Option func(*sessionService)

func WithClock(now func() time.Time) Option {
	return func(s *sessionService) { s.now = now }
}

func WithLogger(l *slog.Logger) Option {
	return func(s *sessionService) { s.logger = l }
}

func WithMaxAttempts(n int) Option {
	return func(s *sessionService) {
		if n > 0 {
			s.maxAttempts = n
		}
	}
}

type sessionService struct {
	db          *repo.Client
	counter     repo.Counter
	notifier    notification.Notifier
	loc         *time.Location
	now         func() time.Time
	logger      *slog.Logger
	maxAttempts int
}

func New(db *repo.Client, counter repo.Counter, notifier notification.Notifier, loc *time.Location, opts ...Option) Service {
	s := &sessionService{
		db:          db,
		counter:     counter,
		notifier:    notifier,
		loc:         loc,
		now:         time.Now,
		logger:      slog.Default(),
		maxAttempts: constants.DefaultBookingTries,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.loc == nil {
		s.loc = time.Local
	}
	return s
}

func (s *sessionService) parseWindow(start, end string) (repo.TimeOfDay, repo.TimeOfDay, error) {
	st, err := ParseClock(start)
	if err != nil {
		return 0, 0, ErrInvalidTime
	}
	en, err := ParseClock(end)
	if err != nil {
		return 0, 0, ErrInvalidTime
	}
	if en <= st {
		return 0, 0, ErrInvalidTimeRange
	}
	return st, en, nil
}

func (s *sessionService) activeCenter(ctx context.Context, ref string) (*repo.Center, error) {
	c, err := s.db.CenterByRef(ctx, ref)
	if err != nil {
		if repo.IsNotFound(err) {
			return nil, ErrCenterNotFound
		}
		return nil, fmt.Errorf("get center: %w", err)
	}
	if c.IsDeleted {
		return nil, ErrCenterNotFound
	}
	return c, nil
}

func (s *sessionService) find(ctx context.Context, ref string) (*repo.Session, error) {
	sess, err := s.db.SessionByRef(ctx, ref)
	if err != nil {
		if repo.IsNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get session: %w", err)
	}
	if sess.IsDeleted {
		return nil, ErrNotFound
	}
	return sess, nil
}

func (s *sessionService) Create(ctx context.Context, req CreateSessionRequest, actor string) (*repo.Session, error) {
	ctx, span := tracer.Start(ctx, "session.Create")
	defer span.End()

	name := strings.TrimSpace(req.SessionName)
	if name == "" {
		return nil, ErrNameRequired
	}
	start, end, err := s.parseWindow(req.StartTime, req.EndTime)
	if err != nil {
		return nil, err
	}

	center, err := s.activeCenter(ctx, req.CenterID)
	if err != nil {
		return nil, err
	}

	if _, err := s.db.Sessions.GetByName(ctx, center.ID, name); err == nil {
		return nil, ErrDuplicateSessionName
	} else if !repo.IsNotFound(err) {
		return nil, fmt.Errorf("check session name: %w", err)
	}

	scope := repo.SessionScope(center.Code)
	scheme := idgen.Session(center.Code)
	seed := func(ctx context.Context) (int64, error) {
		last, err := s.db.Sessions.LastCode(ctx, center.ID)
		if err != nil || last == "" {
			return 0, err
		}
		return idgen.Suffix(last)
	}

	for attempt := 0; attempt < s.maxAttempts; attempt++ {
		n, err := s.counter.Next(ctx, scope, 0, seed)
		if err != nil {
			return nil, fmt.Errorf("next session number: %w", err)
		}

		sess := &repo.Session{
			ID:         uuid.New(),
			Code:       scheme.Format(n),
			CenterID:   center.ID,
			CenterCode: center.Code,
			Name:       name,
			StartTime:  start,
			EndTime:    end,
			History:    []repo.HistoryEntry{repo.NewEntry(repo.ActionCreate, actor, s.now())},
		}

		err = s.db.Sessions.Create(ctx, sess)
		switch {
		case err == nil:
			return sess, nil
		case repo.IsUniqueViolation(err, repo.ConstraintSessionName):
			return nil, ErrDuplicateSessionName
		case repo.IsUniqueViolation(err, repo.ConstraintSessionCode):
			s.logger.Warn("session code collision, reseeding", "code", sess.Code)
			if err := s.counter.Reset(ctx, scope); err != nil {
				return nil, err
			}
		default:
			return nil, fmt.Errorf("create session: %w", err)
		}
	}
	return nil, ErrDuplicateIdentifier
}

func (s *sessionService) GetByID(ctx context.Context, id uuid.UUID) (*repo.Session, error) {
	return s.find(ctx, id.String())
}

func (s *sessionService) GetByCode(ctx context.Context, code string) (*repo.Session, error) {
	return s.find(ctx, code)
}

func (s *sessionService) ListByCenter(ctx context.Context, centerRef string, includeDeleted bool) ([]*repo.Session, error) {
	center, err := s.activeCenter(ctx, centerRef)
	if err != nil {
		return nil, err
	}
	list, err := s.db.Sessions.ListByCenter(ctx, center.ID, includeDeleted)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	return list, nil
}

func (s *sessionService) Update(ctx context.Context, ref string, req UpdateSessionRequest, actor string) (*repo.Session, error) {
	ctx, span := tracer.Start(ctx, "session.Update")
	defer span.End()

	sess, err := s.find(ctx, ref)
	if err != nil {
		return nil, err
	}

	var changed []string

	if req.SessionName != nil {
		name := strings.TrimSpace(*req.SessionName)
		if name == "" {
			return nil, ErrNameRequired
		}
		if name != sess.Name {
			other, err := s.db.Sessions.GetByName(ctx, sess.CenterID, name)
			switch {
			case err == nil && other.ID != sess.ID:
				return nil, ErrDuplicateSessionName
			case err != nil && !repo.IsNotFound(err):
				return nil, fmt.Errorf("check session name: %w", err)
			}
			sess.Name = name
			changed = append(changed, "sessionName")
		}
	}

	startStr, endStr := sess.StartTime.String(), sess.EndTime.String()
	if req.StartTime != nil {
		startStr = *req.StartTime
	}
	if req.EndTime != nil {
		endStr = *req.EndTime
	}
	start, end, err := s.parseWindow(startStr, endStr)
	if err != nil {
		return nil, err
	}
	if start != sess.StartTime {
		sess.StartTime = start
		changed = append(changed, "startTime")
	}
	if end != sess.EndTime {
		sess.EndTime = end
		changed = append(changed, "endTime")
	}

	if len(changed) == 0 {
		return sess, nil
	}

	entry := repo.NewEntry(repo.ActionUpdate, actor, s.now(), changed...)
	if err := s.db.Sessions.Update(ctx, sess, entry); err != nil {
		if repo.IsUniqueViolation(err, repo.ConstraintSessionName) {
			return nil, ErrDuplicateSessionName
		}
		if repo.IsNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("update session: %w", err)
	}
	return sess, nil
}

func (s *sessionService) Delete(ctx context.Context, ref string, actor string) error {
	sess, err := s.find(ctx, ref)
	if err != nil {
		return err
	}
	if err := s.db.Sessions.SoftDelete(ctx, sess.ID, repo.NewEntry(repo.ActionDelete, actor, s.now())); err != nil {
		if repo.IsNotFound(err) {
			return ErrNotFound
		}
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

func toggleAction(active bool) repo.Action {
	if active {
		return repo.ActionActivate
	}
	return repo.ActionDeactivate
}

func (s *sessionService) SetActive(ctx context.Context, ref string, isActive bool, actor string) (*repo.Session, error) {
	ctx, span := tracer.Start(ctx, "session.SetActive")
	defer span.End()
	span.SetAttributes(attribute.Bool("session.active", isActive))

	sess, err := s.find(ctx, ref)
	if err != nil {
		return nil, err
	}

	updated, err := s.db.Sessions.SetActive(ctx, sess.ID, isActive,
		repo.NewEntry(toggleAction(isActive), actor, s.now()))
	if err != nil {
		if repo.IsNotFound(err) {
			return nil, ErrNotFound
		}
		// Patients still hear about the requested state when the write fails.
		sent := s.fanOut(context.WithoutCancel(ctx), sess, isActive)
		span.SetAttributes(attribute.Int("notification.attempts", sent))
		return nil, fmt.Errorf("set session active: %w", err)
	}

	// A client disconnect must not cut the fan-out short.
	sent := s.fanOut(context.WithoutCancel(ctx), updated, isActive)
	span.SetAttributes(attribute.Int("notification.attempts", sent))

	return updated, nil
}

// fanOut notifies every patient holding a scheduled appointment in sess today
// and returns the number of delivery attempts.
func (s *sessionService) fanOut(ctx context.Context, sess *repo.Session, active bool) int {
	from, to := DayBounds(s.now(), s.loc)
	log := s.logger.With("session_id", sess.Code, "active", active)

	appts, err := s.db.Appointments.ListScheduled(ctx, sess.ID, from, to)
	if err != nil {
		log.Warn("session fan-out: list appointments failed", "err", err)
		return 0
	}
	if len(appts) == 0 {
		return 0
	}

	center, err := s.db.Centers.GetByID(ctx, sess.CenterID)
	if err != nil {
		log.Warn("session fan-out: center lookup failed", "err", err)
	}

	ids := make([]uuid.UUID, 0, len(appts))
	for _, a := range appts {
		ids = append(ids, a.PatientID)
	}
	patients, err := s.db.Patients.GetMany(ctx, ids)
	if err != nil {
		log.Warn("session fan-out: patient lookup failed", "err", err)
		return 0
	}
	byID := make(map[uuid.UUID]*repo.Patient, len(patients))
	for _, p := range patients {
		byID[p.ID] = p
	}

	build := notification.SessionDeactivated
	if active {
		build = notification.SessionActivated
	}

	attempts := 0
	for _, a := range appts {
		p, ok := byID[a.PatientID]
		if !ok {
			log.Warn("session fan-out: patient missing", "appointment_id", a.Code)
			continue
		}
		msg := build(notification.DetailsFor(a, p, center, sess, s.loc))
		attempts += s.notifier.Notify(ctx, notification.RecipientFor(p), msg)
	}

	log.Info("session fan-out complete", "appointments", len(appts), "attempts", attempts)
	return attempts
}

func (s *sessionService) DeactivateExpired(ctx context.Context, now time.Time) (int, error) {
	ctx, span := tracer.Start(ctx, "session.DeactivateExpired")
	defer span.End()

	active, err := s.db.Sessions.ListActive(ctx)
	if err != nil {
		return 0, fmt.Errorf("list active sessions: %w", err)
	}

	var (
		count int
		errs  []error
	)
	for _, sess := range active {
		if !IsAfterSessionEnd(now, now, sess.EndTime, s.loc) {
			continue
		}
		entry := repo.NewEntry(repo.ActionDeactivate, constants.SystemActor, now)
		if _, err := s.db.Sessions.SetActive(ctx, sess.ID, false, entry); err != nil {
			s.logger.Warn("sweeper: deactivate failed", "session_id", sess.Code, "err", err)
			errs = append(errs, err)
			continue
		}
		count++
	}
	if count > 0 {
		s.logger.Info("sweeper: sessions deactivated", "count", count)
	}
	return count, errors.Join(errs...)
}
