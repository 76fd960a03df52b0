package appointment

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/Alijeyrad/medicenter_backend/internal/repo"
	"github.com/Alijeyrad/medicenter_backend/internal/service/session"
	"github.com/Alijeyrad/medicenter_backend/pkg/constants"
	"github.com/Alijeyrad/medicenter_backend/pkg/idgen"
	"github.com/Alijeyrad/medicenter_backend/pkg/paging"
)

var tracer = otel.Tracer("medicenter.internal.appointment")

const dateLayout = "2006-01-02"

// ---------------------------------------------------------------------------
// DTOs
// ---------------------------------------------------------------------------

// BookRequest carries business codes or UUIDs for each reference. Date is a
// civil date, YYYY-MM-DD.
type BookRequest struct {
	CenterID  string
	SessionID string
	PatientID string
	Date      string
}

// UpdateStatusRequest applies whichever fields are set.
type UpdateStatusRequest struct {
	IsPatientVisited *bool
	IsCancelled      *bool
}

type ListRequest struct {
	Search           string
	CenterID         string
	SessionID        string
	PatientID        string
	IsPatientVisited *bool
	// Date is a civil date, YYYY-MM-DD.
	Date           string
	Status         string
	IncludeDeleted bool
	Page           int
	Limit          int
}

// View is an appointment with its session merged in, as listed.
type View struct {
	*repo.Appointment
	Session *repo.Session `json:"session,omitempty"`
}

// Detail is a single appointment with every record it references.
type Detail struct {
	Appointment *repo.Appointment `json:"appointment"`
	Session     *repo.Session     `json:"session"`
	Center      *repo.Center      `json:"center"`
	Patient     *repo.Patient     `json:"patient"`
}

// ---------------------------------------------------------------------------
// Interface
// ---------------------------------------------------------------------------

type Service interface {
	// Book creates a scheduled appointment. Failed lookups, a closed window
	// or a duplicate booking create nothing and publish nothing.
	Book(ctx context.Context, req BookRequest, actor string) (*repo.Appointment, error)
	// Cancel requires the owning session to be active.
	Cancel(ctx context.Context, ref string, actor string) (*repo.Appointment, error)
	// UpdateStatus always records an UPDATE entry, even when nothing changes.
	UpdateStatus(ctx context.Context, ref string, req UpdateStatusRequest, actor string) (*repo.Appointment, error)
	GetByID(ctx context.Context, ref string) (*Detail, error)
	List(ctx context.Context, req ListRequest) (paging.Result[*View], error)
}

// ---------------------------------------------------------------------------
// Implementation
// ---------------------------------------------------------------------------

type Option func(*appointmentService)

func WithClock(now func() time.Time) Option {
	return func(s *appointmentService) { s.now = now }
}

func WithLogger(l *slog.Logger) Option {
	return func(s *appointmentService) { s.logger = l }
}

func WithMaxAttempts(n int) Option {
	return func(s *appointmentService) {
		if n > 0 {
			s.maxAttempts = n
		}
	}
}

// WithSequenceTTL sets how long a day's token counter outlives its last use.
func WithSequenceTTL(ttl time.Duration) Option {
	return func(s *appointmentService) { s.sequenceTTL = ttl }
}

func WithPageLimits(l paging.Limits) Option {
	return func(s *appointmentService) { s.limits = l }
}

func WithMetrics(m *Metrics) Option {
	return func(s *appointmentService) { s.metrics = m }
}

type appointmentService struct {
	db          *repo.Client
	counter     repo.Counter
	events      Publisher
	loc         *time.Location
	now         func() time.Time
	logger      *slog.Logger
	metrics     *Metrics
	limits      paging.Limits
	sequenceTTL time.Duration
	maxAttempts int
}

// New builds the appointment service. events may be nil, in which case no
// events are published.
func New(db *repo.Client, counter repo.Counter, events Publisher, loc *time.Location, opts ...Option) Service {
	s := &appointmentService{
		db:          db,
		counter:     counter,
		events:      events,
		loc:         loc,
		now:         time.Now,
		logger:      slog.Default(),
		limits:      paging.DefaultLimits(),
		sequenceTTL: 48 * time.Hour,
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

// parseDay reads a civil date as midnight in the clinic's timezone.
func (s *appointmentService) parseDay(v string) (time.Time, error) {
	d, err := time.ParseInLocation(dateLayout, strings.TrimSpace(v), s.loc)
	if err != nil {
		return time.Time{}, ErrInvalidDate
	}
	return d, nil
}

func (s *appointmentService) Book(ctx context.Context, req BookRequest, actor string) (a *repo.Appointment, err error) {
	ctx, span := tracer.Start(ctx, "appointment.Book")
	defer span.End()
	defer func() {
		s.metrics.observe(err)
		if err != nil {
			span.SetStatus(codes.Error, err.Error())
		}
	}()

	if strings.TrimSpace(req.CenterID) == "" || strings.TrimSpace(req.SessionID) == "" ||
		strings.TrimSpace(req.PatientID) == "" || strings.TrimSpace(req.Date) == "" {
		return nil, ErrMissingField
	}
	day, err := s.parseDay(req.Date)
	if err != nil {
		return nil, err
	}

	center, err := s.db.CenterByRef(ctx, req.CenterID)
	if err != nil || center.IsDeleted {
		return nil, notFoundOr(err, ErrCenterNotFound, "get center")
	}

	sess, err := s.db.SessionByRef(ctx, req.SessionID)
	if err != nil || sess.IsDeleted || sess.CenterID != center.ID {
		return nil, notFoundOr(err, ErrSessionNotFound, "get session")
	}

	patient, err := s.db.PatientByRef(ctx, req.PatientID)
	if err != nil || patient.IsDeleted {
		return nil, notFoundOr(err, ErrPatientNotFound, "get patient")
	}

	if session.IsAfterSessionEnd(s.now(), day, sess.EndTime, s.loc) {
		return nil, ErrSessionWindowClosed
	}

	from, to := session.DayBounds(day, s.loc)
	dup, err := s.db.Appointments.ExistsActive(ctx, patient.ID, center.ID, sess.ID, from, to)
	if err != nil {
		return nil, fmt.Errorf("check duplicate booking: %w", err)
	}
	if dup {
		return nil, ErrDuplicateBooking
	}

	a, err = s.insert(ctx, center, sess, patient, day, actor)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(
		attribute.String("appointment.code", a.Code),
		attribute.Int("appointment.token", a.TokenNo),
	)
	s.logger.InfoContext(ctx, "appointment booked",
		"appointment_id", a.Code, "token_no", a.TokenNo, "actor", actor)

	s.publishBooked(context.WithoutCancel(ctx), a)
	return a, nil
}

// insert draws one value from the day's counter for both the token and the
// code suffix, and retries with a reseeded counter when it collides.
func (s *appointmentService) insert(ctx context.Context, center *repo.Center, sess *repo.Session,
	patient *repo.Patient, day time.Time, actor string) (*repo.Appointment, error) {
	scope := repo.AppointmentScope(sess.Code, day)
	scheme := idgen.Appointment(sess.Code, day)
	from, to := session.DayBounds(day, s.loc)
	seed := func(ctx context.Context) (int64, error) {
		n, err := s.db.Appointments.MaxTokenNo(ctx, sess.ID, from, to)
		return int64(n), err
	}

	for attempt := 0; attempt < s.maxAttempts; attempt++ {
		n, err := s.counter.Next(ctx, scope, s.sequenceTTL, seed)
		if err != nil {
			return nil, fmt.Errorf("next token: %w", err)
		}

		a := &repo.Appointment{
			ID:          uuid.New(),
			Code:        scheme.Format(n),
			TokenNo:     int(n),
			PatientID:   patient.ID,
			PatientCode: patient.Code,
			CenterID:    center.ID,
			CenterCode:  center.Code,
			SessionID:   sess.ID,
			SessionCode: sess.Code,
			Date:        day,
			Status:      repo.StatusScheduled,
			History:     []repo.HistoryEntry{repo.NewEntry(repo.ActionCreate, actor, s.now())},
		}

		err = s.db.Appointments.Create(ctx, a)
		switch {
		case err == nil:
			return a, nil
		case repo.IsUniqueViolation(err, repo.ConstraintActiveBooking):
			return nil, ErrDuplicateBooking
		case repo.IsUniqueViolation(err, repo.ConstraintAppointmentCode, repo.ConstraintAppointmentToken):
			s.logger.WarnContext(ctx, "appointment token collision, reseeding",
				"appointment_id", a.Code, "attempt", attempt+1)
			if err := s.counter.Reset(ctx, scope); err != nil {
				return nil, err
			}
		default:
			return nil, fmt.Errorf("create appointment: %w", err)
		}
	}
	return nil, ErrDuplicateIdentifier
}

func notFoundOr(err, notFound error, op string) error {
	if err == nil || repo.IsNotFound(err) {
		return notFound
	}
	return fmt.Errorf("%s: %w", op, err)
}

func (s *appointmentService) find(ctx context.Context, ref string) (*repo.Appointment, error) {
	a, err := s.db.AppointmentByRef(ctx, ref)
	if err != nil || a.IsDeleted {
		return nil, notFoundOr(err, ErrNotFound, "get appointment")
	}
	return a, nil
}

func (s *appointmentService) Cancel(ctx context.Context, ref string, actor string) (*repo.Appointment, error) {
	ctx, span := tracer.Start(ctx, "appointment.Cancel")
	defer span.End()

	a, err := s.find(ctx, ref)
	if err != nil {
		return nil, err
	}

	sess, err := s.db.Sessions.GetByID(ctx, a.SessionID)
	if err != nil {
		if repo.IsNotFound(err) {
			return nil, ErrSessionNotActive
		}
		return nil, fmt.Errorf("get session: %w", err)
	}
	if !sess.IsSessionActive || sess.IsDeleted {
		return nil, ErrSessionNotActive
	}

	updated, err := s.db.Appointments.UpdateStatus(ctx, a.ID, repo.StatusCancelled, a.IsPatientVisited,
		repo.NewEntry(repo.ActionCancel, actor, s.now()))
	if err != nil {
		return nil, notFoundOr(err, ErrNotFound, "cancel appointment")
	}

	s.logger.InfoContext(ctx, "appointment cancelled", "appointment_id", updated.Code, "actor", actor)
	s.publishCancelled(context.WithoutCancel(ctx), updated)
	return updated, nil
}

// nextStatus derives the stored status from the two flags. Cancellation
// wins; otherwise a visited appointment is completed.
func nextStatus(current string, visited bool, cancel *bool) string {
	cancelled := current == repo.StatusCancelled
	if cancel != nil {
		cancelled = *cancel
	}
	switch {
	case cancelled:
		return repo.StatusCancelled
	case visited:
		return repo.StatusCompleted
	default:
		return repo.StatusScheduled
	}
}

func (s *appointmentService) UpdateStatus(ctx context.Context, ref string, req UpdateStatusRequest, actor string) (*repo.Appointment, error) {
	ctx, span := tracer.Start(ctx, "appointment.UpdateStatus")
	defer span.End()

	a, err := s.find(ctx, ref)
	if err != nil {
		return nil, err
	}

	var fields []string
	visited := a.IsPatientVisited
	if req.IsPatientVisited != nil {
		visited = *req.IsPatientVisited
		fields = append(fields, "isPatientvisited")
	}
	if req.IsCancelled != nil {
		fields = append(fields, "isCancelled")
	}
	status := nextStatus(a.Status, visited, req.IsCancelled)

	updated, err := s.db.Appointments.UpdateStatus(ctx, a.ID, status, visited,
		repo.NewEntry(repo.ActionUpdate, actor, s.now(), fields...))
	if err != nil {
		if repo.IsUniqueViolation(err, repo.ConstraintActiveBooking) {
			return nil, ErrDuplicateBooking
		}
		return nil, notFoundOr(err, ErrNotFound, "update appointment status")
	}

	if a.Status != repo.StatusCancelled && updated.Status == repo.StatusCancelled {
		s.publishCancelled(context.WithoutCancel(ctx), updated)
	}
	return updated, nil
}
