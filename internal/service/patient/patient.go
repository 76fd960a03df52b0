package patient

import (
	"context"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/Alijeyrad/medicenter_backend/internal/repo"
	"github.com/Alijeyrad/medicenter_backend/pkg/constants"
	"github.com/Alijeyrad/medicenter_backend/pkg/idgen"
	"github.com/Alijeyrad/medicenter_backend/pkg/paging"
	"github.com/Alijeyrad/medicenter_backend/pkg/phone"
)

var tracer = otel.Tracer("medicenter.internal.patient")

var genders = map[string]struct{}{"male": {}, "female": {}, "other": {}}

// ---------------------------------------------------------------------------
// DTOs
// ---------------------------------------------------------------------------

type CreatePatientRequest struct {
	Name          string
	ContactNumber string
	Email         string
	Gender        string
	DateOfBirth   *time.Time
}

type UpdatePatientRequest struct {
	Name          *string
	ContactNumber *string
	Email         *string
	Gender        *string
	DateOfBirth   *time.Time
}

type ListPatientsRequest struct {
	Search string
	Page   int
	Limit  int
}

// ---------------------------------------------------------------------------
// Service interface
// ---------------------------------------------------------------------------

type Service interface {
	Create(ctx context.Context, req CreatePatientRequest, actor string) (*repo.Patient, error)
	GetByID(ctx context.Context, id uuid.UUID) (*repo.Patient, error)
	GetByCode(ctx context.Context, code string) (*repo.Patient, error)
	// Get accepts either the UUID or the P###### code.
	Get(ctx context.Context, ref string) (*repo.Patient, error)
	List(ctx context.Context, req ListPatientsRequest) (paging.Result[*repo.Patient], error)
	// Update appends history only when a field actually changes.
	Update(ctx context.Context, ref string, req UpdatePatientRequest, actor string) (*repo.Patient, error)
}

// ---------------------------------------------------------------------------
// Implementation
// ---------------------------------------------------------------------------

type Option func(*patientService)

func WithClock(now func() time.Time) Option {
	return func(s *patientService) { s.now = now }
}

func WithLogger(l *slog.Logger) Option {
	return func(s *patientService) { s.logger = l }
}

func WithMaxAttempts(n int) Option {
	return func(s *patientService) {
		if n > 0 {
			s.maxAttempts = n
		}
	}
}

func WithPhoneRegion(region string) Option {
	return func(s *patientService) { s.region = region }
}

func WithPageLimits(l paging.Limits) Option {
	return func(s *patientService) { s.limits = l }
}

type patientService struct {
	db          *repo.Client
	counter     repo.Counter
	now         func() time.Time
	logger      *slog.Logger
	region      string
	limits      paging.Limits
	maxAttempts int
}

func New(db *repo.Client, counter repo.Counter, opts ...Option) Service {
	s := &patientService{
		db:          db,
		counter:     counter,
		now:         time.Now,
		logger:      slog.Default(),
		region:      constants.DefaultPhoneRegion,
		limits:      paging.DefaultLimits(),
		maxAttempts: constants.DefaultBookingTries,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// fields is the normalized, validated form shared by create and update.
type fields struct {
	name, contact, email, gender string
	dob                          *time.Time
}

func (s *patientService) normalize(f fields) (fields, error) {
	f.name = strings.TrimSpace(f.name)
	if f.name == "" {
		return f, ErrNameRequired
	}

	f.contact = strings.TrimSpace(f.contact)
	if f.contact != "" {
		n, err := phone.Normalize(f.contact, s.region)
		if err != nil {
			return f, ErrInvalidContactNumber
		}
		f.contact = n
	}

	f.email = strings.TrimSpace(f.email)
	if f.email != "" {
		addr, err := mail.ParseAddress(f.email)
		if err != nil {
			return f, ErrInvalidEmail
		}
		f.email = addr.Address
	}

	f.gender = strings.ToLower(strings.TrimSpace(f.gender))
	if f.gender != "" {
		if _, ok := genders[f.gender]; !ok {
			return f, ErrInvalidGender
		}
	}

	if f.dob != nil {
		d := time.Date(f.dob.Year(), f.dob.Month(), f.dob.Day(), 0, 0, 0, 0, time.UTC)
		if d.After(s.now().UTC()) {
			return f, ErrInvalidDateOfBirth
		}
		f.dob = &d
	}
	return f, nil
}

func (s *patientService) Create(ctx context.Context, req CreatePatientRequest, actor string) (*repo.Patient, error) {
	ctx, span := tracer.Start(ctx, "patient.Create")
	defer span.End()

	f, err := s.normalize(fields{
		name: req.Name, contact: req.ContactNumber, email: req.Email,
		gender: req.Gender, dob: req.DateOfBirth,
	})
	if err != nil {
		return nil, err
	}

	scope := repo.PatientScope()
	seed := func(ctx context.Context) (int64, error) {
		last, err := s.db.Patients.LastCode(ctx)
		if err != nil || last == "" {
			return 0, err
		}
		return idgen.Suffix(last)
	}

	for attempt := 0; attempt < s.maxAttempts; attempt++ {
		n, err := s.counter.Next(ctx, scope, 0, seed)
		if err != nil {
			return nil, fmt.Errorf("next patient number: %w", err)
		}

		p := &repo.Patient{
			ID:            uuid.New(),
			Code:          idgen.Patient.Format(n),
			Name:          f.name,
			ContactNumber: f.contact,
			Email:         f.email,
			Gender:        f.gender,
			DateOfBirth:   f.dob,
			History:       []repo.HistoryEntry{repo.NewEntry(repo.ActionCreate, actor, s.now())},
		}

		err = s.db.Patients.Create(ctx, p)
		switch {
		case err == nil:
			span.SetAttributes(attribute.String("patient.code", p.Code))
			return p, nil
		case repo.IsUniqueViolation(err, repo.ConstraintPatientCode):
			s.logger.Warn("patient code collision, reseeding", "code", p.Code, "attempt", attempt+1)
			if err := s.counter.Reset(ctx, scope); err != nil {
				return nil, err
			}
		default:
			return nil, fmt.Errorf("create patient: %w", err)
		}
	}
	return nil, ErrDuplicateIdentifier
}

func (s *patientService) Get(ctx context.Context, ref string) (*repo.Patient, error) {
	p, err := s.db.PatientByRef(ctx, ref)
	if err != nil {
		if repo.IsNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get patient: %w", err)
	}
	if p.IsDeleted {
		return nil, ErrNotFound
	}
	return p, nil
}

func (s *patientService) GetByID(ctx context.Context, id uuid.UUID) (*repo.Patient, error) {
	return s.Get(ctx, id.String())
}

func (s *patientService) GetByCode(ctx context.Context, code string) (*repo.Patient, error) {
	return s.Get(ctx, code)
}

func (s *patientService) List(ctx context.Context, req ListPatientsRequest) (paging.Result[*repo.Patient], error) {
	page := s.limits.Normalize(req.Page, req.Limit)
	list, total, err := s.db.Patients.List(ctx, repo.PatientFilter{
		Search: strings.TrimSpace(req.Search),
		Page:   repo.Page{Limit: page.Limit, Offset: page.Offset()},
	})
	if err != nil {
		return paging.Result[*repo.Patient]{}, fmt.Errorf("list patients: %w", err)
	}
	return paging.NewResult(list, total, page), nil
}

func sameDay(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Equal(*b)
}

func (s *patientService) Update(ctx context.Context, ref string, req UpdatePatientRequest, actor string) (*repo.Patient, error) {
	ctx, span := tracer.Start(ctx, "patient.Update")
	defer span.End()

	p, err := s.Get(ctx, ref)
	if err != nil {
		return nil, err
	}

	in := fields{name: p.Name, contact: p.ContactNumber, email: p.Email, gender: p.Gender, dob: p.DateOfBirth}
	if req.Name != nil {
		in.name = *req.Name
	}
	if req.ContactNumber != nil {
		in.contact = *req.ContactNumber
	}
	if req.Email != nil {
		in.email = *req.Email
	}
	if req.Gender != nil {
		in.gender = *req.Gender
	}
	if req.DateOfBirth != nil {
		in.dob = req.DateOfBirth
	}
	f, err := s.normalize(in)
	if err != nil {
		return nil, err
	}

	var changed []string
	if f.name != p.Name {
		p.Name = f.name
		changed = append(changed, "name")
	}
	if f.contact != p.ContactNumber {
		p.ContactNumber = f.contact
		changed = append(changed, "contactNumber")
	}
	if f.email != p.Email {
		p.Email = f.email
		changed = append(changed, "email")
	}
	if f.gender != p.Gender {
		p.Gender = f.gender
		changed = append(changed, "gender")
	}
	if !sameDay(f.dob, p.DateOfBirth) {
		p.DateOfBirth = f.dob
		changed = append(changed, "dateOfBirth")
	}
	if len(changed) == 0 {
		return p, nil
	}

	if err := s.db.Patients.Update(ctx, p, repo.NewEntry(repo.ActionUpdate, actor, s.now(), changed...)); err != nil {
		if repo.IsNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("update patient: %w", err)
	}
	return p, nil
}
