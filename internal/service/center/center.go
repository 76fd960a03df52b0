package center

import (
	"context"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"

	"github.com/Alijeyrad/medicenter_backend/internal/repo"
	"github.com/Alijeyrad/medicenter_backend/pkg/authorize"
	"github.com/Alijeyrad/medicenter_backend/pkg/constants"
	"github.com/Alijeyrad/medicenter_backend/pkg/idgen"
	"github.com/Alijeyrad/medicenter_backend/pkg/paging"
	"github.com/Alijeyrad/medicenter_backend/pkg/phone"
)

var tracer = otel.Tracer("medicenter.internal.center")

// ---------------------------------------------------------------------------
// DTOs
// ---------------------------------------------------------------------------

type CreateCenterRequest struct {
	Name          string
	Email         string
	ContactNumber string
	Address       string
}

type UpdateCenterRequest struct {
	Name          *string
	Email         *string
	ContactNumber *string
	Address       *string
}

type ListCentersRequest struct {
	Search         string
	Page           int
	Limit          int
	IncludeDeleted bool
}

// ---------------------------------------------------------------------------
// Service interface
// ---------------------------------------------------------------------------

type Service interface {
	// Create registers a center under the next MC#### code. When actor is
	// a user id, that user becomes the center's admin.
	Create(ctx context.Context, req CreateCenterRequest, actor string) (*repo.Center, error)
	GetByID(ctx context.Context, id uuid.UUID) (*repo.Center, error)
	GetByCode(ctx context.Context, code string) (*repo.Center, error)
	// Get accepts either the UUID or the MC#### code.
	Get(ctx context.Context, ref string) (*repo.Center, error)
	List(ctx context.Context, req ListCentersRequest) (paging.Result[*repo.Center], error)
	Update(ctx context.Context, ref string, req UpdateCenterRequest, actor string) (*repo.Center, error)
	Delete(ctx context.Context, ref string, actor string) error
}

// ---------------------------------------------------------------------------
// Implementation
// ---------------------------------------------------------------------------

type Option func(*centerService)

func WithClock(now func() time.Time) Option {
	return func(s *centerService) { s.now = now }
}

func WithLogger(l *slog.Logger) Option {
	return func(s *centerService) { s.logger = l }
}

func WithMaxAttempts(n int) Option {
	return func(s *centerService) {
		if n > 0 {
			s.maxAttempts = n
		}
	}
}

func WithPhoneRegion(region string) Option {
	return func(s *centerService) { s.region = region }
}

func WithPageLimits(l paging.Limits) Option {
	return func(s *centerService) { s.limits = l }
}

type centerService struct {
	db          *repo.Client
	counter     repo.Counter
	auth        authorize.IAuthorization
	now         func() time.Time
	logger      *slog.Logger
	region      string
	limits      paging.Limits
	maxAttempts int
}

// New builds the center service. auth may be nil, in which case creators
// are not granted a role.
func New(db *repo.Client, counter repo.Counter, auth authorize.IAuthorization, opts ...Option) Service {
	s := &centerService{
		db:          db,
		counter:     counter,
		auth:        auth,
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

func (s *centerService) normalizeContact(email, contact string) (string, string, error) {
	email = strings.TrimSpace(email)
	if email != "" {
		if _, err := mail.ParseAddress(email); err != nil {
			return "", "", ErrInvalidEmail
		}
	}
	contact = strings.TrimSpace(contact)
	if contact != "" {
		n, err := phone.Normalize(contact, s.region)
		if err != nil {
			return "", "", ErrInvalidContactNumber
		}
		contact = n
	}
	return email, contact, nil
}

func (s *centerService) Create(ctx context.Context, req CreateCenterRequest, actor string) (*repo.Center, error) {
	ctx, span := tracer.Start(ctx, "center.Create")
	defer span.End()

	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, ErrNameRequired
	}
	email, contact, err := s.normalizeContact(req.Email, req.ContactNumber)
	if err != nil {
		return nil, err
	}

	scope := repo.CenterScope()
	seed := func(ctx context.Context) (int64, error) {
		last, err := s.db.Centers.LastCode(ctx)
		if err != nil || last == "" {
			return 0, err
		}
		return idgen.Suffix(last)
	}

	for attempt := 0; attempt < s.maxAttempts; attempt++ {
		n, err := s.counter.Next(ctx, scope, 0, seed)
		if err != nil {
			return nil, fmt.Errorf("next center number: %w", err)
		}

		c := &repo.Center{
			ID:            uuid.New(),
			Code:          idgen.Center.Format(n),
			Name:          name,
			Email:         email,
			ContactNumber: contact,
			Address:       strings.TrimSpace(req.Address),
			History:       []repo.HistoryEntry{repo.NewEntry(repo.ActionCreate, actor, s.now())},
		}

		err = s.db.Centers.Create(ctx, c)
		switch {
		case err == nil:
			s.grantAdmin(ctx, c, actor)
			return c, nil
		case repo.IsUniqueViolation(err, repo.ConstraintCenterCode):
			s.logger.Warn("center code collision, reseeding", "code", c.Code)
			if err := s.counter.Reset(ctx, scope); err != nil {
				return nil, err
			}
		default:
			return nil, fmt.Errorf("create center: %w", err)
		}
	}
	return nil, ErrDuplicateIdentifier
}

func (s *centerService) grantAdmin(ctx context.Context, c *repo.Center, actor string) {
	if s.auth == nil {
		return
	}
	if _, err := uuid.Parse(actor); err != nil {
		return
	}
	if err := authorize.AssignCenterRole(ctx, s.auth, actor, c.ID.String(), authorize.RoleCenterAdmin); err != nil {
		s.logger.Error("assign center admin failed", "center_id", c.Code, "user_id", actor, "err", err)
	}
}

func (s *centerService) find(ctx context.Context, ref string) (*repo.Center, error) {
	c, err := s.db.CenterByRef(ctx, ref)
	if err != nil {
		if repo.IsNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get center: %w", err)
	}
	if c.IsDeleted {
		return nil, ErrNotFound
	}
	return c, nil
}

func (s *centerService) GetByID(ctx context.Context, id uuid.UUID) (*repo.Center, error) {
	return s.find(ctx, id.String())
}

func (s *centerService) GetByCode(ctx context.Context, code string) (*repo.Center, error) {
	return s.find(ctx, code)
}

func (s *centerService) Get(ctx context.Context, ref string) (*repo.Center, error) {
	return s.find(ctx, ref)
}

func (s *centerService) List(ctx context.Context, req ListCentersRequest) (paging.Result[*repo.Center], error) {
	page := s.limits.Normalize(req.Page, req.Limit)
	list, total, err := s.db.Centers.List(ctx, repo.CenterFilter{
		Search:         strings.TrimSpace(req.Search),
		IncludeDeleted: req.IncludeDeleted,
		Page:           repo.Page{Limit: page.Limit, Offset: page.Offset()},
	})
	if err != nil {
		return paging.Result[*repo.Center]{}, fmt.Errorf("list centers: %w", err)
	}
	return paging.NewResult(list, total, page), nil
}

func (s *centerService) Update(ctx context.Context, ref string, req UpdateCenterRequest, actor string) (*repo.Center, error) {
	ctx, span := tracer.Start(ctx, "center.Update")
	defer span.End()

	c, err := s.find(ctx, ref)
	if err != nil {
		return nil, err
	}

	var changed []string
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, ErrNameRequired
		}
		if name != c.Name {
			c.Name = name
			changed = append(changed, "name")
		}
	}

	email, contact := c.Email, c.ContactNumber
	if req.Email != nil {
		email = *req.Email
	}
	if req.ContactNumber != nil {
		contact = *req.ContactNumber
	}
	email, contact, err = s.normalizeContact(email, contact)
	if err != nil {
		return nil, err
	}
	if email != c.Email {
		c.Email = email
		changed = append(changed, "email")
	}
	if contact != c.ContactNumber {
		c.ContactNumber = contact
		changed = append(changed, "contactNumber")
	}

	if req.Address != nil {
		if addr := strings.TrimSpace(*req.Address); addr != c.Address {
			c.Address = addr
			changed = append(changed, "address")
		}
	}

	if len(changed) == 0 {
		return c, nil
	}

	if err := s.db.Centers.Update(ctx, c, repo.NewEntry(repo.ActionUpdate, actor, s.now(), changed...)); err != nil {
		if repo.IsNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("update center: %w", err)
	}
	return c, nil
}

func (s *centerService) Delete(ctx context.Context, ref string, actor string) error {
	c, err := s.find(ctx, ref)
	if err != nil {
		return err
	}
	if err := s.db.Centers.SoftDelete(ctx, c.ID, repo.NewEntry(repo.ActionDelete, actor, s.now())); err != nil {
		if repo.IsNotFound(err) {
			return ErrNotFound
		}
		return fmt.Errorf("delete center: %w", err)
	}
	return nil
}
