package prescription

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"

	"github.com/Alijeyrad/medicenter_backend/internal/repo"
	"github.com/Alijeyrad/medicenter_backend/pkg/constants"
	"github.com/Alijeyrad/medicenter_backend/pkg/idgen"
)

var tracer = otel.Tracer("medicenter.internal.prescription")

type CreatePrescriptionRequest struct {
	// AppointmentID is the appointment's UUID or code.
	AppointmentID string
	Medicines     []repo.Medicine
	Notes         string
}

type Service interface {
	// Create numbers the prescription <appointmentId>-P<n>, n counting from
	// one per appointment.
	Create(ctx context.Context, req CreatePrescriptionRequest, actor string) (*repo.Prescription, error)
	ListByAppointment(ctx context.Context, appointmentRef string) ([]*repo.Prescription, error)
	GetByNumber(ctx context.Context, number string) (*repo.Prescription, error)
}

type Option func(*prescriptionService)

func WithClock(now func() time.Time) Option {
	return func(s *prescriptionService) { s.now = now }
}

func WithLogger(l *slog.Logger) Option {
	return func(s *prescriptionService) { s.logger = l }
}

type prescriptionService struct {
	db          *repo.Client
	now         func() time.Time
	logger      *slog.Logger
	maxAttempts int
}

func New(db *repo.Client, opts ...Option) Service {
	s := &prescriptionService{
		db:          db,
		now:         time.Now,
		logger:      slog.Default(),
		maxAttempts: constants.DefaultBookingTries,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *prescriptionService) appointment(ctx context.Context, ref string) (*repo.Appointment, error) {
	a, err := s.db.AppointmentByRef(ctx, strings.TrimSpace(ref))
	if err != nil {
		if repo.IsNotFound(err) {
			return nil, ErrAppointmentNotFound
		}
		return nil, fmt.Errorf("get appointment: %w", err)
	}
	if a.IsDeleted {
		return nil, ErrAppointmentNotFound
	}
	return a, nil
}

func cleanMedicines(in []repo.Medicine) ([]repo.Medicine, error) {
	out := make([]repo.Medicine, 0, len(in))
	for _, m := range in {
		m.Name = strings.TrimSpace(m.Name)
		if m.Name == "" {
			return nil, ErrMedicineRequired
		}
		m.Dosage = strings.TrimSpace(m.Dosage)
		m.Frequency = strings.TrimSpace(m.Frequency)
		m.Duration = strings.TrimSpace(m.Duration)
		m.Notes = strings.TrimSpace(m.Notes)
		out = append(out, m)
	}
	return out, nil
}

func (s *prescriptionService) Create(ctx context.Context, req CreatePrescriptionRequest, actor string) (*repo.Prescription, error) {
	ctx, span := tracer.Start(ctx, "prescription.Create")
	defer span.End()

	a, err := s.appointment(ctx, req.AppointmentID)
	if err != nil {
		return nil, err
	}
	if !a.IsPatientVisited {
		return nil, ErrPatientNotVisited
	}
	meds, err := cleanMedicines(req.Medicines)
	if err != nil {
		return nil, err
	}

	for attempt := 0; attempt < s.maxAttempts; attempt++ {
		count, err := s.db.Prescriptions.CountByAppointment(ctx, a.ID)
		if err != nil {
			return nil, fmt.Errorf("count prescriptions: %w", err)
		}

		p := &repo.Prescription{
			ID:              uuid.New(),
			Number:          idgen.Prescription(a.Code, count+1),
			AppointmentID:   a.ID,
			AppointmentCode: a.Code,
			PatientID:       a.PatientID,
			CenterID:        a.CenterID,
			Medicines:       meds,
			Notes:           strings.TrimSpace(req.Notes),
			History:         []repo.HistoryEntry{repo.NewEntry(repo.ActionCreate, actor, s.now())},
		}

		err = s.db.Prescriptions.Create(ctx, p)
		switch {
		case err == nil:
			return p, nil
		case repo.IsUniqueViolation(err, repo.ConstraintPrescriptionNo):
			s.logger.WarnContext(ctx, "prescription number taken, recounting", "prescription_no", p.Number)
		default:
			return nil, fmt.Errorf("create prescription: %w", err)
		}
	}
	return nil, ErrDuplicateIdentifier
}

func (s *prescriptionService) ListByAppointment(ctx context.Context, appointmentRef string) ([]*repo.Prescription, error) {
	a, err := s.appointment(ctx, appointmentRef)
	if err != nil {
		return nil, err
	}
	list, err := s.db.Prescriptions.ListByAppointment(ctx, a.ID)
	if err != nil {
		return nil, fmt.Errorf("list prescriptions: %w", err)
	}
	if list == nil {
		list = []*repo.Prescription{}
	}
	return list, nil
}

func (s *prescriptionService) GetByNumber(ctx context.Context, number string) (*repo.Prescription, error) {
	p, err := s.db.Prescriptions.GetByNumber(ctx, strings.TrimSpace(number))
	if err != nil {
		if repo.IsNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get prescription: %w", err)
	}
	return p, nil
}
