package appointment

import (
	"context"

	"github.com/Alijeyrad/medicenter_backend/internal/repo"
	"github.com/Alijeyrad/medicenter_backend/pkg/constants"
)

// Publisher is satisfied by *nats.Conn.
type Publisher interface {
	Publish(subj string, data []byte) error
}

// Subject returns the event subject for an appointment of centerCode.
func Subject(base, centerCode string) string {
	return base + "." + centerCode
}

// publish announces a committed change. The payload is the appointment UUID;
// consumers load the rest. Failures are logged only.
func (s *appointmentService) publish(ctx context.Context, base string, a *repo.Appointment) {
	if s.events == nil {
		return
	}
	subj := Subject(base, a.CenterCode)
	if err := s.events.Publish(subj, []byte(a.ID.String())); err != nil {
		s.logger.WarnContext(ctx, "publish appointment event failed",
			"subject", subj, "appointment_id", a.Code, "err", err)
	}
}

func (s *appointmentService) publishBooked(ctx context.Context, a *repo.Appointment) {
	s.publish(ctx, constants.SubjectAppointmentBooked, a)
}

func (s *appointmentService) publishCancelled(ctx context.Context, a *repo.Appointment) {
	s.publish(ctx, constants.SubjectAppointmentCancelled, a)
}
