package repo

import (
	"context"

	"github.com/google/uuid"

	"github.com/Alijeyrad/medicenter_backend/pkg/idgen"
)

// The ByRef lookups accept either the surrogate UUID or the business code,
// so HTTP paths can carry whichever the caller has. Codes that cannot belong
// to the family are ErrNotFound without a round trip.

func (c *Client) CenterByRef(ctx context.Context, ref string) (*Center, error) {
	if id, err := uuid.Parse(ref); err == nil {
		return c.Centers.GetByID(ctx, id)
	}
	if !idgen.Center.Valid(ref) {
		return nil, ErrNotFound
	}
	return c.Centers.GetByCode(ctx, ref)
}

func (c *Client) SessionByRef(ctx context.Context, ref string) (*Session, error) {
	if id, err := uuid.Parse(ref); err == nil {
		return c.Sessions.GetByID(ctx, id)
	}
	return c.Sessions.GetByCode(ctx, ref)
}

func (c *Client) PatientByRef(ctx context.Context, ref string) (*Patient, error) {
	if id, err := uuid.Parse(ref); err == nil {
		return c.Patients.GetByID(ctx, id)
	}
	if !idgen.Patient.Valid(ref) {
		return nil, ErrNotFound
	}
	return c.Patients.GetByCode(ctx, ref)
}

func (c *Client) AppointmentByRef(ctx context.Context, ref string) (*Appointment, error) {
	if id, err := uuid.Parse(ref); err == nil {
		return c.Appointments.GetByID(ctx, id)
	}
	return c.Appointments.GetByCode(ctx, ref)
}
