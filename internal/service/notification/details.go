package notification

import (
	"time"

	"github.com/Alijeyrad/medicenter_backend/internal/repo"
)

// DetailsFor assembles message context from stored records. Date is shown
// in loc so patients see their civil date.
func DetailsFor(a *repo.Appointment, p *repo.Patient, c *repo.Center, s *repo.Session, loc *time.Location) Details {
	d := Details{
		AppointmentCode: a.Code,
		SessionCode:     a.SessionCode,
		TokenNo:         a.TokenNo,
		Date:            a.Date.In(loc),
	}
	if p != nil {
		d.PatientName = p.Name
	}
	if c != nil {
		d.CenterName = c.Name
	}
	if s != nil {
		d.SessionName = s.Name
		d.StartTime = s.StartTime.String()
		d.EndTime = s.EndTime.String()
	}
	return d
}

func RecipientFor(p *repo.Patient) Recipient {
	if p == nil {
		return Recipient{}
	}
	return Recipient{Name: p.Name, Phone: p.ContactNumber, Email: p.Email}
}
