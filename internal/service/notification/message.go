package notification

import (
	"fmt"
	"strconv"
	"time"

	"github.com/Alijeyrad/medicenter_backend/pkg/sms"
)

type Kind string

const (
	KindBookingConfirmed     Kind = "booking_confirmed"
	KindAppointmentCancelled Kind = "appointment_cancelled"
	KindSessionActivated     Kind = "session_activated"
	KindSessionDeactivated   Kind = "session_deactivated"
)

// Message is a fully rendered notification. Lines make up the email body and
// Params feed the SMS template for Kind.
type Message struct {
	Kind    Kind
	Subject string
	Lines   []string
	Params  []sms.Param
}

// Details carries the appointment context every message is rendered from.
type Details struct {
	PatientName     string
	CenterName      string
	SessionName     string
	SessionCode     string
	AppointmentCode string
	TokenNo         int
	Date            time.Time
	StartTime       string
	EndTime         string
}

func (d Details) day() string {
	return d.Date.Format("02 Jan 2006")
}

func (d Details) params() []sms.Param {
	return []sms.Param{
		{Key: "name", Value: d.PatientName},
		{Key: "center", Value: d.CenterName},
		{Key: "session", Value: d.SessionName},
		{Key: "date", Value: d.day()},
		{Key: "token", Value: strconv.Itoa(d.TokenNo)},
		{Key: "code", Value: d.AppointmentCode},
	}
}

func BookingConfirmed(d Details) Message {
	return Message{
		Kind:    KindBookingConfirmed,
		Subject: fmt.Sprintf("Appointment confirmed at %s", d.CenterName),
		Lines: []string{
			fmt.Sprintf("Your appointment %s is booked for %s in the %s session (%s-%s).",
				d.AppointmentCode, d.day(), d.SessionName, d.StartTime, d.EndTime),
			fmt.Sprintf("Your token number is %d.", d.TokenNo),
		},
		Params: d.params(),
	}
}

func AppointmentCancelled(d Details) Message {
	return Message{
		Kind:    KindAppointmentCancelled,
		Subject: fmt.Sprintf("Appointment cancelled at %s", d.CenterName),
		Lines: []string{
			fmt.Sprintf("Your appointment %s on %s in the %s session has been cancelled.",
				d.AppointmentCode, d.day(), d.SessionName),
		},
		Params: d.params(),
	}
}

func SessionActivated(d Details) Message {
	return Message{
		Kind:    KindSessionActivated,
		Subject: fmt.Sprintf("%s session has started", d.SessionName),
		Lines: []string{
			fmt.Sprintf("The doctor is now available for the %s session at %s.", d.SessionName, d.CenterName),
			fmt.Sprintf("Your token number for today is %d.", d.TokenNo),
		},
		Params: d.params(),
	}
}

func SessionDeactivated(d Details) Message {
	return Message{
		Kind:    KindSessionDeactivated,
		Subject: fmt.Sprintf("%s session is unavailable", d.SessionName),
		Lines: []string{
			fmt.Sprintf("The %s session at %s is currently unavailable.", d.SessionName, d.CenterName),
			fmt.Sprintf("Your appointment %s (token %d) stays on record; the center will contact you.",
				d.AppointmentCode, d.TokenNo),
		},
		Params: d.params(),
	}
}
