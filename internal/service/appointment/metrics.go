package appointment

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics counts booking attempts by outcome.
type Metrics struct {
	bookingsTotal *prometheus.CounterVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		bookingsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "medicenter",
			Subsystem: "appointment",
			Name:      "bookings_total",
			Help:      "Appointment booking attempts",
		}, []string{"status"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.bookingsTotal)
	return m
}

func bookingStatus(err error) string {
	switch {
	case err == nil:
		return "booked"
	case errors.Is(err, ErrDuplicateBooking):
		return "duplicate"
	case errors.Is(err, ErrSessionWindowClosed):
		return "window_closed"
	case errors.Is(err, ErrCenterNotFound), errors.Is(err, ErrSessionNotFound),
		errors.Is(err, ErrPatientNotFound), errors.Is(err, ErrMissingField), errors.Is(err, ErrInvalidDate):
		return "rejected"
	default:
		return "failed"
	}
}

func (m *Metrics) observe(err error) {
	if m == nil {
		return
	}
	m.bookingsTotal.WithLabelValues(bookingStatus(err)).Inc()
}
