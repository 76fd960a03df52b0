package app

import (
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/fx"

	"github.com/Alijeyrad/medicenter_backend/config"
	"github.com/Alijeyrad/medicenter_backend/internal/repo"
	"github.com/Alijeyrad/medicenter_backend/internal/service/appointment"
	"github.com/Alijeyrad/medicenter_backend/internal/service/center"
	"github.com/Alijeyrad/medicenter_backend/internal/service/notification"
	"github.com/Alijeyrad/medicenter_backend/internal/service/patient"
	"github.com/Alijeyrad/medicenter_backend/internal/service/prescription"
	"github.com/Alijeyrad/medicenter_backend/internal/service/session"
	"github.com/Alijeyrad/medicenter_backend/pkg/authorize"
	"github.com/Alijeyrad/medicenter_backend/pkg/constants"
	"github.com/Alijeyrad/medicenter_backend/pkg/email"
	"github.com/Alijeyrad/medicenter_backend/pkg/paging"
	"github.com/Alijeyrad/medicenter_backend/pkg/sms"
)

// ServiceModule provides all application service dependencies.
var ServiceModule = fx.Module("services",
	fx.Provide(
		ProvideNotifier,
		ProvideCenterService,
		ProvideSessionService,
		ProvidePatientService,
		ProvideAppointmentService,
		ProvidePrescriptionService,
	),
)

func pageLimits(cfg *config.Config) paging.Limits {
	return paging.Limits{Default: cfg.Clinic.DefaultPageLimit, Max: cfg.Clinic.MaxPageLimit}
}

func ProvideNotifier(smsCli *sms.Client, mailer email.Sender, cfg *config.Config, reg *prometheus.Registry) notification.Notifier {
	transport := notification.NewTransport(smsCli, mailer, cfg.SMS.Templates, constants.AppName)
	return notification.NewDispatcher(transport, cfg.Clinic.PhoneRegion, notification.NewMetrics(reg), slog.Default())
}

func ProvideCenterService(db *repo.Client, counter repo.Counter, authz authorize.IAuthorization, cfg *config.Config) center.Service {
	return center.New(db, counter, authz,
		center.WithMaxAttempts(cfg.Clinic.BookingMaxAttempts),
		center.WithPhoneRegion(cfg.Clinic.PhoneRegion),
		center.WithPageLimits(pageLimits(cfg)),
	)
}

func ProvideSessionService(db *repo.Client, counter repo.Counter, notifier notification.Notifier, loc *time.Location, cfg *config.Config) session.Service {
	return session.New(db, counter, notifier, loc,
		session.WithMaxAttempts(cfg.Clinic.BookingMaxAttempts),
	)
}

func ProvidePatientService(db *repo.Client, counter repo.Counter, cfg *config.Config) patient.Service {
	return patient.New(db, counter,
		patient.WithMaxAttempts(cfg.Clinic.BookingMaxAttempts),
		patient.WithPhoneRegion(cfg.Clinic.PhoneRegion),
		patient.WithPageLimits(pageLimits(cfg)),
	)
}

func ProvideAppointmentService(db *repo.Client, counter repo.Counter, nc *nats.Conn, loc *time.Location,
	cfg *config.Config, reg *prometheus.Registry) appointment.Service {
	return appointment.New(db, counter, nc, loc,
		appointment.WithMaxAttempts(cfg.Clinic.BookingMaxAttempts),
		appointment.WithSequenceTTL(cfg.Clinic.SequenceTTL()),
		appointment.WithPageLimits(pageLimits(cfg)),
		appointment.WithMetrics(appointment.NewMetrics(reg)),
	)
}

func ProvidePrescriptionService(db *repo.Client) prescription.Service {
	return prescription.New(db)
}
