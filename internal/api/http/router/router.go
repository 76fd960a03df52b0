package router

import (
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/adaptor"
	"github.com/gofiber/fiber/v3/middleware/healthcheck"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"

	"github.com/Alijeyrad/medicenter_backend/config"
	"github.com/Alijeyrad/medicenter_backend/internal/api/http/handler"
	"github.com/Alijeyrad/medicenter_backend/internal/api/http/middleware"
	"github.com/Alijeyrad/medicenter_backend/internal/repo"
	"github.com/Alijeyrad/medicenter_backend/internal/service/appointment"
	"github.com/Alijeyrad/medicenter_backend/internal/service/center"
	"github.com/Alijeyrad/medicenter_backend/internal/service/patient"
	"github.com/Alijeyrad/medicenter_backend/internal/service/prescription"
	"github.com/Alijeyrad/medicenter_backend/internal/service/session"
	"github.com/Alijeyrad/medicenter_backend/pkg/authorize"
	pasetotoken "github.com/Alijeyrad/medicenter_backend/pkg/paseto"
)

// Module provides the Router to the fx graph.
var Module = fx.Module("router", fx.Provide(NewRouter))

type Params struct {
	fx.In

	Cfg             *config.Config
	Redis           *redis.Client
	Auth            authorize.IAuthorization
	DB              *repo.Client
	Registry        *prometheus.Registry
	CenterSvc       center.Service
	SessionSvc      session.Service
	PatientSvc      patient.Service
	AppointmentSvc  appointment.Service
	PrescriptionSvc prescription.Service
	PasetoMgr       *pasetotoken.Manager
}

type Router struct {
	p Params
}

func NewRouter(p Params) *Router {
	return &Router{p: p}
}

type permFunc func(authorize.Resource, authorize.Action) fiber.Handler

func (r *Router) Register(app *fiber.App) {
	// 1. Health & Metrics
	r.registerSystemRoutes(app)

	// 2. Initialize Middlewares
	var sessions redis.UniversalClient
	if r.p.Cfg.Authentication.CheckSessions {
		sessions = r.p.Redis
	}
	authRequired := middleware.AuthRequired(r.p.PasetoMgr, sessions)
	centerHeader := middleware.CenterHeader(r.p.DB)

	requirePerm := func(res authorize.Resource, act authorize.Action) fiber.Handler {
		return middleware.RequirePermission(r.p.Auth, res, act)
	}

	// 3. Initialize Handlers
	centerH := handler.NewCenterHandler(r.p.CenterSvc, r.p.SessionSvc)
	sessionH := handler.NewSessionHandler(r.p.SessionSvc)
	patientH := handler.NewPatientHandler(r.p.PatientSvc)
	appointmentH := handler.NewAppointmentHandler(r.p.AppointmentSvc)
	prescriptionH := handler.NewPrescriptionHandler(r.p.PrescriptionSvc)

	api := app.Group("/api/v1", authRequired, centerHeader)

	// 4. Delegate to sub-files
	r.registerCenterRoutes(api, centerH, requirePerm)
	r.registerSessionRoutes(api, sessionH, requirePerm)
	r.registerPatientRoutes(api, patientH, requirePerm)
	r.registerAppointmentRoutes(api, appointmentH, prescriptionH, requirePerm)
	r.registerPrescriptionRoutes(api, prescriptionH, requirePerm)
}

func (r *Router) registerSystemRoutes(app *fiber.App) {
	app.Get(healthcheck.LivenessEndpoint, healthcheck.New())
	app.Get(healthcheck.ReadinessEndpoint, healthcheck.New(healthcheck.Config{
		Probe: func(c fiber.Ctx) bool { return authorize.IsPolicyHealthy() },
	}))
	app.Get(healthcheck.StartupEndpoint, healthcheck.New())

	if r.p.Cfg.Observability.Metrics.Enabled && r.p.Registry != nil {
		path := r.p.Cfg.Observability.Metrics.Path
		if path == "" {
			path = "/metrics"
		}
		app.Get(path, adaptor.HTTPHandler(promhttp.HandlerFor(r.p.Registry, promhttp.HandlerOpts{})))
	}
}
