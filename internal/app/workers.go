package app

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/fx"

	"github.com/Alijeyrad/medicenter_backend/config"
	"github.com/Alijeyrad/medicenter_backend/internal/repo"
	"github.com/Alijeyrad/medicenter_backend/internal/service/notification"
	"github.com/Alijeyrad/medicenter_backend/internal/service/session"
	"github.com/Alijeyrad/medicenter_backend/pkg/constants"
	redispkg "github.com/Alijeyrad/medicenter_backend/pkg/redis"
)

// WorkerModule registers the NATS event workers and the session sweeper.
var WorkerModule = fx.Module("workers",
	fx.Invoke(RegisterWorkers),
)

type WorkerParams struct {
	fx.In

	Lc       fx.Lifecycle
	Cfg      *config.Config
	NC       *nats.Conn
	RDB      *goredis.Client
	DB       *repo.Client
	Notifier notification.Notifier
	Sessions session.Service
	Loc      *time.Location
}

func RegisterWorkers(p WorkerParams) {
	ctx, cancel := context.WithCancel(context.Background())
	var subs []*nats.Subscription

	p.Lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			w := &notificationWorker{db: p.DB, notifier: p.Notifier, loc: p.Loc, logger: slog.Default()}
			var err error
			if subs, err = w.subscribe(p.NC); err != nil {
				return err
			}

			sw := &sessionSweeper{
				rdb:      p.RDB,
				sessions: p.Sessions,
				interval: p.Cfg.Clinic.SweepInterval(),
				now:      time.Now,
				logger:   slog.Default(),
			}
			go sw.run(ctx)
			return nil
		},
		OnStop: func(context.Context) error {
			cancel()
			for _, s := range subs {
				_ = s.Unsubscribe()
			}
			// Drain handled by ProvideNatsClient
			return nil
		},
	})
}

// ---------------------------------------------------------------------------
// notification_worker
// ---------------------------------------------------------------------------

type notificationWorker struct {
	db       *repo.Client
	notifier notification.Notifier
	loc      *time.Location
	logger   *slog.Logger
}

func (w *notificationWorker) subscribe(nc *nats.Conn) ([]*nats.Subscription, error) {
	routes := map[string]func(notification.Details) notification.Message{
		constants.SubjectAppointmentBooked:    notification.BookingConfirmed,
		constants.SubjectAppointmentCancelled: notification.AppointmentCancelled,
	}

	var subs []*nats.Subscription
	for subject, build := range routes {
		sub, err := nc.Subscribe(subject+".*", func(msg *nats.Msg) {
			w.handle(context.Background(), msg.Data, build)
		})
		if err != nil {
			w.logger.Error("notification_worker: subscribe failed", "subject", subject, "err", err)
			return subs, err
		}
		subs = append(subs, sub)
	}

	w.logger.Info("notification_worker: started")
	return subs, nil
}

// handle notifies the patient of the appointment named by payload and
// returns the number of delivery attempts.
func (w *notificationWorker) handle(ctx context.Context, payload []byte, build func(notification.Details) notification.Message) int {
	id, err := uuid.Parse(strings.TrimSpace(string(payload)))
	if err != nil {
		w.logger.Warn("notification_worker: bad payload", "payload", string(payload))
		return 0
	}

	a, err := w.db.Appointments.GetByID(ctx, id)
	if err != nil {
		w.logger.Warn("notification_worker: appointment not found", "id", id, "err", err)
		return 0
	}
	p, err := w.db.Patients.GetByID(ctx, a.PatientID)
	if err != nil {
		w.logger.Warn("notification_worker: patient not found", "appointment_id", a.Code, "err", err)
		return 0
	}

	// Center and session only decorate the message.
	c, err := w.db.Centers.GetByID(ctx, a.CenterID)
	if err != nil {
		w.logger.Debug("notification_worker: center lookup failed", "appointment_id", a.Code, "err", err)
	}
	s, err := w.db.Sessions.GetByID(ctx, a.SessionID)
	if err != nil {
		w.logger.Debug("notification_worker: session lookup failed", "appointment_id", a.Code, "err", err)
	}

	msg := build(notification.DetailsFor(a, p, c, s, w.loc))
	return w.notifier.Notify(ctx, notification.RecipientFor(p), msg)
}

// ---------------------------------------------------------------------------
// session_sweeper
// ---------------------------------------------------------------------------

type sessionSweeper struct {
	rdb      goredis.UniversalClient
	sessions session.Service
	interval time.Duration
	now      func() time.Time
	logger   *slog.Logger
}

func (s *sessionSweeper) run(ctx context.Context) {
	t := time.NewTicker(s.interval)
	defer t.Stop()

	s.logger.Info("session_sweeper: started", "interval", s.interval)
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			s.sweep(ctx)
		}
	}
}

// sweep runs one pass when this instance wins the lock. The lease outlives
// the pass so peers skip the same tick. It returns whether a pass ran.
func (s *sessionSweeper) sweep(ctx context.Context) bool {
	lock, err := redispkg.TryLock(ctx, s.rdb, constants.RedisKeySweeperLock, s.interval*9/10)
	if err != nil {
		s.logger.Warn("session_sweeper: lock failed", "err", err)
		return false
	}
	if lock == nil {
		return false
	}

	n, err := s.sessions.DeactivateExpired(ctx, s.now())
	if err != nil {
		s.logger.Warn("session_sweeper: pass failed", "deactivated", n, "err", err)
		// let a peer retry on the next tick
		if rerr := lock.Release(ctx); rerr != nil {
			s.logger.Warn("session_sweeper: release failed", "err", rerr)
		}
	}
	return true
}
