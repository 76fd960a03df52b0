package app

import (
	"context"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nats-io/nats.go"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/fx"

	"github.com/Alijeyrad/medicenter_backend/config"
	"github.com/Alijeyrad/medicenter_backend/internal/repo"
	"github.com/Alijeyrad/medicenter_backend/pkg/authorize"
	"github.com/Alijeyrad/medicenter_backend/pkg/constants"
	"github.com/Alijeyrad/medicenter_backend/pkg/database"
	"github.com/Alijeyrad/medicenter_backend/pkg/email"
	"github.com/Alijeyrad/medicenter_backend/pkg/observability"
	pasetotoken "github.com/Alijeyrad/medicenter_backend/pkg/paseto"
	redispkg "github.com/Alijeyrad/medicenter_backend/pkg/redis"
	"github.com/Alijeyrad/medicenter_backend/pkg/sms"
)

// InfraModule provides all infrastructure dependencies.
var InfraModule = fx.Module("infra",
	fx.Provide(ProvidePool),
	fx.Provide(ProvideRepo),
	fx.Provide(ProvideRedis),
	fx.Provide(ProvideCounter),
	fx.Provide(ProvideAuthorization),
	fx.Provide(ProvideEmailClient),
	fx.Provide(ProvideSMSClient),
	fx.Provide(ProvideNatsClient),
	fx.Provide(ProvideRegistry),
	fx.Provide(ProvideOTel),
	fx.Provide(ProvideLocation),
	fx.Provide(ProvidePasetoManager),
)

func ProvidePool(lc fx.Lifecycle, cfg *config.Config) (*pgxpool.Pool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if cfg.Database.Migrations.AutoMigrate {
		if err := database.Migrate(ctx, database.FromCentralConfig(cfg.Database), 0, slog.Default()); err != nil {
			return nil, err
		}
	}

	pool, err := database.NewPoolFromCentral(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			slog.Debug("closing main database pool")
			pool.Close()
			return nil
		},
	})
	return pool, nil
}

func ProvideRepo(pool *pgxpool.Pool) *repo.Client {
	return repo.NewClient(pool)
}

func ProvideRedis(lc fx.Lifecycle, cfg *config.Config) (*goredis.Client, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	rdb, err := redispkg.NewRedisFromCentral(ctx, cfg.Redis)
	if err != nil {
		return nil, err
	}
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			slog.Debug("closing Redis connection")
			return rdb.Close()
		},
	})
	return rdb, nil
}

func ProvideCounter(rdb *goredis.Client) repo.Counter {
	return repo.NewSequencer(rdb)
}

func ProvideAuthorization(lc fx.Lifecycle, cfg *config.Config) (authorize.IAuthorization, error) {
	dsn := database.NewDSN(cfg.CasbinDatabase)
	enforcer, cleanup, err := authorize.NewEnforcer(cfg.Authorization.CasbinModelPath, dsn, slog.Default())
	if err != nil {
		return nil, err
	}
	auth, err := authorize.NewAuthorization(enforcer, authorize.FromCentralConfig(cfg.Authorization, slog.Default()))
	if err != nil {
		cleanup(context.Background())
		return nil, err
	}
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			slog.Debug("cleaning up Casbin enforcer")
			cleanup(ctx)
			return nil
		},
	})
	return auth, nil
}

func ProvideEmailClient(cfg *config.Config) (email.Sender, error) {
	return email.NewFromCentral(cfg.Email, constants.AppName)
}

func ProvideSMSClient(cfg *config.Config) (*sms.Client, error) {
	return sms.NewFromConfig(cfg.SMS)
}

func ProvideNatsClient(lc fx.Lifecycle, cfg *config.Config) (*nats.Conn, error) {
	name := cfg.Nats.Name
	if name == "" {
		name = constants.AppName
	}
	nc, err := nats.Connect(cfg.Nats.URL,
		nats.Name(name),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				slog.Warn("nats disconnected", "err", err)
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			slog.Info("nats reconnected", "url", c.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, err
	}
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			slog.Debug("draining NATS connection")
			return nc.Drain()
		},
	})
	return nc, nil
}

// ProvideRegistry is the registry served on /metrics. Service counters and
// the OTel exporter both register here.
func ProvideRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

func ProvideOTel(lc fx.Lifecycle, cfg *config.Config, reg *prometheus.Registry) (*observability.Provider, error) {
	if !cfg.Observability.Enabled {
		return nil, nil
	}
	provider, err := observability.InitTelemetry(context.Background(), observability.FromCentralConfig(cfg), reg)
	if err != nil {
		return nil, err
	}
	slog.Info("observability initialized",
		"tracing", cfg.Observability.Tracing.Enabled,
		"metrics", cfg.Observability.Metrics.Enabled,
	)
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			slog.Debug("shutting down observability providers")
			return provider.Shutdown(ctx)
		},
	})
	return provider, nil
}

// ProvideLocation is the clinic's civil timezone.
func ProvideLocation(cfg *config.Config) (*time.Location, error) {
	return cfg.Clinic.Location()
}

func ProvidePasetoManager(cfg *config.Config) (*pasetotoken.Manager, error) {
	return pasetotoken.NewFromConfig(cfg.Authentication.Paseto)
}
