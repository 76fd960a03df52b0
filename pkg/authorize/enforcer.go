package authorize

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"

	psqlwatcher "github.com/IguteChung/casbin-psql-watcher"
	casbin "github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
	entadapter "github.com/casbin/ent-adapter"
)

// Model is the RBAC-with-domains model used when no model file is configured.
// Center roles only match inside their own center:<uuid> domain.
const Model = `[request_definition]
r = sub, dom, obj, act

[policy_definition]
p = sub, dom, obj, act, eft

[role_definition]
g = _, _, _

[policy_effect]
e = some(where (p.eft == allow)) && !some(where (p.eft == deny))

[matchers]
m = g(r.sub, p.sub, r.dom) && (p.dom == "*" || p.dom == r.dom) && (p.obj == "*" || p.obj == r.obj) && (p.act == "*" || p.act == r.act)
`

// policyLoadHealthy turns false when a watcher-triggered reload fails.
var policyLoadHealthy atomic.Bool

func init() {
	policyLoadHealthy.Store(true)
}

// IsPolicyHealthy feeds the readiness probe.
func IsPolicyHealthy() bool {
	return policyLoadHealthy.Load()
}

type CleanupFunc func(ctx context.Context)

// LoadModel reads the model file at path, or the built-in Model when path is empty.
func LoadModel(path string) (model.Model, error) {
	if path == "" {
		return model.NewModelFromString(Model)
	}
	return model.NewModelFromFile(path)
}

// NewEnforcer builds a DistributedEnforcer over the ent adapter and a
// Postgres LISTEN/NOTIFY watcher so every instance reloads on policy change.
func NewEnforcer(modelPath, dsn string, logger *slog.Logger) (*casbin.DistributedEnforcer, CleanupFunc, error) {
	if logger == nil {
		logger = slog.Default()
	}

	m, err := LoadModel(modelPath)
	if err != nil {
		return nil, nil, fmt.Errorf("casbin model: %w", err)
	}

	a, err := entadapter.NewAdapter("postgres", dsn)
	if err != nil {
		return nil, nil, fmt.Errorf("casbin adapter: %w", err)
	}

	e, err := casbin.NewDistributedEnforcer(m, a)
	if err != nil {
		return nil, nil, err
	}

	w, err := psqlwatcher.NewWatcherWithConnString(context.Background(), dsn, psqlwatcher.Option{
		Channel: "medicenter_casbin_policy",
	})
	if err != nil {
		return nil, nil, fmt.Errorf("casbin watcher: %w", err)
	}

	err = w.SetUpdateCallback(func(msg string) {
		logger.Debug("casbin policy update received", "message", msg)
		if err := e.LoadPolicy(); err != nil {
			logger.Error("casbin policy reload failed", "err", err)
			policyLoadHealthy.Store(false)
			return
		}
		policyLoadHealthy.Store(true)
	})
	if err != nil {
		return nil, nil, err
	}
	if err := e.SetWatcher(w); err != nil {
		return nil, nil, err
	}

	e.EnableAutoSave(true)
	e.EnableEnforce(true)

	cleanup := func(ctx context.Context) {
		w.Close()
		e.StopAutoLoadPolicy()
		logger.Info("casbin enforcer stopped")
	}

	return e, cleanup, nil
}
