package logs

import (
	"fmt"
	"log/slog"
	"net/url"

	"github.com/grafana/loki-client-go/loki"
	slogloki "github.com/samber/slog-loki/v3"

	"github.com/Alijeyrad/medicenter_backend/config"
)

// newLokiHandler pushes records to Loki in batches. Credentials ride in the
// push URL's userinfo so the client sends basic auth.
func newLokiHandler(cfg config.LokiConfig, level slog.Level) (slog.Handler, func(), error) {
	u, err := url.Parse(cfg.Endpoint)
	if err != nil {
		return nil, nil, fmt.Errorf("loki endpoint: %w", err)
	}
	if u.Path == "" || u.Path == "/" {
		u.Path = "/loki/api/v1/push"
	}
	if cfg.Username != "" {
		u.User = url.UserPassword(cfg.Username, cfg.Password)
	}

	lc, err := loki.NewDefaultConfig(u.String())
	if err != nil {
		return nil, nil, fmt.Errorf("loki config: %w", err)
	}
	client, err := loki.New(lc)
	if err != nil {
		return nil, nil, fmt.Errorf("loki client: %w", err)
	}

	h := slogloki.Option{Level: level, Client: client}.NewLokiHandler()
	return h, client.Stop, nil
}
