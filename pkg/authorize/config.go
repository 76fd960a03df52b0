package authorize

import (
	"log/slog"

	"github.com/Alijeyrad/medicenter_backend/config"
)

type Config struct {
	// CasbinModelPath points at a model file. Empty uses the built-in Model.
	CasbinModelPath string

	// EnableAudit logs every decision and policy change.
	EnableAudit bool

	// SuperadminBypass lets role:sys:superadmin skip policy evaluation.
	SuperadminBypass bool

	Logger *slog.Logger
}

func DefaultConfig() Config {
	return Config{
		EnableAudit:      true,
		SuperadminBypass: true,
	}
}

func FromCentralConfig(c config.AuthorizationConfig, logger *slog.Logger) Config {
	return Config{
		CasbinModelPath:  c.CasbinModelPath,
		EnableAudit:      c.EnableAudit,
		SuperadminBypass: c.SuperadminBypass,
		Logger:           logger,
	}
}
