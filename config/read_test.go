package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(body), 0o600))
	return dir
}

func TestReadConfig_Defaults(t *testing.T) {
	dir := writeConfig(t, "database:\n  dbname: medicenter\n")

	cfg, err := ReadConfig(dir)
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "medicenter", cfg.Database.DBName)
	assert.Equal(t, "IN", cfg.Clinic.PhoneRegion)
	assert.Equal(t, time.Minute, cfg.Clinic.SweepInterval())
	assert.Equal(t, 48*time.Hour, cfg.Clinic.SequenceTTL())

	loc, err := cfg.Clinic.Location()
	require.NoError(t, err)
	assert.Equal(t, "Asia/Kolkata", loc.String())
}

func TestReadConfig_EnvOverride(t *testing.T) {
	dir := writeConfig(t, "server:\n  port: 9000\n")
	t.Setenv("MEDICENTER_SERVER_PORT", "9100")

	cfg, err := ReadConfig(dir)
	require.NoError(t, err)
	assert.Equal(t, 9100, cfg.Server.Port)
}

func TestReadConfig_Validation(t *testing.T) {
	tests := map[string]string{
		"unknown timezone":      "clinic:\n  timezone: Mars/Olympus\n",
		"default above max":     "clinic:\n  default_page_limit: 50\n  max_page_limit: 20\n",
		"unknown mail provider": "email:\n  provider: pigeon\n",
		"negative sweep":        "clinic:\n  session_sweep_interval_seconds: -5\n",
	}
	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := ReadConfig(writeConfig(t, body))
			assert.Error(t, err)
		})
	}
}

func TestReadConfig_Missing(t *testing.T) {
	_, err := ReadConfig(t.TempDir())
	assert.Error(t, err)
}
