package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/Alijeyrad/medicenter_backend/pkg/constants"
	"github.com/spf13/viper"
)

func ReadConfig(configPath string) (*Config, error) {
	v := viper.New()
	v.SetConfigName(constants.ConfigName)
	v.SetConfigType(constants.ConfigFormat)
	v.AddConfigPath(configPath)

	// e.g. MEDICENTER_DATABASE_HOST overrides database.host
	v.SetEnvPrefix(constants.EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %v", err)
		}
		// Docker deployments may run on env vars alone.
		if os.Getenv(constants.EnvPrefix+"_DATABASE_HOST") == "" {
			return nil, fmt.Errorf("error reading config file: %v", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode into struct: %v", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.timeout_seconds", 30)
	v.SetDefault("server.environment", "development")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("email.provider", "smtp")
	v.SetDefault("clinic.timezone", "Asia/Kolkata")
	v.SetDefault("clinic.phone_region", constants.DefaultPhoneRegion)
	v.SetDefault("clinic.session_sweep_interval_seconds", 60)
	v.SetDefault("clinic.booking_max_attempts", constants.DefaultBookingTries)
	v.SetDefault("clinic.sequence_ttl_hours", 48)
	v.SetDefault("clinic.default_page_limit", constants.DefaultPageLimit)
	v.SetDefault("clinic.max_page_limit", constants.MaxPageLimit)
	v.SetDefault("observability.service_name", constants.AppName)
	v.SetDefault("logging.level", "info")
}
