package config

import (
	"fmt"
	"strings"
	"time"
)

type Config struct {
	Database       DatabaseConfig       `mapstructure:"database"`
	CasbinDatabase DatabaseConfig       `mapstructure:"casbin_database"`
	Redis          RedisConfig          `mapstructure:"redis"`
	Nats           NatsConfig           `mapstructure:"nats"`
	Server         ServerConfig         `mapstructure:"server"`
	Authentication AuthenticationConfig `mapstructure:"authentication"`
	Authorization  AuthorizationConfig  `mapstructure:"authorization"`
	Email          EmailConfig          `mapstructure:"email"`
	SMS            SMSConfig            `mapstructure:"sms"`
	Clinic         ClinicConfig         `mapstructure:"clinic"`
	Observability  ObservabilityConfig  `mapstructure:"observability"`
	Logging        LoggingConfig        `mapstructure:"logging"`
}

type NatsConfig struct {
	URL  string `mapstructure:"url" yaml:"url"`
	Name string `mapstructure:"name" yaml:"name"`
}

type DatabaseConfig struct {
	Host       string                  `mapstructure:"host"`
	Port       int                     `mapstructure:"port"`
	User       string                  `mapstructure:"user"`
	Password   string                  `mapstructure:"password"`
	DBName     string                  `mapstructure:"dbname"`
	SSLMode    string                  `mapstructure:"sslmode"`
	Pool       DatabasePoolConfig      `mapstructure:"pool"`
	Migrations DatabaseMigrationConfig `mapstructure:"migrations"`
}

type DatabasePoolConfig struct {
	MaxOpenConns       int `mapstructure:"max_open_conns"`
	MinIdleConns       int `mapstructure:"min_idle_conns"`
	ConnMaxLifetimeMin int `mapstructure:"conn_max_lifetime_minutes"`
}

type DatabaseMigrationConfig struct {
	AutoMigrate bool `mapstructure:"auto_migrate"`
}

type RedisConfig struct {
	Addr                string `mapstructure:"addr"`
	DB                  int    `mapstructure:"db"`
	Username            string `mapstructure:"username"`
	Password            string `mapstructure:"password"`
	PoolSize            int    `mapstructure:"pool_size"`
	MinIdleConns        int    `mapstructure:"min_idle_conns"`
	DialTimeoutSeconds  int    `mapstructure:"dial_timeout_seconds"`
	ReadTimeoutSeconds  int    `mapstructure:"read_timeout_seconds"`
	WriteTimeoutSeconds int    `mapstructure:"write_timeout_seconds"`
}

type ServerConfig struct {
	Port           int        `mapstructure:"port"`
	TimeoutSeconds int        `mapstructure:"timeout_seconds"`
	Environment    string     `mapstructure:"environment"`
	Databases      []string   `mapstructure:"databases"`
	CORS           CORSConfig `mapstructure:"cors"`
	RateLimit      RateLimit  `mapstructure:"rate_limit"`
}

type RateLimit struct {
	Max               int `mapstructure:"max"`
	ExpirationSeconds int `mapstructure:"expiration_seconds"`
}

type CORSConfig struct {
	Enabled      bool     `mapstructure:"enabled"`
	AllowOrigins []string `mapstructure:"allow_origins"`
}

type AuthenticationConfig struct {
	Paseto PasetoConfig `mapstructure:"paseto"`
	// CheckSessions rejects access tokens whose session key is missing from Redis.
	CheckSessions bool `mapstructure:"check_sessions"`
}

type PasetoConfig struct {
	Mode             string `mapstructure:"mode"`
	LocalKeyHex      string `mapstructure:"local_key_hex"`
	SecretKeyHex     string `mapstructure:"secret_key_hex"`
	PublicKeyHex     string `mapstructure:"public_key_hex"`
	Issuer           string `mapstructure:"issuer"`
	Audience         string `mapstructure:"audience"`
	AccessTTLMinutes int    `mapstructure:"access_ttl_minutes"`
	RefreshTTLDays   int    `mapstructure:"refresh_ttl_days"`
}

type AuthorizationConfig struct {
	CasbinModelPath  string `mapstructure:"casbin_model_path"`
	EnableAudit      bool   `mapstructure:"enable_audit"`
	SuperadminBypass bool   `mapstructure:"superadmin_bypass"`
}

type EmailConfig struct {
	Enabled  bool           `mapstructure:"enabled"`
	Provider string         `mapstructure:"provider"` // smtp, sendgrid
	From     string         `mapstructure:"from"`
	FromName string         `mapstructure:"from_name"`
	SMTP     SMTPConfig     `mapstructure:"smtp"`
	SendGrid SendGridConfig `mapstructure:"sendgrid"`
}

type SMTPConfig struct {
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	Username       string `mapstructure:"username"`
	Password       string `mapstructure:"password"`
	UseTLS         bool   `mapstructure:"use_tls"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
}

type SendGridConfig struct {
	APIKey string `mapstructure:"api_key"`
}

type SMSConfig struct {
	Enabled   bool              `mapstructure:"enabled"`
	SMSIR     SMSIRConfig       `mapstructure:"smsir"`
	Templates SMSTemplateConfig `mapstructure:"templates"`
}

type SMSIRConfig struct {
	APIKey    string `mapstructure:"api_key"`
	SecretKey string `mapstructure:"secret_key"`
}

// SMSTemplateConfig maps each notification kind to an sms.ir ultra-fast template.
type SMSTemplateConfig struct {
	BookingConfirmed     string `mapstructure:"booking_confirmed"`
	AppointmentCancelled string `mapstructure:"appointment_cancelled"`
	SessionActivated     string `mapstructure:"session_activated"`
	SessionDeactivated   string `mapstructure:"session_deactivated"`
}

type ClinicConfig struct {
	Timezone                   string `mapstructure:"timezone"`
	PhoneRegion                string `mapstructure:"phone_region"`
	SessionSweepIntervalSecond int    `mapstructure:"session_sweep_interval_seconds"`
	BookingMaxAttempts         int    `mapstructure:"booking_max_attempts"`
	SequenceTTLHours           int    `mapstructure:"sequence_ttl_hours"`
	DefaultPageLimit           int    `mapstructure:"default_page_limit"`
	MaxPageLimit               int    `mapstructure:"max_page_limit"`
}

// Location loads the deployment's civil timezone.
func (c ClinicConfig) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.Local, nil
	}
	return time.LoadLocation(c.Timezone)
}

func (c ClinicConfig) SweepInterval() time.Duration {
	if c.SessionSweepIntervalSecond <= 0 {
		return time.Minute
	}
	return time.Duration(c.SessionSweepIntervalSecond) * time.Second
}

func (c ClinicConfig) SequenceTTL() time.Duration {
	if c.SequenceTTLHours <= 0 {
		return 48 * time.Hour
	}
	return time.Duration(c.SequenceTTLHours) * time.Hour
}

type ObservabilityConfig struct {
	Enabled        bool          `mapstructure:"enabled"`
	ServiceName    string        `mapstructure:"service_name"`
	ServiceVersion string        `mapstructure:"service_version"`
	Tracing        TracingConfig `mapstructure:"tracing"`
	Metrics        MetricsConfig `mapstructure:"metrics"`
}

type TracingConfig struct {
	Enabled      bool    `mapstructure:"enabled"`
	OTLPEndpoint string  `mapstructure:"otlp_endpoint"`
	OTLPInsecure bool    `mapstructure:"otlp_insecure"`
	SamplingRate float64 `mapstructure:"sampling_rate"`
}

type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

type LoggingConfig struct {
	Level  string       `mapstructure:"level"`  // debug, info, warn, error
	Format string       `mapstructure:"format"` // text, json
	Output OutputConfig `mapstructure:"output"`
}

type OutputConfig struct {
	Stdout bool          `mapstructure:"stdout"`
	File   FileLogConfig `mapstructure:"file"`
	Loki   LokiConfig    `mapstructure:"loki"`
}

type FileLogConfig struct {
	Enabled    bool   `mapstructure:"enabled"`
	Path       string `mapstructure:"path"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
	Compress   bool   `mapstructure:"compress"`
}

type LokiConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Endpoint string `mapstructure:"endpoint"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
}

func (c *Config) Validate() error {
	if _, err := c.Clinic.Location(); err != nil {
		return fmt.Errorf("clinic.timezone: %w", err)
	}
	if c.Clinic.DefaultPageLimit < 0 || c.Clinic.MaxPageLimit < 0 {
		return fmt.Errorf("clinic page limits must not be negative")
	}
	if c.Clinic.SessionSweepIntervalSecond < 0 {
		return fmt.Errorf("clinic.session_sweep_interval_seconds must not be negative")
	}
	if c.Clinic.MaxPageLimit > 0 && c.Clinic.DefaultPageLimit > c.Clinic.MaxPageLimit {
		return fmt.Errorf("clinic.default_page_limit exceeds clinic.max_page_limit")
	}
	switch strings.ToLower(c.Email.Provider) {
	case "", "smtp", "sendgrid":
	default:
		return fmt.Errorf("email.provider must be smtp or sendgrid, got %q", c.Email.Provider)
	}
	return nil
}
