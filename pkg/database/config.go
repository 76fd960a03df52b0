package database

import (
	"fmt"
	"net"
	"net/url"
	"strconv"
	"time"

	"github.com/Alijeyrad/medicenter_backend/config"
)

type Config struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string

	MaxConns           int32
	MinConns           int32
	ConnMaxLifetimeMin int

	AutoMigrate bool
}

// DSN returns a postgres:// URL understood by pgx, lib/pq and the casbin
// adapters alike.
func (c Config) DSN() string {
	u := url.URL{
		Scheme: "postgres",
		Host:   net.JoinHostPort(c.Host, strconv.Itoa(c.Port)),
		Path:   "/" + c.DBName,
	}
	if c.User != "" {
		u.User = url.UserPassword(c.User, c.Password)
	}
	sslmode := c.SSLMode
	if sslmode == "" {
		sslmode = "disable"
	}
	u.RawQuery = url.Values{"sslmode": {sslmode}}.Encode()
	return u.String()
}

func (c Config) ConnMaxLifetime() time.Duration {
	if c.ConnMaxLifetimeMin <= 0 {
		return 5 * time.Minute
	}
	return time.Duration(c.ConnMaxLifetimeMin) * time.Minute
}

func (c Config) String() string {
	return fmt.Sprintf("postgres %s:%d/%s", c.Host, c.Port, c.DBName)
}

func DefaultConfig() Config {
	return Config{
		Host:               "localhost",
		Port:               5432,
		SSLMode:            "disable",
		MaxConns:           25,
		MinConns:           2,
		ConnMaxLifetimeMin: 5,
	}
}

func FromCentralConfig(c config.DatabaseConfig) Config {
	d := DefaultConfig()
	cfg := Config{
		Host:               c.Host,
		Port:               c.Port,
		User:               c.User,
		Password:           c.Password,
		DBName:             c.DBName,
		SSLMode:            c.SSLMode,
		MaxConns:           int32(c.Pool.MaxOpenConns),
		MinConns:           int32(c.Pool.MinIdleConns),
		ConnMaxLifetimeMin: c.Pool.ConnMaxLifetimeMin,
		AutoMigrate:        c.Migrations.AutoMigrate,
	}
	if cfg.MaxConns <= 0 {
		cfg.MaxConns = d.MaxConns
	}
	if cfg.MinConns < 0 || cfg.MinConns > cfg.MaxConns {
		cfg.MinConns = d.MinConns
	}
	return cfg
}

func NewDSN(c config.DatabaseConfig) string {
	return FromCentralConfig(c).DSN()
}
