package redis

import (
	"time"

	"github.com/Alijeyrad/medicenter_backend/config"
)

type Config struct {
	Addr     string
	DB       int
	Username string
	Password string

	PoolSize     int
	MinIdleConns int

	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

func DefaultConfig() Config {
	return Config{
		Addr:         "localhost:6379",
		PoolSize:     10,
		MinIdleConns: 2,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	}
}

func seconds(n int, fallback time.Duration) time.Duration {
	if n <= 0 {
		return fallback
	}
	return time.Duration(n) * time.Second
}

func orDefault(n, fallback int) int {
	if n <= 0 {
		return fallback
	}
	return n
}

// FromCentralConfig fills unset pool and timeout fields from DefaultConfig.
func FromCentralConfig(c config.RedisConfig) Config {
	d := DefaultConfig()
	return Config{
		Addr:         c.Addr,
		DB:           c.DB,
		Username:     c.Username,
		Password:     c.Password,
		PoolSize:     orDefault(c.PoolSize, d.PoolSize),
		MinIdleConns: orDefault(c.MinIdleConns, d.MinIdleConns),
		DialTimeout:  seconds(c.DialTimeoutSeconds, d.DialTimeout),
		ReadTimeout:  seconds(c.ReadTimeoutSeconds, d.ReadTimeout),
		WriteTimeout: seconds(c.WriteTimeoutSeconds, d.WriteTimeout),
	}
}
