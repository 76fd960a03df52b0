package repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/Alijeyrad/medicenter_backend/pkg/constants"
)

// SeedFunc returns the highest value already issued in a scope, read from
// the database. It runs only when the Redis key is missing.
type SeedFunc func(ctx context.Context) (int64, error)

// nextScript increments an existing counter. With a seed argument it first
// initialises a missing key to that seed. Without one it returns nil for a
// missing key so the caller can load the seed and retry.
var nextScript = goredis.NewScript(`
local exists = redis.call('EXISTS', KEYS[1])
if exists == 0 then
	if ARGV[1] == '' then
		return false
	end
	redis.call('SET', KEYS[1], ARGV[1])
end
local n = redis.call('INCR', KEYS[1])
local ttl = tonumber(ARGV[2])
if ttl > 0 then
	redis.call('PEXPIRE', KEYS[1], ttl)
end
return n
`)

// Counter is the sequencing capability services depend on.
type Counter interface {
	Next(ctx context.Context, scope string, ttl time.Duration, seed SeedFunc) (int64, error)
	Reset(ctx context.Context, scope string) error
}

// Sequencer hands out per-scope counters with an atomic increment. Counters
// are seeded from the store so a flushed Redis resumes where the data left off.
type Sequencer struct {
	rdb goredis.UniversalClient
}

func NewSequencer(rdb goredis.UniversalClient) *Sequencer {
	return &Sequencer{rdb: rdb}
}

func sequenceKey(scope string) string {
	return constants.RedisKeySequence + scope
}

// Next returns the next value in scope. ttl of zero keeps the key forever.
func (s *Sequencer) Next(ctx context.Context, scope string, ttl time.Duration, seed SeedFunc) (int64, error) {
	key := sequenceKey(scope)
	ttlMs := ttl.Milliseconds()

	n, err := nextScript.Run(ctx, s.rdb, []string{key}, "", ttlMs).Int64()
	if err == nil {
		return n, nil
	}
	if !errors.Is(err, goredis.Nil) {
		return 0, fmt.Errorf("sequence %s: %w", scope, err)
	}

	start, err := seed(ctx)
	if err != nil {
		return 0, fmt.Errorf("seed sequence %s: %w", scope, err)
	}
	n, err = nextScript.Run(ctx, s.rdb, []string{key}, start, ttlMs).Int64()
	if err != nil {
		return 0, fmt.Errorf("sequence %s: %w", scope, err)
	}
	return n, nil
}

// Reset drops the counter so the next call reseeds from the store. Callers
// use it after an identifier collision.
func (s *Sequencer) Reset(ctx context.Context, scope string) error {
	if err := s.rdb.Del(ctx, sequenceKey(scope)).Err(); err != nil {
		return fmt.Errorf("reset sequence %s: %w", scope, err)
	}
	return nil
}

// Sequence scopes.
func CenterScope() string { return "center" }

func PatientScope() string { return "patient" }

func SessionScope(centerCode string) string { return "session:" + centerCode }

func AppointmentScope(sessionCode string, day time.Time) string {
	return "appointment:" + sessionCode + ":" + day.Format("20060102")
}
