package redis

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
)

// unlockScript deletes the key only if this holder still owns it.
var unlockScript = goredis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Lock is a single-holder lease on a Redis key.
type Lock struct {
	rdb   goredis.UniversalClient
	key   string
	token string
}

// TryLock takes key with SET NX PX. It returns (nil, nil) when another
// holder owns the key; the lease lapses after ttl if never released.
func TryLock(ctx context.Context, rdb goredis.UniversalClient, key string, ttl time.Duration) (*Lock, error) {
	token := uuid.NewString()
	ok, err := rdb.SetNX(ctx, key, token, ttl).Result()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	return &Lock{rdb: rdb, key: key, token: token}, nil
}

// Release gives the lease back. Releasing a lease that already expired
// and was taken by someone else is a no-op.
func (l *Lock) Release(ctx context.Context) error {
	if l == nil {
		return nil
	}
	err := unlockScript.Run(ctx, l.rdb, []string{l.key}, l.token).Err()
	if errors.Is(err, goredis.Nil) {
		return nil
	}
	return err
}
