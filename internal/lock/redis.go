package lock

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	redisKeyPrefix = "ticket-ledger:lock:"
	retryInterval  = 25 * time.Millisecond
)

// ErrLeaseLost is returned by Release when the lease expired and another
// writer took the key.
var ErrLeaseLost = errors.New("lock lease lost")

// releaseScript deletes the key only if it still holds our token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
    return redis.call("DEL", KEYS[1])
end
return 0`)

// RedisLocker is a lease lock shared by every service instance. A lease
// expires after ttl so a crashed holder cannot block a ticket forever.
type RedisLocker struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisLocker(client *redis.Client, ttl time.Duration) *RedisLocker {
	return &RedisLocker{client: client, ttl: ttl}
}

// Acquire polls SET NX until it wins the key or ctx is done.
func (l *RedisLocker) Acquire(ctx context.Context, key string) (Release, error) {
	redisKey := redisKeyPrefix + key
	token := uuid.NewString()

	ticker := time.NewTicker(retryInterval)
	defer ticker.Stop()
	for {
		ok, err := l.client.SetNX(ctx, redisKey, token, l.ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("acquire lock %s: %w", key, err)
		}
		if ok {
			break
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}

	var once sync.Once
	return func(ctx context.Context) error {
		var err error
		once.Do(func() {
			var deleted int64
			deleted, err = releaseScript.Run(ctx, l.client, []string{redisKey}, token).Int64()
			if err != nil {
				err = fmt.Errorf("release lock %s: %w", key, err)
				return
			}
			if deleted == 0 {
				err = ErrLeaseLost
			}
		})
		return err
	}, nil
}
