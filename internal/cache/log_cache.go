// Package cache keeps recently read change-set logs in Redis. Only raw
// logs are cached; tickets are always re-projected from them.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/spec-kit/ticket-ledger/internal/domain"
	"github.com/spec-kit/ticket-ledger/internal/wire"
)

// LogCache stores change-set logs by ticket id.
//
// Every ticket carries a generation that Invalidate bumps. A reader takes
// Generation before it lists the store and passes it to Set; Set is dropped
// when an append invalidated the ticket in between, so a log read before
// that append is never cached over it.
type LogCache interface {
	Generation(ctx context.Context, ticketID string) (int64, error)
	Get(ctx context.Context, ticketID string) ([]domain.ChangeSet, bool, error)
	Set(ctx context.Context, ticketID string, log []domain.ChangeSet, generation int64) error
	Invalidate(ctx context.Context, ticketID string) error
}

const (
	keyPrefix = "ticket-ledger:log:"
	genPrefix = "ticket-ledger:gen:"
)

// setScript writes the log only while the generation still matches.
// KEYS: generation, log. ARGV: expected generation, payload, ttl millis.
var setScript = redis.NewScript(`
local gen = redis.call("GET", KEYS[1]) or "0"
if gen ~= ARGV[1] then
    return 0
end
if tonumber(ARGV[3]) > 0 then
    redis.call("SET", KEYS[2], ARGV[2], "PX", ARGV[3])
else
    redis.call("SET", KEYS[2], ARGV[2])
end
return 1`)

// RedisLogCache implements LogCache on go-redis.
type RedisLogCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisLogCache returns a cache whose entries expire after ttl. A zero
// ttl keeps entries until invalidated.
func NewRedisLogCache(client *redis.Client, ttl time.Duration) *RedisLogCache {
	return &RedisLogCache{client: client, ttl: ttl}
}

func logKey(ticketID string) string {
	return keyPrefix + ticketID
}

func genKey(ticketID string) string {
	return genPrefix + ticketID
}

func (c *RedisLogCache) Generation(ctx context.Context, ticketID string) (int64, error) {
	gen, err := c.client.Get(ctx, genKey(ticketID)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("cache generation %s: %w", ticketID, err)
	}
	return gen, nil
}

func (c *RedisLogCache) Get(ctx context.Context, ticketID string) ([]domain.ChangeSet, bool, error) {
	raw, err := c.client.Get(ctx, logKey(ticketID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("cache get %s: %w", ticketID, err)
	}
	log, err := decodeLog(raw)
	if err != nil {
		return nil, false, fmt.Errorf("cache decode %s: %w", ticketID, err)
	}
	return log, true, nil
}

// Set stores log unless the ticket moved past generation.
func (c *RedisLogCache) Set(ctx context.Context, ticketID string, log []domain.ChangeSet, generation int64) error {
	raw, err := encodeLog(log)
	if err != nil {
		return err
	}
	keys := []string{genKey(ticketID), logKey(ticketID)}
	if err := setScript.Run(ctx, c.client, keys, generation, raw, c.ttl.Milliseconds()).Err(); err != nil {
		return fmt.Errorf("cache set %s: %w", ticketID, err)
	}
	return nil
}

func (c *RedisLogCache) Invalidate(ctx context.Context, ticketID string) error {
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, genKey(ticketID))
		pipe.Del(ctx, logKey(ticketID))
		return nil
	})
	if err != nil {
		return fmt.Errorf("cache invalidate %s: %w", ticketID, err)
	}
	return nil
}

func encodeLog(log []domain.ChangeSet) ([]byte, error) {
	records := make([]wire.ChangeSet, len(log))
	for i, cs := range log {
		records[i] = wire.FromChangeSet("", cs)
	}
	return json.Marshal(records)
}

func decodeLog(raw []byte) ([]domain.ChangeSet, error) {
	var records []wire.ChangeSet
	if err := json.Unmarshal(raw, &records); err != nil {
		return nil, err
	}
	log := make([]domain.ChangeSet, 0, len(records))
	for _, record := range records {
		cs, err := record.ToDomain()
		if err != nil {
			return nil, err
		}
		log = append(log, cs)
	}
	return log, nil
}
