package otp

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisLedger keeps codes in Redis with a native TTL. Semantics match
// MemoryLedger: SET replaces, expiry removes. Useful when several API
// replicas must share one ledger.
type RedisLedger struct {
	client redis.UniversalClient
	prefix string
}

func NewRedisLedger(client redis.UniversalClient, prefix string) *RedisLedger {
	if prefix == "" {
		prefix = "otp"
	}
	return &RedisLedger{client: client, prefix: prefix}
}

func (l *RedisLedger) key(key string) string {
	return l.prefix + ":" + key
}

func (l *RedisLedger) Put(ctx context.Context, key, code string, ttl time.Duration) error {
	return l.client.Set(ctx, l.key(key), code, ttl).Err()
}

func (l *RedisLedger) Peek(ctx context.Context, key string) (Entry, bool, error) {
	pipe := l.client.Pipeline()
	getCmd := pipe.Get(ctx, l.key(key))
	ttlCmd := pipe.PTTL(ctx, l.key(key))
	if _, err := pipe.Exec(ctx); err != nil {
		if errors.Is(err, redis.Nil) {
			return Entry{}, false, nil
		}
		return Entry{}, false, err
	}

	ttl := ttlCmd.Val()
	if ttl < 0 {
		// Key exists without expiry; treat as live far in the future.
		ttl = time.Hour
	}
	return Entry{
		Code:      getCmd.Val(),
		ExpiresAt: time.Now().Add(ttl),
	}, true, nil
}

func (l *RedisLedger) Delete(ctx context.Context, key string) error {
	return l.client.Del(ctx, l.key(key)).Err()
}
