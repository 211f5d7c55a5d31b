package ledger

import (
	"context"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "employee-contract-tests:"

// RedisLedger stores each namespace as a hash whose fields are entity ids.
type RedisLedger struct {
	redis *redis.Client
}

func NewRedisLedger(client *redis.Client) *RedisLedger {
	return &RedisLedger{redis: client}
}

func (r *RedisLedger) DSN() string {
	return fmt.Sprintf("redis://%s/%d", r.redis.Options().Addr, r.redis.Options().DB)
}

func (r *RedisLedger) Record(ctx context.Context, entry Entry) error {
	data, err := entry.MarshalJSON()
	if err != nil {
		return err
	}
	return r.redis.HSet(ctx, redisKeyPrefix+entry.Namespace, entry.key(), string(data)).Err()
}

func (r *RedisLedger) Forget(ctx context.Context, namespace string, id int64) error {
	return r.redis.HDel(ctx, redisKeyPrefix+namespace, strconv.FormatInt(id, 10)).Err()
}

func (r *RedisLedger) Pending(ctx context.Context, namespace string) ([]Entry, error) {
	fields, err := r.redis.HGetAll(ctx, redisKeyPrefix+namespace).Result()
	if err != nil {
		return nil, err
	}
	values := make(map[string][]byte, len(fields))
	for k, v := range fields {
		values[k] = []byte(v)
	}
	return parseEntries(namespace, values)
}

func (r *RedisLedger) Close() error { return r.redis.Close() }
