package historical

import (
	"context"

	"github.com/redis/go-redis/v9"
)

// RedisCounter is a Counter backed by a single Redis INCR key, giving the
// persistence-key sequence cross-process durability: a restarted process
// resumes the count instead of recycling keys a crashed instance already
// handed out.
type RedisCounter struct {
	client *redis.Client
	key    string
	ctx    context.Context
}

// NewRedisCounter constructs a RedisCounter against key on client. ctx
// bounds every INCR call; pass context.Background() for a counter with no
// deadline of its own.
func NewRedisCounter(ctx context.Context, client *redis.Client, key string) *RedisCounter {
	return &RedisCounter{client: client, key: key, ctx: ctx}
}

// Next issues INCR against the backing key, which is offset by one so the
// sequence starts at 0 like inMemoryCounter's. On a Redis error it falls
// back to 0 rather than panicking — a historical sink missing a key is
// preferable to crashing the core synchronous graph over a transport
// blip.
func (c *RedisCounter) Next() uint64 {
	n, err := c.client.Incr(c.ctx, c.key).Result()
	if err != nil {
		return 0
	}
	return uint64(n - 1)
}
