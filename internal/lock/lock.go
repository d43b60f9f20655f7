package lock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrLocked is returned when another invocation holds the run lock.
var ErrLocked = errors.New("run lock held")

// ReleaseFunc gives the lock back. It is safe to call after the lock expired.
type ReleaseFunc func(ctx context.Context) error

// Locker serializes collector runs over one archive.
type Locker interface {
	Acquire(ctx context.Context) (ReleaseFunc, error)
}

// Key builds the lock key for an archive location.
func Key(bucket, folder string) string {
	return fmt.Sprintf("shinacap:lock:%s/%s", bucket, folder)
}

// Noop never blocks.
type Noop struct{}

func (Noop) Acquire(context.Context) (ReleaseFunc, error) {
	return func(context.Context) error { return nil }, nil
}

// Client is the subset of go-redis used by Redis.
type Client interface {
	SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.BoolCmd
	Eval(ctx context.Context, script string, keys []string, args ...interface{}) *redis.Cmd
}

// Deletes the key only while it still carries our token.
const releaseScript = `if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0`

// Redis holds the lock as a key with a TTL so a crashed run cannot wedge the job.
type Redis struct {
	client Client
	key    string
	ttl    time.Duration
	token  func() string
}

func NewRedis(client Client, key string, ttl time.Duration) (*Redis, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client is required")
	}
	if key == "" {
		return nil, fmt.Errorf("lock key is required")
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("lock ttl must be positive")
	}
	return &Redis{client: client, key: key, ttl: ttl, token: uuid.NewString}, nil
}

func (r *Redis) Acquire(ctx context.Context) (ReleaseFunc, error) {
	token := r.token()
	ok, err := r.client.SetNX(ctx, r.key, token, r.ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("acquire lock %s: %w", r.key, err)
	}
	if !ok {
		return nil, fmt.Errorf("acquire lock %s: %w", r.key, ErrLocked)
	}

	return func(ctx context.Context) error {
		if err := r.client.Eval(ctx, releaseScript, []string{r.key}, token).Err(); err != nil {
			return fmt.Errorf("release lock %s: %w", r.key, err)
		}
		return nil
	}, nil
}
