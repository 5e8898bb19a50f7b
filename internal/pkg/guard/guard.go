// Package guard enforces a single active payment poll per checkout session.
// Each holder identifies itself with a token, and only the current holder
// can release a key.
package guard

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrLeaseLost is returned by Release when the key is no longer held by the
// given token, e.g. after the Redis TTL ran out.
var ErrLeaseLost = errors.New("poll lease is not held by this token")

type Memory struct {
	mu     sync.Mutex
	active map[string]string
}

func NewMemory() *Memory {
	return &Memory{active: make(map[string]string)}
}

func (m *Memory) Acquire(_ context.Context, key, token string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.active[key]; ok {
		return false, nil
	}
	m.active[key] = token
	return true, nil
}

func (m *Memory) Release(_ context.Context, key, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.active[key] != token {
		return ErrLeaseLost
	}
	delete(m.active, key)
	return nil
}

// releaseScript deletes the key only while it still holds our token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Redis shares the rule between processes. The TTL bounds how long a crashed
// poller can hold a session, so it must outlast the longest live poll.
type Redis struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedis(rdb *redis.Client, ttl time.Duration) *Redis {
	return &Redis{rdb: rdb, ttl: ttl}
}

func (r *Redis) Key(sessionKey string) string {
	return fmt.Sprintf("storefront:poll:%s", sessionKey)
}

func (r *Redis) Acquire(ctx context.Context, key, token string) (bool, error) {
	ok, err := r.rdb.SetNX(ctx, r.Key(key), token, r.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("rdb.SetNX: %w", err)
	}
	return ok, nil
}

func (r *Redis) Release(ctx context.Context, key, token string) error {
	n, err := releaseScript.Run(ctx, r.rdb, []string{r.Key(key)}, token).Int()
	if err != nil {
		return fmt.Errorf("releaseScript.Run: %w", err)
	}
	if n == 0 {
		return ErrLeaseLost
	}
	return nil
}
