package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const defaultLockTTL = 30 * time.Second

// releaseScript deletes the lock only if it still holds our token, so an
// expired lock taken over by another request is never released by us.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// CaptureLock serializes payment captures per provider order.
// Key format: capture-lock:<order_id>
type CaptureLock struct {
	client *redis.Client
	ttl    time.Duration
}

// NewCaptureLock creates a CaptureLock. The TTL bounds how long a crashed
// holder can block retries; it should exceed the provider capture timeout.
func NewCaptureLock(client *redis.Client, ttl time.Duration) *CaptureLock {
	if ttl <= 0 {
		ttl = defaultLockTTL
	}
	return &CaptureLock{client: client, ttl: ttl}
}

// Acquire tries to take the lock without waiting.
func (l *CaptureLock) Acquire(ctx context.Context, orderID string) (string, bool, error) {
	token := uuid.NewString()
	ok, err := l.client.SetNX(ctx, l.key(orderID), token, l.ttl).Result()
	if err != nil {
		return "", false, fmt.Errorf("capture lock acquire: %w", err)
	}
	if !ok {
		return "", false, nil
	}
	return token, true, nil
}

// Release frees the lock if token still owns it.
func (l *CaptureLock) Release(ctx context.Context, orderID, token string) error {
	if err := releaseScript.Run(ctx, l.client, []string{l.key(orderID)}, token).Err(); err != nil {
		return fmt.Errorf("capture lock release: %w", err)
	}
	return nil
}

func (l *CaptureLock) key(orderID string) string {
	return fmt.Sprintf("capture-lock:%s", orderID)
}
